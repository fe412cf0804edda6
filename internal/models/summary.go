package models

// CategoryCount is one bar of a category distribution.
type CategoryCount struct {
	Category GradeCategory `json:"category"`
	Count    int           `json:"count"`
	Color    string        `json:"color"`
}

// AssessmentScore is a raw score with its category.
type AssessmentScore struct {
	Code     string        `json:"code"`
	Score    Score         `json:"score"`
	Category GradeCategory `json:"category"`
}

// StudentSummary is the longitudinal view of one student.
type StudentSummary struct {
	Student   string            `json:"student"`
	Professor string            `json:"professor"`
	Major     string            `json:"major"`
	Section   string            `json:"section"`
	Attempt   string            `json:"attempt"`
	Scores    []AssessmentScore `json:"scores"`
	Averages  DerivedAverages   `json:"averages"`
}

// ComparisonPoint is one dot of the general vs evaluations scatter.
type ComparisonPoint struct {
	Student     string `json:"student"`
	Major       string `json:"major"`
	General     Score  `json:"general"`
	Evaluations Score  `json:"evaluations"`
}

// FilteredSummary is the projection of the gradebook for one filter selection.
type FilteredSummary struct {
	Field        FilterField       `json:"field"`
	Value        string            `json:"value"`
	Assessment   string            `json:"assessment"`
	MatchCount   int               `json:"match_count"`
	Student      *StudentSummary   `json:"student,omitempty"`
	Distribution []CategoryCount   `json:"distribution,omitempty"`
	GroupMean    Score             `json:"group_mean"`
	GlobalMean   Score             `json:"global_mean"`
	Comparison   []ComparisonPoint `json:"comparison"`
	Lines        []string          `json:"lines"`
}

// FilterOptions lists what the UI can offer in its selectors.
type FilterOptions struct {
	Fields      []FilterField            `json:"fields"`
	Values      map[FilterField][]string `json:"values"`
	Assessments []string                 `json:"assessments"`
	Categories  []GradeCategory          `json:"categories"`
}
