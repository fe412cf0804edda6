package models

import (
	"fmt"
	"time"
)

// StudentRecord is one row of the grades spreadsheet (student, section and attempt).
type StudentRecord struct {
	Student   string           `json:"Alumno"`
	Professor string           `json:"Profesor"`
	Major     string           `json:"Carrera"`
	Section   string           `json:"Sección"`
	Attempt   string           `json:"Vez"`
	Scores    map[string]Score `json:"scores"`
}

// Score returns the score for an assessment code, Missing when absent.
func (r StudentRecord) Score(code string) Score {
	if r.Scores == nil {
		return Missing
	}
	return r.Scores[code]
}

// Field returns the identity value selected by a filter field.
func (r StudentRecord) Field(f FilterField) string {
	switch f {
	case FilterProfessor:
		return r.Professor
	case FilterMajor:
		return r.Major
	case FilterSection:
		return r.Section
	case FilterAttempt:
		return r.Attempt
	case FilterStudent:
		return r.Student
	default:
		return ""
	}
}

// DerivedAverages holds the group averages keyed by average column plus the overall mean.
type DerivedAverages struct {
	Groups  map[string]Score `json:"groups"`
	General Score            `json:"Promedio_General"`
}

// Group returns the average of the named group.
func (d DerivedAverages) Group(name string) Score {
	g, ok := LookupGroup(name)
	if !ok || d.Groups == nil {
		return Missing
	}
	return d.Groups[g.AverageColumn]
}

// GradedRecord is a StudentRecord extended with derived columns.
type GradedRecord struct {
	StudentRecord
	Averages   DerivedAverages          `json:"averages"`
	Categories map[string]GradeCategory `json:"categories"`
}

// SourceVersion identifies one revision of the grades source.
type SourceVersion struct {
	Location     string    `json:"location"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	Size         int64     `json:"size,omitempty"`
	ModTime      time.Time `json:"mod_time,omitempty"`
}

// Tag is a compact revision marker, empty when the source exposes none.
func (v SourceVersion) Tag() string {
	switch {
	case v.ETag != "":
		return v.ETag
	case v.LastModified != "":
		return v.LastModified
	case !v.ModTime.IsZero():
		return fmt.Sprintf("%d-%d", v.ModTime.UnixNano(), v.Size)
	default:
		return ""
	}
}

// Gradebook is the fully derived table built from one source revision.
type Gradebook struct {
	Records  []GradedRecord `json:"records"`
	Version  SourceVersion  `json:"version"`
	LoadedAt time.Time      `json:"loaded_at"`
}

// Pagination describes a page of records.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
