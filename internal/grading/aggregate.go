package grading

import "github.com/noah-isme/grades-dashboard/internal/models"

// Mean averages the present scores. It is Missing when none is present.
func Mean(scores ...models.Score) models.Score {
	var (
		sum   float64
		count int
	)
	for _, s := range scores {
		if v, ok := s.Get(); ok {
			sum += v
			count++
		}
	}
	if count == 0 {
		return models.Missing
	}
	return models.Some(sum / float64(count))
}

// GroupAverage averages the member scores of one group for a record.
func GroupAverage(r models.StudentRecord, g models.AssessmentGroup) models.Score {
	scores := make([]models.Score, len(g.Members))
	for i, code := range g.Members {
		scores[i] = r.Score(code)
	}
	return Mean(scores...)
}

// Averages computes the five group averages and the unweighted mean of those averages.
func Averages(r models.StudentRecord) models.DerivedAverages {
	groups := make(map[string]models.Score, len(models.AssessmentGroups))
	means := make([]models.Score, 0, len(models.AssessmentGroups))
	for _, g := range models.AssessmentGroups {
		avg := GroupAverage(r, g)
		groups[g.AverageColumn] = avg
		means = append(means, avg)
	}
	return models.DerivedAverages{Groups: groups, General: Mean(means...)}
}

// Categories applies Categorize to every assessment column, keyed by its category column.
func Categories(r models.StudentRecord) map[string]models.GradeCategory {
	out := make(map[string]models.GradeCategory, len(models.Assessments))
	for _, a := range models.Assessments {
		out[a.CategoryColumn] = Categorize(r.Score(a.Code))
	}
	return out
}

// Derive extends every record with its averages and categories. Input order is kept.
func Derive(records []models.StudentRecord) []models.GradedRecord {
	out := make([]models.GradedRecord, len(records))
	for i, r := range records {
		out[i] = models.GradedRecord{
			StudentRecord: r,
			Averages:      Averages(r),
			Categories:    Categories(r),
		}
	}
	return out
}

// ColumnMean averages one assessment over a set of records.
func ColumnMean(records []models.GradedRecord, code string) models.Score {
	scores := make([]models.Score, len(records))
	for i, r := range records {
		scores[i] = r.Score(code)
	}
	return Mean(scores...)
}
