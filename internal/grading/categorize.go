// Package grading derives averages, performance bands and filtered summaries from a grades table.
package grading

import "github.com/noah-isme/grades-dashboard/internal/models"

// Lower bounds of each band, inclusive.
const (
	excelenteFrom = 18
	muyBuenoFrom  = 16
	buenoFrom     = 14
	moderadoFrom  = 11
	maloFrom      = 8
)

// Categorize maps a score to its band. Missing scores are NP.
func Categorize(s models.Score) models.GradeCategory {
	v, ok := s.Get()
	switch {
	case !ok:
		return models.CategoryNP
	case v >= excelenteFrom:
		return models.CategoryExcelente
	case v >= muyBuenoFrom:
		return models.CategoryMuyBueno
	case v >= buenoFrom:
		return models.CategoryBueno
	case v >= moderadoFrom:
		return models.CategoryModerado
	case v >= maloFrom:
		return models.CategoryMalo
	default:
		return models.CategoryMuyMalo
	}
}
