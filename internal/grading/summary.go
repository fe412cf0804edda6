package grading

import (
	"fmt"
	"strings"

	"github.com/noah-isme/grades-dashboard/internal/models"
	appErrors "github.com/noah-isme/grades-dashboard/pkg/errors"
)

// Filter returns the records whose field equals value.
func Filter(records []models.GradedRecord, field models.FilterField, value string) []models.GradedRecord {
	value = strings.TrimSpace(value)
	var out []models.GradedRecord
	for _, r := range records {
		if strings.TrimSpace(r.Field(field)) == value {
			out = append(out, r)
		}
	}
	return out
}

// DistinctValues lists the non-empty values of a field in first-occurrence order.
func DistinctValues(records []models.GradedRecord, field models.FilterField) []string {
	seen := make(map[string]struct{})
	values := make([]string, 0)
	for _, r := range records {
		v := strings.TrimSpace(r.Field(field))
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	return values
}

// Options collects every selector value the UI can offer.
func Options(records []models.GradedRecord) models.FilterOptions {
	values := make(map[models.FilterField][]string, len(models.FilterFields))
	for _, f := range models.FilterFields {
		values[f] = DistinctValues(records, f)
	}
	codes := make([]string, len(models.Assessments))
	for i, a := range models.Assessments {
		codes[i] = a.Code
	}
	return models.FilterOptions{
		Fields:      append([]models.FilterField(nil), models.FilterFields...),
		Values:      values,
		Assessments: codes,
		Categories:  append([]models.GradeCategory(nil), models.CategoryDisplayOrder...),
	}
}

// Distribution counts categories of one assessment, zero-filled in display order.
func Distribution(records []models.GradedRecord, code string) []models.CategoryCount {
	a, _ := models.LookupAssessment(code)
	counts := make(map[models.GradeCategory]int, len(models.CategoryDisplayOrder))
	for _, r := range records {
		cat, ok := r.Categories[a.CategoryColumn]
		if !ok {
			cat = Categorize(r.Score(code))
		}
		counts[cat]++
	}
	out := make([]models.CategoryCount, len(models.CategoryDisplayOrder))
	for i, cat := range models.CategoryDisplayOrder {
		out[i] = models.CategoryCount{Category: cat, Count: counts[cat], Color: cat.Color()}
	}
	return out
}

// Comparison projects records onto the general vs evaluations plane.
func Comparison(records []models.GradedRecord) []models.ComparisonPoint {
	points := make([]models.ComparisonPoint, len(records))
	for i, r := range records {
		points[i] = models.ComparisonPoint{
			Student:     r.Student,
			Major:       r.Major,
			General:     r.Averages.General,
			Evaluations: r.Averages.Group(models.GroupEvaluaciones),
		}
	}
	return points
}

// Summarize filters the gradebook and builds the view for one selection.
// A student selection describes the first matching record across all assessments;
// any other field describes the distribution and means of a single assessment.
func Summarize(records []models.GradedRecord, field models.FilterField, value, assessment string) (*models.FilteredSummary, error) {
	if field.Column() == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown filter field %q", field))
	}
	if strings.TrimSpace(value) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "filter value is required")
	}
	assessment = strings.TrimSpace(assessment)
	if assessment == "" {
		assessment = models.AllAssessments
	}
	if assessment != models.AllAssessments {
		if _, ok := models.LookupAssessment(assessment); !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown assessment %q", assessment))
		}
	}
	if field != models.FilterStudent && assessment == models.AllAssessments {
		return nil, appErrors.Clone(appErrors.ErrValidation, "a single assessment is required unless filtering by student")
	}

	matched := Filter(records, field, value)
	if len(matched) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no records where %s = %q", field.Column(), value))
	}

	summary := &models.FilteredSummary{
		Field:      field,
		Value:      strings.TrimSpace(value),
		Assessment: assessment,
		MatchCount: len(matched),
	}

	if field == models.FilterStudent {
		summary.Student = studentSummary(matched[0])
		summary.GroupMean = matched[0].Averages.General
		summary.GlobalMean = Mean(generalAverages(records)...)
		summary.Comparison = Comparison(records)
		summary.Lines = studentLines(matched[0].Averages)
		return summary, nil
	}

	summary.Distribution = Distribution(matched, assessment)
	summary.GroupMean = ColumnMean(matched, assessment)
	summary.GlobalMean = ColumnMean(records, assessment)
	summary.Comparison = Comparison(matched)
	summary.Lines = []string{
		fmt.Sprintf("Promedio del Aula (%s) en %s: %s", summary.Value, assessment, summary.GroupMean.Format()),
		fmt.Sprintf("Promedio General en %s: %s", assessment, summary.GlobalMean.Format()),
	}
	return summary, nil
}

func studentSummary(r models.GradedRecord) *models.StudentSummary {
	scores := make([]models.AssessmentScore, len(models.Assessments))
	for i, a := range models.Assessments {
		cat, ok := r.Categories[a.CategoryColumn]
		if !ok {
			cat = Categorize(r.Score(a.Code))
		}
		scores[i] = models.AssessmentScore{Code: a.Code, Score: r.Score(a.Code), Category: cat}
	}
	return &models.StudentSummary{
		Student:   r.Student,
		Professor: r.Professor,
		Major:     r.Major,
		Section:   r.Section,
		Attempt:   r.Attempt,
		Scores:    scores,
		Averages:  r.Averages,
	}
}

func studentLines(avg models.DerivedAverages) []string {
	lines := []string{
		fmt.Sprintf("Promedio acumulado de la evaluación continua: %s", avg.General.Format()),
	}
	for _, name := range []string{models.GroupEvaluaciones, models.GroupLaboratorio, models.GroupTrabajoGrupal, models.GroupTareas, models.GroupProyectos} {
		g, _ := models.LookupGroup(name)
		lines = append(lines, fmt.Sprintf("Promedio de %s: %s", g.Label, avg.Group(name).Format()))
	}
	return lines
}

func generalAverages(records []models.GradedRecord) []models.Score {
	out := make([]models.Score, len(records))
	for i, r := range records {
		out[i] = r.Averages.General
	}
	return out
}
