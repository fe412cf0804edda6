package grading

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/noah-isme/grades-dashboard/internal/models"
	appErrors "github.com/noah-isme/grades-dashboard/pkg/errors"
	"github.com/noah-isme/grades-dashboard/pkg/spreadsheet"
)

// missingMarkers are cell values that stand for a score that was not presented.
var missingMarkers = map[string]struct{}{
	"":    {},
	"np":  {},
	"-":   {},
	"nan": {},
	"n/a": {},
}

// ParseScore reads a cell. Blank, NP and non-numeric cells are missing; a decimal comma is accepted.
func ParseScore(raw string) models.Score {
	raw = strings.TrimSpace(raw)
	if _, ok := missingMarkers[strings.ToLower(raw)]; ok {
		return models.Missing
	}
	v, err := strconv.ParseFloat(strings.Replace(raw, ",", ".", 1), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return models.Missing
	}
	return models.Some(v)
}

// Records validates the table header and converts each row into a StudentRecord.
// Headers are matched ignoring case and accents.
func Records(table *spreadsheet.Table) ([]models.StudentRecord, error) {
	if table == nil {
		return nil, appErrors.Clone(appErrors.ErrSchema, "source table is empty")
	}
	index := make(map[string]int, len(table.Header))
	for i, h := range table.Header {
		key := models.FoldName(h)
		if _, seen := index[key]; !seen {
			index[key] = i
		}
	}

	var absent []string
	columns := make(map[string]int, len(models.RequiredColumns()))
	for _, col := range models.RequiredColumns() {
		i, ok := index[models.FoldName(col)]
		if !ok {
			absent = append(absent, col)
			continue
		}
		columns[col] = i
	}
	if len(absent) > 0 {
		return nil, appErrors.Clone(appErrors.ErrSchema, fmt.Sprintf("missing required columns: %s", strings.Join(absent, ", ")))
	}

	records := make([]models.StudentRecord, 0, len(table.Rows))
	for _, row := range table.Rows {
		rec := models.StudentRecord{
			Student:   table.Cell(row, columns[models.ColumnStudent]),
			Professor: table.Cell(row, columns[models.ColumnProfessor]),
			Major:     table.Cell(row, columns[models.ColumnMajor]),
			Section:   table.Cell(row, columns[models.ColumnSection]),
			Attempt:   table.Cell(row, columns[models.ColumnAttempt]),
			Scores:    make(map[string]models.Score, len(models.Assessments)),
		}
		if rec.Student == "" && rec.Professor == "" && rec.Major == "" && rec.Section == "" && rec.Attempt == "" {
			continue
		}
		for _, a := range models.Assessments {
			rec.Scores[a.Code] = ParseScore(table.Cell(row, columns[a.Code]))
		}
		records = append(records, rec)
	}
	return records, nil
}

// Build runs the whole derivation for a parsed table.
func Build(table *spreadsheet.Table) ([]models.GradedRecord, error) {
	records, err := Records(table)
	if err != nil {
		return nil, err
	}
	return Derive(records), nil
}
