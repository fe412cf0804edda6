package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/grades-dashboard/internal/models"
	appErrors "github.com/noah-isme/grades-dashboard/pkg/errors"
	"github.com/noah-isme/grades-dashboard/pkg/spreadsheet"
)

func record(student string, scores map[string]float64) models.StudentRecord {
	r := models.StudentRecord{
		Student:   student,
		Professor: "Perez",
		Major:     "Sistemas",
		Section:   "A1",
		Attempt:   "1",
		Scores:    make(map[string]models.Score),
	}
	for code, v := range scores {
		r.Scores[code] = models.Some(v)
	}
	return r
}

func TestCategorizeBands(t *testing.T) {
	cases := []struct {
		score models.Score
		want  models.GradeCategory
	}{
		{models.Missing, models.CategoryNP},
		{models.Some(20), models.CategoryExcelente},
		{models.Some(18), models.CategoryExcelente},
		{models.Some(17.999), models.CategoryMuyBueno},
		{models.Some(16), models.CategoryMuyBueno},
		{models.Some(15.99), models.CategoryBueno},
		{models.Some(14), models.CategoryBueno},
		{models.Some(13.5), models.CategoryModerado},
		{models.Some(11), models.CategoryModerado},
		{models.Some(10.99), models.CategoryMalo},
		{models.Some(8), models.CategoryMalo},
		{models.Some(7.99), models.CategoryMuyMalo},
		{models.Some(0), models.CategoryMuyMalo},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Categorize(tc.score), "score %+v", tc.score)
	}
}

func TestCategorizeIsTotal(t *testing.T) {
	valid := make(map[models.GradeCategory]bool)
	for _, c := range models.CategoryDisplayOrder {
		valid[c] = true
	}
	for v := -1.0; v <= 21; v += 0.125 {
		assert.True(t, valid[Categorize(models.Some(v))], "score %v", v)
	}
}

func TestGroupAverageTareasScenario(t *testing.T) {
	values := []float64{10, 12, 14, 16, 18, 20, 10, 12, 14, 16, 18}
	scores := make(map[string]float64)
	for i, v := range values {
		scores[models.AssessmentGroups[0].Members[i]] = v
	}
	r := record("Ana", scores)

	avg := Averages(r).Group(models.GroupTareas)

	v, ok := avg.Get()
	require.True(t, ok)
	assert.InDelta(t, 14.545, v, 0.001)
	assert.Equal(t, models.CategoryBueno, Categorize(avg))
}

func TestGroupAverageSkipsMissing(t *testing.T) {
	r := record("Ana", map[string]float64{"EL2": 15})
	r.Scores["EL1"] = models.Missing

	avg := Averages(r).Group(models.GroupLaboratorio)

	assert.Equal(t, models.Some(15), avg)
}

func TestGroupAverageAllMissing(t *testing.T) {
	r := record("Ana", map[string]float64{"TS1": 12})

	avg := Averages(r)

	assert.Equal(t, models.Missing, avg.Group(models.GroupProyectos))
	assert.Equal(t, models.Missing, avg.Group(models.GroupLaboratorio))
}

func TestGeneralAverageIsMeanOfGroupMeans(t *testing.T) {
	r := record("Ana", map[string]float64{
		"TS1": 10, "TS2": 20, // Tareas 15
		"Q1": 12, // Evaluaciones 12
		"EL1": 18, // Laboratorio 18
		// Trabajo_Grupal and Proyectos missing
		"EF": 5, // ungrouped, ignored
	})

	avg := Averages(r)

	v, ok := avg.General.Get()
	require.True(t, ok)
	assert.InDelta(t, 15.0, v, 1e-9)
}

func TestGeneralAverageMissingWhenNoGroups(t *testing.T) {
	r := record("Ana", map[string]float64{"EF": 14})

	assert.Equal(t, models.Missing, Averages(r).General)
}

func TestCategoriesCoverEveryAssessment(t *testing.T) {
	r := record("Ana", map[string]float64{"TS1": 18, "EF": 3})

	cats := Categories(r)

	assert.Len(t, cats, len(models.Assessments))
	assert.Equal(t, models.CategoryExcelente, cats["TS1_Cat"])
	assert.Equal(t, models.CategoryMuyMalo, cats["EF_Cat"])
	assert.Equal(t, models.CategoryNP, cats["Q1_Cat"])
}

func TestDeriveIsDeterministic(t *testing.T) {
	records := []models.StudentRecord{
		record("Ana", map[string]float64{"TS1": 12, "Q1": 9, "EL2": 15}),
		record("Luis", map[string]float64{"P1": 17, "TG3": 11}),
	}

	first := Derive(records)
	second := Derive(records)

	assert.Equal(t, first, second)
}

func TestParseScore(t *testing.T) {
	assert.Equal(t, models.Some(12.5), ParseScore("12.5"))
	assert.Equal(t, models.Some(12.5), ParseScore(" 12,5 "))
	assert.Equal(t, models.Some(0), ParseScore("0"))
	assert.Equal(t, models.Missing, ParseScore(""))
	assert.Equal(t, models.Missing, ParseScore("NP"))
	assert.Equal(t, models.Missing, ParseScore("abc"))
	assert.Equal(t, models.Missing, ParseScore("NaN"))
}

func fullHeader() []string {
	return models.RequiredColumns()
}

func TestRecordsRejectsMissingColumns(t *testing.T) {
	table := &spreadsheet.Table{Header: []string{"Alumno", "Profesor", "TS1"}}

	_, err := Records(table)

	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrSchema)
	assert.Contains(t, err.Error(), "Carrera")
	assert.Contains(t, err.Error(), "EF")
}

func TestRecordsMatchesHeadersLoosely(t *testing.T) {
	header := fullHeader()
	for i, h := range header {
		if h == models.ColumnSection {
			header[i] = " SECCION "
		}
	}
	row := make([]string, len(header))
	row[0], row[1], row[2], row[3], row[4] = "Ana", "Perez", "Sistemas", "A1", "1"
	row[5] = "14"
	table := &spreadsheet.Table{Header: header, Rows: [][]string{row}}

	records, err := Records(table)

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "A1", records[0].Section)
	assert.Equal(t, models.Some(14), records[0].Score("TS1"))
	assert.Equal(t, models.Missing, records[0].Score("EF"))
}
