package models

// Identity column headers of the grades spreadsheet.
const (
	ColumnStudent   = "Alumno"
	ColumnProfessor = "Profesor"
	ColumnMajor     = "Carrera"
	ColumnSection   = "Sección"
	ColumnAttempt   = "Vez"
)

// IdentityColumns lists the non-score headers every source must carry.
var IdentityColumns = []string{ColumnStudent, ColumnProfessor, ColumnMajor, ColumnSection, ColumnAttempt}

// Assessment is one gradable column and the column holding its category.
type Assessment struct {
	Code           string `json:"code"`
	CategoryColumn string `json:"category_column"`
}

// Assessments is the fixed list of score columns, in spreadsheet order.
var Assessments = []Assessment{
	{Code: "TS1", CategoryColumn: "TS1_Cat"},
	{Code: "TS2", CategoryColumn: "TS2_Cat"},
	{Code: "TS3", CategoryColumn: "TS3_Cat"},
	{Code: "TS4", CategoryColumn: "TS4_Cat"},
	{Code: "TS5", CategoryColumn: "TS5_Cat"},
	{Code: "TS6", CategoryColumn: "TS6_Cat"},
	{Code: "TS7", CategoryColumn: "TS7_Cat"},
	{Code: "TS8", CategoryColumn: "TS8_Cat"},
	{Code: "TS9", CategoryColumn: "TS9_Cat"},
	{Code: "TS10", CategoryColumn: "TS10_Cat"},
	{Code: "TS11", CategoryColumn: "TS11_Cat"},
	{Code: "Q1", CategoryColumn: "Q1_Cat"},
	{Code: "Q2", CategoryColumn: "Q2_Cat"},
	{Code: "Q3", CategoryColumn: "Q3_Cat"},
	{Code: "Q4", CategoryColumn: "Q4_Cat"},
	{Code: "EL1", CategoryColumn: "EL1_Cat"},
	{Code: "EL2", CategoryColumn: "EL2_Cat"},
	{Code: "TG1", CategoryColumn: "TG1_Cat"},
	{Code: "TG2", CategoryColumn: "TG2_Cat"},
	{Code: "TG3", CategoryColumn: "TG3_Cat"},
	{Code: "TG4", CategoryColumn: "TG4_Cat"},
	{Code: "P1", CategoryColumn: "P1_Cat"},
	{Code: "P2", CategoryColumn: "P2_Cat"},
	{Code: "P2E", CategoryColumn: "P2E_Cat"},
	{Code: "EP", CategoryColumn: "EP_Cat"},
	{Code: "EF", CategoryColumn: "EF_Cat"},
}

// AllAssessments selects every assessment (student view).
const AllAssessments = "all"

// AssessmentGroup is a named bucket of assessments averaged together.
type AssessmentGroup struct {
	Name          string   `json:"name"`
	AverageColumn string   `json:"average_column"`
	Label         string   `json:"label"`
	Members       []string `json:"members"`
}

// Group names.
const (
	GroupTareas        = "Tareas"
	GroupEvaluaciones  = "Evaluaciones"
	GroupLaboratorio   = "Laboratorio"
	GroupTrabajoGrupal = "Trabajo_Grupal"
	GroupProyectos     = "Proyectos"
)

// GeneralAverageColumn holds the unweighted mean of the group averages.
const GeneralAverageColumn = "Promedio_General"

// AssessmentGroups are disjoint; P2E, EP and EF belong to none.
var AssessmentGroups = []AssessmentGroup{
	{Name: GroupTareas, AverageColumn: "Promedio_Tareas", Label: "tareas semanales",
		Members: []string{"TS1", "TS2", "TS3", "TS4", "TS5", "TS6", "TS7", "TS8", "TS9", "TS10", "TS11"}},
	{Name: GroupEvaluaciones, AverageColumn: "Promedio_Evaluaciones", Label: "quiz",
		Members: []string{"Q1", "Q2", "Q3", "Q4"}},
	{Name: GroupLaboratorio, AverageColumn: "Promedio_Laboratorio", Label: "exámenes de laboratorio",
		Members: []string{"EL1", "EL2"}},
	{Name: GroupTrabajoGrupal, AverageColumn: "Promedio_Trabajo_Grupal", Label: "trabajos grupales",
		Members: []string{"TG1", "TG2", "TG3", "TG4"}},
	{Name: GroupProyectos, AverageColumn: "Promedio_Proyectos", Label: "proyectos",
		Members: []string{"P1", "P2"}},
}

// LookupAssessment returns the assessment with the given code.
func LookupAssessment(code string) (Assessment, bool) {
	for _, a := range Assessments {
		if a.Code == code {
			return a, true
		}
	}
	return Assessment{}, false
}

// LookupGroup returns the group with the given name.
func LookupGroup(name string) (AssessmentGroup, bool) {
	for _, g := range AssessmentGroups {
		if g.Name == name {
			return g, true
		}
	}
	return AssessmentGroup{}, false
}

// RequiredColumns is the full header a source table must provide.
func RequiredColumns() []string {
	cols := make([]string, 0, len(IdentityColumns)+len(Assessments))
	cols = append(cols, IdentityColumns...)
	for _, a := range Assessments {
		cols = append(cols, a.Code)
	}
	return cols
}
