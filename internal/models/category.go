package models

// GradeCategory is the performance band of a single score.
type GradeCategory string

const (
	CategoryMuyMalo   GradeCategory = "Muy Malo"
	CategoryMalo      GradeCategory = "Malo"
	CategoryModerado  GradeCategory = "Moderado"
	CategoryBueno     GradeCategory = "Bueno"
	CategoryMuyBueno  GradeCategory = "Muy Bueno"
	CategoryExcelente GradeCategory = "Excelente"
	CategoryNP        GradeCategory = "NP"
)

// CategoryDisplayOrder is the order used by distribution charts and summaries.
var CategoryDisplayOrder = []GradeCategory{
	CategoryExcelente,
	CategoryMuyBueno,
	CategoryBueno,
	CategoryModerado,
	CategoryMalo,
	CategoryMuyMalo,
	CategoryNP,
}

var categoryColors = map[GradeCategory]string{
	CategoryExcelente: "green",
	CategoryMuyBueno:  "limegreen",
	CategoryBueno:     "yellow",
	CategoryModerado:  "orange",
	CategoryMalo:      "orangered",
	CategoryMuyMalo:   "red",
	CategoryNP:        "blue",
}

// Color returns the CSS colour name used to draw the category.
func (c GradeCategory) Color() string {
	if color, ok := categoryColors[c]; ok {
		return color
	}
	return "gray"
}
