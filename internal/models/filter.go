package models

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// FilterField selects the identity column used to slice the gradebook.
type FilterField string

const (
	FilterProfessor FilterField = "professor"
	FilterMajor     FilterField = "major"
	FilterSection   FilterField = "section"
	FilterAttempt   FilterField = "attempt"
	FilterStudent   FilterField = "student"
)

// FilterFields lists the supported fields in UI order.
var FilterFields = []FilterField{FilterProfessor, FilterMajor, FilterSection, FilterAttempt, FilterStudent}

var filterColumns = map[FilterField]string{
	FilterProfessor: ColumnProfessor,
	FilterMajor:     ColumnMajor,
	FilterSection:   ColumnSection,
	FilterAttempt:   ColumnAttempt,
	FilterStudent:   ColumnStudent,
}

// Column returns the spreadsheet header backing the field.
func (f FilterField) Column() string {
	return filterColumns[f]
}

// ParseFilterField accepts English names and spreadsheet headers, ignoring case and accents.
func ParseFilterField(raw string) (FilterField, bool) {
	key := FoldName(raw)
	if key == "" {
		return "", false
	}
	for _, f := range FilterFields {
		if key == string(f) || key == FoldName(f.Column()) {
			return f, true
		}
	}
	return "", false
}

// FoldName lower-cases, trims and strips diacritics so "Sección" matches "seccion".
func FoldName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range norm.NFD.String(s) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
