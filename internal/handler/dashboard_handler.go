package handler

import (
	"embed"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/grades-dashboard/internal/dto"
	"github.com/noah-isme/grades-dashboard/internal/models"
	appErrors "github.com/noah-isme/grades-dashboard/pkg/errors"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const dashboardTemplate = "dashboard.tmpl"

// Templates parses the embedded HTML templates.
func Templates() (*template.Template, error) {
	return template.ParseFS(templateFS, "templates/*.tmpl")
}

type option struct {
	Value    string
	Label    string
	Selected bool
}

type chartLink struct {
	Title string
	URL   string
}

type dashboardView struct {
	APIPrefix   string
	Fields      []option
	Values      []option
	Assessments []option
	Field       string
	Value       string
	Assessment  string
	IsStudent   bool
	Charts      []chartLink
	Lines       []string
	Error       string
}

// DashboardHandler renders the HTML dashboard.
type DashboardHandler struct {
	queries   gradebookQueries
	apiPrefix string
}

// NewDashboardHandler constructs the handler. apiPrefix is where chart and export routes live.
func NewDashboardHandler(queries gradebookQueries, apiPrefix string) *DashboardHandler {
	return &DashboardHandler{queries: queries, apiPrefix: strings.TrimRight(apiPrefix, "/")}
}

// Page renders the selectors, charts and summary lines for the selection in the query string.
// Unset selectors and values unknown for the selected field fall back to the first available option.
func (h *DashboardHandler) Page(c *gin.Context) {
	view := dashboardView{APIPrefix: h.apiPrefix}

	opts, _, err := h.queries.Options(c.Request.Context())
	if err != nil {
		h.fail(c, view, err)
		return
	}

	field := models.FilterProfessor
	if raw := c.Query("field"); raw != "" {
		parsed, ok := models.ParseFilterField(raw)
		if !ok {
			h.fail(c, view, appErrors.Clone(appErrors.ErrValidation, "campo de filtro desconocido: "+raw))
			return
		}
		field = parsed
	}
	view.Field = string(field)
	view.IsStudent = field == models.FilterStudent
	for _, f := range opts.Fields {
		view.Fields = append(view.Fields, option{Value: string(f), Label: f.Column(), Selected: f == field})
	}

	values := opts.Values[field]
	// A value left over from the previously selected field falls back to the first one of this field.
	view.Value = strings.TrimSpace(c.Query("value"))
	if len(values) > 0 && !contains(values, view.Value) {
		view.Value = values[0]
	}
	for _, v := range values {
		view.Values = append(view.Values, option{Value: v, Label: v, Selected: v == view.Value})
	}

	view.Assessment = models.AllAssessments
	if !view.IsStudent {
		view.Assessment = strings.TrimSpace(c.Query("assessment"))
		if view.Assessment == "" && len(opts.Assessments) > 0 {
			view.Assessment = opts.Assessments[0]
		}
		for _, code := range opts.Assessments {
			view.Assessments = append(view.Assessments, option{Value: code, Label: code, Selected: code == view.Assessment})
		}
	}

	summary, _, err := h.queries.Summarize(c.Request.Context(), dto.SummaryQuery{
		Field:      view.Field,
		Value:      view.Value,
		Assessment: view.Assessment,
	})
	if err != nil {
		h.fail(c, view, err)
		return
	}
	view.Lines = summary.Lines
	view.Charts = h.charts(view)

	c.HTML(http.StatusOK, dashboardTemplate, view)
}

func (h *DashboardHandler) charts(view dashboardView) []chartLink {
	query := url.Values{"field": {view.Field}, "value": {view.Value}, "assessment": {view.Assessment}}
	if view.IsStudent {
		return []chartLink{
			{Title: "Rendimiento Histórico - " + view.Value, URL: h.apiPrefix + "/charts/student?" + url.Values{"value": {view.Value}}.Encode()},
			{Title: "Comparación de Promedio General vs Promedio de Evaluaciones", URL: h.apiPrefix + "/charts/scatter?" + query.Encode()},
		}
	}
	return []chartLink{
		{Title: "Rendimiento en " + view.Assessment + " - " + view.Value, URL: h.apiPrefix + "/charts/distribution?" + query.Encode()},
		{Title: "Comparación de Promedio General vs Promedio de Evaluaciones", URL: h.apiPrefix + "/charts/scatter?" + query.Encode()},
	}
}

func (h *DashboardHandler) fail(c *gin.Context, view dashboardView, err error) {
	appErr := appErrors.FromError(err)
	_ = c.Error(err)
	view.Error = appErr.Message
	view.Charts = nil
	view.Lines = nil
	c.HTML(appErr.Status, dashboardTemplate, view)
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
