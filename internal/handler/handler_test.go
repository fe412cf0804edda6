package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/grades-dashboard/internal/dto"
	"github.com/noah-isme/grades-dashboard/internal/middleware"
	"github.com/noah-isme/grades-dashboard/internal/models"
	"github.com/noah-isme/grades-dashboard/internal/service"
	appErrors "github.com/noah-isme/grades-dashboard/pkg/errors"
)

type responseEnvelope struct {
	Data       json.RawMessage        `json:"data"`
	Error      *appErrors.Error       `json:"error"`
	Pagination *models.Pagination     `json:"pagination"`
	Meta       map[string]interface{} `json:"meta"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) responseEnvelope {
	t.Helper()
	var env responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

type fakeQueries struct {
	book      *models.Gradebook
	page      *models.Pagination
	opts      *models.FilterOptions
	summary   *models.FilteredSummary
	err       error
	optsErr   error
	lastQuery dto.SummaryQuery
	lastPage  dto.GradebookQuery
}

func (f *fakeQueries) Gradebook(_ context.Context, q dto.GradebookQuery) (*models.Gradebook, *models.Pagination, bool, error) {
	f.lastPage = q
	return f.book, f.page, true, f.err
}

func (f *fakeQueries) Options(context.Context) (*models.FilterOptions, bool, error) {
	return f.opts, false, f.optsErr
}

func (f *fakeQueries) Summarize(_ context.Context, q dto.SummaryQuery) (*models.FilteredSummary, bool, error) {
	f.lastQuery = q
	return f.summary, true, f.err
}

type fakeRefresher struct {
	queued bool
	err    error
}

func (f fakeRefresher) RequestRefresh(context.Context) (bool, error) {
	return f.queued, f.err
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.WithResponseMeta())
	return r
}

func sampleOptions() *models.FilterOptions {
	return &models.FilterOptions{
		Fields: models.FilterFields,
		Values: map[models.FilterField][]string{
			models.FilterProfessor: {"Perez", "Gomez"},
			models.FilterStudent:   {"Ana", "Luis"},
		},
		Assessments: []string{"TS1", "TS2"},
		Categories:  models.CategoryDisplayOrder,
	}
}

func TestGradebookHandlerList(t *testing.T) {
	queries := &fakeQueries{
		book: &models.Gradebook{
			Records: []models.GradedRecord{{StudentRecord: models.StudentRecord{Student: "Ana"}}},
			Version: models.SourceVersion{ETag: `"v1"`},
		},
		page: &models.Pagination{Page: 1, PageSize: 1, TotalCount: 3},
	}
	r := newRouter()
	r.GET("/gradebook", NewGradebookHandler(queries, nil).List)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/gradebook?page=1&page_size=1", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, true, env.Meta["cache_hit"])
	assert.Equal(t, float64(3), env.Meta["record_count"])
	assert.Equal(t, `"v1"`, env.Meta["version"])
	require.NotNil(t, env.Pagination)
	assert.Equal(t, 3, env.Pagination.TotalCount)
	assert.Equal(t, dto.GradebookQuery{Page: 1, PageSize: 1}, queries.lastPage)
	assert.Contains(t, string(env.Data), `"Alumno":"Ana"`)
}

func TestGradebookHandlerListRejectsBadPage(t *testing.T) {
	r := newRouter()
	r.GET("/gradebook", NewGradebookHandler(&fakeQueries{}, nil).List)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/gradebook?page=abc", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGradebookHandlerSummary(t *testing.T) {
	queries := &fakeQueries{summary: &models.FilteredSummary{
		Field: models.FilterProfessor, Value: "Perez", Assessment: "TS1", MatchCount: 2,
		Lines: []string{"Promedio del Aula (Perez) en TS1: 15.00"},
	}}
	r := newRouter()
	r.GET("/gradebook/summary", NewGradebookHandler(queries, nil).Summary)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/gradebook/summary?field=Profesor&value=Perez&assessment=TS1", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, dto.SummaryQuery{Field: "Profesor", Value: "Perez", Assessment: "TS1"}, queries.lastQuery)
	assert.Contains(t, string(decode(t, rec).Data), "Promedio del Aula (Perez) en TS1: 15.00")
}

func TestGradebookHandlerSummaryErrors(t *testing.T) {
	cases := map[string]struct {
		err    error
		status int
		code   string
	}{
		"not found":  {appErrors.Clone(appErrors.ErrNotFound, "no records"), http.StatusNotFound, "NOT_FOUND"},
		"validation": {appErrors.ErrValidation, http.StatusBadRequest, "VALIDATION_ERROR"},
		"schema":     {appErrors.ErrSchema, http.StatusUnprocessableEntity, "SCHEMA_ERROR"},
		"source":     {appErrors.ErrSourceUnavailable, http.StatusBadGateway, "SOURCE_UNAVAILABLE"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			r := newRouter()
			r.GET("/gradebook/summary", NewGradebookHandler(&fakeQueries{err: tc.err}, nil).Summary)

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/gradebook/summary?field=student&value=X", nil))

			assert.Equal(t, tc.status, rec.Code)
			env := decode(t, rec)
			require.NotNil(t, env.Error)
			assert.Equal(t, tc.code, env.Error.Code)
		})
	}
}

func TestGradebookHandlerFilters(t *testing.T) {
	r := newRouter()
	r.GET("/gradebook/filters", NewGradebookHandler(&fakeQueries{opts: sampleOptions()}, nil).Filters)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/gradebook/filters", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, false, env.Meta["cache_hit"])
	assert.Contains(t, string(env.Data), `"professor":["Perez","Gomez"]`)
}

func TestGradebookHandlerRefresh(t *testing.T) {
	r := newRouter()
	r.POST("/queued", NewGradebookHandler(&fakeQueries{}, fakeRefresher{queued: true}).Refresh)
	r.POST("/pending", NewGradebookHandler(&fakeQueries{}, fakeRefresher{}).Refresh)
	r.POST("/off", NewGradebookHandler(&fakeQueries{}, nil).Refresh)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/queued", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.JSONEq(t, `{"queued":true,"status":"queued"}`, string(decode(t, rec).Data))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/pending", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.JSONEq(t, `{"queued":false,"status":"already_pending"}`, string(decode(t, rec).Data))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/off", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

type fakeCharts struct {
	img  *service.Image
	err  error
	last dto.ChartQuery
}

func (f *fakeCharts) Distribution(_ context.Context, q dto.ChartQuery) (*service.Image, error) {
	f.last = q
	return f.img, f.err
}

func (f *fakeCharts) Student(_ context.Context, q dto.ChartQuery) (*service.Image, error) {
	f.last = q
	return f.img, f.err
}

func (f *fakeCharts) Scatter(_ context.Context, q dto.ChartQuery) (*service.Image, error) {
	f.last = q
	return f.img, f.err
}

func TestChartHandlerServesImage(t *testing.T) {
	charts := &fakeCharts{img: &service.Image{Data: []byte("<svg/>"), ContentType: "image/svg+xml"}}
	r := newRouter()
	h := NewChartHandler(charts)
	r.GET("/charts/distribution", h.Distribution)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/charts/distribution?field=major&value=Sistemas&assessment=Q1&format=svg", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Equal(t, "<svg/>", rec.Body.String())
	assert.Equal(t, "svg", charts.last.Format)
	assert.Equal(t, "Sistemas", charts.last.Value)
}

func TestChartHandlerError(t *testing.T) {
	r := newRouter()
	r.GET("/charts/student", NewChartHandler(&fakeCharts{err: appErrors.Clone(appErrors.ErrNotFound, "no scores")}).Student)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/charts/student?value=Nadie", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "no scores", decode(t, rec).Error.Message)
}

type fakeExports struct {
	result   *service.ExportResult
	download *service.Download
	err      error
	last     dto.ExportRequest
}

func (f *fakeExports) Generate(_ context.Context, req dto.ExportRequest) (*service.ExportResult, error) {
	f.last = req
	return f.result, f.err
}

func (f *fakeExports) Open(string) (*service.Download, error) {
	return f.download, f.err
}

func TestExportHandlerCreate(t *testing.T) {
	exports := &fakeExports{result: &service.ExportResult{
		ID: "id-1", Format: models.ExportFormatCSV, URL: "/api/v1/exports/tok", ExpiresAt: time.Unix(0, 0).UTC(),
	}}
	r := newRouter()
	r.POST("/exports", NewExportHandler(exports).Create)

	body := `{"field":"professor","value":"Perez","assessment":"TS1","format":"csv"}`
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/exports", strings.NewReader(body)))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Perez", exports.last.Value)
	assert.Equal(t, models.ExportFormatCSV, exports.last.Format)
	assert.Contains(t, string(decode(t, rec).Data), `"url":"/api/v1/exports/tok"`)
}

func TestExportHandlerCreateRejectsMalformedJSON(t *testing.T) {
	r := newRouter()
	r.POST("/exports", NewExportHandler(&fakeExports{}).Create)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/exports", strings.NewReader("{")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportHandlerDownload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resumen.csv")
	require.NoError(t, os.WriteFile(path, []byte("Alumno\nAna\n"), 0o600))
	file, err := os.Open(path)
	require.NoError(t, err)

	r := newRouter()
	r.GET("/exports/:token", NewExportHandler(&fakeExports{download: &service.Download{
		File: file, Filename: "resumen.csv", MimeType: "text/csv; charset=utf-8", Size: 11,
	}}).Download)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/exports/tok", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="resumen.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "Alumno\nAna\n", rec.Body.String())
}

func TestExportHandlerDownloadInvalidToken(t *testing.T) {
	r := newRouter()
	r.GET("/exports/:token", NewExportHandler(&fakeExports{err: appErrors.Clone(appErrors.ErrNotFound, "expired")}).Download)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/exports/tok", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type readyFlag bool

func (r readyFlag) Ready() bool { return bool(r) }

func TestMetricsHandlerReady(t *testing.T) {
	r := newRouter()
	r.GET("/ready", NewMetricsHandler(nil, readyFlag(true)).Ready)
	r.GET("/loading", NewMetricsHandler(nil, readyFlag(false)).Ready)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/loading", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsHandlerSystem(t *testing.T) {
	metrics := service.NewMetricsService()
	metrics.SetGradebookRecords(42)
	r := newRouter()
	r.GET("/system/metrics", NewMetricsHandler(metrics, nil).System)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/system/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(decode(t, rec).Data), `"gradebook_records":42`)
}
