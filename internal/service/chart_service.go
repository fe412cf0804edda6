package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/grades-dashboard/internal/dto"
	"github.com/noah-isme/grades-dashboard/internal/models"
	"github.com/noah-isme/grades-dashboard/pkg/chart"
	appErrors "github.com/noah-isme/grades-dashboard/pkg/errors"
)

// Chart titles shown on the dashboard.
const (
	ScatterTitle = "Comparación de Promedio General vs Promedio de Evaluaciones"
	scoreAxisMax = 20
)

// Summarizer projects the gradebook onto a query.
type Summarizer interface {
	Summarize(ctx context.Context, q dto.SummaryQuery) (*models.FilteredSummary, bool, error)
}

type chartRenderer interface {
	Bars(title, yName string, bars []chart.Bar, format chart.Format) ([]byte, error)
	Scatter(title string, x, y chart.Axis, points []chart.Point, format chart.Format) ([]byte, error)
}

// Image is a rendered chart.
type Image struct {
	Data        []byte
	ContentType string
}

// ChartService renders the dashboard charts from summaries.
type ChartService struct {
	summaries Summarizer
	renderer  chartRenderer
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewChartService constructs the chart service.
func NewChartService(summaries Summarizer, renderer chartRenderer, metrics *MetricsService, logger *zap.Logger) *ChartService {
	if renderer == nil {
		renderer = chart.NewRenderer(0, 0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChartService{summaries: summaries, renderer: renderer, metrics: metrics, logger: logger}
}

// Distribution draws the category distribution of one assessment for a non-student selection.
func (s *ChartService) Distribution(ctx context.Context, q dto.ChartQuery) (*Image, error) {
	format, err := chart.ParseFormat(q.Format)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid chart format")
	}
	if field, ok := models.ParseFilterField(q.Field); ok && field == models.FilterStudent {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student selections are drawn by the student chart")
	}
	summary, _, err := s.summaries.Summarize(ctx, q.SummaryQuery)
	if err != nil {
		return nil, err
	}

	bars := make([]chart.Bar, len(summary.Distribution))
	for i, c := range summary.Distribution {
		bars[i] = chart.Bar{Label: string(c.Category), Value: float64(c.Count), Color: c.Color}
	}
	title := fmt.Sprintf("Rendimiento en %s - %s", summary.Assessment, summary.Value)
	return s.render("distribution", format, func() ([]byte, error) {
		return s.renderer.Bars(title, "Cantidad de alumnos", bars, format)
	})
}

// Student draws every presented score of one student, coloured by category.
func (s *ChartService) Student(ctx context.Context, q dto.ChartQuery) (*Image, error) {
	format, err := chart.ParseFormat(q.Format)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid chart format")
	}
	q.Field = string(models.FilterStudent)
	q.Assessment = models.AllAssessments
	summary, _, err := s.summaries.Summarize(ctx, q.SummaryQuery)
	if err != nil {
		return nil, err
	}

	bars := make([]chart.Bar, 0, len(summary.Student.Scores))
	for _, sc := range summary.Student.Scores {
		v, ok := sc.Score.Get()
		if !ok {
			continue
		}
		bars = append(bars, chart.Bar{Label: sc.Code, Value: v, Color: sc.Category.Color()})
	}
	title := fmt.Sprintf("Rendimiento Histórico - %s", summary.Value)
	return s.render("student", format, func() ([]byte, error) {
		return s.renderer.Bars(title, "Nota", bars, format)
	})
}

// Scatter plots Promedio_General against Promedio_Evaluaciones, one colour per Carrera.
// Student selections plot the whole gradebook, other selections only the matched records.
func (s *ChartService) Scatter(ctx context.Context, q dto.ChartQuery) (*Image, error) {
	format, err := chart.ParseFormat(q.Format)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid chart format")
	}
	summary, _, err := s.summaries.Summarize(ctx, q.SummaryQuery)
	if err != nil {
		return nil, err
	}

	points := make([]chart.Point, 0, len(summary.Comparison))
	for _, p := range summary.Comparison {
		x, okX := p.General.Get()
		y, okY := p.Evaluations.Get()
		if !okX || !okY {
			continue
		}
		points = append(points, chart.Point{X: x, Y: y, Group: p.Major})
	}
	evaluations, _ := models.LookupGroup(models.GroupEvaluaciones)
	return s.render("scatter", format, func() ([]byte, error) {
		return s.renderer.Scatter(ScatterTitle,
			chart.Axis{Name: models.GeneralAverageColumn, Min: 0, Max: scoreAxisMax},
			chart.Axis{Name: evaluations.AverageColumn, Min: 0, Max: scoreAxisMax},
			points, format)
	})
}

func (s *ChartService) render(kind string, format chart.Format, draw func() ([]byte, error)) (*Image, error) {
	start := time.Now()
	data, err := draw()
	s.metrics.ObserveChartRender(kind, string(format), time.Since(start))
	if err != nil {
		if errors.Is(err, chart.ErrNoData) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no scores to plot for this selection")
		}
		s.logger.Error("chart render failed", zap.String("kind", kind), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "render chart")
	}
	return &Image{Data: data, ContentType: format.ContentType()}, nil
}
