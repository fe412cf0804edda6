package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/grades-dashboard/internal/dto"
	"github.com/noah-isme/grades-dashboard/internal/service"
	appErrors "github.com/noah-isme/grades-dashboard/pkg/errors"
	"github.com/noah-isme/grades-dashboard/pkg/response"
)

type chartService interface {
	Distribution(ctx context.Context, q dto.ChartQuery) (*service.Image, error)
	Student(ctx context.Context, q dto.ChartQuery) (*service.Image, error)
	Scatter(ctx context.Context, q dto.ChartQuery) (*service.Image, error)
}

// ChartHandler serves rendered dashboard charts.
type ChartHandler struct {
	charts chartService
}

// NewChartHandler constructs the handler.
func NewChartHandler(charts chartService) *ChartHandler {
	return &ChartHandler{charts: charts}
}

// Distribution godoc
// @Summary Category distribution chart
// @Tags Charts
// @Produce image/png
// @Produce image/svg+xml
// @Param field query string true "professor | major | section | attempt"
// @Param value query string true "Value of the field"
// @Param assessment query string true "Assessment code"
// @Param format query string false "png (default) or svg"
// @Success 200 {file} binary
// @Router /charts/distribution [get]
func (h *ChartHandler) Distribution(c *gin.Context) {
	h.serve(c, h.charts.Distribution)
}

// Student godoc
// @Summary Student history chart
// @Tags Charts
// @Produce image/png
// @Produce image/svg+xml
// @Param value query string true "Student name"
// @Param format query string false "png (default) or svg"
// @Success 200 {file} binary
// @Router /charts/student [get]
func (h *ChartHandler) Student(c *gin.Context) {
	h.serve(c, h.charts.Student)
}

// Scatter godoc
// @Summary Promedio_General vs Promedio_Evaluaciones
// @Tags Charts
// @Produce image/png
// @Produce image/svg+xml
// @Param field query string true "Filter field"
// @Param value query string true "Value of the field"
// @Param assessment query string false "Assessment code"
// @Param format query string false "png (default) or svg"
// @Success 200 {file} binary
// @Router /charts/scatter [get]
func (h *ChartHandler) Scatter(c *gin.Context) {
	h.serve(c, h.charts.Scatter)
}

func (h *ChartHandler) serve(c *gin.Context, render func(context.Context, dto.ChartQuery) (*service.Image, error)) {
	var q dto.ChartQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid chart query"))
		return
	}
	img, err := render(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Binary(c, img.ContentType, img.Data)
}
