package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/grades-dashboard/internal/dto"
	"github.com/noah-isme/grades-dashboard/internal/middleware"
	"github.com/noah-isme/grades-dashboard/internal/models"
	appErrors "github.com/noah-isme/grades-dashboard/pkg/errors"
	"github.com/noah-isme/grades-dashboard/pkg/response"
)

type gradebookQueries interface {
	Gradebook(ctx context.Context, q dto.GradebookQuery) (*models.Gradebook, *models.Pagination, bool, error)
	Options(ctx context.Context) (*models.FilterOptions, bool, error)
	Summarize(ctx context.Context, q dto.SummaryQuery) (*models.FilteredSummary, bool, error)
}

type refresher interface {
	RequestRefresh(ctx context.Context) (bool, error)
}

// GradebookHandler exposes the derived gradebook and its summaries.
type GradebookHandler struct {
	queries gradebookQueries
	refresh refresher
}

// NewGradebookHandler constructs the handler. refresh may be nil.
func NewGradebookHandler(queries gradebookQueries, refresh refresher) *GradebookHandler {
	return &GradebookHandler{queries: queries, refresh: refresh}
}

// List godoc
// @Summary Extended gradebook
// @Description Every record with its group averages, Promedio_General and per-assessment categories.
// @Tags Gradebook
// @Produce json
// @Param page query int false "Page (1-based); omit for the whole table"
// @Param page_size query int false "Page size (max 500)"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /gradebook [get]
func (h *GradebookHandler) List(c *gin.Context) {
	var q dto.GradebookQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid page parameters"))
		return
	}
	book, page, hit, err := h.queries.Gradebook(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	middleware.SetGradebookMeta(c, book)
	if page != nil {
		middleware.ExtractMeta(c)["record_count"] = page.TotalCount
	}
	response.JSON(c, http.StatusOK, dto.GradebookResponse{Records: book.Records, Version: book.Version}, page, middleware.ExtractMeta(c))
}

// Filters godoc
// @Summary Selector options
// @Tags Gradebook
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /gradebook/filters [get]
func (h *GradebookHandler) Filters(c *gin.Context) {
	opts, hit, err := h.queries.Options(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, opts, nil, middleware.ExtractMeta(c))
}

// Summary godoc
// @Summary Filter and summarise
// @Description Category distribution and means for one assessment, or the longitudinal view of a student.
// @Tags Gradebook
// @Produce json
// @Param field query string true "professor | major | section | attempt | student (Spanish headers accepted)"
// @Param value query string true "Value of the field"
// @Param assessment query string false "Assessment code, or all for a student"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /gradebook/summary [get]
func (h *GradebookHandler) Summary(c *gin.Context) {
	var q dto.SummaryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid summary query"))
		return
	}
	summary, hit, err := h.queries.Summarize(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, summary, nil, middleware.ExtractMeta(c))
}

// Refresh godoc
// @Summary Reload the grade source
// @Description Marks the cached gradebook stale and revalidates it in the background.
// @Tags Gradebook
// @Produce json
// @Success 202 {object} response.Envelope
// @Router /gradebook/refresh [post]
func (h *GradebookHandler) Refresh(c *gin.Context) {
	if h.refresh == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnavailable, "background refresh is not running"))
		return
	}
	queued, err := h.refresh.RequestRefresh(c.Request.Context())
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "queue refresh"))
		return
	}
	status := "queued"
	if !queued {
		status = "already_pending"
	}
	response.Accepted(c, dto.RefreshResponse{Queued: queued, Status: status})
}
