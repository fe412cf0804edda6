package dto

import (
	"time"

	"github.com/noah-isme/grades-dashboard/internal/models"
)

// SummaryQuery selects a slice of the gradebook.
type SummaryQuery struct {
	Field      string `form:"field" json:"field" validate:"required,filter_field"`
	Value      string `form:"value" json:"value" validate:"required"`
	Assessment string `form:"assessment" json:"assessment" validate:"omitempty,assessment_code"`
}

// GradebookQuery pages through the extended table. Zero values return every record.
type GradebookQuery struct {
	Page     int `form:"page" validate:"omitempty,min=1"`
	PageSize int `form:"page_size" validate:"omitempty,min=1,max=500"`
}

// ChartQuery is a SummaryQuery plus the image encoding.
type ChartQuery struct {
	SummaryQuery
	Format string `form:"format" json:"format" validate:"omitempty,oneof=png svg"`
}

// ExportRequest captures the POST /exports payload.
type ExportRequest struct {
	SummaryQuery
	Format models.ExportFormat `json:"format" validate:"required,oneof=csv pdf"`
}

// ExportResponse is returned once an export has been rendered and stored.
type ExportResponse struct {
	ID        string              `json:"id"`
	Format    models.ExportFormat `json:"format"`
	URL       string              `json:"url"`
	ExpiresAt time.Time           `json:"expires_at"`
}

// RefreshResponse acknowledges a background reload.
type RefreshResponse struct {
	Queued bool   `json:"queued"`
	Status string `json:"status"`
}

// GradebookResponse is the extended table with the source revision it came from.
type GradebookResponse struct {
	Records []models.GradedRecord `json:"records"`
	Version models.SourceVersion  `json:"version"`
}
