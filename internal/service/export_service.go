package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/grades-dashboard/internal/dto"
	"github.com/noah-isme/grades-dashboard/internal/models"
	appErrors "github.com/noah-isme/grades-dashboard/pkg/errors"
	"github.com/noah-isme/grades-dashboard/pkg/export"
	"github.com/noah-isme/grades-dashboard/pkg/storage"
)

// SelectionMatcher returns the records behind a summary.
type SelectionMatcher interface {
	Matching(ctx context.Context, q dto.SummaryQuery) (*models.FilteredSummary, []models.GradedRecord, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	Retention time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	ID           string
	RelativePath string
	Token        string
	URL          string
	Format       models.ExportFormat
	ExpiresAt    time.Time
}

// Download is an opened export ready to stream.
type Download struct {
	File     *os.File
	Filename string
	MimeType string
	Size     int64
}

// ExportService renders filtered gradebook slices and persists them behind signed links.
type ExportService struct {
	selections SelectionMatcher
	storage    fileStorage
	csv        csvRenderer
	pdf        pdfRenderer
	signer     *storage.SignedURLSigner
	metrics    *MetricsService
	logger     *zap.Logger
	cfg        ExportConfig
	newID      func() string
	now        func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers fall back to the default exporters.
func NewExportService(selections SelectionMatcher, store fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, metrics *MetricsService, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		selections: selections,
		storage:    store,
		csv:        csv,
		pdf:        pdf,
		signer:     signer,
		metrics:    metrics,
		logger:     logger,
		cfg:        cfg,
		newID:      uuid.NewString,
		now:        time.Now,
	}
}

// Generate renders the selection in the requested format, stores it and signs a download link.
func (s *ExportService) Generate(ctx context.Context, req dto.ExportRequest) (*ExportResult, error) {
	if req.Format != models.ExportFormatCSV && req.Format != models.ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", req.Format))
	}
	summary, records, err := s.selections.Matching(ctx, req.SummaryQuery)
	if err != nil {
		return nil, err
	}
	dataset := buildDataset(summary, records)
	title := fmt.Sprintf("Resumen %s: %s", summary.Field.Column(), summary.Value)

	var payload []byte
	switch req.Format {
	case models.ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "render export")
	}

	id := s.newID()
	relPath, err := s.storage.Save(s.filename(id, summary, req.Format), payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "store export")
	}
	token, expiresAt, err := s.signer.Generate(id, relPath)
	if err != nil {
		_ = s.storage.Delete(relPath)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "sign export link")
	}

	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	s.metrics.IncExport(string(req.Format))
	s.logger.Info("export generated",
		zap.String("id", id),
		zap.String("format", string(req.Format)),
		zap.String("path", relPath),
		zap.Int("rows", len(dataset.Rows)),
	)
	return &ExportResult{
		ID:           id,
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/exports/%s", prefix, token),
		Format:       req.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// Open validates a download token and opens the stored file.
func (s *ExportService) Open(token string) (*Download, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export link is invalid or expired")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export file not found")
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "stat export file")
	}
	mime := "text/csv; charset=utf-8"
	if strings.EqualFold(filepath.Ext(relPath), ".pdf") {
		mime = "application/pdf"
	}
	return &Download{File: file, Filename: filepath.Base(relPath), MimeType: mime, Size: info.Size()}, nil
}

// Cleanup removes files older than ttl, the configured retention when ttl <= 0.
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.Retention
	}
	removed, err := s.storage.CleanupOlderThan(ttl)
	if err != nil {
		return removed, err
	}
	if len(removed) > 0 {
		s.logger.Info("expired exports removed", zap.Int("count", len(removed)))
	}
	return removed, nil
}

func (s *ExportService) filename(id string, summary *models.FilteredSummary, format models.ExportFormat) string {
	timestamp := s.now().UTC().Format("20060102_150405")
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("resumen_%s_%s_%s_%s.%s", summary.Field, sanitizeFilename(summary.Value), timestamp, id, format)
}

func sanitizeFilename(raw string) string {
	folded := models.FoldName(raw)
	if folded == "" {
		return "na"
	}
	var b strings.Builder
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	result := b.String()
	if len(result) > 80 {
		return result[:80]
	}
	return result
}

// buildDataset lays out the identity columns, then every score and average for a student,
// or the selected assessment with its category and the two headline averages otherwise.
func buildDataset(summary *models.FilteredSummary, records []models.GradedRecord) export.Dataset {
	headers := append([]string(nil), models.IdentityColumns...)
	evaluations, _ := models.LookupGroup(models.GroupEvaluaciones)

	var columns func(r models.GradedRecord, row map[string]string)
	if summary.Field == models.FilterStudent {
		for _, a := range models.Assessments {
			headers = append(headers, a.Code, a.CategoryColumn)
		}
		for _, g := range models.AssessmentGroups {
			headers = append(headers, g.AverageColumn)
		}
		headers = append(headers, models.GeneralAverageColumn)
		columns = func(r models.GradedRecord, row map[string]string) {
			for _, a := range models.Assessments {
				row[a.Code] = r.Score(a.Code).Format()
				row[a.CategoryColumn] = string(r.Categories[a.CategoryColumn])
			}
			for _, g := range models.AssessmentGroups {
				row[g.AverageColumn] = r.Averages.Group(g.Name).Format()
			}
			row[models.GeneralAverageColumn] = r.Averages.General.Format()
		}
	} else {
		a, _ := models.LookupAssessment(summary.Assessment)
		headers = append(headers, a.Code, a.CategoryColumn, models.GeneralAverageColumn, evaluations.AverageColumn)
		columns = func(r models.GradedRecord, row map[string]string) {
			row[a.Code] = r.Score(a.Code).Format()
			row[a.CategoryColumn] = string(r.Categories[a.CategoryColumn])
			row[models.GeneralAverageColumn] = r.Averages.General.Format()
			row[evaluations.AverageColumn] = r.Averages.Group(models.GroupEvaluaciones).Format()
		}
	}

	rows := make([]map[string]string, 0, len(records))
	for _, r := range records {
		row := map[string]string{
			models.ColumnStudent:   r.Student,
			models.ColumnProfessor: r.Professor,
			models.ColumnMajor:     r.Major,
			models.ColumnSection:   r.Section,
			models.ColumnAttempt:   r.Attempt,
		}
		columns(r, row)
		rows = append(rows, row)
	}

	notes := append([]string(nil), summary.Lines...)
	for _, c := range summary.Distribution {
		notes = append(notes, fmt.Sprintf("%s: %d", c.Category, c.Count))
	}
	return export.Dataset{Headers: headers, Rows: rows, Notes: notes}
}
