package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/grades-dashboard/internal/dto"
	"github.com/noah-isme/grades-dashboard/internal/grading"
	"github.com/noah-isme/grades-dashboard/internal/models"
	appErrors "github.com/noah-isme/grades-dashboard/pkg/errors"
)

// GradebookLoader provides the current derived gradebook.
type GradebookLoader interface {
	Load(ctx context.Context) (*models.Gradebook, bool, error)
}

// Selection is a validated SummaryQuery.
type Selection struct {
	Field      models.FilterField
	Value      string
	Assessment string
}

// SummaryService answers filter and summary queries against the loaded gradebook.
type SummaryService struct {
	gradebook GradebookLoader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSummaryService constructs the summary service and registers its validation rules.
func NewSummaryService(gradebook GradebookLoader, validate *validator.Validate, logger *zap.Logger) *SummaryService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	_ = validate.RegisterValidation("filter_field", func(fl validator.FieldLevel) bool {
		_, ok := models.ParseFilterField(fl.Field().String())
		return ok
	})
	_ = validate.RegisterValidation("assessment_code", func(fl validator.FieldLevel) bool {
		code := strings.TrimSpace(fl.Field().String())
		if strings.EqualFold(code, models.AllAssessments) {
			return true
		}
		_, ok := models.LookupAssessment(code)
		return ok
	})
	return &SummaryService{gradebook: gradebook, validator: validate, logger: logger}
}

// Validate checks a query and normalises it into a Selection.
func (s *SummaryService) Validate(q dto.SummaryQuery) (Selection, error) {
	q.Value = strings.TrimSpace(q.Value)
	if err := s.validator.Struct(q); err != nil {
		return Selection{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid summary query")
	}
	field, _ := models.ParseFilterField(q.Field)
	assessment := strings.TrimSpace(q.Assessment)
	if strings.EqualFold(assessment, models.AllAssessments) {
		assessment = models.AllAssessments
	}
	return Selection{Field: field, Value: q.Value, Assessment: assessment}, nil
}

// Gradebook returns the extended table, paged when the query asks for it.
func (s *SummaryService) Gradebook(ctx context.Context, q dto.GradebookQuery) (*models.Gradebook, *models.Pagination, bool, error) {
	if err := s.validator.Struct(q); err != nil {
		return nil, nil, false, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid page parameters")
	}
	book, hit, err := s.gradebook.Load(ctx)
	if err != nil {
		return nil, nil, false, err
	}
	if q.Page == 0 && q.PageSize == 0 {
		return book, nil, hit, nil
	}
	if q.Page == 0 {
		q.Page = 1
	}
	if q.PageSize == 0 {
		q.PageSize = 50
	}
	total := len(book.Records)
	start := (q.Page - 1) * q.PageSize
	if start > total {
		start = total
	}
	end := start + q.PageSize
	if end > total {
		end = total
	}
	page := &models.Gradebook{Records: book.Records[start:end], Version: book.Version, LoadedAt: book.LoadedAt}
	return page, &models.Pagination{Page: q.Page, PageSize: q.PageSize, TotalCount: total}, hit, nil
}

// Options lists the selectable fields, values, assessments and categories.
func (s *SummaryService) Options(ctx context.Context) (*models.FilterOptions, bool, error) {
	book, hit, err := s.gradebook.Load(ctx)
	if err != nil {
		return nil, false, err
	}
	opts := grading.Options(book.Records)
	return &opts, hit, nil
}

// Summarize validates the query and projects the gradebook onto it.
func (s *SummaryService) Summarize(ctx context.Context, q dto.SummaryQuery) (*models.FilteredSummary, bool, error) {
	sel, err := s.Validate(q)
	if err != nil {
		return nil, false, err
	}
	book, hit, err := s.gradebook.Load(ctx)
	if err != nil {
		return nil, false, err
	}
	summary, err := grading.Summarize(book.Records, sel.Field, sel.Value, sel.Assessment)
	if err != nil {
		return nil, hit, err
	}
	s.logger.Debug("gradebook summarised",
		zap.String("field", string(sel.Field)),
		zap.String("value", sel.Value),
		zap.String("assessment", summary.Assessment),
		zap.Int("matches", summary.MatchCount),
	)
	return summary, hit, nil
}

// Matching returns the records selected by the query together with their summary.
func (s *SummaryService) Matching(ctx context.Context, q dto.SummaryQuery) (*models.FilteredSummary, []models.GradedRecord, error) {
	sel, err := s.Validate(q)
	if err != nil {
		return nil, nil, err
	}
	book, _, err := s.gradebook.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	summary, err := grading.Summarize(book.Records, sel.Field, sel.Value, sel.Assessment)
	if err != nil {
		return nil, nil, err
	}
	matched := grading.Filter(book.Records, sel.Field, sel.Value)
	if sel.Field == models.FilterStudent {
		matched = matched[:1]
	}
	return summary, matched, nil
}
