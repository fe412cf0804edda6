package repository

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/noah-isme/grades-dashboard/internal/models"
	"github.com/noah-isme/grades-dashboard/pkg/config"
	appErrors "github.com/noah-isme/grades-dashboard/pkg/errors"
	"github.com/noah-isme/grades-dashboard/pkg/spreadsheet"
)

// SourcePayload is one fetch of the grades spreadsheet.
type SourcePayload struct {
	Data        []byte
	Format      spreadsheet.Format
	Version     models.SourceVersion
	NotModified bool
}

// SourceRepository retrieves the grades spreadsheet from a URL or a local file.
type SourceRepository struct {
	cfg    config.SourceConfig
	client *resty.Client
	logger *zap.Logger
}

// NewSourceRepository constructs a source repository. HTTP fetches retry on transport errors and 5xx answers.
func NewSourceRepository(cfg config.SourceConfig, logger *zap.Logger) *SourceRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.Retries).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("User-Agent", "grades-dashboard").
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			return err != nil || resp.StatusCode() >= http.StatusInternalServerError
		})
	return &SourceRepository{cfg: cfg, client: client, logger: logger}
}

// Location identifies the configured source.
func (r *SourceRepository) Location() string {
	return r.cfg.Location()
}

// Fetch downloads the source. When previous is set the request is conditional and an
// unchanged source yields a payload with NotModified and no data.
func (r *SourceRepository) Fetch(ctx context.Context, previous *models.SourceVersion) (*SourcePayload, error) {
	if r.cfg.Path != "" {
		return r.fetchFile(previous)
	}
	if r.cfg.URL == "" {
		return nil, appErrors.Clone(appErrors.ErrSourceUnavailable, "no grade source configured")
	}
	return r.fetchURL(ctx, previous)
}

func (r *SourceRepository) fetchURL(ctx context.Context, previous *models.SourceVersion) (*SourcePayload, error) {
	req := r.client.R().SetContext(ctx)
	if previous != nil {
		if previous.ETag != "" {
			req.SetHeader("If-None-Match", previous.ETag)
		}
		if previous.LastModified != "" {
			req.SetHeader("If-Modified-Since", previous.LastModified)
		}
	}

	resp, err := req.Get(r.cfg.URL)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrSourceUnavailable.Code, appErrors.ErrSourceUnavailable.Status, "fetch grade source")
	}
	switch resp.StatusCode() {
	case http.StatusOK:
	case http.StatusNotModified:
		if previous == nil {
			return nil, appErrors.Clone(appErrors.ErrSourceUnavailable, "grade source answered 304 to an unconditional request")
		}
		return &SourcePayload{Version: *previous, NotModified: true}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrSourceUnavailable, fmt.Sprintf("grade source answered %d", resp.StatusCode()))
	}

	body := resp.Body()
	version := models.SourceVersion{
		Location:     r.cfg.URL,
		ETag:         resp.Header().Get("ETag"),
		LastModified: resp.Header().Get("Last-Modified"),
		Size:         int64(len(body)),
	}
	r.logger.Debug("grade source fetched",
		zap.String("location", r.cfg.URL),
		zap.Int("bytes", len(body)),
		zap.String("etag", version.ETag),
		zap.Duration("latency", resp.Time()),
	)
	return &SourcePayload{
		Data:    body,
		Format:  r.format(r.cfg.URL, resp.Header().Get("Content-Type"), body),
		Version: version,
	}, nil
}

func (r *SourceRepository) fetchFile(previous *models.SourceVersion) (*SourcePayload, error) {
	info, err := os.Stat(r.cfg.Path)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrSourceUnavailable.Code, appErrors.ErrSourceUnavailable.Status, "stat grade source")
	}
	version := models.SourceVersion{
		Location: r.cfg.Path,
		Size:     info.Size(),
		ModTime:  info.ModTime().UTC(),
	}
	if previous != nil && previous.Size == version.Size && previous.ModTime.Equal(version.ModTime) {
		return &SourcePayload{Version: *previous, NotModified: true}, nil
	}
	data, err := os.ReadFile(r.cfg.Path)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrSourceUnavailable.Code, appErrors.ErrSourceUnavailable.Status, "read grade source")
	}
	return &SourcePayload{
		Data:    data,
		Format:  r.format(r.cfg.Path, "", data),
		Version: version,
	}, nil
}

func (r *SourceRepository) format(name, contentType string, data []byte) spreadsheet.Format {
	if f := spreadsheet.ParseFormat(r.cfg.Format); f != spreadsheet.FormatAuto {
		return f
	}
	// GitHub serves raw workbooks as octet-stream, so the name and the payload decide.
	return spreadsheet.DetectFormat(strings.TrimSpace(name), contentType, data)
}
