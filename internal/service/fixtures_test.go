package service

import (
	"context"
	"encoding/json"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/noah-isme/grades-dashboard/internal/models"
	"github.com/noah-isme/grades-dashboard/internal/repository"
	appErrors "github.com/noah-isme/grades-dashboard/pkg/errors"
	"github.com/noah-isme/grades-dashboard/pkg/spreadsheet"
)

type gradeRow struct {
	student, professor, major, section, attempt string
	scores                                       map[string]string
}

// gradesCSV renders rows under the full required header.
func gradesCSV(rows ...gradeRow) []byte {
	var b strings.Builder
	b.WriteString(strings.Join(models.RequiredColumns(), ","))
	b.WriteString("\n")
	for _, r := range rows {
		cells := []string{r.student, r.professor, r.major, r.section, r.attempt}
		for _, a := range models.Assessments {
			cells = append(cells, r.scores[a.Code])
		}
		b.WriteString(strings.Join(cells, ","))
		b.WriteString("\n")
	}
	return []byte(b.String())
}

func sampleRows() []gradeRow {
	return []gradeRow{
		{"Ana", "Perez", "Sistemas", "A1", "1", map[string]string{"TS1": "18", "Q1": "16", "EL1": "15", "EL2": "17", "TG1": "14", "P1": "19"}},
		{"Luis", "Perez", "Industrial", "A1", "1", map[string]string{"TS1": "12", "Q1": "11", "EL1": "NP", "TG1": "10"}},
		{"Rosa", "Gomez", "Sistemas", "B2", "2", map[string]string{"TS1": "9", "Q1": "8"}},
	}
}

type fakeSource struct {
	mu        sync.Mutex
	location  string
	responses []func(previous *models.SourceVersion) (*repository.SourcePayload, error)
	calls     int
	previous  []*models.SourceVersion
}

func (f *fakeSource) Location() string {
	return f.location
}

func (f *fakeSource) Fetch(_ context.Context, previous *models.SourceVersion) (*repository.SourcePayload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.previous = append(f.previous, previous)
	i := f.calls
	if i >= len(f.responses) {
		i = len(f.responses) - 1
	}
	f.calls++
	return f.responses[i](previous)
}

func csvPayload(etag string, data []byte) func(*models.SourceVersion) (*repository.SourcePayload, error) {
	return func(*models.SourceVersion) (*repository.SourcePayload, error) {
		return &repository.SourcePayload{
			Data:    data,
			Format:  spreadsheet.FormatCSV,
			Version: models.SourceVersion{Location: "grades.csv", ETag: etag},
		}, nil
	}
}

func notModified() func(*models.SourceVersion) (*repository.SourcePayload, error) {
	return func(previous *models.SourceVersion) (*repository.SourcePayload, error) {
		return &repository.SourcePayload{Version: *previous, NotModified: true}, nil
	}
}

func failing(err error) func(*models.SourceVersion) (*repository.SourcePayload, error) {
	return func(*models.SourceVersion) (*repository.SourcePayload, error) {
		return nil, err
	}
}

type stubCacheRepo struct {
	mu       sync.Mutex
	store    map[string][]byte
	sets     int
	patterns []string
}

func (s *stubCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	payload, ok := s.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (s *stubCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store == nil {
		s.store = make(map[string][]byte)
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.store[key] = payload
	s.sets++
	return nil
}

func (s *stubCacheRepo) DeleteByPattern(_ context.Context, pattern string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patterns = append(s.patterns, pattern)
	for key := range s.store {
		if ok, _ := path.Match(pattern, key); ok {
			delete(s.store, key)
		}
	}
	return nil
}

type fixedLoader struct {
	book *models.Gradebook
	err  error
}

func (l fixedLoader) Load(context.Context) (*models.Gradebook, bool, error) {
	return l.book, true, l.err
}

// loadSample parses sampleRows through the real loading path.
func loadSample() *models.Gradebook {
	src := &fakeSource{location: "grades.csv", responses: []func(*models.SourceVersion) (*repository.SourcePayload, error){
		csvPayload("v1", gradesCSV(sampleRows()...)),
	}}
	book, _, err := NewGradebookService(src, nil, nil, GradebookConfig{RevalidateAfter: time.Hour}, nil).Load(context.Background())
	if err != nil {
		panic(err)
	}
	return book
}
