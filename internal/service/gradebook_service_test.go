package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/grades-dashboard/internal/models"
	"github.com/noah-isme/grades-dashboard/internal/repository"
	appErrors "github.com/noah-isme/grades-dashboard/pkg/errors"
)

type sourceResponse = func(*models.SourceVersion) (*repository.SourcePayload, error)

func newGradebookForTest(src *fakeSource, snapshots *CacheService, revalidate time.Duration) *GradebookService {
	return NewGradebookService(src, snapshots, NewMetricsService(), GradebookConfig{RevalidateAfter: revalidate}, zap.NewNop())
}

func TestGradebookServiceServesFreshEntryFromMemory(t *testing.T) {
	src := &fakeSource{location: "grades.csv", responses: []sourceResponse{csvPayload("v1", gradesCSV(sampleRows()...))}}
	svc := newGradebookForTest(src, nil, time.Hour)

	book, hit, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
	require.Len(t, book.Records, 3)
	assert.Equal(t, "v1", book.Version.ETag)

	again, hit, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Same(t, book, again)
	assert.Equal(t, 1, src.calls)
	assert.True(t, svc.Ready())
}

func TestGradebookServiceRevalidatesWithPreviousVersion(t *testing.T) {
	src := &fakeSource{location: "grades.csv", responses: []sourceResponse{
		csvPayload("v1", gradesCSV(sampleRows()...)),
		notModified(),
	}}
	svc := newGradebookForTest(src, nil, 0)

	first, _, err := svc.Load(context.Background())
	require.NoError(t, err)
	second, hit, err := svc.Load(context.Background())
	require.NoError(t, err)

	assert.True(t, hit)
	assert.Same(t, first, second)
	require.Len(t, src.previous, 2)
	assert.Nil(t, src.previous[0])
	require.NotNil(t, src.previous[1])
	assert.Equal(t, "v1", src.previous[1].ETag)
}

func TestGradebookServiceReplacesChangedSource(t *testing.T) {
	rows := sampleRows()
	src := &fakeSource{location: "grades.csv", responses: []sourceResponse{
		csvPayload("v1", gradesCSV(rows...)),
		csvPayload("v2", gradesCSV(rows[:1]...)),
	}}
	svc := newGradebookForTest(src, nil, 0)

	_, _, err := svc.Load(context.Background())
	require.NoError(t, err)
	book, hit, err := svc.Load(context.Background())
	require.NoError(t, err)

	assert.False(t, hit)
	assert.Equal(t, "v2", book.Version.ETag)
	assert.Len(t, book.Records, 1)
}

func TestGradebookServiceServesPreviousWhenSourceFails(t *testing.T) {
	src := &fakeSource{location: "grades.csv", responses: []sourceResponse{
		csvPayload("v1", gradesCSV(sampleRows()...)),
		failing(appErrors.Clone(appErrors.ErrSourceUnavailable, "down")),
	}}
	svc := newGradebookForTest(src, nil, 0)

	first, _, err := svc.Load(context.Background())
	require.NoError(t, err)
	second, _, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestGradebookServiceSourceFailureWithoutCache(t *testing.T) {
	src := &fakeSource{location: "grades.csv", responses: []sourceResponse{
		failing(appErrors.Clone(appErrors.ErrSourceUnavailable, "down")),
	}}
	svc := newGradebookForTest(src, nil, time.Hour)

	_, _, err := svc.Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrSourceUnavailable)
	assert.False(t, svc.Ready())
}

func TestGradebookServiceSchemaError(t *testing.T) {
	src := &fakeSource{location: "grades.csv", responses: []sourceResponse{
		csvPayload("v1", []byte("Alumno,Profesor\nAna,Perez\n")),
	}}
	svc := newGradebookForTest(src, nil, time.Hour)

	_, _, err := svc.Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrSchema)
	assert.Contains(t, appErrors.FromError(err).Message, "Carrera")
}

func TestGradebookServiceUnreadableSource(t *testing.T) {
	src := &fakeSource{location: "grades.csv", responses: []sourceResponse{csvPayload("v1", []byte(""))}}
	svc := newGradebookForTest(src, nil, time.Hour)

	_, _, err := svc.Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrSchema)
}

func TestGradebookServiceReloadIgnoresTTL(t *testing.T) {
	src := &fakeSource{location: "grades.csv", responses: []sourceResponse{
		csvPayload("v1", gradesCSV(sampleRows()...)),
		csvPayload("v2", gradesCSV(sampleRows()[:2]...)),
	}}
	svc := newGradebookForTest(src, nil, time.Hour)

	_, _, err := svc.Load(context.Background())
	require.NoError(t, err)
	book, err := svc.Reload(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "v2", book.Version.ETag)
	assert.Len(t, book.Records, 2)
	require.NotNil(t, src.previous[1])
	assert.Equal(t, "v1", src.previous[1].ETag)
}

func TestGradebookServiceReloadKeepsPreviousWhenSourceFails(t *testing.T) {
	src := &fakeSource{location: "grades.csv", responses: []sourceResponse{
		csvPayload("v1", gradesCSV(sampleRows()...)),
		failing(appErrors.Clone(appErrors.ErrSourceUnavailable, "down")),
	}}
	svc := newGradebookForTest(src, nil, time.Hour)

	first, _, err := svc.Load(context.Background())
	require.NoError(t, err)

	book, err := svc.Reload(context.Background())
	assert.ErrorIs(t, err, appErrors.ErrSourceUnavailable)
	assert.Same(t, first, book)
	assert.True(t, svc.Ready())

	served, _, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, served)
}

func TestGradebookServiceInvalidateKeepsServingUntilRevalidated(t *testing.T) {
	repo := &stubCacheRepo{}
	snapshots := NewCacheService(repo, nil, time.Minute, zap.NewNop(), true)
	src := &fakeSource{location: "grades.csv", responses: []sourceResponse{
		csvPayload("v1", gradesCSV(sampleRows()...)),
		failing(appErrors.Clone(appErrors.ErrSourceUnavailable, "down")),
		notModified(),
	}}
	svc := newGradebookForTest(src, snapshots, time.Hour)

	first, _, err := svc.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, repo.store, 1)

	require.NoError(t, svc.Invalidate(context.Background()))
	assert.True(t, svc.Ready())
	assert.Equal(t, []string{"gradebook:grades.csv:*"}, repo.patterns)
	assert.Empty(t, repo.store)

	// The source is down: the stale gradebook is served and stays stale.
	served, _, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, served)

	served, hit, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Same(t, first, served)
	assert.Equal(t, 3, src.calls)
	assert.Equal(t, "v1", src.previous[2].ETag)
}

func TestGradebookServiceSharesParsedSnapshot(t *testing.T) {
	repo := &stubCacheRepo{}
	snapshots := NewCacheService(repo, nil, time.Minute, zap.NewNop(), true)

	first := &fakeSource{location: "grades.csv", responses: []sourceResponse{csvPayload("v1", gradesCSV(sampleRows()...))}}
	book, _, err := newGradebookForTest(first, snapshots, time.Hour).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, repo.sets)

	// A second process sees the same revision; the bytes are never parsed.
	second := &fakeSource{location: "grades.csv", responses: []sourceResponse{csvPayload("v1", []byte("not,a,gradebook"))}}
	shared, _, err := newGradebookForTest(second, snapshots, time.Hour).Load(context.Background())
	require.NoError(t, err)

	require.Len(t, shared.Records, len(book.Records))
	assert.Equal(t, book.Records[0].Averages, shared.Records[0].Averages)
	assert.Equal(t, book.Records[1].Categories, shared.Records[1].Categories)
}

func TestGradebookServiceDerivesAverages(t *testing.T) {
	book := loadSample()
	luis := book.Records[1]

	assert.Equal(t, models.Some(10), luis.Averages.Group(models.GroupTrabajoGrupal))
	assert.Equal(t, models.Missing, luis.Averages.Group(models.GroupLaboratorio))
	assert.Equal(t, models.CategoryNP, luis.Categories["EL1_Cat"])
}
