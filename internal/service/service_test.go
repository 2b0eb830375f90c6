package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/RishiKendai/shingle/internal/cache"
	"github.com/RishiKendai/shingle/internal/models"
	"github.com/RishiKendai/shingle/internal/plagiarism"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu        sync.Mutex
	reports   map[string]*models.Report
	insertErr error
}

func newMemStore() *memStore {
	return &memStore{reports: map[string]*models.Report{}}
}

func (m *memStore) SaveReport(ctx context.Context, report *models.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	stored := *report
	m.reports[report.ID] = &stored
	return nil
}

func (m *memStore) GetReport(ctx context.Context, id string) (*models.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	report, ok := m.reports[id]
	if !ok {
		return nil, errors.New("not found")
	}
	copied := *report
	return &copied, nil
}

func (m *memStore) ListRecent(ctx context.Context, limit int64) ([]*models.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Report
	for _, r := range m.reports {
		out = append(out, r)
	}
	return out, nil
}

const (
	foxA = "The quick brown fox jumps over the lazy dog"
	foxB = "A quick brown fox jumps over a lazy dog"
)

func newTestService(store ReportStore, resultCache cache.ResultCache, pool *plagiarism.WorkerPool) *Service {
	return NewService(plagiarism.NewEngine(plagiarism.DefaultOptions()), resultCache, store, pool, nil, Options{
		MaxTextBytes:  64,
		MaxBatchPairs: 3,
	})
}

func TestCompare(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, cache.NewLRUCache(16, time.Minute), nil)

	report, err := svc.Compare(context.Background(), SourceAPI, models.CompareRequest{Text1: foxA, Text2: foxB})
	require.NoError(t, err)

	assert.NotEmpty(t, report.ID)
	assert.Equal(t, SourceAPI, report.Source)
	assert.InDelta(t, 63.57, report.Similarity, 0.001)
	assert.Equal(t, "highly suspicious", report.Verdict)
	assert.Equal(t, []models.Span{{Start: 4, End: 30}}, report.Doc1.Matches)
	assert.Equal(t, []models.Span{{Start: 2, End: 28}}, report.Doc2.Matches)
	assert.Contains(t, report.Doc1.HTML, `<span class="plagiarism-highlight">quick brown fox jumps over</span>`)
	assert.False(t, report.Cached)
	assert.Equal(t, "exact", report.OffsetMode)
	assert.Contains(t, store.reports, report.ID)

	again, err := svc.Compare(context.Background(), SourceAPI, models.CompareRequest{Text1: foxA, Text2: foxB})
	require.NoError(t, err)
	assert.True(t, again.Cached)
	assert.NotEqual(t, report.ID, again.ID)
	assert.Equal(t, report.Similarity, again.Similarity)
}

func TestCompareWithoutCollaborators(t *testing.T) {
	svc := newTestService(nil, nil, nil)

	report, err := svc.CompareWithID(context.Background(), "fixed-id", SourceStream, models.CompareRequest{Text1: "hello world", Text2: "goodbye moon"})
	require.NoError(t, err)
	assert.Equal(t, "fixed-id", report.ID)
	assert.Equal(t, 0.0, report.Similarity)
	assert.Empty(t, report.Doc1.Matches)
	assert.Equal(t, "hello world", report.Doc1.HTML)

	_, err = svc.Get(context.Background(), "fixed-id")
	assert.ErrorIs(t, err, ErrPersistenceDisabled)
	_, err = svc.ListRecent(context.Background(), 10)
	assert.ErrorIs(t, err, ErrPersistenceDisabled)
}

func TestValidate(t *testing.T) {
	svc := newTestService(nil, nil, nil)

	assert.NoError(t, svc.Validate(models.CompareRequest{Text1: "", Text2: ""}))
	assert.ErrorIs(t, svc.Validate(models.CompareRequest{Text1: strings.Repeat("a", 65)}), ErrTextTooLarge)
	assert.ErrorIs(t, svc.Validate(models.CompareRequest{Text2: "bad \xff byte"}), ErrInvalidEncoding)

	_, err := svc.Compare(context.Background(), SourceAPI, models.CompareRequest{Text1: "\xfe"})
	assert.ErrorIs(t, err, ErrInvalidEncoding)
}

func TestComparePersistFailure(t *testing.T) {
	store := newMemStore()
	store.insertErr = errors.New("write concern")
	svc := newTestService(store, nil, nil)

	_, err := svc.Compare(context.Background(), SourceAPI, models.CompareRequest{Text1: "a b", Text2: "a b"})
	assert.ErrorContains(t, err, "write concern")
}

func TestCompareCancelled(t *testing.T) {
	svc := newTestService(nil, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := svc.Compare(ctx, SourceAPI, models.CompareRequest{Text1: "a b", Text2: "a b"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, report)

	_, err = svc.CompareBatch(ctx, []models.CompareRequest{{Text1: "a b", Text2: "a b"}})
	assert.ErrorIs(t, err, context.Canceled)
}

// collidingCache answers every key with the same entry, as two pairs whose
// keys hash alike would.
type collidingCache struct {
	mu     sync.Mutex
	result *plagiarism.Result
	sets   int
}

func (c *collidingCache) Get(ctx context.Context, key string) (*plagiarism.Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result, c.result != nil
}

func (c *collidingCache) Set(ctx context.Context, key string, result *plagiarism.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.result = result
	c.sets++
}

func TestCompareIgnoresCacheEntryForOtherPair(t *testing.T) {
	stub := &collidingCache{}
	svc := newTestService(nil, stub, nil)

	first, err := svc.Compare(context.Background(), SourceAPI, models.CompareRequest{Text1: "a b", Text2: "a b"})
	require.NoError(t, err)
	assert.Equal(t, 100.0, first.Similarity)

	second, err := svc.Compare(context.Background(), SourceAPI, models.CompareRequest{Text1: "hello world", Text2: "goodbye moon"})
	require.NoError(t, err)
	assert.False(t, second.Cached)
	assert.Equal(t, 0.0, second.Similarity)
	assert.Equal(t, "hello world", second.Doc1.Text)
	assert.Equal(t, 2, stub.sets)

	again, err := svc.Compare(context.Background(), SourceAPI, models.CompareRequest{Text1: "hello world", Text2: "goodbye moon"})
	require.NoError(t, err)
	assert.True(t, again.Cached)

	reports, err := svc.CompareBatch(context.Background(), []models.CompareRequest{{Text1: "a b", Text2: "a b"}})
	require.NoError(t, err)
	assert.False(t, reports[0].Cached)
	assert.Equal(t, 100.0, reports[0].Similarity)
}

func TestGetRendersHTML(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, nil, nil)

	report, err := svc.Compare(context.Background(), SourceAPI, models.CompareRequest{Text1: foxA, Text2: foxB})
	require.NoError(t, err)

	store.reports[report.ID].Doc1.HTML = ""
	loaded, err := svc.Get(context.Background(), report.ID)
	require.NoError(t, err)
	assert.Equal(t, report.Doc1.HTML, loaded.Doc1.HTML)

	_, err = svc.Get(context.Background(), "missing")
	assert.Error(t, err)
}

func TestListRecentRendersHTML(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, nil, nil)

	report, err := svc.Compare(context.Background(), SourceAPI, models.CompareRequest{Text1: foxA, Text2: foxB})
	require.NoError(t, err)
	require.NotEmpty(t, report.Doc1.HTML)

	store.reports[report.ID].Doc1.HTML = ""
	store.reports[report.ID].Doc2.HTML = ""
	reports, err := svc.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, report.Doc1.HTML, reports[0].Doc1.HTML)
	assert.Equal(t, report.Doc2.HTML, reports[0].Doc2.HTML)

	_, err = newTestService(nil, nil, nil).ListRecent(context.Background(), 10)
	assert.ErrorIs(t, err, ErrPersistenceDisabled)
}

func TestCompareBatch(t *testing.T) {
	pool := plagiarism.NewWorkerPool(context.Background(), 2)
	defer pool.Close()

	lru := cache.NewLRUCache(16, time.Minute)
	store := newMemStore()
	svc := newTestService(store, lru, pool)

	_, err := svc.Compare(context.Background(), SourceAPI, models.CompareRequest{Text1: "a b", Text2: "a b"})
	require.NoError(t, err)

	reqs := []models.CompareRequest{
		{Text1: foxA, Text2: foxB},
		{Text1: "a b", Text2: "a b"},
		{Text1: "hello world", Text2: "goodbye moon"},
	}
	reports, err := svc.CompareBatch(context.Background(), reqs)
	require.NoError(t, err)
	require.Len(t, reports, 3)

	assert.InDelta(t, 63.57, reports[0].Similarity, 0.001)
	assert.False(t, reports[0].Cached)
	assert.Equal(t, 100.0, reports[1].Similarity)
	assert.True(t, reports[1].Cached)
	assert.Equal(t, 0.0, reports[2].Similarity)
	for _, r := range reports {
		assert.Equal(t, SourceBatch, r.Source)
		assert.Contains(t, store.reports, r.ID)
	}
	assert.Equal(t, 3, lru.Len())
}

func TestCompareBatchSequentialFallback(t *testing.T) {
	svc := newTestService(nil, nil, nil)

	reports, err := svc.CompareBatch(context.Background(), []models.CompareRequest{
		{Text1: "quick brown", Text2: "the quick brown fox"},
	})
	require.NoError(t, err)
	assert.InDelta(t, 78.95, reports[0].Similarity, 0.001)
}

func TestCompareBatchRejects(t *testing.T) {
	svc := newTestService(nil, nil, nil)
	ctx := context.Background()

	_, err := svc.CompareBatch(ctx, nil)
	assert.ErrorIs(t, err, ErrEmptyBatch)

	_, err = svc.CompareBatch(ctx, make([]models.CompareRequest, 4))
	assert.ErrorIs(t, err, ErrBatchTooLarge)

	_, err = svc.CompareBatch(ctx, []models.CompareRequest{{}, {Text1: "\xff"}})
	assert.ErrorIs(t, err, ErrInvalidEncoding)
	assert.ErrorContains(t, err, "pair 1")
}
