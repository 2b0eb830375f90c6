package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/RishiKendai/shingle/internal/cache"
	"github.com/RishiKendai/shingle/internal/metrics"
	"github.com/RishiKendai/shingle/internal/models"
	"github.com/RishiKendai/shingle/internal/plagiarism"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	ErrTextTooLarge        = errors.New("text exceeds the maximum size")
	ErrInvalidEncoding     = errors.New("text is not valid UTF-8")
	ErrEmptyBatch          = errors.New("batch has no pairs")
	ErrBatchTooLarge       = errors.New("batch exceeds the maximum number of pairs")
	ErrPersistenceDisabled = errors.New("report persistence is not configured")
)

// Report sources.
const (
	SourceAPI    = "api"
	SourceUpload = "upload"
	SourceBatch  = "batch"
	SourceStream = "stream"
)

// ReportStore persists comparison reports.
type ReportStore interface {
	SaveReport(ctx context.Context, report *models.Report) error
	GetReport(ctx context.Context, id string) (*models.Report, error)
	ListRecent(ctx context.Context, limit int64) ([]*models.Report, error)
}

// Options configures a Service.
type Options struct {
	MaxTextBytes  int
	MaxBatchPairs int
}

type Service struct {
	engine  *plagiarism.Engine
	cache   cache.ResultCache
	store   ReportStore
	pool    *plagiarism.WorkerPool
	metrics *metrics.Recorder
	opts    Options
}

// NewService wires the engine to its collaborators. cache, store and rec may
// be nil.
func NewService(
	engine *plagiarism.Engine,
	resultCache cache.ResultCache,
	store ReportStore,
	pool *plagiarism.WorkerPool,
	rec *metrics.Recorder,
	opts Options,
) *Service {
	return &Service{
		engine:  engine,
		cache:   resultCache,
		store:   store,
		pool:    pool,
		metrics: rec,
		opts:    opts,
	}
}

// Validate checks that both texts are valid UTF-8 and within the size limit.
func (s *Service) Validate(req models.CompareRequest) error {
	for _, text := range []string{req.Text1, req.Text2} {
		if s.opts.MaxTextBytes > 0 && len(text) > s.opts.MaxTextBytes {
			return fmt.Errorf("%w (%d bytes)", ErrTextTooLarge, s.opts.MaxTextBytes)
		}
		if !utf8.ValidString(text) {
			return ErrInvalidEncoding
		}
	}
	return nil
}

// Compare compares a pair under a fresh report ID.
func (s *Service) Compare(ctx context.Context, source string, req models.CompareRequest) (*models.Report, error) {
	return s.CompareWithID(ctx, uuid.New().String(), source, req)
}

// CompareWithID compares a pair, caches the engine result and persists the
// report when a store is configured.
func (s *Service) CompareWithID(ctx context.Context, id, source string, req models.CompareRequest) (*models.Report, error) {
	if err := s.Validate(req); err != nil {
		return nil, err
	}

	result, cached, err := s.compare(ctx, source, req)
	if err != nil {
		return nil, err
	}

	report := s.buildReport(id, source, result, cached)
	if err := s.persist(ctx, report); err != nil {
		return nil, err
	}

	log.Debug().
		Str("id", id).
		Str("source", source).
		Float64("similarity", report.Similarity).
		Bool("cached", cached).
		Msg("Comparison completed")

	return report, nil
}

// CompareBatch compares every pair, running cache misses on the worker pool.
// Reports are returned in request order.
func (s *Service) CompareBatch(ctx context.Context, reqs []models.CompareRequest) ([]*models.Report, error) {
	if len(reqs) == 0 {
		return nil, ErrEmptyBatch
	}
	if s.opts.MaxBatchPairs > 0 && len(reqs) > s.opts.MaxBatchPairs {
		return nil, fmt.Errorf("%w (%d)", ErrBatchTooLarge, s.opts.MaxBatchPairs)
	}
	for i, req := range reqs {
		if err := s.Validate(req); err != nil {
			return nil, fmt.Errorf("pair %d: %w", i, err)
		}
	}

	results := make([]*plagiarism.Result, len(reqs))
	cached := make([]bool, len(reqs))
	var missIdx []int
	var missPairs []plagiarism.Pair

	for i, req := range reqs {
		if result, ok := s.lookup(ctx, req); ok {
			results[i], cached[i] = result, true
			continue
		}
		missIdx = append(missIdx, i)
		missPairs = append(missPairs, plagiarism.Pair{Text1: req.Text1, Text2: req.Text2})
	}

	if len(missPairs) > 0 {
		start := time.Now()
		computed, err := s.computeBatch(ctx, missPairs)
		if err != nil {
			return nil, fmt.Errorf("batch comparison failed: %w", err)
		}
		elapsed := time.Since(start) / time.Duration(len(missPairs))
		for n, i := range missIdx {
			results[i] = computed[n]
			s.metrics.ObserveComparison(SourceBatch, elapsed, computed[n].Similarity)
			s.storeResult(ctx, reqs[i], computed[n])
		}
	}

	reports := make([]*models.Report, len(reqs))
	for i, result := range results {
		report := s.buildReport(uuid.New().String(), SourceBatch, result, cached[i])
		if err := s.persist(ctx, report); err != nil {
			return nil, err
		}
		reports[i] = report
	}

	return reports, nil
}

// Get loads a stored report.
func (s *Service) Get(ctx context.Context, id string) (*models.Report, error) {
	if s.store == nil {
		return nil, ErrPersistenceDisabled
	}
	report, err := s.store.GetReport(ctx, id)
	if err != nil {
		return nil, err
	}
	s.renderHTML(report)
	return report, nil
}

// ListRecent returns the newest stored reports.
func (s *Service) ListRecent(ctx context.Context, limit int64) ([]*models.Report, error) {
	if s.store == nil {
		return nil, ErrPersistenceDisabled
	}
	reports, err := s.store.ListRecent(ctx, limit)
	if err != nil {
		return nil, err
	}
	for _, report := range reports {
		s.renderHTML(report)
	}
	return reports, nil
}

func (s *Service) compare(ctx context.Context, source string, req models.CompareRequest) (*plagiarism.Result, bool, error) {
	if result, ok := s.lookup(ctx, req); ok {
		return result, true, nil
	}

	start := time.Now()
	result, err := s.engine.CompareContext(ctx, req.Text1, req.Text2)
	if err != nil {
		return nil, false, fmt.Errorf("comparison aborted: %w", err)
	}
	s.metrics.ObserveComparison(source, time.Since(start), result.Similarity)
	s.storeResult(ctx, req, result)
	return result, false, nil
}

func (s *Service) computeBatch(ctx context.Context, pairs []plagiarism.Pair) ([]*plagiarism.Result, error) {
	if s.pool != nil {
		return plagiarism.CompareBatch(ctx, s.pool, s.engine, pairs)
	}
	results := make([]*plagiarism.Result, len(pairs))
	for i, pair := range pairs {
		result, err := s.engine.CompareContext(ctx, pair.Text1, pair.Text2)
		if err != nil {
			return results, err
		}
		results[i] = result
	}
	return results, nil
}

// lookup returns a cached result only if it was computed for exactly these
// texts. Keys are 64-bit hashes and may collide.
func (s *Service) lookup(ctx context.Context, req models.CompareRequest) (*plagiarism.Result, bool) {
	if s.cache == nil {
		return nil, false
	}
	result, ok := s.cache.Get(ctx, cache.Key(req.Text1, req.Text2, s.engine.Options()))
	if !ok {
		return nil, false
	}
	if result.Doc1Text != req.Text1 || result.Doc2Text != req.Text2 {
		log.Warn().Msg("Cached result belongs to a different pair, recomputing")
		return nil, false
	}
	return result, true
}

func (s *Service) storeResult(ctx context.Context, req models.CompareRequest, result *plagiarism.Result) {
	if s.cache == nil {
		return
	}
	s.cache.Set(ctx, cache.Key(req.Text1, req.Text2, s.engine.Options()), result)
}

func (s *Service) persist(ctx context.Context, report *models.Report) error {
	if s.store == nil {
		return nil
	}
	if err := s.store.SaveReport(ctx, report); err != nil {
		return fmt.Errorf("failed to store report: %w", err)
	}
	return nil
}

func (s *Service) buildReport(id, source string, result *plagiarism.Result, cached bool) *models.Report {
	report := &models.Report{
		ID:          id,
		Source:      source,
		Similarity:  result.Similarity,
		Verdict:     result.Verdict,
		ShingleSize: result.ShingleSize,
		RawMatches:  result.RawMatches,
		OffsetMode:  string(s.engine.Options().OffsetMode),
		Doc1: models.DocumentReport{
			Text:     result.Doc1Text,
			Matches:  toSpans(result.Doc1Matches),
			Coverage: result.Doc1Coverage,
		},
		Doc2: models.DocumentReport{
			Text:     result.Doc2Text,
			Matches:  toSpans(result.Doc2Matches),
			Coverage: result.Doc2Coverage,
		},
		Cached:    cached,
		CreatedAt: time.Now().UTC(),
	}
	s.renderHTML(report)
	return report
}

func (s *Service) renderHTML(report *models.Report) {
	report.Doc1.HTML = plagiarism.Render(report.Doc1.Text, toIntervals(report.Doc1.Matches))
	report.Doc2.HTML = plagiarism.Render(report.Doc2.Text, toIntervals(report.Doc2.Matches))
}

func toSpans(intervals []plagiarism.Interval) []models.Span {
	spans := make([]models.Span, len(intervals))
	for i, iv := range intervals {
		spans[i] = models.Span{Start: iv.Start, End: iv.End}
	}
	return spans
}

func toIntervals(spans []models.Span) []plagiarism.Interval {
	intervals := make([]plagiarism.Interval, len(spans))
	for i, sp := range spans {
		intervals[i] = plagiarism.Interval{Start: sp.Start, End: sp.End}
	}
	return intervals
}
