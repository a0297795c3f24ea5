package service

import (
	"context"
	"sync"
	"time"

	"exambank/internal/cache"
	"exambank/internal/domain"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// FillerConfig bounds one classification run.
type FillerConfig struct {
	Model     string
	BatchSize int
	MaxRounds int
	Workers   int
}

// FillStats summarizes one classification run for the statistics artifact.
type FillStats struct {
	Total             int `json:"total"`
	AlreadyClassified int `json:"already_classified"`
	CacheHits         int `json:"cache_hits"`
	NewlyClassified   int `json:"newly_classified"`
	Quarantined       int `json:"quarantined"`
	Rounds            int `json:"rounds"`
}

// FillResult carries the run outcome. The pool itself is updated in place;
// Quarantine lists the records that exhausted their retry rounds.
type FillResult struct {
	Stats      FillStats
	Quarantine []domain.QuarantineRecord
}

// DomainFiller drives classification across the whole question pool: cache
// lookups first, then bounded retry rounds of batched classifier calls.
// Batches within a round run concurrently; rounds are strictly sequential, and
// all cache writes happen on the filler's goroutine (single-writer).
type DomainFiller struct {
	classifier domain.BatchClassifier
	cache      domain.Cache
	cfg        FillerConfig
	logger     *zap.Logger
}

// NewDomainFiller creates a new DomainFiller.
func NewDomainFiller(classifier domain.BatchClassifier, cacheStore domain.Cache, cfg FillerConfig, logger *zap.Logger) *DomainFiller {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.MaxRounds <= 0 {
		cfg.MaxRounds = 3
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &DomainFiller{
		classifier: classifier,
		cache:      cacheStore,
		cfg:        cfg,
		logger:     logger,
	}
}

// Fill classifies every unclassified record in the pool, mutating records in
// place. readmit lists identifiers from a previous run's quarantine whose
// cache entries are invalidated and which are processed again from scratch.
func (f *DomainFiller) Fill(ctx context.Context, pool []*domain.Question, readmit []string) (*FillResult, error) {
	stats := FillStats{Total: len(pool)}

	readmitSet := make(map[string]struct{}, len(readmit))
	for _, id := range readmit {
		readmitSet[id] = struct{}{}
	}

	pending, err := f.resolveFromCache(ctx, pool, readmitSet, &stats)
	if err != nil {
		return nil, err
	}

	f.logger.Info("cache phase complete",
		zap.Int("total", stats.Total),
		zap.Int("already_classified", stats.AlreadyClassified),
		zap.Int("cache_hits", stats.CacheHits),
		zap.Int("pending", len(pending)))

	failReasons := make(map[string]string)
	for round := 1; round <= f.cfg.MaxRounds && len(pending) > 0; round++ {
		stats.Rounds = round

		updated, failed, err := f.runRound(ctx, pending)
		if err != nil {
			return nil, err
		}

		for _, q := range updated {
			f.merge(ctx, q)
			delete(failReasons, q.ID())
			stats.NewlyClassified++
		}

		pending = pending[:0]
		for _, fl := range failed {
			failReasons[fl.Question.ID()] = fl.Reason
			pending = append(pending, fl.Question)
		}

		f.logger.Info("classification round complete",
			zap.Int("round", round),
			zap.Int("classified", len(updated)),
			zap.Int("failed", len(failed)))
	}

	result := &FillResult{Stats: stats}
	for _, q := range pending {
		result.Quarantine = append(result.Quarantine, domain.QuarantineRecord{
			Question:      *q,
			FailureReason: failReasons[q.ID()],
			Rounds:        stats.Rounds,
		})
	}
	result.Stats.Quarantined = len(result.Quarantine)

	if result.Stats.Quarantined > 0 {
		f.logger.Warn("records quarantined after retry exhaustion",
			zap.Int("count", result.Stats.Quarantined))
	}
	return result, nil
}

// resolveFromCache re-admits quarantined identifiers, merges cache hits and
// returns the records still needing a classifier call.
func (f *DomainFiller) resolveFromCache(ctx context.Context, pool []*domain.Question, readmitSet map[string]struct{}, stats *FillStats) ([]*domain.Question, error) {
	var pending []*domain.Question
	for _, q := range pool {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		id := q.ID()
		key := cache.ClassificationKey(id)

		if _, ok := readmitSet[id]; ok {
			q.ClearClassification()
			if err := f.cache.Delete(ctx, key); err != nil {
				f.logger.Warn("failed to invalidate cache entry for re-admitted record",
					zap.String("id", id), zap.Error(err))
			}
		}

		if q.IsClassified() {
			q.RefreshTableFlag()
			stats.AlreadyClassified++
			continue
		}

		raw, err := f.cache.Get(ctx, key)
		if err == nil {
			entry, decodeErr := domain.DecodeCacheEntry(raw)
			if decodeErr == nil {
				q.SetClassification(entry.Domain, entry.Subdomain, entry.Reason, entry.IsCalculation)
				q.RefreshTableFlag()
				stats.CacheHits++
				continue
			}
			f.logger.Warn("dropping malformed cache entry",
				zap.String("id", id), zap.Error(decodeErr))
			if delErr := f.cache.Delete(ctx, key); delErr != nil {
				f.logger.Warn("failed to drop malformed cache entry",
					zap.String("id", id), zap.Error(delErr))
			}
		} else if err != domain.ErrCacheMiss {
			// Read failures degrade to a miss; the classifier result will
			// repopulate the entry.
			f.logger.Warn("cache lookup failed", zap.String("id", id), zap.Error(err))
		}

		pending = append(pending, q)
	}
	return pending, nil
}

// runRound dispatches one round of batches through the bounded worker pool
// and collects the results.
func (f *DomainFiller) runRound(ctx context.Context, pending []*domain.Question) ([]*domain.Question, []domain.ClassificationFailure, error) {
	batches := chunkQuestions(pending, f.cfg.BatchSize)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.cfg.Workers)

	var mu sync.Mutex
	var updated []*domain.Question
	var failed []domain.ClassificationFailure

	for _, batch := range batches {
		batch := batch
		g.Go(func() error {
			u, fl, err := f.classifier.Classify(gctx, batch, f.cfg.Model)
			if err != nil {
				return err
			}
			mu.Lock()
			updated = append(updated, u...)
			failed = append(failed, fl...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return updated, failed, nil
}

// merge finalizes one freshly classified record: recompute the table flag
// from current text and persist the entry. A cache write failure only warns;
// the in-memory result stands for this run.
func (f *DomainFiller) merge(ctx context.Context, q *domain.Question) {
	q.RefreshTableFlag()

	entry := &domain.CacheEntry{
		Domain:        q.Domain,
		Subdomain:     q.Subdomain,
		IsCalculation: q.IsCalculation,
		Reason:        q.ClassificationReason,
		ClassifiedAt:  time.Now().UTC(),
	}
	encoded, err := entry.Encode()
	if err == nil {
		err = f.cache.Set(ctx, cache.ClassificationKey(q.ID()), encoded, 0)
	}
	if err != nil {
		f.logger.Warn("classification result may not persist across runs",
			zap.String("id", q.ID()),
			zap.Error(domain.NewCacheWriteError(q.ID(), err)))
	}
}

func chunkQuestions(questions []*domain.Question, size int) [][]*domain.Question {
	var batches [][]*domain.Question
	for start := 0; start < len(questions); start += size {
		end := start + size
		if end > len(questions) {
			end = len(questions)
		}
		batches = append(batches, questions[start:end])
	}
	return batches
}
