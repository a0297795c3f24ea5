package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"exambank/internal/cache"
	"exambank/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestFiller(classifier domain.BatchClassifier, cacheStore domain.Cache, cfg FillerConfig) *DomainFiller {
	return NewDomainFiller(classifier, cacheStore, cfg, zap.NewNop())
}

func TestFillCacheHitSkipsClassifier(t *testing.T) {
	q := question("f001", "q001")
	store := newMemoryCache()

	entry := &domain.CacheEntry{
		Domain:        "economics",
		Subdomain:     "micro",
		IsCalculation: true,
		Reason:        "cached",
		ClassifiedAt:  time.Now().UTC(),
	}
	encoded, err := entry.Encode()
	require.NoError(t, err)
	require.NoError(t, store.Set(context.Background(), cache.ClassificationKey(q.ID()), encoded, 0))

	classifier := &funcClassifier{fn: classifyAll("unused", "unused")}
	filler := newTestFiller(classifier, store, FillerConfig{})

	result, err := filler.Fill(context.Background(), []*domain.Question{q}, nil)
	require.NoError(t, err)

	assert.Equal(t, 0, classifier.callCount())
	assert.Equal(t, 1, result.Stats.CacheHits)
	assert.Equal(t, 0, result.Stats.NewlyClassified)
	assert.Equal(t, "economics", q.Domain)
	assert.Equal(t, "micro", q.Subdomain)
	assert.True(t, q.IsCalculation)
}

func TestFillAlreadyClassifiedIsUntouched(t *testing.T) {
	q := classified("f001", "q001", "economics", "macro")
	classifier := &funcClassifier{fn: classifyAll("other", "other")}
	filler := newTestFiller(classifier, newMemoryCache(), FillerConfig{})

	result, err := filler.Fill(context.Background(), []*domain.Question{q}, nil)
	require.NoError(t, err)

	assert.Equal(t, 0, classifier.callCount())
	assert.Equal(t, 1, result.Stats.AlreadyClassified)
	assert.Equal(t, "economics", q.Domain)
}

func TestFillClassifiesAndCaches(t *testing.T) {
	pool := []*domain.Question{question("f001", "q001"), question("f001", "q002")}
	store := newMemoryCache()
	classifier := &funcClassifier{fn: classifyAll("accounting", "audit")}
	filler := newTestFiller(classifier, store, FillerConfig{})

	result, err := filler.Fill(context.Background(), pool, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Stats.NewlyClassified)
	assert.Equal(t, 1, result.Stats.Rounds)
	assert.Empty(t, result.Quarantine)
	for _, q := range pool {
		assert.Equal(t, "accounting", q.Domain)
	}
	assert.Equal(t, 2, store.len())
}

func TestFillRetriesThenQuarantines(t *testing.T) {
	q := question("f001", "q001")
	classifier := &funcClassifier{fn: failAll("no valid response")}
	filler := newTestFiller(classifier, newMemoryCache(), FillerConfig{MaxRounds: 3})

	result, err := filler.Fill(context.Background(), []*domain.Question{q}, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, classifier.callCount())
	assert.Equal(t, 3, result.Stats.Rounds)
	require.Len(t, result.Quarantine, 1)
	assert.Equal(t, "no valid response", result.Quarantine[0].FailureReason)
	assert.Equal(t, 3, result.Quarantine[0].Rounds)
	assert.False(t, q.IsClassified())
}

func TestFillRetriesOnlyFailedRecords(t *testing.T) {
	pool := []*domain.Question{question("f001", "q001"), question("f001", "q002")}
	classifier := &funcClassifier{
		fn: func(call int, batch []*domain.Question) ([]*domain.Question, []domain.ClassificationFailure, error) {
			if call == 1 {
				require.Len(t, batch, 2)
				batch[0].SetClassification("economics", "micro", "first round", false)
				return batch[:1], []domain.ClassificationFailure{{Question: batch[1], Reason: "missing from response"}}, nil
			}
			require.Len(t, batch, 1)
			batch[0].SetClassification("economics", "macro", "second round", false)
			return batch, nil, nil
		},
	}
	filler := newTestFiller(classifier, newMemoryCache(), FillerConfig{})

	result, err := filler.Fill(context.Background(), pool, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, classifier.callCount())
	assert.Equal(t, 2, result.Stats.NewlyClassified)
	assert.Equal(t, 2, result.Stats.Rounds)
	assert.Empty(t, result.Quarantine)
	assert.Equal(t, "micro", pool[0].Subdomain)
	assert.Equal(t, "macro", pool[1].Subdomain)
}

func TestFillReadmitInvalidatesAndReclassifies(t *testing.T) {
	q := classified("f001", "q001", "stale", "stale")
	store := newMemoryCache()
	classifier := &funcClassifier{fn: classifyAll("economics", "micro")}
	filler := newTestFiller(classifier, store, FillerConfig{})

	result, err := filler.Fill(context.Background(), []*domain.Question{q}, []string{q.ID()})
	require.NoError(t, err)

	assert.Contains(t, store.deletes, cache.ClassificationKey(q.ID()))
	assert.Equal(t, 1, classifier.callCount())
	assert.Equal(t, 1, result.Stats.NewlyClassified)
	assert.Equal(t, "economics", q.Domain)
}

func TestFillMalformedCacheEntryIsDropped(t *testing.T) {
	q := question("f001", "q001")
	store := newMemoryCache()
	key := cache.ClassificationKey(q.ID())
	require.NoError(t, store.Set(context.Background(), key, "{not json", 0))

	classifier := &funcClassifier{fn: classifyAll("economics", "micro")}
	filler := newTestFiller(classifier, store, FillerConfig{})

	result, err := filler.Fill(context.Background(), []*domain.Question{q}, nil)
	require.NoError(t, err)

	assert.Contains(t, store.deletes, key)
	assert.Equal(t, 1, result.Stats.NewlyClassified)
	assert.Equal(t, 0, result.Stats.CacheHits)
}

func TestFillCacheWriteFailureIsNonFatal(t *testing.T) {
	q := question("f001", "q001")
	store := newMemoryCache()
	store.setErr = errors.New("connection refused")

	classifier := &funcClassifier{fn: classifyAll("economics", "micro")}
	filler := newTestFiller(classifier, store, FillerConfig{})

	result, err := filler.Fill(context.Background(), []*domain.Question{q}, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Stats.NewlyClassified)
	assert.True(t, q.IsClassified())
}

func TestFillContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	classifier := &funcClassifier{fn: classifyAll("economics", "micro")}
	filler := newTestFiller(classifier, newMemoryCache(), FillerConfig{})

	_, err := filler.Fill(ctx, []*domain.Question{question("f001", "q001")}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
