package service

import (
	"context"
	"sync"
	"time"

	"exambank/internal/domain"
)

// funcClassifier scripts classifier behavior per call. Batches may arrive
// concurrently, so call counting is locked.
type funcClassifier struct {
	mu    sync.Mutex
	calls int
	fn    func(call int, batch []*domain.Question) ([]*domain.Question, []domain.ClassificationFailure, error)
}

func (f *funcClassifier) Classify(ctx context.Context, batch []*domain.Question, model string) ([]*domain.Question, []domain.ClassificationFailure, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.mu.Unlock()
	return f.fn(call, batch)
}

func (f *funcClassifier) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// classifyAll marks every record in the batch with a fixed classification,
// the way a fully successful classifier round would.
func classifyAll(domainName, subdomain string) func(int, []*domain.Question) ([]*domain.Question, []domain.ClassificationFailure, error) {
	return func(_ int, batch []*domain.Question) ([]*domain.Question, []domain.ClassificationFailure, error) {
		for _, q := range batch {
			q.SetClassification(domainName, subdomain, "scripted", false)
		}
		return batch, nil, nil
	}
}

// failAll rejects every record in the batch with the given reason.
func failAll(reason string) func(int, []*domain.Question) ([]*domain.Question, []domain.ClassificationFailure, error) {
	return func(_ int, batch []*domain.Question) ([]*domain.Question, []domain.ClassificationFailure, error) {
		var failed []domain.ClassificationFailure
		for _, q := range batch {
			failed = append(failed, domain.ClassificationFailure{Question: q, Reason: reason})
		}
		return nil, failed, nil
	}
}

// memoryCache is an in-memory domain.Cache with injectable failures.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string]string
	deletes []string
	getErr  error
	setErr  error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string]string)}
}

func (c *memoryCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return "", c.getErr
	}
	value, ok := c.entries[key]
	if !ok {
		return "", domain.ErrCacheMiss
	}
	return value, nil
}

func (c *memoryCache) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return c.setErr
	}
	c.entries[key] = value
	return nil
}

func (c *memoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deletes = append(c.deletes, key)
	delete(c.entries, key)
	return nil
}

func (c *memoryCache) Ping(ctx context.Context) error {
	return nil
}

func (c *memoryCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// memoryArtifactRepo keeps artifacts in maps keyed the way the file layout
// would key them.
type memoryArtifactRepo struct {
	pools      map[string][]*domain.Question
	quarantine map[string][]domain.QuarantineRecord
	exams      map[string][]*domain.Question
	variants   domain.VariantIndex
	saved      map[string]any
}

func newMemoryArtifactRepo() *memoryArtifactRepo {
	return &memoryArtifactRepo{
		pools:      make(map[string][]*domain.Question),
		quarantine: make(map[string][]domain.QuarantineRecord),
		exams:      make(map[string][]*domain.Question),
		variants:   make(domain.VariantIndex),
		saved:      make(map[string]any),
	}
}

func examKey(dir, setName, exam string) string {
	return dir + "/" + setName + "/" + exam
}

func (r *memoryArtifactRepo) LoadPool(path string) ([]*domain.Question, error) {
	return r.pools[path], nil
}

func (r *memoryArtifactRepo) SavePool(path string, questions []*domain.Question) error {
	r.pools[path] = questions
	return nil
}

func (r *memoryArtifactRepo) LoadQuarantine(path string) ([]domain.QuarantineRecord, error) {
	return r.quarantine[path], nil
}

func (r *memoryArtifactRepo) SaveQuarantine(path string, records []domain.QuarantineRecord) error {
	r.quarantine[path] = records
	return nil
}

func (r *memoryArtifactRepo) LoadExamSet(dir, setName, exam string) ([]*domain.Question, error) {
	return r.exams[examKey(dir, setName, exam)], nil
}

func (r *memoryArtifactRepo) SaveExamSet(dir, setName, exam string, questions []*domain.Question) error {
	r.exams[examKey(dir, setName, exam)] = questions
	return nil
}

func (r *memoryArtifactRepo) LoadVariantIndex(dir string) (domain.VariantIndex, error) {
	return r.variants, nil
}

func (r *memoryArtifactRepo) SaveJSON(path string, v any) error {
	r.saved[path] = v
	return nil
}

func question(fileID, tag string) *domain.Question {
	return &domain.Question{
		FileID:   fileID,
		Tag:      tag,
		Type:     domain.TypeMultipleChoice,
		Question: "question " + tag,
		Options:  []string{"a", "b", "c", "d"},
		Answer:   "a",
	}
}

func classified(fileID, tag, domainName, subdomain string) *domain.Question {
	q := question(fileID, tag)
	q.SetClassification(domainName, subdomain, "fixture", false)
	return q
}
