package service

import (
	"math/rand"

	"exambank/internal/domain"
	"exambank/internal/quota"

	"go.uber.org/zap"
)

// UniquenessScope controls how far the "already used" identifier set reaches
// during one assembly run.
type UniquenessScope string

const (
	// ScopeGlobal shares one used-identifier set across every set of the
	// run: a question lands in at most one set.
	ScopeGlobal UniquenessScope = "global"
	// ScopePerSet only guards against duplicates inside each individual set.
	ScopePerSet UniquenessScope = "per_set"
)

// ParseUniquenessScope maps a config string onto a scope, defaulting to
// global.
func ParseUniquenessScope(s string) UniquenessScope {
	if s == string(ScopePerSet) {
		return ScopePerSet
	}
	return ScopeGlobal
}

// Assembler selects questions from the classified pool into graded exam sets
// that match the quota model. One run is single-threaded and fully
// deterministic: identical (pool, quota, set names, seed) yields identical
// sets.
type Assembler struct {
	logger *zap.Logger
}

// NewAssembler creates a new Assembler.
func NewAssembler(logger *zap.Logger) *Assembler {
	return &Assembler{logger: logger}
}

// Assemble builds one exam set per set name. Leaves are visited in declared
// quota order; candidates are drawn with the seeded RNG. used carries the
// identifiers already consumed earlier in the run (e.g. by other exams or by
// kept existing sets) and is updated in place under the global scope; pass
// nil to start empty.
func (a *Assembler) Assemble(
	pool []*domain.Question,
	model *quota.Model,
	examName string,
	setNames []string,
	seed int64,
	scope UniquenessScope,
	used map[string]struct{},
) (map[string]*domain.ExamSet, []domain.Shortfall) {
	if used == nil {
		used = make(map[string]struct{})
	}
	rng := rand.New(rand.NewSource(seed))
	leaves := model.Leaves(examName)

	sets := make(map[string]*domain.ExamSet, len(setNames))
	var shortfalls []domain.Shortfall

	for _, setName := range setNames {
		set := domain.NewExamSet(examName, setName)
		for _, leaf := range leaves {
			drawn, shortfall := a.drawLeaf(pool, leaf, rng, set, used, scope)
			for _, q := range drawn {
				set.Add(q)
				if scope == ScopeGlobal {
					used[q.ID()] = struct{}{}
				}
			}
			if shortfall != nil {
				shortfalls = append(shortfalls, *shortfall)
			}
		}
		a.logger.Info("assembled exam set",
			zap.String("exam", examName),
			zap.String("set", setName),
			zap.Int("questions", set.Len()))
		sets[setName] = set
	}
	return sets, shortfalls
}

// drawLeaf picks up to leaf.Required unused multiple-choice questions for one
// quota leaf. A deficit yields a shortfall record instead of aborting.
func (a *Assembler) drawLeaf(
	pool []*domain.Question,
	leaf quota.Leaf,
	rng *rand.Rand,
	set *domain.ExamSet,
	used map[string]struct{},
	scope UniquenessScope,
) ([]*domain.Question, *domain.Shortfall) {
	candidates := leafCandidates(pool, leaf, set, used, scope)

	rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	if len(candidates) >= leaf.Required {
		return candidates[:leaf.Required], nil
	}

	a.logger.Warn("not enough questions for quota leaf",
		zap.String("exam", leaf.Exam),
		zap.String("domain", leaf.Domain),
		zap.String("subdomain", leaf.Subdomain),
		zap.Int("required", leaf.Required),
		zap.Int("available", len(candidates)))

	return candidates, &domain.Shortfall{
		Exam:      leaf.Exam,
		Domain:    leaf.Domain,
		Subdomain: leaf.Subdomain,
		Required:  leaf.Required,
		Available: len(candidates),
		Deficit:   leaf.Required - len(candidates),
	}
}

// leafCandidates filters the pool for one leaf, preserving pool order so that
// the seeded shuffle is the only source of randomness.
func leafCandidates(
	pool []*domain.Question,
	leaf quota.Leaf,
	set *domain.ExamSet,
	used map[string]struct{},
	scope UniquenessScope,
) []*domain.Question {
	var candidates []*domain.Question
	for _, q := range pool {
		if q.Type != domain.TypeMultipleChoice {
			continue
		}
		if q.Domain != leaf.Domain || q.Subdomain != leaf.Subdomain {
			continue
		}
		id := q.ID()
		if set.Contains(id) {
			continue
		}
		if scope == ScopeGlobal {
			if _, taken := used[id]; taken {
				continue
			}
		}
		candidates = append(candidates, q)
	}
	return candidates
}

// Remaining returns the pool records never consumed during the run, exported
// so leftover questions stay available for later manual curation.
func Remaining(pool []*domain.Question, used map[string]struct{}) []*domain.Question {
	var remaining []*domain.Question
	for _, q := range pool {
		if _, taken := used[q.ID()]; !taken {
			remaining = append(remaining, q)
		}
	}
	return remaining
}
