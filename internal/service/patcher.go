package service

import (
	"math/rand"

	"exambank/internal/domain"
	"exambank/internal/quota"

	"go.uber.org/zap"
)

// Patcher validates an existing exam against the quota model and brings it
// back into compliance with the minimal add/remove delta.
type Patcher struct {
	logger *zap.Logger
}

// NewPatcher creates a new Patcher.
func NewPatcher(logger *zap.Logger) *Patcher {
	return &Patcher{logger: logger}
}

// Check reports whether an existing exam satisfies the quota, along with the
// actual per-leaf counts. Questions outside every leaf count against
// satisfaction: a compliant exam consists of exactly the required leaf
// questions.
func (p *Patcher) Check(questions []*domain.Question, model *quota.Model, examName string) (bool, map[quota.Leaf]int) {
	leaves := model.Leaves(examName)

	counts := make(map[quota.Leaf]int, len(leaves))
	leafByPair := make(map[[2]string]quota.Leaf, len(leaves))
	for _, leaf := range leaves {
		counts[leaf] = 0
		leafByPair[[2]string{leaf.Domain, leaf.Subdomain}] = leaf
	}

	inLeaves := 0
	for _, q := range questions {
		leaf, ok := leafByPair[[2]string{q.Domain, q.Subdomain}]
		if !ok {
			continue
		}
		counts[leaf]++
		inLeaves++
	}

	satisfied := inLeaves == len(questions)
	for _, leaf := range leaves {
		if counts[leaf] != leaf.Required {
			satisfied = false
		}
	}
	return satisfied, counts
}

// Patch rebuilds the exam to exactly match the quota. Surplus questions in a
// leaf are removed most-recently-added first (the leaf's earliest questions
// survive), deficits are drawn from the pool like fresh assembly, and
// questions outside every leaf are dropped. Repeated calls with an unchanged
// pool make no further modification.
func (p *Patcher) Patch(
	questions []*domain.Question,
	model *quota.Model,
	examName string,
	pool []*domain.Question,
	seed int64,
	used map[string]struct{},
) []*domain.Question {
	if used == nil {
		used = make(map[string]struct{})
	}
	rng := rand.New(rand.NewSource(seed))
	leaves := model.Leaves(examName)

	existingByLeaf := make(map[quota.Leaf][]*domain.Question)
	leafByPair := make(map[[2]string]quota.Leaf, len(leaves))
	for _, leaf := range leaves {
		leafByPair[[2]string{leaf.Domain, leaf.Subdomain}] = leaf
	}

	inExam := make(map[string]struct{}, len(questions))
	for _, q := range questions {
		inExam[q.ID()] = struct{}{}
		if leaf, ok := leafByPair[[2]string{q.Domain, q.Subdomain}]; ok {
			existingByLeaf[leaf] = append(existingByLeaf[leaf], q)
		}
	}

	set := domain.NewExamSet(examName, "")
	for _, leaf := range leaves {
		existing := existingByLeaf[leaf]

		if len(existing) > leaf.Required {
			p.logger.Info("removing surplus questions from leaf",
				zap.String("exam", examName),
				zap.String("domain", leaf.Domain),
				zap.String("subdomain", leaf.Subdomain),
				zap.Int("surplus", len(existing)-leaf.Required))
			existing = existing[:leaf.Required]
		}
		for _, q := range existing {
			set.Add(q)
			used[q.ID()] = struct{}{}
		}

		deficit := leaf.Required - len(existing)
		if deficit <= 0 {
			continue
		}

		candidates := patchCandidates(pool, leaf, inExam, used)
		rng.Shuffle(len(candidates), func(i, j int) {
			candidates[i], candidates[j] = candidates[j], candidates[i]
		})
		if len(candidates) > deficit {
			candidates = candidates[:deficit]
		} else if len(candidates) < deficit {
			p.logger.Warn("not enough spare questions to patch leaf",
				zap.String("exam", examName),
				zap.String("domain", leaf.Domain),
				zap.String("subdomain", leaf.Subdomain),
				zap.Int("needed", deficit),
				zap.Int("available", len(candidates)))
		}
		for _, q := range candidates {
			set.Add(q)
			used[q.ID()] = struct{}{}
			inExam[q.ID()] = struct{}{}
		}
	}
	return set.Questions
}

func patchCandidates(pool []*domain.Question, leaf quota.Leaf, inExam, used map[string]struct{}) []*domain.Question {
	var candidates []*domain.Question
	for _, q := range pool {
		if q.Type != domain.TypeMultipleChoice {
			continue
		}
		if q.Domain != leaf.Domain || q.Subdomain != leaf.Subdomain {
			continue
		}
		id := q.ID()
		if _, ok := inExam[id]; ok {
			continue
		}
		if _, ok := used[id]; ok {
			continue
		}
		candidates = append(candidates, q)
	}
	return candidates
}
