package service

import (
	"exambank/internal/domain"

	"go.uber.org/zap"
)

// Substituter swaps exam questions for their transformed variants.
type Substituter struct {
	logger *zap.Logger
}

// NewSubstituter creates a new Substituter.
func NewSubstituter(logger *zap.Logger) *Substituter {
	return &Substituter{logger: logger}
}

// Substitute returns a copy of the exam where every question with a variant
// of the given kind has its question text, options, answer, and explanation
// replaced by the variant's. The replaced explanation is preserved in
// OriginalExplanation. Questions without a variant pass through unchanged and
// their IDs are reported in missing.
func (s *Substituter) Substitute(exam []*domain.Question, index domain.VariantIndex, kind domain.VariantKind) ([]*domain.Question, []string) {
	patched := make([]*domain.Question, 0, len(exam))
	var missing []string

	for _, q := range exam {
		out := q.Clone()
		variant, ok := index.Lookup(q.ID(), kind)
		if !ok {
			missing = append(missing, q.ID())
			patched = append(patched, out)
			continue
		}
		out.OriginalExplanation = out.Explanation
		out.Question = variant.Question
		out.Options = variant.Options
		out.Answer = variant.Answer
		out.Explanation = variant.Explanation
		patched = append(patched, out)
	}

	if len(missing) > 0 {
		s.logger.Warn("questions without a variant kept as-is",
			zap.String("kind", string(kind)),
			zap.Int("count", len(missing)))
	}
	return patched, missing
}
