package service

import (
	"exambank/internal/domain"
	"exambank/internal/quota"

	"go.uber.org/zap"
)

// ExamService drives exam creation across every configured exam and set.
// Existing exam artifacts are kept when they still satisfy the quota,
// patched in place when they drift, and assembled from scratch otherwise.
type ExamService struct {
	repo      domain.ArtifactRepository
	assembler *Assembler
	patcher   *Patcher
	logger    *zap.Logger
}

// NewExamService creates a new ExamService.
func NewExamService(repo domain.ArtifactRepository, assembler *Assembler, patcher *Patcher, logger *zap.Logger) *ExamService {
	return &ExamService{
		repo:      repo,
		assembler: assembler,
		patcher:   patcher,
		logger:    logger,
	}
}

// CreateResult summarizes a full creation run.
type CreateResult struct {
	Shortfalls []domain.Shortfall `json:"insufficient_domains"`
	Remaining  []*domain.Question `json:"-"`
}

// CreateExams builds or repairs every exam for every set name and persists
// the results under examDir. Under global uniqueness scope each question is
// handed out at most once across the whole run, including to exams that were
// already on disk.
func (s *ExamService) CreateExams(
	pool []*domain.Question,
	model *quota.Model,
	setNames []string,
	seed int64,
	scope UniquenessScope,
	examDir string,
) (*CreateResult, error) {
	used := make(map[string]struct{})
	result := &CreateResult{}

	for _, setName := range setNames {
		scopeUsed := used
		if scope == ScopePerSet {
			scopeUsed = make(map[string]struct{})
		}

		for _, examName := range model.ExamNames() {
			log := s.logger.With(
				zap.String("set", setName),
				zap.String("exam", examName))

			existing, err := s.repo.LoadExamSet(examDir, setName, examName)
			if err != nil {
				return nil, err
			}

			if existing == nil {
				sets, shortfalls := s.assembler.Assemble(pool, model, examName, []string{setName}, seed, scope, scopeUsed)
				result.Shortfalls = append(result.Shortfalls, shortfalls...)
				questions := sets[setName].Questions
				if err := s.repo.SaveExamSet(examDir, setName, examName, questions); err != nil {
					return nil, err
				}
				log.Info("assembled new exam", zap.Int("questions", len(questions)))
				continue
			}

			if satisfied, _ := s.patcher.Check(existing, model, examName); satisfied {
				for _, q := range existing {
					scopeUsed[q.ID()] = struct{}{}
				}
				log.Info("existing exam satisfies quota", zap.Int("questions", len(existing)))
				continue
			}

			patched := s.patcher.Patch(existing, model, examName, pool, seed, scopeUsed)
			result.Shortfalls = append(result.Shortfalls, s.shortfalls(patched, model, examName)...)
			if err := s.repo.SaveExamSet(examDir, setName, examName, patched); err != nil {
				return nil, err
			}
			log.Info("patched existing exam",
				zap.Int("before", len(existing)),
				zap.Int("after", len(patched)))
		}
	}

	result.Remaining = Remaining(pool, used)
	return result, nil
}

// shortfalls derives the leaves a patched exam still leaves under quota.
func (s *ExamService) shortfalls(questions []*domain.Question, model *quota.Model, examName string) []domain.Shortfall {
	_, counts := s.patcher.Check(questions, model, examName)

	var out []domain.Shortfall
	for _, leaf := range model.Leaves(examName) {
		if counts[leaf] >= leaf.Required {
			continue
		}
		out = append(out, domain.Shortfall{
			Exam:      examName,
			Domain:    leaf.Domain,
			Subdomain: leaf.Subdomain,
			Required:  leaf.Required,
			Available: counts[leaf],
			Deficit:   leaf.Required - counts[leaf],
		})
	}
	return out
}
