package domain

// ArtifactRepository is the port for the persisted pipeline artifacts:
// question pools, quarantine lists, assembled exam sets and variant indexes.
// Implementations live in internal/repository.
type ArtifactRepository interface {
	LoadPool(path string) ([]*Question, error)
	SavePool(path string, questions []*Question) error

	// LoadQuarantine returns an empty slice when no quarantine artifact
	// exists yet.
	LoadQuarantine(path string) ([]QuarantineRecord, error)
	SaveQuarantine(path string, records []QuarantineRecord) error

	// LoadExamSet returns (nil, nil) when no artifact exists for the set.
	LoadExamSet(dir, setName, exam string) ([]*Question, error)
	SaveExamSet(dir, setName, exam string, questions []*Question) error

	LoadVariantIndex(dir string) (VariantIndex, error)

	SaveJSON(path string, v any) error
}
