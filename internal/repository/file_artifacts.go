// Package repository persists the pipeline artifacts as schema-stable JSON
// files: question pools, quarantine lists, per-set exam files and the variant
// index produced by the upstream transformation stage.
package repository

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"exambank/internal/domain"
)

// FileArtifactRepository implements domain.ArtifactRepository on the local
// filesystem. Writes are atomic (temp file + rename) so an aborted run never
// leaves a half-written artifact behind.
type FileArtifactRepository struct{}

// NewFileArtifactRepository creates a new instance of FileArtifactRepository.
func NewFileArtifactRepository() domain.ArtifactRepository {
	return &FileArtifactRepository{}
}

// LoadPool reads a question pool artifact.
func (r *FileArtifactRepository) LoadPool(path string) ([]*domain.Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pool %s: %w", path, err)
	}
	var pool []*domain.Question
	if err := json.Unmarshal(data, &pool); err != nil {
		return nil, fmt.Errorf("failed to parse pool %s: %w", path, err)
	}
	return pool, nil
}

// SavePool writes a question pool artifact.
func (r *FileArtifactRepository) SavePool(path string, questions []*domain.Question) error {
	return r.SaveJSON(path, questions)
}

// LoadQuarantine reads the quarantine artifact. A missing file means no prior
// quarantine and returns an empty slice.
func (r *FileArtifactRepository) LoadQuarantine(path string) ([]domain.QuarantineRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read quarantine %s: %w", path, err)
	}
	var records []domain.QuarantineRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse quarantine %s: %w", path, err)
	}
	return records, nil
}

// SaveQuarantine writes the quarantine artifact.
func (r *FileArtifactRepository) SaveQuarantine(path string, records []domain.QuarantineRecord) error {
	if records == nil {
		records = []domain.QuarantineRecord{}
	}
	return r.SaveJSON(path, records)
}

func examSetPath(dir, setName, exam string) string {
	return filepath.Join(dir, setName, exam+"_exam.json")
}

// LoadExamSet reads one assembled exam file. It returns (nil, nil) when no
// artifact exists yet for the set.
func (r *FileArtifactRepository) LoadExamSet(dir, setName, exam string) ([]*domain.Question, error) {
	path := examSetPath(dir, setName, exam)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read exam set %s: %w", path, err)
	}
	var questions []*domain.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, fmt.Errorf("failed to parse exam set %s: %w", path, err)
	}
	return questions, nil
}

// SaveExamSet writes one assembled exam file under dir/setName/.
func (r *FileArtifactRepository) SaveExamSet(dir, setName, exam string, questions []*domain.Question) error {
	return r.SaveJSON(examSetPath(dir, setName, exam), questions)
}

// variantPayload is the upstream transformation stage's per-question schema.
type variantPayload struct {
	Question    string   `json:"question"`
	Options     []string `json:"options,omitempty"`
	Answer      string   `json:"answer"`
	Explanation string   `json:"explanation"`
}

// LoadVariantIndex merges the per-kind variant files (right_to_wrong.json,
// wrong_to_right.json, abcd.json) found under dir into one index. A missing
// kind file simply contributes nothing.
func (r *FileArtifactRepository) LoadVariantIndex(dir string) (domain.VariantIndex, error) {
	index := make(domain.VariantIndex)
	for _, kind := range domain.VariantKinds {
		path := filepath.Join(dir, string(kind)+".json")
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to read variant file %s: %w", path, err)
		}
		var payloads map[string]variantPayload
		if err := json.Unmarshal(data, &payloads); err != nil {
			return nil, fmt.Errorf("failed to parse variant file %s: %w", path, err)
		}
		for id, p := range payloads {
			index.Put(id, domain.Variant{
				Kind:        kind,
				Question:    p.Question,
				Options:     p.Options,
				Answer:      p.Answer,
				Explanation: p.Explanation,
			})
		}
	}
	return index, nil
}

// SaveJSON writes any value as indented JSON, atomically.
func (r *FileArtifactRepository) SaveJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file for %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

var _ domain.ArtifactRepository = (*FileArtifactRepository)(nil)
