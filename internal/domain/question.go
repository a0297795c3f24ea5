package domain

import (
	"regexp"
)

// QuestionType is the question format assigned by the upstream extraction stage.
// The pipeline trusts this field verbatim.
type QuestionType string

const (
	TypeMultipleChoice QuestionType = "multiple-choice"
	TypeShortAnswer    QuestionType = "short-answer"
	TypeEssay          QuestionType = "essay"
	TypeOther          QuestionType = "other"
)

// tableMarkerPattern matches the table-reference tags embedded in question text
// by the extraction stage, e.g. {tb_0012_0034}.
var tableMarkerPattern = regexp.MustCompile(`\{tb_\d{4}_\d{4}\}`)

// Question represents one exam question/answer record in the pool.
type Question struct {
	FileID  string `json:"file_id"`
	Tag     string `json:"tag"`
	Title   string `json:"title,omitempty"`
	Chapter string `json:"chapter,omitempty"`
	Page    int    `json:"page,omitempty"`

	Question    string       `json:"question"`
	Options     []string     `json:"options,omitempty"`
	Answer      string       `json:"answer"`
	Explanation string       `json:"explanation"`
	Type        QuestionType `json:"qna_type"`

	Domain               string `json:"domain"`
	Subdomain            string `json:"subdomain"`
	IsCalculation        bool   `json:"is_calculation"`
	IsTable              bool   `json:"is_table"`
	ClassificationReason string `json:"classification_reason,omitempty"`

	// OriginalExplanation holds the pre-substitution explanation after a
	// variant has been swapped in. Empty for unmodified questions.
	OriginalExplanation string `json:"original_explanation,omitempty"`
}

// ID returns the stable pool-wide identifier, derived from the source file id
// and the positional tag.
func (q *Question) ID() string {
	return q.FileID + "_" + q.Tag
}

// IsClassified reports whether the question carries a complete classification.
// Domain and subdomain are always set together.
func (q *Question) IsClassified() bool {
	return q.Domain != "" && q.Subdomain != ""
}

// SetClassification applies a classification result. Domain and subdomain must
// both be non-empty; partial classifications are rejected.
func (q *Question) SetClassification(domain, subdomain, reason string, isCalculation bool) error {
	if domain == "" || subdomain == "" {
		return NewInvalidInputError("domain and subdomain must both be set")
	}
	q.Domain = domain
	q.Subdomain = subdomain
	q.ClassificationReason = reason
	q.IsCalculation = isCalculation
	return nil
}

// ClearClassification removes all classification fields together, preserving
// the both-or-neither invariant.
func (q *Question) ClearClassification() {
	q.Domain = ""
	q.Subdomain = ""
	q.ClassificationReason = ""
	q.IsCalculation = false
}

// RefreshTableFlag recomputes IsTable from the current question text. The flag
// is a pure function of the text and is never cached.
func (q *Question) RefreshTableFlag() {
	q.IsTable = tableMarkerPattern.MatchString(q.Question)
}

// HasTableMarker reports whether text contains a table-reference marker.
func HasTableMarker(text string) bool {
	return tableMarkerPattern.MatchString(text)
}

// Clone returns a deep copy of the question.
func (q *Question) Clone() *Question {
	c := *q
	if q.Options != nil {
		c.Options = append([]string(nil), q.Options...)
	}
	return &c
}
