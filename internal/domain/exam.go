package domain

// ExamSet is an ordered selection of questions for one exam and one set name
// (e.g. "1st".."5th"). Questions are held by reference into the pool.
type ExamSet struct {
	Exam      string
	SetName   string
	Questions []*Question

	ids map[string]struct{}
}

// NewExamSet creates an empty exam set.
func NewExamSet(exam, setName string) *ExamSet {
	return &ExamSet{
		Exam:    exam,
		SetName: setName,
		ids:     make(map[string]struct{}),
	}
}

// NewExamSetFrom wraps existing questions (e.g. loaded from an artifact) in an
// exam set. Duplicate identifiers are kept once, first occurrence wins.
func NewExamSetFrom(exam, setName string, questions []*Question) *ExamSet {
	s := NewExamSet(exam, setName)
	for _, q := range questions {
		s.Add(q)
	}
	return s
}

// Add appends a question unless its identifier is already present.
// It reports whether the question was added.
func (s *ExamSet) Add(q *Question) bool {
	id := q.ID()
	if _, ok := s.ids[id]; ok {
		return false
	}
	s.ids[id] = struct{}{}
	s.Questions = append(s.Questions, q)
	return true
}

// Contains reports whether an identifier is already in the set.
func (s *ExamSet) Contains(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of questions in the set.
func (s *ExamSet) Len() int {
	return len(s.Questions)
}

// Shortfall records the gap between required and available questions for one
// quota leaf. Shortfalls are reported, never silently dropped.
type Shortfall struct {
	Exam      string `json:"exam"`
	Domain    string `json:"domain"`
	Subdomain string `json:"subdomain"`
	Required  int    `json:"required"`
	Available int    `json:"available"`
	Deficit   int    `json:"deficit"`
}

// QuarantineRecord is a question that exhausted classification retries, held
// for later reprocessing.
type QuarantineRecord struct {
	Question
	FailureReason string `json:"failure_reason"`
	Rounds        int    `json:"rounds"`
}
