// Package quota holds the hierarchical exam quota specification: how many
// questions each exam requires per domain and subdomain. The model is loaded
// once from a declarative JSON resource and is read-only afterwards; assembly
// and validation share it by reference.
package quota

import (
	"encoding/json"
	"fmt"
	"os"

	"exambank/internal/domain"
)

// Subdomain is one quota leaf inside a domain.
type Subdomain struct {
	Name          string `json:"name"`
	RequiredCount int    `json:"count"`
	Description   string `json:"description,omitempty"`
}

// Domain groups the subdomain quotas of one knowledge domain. Subdomains keep
// their declared order.
type Domain struct {
	Name          string      `json:"name"`
	RequiredTotal int         `json:"required_total"`
	Subdomains    []Subdomain `json:"subdomains"`
}

// Exam is the quota tree for one exam.
type Exam struct {
	Name    string   `json:"name"`
	Domains []Domain `json:"domains"`
}

// TaxonomyEntry declares the allowed subdomains of one domain, with the
// descriptions fed into the classifier prompt.
type TaxonomyEntry struct {
	Domain     string      `json:"domain"`
	Subdomains []Subdomain `json:"subdomains"`
}

// Taxonomy is the allowed domain/subdomain classification space.
type Taxonomy []TaxonomyEntry

// Contains reports whether the (domain, subdomain) pair is part of the
// taxonomy.
func (t Taxonomy) Contains(domainName, subdomainName string) bool {
	for _, entry := range t {
		if entry.Domain != domainName {
			continue
		}
		for _, sd := range entry.Subdomains {
			if sd.Name == subdomainName {
				return true
			}
		}
	}
	return false
}

// Model is the immutable quota specification shared across the pipeline.
type Model struct {
	Taxonomy Taxonomy `json:"taxonomy"`
	Exams    []Exam   `json:"exams"`
}

// Leaf is one (exam, domain, subdomain) quota requirement.
type Leaf struct {
	Exam      string
	Domain    string
	Subdomain string
	Required  int
}

// Load reads and validates a quota model from a JSON file.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.NewError(domain.ErrMalformedQuota, fmt.Sprintf("failed to read quota config %s", path), err)
	}
	return Parse(data)
}

// Parse decodes and validates a quota model. Any structural problem (negative
// count, subdomain counts exceeding a domain total, duplicate names, leaves
// outside the taxonomy) is fatal: a bad quota cannot produce a meaningful
// exam.
func Parse(data []byte) (*Model, error) {
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, domain.NewError(domain.ErrMalformedQuota, "failed to parse quota config", err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Model) validate() error {
	if len(m.Exams) == 0 {
		return domain.NewMalformedQuotaError("quota config declares no exams")
	}
	seenExams := make(map[string]struct{})
	for _, exam := range m.Exams {
		if exam.Name == "" {
			return domain.NewMalformedQuotaError("exam with empty name")
		}
		if _, dup := seenExams[exam.Name]; dup {
			return domain.NewMalformedQuotaError(fmt.Sprintf("duplicate exam %q", exam.Name))
		}
		seenExams[exam.Name] = struct{}{}

		seenDomains := make(map[string]struct{})
		for _, d := range exam.Domains {
			if d.Name == "" {
				return domain.NewMalformedQuotaError(fmt.Sprintf("exam %q: domain with empty name", exam.Name))
			}
			if _, dup := seenDomains[d.Name]; dup {
				return domain.NewMalformedQuotaError(fmt.Sprintf("exam %q: duplicate domain %q", exam.Name, d.Name))
			}
			seenDomains[d.Name] = struct{}{}

			if d.RequiredTotal < 0 {
				return domain.NewMalformedQuotaError(fmt.Sprintf("exam %q domain %q: negative required total", exam.Name, d.Name))
			}

			sum := 0
			seenSubdomains := make(map[string]struct{})
			for _, sd := range d.Subdomains {
				if sd.Name == "" {
					return domain.NewMalformedQuotaError(fmt.Sprintf("exam %q domain %q: subdomain with empty name", exam.Name, d.Name))
				}
				if _, dup := seenSubdomains[sd.Name]; dup {
					return domain.NewMalformedQuotaError(fmt.Sprintf("exam %q domain %q: duplicate subdomain %q", exam.Name, d.Name, sd.Name))
				}
				seenSubdomains[sd.Name] = struct{}{}

				if sd.RequiredCount < 0 {
					return domain.NewMalformedQuotaError(fmt.Sprintf("exam %q domain %q subdomain %q: negative count", exam.Name, d.Name, sd.Name))
				}
				if len(m.Taxonomy) > 0 && !m.Taxonomy.Contains(d.Name, sd.Name) {
					return domain.NewMalformedQuotaError(fmt.Sprintf("exam %q: leaf %q/%q not in taxonomy", exam.Name, d.Name, sd.Name))
				}
				sum += sd.RequiredCount
			}
			if sum > d.RequiredTotal {
				return domain.NewMalformedQuotaError(fmt.Sprintf(
					"exam %q domain %q: subdomain counts sum to %d, exceeding required total %d",
					exam.Name, d.Name, sum, d.RequiredTotal))
			}
		}
	}
	return nil
}

// ExamNames returns the exam names in declared order.
func (m *Model) ExamNames() []string {
	names := make([]string, 0, len(m.Exams))
	for _, e := range m.Exams {
		names = append(names, e.Name)
	}
	return names
}

// Exam returns the quota tree for one exam name.
func (m *Model) Exam(name string) (*Exam, bool) {
	for i := range m.Exams {
		if m.Exams[i].Name == name {
			return &m.Exams[i], true
		}
	}
	return nil, false
}

// Leaves returns the quota leaves of one exam in declared order: domains as
// declared, then subdomains as declared. The order is deliberately never
// re-sorted so that seeded assembly stays reproducible.
func (m *Model) Leaves(examName string) []Leaf {
	exam, ok := m.Exam(examName)
	if !ok {
		return nil
	}
	var leaves []Leaf
	for _, d := range exam.Domains {
		for _, sd := range d.Subdomains {
			leaves = append(leaves, Leaf{
				Exam:      examName,
				Domain:    d.Name,
				Subdomain: sd.Name,
				Required:  sd.RequiredCount,
			})
		}
	}
	return leaves
}
