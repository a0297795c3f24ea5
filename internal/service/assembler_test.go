package service

import (
	"fmt"
	"testing"

	"exambank/internal/domain"
	"exambank/internal/quota"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func assemblyModel() *quota.Model {
	return &quota.Model{
		Exams: []quota.Exam{
			{
				Name: "general",
				Domains: []quota.Domain{
					{
						Name:          "economics",
						RequiredTotal: 5,
						Subdomains: []quota.Subdomain{
							{Name: "micro", RequiredCount: 3},
							{Name: "macro", RequiredCount: 2},
						},
					},
				},
			},
		},
	}
}

// assemblyPool builds n classified multiple-choice questions per subdomain.
func assemblyPool(perLeaf map[string]int) []*domain.Question {
	var pool []*domain.Question
	for _, leaf := range []struct{ domain, subdomain string }{
		{"economics", "micro"},
		{"economics", "macro"},
	} {
		for i := 0; i < perLeaf[leaf.subdomain]; i++ {
			q := classified("f001", fmt.Sprintf("%s_%03d", leaf.subdomain, i), leaf.domain, leaf.subdomain)
			pool = append(pool, q)
		}
	}
	return pool
}

func examIDs(questions []*domain.Question) []string {
	ids := make([]string, 0, len(questions))
	for _, q := range questions {
		ids = append(ids, q.ID())
	}
	return ids
}

func TestAssembleFillsEveryLeaf(t *testing.T) {
	a := NewAssembler(zap.NewNop())
	pool := assemblyPool(map[string]int{"micro": 10, "macro": 10})

	sets, shortfalls := a.Assemble(pool, assemblyModel(), "general", []string{"1st"}, 42, ScopeGlobal, nil)

	require.Empty(t, shortfalls)
	require.Contains(t, sets, "1st")
	assert.Equal(t, 5, sets["1st"].Len())

	counts := map[string]int{}
	for _, q := range sets["1st"].Questions {
		counts[q.Subdomain]++
	}
	assert.Equal(t, 3, counts["micro"])
	assert.Equal(t, 2, counts["macro"])
}

func TestAssembleIsDeterministicForSeed(t *testing.T) {
	a := NewAssembler(zap.NewNop())
	model := assemblyModel()

	first, _ := a.Assemble(assemblyPool(map[string]int{"micro": 20, "macro": 20}), model, "general", []string{"1st", "2nd"}, 42, ScopeGlobal, nil)
	second, _ := a.Assemble(assemblyPool(map[string]int{"micro": 20, "macro": 20}), model, "general", []string{"1st", "2nd"}, 42, ScopeGlobal, nil)

	assert.Equal(t, examIDs(first["1st"].Questions), examIDs(second["1st"].Questions))
	assert.Equal(t, examIDs(first["2nd"].Questions), examIDs(second["2nd"].Questions))

	different, _ := a.Assemble(assemblyPool(map[string]int{"micro": 20, "macro": 20}), model, "general", []string{"1st", "2nd"}, 7, ScopeGlobal, nil)
	assert.NotEqual(t, examIDs(first["1st"].Questions), examIDs(different["1st"].Questions))
}

func TestAssembleReportsShortfall(t *testing.T) {
	a := NewAssembler(zap.NewNop())
	model := &quota.Model{
		Exams: []quota.Exam{{
			Name: "general",
			Domains: []quota.Domain{{
				Name:          "economics",
				RequiredTotal: 8,
				Subdomains:    []quota.Subdomain{{Name: "micro", RequiredCount: 8}},
			}},
		}},
	}
	pool := assemblyPool(map[string]int{"micro": 5})

	sets, shortfalls := a.Assemble(pool, model, "general", []string{"1st"}, 42, ScopeGlobal, nil)

	assert.Equal(t, 5, sets["1st"].Len())
	require.Len(t, shortfalls, 1)
	assert.Equal(t, 8, shortfalls[0].Required)
	assert.Equal(t, 5, shortfalls[0].Available)
	assert.Equal(t, 3, shortfalls[0].Deficit)
}

func TestAssembleGlobalScopeNeverReuses(t *testing.T) {
	a := NewAssembler(zap.NewNop())
	used := make(map[string]struct{})
	pool := assemblyPool(map[string]int{"micro": 30, "macro": 30})

	sets, shortfalls := a.Assemble(pool, assemblyModel(), "general", []string{"1st", "2nd", "3rd"}, 42, ScopeGlobal, used)
	require.Empty(t, shortfalls)

	seen := make(map[string]string)
	for setName, set := range sets {
		for _, q := range set.Questions {
			if prior, dup := seen[q.ID()]; dup {
				t.Fatalf("question %s appears in both %s and %s", q.ID(), prior, setName)
			}
			seen[q.ID()] = setName
		}
	}
	assert.Len(t, used, 15)
}

func TestAssemblePerSetScopeAllowsReuseAcrossSets(t *testing.T) {
	a := NewAssembler(zap.NewNop())
	// Only exactly enough questions for one set: per-set scope must still
	// fill every set, global scope must run dry after the first.
	pool := assemblyPool(map[string]int{"micro": 3, "macro": 2})

	sets, shortfalls := a.Assemble(pool, assemblyModel(), "general", []string{"1st", "2nd"}, 42, ScopePerSet, nil)
	require.Empty(t, shortfalls)
	assert.Equal(t, 5, sets["1st"].Len())
	assert.Equal(t, 5, sets["2nd"].Len())

	_, globalShortfalls := a.Assemble(assemblyPool(map[string]int{"micro": 3, "macro": 2}), assemblyModel(), "general", []string{"1st", "2nd"}, 42, ScopeGlobal, nil)
	assert.NotEmpty(t, globalShortfalls)
}

func TestAssembleSkipsNonMultipleChoice(t *testing.T) {
	a := NewAssembler(zap.NewNop())
	essay := classified("f001", "essay_001", "economics", "micro")
	essay.Type = domain.TypeEssay
	pool := append(assemblyPool(map[string]int{"micro": 3, "macro": 2}), essay)

	sets, shortfalls := a.Assemble(pool, assemblyModel(), "general", []string{"1st"}, 42, ScopeGlobal, nil)
	require.Empty(t, shortfalls)
	assert.NotContains(t, examIDs(sets["1st"].Questions), essay.ID())
}

func TestRemaining(t *testing.T) {
	pool := assemblyPool(map[string]int{"micro": 3, "macro": 0})
	used := map[string]struct{}{pool[0].ID(): {}}

	remaining := Remaining(pool, used)
	require.Len(t, remaining, 2)
	assert.NotContains(t, examIDs(remaining), pool[0].ID())
}

func TestParseUniquenessScope(t *testing.T) {
	assert.Equal(t, ScopeGlobal, ParseUniquenessScope(""))
	assert.Equal(t, ScopeGlobal, ParseUniquenessScope("global"))
	assert.Equal(t, ScopePerSet, ParseUniquenessScope("per_set"))
	assert.Equal(t, ScopeGlobal, ParseUniquenessScope("nonsense"))
}
