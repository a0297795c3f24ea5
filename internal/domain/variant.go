package domain

// VariantKind identifies how a question was transformed by the upstream
// transformation stage.
type VariantKind string

const (
	VariantRightToWrong VariantKind = "right_to_wrong"
	VariantWrongToRight VariantKind = "wrong_to_right"
	VariantABCD         VariantKind = "abcd"
)

// VariantKinds lists all known kinds in a fixed order.
var VariantKinds = []VariantKind{VariantRightToWrong, VariantWrongToRight, VariantABCD}

// IsValid reports whether k is a known variant kind.
func (k VariantKind) IsValid() bool {
	switch k {
	case VariantRightToWrong, VariantWrongToRight, VariantABCD:
		return true
	}
	return false
}

// Variant is one transformed alternative of a question, linked to the
// original identifier through the VariantIndex.
type Variant struct {
	Kind        VariantKind `json:"kind"`
	Question    string      `json:"question"`
	Options     []string    `json:"options,omitempty"`
	Answer      string      `json:"answer"`
	Explanation string      `json:"explanation"`
}

// VariantIndex maps an original question identifier to its transformed
// variants by kind. The index is produced upstream and read-only here.
type VariantIndex map[string]map[VariantKind]Variant

// Lookup returns the variant of the given kind for an identifier, if any.
func (idx VariantIndex) Lookup(id string, kind VariantKind) (Variant, bool) {
	kinds, ok := idx[id]
	if !ok {
		return Variant{}, false
	}
	v, ok := kinds[kind]
	return v, ok
}

// Put registers a variant for an identifier, replacing any existing variant
// of the same kind.
func (idx VariantIndex) Put(id string, v Variant) {
	kinds, ok := idx[id]
	if !ok {
		kinds = make(map[VariantKind]Variant)
		idx[id] = kinds
	}
	kinds[v.Kind] = v
}
