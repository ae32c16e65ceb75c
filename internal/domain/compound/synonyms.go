package compound

// SynonymPair maps a lay term to the canonical searchable name.
type SynonymPair struct {
	Term      string `json:"term"`
	Canonical string `json:"canonical"`
}

// SynonymMap is an immutable, ordered term→canonical table. Iteration follows
// insertion order so suggestion output is deterministic.
type SynonymMap struct {
	pairs []SynonymPair
	index map[string]string
}

// NewSynonymMap builds a map from pairs. Terms are normalized; a repeated term
// keeps its first position and its last canonical value.
func NewSynonymMap(pairs ...SynonymPair) *SynonymMap {
	m := &SynonymMap{index: make(map[string]string, len(pairs))}
	pos := make(map[string]int, len(pairs))
	for _, p := range pairs {
		term := NormalizeQuery(p.Term)
		if term == "" {
			continue
		}
		if i, ok := pos[term]; ok {
			m.pairs[i].Canonical = p.Canonical
		} else {
			pos[term] = len(m.pairs)
			m.pairs = append(m.pairs, SynonymPair{Term: term, Canonical: p.Canonical})
		}
		m.index[term] = p.Canonical
	}
	return m
}

// Lookup returns the canonical name for an exact, already-normalized term.
func (m *SynonymMap) Lookup(term string) (string, bool) {
	if m == nil {
		return "", false
	}
	c, ok := m.index[term]
	return c, ok
}

// Pairs returns a copy of the table in insertion order.
func (m *SynonymMap) Pairs() []SynonymPair {
	if m == nil {
		return nil
	}
	out := make([]SynonymPair, len(m.pairs))
	copy(out, m.pairs)
	return out
}

// Each calls fn for every pair in order until fn returns false.
func (m *SynonymMap) Each(fn func(SynonymPair) bool) {
	if m == nil {
		return
	}
	for _, p := range m.pairs {
		if !fn(p) {
			return
		}
	}
}

// Len returns the number of terms.
func (m *SynonymMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.pairs)
}

// DefaultSynonyms is the built-in lay-term table.
var DefaultSynonyms = NewSynonymMap(
	SynonymPair{"paracetamol", "acetaminophen"},
	SynonymPair{"tylenol", "acetaminophen"},
	SynonymPair{"advil", "ibuprofen"},
	SynonymPair{"motrin", "ibuprofen"},
	SynonymPair{"sugar", "sucrose"},
	SynonymPair{"table sugar", "sucrose"},
	SynonymPair{"fruit sugar", "fructose"},
	SynonymPair{"vinegar", "acetic acid"},
	SynonymPair{"wood alcohol", "methanol"},
	SynonymPair{"grain alcohol", "ethanol"},
	SynonymPair{"rubbing alcohol", "isopropanol"},
	SynonymPair{"vitamin c", "ascorbic acid"},
	SynonymPair{"baking soda", "sodium bicarbonate"},
	SynonymPair{"salt", "sodium chloride"},
)
