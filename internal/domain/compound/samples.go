package compound

import "math/rand/v2"

// SampleSet is an immutable ordered list of known compound names. It feeds
// autocomplete and random selection; order decides fuzzy tie-breaking.
type SampleSet struct {
	names []string
}

// NewSampleSet builds a set from names, dropping blanks and repeats while
// keeping first occurrence order. Names are stored normalized.
func NewSampleSet(names ...string) *SampleSet {
	seen := make(map[string]struct{}, len(names))
	s := &SampleSet{names: make([]string, 0, len(names))}
	for _, n := range names {
		n = NormalizeQuery(n)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		s.names = append(s.names, n)
	}
	return s
}

// Names returns a copy of the names in order.
func (s *SampleSet) Names() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Len returns the number of names.
func (s *SampleSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.names)
}

// At returns the i-th name.
func (s *SampleSet) At(i int) string { return s.names[i] }

// Random picks a name uniformly using r. A nil r uses the global source.
// It returns "" for an empty set.
func (s *SampleSet) Random(r *rand.Rand) string {
	if s.Len() == 0 {
		return ""
	}
	if r == nil {
		return s.names[rand.IntN(len(s.names))]
	}
	return s.names[r.IntN(len(s.names))]
}

// DefaultSamples is the built-in catalogue.
var DefaultSamples = NewSampleSet(
	"caffeine", "aspirin", "glucose", "ethanol", "benzene", "water", "methane",
	"penicillin", "dopamine", "serotonin", "morphine", "nicotine", "testosterone",
	"cholesterol", "acetaminophen", "ibuprofen", "sucrose", "fructose",
	"citric acid", "acetic acid", "formaldehyde", "propane", "butane",
	"toluene", "phenol", "aniline", "pyridine",
)
