// Package suggest ranks autocomplete candidates for a partial compound name.
//
// Candidates come from three stages applied in order: lay-term synonyms whose
// term contains the input, sample names containing the input, and sample
// names within a small edit distance. Each stage only adds while the list is
// under the cap, and a name never appears twice. The engine does no I/O and
// keeps no state between calls.
package suggest

import (
	"sort"
	"strings"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/hbollon/go-edlib"

	"github.com/turtacn/molexplorer/internal/domain/compound"
)

// Defaults for Options.
const (
	DefaultMaxResults     = 5
	DefaultMinQueryLength = 2
	DefaultMaxDistance    = 2
)

// Options tunes the engine.
type Options struct {
	// MaxResults caps the list returned by Suggest.
	MaxResults int `mapstructure:"max_results" json:"max_results"`
	// MinQueryLength is the shortest normalized input that triggers suggestions.
	MinQueryLength int `mapstructure:"min_query_length" json:"min_query_length"`
	// MaxDistance is the largest edit distance a fuzzy match may have.
	MaxDistance int `mapstructure:"max_distance" json:"max_distance"`
}

// DefaultOptions returns the stock tuning.
func DefaultOptions() Options {
	return Options{
		MaxResults:     DefaultMaxResults,
		MinQueryLength: DefaultMinQueryLength,
		MaxDistance:    DefaultMaxDistance,
	}
}

func (o Options) withDefaults() Options {
	if o.MaxResults <= 0 {
		o.MaxResults = DefaultMaxResults
	}
	if o.MinQueryLength <= 0 {
		o.MinQueryLength = DefaultMinQueryLength
	}
	if o.MaxDistance <= 0 {
		o.MaxDistance = DefaultMaxDistance
	}
	return o
}

// Engine produces ranked suggestions from a synonym map and a sample set.
type Engine struct {
	synonyms *compound.SynonymMap
	samples  *compound.SampleSet

	mu   sync.RWMutex
	opts Options
}

// NewEngine builds an engine. Nil tables fall back to the built-in defaults.
func NewEngine(synonyms *compound.SynonymMap, samples *compound.SampleSet, opts Options) *Engine {
	if synonyms == nil {
		synonyms = compound.DefaultSynonyms
	}
	if samples == nil {
		samples = compound.DefaultSamples
	}
	return &Engine{synonyms: synonyms, samples: samples, opts: opts.withDefaults()}
}

// Options returns the current tuning.
func (e *Engine) Options() Options {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.opts
}

// SetOptions replaces the tuning; zero fields take defaults. Safe to call
// while other goroutines are suggesting.
func (e *Engine) SetOptions(opts Options) {
	e.mu.Lock()
	e.opts = opts.withDefaults()
	e.mu.Unlock()
}

// Suggest normalizes raw keystroke input and returns at most MaxResults
// suggestions. Input shorter than MinQueryLength yields an empty list.
func (e *Engine) Suggest(raw string) []compound.Suggestion {
	opts := e.Options()
	input := compound.NormalizeQuery(raw)
	if compound.QueryLength(input) < opts.MinQueryLength {
		return []compound.Suggestion{}
	}
	return e.generate(input, opts.MaxResults, opts.MaxDistance)
}

// Generate runs the three stages for an already-normalized input and returns
// at most max suggestions with distinct Text.
func (e *Engine) Generate(input string, max int) []compound.Suggestion {
	return e.generate(input, max, e.Options().MaxDistance)
}

func (e *Engine) generate(input string, max, maxDistance int) []compound.Suggestion {
	out := make([]compound.Suggestion, 0, max)
	if input == "" || max <= 0 {
		return out
	}
	seen := mapset.NewThreadUnsafeSet[string]()
	add := func(s compound.Suggestion) bool {
		if seen.Contains(s.Text) {
			return true
		}
		seen.Add(s.Text)
		out = append(out, s)
		return len(out) < max
	}

	// Synonym stage.
	more := true
	e.synonyms.Each(func(p compound.SynonymPair) bool {
		if strings.Contains(p.Term, input) {
			more = add(compound.Suggestion{
				Text:            p.Canonical,
				HighlightSource: p.Term,
				Provenance:      compound.ProvenanceSynonym,
			})
		}
		return more
	})
	if !more {
		return out
	}

	// Direct stage.
	names := e.samples.Names()
	for _, name := range names {
		if !strings.Contains(strings.ToLower(name), input) {
			continue
		}
		if !add(compound.Suggestion{Text: name, HighlightSource: name, Provenance: compound.ProvenanceDirect}) {
			return out
		}
	}

	// Fuzzy stage.
	for _, m := range FuzzyMatches(input, names, maxDistance) {
		if !add(m) {
			break
		}
	}
	return out
}

// FuzzyMatches returns every name whose edit distance to input is in
// (0, maxDistance], nearest first, keeping list order among equal distances.
func FuzzyMatches(input string, names []string, maxDistance int) []compound.Suggestion {
	var matches []compound.Suggestion
	for _, name := range names {
		d := Distance(input, strings.ToLower(name))
		if d > 0 && d <= maxDistance {
			matches = append(matches, compound.Suggestion{
				Text:            name,
				HighlightSource: name,
				Provenance:      compound.ProvenanceFuzzy,
				Distance:        d,
			})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})
	return matches
}

// Distance is the Levenshtein distance between a and b over runes, with unit
// cost for insertion, deletion and substitution.
func Distance(a, b string) int {
	return edlib.LevenshteinDistance(a, b)
}
