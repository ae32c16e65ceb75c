package suggest

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/molexplorer/internal/domain/compound"
)

func newDefaultEngine() *Engine {
	return NewEngine(nil, nil, DefaultOptions())
}

func texts(list []compound.Suggestion) []string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = s.Text
	}
	return out
}

func TestSuggest_ShortInputIsEmpty(t *testing.T) {
	e := newDefaultEngine()
	for _, in := range []string{"", " ", "a", "  C  "} {
		got := e.Suggest(in)
		assert.NotNil(t, got)
		assert.Empty(t, got, "input %q", in)
	}
}

func TestSuggest_SynonymStageDedupes(t *testing.T) {
	got := newDefaultEngine().Suggest("Sugar")

	require.Len(t, got, 2)
	assert.Equal(t, compound.Suggestion{Text: "sucrose", HighlightSource: "sugar", Provenance: compound.ProvenanceSynonym}, got[0])
	assert.Equal(t, compound.Suggestion{Text: "fructose", HighlightSource: "fruit sugar", Provenance: compound.ProvenanceSynonym}, got[1])
}

func TestSuggest_SynonymOrderFollowsTable(t *testing.T) {
	got := newDefaultEngine().Suggest("alcohol")
	assert.Equal(t, []string{"methanol", "ethanol", "isopropanol"}, texts(got))
}

func TestSuggest_StagesAndCap(t *testing.T) {
	got := newDefaultEngine().Suggest("ol")

	require.Len(t, got, DefaultMaxResults)
	assert.Equal(t, []string{"acetaminophen", "methanol", "ethanol", "isopropanol", "cholesterol"}, texts(got))
	assert.Equal(t, "paracetamol", got[0].HighlightSource)
	for _, s := range got[:4] {
		assert.Equal(t, compound.ProvenanceSynonym, s.Provenance)
	}
	assert.Equal(t, compound.ProvenanceDirect, got[4].Provenance)
}

func TestSuggest_DirectStage(t *testing.T) {
	got := newDefaultEngine().Suggest("caf")
	require.Len(t, got, 1)
	assert.Equal(t, compound.Suggestion{Text: "caffeine", HighlightSource: "caffeine", Provenance: compound.ProvenanceDirect}, got[0])
}

func TestSuggest_FuzzyCorrectsMisspelling(t *testing.T) {
	e := newDefaultEngine()

	got := e.Suggest("asprin")
	require.Len(t, got, 1)
	assert.Equal(t, "aspirin", got[0].Text)
	assert.Equal(t, compound.ProvenanceFuzzy, got[0].Provenance)
	assert.Equal(t, 1, got[0].Distance)

	got = e.Suggest("metane")
	assert.Equal(t, []string{"methane", "butane"}, texts(got))
	assert.Equal(t, []int{1, 2}, []int{got[0].Distance, got[1].Distance})
}

func TestFuzzy_StableOnTies(t *testing.T) {
	e := NewEngine(compound.NewSynonymMap(), compound.NewSampleSet("abcd", "abce", "qqqq", "abxy"), DefaultOptions())

	got := e.Suggest("abzz")
	assert.Equal(t, []string{"abcd", "abce", "abxy"}, texts(got))
}

func TestFuzzy_SkipsExactAndFarNames(t *testing.T) {
	got := FuzzyMatches("water", []string{"water", "wafer", "waiter", "methane"}, 2)
	assert.Equal(t, []string{"wafer", "waiter"}, texts(got))
}

func TestFuzzy_NeverRepeatsDirectMatch(t *testing.T) {
	// "phenol" matches "phenol" directly; "phenyl" is a fuzzy neighbour.
	e := NewEngine(compound.NewSynonymMap(), compound.NewSampleSet("phenol", "phenyl"), DefaultOptions())
	got := e.Suggest("pheno")
	assert.Equal(t, []string{"phenol", "phenyl"}, texts(got))
	assert.Equal(t, compound.ProvenanceDirect, got[0].Provenance)
	assert.Equal(t, compound.ProvenanceFuzzy, got[1].Provenance)
}

func TestGenerate_RespectsMax(t *testing.T) {
	e := newDefaultEngine()
	assert.Empty(t, e.Generate("ol", 0))
	assert.Len(t, e.Generate("ol", 1), 1)
	assert.Len(t, e.Generate("ol", 3), 3)
	assert.Empty(t, e.Generate("", 5))
}

func TestSetOptions(t *testing.T) {
	e := newDefaultEngine()
	e.SetOptions(Options{MaxResults: 2, MinQueryLength: 3})

	assert.Empty(t, e.Suggest("ol"))
	assert.Len(t, e.Suggest("alcohol"), 2)
	assert.Equal(t, DefaultMaxDistance, e.Options().MaxDistance)
}

// Properties that must hold for arbitrary input.
func TestSuggest_Invariants(t *testing.T) {
	e := newDefaultEngine()
	inputs := []string{"ac", "acid", "an", "ene", "in", "ine", "e ", "so", "xx", "tol", "glucos", "mo", "propan", "vitamin"}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			got := e.Suggest(in)
			assert.LessOrEqual(t, len(got), DefaultMaxResults)

			seen := map[string]bool{}
			lastRank := -1
			lastDistance := 0
			for _, s := range got {
				assert.False(t, seen[s.Text], "duplicate %q", s.Text)
				seen[s.Text] = true

				rank := s.Provenance.Rank()
				assert.GreaterOrEqual(t, rank, lastRank, "stage order broken at %q", s.Text)
				if rank != lastRank {
					lastDistance = 0
				}
				lastRank = rank

				if s.Provenance == compound.ProvenanceFuzzy {
					assert.Greater(t, s.Distance, 0)
					assert.LessOrEqual(t, s.Distance, DefaultMaxDistance)
					assert.GreaterOrEqual(t, s.Distance, lastDistance)
					lastDistance = s.Distance
				}
			}
		})
	}
}

func TestDistance(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
		{"asprin", "aspirin", 1},
		{"café", "cafe", 1},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%s|%s", tc.a, tc.b), func(t *testing.T) {
			assert.Equal(t, tc.want, Distance(tc.a, tc.b))
			assert.Equal(t, tc.want, Distance(tc.b, tc.a), "distance must be symmetric")
		})
	}
}

func TestDistance_EmptyIsLength(t *testing.T) {
	for _, s := range compound.DefaultSamples.Names() {
		assert.Equal(t, compound.QueryLength(s), Distance("", s), s)
	}
}
