package compound

// Provenance records which matching stage produced a suggestion.
type Provenance string

const (
	ProvenanceSynonym Provenance = "synonym"
	ProvenanceDirect  Provenance = "direct"
	ProvenanceFuzzy   Provenance = "fuzzy"
)

// Rank orders provenances: synonym < direct < fuzzy.
func (p Provenance) Rank() int {
	switch p {
	case ProvenanceSynonym:
		return 0
	case ProvenanceDirect:
		return 1
	case ProvenanceFuzzy:
		return 2
	default:
		return 3
	}
}

// Suggestion is one autocomplete candidate. Text is what gets searched when
// chosen; HighlightSource is the string that matched the input, which differs
// from Text for synonym matches. Distance is set for fuzzy matches only.
type Suggestion struct {
	Text            string     `json:"text"`
	HighlightSource string     `json:"highlight_source"`
	Provenance      Provenance `json:"provenance"`
	Distance        int        `json:"distance,omitempty"`
}

// Label renders the suggestion as shown in the dropdown.
func (s Suggestion) Label() string {
	switch s.Provenance {
	case ProvenanceSynonym:
		return s.Text + " (" + s.HighlightSource + ")"
	case ProvenanceFuzzy:
		return s.Text + " (did you mean?)"
	default:
		return s.Text
	}
}
