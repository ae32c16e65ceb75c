package handlers

import (
	"net/http"

	"github.com/turtacn/molexplorer/internal/domain/compound"
)

// Suggester produces ranked autocomplete candidates.
type Suggester interface {
	Suggest(input string) []compound.Suggestion
}

// SuggestionRecorder observes how many suggestions were returned.
type SuggestionRecorder interface {
	ObserveSuggestions(n int)
}

type SuggestHandler struct {
	suggester Suggester
	recorder  SuggestionRecorder
}

func NewSuggestHandler(s Suggester, rec SuggestionRecorder) *SuggestHandler {
	return &SuggestHandler{suggester: s, recorder: rec}
}

// SuggestionItem is one dropdown entry.
type SuggestionItem struct {
	compound.Suggestion
	Label string `json:"label"`
}

// SuggestionsResponse is the body of GET /api/v1/suggestions.
type SuggestionsResponse struct {
	Query       string           `json:"query"`
	Suggestions []SuggestionItem `json:"suggestions"`
}

// List handles GET /api/v1/suggestions?q=. Inputs below the minimum length
// yield an empty list, never an error.
func (h *SuggestHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	found := h.suggester.Suggest(q)
	if h.recorder != nil {
		h.recorder.ObserveSuggestions(len(found))
	}

	items := make([]SuggestionItem, 0, len(found))
	for _, s := range found {
		items = append(items, SuggestionItem{Suggestion: s, Label: s.Label()})
	}
	writeJSON(w, http.StatusOK, SuggestionsResponse{Query: q, Suggestions: items})
}
