package compound

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// MaxNameLength bounds candidate display names.
const MaxNameLength = 50

// registryMarkers identify registry codes that are poor display names.
var registryMarkers = []string{"UNII-", "CHEMBL", "ZINC"}

// isReadableName applies the length, registry-code and leading-digit filters.
func isReadableName(name string) bool {
	if name == "" || utf8.RuneCountInString(name) >= MaxNameLength {
		return false
	}
	for _, m := range registryMarkers {
		if strings.Contains(name, m) {
			return false
		}
	}
	return name[0] < '0' || name[0] > '9'
}

// shortest returns the shortest candidate, keeping database order on ties.
func shortest(candidates []string) (string, bool) {
	if len(candidates) == 0 {
		return "", false
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return utf8.RuneCountInString(candidates[i]) < utf8.RuneCountInString(candidates[j])
	})
	return candidates[0], true
}

// DisplayName picks the human-facing name of a resolved compound: the
// shortest readable synonym that differs from the IUPAC name, else the IUPAC
// name, else the original query.
func DisplayName(synonyms []string, iupacName, query string) string {
	candidates := make([]string, 0, len(synonyms))
	for _, s := range synonyms {
		if !isReadableName(s) {
			continue
		}
		if iupacName != "" && strings.EqualFold(s, iupacName) {
			continue
		}
		candidates = append(candidates, s)
	}
	if name, ok := shortest(candidates); ok {
		return name
	}
	if iupacName != "" {
		return iupacName
	}
	return query
}

// CommonName is the info-panel variant of DisplayName: the IUPAC name is not
// excluded, and the query is the only fallback.
func CommonName(synonyms []string, query string) string {
	candidates := make([]string, 0, len(synonyms))
	for _, s := range synonyms {
		if isReadableName(s) {
			candidates = append(candidates, s)
		}
	}
	if name, ok := shortest(candidates); ok {
		return name
	}
	return query
}
