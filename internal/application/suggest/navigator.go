package suggest

import (
	"sync"

	"github.com/turtacn/molexplorer/internal/domain/compound"
)

// NoHighlight is the index when no suggestion is highlighted.
const NoHighlight = -1

// Navigator tracks the highlighted entry of a suggestion list. The index
// ranges over NoHighlight and 0..len-1 and wraps at both ends through
// NoHighlight.
type Navigator struct {
	mu    sync.Mutex
	items []compound.Suggestion
	index int
}

// NewNavigator returns a navigator over an empty list.
func NewNavigator() *Navigator {
	return &Navigator{index: NoHighlight}
}

// Reset installs a new list and clears the highlight.
func (n *Navigator) Reset(items []compound.Suggestion) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.items = append([]compound.Suggestion(nil), items...)
	n.index = NoHighlight
}

// Items returns a copy of the current list.
func (n *Navigator) Items() []compound.Suggestion {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]compound.Suggestion(nil), n.items...)
}

// Next moves the highlight down; past the last entry it returns to none.
func (n *Navigator) Next() int { return n.step(1) }

// Prev moves the highlight up; above none it wraps to the last entry.
func (n *Navigator) Prev() int { return n.step(-1) }

func (n *Navigator) step(dir int) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	count := len(n.items)
	if count == 0 {
		return n.index
	}
	n.index += dir
	switch {
	case n.index < NoHighlight:
		n.index = count - 1
	case n.index >= count:
		n.index = NoHighlight
	}
	return n.index
}

// Index returns the highlighted index.
func (n *Navigator) Index() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.index
}

// Highlighted returns the highlighted suggestion, if any.
func (n *Navigator) Highlighted() (compound.Suggestion, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.index < 0 || n.index >= len(n.items) {
		return compound.Suggestion{}, false
	}
	return n.items[n.index], true
}

// Commit resolves what an Enter keystroke searches for: the highlighted
// suggestion's text, or typed when nothing is highlighted. The list is
// cleared either way.
func (n *Navigator) Commit(typed string) string {
	query := typed
	if s, ok := n.Highlighted(); ok {
		query = s.Text
	}
	n.Reset(nil)
	return query
}
