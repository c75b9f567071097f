package session

import (
	"slices"
	"time"

	"github.com/captionkit/captioner/internal/models"
)

// HistoryEntry is one successful generation. It is never modified after
// creation.
type HistoryEntry struct {
	Image     models.Image
	RawText   string
	CreatedAt time.Time
}

// History is an append-only record of successful generations kept in
// insertion order. Growth is unbounded; it is cleared only by a session reset.
type History struct {
	entries []HistoryEntry
}

// Append adds an entry to the end.
func (h *History) Append(entry HistoryEntry) {
	entry.Image = entry.Image.Clone()
	h.entries = append(h.entries, entry)
}

func (h *History) Len() int {
	return len(h.entries)
}

// At returns the entry at insertion index i.
func (h *History) At(i int) (HistoryEntry, bool) {
	if i < 0 || i >= len(h.entries) {
		return HistoryEntry{}, false
	}
	return h.entries[i], true
}

// Entries returns the entries in insertion order.
func (h *History) Entries() []HistoryEntry {
	return slices.Clone(h.entries)
}

// NewestFirst returns the entries in display order.
func (h *History) NewestFirst() []HistoryEntry {
	out := slices.Clone(h.entries)
	slices.Reverse(out)
	return out
}

func (h *History) clear() {
	h.entries = nil
}
