package generate

import (
	"encoding/json"
	"fmt"
	"sync"
)

// ResultItem is one ordered slot of a run.
type ResultItem struct {
	ID        string          `json:"id"`
	SlotIndex int             `json:"slot_index"`
	ImageURL  string          `json:"image_url,omitempty"`
	MimeType  string          `json:"mime_type,omitempty"`
	Brief     json.RawMessage `json:"brief,omitempty"`
	IsLoading bool            `json:"is_loading"`
	Error     string          `json:"error,omitempty"`
}

// Patch is a partial slot update. Nil fields leave the slot's current
// value alone; the Clear flags reset fields that have no natural nil.
type Patch struct {
	ImageURL   *string
	MimeType   *string
	Brief      json.RawMessage
	IsLoading  *bool
	Error      *string
	ClearBrief bool
	ClearError bool
}

// Store holds a run's ordered slots. Every write goes through Apply
// under one mutex, so concurrent brief generation and the sequential
// loop can never interleave partial updates.
type Store struct {
	mu    sync.Mutex
	items []ResultItem
}

// NewStore creates count slots, all loading, in slot order.
func NewStore(ids []string) *Store {
	items := make([]ResultItem, len(ids))
	for i, id := range ids {
		items[i] = ResultItem{ID: id, SlotIndex: i, IsLoading: true}
	}
	return &Store{items: items}
}

// Apply merges the patch into one slot and returns the updated copy.
// Other slots are never touched.
func (s *Store) Apply(slot int, p Patch) (ResultItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if slot < 0 || slot >= len(s.items) {
		return ResultItem{}, fmt.Errorf("slot %d out of range (0-%d)", slot, len(s.items)-1)
	}

	item := &s.items[slot]
	if p.ImageURL != nil {
		item.ImageURL = *p.ImageURL
	}
	if p.MimeType != nil {
		item.MimeType = *p.MimeType
	}
	if p.Brief != nil {
		item.Brief = p.Brief
	}
	if p.ClearBrief {
		item.Brief = nil
	}
	if p.IsLoading != nil {
		item.IsLoading = *p.IsLoading
	}
	if p.Error != nil {
		item.Error = *p.Error
	}
	if p.ClearError {
		item.Error = ""
	}
	return *item, nil
}

// Item returns a copy of one slot.
func (s *Store) Item(slot int) (ResultItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if slot < 0 || slot >= len(s.items) {
		return ResultItem{}, false
	}
	return s.items[slot], true
}

// Snapshot returns copies of all slots in order.
func (s *Store) Snapshot() []ResultItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ResultItem, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the slot count.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }
