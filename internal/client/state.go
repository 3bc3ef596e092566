package client

import (
	"context"
	"sort"
	"sync"
)

// State is the local view of the shared queue. It applies remote change
// events idempotently and tracks which entry is currently playing. All
// methods are safe for concurrent use.
type State struct {
	mu           sync.Mutex
	store        Store
	entries      []Entry
	currentIndex int
	lastErr      error
}

func NewState(store Store) *State {
	return &State{
		store:        store,
		currentIndex: -1,
	}
}

// Load replaces the local view with the backend's ordering. The current
// index is preserved by entry ID when the entry survived the reload.
func (s *State) Load(ctx context.Context) error {
	entries, err := s.store.List(ctx)
	if err != nil {
		s.mu.Lock()
		s.lastErr = err
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	currentID := ""
	if s.currentIndex >= 0 && s.currentIndex < len(s.entries) {
		currentID = s.entries[s.currentIndex].ID
	}

	s.entries = entries
	s.lastErr = nil
	s.resetIndexLocked(currentID)
	return nil
}

// ApplyInsert adds an entry announced by the backend. A duplicate ID is
// ignored, which makes the echo of our own Add a no-op.
func (s *State) ApplyInsert(e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOfLocked(e.ID) >= 0 {
		return
	}
	s.entries = append(s.entries, e)
	s.sortLocked()
	if s.currentIndex < 0 {
		s.currentIndex = 0
	}
}

// ApplyUpdate replaces the entry with the same ID. When the update moved
// the entry (sort order changed), the list is re-sorted and the current
// index follows the entry it pointed at.
func (s *State) ApplyUpdate(e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOfLocked(e.ID)
	if i < 0 {
		return
	}

	currentID := ""
	if s.currentIndex >= 0 && s.currentIndex < len(s.entries) {
		currentID = s.entries[s.currentIndex].ID
	}

	s.entries[i] = e
	s.sortLocked()
	s.resetIndexLocked(currentID)
}

// ApplyDelete drops the entry with the given ID. When the playing entry
// itself is removed, or the index falls off the end, playback snaps back
// to the start of the queue.
func (s *State) ApplyDelete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOfLocked(id)
	if i < 0 {
		return
	}
	s.entries = append(s.entries[:i], s.entries[i+1:]...)

	if len(s.entries) == 0 {
		s.currentIndex = -1
		return
	}
	switch {
	case i < s.currentIndex:
		s.currentIndex--
	case s.currentIndex >= len(s.entries):
		s.currentIndex = 0
	}
}

// Advance moves to the next entry, wrapping to the first after the last.
// It returns the new current entry, or false when the queue is empty.
func (s *State) Advance() (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.entries) == 0 {
		s.currentIndex = -1
		return Entry{}, false
	}
	s.currentIndex = (s.currentIndex + 1) % len(s.entries)
	return s.entries[s.currentIndex], true
}

// Reorder applies the new ordering locally first, then persists it. When
// the backend rejects the change the optimistic order is kept and the
// error recorded, so the UI stays responsive and a later reload
// reconciles.
func (s *State) Reorder(ctx context.Context, ids []string) error {
	s.mu.Lock()

	byID := make(map[string]Entry, len(s.entries))
	for _, e := range s.entries {
		byID[e.ID] = e
	}

	currentID := ""
	if s.currentIndex >= 0 && s.currentIndex < len(s.entries) {
		currentID = s.entries[s.currentIndex].ID
	}

	reordered := make([]Entry, 0, len(s.entries))
	for i, id := range ids {
		e, ok := byID[id]
		if !ok {
			continue
		}
		pos := i
		e.SortOrder = &pos
		reordered = append(reordered, e)
		delete(byID, id)
	}
	// Entries the caller did not mention keep their relative order at
	// the tail.
	for _, e := range s.entries {
		if _, left := byID[e.ID]; left {
			reordered = append(reordered, e)
		}
	}
	s.entries = reordered
	s.resetIndexLocked(currentID)
	s.mu.Unlock()

	if err := s.store.Reorder(ctx, ids); err != nil {
		s.mu.Lock()
		s.lastErr = err
		s.mu.Unlock()
		return err
	}
	return nil
}

// Current returns the playing entry, or false when the queue is empty.
func (s *State) Current() (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentIndex < 0 || s.currentIndex >= len(s.entries) {
		return Entry{}, false
	}
	return s.entries[s.currentIndex], true
}

// Entries returns a copy of the queue in play order.
func (s *State) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

func (s *State) CurrentIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentIndex
}

func (s *State) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Err returns the last store or load error, if any.
func (s *State) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *State) indexOfLocked(id string) int {
	for i, e := range s.entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// resetIndexLocked re-points currentIndex at the entry with currentID,
// falling back to the head of the queue (or -1 when empty).
func (s *State) resetIndexLocked(currentID string) {
	if len(s.entries) == 0 {
		s.currentIndex = -1
		return
	}
	if currentID != "" {
		if i := s.indexOfLocked(currentID); i >= 0 {
			s.currentIndex = i
			return
		}
	}
	s.currentIndex = 0
}

// sortLocked orders entries the same way the backend does: explicit sort
// order first, then insertion time. Entries without a sort order go last.
func (s *State) sortLocked() {
	sort.SliceStable(s.entries, func(i, j int) bool {
		a, b := s.entries[i], s.entries[j]
		switch {
		case a.SortOrder != nil && b.SortOrder != nil:
			if *a.SortOrder != *b.SortOrder {
				return *a.SortOrder < *b.SortOrder
			}
			return a.AddedAt < b.AddedAt
		case a.SortOrder != nil:
			return true
		case b.SortOrder != nil:
			return false
		default:
			return a.AddedAt < b.AddedAt
		}
	})
}
