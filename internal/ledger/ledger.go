// Package ledger keeps a bounded, ordered record of message identifiers that
// have already been handled so later runs do not summarize them again.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"

	"inboxbrief/internal/core"
	"inboxbrief/internal/logger"
)

// DefaultMaxStoredIDs bounds the ledger when no capacity is configured.
const DefaultMaxStoredIDs = 500

// KeyValueStore is the persistence the ledger is saved to.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Ledger is an insertion-ordered set of identifiers, oldest first.
type Ledger struct {
	ids      []string
	index    map[string]struct{}
	capacity int
}

// New returns an empty ledger holding at most capacity identifiers.
func New(capacity int) *Ledger {
	if capacity <= 0 {
		capacity = DefaultMaxStoredIDs
	}
	return &Ledger{
		index:    make(map[string]struct{}),
		capacity: capacity,
	}
}

// FromIDs builds a ledger from persisted identifiers, applying the capacity.
func FromIDs(ids []string, capacity int) *Ledger {
	l := New(capacity)
	l.Record(ids...)
	return l
}

// Contains reports whether id has been recorded.
func (l *Ledger) Contains(id string) bool {
	_, ok := l.index[id]
	return ok
}

// Record appends identifiers not already present, then evicts the oldest
// entries beyond capacity. Existing identifiers keep their position.
func (l *Ledger) Record(ids ...string) {
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := l.index[id]; ok {
			continue
		}
		l.ids = append(l.ids, id)
		l.index[id] = struct{}{}
	}

	if over := len(l.ids) - l.capacity; over > 0 {
		for _, id := range l.ids[:over] {
			delete(l.index, id)
		}
		l.ids = append([]string(nil), l.ids[over:]...)
	}
}

// IDs returns a copy of the identifiers, oldest first.
func (l *Ledger) IDs() []string {
	return append([]string(nil), l.ids...)
}

// Len returns the number of recorded identifiers.
func (l *Ledger) Len() int {
	return len(l.ids)
}

// Capacity returns the maximum number of identifiers kept.
func (l *Ledger) Capacity() int {
	return l.capacity
}

// Load reads the ledger stored under key. A missing entry yields an empty
// ledger; so does a corrupt one, after logging a warning.
func Load(ctx context.Context, kv KeyValueStore, key string, capacity int) (*Ledger, error) {
	raw, ok, err := kv.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger %s: %w", key, err)
	}
	if !ok || raw == "" {
		return New(capacity), nil
	}

	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		logger.Warn("Ignoring corrupt ledger payload", "key", key,
			"error", fmt.Errorf("%w: %v", core.ErrPersistenceCorrupt, err).Error())
		return New(capacity), nil
	}

	return FromIDs(ids, capacity), nil
}

// Save writes the ledger under key as a JSON array of strings.
func (l *Ledger) Save(ctx context.Context, kv KeyValueStore, key string) error {
	ids := l.ids
	if ids == nil {
		ids = []string{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("failed to encode ledger: %w", err)
	}
	if err := kv.Set(ctx, key, string(data)); err != nil {
		return fmt.Errorf("failed to save ledger %s: %w", key, err)
	}
	return nil
}
