// Package trash implements the active / trashed / purged lifecycle shared by
// clients, products and documents.
//
// Every function takes a collection and returns a new one; inputs are never
// modified, so callers swap the collection they hold for the returned value.
// When several entities share an identifier only the first match is affected.
// An unknown identifier is not an error: the returned collection is an
// unchanged copy.
package trash

import (
	"time"

	"github.com/samber/lo"
)

// Tombstoned is satisfied by any entity carrying a nullable deletion timestamp.
type Tombstoned interface {
	GetDeletedAt() *time.Time
}

// Entity is a tombstoned value with a stable identifier that can produce a
// copy of itself with another tombstone.
type Entity[I comparable, T any] interface {
	Tombstoned
	GetID() I
	WithDeletedAt(*time.Time) T
}

// ListActive returns the entities whose tombstone is nil, in their original
// order. Nil entries are skipped since callers may hand over partially
// loaded collections.
func ListActive[T Tombstoned](entities []T) []T {
	return lo.Filter(entities, func(e T, _ int) bool {
		return !lo.IsNil(e) && e.GetDeletedAt() == nil
	})
}

// ListTrashed returns the tombstoned entities, optionally narrowed by pred.
// A nil pred keeps every tombstoned entity.
func ListTrashed[T Tombstoned](entities []T, pred func(T) bool) []T {
	return lo.Filter(entities, func(e T, _ int) bool {
		if lo.IsNil(e) || e.GetDeletedAt() == nil {
			return false
		}
		return pred == nil || pred(e)
	})
}

// CountTrashed returns how many entities carry a tombstone.
func CountTrashed[T Tombstoned](entities []T) int {
	return lo.CountBy(entities, func(e T) bool {
		return !lo.IsNil(e) && e.GetDeletedAt() != nil
	})
}

// SoftDelete returns a copy of entities where the first entity matching id
// carries the tombstone now.
func SoftDelete[I comparable, T Entity[I, T]](entities []T, id I, now time.Time) []T {
	return replaceFirst(entities, id, func(e T) T {
		ts := now
		return e.WithDeletedAt(&ts)
	})
}

// Restore returns a copy of entities where the first entity matching id has
// its tombstone cleared.
func Restore[I comparable, T Entity[I, T]](entities []T, id I) []T {
	return replaceFirst(entities, id, func(e T) T {
		return e.WithDeletedAt(nil)
	})
}

// Purge returns a copy of entities without the first entity matching id.
// It is irreversible; asking the operator for confirmation is up to the caller.
func Purge[I comparable, T Entity[I, T]](entities []T, id I) []T {
	idx := indexOf(entities, id)
	out := make([]T, 0, len(entities))
	for i, e := range entities {
		if i == idx {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Find returns the first entity matching id.
func Find[I comparable, T Entity[I, T]](entities []T, id I) (T, bool) {
	idx := indexOf(entities, id)
	if idx < 0 {
		var zero T
		return zero, false
	}
	return entities[idx], true
}

func replaceFirst[I comparable, T Entity[I, T]](entities []T, id I, fn func(T) T) []T {
	out := make([]T, len(entities))
	copy(out, entities)
	if idx := indexOf(entities, id); idx >= 0 {
		out[idx] = fn(entities[idx])
	}
	return out
}

func indexOf[I comparable, T Entity[I, T]](entities []T, id I) int {
	for i, e := range entities {
		if lo.IsNil(e) {
			continue
		}
		if e.GetID() == id {
			return i
		}
	}
	return -1
}
