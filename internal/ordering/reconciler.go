// Package ordering keeps an entity set split into an unordered pool and an
// explicitly ordered sequence whose members map onto positions 1..N.
package ordering

import (
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Orderable is implemented by entities that can be placed in a sequence.
// OrderPosition returns 0 for entities outside the sequence.
type Orderable interface {
	OrderID() int64
	OrderName() string
	OrderPosition() int
}

// Reconciler holds the pool/sequence split. It is not safe for concurrent use.
type Reconciler[T Orderable] struct {
	pool     []T
	sequence []T
	collator *collate.Collator
}

// New splits items by their stored position: positive positions form the
// sequence (ties broken by id), the rest form the pool sorted by name.
func New[T Orderable](items []T) *Reconciler[T] {
	r := newReconciler[T]()
	for _, item := range dedupe(items) {
		if item.OrderPosition() > 0 {
			r.sequence = append(r.sequence, item)
		} else {
			r.pool = append(r.pool, item)
		}
	}
	slices.SortStableFunc(r.sequence, func(a, b T) int {
		if a.OrderPosition() != b.OrderPosition() {
			return a.OrderPosition() - b.OrderPosition()
		}
		return compareID(a, b)
	})
	r.sortPool()
	return r
}

// FromOrder builds the split from a submitted id list. Unknown and repeated
// ids are dropped; stored positions are ignored.
func FromOrder[T Orderable](items []T, ids []int64) *Reconciler[T] {
	r := newReconciler[T]()
	items = dedupe(items)
	byID := make(map[int64]T, len(items))
	for _, item := range items {
		byID[item.OrderID()] = item
	}
	placed := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		item, ok := byID[id]
		if !ok {
			continue
		}
		if _, dup := placed[id]; dup {
			continue
		}
		placed[id] = struct{}{}
		r.sequence = append(r.sequence, item)
	}
	for _, item := range items {
		if _, ok := placed[item.OrderID()]; !ok {
			r.pool = append(r.pool, item)
		}
	}
	r.sortPool()
	return r
}

func newReconciler[T Orderable]() *Reconciler[T] {
	return &Reconciler[T]{collator: collate.New(language.Und, collate.IgnoreCase, collate.Loose)}
}

// MoveToSequence appends the matching pool entities to the end of the
// sequence in their pool order and returns how many moved.
func (r *Reconciler[T]) MoveToSequence(ids ...int64) int {
	selected := idSet(ids)
	kept := r.pool[:0:0]
	moved := 0
	for _, item := range r.pool {
		if _, ok := selected[item.OrderID()]; ok {
			r.sequence = append(r.sequence, item)
			moved++
			continue
		}
		kept = append(kept, item)
	}
	r.pool = kept
	return moved
}

// MoveToPool removes the matching entities from the sequence and returns them
// to the pool, which is re-sorted by name.
func (r *Reconciler[T]) MoveToPool(ids ...int64) int {
	selected := idSet(ids)
	kept := r.sequence[:0:0]
	moved := 0
	for _, item := range r.sequence {
		if _, ok := selected[item.OrderID()]; ok {
			r.pool = append(r.pool, item)
			moved++
			continue
		}
		kept = append(kept, item)
	}
	r.sequence = kept
	if moved > 0 {
		r.sortPool()
	}
	return moved
}

// MoveAllToSequence appends the whole pool to the sequence.
func (r *Reconciler[T]) MoveAllToSequence() {
	r.sequence = append(r.sequence, r.pool...)
	r.pool = nil
}

// MoveAllToPool empties the sequence into the pool.
func (r *Reconciler[T]) MoveAllToPool() {
	r.pool = append(r.pool, r.sequence...)
	r.sequence = nil
	r.sortPool()
}

// MoveUp swaps the selected sequence member with its predecessor. It only
// acts when exactly one id is selected and that id is not already first.
func (r *Reconciler[T]) MoveUp(selected ...int64) bool {
	idx := r.singleSelection(selected)
	if idx <= 0 {
		return false
	}
	r.sequence[idx-1], r.sequence[idx] = r.sequence[idx], r.sequence[idx-1]
	return true
}

// MoveDown swaps the selected sequence member with its successor.
func (r *Reconciler[T]) MoveDown(selected ...int64) bool {
	idx := r.singleSelection(selected)
	if idx < 0 || idx >= len(r.sequence)-1 {
		return false
	}
	r.sequence[idx+1], r.sequence[idx] = r.sequence[idx], r.sequence[idx+1]
	return true
}

func (r *Reconciler[T]) singleSelection(selected []int64) int {
	if len(selected) != 1 {
		return -1
	}
	return slices.IndexFunc(r.sequence, func(item T) bool { return item.OrderID() == selected[0] })
}

// Commit returns the sequence ids in order. This is the payload persisted as
// positions 1..N.
func (r *Reconciler[T]) Commit() []int64 {
	ids := make([]int64, len(r.sequence))
	for i, item := range r.sequence {
		ids[i] = item.OrderID()
	}
	return ids
}

// Positions maps every known id to its 1-based sequence position, or 0 when
// the entity sits in the pool.
func (r *Reconciler[T]) Positions() map[int64]int {
	out := make(map[int64]int, len(r.pool)+len(r.sequence))
	for _, item := range r.pool {
		out[item.OrderID()] = 0
	}
	for i, item := range r.sequence {
		out[item.OrderID()] = i + 1
	}
	return out
}

// Pool returns a copy of the unordered entities in name order.
func (r *Reconciler[T]) Pool() []T { return slices.Clone(r.pool) }

// Sequence returns a copy of the ordered entities.
func (r *Reconciler[T]) Sequence() []T { return slices.Clone(r.sequence) }

// Len reports the number of entities tracked.
func (r *Reconciler[T]) Len() int { return len(r.pool) + len(r.sequence) }

// Filter returns a reconciler restricted to entities matching pred. Relative
// order within the pool and the sequence is preserved.
func (r *Reconciler[T]) Filter(pred func(T) bool) *Reconciler[T] {
	out := newReconciler[T]()
	for _, item := range r.pool {
		if pred(item) {
			out.pool = append(out.pool, item)
		}
	}
	for _, item := range r.sequence {
		if pred(item) {
			out.sequence = append(out.sequence, item)
		}
	}
	return out
}

func (r *Reconciler[T]) sortPool() {
	slices.SortStableFunc(r.pool, func(a, b T) int {
		if c := r.collator.CompareString(a.OrderName(), b.OrderName()); c != 0 {
			return c
		}
		return compareID(a, b)
	})
}

func compareID[T Orderable](a, b T) int {
	switch {
	case a.OrderID() < b.OrderID():
		return -1
	case a.OrderID() > b.OrderID():
		return 1
	}
	return 0
}

func dedupe[T Orderable](items []T) []T {
	seen := make(map[int64]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.OrderID()]; ok {
			continue
		}
		seen[item.OrderID()] = struct{}{}
		out = append(out, item)
	}
	return out
}

func idSet(ids []int64) map[int64]struct{} {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
