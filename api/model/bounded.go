// api/model/bounded.go
package model

import (
	"fmt"

	echo_errors "github.com/choiwab/patient-x/api/errors"
)

// BoundedList is a fixed-capacity ordered collection with a fallible push.
// Inserts past capacity fail deterministically; the list never truncates.
type BoundedList[T any] struct {
	items    []T
	capacity int
}

// NewBoundedList creates an empty list with the given capacity.
func NewBoundedList[T any](capacity int) *BoundedList[T] {
	return &BoundedList[T]{capacity: capacity}
}

// BoundedListOf creates a list with the given capacity seeded from items.
// Fails if items already exceed the capacity.
func BoundedListOf[T any](capacity int, items []T) (*BoundedList[T], error) {
	l := NewBoundedList[T](capacity)
	for _, item := range items {
		if err := l.Push(item); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Push appends an item, failing with ErrCapacityExceeded when full.
func (l *BoundedList[T]) Push(item T) error {
	if len(l.items) >= l.capacity {
		return fmt.Errorf("%w: capacity %d", echo_errors.ErrCapacityExceeded, l.capacity)
	}
	l.items = append(l.items, item)
	return nil
}

// Items returns a copy of the current contents.
func (l *BoundedList[T]) Items() []T {
	out := make([]T, len(l.items))
	copy(out, l.items)
	return out
}

// Len returns the number of stored items.
func (l *BoundedList[T]) Len() int {
	return len(l.items)
}

// Cap returns the configured capacity.
func (l *BoundedList[T]) Cap() int {
	return l.capacity
}

// BoundedSet is a fixed-capacity collection with idempotent insert and
// swap-removal. Iteration order is insertion order until the first removal.
type BoundedSet[T comparable] struct {
	BoundedList[T]
}

// NewBoundedSet creates an empty set with the given capacity.
func NewBoundedSet[T comparable](capacity int) *BoundedSet[T] {
	return &BoundedSet[T]{BoundedList[T]{capacity: capacity}}
}

// PushIfAbsent inserts the item only if it is not already present. Capacity
// is only checked when the item is actually new.
func (s *BoundedSet[T]) PushIfAbsent(item T) error {
	if s.Contains(item) {
		return nil
	}
	return s.Push(item)
}

// Contains reports whether item is present.
func (s *BoundedSet[T]) Contains(item T) bool {
	for _, existing := range s.items {
		if existing == item {
			return true
		}
	}
	return false
}

// Remove deletes item by swapping in the last element. Order is not
// preserved after removal. Removing an absent item reports false.
func (s *BoundedSet[T]) Remove(item T) bool {
	for i, existing := range s.items {
		if existing == item {
			last := len(s.items) - 1
			s.items[i] = s.items[last]
			s.items = s.items[:last]
			return true
		}
	}
	return false
}
