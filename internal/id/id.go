// Package id provides identifier generation for backend-assigned entity ids.
package id

import (
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// UUID generates a random UUID v4 string.
func UUID() string {
	return uuid.NewString()
}

// Sequence issues backend ids for one collection.
//
// With a prefix it produces "<prefix><n>" ids (e.g. "BOOKID_2") numbered from
// one; without a prefix every id is a UUID.
type Sequence struct {
	mu     sync.Mutex
	prefix string
	next   int
}

// NewSequence creates a Sequence with the given prefix.
func NewSequence(prefix string) *Sequence {
	return &Sequence{prefix: prefix, next: 1}
}

// Prefix returns the configured prefix.
func (s *Sequence) Prefix() string {
	return s.prefix
}

// Next returns a fresh id.
func (s *Sequence) Next() string {
	if s.prefix == "" {
		return UUID()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.next
	s.next++
	return s.prefix + strconv.Itoa(n)
}

// Observe records an id that already exists in the collection (seed data),
// so that Next never hands out a number at or below it.
func (s *Sequence) Observe(existing string) {
	if s.prefix == "" || !strings.HasPrefix(existing, s.prefix) {
		return
	}
	n, err := strconv.Atoi(strings.TrimPrefix(existing, s.prefix))
	if err != nil || n < 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if n >= s.next {
		s.next = n + 1
	}
}

// Reset rewinds the sequence to its initial state.
func (s *Sequence) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next = 1
}
