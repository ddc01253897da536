package utils

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/google/uuid"
)

// IDSource mints identifiers for players and chat messages. Injectable so
// tests can produce deterministic output.
type IDSource interface {
	NewID() string
}

// UUIDSource is the production source.
type UUIDSource struct{}

func (UUIDSource) NewID() string {
	return uuid.NewString()
}

// SequenceSource hands out prefix-1, prefix-2, ... for tests.
type SequenceSource struct {
	Prefix string

	mu sync.Mutex
	n  int
}

func (s *SequenceSource) NewID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	prefix := s.Prefix
	if prefix == "" {
		prefix = "id"
	}
	return fmt.Sprintf("%s-%d", prefix, s.n)
}

// Shuffle permutes s in place with Fisher-Yates.
func Shuffle[T any](s []T) {
	for i := len(s) - 1; i > 0; i-- {
		j := rand.Intn(i + 1)
		s[i], s[j] = s[j], s[i]
	}
}
