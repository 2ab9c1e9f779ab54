// Package idgen centralizes entity id generation so tests can swap in a
// deterministic generator without touching call sites.
package idgen

import "github.com/google/uuid"

// Generator produces string ids for new entities.
type Generator interface {
	NewID() string
}

// UUIDGenerator generates random UUIDv4 strings. It is the default used
// outside of tests.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string {
	return uuid.NewString()
}

// Sequential is a deterministic generator for tests and replay fixtures:
// it emits prefix-0, prefix-1, ... in call order.
type Sequential struct {
	Prefix string
	next   int
}

func (s *Sequential) NewID() string {
	id := s.Prefix + itoa(s.next)
	s.next++
	return id
}

// Fixed always returns the same pre-chosen id. Used when a caller must
// generate an id before it can build the event payload that records it
// (e.g. a permanent created by PlayLand), so Replay can recreate the same
// id deterministically instead of drawing a fresh one.
type Fixed string

func (f Fixed) NewID() string { return string(f) }

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
