package pipeline

import (
	"context"
	"sync"

	"github.com/ironsheep/disc-photo-mcp/internal/imaging"
)

// Sequencer applies last-invocation-wins per slot. A new submission for a
// slot cancels the one still running for it, and the superseded call
// reports that its result must be discarded.
type Sequencer struct {
	pipeline *Pipeline

	mu     sync.Mutex
	next   uint64
	active map[int]ticket
}

type ticket struct {
	id     uint64
	cancel context.CancelFunc
}

// NewSequencer creates a Sequencer running submissions through p.
func NewSequencer(p *Pipeline) *Sequencer {
	if p == nil {
		p = New()
	}
	return &Sequencer{
		pipeline: p,
		active:   make(map[int]ticket),
	}
}

// Submit processes src for slot. The boolean is false when a later Submit
// for the same slot started before this one finished; the caller must not
// apply that result.
func (s *Sequencer) Submit(ctx context.Context, slot int, src imaging.Source) (*Result, bool) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	s.next++
	id := s.next
	if prev, ok := s.active[slot]; ok {
		prev.cancel()
	}
	s.active[slot] = ticket{id: id, cancel: cancel}
	s.mu.Unlock()

	result := s.pipeline.Process(ctx, src)

	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.active[slot]
	if !ok || cur.id != id {
		return result, false
	}
	delete(s.active, slot)
	return result, true
}

// Pending returns the number of slots with a submission in flight.
func (s *Sequencer) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}
