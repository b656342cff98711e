package replay

import (
	"context"
	"errors"
	"sync"

	"draft-strategy-lab/internal/domain"
)

// Sequencer feeds a match list into an engine one step at a time.
// Stop is advisory: it is checked before each step and each wait, and a step in flight always completes.
type Sequencer struct {
	mode   domain.GraphMode
	engine ReplayEngine
	sched  Scheduler

	// op serializes Step, Reset and Start so none of them interleaves with
	// another's check and mutation.
	op sync.Mutex

	mu      sync.Mutex
	feed    *Feed
	running bool
	stop    bool
}

// NewSequencer creates a sequencer. A nil scheduler means ImmediateScheduler.
func NewSequencer(mode domain.GraphMode, matches []*domain.Match, engine ReplayEngine, sched Scheduler) *Sequencer {
	if sched == nil {
		sched = ImmediateScheduler{}
	}
	return &Sequencer{
		mode:   mode,
		engine: engine,
		sched:  sched,
		feed:   NewFeed(matches),
	}
}

// Mode returns the graph mode this sequencer feeds.
func (s *Sequencer) Mode() domain.GraphMode {
	return s.mode
}

// Step applies the next match. Returns ErrFeedExhausted when none remain.
// Manual stepping is rejected while Run is active.
func (s *Sequencer) Step(ctx context.Context) (*Step, error) {
	s.op.Lock()
	defer s.op.Unlock()
	if s.Running() {
		return nil, ErrAlreadyRunning
	}
	return s.step(ctx)
}

func (s *Sequencer) step(ctx context.Context) (*Step, error) {
	s.mu.Lock()
	m, ok := s.feed.Next()
	if !ok {
		s.mu.Unlock()
		return nil, ErrFeedExhausted
	}
	st := &Step{Index: s.feed.Position() - 1, Total: s.feed.Len(), Mode: s.mode, Match: m}
	s.mu.Unlock()

	if err := s.engine.OnMatch(ctx, st); err != nil {
		return st, err
	}
	return st, nil
}

// Run steps through the remaining feed, waiting on the scheduler between steps.
// Returns nil when the feed is exhausted, ErrStopped after Stop, or the context
// or engine error.
func (s *Sequencer) Run(ctx context.Context) error {
	done, err := s.Start(ctx)
	if err != nil {
		return err
	}
	return <-done
}

// Start marks the sequencer running and clears any earlier stop request
// before it returns, then runs the loop in a goroutine. The result of the run
// is delivered once on the returned channel. A Stop issued after Start
// returns is always observed by that run.
func (s *Sequencer) Start(ctx context.Context) (<-chan error, error) {
	s.op.Lock()
	defer s.op.Unlock()

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, ErrAlreadyRunning
	}
	s.running = true
	s.stop = false
	s.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		err := s.loop(ctx)
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		done <- err
	}()
	return done, nil
}

func (s *Sequencer) loop(ctx context.Context) error {
	for {
		if s.stopRequested() {
			return ErrStopped
		}
		st, err := s.step(ctx)
		if errors.Is(err, ErrFeedExhausted) {
			return nil
		}
		if err != nil {
			return err
		}
		if st.Last() {
			return nil
		}

		if s.stopRequested() {
			return ErrStopped
		}
		if err := s.sched.Wait(ctx); err != nil {
			return err
		}
	}
}

func (s *Sequencer) stopRequested() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stop
}

// Stop asks a running replay to end before its next step.
func (s *Sequencer) Stop() {
	s.mu.Lock()
	s.stop = true
	s.mu.Unlock()
}

// Running reports whether Run is active.
func (s *Sequencer) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Reset rewinds the feed and clears the engine if it supports it.
func (s *Sequencer) Reset() error {
	s.op.Lock()
	defer s.op.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrAlreadyRunning
	}
	s.feed.Reset()
	s.stop = false
	if r, ok := s.engine.(Resetter); ok {
		r.Reset()
	}
	return nil
}

// Progress returns (applied, total).
func (s *Sequencer) Progress() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.feed.Position(), s.feed.Len()
}
