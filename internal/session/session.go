// Package session owns the live state of one analysis page: team names and a
// strategy graph plus replay sequencer per mode.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"draft-strategy-lab/internal/domain"
	"draft-strategy-lab/internal/graph"
	"draft-strategy-lab/internal/observability"
	"draft-strategy-lab/internal/replay"
	"draft-strategy-lab/internal/storage"
	"draft-strategy-lab/internal/storage/memory"
)

// ErrClosed is returned by operations on a closed session.
var ErrClosed = errors.New("session closed")

// DefaultSubscriberBuffer is the channel size used by Subscribe when size <= 0.
const DefaultSubscriberBuffer = 64

// Options configures a Session.
type Options struct {
	ID              string                  // default: random UUID
	Matches         []*domain.Match         // replay feed, shared by both modes
	GraphConfig     graph.Config            // zero value means graph.DefaultConfig()
	Interval        time.Duration           // live replay delay; default replay.DefaultInterval
	Scheduler       replay.Scheduler        // overrides Interval when set
	SnapshotStore   storage.SnapshotStore   // optional; persists every step
	PreferenceStore storage.PreferenceStore // default: in-memory
	Logger          *log.Logger             // optional
	Clock           func() time.Time        // default: time.Now
}

// ModeStatus is the replay progress of one mode.
type ModeStatus struct {
	Mode    domain.GraphMode `json:"mode"`
	Running bool             `json:"running"`
	Applied int              `json:"applied"`
	Total   int              `json:"total"`
}

type modeState struct {
	engine *replay.GraphEngine
	seq    *replay.Sequencer

	// op is held across Start, Step and Reset of this mode. Acquire before s.mu.
	op     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{} // closed when the current Run returns
}

func (m *modeState) running() bool {
	if m.done == nil {
		return false
	}
	select {
	case <-m.done:
		return false
	default:
		return true
	}
}

// Session is safe for concurrent use.
type Session struct {
	id      string
	prefs   storage.PreferenceStore
	logger  *log.Logger
	created time.Time

	mu     sync.Mutex
	modes  map[domain.GraphMode]*modeState
	closed bool

	subMu   sync.Mutex
	subs    map[int]chan replay.StepEvent
	nextSub int
}

// New creates a session with a fresh graph per mode.
func New(opts Options) (*Session, error) {
	cfg := opts.GraphConfig
	if cfg == (graph.Config{}) {
		cfg = graph.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := replay.CheckOrdering(opts.Matches); err != nil {
		return nil, err
	}

	id := opts.ID
	if id == "" {
		id = uuid.NewString()
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	prefs := opts.PreferenceStore
	if prefs == nil {
		prefs = memory.NewPreferenceStore()
	}
	sched := opts.Scheduler
	if sched == nil {
		sched = replay.NewTickerScheduler(opts.Interval)
	}

	s := &Session{
		id:      id,
		prefs:   prefs,
		logger:  opts.Logger,
		created: clock(),
		modes:   make(map[domain.GraphMode]*modeState, len(domain.Modes)),
		subs:    make(map[int]chan replay.StepEvent),
	}

	for _, mode := range domain.Modes {
		engOpts := []replay.GraphEngineOption{
			replay.WithObserver(s.publish),
			replay.WithEngineClock(clock),
		}
		if opts.SnapshotStore != nil {
			engOpts = append(engOpts, replay.WithSnapshotStore(opts.SnapshotStore))
		}
		engine := replay.NewGraphEngine(id, mode, cfg, engOpts...)
		s.modes[mode] = &modeState{
			engine: engine,
			seq:    replay.NewSequencer(mode, opts.Matches, engine, sched),
		}
	}
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// CreatedAt returns when the session was created.
func (s *Session) CreatedAt() time.Time {
	return s.created
}

func (s *Session) mode(mode domain.GraphMode) (*modeState, error) {
	m, ok := s.modes[mode]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidMode, mode)
	}
	return m, nil
}

// Start launches a live replay of mode in the background.
// It fails with replay.ErrAlreadyRunning while a replay of mode is active and
// with replay.ErrFeedExhausted once every match has been applied.
func (s *Session) Start(mode domain.GraphMode) error {
	m, err := s.mode(mode)
	if err != nil {
		return err
	}

	m.op.Lock()
	defer m.op.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if m.running() {
		return replay.ErrAlreadyRunning
	}
	if applied, total := m.seq.Progress(); applied >= total {
		return replay.ErrFeedExhausted
	}

	ctx, cancel := context.WithCancel(context.Background())
	result, err := m.seq.Start(ctx)
	if err != nil {
		cancel()
		return err
	}
	done := make(chan struct{})
	m.cancel = cancel
	m.done = done

	go func() {
		defer close(done)
		defer cancel()

		err := <-result
		status := "completed"
		switch {
		case errors.Is(err, replay.ErrStopped), errors.Is(err, context.Canceled):
			status = "stopped"
		case err != nil:
			status = "failed"
		}
		observability.RecordReplayFinished(string(mode), status)
		applied, total := m.seq.Progress()
		if err != nil && status == "failed" {
			s.log("%s replay failed at %d/%d: %v", mode, applied, total, err)
		} else {
			s.log("%s replay %s at %d/%d", mode, status, applied, total)
		}
	}()

	s.log("%s replay started", mode)
	return nil
}

// Stop asks a running replay of mode to end before its next step.
// Stopping an idle mode is a no-op.
func (s *Session) Stop(mode domain.GraphMode) error {
	m, err := s.mode(mode)
	if err != nil {
		return err
	}
	m.seq.Stop()
	return nil
}

// Wait blocks until the current replay of mode has returned or ctx is done.
func (s *Session) Wait(ctx context.Context, mode domain.GraphMode) error {
	m, err := s.mode(mode)
	if err != nil {
		return err
	}
	s.mu.Lock()
	done := m.done
	s.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Step applies the next match of mode synchronously and returns the new snapshot.
func (s *Session) Step(ctx context.Context, mode domain.GraphMode) (*domain.GraphSnapshot, error) {
	m, err := s.mode(mode)
	if err != nil {
		return nil, err
	}

	m.op.Lock()
	defer m.op.Unlock()
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	if m.running() {
		s.mu.Unlock()
		return nil, replay.ErrAlreadyRunning
	}
	s.mu.Unlock()

	if _, err := m.seq.Step(ctx); err != nil {
		return nil, err
	}
	return m.engine.Snapshot(), nil
}

// Reset rewinds the feed of mode and clears its graph.
func (s *Session) Reset(mode domain.GraphMode) error {
	m, err := s.mode(mode)
	if err != nil {
		return err
	}

	m.op.Lock()
	defer m.op.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if m.running() {
		return replay.ErrAlreadyRunning
	}
	if err := m.seq.Reset(); err != nil {
		return err
	}
	s.log("%s graph reset", mode)
	return nil
}

// Snapshot returns the current graph state of mode.
func (s *Session) Snapshot(mode domain.GraphMode) (*domain.GraphSnapshot, error) {
	m, err := s.mode(mode)
	if err != nil {
		return nil, err
	}
	return m.engine.Snapshot(), nil
}

// Conclusions returns the derived insights of mode's graph.
func (s *Session) Conclusions(mode domain.GraphMode) (graph.Conclusions, error) {
	m, err := s.mode(mode)
	if err != nil {
		return graph.Conclusions{}, err
	}
	var c graph.Conclusions
	m.engine.View(func(g *graph.StrategyGraph) {
		c = g.Conclude(mode)
	})
	return c, nil
}

// Status returns the progress of every mode in domain.Modes order.
func (s *Session) Status() []ModeStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]ModeStatus, 0, len(domain.Modes))
	for _, mode := range domain.Modes {
		m := s.modes[mode]
		applied, total := m.seq.Progress()
		out = append(out, ModeStatus{
			Mode:    mode,
			Running: m.running(),
			Applied: applied,
			Total:   total,
		})
	}
	return out
}

// Teams returns the saved team names, defaulting unset ones.
func (s *Session) Teams(ctx context.Context) (domain.TeamNames, error) {
	return storage.LoadTeamNames(ctx, s.prefs)
}

// SetTeams saves both team names. Blank names fail with storage.ErrInvalidInput.
func (s *Session) SetTeams(ctx context.Context, names domain.TeamNames) (domain.TeamNames, error) {
	if err := storage.SaveTeamNames(ctx, s.prefs, names); err != nil {
		return domain.TeamNames{}, err
	}
	return storage.LoadTeamNames(ctx, s.prefs)
}

// Subscribe returns a channel receiving every step event of both modes and a
// function that ends the subscription. Events are dropped for subscribers
// whose buffer is full. The channel is closed on unsubscribe or Close.
func (s *Session) Subscribe(size int) (<-chan replay.StepEvent, func()) {
	if size <= 0 {
		size = DefaultSubscriberBuffer
	}
	ch := make(chan replay.StepEvent, size)

	s.subMu.Lock()
	if s.subs == nil {
		s.subMu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}
}

func (s *Session) publish(ev replay.StepEvent) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Close stops every replay, waits for them to return and closes all subscriptions.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	var waits []chan struct{}
	for _, m := range s.modes {
		m.seq.Stop()
		if m.cancel != nil {
			m.cancel()
		}
		if m.done != nil {
			waits = append(waits, m.done)
		}
	}
	s.mu.Unlock()

	for _, done := range waits {
		<-done
	}

	s.subMu.Lock()
	for id, ch := range s.subs {
		close(ch)
		delete(s.subs, id)
	}
	s.subs = nil
	s.subMu.Unlock()
	s.log("session closed")
}

func (s *Session) log(format string, args ...any) {
	if s.logger != nil {
		s.logger.Printf("[%s] "+format, append([]any{s.id}, args...)...)
	}
}
