package replay

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"draft-strategy-lab/internal/domain"
	"draft-strategy-lab/internal/graph"
	"draft-strategy-lab/internal/storage/memory"
)

// stoppingScheduler requests a stop the first time the sequencer waits.
type stoppingScheduler struct {
	seq *Sequencer
}

func (s *stoppingScheduler) Wait(_ context.Context) error {
	s.seq.Stop()
	return nil
}

// blockingScheduler signals entry and then waits for ctx.
type blockingScheduler struct {
	entered chan struct{}
}

func (s *blockingScheduler) Wait(ctx context.Context) error {
	s.entered <- struct{}{}
	<-ctx.Done()
	return ctx.Err()
}

func threeMatches() []*domain.Match {
	return []*domain.Match{
		testMatch(1, 0, true, "MID_TEMPO", "OBJECTIVE_CONTROL"),
		testMatch(2, 1, false, "MID_TEMPO"),
		testMatch(3, 2, true, "BOT_PRESSURE"),
	}
}

func TestSequencer_RunToCompletion(t *testing.T) {
	engine := &collectingEngine{}
	seq := NewSequencer(domain.ModePicks, threeMatches(), engine, nil)

	if err := seq.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !equalInts(engine.ids(), []int{1, 2, 3}) {
		t.Errorf("expected [1 2 3], got %v", engine.ids())
	}
	if applied, total := seq.Progress(); applied != 3 || total != 3 {
		t.Errorf("expected progress 3/3, got %d/%d", applied, total)
	}
	if seq.Running() {
		t.Error("sequencer should not be running after Run returns")
	}

	// A finished feed runs nothing and succeeds.
	if err := seq.Run(context.Background()); err != nil {
		t.Errorf("Run on exhausted feed: %v", err)
	}
}

func TestSequencer_ManualStep(t *testing.T) {
	engine := &collectingEngine{}
	seq := NewSequencer(domain.ModeBans, threeMatches(), engine, ImmediateScheduler{})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		st, err := seq.Step(ctx)
		if err != nil {
			t.Fatalf("Step %d failed: %v", i, err)
		}
		if st.Index != i || st.Mode != domain.ModeBans {
			t.Errorf("unexpected step %+v", st)
		}
	}
	if _, err := seq.Step(ctx); !errors.Is(err, ErrFeedExhausted) {
		t.Errorf("expected ErrFeedExhausted, got %v", err)
	}
}

func TestSequencer_StopIsAdvisory(t *testing.T) {
	engine := &collectingEngine{}
	seq := NewSequencer(domain.ModePicks, threeMatches(), engine, nil)
	seq.sched = &stoppingScheduler{seq: seq}

	err := seq.Run(context.Background())
	if !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
	// The step in flight completed; the next one never started.
	if !equalInts(engine.ids(), []int{1}) {
		t.Errorf("expected exactly match 1 applied, got %v", engine.ids())
	}

	// Run resumes from where it stopped.
	seq.sched = ImmediateScheduler{}
	if err := seq.Run(context.Background()); err != nil {
		t.Fatalf("resume failed: %v", err)
	}
	if !equalInts(engine.ids(), []int{1, 2, 3}) {
		t.Errorf("expected [1 2 3] after resume, got %v", engine.ids())
	}
}

func TestSequencer_StopRightAfterStart(t *testing.T) {
	engine := &collectingEngine{}
	seq := NewSequencer(domain.ModePicks, threeMatches(), engine, NewTickerScheduler(2*time.Millisecond))

	done, err := seq.Start(context.Background())
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !seq.Running() {
		t.Error("expected Running as soon as Start returns")
	}
	seq.Stop()

	select {
	case err := <-done:
		if !errors.Is(err, ErrStopped) {
			t.Fatalf("expected ErrStopped, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("run never returned")
	}
	if applied, total := seq.Progress(); applied > 1 || applied >= total {
		t.Errorf("expected at most one match applied, got %d/%d", applied, total)
	}
	if seq.Running() {
		t.Error("sequencer should not be running after the run returned")
	}
}

func TestSequencer_StopBeforeStartIsCleared(t *testing.T) {
	engine := &collectingEngine{}
	seq := NewSequencer(domain.ModePicks, threeMatches(), engine, nil)

	// Stopping an idle sequencer does not cancel the next run.
	seq.Stop()
	if err := seq.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !equalInts(engine.ids(), []int{1, 2, 3}) {
		t.Errorf("expected [1 2 3], got %v", engine.ids())
	}
}

func TestSequencer_ConcurrentStepAndReset(t *testing.T) {
	engine := NewGraphEngine("s1", domain.ModePicks, graph.DefaultConfig())
	seq := NewSequencer(domain.ModePicks, threeMatches(), engine, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				_, _ = seq.Step(ctx)
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < 3; i++ {
				_ = seq.Reset()
			}
		}()
	}
	wg.Wait()

	applied, _ := seq.Progress()
	var matches int
	engine.View(func(g *graph.StrategyGraph) {
		matches = g.Totals().Matches
	})
	if applied != matches {
		t.Errorf("feed position %d does not match graph totals %d", applied, matches)
	}
}

func TestSequencer_RejectsOverlap(t *testing.T) {
	engine := &collectingEngine{}
	sched := &blockingScheduler{entered: make(chan struct{}, 1)}
	seq := NewSequencer(domain.ModePicks, threeMatches(), engine, sched)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- seq.Run(ctx) }()

	select {
	case <-sched.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("sequencer never reached the scheduler")
	}

	if !seq.Running() {
		t.Error("expected Running while waiting")
	}
	if err := seq.Run(ctx); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("expected ErrAlreadyRunning from second Run, got %v", err)
	}
	if _, err := seq.Step(ctx); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("expected ErrAlreadyRunning from Step, got %v", err)
	}
	if err := seq.Reset(); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("expected ErrAlreadyRunning from Reset, got %v", err)
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestSequencer_ResetRewindsAndClearsEngine(t *testing.T) {
	engine := &collectingEngine{}
	seq := NewSequencer(domain.ModePicks, threeMatches(), engine, nil)
	ctx := context.Background()

	if _, err := seq.Step(ctx); err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if err := seq.Reset(); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if engine.resets != 1 {
		t.Errorf("expected engine reset once, got %d", engine.resets)
	}
	if applied, _ := seq.Progress(); applied != 0 {
		t.Errorf("expected progress 0 after reset, got %d", applied)
	}

	st, err := seq.Step(ctx)
	if err != nil || st.Match.ID != 1 {
		t.Errorf("expected match 1 after reset, got %v %v", st, err)
	}
}

func TestTickerScheduler(t *testing.T) {
	s := NewTickerScheduler(0)
	if s.Interval != DefaultInterval {
		t.Errorf("expected default interval, got %v", s.Interval)
	}

	s = NewTickerScheduler(time.Millisecond)
	if err := s.Wait(context.Background()); err != nil {
		t.Errorf("Wait failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewTickerScheduler(time.Hour).Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestGraphEngine_ReferenceReplay(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSnapshotStore()
	var events []StepEvent
	clock := func() time.Time { return time.UnixMilli(1700000000000) }

	engine := NewGraphEngine("session-1", domain.ModePicks, graph.DefaultConfig(),
		WithSnapshotStore(store),
		WithObserver(func(ev StepEvent) { events = append(events, ev) }),
		WithEngineClock(clock),
	)

	matches := []*domain.Match{
		testMatch(1, 0, true, "MID_TEMPO", "OBJECTIVE_CONTROL"),
		testMatch(2, 1, false, "MID_TEMPO"),
	}
	if err := ReplayAll(ctx, domain.ModePicks, matches, engine); err != nil {
		t.Fatalf("ReplayAll failed: %v", err)
	}

	g := engine.Graph()
	a, _ := g.Node(domain.NodeMidTempo)
	b, _ := g.Node(domain.NodeObjectiveControl)
	if math.Abs(a.Strength-0.22) > 1e-9 || a.WinCount != 1 || a.LossCount != 1 {
		t.Errorf("unexpected MID_TEMPO state %+v", a)
	}
	if math.Abs(b.Strength-0.15) > 1e-9 || b.WinCount != 1 || b.LossCount != 0 {
		t.Errorf("unexpected OBJECTIVE_CONTROL state %+v", b)
	}

	if len(events) != 2 {
		t.Fatalf("expected 2 observer events, got %d", len(events))
	}
	if events[1].Index != 1 || events[1].Total != 2 || events[1].Result.MatchID != 2 {
		t.Errorf("unexpected final event %+v", events[1])
	}

	snaps, err := store.GetBySession(ctx, "session-1", domain.ModePicks)
	if err != nil {
		t.Fatalf("GetBySession failed: %v", err)
	}
	if len(snaps) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(snaps))
	}
	if snaps[0].Step != 1 || snaps[1].Step != 2 || snaps[1].MatchID != 2 {
		t.Errorf("unexpected snapshot steps: %d/%d match %d", snaps[0].Step, snaps[1].Step, snaps[1].MatchID)
	}
	if snaps[1].SnapshotID == "" || snaps[1].CreatedAt != 1700000000000 {
		t.Errorf("snapshot missing id or timestamp: %q %d", snaps[1].SnapshotID, snaps[1].CreatedAt)
	}
	if snaps[1].Wins != 1 {
		t.Errorf("expected 1 win recorded, got %d", snaps[1].Wins)
	}

	live := engine.Snapshot()
	if live.Step != 2 || live.MatchID != 2 || live.SnapshotID != snaps[1].SnapshotID {
		t.Errorf("live snapshot does not match last persisted step: %+v", live)
	}
}

func TestGraphEngine_RejectsOtherMode(t *testing.T) {
	engine := NewGraphEngine("s", domain.ModeBans, graph.DefaultConfig())
	st := &Step{Index: 0, Total: 1, Mode: domain.ModePicks, Match: testMatch(1, 0, true)}
	if err := engine.OnMatch(context.Background(), st); err == nil {
		t.Error("expected error for mismatched mode")
	}
}

func TestGraphEngine_ResetThroughSequencer(t *testing.T) {
	engine := NewGraphEngine("s", domain.ModeBans, graph.DefaultConfig())
	seq := NewSequencer(domain.ModeBans, threeMatches(), engine, nil)
	ctx := context.Background()

	if err := seq.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	var before graph.Totals
	engine.View(func(g *graph.StrategyGraph) { before = g.Totals() })
	if before.Matches != 3 {
		t.Errorf("expected 3 matches deposited, got %d", before.Matches)
	}

	if err := seq.Reset(); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	snap := engine.Snapshot()
	if snap.Step != 0 || snap.MatchID != 0 {
		t.Errorf("expected empty snapshot after reset, got step=%d match=%d", snap.Step, snap.MatchID)
	}
	for _, n := range snap.Nodes {
		if n.Strength != 0 {
			t.Errorf("node %s not cleared: %v", n.ID, n.Strength)
		}
	}
	if engine.Mode() != domain.ModeBans {
		t.Errorf("unexpected mode %s", engine.Mode())
	}
}
