package replay

import (
	"context"
	"errors"
	"testing"

	"draft-strategy-lab/internal/domain"
	"draft-strategy-lab/internal/storage/memory"
)

// collectingEngine collects steps for verification.
type collectingEngine struct {
	steps  []*Step
	resets int
	failOn int // match id that returns an error; 0 disables
}

func (e *collectingEngine) OnMatch(_ context.Context, st *Step) error {
	if e.failOn != 0 && st.Match.ID == e.failOn {
		return errors.New("engine failure")
	}
	e.steps = append(e.steps, st)
	return nil
}

func (e *collectingEngine) Reset() {
	e.resets++
	e.steps = nil
}

func (e *collectingEngine) ids() []int {
	out := make([]int, len(e.steps))
	for i, st := range e.steps {
		out[i] = st.Match.ID
	}
	return out
}

func testMatch(id, seq int, won bool, strategies ...string) *domain.Match {
	return &domain.Match{ID: id, Sequence: seq, Strategies: strategies, DeniedStrategies: strategies, Won: won}
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSortMatches(t *testing.T) {
	matches := []*domain.Match{
		testMatch(3, 1, true),
		testMatch(2, 1, true),
		testMatch(9, 0, false),
	}
	SortMatches(matches)

	got := []int{matches[0].ID, matches[1].ID, matches[2].ID}
	if !equalInts(got, []int{9, 2, 3}) {
		t.Errorf("expected order [9 2 3], got %v", got)
	}
	if err := CheckOrdering(matches); err != nil {
		t.Errorf("sorted matches should pass ordering check: %v", err)
	}
}

func TestCheckOrdering_Rejects(t *testing.T) {
	matches := []*domain.Match{testMatch(2, 0, true), testMatch(1, 0, true)}
	if err := CheckOrdering(matches); !errors.Is(err, ErrInvalidOrdering) {
		t.Errorf("expected ErrInvalidOrdering, got %v", err)
	}

	dup := []*domain.Match{testMatch(1, 0, true), testMatch(1, 0, true)}
	if err := CheckOrdering(dup); !errors.Is(err, ErrInvalidOrdering) {
		t.Errorf("expected ErrInvalidOrdering for duplicates, got %v", err)
	}
}

func TestRunner_OrdersMatchesDeterministically(t *testing.T) {
	ctx := context.Background()
	store := memory.NewMatchStore()

	for _, m := range []*domain.Match{
		testMatch(4, 2, true, "MID_TEMPO"),
		testMatch(1, 0, false, "DIVE_COMP"),
		testMatch(3, 1, true, "PICK_OFF"),
	} {
		if err := store.Insert(ctx, m); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	engine := &collectingEngine{}
	if err := NewRunner(store).Run(ctx, domain.ModePicks, engine); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !equalInts(engine.ids(), []int{1, 3, 4}) {
		t.Errorf("expected [1 3 4], got %v", engine.ids())
	}
	for i, st := range engine.steps {
		if st.Index != i || st.Total != 3 || st.Mode != domain.ModePicks {
			t.Errorf("step %d has unexpected header %+v", i, st)
		}
	}
	if !engine.steps[2].Last() {
		t.Error("final step should report Last")
	}
}

func TestReplayAll_PropagatesEngineError(t *testing.T) {
	matches := []*domain.Match{testMatch(1, 0, true), testMatch(2, 1, true), testMatch(3, 2, true)}
	engine := &collectingEngine{failOn: 2}

	err := ReplayAll(context.Background(), domain.ModeBans, matches, engine)
	if err == nil {
		t.Fatal("expected error")
	}
	if len(engine.steps) != 1 {
		t.Errorf("expected replay to stop after 1 step, got %d", len(engine.steps))
	}
}

func TestReplayAll_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine := &collectingEngine{}
	err := ReplayAll(ctx, domain.ModePicks, []*domain.Match{testMatch(1, 0, true)}, engine)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if len(engine.steps) != 0 {
		t.Error("no step should run after cancellation")
	}
}

func TestFeed(t *testing.T) {
	f := NewFeed([]*domain.Match{testMatch(1, 0, true), testMatch(2, 1, false)})

	if f.Len() != 2 || f.Remaining() != 2 || f.Position() != 0 {
		t.Fatalf("unexpected fresh feed state: len=%d remaining=%d pos=%d", f.Len(), f.Remaining(), f.Position())
	}
	m, ok := f.Next()
	if !ok || m.ID != 1 {
		t.Fatalf("expected match 1, got %v %v", m, ok)
	}
	if _, ok := f.Next(); !ok {
		t.Fatal("expected second match")
	}
	if _, ok := f.Next(); ok {
		t.Error("feed should be exhausted")
	}
	if f.Remaining() != 0 {
		t.Errorf("expected 0 remaining, got %d", f.Remaining())
	}

	f.Reset()
	if m, ok := f.Next(); !ok || m.ID != 1 {
		t.Error("Reset should rewind to the first match")
	}
}
