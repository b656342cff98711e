package idhash

import (
	"testing"

	"github.com/mr-tron/base58"

	"draft-strategy-lab/internal/domain"
)

func TestComputeSnapshotID(t *testing.T) {
	tests := []struct {
		name      string
		sessionID string
		mode      domain.GraphMode
		step      int
		matchID   int
	}{
		{"first picks step", "s-1", domain.ModePicks, 1, 1},
		{"last bans step", "s-1", domain.ModeBans, 25, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeSnapshotID(tt.sessionID, tt.mode, tt.step, tt.matchID)
			if len(got) != 64 {
				t.Errorf("ComputeSnapshotID() length = %d, want 64", len(got))
			}
			if again := ComputeSnapshotID(tt.sessionID, tt.mode, tt.step, tt.matchID); again != got {
				t.Errorf("ComputeSnapshotID() not deterministic: %s vs %s", got, again)
			}
		})
	}
}

func TestComputeSnapshotID_ModeMatters(t *testing.T) {
	a := ComputeSnapshotID("s", domain.ModePicks, 1, 1)
	b := ComputeSnapshotID("s", domain.ModeBans, 1, 1)
	if a == b {
		t.Error("picks and bans snapshots must not collide")
	}
}

func TestComputeRunID(t *testing.T) {
	id := ComputeRunID(domain.SimulationSampler, "base=0.58", 7, 1704067200000)

	raw, err := base58.Decode(id)
	if err != nil {
		t.Fatalf("run id is not base58: %v", err)
	}
	if len(raw) != runIDBytes {
		t.Errorf("decoded length = %d, want %d", len(raw), runIDBytes)
	}
	if again := ComputeRunID(domain.SimulationSampler, "base=0.58", 7, 1704067200000); again != id {
		t.Errorf("ComputeRunID() not deterministic")
	}
	if other := ComputeRunID(domain.SimulationSampler, "base=0.58", 8, 1704067200000); other == id {
		t.Errorf("different seeds must give different ids")
	}
}
