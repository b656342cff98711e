package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"draft-strategy-lab/internal/domain"
)

// ComputeSnapshotID computes a deterministic snapshot_id using SHA256.
// Formula: SHA256(session_id|mode|step|match_id)
// Returns hex-encoded hash (64 characters).
func ComputeSnapshotID(sessionID string, mode domain.GraphMode, step, matchID int) string {
	data := fmt.Sprintf("%s|%s|%d|%d",
		sessionID,
		string(mode),
		step,
		matchID,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
