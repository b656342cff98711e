package idhash

import (
	"crypto/sha256"
	"fmt"

	"github.com/mr-tron/base58"

	"draft-strategy-lab/internal/domain"
)

// runIDBytes is the digest prefix kept for run ids.
const runIDBytes = 16

// ComputeRunID computes a deterministic, URL-safe run_id.
// Formula: base58(SHA256(kind|params|seed|created_at)[:16])
// The same parameters, seed and timestamp always yield the same id.
func ComputeRunID(kind domain.SimulationKind, params string, seed int64, createdAt int64) string {
	data := fmt.Sprintf("%s|%s|%d|%d",
		string(kind),
		params,
		seed,
		createdAt,
	)

	hash := sha256.Sum256([]byte(data))
	return base58.Encode(hash[:runIDBytes])
}
