package domain

// NodeState is the accumulator state of one node at a point in a replay.
type NodeState struct {
	ID           NodeID  `json:"id"`
	Strength     float64 `json:"strength"`
	WinStrength  float64 `json:"win_strength"`
	LossStrength float64 `json:"loss_strength"`
	WinCount     int     `json:"win_count"`
	LossCount    int     `json:"loss_count"`
	Confidence   float64 `json:"confidence"`
	Fragility    float64 `json:"fragility"`
}

// EdgeState is the accumulator state of one static edge.
type EdgeState struct {
	From          NodeID   `json:"from"`
	To            NodeID   `json:"to"`
	Type          EdgeType `json:"type"`
	Pheromone     float64  `json:"pheromone"`
	WinPheromone  float64  `json:"win_pheromone"`
	LossPheromone float64  `json:"loss_pheromone"`
	Confidence    float64  `json:"confidence"`
}

// GraphSnapshot captures a strategy graph after a replay step.
type GraphSnapshot struct {
	SnapshotID string      `json:"snapshot_id"` // deterministic hash
	SessionID  string      `json:"session_id"`
	Mode       GraphMode   `json:"mode"`
	Step       int         `json:"step"`     // matches applied so far
	MatchID    int         `json:"match_id"` // last applied match, 0 before any
	Wins       int         `json:"wins"`     // won matches among Step
	Nodes      []NodeState `json:"nodes"`
	Edges      []EdgeState `json:"edges"`
	CreatedAt  int64       `json:"created_at"` // Unix ms
}
