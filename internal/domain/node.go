package domain

// NodeID identifies a strategic capability node.
type NodeID string

// Strategic capability nodes.
const (
	NodeMidTempo           NodeID = "MID_TEMPO"
	NodeBotPressure        NodeID = "BOT_PRESSURE"
	NodeFrontlineTeamfight NodeID = "FRONTLINE_TEAMFIGHT"
	NodeDiveComp           NodeID = "DIVE_COMP"
	NodeObjectiveControl   NodeID = "OBJECTIVE_CONTROL"
	NodePickOff            NodeID = "PICK_OFF"
	NodeScalingInsurance   NodeID = "SCALING_INSURANCE"
	NodePokeSiege          NodeID = "POKE_SIEGE"
)

// NodeInfo describes a capability node for coaches.
type NodeInfo struct {
	ID       NodeID
	Label    string
	Meaning  string
	Requires string
	Breaks   string
}

// NodeCatalog lists all capability nodes in their fixed order.
var NodeCatalog = []NodeInfo{
	{
		ID:       NodeMidTempo,
		Label:    "Mid Tempo",
		Meaning:  "Mid lane can control wave state and move first.",
		Requires: "Waveclear or kill threat, safe sidelane access, jungle proximity",
		Breaks:   "Mid is forced under tower, vision denied, counter-pick pressure",
	},
	{
		ID:       NodeBotPressure,
		Label:    "Bot Pressure",
		Meaning:  "Ability to consistently force priority, dives, or tower damage in bot lane.",
		Requires: "Strong 2v2 lane, reliable engage or poke, early jungle access",
		Breaks:   "Support is forced mid/top, ADC lacks early agency, jungle pathing disrupted",
	},
	{
		ID:       NodeFrontlineTeamfight,
		Label:    "Frontline Teamfight",
		Meaning:  "Team can start and survive 5v5 engagements.",
		Requires: "Durable engage champions, follow-up damage, vision setup",
		Breaks:   "Engage tools are banned, poke outranges frontline, carries are exposed",
	},
	{
		ID:       NodeDiveComp,
		Label:    "Dive Comp",
		Meaning:  "Team can collapse under towers or into backlines decisively.",
		Requires: "Lockdown CC, burst damage, numbers advantage or tempo",
		Breaks:   "Vision denied, defensive cooldowns available, wave state unfavorable",
	},
	{
		ID:       NodeObjectiveControl,
		Label:    "Objective Control",
		Meaning:  "Team can reliably secure neutral objectives.",
		Requires: "Vision dominance, jungle control, lane priority",
		Breaks:   "Smite pressure lost, vision collapsed, lanes pushed in",
	},
	{
		ID:       NodePickOff,
		Label:    "Pick Off",
		Meaning:  "Team can isolate and punish positioning errors.",
		Requires: "Vision traps, burst or CC, fog of war control",
		Breaks:   "Grouped play, vision cleared, defensive positioning",
	},
	{
		ID:       NodeScalingInsurance,
		Label:    "Scaling Insurance",
		Meaning:  "Team can safely reach late-game power spikes.",
		Requires: "Defensive play, waveclear, late-game carries",
		Breaks:   "Early snowball conceded, key scaling picks banned, nexus threatened early",
	},
	{
		ID:       NodePokeSiege,
		Label:    "Poke Siege",
		Meaning:  "Team can safely chip objectives without committing.",
		Requires: "Long-range abilities, disengage tools, vision control",
		Breaks:   "Hard engage lands, flanks are available, cooldowns mismanaged",
	},
}

var nodeIndex = func() map[NodeID]NodeInfo {
	idx := make(map[NodeID]NodeInfo, len(NodeCatalog))
	for _, n := range NodeCatalog {
		idx[n.ID] = n
	}
	return idx
}()

// ParseNodeID returns the node for a strategy label, if it is a known node.
func ParseNodeID(label string) (NodeID, bool) {
	id := NodeID(label)
	_, ok := nodeIndex[id]
	return id, ok
}

// LookupNode returns catalog info for a node.
func LookupNode(id NodeID) (NodeInfo, bool) {
	info, ok := nodeIndex[id]
	return info, ok
}

// String returns the string representation of NodeID.
func (n NodeID) String() string {
	return string(n)
}
