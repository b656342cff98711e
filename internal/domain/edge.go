package domain

// EdgeType describes how one capability relates to another.
type EdgeType string

const (
	EdgeEnables   EdgeType = "enables"
	EdgeAmplifies EdgeType = "amplifies"
	EdgeProtects  EdgeType = "protects"
)

// EdgeDef is a static directed dependency between two capability nodes.
type EdgeDef struct {
	From NodeID
	To   NodeID
	Type EdgeType
}

// StaticEdges is the fixed adjacency list of strategic dependencies.
// Deposits only ever land on these pairs.
var StaticEdges = []EdgeDef{
	{From: NodeMidTempo, To: NodeObjectiveControl, Type: EdgeEnables},
	{From: NodeMidTempo, To: NodeDiveComp, Type: EdgeAmplifies},
	{From: NodeBotPressure, To: NodeObjectiveControl, Type: EdgeEnables},
	{From: NodeBotPressure, To: NodeScalingInsurance, Type: EdgeProtects},
	{From: NodeFrontlineTeamfight, To: NodeDiveComp, Type: EdgeEnables},
	{From: NodeFrontlineTeamfight, To: NodeObjectiveControl, Type: EdgeProtects},
	{From: NodeDiveComp, To: NodePickOff, Type: EdgeAmplifies},
	{From: NodeObjectiveControl, To: NodeScalingInsurance, Type: EdgeProtects},
	{From: NodePickOff, To: NodeObjectiveControl, Type: EdgeEnables},
	{From: NodeScalingInsurance, To: NodePokeSiege, Type: EdgeEnables},
	{From: NodePokeSiege, To: NodeObjectiveControl, Type: EdgeAmplifies},
}

// Touches reports whether the edge has the node as either endpoint.
func (e EdgeDef) Touches(id NodeID) bool {
	return e.From == id || e.To == id
}

// Connects reports whether the edge joins a and b in either direction.
func (e EdgeDef) Connects(a, b NodeID) bool {
	return (e.From == a && e.To == b) || (e.From == b && e.To == a)
}
