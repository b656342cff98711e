package domain

// Preference keys for the persisted team names.
const (
	KeyHomeTeam     = "yourTeam"
	KeyOpponentTeam = "opponentTeam"
)

// Defaults used when no team name has been saved.
const (
	DefaultHomeTeam     = "G2 Esports"
	DefaultOpponentTeam = "GIANTX"
)

// TeamNames is the pair of team names shown on the analysis page.
type TeamNames struct {
	Home     string `json:"home" yaml:"home"`
	Opponent string `json:"opponent" yaml:"opponent"`
}

// DefaultTeamNames returns the fallback pair.
func DefaultTeamNames() TeamNames {
	return TeamNames{Home: DefaultHomeTeam, Opponent: DefaultOpponentTeam}
}
