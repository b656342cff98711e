package pipeline

import (
	"context"
	"fmt"

	"draft-strategy-lab/internal/domain"
	"draft-strategy-lab/internal/storage"
)

// FixtureMatches returns the fixed 25-match demonstration feed in replay order.
// Each call returns fresh copies.
func FixtureMatches() []*domain.Match {
	return []*domain.Match{
		{
			ID:               1,
			Sequence:         0,
			Picks:            []string{"Azir", "Lee Sin", "Gnar", "Jinx", "Thresh"},
			Bans:             []string{"Fiora", "Camille", "Jax", "Yone", "Akali"},
			Strategies:       []string{"MID_TEMPO", "OBJECTIVE_CONTROL", "SCALING_INSURANCE"},
			DeniedStrategies: []string{"DIVE_COMP", "PICK_OFF"},
			Won:              true,
		},
		{
			ID:               2,
			Sequence:         1,
			Picks:            []string{"Orianna", "Viego", "Ornn", "Aphelios", "Nautilus"},
			Bans:             []string{"Fiora", "Jax", "Vayne", "Zed", "Yasuo"},
			Strategies:       []string{"FRONTLINE_TEAMFIGHT", "BOT_PRESSURE", "SCALING_INSURANCE"},
			DeniedStrategies: []string{"DIVE_COMP", "PICK_OFF"},
			Won:              true,
		},
		{
			ID:               3,
			Sequence:         2,
			Picks:            []string{"Syndra", "Lee Sin", "Renekton", "Kai'Sa", "Leona"},
			Bans:             []string{"Camille", "Fiora", "Yone", "Akali", "LeBlanc"},
			Strategies:       []string{"MID_TEMPO", "DIVE_COMP", "PICK_OFF"},
			DeniedStrategies: []string{"DIVE_COMP", "PICK_OFF"},
			Won:              false,
		},
		{
			ID:               4,
			Sequence:         3,
			Picks:            []string{"Viktor", "Elise", "Gnar", "Jinx", "Thresh"},
			Bans:             []string{"Fiora", "Jax", "Camille", "Zed", "Yasuo"},
			Strategies:       []string{"MID_TEMPO", "OBJECTIVE_CONTROL", "FRONTLINE_TEAMFIGHT"},
			DeniedStrategies: []string{"DIVE_COMP", "PICK_OFF"},
			Won:              true,
		},
		{
			ID:               5,
			Sequence:         4,
			Picks:            []string{"Azir", "Viego", "Ornn", "Aphelios", "Rell"},
			Bans:             []string{"Fiora", "Camille", "Vayne", "Yone", "Akali"},
			Strategies:       []string{"FRONTLINE_TEAMFIGHT", "BOT_PRESSURE", "SCALING_INSURANCE"},
			DeniedStrategies: []string{"DIVE_COMP", "PICK_OFF"},
			Won:              true,
		},
		{
			ID:               6,
			Sequence:         5,
			Picks:            []string{"Sylas", "Graves", "Sion", "Xayah", "Rakan"},
			Bans:             []string{"Jax", "Fiora", "Camille", "Zed", "Yasuo"},
			Strategies:       []string{"FRONTLINE_TEAMFIGHT", "OBJECTIVE_CONTROL", "BOT_PRESSURE"},
			DeniedStrategies: []string{"DIVE_COMP", "PICK_OFF"},
			Won:              true,
		},
		{
			ID:               7,
			Sequence:         6,
			Picks:            []string{"Corki", "Nidalee", "Jayce", "Ezreal", "Karma"},
			Bans:             []string{"Fiora", "Camille", "Jax", "Yone", "Akali"},
			Strategies:       []string{"POKE_SIEGE", "MID_TEMPO", "SCALING_INSURANCE"},
			DeniedStrategies: []string{"DIVE_COMP", "FRONTLINE_TEAMFIGHT"},
			Won:              false,
		},
		{
			ID:               8,
			Sequence:         7,
			Picks:            []string{"Twisted Fate", "Elise", "Malphite", "Ashe", "Leona"},
			Bans:             []string{"Fiora", "Jax", "Vayne", "Zed", "Yasuo"},
			Strategies:       []string{"MID_TEMPO", "DIVE_COMP", "FRONTLINE_TEAMFIGHT"},
			DeniedStrategies: []string{"PICK_OFF", "POKE_SIEGE"},
			Won:              true,
		},
		{
			ID:               9,
			Sequence:         8,
			Picks:            []string{"Ryze", "Sejuani", "Gnar", "Jinx", "Thresh"},
			Bans:             []string{"Camille", "Fiora", "Yone", "Akali", "LeBlanc"},
			Strategies:       []string{"FRONTLINE_TEAMFIGHT", "SCALING_INSURANCE", "OBJECTIVE_CONTROL"},
			DeniedStrategies: []string{"DIVE_COMP", "PICK_OFF"},
			Won:              true,
		},
		{
			ID:               10,
			Sequence:         9,
			Picks:            []string{"LeBlanc", "Lee Sin", "Renekton", "Lucian", "Nami"},
			Bans:             []string{"Fiora", "Jax", "Camille", "Zed", "Yasuo"},
			Strategies:       []string{"MID_TEMPO", "DIVE_COMP", "BOT_PRESSURE"},
			DeniedStrategies: []string{"SCALING_INSURANCE", "POKE_SIEGE"},
			Won:              false,
		},
		{
			ID:               11,
			Sequence:         10,
			Picks:            []string{"Cassiopeia", "Kindred", "Ornn", "Aphelios", "Nautilus"},
			Bans:             []string{"Fiora", "Camille", "Vayne", "Yone", "Akali"},
			Strategies:       []string{"FRONTLINE_TEAMFIGHT", "SCALING_INSURANCE", "BOT_PRESSURE"},
			DeniedStrategies: []string{"DIVE_COMP", "PICK_OFF"},
			Won:              true,
		},
		{
			ID:               12,
			Sequence:         11,
			Picks:            []string{"Ahri", "Viego", "Camille", "Kai'Sa", "Thresh"},
			Bans:             []string{"Fiora", "Jax", "Vayne", "Zed", "Yasuo"},
			Strategies:       []string{"PICK_OFF", "DIVE_COMP", "MID_TEMPO"},
			DeniedStrategies: []string{"FRONTLINE_TEAMFIGHT", "POKE_SIEGE"},
			Won:              true,
		},
		{
			ID:               13,
			Sequence:         12,
			Picks:            []string{"Ziggs", "Graves", "Jayce", "Ezreal", "Xerath"},
			Bans:             []string{"Camille", "Fiora", "Yone", "Akali", "LeBlanc"},
			Strategies:       []string{"POKE_SIEGE", "SCALING_INSURANCE", "OBJECTIVE_CONTROL"},
			DeniedStrategies: []string{"DIVE_COMP", "FRONTLINE_TEAMFIGHT"},
			Won:              false,
		},
		{
			ID:               14,
			Sequence:         13,
			Picks:            []string{"Galio", "Jarvan IV", "Sion", "Ashe", "Leona"},
			Bans:             []string{"Fiora", "Jax", "Camille", "Zed", "Yasuo"},
			Strategies:       []string{"FRONTLINE_TEAMFIGHT", "DIVE_COMP", "OBJECTIVE_CONTROL"},
			DeniedStrategies: []string{"PICK_OFF", "POKE_SIEGE"},
			Won:              true,
		},
		{
			ID:               15,
			Sequence:         14,
			Picks:            []string{"Viktor", "Graves", "Gnar", "Jinx", "Rell"},
			Bans:             []string{"Fiora", "Camille", "Vayne", "Yone", "Akali"},
			Strategies:       []string{"FRONTLINE_TEAMFIGHT", "SCALING_INSURANCE", "OBJECTIVE_CONTROL"},
			DeniedStrategies: []string{"DIVE_COMP", "PICK_OFF"},
			Won:              true,
		},
		{
			ID:               16,
			Sequence:         15,
			Picks:            []string{"Zoe", "Nidalee", "Jayce", "Caitlyn", "Lux"},
			Bans:             []string{"Fiora", "Jax", "Vayne", "Zed", "Yasuo"},
			Strategies:       []string{"POKE_SIEGE", "MID_TEMPO", "BOT_PRESSURE"},
			DeniedStrategies: []string{"DIVE_COMP", "FRONTLINE_TEAMFIGHT"},
			Won:              false,
		},
		{
			ID:               17,
			Sequence:         16,
			Picks:            []string{"Orianna", "Lee Sin", "Malphite", "Kai'Sa", "Nautilus"},
			Bans:             []string{"Camille", "Fiora", "Yone", "Akali", "LeBlanc"},
			Strategies:       []string{"FRONTLINE_TEAMFIGHT", "DIVE_COMP", "MID_TEMPO"},
			DeniedStrategies: []string{"PICK_OFF", "POKE_SIEGE"},
			Won:              true,
		},
		{
			ID:               18,
			Sequence:         17,
			Picks:            []string{"Azir", "Sejuani", "Ornn", "Aphelios", "Thresh"},
			Bans:             []string{"Fiora", "Jax", "Camille", "Zed", "Yasuo"},
			Strategies:       []string{"FRONTLINE_TEAMFIGHT", "SCALING_INSURANCE", "BOT_PRESSURE"},
			DeniedStrategies: []string{"DIVE_COMP", "PICK_OFF"},
			Won:              true,
		},
		{
			ID:               19,
			Sequence:         18,
			Picks:            []string{"Qiyana", "Lee Sin", "Renekton", "Draven", "Pyke"},
			Bans:             []string{"Fiora", "Camille", "Vayne", "Yone", "Akali"},
			Strategies:       []string{"PICK_OFF", "DIVE_COMP", "BOT_PRESSURE"},
			DeniedStrategies: []string{"SCALING_INSURANCE", "POKE_SIEGE"},
			Won:              false,
		},
		{
			ID:               20,
			Sequence:         19,
			Picks:            []string{"Syndra", "Graves", "Gnar", "Jinx", "Leona"},
			Bans:             []string{"Fiora", "Jax", "Vayne", "Zed", "Yasuo"},
			Strategies:       []string{"MID_TEMPO", "FRONTLINE_TEAMFIGHT", "SCALING_INSURANCE"},
			DeniedStrategies: []string{"DIVE_COMP", "PICK_OFF"},
			Won:              true,
		},
		{
			ID:               21,
			Sequence:         20,
			Picks:            []string{"Taliyah", "Viego", "Camille", "Kai'Sa", "Rakan"},
			Bans:             []string{"Camille", "Fiora", "Yone", "Akali", "LeBlanc"},
			Strategies:       []string{"MID_TEMPO", "PICK_OFF", "DIVE_COMP"},
			DeniedStrategies: []string{"FRONTLINE_TEAMFIGHT", "POKE_SIEGE"},
			Won:              true,
		},
		{
			ID:               22,
			Sequence:         21,
			Picks:            []string{"Corki", "Kindred", "Jayce", "Ezreal", "Karma"},
			Bans:             []string{"Fiora", "Jax", "Camille", "Zed", "Yasuo"},
			Strategies:       []string{"POKE_SIEGE", "SCALING_INSURANCE", "OBJECTIVE_CONTROL"},
			DeniedStrategies: []string{"DIVE_COMP", "FRONTLINE_TEAMFIGHT"},
			Won:              false,
		},
		{
			ID:               23,
			Sequence:         22,
			Picks:            []string{"Galio", "Jarvan IV", "Malphite", "Ashe", "Nautilus"},
			Bans:             []string{"Fiora", "Camille", "Vayne", "Yone", "Akali"},
			Strategies:       []string{"FRONTLINE_TEAMFIGHT", "DIVE_COMP", "OBJECTIVE_CONTROL"},
			DeniedStrategies: []string{"PICK_OFF", "POKE_SIEGE"},
			Won:              true,
		},
		{
			ID:               24,
			Sequence:         23,
			Picks:            []string{"Ryze", "Sejuani", "Ornn", "Aphelios", "Rell"},
			Bans:             []string{"Fiora", "Jax", "Vayne", "Zed", "Yasuo"},
			Strategies:       []string{"FRONTLINE_TEAMFIGHT", "SCALING_INSURANCE", "BOT_PRESSURE"},
			DeniedStrategies: []string{"DIVE_COMP", "PICK_OFF"},
			Won:              true,
		},
		{
			ID:               25,
			Sequence:         24,
			Picks:            []string{"Twisted Fate", "Elise", "Renekton", "Lucian", "Leona"},
			Bans:             []string{"Camille", "Fiora", "Yone", "Akali", "LeBlanc"},
			Strategies:       []string{"MID_TEMPO", "DIVE_COMP", "BOT_PRESSURE"},
			DeniedStrategies: []string{"SCALING_INSURANCE", "POKE_SIEGE"},
			Won:              true,
		},
	}
}

// LoadFixtures inserts the fixture feed into the match store.
func LoadFixtures(ctx context.Context, store storage.MatchStore) error {
	if err := store.InsertBulk(ctx, FixtureMatches()); err != nil {
		return fmt.Errorf("load fixture matches: %w", err)
	}
	return nil
}
