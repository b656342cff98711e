package storage

import (
	"context"
	"errors"
	"strings"

	"draft-strategy-lab/internal/domain"
)

// LoadTeamNames reads both team names, defaulting any that are unset or blank.
func LoadTeamNames(ctx context.Context, store PreferenceStore) (domain.TeamNames, error) {
	names := domain.DefaultTeamNames()

	home, err := loadOrDefault(ctx, store, domain.KeyHomeTeam, names.Home)
	if err != nil {
		return names, err
	}
	opp, err := loadOrDefault(ctx, store, domain.KeyOpponentTeam, names.Opponent)
	if err != nil {
		return names, err
	}
	names.Home = home
	names.Opponent = opp
	return names, nil
}

// SaveTeamNames persists both team names. Blank names are rejected.
func SaveTeamNames(ctx context.Context, store PreferenceStore, names domain.TeamNames) error {
	home := strings.TrimSpace(names.Home)
	opp := strings.TrimSpace(names.Opponent)
	if home == "" || opp == "" {
		return ErrInvalidInput
	}
	if err := store.SetValue(ctx, domain.KeyHomeTeam, home); err != nil {
		return err
	}
	return store.SetValue(ctx, domain.KeyOpponentTeam, opp)
}

func loadOrDefault(ctx context.Context, store PreferenceStore, key, def string) (string, error) {
	v, err := store.GetValue(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return def, nil
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(v) == "" {
		return def, nil
	}
	return v, nil
}
