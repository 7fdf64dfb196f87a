package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hoanghai1803/daybrief/internal/models"
)

const defaultRunSettingsKey = "default_run_settings"

// GetSetting loads the JSON value stored under key into dest. It returns
// ErrNotFound if the key is missing.
func (s *Store) GetSetting(ctx context.Context, key string, dest any) error {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, key,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("getting setting %q: %w", key, err)
	}

	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return fmt.Errorf("unmarshaling setting %q: %w", key, err)
	}
	return nil
}

// SetSetting stores value as JSON under key, overwriting any previous value.
func (s *Store) SetSetting(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshaling setting %q: %w", key, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value, updated_at)
		 VALUES (?, ?, datetime('now'))
		 ON CONFLICT(key) DO UPDATE SET
			value      = excluded.value,
			updated_at = excluded.updated_at`,
		key, string(data),
	)
	if err != nil {
		return fmt.Errorf("setting %q: %w", key, err)
	}
	return nil
}

// DefaultRunSettings returns the saved default run settings, or fallback if
// none have been saved.
func (s *Store) DefaultRunSettings(ctx context.Context, fallback models.RunSettings) (models.RunSettings, error) {
	var rs models.RunSettings
	err := s.GetSetting(ctx, defaultRunSettingsKey, &rs)
	if errors.Is(err, ErrNotFound) {
		return fallback, nil
	}
	if err != nil {
		return models.RunSettings{}, err
	}
	return rs.Merge(fallback), nil
}

// SaveDefaultRunSettings replaces the saved default run settings.
func (s *Store) SaveDefaultRunSettings(ctx context.Context, rs models.RunSettings) error {
	return s.SetSetting(ctx, defaultRunSettingsKey, rs)
}
