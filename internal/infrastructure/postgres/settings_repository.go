package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/imagerisk/imagerisk/internal/domain/model"
	pgutil "github.com/imagerisk/imagerisk/pkg/postgres"
)

// SettingsDB is satisfied by *pgxpool.Pool.
type SettingsDB interface {
	pgutil.Querier
	pgutil.TxBeginner
}

// SettingsRepository implements port.SettingsRepository as a single JSONB row.
type SettingsRepository struct {
	db SettingsDB
}

// NewSettingsRepository creates a new PostgreSQL-backed settings repository.
func NewSettingsRepository(db SettingsDB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns the stored settings, or the defaults when no row exists.
func (r *SettingsRepository) Get(ctx context.Context) (model.Settings, error) {
	return loadSettings(ctx, r.db, false)
}

// Update merges patch into the stored settings under a row lock.
func (r *SettingsRepository) Update(ctx context.Context, patch model.SettingsPatch) (model.Settings, error) {
	var merged model.Settings

	err := pgutil.InTx(ctx, r.db, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(q pgutil.Querier) error {
		current, err := loadSettings(ctx, q, true)
		if err != nil {
			return err
		}

		merged, err = current.Apply(patch)
		if err != nil {
			return err
		}

		doc, err := json.Marshal(merged)
		if err != nil {
			return fmt.Errorf("failed to encode settings: %w", err)
		}

		_, err = q.Exec(ctx, `
			INSERT INTO settings (id, document, updated_at) VALUES (1, $1, now())
			ON CONFLICT (id) DO UPDATE SET document = EXCLUDED.document, updated_at = EXCLUDED.updated_at
		`, doc)
		if err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.Settings{}, err
	}

	return merged, nil
}

func loadSettings(ctx context.Context, q pgutil.Querier, forUpdate bool) (model.Settings, error) {
	query := `SELECT document FROM settings WHERE id = 1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var doc []byte
	if err := q.QueryRow(ctx, query).Scan(&doc); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.DefaultSettings(), nil
		}
		return model.Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}

	return decodeSettings(doc)
}

// decodeSettings overlays a stored document on the defaults so keys added
// after the row was written keep their default values.
func decodeSettings(doc []byte) (model.Settings, error) {
	settings := model.DefaultSettings()
	if err := json.Unmarshal(doc, &settings); err != nil {
		return model.Settings{}, fmt.Errorf("failed to decode settings: %w", err)
	}
	return settings, nil
}
