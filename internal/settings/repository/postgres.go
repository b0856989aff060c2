package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) GetByProfile(ctx context.Context, profileID string) (*model.StockSettings, error) {
	var settings model.StockSettings
	err := r.DB.GetContext(ctx, &settings, `SELECT * FROM stock_settings WHERE profile_id = $1`, profileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &settings, nil
}

func (r *PGRepository) CurrentEvent(ctx context.Context, settingsID string) (*model.StockSettingsEvent, error) {
	var event model.StockSettingsEvent
	query := `
		SELECT e.* FROM stock_settings_events e
		JOIN stock_settings s ON s.current_event_id = e.id
		WHERE s.id = $1`
	err := r.DB.GetContext(ctx, &event, query, settingsID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}

func (r *PGRepository) AppendEvent(ctx context.Context, profileID string, event *model.StockSettingsEvent) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	settings, err := r.getByProfileForUpdate(ctx, tx, profileID)
	if err != nil {
		return err
	}
	now := time.Now()
	if settings == nil {
		settings = &model.StockSettings{
			ID:        uuid.New().String(),
			ProfileID: profileID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		query := `
			INSERT INTO stock_settings (id, profile_id, current_event_id, created_at, updated_at)
			VALUES (:id, :profile_id, NULL, :created_at, :updated_at)`
		if _, err := tx.NamedExecContext(ctx, query, settings); err != nil {
			return fmt.Errorf("failed to insert settings: %w", err)
		}
	}

	event.SettingsID = settings.ID
	query := `
		INSERT INTO stock_settings_events (id, settings_id, threshold, created_by, created_at)
		VALUES (:id, :settings_id, :threshold, :created_by, :created_at)`
	if _, err := tx.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("failed to insert settings event: %w", err)
	}

	_, err = tx.ExecContext(ctx, `UPDATE stock_settings SET current_event_id = $1, updated_at = $2 WHERE id = $3`,
		event.ID, now, settings.ID)
	if err != nil {
		return fmt.Errorf("failed to advance current settings event: %w", err)
	}

	return tx.Commit()
}

func (r *PGRepository) getByProfileForUpdate(ctx context.Context, tx *sqlx.Tx, profileID string) (*model.StockSettings, error) {
	var settings model.StockSettings
	err := tx.GetContext(ctx, &settings, `SELECT * FROM stock_settings WHERE profile_id = $1 FOR UPDATE`, profileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &settings, nil
}
