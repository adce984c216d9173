package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-dash-sync/internal/logger"
	"github.com/MKhiriev/go-dash-sync/models"
)

type conflictRepository struct {
	*DB
	logger *logger.Logger
}

func NewConflictRepository(db *DB, logger *logger.Logger) ConflictRepository {
	return &conflictRepository{
		DB:     db,
		logger: logger,
	}
}

func (c *conflictRepository) Save(ctx context.Context, conflict models.SyncConflict) error {
	log := logger.FromContext(ctx)

	localRecord, err := json.Marshal(conflict.LocalRecord)
	if err != nil {
		return fmt.Errorf("failed to encode local record (conflict=%s): %w", conflict.ID, err)
	}
	remoteRecord, err := json.Marshal(conflict.RemoteRecord)
	if err != nil {
		return fmt.Errorf("failed to encode remote record (conflict=%s): %w", conflict.ID, err)
	}

	_, err = c.DB.ExecContext(ctx, saveConflict,
		conflict.ID,
		conflict.RecordID,
		string(localRecord),
		string(remoteRecord),
		conflict.ConflictType,
		conflict.DetectedAt,
	)
	if err != nil {
		log.Err(err).
			Str("func", "conflictRepository.Save").
			Str("conflict_id", conflict.ID).
			Str("record_id", conflict.RecordID).
			Msg("failed to execute upsert for conflict")
		return fmt.Errorf("failed to save conflict (id=%s): %w", conflict.ID, err)
	}

	return nil
}

func (c *conflictRepository) Get(ctx context.Context, id string) (models.SyncConflict, error) {
	log := logger.FromContext(ctx)

	row := c.DB.QueryRowContext(ctx, getConflict, id)

	conflict, err := scanConflict(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.SyncConflict{}, ErrConflictNotFound
	}
	if err != nil {
		log.Err(err).
			Str("func", "conflictRepository.Get").
			Str("conflict_id", id).
			Msg("failed to scan conflict row")
		return models.SyncConflict{}, fmt.Errorf("failed to get conflict (id=%s): %w", id, err)
	}

	return conflict, nil
}

func (c *conflictRepository) GetAll(ctx context.Context) ([]models.SyncConflict, error) {
	log := logger.FromContext(ctx)

	rows, err := c.DB.QueryContext(ctx, getAllConflicts)
	if err != nil {
		log.Err(err).
			Str("func", "conflictRepository.GetAll").
			Msg("failed to execute query for all conflicts")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var conflicts []models.SyncConflict

	for rows.Next() {
		conflict, scanErr := scanConflict(rows)
		if scanErr != nil {
			log.Err(scanErr).
				Str("func", "conflictRepository.GetAll").
				Msg("failed to scan conflict row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
		}

		conflicts = append(conflicts, conflict)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		log.Err(rowsErr).
			Str("func", "conflictRepository.GetAll").
			Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("error iterating conflict rows: %w", rowsErr)
	}

	return conflicts, nil
}

func (c *conflictRepository) Delete(ctx context.Context, id string) error {
	log := logger.FromContext(ctx)

	result, err := c.DB.ExecContext(ctx, deleteConflict, id)
	if err != nil {
		log.Err(err).
			Str("func", "conflictRepository.Delete").
			Str("conflict_id", id).
			Msg("failed to execute delete for conflict")
		return fmt.Errorf("failed to delete conflict (id=%s): %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected (id=%s): %w", id, err)
	}
	if rowsAffected == 0 {
		return ErrConflictNotFound
	}

	return nil
}

func (c *conflictRepository) Count(ctx context.Context) (int64, error) {
	log := logger.FromContext(ctx)

	var count int64
	if err := c.DB.QueryRowContext(ctx, countConflicts).Scan(&count); err != nil {
		log.Err(err).
			Str("func", "conflictRepository.Count").
			Msg("failed to execute count query")
		return 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return count, nil
}

func scanConflict(row rowScanner) (models.SyncConflict, error) {
	var conflict models.SyncConflict
	var localRecord, remoteRecord string

	err := row.Scan(
		&conflict.ID,
		&conflict.RecordID,
		&localRecord,
		&remoteRecord,
		&conflict.ConflictType,
		&conflict.DetectedAt,
	)
	if err != nil {
		return models.SyncConflict{}, err
	}

	if err = json.Unmarshal([]byte(localRecord), &conflict.LocalRecord); err != nil {
		return models.SyncConflict{}, fmt.Errorf("failed to decode local record: %w", err)
	}
	if err = json.Unmarshal([]byte(remoteRecord), &conflict.RemoteRecord); err != nil {
		return models.SyncConflict{}, fmt.Errorf("failed to decode remote record: %w", err)
	}

	return conflict, nil
}
