package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/go-dash-sync/internal/logger"
	"github.com/MKhiriev/go-dash-sync/models"
)

type recordRepository struct {
	*DB
	logger *logger.Logger
}

func NewRecordRepository(db *DB, logger *logger.Logger) RecordRepository {
	return &recordRepository{
		DB:     db,
		logger: logger,
	}
}

var recordColumns = []string{
	"id",
	"type",
	"payload",
	"last_modified",
	"version",
	"owner",
	"origin_device",
	"sync_status",
	"content_hash",
}

func (r *recordRepository) Save(ctx context.Context, record models.SyncableRecord) error {
	log := logger.FromContext(ctx)

	payload, err := marshalPayload(record.Payload)
	if err != nil {
		log.Err(err).
			Str("func", "recordRepository.Save").
			Str("id", record.ID).
			Msg("failed to encode record payload")
		return fmt.Errorf("failed to encode payload (id=%s): %w", record.ID, err)
	}

	_, err = r.DB.ExecContext(ctx, saveRecord,
		record.ID,
		record.Type,
		payload,
		record.LastModified,
		record.Version,
		record.Owner,
		record.OriginDevice,
		record.SyncStatus,
		record.ContentHash,
	)
	if err != nil {
		log.Err(err).
			Str("func", "recordRepository.Save").
			Str("id", record.ID).
			Msg("failed to execute upsert for record")
		return fmt.Errorf("failed to save record (id=%s): %w", record.ID, err)
	}

	return nil
}

// SaveIfVersion is the compare-and-swap variant of Save: the upsert only
// lands while the stored row still carries expectedVersion. Rows are never
// deleted, so a fresh insert can only race an insert of version 1, which the
// version guard rejects the same way.
func (r *recordRepository) SaveIfVersion(ctx context.Context, record models.SyncableRecord, expectedVersion int64) (bool, error) {
	log := logger.FromContext(ctx)

	payload, err := marshalPayload(record.Payload)
	if err != nil {
		log.Err(err).
			Str("func", "recordRepository.SaveIfVersion").
			Str("id", record.ID).
			Msg("failed to encode record payload")
		return false, fmt.Errorf("failed to encode payload (id=%s): %w", record.ID, err)
	}

	result, err := r.DB.ExecContext(ctx, saveRecordIfVersion,
		record.ID,
		record.Type,
		payload,
		record.LastModified,
		record.Version,
		record.Owner,
		record.OriginDevice,
		record.SyncStatus,
		record.ContentHash,
		expectedVersion,
	)
	if err != nil {
		log.Err(err).
			Str("func", "recordRepository.SaveIfVersion").
			Str("id", record.ID).
			Msg("failed to execute guarded upsert for record")
		return false, fmt.Errorf("failed to save record (id=%s): %w", record.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected (id=%s): %w", record.ID, err)
	}

	return rowsAffected > 0, nil
}

func (r *recordRepository) Get(ctx context.Context, id string) (models.SyncableRecord, error) {
	log := logger.FromContext(ctx)

	row := r.DB.QueryRowContext(ctx, getRecord, id)

	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.SyncableRecord{}, ErrRecordNotFound
	}
	if err != nil {
		log.Err(err).
			Str("func", "recordRepository.Get").
			Str("id", id).
			Msg("failed to scan record row")
		return models.SyncableRecord{}, fmt.Errorf("failed to get record (id=%s): %w", id, err)
	}

	return record, nil
}

func (r *recordRepository) GetByType(ctx context.Context, recordType models.RecordType) ([]models.SyncableRecord, error) {
	query, args, err := sq.Select(recordColumns...).
		From("records").
		Where(sq.Eq{"type": recordType}).
		Where("payload IS NOT NULL").
		OrderBy("last_modified").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	return r.queryRecords(ctx, "recordRepository.GetByType", query, args...)
}

func (r *recordRepository) GetByStatus(ctx context.Context, statuses ...models.SyncStatus) ([]models.SyncableRecord, error) {
	query, args, err := sq.Select(recordColumns...).
		From("records").
		Where(sq.Eq{"sync_status": statuses}).
		OrderBy("last_modified").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	return r.queryRecords(ctx, "recordRepository.GetByStatus", query, args...)
}

func (r *recordRepository) SetStatusIfVersion(ctx context.Context, id string, version int64, status models.SyncStatus) (bool, error) {
	log := logger.FromContext(ctx)

	result, err := r.DB.ExecContext(ctx, setRecordStatusIfVersion, status, id, version)
	if err != nil {
		log.Err(err).
			Str("func", "recordRepository.SetStatusIfVersion").
			Str("id", id).
			Str("status", string(status)).
			Msg("failed to execute status update for record")
		return false, fmt.Errorf("failed to set record status (id=%s): %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected (id=%s): %w", id, err)
	}

	return rowsAffected > 0, nil
}

func (r *recordRepository) Count(ctx context.Context) (int64, error) {
	return r.countQuery(ctx, "recordRepository.Count", countRecords)
}

func (r *recordRepository) CountByStatus(ctx context.Context, status models.SyncStatus) (int64, error) {
	return r.countQuery(ctx, "recordRepository.CountByStatus", countRecordsByStatus, status)
}

func (r *recordRepository) queryRecords(ctx context.Context, caller, query string, args ...any) ([]models.SyncableRecord, error) {
	log := logger.FromContext(ctx)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", caller).
			Msg("failed to execute query for records")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var records []models.SyncableRecord

	for rows.Next() {
		record, scanErr := scanRecord(rows)
		if scanErr != nil {
			log.Err(scanErr).
				Str("func", caller).
				Msg("failed to scan record row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
		}

		records = append(records, record)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		log.Err(rowsErr).
			Str("func", caller).
			Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("error iterating record rows: %w", rowsErr)
	}

	return records, nil
}

func (r *recordRepository) countQuery(ctx context.Context, caller, query string, args ...any) (int64, error) {
	log := logger.FromContext(ctx)

	var count int64
	if err := r.DB.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		log.Err(err).
			Str("func", caller).
			Msg("failed to execute count query")
		return 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return count, nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (models.SyncableRecord, error) {
	var record models.SyncableRecord
	var payload sql.NullString

	err := row.Scan(
		&record.ID,
		&record.Type,
		&payload,
		&record.LastModified,
		&record.Version,
		&record.Owner,
		&record.OriginDevice,
		&record.SyncStatus,
		&record.ContentHash,
	)
	if err != nil {
		return models.SyncableRecord{}, err
	}

	if payload.Valid {
		if err = json.Unmarshal([]byte(payload.String), &record.Payload); err != nil {
			return models.SyncableRecord{}, fmt.Errorf("failed to decode record payload: %w", err)
		}
	}

	return record, nil
}

// marshalPayload encodes payload as JSON text, mapping tombstones to NULL.
func marshalPayload(payload models.Payload) (sql.NullString, error) {
	if payload == nil {
		return sql.NullString{}, nil
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return sql.NullString{}, err
	}

	return sql.NullString{String: string(encoded), Valid: true}, nil
}
