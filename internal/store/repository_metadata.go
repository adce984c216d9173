package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-dash-sync/internal/logger"
)

type metadataRepository struct {
	*DB
	logger *logger.Logger
}

func NewMetadataRepository(db *DB, logger *logger.Logger) MetadataRepository {
	return &metadataRepository{
		DB:     db,
		logger: logger,
	}
}

func (m *metadataRepository) Get(ctx context.Context, key string) (string, error) {
	log := logger.FromContext(ctx)

	var value string
	err := m.DB.QueryRowContext(ctx, getMetadata, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrMetadataNotFound
	}
	if err != nil {
		log.Err(err).
			Str("func", "metadataRepository.Get").
			Str("key", key).
			Msg("failed to query metadata value")
		return "", fmt.Errorf("failed to get metadata (key=%s): %w", key, err)
	}

	return value, nil
}

func (m *metadataRepository) Set(ctx context.Context, key, value string) error {
	log := logger.FromContext(ctx)

	_, err := m.DB.ExecContext(ctx, setMetadata, key, value)
	if err != nil {
		log.Err(err).
			Str("func", "metadataRepository.Set").
			Str("key", key).
			Msg("failed to execute upsert for metadata")
		return fmt.Errorf("failed to set metadata (key=%s): %w", key, err)
	}

	return nil
}
