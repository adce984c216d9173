// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

const (
	saveRecord = `
		INSERT INTO records (
			id,
			type,
			payload,
			last_modified,
			version,
			owner,
			origin_device,
			sync_status,
			content_hash
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			type          = excluded.type,
			payload       = excluded.payload,
			last_modified = excluded.last_modified,
			version       = excluded.version,
			owner         = excluded.owner,
			origin_device = excluded.origin_device,
			sync_status   = excluded.sync_status,
			content_hash  = excluded.content_hash;`

	getRecord = `
		SELECT
			id,
			type,
			payload,
			last_modified,
			version,
			owner,
			origin_device,
			sync_status,
			content_hash
		FROM records
		WHERE id = $1;`

	saveRecordIfVersion = `
		INSERT INTO records (
			id,
			type,
			payload,
			last_modified,
			version,
			owner,
			origin_device,
			sync_status,
			content_hash
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			type          = excluded.type,
			payload       = excluded.payload,
			last_modified = excluded.last_modified,
			version       = excluded.version,
			owner         = excluded.owner,
			origin_device = excluded.origin_device,
			sync_status   = excluded.sync_status,
			content_hash  = excluded.content_hash
		WHERE records.version = $10;`

	setRecordStatusIfVersion = `
		UPDATE records
		SET sync_status = $1
		WHERE id = $2 AND version = $3;`

	countRecords = `
		SELECT COUNT(*) FROM records;`

	countRecordsByStatus = `
		SELECT COUNT(*) FROM records WHERE sync_status = $1;`

	saveConflict = `
		INSERT INTO conflicts (
			id,
			record_id,
			local_record,
			remote_record,
			conflict_type,
			detected_at
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (record_id) DO UPDATE SET
			id            = excluded.id,
			local_record  = excluded.local_record,
			remote_record = excluded.remote_record,
			conflict_type = excluded.conflict_type,
			detected_at   = excluded.detected_at;`

	getConflict = `
		SELECT
			id,
			record_id,
			local_record,
			remote_record,
			conflict_type,
			detected_at
		FROM conflicts
		WHERE id = $1;`

	getAllConflicts = `
		SELECT
			id,
			record_id,
			local_record,
			remote_record,
			conflict_type,
			detected_at
		FROM conflicts
		ORDER BY detected_at;`

	deleteConflict = `
		DELETE FROM conflicts WHERE id = $1;`

	countConflicts = `
		SELECT COUNT(*) FROM conflicts;`

	getMetadata = `
		SELECT value FROM metadata WHERE key = $1;`

	setMetadata = `
		INSERT INTO metadata (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value;`
)
