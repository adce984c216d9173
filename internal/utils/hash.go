// Package utils provides general-purpose helper utilities used across
// different parts of the application: payload content hashing and
// identifier generation.
package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/MKhiriev/go-dash-sync/models"
)

// ContentHash computes the SHA-256 digest of the canonical JSON encoding
// of payload and returns it hex-encoded.
//
// encoding/json marshals map keys in sorted order, so two payloads with
// equal contents always produce the same digest regardless of insertion
// order. The digest is used to detect no-op writes and to fingerprint
// merge results.
//
// A nil payload is a deletion tombstone and always hashes to
// [models.TombstoneHash].
func ContentHash(payload models.Payload) string {
	if payload == nil {
		return models.TombstoneHash
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		// Payloads come from JSON storage or the wire, so they are
		// always marshalable; hash the error text as a fallback
		// rather than panic in a hashing helper.
		encoded = []byte(err.Error())
	}

	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:])
}
