// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package adapter provides transport-layer abstractions for communicating with
// the dashboard sync server.
//
// The primary abstraction is [ServerAdapter], which decouples the sync engine
// from the underlying protocol. The package ships an HTTP/REST implementation
// ([NewHTTPServerAdapter]).
//
// Error values defined in errors.go are mapped from HTTP status codes by
// mapHTTPError so that callers can use [errors.Is] for transport-agnostic error
// handling (e.g. [ErrRejected] for 409, [ErrUnauthorized] for 401).
package adapter

import (
	"context"
	"time"

	"github.com/MKhiriev/go-dash-sync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/server_adapter_mock.go -package=mock

// ServerAdapter defines transport-agnostic communication with the dashboard
// sync server. Implementations are responsible for serialisation,
// authentication header management, and mapping transport-level errors to the
// sentinel values defined in this package.
type ServerAdapter interface {
	// SetToken stores the bearer token that will be attached to all subsequent
	// authenticated requests.
	SetToken(token string)

	// Token returns the bearer token currently stored in the adapter, or an
	// empty string if no token has been set yet.
	Token() string

	// Push uploads a single record (including tombstones) to the server.
	// Returns [ErrRejected] (wrapped) if the server refuses the record, or
	// another error if the request fails.
	Push(ctx context.Context, record models.SyncableRecord) error

	// Pull fetches all records modified on the server after since. A zero
	// since fetches the full record set. Returns an error if the request
	// fails or the response cannot be decoded.
	Pull(ctx context.Context, since time.Time) ([]models.SyncableRecord, error)

	// Ping probes the server health endpoint. A nil return means the server
	// is reachable and answering; any error means it is not.
	Ping(ctx context.Context) error
}
