// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package adapter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MKhiriev/go-dash-sync/internal/config"
	"github.com/MKhiriev/go-dash-sync/internal/logger"
	"github.com/MKhiriev/go-dash-sync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAdapter(t *testing.T, serverURL string) *httpServerAdapter {
	t.Helper()
	adapterCfg := config.Adapter{HTTPAddress: serverURL, RequestTimeout: 5 * time.Second}

	a, err := NewHTTPServerAdapter(adapterCfg, logger.Nop())
	require.NoError(t, err)
	return a.(*httpServerAdapter)
}

func testRecord() models.SyncableRecord {
	return models.SyncableRecord{
		ID:           "document_42",
		Type:         models.Document,
		Payload:      models.Payload{"title": "quarterly report"},
		LastModified: time.Now().UTC(),
		Version:      3,
		Owner:        "alice",
		OriginDevice: "device-1",
		SyncStatus:   models.StatusPending,
		ContentHash:  "abc123",
	}
}

// ── Push ────────────────────────────────────────────────────────────────────

func TestPush_Success(t *testing.T) {
	record := testRecord()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/sync/push", r.URL.Path)
		assert.Equal(t, "Bearer testtoken", r.Header.Get("Authorization"))

		var got models.SyncableRecord
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, record.ID, got.ID)
		assert.Equal(t, record.Version, got.Version)

		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	a := newTestAdapter(t, srv.URL)
	a.SetToken("testtoken")

	require.NoError(t, a.Push(context.Background(), record))
}

func TestPush_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte("server holds newer version"))
	}))
	defer srv.Close()

	a := newTestAdapter(t, srv.URL)
	err := a.Push(context.Background(), testRecord())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRejected)
}

func TestPush_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	a := newTestAdapter(t, srv.URL)
	err := a.Push(context.Background(), testRecord())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

// ── Pull ────────────────────────────────────────────────────────────────────

func TestPull_Success(t *testing.T) {
	since := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	remote := testRecord()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/sync/pull", r.URL.Path)
		assert.Equal(t, since.Format(time.RFC3339Nano), r.URL.Query().Get("since"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(pullResponse{Records: []models.SyncableRecord{remote}})
	}))
	defer srv.Close()

	a := newTestAdapter(t, srv.URL)
	records, err := a.Pull(context.Background(), since)

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, remote.ID, records[0].ID)
	assert.Equal(t, remote.Version, records[0].Version)
}

func TestPull_ZeroSince_OmitsQueryParam(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.False(t, r.URL.Query().Has("since"))
		_ = json.NewEncoder(w).Encode(pullResponse{})
	}))
	defer srv.Close()

	a := newTestAdapter(t, srv.URL)
	records, err := a.Pull(context.Background(), time.Time{})

	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestPull_MalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	a := newTestAdapter(t, srv.URL)
	_, err := a.Pull(context.Background(), time.Time{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode pull response")
}

func TestPull_InternalServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("internal server error"))
	}))
	defer srv.Close()

	a := newTestAdapter(t, srv.URL)
	_, err := a.Pull(context.Background(), time.Time{})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInternalServerError)
}

// ── Ping ────────────────────────────────────────────────────────────────────

func TestPing_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	a := newTestAdapter(t, srv.URL)
	require.NoError(t, a.Ping(context.Background()))
}

func TestPing_ServerDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	a := newTestAdapter(t, srv.URL)
	require.Error(t, a.Ping(context.Background()))
}

// ── normalizeBaseURL ────────────────────────────────────────────────────────

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "already normalised", raw: "http://localhost:8080", want: "http://localhost:8080"},
		{name: "missing scheme", raw: "localhost:8080", want: "http://localhost:8080"},
		{name: "trailing slash trimmed", raw: "https://sync.example.com/", want: "https://sync.example.com"},
		{name: "empty", raw: "", wantErr: true},
		{name: "whitespace only", raw: "   ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizeBaseURL(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
