package remote

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScriptClientAppendPostsOneRequest(t *testing.T) {
	var bodies [][]byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		bodies = append(bodies, body)
		// Fire-and-forget: the client must not care about this status.
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewScriptClient(srv.URL, nil)
	rows := [][]any{
		{"id_1", "Tank 1", 10, 5.0, 1, 1.8, "Team A", "2024-01-01T00:00:00Z", "Farm", "S1"},
	}

	require.NoError(t, client.Append(context.Background(), rows))
	require.Len(t, bodies, 1)

	var decoded [][]any
	require.NoError(t, json.Unmarshal(bodies[0], &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "id_1", decoded[0][0])
}

func TestScriptClientAppendTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	client := NewScriptClient(srv.URL, nil)
	err := client.Append(context.Background(), [][]any{{"id_1"}})
	assert.Error(t, err)
}

func TestScriptClientSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		_, _ = w.Write([]byte(`[["header"],["id_1","Tank 1","10","5.0","1","1.8","Team A","2024-01-01T00:00:00Z","Farm","S1"]]`))
	}))
	defer srv.Close()

	client := NewScriptClient(srv.URL, nil)
	rows, err := client.Snapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "id_1", rows[1][0])
}

func TestScriptClientSnapshotNotTabular(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"quota exceeded"}`))
	}))
	defer srv.Close()

	client := NewScriptClient(srv.URL, nil)
	_, err := client.Snapshot(context.Background())
	assert.ErrorIs(t, err, ErrBadSnapshot)
}
