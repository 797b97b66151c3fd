package pinata_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"custody/internal/adapters/out/pinata"
	"custody/internal/core/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Upload(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/pinning/pinJSONToIPFS", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"IpfsHash":"bafy123","PinSize":42,"Timestamp":"2025-05-01T10:00:00Z"}`))
	}))
	defer srv.Close()

	c := pinata.New(srv.URL+"/", "secret")
	id, err := c.Upload(t.Context(), ports.AnchorRequest{
		IdempotencyKey: "sha256:abc",
		OrderID:        "order-1",
		Track: []ports.HopView{
			{Owner: "seller", ReceiveStatus: true},
			{Owner: "buyer", GiveStatus: true},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "bafy123", id)

	content, ok := got["pinataContent"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "order-1", content["order_id"])
	track, ok := content["track"].([]any)
	require.True(t, ok)
	require.Len(t, track, 2)
	assert.Equal(t, map[string]any{"owner": "seller", "receive_status": true, "give_status": false}, track[0])

	meta, ok := got["pinataMetadata"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "custody-order-1", meta["name"])
	assert.Equal(t, map[string]any{"idempotency_key": "sha256:abc"}, meta["keyvalues"])
}

func TestClient_Upload_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := pinata.New(srv.URL, "bad").Upload(t.Context(), ports.AnchorRequest{OrderID: "order-1"})

	var statusErr *pinata.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	assert.Contains(t, statusErr.Body, "invalid credentials")
}

func TestClient_Upload_HonoursContextDeadline(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(t.Context(), 50*time.Millisecond)
	defer cancel()

	_, err := pinata.New(srv.URL, "").Upload(ctx, ports.AnchorRequest{OrderID: "order-1"})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
