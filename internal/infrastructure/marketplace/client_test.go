package marketplace

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deploybot/internal/domain/entity"
)

func TestFormatMicroUnits(t *testing.T) {
	cases := map[int64]string{
		0:          "0",
		6_000_000:  "6",
		15_250_000: "15.25",
		1:          "0.000001",
		-2_500_000: "-2.5",
	}
	for micro, want := range cases {
		assert.Equal(t, want, FormatMicroUnits(micro), "micro: %d", micro)
	}
}

func TestSubmitManifest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/deployments", r.URL.Path)

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req["manifest"], "services:")

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{"lease_id": "lease-1", "status": "created"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", 5*time.Second)
	receipt, err := c.SubmitManifest(context.Background(), "services:\n  py-cuda: {}\n")
	require.NoError(t, err)
	assert.Equal(t, "lease-1", receipt.LeaseID)
}

func TestSubmitManifestAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "insufficient balance", http.StatusPaymentRequired)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", 5*time.Second)
	_, err := c.SubmitManifest(context.Background(), "services: {}\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "402")
}

func TestGetBalance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/balance", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]int64{"micro": 15_250_000})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", 5*time.Second)
	balance, err := c.GetBalance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entity.PricingToken, balance.Token)
	assert.Equal(t, "15.25", balance.Amount)
}
