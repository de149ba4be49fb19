package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/medimart-cart/internal/config"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/products/m1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{"_id":"m1","name":"Napa","company":"Beximco","price":12.5,"stock":30,"image":"napa.png","description":"Paracetamol 500mg","category":"tablet"}}`))
	})
	mux.HandleFunc("/products/gone", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"success":false,"message":"Medicine not found"}`))
	})
	mux.HandleFunc("/products/soft-miss", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":false,"message":"Medicine not found"}`))
	})
	mux.HandleFunc("/products/broken", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success":false,"message":"database offline"}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestAPIClient_GetProduct(t *testing.T) {
	srv := newTestServer(t)
	client := NewClient(config.CatalogConfig{BaseURL: srv.URL + "/", Token: "secret"})
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		p, err := client.GetProduct(ctx, "m1")
		require.NoError(t, err)
		assert.Equal(t, "Napa", p.Name)
		assert.Equal(t, "Beximco", p.Company)
		assert.Equal(t, "12.5", p.Price.String())
		assert.Equal(t, 30, p.Stock)
	})

	t.Run("404", func(t *testing.T) {
		_, err := client.GetProduct(ctx, "gone")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("unsuccessful envelope", func(t *testing.T) {
		_, err := client.GetProduct(ctx, "soft-miss")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("server error", func(t *testing.T) {
		_, err := client.GetProduct(ctx, "broken")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrNotFound)
		assert.Contains(t, err.Error(), "database offline")
	})

	t.Run("empty id", func(t *testing.T) {
		_, err := client.GetProduct(ctx, "")
		assert.Error(t, err)
	})
}
