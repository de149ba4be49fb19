package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

func newTestRepository(t *testing.T, handler http.HandlerFunc) *GoogleSheetRepository {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	service, err := sheetsapi.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
		option.WithoutAuthentication())
	require.NoError(t, err)

	return &GoogleSheetRepository{service: service, spreadsheetID: "ledger-1", logger: zap.NewNop()}
}

func TestGoogleSheetRepository_AppendRows(t *testing.T) {
	var got sheetsapi.ValueRange
	var calls int
	repo := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, http.MethodPost, r.Method)
		assert.True(t, strings.HasPrefix(r.URL.Path, "/v4/spreadsheets/ledger-1/values/"), r.URL.Path)
		assert.True(t, strings.HasSuffix(r.URL.Path, ":append"), r.URL.Path)
		assert.Equal(t, "USER_ENTERED", r.URL.Query().Get("valueInputOption"))
		assert.Equal(t, "INSERT_ROWS", r.URL.Query().Get("insertDataOption"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"spreadsheetId":"ledger-1"}`))
	})

	rows := [][]interface{}{
		{"2026-03-01 09:30:00", "ORD-1", "m1", "Napa", "Beximco", 2, "2.5", "5"},
		{"2026-03-01 09:30:00", "ORD-1", "m2", "Seclo", "Square", 1, "8", "8"},
	}
	require.NoError(t, repo.AppendRows(context.Background(), "Orders!A:H", rows))
	assert.Equal(t, 1, calls, "all rows go out in one call")
	require.Len(t, got.Values, 2)
	assert.Equal(t, "ORD-1", got.Values[0][1])
}

func TestGoogleSheetRepository_AppendRowsGuards(t *testing.T) {
	repo := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request to %s", r.URL.Path)
	})

	assert.Error(t, repo.AppendRows(context.Background(), "", [][]interface{}{{"x"}}))
	assert.NoError(t, repo.AppendRows(context.Background(), "Orders!A:H", nil))
}

func TestGoogleSheetRepository_AppendRowsError(t *testing.T) {
	repo := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"The caller does not have permission"}}`))
	})

	err := repo.AppendRows(context.Background(), "Orders!A:H", [][]interface{}{{"x"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Orders!A:H")
}
