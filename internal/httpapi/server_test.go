package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moneta/internal/services"
	"moneta/internal/storage"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "moneta.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	reports := services.NewReportingService(repo)
	t.Cleanup(reports.Close)

	srv := NewServer(":0", Services{
		Accounts:   services.NewAccountService(repo),
		Categories: services.NewCategoryService(repo),
		Operations: services.NewOperationService(repo),
		Transfers:  services.NewTransferService(repo),
		Reminders:  services.NewReminderService(repo, nil, nil),
		Reports:    reports,
	})
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealthEndpoints(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/readyz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAccountLifecycleOverHTTP(t *testing.T) {
	ts := newTestServer(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/accounts", map[string]any{
		"name": "Checking", "balance_cents": 12500,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[accountPayload](t, resp)
	assert.Equal(t, "Checking", created.Name)
	assert.Equal(t, int64(12500), created.BalanceCents)

	// Listing includes the virtual total account first.
	resp = doJSON(t, http.MethodGet, ts.URL+"/accounts", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	accounts := decodeBody[[]accountPayload](t, resp)
	require.Len(t, accounts, 2)
	assert.Equal(t, int64(0), accounts[0].ID)
	assert.Equal(t, int64(12500), accounts[0].BalanceCents)

	resp = doJSON(t, http.MethodPatch, fmt.Sprintf("%s/accounts/%d", ts.URL, created.ID), map[string]any{
		"name": "Daily",
	})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/accounts/%d", ts.URL, created.ID), nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, fmt.Sprintf("%s/accounts/%d", ts.URL, created.ID), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestErrorStatusMapping(t *testing.T) {
	ts := newTestServer(t)

	// Validation failure: empty name.
	resp := doJSON(t, http.MethodPost, ts.URL+"/accounts", map[string]any{"name": ""})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, ts.URL+"/accounts", map[string]any{"name": "Main"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Name collision.
	resp = doJSON(t, http.MethodPost, ts.URL+"/accounts", map[string]any{"name": "Main"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Unknown entity.
	resp = doJSON(t, http.MethodGet, ts.URL+"/operations/9999", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Malformed body.
	req, err := http.NewRequest(http.MethodPost, ts.URL+"/accounts", bytes.NewBufferString("{"))
	require.NoError(t, err)
	raw, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	raw.Body.Close()
	assert.Equal(t, http.StatusBadRequest, raw.StatusCode)

	// Invalid path id.
	resp = doJSON(t, http.MethodGet, ts.URL+"/accounts/abc", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestOperationOverHTTPMovesBalance(t *testing.T) {
	ts := newTestServer(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/accounts", map[string]any{"name": "Main"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	account := decodeBody[accountPayload](t, resp)

	resp = doJSON(t, http.MethodPost, ts.URL+"/categories", map[string]any{
		"name": "Groceries", "type": "EXPENSE",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	category := decodeBody[categoryPayload](t, resp)

	resp = doJSON(t, http.MethodPost, ts.URL+"/operations", map[string]any{
		"category_id":  category.ID,
		"account_id":   account.ID,
		"amount_cents": 500,
		"date":         "2026-04-10T12:00:00Z",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Decimal string amounts are accepted as an alternative to cents.
	resp = doJSON(t, http.MethodPost, ts.URL+"/operations", map[string]any{
		"category_id": category.ID,
		"account_id":  account.ID,
		"amount":      "2.50",
		"date":        "2026-04-11T12:00:00Z",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, fmt.Sprintf("%s/accounts/%d", ts.URL, account.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeBody[accountPayload](t, resp)
	assert.Equal(t, int64(-750), got.BalanceCents)
}

func TestMonthlyReportOverHTTP(t *testing.T) {
	ts := newTestServer(t)

	resp := doJSON(t, http.MethodGet, ts.URL+"/reports/monthly", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	series := decodeBody[[]monthTotalsPayload](t, resp)
	assert.Len(t, series, 12)
}
