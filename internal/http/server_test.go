package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loadbook/internal/services"
	"loadbook/internal/storage"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "loadbook.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	srv := NewServer(Config{Addr: ":0", CORSAllowedOrigins: []string{"*"}},
		services.NewLoadService(repo, nil),
		services.NewExpenseService(repo, nil),
		services.NewDirectoryService(repo, repo),
		services.NewReportService(repo, repo, repo),
		services.NewExportService(repo, repo, repo, repo, repo),
	)
	ts := httptest.NewServer(srv.Server.Handler)
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, []byte) {
	t.Helper()
	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, buf)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp, data
}

func createLoad(t *testing.T, ts *httptest.Server, number string) int64 {
	t.Helper()
	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/loads", map[string]any{
		"load_number":        number,
		"shipper_id":         1,
		"pickup_date":        "2025-08-01T08:00:00Z",
		"delivery_date":      "2025-08-03T08:00:00Z",
		"freight_rate_cents": 150000,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var got struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(body, &got))
	require.NotZero(t, got.ID)
	return got.ID
}

func TestCreateLoadReturnsNextAction(t *testing.T) {
	ts := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/loads", map[string]any{
		"load_number":        "L-1001",
		"shipper_id":         1,
		"pickup_date":        "2025-08-01T08:00:00Z",
		"delivery_date":      "2025-08-03T08:00:00Z",
		"freight_rate_cents": 150000,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var got struct {
		Status     string `json:"status"`
		NextAction struct {
			Label          string `json:"label"`
			Visible        bool   `json:"visible"`
			InvoiceVisible bool   `json:"invoice_visible"`
		} `json:"next_action"`
	}
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "Planned", got.Status)
	assert.Equal(t, "Start Load", got.NextAction.Label)
	assert.True(t, got.NextAction.Visible)
	assert.False(t, got.NextAction.InvoiceVisible)
}

func TestCreateLoadValidation(t *testing.T) {
	ts := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/loads", map[string]any{
		"load_number":   "",
		"shipper_id":    1,
		"pickup_date":   "2025-08-01T08:00:00Z",
		"delivery_date": "2025-08-03T08:00:00Z",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, string(body))
}

func TestCreateLoadDateWarning(t *testing.T) {
	ts := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/loads", map[string]any{
		"load_number":   "L-1002",
		"shipper_id":    1,
		"pickup_date":   "2025-08-10T08:00:00Z",
		"delivery_date": "2025-08-01T08:00:00Z",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var got struct {
		DeliveryDate string   `json:"delivery_date"`
		Warnings     []string `json:"warnings"`
	}
	require.NoError(t, json.Unmarshal(body, &got))
	require.Len(t, got.Warnings, 1)
	assert.Equal(t, "2025-08-11T08:00:00Z", got.DeliveryDate)
}

func TestLoadLifecycleEndpoints(t *testing.T) {
	ts := newTestServer(t)
	id := createLoad(t, ts, "L-2001")
	base := fmt.Sprintf("%s/api/loads/%d", ts.URL, id)

	resp, body := doJSON(t, http.MethodPost, base+"/start", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var got struct {
		Status           string  `json:"status"`
		ActualPickupTime *string `json:"actual_pickup_time"`
	}
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "In Progress", got.Status)
	assert.NotNil(t, got.ActualPickupTime)

	// Completing twice: second attempt is a validation error.
	resp, _ = doJSON(t, http.MethodPost, base+"/complete", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = doJSON(t, http.MethodPost, base+"/complete", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, body = doJSON(t, http.MethodPost, base+"/invoice", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "Invoiced", got.Status)

	// Re-invoicing is allowed.
	resp, _ = doJSON(t, http.MethodPost, base+"/invoice", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCancelRequiresConfirm(t *testing.T) {
	ts := newTestServer(t)
	id := createLoad(t, ts, "L-3001")
	base := fmt.Sprintf("%s/api/loads/%d", ts.URL, id)

	resp, _ := doJSON(t, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, body := doJSON(t, http.MethodDelete, base+"?confirm=true", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var got struct {
		Cancelled bool `json:"cancelled"`
	}
	require.NoError(t, json.Unmarshal(body, &got))
	assert.True(t, got.Cancelled)

	// Hidden from the default list, visible with all=true.
	resp, body = doJSON(t, http.MethodGet, ts.URL+"/api/loads", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var loads []json.RawMessage
	require.NoError(t, json.Unmarshal(body, &loads))
	assert.Empty(t, loads)

	resp, body = doJSON(t, http.MethodGet, ts.URL+"/api/loads?all=true", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &loads))
	assert.Len(t, loads, 1)
}

func TestStatusOverride(t *testing.T) {
	ts := newTestServer(t)
	id := createLoad(t, ts, "L-4001")
	base := fmt.Sprintf("%s/api/loads/%d", ts.URL, id)

	resp, body := doJSON(t, http.MethodPut, base+"/status", map[string]any{"status": "Active"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var got struct {
		Status           string  `json:"status"`
		ActualPickupTime *string `json:"actual_pickup_time"`
	}
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "In Progress", got.Status)
	assert.Nil(t, got.ActualPickupTime, "override must not stamp timestamps")

	resp, _ = doJSON(t, http.MethodPut, base+"/status", map[string]any{"status": "Teleported"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestExpenseEndpoints(t *testing.T) {
	ts := newTestServer(t)
	id := createLoad(t, ts, "L-5001")

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/expenses", map[string]any{
		"load_id":      id,
		"category":     "Fuel",
		"amount_cents": 25000,
		"date":         "2025-08-02T00:00:00Z",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var exp struct {
		ID      int64  `json:"id"`
		Kind    string `json:"kind"`
		Summary string `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(body, &exp))
	assert.Equal(t, "fuel", exp.Kind)
	assert.Equal(t, "Fuel Purchase on 8/2/2025", exp.Summary)

	// Unknown category resolves to general.
	resp, body = doJSON(t, http.MethodPost, ts.URL+"/api/expenses", map[string]any{
		"load_id":      id,
		"category":     "Toll",
		"amount_cents": 2500,
		"date":         "2025-08-02T00:00:00Z",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	require.NoError(t, json.Unmarshal(body, &exp))
	assert.Equal(t, "general", exp.Kind)
	assert.Equal(t, "Toll on 8/2/2025", exp.Summary)

	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/api/expenses", map[string]any{
		"category":     "Fuel",
		"amount_cents": -5,
		"date":         "2025-08-02T00:00:00Z",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, body = doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/loads/%d/expenses", ts.URL, id), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []json.RawMessage
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Len(t, list, 2)
}

func TestDashboardAndSettlement(t *testing.T) {
	ts := newTestServer(t)
	id := createLoad(t, ts, "L-6001")
	base := fmt.Sprintf("%s/api/loads/%d", ts.URL, id)
	doJSON(t, http.MethodPost, base+"/start", nil)
	doJSON(t, http.MethodPost, base+"/complete", nil)

	doJSON(t, http.MethodPost, ts.URL+"/api/expenses", map[string]any{
		"load_id":      id,
		"category":     "Fuel",
		"amount_cents": 25000,
		"date":         "2025-08-02T00:00:00Z",
	})

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/api/dashboard/kpis", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var kpi struct {
		ActualRevenue int64 `json:"actual_revenue_cents"`
		TotalExpenses int64 `json:"total_expenses_cents"`
	}
	require.NoError(t, json.Unmarshal(body, &kpi))
	// The KPI window is the current month; the fixture dates are fixed, so we
	// only assert the endpoint computes without error here. The window math
	// itself is covered in core.

	url := ts.URL + "/api/reports/settlement?start=2025-08-01&end=2025-08-31"
	resp, body = doJSON(t, http.MethodGet, url, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var rep struct {
		TotalRevenue  int64 `json:"total_revenue_cents"`
		TotalExpenses int64 `json:"total_expenses_cents"`
		NetPay        int64 `json:"net_pay_cents"`
		Groups        []struct {
			LoadNumber string `json:"load_number"`
		} `json:"groups"`
	}
	require.NoError(t, json.Unmarshal(body, &rep))
	assert.Equal(t, int64(150000), rep.TotalRevenue)
	assert.Equal(t, int64(25000), rep.TotalExpenses)
	assert.Equal(t, int64(125000), rep.NetPay)
	require.Len(t, rep.Groups, 1)
	assert.Equal(t, "L-6001", rep.Groups[0].LoadNumber)

	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/api/reports/settlement?start=2025-08-31&end=2025-08-01", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, body = doJSON(t, http.MethodGet, ts.URL+"/api/reports/settlement.xlsx?start=2025-08-01&end=2025-08-31", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		resp.Header.Get("Content-Type"))
	assert.NotEmpty(t, body)
}

func TestSettlementRangeDefaults(t *testing.T) {
	ts := newTestServer(t)

	// No range means the trailing 7 days.
	resp, body := doJSON(t, http.MethodGet, ts.URL+"/api/reports/settlement", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var rep struct {
		Start time.Time `json:"start"`
		End   time.Time `json:"end"`
	}
	require.NoError(t, json.Unmarshal(body, &rep))
	assert.Equal(t, 7*24*time.Hour, rep.End.Sub(rep.Start))

	// A lone parameter is an error, not a half-default.
	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/api/reports/settlement?start=2025-08-01", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestProfileRoundTrip(t *testing.T) {
	ts := newTestServer(t)

	// Unsaved profile renders empty, not 404.
	resp, body := doJSON(t, http.MethodGet, ts.URL+"/api/profile", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	resp, _ = doJSON(t, http.MethodPut, ts.URL+"/api/profile", map[string]any{
		"user_name":    "Jo Driver",
		"company_name": "Jo Trucking LLC",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = doJSON(t, http.MethodGet, ts.URL+"/api/profile", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var p struct {
		CompanyName string `json:"company_name"`
	}
	require.NoError(t, json.Unmarshal(body, &p))
	assert.Equal(t, "Jo Trucking LLC", p.CompanyName)
}

func TestExportImport(t *testing.T) {
	ts := newTestServer(t)
	id := createLoad(t, ts, "L-7001")
	doJSON(t, http.MethodPost, ts.URL+"/api/expenses", map[string]any{
		"load_id":      id,
		"category":     "Fuel",
		"amount_cents": 25000,
		"date":         "2025-08-02T00:00:00Z",
	})

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/api/export", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var data map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body, &data))

	// Replace without confirm is refused.
	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/api/import?replace=true", map[string]any{})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	var backup any
	require.NoError(t, json.Unmarshal(body, &backup))
	resp, body = doJSON(t, http.MethodPost, ts.URL+"/api/import?replace=true&confirm=true", backup)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var res struct {
		Loads    int `json:"loads"`
		Expenses int `json:"expenses"`
	}
	require.NoError(t, json.Unmarshal(body, &res))
	assert.Equal(t, 1, res.Loads)
	assert.Equal(t, 1, res.Expenses)

	resp, body = doJSON(t, http.MethodGet, ts.URL+"/api/loads", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var loads []struct {
		LoadNumber string `json:"load_number"`
	}
	require.NoError(t, json.Unmarshal(body, &loads))
	require.Len(t, loads, 1)
	assert.Equal(t, "L-7001", loads[0].LoadNumber)
}

func TestNotFoundMapsTo404(t *testing.T) {
	ts := newTestServer(t)
	resp, _ := doJSON(t, http.MethodGet, ts.URL+"/api/loads/999", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/api/expenses/999", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
