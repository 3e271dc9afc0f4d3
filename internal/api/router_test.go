package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/finance-insights/internal/api/handlers"
	"github.com/dvloznov/finance-insights/internal/api/middleware"
	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/dvloznov/finance-insights/internal/insights"
	"github.com/dvloznov/finance-insights/internal/jobs"
	"github.com/dvloznov/finance-insights/internal/jobs/inmemory"
	"github.com/dvloznov/finance-insights/internal/metrics"
	"github.com/dvloznov/finance-insights/internal/receipts"
	"github.com/dvloznov/finance-insights/internal/store/memory"
)

type testServer struct {
	handler  http.Handler
	store    *memory.Store
	jobStore *inmemory.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := zerolog.Nop()
	s := memory.New()
	now := time.Now().UTC()

	s.AddAccounts(domain.Account{ID: "chk", UserID: "u1", Name: "Checking", Type: "depository", CurrentBalance: 1800, Currency: "GBP"})
	require.NoError(t, s.InsertTransactions(context.Background(), []domain.Transaction{
		{ID: "pay", UserID: "u1", AccountID: "chk", Amount: 2500, Currency: "GBP", Date: now.AddDate(0, 0, -3), Name: "ACME PAYROLL", Category: []string{"Income"}},
		{ID: "rent", UserID: "u1", AccountID: "chk", Amount: -900, Currency: "GBP", Date: now.AddDate(0, 0, -2), Name: "Rent", Category: []string{"Rent"}},
		{ID: "old", UserID: "u1", AccountID: "chk", Amount: -20, Currency: "GBP", Date: now.AddDate(0, 0, -400), Name: "Old", Category: []string{"Shops"}},
		{ID: "other", UserID: "u2", AccountID: "x", Amount: -5, Currency: "USD", Date: now.AddDate(0, 0, -1), Name: "Other user"},
	}))

	jobStore := inmemory.NewStore()
	queue := inmemory.NewQueue(jobStore, inmemory.QueueOptions{BufferSize: 10})
	t.Cleanup(func() { _ = queue.Close() })

	engine := insights.NewEngine(
		insights.NewLoader(s, s, s),
		insights.NewAnalyzer(insights.DefaultConfig(), nil),
		"USD", log,
	)
	scanner := receipts.NewScanner(receipts.NewMemoryStorage(), nil, s, "USD", log)

	h := Handlers{
		Insights:     handlers.NewInsightsHandler(engine, log),
		Accounts:     handlers.NewAccountsHandler(s, log),
		Transactions: handlers.NewTransactionsHandler(s, log),
		Goals:        handlers.NewGoalsHandler(s, log),
		Receipts:     handlers.NewReceiptsHandler(scanner, queue, 16, log),
		Jobs:         handlers.NewJobsHandler(jobStore, log),
	}
	return &testServer{
		handler:  NewRouter(h, log, RouterOptions{CORSOrigins: []string{"*"}, Metrics: metrics.New()}),
		store:    s,
		jobStore: jobStore,
	}
}

func (ts *testServer) do(t *testing.T, method, path, userID string, body io.Reader, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if userID != "" {
		req.Header.Set(middleware.UserIDHeader, userID)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestRouter_PublicEndpoints(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))

	rec = ts.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "finsight_http_requests_total")
}

func TestRouter_RequiresUser(t *testing.T) {
	ts := newTestServer(t)
	for _, path := range []string{"/api/insights/advanced", "/api/accounts", "/api/goals", "/api/jobs"} {
		rec := ts.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestRouter_Insights(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/api/insights/advanced", "/insights/advanced"} {
		rec := ts.do(t, http.MethodGet, path, "u1", nil)
		require.Equal(t, http.StatusOK, rec.Code, path)

		var report map[string]json.RawMessage
		decode(t, rec, &report)
		for _, key := range []string{"trendInsights", "monthlyExpenses", "predictions", "recommendations", "anomalies", "goalInsights", "summary"} {
			assert.Contains(t, report, key)
		}
		assert.JSONEq(t, `"GBP"`, string(report["currency"]))

		var summary insights.Summary
		require.NoError(t, json.Unmarshal(report["summary"], &summary))
		assert.Equal(t, 2500.0, summary.Income30)
		assert.Equal(t, 900.0, summary.Expenses30)
	}

	rec := ts.do(t, http.MethodPost, "/api/insights/advanced", "u1", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRouter_AccountsAndTransactions(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/accounts", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var accounts struct {
		Accounts []domain.Account `json:"accounts"`
		Count    int              `json:"count"`
	}
	decode(t, rec, &accounts)
	assert.Equal(t, 1, accounts.Count)
	assert.Equal(t, "chk", accounts.Accounts[0].ID)

	rec = ts.do(t, http.MethodGet, "/api/accounts", "nobody", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"accounts":[],"count":0}`, rec.Body.String())

	rec = ts.do(t, http.MethodGet, "/api/transactions", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var txs []domain.Transaction
	decode(t, rec, &txs)
	require.Len(t, txs, 2, "default window excludes transactions older than a year")
	assert.Equal(t, "rent", txs[0].ID)

	start := time.Now().UTC().AddDate(-2, 0, 0).Format("2006-01-02")
	rec = ts.do(t, http.MethodGet, "/api/transactions?start_date="+start, "u1", nil)
	decode(t, rec, &txs)
	assert.Len(t, txs, 3)

	rec = ts.do(t, http.MethodGet, "/api/transactions?start_date=yesterday", "u1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/transactions?start_date=2024-02-01&end_date=2024-01-01", "u1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_GoalsLifecycle(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/goals", "u1",
		strings.NewReader(`{"name":"Holiday","target_amount":1000,"current_amount":900,"deadline":"2030-06-01"}`))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var goal domain.Goal
	decode(t, rec, &goal)
	require.NotEmpty(t, goal.ID)
	assert.Equal(t, domain.GoalStatusActive, goal.Status)
	require.NotNil(t, goal.Deadline)
	assert.Equal(t, "2030-06-01", goal.Deadline.Format("2006-01-02"))

	rec = ts.do(t, http.MethodGet, "/api/goals/"+goal.ID, "u1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/goals/"+goal.ID, "u2", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "goals are scoped to their owner")

	rec = ts.do(t, http.MethodPut, "/api/goals/"+goal.ID, "u1", strings.NewReader(`{"name":"Summer holiday","monthly_contribution":50}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &goal)
	assert.Equal(t, "Summer holiday", goal.Name)
	assert.Equal(t, 1000.0, goal.TargetAmount)
	require.NotNil(t, goal.MonthlyContribution)

	rec = ts.do(t, http.MethodPut, "/api/goals/"+goal.ID, "u1", strings.NewReader(`{"target_amount":-5}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/goals/"+goal.ID+"/contribute", "u1", strings.NewReader(`{"amount":0}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/goals/"+goal.ID+"/contribute", "u1", strings.NewReader(`{"amount":150}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &goal)
	assert.Equal(t, 1050.0, goal.CurrentAmount)
	assert.Equal(t, domain.GoalStatusCompleted, goal.Status)

	rec = ts.do(t, http.MethodGet, "/api/goals/"+goal.ID+"/contribute", "u1", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/goals", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":1`)

	rec = ts.do(t, http.MethodDelete, "/api/goals/"+goal.ID, "u1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(t, http.MethodDelete, "/api/goals/"+goal.ID, "u1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_GoalValidation(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{`},
		{"missing name", `{"target_amount":100}`},
		{"zero target", `{"name":"x","target_amount":0}`},
		{"bad deadline", `{"name":"x","target_amount":10,"deadline":"next year"}`},
		{"bad status", `{"name":"x","target_amount":10,"status":"archived"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, "/api/goals", "u1", strings.NewReader(tt.body))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestRouter_ReceiptUploadQueuesJob(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/receipts?account_id=chk", "u1", bytes.NewReader([]byte("jpeg-bytes")), "Content-Type", "image/jpeg")
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	var resp map[string]string
	decode(t, rec, &resp)
	assert.Equal(t, string(jobs.JobStatusPending), resp["status"])
	assert.True(t, strings.HasPrefix(resp["object_name"], "receipts/u1/"))

	job, err := ts.jobStore.GetJob(context.Background(), resp["job_id"])
	require.NoError(t, err)
	assert.Equal(t, jobs.JobTypeScanReceipt, job.Type)
	var payload jobs.ScanReceiptPayload
	require.NoError(t, job.DecodePayload(&payload))
	assert.Equal(t, "chk", payload.AccountID)
	assert.Equal(t, "image/jpeg", payload.ContentType)

	rec = ts.do(t, http.MethodGet, "/api/jobs/"+job.JobID, "u1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = ts.do(t, http.MethodGet, "/api/jobs/"+job.JobID, "u2", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "jobs are scoped to their owner")

	rec = ts.do(t, http.MethodGet, "/api/jobs?type=scan_receipt", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":1`)

	rec = ts.do(t, http.MethodGet, "/api/jobs", "u2", nil)
	assert.Contains(t, rec.Body.String(), `"count":0`)
}

func TestRouter_ReceiptUploadRejections(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/receipts", "u1", strings.NewReader("<html>"), "Content-Type", "text/html")
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/receipts", "u1", bytes.NewReader(make([]byte, 64)), "Content-Type", "image/png")
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/receipts", "u1", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	list, err := ts.jobStore.ListJobs(context.Background(), jobs.JobFilter{UserID: "u1"})
	require.NoError(t, err)
	assert.Empty(t, list)
}
