// Package api assembles the HTTP routes and middleware of the insights service.
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/dvloznov/finance-insights/internal/api/handlers"
	"github.com/dvloznov/finance-insights/internal/api/middleware"
	"github.com/dvloznov/finance-insights/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Handlers groups the endpoint handlers served by the router.
// A nil Receipts handler disables receipt uploads.
type Handlers struct {
	Insights     *handlers.InsightsHandler
	Accounts     *handlers.AccountsHandler
	Transactions *handlers.TransactionsHandler
	Goals        *handlers.GoalsHandler
	Receipts     *handlers.ReceiptsHandler
	Jobs         *handlers.JobsHandler
}

// RouterOptions configures the middleware chain.
type RouterOptions struct {
	CORSOrigins []string
	Metrics     *metrics.Metrics
}

func methodNotAllowed(w http.ResponseWriter) {
	middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
}

// NewRouter registers every route and wraps the mux in the middleware chain.
func NewRouter(h Handlers, log zerolog.Logger, opts RouterOptions) http.Handler {
	mux := http.NewServeMux()

	// Insights endpoints
	insightsRoute := func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			h.Insights.GetAdvancedInsights(w, r)
		} else {
			methodNotAllowed(w)
		}
	}
	mux.HandleFunc("/api/insights/advanced", insightsRoute)
	mux.HandleFunc("/insights/advanced", insightsRoute)

	// Accounts endpoints
	mux.HandleFunc("/api/accounts", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			h.Accounts.ListAccounts(w, r)
		} else {
			methodNotAllowed(w)
		}
	})

	// Transactions endpoints
	mux.HandleFunc("/api/transactions", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			h.Transactions.ListTransactions(w, r)
		} else {
			methodNotAllowed(w)
		}
	})

	// Goals endpoints
	mux.HandleFunc("/api/goals", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			h.Goals.ListGoals(w, r)
		case http.MethodPost:
			h.Goals.CreateGoal(w, r)
		default:
			methodNotAllowed(w)
		}
	})

	mux.HandleFunc("/api/goals/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/goals/"), "/")
		goalID, action, _ := strings.Cut(rest, "/")
		if goalID == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Goal ID is required")
			return
		}

		switch {
		case action == "contribute":
			if r.Method == http.MethodPost {
				h.Goals.Contribute(w, r, goalID)
			} else {
				methodNotAllowed(w)
			}
		case action != "":
			middleware.WriteError(w, http.StatusNotFound, "Not found")
		case r.Method == http.MethodGet:
			h.Goals.GetGoal(w, r, goalID)
		case r.Method == http.MethodPut:
			h.Goals.UpdateGoal(w, r, goalID)
		case r.Method == http.MethodDelete:
			h.Goals.DeleteGoal(w, r, goalID)
		default:
			methodNotAllowed(w)
		}
	})

	// Receipts endpoints
	mux.HandleFunc("/api/receipts", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		if h.Receipts == nil {
			middleware.WriteError(w, http.StatusServiceUnavailable, "Receipt scanning is not configured")
			return
		}
		h.Receipts.UploadReceipt(w, r)
	})

	// Jobs endpoints
	mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			h.Jobs.ListJobs(w, r)
		} else {
			methodNotAllowed(w)
		}
	})

	mux.HandleFunc("/api/jobs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
			if jobID == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
				return
			}
			h.Jobs.GetJob(w, r, jobID)
		} else {
			methodNotAllowed(w)
		}
	})

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	mux.Handle("/metrics", promhttp.Handler())

	return middleware.Recovery(log)(
		middleware.RequestID(
			middleware.Logger(log)(
				middleware.Metrics(opts.Metrics)(
					middleware.CORS(opts.CORSOrigins)(
						middleware.Auth("/health", "/metrics")(mux),
					),
				),
			),
		),
	)
}
