package handlers

import (
	"context"
	"net/http"

	"github.com/dvloznov/finance-insights/internal/api/middleware"
	"github.com/dvloznov/finance-insights/internal/insights"
	"github.com/rs/zerolog"
)

// ReportGenerator produces an insights report for a user.
type ReportGenerator interface {
	Generate(ctx context.Context, userID string) (*insights.Report, error)
}

// InsightsHandler serves the advanced insights report.
type InsightsHandler struct {
	engine ReportGenerator
	log    zerolog.Logger
}

// NewInsightsHandler creates a new insights handler.
func NewInsightsHandler(engine ReportGenerator, log zerolog.Logger) *InsightsHandler {
	return &InsightsHandler{
		engine: engine,
		log:    log,
	}
}

// GetAdvancedInsights handles GET /api/insights/advanced
func (h *InsightsHandler) GetAdvancedInsights(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	report, err := h.engine.Generate(r.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to generate insights")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to generate insights")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, report)
}
