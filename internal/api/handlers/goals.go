package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dvloznov/finance-insights/internal/api/middleware"
	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/dvloznov/finance-insights/internal/store"
	"github.com/rs/zerolog"
)

// GoalsHandler handles savings goal endpoints.
type GoalsHandler struct {
	repo store.GoalRepository
	log  zerolog.Logger
}

// NewGoalsHandler creates a new goals handler.
func NewGoalsHandler(repo store.GoalRepository, log zerolog.Logger) *GoalsHandler {
	return &GoalsHandler{
		repo: repo,
		log:  log,
	}
}

// goalRequest is the body of create and update calls. Nil fields are left unchanged on update.
type goalRequest struct {
	Name                *string  `json:"name"`
	TargetAmount        *float64 `json:"target_amount"`
	CurrentAmount       *float64 `json:"current_amount"`
	MonthlyContribution *float64 `json:"monthly_contribution"`
	Status              *string  `json:"status"`
	// Deadline is YYYY-MM-DD or RFC 3339; an empty string clears it.
	Deadline *string `json:"deadline"`
}

func parseDeadline(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(dateFormat, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, errors.New("deadline must be YYYY-MM-DD")
	}
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &d, nil
}

// apply copies the set fields of req onto g.
func (req goalRequest) apply(g *domain.Goal) error {
	if req.Name != nil {
		g.Name = strings.TrimSpace(*req.Name)
	}
	if req.TargetAmount != nil {
		g.TargetAmount = *req.TargetAmount
	}
	if req.CurrentAmount != nil {
		g.CurrentAmount = *req.CurrentAmount
	}
	if req.MonthlyContribution != nil {
		v := *req.MonthlyContribution
		g.MonthlyContribution = &v
	}
	if req.Status != nil {
		g.Status = domain.GoalStatus(*req.Status)
	}
	if req.Deadline != nil {
		d, err := parseDeadline(*req.Deadline)
		if err != nil {
			return err
		}
		g.Deadline = d
	}
	return g.Validate()
}

func decodeGoalRequest(w http.ResponseWriter, r *http.Request) (goalRequest, bool) {
	var req goalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return req, false
	}
	return req, true
}

// writeGoalError maps repository errors to responses.
func (h *GoalsHandler) writeGoalError(w http.ResponseWriter, err error, goalID, action string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		middleware.WriteError(w, http.StatusNotFound, "Goal not found")
	case errors.Is(err, domain.ErrInvalidGoal):
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		h.log.Error().Err(err).Str("goal_id", goalID).Msg("Failed to " + action + " goal")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to "+action+" goal")
	}
}

// ListGoals handles GET /api/goals
func (h *GoalsHandler) ListGoals(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	goals, err := h.repo.ListGoals(r.Context(), userID)
	if err != nil {
		h.writeGoalError(w, err, "", "list")
		return
	}
	if goals == nil {
		goals = []domain.Goal{}
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"goals": goals,
		"count": len(goals),
	})
}

// CreateGoal handles POST /api/goals
func (h *GoalsHandler) CreateGoal(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	req, ok := decodeGoalRequest(w, r)
	if !ok {
		return
	}

	goal := &domain.Goal{UserID: userID, Status: domain.GoalStatusActive}
	if err := req.apply(goal); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.repo.CreateGoal(r.Context(), goal); err != nil {
		h.writeGoalError(w, err, "", "create")
		return
	}

	h.log.Info().Str("user_id", userID).Str("goal_id", goal.ID).Msg("Goal created")
	middleware.WriteJSON(w, http.StatusCreated, goal)
}

// GetGoal handles GET /api/goals/{id}
func (h *GoalsHandler) GetGoal(w http.ResponseWriter, r *http.Request, goalID string) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	goal, err := h.repo.GetGoal(r.Context(), userID, goalID)
	if err != nil {
		h.writeGoalError(w, err, goalID, "get")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, goal)
}

// UpdateGoal handles PUT /api/goals/{id}
func (h *GoalsHandler) UpdateGoal(w http.ResponseWriter, r *http.Request, goalID string) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	req, ok := decodeGoalRequest(w, r)
	if !ok {
		return
	}

	goal, err := h.repo.GetGoal(r.Context(), userID, goalID)
	if err != nil {
		h.writeGoalError(w, err, goalID, "update")
		return
	}
	if err := req.apply(goal); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.repo.UpdateGoal(r.Context(), goal); err != nil {
		h.writeGoalError(w, err, goalID, "update")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, goal)
}

// DeleteGoal handles DELETE /api/goals/{id}
func (h *GoalsHandler) DeleteGoal(w http.ResponseWriter, r *http.Request, goalID string) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.repo.DeleteGoal(r.Context(), userID, goalID); err != nil {
		h.writeGoalError(w, err, goalID, "delete")
		return
	}

	h.log.Info().Str("user_id", userID).Str("goal_id", goalID).Msg("Goal deleted")
	w.WriteHeader(http.StatusNoContent)
}

// Contribute handles POST /api/goals/{id}/contribute
func (h *GoalsHandler) Contribute(w http.ResponseWriter, r *http.Request, goalID string) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req struct {
		Amount float64 `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Amount <= 0 {
		middleware.WriteError(w, http.StatusBadRequest, "amount must be positive")
		return
	}

	goal, err := h.repo.Contribute(r.Context(), userID, goalID, req.Amount)
	if err != nil {
		h.writeGoalError(w, err, goalID, "contribute to")
		return
	}

	h.log.Info().
		Str("user_id", userID).
		Str("goal_id", goalID).
		Float64("amount", req.Amount).
		Str("status", string(goal.Status)).
		Msg("Goal contribution recorded")
	middleware.WriteJSON(w, http.StatusOK, goal)
}
