package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/studentaffairs/portal/internal/api/middleware"
	"github.com/studentaffairs/portal/internal/api/problem"
	"github.com/studentaffairs/portal/internal/domain/events"
	"github.com/studentaffairs/portal/internal/domain/reminders"
)

var errEventIDRequired = errors.New("eventId is required")

type RemindersHandler struct {
	Events    *events.Service
	Evaluator *reminders.Evaluator
	Env       string
}

func NewRemindersHandler(service *events.Service, evaluator *reminders.Evaluator, env string) *RemindersHandler {
	return &RemindersHandler{Events: service, Evaluator: evaluator, Env: env}
}

type reminderRequest struct {
	EventID json.RawMessage `json:"eventId"`
}

type reminderResponse struct {
	Result reminders.Result `json:"result"`
}

// Test evaluates a day-before reminder for the caller. The caller's address
// comes from the verified token; anonymous callers get no_user_email.
func (h *RemindersHandler) Test(w http.ResponseWriter, r *http.Request) {
	var req reminderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env,
			problem.WithDetail(errEventIDRequired.Error()))
		return
	}

	id, err := parseEventID(req.EventID)
	if err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env,
			problem.WithDetail(err.Error()),
			problem.WithErrors(map[string]string{"eventId": err.Error()}))
		return
	}

	item, err := h.Events.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	var recipient string
	if claims := middleware.Claims(r); claims != nil {
		recipient = claims.Email
	}

	result := h.Evaluator.Evaluate(r.Context(), item.Event, recipient)
	writeJSON(w, http.StatusOK, reminderResponse{Result: result})
}

// parseEventID accepts a JSON number or a numeric string.
func parseEventID(raw json.RawMessage) (int64, error) {
	value := strings.TrimSpace(string(raw))
	if value == "" || value == "null" || value == `""` {
		return 0, errEventIDRequired
	}
	if strings.HasPrefix(value, `"`) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, errEventIDRequired
		}
		value = strings.TrimSpace(s)
		if value == "" {
			return 0, errEventIDRequired
		}
	}
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("eventId must be a positive integer")
	}
	return id, nil
}
