package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"hrcore/internal/polish"
	"hrcore/internal/store"
)

type Handler struct {
	store     store.Store
	polish    *polish.Client
	jwtSecret string
}

type Options struct {
	Polish    *polish.Client
	JWTSecret string
}

type errorResponse struct {
	Error responseError `json:"error"`
}

type responseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewHandler(st store.Store, opts Options) *Handler {
	p := opts.Polish
	if p == nil {
		p = polish.NewClient(polish.Config{})
	}
	return &Handler{store: st, polish: p, jwtSecret: opts.JWTSecret}
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", h.handleHealth)

	mux.HandleFunc("/api/sessions", h.handleSessions)
	mux.HandleFunc("/api/sessions/me", h.handleSessionMe)

	mux.HandleFunc("/api/users", h.handleUsers)
	mux.HandleFunc("/api/users/", h.handleUserSubroutes)

	mux.HandleFunc("/api/absences", h.handleAbsences)
	mux.HandleFunc("/api/absences/pending", h.handlePendingAbsences)
	mux.HandleFunc("/api/absences/", h.handleAbsenceSubroutes)

	mux.HandleFunc("/api/feedback", h.handleFeedback)
	mux.HandleFunc("/api/feedback/pending", h.handlePendingFeedback)
	mux.HandleFunc("/api/feedback/received", h.handleReceivedFeedback)
	mux.HandleFunc("/api/feedback/given", h.handleGivenFeedback)
	mux.HandleFunc("/api/feedback/", h.handleFeedbackSubroutes)

	mux.HandleFunc("/api/admin/sessions", h.handleAdminSessions)
	mux.HandleFunc("/api/admin/sessions/sweep", h.handleSessionSweep)
	mux.HandleFunc("/api/admin/sessions/", h.handleAdminSessionSubroutes)
	mux.HandleFunc("/api/admin/force-logout", h.handleForceLogout)

	return mux
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeStoreError maps store sentinels onto the HTTP error envelope.
// Unknown errors never leak details to the client.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrAccessDenied):
		writeError(w, http.StatusForbidden, "access_denied", "access denied")
	case errors.Is(err, store.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "not_found", "user not found")
	case errors.Is(err, store.ErrRequestNotFound):
		writeError(w, http.StatusNotFound, "not_found", "absence request not found")
	case errors.Is(err, store.ErrFeedbackNotFound):
		writeError(w, http.StatusNotFound, "not_found", "feedback not found")
	case errors.Is(err, store.ErrSessionNotFound):
		writeError(w, http.StatusUnauthorized, "unauthorized", "session not found")
	case errors.Is(err, store.ErrAlreadyDecided):
		writeError(w, http.StatusBadRequest, "already_decided", "record already decided")
	case errors.Is(err, store.ErrInvalidDates):
		writeError(w, http.StatusBadRequest, "invalid_request", "start date cannot be after end date")
	case errors.Is(err, store.ErrPastStartDate):
		writeError(w, http.StatusBadRequest, "invalid_request", "cannot request absence for past dates")
	case errors.Is(err, store.ErrEmptyContent):
		writeError(w, http.StatusBadRequest, "invalid_request", "content cannot be empty")
	case errors.Is(err, store.ErrHierarchyCycle):
		writeError(w, http.StatusBadRequest, "invalid_request", "assignment would create a circular hierarchy")
	case errors.Is(err, store.ErrNotAssignableManager):
		writeError(w, http.StatusBadRequest, "invalid_request", "user cannot be assigned as manager")
	case errors.Is(err, store.ErrDuplicateToken):
		writeError(w, http.StatusConflict, "conflict", "token already registered")
	case errors.Is(err, store.ErrDuplicateEmail):
		writeError(w, http.StatusConflict, "conflict", "email already in use")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: responseError{Code: code, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, target interface{}) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON payload")
		return false
	}
	return true
}

func pageFromQuery(r *http.Request) store.Page {
	query := r.URL.Query()
	page := store.Page{
		Sort: strings.TrimSpace(query.Get("sort")),
	}
	if raw := query.Get("limit"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil {
			page.Limit = value
		}
	}
	if raw := query.Get("offset"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil {
			page.Offset = value
		}
	}
	page.Desc = strings.EqualFold(query.Get("order"), "desc")
	return page
}

func timeParam(r *http.Request, key string) *time.Time {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil
	}
	if value, err := time.Parse("2006-01-02", raw); err == nil {
		return &value
	}
	if value, err := time.Parse(time.RFC3339, raw); err == nil {
		return &value
	}
	return nil
}

func boolParam(r *http.Request, key string) *bool {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &value
}
