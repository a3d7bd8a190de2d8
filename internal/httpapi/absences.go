package httpapi

import (
	"net/http"
	"strings"
	"time"

	"hrcore/internal/authz"
	"hrcore/internal/models"
	"hrcore/internal/store"
)

type submitAbsenceRequest struct {
	UserID    string `json:"user_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Type      string `json:"type"`
	Reason    string `json:"reason"`
}

type decideAbsenceRequest struct {
	Reason string `json:"reason"`
}

type amendAbsenceRequest struct {
	Status  string  `json:"status"`
	Comment *string `json:"comment"`
}

func (h *Handler) handleAbsences(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.searchAbsences(w, r)
	case http.MethodPost:
		h.submitAbsence(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) searchAbsences(w http.ResponseWriter, r *http.Request) {
	id, ok := currentIdentity(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	filter := store.AbsenceFilter{
		Search:             strings.TrimSpace(query.Get("search")),
		UserID:             strings.TrimSpace(query.Get("user_id")),
		Status:             strings.TrimSpace(query.Get("status")),
		Type:               strings.TrimSpace(query.Get("type")),
		StartDateFrom:      timeParam(r, "start_from"),
		StartDateTo:        timeParam(r, "start_to"),
		EndDateFrom:        timeParam(r, "end_from"),
		EndDateTo:          timeParam(r, "end_to"),
		ApproverID:         strings.TrimSpace(query.Get("approver_id")),
		CreatedByID:        strings.TrimSpace(query.Get("created_by")),
		ManagerID:          strings.TrimSpace(query.Get("manager_id")),
		HasRejectionReason: boolParam(r, "has_rejection_reason"),
	}
	requests, err := h.store.SearchAbsences(r.Context(), viewerFor(id), filter, pageFromQuery(r))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if requests == nil {
		requests = []models.AbsenceRequest{}
	}
	writeJSON(w, http.StatusOK, requests)
}

// submitAbsence creates a pending request. Employees may only file for
// themselves; managers and super admins may file on behalf of others.
func (h *Handler) submitAbsence(w http.ResponseWriter, r *http.Request) {
	id, ok := currentIdentity(w, r)
	if !ok {
		return
	}
	var req submitAbsenceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		req.UserID = id.UserID
	}
	if !authz.CanActFor(id.UserID, id.Role, req.UserID) {
		writeError(w, http.StatusForbidden, "access_denied", "cannot submit absence for another user")
		return
	}

	startDate, ok1 := parseDate(req.StartDate)
	endDate, ok2 := parseDate(req.EndDate)
	if !ok1 || !ok2 {
		writeError(w, http.StatusBadRequest, "invalid_request", "start_date and end_date must be YYYY-MM-DD")
		return
	}

	request, err := h.store.SubmitAbsence(r.Context(), store.SubmitAbsenceInput{
		UserID:      req.UserID,
		StartDate:   startDate,
		EndDate:     endDate,
		Type:        models.AbsenceTypeFromString(req.Type),
		Reason:      strings.TrimSpace(req.Reason),
		CreatedByID: id.UserID,
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, request)
}

// handlePendingAbsences is the approval inbox: pending requests from
// the manager's own reports, or every pending request for super
// admins.
func (h *Handler) handlePendingAbsences(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	id, ok := requireManagerOrAbove(w, r)
	if !ok {
		return
	}
	filter := store.AbsenceFilter{Status: models.StatusPending}
	if id.Role == models.RoleManager {
		filter.ManagerID = id.UserID
	}
	requests, err := h.store.SearchAbsences(r.Context(), viewerFor(id), filter, pageFromQuery(r))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if requests == nil {
		requests = []models.AbsenceRequest{}
	}
	writeJSON(w, http.StatusOK, requests)
}

func (h *Handler) handleAbsenceSubroutes(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/absences/")
	parts := strings.Split(rest, "/")
	if len(parts) == 0 || parts[0] == "" {
		writeError(w, http.StatusNotFound, "not_found", "unknown route")
		return
	}
	requestID := parts[0]

	if len(parts) == 1 {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.getAbsence(w, r, requestID)
		return
	}

	if len(parts) == 2 && r.Method == http.MethodPost {
		switch parts[1] {
		case "approve":
			h.decideAbsence(w, r, requestID, true)
			return
		case "reject":
			h.decideAbsence(w, r, requestID, false)
			return
		case "amend":
			h.amendAbsence(w, r, requestID)
			return
		}
	}
	writeError(w, http.StatusNotFound, "not_found", "unknown route")
}

func (h *Handler) getAbsence(w http.ResponseWriter, r *http.Request, requestID string) {
	id, ok := currentIdentity(w, r)
	if !ok {
		return
	}
	request, err := h.store.GetAbsence(r.Context(), viewerFor(id), requestID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, request)
}

func (h *Handler) decideAbsence(w http.ResponseWriter, r *http.Request, requestID string, approve bool) {
	id, ok := currentIdentity(w, r)
	if !ok {
		return
	}
	var req decideAbsenceRequest
	if r.ContentLength > 0 && !decodeJSON(w, r, &req) {
		return
	}
	request, err := h.store.DecideAbsence(r.Context(), store.DecideAbsenceInput{
		RequestID: requestID,
		ActorID:   id.UserID,
		ActorRole: id.Role,
		Approve:   approve,
		Reason:    strings.TrimSpace(req.Reason),
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, request)
}

func (h *Handler) amendAbsence(w http.ResponseWriter, r *http.Request, requestID string) {
	id, ok := currentIdentity(w, r)
	if !ok {
		return
	}
	var req amendAbsenceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	status := strings.TrimSpace(req.Status)
	if status != "" {
		status = models.StatusFromString(status)
	}
	request, err := h.store.AmendAbsence(r.Context(), store.AmendAbsenceInput{
		RequestID: requestID,
		ActorID:   id.UserID,
		ActorRole: id.Role,
		Status:    status,
		Comment:   req.Comment,
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, request)
}

func parseDate(raw string) (time.Time, bool) {
	value, err := time.Parse("2006-01-02", strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, false
	}
	return value, true
}
