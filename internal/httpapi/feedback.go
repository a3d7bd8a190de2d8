package httpapi

import (
	"log"
	"net/http"
	"strings"

	"hrcore/internal/authz"
	"hrcore/internal/models"
	"hrcore/internal/polish"
	"hrcore/internal/store"
)

type submitFeedbackRequest struct {
	ToUserID string `json:"to_user_id"`
	Content  string `json:"content"`
}

func (h *Handler) handleFeedback(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.searchFeedback(w, r)
	case http.MethodPost:
		h.submitFeedback(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) searchFeedback(w http.ResponseWriter, r *http.Request) {
	id, ok := currentIdentity(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	filter := store.FeedbackFilter{
		FromUserID:      strings.TrimSpace(query.Get("from_user_id")),
		ToUserID:        strings.TrimSpace(query.Get("to_user_id")),
		Status:          strings.TrimSpace(query.Get("status")),
		CreatedAfter:    timeParam(r, "created_after"),
		CreatedBefore:   timeParam(r, "created_before"),
		ContentContains: strings.TrimSpace(query.Get("search")),
		HasPolished:     boolParam(r, "has_polished"),
	}
	feedbacks, err := h.store.SearchFeedback(r.Context(), viewerFor(id), filter, pageFromQuery(r))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if feedbacks == nil {
		feedbacks = []models.Feedback{}
	}
	writeJSON(w, http.StatusOK, feedbacks)
}

// submitFeedback files feedback from the caller. When the polishing
// feature is live the text is rewritten immediately; a failed rewrite
// stores the original text with the fallback marker instead of
// blocking submission.
func (h *Handler) submitFeedback(w http.ResponseWriter, r *http.Request) {
	id, ok := currentIdentity(w, r)
	if !ok {
		return
	}
	var req submitFeedbackRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.ToUserID = strings.TrimSpace(req.ToUserID)
	if req.ToUserID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "to_user_id is required")
		return
	}

	feedback, err := h.store.SubmitFeedback(r.Context(), store.SubmitFeedbackInput{
		FromUserID: id.UserID,
		ToUserID:   req.ToUserID,
		Content:    req.Content,
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}

	if h.polish.Enabled() {
		feedback = h.polishFeedback(r, feedback)
	}
	writeJSON(w, http.StatusCreated, feedback)
}

func (h *Handler) polishFeedback(r *http.Request, feedback models.Feedback) models.Feedback {
	polished, err := h.polish.Rewrite(r.Context(), feedback.Content)
	if err != nil {
		log.Printf("feedback polish error feedback_id=%s: %v", feedback.FeedbackID, err)
		polished = feedback.Content + polish.FallbackSuffix
	}
	updated, err := h.store.SetPolishedContent(r.Context(), feedback.FeedbackID, polished)
	if err != nil {
		log.Printf("feedback polish store error feedback_id=%s: %v", feedback.FeedbackID, err)
		return feedback
	}
	return updated
}

func (h *Handler) handlePendingFeedback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	id, ok := requireManagerOrAbove(w, r)
	if !ok {
		return
	}
	filter := store.FeedbackFilter{Status: models.StatusPending}
	if id.Role == models.RoleManager {
		filter.ManagerID = id.UserID
	}
	feedbacks, err := h.store.SearchFeedback(r.Context(), viewerFor(id), filter, pageFromQuery(r))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if feedbacks == nil {
		feedbacks = []models.Feedback{}
	}
	writeJSON(w, http.StatusOK, feedbacks)
}

// handleReceivedFeedback lists a subject's approved inbox. The subject
// defaults to the caller; managers and super admins may name another
// user via user_id. The APPROVED-only restriction holds for every
// viewer.
func (h *Handler) handleReceivedFeedback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	id, ok := currentIdentity(w, r)
	if !ok {
		return
	}
	subjectID, ok := feedbackSubject(w, r, id)
	if !ok {
		return
	}
	feedbacks, err := h.store.ReceivedFeedback(r.Context(), subjectID, pageFromQuery(r))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if feedbacks == nil {
		feedbacks = []models.Feedback{}
	}
	writeJSON(w, http.StatusOK, feedbacks)
}

func (h *Handler) handleGivenFeedback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	id, ok := currentIdentity(w, r)
	if !ok {
		return
	}
	subjectID, ok := feedbackSubject(w, r, id)
	if !ok {
		return
	}
	filter := store.FeedbackFilter{FromUserID: subjectID}
	feedbacks, err := h.store.SearchFeedback(r.Context(), viewerFor(id), filter, pageFromQuery(r))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if feedbacks == nil {
		feedbacks = []models.Feedback{}
	}
	writeJSON(w, http.StatusOK, feedbacks)
}

// feedbackSubject resolves the user_id query parameter for the
// received and given listings, defaulting to the caller and gating
// other subjects on the act-for rule.
func feedbackSubject(w http.ResponseWriter, r *http.Request, id identity) (string, bool) {
	subjectID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if subjectID == "" {
		return id.UserID, true
	}
	if !authz.CanActFor(id.UserID, id.Role, subjectID) {
		writeError(w, http.StatusForbidden, "access_denied", "access denied")
		return "", false
	}
	return subjectID, true
}

func (h *Handler) handleFeedbackSubroutes(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/feedback/")
	parts := strings.Split(rest, "/")
	if len(parts) == 0 || parts[0] == "" {
		writeError(w, http.StatusNotFound, "not_found", "unknown route")
		return
	}
	feedbackID := parts[0]

	if len(parts) == 1 {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.getFeedback(w, r, feedbackID)
		return
	}

	if len(parts) == 2 && r.Method == http.MethodPost {
		switch parts[1] {
		case "approve":
			h.decideFeedback(w, r, feedbackID, true)
			return
		case "reject":
			h.decideFeedback(w, r, feedbackID, false)
			return
		case "polish":
			h.repolishFeedback(w, r, feedbackID)
			return
		}
	}
	writeError(w, http.StatusNotFound, "not_found", "unknown route")
}

// getFeedback applies the same read boundary as the list views: the
// author always sees their own feedback, the recipient only once it
// is approved, managers and super admins see everything. Anything
// outside that boundary reads as not found.
func (h *Handler) getFeedback(w http.ResponseWriter, r *http.Request, feedbackID string) {
	id, ok := currentIdentity(w, r)
	if !ok {
		return
	}
	feedback, err := h.store.GetFeedback(r.Context(), feedbackID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	visible := authz.CanViewAll(id.Role) ||
		feedback.FromUserID == id.UserID ||
		(feedback.ToUserID == id.UserID && feedback.Status == models.StatusApproved)
	if !visible {
		writeError(w, http.StatusNotFound, "not_found", "feedback not found")
		return
	}
	writeJSON(w, http.StatusOK, feedback)
}

func (h *Handler) decideFeedback(w http.ResponseWriter, r *http.Request, feedbackID string, approve bool) {
	id, ok := currentIdentity(w, r)
	if !ok {
		return
	}
	feedback, err := h.store.DecideFeedback(r.Context(), store.DecideFeedbackInput{
		FeedbackID: feedbackID,
		ActorID:    id.UserID,
		ActorRole:  id.Role,
		Approve:    approve,
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, feedback)
}

// repolishFeedback re-runs the rewrite on demand, for entries stored
// with the fallback marker after an outage.
func (h *Handler) repolishFeedback(w http.ResponseWriter, r *http.Request, feedbackID string) {
	if _, ok := requireManagerOrAbove(w, r); !ok {
		return
	}
	if !h.polish.Enabled() {
		writeError(w, http.StatusNotFound, "feature_disabled", "feedback polishing is not enabled")
		return
	}
	feedback, err := h.store.GetFeedback(r.Context(), feedbackID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.polishFeedback(r, feedback))
}
