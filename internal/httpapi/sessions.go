package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"hrcore/internal/authz"
	"hrcore/internal/claims"
	"hrcore/internal/models"
	"hrcore/internal/store"
)

type registerSessionRequest struct {
	Token   string `json:"token"`
	IDToken string `json:"id_token"`
}

func (h *Handler) handleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.registerSession(w, r)
	case http.MethodDelete:
		h.logout(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// registerSession records a verified token in the session registry.
// The role stored with the session is read from the user record at
// this moment and never refreshed: later role changes apply to new
// sessions only.
func (h *Handler) registerSession(w http.ResponseWriter, r *http.Request) {
	var req registerSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Token = strings.TrimSpace(req.Token)
	if req.Token == "" {
		req.Token = bearerToken(r.Header.Get("Authorization"))
	}
	if req.Token == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "token is required")
		return
	}

	parsed, err := claims.Parse(req.Token, h.jwtSecret)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "invalid token")
		return
	}

	user, err := h.store.GetUser(r.Context(), parsed.UserID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			writeError(w, http.StatusUnauthorized, "unauthorized", "unknown user")
			return
		}
		writeStoreError(w, err)
		return
	}

	role := user.Role
	if role == "" {
		role = highestRole(parsed.Roles)
	}

	session := models.Session{
		TokenJTI:  parsed.TokenJTI,
		UserID:    user.UserID,
		Role:      role,
		Subject:   parsed.Subject,
		IDToken:   req.IDToken,
		IssuedAt:  parsed.IssuedAt,
		ExpiresAt: parsed.ExpiresAt,
	}
	if err := h.store.RegisterSession(r.Context(), session); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	id, ok := currentIdentity(w, r)
	if !ok {
		return
	}
	if err := h.store.RevokeSession(r.Context(), id.TokenJTI); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) handleSessionMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	id, ok := currentIdentity(w, r)
	if !ok {
		return
	}
	session, err := h.store.GetSession(r.Context(), id.TokenJTI)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *Handler) handleAdminSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, ok := requireSuperAdmin(w, r); !ok {
		return
	}
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	sessions, err := h.store.ListActiveSessions(r.Context(), userID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if sessions == nil {
		sessions = []models.Session{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (h *Handler) handleSessionSweep(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, ok := requireSuperAdmin(w, r); !ok {
		return
	}
	removed, err := h.store.SweepExpiredSessions(r.Context(), time.Now())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"removed": removed})
}

func (h *Handler) handleAdminSessionSubroutes(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/admin/sessions/")
	if rest == "" || strings.Contains(rest, "/") {
		writeError(w, http.StatusNotFound, "not_found", "unknown route")
		return
	}
	if r.Method != http.MethodDelete {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, ok := requireSuperAdmin(w, r); !ok {
		return
	}
	if err := h.store.RevokeSession(r.Context(), rest); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) handleForceLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, ok := requireSuperAdmin(w, r); !ok {
		return
	}
	var req struct {
		UserID string `json:"user_id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "user_id is required")
		return
	}
	removed, err := h.store.RevokeUserSessions(r.Context(), req.UserID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"removed": removed})
}

// highestRole picks the most privileged recognized role from a token's
// role claims, defaulting to employee.
func highestRole(roles []string) string {
	best := models.RoleEmployee
	for _, raw := range roles {
		role := authz.ParseRole(raw)
		if authz.RoleLevel(role) > authz.RoleLevel(best) {
			best = role
		}
	}
	return best
}
