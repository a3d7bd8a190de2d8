package httpapi

import (
	"net/http"
	"strings"

	"hrcore/internal/authz"
	"hrcore/internal/models"
	"hrcore/internal/store"
)

type createUserRequest struct {
	Email      string `json:"email"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Phone      string `json:"phone"`
	Department string `json:"department"`
	Role       string `json:"role"`
	ManagerID  string `json:"manager_id"`
}

type updateUserRequest struct {
	FirstName  *string `json:"first_name"`
	LastName   *string `json:"last_name"`
	Phone      *string `json:"phone"`
	Department *string `json:"department"`
	Role       *string `json:"role"`
}

func (h *Handler) handleUsers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.searchUsers(w, r)
	case http.MethodPost:
		h.createUser(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) searchUsers(w http.ResponseWriter, r *http.Request) {
	id, ok := currentIdentity(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	filter := store.UserFilter{
		Search:     strings.TrimSpace(query.Get("search")),
		Department: strings.TrimSpace(query.Get("department")),
		Role:       strings.TrimSpace(query.Get("role")),
		ManagerID:  strings.TrimSpace(query.Get("manager_id")),
	}
	users, err := h.store.SearchUsers(r.Context(), viewerFor(id), filter, pageFromQuery(r))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	result := make([]models.User, 0, len(users))
	for _, user := range users {
		result = append(result, maskUser(user, id))
	}
	writeJSON(w, http.StatusOK, result)
}

// createUser lets managers onboard employees and super admins onboard
// anyone. A manager who omits manager_id becomes the new user's
// manager themselves.
func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	id, ok := requireManagerOrAbove(w, r)
	if !ok {
		return
	}
	var req createUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.ManagerID = strings.TrimSpace(req.ManagerID)
	if req.Email == "" || req.FirstName == "" || req.LastName == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "email, first_name and last_name are required")
		return
	}

	role := authz.ParseRole(req.Role)
	if !authz.CanManageRole(id.Role, role) {
		writeError(w, http.StatusForbidden, "access_denied", "cannot create a user with this role")
		return
	}
	if req.ManagerID == "" && id.Role == models.RoleManager {
		req.ManagerID = id.UserID
	}
	if req.ManagerID != "" && !authz.CanAssignManager(id.UserID, id.Role, req.ManagerID) {
		writeError(w, http.StatusForbidden, "access_denied", "cannot assign this manager")
		return
	}

	user, err := h.store.CreateUser(r.Context(), store.CreateUserInput{
		Email:      req.Email,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Phone:      strings.TrimSpace(req.Phone),
		Department: strings.TrimSpace(req.Department),
		Role:       role,
		ManagerID:  req.ManagerID,
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *Handler) handleUserSubroutes(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/users/")
	parts := strings.Split(rest, "/")
	if len(parts) == 0 || parts[0] == "" {
		writeError(w, http.StatusNotFound, "not_found", "unknown route")
		return
	}
	userID := parts[0]

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			h.getUser(w, r, userID)
		case http.MethodPut:
			h.updateUser(w, r, userID)
		case http.MethodDelete:
			h.deleteUser(w, r, userID)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	if len(parts) == 2 {
		switch parts[1] {
		case "manager":
			h.assignManager(w, r, userID)
			return
		case "reports":
			h.directReports(w, r, userID)
			return
		case "feedback":
			h.profileFeedback(w, r, userID)
			return
		case "absences":
			h.userAbsences(w, r, userID)
			return
		}
	}
	writeError(w, http.StatusNotFound, "not_found", "unknown route")
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request, userID string) {
	id, ok := currentIdentity(w, r)
	if !ok {
		return
	}
	user, err := h.store.GetUser(r.Context(), userID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if user.Role == models.RoleSuperAdmin && id.Role != models.RoleSuperAdmin && id.UserID != user.UserID {
		writeError(w, http.StatusNotFound, "not_found", "user not found")
		return
	}
	writeJSON(w, http.StatusOK, maskUser(user, id))
}

// canEditUser is the profile write gate: everyone edits themselves,
// super admins edit anyone, managers edit only employees inside their
// own reporting line.
func (h *Handler) canEditUser(r *http.Request, id identity, target models.User) (bool, error) {
	if id.UserID == target.UserID || id.Role == models.RoleSuperAdmin {
		return true, nil
	}
	if id.Role != models.RoleManager || target.Role != models.RoleEmployee {
		return false, nil
	}
	return h.store.IsInHierarchyOf(r.Context(), target.UserID, id.UserID)
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request, userID string) {
	id, ok := currentIdentity(w, r)
	if !ok {
		return
	}
	target, err := h.store.GetUser(r.Context(), userID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	allowed, err := h.canEditUser(r, id, target)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if !allowed {
		writeError(w, http.StatusForbidden, "access_denied", "access denied")
		return
	}
	var req updateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Role != nil {
		normalized := authz.ParseRole(*req.Role)
		if !authz.CanManageRole(id.Role, normalized) {
			writeError(w, http.StatusForbidden, "access_denied", "cannot assign this role")
			return
		}
		req.Role = &normalized
	}
	user, err := h.store.UpdateUser(r.Context(), store.UpdateUserInput{
		UserID:     userID,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Phone:      req.Phone,
		Department: req.Department,
		Role:       req.Role,
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// deleteUser: super admins may delete anyone, managers only employees
// inside their own reporting line.
func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request, userID string) {
	id, ok := currentIdentity(w, r)
	if !ok {
		return
	}
	if !authz.CanDelete(id.Role) {
		writeError(w, http.StatusForbidden, "access_denied", "manager role required")
		return
	}
	if id.UserID == userID {
		writeError(w, http.StatusBadRequest, "invalid_request", "cannot delete own account")
		return
	}
	if id.Role != models.RoleSuperAdmin {
		target, err := h.store.GetUser(r.Context(), userID)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		if target.Role != models.RoleEmployee {
			writeError(w, http.StatusForbidden, "access_denied", "access denied")
			return
		}
		inHierarchy, err := h.store.IsInHierarchyOf(r.Context(), userID, id.UserID)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		if !inHierarchy {
			writeError(w, http.StatusForbidden, "access_denied", "access denied")
			return
		}
	}
	if err := h.store.DeleteUser(r.Context(), userID); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) assignManager(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	id, ok := requireManagerOrAbove(w, r)
	if !ok {
		return
	}
	var req struct {
		ManagerID string `json:"manager_id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	req.ManagerID = strings.TrimSpace(req.ManagerID)
	if req.ManagerID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "manager_id is required")
		return
	}
	if !authz.CanAssignManager(id.UserID, id.Role, req.ManagerID) {
		writeError(w, http.StatusForbidden, "access_denied", "cannot assign this manager")
		return
	}
	user, err := h.store.AssignManager(r.Context(), userID, req.ManagerID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) directReports(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	id, ok := requireManagerOrAbove(w, r)
	if !ok {
		return
	}
	if id.Role != models.RoleSuperAdmin && id.UserID != userID {
		writeError(w, http.StatusForbidden, "access_denied", "access denied")
		return
	}
	users, err := h.store.DirectReports(r.Context(), userID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *Handler) profileFeedback(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	id, ok := currentIdentity(w, r)
	if !ok {
		return
	}
	status := strings.TrimSpace(r.URL.Query().Get("status"))
	feedbacks, err := h.store.ProfileFeedback(r.Context(), viewerFor(id), userID, status, pageFromQuery(r))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if feedbacks == nil {
		feedbacks = []models.Feedback{}
	}
	writeJSON(w, http.StatusOK, feedbacks)
}

func (h *Handler) userAbsences(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	id, ok := currentIdentity(w, r)
	if !ok {
		return
	}
	filter := store.AbsenceFilter{UserID: userID}
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

func viewerFor(id identity) store.Viewer {
	return store.Viewer{UserID: id.UserID, Role: id.Role}
}

// maskUser strips contact details from profiles the viewer has no
// business seeing in full.
func maskUser(user models.User, id identity) models.User {
	if id.UserID == user.UserID || authz.IsManagerOrAbove(id.Role) {
		return user
	}
	user.Phone = ""
	user.Department = ""
	user.UpdatedAt = nil
	return user
}
