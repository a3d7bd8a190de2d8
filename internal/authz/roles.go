package authz

import (
	"strings"

	"hrcore/internal/models"
)

const (
	levelEmployee   = 1
	levelManager    = 2
	levelSuperAdmin = 3
)

// RoleLevel returns the privilege level of a role. Unrecognized roles
// fail closed to the employee level.
func RoleLevel(role string) int {
	switch role {
	case models.RoleSuperAdmin:
		return levelSuperAdmin
	case models.RoleManager:
		return levelManager
	default:
		return levelEmployee
	}
}

// ParseRole normalizes a raw role value, falling back to EMPLOYEE for
// anything unrecognized.
func ParseRole(raw string) string {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case models.RoleSuperAdmin:
		return models.RoleSuperAdmin
	case models.RoleManager:
		return models.RoleManager
	default:
		return models.RoleEmployee
	}
}

func IsManagerOrAbove(role string) bool {
	return RoleLevel(role) >= levelManager
}

// CanManageRole reports whether an actor role may create or administer
// users of the target role. Managers manage employees only.
func CanManageRole(actorRole, targetRole string) bool {
	if actorRole == models.RoleSuperAdmin {
		return true
	}
	return actorRole == models.RoleManager && targetRole == models.RoleEmployee
}

func CanViewAll(role string) bool {
	return role == models.RoleSuperAdmin || role == models.RoleManager
}

// CanDelete reports whether the role may delete user accounts at all;
// which accounts a manager may delete is narrowed further at the call
// site.
func CanDelete(role string) bool {
	return role == models.RoleSuperAdmin || role == models.RoleManager
}

// CanBeAssignedAsManager is true only for MANAGER: super admins do not
// act as line managers in this model.
func CanBeAssignedAsManager(role string) bool {
	return role == models.RoleManager
}
