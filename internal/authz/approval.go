package authz

import "hrcore/internal/models"

// CanApproveOrReject reports whether the actor may decide approval-gated
// records about the subject. Super admins always may; a manager only
// when they are the subject's direct manager (one hop, not the full
// chain); employees never. subjectManagerID is empty when the subject
// has no manager.
func CanApproveOrReject(actorID, actorRole, subjectManagerID string) bool {
	if actorRole == models.RoleSuperAdmin {
		return true
	}
	if !IsManagerOrAbove(actorRole) {
		return false
	}
	return subjectManagerID != "" && subjectManagerID == actorID
}

// CanActFor reports whether the actor may submit or view records on
// behalf of the subject: themselves, or anyone when manager-or-above.
func CanActFor(actorID, actorRole, subjectID string) bool {
	return actorID == subjectID || IsManagerOrAbove(actorRole)
}

// CanAssignManager reports whether the actor may set managerID as
// someone's manager: super admins may assign anyone, managers only
// themselves.
func CanAssignManager(actorID, actorRole, managerID string) bool {
	switch actorRole {
	case models.RoleSuperAdmin:
		return true
	case models.RoleManager:
		return managerID == actorID
	default:
		return false
	}
}
