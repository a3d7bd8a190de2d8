package authz

import "hrcore/internal/models"

// Visibility conditions are applied at the query boundary, before any
// user-supplied filter, so that pagination counts stay correct and a
// filter can never escape the viewer's read boundary. Column names
// assume the query aliases absence_requests as r, feedback as f and
// users as u.

// AbsenceVisibility restricts absence listings: employees see only
// their own requests, managers and super admins see everything.
func AbsenceVisibility(viewerID, viewerRole string) Cond {
	if CanViewAll(viewerRole) {
		return Cond{}
	}
	return Eq("r.user_id", viewerID)
}

// FeedbackVisibility restricts general feedback search: employees see
// feedback they sent, plus approved feedback they received. Managers
// and super admins see everything.
func FeedbackVisibility(viewerID, viewerRole string) Cond {
	if CanViewAll(viewerRole) {
		return Cond{}
	}
	return Or(
		Eq("f.from_user_id", viewerID),
		And(Eq("f.to_user_id", viewerID), Eq("f.status", models.StatusApproved)),
	)
}

// ReceivedFeedbackVisibility restricts the recipient-facing inbox to
// approved feedback only, for every viewer role: the received list
// models the recipient's own inbox, and pending or rejected entries
// are never part of it.
func ReceivedFeedbackVisibility(subjectID string) Cond {
	return And(
		Eq("f.to_user_id", subjectID),
		Eq("f.status", models.StatusApproved),
	)
}

// ProfileFeedbackVisibility restricts the feedback section of a user's
// profile. The subject sees approved feedback only; the subject's
// direct manager and super admins see all statuses; anyone else sees
// only the approved feedback they personally sent to the subject.
func ProfileFeedbackVisibility(viewerID, viewerRole, subjectID, subjectManagerID string) Cond {
	base := Eq("f.to_user_id", subjectID)
	switch {
	case viewerRole == models.RoleSuperAdmin,
		IsManagerOrAbove(viewerRole) && subjectManagerID != "" && subjectManagerID == viewerID:
		return base
	case viewerID == subjectID:
		return And(base, Eq("f.status", models.StatusApproved))
	default:
		return And(
			base,
			Eq("f.from_user_id", viewerID),
			Eq("f.status", models.StatusApproved),
		)
	}
}

// ProfileVisibility hides super admin accounts from profile listings
// for everyone below super admin.
func ProfileVisibility(viewerRole string) Cond {
	if viewerRole == models.RoleSuperAdmin {
		return Cond{}
	}
	return Ne("u.role", models.RoleSuperAdmin)
}
