package authz

import (
	"testing"

	"hrcore/internal/models"
)

func TestCanApproveOrReject(t *testing.T) {
	cases := []struct {
		name             string
		actorID          string
		actorRole        string
		subjectManagerID string
		want             bool
	}{
		{"super admin always", "admin-1", models.RoleSuperAdmin, "", true},
		{"super admin with manager set", "admin-1", models.RoleSuperAdmin, "mgr-9", true},
		{"direct manager", "mgr-1", models.RoleManager, "mgr-1", true},
		{"other manager", "mgr-2", models.RoleManager, "mgr-1", false},
		{"manager of unmanaged subject", "mgr-1", models.RoleManager, "", false},
		{"employee never", "emp-1", models.RoleEmployee, "emp-1", false},
		{"unknown role", "u-1", "AUDITOR", "u-1", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanApproveOrReject(tc.actorID, tc.actorRole, tc.subjectManagerID); got != tc.want {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCanActFor(t *testing.T) {
	if !CanActFor("emp-1", models.RoleEmployee, "emp-1") {
		t.Fatal("employee should act for themselves")
	}
	if CanActFor("emp-1", models.RoleEmployee, "emp-2") {
		t.Fatal("employee should not act for another user")
	}
	if !CanActFor("mgr-1", models.RoleManager, "emp-2") {
		t.Fatal("manager should act for another user")
	}
}

func TestCanAssignManager(t *testing.T) {
	if !CanAssignManager("admin-1", models.RoleSuperAdmin, "mgr-5") {
		t.Fatal("super admin should assign any manager")
	}
	if !CanAssignManager("mgr-1", models.RoleManager, "mgr-1") {
		t.Fatal("manager should assign themselves")
	}
	if CanAssignManager("mgr-1", models.RoleManager, "mgr-2") {
		t.Fatal("manager should not assign another manager")
	}
	if CanAssignManager("emp-1", models.RoleEmployee, "emp-1") {
		t.Fatal("employee should not assign managers")
	}
}
