package authz

import (
	"testing"

	"hrcore/internal/models"
)

func TestRoleLevelFailsClosed(t *testing.T) {
	cases := []struct {
		role  string
		level int
	}{
		{models.RoleSuperAdmin, 3},
		{models.RoleManager, 2},
		{models.RoleEmployee, 1},
		{"", 1},
		{"ADMIN", 1},
		{"manager", 1},
	}
	for _, tc := range cases {
		if got := RoleLevel(tc.role); got != tc.level {
			t.Errorf("RoleLevel(%q) = %d, want %d", tc.role, got, tc.level)
		}
	}
}

func TestParseRole(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"SUPER_ADMIN", models.RoleSuperAdmin},
		{"super_admin", models.RoleSuperAdmin},
		{" manager ", models.RoleManager},
		{"EMPLOYEE", models.RoleEmployee},
		{"intern", models.RoleEmployee},
		{"", models.RoleEmployee},
	}
	for _, tc := range cases {
		if got := ParseRole(tc.raw); got != tc.want {
			t.Errorf("ParseRole(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestCanManageRole(t *testing.T) {
	cases := []struct {
		actor  string
		target string
		want   bool
	}{
		{models.RoleSuperAdmin, models.RoleSuperAdmin, true},
		{models.RoleSuperAdmin, models.RoleManager, true},
		{models.RoleSuperAdmin, models.RoleEmployee, true},
		{models.RoleManager, models.RoleEmployee, true},
		{models.RoleManager, models.RoleManager, false},
		{models.RoleManager, models.RoleSuperAdmin, false},
		{models.RoleEmployee, models.RoleEmployee, false},
	}
	for _, tc := range cases {
		if got := CanManageRole(tc.actor, tc.target); got != tc.want {
			t.Errorf("CanManageRole(%q, %q) = %v, want %v", tc.actor, tc.target, got, tc.want)
		}
	}
}

func TestCanDelete(t *testing.T) {
	if !CanDelete(models.RoleSuperAdmin) || !CanDelete(models.RoleManager) {
		t.Fatal("managers and super admins may delete accounts")
	}
	if CanDelete(models.RoleEmployee) {
		t.Fatal("employees may not delete accounts")
	}
	if CanDelete("AUDITOR") {
		t.Fatal("unknown roles may not delete accounts")
	}
}

func TestCanBeAssignedAsManager(t *testing.T) {
	if !CanBeAssignedAsManager(models.RoleManager) {
		t.Fatal("manager should be assignable as manager")
	}
	if CanBeAssignedAsManager(models.RoleSuperAdmin) {
		t.Fatal("super admin should not act as a line manager")
	}
	if CanBeAssignedAsManager(models.RoleEmployee) {
		t.Fatal("employee should not be assignable as manager")
	}
}
