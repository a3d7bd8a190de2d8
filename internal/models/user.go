package models

import "time"

const (
	RoleEmployee   = "EMPLOYEE"
	RoleManager    = "MANAGER"
	RoleSuperAdmin = "SUPER_ADMIN"
)

type User struct {
	UserID     string     `json:"user_id"`
	Email      string     `json:"email"`
	FirstName  string     `json:"first_name"`
	LastName   string     `json:"last_name"`
	Phone      string     `json:"phone,omitempty"`
	Department string     `json:"department,omitempty"`
	Role       string     `json:"role"`
	ManagerID  *string    `json:"manager_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
}

func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}
