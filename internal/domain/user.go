package domain

import "time"

// Role enumerates the closed set of account roles.
type Role string

const (
	RoleAdminUtama      Role = "ADMIN_UTAMA"
	RolePetugasLapangan Role = "PETUGAS_LAPANGAN"
	// RoleSupervisor is accepted at account creation but no authorization
	// rule grants it anything beyond self-service endpoints.
	RoleSupervisor Role = "SUPERVISOR"
)

// Valid reports whether the role is one of the enumerated values.
func (r Role) Valid() bool {
	switch r {
	case RoleAdminUtama, RolePetugasLapangan, RoleSupervisor:
		return true
	}
	return false
}

// User is the domain model for any account: admins, field officers,
// supervisors.
type User struct {
	ID           string
	Email        string
	Name         string
	Phone        *string
	PasswordHash string
	Role         Role
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserRef is a reduced projection of a related user, embedded in complaint
// and work report reads.
type UserRef struct {
	ID    string
	Name  string
	Email string
	Phone *string
}
