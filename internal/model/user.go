package model

import "time"

// User roles and the clearance level each one carries.
const (
	RoleCommander        = "COMMANDER"
	RoleLogisticsOfficer = "LOGISTICS_OFFICER"
	RoleFieldAgent       = "FIELD_AGENT"
)

// ClearanceForRole maps a role to its clearance level. Unknown roles get 0.
func ClearanceForRole(role string) int {
	switch role {
	case RoleCommander:
		return 5
	case RoleLogisticsOfficer:
		return 3
	case RoleFieldAgent:
		return 1
	}
	return 0
}

type User struct {
	ID             string    `json:"id" db:"id" validate:"required"`
	Name           string    `json:"name" db:"name" validate:"required"`
	Role           string    `json:"role" db:"role" validate:"required,oneof=COMMANDER LOGISTICS_OFFICER FIELD_AGENT"`
	ClearanceLevel int       `json:"clearanceLevel" db:"clearance_level"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
}
