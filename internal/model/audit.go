package model

import "time"

// Audit event kinds.
const (
	EventConvoyDeployed = "CONVOY_DEPLOYED_BC"
	EventLedgerFailure  = "BC_LOG_FAILURE"
	EventUserRegistered = "USER_REGISTERED"
	EventUserLogin      = "USER_LOGIN"
)

// Audit entry statuses.
const (
	StatusSuccess  = "SUCCESS"
	StatusCritical = "CRITICAL"
	StatusInfo     = "INFO"
)

// AuditEntry is an append-only security log record. Entries are never
// modified or deleted once written; listing is by time descending.
type AuditEntry struct {
	ID     string    `json:"id" db:"id"`
	Time   time.Time `json:"time" db:"time"`
	Event  string    `json:"event" db:"event"`
	Actor  string    `json:"user" db:"actor"`
	Origin string    `json:"ip" db:"origin"`
	Status string    `json:"status" db:"status"`
}
