package models

// Enum values are stored in the database as their string form, so the schema
// stays portable across backends. Each type is a closed set and persisting a
// member must round-trip to exactly the same member.

// UserRole is the access level of a user account.
type UserRole string

const (
	RoleOwner UserRole = "owner"
	RoleUser  UserRole = "user"
)

// Valid reports whether the role is a known member.
func (r UserRole) Valid() bool {
	switch r {
	case RoleOwner, RoleUser:
		return true
	}
	return false
}

// ComplianceStatus tracks a policy or procedure through its review lifecycle.
type ComplianceStatus string

const (
	StatusPending     ComplianceStatus = "pending"
	StatusReviewed    ComplianceStatus = "reviewed"
	StatusImplemented ComplianceStatus = "implemented"
	StatusActioned    ComplianceStatus = "actioned"
	StatusLive        ComplianceStatus = "live"
)

func (s ComplianceStatus) Valid() bool {
	switch s {
	case StatusPending, StatusReviewed, StatusImplemented, StatusActioned, StatusLive:
		return true
	}
	return false
}

// TaskStatus tracks a compliance schedule entry.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskCancelled  TaskStatus = "cancelled"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskPending, TaskInProgress, TaskCompleted, TaskCancelled:
		return true
	}
	return false
}

// Priority ranks policies, procedures and schedule entries.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMid      Priority = "mid"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMid, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}
