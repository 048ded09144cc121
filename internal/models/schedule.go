package models

import "time"

// ComplianceSchedule is a dated compliance task, optionally assigned to a user
// and optionally referencing a policy or procedure. The policy/procedure
// references are not owning edges: when the referenced row goes away the
// reference is nulled, not the schedule deleted.
type ComplianceSchedule struct {
	ID                 int64      `json:"id"`
	Title              string     `json:"title"`
	Description        string     `json:"description,omitempty"`
	DueDate            time.Time  `json:"due_date"`
	AssignedTo         *int64     `json:"assigned_to,omitempty"`
	Status             TaskStatus `json:"status"`
	Priority           Priority   `json:"priority"`
	CreatedAt          time.Time  `json:"created_at"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	RelatedPolicyID    *int64     `json:"related_policy_id,omitempty"`
	RelatedProcedureID *int64     `json:"related_procedure_id,omitempty"`
}

// PolicyAcceptance records a user's acknowledgement of a policy.
type PolicyAcceptance struct {
	ID         int64     `json:"id"`
	PolicyID   int64     `json:"policy_id"`
	UserID     int64     `json:"user_id"`
	AcceptedAt time.Time `json:"accepted_at"`
	Accepted   bool      `json:"accepted"`
	Comments   string    `json:"comments,omitempty"`
}

// ProcedureAcceptance records a user's acknowledgement of a procedure.
type ProcedureAcceptance struct {
	ID          int64     `json:"id"`
	ProcedureID int64     `json:"procedure_id"`
	UserID      int64     `json:"user_id"`
	AcceptedAt  time.Time `json:"accepted_at"`
	Accepted    bool      `json:"accepted"`
	Comments    string    `json:"comments,omitempty"`
}
