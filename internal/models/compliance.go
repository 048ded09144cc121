package models

import "time"

// Service is a registered service offering. It owns its policies: deleting a
// service cascades through every policy and everything those policies own.
type Service struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Policy belongs to a service and owns procedures, documents, acceptances and
// risks.
type Policy struct {
	ID          int64            `json:"id"`
	ServiceID   int64            `json:"service_id"`
	Title       string           `json:"title"`
	Number      string           `json:"number,omitempty"`
	Description string           `json:"description,omitempty"`
	Priority    Priority         `json:"priority"`
	Status      ComplianceStatus `json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// Procedure belongs to a policy and owns checklist items, activity logs,
// documents, acceptances and risks.
type Procedure struct {
	ID        int64            `json:"id"`
	PolicyID  int64            `json:"policy_id"`
	Title     string           `json:"title"`
	Path      string           `json:"path,omitempty"`
	Version   string           `json:"version,omitempty"`
	Priority  Priority         `json:"priority"`
	Status    ComplianceStatus `json:"status"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// ChecklistItem is a single ordered step of a procedure.
type ChecklistItem struct {
	ID          int64     `json:"id"`
	ProcedureID int64     `json:"procedure_id"`
	Description string    `json:"description"`
	SortOrder   int       `json:"sort_order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Risk captures a risk register entry. It may hang off a policy, a procedure,
// or both; either owner deleting cascades onto the risk.
type Risk struct {
	ID                 int64      `json:"id"`
	DateRaised         *time.Time `json:"date_raised,omitempty"`
	RaisedBy           string     `json:"raised_by,omitempty"`
	RiskCategory       string     `json:"risk_category,omitempty"`
	Event              string     `json:"event,omitempty"`
	Cause              string     `json:"cause,omitempty"`
	Consequence        string     `json:"consequence,omitempty"`
	Likelihood         string     `json:"likelihood,omitempty"`
	ConsequenceRating  string     `json:"consequence_rating,omitempty"`
	RiskRating         string     `json:"risk_rating,omitempty"`
	Action             string     `json:"action,omitempty"`
	Plan               string     `json:"plan,omitempty"`
	RiskOwner          string     `json:"risk_owner,omitempty"`
	ResolveBy          *time.Time `json:"resolve_by,omitempty"`
	Method             string     `json:"method,omitempty"`
	ProgressReporting  string     `json:"progress_reporting,omitempty"`
	Status             string     `json:"status,omitempty"`
	EmailSubject       string     `json:"email_subject,omitempty"`
	EmailBody          string     `json:"email_body,omitempty"`
	RelatedPolicyID    *int64     `json:"related_policy_id,omitempty"`
	RelatedProcedureID *int64     `json:"related_procedure_id,omitempty"`
}

// ActivityLog records an action performed against a procedure.
type ActivityLog struct {
	ID          int64     `json:"id"`
	ProcedureID int64     `json:"procedure_id"`
	Description string    `json:"description"`
	PerformedBy string    `json:"performed_by,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	Outcome     string    `json:"outcome,omitempty"`
}
