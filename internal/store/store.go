package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/forizec/forizec/internal/models"
)

// Sentinel errors for common failure conditions. The HTTP responder keys its
// taxonomy off these, so both backends must return them consistently.
var (
	ErrNotFound            = errors.New("record not found")
	ErrConstraintViolation = errors.New("constraint violation")
	ErrUnavailable         = errors.New("database unavailable")
	ErrPoolExhausted       = errors.New("connection pool exhausted")
	ErrTimeout             = errors.New("operation timed out")
)

// ConstraintError carries the storage-level detail of a referential or
// uniqueness violation. It unwraps to ErrConstraintViolation so callers can
// classify without inspecting the backend.
type ConstraintError struct {
	Constraint string
	Detail     string
}

func (e *ConstraintError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("constraint violation: %s", e.Constraint)
	}
	return fmt.Sprintf("constraint violation: %s: %s", e.Constraint, e.Detail)
}

func (e *ConstraintError) Unwrap() error { return ErrConstraintViolation }

// Store provides one transactional session per request. WithinTx commits when
// fn returns nil and rolls back on any error; the caller never observes a
// half-applied transaction. A Tx must not be shared across requests.
type Store interface {
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
	Ping(ctx context.Context) error
	Close()
}

// Tx is the unit of work handed to a request handler. All reads within it see
// the transaction's own writes; navigation between entities is a foreign-key
// lookup against committed-plus-pending state.
type Tx interface {
	Compliance() ComplianceStore
	Users() UserStore
	Documents() DocumentStore
	Schedules() ScheduleStore
}

// ComplianceStore covers the service → policy → procedure ownership chain and
// everything hanging off it. Create assigns the ID and timestamps; Update
// advances UpdatedAt; Delete cascades per the ownership edges and is
// idempotent for descendants reachable along more than one path.
type ComplianceStore interface {
	CreateService(ctx context.Context, svc *models.Service) error
	GetService(ctx context.Context, id int64) (*models.Service, error)
	ListServices(ctx context.Context) ([]*models.Service, error)
	UpdateService(ctx context.Context, svc *models.Service) error
	DeleteService(ctx context.Context, id int64) error

	CreatePolicy(ctx context.Context, p *models.Policy) error
	GetPolicy(ctx context.Context, id int64) (*models.Policy, error)
	ListPoliciesByService(ctx context.Context, serviceID int64) ([]*models.Policy, error)
	UpdatePolicy(ctx context.Context, p *models.Policy) error
	DeletePolicy(ctx context.Context, id int64) error

	CreateProcedure(ctx context.Context, p *models.Procedure) error
	GetProcedure(ctx context.Context, id int64) (*models.Procedure, error)
	ListProceduresByPolicy(ctx context.Context, policyID int64) ([]*models.Procedure, error)
	UpdateProcedure(ctx context.Context, p *models.Procedure) error
	DeleteProcedure(ctx context.Context, id int64) error

	CreateChecklistItem(ctx context.Context, item *models.ChecklistItem) error
	GetChecklistItem(ctx context.Context, id int64) (*models.ChecklistItem, error)
	ListChecklistItems(ctx context.Context, procedureID int64) ([]*models.ChecklistItem, error)
	UpdateChecklistItem(ctx context.Context, item *models.ChecklistItem) error
	DeleteChecklistItem(ctx context.Context, id int64) error

	CreateRisk(ctx context.Context, r *models.Risk) error
	GetRisk(ctx context.Context, id int64) (*models.Risk, error)
	ListRisksByPolicy(ctx context.Context, policyID int64) ([]*models.Risk, error)
	ListRisksByProcedure(ctx context.Context, procedureID int64) ([]*models.Risk, error)
	UpdateRisk(ctx context.Context, r *models.Risk) error
	DeleteRisk(ctx context.Context, id int64) error

	CreateActivityLog(ctx context.Context, a *models.ActivityLog) error
	ListActivityLogs(ctx context.Context, procedureID int64) ([]*models.ActivityLog, error)
}

// UserStore covers accounts, invitations and reminders.
type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error
	DeleteUser(ctx context.Context, id int64) error

	CreateInvitation(ctx context.Context, inv *models.UserInvitation) error
	GetInvitationByToken(ctx context.Context, token string) (*models.UserInvitation, error)
	ListInvitations(ctx context.Context) ([]*models.UserInvitation, error)
	UpdateInvitation(ctx context.Context, inv *models.UserInvitation) error

	CreateReminder(ctx context.Context, r *models.Reminder) error
	GetReminder(ctx context.Context, id int64) (*models.Reminder, error)
	ListRemindersByUser(ctx context.Context, userID int64) ([]*models.Reminder, error)
	UpdateReminder(ctx context.Context, r *models.Reminder) error
	DeleteReminder(ctx context.Context, id int64) error
}

// DocumentStore covers uploaded file metadata.
type DocumentStore interface {
	CreateDocument(ctx context.Context, d *models.Document) error
	GetDocument(ctx context.Context, id int64) (*models.Document, error)
	ListDocumentsByPolicy(ctx context.Context, policyID int64) ([]*models.Document, error)
	ListDocumentsByProcedure(ctx context.Context, procedureID int64) ([]*models.Document, error)
	ListDocumentsByUser(ctx context.Context, userID int64) ([]*models.Document, error)
	DeleteDocument(ctx context.Context, id int64) error
}

// ScheduleStore covers compliance schedule entries and acceptances.
type ScheduleStore interface {
	CreateSchedule(ctx context.Context, s *models.ComplianceSchedule) error
	GetSchedule(ctx context.Context, id int64) (*models.ComplianceSchedule, error)
	ListSchedules(ctx context.Context) ([]*models.ComplianceSchedule, error)
	ListSchedulesByUser(ctx context.Context, userID int64) ([]*models.ComplianceSchedule, error)
	UpdateSchedule(ctx context.Context, s *models.ComplianceSchedule) error
	DeleteSchedule(ctx context.Context, id int64) error

	CreatePolicyAcceptance(ctx context.Context, a *models.PolicyAcceptance) error
	ListPolicyAcceptances(ctx context.Context, policyID int64) ([]*models.PolicyAcceptance, error)
	ListPolicyAcceptancesByUser(ctx context.Context, userID int64) ([]*models.PolicyAcceptance, error)

	CreateProcedureAcceptance(ctx context.Context, a *models.ProcedureAcceptance) error
	ListProcedureAcceptances(ctx context.Context, procedureID int64) ([]*models.ProcedureAcceptance, error)
	ListProcedureAcceptancesByUser(ctx context.Context, userID int64) ([]*models.ProcedureAcceptance, error)
}
