package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/forizec/forizec/internal/models"
	"github.com/forizec/forizec/internal/store"
)

type scheduleStore Tx

const scheduleColumns = `id, title, description, due_date, assigned_to, status, priority,
	created_at, completed_at, related_policy_id, related_procedure_id`

func scanSchedule(row pgx.Row, s *models.ComplianceSchedule) error {
	return row.Scan(&s.ID, &s.Title, &s.Description, &s.DueDate, &s.AssignedTo,
		&s.Status, &s.Priority, &s.CreatedAt, &s.CompletedAt,
		&s.RelatedPolicyID, &s.RelatedProcedureID)
}

func (s *scheduleStore) CreateSchedule(ctx context.Context, sched *models.ComplianceSchedule) error {
	if sched.Status == "" {
		sched.Status = models.TaskPending
	}
	if sched.Priority == "" {
		sched.Priority = models.PriorityMid
	}
	err := s.tx.QueryRow(ctx, `
		INSERT INTO compliance_schedule (title, description, due_date, assigned_to,
			status, priority, completed_at, related_policy_id, related_procedure_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`,
		sched.Title, sched.Description, sched.DueDate, sched.AssignedTo,
		string(sched.Status), string(sched.Priority), sched.CompletedAt,
		sched.RelatedPolicyID, sched.RelatedProcedureID,
	).Scan(&sched.ID, &sched.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create schedule: %w", mapPostgresError(err))
	}
	return nil
}

func (s *scheduleStore) GetSchedule(ctx context.Context, id int64) (*models.ComplianceSchedule, error) {
	var sched models.ComplianceSchedule
	row := s.tx.QueryRow(ctx,
		`SELECT `+scheduleColumns+` FROM compliance_schedule WHERE id = $1`, id)
	if err := scanSchedule(row, &sched); err != nil {
		return nil, mapPostgresError(err)
	}
	return &sched, nil
}

func (s *scheduleStore) listSchedules(ctx context.Context, query string, args ...any) ([]*models.ComplianceSchedule, error) {
	rows, err := s.tx.Query(ctx, query, args...)
	if err != nil {
		return nil, mapPostgresError(err)
	}
	defer rows.Close()

	var out []*models.ComplianceSchedule
	for rows.Next() {
		var sched models.ComplianceSchedule
		if err := scanSchedule(rows, &sched); err != nil {
			return nil, mapPostgresError(err)
		}
		out = append(out, &sched)
	}
	return out, mapPostgresError(rows.Err())
}

func (s *scheduleStore) ListSchedules(ctx context.Context) ([]*models.ComplianceSchedule, error) {
	return s.listSchedules(ctx,
		`SELECT `+scheduleColumns+` FROM compliance_schedule ORDER BY id`)
}

func (s *scheduleStore) ListSchedulesByUser(ctx context.Context, userID int64) ([]*models.ComplianceSchedule, error) {
	return s.listSchedules(ctx,
		`SELECT `+scheduleColumns+` FROM compliance_schedule WHERE assigned_to = $1 ORDER BY id`, userID)
}

func (s *scheduleStore) UpdateSchedule(ctx context.Context, sched *models.ComplianceSchedule) error {
	tag, err := s.tx.Exec(ctx, `
		UPDATE compliance_schedule
		SET title = $2, description = $3, due_date = $4, assigned_to = $5, status = $6,
			priority = $7, completed_at = $8, related_policy_id = $9, related_procedure_id = $10
		WHERE id = $1`,
		sched.ID, sched.Title, sched.Description, sched.DueDate, sched.AssignedTo,
		string(sched.Status), string(sched.Priority), sched.CompletedAt,
		sched.RelatedPolicyID, sched.RelatedProcedureID,
	)
	if err != nil {
		return fmt.Errorf("failed to update schedule: %w", mapPostgresError(err))
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *scheduleStore) DeleteSchedule(ctx context.Context, id int64) error {
	tag, err := s.tx.Exec(ctx, `DELETE FROM compliance_schedule WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete schedule: %w", mapPostgresError(err))
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Acceptances

func (s *scheduleStore) CreatePolicyAcceptance(ctx context.Context, a *models.PolicyAcceptance) error {
	err := s.tx.QueryRow(ctx, `
		INSERT INTO policy_acceptances (policy_id, user_id, accepted, comments)
		VALUES ($1, $2, $3, $4)
		RETURNING id, accepted_at`,
		a.PolicyID, a.UserID, a.Accepted, a.Comments,
	).Scan(&a.ID, &a.AcceptedAt)
	if err != nil {
		return fmt.Errorf("failed to create policy acceptance: %w", mapPostgresError(err))
	}
	return nil
}

func (s *scheduleStore) listPolicyAcceptances(ctx context.Context, query string, arg int64) ([]*models.PolicyAcceptance, error) {
	rows, err := s.tx.Query(ctx, query, arg)
	if err != nil {
		return nil, mapPostgresError(err)
	}
	defer rows.Close()

	var out []*models.PolicyAcceptance
	for rows.Next() {
		var a models.PolicyAcceptance
		if err := rows.Scan(&a.ID, &a.PolicyID, &a.UserID, &a.AcceptedAt,
			&a.Accepted, &a.Comments); err != nil {
			return nil, mapPostgresError(err)
		}
		out = append(out, &a)
	}
	return out, mapPostgresError(rows.Err())
}

func (s *scheduleStore) ListPolicyAcceptances(ctx context.Context, policyID int64) ([]*models.PolicyAcceptance, error) {
	return s.listPolicyAcceptances(ctx, `
		SELECT id, policy_id, user_id, accepted_at, accepted, comments
		FROM policy_acceptances WHERE policy_id = $1 ORDER BY id`, policyID)
}

func (s *scheduleStore) ListPolicyAcceptancesByUser(ctx context.Context, userID int64) ([]*models.PolicyAcceptance, error) {
	return s.listPolicyAcceptances(ctx, `
		SELECT id, policy_id, user_id, accepted_at, accepted, comments
		FROM policy_acceptances WHERE user_id = $1 ORDER BY id`, userID)
}

func (s *scheduleStore) CreateProcedureAcceptance(ctx context.Context, a *models.ProcedureAcceptance) error {
	err := s.tx.QueryRow(ctx, `
		INSERT INTO procedure_acceptances (procedure_id, user_id, accepted, comments)
		VALUES ($1, $2, $3, $4)
		RETURNING id, accepted_at`,
		a.ProcedureID, a.UserID, a.Accepted, a.Comments,
	).Scan(&a.ID, &a.AcceptedAt)
	if err != nil {
		return fmt.Errorf("failed to create procedure acceptance: %w", mapPostgresError(err))
	}
	return nil
}

func (s *scheduleStore) listProcedureAcceptances(ctx context.Context, query string, arg int64) ([]*models.ProcedureAcceptance, error) {
	rows, err := s.tx.Query(ctx, query, arg)
	if err != nil {
		return nil, mapPostgresError(err)
	}
	defer rows.Close()

	var out []*models.ProcedureAcceptance
	for rows.Next() {
		var a models.ProcedureAcceptance
		if err := rows.Scan(&a.ID, &a.ProcedureID, &a.UserID, &a.AcceptedAt,
			&a.Accepted, &a.Comments); err != nil {
			return nil, mapPostgresError(err)
		}
		out = append(out, &a)
	}
	return out, mapPostgresError(rows.Err())
}

func (s *scheduleStore) ListProcedureAcceptances(ctx context.Context, procedureID int64) ([]*models.ProcedureAcceptance, error) {
	return s.listProcedureAcceptances(ctx, `
		SELECT id, procedure_id, user_id, accepted_at, accepted, comments
		FROM procedure_acceptances WHERE procedure_id = $1 ORDER BY id`, procedureID)
}

func (s *scheduleStore) ListProcedureAcceptancesByUser(ctx context.Context, userID int64) ([]*models.ProcedureAcceptance, error) {
	return s.listProcedureAcceptances(ctx, `
		SELECT id, procedure_id, user_id, accepted_at, accepted, comments
		FROM procedure_acceptances WHERE user_id = $1 ORDER BY id`, userID)
}
