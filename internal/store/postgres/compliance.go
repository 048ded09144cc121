package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/forizec/forizec/internal/models"
	"github.com/forizec/forizec/internal/store"
)

type complianceStore Tx

// Services

func (s *complianceStore) CreateService(ctx context.Context, svc *models.Service) error {
	err := s.tx.QueryRow(ctx,
		`INSERT INTO services (name, description) VALUES ($1, $2) RETURNING id`,
		svc.Name, svc.Description,
	).Scan(&svc.ID)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", mapPostgresError(err))
	}
	return nil
}

func (s *complianceStore) GetService(ctx context.Context, id int64) (*models.Service, error) {
	var svc models.Service
	err := s.tx.QueryRow(ctx,
		`SELECT id, name, description FROM services WHERE id = $1`, id,
	).Scan(&svc.ID, &svc.Name, &svc.Description)
	if err != nil {
		return nil, mapPostgresError(err)
	}
	return &svc, nil
}

func (s *complianceStore) ListServices(ctx context.Context) ([]*models.Service, error) {
	rows, err := s.tx.Query(ctx,
		`SELECT id, name, description FROM services ORDER BY id`)
	if err != nil {
		return nil, mapPostgresError(err)
	}
	defer rows.Close()

	var out []*models.Service
	for rows.Next() {
		var svc models.Service
		if err := rows.Scan(&svc.ID, &svc.Name, &svc.Description); err != nil {
			return nil, mapPostgresError(err)
		}
		out = append(out, &svc)
	}
	return out, mapPostgresError(rows.Err())
}

func (s *complianceStore) UpdateService(ctx context.Context, svc *models.Service) error {
	tag, err := s.tx.Exec(ctx,
		`UPDATE services SET name = $2, description = $3 WHERE id = $1`,
		svc.ID, svc.Name, svc.Description,
	)
	if err != nil {
		return fmt.Errorf("failed to update service: %w", mapPostgresError(err))
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *complianceStore) DeleteService(ctx context.Context, id int64) error {
	tag, err := s.tx.Exec(ctx, `DELETE FROM services WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete service: %w", mapPostgresError(err))
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Policies

func (s *complianceStore) CreatePolicy(ctx context.Context, p *models.Policy) error {
	if p.Priority == "" {
		p.Priority = models.PriorityMid
	}
	if p.Status == "" {
		p.Status = models.StatusPending
	}
	err := s.tx.QueryRow(ctx, `
		INSERT INTO policies (service_id, title, number, description, priority, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`,
		p.ServiceID, p.Title, p.Number, p.Description, string(p.Priority), string(p.Status),
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create policy: %w", mapPostgresError(err))
	}
	return nil
}

func scanPolicy(row pgx.Row, p *models.Policy) error {
	return row.Scan(&p.ID, &p.ServiceID, &p.Title, &p.Number, &p.Description,
		&p.Priority, &p.Status, &p.CreatedAt, &p.UpdatedAt)
}

const policyColumns = `id, service_id, title, number, description, priority, status, created_at, updated_at`

func (s *complianceStore) GetPolicy(ctx context.Context, id int64) (*models.Policy, error) {
	var p models.Policy
	row := s.tx.QueryRow(ctx,
		`SELECT `+policyColumns+` FROM policies WHERE id = $1`, id)
	if err := scanPolicy(row, &p); err != nil {
		return nil, mapPostgresError(err)
	}
	return &p, nil
}

func (s *complianceStore) ListPoliciesByService(ctx context.Context, serviceID int64) ([]*models.Policy, error) {
	rows, err := s.tx.Query(ctx,
		`SELECT `+policyColumns+` FROM policies WHERE service_id = $1 ORDER BY id`, serviceID)
	if err != nil {
		return nil, mapPostgresError(err)
	}
	defer rows.Close()

	var out []*models.Policy
	for rows.Next() {
		var p models.Policy
		if err := scanPolicy(rows, &p); err != nil {
			return nil, mapPostgresError(err)
		}
		out = append(out, &p)
	}
	return out, mapPostgresError(rows.Err())
}

func (s *complianceStore) UpdatePolicy(ctx context.Context, p *models.Policy) error {
	tag, err := s.tx.Exec(ctx, `
		UPDATE policies
		SET service_id = $2, title = $3, number = $4, description = $5, priority = $6, status = $7
		WHERE id = $1`,
		p.ID, p.ServiceID, p.Title, p.Number, p.Description, string(p.Priority), string(p.Status),
	)
	if err != nil {
		return fmt.Errorf("failed to update policy: %w", mapPostgresError(err))
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *complianceStore) DeletePolicy(ctx context.Context, id int64) error {
	tag, err := s.tx.Exec(ctx, `DELETE FROM policies WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete policy: %w", mapPostgresError(err))
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Procedures

const procedureColumns = `id, policy_id, title, path, version, priority, status, created_at, updated_at`

func scanProcedure(row pgx.Row, p *models.Procedure) error {
	return row.Scan(&p.ID, &p.PolicyID, &p.Title, &p.Path, &p.Version,
		&p.Priority, &p.Status, &p.CreatedAt, &p.UpdatedAt)
}

func (s *complianceStore) CreateProcedure(ctx context.Context, p *models.Procedure) error {
	if p.Priority == "" {
		p.Priority = models.PriorityMid
	}
	if p.Status == "" {
		p.Status = models.StatusPending
	}
	err := s.tx.QueryRow(ctx, `
		INSERT INTO procedures (policy_id, title, path, version, priority, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`,
		p.PolicyID, p.Title, p.Path, p.Version, string(p.Priority), string(p.Status),
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create procedure: %w", mapPostgresError(err))
	}
	return nil
}

func (s *complianceStore) GetProcedure(ctx context.Context, id int64) (*models.Procedure, error) {
	var p models.Procedure
	row := s.tx.QueryRow(ctx,
		`SELECT `+procedureColumns+` FROM procedures WHERE id = $1`, id)
	if err := scanProcedure(row, &p); err != nil {
		return nil, mapPostgresError(err)
	}
	return &p, nil
}

func (s *complianceStore) ListProceduresByPolicy(ctx context.Context, policyID int64) ([]*models.Procedure, error) {
	rows, err := s.tx.Query(ctx,
		`SELECT `+procedureColumns+` FROM procedures WHERE policy_id = $1 ORDER BY id`, policyID)
	if err != nil {
		return nil, mapPostgresError(err)
	}
	defer rows.Close()

	var out []*models.Procedure
	for rows.Next() {
		var p models.Procedure
		if err := scanProcedure(rows, &p); err != nil {
			return nil, mapPostgresError(err)
		}
		out = append(out, &p)
	}
	return out, mapPostgresError(rows.Err())
}

func (s *complianceStore) UpdateProcedure(ctx context.Context, p *models.Procedure) error {
	tag, err := s.tx.Exec(ctx, `
		UPDATE procedures
		SET policy_id = $2, title = $3, path = $4, version = $5, priority = $6, status = $7
		WHERE id = $1`,
		p.ID, p.PolicyID, p.Title, p.Path, p.Version, string(p.Priority), string(p.Status),
	)
	if err != nil {
		return fmt.Errorf("failed to update procedure: %w", mapPostgresError(err))
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *complianceStore) DeleteProcedure(ctx context.Context, id int64) error {
	tag, err := s.tx.Exec(ctx, `DELETE FROM procedures WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete procedure: %w", mapPostgresError(err))
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Checklist items

func (s *complianceStore) CreateChecklistItem(ctx context.Context, item *models.ChecklistItem) error {
	err := s.tx.QueryRow(ctx, `
		INSERT INTO checklist_items (procedure_id, description, sort_order)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`,
		item.ProcedureID, item.Description, item.SortOrder,
	).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create checklist item: %w", mapPostgresError(err))
	}
	return nil
}

func (s *complianceStore) GetChecklistItem(ctx context.Context, id int64) (*models.ChecklistItem, error) {
	var item models.ChecklistItem
	err := s.tx.QueryRow(ctx, `
		SELECT id, procedure_id, description, sort_order, created_at, updated_at
		FROM checklist_items WHERE id = $1`, id,
	).Scan(&item.ID, &item.ProcedureID, &item.Description, &item.SortOrder,
		&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, mapPostgresError(err)
	}
	return &item, nil
}

func (s *complianceStore) ListChecklistItems(ctx context.Context, procedureID int64) ([]*models.ChecklistItem, error) {
	rows, err := s.tx.Query(ctx, `
		SELECT id, procedure_id, description, sort_order, created_at, updated_at
		FROM checklist_items WHERE procedure_id = $1
		ORDER BY sort_order, id`, procedureID)
	if err != nil {
		return nil, mapPostgresError(err)
	}
	defer rows.Close()

	var out []*models.ChecklistItem
	for rows.Next() {
		var item models.ChecklistItem
		if err := rows.Scan(&item.ID, &item.ProcedureID, &item.Description,
			&item.SortOrder, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, mapPostgresError(err)
		}
		out = append(out, &item)
	}
	return out, mapPostgresError(rows.Err())
}

func (s *complianceStore) UpdateChecklistItem(ctx context.Context, item *models.ChecklistItem) error {
	tag, err := s.tx.Exec(ctx, `
		UPDATE checklist_items
		SET procedure_id = $2, description = $3, sort_order = $4
		WHERE id = $1`,
		item.ID, item.ProcedureID, item.Description, item.SortOrder,
	)
	if err != nil {
		return fmt.Errorf("failed to update checklist item: %w", mapPostgresError(err))
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *complianceStore) DeleteChecklistItem(ctx context.Context, id int64) error {
	tag, err := s.tx.Exec(ctx, `DELETE FROM checklist_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete checklist item: %w", mapPostgresError(err))
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Risks

const riskColumns = `id, date_raised, raised_by, risk_category, event, cause, consequence,
	likelihood, consequence_rating, risk_rating, action, plan, risk_owner, resolve_by,
	method, progress_compliance_reporting, status, email_subject, email_body,
	related_policy_id, related_procedure_id`

func scanRisk(row pgx.Row, r *models.Risk) error {
	return row.Scan(&r.ID, &r.DateRaised, &r.RaisedBy, &r.RiskCategory, &r.Event,
		&r.Cause, &r.Consequence, &r.Likelihood, &r.ConsequenceRating, &r.RiskRating,
		&r.Action, &r.Plan, &r.RiskOwner, &r.ResolveBy, &r.Method,
		&r.ProgressReporting, &r.Status, &r.EmailSubject, &r.EmailBody,
		&r.RelatedPolicyID, &r.RelatedProcedureID)
}

func (s *complianceStore) CreateRisk(ctx context.Context, r *models.Risk) error {
	err := s.tx.QueryRow(ctx, `
		INSERT INTO risks (date_raised, raised_by, risk_category, event, cause, consequence,
			likelihood, consequence_rating, risk_rating, action, plan, risk_owner, resolve_by,
			method, progress_compliance_reporting, status, email_subject, email_body,
			related_policy_id, related_procedure_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		RETURNING id`,
		r.DateRaised, r.RaisedBy, r.RiskCategory, r.Event, r.Cause, r.Consequence,
		r.Likelihood, r.ConsequenceRating, r.RiskRating, r.Action, r.Plan, r.RiskOwner,
		r.ResolveBy, r.Method, r.ProgressReporting, r.Status, r.EmailSubject, r.EmailBody,
		r.RelatedPolicyID, r.RelatedProcedureID,
	).Scan(&r.ID)
	if err != nil {
		return fmt.Errorf("failed to create risk: %w", mapPostgresError(err))
	}
	return nil
}

func (s *complianceStore) GetRisk(ctx context.Context, id int64) (*models.Risk, error) {
	var r models.Risk
	row := s.tx.QueryRow(ctx, `SELECT `+riskColumns+` FROM risks WHERE id = $1`, id)
	if err := scanRisk(row, &r); err != nil {
		return nil, mapPostgresError(err)
	}
	return &r, nil
}

func (s *complianceStore) listRisks(ctx context.Context, query string, arg int64) ([]*models.Risk, error) {
	rows, err := s.tx.Query(ctx, query, arg)
	if err != nil {
		return nil, mapPostgresError(err)
	}
	defer rows.Close()

	var out []*models.Risk
	for rows.Next() {
		var r models.Risk
		if err := scanRisk(rows, &r); err != nil {
			return nil, mapPostgresError(err)
		}
		out = append(out, &r)
	}
	return out, mapPostgresError(rows.Err())
}

func (s *complianceStore) ListRisksByPolicy(ctx context.Context, policyID int64) ([]*models.Risk, error) {
	return s.listRisks(ctx,
		`SELECT `+riskColumns+` FROM risks WHERE related_policy_id = $1 ORDER BY id`, policyID)
}

func (s *complianceStore) ListRisksByProcedure(ctx context.Context, procedureID int64) ([]*models.Risk, error) {
	return s.listRisks(ctx,
		`SELECT `+riskColumns+` FROM risks WHERE related_procedure_id = $1 ORDER BY id`, procedureID)
}

func (s *complianceStore) UpdateRisk(ctx context.Context, r *models.Risk) error {
	tag, err := s.tx.Exec(ctx, `
		UPDATE risks
		SET date_raised = $2, raised_by = $3, risk_category = $4, event = $5, cause = $6,
			consequence = $7, likelihood = $8, consequence_rating = $9, risk_rating = $10,
			action = $11, plan = $12, risk_owner = $13, resolve_by = $14, method = $15,
			progress_compliance_reporting = $16, status = $17, email_subject = $18,
			email_body = $19, related_policy_id = $20, related_procedure_id = $21
		WHERE id = $1`,
		r.ID, r.DateRaised, r.RaisedBy, r.RiskCategory, r.Event, r.Cause, r.Consequence,
		r.Likelihood, r.ConsequenceRating, r.RiskRating, r.Action, r.Plan, r.RiskOwner,
		r.ResolveBy, r.Method, r.ProgressReporting, r.Status, r.EmailSubject, r.EmailBody,
		r.RelatedPolicyID, r.RelatedProcedureID,
	)
	if err != nil {
		return fmt.Errorf("failed to update risk: %w", mapPostgresError(err))
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *complianceStore) DeleteRisk(ctx context.Context, id int64) error {
	tag, err := s.tx.Exec(ctx, `DELETE FROM risks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete risk: %w", mapPostgresError(err))
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Activity logs

func (s *complianceStore) CreateActivityLog(ctx context.Context, a *models.ActivityLog) error {
	err := s.tx.QueryRow(ctx, `
		INSERT INTO activity_logs (procedure_id, description, performed_by, timestamp, outcome)
		VALUES ($1, $2, $3, COALESCE($4, now()), $5)
		RETURNING id, timestamp`,
		a.ProcedureID, a.Description, a.PerformedBy, nullableTime(a.Timestamp), a.Outcome,
	).Scan(&a.ID, &a.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to create activity log: %w", mapPostgresError(err))
	}
	return nil
}

func (s *complianceStore) ListActivityLogs(ctx context.Context, procedureID int64) ([]*models.ActivityLog, error) {
	rows, err := s.tx.Query(ctx, `
		SELECT id, procedure_id, description, performed_by, timestamp, outcome
		FROM activity_logs WHERE procedure_id = $1 ORDER BY id`, procedureID)
	if err != nil {
		return nil, mapPostgresError(err)
	}
	defer rows.Close()

	var out []*models.ActivityLog
	for rows.Next() {
		var a models.ActivityLog
		if err := rows.Scan(&a.ID, &a.ProcedureID, &a.Description, &a.PerformedBy,
			&a.Timestamp, &a.Outcome); err != nil {
			return nil, mapPostgresError(err)
		}
		out = append(out, &a)
	}
	return out, mapPostgresError(rows.Err())
}
