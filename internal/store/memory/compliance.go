package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/forizec/forizec/internal/models"
	"github.com/forizec/forizec/internal/store"
)

type complianceStore Tx

func (s *complianceStore) tx() *Tx { return (*Tx)(s) }

func fkViolation(constraint string, id int64) *store.ConstraintError {
	return &store.ConstraintError{
		Constraint: constraint,
		Detail:     fmt.Sprintf("referenced row id=%d is not present", id),
	}
}

func checkViolation(constraint, value string) *store.ConstraintError {
	return &store.ConstraintError{
		Constraint: constraint,
		Detail:     fmt.Sprintf("value %q is outside the allowed set", value),
	}
}

// Services

func (s *complianceStore) CreateService(ctx context.Context, svc *models.Service) error {
	svc.ID = s.data.seq("services")
	cp := *svc
	s.data.services[svc.ID] = &cp
	return nil
}

func (s *complianceStore) GetService(ctx context.Context, id int64) (*models.Service, error) {
	svc, ok := s.data.services[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *svc
	return &cp, nil
}

func (s *complianceStore) ListServices(ctx context.Context) ([]*models.Service, error) {
	out := make([]*models.Service, 0, len(s.data.services))
	for _, svc := range s.data.services {
		cp := *svc
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *complianceStore) UpdateService(ctx context.Context, svc *models.Service) error {
	if _, ok := s.data.services[svc.ID]; !ok {
		return store.ErrNotFound
	}
	cp := *svc
	s.data.services[svc.ID] = &cp
	return nil
}

func (s *complianceStore) DeleteService(ctx context.Context, id int64) error {
	if _, ok := s.data.services[id]; !ok {
		return store.ErrNotFound
	}
	s.tx().deleteService(id)
	return nil
}

// Policies

func (s *complianceStore) CreatePolicy(ctx context.Context, p *models.Policy) error {
	if _, ok := s.data.services[p.ServiceID]; !ok {
		return fkViolation("policies_service_id_fkey", p.ServiceID)
	}
	if p.Priority == "" {
		p.Priority = models.PriorityMid
	}
	if p.Status == "" {
		p.Status = models.StatusPending
	}
	if !p.Priority.Valid() {
		return checkViolation("policies_priority_check", string(p.Priority))
	}
	if !p.Status.Valid() {
		return checkViolation("policies_status_check", string(p.Status))
	}
	p.ID = s.data.seq("policies")
	p.CreatedAt = s.now()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	s.data.policies[p.ID] = &cp
	return nil
}

func (s *complianceStore) GetPolicy(ctx context.Context, id int64) (*models.Policy, error) {
	p, ok := s.data.policies[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *complianceStore) ListPoliciesByService(ctx context.Context, serviceID int64) ([]*models.Policy, error) {
	var out []*models.Policy
	for _, p := range s.data.policies {
		if p.ServiceID == serviceID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *complianceStore) UpdatePolicy(ctx context.Context, p *models.Policy) error {
	if _, ok := s.data.policies[p.ID]; !ok {
		return store.ErrNotFound
	}
	if _, ok := s.data.services[p.ServiceID]; !ok {
		return fkViolation("policies_service_id_fkey", p.ServiceID)
	}
	if !p.Priority.Valid() {
		return checkViolation("policies_priority_check", string(p.Priority))
	}
	if !p.Status.Valid() {
		return checkViolation("policies_status_check", string(p.Status))
	}
	p.UpdatedAt = s.now()
	cp := *p
	s.data.policies[p.ID] = &cp
	return nil
}

func (s *complianceStore) DeletePolicy(ctx context.Context, id int64) error {
	if _, ok := s.data.policies[id]; !ok {
		return store.ErrNotFound
	}
	s.tx().deletePolicy(id)
	return nil
}

// Procedures

func (s *complianceStore) CreateProcedure(ctx context.Context, p *models.Procedure) error {
	if _, ok := s.data.policies[p.PolicyID]; !ok {
		return fkViolation("procedures_policy_id_fkey", p.PolicyID)
	}
	if p.Priority == "" {
		p.Priority = models.PriorityMid
	}
	if p.Status == "" {
		p.Status = models.StatusPending
	}
	if !p.Priority.Valid() {
		return checkViolation("procedures_priority_check", string(p.Priority))
	}
	if !p.Status.Valid() {
		return checkViolation("procedures_status_check", string(p.Status))
	}
	p.ID = s.data.seq("procedures")
	p.CreatedAt = s.now()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	s.data.procedures[p.ID] = &cp
	return nil
}

func (s *complianceStore) GetProcedure(ctx context.Context, id int64) (*models.Procedure, error) {
	p, ok := s.data.procedures[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *complianceStore) ListProceduresByPolicy(ctx context.Context, policyID int64) ([]*models.Procedure, error) {
	var out []*models.Procedure
	for _, p := range s.data.procedures {
		if p.PolicyID == policyID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *complianceStore) UpdateProcedure(ctx context.Context, p *models.Procedure) error {
	if _, ok := s.data.procedures[p.ID]; !ok {
		return store.ErrNotFound
	}
	if _, ok := s.data.policies[p.PolicyID]; !ok {
		return fkViolation("procedures_policy_id_fkey", p.PolicyID)
	}
	if !p.Priority.Valid() {
		return checkViolation("procedures_priority_check", string(p.Priority))
	}
	if !p.Status.Valid() {
		return checkViolation("procedures_status_check", string(p.Status))
	}
	p.UpdatedAt = s.now()
	cp := *p
	s.data.procedures[p.ID] = &cp
	return nil
}

func (s *complianceStore) DeleteProcedure(ctx context.Context, id int64) error {
	if _, ok := s.data.procedures[id]; !ok {
		return store.ErrNotFound
	}
	s.tx().deleteProcedure(id)
	return nil
}

// Checklist items

func (s *complianceStore) CreateChecklistItem(ctx context.Context, item *models.ChecklistItem) error {
	if _, ok := s.data.procedures[item.ProcedureID]; !ok {
		return fkViolation("checklist_items_procedure_id_fkey", item.ProcedureID)
	}
	item.ID = s.data.seq("checklist_items")
	item.CreatedAt = s.now()
	item.UpdatedAt = item.CreatedAt
	cp := *item
	s.data.checklistItems[item.ID] = &cp
	return nil
}

func (s *complianceStore) GetChecklistItem(ctx context.Context, id int64) (*models.ChecklistItem, error) {
	item, ok := s.data.checklistItems[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *item
	return &cp, nil
}

func (s *complianceStore) ListChecklistItems(ctx context.Context, procedureID int64) ([]*models.ChecklistItem, error) {
	var out []*models.ChecklistItem
	for _, item := range s.data.checklistItems {
		if item.ProcedureID == procedureID {
			cp := *item
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *complianceStore) UpdateChecklistItem(ctx context.Context, item *models.ChecklistItem) error {
	if _, ok := s.data.checklistItems[item.ID]; !ok {
		return store.ErrNotFound
	}
	if _, ok := s.data.procedures[item.ProcedureID]; !ok {
		return fkViolation("checklist_items_procedure_id_fkey", item.ProcedureID)
	}
	item.UpdatedAt = s.now()
	cp := *item
	s.data.checklistItems[item.ID] = &cp
	return nil
}

func (s *complianceStore) DeleteChecklistItem(ctx context.Context, id int64) error {
	if _, ok := s.data.checklistItems[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.data.checklistItems, id)
	return nil
}

// Risks

func (s *complianceStore) CreateRisk(ctx context.Context, r *models.Risk) error {
	if r.RelatedPolicyID != nil {
		if _, ok := s.data.policies[*r.RelatedPolicyID]; !ok {
			return fkViolation("risks_related_policy_id_fkey", *r.RelatedPolicyID)
		}
	}
	if r.RelatedProcedureID != nil {
		if _, ok := s.data.procedures[*r.RelatedProcedureID]; !ok {
			return fkViolation("risks_related_procedure_id_fkey", *r.RelatedProcedureID)
		}
	}
	r.ID = s.data.seq("risks")
	cp := *r
	s.data.risks[r.ID] = &cp
	return nil
}

func (s *complianceStore) GetRisk(ctx context.Context, id int64) (*models.Risk, error) {
	r, ok := s.data.risks[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *complianceStore) ListRisksByPolicy(ctx context.Context, policyID int64) ([]*models.Risk, error) {
	var out []*models.Risk
	for _, r := range s.data.risks {
		if r.RelatedPolicyID != nil && *r.RelatedPolicyID == policyID {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *complianceStore) ListRisksByProcedure(ctx context.Context, procedureID int64) ([]*models.Risk, error) {
	var out []*models.Risk
	for _, r := range s.data.risks {
		if r.RelatedProcedureID != nil && *r.RelatedProcedureID == procedureID {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *complianceStore) UpdateRisk(ctx context.Context, r *models.Risk) error {
	if _, ok := s.data.risks[r.ID]; !ok {
		return store.ErrNotFound
	}
	if r.RelatedPolicyID != nil {
		if _, ok := s.data.policies[*r.RelatedPolicyID]; !ok {
			return fkViolation("risks_related_policy_id_fkey", *r.RelatedPolicyID)
		}
	}
	if r.RelatedProcedureID != nil {
		if _, ok := s.data.procedures[*r.RelatedProcedureID]; !ok {
			return fkViolation("risks_related_procedure_id_fkey", *r.RelatedProcedureID)
		}
	}
	cp := *r
	s.data.risks[r.ID] = &cp
	return nil
}

func (s *complianceStore) DeleteRisk(ctx context.Context, id int64) error {
	if _, ok := s.data.risks[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.data.risks, id)
	return nil
}

// Activity logs

func (s *complianceStore) CreateActivityLog(ctx context.Context, a *models.ActivityLog) error {
	if _, ok := s.data.procedures[a.ProcedureID]; !ok {
		return fkViolation("activity_logs_procedure_id_fkey", a.ProcedureID)
	}
	a.ID = s.data.seq("activity_logs")
	if a.Timestamp.IsZero() {
		a.Timestamp = s.now()
	}
	cp := *a
	s.data.activityLogs[a.ID] = &cp
	return nil
}

func (s *complianceStore) ListActivityLogs(ctx context.Context, procedureID int64) ([]*models.ActivityLog, error) {
	var out []*models.ActivityLog
	for _, a := range s.data.activityLogs {
		if a.ProcedureID == procedureID {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
