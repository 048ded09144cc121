package memory

import (
	"context"
	"sort"

	"github.com/forizec/forizec/internal/models"
	"github.com/forizec/forizec/internal/store"
)

type scheduleStore Tx

func (s *scheduleStore) checkScheduleRefs(sched *models.ComplianceSchedule) error {
	if sched.AssignedTo != nil {
		if _, ok := s.data.users[*sched.AssignedTo]; !ok {
			return fkViolation("compliance_schedule_assigned_to_fkey", *sched.AssignedTo)
		}
	}
	if sched.RelatedPolicyID != nil {
		if _, ok := s.data.policies[*sched.RelatedPolicyID]; !ok {
			return fkViolation("compliance_schedule_related_policy_id_fkey", *sched.RelatedPolicyID)
		}
	}
	if sched.RelatedProcedureID != nil {
		if _, ok := s.data.procedures[*sched.RelatedProcedureID]; !ok {
			return fkViolation("compliance_schedule_related_procedure_id_fkey", *sched.RelatedProcedureID)
		}
	}
	return nil
}

func (s *scheduleStore) CreateSchedule(ctx context.Context, sched *models.ComplianceSchedule) error {
	if err := s.checkScheduleRefs(sched); err != nil {
		return err
	}
	if sched.Status == "" {
		sched.Status = models.TaskPending
	}
	if sched.Priority == "" {
		sched.Priority = models.PriorityMid
	}
	if !sched.Status.Valid() {
		return checkViolation("compliance_schedule_status_check", string(sched.Status))
	}
	if !sched.Priority.Valid() {
		return checkViolation("compliance_schedule_priority_check", string(sched.Priority))
	}
	sched.ID = s.data.seq("compliance_schedule")
	sched.CreatedAt = s.now()
	cp := *sched
	s.data.schedules[sched.ID] = &cp
	return nil
}

func (s *scheduleStore) GetSchedule(ctx context.Context, id int64) (*models.ComplianceSchedule, error) {
	sched, ok := s.data.schedules[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *sched
	return &cp, nil
}

func (s *scheduleStore) ListSchedules(ctx context.Context) ([]*models.ComplianceSchedule, error) {
	out := make([]*models.ComplianceSchedule, 0, len(s.data.schedules))
	for _, sched := range s.data.schedules {
		cp := *sched
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *scheduleStore) ListSchedulesByUser(ctx context.Context, userID int64) ([]*models.ComplianceSchedule, error) {
	var out []*models.ComplianceSchedule
	for _, sched := range s.data.schedules {
		if sched.AssignedTo != nil && *sched.AssignedTo == userID {
			cp := *sched
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *scheduleStore) UpdateSchedule(ctx context.Context, sched *models.ComplianceSchedule) error {
	if _, ok := s.data.schedules[sched.ID]; !ok {
		return store.ErrNotFound
	}
	if err := s.checkScheduleRefs(sched); err != nil {
		return err
	}
	if !sched.Status.Valid() {
		return checkViolation("compliance_schedule_status_check", string(sched.Status))
	}
	if !sched.Priority.Valid() {
		return checkViolation("compliance_schedule_priority_check", string(sched.Priority))
	}
	cp := *sched
	s.data.schedules[sched.ID] = &cp
	return nil
}

func (s *scheduleStore) DeleteSchedule(ctx context.Context, id int64) error {
	if _, ok := s.data.schedules[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.data.schedules, id)
	return nil
}

// Acceptances

func (s *scheduleStore) CreatePolicyAcceptance(ctx context.Context, a *models.PolicyAcceptance) error {
	if _, ok := s.data.policies[a.PolicyID]; !ok {
		return fkViolation("policy_acceptances_policy_id_fkey", a.PolicyID)
	}
	if _, ok := s.data.users[a.UserID]; !ok {
		return fkViolation("policy_acceptances_user_id_fkey", a.UserID)
	}
	a.ID = s.data.seq("policy_acceptances")
	if a.AcceptedAt.IsZero() {
		a.AcceptedAt = s.now()
	}
	cp := *a
	s.data.policyAcceptances[a.ID] = &cp
	return nil
}

func (s *scheduleStore) ListPolicyAcceptances(ctx context.Context, policyID int64) ([]*models.PolicyAcceptance, error) {
	var out []*models.PolicyAcceptance
	for _, a := range s.data.policyAcceptances {
		if a.PolicyID == policyID {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *scheduleStore) ListPolicyAcceptancesByUser(ctx context.Context, userID int64) ([]*models.PolicyAcceptance, error) {
	var out []*models.PolicyAcceptance
	for _, a := range s.data.policyAcceptances {
		if a.UserID == userID {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *scheduleStore) CreateProcedureAcceptance(ctx context.Context, a *models.ProcedureAcceptance) error {
	if _, ok := s.data.procedures[a.ProcedureID]; !ok {
		return fkViolation("procedure_acceptances_procedure_id_fkey", a.ProcedureID)
	}
	if _, ok := s.data.users[a.UserID]; !ok {
		return fkViolation("procedure_acceptances_user_id_fkey", a.UserID)
	}
	a.ID = s.data.seq("procedure_acceptances")
	if a.AcceptedAt.IsZero() {
		a.AcceptedAt = s.now()
	}
	cp := *a
	s.data.procedureAcceptances[a.ID] = &cp
	return nil
}

func (s *scheduleStore) ListProcedureAcceptances(ctx context.Context, procedureID int64) ([]*models.ProcedureAcceptance, error) {
	var out []*models.ProcedureAcceptance
	for _, a := range s.data.procedureAcceptances {
		if a.ProcedureID == procedureID {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *scheduleStore) ListProcedureAcceptancesByUser(ctx context.Context, userID int64) ([]*models.ProcedureAcceptance, error) {
	var out []*models.ProcedureAcceptance
	for _, a := range s.data.procedureAcceptances {
		if a.UserID == userID {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
