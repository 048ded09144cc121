package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/forizec/forizec/internal/httperr"
	"github.com/forizec/forizec/internal/models"
	"github.com/forizec/forizec/internal/store"
)

const invitationTTL = 7 * 24 * time.Hour

// adminRoutes holds everything behind the owner role: the compliance registry
// CRUD, user administration, invitations, schedules and document management.
func (s *Server) adminRoutes(r chi.Router) {
	r.Get("/services", s.handle(s.listServices))
	r.Post("/services", s.handle(s.createService))
	r.Get("/services/{id}", s.handle(s.getService))
	r.Put("/services/{id}", s.handle(s.updateService))
	r.Delete("/services/{id}", s.handle(s.deleteService))
	r.Get("/services/{id}/policies", s.handle(s.listServicePolicies))

	r.Post("/policies", s.handle(s.createPolicy))
	r.Get("/policies/{id}", s.handle(s.getPolicy))
	r.Put("/policies/{id}", s.handle(s.updatePolicy))
	r.Delete("/policies/{id}", s.handle(s.deletePolicy))
	r.Get("/policies/{id}/procedures", s.handle(s.listPolicyProcedures))
	r.Get("/policies/{id}/risks", s.handle(s.listPolicyRisks))
	r.Get("/policies/{id}/acceptances", s.handle(s.listPolicyAcceptances))
	r.Get("/policies/{id}/documents", s.handle(s.listPolicyDocuments))

	r.Post("/procedures", s.handle(s.createProcedure))
	r.Get("/procedures/{id}", s.handle(s.getProcedure))
	r.Put("/procedures/{id}", s.handle(s.updateProcedure))
	r.Delete("/procedures/{id}", s.handle(s.deleteProcedure))
	r.Get("/procedures/{id}/checklist", s.handle(s.listChecklist))
	r.Get("/procedures/{id}/risks", s.handle(s.listProcedureRisks))
	r.Get("/procedures/{id}/activity", s.handle(s.listActivity))
	r.Get("/procedures/{id}/documents", s.handle(s.listProcedureDocuments))
	r.Post("/procedures/{id}/activity", s.handle(s.createActivity))

	r.Post("/checklist-items", s.handle(s.createChecklistItem))
	r.Put("/checklist-items/{id}", s.handle(s.updateChecklistItem))
	r.Delete("/checklist-items/{id}", s.handle(s.deleteChecklistItem))

	r.Post("/risks", s.handle(s.createRisk))
	r.Get("/risks/{id}", s.handle(s.getRisk))
	r.Put("/risks/{id}", s.handle(s.updateRisk))
	r.Delete("/risks/{id}", s.handle(s.deleteRisk))

	r.Get("/schedules", s.handle(s.listSchedules))
	r.Post("/schedules", s.handle(s.createSchedule))
	r.Get("/schedules/{id}", s.handle(s.getSchedule))
	r.Put("/schedules/{id}", s.handle(s.updateSchedule))
	r.Delete("/schedules/{id}", s.handle(s.deleteSchedule))

	r.Get("/users", s.handle(s.listUsers))
	r.Get("/users/{id}", s.handle(s.getUser))
	r.Put("/users/{id}", s.handle(s.updateUser))
	r.Delete("/users/{id}", s.handle(s.deleteUser))

	r.Get("/invitations", s.handle(s.listInvitations))
	r.Post("/invitations", s.handle(s.createInvitation))

	r.Post("/documents", s.handle(s.uploadDocument))
	r.Get("/documents/{id}", s.handle(s.getDocument))
	r.Get("/documents/{id}/download", s.handle(s.downloadDocument))
	r.Delete("/documents/{id}", s.handle(s.deleteDocument))
}

// Services

func (s *Server) listServices(w http.ResponseWriter, r *http.Request) error {
	var out []*models.Service
	err := s.store.WithinTx(r.Context(), func(tx store.Tx) error {
		var err error
		out, err = tx.Compliance().ListServices(r.Context())
		return err
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, out)
}

type serviceRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Server) createService(w http.ResponseWriter, r *http.Request) error {
	var req serviceRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if req.Name == "" {
		return httperr.Validation(map[string]string{"name": "must not be empty"}, "")
	}

	svc := &models.Service{Name: req.Name, Description: req.Description}
	err := s.store.WithinTx(r.Context(), func(tx store.Tx) error {
		return tx.Compliance().CreateService(r.Context(), svc)
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, svc)
}

func (s *Server) getService(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var svc *models.Service
	err = s.store.WithinTx(r.Context(), func(tx store.Tx) error {
		var err error
		svc, err = tx.Compliance().GetService(r.Context(), id)
		return err
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, svc)
}

func (s *Server) updateService(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var req serviceRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if req.Name == "" {
		return httperr.Validation(map[string]string{"name": "must not be empty"}, "")
	}

	svc := &models.Service{ID: id, Name: req.Name, Description: req.Description}
	err = s.store.WithinTx(r.Context(), func(tx store.Tx) error {
		return tx.Compliance().UpdateService(r.Context(), svc)
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, svc)
}

// deleteService removes the service and, through the ownership edges, every
// policy, procedure, checklist item, document, acceptance and risk under it.
func (s *Server) deleteService(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	err = s.store.WithinTx(r.Context(), func(tx store.Tx) error {
		return tx.Compliance().DeleteService(r.Context(), id)
	})
	if err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (s *Server) listServicePolicies(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var out []*models.Policy
	err = s.store.WithinTx(r.Context(), func(tx store.Tx) error {
		if _, err := tx.Compliance().GetService(r.Context(), id); err != nil {
			return err
		}
		var err error
		out, err = tx.Compliance().ListPoliciesByService(r.Context(), id)
		return err
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, out)
}

// Policies

type policyRequest struct {
	ServiceID   int64                   `json:"service_id"`
	Title       string                  `json:"title"`
	Number      string                  `json:"number"`
	Description string                  `json:"description"`
	Priority    models.Priority         `json:"priority"`
	Status      models.ComplianceStatus `json:"status"`
}

func (req *policyRequest) validate() map[string]string {
	fields := map[string]string{}
	if req.ServiceID <= 0 {
		fields["service_id"] = "must reference a service"
	}
	if req.Title == "" {
		fields["title"] = "must not be empty"
	}
	if req.Priority != "" && !req.Priority.Valid() {
		fields["priority"] = "must be one of low, mid, high, critical"
	}
	if req.Status != "" && !req.Status.Valid() {
		fields["status"] = "must be one of pending, reviewed, implemented, actioned, live"
	}
	return fields
}

func (s *Server) createPolicy(w http.ResponseWriter, r *http.Request) error {
	var req policyRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if fields := req.validate(); len(fields) > 0 {
		return httperr.Validation(fields, "")
	}

	p := &models.Policy{
		ServiceID:   req.ServiceID,
		Title:       req.Title,
		Number:      req.Number,
		Description: req.Description,
		Priority:    req.Priority,
		Status:      req.Status,
	}
	err := s.store.WithinTx(r.Context(), func(tx store.Tx) error {
		return tx.Compliance().CreatePolicy(r.Context(), p)
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, p)
}

func (s *Server) getPolicy(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var p *models.Policy
	err = s.store.WithinTx(r.Context(), func(tx store.Tx) error {
		var err error
		p, err = tx.Compliance().GetPolicy(r.Context(), id)
		return err
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, p)
}

func (s *Server) updatePolicy(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var req policyRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if fields := req.validate(); len(fields) > 0 {
		return httperr.Validation(fields, "")
	}

	var p *models.Policy
	err = s.store.WithinTx(r.Context(), func(tx store.Tx) error {
		var err error
		p, err = tx.Compliance().GetPolicy(r.Context(), id)
		if err != nil {
			return err
		}
		p.ServiceID = req.ServiceID
		p.Title = req.Title
		p.Number = req.Number
		p.Description = req.Description
		if req.Priority != "" {
			p.Priority = req.Priority
		}
		if req.Status != "" {
			p.Status = req.Status
		}
		return tx.Compliance().UpdatePolicy(r.Context(), p)
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, p)
}

func (s *Server) deletePolicy(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	err = s.store.WithinTx(r.Context(), func(tx store.Tx) error {
		return tx.Compliance().DeletePolicy(r.Context(), id)
	})
	if err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (s *Server) listPolicyProcedures(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var out []*models.Procedure
	err = s.store.WithinTx(r.Context(), func(tx store.Tx) error {
		if _, err := tx.Compliance().GetPolicy(r.Context(), id); err != nil {
			return err
		}
		var err error
		out, err = tx.Compliance().ListProceduresByPolicy(r.Context(), id)
		return err
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, out)
}

func (s *Server) listPolicyRisks(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var out []*models.Risk
	err = s.store.WithinTx(r.Context(), func(tx store.Tx) error {
		var err error
		out, err = tx.Compliance().ListRisksByPolicy(r.Context(), id)
		return err
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, out)
}

func (s *Server) listPolicyAcceptances(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var out []*models.PolicyAcceptance
	err = s.store.WithinTx(r.Context(), func(tx store.Tx) error {
		var err error
		out, err = tx.Schedules().ListPolicyAcceptances(r.Context(), id)
		return err
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, out)
}

// Procedures

type procedureRequest struct {
	PolicyID int64                   `json:"policy_id"`
	Title    string                  `json:"title"`
	Path     string                  `json:"path"`
	Version  string                  `json:"version"`
	Priority models.Priority         `json:"priority"`
	Status   models.ComplianceStatus `json:"status"`
}

func (req *procedureRequest) validate() map[string]string {
	fields := map[string]string{}
	if req.PolicyID <= 0 {
		fields["policy_id"] = "must reference a policy"
	}
	if req.Title == "" {
		fields["title"] = "must not be empty"
	}
	if req.Priority != "" && !req.Priority.Valid() {
		fields["priority"] = "must be one of low, mid, high, critical"
	}
	if req.Status != "" && !req.Status.Valid() {
		fields["status"] = "must be one of pending, reviewed, implemented, actioned, live"
	}
	return fields
}

func (s *Server) createProcedure(w http.ResponseWriter, r *http.Request) error {
	var req procedureRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if fields := req.validate(); len(fields) > 0 {
		return httperr.Validation(fields, "")
	}

	p := &models.Procedure{
		PolicyID: req.PolicyID,
		Title:    req.Title,
		Path:     req.Path,
		Version:  req.Version,
		Priority: req.Priority,
		Status:   req.Status,
	}
	err := s.store.WithinTx(r.Context(), func(tx store.Tx) error {
		return tx.Compliance().CreateProcedure(r.Context(), p)
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, p)
}

func (s *Server) getProcedure(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var p *models.Procedure
	err = s.store.WithinTx(r.Context(), func(tx store.Tx) error {
		var err error
		p, err = tx.Compliance().GetProcedure(r.Context(), id)
		return err
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, p)
}

func (s *Server) updateProcedure(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var req procedureRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if fields := req.validate(); len(fields) > 0 {
		return httperr.Validation(fields, "")
	}

	var p *models.Procedure
	err = s.store.WithinTx(r.Context(), func(tx store.Tx) error {
		var err error
		p, err = tx.Compliance().GetProcedure(r.Context(), id)
		if err != nil {
			return err
		}
		p.PolicyID = req.PolicyID
		p.Title = req.Title
		p.Path = req.Path
		p.Version = req.Version
		if req.Priority != "" {
			p.Priority = req.Priority
		}
		if req.Status != "" {
			p.Status = req.Status
		}
		return tx.Compliance().UpdateProcedure(r.Context(), p)
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, p)
}

func (s *Server) deleteProcedure(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	err = s.store.WithinTx(r.Context(), func(tx store.Tx) error {
		return tx.Compliance().DeleteProcedure(r.Context(), id)
	})
	if err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (s *Server) listChecklist(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var out []*models.ChecklistItem
	err = s.store.WithinTx(r.Context(), func(tx store.Tx) error {
		if _, err := tx.Compliance().GetProcedure(r.Context(), id); err != nil {
			return err
		}
		var err error
		out, err = tx.Compliance().ListChecklistItems(r.Context(), id)
		return err
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, out)
}

func (s *Server) listProcedureRisks(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var out []*models.Risk
	err = s.store.WithinTx(r.Context(), func(tx store.Tx) error {
		var err error
		out, err = tx.Compliance().ListRisksByProcedure(r.Context(), id)
		return err
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, out)
}

// Activity logs

func (s *Server) listActivity(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var out []*models.ActivityLog
	err = s.store.WithinTx(r.Context(), func(tx store.Tx) error {
		var err error
		out, err = tx.Compliance().ListActivityLogs(r.Context(), id)
		return err
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, out)
}

type activityRequest struct {
	Description string `json:"description"`
	PerformedBy string `json:"performed_by"`
	Outcome     string `json:"outcome"`
}

func (s *Server) createActivity(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var req activityRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if req.Description == "" {
		return httperr.Validation(map[string]string{"description": "must not be empty"}, "")
	}

	entry := &models.ActivityLog{
		ProcedureID: id,
		Description: req.Description,
		PerformedBy: req.PerformedBy,
		Outcome:     req.Outcome,
	}
	err = s.store.WithinTx(r.Context(), func(tx store.Tx) error {
		return tx.Compliance().CreateActivityLog(r.Context(), entry)
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, entry)
}

// Checklist items

type checklistRequest struct {
	ProcedureID int64  `json:"procedure_id"`
	Description string `json:"description"`
	SortOrder   int    `json:"sort_order"`
}

func (s *Server) createChecklistItem(w http.ResponseWriter, r *http.Request) error {
	var req checklistRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if req.Description == "" {
		return httperr.Validation(map[string]string{"description": "must not be empty"}, "")
	}

	item := &models.ChecklistItem{
		ProcedureID: req.ProcedureID,
		Description: req.Description,
		SortOrder:   req.SortOrder,
	}
	err := s.store.WithinTx(r.Context(), func(tx store.Tx) error {
		return tx.Compliance().CreateChecklistItem(r.Context(), item)
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, item)
}

func (s *Server) updateChecklistItem(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var req checklistRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	var item *models.ChecklistItem
	err = s.store.WithinTx(r.Context(), func(tx store.Tx) error {
		var err error
		item, err = tx.Compliance().GetChecklistItem(r.Context(), id)
		if err != nil {
			return err
		}
		if req.Description != "" {
			item.Description = req.Description
		}
		item.SortOrder = req.SortOrder
		return tx.Compliance().UpdateChecklistItem(r.Context(), item)
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, item)
}

func (s *Server) deleteChecklistItem(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	err = s.store.WithinTx(r.Context(), func(tx store.Tx) error {
		return tx.Compliance().DeleteChecklistItem(r.Context(), id)
	})
	if err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// Risks

func (s *Server) createRisk(w http.ResponseWriter, r *http.Request) error {
	var risk models.Risk
	if err := decodeJSON(r, &risk); err != nil {
		return err
	}
	risk.ID = 0
	if risk.RelatedPolicyID == nil && risk.RelatedProcedureID == nil {
		return httperr.Validation(map[string]string{
			"related_policy_id": "a risk must reference a policy, a procedure, or both",
		}, "")
	}

	err := s.store.WithinTx(r.Context(), func(tx store.Tx) error {
		return tx.Compliance().CreateRisk(r.Context(), &risk)
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, &risk)
}

func (s *Server) getRisk(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var risk *models.Risk
	err = s.store.WithinTx(r.Context(), func(tx store.Tx) error {
		var err error
		risk, err = tx.Compliance().GetRisk(r.Context(), id)
		return err
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, risk)
}

func (s *Server) updateRisk(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var risk models.Risk
	if err := decodeJSON(r, &risk); err != nil {
		return err
	}
	risk.ID = id

	err = s.store.WithinTx(r.Context(), func(tx store.Tx) error {
		return tx.Compliance().UpdateRisk(r.Context(), &risk)
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, &risk)
}

func (s *Server) deleteRisk(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	err = s.store.WithinTx(r.Context(), func(tx store.Tx) error {
		return tx.Compliance().DeleteRisk(r.Context(), id)
	})
	if err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// Schedules

func (s *Server) listSchedules(w http.ResponseWriter, r *http.Request) error {
	var out []*models.ComplianceSchedule
	err := s.store.WithinTx(r.Context(), func(tx store.Tx) error {
		var err error
		out, err = tx.Schedules().ListSchedules(r.Context())
		return err
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, out)
}

type scheduleRequest struct {
	Title              string            `json:"title"`
	Description        string            `json:"description"`
	DueDate            time.Time         `json:"due_date"`
	AssignedTo         *int64            `json:"assigned_to"`
	Status             models.TaskStatus `json:"status"`
	Priority           models.Priority   `json:"priority"`
	CompletedAt        *time.Time        `json:"completed_at"`
	RelatedPolicyID    *int64            `json:"related_policy_id"`
	RelatedProcedureID *int64            `json:"related_procedure_id"`
}

func (req *scheduleRequest) validate() map[string]string {
	fields := map[string]string{}
	if req.Title == "" {
		fields["title"] = "must not be empty"
	}
	if req.Status != "" && !req.Status.Valid() {
		fields["status"] = "must be one of pending, in_progress, completed, cancelled"
	}
	if req.Priority != "" && !req.Priority.Valid() {
		fields["priority"] = "must be one of low, mid, high, critical"
	}
	return fields
}

func (req *scheduleRequest) apply(sched *models.ComplianceSchedule) {
	sched.Title = req.Title
	sched.Description = req.Description
	sched.DueDate = req.DueDate
	sched.AssignedTo = req.AssignedTo
	sched.CompletedAt = req.CompletedAt
	sched.RelatedPolicyID = req.RelatedPolicyID
	sched.RelatedProcedureID = req.RelatedProcedureID
	if req.Status != "" {
		sched.Status = req.Status
	}
	if req.Priority != "" {
		sched.Priority = req.Priority
	}
}

func (s *Server) createSchedule(w http.ResponseWriter, r *http.Request) error {
	var req scheduleRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if fields := req.validate(); len(fields) > 0 {
		return httperr.Validation(fields, "")
	}

	var sched models.ComplianceSchedule
	req.apply(&sched)
	err := s.store.WithinTx(r.Context(), func(tx store.Tx) error {
		return tx.Schedules().CreateSchedule(r.Context(), &sched)
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, &sched)
}

func (s *Server) getSchedule(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var sched *models.ComplianceSchedule
	err = s.store.WithinTx(r.Context(), func(tx store.Tx) error {
		var err error
		sched, err = tx.Schedules().GetSchedule(r.Context(), id)
		return err
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, sched)
}

func (s *Server) updateSchedule(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var req scheduleRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if fields := req.validate(); len(fields) > 0 {
		return httperr.Validation(fields, "")
	}

	var sched *models.ComplianceSchedule
	err = s.store.WithinTx(r.Context(), func(tx store.Tx) error {
		var err error
		sched, err = tx.Schedules().GetSchedule(r.Context(), id)
		if err != nil {
			return err
		}
		req.apply(sched)
		return tx.Schedules().UpdateSchedule(r.Context(), sched)
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, sched)
}

func (s *Server) deleteSchedule(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	err = s.store.WithinTx(r.Context(), func(tx store.Tx) error {
		return tx.Schedules().DeleteSchedule(r.Context(), id)
	})
	if err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// Users

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) error {
	var out []*models.User
	err := s.store.WithinTx(r.Context(), func(tx store.Tx) error {
		var err error
		out, err = tx.Users().ListUsers(r.Context())
		return err
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, out)
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var user *models.User
	err = s.store.WithinTx(r.Context(), func(tx store.Tx) error {
		var err error
		user, err = tx.Users().GetUser(r.Context(), id)
		return err
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, user)
}

type userUpdateRequest struct {
	FirstName *string          `json:"first_name"`
	LastName  *string          `json:"last_name"`
	Role      *models.UserRole `json:"role"`
	Team      *string          `json:"team"`
	IsActive  *bool            `json:"is_active"`
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var req userUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if req.Role != nil && !req.Role.Valid() {
		return httperr.Validation(map[string]string{"role": "must be owner or user"}, "")
	}

	var user *models.User
	err = s.store.WithinTx(r.Context(), func(tx store.Tx) error {
		var err error
		user, err = tx.Users().GetUser(r.Context(), id)
		if err != nil {
			return err
		}
		if req.FirstName != nil {
			user.FirstName = *req.FirstName
		}
		if req.LastName != nil {
			user.LastName = *req.LastName
		}
		if req.Role != nil {
			user.Role = *req.Role
		}
		if req.Team != nil {
			user.Team = *req.Team
		}
		if req.IsActive != nil {
			user.IsActive = *req.IsActive
		}
		return tx.Users().UpdateUser(r.Context(), user)
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, user)
}

// deleteUser removes the account and everything it owns: documents,
// acceptances, invitations it sent, reminders. Assigned schedules go with the
// account; schedules merely referencing its policies are left alone.
func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	if id == identity(r).UserID {
		return httperr.New(http.StatusBadRequest, "Cannot delete your own account")
	}
	err = s.store.WithinTx(r.Context(), func(tx store.Tx) error {
		return tx.Users().DeleteUser(r.Context(), id)
	})
	if err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// Invitations

func (s *Server) listInvitations(w http.ResponseWriter, r *http.Request) error {
	var out []*models.UserInvitation
	err := s.store.WithinTx(r.Context(), func(tx store.Tx) error {
		var err error
		out, err = tx.Users().ListInvitations(r.Context())
		return err
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, out)
}

type invitationRequest struct {
	Email string          `json:"email"`
	Role  models.UserRole `json:"role"`
	Team  string          `json:"team"`
}

func (s *Server) createInvitation(w http.ResponseWriter, r *http.Request) error {
	var req invitationRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	fields := map[string]string{}
	if req.Email == "" {
		fields["email"] = "must not be empty"
	}
	if req.Role != "" && !req.Role.Valid() {
		fields["role"] = "must be owner or user"
	}
	if len(fields) > 0 {
		return httperr.Validation(fields, "")
	}

	inviter := identity(r).UserID
	inv := &models.UserInvitation{
		Email:     req.Email,
		Role:      req.Role,
		Team:      req.Team,
		InvitedBy: &inviter,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(invitationTTL),
	}
	err := s.store.WithinTx(r.Context(), func(tx store.Tx) error {
		return tx.Users().CreateInvitation(r.Context(), inv)
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, inv)
}
