package server

import (
	"net/http"
	"time"

	"github.com/forizec/forizec/internal/auth"
	"github.com/forizec/forizec/internal/httperr"
	"github.com/forizec/forizec/internal/models"
	"github.com/forizec/forizec/internal/store"
)

func identity(r *http.Request) *auth.Identity {
	id, _ := auth.IdentityFromContext(r.Context())
	return id
}

// me returns the authenticated user's account.
func (s *Server) me(w http.ResponseWriter, r *http.Request) error {
	var user *models.User
	err := s.store.WithinTx(r.Context(), func(tx store.Tx) error {
		var err error
		user, err = tx.Users().GetUser(r.Context(), identity(r).UserID)
		return err
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, user)
}

func (s *Server) mySchedules(w http.ResponseWriter, r *http.Request) error {
	var schedules []*models.ComplianceSchedule
	err := s.store.WithinTx(r.Context(), func(tx store.Tx) error {
		var err error
		schedules, err = tx.Schedules().ListSchedulesByUser(r.Context(), identity(r).UserID)
		return err
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, schedules)
}

func (s *Server) myReminders(w http.ResponseWriter, r *http.Request) error {
	var reminders []*models.Reminder
	err := s.store.WithinTx(r.Context(), func(tx store.Tx) error {
		var err error
		reminders, err = tx.Users().ListRemindersByUser(r.Context(), identity(r).UserID)
		return err
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, reminders)
}

type reminderRequest struct {
	Title        string    `json:"title"`
	Message      string    `json:"message"`
	ReminderType string    `json:"reminder_type"`
	DueDate      time.Time `json:"due_date"`
}

func (s *Server) createReminder(w http.ResponseWriter, r *http.Request) error {
	var req reminderRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if req.Title == "" {
		return httperr.Validation(map[string]string{"title": "must not be empty"}, "")
	}

	reminder := &models.Reminder{
		UserID:       identity(r).UserID,
		Title:        req.Title,
		Message:      req.Message,
		ReminderType: req.ReminderType,
		DueDate:      req.DueDate,
	}
	err := s.store.WithinTx(r.Context(), func(tx store.Tx) error {
		return tx.Users().CreateReminder(r.Context(), reminder)
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, reminder)
}

// deleteReminder removes one of the caller's own reminders. Another user's
// reminder is indistinguishable from a missing one.
func (s *Server) deleteReminder(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}

	err = s.store.WithinTx(r.Context(), func(tx store.Tx) error {
		reminder, err := tx.Users().GetReminder(r.Context(), id)
		if err != nil {
			return err
		}
		if reminder.UserID != identity(r).UserID {
			return store.ErrNotFound
		}
		return tx.Users().DeleteReminder(r.Context(), id)
	})
	if err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

type acceptanceRequest struct {
	Accepted bool   `json:"accepted"`
	Comments string `json:"comments"`
}

// acceptPolicy records the caller's acceptance of a policy.
func (s *Server) acceptPolicy(w http.ResponseWriter, r *http.Request) error {
	policyID, err := pathID(r)
	if err != nil {
		return err
	}

	var req acceptanceRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	acceptance := &models.PolicyAcceptance{
		PolicyID: policyID,
		UserID:   identity(r).UserID,
		Accepted: req.Accepted,
		Comments: req.Comments,
	}
	err = s.store.WithinTx(r.Context(), func(tx store.Tx) error {
		if _, err := tx.Compliance().GetPolicy(r.Context(), policyID); err != nil {
			return err
		}
		return tx.Schedules().CreatePolicyAcceptance(r.Context(), acceptance)
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, acceptance)
}

// acceptProcedure records the caller's acceptance of a procedure.
func (s *Server) acceptProcedure(w http.ResponseWriter, r *http.Request) error {
	procedureID, err := pathID(r)
	if err != nil {
		return err
	}

	var req acceptanceRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	acceptance := &models.ProcedureAcceptance{
		ProcedureID: procedureID,
		UserID:      identity(r).UserID,
		Accepted:    req.Accepted,
		Comments:    req.Comments,
	}
	err = s.store.WithinTx(r.Context(), func(tx store.Tx) error {
		if _, err := tx.Compliance().GetProcedure(r.Context(), procedureID); err != nil {
			return err
		}
		return tx.Schedules().CreateProcedureAcceptance(r.Context(), acceptance)
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, acceptance)
}
