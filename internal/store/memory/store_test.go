package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/forizec/forizec/internal/models"
	"github.com/forizec/forizec/internal/store"
)

func seedServiceTree(t *testing.T, s *Store) (serviceID, policyID, procedureID, riskID int64) {
	t.Helper()
	ctx := context.Background()

	err := s.WithinTx(ctx, func(tx store.Tx) error {
		svc := &models.Service{Name: "Payments", Description: "payment processing"}
		if err := tx.Compliance().CreateService(ctx, svc); err != nil {
			return err
		}
		serviceID = svc.ID

		p := &models.Policy{ServiceID: svc.ID, Title: "Data retention"}
		if err := tx.Compliance().CreatePolicy(ctx, p); err != nil {
			return err
		}
		policyID = p.ID

		proc := &models.Procedure{PolicyID: p.ID, Title: "Quarterly purge"}
		if err := tx.Compliance().CreateProcedure(ctx, proc); err != nil {
			return err
		}
		procedureID = proc.ID

		item := &models.ChecklistItem{ProcedureID: proc.ID, Description: "export audit log", SortOrder: 1}
		if err := tx.Compliance().CreateChecklistItem(ctx, item); err != nil {
			return err
		}

		risk := &models.Risk{
			Event:              "retention window missed",
			RelatedPolicyID:    &p.ID,
			RelatedProcedureID: &proc.ID,
		}
		if err := tx.Compliance().CreateRisk(ctx, risk); err != nil {
			return err
		}
		riskID = risk.ID
		return nil
	})
	require.NoError(t, err)
	return serviceID, policyID, procedureID, riskID
}

func TestCascadeDeleteServiceRemovesDescendants(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	serviceID, policyID, procedureID, riskID := seedServiceTree(t, s)

	err := s.WithinTx(ctx, func(tx store.Tx) error {
		return tx.Compliance().DeleteService(ctx, serviceID)
	})
	require.NoError(t, err)

	err = s.WithinTx(ctx, func(tx store.Tx) error {
		if _, err := tx.Compliance().GetPolicy(ctx, policyID); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("policy survived cascade: %v", err)
		}
		if _, err := tx.Compliance().GetProcedure(ctx, procedureID); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("procedure survived cascade: %v", err)
		}
		if _, err := tx.Compliance().GetRisk(ctx, riskID); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("risk survived cascade: %v", err)
		}
		items, err := tx.Compliance().ListChecklistItems(ctx, procedureID)
		require.NoError(t, err)
		require.Empty(t, items)
		return nil
	})
	require.NoError(t, err)
}

func TestCascadeDeleteIsAtomic(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	serviceID, policyID, procedureID, riskID := seedServiceTree(t, s)

	boom := errors.New("boom")
	err := s.WithinTx(ctx, func(tx store.Tx) error {
		if err := tx.Compliance().DeleteService(ctx, serviceID); err != nil {
			return err
		}
		// Deletes happened inside this tx; failing now must undo all of them.
		return boom
	})
	require.ErrorIs(t, err, boom)

	err = s.WithinTx(ctx, func(tx store.Tx) error {
		if _, err := tx.Compliance().GetService(ctx, serviceID); err != nil {
			return err
		}
		if _, err := tx.Compliance().GetPolicy(ctx, policyID); err != nil {
			return err
		}
		if _, err := tx.Compliance().GetProcedure(ctx, procedureID); err != nil {
			return err
		}
		_, err := tx.Compliance().GetRisk(ctx, riskID)
		return err
	})
	require.NoError(t, err, "rollback must restore every row")
}

func TestCascadeDeleteRollsBackOnPanic(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	serviceID, policyID, procedureID, riskID := seedServiceTree(t, s)

	require.PanicsWithValue(t, "boom mid-transaction", func() {
		_ = s.WithinTx(ctx, func(tx store.Tx) error {
			if err := tx.Compliance().DeleteService(ctx, serviceID); err != nil {
				return err
			}
			panic("boom mid-transaction")
		})
	})

	err := s.WithinTx(ctx, func(tx store.Tx) error {
		if _, err := tx.Compliance().GetService(ctx, serviceID); err != nil {
			return err
		}
		if _, err := tx.Compliance().GetPolicy(ctx, policyID); err != nil {
			return err
		}
		if _, err := tx.Compliance().GetProcedure(ctx, procedureID); err != nil {
			return err
		}
		_, err := tx.Compliance().GetRisk(ctx, riskID)
		return err
	})
	require.NoError(t, err, "a panic must restore every row")
}

func TestCascadeSharedRiskIsIdempotent(t *testing.T) {
	// The risk hangs off both the policy and the procedure; deleting the
	// policy cascades through both paths and must not error on the second.
	s := NewStore()
	ctx := context.Background()
	_, policyID, _, riskID := seedServiceTree(t, s)

	err := s.WithinTx(ctx, func(tx store.Tx) error {
		return tx.Compliance().DeletePolicy(ctx, policyID)
	})
	require.NoError(t, err)

	err = s.WithinTx(ctx, func(tx store.Tx) error {
		_, err := tx.Compliance().GetRisk(ctx, riskID)
		require.ErrorIs(t, err, store.ErrNotFound)
		return nil
	})
	require.NoError(t, err)
}

func TestDeletePolicyNullsScheduleReference(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	_, policyID, _, _ := seedServiceTree(t, s)

	var schedID int64
	err := s.WithinTx(ctx, func(tx store.Tx) error {
		sched := &models.ComplianceSchedule{
			Title:           "annual review",
			DueDate:         time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC),
			RelatedPolicyID: &policyID,
		}
		if err := tx.Schedules().CreateSchedule(ctx, sched); err != nil {
			return err
		}
		schedID = sched.ID
		return tx.Compliance().DeletePolicy(ctx, policyID)
	})
	require.NoError(t, err)

	err = s.WithinTx(ctx, func(tx store.Tx) error {
		sched, err := tx.Schedules().GetSchedule(ctx, schedID)
		require.NoError(t, err)
		require.Nil(t, sched.RelatedPolicyID, "schedule must survive with the reference nulled")
		return nil
	})
	require.NoError(t, err)
}

func TestUserEmailUniqueness(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	err := s.WithinTx(ctx, func(tx store.Tx) error {
		u := &models.User{Email: "a@example.com", HashedPassword: "x"}
		return tx.Users().CreateUser(ctx, u)
	})
	require.NoError(t, err)

	err = s.WithinTx(ctx, func(tx store.Tx) error {
		u := &models.User{Email: "a@example.com", HashedPassword: "y"}
		return tx.Users().CreateUser(ctx, u)
	})
	require.ErrorIs(t, err, store.ErrConstraintViolation)

	var cerr *store.ConstraintError
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, "users_email_key", cerr.Constraint)
}

func TestCreatePolicyMissingServiceFails(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	err := s.WithinTx(ctx, func(tx store.Tx) error {
		p := &models.Policy{ServiceID: 42, Title: "orphan"}
		return tx.Compliance().CreatePolicy(ctx, p)
	})
	require.ErrorIs(t, err, store.ErrConstraintViolation)
}

func TestEnumRoundTrip(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	serviceID, _, _, _ := seedServiceTree(t, s)

	var policyID int64
	err := s.WithinTx(ctx, func(tx store.Tx) error {
		p := &models.Policy{
			ServiceID: serviceID,
			Title:     "Access control",
			Priority:  models.PriorityCritical,
			Status:    models.StatusReviewed,
		}
		if err := tx.Compliance().CreatePolicy(ctx, p); err != nil {
			return err
		}
		policyID = p.ID
		return nil
	})
	require.NoError(t, err)

	err = s.WithinTx(ctx, func(tx store.Tx) error {
		p, err := tx.Compliance().GetPolicy(ctx, policyID)
		require.NoError(t, err)
		require.Equal(t, models.StatusReviewed, p.Status)
		require.Equal(t, models.PriorityCritical, p.Priority)
		return nil
	})
	require.NoError(t, err)
}

func TestEnumRejectsUnknownMember(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	serviceID, _, _, _ := seedServiceTree(t, s)

	err := s.WithinTx(ctx, func(tx store.Tx) error {
		p := &models.Policy{ServiceID: serviceID, Title: "bad", Status: "archived"}
		return tx.Compliance().CreatePolicy(ctx, p)
	})
	require.ErrorIs(t, err, store.ErrConstraintViolation)
}

func TestBidirectionalNavigation(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	serviceID, policyID, _, _ := seedServiceTree(t, s)

	err := s.WithinTx(ctx, func(tx store.Tx) error {
		policies, err := tx.Compliance().ListPoliciesByService(ctx, serviceID)
		require.NoError(t, err)
		require.Len(t, policies, 1)
		require.Equal(t, policyID, policies[0].ID)

		p, err := tx.Compliance().GetPolicy(ctx, policyID)
		require.NoError(t, err)
		require.Equal(t, serviceID, p.ServiceID)

		parent, err := tx.Compliance().GetService(ctx, p.ServiceID)
		require.NoError(t, err)
		require.Equal(t, serviceID, parent.ID)
		return nil
	})
	require.NoError(t, err)
}

func TestUpdatedAtAdvances(t *testing.T) {
	s := NewStore()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	current := base
	s.now = func() time.Time { return current }

	ctx := context.Background()
	_, policyID, _, _ := seedServiceTree(t, s)

	current = base.Add(time.Hour)
	err := s.WithinTx(ctx, func(tx store.Tx) error {
		p, err := tx.Compliance().GetPolicy(ctx, policyID)
		if err != nil {
			return err
		}
		p.Title = "Data retention v2"
		return tx.Compliance().UpdatePolicy(ctx, p)
	})
	require.NoError(t, err)

	err = s.WithinTx(ctx, func(tx store.Tx) error {
		p, err := tx.Compliance().GetPolicy(ctx, policyID)
		require.NoError(t, err)
		require.Equal(t, base, p.CreatedAt, "created_at is set once")
		require.Equal(t, base.Add(time.Hour), p.UpdatedAt, "updated_at advances on write")
		return nil
	})
	require.NoError(t, err)
}

func TestDeleteUserCascadesOwnedRows(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	_, policyID, _, _ := seedServiceTree(t, s)

	var userID, reminderID int64
	err := s.WithinTx(ctx, func(tx store.Tx) error {
		u := &models.User{Email: "b@example.com", HashedPassword: "x"}
		if err := tx.Users().CreateUser(ctx, u); err != nil {
			return err
		}
		userID = u.ID

		acc := &models.PolicyAcceptance{PolicyID: policyID, UserID: u.ID, Accepted: true}
		if err := tx.Schedules().CreatePolicyAcceptance(ctx, acc); err != nil {
			return err
		}

		rem := &models.Reminder{UserID: u.ID, Title: "review", DueDate: time.Now().UTC()}
		if err := tx.Users().CreateReminder(ctx, rem); err != nil {
			return err
		}
		reminderID = rem.ID
		return nil
	})
	require.NoError(t, err)

	err = s.WithinTx(ctx, func(tx store.Tx) error {
		return tx.Users().DeleteUser(ctx, userID)
	})
	require.NoError(t, err)

	err = s.WithinTx(ctx, func(tx store.Tx) error {
		accs, err := tx.Schedules().ListPolicyAcceptances(ctx, policyID)
		require.NoError(t, err)
		require.Empty(t, accs)

		_, err = tx.Users().GetReminder(ctx, reminderID)
		require.ErrorIs(t, err, store.ErrNotFound)

		// The policy itself is untouched; only user-owned rows went away.
		_, err = tx.Compliance().GetPolicy(ctx, policyID)
		return err
	})
	require.NoError(t, err)
}

func TestInvitationTokenUniqueness(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	create := func() error {
		return s.WithinTx(ctx, func(tx store.Tx) error {
			inv := &models.UserInvitation{
				Email:     "new@example.com",
				Token:     "tok-123",
				ExpiresAt: time.Now().UTC().Add(24 * time.Hour),
			}
			return tx.Users().CreateInvitation(ctx, inv)
		})
	}
	require.NoError(t, create())
	err := create()
	require.ErrorIs(t, err, store.ErrConstraintViolation)
}
