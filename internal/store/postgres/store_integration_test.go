//go:build integration

package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/forizec/forizec/internal/models"
	"github.com/forizec/forizec/internal/store"
)

func setupPostgresContainer(t *testing.T, ctx context.Context) (*Store, func()) {
	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connString := fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())

	pool, err := NewPool(ctx, &PoolConfig{ConnString: connString})
	require.NoError(t, err)

	err = RunMigrations(ctx, pool)
	require.NoError(t, err)

	s := NewStore(pool, 0)

	cleanup := func() {
		s.Close()
		_ = container.Terminate(ctx)
	}

	return s, cleanup
}

// seedServiceTree builds a service -> policy -> procedure -> checklist item
// chain plus a risk owned by both the policy and the procedure, returning the
// row IDs.
func seedServiceTree(t *testing.T, ctx context.Context, s *Store) (serviceID, policyID, procedureID, itemID, riskID int64) {
	t.Helper()

	err := s.WithinTx(ctx, func(tx store.Tx) error {
		cs := tx.Compliance()

		svc := &models.Service{Name: "Payments", Description: "payment handling"}
		if err := cs.CreateService(ctx, svc); err != nil {
			return err
		}
		serviceID = svc.ID

		pol := &models.Policy{ServiceID: serviceID, Title: "Data retention"}
		if err := cs.CreatePolicy(ctx, pol); err != nil {
			return err
		}
		policyID = pol.ID

		proc := &models.Procedure{PolicyID: policyID, Title: "Quarterly purge"}
		if err := cs.CreateProcedure(ctx, proc); err != nil {
			return err
		}
		procedureID = proc.ID

		item := &models.ChecklistItem{ProcedureID: procedureID, Description: "Verify purge log"}
		if err := cs.CreateChecklistItem(ctx, item); err != nil {
			return err
		}
		itemID = item.ID

		risk := &models.Risk{
			RelatedPolicyID:    &policyID,
			RelatedProcedureID: &procedureID,
			Event:              "retention window exceeded",
		}
		if err := cs.CreateRisk(ctx, risk); err != nil {
			return err
		}
		riskID = risk.ID
		return nil
	})
	require.NoError(t, err)
	return
}

func TestIntegration_CascadeDeleteService(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()

	serviceID, policyID, procedureID, itemID, riskID := seedServiceTree(t, ctx, s)

	err := s.WithinTx(ctx, func(tx store.Tx) error {
		return tx.Compliance().DeleteService(ctx, serviceID)
	})
	require.NoError(t, err)

	err = s.WithinTx(ctx, func(tx store.Tx) error {
		cs := tx.Compliance()
		for _, id := range []int64{policyID} {
			if _, err := cs.GetPolicy(ctx, id); !errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("policy %d survived cascade: %v", id, err)
			}
		}
		if _, err := cs.GetProcedure(ctx, procedureID); !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("procedure survived cascade")
		}
		if _, err := cs.GetChecklistItem(ctx, itemID); !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("checklist item survived cascade")
		}
		if _, err := cs.GetRisk(ctx, riskID); !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("risk survived cascade")
		}
		return nil
	})
	require.NoError(t, err)
}

func TestIntegration_DeletePolicyNullsScheduleReference(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()

	_, policyID, _, _, _ := seedServiceTree(t, ctx, s)

	var scheduleID int64
	err := s.WithinTx(ctx, func(tx store.Tx) error {
		sched := &models.ComplianceSchedule{
			Title:           "Annual policy review",
			RelatedPolicyID: &policyID,
		}
		if err := tx.Schedules().CreateSchedule(ctx, sched); err != nil {
			return err
		}
		scheduleID = sched.ID
		return nil
	})
	require.NoError(t, err)

	err = s.WithinTx(ctx, func(tx store.Tx) error {
		return tx.Compliance().DeletePolicy(ctx, policyID)
	})
	require.NoError(t, err)

	err = s.WithinTx(ctx, func(tx store.Tx) error {
		sched, err := tx.Schedules().GetSchedule(ctx, scheduleID)
		if err != nil {
			return err
		}
		require.Nil(t, sched.RelatedPolicyID)
		require.Equal(t, models.TaskPending, sched.Status)
		require.Equal(t, models.PriorityMid, sched.Priority)
		return nil
	})
	require.NoError(t, err)
}

func TestIntegration_UserEmailUniqueness(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()

	newUser := func(email string) *models.User {
		u := &models.User{Email: email, FirstName: "Test", LastName: "User"}
		require.NoError(t, u.SetPassword("hunter2hunter2"))
		return u
	}

	err := s.WithinTx(ctx, func(tx store.Tx) error {
		return tx.Users().CreateUser(ctx, newUser("dup@example.com"))
	})
	require.NoError(t, err)

	err = s.WithinTx(ctx, func(tx store.Tx) error {
		return tx.Users().CreateUser(ctx, newUser("dup@example.com"))
	})
	require.Error(t, err)

	var cerr *store.ConstraintError
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, "users_email_key", cerr.Constraint)
	require.ErrorIs(t, err, store.ErrConstraintViolation)
}

func TestIntegration_CheckConstraintRejectsUnknownEnum(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()

	serviceID, _, _, _, _ := seedServiceTree(t, ctx, s)

	err := s.WithinTx(ctx, func(tx store.Tx) error {
		pol := &models.Policy{
			ServiceID: serviceID,
			Title:     "Bad priority",
			Priority:  models.Priority("urgent"),
		}
		return tx.Compliance().CreatePolicy(ctx, pol)
	})
	require.ErrorIs(t, err, store.ErrConstraintViolation)
}

func TestIntegration_TransactionRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()

	serviceID, _, _, _, _ := seedServiceTree(t, ctx, s)

	boom := errors.New("boom")
	err := s.WithinTx(ctx, func(tx store.Tx) error {
		if err := tx.Compliance().DeleteService(ctx, serviceID); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	err = s.WithinTx(ctx, func(tx store.Tx) error {
		_, err := tx.Compliance().GetService(ctx, serviceID)
		return err
	})
	require.NoError(t, err, "service should survive the rolled back delete")
}

func TestIntegration_UpdatedAtAdvancesOnUpdate(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()

	_, policyID, _, _, _ := seedServiceTree(t, ctx, s)

	var created *models.Policy
	err := s.WithinTx(ctx, func(tx store.Tx) error {
		var err error
		created, err = tx.Compliance().GetPolicy(ctx, policyID)
		return err
	})
	require.NoError(t, err)

	err = s.WithinTx(ctx, func(tx store.Tx) error {
		created.Status = models.StatusReviewed
		return tx.Compliance().UpdatePolicy(ctx, created)
	})
	require.NoError(t, err)

	err = s.WithinTx(ctx, func(tx store.Tx) error {
		updated, err := tx.Compliance().GetPolicy(ctx, policyID)
		if err != nil {
			return err
		}
		require.Equal(t, models.StatusReviewed, updated.Status)
		require.True(t, updated.UpdatedAt.After(created.UpdatedAt),
			"updated_at should move forward on update")
		return nil
	})
	require.NoError(t, err)
}
