package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/forizec/forizec/internal/models"
	"github.com/forizec/forizec/internal/store"
)

type userStore Tx

const userColumns = `id, email, hashed_password, first_name, last_name, role, team,
	is_active, created_at, last_login`

func scanUser(row pgx.Row, u *models.User) error {
	return row.Scan(&u.ID, &u.Email, &u.HashedPassword, &u.FirstName, &u.LastName,
		&u.Role, &u.Team, &u.IsActive, &u.CreatedAt, &u.LastLogin)
}

func (s *userStore) CreateUser(ctx context.Context, u *models.User) error {
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	err := s.tx.QueryRow(ctx, `
		INSERT INTO users (email, hashed_password, first_name, last_name, role, team, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`,
		u.Email, u.HashedPassword, u.FirstName, u.LastName, string(u.Role), u.Team, u.IsActive,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", mapPostgresError(err))
	}
	return nil
}

func (s *userStore) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	row := s.tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if err := scanUser(row, &u); err != nil {
		return nil, mapPostgresError(err)
	}
	return &u, nil
}

func (s *userStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	row := s.tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	if err := scanUser(row, &u); err != nil {
		return nil, mapPostgresError(err)
	}
	return &u, nil
}

func (s *userStore) ListUsers(ctx context.Context) ([]*models.User, error) {
	rows, err := s.tx.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, mapPostgresError(err)
	}
	defer rows.Close()

	var out []*models.User
	for rows.Next() {
		var u models.User
		if err := scanUser(rows, &u); err != nil {
			return nil, mapPostgresError(err)
		}
		out = append(out, &u)
	}
	return out, mapPostgresError(rows.Err())
}

func (s *userStore) UpdateUser(ctx context.Context, u *models.User) error {
	tag, err := s.tx.Exec(ctx, `
		UPDATE users
		SET email = $2, hashed_password = $3, first_name = $4, last_name = $5,
			role = $6, team = $7, is_active = $8, last_login = $9
		WHERE id = $1`,
		u.ID, u.Email, u.HashedPassword, u.FirstName, u.LastName,
		string(u.Role), u.Team, u.IsActive, u.LastLogin,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", mapPostgresError(err))
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *userStore) DeleteUser(ctx context.Context, id int64) error {
	tag, err := s.tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", mapPostgresError(err))
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Invitations

const invitationColumns = `id, email, role, team, invited_by, invited_at, token,
	expires_at, accepted, accepted_at`

func scanInvitation(row pgx.Row, inv *models.UserInvitation) error {
	return row.Scan(&inv.ID, &inv.Email, &inv.Role, &inv.Team, &inv.InvitedBy,
		&inv.InvitedAt, &inv.Token, &inv.ExpiresAt, &inv.Accepted, &inv.AcceptedAt)
}

func (s *userStore) CreateInvitation(ctx context.Context, inv *models.UserInvitation) error {
	if inv.Role == "" {
		inv.Role = models.RoleUser
	}
	err := s.tx.QueryRow(ctx, `
		INSERT INTO user_invitations (email, role, team, invited_by, token, expires_at, accepted)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, invited_at`,
		inv.Email, string(inv.Role), inv.Team, inv.InvitedBy, inv.Token, inv.ExpiresAt, inv.Accepted,
	).Scan(&inv.ID, &inv.InvitedAt)
	if err != nil {
		return fmt.Errorf("failed to create invitation: %w", mapPostgresError(err))
	}
	return nil
}

func (s *userStore) GetInvitationByToken(ctx context.Context, token string) (*models.UserInvitation, error) {
	var inv models.UserInvitation
	row := s.tx.QueryRow(ctx,
		`SELECT `+invitationColumns+` FROM user_invitations WHERE token = $1`, token)
	if err := scanInvitation(row, &inv); err != nil {
		return nil, mapPostgresError(err)
	}
	return &inv, nil
}

func (s *userStore) ListInvitations(ctx context.Context) ([]*models.UserInvitation, error) {
	rows, err := s.tx.Query(ctx,
		`SELECT `+invitationColumns+` FROM user_invitations ORDER BY id`)
	if err != nil {
		return nil, mapPostgresError(err)
	}
	defer rows.Close()

	var out []*models.UserInvitation
	for rows.Next() {
		var inv models.UserInvitation
		if err := scanInvitation(rows, &inv); err != nil {
			return nil, mapPostgresError(err)
		}
		out = append(out, &inv)
	}
	return out, mapPostgresError(rows.Err())
}

func (s *userStore) UpdateInvitation(ctx context.Context, inv *models.UserInvitation) error {
	tag, err := s.tx.Exec(ctx, `
		UPDATE user_invitations
		SET email = $2, role = $3, team = $4, token = $5, expires_at = $6,
			accepted = $7, accepted_at = $8
		WHERE id = $1`,
		inv.ID, inv.Email, string(inv.Role), inv.Team, inv.Token, inv.ExpiresAt,
		inv.Accepted, inv.AcceptedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update invitation: %w", mapPostgresError(err))
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Reminders

const reminderColumns = `id, user_id, title, message, reminder_type, due_date,
	sent_at, read_at, created_at`

func scanReminder(row pgx.Row, r *models.Reminder) error {
	return row.Scan(&r.ID, &r.UserID, &r.Title, &r.Message, &r.ReminderType,
		&r.DueDate, &r.SentAt, &r.ReadAt, &r.CreatedAt)
}

func (s *userStore) CreateReminder(ctx context.Context, r *models.Reminder) error {
	err := s.tx.QueryRow(ctx, `
		INSERT INTO reminders (user_id, title, message, reminder_type, due_date, sent_at, read_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`,
		r.UserID, r.Title, r.Message, r.ReminderType, r.DueDate, r.SentAt, r.ReadAt,
	).Scan(&r.ID, &r.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create reminder: %w", mapPostgresError(err))
	}
	return nil
}

func (s *userStore) GetReminder(ctx context.Context, id int64) (*models.Reminder, error) {
	var r models.Reminder
	row := s.tx.QueryRow(ctx, `SELECT `+reminderColumns+` FROM reminders WHERE id = $1`, id)
	if err := scanReminder(row, &r); err != nil {
		return nil, mapPostgresError(err)
	}
	return &r, nil
}

func (s *userStore) ListRemindersByUser(ctx context.Context, userID int64) ([]*models.Reminder, error) {
	rows, err := s.tx.Query(ctx,
		`SELECT `+reminderColumns+` FROM reminders WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, mapPostgresError(err)
	}
	defer rows.Close()

	var out []*models.Reminder
	for rows.Next() {
		var r models.Reminder
		if err := scanReminder(rows, &r); err != nil {
			return nil, mapPostgresError(err)
		}
		out = append(out, &r)
	}
	return out, mapPostgresError(rows.Err())
}

func (s *userStore) UpdateReminder(ctx context.Context, r *models.Reminder) error {
	tag, err := s.tx.Exec(ctx, `
		UPDATE reminders
		SET user_id = $2, title = $3, message = $4, reminder_type = $5,
			due_date = $6, sent_at = $7, read_at = $8
		WHERE id = $1`,
		r.ID, r.UserID, r.Title, r.Message, r.ReminderType, r.DueDate, r.SentAt, r.ReadAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update reminder: %w", mapPostgresError(err))
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *userStore) DeleteReminder(ctx context.Context, id int64) error {
	tag, err := s.tx.Exec(ctx, `DELETE FROM reminders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete reminder: %w", mapPostgresError(err))
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
