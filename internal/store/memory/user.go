package memory

import (
	"context"
	"sort"

	"github.com/forizec/forizec/internal/models"
	"github.com/forizec/forizec/internal/store"
)

type userStore Tx

func (s *userStore) tx() *Tx { return (*Tx)(s) }

func (s *userStore) CreateUser(ctx context.Context, u *models.User) error {
	if _, exists := s.data.usersByEmail[u.Email]; exists {
		return &store.ConstraintError{
			Constraint: "users_email_key",
			Detail:     "duplicate key value violates unique constraint",
		}
	}
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	if !u.Role.Valid() {
		return checkViolation("users_role_check", string(u.Role))
	}
	u.ID = s.data.seq("users")
	u.CreatedAt = s.now()
	cp := *u
	s.data.users[u.ID] = &cp
	s.data.usersByEmail[u.Email] = u.ID
	return nil
}

func (s *userStore) GetUser(ctx context.Context, id int64) (*models.User, error) {
	u, ok := s.data.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *userStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	id, ok := s.data.usersByEmail[email]
	if !ok {
		return nil, store.ErrNotFound
	}
	return s.GetUser(ctx, id)
}

func (s *userStore) ListUsers(ctx context.Context) ([]*models.User, error) {
	out := make([]*models.User, 0, len(s.data.users))
	for _, u := range s.data.users {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *userStore) UpdateUser(ctx context.Context, u *models.User) error {
	prev, ok := s.data.users[u.ID]
	if !ok {
		return store.ErrNotFound
	}
	if u.Email != prev.Email {
		if _, exists := s.data.usersByEmail[u.Email]; exists {
			return &store.ConstraintError{
				Constraint: "users_email_key",
				Detail:     "duplicate key value violates unique constraint",
			}
		}
		delete(s.data.usersByEmail, prev.Email)
		s.data.usersByEmail[u.Email] = u.ID
	}
	if !u.Role.Valid() {
		return checkViolation("users_role_check", string(u.Role))
	}
	cp := *u
	s.data.users[u.ID] = &cp
	return nil
}

func (s *userStore) DeleteUser(ctx context.Context, id int64) error {
	if _, ok := s.data.users[id]; !ok {
		return store.ErrNotFound
	}
	s.tx().deleteUser(id)
	return nil
}

// Invitations

func (s *userStore) CreateInvitation(ctx context.Context, inv *models.UserInvitation) error {
	if _, exists := s.data.invitationsByToken[inv.Token]; exists {
		return &store.ConstraintError{
			Constraint: "user_invitations_token_key",
			Detail:     "duplicate key value violates unique constraint",
		}
	}
	if inv.InvitedBy != nil {
		if _, ok := s.data.users[*inv.InvitedBy]; !ok {
			return fkViolation("user_invitations_invited_by_fkey", *inv.InvitedBy)
		}
	}
	if inv.Role == "" {
		inv.Role = models.RoleUser
	}
	if !inv.Role.Valid() {
		return checkViolation("user_invitations_role_check", string(inv.Role))
	}
	inv.ID = s.data.seq("user_invitations")
	if inv.InvitedAt.IsZero() {
		inv.InvitedAt = s.now()
	}
	cp := *inv
	s.data.invitations[inv.ID] = &cp
	s.data.invitationsByToken[inv.Token] = inv.ID
	return nil
}

func (s *userStore) GetInvitationByToken(ctx context.Context, token string) (*models.UserInvitation, error) {
	id, ok := s.data.invitationsByToken[token]
	if !ok {
		return nil, store.ErrNotFound
	}
	inv := s.data.invitations[id]
	cp := *inv
	return &cp, nil
}

func (s *userStore) ListInvitations(ctx context.Context) ([]*models.UserInvitation, error) {
	out := make([]*models.UserInvitation, 0, len(s.data.invitations))
	for _, inv := range s.data.invitations {
		cp := *inv
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *userStore) UpdateInvitation(ctx context.Context, inv *models.UserInvitation) error {
	prev, ok := s.data.invitations[inv.ID]
	if !ok {
		return store.ErrNotFound
	}
	if inv.Token != prev.Token {
		if _, exists := s.data.invitationsByToken[inv.Token]; exists {
			return &store.ConstraintError{
				Constraint: "user_invitations_token_key",
				Detail:     "duplicate key value violates unique constraint",
			}
		}
		delete(s.data.invitationsByToken, prev.Token)
		s.data.invitationsByToken[inv.Token] = inv.ID
	}
	cp := *inv
	s.data.invitations[inv.ID] = &cp
	return nil
}

// Reminders

func (s *userStore) CreateReminder(ctx context.Context, r *models.Reminder) error {
	if _, ok := s.data.users[r.UserID]; !ok {
		return fkViolation("reminders_user_id_fkey", r.UserID)
	}
	r.ID = s.data.seq("reminders")
	r.CreatedAt = s.now()
	cp := *r
	s.data.reminders[r.ID] = &cp
	return nil
}

func (s *userStore) GetReminder(ctx context.Context, id int64) (*models.Reminder, error) {
	r, ok := s.data.reminders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *userStore) ListRemindersByUser(ctx context.Context, userID int64) ([]*models.Reminder, error) {
	var out []*models.Reminder
	for _, r := range s.data.reminders {
		if r.UserID == userID {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *userStore) UpdateReminder(ctx context.Context, r *models.Reminder) error {
	if _, ok := s.data.reminders[r.ID]; !ok {
		return store.ErrNotFound
	}
	if _, ok := s.data.users[r.UserID]; !ok {
		return fkViolation("reminders_user_id_fkey", r.UserID)
	}
	cp := *r
	s.data.reminders[r.ID] = &cp
	return nil
}

func (s *userStore) DeleteReminder(ctx context.Context, id int64) error {
	if _, ok := s.data.reminders[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.data.reminders, id)
	return nil
}
