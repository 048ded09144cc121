package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User is an account that can read and accept policies and procedures. Its
// email is globally unique. A user owns its documents, acceptances, sent
// invitations, assigned schedules and reminders.
type User struct {
	ID             int64      `json:"id"`
	Email          string     `json:"email"`
	HashedPassword string     `json:"-"`
	FirstName      string     `json:"first_name,omitempty"`
	LastName       string     `json:"last_name,omitempty"`
	Role           UserRole   `json:"role"`
	Team           string     `json:"team,omitempty"`
	IsActive       bool       `json:"is_active"`
	CreatedAt      time.Time  `json:"created_at"`
	LastLogin      *time.Time `json:"last_login,omitempty"`
}

// SetPassword hashes and stores the given plaintext password.
func (u *User) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.HashedPassword = string(hash)
	return nil
}

// VerifyPassword reports whether the plaintext matches the stored hash.
func (u *User) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.HashedPassword), []byte(password)) == nil
}

// UserInvitation is a pending invite. Its token is globally unique.
type UserInvitation struct {
	ID         int64      `json:"id"`
	Email      string     `json:"email"`
	Role       UserRole   `json:"role"`
	Team       string     `json:"team,omitempty"`
	InvitedBy  *int64     `json:"invited_by,omitempty"`
	InvitedAt  time.Time  `json:"invited_at"`
	Token      string     `json:"token"`
	ExpiresAt  time.Time  `json:"expires_at"`
	Accepted   bool       `json:"accepted"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`
}

// Expired reports whether the invitation can no longer be accepted.
func (i *UserInvitation) Expired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

// Reminder is a dated notification for a user. ReminderType is free text
// (task_due, policy_review, ...) and carries no enum semantics.
type Reminder struct {
	ID           int64      `json:"id"`
	UserID       int64      `json:"user_id"`
	Title        string     `json:"title"`
	Message      string     `json:"message,omitempty"`
	ReminderType string     `json:"reminder_type,omitempty"`
	DueDate      time.Time  `json:"due_date"`
	SentAt       *time.Time `json:"sent_at,omitempty"`
	ReadAt       *time.Time `json:"read_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}
