package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/forizec/forizec/internal/httperr"
	"github.com/forizec/forizec/internal/models"
	"github.com/forizec/forizec/internal/store"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// login verifies credentials, records the login time, and returns a bearer
// token. The browser also gets a session cookie so the HTML routes work
// without re-authenticating.
func (s *Server) login(w http.ResponseWriter, r *http.Request) error {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if fields := validateLogin(&req); len(fields) > 0 {
		return httperr.Validation(fields, "")
	}

	var user *models.User
	err := s.store.WithinTx(r.Context(), func(tx store.Tx) error {
		var err error
		user, err = tx.Users().GetUserByEmail(r.Context(), req.Email)
		if err != nil {
			return err
		}
		if !user.IsActive || !user.VerifyPassword(req.Password) {
			return httperr.New(http.StatusUnauthorized, "Incorrect email or password")
		}

		now := time.Now()
		user.LastLogin = &now
		return tx.Users().UpdateUser(r.Context(), user)
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return httperr.New(http.StatusUnauthorized, "Incorrect email or password")
		}
		return err
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return err
	}
	if err := s.sessions.Issue(w, user); err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}

func validateLogin(req *loginRequest) map[string]string {
	fields := map[string]string{}
	if req.Email == "" {
		fields["email"] = "must not be empty"
	}
	if req.Password == "" {
		fields["password"] = "must not be empty"
	}
	return fields
}

type registerRequest struct {
	Token     string `json:"token"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// register redeems an invitation token and creates the invited account with
// the role and team the invitation fixed at send time.
func (s *Server) register(w http.ResponseWriter, r *http.Request) error {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	fields := map[string]string{}
	if req.Token == "" {
		fields["token"] = "must not be empty"
	}
	if len(req.Password) < 8 {
		fields["password"] = "must be at least 8 characters"
	}
	if len(fields) > 0 {
		return httperr.Validation(fields, "")
	}

	var user *models.User
	err := s.store.WithinTx(r.Context(), func(tx store.Tx) error {
		inv, err := tx.Users().GetInvitationByToken(r.Context(), req.Token)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return httperr.New(http.StatusBadRequest, "Invalid invitation token")
			}
			return err
		}
		if inv.Accepted {
			return httperr.New(http.StatusBadRequest, "Invitation already accepted")
		}
		if inv.Expired(time.Now()) {
			return httperr.New(http.StatusBadRequest, "Invitation has expired")
		}

		user = &models.User{
			Email:     inv.Email,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Role:      inv.Role,
			Team:      inv.Team,
			IsActive:  true,
		}
		if err := user.SetPassword(req.Password); err != nil {
			return err
		}
		if err := tx.Users().CreateUser(r.Context(), user); err != nil {
			return err
		}

		now := time.Now()
		inv.Accepted = true
		inv.AcceptedAt = &now
		return tx.Users().UpdateInvitation(r.Context(), inv)
	})
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusCreated, user)
}

// logout clears the session cookie. Bearer tokens are short-lived and simply
// expire.
func (s *Server) logout(w http.ResponseWriter, r *http.Request) error {
	s.sessions.Clear(w)
	w.WriteHeader(http.StatusNoContent)
	return nil
}
