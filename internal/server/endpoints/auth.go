package endpoints

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/lectern/lectern/internal/api"
	"github.com/lectern/lectern/internal/auth"
	"github.com/lectern/lectern/internal/svcctx"
	"github.com/lectern/lectern/internal/users"
)

// CredentialsRequest carries an email/password pair.
type CredentialsRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// TokenResponse returns a session token after register or login.
type TokenResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

// RegisterEndpoint handles POST /api/auth/register.
type RegisterEndpoint struct{}

func (e *RegisterEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/auth/register", e.handler
}

func (e *RegisterEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Register a new account
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CredentialsRequest	true	"Email and password"
//	@Success		201		{object}	TokenResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Router			/api/auth/register [post]
func (e *RegisterEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	store := svcctx.UsersFrom(r.Context())
	user, err := store.Create(r.Context(), req.Email, hash)
	if err != nil {
		if errors.Is(err, users.ErrEmailTaken) {
			writeError(w, http.StatusConflict, "email already registered")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	token, err := svcctx.AuthFrom(r.Context()).GenerateToken(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	writeJSON(w, http.StatusCreated, TokenResponse{Token: token, UserID: user.ID})
}

func (e *RegisterEndpoint) Command(getClient func() *api.Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register <email> <password>",
		Short: "Register a new account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp TokenResponse
			req := CredentialsRequest{Email: args[0], Password: args[1]}
			if err := getClient().Post(cmd.Context(), "/api/auth/register", req, &resp); err != nil {
				return err
			}
			fmt.Printf("Registered. Export your token:\n  export LECTERN_TOKEN=%s\n", resp.Token)
			return nil
		},
	}
	return cmd
}

// LoginEndpoint handles POST /api/auth/login.
type LoginEndpoint struct{}

func (e *LoginEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/auth/login", e.handler
}

func (e *LoginEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Log in with email and password
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CredentialsRequest	true	"Email and password"
//	@Success		200		{object}	TokenResponse
//	@Failure		401		{object}	ErrorResponse
//	@Router			/api/auth/login [post]
func (e *LoginEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	store := svcctx.UsersFrom(r.Context())
	user, err := store.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			// Same response as a wrong password.
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := svcctx.AuthFrom(r.Context()).GenerateToken(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	writeJSON(w, http.StatusOK, TokenResponse{Token: token, UserID: user.ID})
}

func (e *LoginEndpoint) Command(getClient func() *api.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "login <email> <password>",
		Short: "Log in and print a session token",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp TokenResponse
			req := CredentialsRequest{Email: args[0], Password: args[1]}
			if err := getClient().Post(cmd.Context(), "/api/auth/login", req, &resp); err != nil {
				return err
			}
			fmt.Printf("Logged in. Export your token:\n  export LECTERN_TOKEN=%s\n", resp.Token)
			return nil
		},
	}
}
