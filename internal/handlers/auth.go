package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/claimlab/apiserver/internal/auth"
	"github.com/claimlab/apiserver/internal/services"
	"github.com/claimlab/apiserver/internal/store"
	"github.com/claimlab/apiserver/types"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// LoginRecorder counts login outcomes.
type LoginRecorder interface {
	RecordLogin(outcome string)
}

// AuthHandler provides login, logout, registration and session endpoints.
type AuthHandler struct {
	issuer        *auth.Issuer
	userService   *services.UserService
	secureCookies bool
	logins        LoginRecorder
	logger        *zap.Logger
}

func NewAuthHandler(issuer *auth.Issuer, userService *services.UserService, secureCookies bool, logins LoginRecorder, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		issuer:        issuer,
		userService:   userService,
		secureCookies: secureCookies,
		logins:        logins,
		logger:        logger,
	}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, handler *AuthHandler, requireSession func(http.Handler) http.Handler) {
	r.Post("/login", handler.Login)
	r.Post("/logout", handler.Logout)
	r.Post("/register", handler.Register)
	r.With(requireSession).Get("/me", handler.Me)
}

type UserInfo struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type LoginResponse struct {
	Message string   `json:"message"`
	User    UserInfo `json:"user"`
}

type RegisterResponse struct {
	Message string            `json:"message"`
	User    types.UserSummary `json:"user"`
}

type MeResponse struct {
	User auth.Principal `json:"user"`
}

// Login checks the credentials and sets the session cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	fields, err := readFields(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	username := fields.text("username")
	password := fields.text("password")
	if username == "" || password == "" {
		writeError(w, http.StatusBadRequest, "Username and password required")
		return
	}

	token, principal, err := h.issuer.Issue(r.Context(), username, password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.recordLogin("invalid_credentials")
			h.logger.Info("login rejected", zap.String("username", username))
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		h.recordLogin("error")
		h.logger.Error("login lookup failed", zap.String("username", username), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}

	h.recordLogin("success")
	http.SetCookie(w, auth.SessionCookie(token, h.secureCookies))
	writeJSON(w, http.StatusOK, LoginResponse{
		Message: "Login successful",
		User: UserInfo{
			ID:       principal.ID,
			Username: principal.Username,
			Role:     principal.Role,
		},
	})
}

func (h *AuthHandler) recordLogin(outcome string) {
	if h.logins != nil {
		h.logins.RecordLogin(outcome)
	}
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, auth.ClearedSessionCookie(h.secureCookies))
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Logged out successfully"})
}

// Me echoes the principal decoded from the session token.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, MeResponse{User: principal(r)})
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	fields, err := readFields(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.userService.Register(r.Context(), services.RegisterInput{
		Username: fields.text("username"),
		Email:    fields.text("email"),
		Password: fields.text("password"),
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, strings.TrimPrefix(err.Error(), services.ErrInvalidInput.Error()+": "))
		case errors.Is(err, store.ErrDuplicate):
			writeError(w, http.StatusConflict, "Username or email already exists")
		default:
			writeStorageError(w, r, h.logger, err)
		}
		return
	}

	writeJSON(w, http.StatusCreated, RegisterResponse{
		Message: "User registered successfully",
		User: types.UserSummary{
			ID:        user.ID,
			Username:  user.Username,
			Email:     user.Email,
			Role:      user.Role,
			CreatedAt: user.CreatedAt,
		},
	})
}
