package handlers

import (
	"errors"
	"net/http"

	"github.com/claimlab/apiserver/internal/policy"
	"github.com/claimlab/apiserver/internal/services"
	"github.com/claimlab/apiserver/internal/store"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AdminHandler serves the /api/admin routes.
type AdminHandler struct {
	userService  *services.UserService
	claimService *services.ClaimService
	logger       *zap.Logger
}

func NewAdminHandler(userService *services.UserService, claimService *services.ClaimService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{userService: userService, claimService: claimService, logger: logger}
}

func AdminRouter(r chi.Router, handler *AdminHandler) {
	r.With(policy.Require(policy.AdminListUsers)).Get("/users", handler.ListUsers)
	r.With(policy.Require(policy.AdminListClaims)).Get("/all-claims", handler.ListClaims)
	r.With(policy.Require(policy.AdminDeleteClaim)).Delete("/claims/{claimID}", handler.DeleteClaim)
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context())
	if err != nil {
		writeStorageError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *AdminHandler) ListClaims(w http.ResponseWriter, r *http.Request) {
	claims, err := h.claimService.ListAll(r.Context())
	if err != nil {
		writeStorageError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, claims)
}

func (h *AdminHandler) DeleteClaim(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "claimID")
	if !ok {
		writeError(w, http.StatusNotFound, msgClaimNotFound)
		return
	}

	if err := h.claimService.Delete(r.Context(), principal(r), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, msgClaimNotFound)
			return
		}
		writeStorageError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Claim deleted successfully"})
}
