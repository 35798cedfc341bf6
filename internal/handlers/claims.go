package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/claimlab/apiserver/internal/policy"
	"github.com/claimlab/apiserver/internal/services"
	"github.com/claimlab/apiserver/internal/storage"
	"github.com/claimlab/apiserver/internal/store"
	"github.com/claimlab/apiserver/types"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	maxReceiptBytes     = 10 << 20
	maxMultipartMemory  = 2 << 20
	formFieldReceipt    = "receipt"
	msgClaimNotFound    = "Claim not found"
	msgClaimNotOwned    = "Claim not found or not owned by user"
	msgStorageDisabled  = "Receipt storage is not configured"
	msgReceiptNotFound  = "Receipt not found"
	msgMissingClaimData = "Title and amount are required"
)

// ClaimHandler provides HTTP handlers for claims and their receipts.
type ClaimHandler struct {
	claimService *services.ClaimService
	logger       *zap.Logger
}

func NewClaimHandler(claimService *services.ClaimService, logger *zap.Logger) *ClaimHandler {
	return &ClaimHandler{claimService: claimService, logger: logger}
}

// ClaimRouter registers claim routes. Callers mount it behind the session
// middleware.
func ClaimRouter(r chi.Router, handler *ClaimHandler) {
	r.With(policy.Require(policy.ListClaims)).Get("/", handler.ListClaims)
	r.With(policy.Require(policy.CreateClaim)).Post("/", handler.CreateClaim)
	r.Route("/{claimID}", func(r chi.Router) {
		r.With(policy.Require(policy.ReadClaim)).Get("/", handler.GetClaim)
		r.With(policy.Require(policy.UpdateClaim)).Put("/", handler.UpdateClaim)
		r.With(policy.Require(policy.AttachReceipt)).Post("/receipt", handler.AttachReceipt)
		r.With(policy.Require(policy.ReadReceipt)).Get("/receipt", handler.GetReceipt)
	})
}

type CreateClaimResponse struct {
	Message string `json:"message"`
	ID      int    `json:"id"`
}

type ReceiptResponse struct {
	Message    string `json:"message"`
	ReceiptKey string `json:"receipt_key"`
}

func (h *ClaimHandler) ListClaims(w http.ResponseWriter, r *http.Request) {
	claims, err := h.claimService.List(r.Context(), principal(r))
	if err != nil {
		writeStorageError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, claims)
}

func (h *ClaimHandler) GetClaim(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "claimID")
	if !ok {
		writeError(w, http.StatusNotFound, msgClaimNotFound)
		return
	}

	claim, err := h.claimService.Get(r.Context(), principal(r), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, msgClaimNotFound)
			return
		}
		writeStorageError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, claim)
}

// CreateClaim files a claim for the caller. Any user_id in the body is
// ignored.
func (h *ClaimHandler) CreateClaim(w http.ResponseWriter, r *http.Request) {
	fields, err := readFields(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	in := services.ClaimInput{
		Title:       fields.text("title"),
		Description: fields.optional("description"),
		Category:    fields.optional("category"),
	}
	if amount := fields.number("amount"); amount != nil {
		in.Amount = *amount
	}

	claim, err := h.claimService.Create(r.Context(), principal(r), in)
	if err != nil {
		if errors.Is(err, services.ErrMissingFields) {
			writeError(w, http.StatusBadRequest, msgMissingClaimData)
			return
		}
		writeStorageError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, CreateClaimResponse{Message: "Claim created successfully", ID: claim.ID})
}

// UpdateClaim overwrites the caller's claim. Absent fields become NULL.
func (h *ClaimHandler) UpdateClaim(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "claimID")
	if !ok {
		writeError(w, http.StatusNotFound, msgClaimNotOwned)
		return
	}

	fields, err := readFields(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	changes := types.ClaimChanges{
		Title:       fields.optional("title"),
		Description: fields.optional("description"),
		Amount:      fields.number("amount"),
		Category:    fields.optional("category"),
	}
	if err := h.claimService.Update(r.Context(), principal(r), id, changes); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, msgClaimNotOwned)
			return
		}
		writeStorageError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Claim updated successfully"})
}

// AttachReceipt stores the multipart "receipt" file for the caller's claim.
func (h *ClaimHandler) AttachReceipt(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "claimID")
	if !ok {
		writeError(w, http.StatusNotFound, msgClaimNotOwned)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxReceiptBytes+(1<<20))
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}

	file, header, err := r.FormFile(formFieldReceipt)
	if err != nil {
		writeError(w, http.StatusBadRequest, "receipt file is required")
		return
	}
	defer file.Close()

	if header.Size > maxReceiptBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "receipt exceeds 10MB")
		return
	}

	key, err := h.claimService.AttachReceipt(r.Context(), principal(r), id, services.ReceiptUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotConfigured):
			writeError(w, http.StatusServiceUnavailable, msgStorageDisabled)
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, msgClaimNotOwned)
		default:
			writeStorageError(w, r, h.logger, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, ReceiptResponse{Message: "Receipt uploaded successfully", ReceiptKey: key})
}

// GetReceipt streams the stored receipt with its recorded content type.
func (h *ClaimHandler) GetReceipt(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "claimID")
	if !ok {
		writeError(w, http.StatusNotFound, msgClaimNotFound)
		return
	}

	body, contentType, err := h.claimService.Receipt(r.Context(), principal(r), id)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotConfigured):
			writeError(w, http.StatusServiceUnavailable, msgStorageDisabled)
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, msgClaimNotFound)
		case errors.Is(err, services.ErrNoReceipt), errors.Is(err, storage.ErrObjectNotFound):
			writeError(w, http.StatusNotFound, msgReceiptNotFound)
		default:
			writeStorageError(w, r, h.logger, err)
		}
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		h.logger.Warn("receipt stream interrupted", zap.Int("claim_id", id), zap.Error(err))
	}
}
