package handlers

import (
	"net/http"

	"github.com/claimlab/apiserver/internal/services"
	"go.uber.org/zap"
)

type CategoryHandler struct {
	categoryService *services.CategoryService
	logger          *zap.Logger
}

func NewCategoryHandler(categoryService *services.CategoryService, logger *zap.Logger) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService, logger: logger}
}

func (h *CategoryHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categoryService.List(r.Context())
	if err != nil {
		writeStorageError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}
