package services

import (
	"context"

	"github.com/claimlab/apiserver/types"
)

type CategoryRepository interface {
	List(ctx context.Context) ([]types.Category, error)
}

type CategoryService struct {
	repo CategoryRepository
}

func NewCategoryService(repo CategoryRepository) *CategoryService {
	return &CategoryService{repo: repo}
}

func (s *CategoryService) List(ctx context.Context) ([]types.Category, error) {
	return s.repo.List(ctx)
}
