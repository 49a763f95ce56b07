package product

import (
	"context"
	"errors"

	"appcheckout/internal/domain"
)

type Reader interface {
	List(ctx context.Context) ([]domain.Product, error)
	Describe(ctx context.Context, productRef string) (*domain.Product, error)
}

// Service serves catalog reads for the storefront.
type Service struct {
	repo Reader
}

func New(repo Reader) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]domain.Product, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, domain.Collaborator(domain.CodeCatalogUnavailable, "catalog unavailable", err)
	}
	return products, nil
}

// Get looks a product up by id or key.
func (s *Service) Get(ctx context.Context, ref string) (*domain.Product, error) {
	p, err := s.repo.Describe(ctx, ref)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound(domain.CodeProductNotFound, "product not found")
		}
		return nil, domain.Collaborator(domain.CodeCatalogUnavailable, "catalog unavailable", err)
	}
	return p, nil
}
