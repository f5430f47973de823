package places

import (
	"context"
	"fmt"

	"github.com/quillboard/quillboard/internal/platform/httpx"
)

// RepositoryPort is the persistence boundary used by the service.
type RepositoryPort interface {
	Create(ctx context.Context, name string, description *string, lat, lng float64) (int64, error)
	Get(ctx context.Context, id int64) (*Address, error)
	List(ctx context.Context, nameLike string, limit, offset int) ([]Address, error)
	Update(ctx context.Context, id int64, name, description *string, lat, lng *float64) error
	Delete(ctx context.Context, id int64) error
}

// Service wraps address CRUD with paging limits.
type Service struct {
	repo RepositoryPort
}

func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, name string, description *string, lat, lng float64) (*Address, error) {
	id, err := s.repo.Create(ctx, name, description, lat, lng)
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id int64) (*Address, error) {
	return s.repo.Get(ctx, id)
}

// List pages through addresses. A limit above MaxPageSize is invalid
// rather than silently clamped.
func (s *Service) List(ctx context.Context, nameLike string, limit, offset int) ([]Address, error) {
	if limit <= 0 {
		limit = MaxPageSize
	}
	if limit > MaxPageSize {
		return nil, fmt.Errorf("%w: limit %d exceeds %d", httpx.ErrValidation, limit, MaxPageSize)
	}
	if offset < 0 {
		return nil, fmt.Errorf("%w: negative offset", httpx.ErrValidation)
	}
	return s.repo.List(ctx, nameLike, limit, offset)
}

func (s *Service) Update(ctx context.Context, id int64, name, description *string, lat, lng *float64) (*Address, error) {
	if err := s.repo.Update(ctx, id, name, description, lat, lng); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
