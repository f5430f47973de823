package threads

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// RepositoryPort defines data access for threads.
type RepositoryPort interface {
	CreateThread(ctx context.Context, title, description string) (int64, error)
	GetThread(ctx context.Context, id int64) (*Thread, error)
	ListThreads(ctx context.Context, id *int64) ([]Thread, error)
	UpdateThread(ctx context.Context, id int64, title, description *string) error
	DeleteThread(ctx context.Context, id int64) error
	Requirements(ctx context.Context, threadID int64) ([]AccessRequirement, error)
	AddRequirement(ctx context.Context, threadID, itemID, minCount int64) (int64, error)
	RemoveRequirement(ctx context.Context, id int64) error
}

// GrantReader reports how many units of an item a user holds; 0 for users
// with no grant row. Satisfied by the ledger service.
type GrantReader interface {
	Get(ctx context.Context, userID, itemID int64) (int64, error)
}

// Service evaluates thread visibility and wraps thread management.
type Service struct {
	repo   RepositoryPort
	grants GrantReader
}

// NewService constructs a Service.
func NewService(repo RepositoryPort, grants GrantReader) *Service {
	return &Service{repo: repo, grants: grants}
}

// FilterVisible keeps the threads the principal may see, preserving input
// order. userID nil means anonymous, which holds 0 of every item, so a
// thread survives only when all its requirements have min_count <= 0. A
// thread with no requirements is visible to everyone. Evaluation is
// per-thread rather than against a precomputed capability set; thread lists
// are dozens long, not millions.
func (s *Service) FilterVisible(ctx context.Context, list []Thread, userID *int64) ([]Thread, error) {
	keep := make([]bool, len(list))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, t := range list {
		g.Go(func() error {
			reqs, err := s.repo.Requirements(gctx, t.ID)
			if err != nil {
				return err
			}
			ok, err := s.satisfies(gctx, reqs, userID)
			if err != nil {
				return err
			}
			keep[i] = ok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	visible := make([]Thread, 0, len(list))
	for i, t := range list {
		if keep[i] {
			visible = append(visible, t)
		}
	}
	return visible, nil
}

func (s *Service) satisfies(ctx context.Context, reqs []AccessRequirement, userID *int64) (bool, error) {
	for _, req := range reqs {
		if userID == nil {
			if req.MinCount > 0 {
				return false, nil
			}
			continue
		}
		count, err := s.grants.Get(ctx, *userID, req.ItemID)
		if err != nil {
			return false, err
		}
		if count < req.MinCount {
			return false, nil
		}
	}
	return true, nil
}

// ListVisible loads threads (optionally one id) and filters them for the
// principal.
func (s *Service) ListVisible(ctx context.Context, userID *int64, id *int64) ([]Thread, error) {
	list, err := s.repo.ListThreads(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.FilterVisible(ctx, list, userID)
}

// Create registers a thread.
func (s *Service) Create(ctx context.Context, title, description string) (int64, error) {
	return s.repo.CreateThread(ctx, title, description)
}

// Update patches a thread.
func (s *Service) Update(ctx context.Context, id int64, title, description *string) error {
	return s.repo.UpdateThread(ctx, id, title, description)
}

// Delete removes a thread and its requirements.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.DeleteThread(ctx, id)
}

// Requirements lists a thread's access requirements.
func (s *Service) Requirements(ctx context.Context, threadID int64) ([]AccessRequirement, error) {
	if _, err := s.repo.GetThread(ctx, threadID); err != nil {
		return nil, err
	}
	return s.repo.Requirements(ctx, threadID)
}

// AddRequirement attaches a rule to a thread.
func (s *Service) AddRequirement(ctx context.Context, threadID, itemID, minCount int64) (int64, error) {
	if _, err := s.repo.GetThread(ctx, threadID); err != nil {
		return 0, err
	}
	return s.repo.AddRequirement(ctx, threadID, itemID, minCount)
}

// RemoveRequirement detaches a rule.
func (s *Service) RemoveRequirement(ctx context.Context, id int64) error {
	return s.repo.RemoveRequirement(ctx, id)
}
