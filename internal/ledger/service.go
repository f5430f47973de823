package ledger

import "context"

// RepositoryPort defines data access for the ledger.
type RepositoryPort interface {
	CreateItem(ctx context.Context, name string, description *string) (int64, error)
	GetItem(ctx context.Context, id int64) (*Item, error)
	ListItems(ctx context.Context) ([]Item, error)
	UpdateItem(ctx context.Context, id int64, name, description *string) error
	DeleteItem(ctx context.Context, id int64, purgeGrants bool) error
	ApplyDelta(ctx context.Context, userID, itemID, delta int64) (int64, error)
	GrantCount(ctx context.Context, userID, itemID int64) (int64, error)
	ListHoldings(ctx context.Context, userID int64) ([]Holding, error)
}

// Service wraps ledger business rules.
type Service struct {
	repo RepositoryPort
}

// NewService constructs a Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// CreateItem registers a new item type.
func (s *Service) CreateItem(ctx context.Context, name string, description *string) (int64, error) {
	return s.repo.CreateItem(ctx, name, description)
}

// GetItem fetches one item.
func (s *Service) GetItem(ctx context.Context, id int64) (*Item, error) {
	return s.repo.GetItem(ctx, id)
}

// ListItems returns all item types.
func (s *Service) ListItems(ctx context.Context) ([]Item, error) {
	return s.repo.ListItems(ctx)
}

// UpdateItem patches an item.
func (s *Service) UpdateItem(ctx context.Context, id int64, name, description *string) error {
	return s.repo.UpdateItem(ctx, id, name, description)
}

// DeleteItem removes an item type.
func (s *Service) DeleteItem(ctx context.Context, id int64, purgeGrants bool) error {
	return s.repo.DeleteItem(ctx, id, purgeGrants)
}

// Grant adds delta units of an item to a user, creating the grant row when
// absent. The item must exist; the upsert is atomic per (user, item).
func (s *Service) Grant(ctx context.Context, userID, itemID, delta int64) (int64, error) {
	if _, err := s.repo.GetItem(ctx, itemID); err != nil {
		return 0, err
	}
	return s.repo.ApplyDelta(ctx, userID, itemID, delta)
}

// Consume subtracts delta units. The resulting count may go negative; the
// ledger does not enforce a floor, callers that need one must check Get
// first.
func (s *Service) Consume(ctx context.Context, userID, itemID, delta int64) (int64, error) {
	if _, err := s.repo.GetItem(ctx, itemID); err != nil {
		return 0, err
	}
	return s.repo.ApplyDelta(ctx, userID, itemID, -delta)
}

// Get returns the user's count of an item, 0 when no grant row exists.
func (s *Service) Get(ctx context.Context, userID, itemID int64) (int64, error) {
	return s.repo.GrantCount(ctx, userID, itemID)
}

// Holdings lists everything a user holds.
func (s *Service) Holdings(ctx context.Context, userID int64) ([]Holding, error) {
	return s.repo.ListHoldings(ctx, userID)
}
