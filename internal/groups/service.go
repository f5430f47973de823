package groups

import "context"

// RepositoryPort is the persistence boundary used by the service.
type RepositoryPort interface {
	Create(ctx context.Context, name string, description *string) (int64, error)
	Get(ctx context.Context, id int64) (*Group, error)
	List(ctx context.Context) ([]Group, error)
	Update(ctx context.Context, id int64, name, description *string) error
	Delete(ctx context.Context, id int64) error
	AddMember(ctx context.Context, groupID, userID int64) error
	RemoveMember(ctx context.Context, groupID, userID int64) error
	Members(ctx context.Context, groupID int64) ([]int64, error)
	MemberOf(ctx context.Context, userID int64) ([]int64, error)
	IsMember(ctx context.Context, groupID, userID int64) (bool, error)
}

// Service wraps group CRUD and membership management.
type Service struct {
	repo RepositoryPort
}

func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, name string, description *string) (*Group, error) {
	id, err := s.repo.Create(ctx, name, description)
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id int64) (*Group, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Group, error) {
	return s.repo.List(ctx)
}

func (s *Service) Update(ctx context.Context, id int64, name, description *string) (*Group, error) {
	if err := s.repo.Update(ctx, id, name, description); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// AddMember places a user in a group. The group must exist; adding a user
// twice is a conflict.
func (s *Service) AddMember(ctx context.Context, groupID, userID int64) error {
	if _, err := s.repo.Get(ctx, groupID); err != nil {
		return err
	}
	return s.repo.AddMember(ctx, groupID, userID)
}

func (s *Service) RemoveMember(ctx context.Context, groupID, userID int64) error {
	return s.repo.RemoveMember(ctx, groupID, userID)
}

func (s *Service) Members(ctx context.Context, groupID int64) ([]int64, error) {
	if _, err := s.repo.Get(ctx, groupID); err != nil {
		return nil, err
	}
	return s.repo.Members(ctx, groupID)
}

func (s *Service) MemberOf(ctx context.Context, userID int64) ([]int64, error) {
	return s.repo.MemberOf(ctx, userID)
}

// IsMember reports membership; the admin guard uses it to gate the admin API.
func (s *Service) IsMember(ctx context.Context, groupID, userID int64) (bool, error) {
	return s.repo.IsMember(ctx, groupID, userID)
}
