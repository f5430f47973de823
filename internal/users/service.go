package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/quillboard/quillboard/internal/platform/httpx"
	"github.com/quillboard/quillboard/internal/shared"
)

// RepositoryPort defines data access methods for accounts.
type RepositoryPort interface {
	Create(ctx context.Context, name, email, passwordHash string) (int64, error)
	Get(ctx context.Context, id int64) (*User, error)
	FindActivated(ctx context.Context, nameOrEmail string) (*User, error)
	NameTaken(ctx context.Context, name string, excludeID int64) (bool, error)
	EmailTaken(ctx context.Context, email string, excludeID int64) (bool, error)
	Update(ctx context.Context, id int64, p Patch) error
	RecordLogin(ctx context.Context, id int64, at time.Time, ip string) error
	Delete(ctx context.Context, id int64) error
	Search(ctx context.Context, q SearchQuery) ([]User, error)
}

// Service handles account business logic.
type Service struct {
	repo RepositoryPort
	now  func() time.Time
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, now: time.Now}
}

func hashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("users: hash password: %w", err)
	}
	return string(hash), nil
}

// Signup creates an activated account. The email must already be verified
// by the caller. Name or address collisions among activated accounts are
// conflicts.
func (s *Service) Signup(ctx context.Context, name, email, password string) (*User, error) {
	if taken, err := s.repo.NameTaken(ctx, name, 0); err != nil {
		return nil, err
	} else if taken {
		return nil, ErrNameTaken
	}
	if taken, err := s.repo.EmailTaken(ctx, email, 0); err != nil {
		return nil, err
	} else if taken {
		return nil, ErrEmailTaken
	}
	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}
	id, err := s.repo.Create(ctx, name, email, hash)
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// Authenticate resolves an activated account by name or email and checks
// the password. Success stamps last_login and last_ip. Failures collapse
// into ErrInvalidCredentials so callers cannot probe which part was wrong.
func (s *Service) Authenticate(ctx context.Context, nameOrEmail, password, ip string) (*User, error) {
	user, err := s.repo.FindActivated(ctx, nameOrEmail)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, shared.ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, shared.ErrInvalidCredentials
	}
	now := s.now()
	if err := s.repo.RecordLogin(ctx, user.ID, now, ip); err != nil {
		return nil, err
	}
	user.LastLogin = &now
	user.LastIP = &ip
	return user, nil
}

// Get returns one account.
func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	return s.repo.Get(ctx, id)
}

// FindActivated resolves an activated account by name or email. Password
// reset uses it to locate the target without authenticating.
func (s *Service) FindActivated(ctx context.Context, nameOrEmail string) (*User, error) {
	return s.repo.FindActivated(ctx, nameOrEmail)
}

// ProfilePatch carries the self-service profile fields. Email is set only
// after the caller redeemed an email challenge for the new address.
type ProfilePatch struct {
	Name      *string
	Password  *string
	Avatar    *string
	Signature *string
	Email     *string
}

// UpdateProfile applies a profile patch with uniqueness checks.
func (s *Service) UpdateProfile(ctx context.Context, id int64, p ProfilePatch) (*User, error) {
	if p.Name != nil {
		if taken, err := s.repo.NameTaken(ctx, *p.Name, id); err != nil {
			return nil, err
		} else if taken {
			return nil, ErrNameTaken
		}
	}
	if p.Email != nil {
		if taken, err := s.repo.EmailTaken(ctx, *p.Email, id); err != nil {
			return nil, err
		} else if taken {
			return nil, ErrEmailTaken
		}
	}
	patch := Patch{Name: p.Name, Email: p.Email, Avatar: p.Avatar, Signature: p.Signature}
	if p.Password != nil {
		hash, err := hashPassword(*p.Password)
		if err != nil {
			return nil, err
		}
		patch.PasswordHash = &hash
	}
	if err := s.repo.Update(ctx, id, patch); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// ResetPassword replaces the password of the given account.
func (s *Service) ResetPassword(ctx context.Context, id int64, password string) error {
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	return s.repo.Update(ctx, id, Patch{PasswordHash: &hash})
}

// AdminUpdate applies an arbitrary patch, including activation toggles.
func (s *Service) AdminUpdate(ctx context.Context, id int64, p Patch) (*User, error) {
	if p.Name != nil {
		if taken, err := s.repo.NameTaken(ctx, *p.Name, id); err != nil {
			return nil, err
		} else if taken {
			return nil, ErrNameTaken
		}
	}
	if p.Email != nil {
		if taken, err := s.repo.EmailTaken(ctx, *p.Email, id); err != nil {
			return nil, err
		} else if taken {
			return nil, ErrEmailTaken
		}
	}
	if err := s.repo.Update(ctx, id, p); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// Delete removes the account and its dependent rows.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

var searchFields = map[string]bool{"name": true, "email": true, "signature": true}

// Search runs an admin search. Filter fields are allowlisted here since
// they end up interpolated into column references.
func (s *Service) Search(ctx context.Context, q SearchQuery) ([]User, error) {
	if len(q.Filters) == 0 {
		return nil, fmt.Errorf("%w: empty search", httpx.ErrValidation)
	}
	if q.Combinator != "and" && q.Combinator != "or" {
		return nil, fmt.Errorf("%w: combinator %q", httpx.ErrValidation, q.Combinator)
	}
	for _, f := range q.Filters {
		if !searchFields[f.Field] {
			return nil, fmt.Errorf("%w: field %q", httpx.ErrValidation, f.Field)
		}
	}
	return s.repo.Search(ctx, q)
}
