package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/quillboard/quillboard/internal/platform/httpx"
)

// RepositoryPort is the persistence boundary used by the service.
type RepositoryPort interface {
	Get(ctx context.Context, userID int64, year, month int) (*Record, error)
	SetDay(ctx context.Context, userID int64, year, month, day int) (*Record, error)
	ClearDay(ctx context.Context, userID int64, year, month, day int) (*Record, error)
}

// Service enforces calendar validation on top of the repository.
type Service struct {
	repo RepositoryPort
	now  func() time.Time
}

func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) validate(year, month, day int, allowToday bool) error {
	if month < 1 || month > 12 {
		return fmt.Errorf("%w: month %d out of range", httpx.ErrValidation, month)
	}
	if day != 0 && (day < 1 || day > DaysPerRecord) {
		return fmt.Errorf("%w: day %d out of range", httpx.ErrValidation, day)
	}
	now := s.now()
	if year > now.Year() || (year == now.Year() && month > int(now.Month())) {
		return fmt.Errorf("%w: %d-%02d is in the future", httpx.ErrValidation, year, month)
	}
	if allowToday && day != 0 && year == now.Year() && month == int(now.Month()) && day > now.Day() {
		return fmt.Errorf("%w: %d-%02d-%02d is in the future", httpx.ErrValidation, year, month, day)
	}
	return nil
}

// MarkToday marks the current day for the user.
func (s *Service) MarkToday(ctx context.Context, userID int64) (*Record, error) {
	now := s.now()
	return s.repo.SetDay(ctx, userID, now.Year(), int(now.Month()), now.Day())
}

// Mark marks an arbitrary past day, for backfills. Future dates are rejected.
func (s *Service) Mark(ctx context.Context, userID int64, year, month, day int) (*Record, error) {
	if err := s.validate(year, month, day, true); err != nil {
		return nil, err
	}
	return s.repo.SetDay(ctx, userID, year, month, day)
}

// Unmark clears a day.
func (s *Service) Unmark(ctx context.Context, userID int64, year, month, day int) (*Record, error) {
	if err := s.validate(year, month, day, true); err != nil {
		return nil, err
	}
	return s.repo.ClearDay(ctx, userID, year, month, day)
}

// Query returns the record for the month, creating an empty one on first
// read. Months beyond the current one are rejected.
func (s *Service) Query(ctx context.Context, userID int64, year, month int) (*Record, error) {
	if err := s.validate(year, month, 0, false); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, userID, year, month)
}
