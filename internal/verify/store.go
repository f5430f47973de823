package verify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store keeps challenge answers in Redis with per-key TTL. All operations
// are single-key and atomic; expiry is the only cleanup for abandoned
// challenges.
type Store struct {
	client *redis.Client
}

// NewStore constructs a Store on the shared Redis client.
func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

type emailChallenge struct {
	Code    string `json:"code"`
	Subject string `json:"subject"`
}

func captchaKey(id string) string { return "verify:captcha:" + id }
func emailKey(id string) string   { return "verify:email:" + id }

// PutCaptcha stores the expected captcha answer under the correlation id.
func (s *Store) PutCaptcha(ctx context.Context, id, answer string, ttl time.Duration) error {
	if err := s.client.Set(ctx, captchaKey(id), answer, ttl).Err(); err != nil {
		return fmt.Errorf("verify: store captcha: %w", err)
	}
	return nil
}

// GetCaptcha fetches the expected answer. The second return is false when
// the entry is absent (expired or never issued).
func (s *Store) GetCaptcha(ctx context.Context, id string) (string, bool, error) {
	answer, err := s.client.Get(ctx, captchaKey(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("verify: load captcha: %w", err)
	}
	return answer, true, nil
}

// PutEmail stores the code together with the subject being verified, so a
// stale challenge cannot be finished against a different subject.
func (s *Store) PutEmail(ctx context.Context, id, code, subject string, ttl time.Duration) error {
	payload, err := json.Marshal(emailChallenge{Code: code, Subject: subject})
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, emailKey(id), payload, ttl).Err(); err != nil {
		return fmt.Errorf("verify: store email challenge: %w", err)
	}
	return nil
}

// GetEmail fetches the code and subject bound at issuance.
func (s *Store) GetEmail(ctx context.Context, id string) (code, subject string, ok bool, err error) {
	payload, err := s.client.Get(ctx, emailKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", "", false, nil
		}
		return "", "", false, fmt.Errorf("verify: load email challenge: %w", err)
	}
	var ch emailChallenge
	if err := json.Unmarshal(payload, &ch); err != nil {
		return "", "", false, fmt.Errorf("verify: decode email challenge: %w", err)
	}
	return ch.Code, ch.Subject, true, nil
}

// Delete removes a challenge entry. Deleting a missing key is a no-op.
func (s *Store) Delete(ctx context.Context, kind Kind, id string) error {
	key := captchaKey(id)
	if kind == KindEmail {
		key = emailKey(id)
	}
	if err := s.client.Del(ctx, key).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("verify: delete challenge: %w", err)
	}
	return nil
}
