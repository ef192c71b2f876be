package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"

	"github.com/Ikaze-Murugo/murugo-v2-sub000/internal/core/domain"
	"github.com/Ikaze-Murugo/murugo-v2-sub000/internal/core/port"
	"github.com/Ikaze-Murugo/murugo-v2-sub000/internal/repository"
)

const (
	defaultOTPPrefix = "otp"

	fieldCode      = "code"
	fieldCreatedAt = "created_at"
	fieldExpiresAt = "expires_at"
	fieldAttempts  = "attempts"
)

// OTPStore persists verification codes in Redis with per-key expiry.
type OTPStore struct {
	client *red.Client
	prefix string
	now    func() time.Time
}

// NewOTPStore constructs an OTP store with the provided Redis client and key prefix.
func NewOTPStore(client *red.Client, keyPrefix string) *OTPStore {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultOTPPrefix
	}

	return &OTPStore{
		client: client,
		prefix: prefix,
		now:    time.Now,
	}
}

// Store writes the code at key (purpose, identifier) with the supplied TTL.
// A pre-existing code at the same key is overwritten, which is what makes
// "resend" implicitly invalidate the previous code.
func (s *OTPStore) Store(ctx context.Context, purpose domain.OTPPurpose, identifier, code string, ttl time.Duration) (*domain.OTP, error) {
	identifier = strings.TrimSpace(identifier)
	code = strings.TrimSpace(code)

	switch {
	case !domain.ValidOTPPurpose(purpose):
		return nil, errors.New("purpose must be email or phone")
	case identifier == "":
		return nil, errors.New("identifier is required")
	case code == "":
		return nil, errors.New("code is required")
	case ttl <= 0:
		return nil, errors.New("ttl must be positive")
	}

	now := s.now().UTC()
	expiresAt := now.Add(ttl)
	key := s.key(purpose, identifier)

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, map[string]any{
		fieldCode:      code,
		fieldCreatedAt: strconv.FormatInt(now.Unix(), 10),
		fieldExpiresAt: strconv.FormatInt(expiresAt.Unix(), 10),
		fieldAttempts:  "0",
	})
	pipe.Expire(ctx, key, ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("redis store otp: %w", err)
	}

	return &domain.OTP{
		Purpose:    purpose,
		Identifier: identifier,
		Code:       code,
		CreatedAt:  now,
		ExpiresAt:  expiresAt,
	}, nil
}

// Fetch retrieves the live code for (purpose, identifier). Expired keys have
// already disappeared from Redis and surface as repository.ErrNotFound.
func (s *OTPStore) Fetch(ctx context.Context, purpose domain.OTPPurpose, identifier string) (*domain.OTP, error) {
	identifier = strings.TrimSpace(identifier)
	if !domain.ValidOTPPurpose(purpose) || identifier == "" {
		return nil, errors.New("purpose and identifier are required")
	}

	key := s.key(purpose, identifier)
	values, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall otp: %w", err)
	}
	if len(values) == 0 {
		return nil, repository.ErrNotFound
	}

	code := strings.TrimSpace(values[fieldCode])
	if code == "" {
		return nil, repository.ErrNotFound
	}

	createdAt, err := parseUnix(values[fieldCreatedAt])
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	expiresAt, err := parseUnix(values[fieldExpiresAt])
	if err != nil {
		return nil, fmt.Errorf("parse expires_at: %w", err)
	}

	attempts := 0
	if raw := values[fieldAttempts]; raw != "" {
		if v, convErr := strconv.Atoi(raw); convErr == nil {
			attempts = v
		}
	}

	return &domain.OTP{
		Purpose:    purpose,
		Identifier: identifier,
		Code:       code,
		Attempts:   attempts,
		CreatedAt:  createdAt,
		ExpiresAt:  expiresAt,
	}, nil
}

// Delete removes the code, enforcing single-use semantics on verify.
func (s *OTPStore) Delete(ctx context.Context, purpose domain.OTPPurpose, identifier string) error {
	identifier = strings.TrimSpace(identifier)
	if !domain.ValidOTPPurpose(purpose) || identifier == "" {
		return errors.New("purpose and identifier are required")
	}

	deleted, err := s.client.Del(ctx, s.key(purpose, identifier)).Result()
	if err != nil {
		return fmt.Errorf("redis delete otp: %w", err)
	}
	if deleted == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// WithClock overrides the internal clock, used in tests.
func (s *OTPStore) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

func (s *OTPStore) key(purpose domain.OTPPurpose, identifier string) string {
	return fmt.Sprintf("%s:%s:%s", s.prefix, purpose, identifier)
}

func parseUnix(raw string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, errors.New("timestamp is empty")
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(v, 0).UTC(), nil
}

var _ port.OTPStore = (*OTPStore)(nil)
