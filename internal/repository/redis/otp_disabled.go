package redis

import (
	"context"
	"time"

	"github.com/Ikaze-Murugo/murugo-v2-sub000/internal/core/domain"
	"github.com/Ikaze-Murugo/murugo-v2-sub000/internal/core/port"
	"github.com/Ikaze-Murugo/murugo-v2-sub000/internal/repository"
)

// DisabledOTPStore stands in when no Redis connection is configured. Stores
// succeed without persisting anything and fetches always report not-found,
// so the verification flow degrades to "code never verifies" instead of
// crashing or silently admitting anyone.
type DisabledOTPStore struct{}

// NewDisabledOTPStore constructs the no-op OTP store.
func NewDisabledOTPStore() *DisabledOTPStore {
	return &DisabledOTPStore{}
}

// Store accepts and discards the code.
func (DisabledOTPStore) Store(_ context.Context, purpose domain.OTPPurpose, identifier, code string, _ time.Duration) (*domain.OTP, error) {
	return &domain.OTP{Purpose: purpose, Identifier: identifier, Code: code}, nil
}

// Fetch always reports not-found.
func (DisabledOTPStore) Fetch(context.Context, domain.OTPPurpose, string) (*domain.OTP, error) {
	return nil, repository.ErrNotFound
}

// Delete always reports not-found.
func (DisabledOTPStore) Delete(context.Context, domain.OTPPurpose, string) error {
	return repository.ErrNotFound
}

var _ port.OTPStore = (*DisabledOTPStore)(nil)
