package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Ikaze-Murugo/murugo-v2-sub000/internal/core/domain"
	redisrepo "github.com/Ikaze-Murugo/murugo-v2-sub000/internal/repository/redis"
)

func newOTPFixture(t *testing.T) (*OTPService, *fakeUserRepo, *memOTPStore, *recordingPublisher) {
	t.Helper()

	users := newFakeUserRepo()
	store := newMemOTPStore()
	publisher := &recordingPublisher{}
	svc := NewOTPService(testAuthSettings(), true, users, store, publisher)
	return svc, users, store, publisher
}

func seedUser(t *testing.T, users *fakeUserRepo) *domain.User {
	t.Helper()

	user := domain.User{
		ID:       "user-1",
		Email:    "jean@example.com",
		Phone:    "+250788123456",
		Role:     domain.RoleSeeker,
		IsActive: true,
	}
	if err := users.Create(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return users.users[user.ID]
}

func TestResendOTPUnknownIdentifierIsOpaque(t *testing.T) {
	svc, _, store, publisher := newOTPFixture(t)

	result, err := svc.ResendOTP(context.Background(), "nobody@example.com", domain.OTPPurposeEmail)
	if err != nil {
		t.Fatalf("ResendOTP returned error: %v", err)
	}
	if result.DevCode != "" {
		t.Error("no code may be issued for an unknown identifier")
	}
	if len(store.codes) != 0 {
		t.Error("no code may be stored for an unknown identifier")
	}
	if len(publisher.otpsIssued) != 0 {
		t.Error("no event may be published for an unknown identifier")
	}
}

func TestResendThenVerifyConsumesCode(t *testing.T) {
	svc, users, store, publisher := newOTPFixture(t)
	ctx := context.Background()
	seedUser(t, users)

	result, err := svc.ResendOTP(ctx, "jean@example.com", domain.OTPPurposeEmail)
	if err != nil {
		t.Fatalf("ResendOTP returned error: %v", err)
	}
	if len(result.DevCode) != 6 {
		t.Fatalf("expected a 6 digit dev code, got %q", result.DevCode)
	}
	if len(publisher.otpsIssued) != 1 {
		t.Fatalf("expected 1 issued event, got %d", len(publisher.otpsIssued))
	}

	user, err := svc.VerifyOTP(ctx, "jean@example.com", domain.OTPPurposeEmail, result.DevCode)
	if err != nil {
		t.Fatalf("VerifyOTP returned error: %v", err)
	}
	if !user.IsEmailVerified {
		t.Error("email flag must be set after verification")
	}
	if !user.IsVerified() {
		t.Error("derived verified flag must be true after verification")
	}
	if len(store.codes) != 0 {
		t.Error("code must be consumed on success")
	}

	// Second attempt with the same code finds nothing.
	if _, err := svc.VerifyOTP(ctx, "jean@example.com", domain.OTPPurposeEmail, result.DevCode); !errors.Is(err, ErrOTPNotFound) {
		t.Fatalf("expected ErrOTPNotFound after consumption, got %v", err)
	}
}

func TestVerifyOTPMismatchDoesNotConsume(t *testing.T) {
	svc, users, store, _ := newOTPFixture(t)
	ctx := context.Background()
	seedUser(t, users)

	result, err := svc.ResendOTP(ctx, "jean@example.com", domain.OTPPurposeEmail)
	if err != nil {
		t.Fatalf("ResendOTP returned error: %v", err)
	}

	wrong := "000000"
	if wrong == result.DevCode {
		wrong = "000001"
	}

	if _, err := svc.VerifyOTP(ctx, "jean@example.com", domain.OTPPurposeEmail, wrong); !errors.Is(err, ErrOTPMismatch) {
		t.Fatalf("expected ErrOTPMismatch, got %v", err)
	}
	if len(store.codes) != 1 {
		t.Fatal("mismatch must not consume the pending code")
	}

	// The correct code still verifies afterwards.
	if _, err := svc.VerifyOTP(ctx, "jean@example.com", domain.OTPPurposeEmail, result.DevCode); err != nil {
		t.Fatalf("VerifyOTP after mismatch returned error: %v", err)
	}
}

func TestVerifyOTPUnknownUser(t *testing.T) {
	svc, _, _, _ := newOTPFixture(t)

	if _, err := svc.VerifyOTP(context.Background(), "nobody@example.com", domain.OTPPurposeEmail, "123456"); !errors.Is(err, ErrNoSuchUser) {
		t.Fatalf("expected ErrNoSuchUser, got %v", err)
	}
}

func TestVerifyOTPExpiredCode(t *testing.T) {
	svc, users, _, _ := newOTPFixture(t)
	ctx := context.Background()
	seedUser(t, users)

	result, err := svc.ResendOTP(ctx, "jean@example.com", domain.OTPPurposeEmail)
	if err != nil {
		t.Fatalf("ResendOTP returned error: %v", err)
	}

	svc.WithClock(func() time.Time { return time.Now().Add(11 * time.Minute) })

	if _, err := svc.VerifyOTP(ctx, "jean@example.com", domain.OTPPurposeEmail, result.DevCode); !errors.Is(err, ErrOTPNotFound) {
		t.Fatalf("expected ErrOTPNotFound for expired code, got %v", err)
	}
}

func TestVerifyOTPPhoneChannel(t *testing.T) {
	svc, users, _, _ := newOTPFixture(t)
	ctx := context.Background()
	seedUser(t, users)

	result, err := svc.ResendOTP(ctx, "+250788123456", domain.OTPPurposePhone)
	if err != nil {
		t.Fatalf("ResendOTP returned error: %v", err)
	}

	user, err := svc.VerifyOTP(ctx, "+250788123456", domain.OTPPurposePhone, result.DevCode)
	if err != nil {
		t.Fatalf("VerifyOTP returned error: %v", err)
	}
	if !user.IsPhoneVerified {
		t.Error("phone flag must be set after verification")
	}
	if user.IsEmailVerified {
		t.Error("email flag must stay untouched")
	}
}

func TestOTPServiceHidesDevCodeOutsideDevelopment(t *testing.T) {
	users := newFakeUserRepo()
	svc := NewOTPService(testAuthSettings(), false, users, newMemOTPStore(), &recordingPublisher{})
	seedUser(t, users)

	result, err := svc.ResendOTP(context.Background(), "jean@example.com", domain.OTPPurposeEmail)
	if err != nil {
		t.Fatalf("ResendOTP returned error: %v", err)
	}
	if result.DevCode != "" {
		t.Error("code must not be echoed outside development")
	}
}

func TestVerifyOTPWithDisabledStore(t *testing.T) {
	users := newFakeUserRepo()
	svc := NewOTPService(testAuthSettings(), true, users, redisrepo.NewDisabledOTPStore(), &recordingPublisher{})
	seedUser(t, users)
	ctx := context.Background()

	result, err := svc.ResendOTP(ctx, "jean@example.com", domain.OTPPurposeEmail)
	if err != nil {
		t.Fatalf("ResendOTP returned error: %v", err)
	}

	// Issued codes are silently discarded, so verification always misses.
	if _, err := svc.VerifyOTP(ctx, "jean@example.com", domain.OTPPurposeEmail, result.DevCode); !errors.Is(err, ErrOTPNotFound) {
		t.Fatalf("expected ErrOTPNotFound with disabled store, got %v", err)
	}
}

func TestVerifyOTPInvalidPurpose(t *testing.T) {
	svc, users, _, _ := newOTPFixture(t)
	seedUser(t, users)

	if _, err := svc.VerifyOTP(context.Background(), "jean@example.com", domain.OTPPurpose("fax"), "123456"); !errors.Is(err, ErrInvalidOTPPurpose) {
		t.Fatalf("expected ErrInvalidOTPPurpose, got %v", err)
	}
}
