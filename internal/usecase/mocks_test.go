package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/Ikaze-Murugo/murugo-v2-sub000/internal/core/domain"
	"github.com/Ikaze-Murugo/murugo-v2-sub000/internal/infra/security"
	"github.com/Ikaze-Murugo/murugo-v2-sub000/internal/repository"
)

type fakeUserRepo struct {
	users map[string]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*domain.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user domain.User) error {
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return repository.ErrDuplicate
		}
		if user.Phone != "" && existing.Phone == user.Phone {
			return repository.ErrDuplicate
		}
	}
	copied := user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	if user, ok := r.users[id]; ok {
		copied := *user
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByIdentifier(_ context.Context, identifier string) (*domain.User, error) {
	for _, user := range r.users {
		if user.Email == identifier || (user.Phone != "" && user.Phone == identifier) {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByResetTokenHash(_ context.Context, tokenHash string) (*domain.User, error) {
	for _, user := range r.users {
		if user.ResetPasswordTokenHash != nil && *user.ResetPasswordTokenHash == tokenHash {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	user, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.LastLoginAt = &at
	return nil
}

func (r *fakeUserRepo) SetVerified(_ context.Context, id string, channel domain.OTPPurpose, at time.Time) error {
	user, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	switch channel {
	case domain.OTPPurposeEmail:
		user.IsEmailVerified = true
	case domain.OTPPurposePhone:
		user.IsPhoneVerified = true
	}
	user.UpdatedAt = at
	return nil
}

func (r *fakeUserRepo) SetResetToken(_ context.Context, id string, tokenHash string, expiresAt time.Time) error {
	user, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.ResetPasswordTokenHash = &tokenHash
	user.ResetPasswordExpiresAt = &expiresAt
	return nil
}

func (r *fakeUserRepo) UpdatePasswordAndClearReset(_ context.Context, id string, passwordHash string, changedAt time.Time) error {
	user, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.PasswordHash = passwordHash
	user.ResetPasswordTokenHash = nil
	user.ResetPasswordExpiresAt = nil
	user.UpdatedAt = changedAt
	return nil
}

type fakeProfileRepo struct {
	profiles map[string]*domain.Profile
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: make(map[string]*domain.Profile)}
}

func (r *fakeProfileRepo) Create(_ context.Context, profile domain.Profile) error {
	copied := profile
	r.profiles[profile.UserID] = &copied
	return nil
}

func (r *fakeProfileRepo) GetByUserID(_ context.Context, userID string) (*domain.Profile, error) {
	if profile, ok := r.profiles[userID]; ok {
		copied := *profile
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

type fakeRegistrationRepo struct {
	users      *fakeUserRepo
	profiles   *fakeProfileRepo
	profileErr error
}

func newFakeRegistrationRepo(users *fakeUserRepo, profiles *fakeProfileRepo) *fakeRegistrationRepo {
	return &fakeRegistrationRepo{users: users, profiles: profiles}
}

func (r *fakeRegistrationRepo) CreateUserWithProfile(ctx context.Context, user domain.User, profile domain.Profile) error {
	if err := r.users.Create(ctx, user); err != nil {
		return err
	}
	if r.profileErr != nil {
		delete(r.users.users, user.ID)
		return r.profileErr
	}
	return r.profiles.Create(ctx, profile)
}

type memOTPStore struct {
	codes map[string]domain.OTP
	now   func() time.Time
}

func newMemOTPStore() *memOTPStore {
	return &memOTPStore{codes: make(map[string]domain.OTP), now: time.Now}
}

func otpKey(purpose domain.OTPPurpose, identifier string) string {
	return string(purpose) + ":" + identifier
}

func (s *memOTPStore) Store(_ context.Context, purpose domain.OTPPurpose, identifier, code string, ttl time.Duration) (*domain.OTP, error) {
	now := s.now().UTC()
	otp := domain.OTP{
		Purpose:    purpose,
		Identifier: identifier,
		Code:       code,
		CreatedAt:  now,
		ExpiresAt:  now.Add(ttl),
	}
	s.codes[otpKey(purpose, identifier)] = otp
	return &otp, nil
}

func (s *memOTPStore) Fetch(_ context.Context, purpose domain.OTPPurpose, identifier string) (*domain.OTP, error) {
	if otp, ok := s.codes[otpKey(purpose, identifier)]; ok {
		return &otp, nil
	}
	return nil, repository.ErrNotFound
}

func (s *memOTPStore) Delete(_ context.Context, purpose domain.OTPPurpose, identifier string) error {
	key := otpKey(purpose, identifier)
	if _, ok := s.codes[key]; !ok {
		return repository.ErrNotFound
	}
	delete(s.codes, key)
	return nil
}

type recordingPublisher struct {
	registered     []domain.UserRegisteredEvent
	logins         []domain.UserLoggedInEvent
	otpsIssued     []domain.OTPIssuedEvent
	verified       []domain.ContactVerifiedEvent
	resetRequested []domain.PasswordResetRequestedEvent
	passwordChange []domain.PasswordChangedEvent
}

func (p *recordingPublisher) PublishUserRegistered(_ context.Context, event domain.UserRegisteredEvent) error {
	p.registered = append(p.registered, event)
	return nil
}

func (p *recordingPublisher) PublishUserLoggedIn(_ context.Context, event domain.UserLoggedInEvent) error {
	p.logins = append(p.logins, event)
	return nil
}

func (p *recordingPublisher) PublishOTPIssued(_ context.Context, event domain.OTPIssuedEvent) error {
	p.otpsIssued = append(p.otpsIssued, event)
	return nil
}

func (p *recordingPublisher) PublishContactVerified(_ context.Context, event domain.ContactVerifiedEvent) error {
	p.verified = append(p.verified, event)
	return nil
}

func (p *recordingPublisher) PublishPasswordResetRequested(_ context.Context, event domain.PasswordResetRequestedEvent) error {
	p.resetRequested = append(p.resetRequested, event)
	return nil
}

func (p *recordingPublisher) PublishPasswordChanged(_ context.Context, event domain.PasswordChangedEvent) error {
	p.passwordChange = append(p.passwordChange, event)
	return nil
}

func newTestHasher(t *testing.T) *security.PasswordHasher {
	t.Helper()

	hasher, err := security.NewPasswordHasher(security.Argon2Config{
		Memory:      8 * 1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
	if err != nil {
		t.Fatalf("NewPasswordHasher returned error: %v", err)
	}
	return hasher
}

func newTestTokens(t *testing.T) *security.TokenService {
	t.Helper()

	tokens, err := security.NewTokenService(security.TokenConfig{
		AccessSecret:  "test-access-secret",
		RefreshSecret: "test-refresh-secret",
		AccessTTL:     time.Hour,
		RefreshTTL:    24 * time.Hour,
		Issuer:        "murugo-test",
	})
	if err != nil {
		t.Fatalf("NewTokenService returned error: %v", err)
	}
	return tokens
}
