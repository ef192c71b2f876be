package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Ikaze-Murugo/murugo-v2-sub000/internal/core/domain"
	"github.com/Ikaze-Murugo/murugo-v2-sub000/internal/core/port"
	"github.com/Ikaze-Murugo/murugo-v2-sub000/internal/infra/config"
	"github.com/Ikaze-Murugo/murugo-v2-sub000/internal/infra/logger"
	"github.com/Ikaze-Murugo/murugo-v2-sub000/internal/infra/security"
	"github.com/Ikaze-Murugo/murugo-v2-sub000/internal/repository"
)

var (
	// ErrInvalidCredentials covers both unknown identifier and wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountDeactivated indicates the account exists but is disabled.
	ErrAccountDeactivated = errors.New("account deactivated")
	// ErrDuplicateIdentity indicates the email or phone is already registered.
	ErrDuplicateIdentity = errors.New("email or phone already registered")
	// ErrPasswordTooShort indicates the password fails the minimum length rule.
	ErrPasswordTooShort = errors.New("password too short")
	// ErrUserNotFoundOrInactive indicates a token resolved to no usable account.
	ErrUserNotFoundOrInactive = errors.New("user not found or inactive")
)

// RegisterInput carries the fields accepted at sign-up. ProfileType defaults
// to the role when the caller leaves it empty.
type RegisterInput struct {
	Email       string
	Phone       string
	Password    string
	Role        domain.UserRole
	ProfileType string
	DisplayName string
}

// RegisterResult is returned on successful registration. Tokens are issued
// immediately; contact verification happens separately via the OTP flow.
type RegisterResult struct {
	User         domain.User
	Profile      domain.Profile
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

// LoginResult is returned on successful authentication.
type LoginResult struct {
	User         domain.User
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

// TokenPair is returned by Refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

// AuthService coordinates registration, login and token refresh.
type AuthService struct {
	cfg           config.AuthSettings
	users         port.UserRepository
	profiles      port.ProfileRepository
	registrations port.RegistrationRepository
	hasher        *security.PasswordHasher
	tokens        *security.TokenService
	publisher     port.EventPublisher
	now           func() time.Time
}

// NewAuthService constructs an AuthService.
func NewAuthService(
	cfg config.AuthSettings,
	users port.UserRepository,
	profiles port.ProfileRepository,
	registrations port.RegistrationRepository,
	hasher *security.PasswordHasher,
	tokens *security.TokenService,
	publisher port.EventPublisher,
) *AuthService {
	return &AuthService{
		cfg:           cfg,
		users:         users,
		profiles:      profiles,
		registrations: registrations,
		hasher:        hasher,
		tokens:        tokens,
		publisher:     publisher,
		now:           time.Now,
	}
}

// WithClock overrides the time source for tests.
func (s *AuthService) WithClock(clock func() time.Time) {
	s.now = clock
}

// Register creates the user and profile rows, hashes the password once at
// this call site, and issues a token pair.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*RegisterResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}
	if len(input.Password) < s.cfg.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	role := input.Role
	if role == "" {
		role = domain.RoleSeeker
	}
	if !domain.ValidRole(role) {
		return nil, fmt.Errorf("unknown role %q", role)
	}

	passwordHash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	profileType := strings.TrimSpace(input.ProfileType)
	if profileType == "" {
		profileType = string(role)
	}

	now := s.now().UTC()
	user := domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		Phone:        strings.TrimSpace(input.Phone),
		PasswordHash: passwordHash,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	profile := domain.Profile{
		ID:          uuid.NewString(),
		UserID:      user.ID,
		ProfileType: profileType,
		DisplayName: strings.TrimSpace(input.DisplayName),
		CreatedAt:   now,
	}

	if err := s.registrations.CreateUserWithProfile(ctx, user, profile); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateIdentity
		}
		return nil, fmt.Errorf("create user with profile: %w", err)
	}

	access, refresh, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}

	event := domain.UserRegisteredEvent{
		UserID:       user.ID,
		Email:        user.Email,
		Phone:        user.Phone,
		Role:         string(user.Role),
		ProfileType:  profile.ProfileType,
		RegisteredAt: now,
	}
	if err := s.publisher.PublishUserRegistered(ctx, event); err != nil {
		logger.WithContext(ctx).Warn("publish user registered event failed",
			zap.String("user_id", user.ID),
			zap.Error(err),
		)
	}

	return &RegisterResult{
		User:         user.Sanitized(),
		Profile:      profile,
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.tokens.AccessTTL().Seconds()),
	}, nil
}

// Login authenticates an email or phone identifier against the stored
// argon2 hash and issues a fresh token pair.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrAccountDeactivated
	}

	now := s.now().UTC()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		logger.WithContext(ctx).Warn("update last login failed",
			zap.String("user_id", user.ID),
			zap.Error(err),
		)
	}
	user.LastLoginAt = &now

	access, refresh, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}

	event := domain.UserLoggedInEvent{
		UserID:   user.ID,
		LoggedAt: now,
	}
	if err := s.publisher.PublishUserLoggedIn(ctx, event); err != nil {
		logger.WithContext(ctx).Warn("publish login event failed",
			zap.String("user_id", user.ID),
			zap.Error(err),
		)
	}

	return &LoginResult{
		User:         user.Sanitized(),
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.tokens.AccessTTL().Seconds()),
	}, nil
}

// Refresh validates a refresh token, re-resolves the account and mints a new
// pair. The old refresh token stays valid until its own expiry.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokens.Verify(refreshToken, security.TokenKindRefresh)
	if err != nil {
		return nil, security.ErrInvalidOrExpiredToken
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFoundOrInactive
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if !user.IsActive {
		return nil, ErrUserNotFoundOrInactive
	}

	access, refresh, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.tokens.AccessTTL().Seconds()),
	}, nil
}

// Whoami resolves the authenticated user's current record and marketplace
// profile. The middleware has already verified the access token.
func (s *AuthService) Whoami(ctx context.Context, userID string) (*domain.User, *domain.Profile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrUserNotFoundOrInactive
		}
		return nil, nil, fmt.Errorf("lookup user: %w", err)
	}
	if !user.IsActive {
		return nil, nil, ErrUserNotFoundOrInactive
	}

	profile, err := s.profiles.GetByUserID(ctx, user.ID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, nil, fmt.Errorf("lookup profile: %w", err)
	}

	sanitized := user.Sanitized()
	return &sanitized, profile, nil
}
