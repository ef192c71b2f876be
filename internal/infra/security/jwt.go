package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	uuid "github.com/google/uuid"
)

// TokenKind distinguishes the two classes of bearer tokens.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

// ErrInvalidOrExpiredToken covers bad signatures, wrong kinds, and lapsed expiries alike.
var ErrInvalidOrExpiredToken = errors.New("invalid or expired token")

// TokenConfig carries the signing material and lifetimes for both token kinds.
// Secrets are distinct per kind so a refresh token can never be replayed as an
// access token or vice versa.
type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
}

// TokenClaims is the signed claim set: subject identifier, kind, and expiry.
type TokenClaims struct {
	UserID string    `json:"uid"`
	Kind   TokenKind `json:"kind"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies stateless HMAC-signed bearer tokens.
// Verification is a pure function of the secret and the token bytes; it never
// consults persistent storage, so callers must re-resolve the user afterward.
type TokenService struct {
	cfg TokenConfig
	now func() time.Time
}

// NewTokenService validates the configuration and constructs the service.
func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	if strings.TrimSpace(cfg.AccessSecret) == "" {
		return nil, fmt.Errorf("access token secret is required")
	}
	if strings.TrimSpace(cfg.RefreshSecret) == "" {
		return nil, fmt.Errorf("refresh token secret is required")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, fmt.Errorf("access and refresh secrets must differ")
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 7 * 24 * time.Hour
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 30 * 24 * time.Hour
	}

	return &TokenService{cfg: cfg, now: time.Now}, nil
}

// IssueAccessToken signs a short-lived token for the supplied user.
func (s *TokenService) IssueAccessToken(userID string) (string, error) {
	return s.issue(userID, TokenKindAccess, s.cfg.AccessTTL, []byte(s.cfg.AccessSecret))
}

// IssueRefreshToken signs a long-lived token used only to mint new pairs.
func (s *TokenService) IssueRefreshToken(userID string) (string, error) {
	return s.issue(userID, TokenKindRefresh, s.cfg.RefreshTTL, []byte(s.cfg.RefreshSecret))
}

// IssuePair signs an access/refresh token pair for the supplied user.
func (s *TokenService) IssuePair(userID string) (access string, refresh string, err error) {
	access, err = s.IssueAccessToken(userID)
	if err != nil {
		return "", "", err
	}
	refresh, err = s.IssueRefreshToken(userID)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// Verify checks the signature, expiry, and kind of the presented token and
// returns its claims. Any failure collapses to ErrInvalidOrExpiredToken.
func (s *TokenService) Verify(token string, expected TokenKind) (*TokenClaims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidOrExpiredToken
	}

	secret := []byte(s.cfg.AccessSecret)
	if expected == TokenKindRefresh {
		secret = []byte(s.cfg.RefreshSecret)
	}

	claims := &TokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || parsed == nil || !parsed.Valid {
		return nil, ErrInvalidOrExpiredToken
	}

	if claims.Kind != expected {
		return nil, ErrInvalidOrExpiredToken
	}
	if strings.TrimSpace(claims.UserID) == "" {
		return nil, ErrInvalidOrExpiredToken
	}

	return claims, nil
}

// AccessTTL reports the configured access-token lifetime.
func (s *TokenService) AccessTTL() time.Duration {
	return s.cfg.AccessTTL
}

// WithClock overrides the clock used for issuance and expiry checks, used in tests.
func (s *TokenService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

func (s *TokenService) issue(userID string, kind TokenKind, ttl time.Duration, secret []byte) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", fmt.Errorf("user id is required")
	}

	now := s.now().UTC()
	claims := TokenClaims{
		UserID: userID,
		Kind:   kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", kind, err)
	}

	return signed, nil
}
