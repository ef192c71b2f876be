package security

import (
	"errors"
	"testing"
	"time"
)

func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()

	svc, err := NewTokenService(TokenConfig{
		AccessSecret:  "access-secret-for-tests",
		RefreshSecret: "refresh-secret-for-tests",
		AccessTTL:     time.Hour,
		RefreshTTL:    24 * time.Hour,
		Issuer:        "murugo-identity",
	})
	if err != nil {
		t.Fatalf("NewTokenService returned error: %v", err)
	}
	return svc
}

func TestTokenService_IssueAndVerifyRoundTrip(t *testing.T) {
	svc := newTestTokenService(t)

	access, refresh, err := svc.IssuePair("user-1")
	if err != nil {
		t.Fatalf("IssuePair returned error: %v", err)
	}

	claims, err := svc.Verify(access, TokenKindAccess)
	if err != nil {
		t.Fatalf("Verify access returned error: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Fatalf("expected user-1, got %s", claims.UserID)
	}

	claims, err = svc.Verify(refresh, TokenKindRefresh)
	if err != nil {
		t.Fatalf("Verify refresh returned error: %v", err)
	}
	if claims.Kind != TokenKindRefresh {
		t.Fatalf("expected refresh kind, got %s", claims.Kind)
	}
}

func TestTokenService_CrossKindVerificationFails(t *testing.T) {
	svc := newTestTokenService(t)

	access, refresh, err := svc.IssuePair("user-1")
	if err != nil {
		t.Fatalf("IssuePair returned error: %v", err)
	}

	if _, err := svc.Verify(access, TokenKindRefresh); !errors.Is(err, ErrInvalidOrExpiredToken) {
		t.Fatalf("expected access token to fail refresh verification, got %v", err)
	}
	if _, err := svc.Verify(refresh, TokenKindAccess); !errors.Is(err, ErrInvalidOrExpiredToken) {
		t.Fatalf("expected refresh token to fail access verification, got %v", err)
	}
}

func TestTokenService_ExpiredTokenFails(t *testing.T) {
	svc := newTestTokenService(t)

	issuedAt := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	svc.WithClock(func() time.Time { return issuedAt })

	access, err := svc.IssueAccessToken("user-1")
	if err != nil {
		t.Fatalf("IssueAccessToken returned error: %v", err)
	}

	svc.WithClock(func() time.Time { return issuedAt.Add(2 * time.Hour) })

	if _, err := svc.Verify(access, TokenKindAccess); !errors.Is(err, ErrInvalidOrExpiredToken) {
		t.Fatalf("expected expired token to fail, got %v", err)
	}
}

func TestTokenService_TamperedTokenFails(t *testing.T) {
	svc := newTestTokenService(t)

	access, err := svc.IssueAccessToken("user-1")
	if err != nil {
		t.Fatalf("IssueAccessToken returned error: %v", err)
	}

	tampered := access[:len(access)-2] + "xx"
	if _, err := svc.Verify(tampered, TokenKindAccess); !errors.Is(err, ErrInvalidOrExpiredToken) {
		t.Fatalf("expected tampered token to fail, got %v", err)
	}
}

func TestNewTokenService_RejectsSharedSecret(t *testing.T) {
	_, err := NewTokenService(TokenConfig{
		AccessSecret:  "same",
		RefreshSecret: "same",
	})
	if err == nil {
		t.Fatalf("expected error when both kinds share a secret")
	}
}
