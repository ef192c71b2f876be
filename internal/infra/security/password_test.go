package security

import (
	"strings"
	"testing"
)

func newTestHasher(t *testing.T) *PasswordHasher {
	t.Helper()

	// Lighter parameters keep the test suite fast.
	hasher, err := NewPasswordHasher(Argon2Config{
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

func TestPasswordHasher_HashAndVerify(t *testing.T) {
	hasher := newTestHasher(t)

	encoded, err := hasher.Hash("secret123")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}
	if !strings.HasPrefix(encoded, "argon2id$v=19$") {
		t.Fatalf("unexpected hash format: %s", encoded)
	}
	if strings.Contains(encoded, "secret123") {
		t.Fatalf("hash must not contain the plaintext")
	}

	ok, err := hasher.Verify("secret123", encoded)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected matching password to verify")
	}

	ok, err = hasher.Verify("wrong-password", encoded)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if ok {
		t.Fatalf("expected mismatching password to fail")
	}
}

func TestPasswordHasher_SaltsDiffer(t *testing.T) {
	hasher := newTestHasher(t)

	first, err := hasher.Hash("secret123")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}
	second, err := hasher.Hash("secret123")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}
	if first == second {
		t.Fatalf("expected distinct salts to produce distinct hashes")
	}
}

func TestPasswordHasher_EmptyInputsNeverVerify(t *testing.T) {
	hasher := newTestHasher(t)

	if ok, _ := hasher.Verify("", "whatever"); ok {
		t.Fatalf("empty password must not verify")
	}
	if ok, _ := hasher.Verify("password", ""); ok {
		t.Fatalf("empty hash must not verify")
	}
}

func TestPasswordHasher_RejectsMalformedHash(t *testing.T) {
	hasher := newTestHasher(t)

	if _, err := hasher.Verify("password", "not-a-valid-hash"); err == nil {
		t.Fatalf("expected malformed hash to error")
	}
}

func TestGenerateNumericCode_Shape(t *testing.T) {
	code, err := GenerateNumericCode(6)
	if err != nil {
		t.Fatalf("GenerateNumericCode returned error: %v", err)
	}
	if len(code) != 6 {
		t.Fatalf("expected 6 digits, got %d", len(code))
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			t.Fatalf("expected only digits, got %q", code)
		}
	}
}

func TestGenerateNumericCode_CoversAllDigits(t *testing.T) {
	seen := make(map[rune]bool)
	for i := 0; i < 400 && len(seen) < 10; i++ {
		code, err := GenerateNumericCode(6)
		if err != nil {
			t.Fatalf("GenerateNumericCode returned error: %v", err)
		}
		for _, r := range code {
			seen[r] = true
		}
	}
	if len(seen) != 10 {
		t.Fatalf("expected every digit to appear, saw %d of 10", len(seen))
	}
}

func TestHashToken_Deterministic(t *testing.T) {
	raw, err := GenerateSecureToken(32)
	if err != nil {
		t.Fatalf("GenerateSecureToken returned error: %v", err)
	}
	if HashToken(raw) != HashToken(raw) {
		t.Fatalf("expected stable hash for the same token")
	}
	if HashToken(raw) == raw {
		t.Fatalf("hash must differ from the raw token")
	}
}
