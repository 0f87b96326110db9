package auth

import (
	"strings"
	"testing"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("secret-password")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Errorf("unexpected hash format: %s", hash)
	}
	if strings.Contains(hash, "secret-password") {
		t.Error("hash must not contain the plaintext password")
	}

	if !VerifyPassword("secret-password", hash) {
		t.Error("correct password must verify")
	}
	if VerifyPassword("wrong-password", hash) {
		t.Error("wrong password must not verify")
	}
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	a, err := HashPassword("secret-password")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	b, err := HashPassword("secret-password")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if a == b {
		t.Error("two hashes of the same password must differ")
	}
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	malformed := []string{
		"",
		"not-a-hash",
		"$argon2id$v=19$m=65536,t=1,p=4$onlyonepart",
		"$bcrypt$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=65536,t=1,p=4$!!!$aGFzaA",
	}
	for _, hash := range malformed {
		if VerifyPassword("secret-password", hash) {
			t.Errorf("malformed hash %q must not verify", hash)
		}
	}
}
