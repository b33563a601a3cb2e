package auth

import (
	"testing"

	"github.com/google/uuid"
)

func TestTokenRoundTrip(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	userID := uuid.New()
	token, err := CreateToken(userID)
	if err != nil {
		t.Fatalf("create token failed: %v", err)
	}

	got, err := VerifyToken(token)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if got != userID {
		t.Fatalf("subject mismatch: got %s, want %s", got, userID)
	}
}

func TestVerifyGarbageToken(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if _, err := VerifyToken("not-a-jwt"); err == nil {
		t.Fatalf("garbage token should not verify")
	}
}

func TestTokenFromOtherKeyRejected(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	token, err := CreateToken(uuid.New())
	if err != nil {
		t.Fatalf("create token failed: %v", err)
	}

	// Rotating the keys invalidates everything signed before.
	if err := Init(); err != nil {
		t.Fatalf("re-init failed: %v", err)
	}
	if _, err := VerifyToken(token); err == nil {
		t.Fatalf("token signed by a rotated key should not verify")
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("hunter2")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}

	match, err := ComparePassword("hunter2", hash)
	if err != nil {
		t.Fatalf("compare failed: %v", err)
	}
	if !match {
		t.Fatalf("correct password should match")
	}

	match, err = ComparePassword("wrong", hash)
	if err != nil {
		t.Fatalf("compare failed: %v", err)
	}
	if match {
		t.Fatalf("wrong password should not match")
	}
}

func TestComparePasswordRejectsMalformedHash(t *testing.T) {
	if _, err := ComparePassword("x", "not-an-encoded-hash"); err == nil {
		t.Fatalf("malformed hash should error")
	}
}
