package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestPairRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour, 24*time.Hour)
	uid := uuid.New()

	pair, err := tm.Pair(uid)
	if err != nil {
		t.Fatalf("Pair: %v", err)
	}
	if pair.TokenType != "bearer" || pair.ExpiresIn != 3600 {
		t.Fatalf("pair = %+v", pair)
	}

	got, err := tm.Verify(pair.AccessToken, "access")
	if err != nil {
		t.Fatalf("Verify access: %v", err)
	}
	if got != uid {
		t.Fatalf("subject = %s, want %s", got, uid)
	}
	if _, err := tm.Verify(pair.RefreshToken, "refresh"); err != nil {
		t.Fatalf("Verify refresh: %v", err)
	}
}

func TestVerifyRejectsWrongType(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour, 24*time.Hour)
	pair, err := tm.Pair(uuid.New())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tm.Verify(pair.RefreshToken, "access"); err == nil {
		t.Fatal("refresh token accepted as access token")
	}
	if _, err := tm.Verify(pair.AccessToken, "refresh"); err == nil {
		t.Fatal("access token accepted as refresh token")
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour, 24*time.Hour)
	other := NewTokenManager("different", time.Hour, 24*time.Hour)

	pair, err := tm.Pair(uuid.New())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := other.Verify(pair.AccessToken, "access"); err == nil {
		t.Fatal("token verified with wrong secret")
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	tm := NewTokenManager("secret", -time.Minute, 24*time.Hour)
	pair, err := tm.Pair(uuid.New())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tm.Verify(pair.AccessToken, "access"); err == nil {
		t.Fatal("expired token accepted")
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour, 24*time.Hour)
	if _, err := tm.Verify("not.a.token", "access"); err == nil {
		t.Fatal("garbage token accepted")
	}
}
