package auth

import (
	"testing"
	"time"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("hunter22")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "hunter22" {
		t.Fatalf("hash must not equal the plaintext")
	}
	if !CheckPassword(hash, "hunter22") {
		t.Fatalf("correct password rejected")
	}
	if CheckPassword(hash, "hunter23") {
		t.Fatalf("wrong password accepted")
	}
}

func TestJWTRoundTrip(t *testing.T) {
	token, err := SignJWT(42, "secret", time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	uid, err := ParseJWT(token, "secret")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if uid != 42 {
		t.Fatalf("expected user 42, got %d", uid)
	}
}

func TestJWTRejectsBadSecret(t *testing.T) {
	token, err := SignJWT(42, "secret", time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseJWT(token, "other-secret"); err == nil {
		t.Fatalf("token verified with the wrong secret")
	}
}

func TestJWTRejectsExpired(t *testing.T) {
	token, err := SignJWT(42, "secret", -time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseJWT(token, "secret"); err == nil {
		t.Fatalf("expired token accepted")
	}
}

func TestJWTRejectsGarbage(t *testing.T) {
	if _, err := ParseJWT("not-a-token", "secret"); err == nil {
		t.Fatalf("garbage token accepted")
	}
}
