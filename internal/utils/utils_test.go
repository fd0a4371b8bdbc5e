package utils

import (
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

func TestGenerateCodeLengthAndAlphabet(t *testing.T) {
	for _, length := range []int{6, 8} {
		code, err := GenerateCode(length)
		if err != nil {
			t.Fatalf("GenerateCode(%d): %v", length, err)
		}
		if len(code) != length {
			t.Fatalf("len(%q) = %d, want %d", code, len(code), length)
		}
		for _, c := range code {
			if !strings.ContainsRune(codeAlphabet, c) {
				t.Fatalf("code %q contains %q outside the alphabet", code, c)
			}
		}
	}
}

func TestGenerateCodeExcludesAmbiguousCharacters(t *testing.T) {
	for _, c := range "01OI" {
		if strings.ContainsRune(codeAlphabet, c) {
			t.Fatalf("alphabet contains ambiguous character %q", c)
		}
	}
}

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("hunter2", 4)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !VerifyPassword(hash, "hunter2") {
		t.Fatalf("correct password rejected")
	}
	if VerifyPassword(hash, "hunter3") {
		t.Fatalf("wrong password accepted")
	}
	if VerifyPassword("not-a-hash", "hunter2") {
		t.Fatalf("garbage hash accepted")
	}
}

func TestNewAccessTokenClaims(t *testing.T) {
	tok, err := NewAccessToken("test-secret", 42, "subscriber", 15)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}

	parsed, err := jwt.Parse(tok.Token, func(t *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("parse: %v", err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		t.Fatalf("claims type %T", parsed.Claims)
	}
	// JSON numbers decode as float64.
	if sub, _ := claims["sub"].(float64); uint64(sub) != 42 {
		t.Fatalf("sub = %v, want 42", claims["sub"])
	}
	if claims["role"] != "subscriber" {
		t.Fatalf("role = %v, want subscriber", claims["role"])
	}

	// Wrong secret must fail verification.
	if _, err := jwt.Parse(tok.Token, func(t *jwt.Token) (interface{}, error) {
		return []byte("other-secret"), nil
	}); err == nil {
		t.Fatalf("token verified with the wrong secret")
	}
}
