package utils

import (
	"strings"
	"testing"
)

func TestNewConfirmationCode(t *testing.T) {
	tests := []struct {
		name string
		n    int
	}{
		{name: "eightChars", n: 8},
		{name: "singleChar", n: 1},
		{name: "empty", n: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, err := NewConfirmationCode(tt.n)
			if err != nil {
				t.Fatalf("NewConfirmationCode() error = %v", err)
			}
			if len(code) != tt.n {
				t.Fatalf("len = %d, want %d", len(code), tt.n)
			}
			for _, r := range code {
				if !strings.ContainsRune(codeAlphabet, r) {
					t.Errorf("unexpected rune %q in %q", r, code)
				}
			}
		})
	}
}

func TestNewConfirmationCodeSpread(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 500; i++ {
		code, err := NewConfirmationCode(8)
		if err != nil {
			t.Fatalf("NewConfirmationCode() error = %v", err)
		}
		if seen[code] {
			t.Fatalf("duplicate code %q after %d draws", code, i)
		}
		seen[code] = true
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken("secret", 42, "admin", 5)
	if err != nil {
		t.Fatalf("NewAccessToken() error = %v", err)
	}
	if tok.Token == "" || tok.Exp.IsZero() {
		t.Fatalf("NewAccessToken() = %+v, want token and expiry", tok)
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret", 4)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if !VerifyPassword(hash, "s3cret") {
		t.Error("VerifyPassword() rejected the right password")
	}
	if VerifyPassword(hash, "wrong") {
		t.Error("VerifyPassword() accepted a wrong password")
	}
}
