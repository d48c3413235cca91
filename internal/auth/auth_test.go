package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("123456")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if hash == "123456" {
		t.Fatalf("hash must not equal the password")
	}
	if !CheckPassword(hash, "123456") {
		t.Fatalf("CheckPassword rejected the right password")
	}
	if CheckPassword(hash, "654321") {
		t.Fatalf("CheckPassword accepted the wrong password")
	}
}

func TestTokens_IssueAndParse(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)

	raw, err := tokens.Issue(42)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	id, err := tokens.Parse(raw)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if id != 42 {
		t.Fatalf("id = %d, want 42", id)
	}
}

func TestTokens_Rejects(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)

	t.Run("wrong secret", func(t *testing.T) {
		raw, _ := NewTokens("other", time.Hour).Issue(1)
		if _, err := tokens.Parse(raw); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("expired", func(t *testing.T) {
		old := NewTokens("secret", time.Hour)
		old.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		raw, _ := old.Issue(1)
		if _, err := tokens.Parse(raw); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("none algorithm", func(t *testing.T) {
		raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "1"}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		if err != nil {
			t.Fatalf("sign error: %v", err)
		}
		if _, err := tokens.Parse(raw); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("non numeric subject", func(t *testing.T) {
		raw, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Subject:   "abc",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}).SignedString([]byte("secret"))
		if _, err := tokens.Parse(raw); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("garbage", func(t *testing.T) {
		if _, err := tokens.Parse("not-a-jwt"); err == nil {
			t.Fatalf("expected error")
		}
	})
}
