package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"matchmaker/internal/model"
)

func TestPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "s3cret-pass" {
		t.Fatal("hash equals the plain password")
	}
	if err := CheckPassword(hash, "s3cret-pass"); err != nil {
		t.Fatalf("CheckPassword(correct) = %v", err)
	}
	if err := CheckPassword(hash, "wrong"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("CheckPassword(wrong) = %v", err)
	}
	if err := CheckPassword("", "anything"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("CheckPassword(no hash) = %v", err)
	}
}

func TestIssueParse(t *testing.T) {
	iss, err := NewIssuer("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}
	token, err := iss.Issue(model.User{ID: "u1", Role: model.RoleOrganizer})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	claims, err := iss.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.Subject != "u1" || claims.Role != model.RoleOrganizer {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestParseRejects(t *testing.T) {
	base := time.Date(2026, time.October, 19, 12, 0, 0, 0, time.UTC)
	iss, _ := NewIssuer("test-secret", time.Hour)
	iss.now = func() time.Time { return base }
	valid, _ := iss.Issue(model.User{ID: "u1", Role: model.RoleVolunteer})

	other, _ := NewIssuer("another-secret", time.Hour)
	other.now = iss.now
	foreign, _ := other.Issue(model.User{ID: "u1"})

	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "u1"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)

	noSubject, _ := iss.Issue(model.User{Role: model.RoleAdmin})

	tests := []struct {
		name  string
		token string
		at    time.Time
	}{
		{name: "garbage", token: "not-a-token", at: base},
		{name: "wrong secret", token: foreign, at: base},
		{name: "alg none", token: none, at: base},
		{name: "expired", token: valid, at: base.Add(2 * time.Hour)},
		{name: "no subject", token: noSubject, at: base},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			at := tt.at
			iss.now = func() time.Time { return at }
			if _, err := iss.Parse(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("Parse err = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestNewIssuerRequiresSecret(t *testing.T) {
	if _, err := NewIssuer("", time.Hour); !errors.Is(err, ErrNoSecret) {
		t.Fatalf("err = %v, want ErrNoSecret", err)
	}
}
