package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/matricula/matricula/internal/config"
	"github.com/matricula/matricula/internal/model"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:  "test-secret",
		JWTExpiry:  30 * time.Minute,
		BcryptCost: bcrypt.MinCost,
	}
}

func newAuthFixture(t *testing.T) (*AuthService, *memUsers, *memSessions, *recordingNotifier) {
	t.Helper()
	users := &memUsers{}
	sessions := newMemSessions()
	events := &recordingNotifier{}
	svc := NewAuthService(testConfig(), users, sessions, events, zerolog.Nop())

	hash, err := svc.HashPassword("secret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := users.Create(context.Background(), &model.User{Username: "admin", PasswordHash: hash}); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return svc, users, sessions, events
}

func TestLoginIssuesValidToken(t *testing.T) {
	ctx := context.Background()
	svc, _, _, events := newAuthFixture(t)

	token, user, err := svc.Login(ctx, "admin", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if token == "" || user.Username != "admin" {
		t.Fatalf("unexpected login result %q %+v", token, user)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserID != user.ID || claims.Username != "admin" || claims.ID == "" {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if err := svc.ValidateSession(ctx, claims); err != nil {
		t.Fatalf("session should be live: %v", err)
	}

	if got := events.kinds(); len(got) != 1 || got[0] != model.AuditLogin {
		t.Fatalf("events = %v", got)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _, _, _ := newAuthFixture(t)

	if _, _, err := svc.Login(context.Background(), "admin", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password err = %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "ghost", "secret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user err = %v", err)
	}
}

func TestLoginSurvivesNotifierFailure(t *testing.T) {
	svc, _, _, events := newAuthFixture(t)
	events.err = errBoom

	if _, _, err := svc.Login(context.Background(), "admin", "secret"); err != nil {
		t.Fatalf("login should not fail on notify error: %v", err)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newAuthFixture(t)

	token, _, err := svc.Login(ctx, "admin", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}

	if err := svc.Logout(ctx, claims); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if err := svc.ValidateSession(ctx, claims); !errors.Is(err, ErrSessionRevoked) {
		t.Fatalf("revoked session err = %v", err)
	}
}

func TestValidateTokenRejectsForeignSignature(t *testing.T) {
	svc, users, sessions, _ := newAuthFixture(t)

	other := testConfig()
	other.JWTSecret = "another-secret"
	forger := NewAuthService(other, users, sessions, nil, zerolog.Nop())

	u, _ := users.GetByUsername(context.Background(), "admin")
	token, err := forger.GenerateToken(context.Background(), u)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := svc.ValidateToken(token); err == nil {
		t.Fatal("token signed with another secret must be rejected")
	}
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	cfg := testConfig()
	cfg.JWTExpiry = -time.Minute
	users := &memUsers{}
	svc := NewAuthService(cfg, users, newMemSessions(), nil, zerolog.Nop())

	token, err := svc.GenerateToken(context.Background(), &model.User{ID: 1, Username: "admin"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := svc.ValidateToken(token); err == nil {
		t.Fatal("expired token must be rejected")
	}
}
