package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/matricula/matricula/internal/model"
	"github.com/matricula/matricula/internal/repository"
)

func TestUserServiceCreate(t *testing.T) {
	ctx := context.Background()
	users := &memUsers{}
	events := &recordingNotifier{}
	svc := NewUserService(users, events, bcrypt.MinCost, zerolog.Nop())

	u, err := svc.Create(ctx, 1, model.CreateUserRequest{Username: "maria", Password: "1234"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.PasswordHash == "1234" || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("1234")) != nil {
		t.Fatal("password must be stored as a bcrypt hash")
	}
	if got := events.kinds(); len(got) != 1 || got[0] != model.AuditUserCreated {
		t.Fatalf("events = %v", got)
	}

	_, err = svc.Create(ctx, 1, model.CreateUserRequest{Username: "maria", Password: "abcd"})
	if !errors.Is(err, repository.ErrDuplicateUsername) {
		t.Fatalf("duplicate err = %v", err)
	}
}

func TestEnsureBootstrapUser(t *testing.T) {
	ctx := context.Background()
	users := &memUsers{}
	svc := NewUserService(users, nil, bcrypt.MinCost, zerolog.Nop())

	created, err := svc.EnsureBootstrapUser(ctx, "", "")
	if err != nil || created {
		t.Fatalf("empty credentials: created=%v err=%v", created, err)
	}

	created, err = svc.EnsureBootstrapUser(ctx, "admin", "admin")
	if err != nil || !created {
		t.Fatalf("first run: created=%v err=%v", created, err)
	}

	created, err = svc.EnsureBootstrapUser(ctx, "other", "other")
	if err != nil || created {
		t.Fatalf("second run: created=%v err=%v", created, err)
	}
	if n, _ := users.Count(ctx); n != 1 {
		t.Fatalf("users = %d", n)
	}
}
