package service

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/matricula/matricula/internal/model"
)

// UserService manages operator accounts.
type UserService struct {
	users      UserStore
	events     Notifier
	bcryptCost int
	log        zerolog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(users UserStore, events Notifier, bcryptCost int, log zerolog.Logger) *UserService {
	return &UserService{
		users:      users,
		events:     events,
		bcryptCost: bcryptCost,
		log:        log.With().Str("component", "user_service").Logger(),
	}
}

// GetByID retrieves a user by ID.
func (s *UserService) GetByID(ctx context.Context, id int) (*model.User, error) {
	return s.users.GetByID(ctx, id)
}

// Create hashes the password and stores a new account on behalf of actorID.
func (s *UserService) Create(ctx context.Context, actorID int, req model.CreateUserRequest) (*model.User, error) {
	hash, err := hashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{Username: req.Username, PasswordHash: hash}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	payload, _ := json.Marshal(map[string]string{"username": user.Username})
	notify(ctx, s.events, s.log, model.AuditEvent{
		Kind:      model.AuditUserCreated,
		ActorID:   actorID,
		SubjectID: user.ID,
		Payload:   string(payload),
	})

	return user, nil
}

// EnsureBootstrapUser creates the first account when none exists.
// It reports whether an account was created.
func (s *UserService) EnsureBootstrapUser(ctx context.Context, username, password string) (bool, error) {
	if username == "" || password == "" {
		return false, nil
	}

	n, err := s.users.Count(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}

	if _, err := s.Create(ctx, 0, model.CreateUserRequest{Username: username, Password: password}); err != nil {
		return false, err
	}
	return true, nil
}
