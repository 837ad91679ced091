package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/matricula/matricula/internal/model"
	"github.com/matricula/matricula/internal/repository"
)

type memUsers struct {
	mu    sync.Mutex
	users []model.User
}

func (m *memUsers) GetByID(_ context.Context, id int) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			u := u
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUsers) GetByUsername(_ context.Context, username string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			u := u
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUsers) Create(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Username == u.Username {
			return repository.ErrDuplicateUsername
		}
	}
	u.ID = len(m.users) + 1
	u.CreatedAt = time.Now()
	m.users = append(m.users, *u)
	return nil
}

func (m *memUsers) Count(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users), nil
}

type memStudents struct {
	students []model.Student
	paid     map[int]bool
	err      error
}

func (m *memStudents) GetByID(_ context.Context, id int) (*model.Student, error) {
	for _, s := range m.students {
		if s.ID == id {
			s := s
			return &s, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memStudents) ListPaginated(_ context.Context, limit, offset int) ([]model.Student, int, error) {
	if m.err != nil {
		return nil, 0, m.err
	}
	if offset >= len(m.students) {
		return nil, len(m.students), nil
	}
	end := offset + limit
	if end > len(m.students) {
		end = len(m.students)
	}
	return m.students[offset:end], len(m.students), nil
}

func (m *memStudents) ListAll(context.Context) ([]model.Student, error) {
	return m.students, m.err
}

func (m *memStudents) ListWithoutPayments(context.Context) ([]model.Student, error) {
	var out []model.Student
	for _, s := range m.students {
		if !m.paid[s.ID] {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStudents) Create(_ context.Context, s *model.Student) error {
	if m.err != nil {
		return m.err
	}
	s.ID = len(m.students) + 1
	m.students = append(m.students, *s)
	return nil
}

type memPayments struct {
	payments []model.Payment
}

func (m *memPayments) Create(_ context.Context, p *model.Payment) error {
	p.ID = len(m.payments) + 1
	p.PaidAt = time.Now().UTC()
	m.payments = append(m.payments, *p)
	return nil
}

func (m *memPayments) ListByStudent(_ context.Context, studentID int) ([]model.Payment, error) {
	var out []model.Payment
	for _, p := range m.payments {
		if p.StudentID == studentID {
			out = append(out, p)
		}
	}
	return out, nil
}

type memSessions struct {
	mu   sync.Mutex
	live map[string]bool
}

func newMemSessions() *memSessions {
	return &memSessions{live: map[string]bool{}}
}

func (m *memSessions) Register(_ context.Context, _ int, jti string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.live[jti] = true
	return nil
}

func (m *memSessions) Exists(_ context.Context, _ int, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.live[jti], nil
}

func (m *memSessions) Revoke(_ context.Context, _ int, jti string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.live, jti)
	return nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []model.AuditEvent
	err    error
}

func (r *recordingNotifier) Notify(_ context.Context, e model.AuditEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, e)
	return nil
}

func (r *recordingNotifier) kinds() []model.AuditKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.AuditKind, len(r.events))
	for i, e := range r.events {
		out[i] = e.Kind
	}
	return out
}

var errBoom = errors.New("boom")
