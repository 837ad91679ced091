// Package web is the server-rendered operator front end. It keeps the API
// token in a signed cookie and renders every view from embedded templates.
package web

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
	"github.com/rs/zerolog"

	"github.com/matricula/matricula/internal/client"
	"github.com/matricula/matricula/internal/model"
	"github.com/matricula/matricula/internal/validator"
)

// Banner texts shown to the operator.
const (
	msgInvalidCredentials = "Credenciais inválidas!"
	msgConnection         = "Erro de conexão ao servidor"
	msgLoginFailed        = "Erro ao entrar"
	msgRegistered         = "Aluno cadastrado com sucesso!"
	msgRegisterFailed     = "Erro ao cadastrar aluno"
	msgLoadFailed         = "Erro ao carregar alunos"
	msgExportFailed       = "Erro ao exportar alunos"
	msgCheckFields        = "Verifique os campos destacados."
	msgPlanEndInPast      = "O fim do plano não pode estar no passado"
	msgInvalidFee         = "Valor inválido"
)

// dashboardPerPage is the page size requested by the dashboard.
const dashboardPerPage = 50

// API is the part of the enrollment API the front end calls.
type API interface {
	Login(ctx context.Context, username, password string) (string, error)
	Logout(ctx context.Context, token string) error
	ListStudents(ctx context.Context, token string, page, perPage int) (*client.Page, error)
	CreateStudent(ctx context.Context, token string, req model.CreateStudentRequest) (*model.Student, error)
	ListDelinquent(ctx context.Context, token string) ([]model.Student, error)
	ExportStudents(ctx context.Context, token string) (io.ReadCloser, string, error)
}

// Server renders the operator views.
type Server struct {
	api       API
	store     sessions.Store
	views     *views
	validator *validator.FormValidator
	log       zerolog.Logger
	now       func() time.Time
}

// NewServer creates a Server.
func NewServer(api API, store sessions.Store, log zerolog.Logger) (*Server, error) {
	v, err := loadViews()
	if err != nil {
		return nil, err
	}
	return &Server{
		api:       api,
		store:     store,
		views:     v,
		validator: validator.New(),
		log:       log.With().Str("component", "web").Logger(),
		now:       time.Now,
	}, nil
}

// failureMessage maps a non-401 API error to the banner text.
func failureMessage(err error, fallback string) string {
	if errors.Is(err, client.ErrUnavailable) {
		return msgConnection
	}
	return client.MessageOr(err, fallback)
}

// forceLogout drops the token and sends the visitor back to the gate.
func (s *Server) forceLogout(w http.ResponseWriter, r *http.Request) {
	s.clearToken(w, r)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
