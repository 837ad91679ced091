package web

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/matricula/matricula/internal/client"
	"github.com/matricula/matricula/internal/model"
)

// Gate renders the login view, or forwards authenticated visitors to the dashboard.
func (s *Server) Gate(w http.ResponseWriter, r *http.Request) {
	if s.token(r) != "" {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	s.render(w, http.StatusOK, "login", loginView{Title: "Login"})
}

// Login forwards the credentials to the API and stores the returned token.
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.render(w, http.StatusBadRequest, "login", loginView{Title: "Login", Error: msgInvalidCredentials})
		return
	}
	username := strings.TrimSpace(r.PostFormValue("username"))
	password := r.PostFormValue("password")

	token, err := s.api.Login(r.Context(), username, password)
	if err != nil {
		view := loginView{Title: "Login", Username: username, Error: msgInvalidCredentials}
		status := http.StatusUnauthorized
		if !credentialsRejected(err) {
			view.Error = failureMessage(err, msgLoginFailed)
			status = http.StatusBadGateway
		}
		s.log.Info().Err(err).Str("username", username).Msg("Login rejected")
		s.render(w, status, "login", view)
		return
	}

	if err := s.setToken(w, r, token); err != nil {
		s.log.Error().Err(err).Msg("Save session failed")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// credentialsRejected reports whether the API refused the username or
// password, as opposed to failing for some other reason.
func credentialsRejected(err error) bool {
	if errors.Is(err, client.ErrUnauthorized) {
		return true
	}
	var apiErr *client.APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusBadRequest
}

// Logout revokes the token on the API (best effort) and clears the session.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	if tok := s.token(r); tok != "" {
		if err := s.api.Logout(r.Context(), tok); err != nil && !errors.Is(err, client.ErrUnauthorized) {
			s.log.Warn().Err(err).Msg("API logout failed")
		}
	}
	s.forceLogout(w, r)
}

// Dashboard lists one page of students.
func (s *Server) Dashboard(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	s.dashboard(w, r, page, "")
}

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request, page int, banner string) {
	view := dashboardView{Title: "Alunos", Page: page, Error: banner}

	result, err := s.api.ListStudents(r.Context(), s.token(r), page, dashboardPerPage)
	switch {
	case errors.Is(err, client.ErrUnauthorized):
		s.forceLogout(w, r)
		return
	case err != nil:
		s.log.Warn().Err(err).Msg("List students failed")
		view.Error = failureMessage(err, msgLoadFailed)
	default:
		view.Students = result.Students
		view.Pages = result.TotalPages
		view.Total = result.TotalItems
	}

	s.render(w, http.StatusOK, "dashboard", view)
}

// Delinquent lists students without any recorded payment.
func (s *Server) Delinquent(w http.ResponseWriter, r *http.Request) {
	view := delinquentView{Title: "Inadimplentes"}

	students, err := s.api.ListDelinquent(r.Context(), s.token(r))
	switch {
	case errors.Is(err, client.ErrUnauthorized):
		s.forceLogout(w, r)
		return
	case err != nil:
		s.log.Warn().Err(err).Msg("List delinquent failed")
		view.Error = failureMessage(err, msgLoadFailed)
	default:
		view.Students = students
	}

	s.render(w, http.StatusOK, "delinquent", view)
}

// Export proxies the XLSX roster from the API.
func (s *Server) Export(w http.ResponseWriter, r *http.Request) {
	body, disposition, err := s.api.ExportStudents(r.Context(), s.token(r))
	if errors.Is(err, client.ErrUnauthorized) {
		s.forceLogout(w, r)
		return
	}
	if err != nil {
		s.log.Warn().Err(err).Msg("Export failed")
		s.dashboard(w, r, 1, failureMessage(err, msgExportFailed))
		return
	}
	defer body.Close()

	if disposition == "" {
		disposition = `attachment; filename="alunos.xlsx"`
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", disposition)
	if _, err := io.Copy(w, body); err != nil {
		s.log.Warn().Err(err).Msg("Export copy interrupted")
	}
}

func (s *Server) registerView(form RegistrationForm) registerView {
	return registerView{
		Title:          "Cadastro de Aluno",
		Form:           form,
		PaymentMethods: model.PaymentMethods,
		Today:          model.NewDate(s.now()).String(),
	}
}

// NewStudent renders the registration form with its defaults.
func (s *Server) NewStudent(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "register", s.registerView(defaultRegistrationForm(model.NewDate(s.now()))))
}

// CreateStudent validates the form and posts it to the API.
func (s *Server) CreateStudent(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	form := RegistrationForm{
		Name:           r.PostFormValue("nome"),
		Contact:        r.PostFormValue("contato"),
		Phone:          r.PostFormValue("telefone"),
		PaymentMethod:  r.PostFormValue("forma_pagamento"),
		EnrollmentDate: r.PostFormValue("data_matricula"),
		PlanEndDate:    r.PostFormValue("fim_plano"),
		MonthlyFee:     r.PostFormValue("valor_mensalidade"),
	}
	trimForm(&form)

	req, fields := s.check(form)
	if fields != nil {
		view := s.registerView(form)
		view.Fields = fields
		view.Error = msgCheckFields
		s.render(w, http.StatusUnprocessableEntity, "register", view)
		return
	}

	_, err := s.api.CreateStudent(r.Context(), s.token(r), req)
	if errors.Is(err, client.ErrUnauthorized) {
		s.forceLogout(w, r)
		return
	}
	if err != nil {
		s.log.Warn().Err(err).Msg("Create student failed")
		view := s.registerView(form)
		view.Error = failureMessage(err, msgRegisterFailed)
		var apiErr *client.APIError
		if errors.As(err, &apiErr) {
			view.Fields = apiFields(apiErr.Fields)
		}
		s.render(w, http.StatusOK, "register", view)
		return
	}

	view := s.registerView(defaultRegistrationForm(model.NewDate(s.now())))
	view.Success = msgRegistered
	s.render(w, http.StatusOK, "register", view)
}

// apiFieldNames maps API payload keys onto form field names.
var apiFieldNames = map[string]string{
	"name":            "nome",
	"contact":         "contato",
	"phone":           "telefone",
	"payment_method":  "forma_pagamento",
	"enrollment_date": "data_matricula",
	"plan_end_date":   "fim_plano",
	"monthly_fee":     "valor_mensalidade",
}

func apiFields(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		if name, ok := apiFieldNames[k]; ok {
			out[name] = v
		}
	}
	return out
}
