package web

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// Routes builds the front-end router.
func (s *Server) Routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("OK"))
	}).Methods(http.MethodGet)

	r.HandleFunc("/", s.Gate).Methods(http.MethodGet)
	r.HandleFunc("/login", s.Login).Methods(http.MethodPost)
	r.HandleFunc("/logout", s.Logout).Methods(http.MethodPost)

	authed := r.NewRoute().Subrouter()
	authed.Use(s.requireToken)
	authed.HandleFunc("/dashboard", s.Dashboard).Methods(http.MethodGet)
	authed.HandleFunc("/students/new", s.NewStudent).Methods(http.MethodGet)
	authed.HandleFunc("/students/new", s.CreateStudent).Methods(http.MethodPost)
	authed.HandleFunc("/students/delinquent", s.Delinquent).Methods(http.MethodGet)
	authed.HandleFunc("/students/export", s.Export).Methods(http.MethodGet)

	return r
}

// requireToken redirects anonymous visitors to the gate.
func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.token(r) == "" {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("Request")
	})
}
