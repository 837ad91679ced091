package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/matricula/matricula/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = []string{"login", "dashboard", "register", "delinquent"}

type views struct {
	pages map[string]*template.Template
}

var funcs = template.FuncMap{
	"money": func(m model.Money) string { return m.String() },
	"date": func(d model.Date) string {
		if d.IsZero() {
			return "-"
		}
		return d.Format("02/01/2006")
	},
	"optdate": func(d *model.Date) string {
		if d == nil || d.IsZero() {
			return "-"
		}
		return d.Format("02/01/2006")
	},
	"add": func(a, b int) int { return a + b },
	"seq": func(n int) []int {
		out := make([]int, n)
		for i := range out {
			out[i] = i + 1
		}
		return out
	},
}

func loadViews() (*views, error) {
	v := &views{pages: make(map[string]*template.Template, len(pages))}
	for _, name := range pages {
		t, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS,
			"templates/layout.html",
			"templates/students_table.html",
			"templates/"+name+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("parse %s view: %w", name, err)
		}
		v.pages[name] = t
	}
	return v, nil
}

// render buffers the page so a template error never yields a half-written body.
func (s *Server) render(w http.ResponseWriter, status int, page string, data interface{}) {
	t, ok := s.views.pages[page]
	if !ok {
		s.log.Error().Str("page", page).Msg("Unknown view")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		s.log.Error().Err(err).Str("page", page).Msg("Render failed")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

type loginView struct {
	Title    string
	Username string
	Error    string
}

type dashboardView struct {
	Title    string
	Students []model.Student
	Page     int
	Pages    int
	Total    int
	Error    string
}

type registerView struct {
	Title          string
	Form           RegistrationForm
	Fields         map[string]string
	PaymentMethods []model.PaymentMethod
	Today          string
	Success        string
	Error          string
}

type delinquentView struct {
	Title    string
	Students []model.Student
	Error    string
}
