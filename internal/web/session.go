package web

import (
	"net/http"

	"github.com/gorilla/sessions"
)

const (
	sessionName = "matricula"
	tokenKey    = "token"
)

// NewCookieStore returns the signed cookie store holding the API token.
func NewCookieStore(secret string, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   8 * 60 * 60,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// token returns the stored API token, or "" when the visitor is anonymous.
// A cookie that fails to decode counts as anonymous.
func (s *Server) token(r *http.Request) string {
	sess, err := s.store.Get(r, sessionName)
	if err != nil {
		return ""
	}
	tok, _ := sess.Values[tokenKey].(string)
	return tok
}

func (s *Server) setToken(w http.ResponseWriter, r *http.Request, token string) error {
	sess, _ := s.store.Get(r, sessionName)
	sess.Values[tokenKey] = token
	return sess.Save(r, w)
}

// clearToken destroys the session cookie.
func (s *Server) clearToken(w http.ResponseWriter, r *http.Request) {
	sess, _ := s.store.Get(r, sessionName)
	delete(sess.Values, tokenKey)
	sess.Options.MaxAge = -1
	if err := sess.Save(r, w); err != nil {
		s.log.Warn().Err(err).Msg("Clear session failed")
	}
}
