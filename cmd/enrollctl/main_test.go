package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matricula/matricula/internal/model"
)

// fakeAPI answers like the enrollment API for the routes the CLI uses.
func fakeAPI(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	write := func(w http.ResponseWriter, status int, body interface{}) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
	authed := func(r *http.Request) bool {
		return r.Header.Get("Authorization") == "Bearer good-token"
	}

	mux.HandleFunc("/api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req model.LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Username != "admin" || req.Password != "s3cret" {
			write(w, http.StatusUnauthorized, map[string]interface{}{"error": map[string]string{"code": "INVALID_CREDENTIALS"}})
			return
		}
		write(w, http.StatusOK, map[string]interface{}{"data": map[string]interface{}{"token": "good-token", "user": map[string]interface{}{"id": 1, "username": "admin"}}})
	})
	mux.HandleFunc("/api/v1/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		write(w, http.StatusOK, map[string]interface{}{"data": nil})
	})
	mux.HandleFunc("/api/v1/students", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		if !authed(r) {
			write(w, http.StatusUnauthorized, map[string]interface{}{"error": map[string]string{"code": "SESSION_INVALIDATED"}})
			return
		}
		if r.Method == http.MethodPost {
			write(w, http.StatusCreated, map[string]interface{}{"data": map[string]interface{}{"student": map[string]interface{}{"id": 7, "name": "Ana"}}})
			return
		}
		write(w, http.StatusOK, map[string]interface{}{
			"data": map[string]interface{}{"students": []map[string]interface{}{{
				"id": 1, "name": "Ana Souza", "contact": "ana@example.com", "phone": "11999990000",
				"payment_method": "Pix", "enrollment_date": "2024-03-01", "plan_end_date": nil, "monthly_fee": 15050,
			}}},
			"pagination": map[string]int{"page": 1, "per_page": 50, "total_items": 1, "total_pages": 1},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(strings.NewReader(stdin), &out, &errOut)
	cmd.SetArgs(args)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func TestTokenFile(t *testing.T) {
	f := tokenFile{path: filepath.Join(t.TempDir(), "nested", "token")}

	if _, err := f.Load(); err != errNotLoggedIn {
		t.Fatalf("missing file err = %v", err)
	}
	if err := f.Save("abc"); err != nil {
		t.Fatalf("save: %v", err)
	}
	info, err := os.Stat(f.path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("mode = %v, want 0600", info.Mode().Perm())
	}
	if tok, err := f.Load(); err != nil || tok != "abc" {
		t.Fatalf("Load = %q, %v", tok, err)
	}
	if err := f.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := f.Clear(); err != nil {
		t.Fatalf("second clear: %v", err)
	}
}

func TestLoginListLogout(t *testing.T) {
	var hits int32
	srv := fakeAPI(t, &hits)
	tokenPath := filepath.Join(t.TempDir(), "token")
	base := []string{"--api", srv.URL, "--token-file", tokenPath}

	if _, err := run(t, "wrong\n", append(base, "login", "-u", "admin")...); err == nil || !strings.Contains(err.Error(), "invalid credentials") {
		t.Fatalf("bad login err = %v", err)
	}

	out, err := run(t, "admin\ns3cret\n", append(base, "login")...)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !strings.Contains(out, "Logged in as admin") {
		t.Fatalf("login output = %q", out)
	}

	out, err = run(t, "", append(base, "students", "list")...)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, want := range []string{"Ana Souza", "R$ 150,50", "2024-03-01", "page 1 of 1"} {
		if !strings.Contains(out, want) {
			t.Errorf("list output missing %q:\n%s", want, out)
		}
	}

	if _, err := run(t, "", append(base, "logout")...); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := os.Stat(tokenPath); !os.IsNotExist(err) {
		t.Fatalf("token file should be gone, stat err = %v", err)
	}
	if _, err := run(t, "", append(base, "students", "list")...); err != errNotLoggedIn {
		t.Fatalf("list after logout err = %v", err)
	}
}

func TestRejectedTokenIsDropped(t *testing.T) {
	var hits int32
	srv := fakeAPI(t, &hits)
	tokenPath := filepath.Join(t.TempDir(), "token")
	if err := (tokenFile{path: tokenPath}).Save("stale"); err != nil {
		t.Fatal(err)
	}

	_, err := run(t, "", "--api", srv.URL, "--token-file", tokenPath, "students", "list")
	if err == nil || !strings.Contains(err.Error(), "session expired") {
		t.Fatalf("err = %v", err)
	}
	if _, err := os.Stat(tokenPath); !os.IsNotExist(err) {
		t.Fatal("stale token should be removed")
	}
}

func TestStudentsAddValidatesBeforeCalling(t *testing.T) {
	var hits int32
	srv := fakeAPI(t, &hits)
	tokenPath := filepath.Join(t.TempDir(), "token")
	if err := (tokenFile{path: tokenPath}).Save("good-token"); err != nil {
		t.Fatal(err)
	}
	base := []string{"--api", srv.URL, "--token-file", tokenPath, "students", "add"}

	_, err := run(t, "", append(base, "--name", "A", "--contact", "nope", "--phone", "1", "--plan-end", "2000-01-01", "--fee", "x")...)
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, flag := range []string{"--name", "--contact", "--phone", "--plan-end", "--fee"} {
		if !strings.Contains(err.Error(), flag) {
			t.Errorf("error does not mention %s: %v", flag, err)
		}
	}
	if atomic.LoadInt32(&hits) != 0 {
		t.Fatal("API called despite invalid flags")
	}

	out, err := run(t, "", append(base, "--name", "Ana Souza", "--contact", "ana@example.com", "--phone", "11999990000", "--payment-method", "Pix", "--fee", "150,50")...)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !strings.Contains(out, "Aluno cadastrado com sucesso! (id 7)") {
		t.Fatalf("add output = %q", out)
	}
}

func TestExportFilename(t *testing.T) {
	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	if got := exportFilename(`attachment; filename="alunos-20240614.xlsx"`, now); got != "alunos-20240614.xlsx" {
		t.Errorf("from header = %q", got)
	}
	if got := exportFilename(`attachment; filename="../etc/passwd"`, now); got != "alunos-20240615.xlsx" {
		t.Errorf("path traversal not rejected: %q", got)
	}
	if got := exportFilename("", now); got != "alunos-20240615.xlsx" {
		t.Errorf("fallback = %q", got)
	}
}
