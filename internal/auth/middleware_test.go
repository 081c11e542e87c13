package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type stubLookup struct {
	user *User
	err  error
}

func (s *stubLookup) LookupSession(context.Context, string) (*User, error) {
	return s.user, s.err
}

func TestSessionMiddleware_ValidToken(t *testing.T) {
	lookup := &stubLookup{user: &User{ID: "u1", Email: "a@b.c"}}
	mw := SessionMiddleware(lookup)

	var got *User
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = UserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got == nil || got.ID != "u1" {
		t.Errorf("expected user u1 in context, got %+v", got)
	}
}

func TestSessionMiddleware_MissingHeader(t *testing.T) {
	mw := SessionMiddleware(&stubLookup{})

	called := false
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if called {
		t.Error("next handler should not run without a token")
	}

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body.Error.Code != "unauthorized" {
		t.Errorf("error code: got %q, want unauthorized", body.Error.Code)
	}
}

func TestSessionMiddleware_BadToken(t *testing.T) {
	lookup := &stubLookup{err: errors.New("not found")}
	failures := 0
	mw := SessionMiddleware(lookup, func() { failures++ })

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer bad")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if failures != 1 {
		t.Errorf("onFailure hook: got %d calls, want 1", failures)
	}
}

func TestSessionMiddleware_MissingTokenSkipsFailureHook(t *testing.T) {
	failures := 0
	mw := SessionMiddleware(&stubLookup{}, func() { failures++ })

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if failures != 0 {
		t.Errorf("absent header should not count as an auth failure, got %d", failures)
	}
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"standard", "Bearer tok123", "tok123"},
		{"case insensitive scheme", "bearer tok123", "tok123"},
		{"empty", "", ""},
		{"scheme only", "Bearer", ""},
		{"wrong scheme", "Basic dXNlcjpwYXNz", ""},
		{"token with spaces kept whole", "Bearer a b", "a b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if got := ExtractBearerToken(req); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUserFromContext_Empty(t *testing.T) {
	if u := UserFromContext(context.Background()); u != nil {
		t.Errorf("expected nil, got %+v", u)
	}
}
