package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rpattn/signalcat/internal/auth"
)

func loginHandler(t *testing.T) (*Handler, *auth.TokenManager) {
	t.Helper()
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	handler := NewHandler(nil, tokens, map[string]string{"test_user": "test_pass"})
	return handler, tokens
}

func postLogin(t *testing.T, handler *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(body))
	recorder := httptest.NewRecorder()
	handler.handleLogin(recorder, req)
	return recorder
}

func TestLoginIssuesTokenForKnownUser(t *testing.T) {
	handler, tokens := loginHandler(t)

	recorder := postLogin(t, handler, `{"username":"test_user","password":"test_pass"}`)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	var payload struct {
		Token string `json:"token"`
		User  string `json:"user"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if payload.User != "test_user" {
		t.Errorf("expected user test_user, got %q", payload.User)
	}
	actor, err := tokens.Parse(payload.Token)
	if err != nil || actor != "test_user" {
		t.Errorf("issued token does not verify: actor=%q err=%v", actor, err)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	handler, _ := loginHandler(t)

	cases := []struct {
		name string
		body string
	}{
		{"wrong password", `{"username":"test_user","password":"nope"}`},
		{"unknown user", `{"username":"ghost","password":"test_pass"}`},
		{"empty password", `{"username":"test_user","password":""}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			recorder := postLogin(t, handler, tc.body)
			if recorder.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", recorder.Code)
			}
		})
	}
}
