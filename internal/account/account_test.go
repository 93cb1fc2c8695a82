package account

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jamalpur-chamber/chamber/internal/apiclient"
)

func newTestService(t *testing.T, h http.HandlerFunc) (*Service, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	return NewService(apiclient.New(srv.URL+"/api", 5*time.Second), 0, nil), &hits
}

func TestStrongPassword(t *testing.T) {
	tests := []struct {
		pw   string
		want bool
	}{
		{"Passw0rd", true},
		{"Abcdefg1", true},
		{"Abcdef1", false},
		{"password1", false},
		{"PASSWORD1", false},
		{"Password", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := StrongPassword(tt.pw); got != tt.want {
			t.Errorf("StrongPassword(%q) = %v, want %v", tt.pw, got, tt.want)
		}
	}
}

func TestResetValidation(t *testing.T) {
	s, hits := newTestService(t, func(w http.ResponseWriter, r *http.Request) {})
	tests := []struct {
		name string
		form ResetForm
		want string
	}{
		{"no token", ResetForm{Password: "Passw0rd", Confirm: "Passw0rd"}, MsgInvalidLink},
		{"empty password", ResetForm{Token: "t", Confirm: "Passw0rd"}, MsgMissingFields},
		{"empty confirm", ResetForm{Token: "t", Password: "Passw0rd"}, MsgMissingFields},
		{"mismatch", ResetForm{Token: "t", Password: "Passw0rd", Confirm: "Passw0rd!"}, MsgMismatch},
		{"weak mismatch reports mismatch", ResetForm{Token: "t", Password: "weak", Confirm: "other"}, MsgMismatch},
		{"weak", ResetForm{Token: "t", Password: "weakpass", Confirm: "weakpass"}, MsgWeakPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Reset(context.Background(), tt.form)
			if err == nil || err.Error() != tt.want {
				t.Fatalf("Reset err = %v, want %q", err, tt.want)
			}
			if !errors.Is(err, ErrValidation) {
				t.Errorf("err does not wrap ErrValidation")
			}
		})
	}
	if hits.Load() != 0 {
		t.Errorf("validation made %d requests", hits.Load())
	}
}

func TestResetSubmits(t *testing.T) {
	var body map[string]string
	s, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/reset-password" || r.Method != http.MethodPost {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&body)
		w.Write([]byte(`{"message":"Password reset"}`))
	})
	err := s.Reset(context.Background(), ResetForm{Token: "abc", Password: "Passw0rd", Confirm: "Passw0rd"})
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if body["token"] != "abc" || body["password"] != "Passw0rd" {
		t.Errorf("body = %v", body)
	}
}

func TestResetFailureMessages(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"server message", http.StatusBadRequest, `{"message":"Token expired"}`, "Token expired"},
		{"no message", http.StatusInternalServerError, `oops`, MsgResetFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			err := s.Reset(context.Background(), ResetForm{Token: "abc", Password: "Passw0rd", Confirm: "Passw0rd"})
			if err == nil || err.Error() != tt.want {
				t.Errorf("err = %v, want %q", err, tt.want)
			}
			var apiErr *apiclient.APIError
			if !errors.As(err, &apiErr) || apiErr.Status != tt.status {
				t.Errorf("err does not carry the API error: %v", err)
			}
		})
	}

	s := NewService(apiclient.New("http://127.0.0.1:1/api", time.Second), 0, nil)
	err := s.Reset(context.Background(), ResetForm{Token: "abc", Password: "Passw0rd", Confirm: "Passw0rd"})
	if err == nil || err.Error() != MsgResetFailed {
		t.Errorf("network failure err = %v", err)
	}
}

func TestVerifyToken(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		s, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			if r.URL.Path != "/api/auth/verify-reset-token" || body["token"] != "tok" {
				t.Errorf("%s %v", r.URL.Path, body)
			}
			w.Write([]byte(`{"valid":true}`))
		})
		if got := s.VerifyToken(context.Background(), "tok"); got != TokenValid {
			t.Errorf("status = %v", got)
		}
	})

	t.Run("rejected", func(t *testing.T) {
		s, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"message":"Invalid or expired reset token"}`))
		})
		if got := s.VerifyToken(context.Background(), "tok"); got != TokenInvalid {
			t.Errorf("status = %v", got)
		}
	})

	t.Run("timeout is unknown", func(t *testing.T) {
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer srv.Close()
		defer close(release)

		s := NewService(apiclient.New(srv.URL, 5*time.Second), 20*time.Millisecond, nil)
		start := time.Now()
		if got := s.VerifyToken(context.Background(), "tok"); got != TokenUnknown {
			t.Errorf("status = %v", got)
		}
		if time.Since(start) > 2*time.Second {
			t.Error("verify did not honour its timeout")
		}
	})

	t.Run("empty token", func(t *testing.T) {
		s, hits := newTestService(t, func(w http.ResponseWriter, r *http.Request) {})
		if got := s.VerifyToken(context.Background(), ""); got != TokenInvalid || hits.Load() != 0 {
			t.Errorf("status = %v hits = %d", got, hits.Load())
		}
	})
}

func TestVerifyAsyncDoesNotBlockReset(t *testing.T) {
	verifyStarted := make(chan struct{})
	release := make(chan struct{})
	s, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/auth/verify-reset-token" {
			close(verifyStarted)
			<-release
			return
		}
		w.Write([]byte(`{}`))
	})

	ch := s.VerifyAsync(context.Background(), "tok")
	<-verifyStarted
	if err := s.Reset(context.Background(), ResetForm{Token: "tok", Password: "Passw0rd", Confirm: "Passw0rd"}); err != nil {
		t.Fatalf("Reset while verifying: %v", err)
	}
	close(release)
	if got := <-ch; got != TokenValid {
		t.Errorf("status = %v", got)
	}
	if _, ok := <-ch; ok {
		t.Error("channel not closed")
	}
}

func TestForgotPassword(t *testing.T) {
	s, hits := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message":"Reset link sent"}`))
	})
	if _, err := s.ForgotPassword(context.Background(), "not-an-email"); !errors.Is(err, ErrValidation) {
		t.Errorf("err = %v", err)
	}
	if hits.Load() != 0 {
		t.Error("invalid email was sent")
	}
	msg, err := s.ForgotPassword(context.Background(), "member@example.com")
	if err != nil || msg != "Reset link sent" {
		t.Errorf("ForgotPassword = %q, %v", msg, err)
	}
}
