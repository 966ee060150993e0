package validate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ljpjt/tortbench/internal/client"
	"github.com/ljpjt/tortbench/internal/model"
)

func newValidator(t *testing.T, handler http.HandlerFunc) *TokenValidator {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := model.DefaultConfig()
	cfg.API.BaseURL = server.URL
	cfg.API.Key = "test-key"
	cfg.RateLimiting.RequestsPerSecond = 0

	return NewTokenValidator(client.New(cfg), nil)
}

func TestTokenValidator_Check_Request(t *testing.T) {
	var got checkRequest
	v := newValidator(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/"+client.EndpointTokenValidator {
			t.Errorf("Expected token validator path, got %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"is_valid": true, "exceeded_revision_limit": false}`))
	})

	verdict, err := v.Check(context.Background(), "teamA", "tok-1", true)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if !verdict.IsValid || verdict.QuotaExceeded {
		t.Errorf("Unexpected verdict: %+v", verdict)
	}
	if got.Team != "teamA" || got.Token != "tok-1" || !got.IsFirst {
		t.Errorf("Unexpected request: %+v", got)
	}
}

func TestTokenValidator_Check_QuotaExceeded(t *testing.T) {
	v := newValidator(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"is_valid": false, "exceeded_revision_limit": true}`))
	})

	verdict, err := v.Check(context.Background(), "teamA", "tok-1", false)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if verdict.IsValid || !verdict.QuotaExceeded {
		t.Errorf("Unexpected verdict: %+v", verdict)
	}
}

func TestTokenValidator_Check_FallsBackToNotValid(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "unauthorized with verdict body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"is_valid": true, "exceeded_revision_limit": true}`))
			},
		},
		{
			name: "not json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("pending"))
			},
		},
		{
			name: "empty body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict, err := newValidator(t, tt.handler).Check(context.Background(), "teamA", "tok", false)
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if verdict != (Verdict{}) {
				t.Errorf("Expected zero verdict, got %+v", verdict)
			}
		})
	}
}

func TestTokenValidator_Check_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	cfg := model.DefaultConfig()
	cfg.API.BaseURL = url
	cfg.API.Key = "k"
	v := NewTokenValidator(client.New(cfg), nil)

	_, err := v.Check(context.Background(), "teamA", "tok", true)
	var netErr *client.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("Expected NetworkError, got %v", err)
	}
}
