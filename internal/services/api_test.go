package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	tu "github.com/desertthunder/nbx/internal/testing"
)

// recordedRequest is what the echo server saw.
type recordedRequest struct {
	Method      string
	Path        string
	ContentType string
	Auth        string
	RequestID   string
	Body        string
}

// newEchoServer answers every request with status and body and records the request it received.
func newEchoServer(t *testing.T, status int, body string) (*httptest.Server, *recordedRequest) {
	t.Helper()

	seen := &recordedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		*seen = recordedRequest{
			Method:      r.Method,
			Path:        r.URL.Path,
			ContentType: r.Header.Get("Content-Type"),
			Auth:        r.Header.Get("Authorization"),
			RequestID:   r.Header.Get("X-Request-ID"),
			Body:        string(raw),
		}
		w.Header().Set("X-Platform-Version", "1.4.0")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, seen
}

func TestAPIService(t *testing.T) {
	ctx := context.Background()

	t.Run("New", func(t *testing.T) {
		t.Run("Trims BaseURL", func(t *testing.T) {
			srv := NewAPIService(APIOpts{BaseURL: "http://notebooks.local/api/"})
			if srv.baseURL != "http://notebooks.local/api" {
				t.Errorf("expected trailing slash trimmed, got %s", srv.baseURL)
			}
		})

		t.Run("Defaults BaseURL", func(t *testing.T) {
			if srv := NewAPIService(APIOpts{}); srv.baseURL != defaultBaseURL {
				t.Errorf("expected default baseURL %s, got %s", defaultBaseURL, srv.baseURL)
			}
		})

		t.Run("Keeps Caller Client", func(t *testing.T) {
			client := &http.Client{}
			if srv := NewAPIService(APIOpts{HTTPClient: client}); srv.httpClient != client {
				t.Error("expected custom client to be used")
			}
		})

		t.Run("Uses Provided Jar", func(t *testing.T) {
			jar, _ := cookiejar.New(nil)
			srv := NewAPIService(APIOpts{Jar: jar})
			if srv.httpClient.Jar != jar {
				t.Error("expected the provided jar on the default client")
			}
		})

		t.Run("Falls Back To Memory Jar", func(t *testing.T) {
			if srv := NewAPIService(APIOpts{}); srv.httpClient.Jar == nil {
				t.Error("expected a cookie jar on the default client")
			}
		})

		t.Run("Applies Timeout", func(t *testing.T) {
			srv := NewAPIService(APIOpts{Timeout: 3 * time.Second})
			if srv.httpClient.Timeout != 3*time.Second {
				t.Errorf("expected 3s timeout, got %v", srv.httpClient.Timeout)
			}
		})

		t.Run("Limiter Only With Rate", func(t *testing.T) {
			if NewAPIService(APIOpts{}).limiter != nil {
				t.Error("expected no limiter without rate limit")
			}
			if NewAPIService(APIOpts{RateLimit: 2}).limiter == nil {
				t.Error("expected limiter with rate limit")
			}
		})
	})

	t.Run("Headers", func(t *testing.T) {
		t.Run("Request ID On Every Call", func(t *testing.T) {
			server, seen := newEchoServer(t, http.StatusOK, "{}")
			srv := NewAPIService(APIOpts{BaseURL: server.URL})

			if _, err := srv.Get(ctx, "/auth/me"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			first := seen.RequestID

			if _, err := srv.Get(ctx, "/auth/me"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if first == "" || seen.RequestID == "" || first == seen.RequestID {
				t.Errorf("expected distinct request ids, got %q and %q", first, seen.RequestID)
			}
		})

		t.Run("Bearer Token", func(t *testing.T) {
			server, seen := newEchoServer(t, http.StatusOK, "{}")
			srv := NewAPIService(APIOpts{BaseURL: server.URL, Token: "secret"})

			if _, err := srv.Get(ctx, "/auth/me"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if seen.Auth != "Bearer secret" {
				t.Errorf("expected bearer token, got %q", seen.Auth)
			}
		})

		t.Run("No Token No Authorization", func(t *testing.T) {
			server, seen := newEchoServer(t, http.StatusOK, "{}")
			srv := NewAPIService(APIOpts{BaseURL: server.URL})

			if _, err := srv.Get(ctx, "/auth/me"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if seen.Auth != "" {
				t.Errorf("expected no authorization header, got %q", seen.Auth)
			}
		})

		t.Run("Token Does Not Mutate Caller Client", func(t *testing.T) {
			client := &http.Client{}
			srv := NewAPIService(APIOpts{Token: "secret", HTTPClient: client})

			if client.Transport != nil {
				t.Error("expected caller client to be left untouched")
			}
			if srv.httpClient == client {
				t.Error("expected a wrapped copy of the client")
			}
		})
	})

	t.Run("Requests", func(t *testing.T) {
		t.Run("Get", func(t *testing.T) {
			server, seen := newEchoServer(t, http.StatusOK, `{"auth_enabled": true}`)
			srv := NewAPIService(APIOpts{BaseURL: server.URL})

			resp, err := srv.Get(ctx, "/auth/status")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if seen.Method != http.MethodGet || seen.Path != "/auth/status" {
				t.Errorf("unexpected request %s %s", seen.Method, seen.Path)
			}
			if seen.ContentType != "" {
				t.Errorf("expected no content type on GET, got %q", seen.ContentType)
			}
			if !resp.OK() || !resp.IsJSON {
				t.Errorf("expected OK JSON response, got %d json=%v", resp.StatusCode, resp.IsJSON)
			}
			if resp.Headers.Get("X-Platform-Version") != "1.4.0" {
				t.Error("expected response headers to be preserved")
			}

			var status struct {
				AuthEnabled bool `json:"auth_enabled"`
			}
			if err := resp.Decode(&status); err != nil || !status.AuthEnabled {
				t.Errorf("expected auth_enabled true, got %+v, %v", status, err)
			}
		})

		t.Run("Post", func(t *testing.T) {
			server, seen := newEchoServer(t, http.StatusCreated, "created")
			srv := NewAPIService(APIOpts{BaseURL: server.URL})

			resp, err := srv.Post(ctx, "/auth/login", []byte(`{"username":"ada"}`))
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if seen.Method != http.MethodPost || seen.ContentType != "application/json" {
				t.Errorf("unexpected request %s with content type %q", seen.Method, seen.ContentType)
			}
			if seen.Body != `{"username":"ada"}` {
				t.Errorf("unexpected body %s", seen.Body)
			}
			if resp.IsJSON || resp.JSONData != nil {
				t.Error("expected plain text response not to be JSON")
			}
			if string(resp.Body) != "created" {
				t.Errorf("expected body 'created', got %s", resp.Body)
			}
		})

		t.Run("PostJSON", func(t *testing.T) {
			server, seen := newEchoServer(t, http.StatusAccepted, `{"job_id":"j1"}`)
			srv := NewAPIService(APIOpts{BaseURL: server.URL})

			resp, err := srv.PostJSON(ctx, "/notebooks/nb/quizzes", QuizParams{NumQuestions: 5})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if seen.Body != `{"num_questions":5}` {
				t.Errorf("unexpected body %s", seen.Body)
			}

			data, ok := resp.JSONData.(map[string]any)
			if !ok || data["job_id"] != "j1" {
				t.Errorf("expected job_id j1 in JSONData, got %v", resp.JSONData)
			}
		})

		t.Run("PostJSON Unencodable", func(t *testing.T) {
			srv := NewAPIService(APIOpts{})
			if _, err := srv.PostJSON(ctx, "/x", make(chan int)); err == nil {
				t.Error("expected encode error")
			}
		})

		t.Run("Decode Error", func(t *testing.T) {
			resp := &APIResponse{Body: []byte("not json")}
			var v map[string]any
			if err := resp.Decode(&v); err == nil || !strings.Contains(err.Error(), "failed to decode response") {
				t.Errorf("expected decode error, got %v", err)
			}
		})
	})

	t.Run("Failures", func(t *testing.T) {
		canceled, cancel := context.WithCancel(ctx)
		cancel()

		tests := []struct {
			name   string
			ctx    context.Context
			path   string
			client *http.Client
			want   string
		}{
			{
				name: "invalid path",
				ctx:  ctx,
				path: "/test\x00invalid",
				want: "failed to create request",
			},
			{
				name:   "transport error",
				ctx:    ctx,
				path:   "/auth/me",
				client: &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused"))},
				want:   "request failed",
			},
			{
				name: "unreadable body",
				ctx:  ctx,
				path: "/auth/me",
				client: &http.Client{Transport: tu.NewMockRoundTripper(&http.Response{
					StatusCode: http.StatusOK,
					Body:       &tu.FCloser{},
					Header:     http.Header{},
				}, nil)},
				want: "failed to read response",
			},
			{
				name:   "canceled context",
				ctx:    canceled,
				path:   "/auth/me",
				client: &http.Client{Transport: tu.NewMockRoundTripper(nil, context.Canceled)},
				want:   "request failed",
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				srv := NewAPIService(APIOpts{BaseURL: "http://notebooks.local", HTTPClient: tt.client})

				for method, call := range map[string]func() (*APIResponse, error){
					http.MethodGet:  func() (*APIResponse, error) { return srv.Get(tt.ctx, tt.path) },
					http.MethodPost: func() (*APIResponse, error) { return srv.Post(tt.ctx, tt.path, []byte("{}")) },
				} {
					_, err := call()
					if err == nil || !strings.Contains(err.Error(), tt.want) {
						t.Errorf("%s: expected %q error, got %v", method, tt.want, err)
					}
				}
			})
		}

		t.Run("Limiter Honors Context", func(t *testing.T) {
			server, _ := newEchoServer(t, http.StatusOK, "{}")
			srv := NewAPIService(APIOpts{BaseURL: server.URL, RateLimit: 0.001})

			if _, err := srv.Get(ctx, "/auth/me"); err != nil {
				t.Fatalf("expected first request to pass, got %v", err)
			}

			short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
			defer cancel()
			if _, err := srv.Get(short, "/auth/me"); err == nil {
				t.Error("expected the limiter wait to fail with the context")
			}
		})
	})
}

func TestAPIResponseJSON(t *testing.T) {
	server, _ := newEchoServer(t, http.StatusOK, `{"valid": "json"}`)
	resp, err := NewAPIService(APIOpts{BaseURL: server.URL}).Get(context.Background(), "/")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	var decoded map[string]string
	if err := json.Unmarshal(resp.Body, &decoded); err != nil || decoded["valid"] != "json" {
		t.Errorf("expected raw body to be kept, got %s", resp.Body)
	}
}
