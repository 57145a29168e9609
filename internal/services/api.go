// API service for making raw HTTP requests to the platform API
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/nbx/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "http://127.0.0.1:5055/api"

// APIService performs raw HTTP requests against the platform API.
//
// Requests are paced by an optional [rate.Limiter] and tagged with an X-Request-ID header.
type APIService struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
}

// APIOpts contains configuration options for creating an [APIService].
type APIOpts struct {
	BaseURL    string
	Token      string         // Static bearer token; empty relies on session cookies
	RateLimit  float64        // Requests per second; zero disables pacing
	Timeout    time.Duration  // Client timeout when HTTPClient is nil
	Jar        http.CookieJar // Cookie jar when HTTPClient is nil; defaults to an in-memory jar
	HTTPClient *http.Client
	Logger     *log.Logger
}

// NewAPIService creates a new API service instance for the platform API.
//
// A nil HTTPClient gets a fresh client with a cookie jar so login sessions survive across calls.
func NewAPIService(opts APIOpts) *APIService {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}

	client := opts.HTTPClient
	if client == nil {
		jar := opts.Jar
		if jar == nil {
			jar, _ = cookiejar.New(nil)
		}
		client = &http.Client{Jar: jar, Timeout: opts.Timeout}
	}

	if opts.Token != "" {
		base := client.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		wrapped := *client
		wrapped.Transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token, TokenType: "Bearer"}),
			Base:   base,
		}
		client = &wrapped
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}

	return &APIService{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: client,
		limiter:    limiter,
		logger:     opts.Logger,
	}
}

// NewAPIServiceFromConfig builds an [APIService] from the [shared.APIConfig] section.
//
// jar may be nil for a session that lives only as long as the process.
func NewAPIServiceFromConfig(cfg shared.APIConfig, jar http.CookieJar, logger *log.Logger) *APIService {
	return NewAPIService(APIOpts{
		BaseURL:   cfg.BaseURL,
		Token:     cfg.Token,
		RateLimit: cfg.RateLimit,
		Timeout:   cfg.Timeout,
		Jar:       jar,
		Logger:    logger,
	})
}

// SetLogger replaces the logger used for request tracing.
func (a *APIService) SetLogger(logger *log.Logger) {
	a.logger = logger
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// OK reports whether the response has a 2xx status.
func (r *APIResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Decode unmarshals the response body into v.
func (r *APIResponse) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Get performs a GET request to the specified path and returns the raw response.
func (a *APIService) Get(ctx context.Context, path string) (*APIResponse, error) {
	return a.do(ctx, http.MethodGet, path, nil)
}

// Post performs a POST request with the given JSON data and returns the raw response.
func (a *APIService) Post(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	return a.do(ctx, http.MethodPost, path, data)
}

// PostJSON marshals body and posts it to path.
func (a *APIService) PostJSON(ctx context.Context, path string, body any) (*APIResponse, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	return a.Post(ctx, path, data)
}

func (a *APIService) do(ctx context.Context, method, path string, data []byte) (*APIResponse, error) {
	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("request failed: %w", err)
		}
	}

	var body io.Reader
	if data != nil {
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := shared.GenerateID()
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("Accept", "application/json")
	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	a.logger.Debug("api request", "method", method, "path", path, "status", resp.StatusCode, "request_id", requestID)

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       raw,
	}

	var jsonData any
	if err := json.Unmarshal(raw, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}
