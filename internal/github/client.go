// Package github is a small typed client for the parts of the GitHub REST
// API the merge agent needs: pull request reads, approving reviews, merges,
// issue comments and branch lookups.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// githubAPIVersion pins the REST API version header.
const githubAPIVersion = "2022-11-28"

const (
	defaultBaseURL   = "https://api.github.com"
	defaultUserAgent = "SecureSECOPullRequestMerger"

	// maxResponseSize bounds every response body read.
	maxResponseSize = 10 << 20
)

// Config holds configuration for creating a Client.
type Config struct {
	// BaseURL is the root URL for API requests. Must use HTTPS.
	BaseURL string

	// Token is a personal access token or fine-grained token.
	Token string

	UserAgent string

	// HTTPClient defaults to a client with a 30 second timeout.
	HTTPClient *http.Client

	Logger *log.Logger
}

// Client is a token-authenticated GitHub REST client with rate limit
// tracking and structured error handling.
type Client struct {
	baseURL    string
	token      string
	userAgent  string
	httpClient *http.Client
	rateLimit  *rateLimitTracker
	logger     *log.Logger
}

// NewClient creates a Client from the given configuration.
func NewClient(cfg Config) (*Client, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	if !strings.HasPrefix(baseURL, "https://") {
		return nil, fmt.Errorf("github: API client requires HTTPS (got %q)", baseURL)
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("github: no authentication configured (set Token)")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	return &Client{
		baseURL:    baseURL,
		token:      cfg.Token,
		userAgent:  userAgent,
		httpClient: httpClient,
		rateLimit:  newRateLimitTracker(),
		logger:     logger,
	}, nil
}

// repoPath builds "/repos/{owner}/{repo}" followed by the escaped extra segments.
func repoPath(owner, repo string, segments ...string) string {
	var builder strings.Builder
	builder.WriteString("/repos/")
	builder.WriteString(url.PathEscape(owner))
	builder.WriteString("/")
	builder.WriteString(url.PathEscape(repo))
	for _, segment := range segments {
		builder.WriteString("/")
		builder.WriteString(url.PathEscape(segment))
	}
	return builder.String()
}

// do executes an authenticated request and returns the raw response body.
// Non-2xx responses become *APIError. A rate limited response is retried
// once after the advertised backoff.
func (c *Client) do(ctx context.Context, method, path string, requestBody any) ([]byte, error) {
	return c.doWithRetry(ctx, method, path, requestBody, false)
}

func (c *Client) doWithRetry(ctx context.Context, method, path string, requestBody any, isRetry bool) ([]byte, error) {
	if err := c.rateLimit.wait(ctx); err != nil {
		return nil, err
	}

	var bodyReader io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return nil, fmt.Errorf("github: encoding request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("github: creating request: %w", err)
	}
	request.Header.Set("Authorization", "Bearer "+c.token)
	request.Header.Set("Accept", "application/vnd.github+json")
	request.Header.Set("X-GitHub-Api-Version", githubAPIVersion)
	request.Header.Set("User-Agent", c.userAgent)
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("github: %s %s: %w", method, path, err)
	}
	defer response.Body.Close()

	c.rateLimit.update(response.Header)

	body, err := io.ReadAll(io.LimitReader(response.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("github: reading response body: %w", err)
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		if !isRetry && (response.StatusCode == http.StatusTooManyRequests ||
			(response.StatusCode == http.StatusForbidden && isRateLimitMessage(string(body)))) {
			if backoff := c.rateLimit.retryAfter(response.Header); backoff > 0 {
				c.logger.Printf("GitHub rate limit hit on %s %s, backing off %s", method, path, backoff)
				select {
				case <-c.rateLimit.after(backoff):
				case <-ctx.Done():
					return nil, ctx.Err()
				}
				return c.doWithRetry(ctx, method, path, requestBody, true)
			}
		}
		return nil, parseAPIErrorFromBody(response.StatusCode, body)
	}

	return body, nil
}

func (c *Client) get(ctx context.Context, path string, result any) error {
	body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("github: decoding response: %w", err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, requestBody, result any) error {
	body, err := c.do(ctx, method, path, requestBody)
	if err != nil {
		return err
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("github: decoding response: %w", err)
	}
	return nil
}

func parseAPIErrorFromBody(statusCode int, body []byte) *APIError {
	apiError := &APIError{StatusCode: statusCode}

	var wireError struct {
		Message          string            `json:"message"`
		DocumentationURL string            `json:"documentation_url"`
		Errors           []ValidationError `json:"errors"`
	}
	if json.Unmarshal(body, &wireError) == nil && wireError.Message != "" {
		apiError.Message = wireError.Message
		apiError.DocumentationURL = wireError.DocumentationURL
		apiError.Errors = wireError.Errors
	} else {
		apiError.Message = string(body)
	}
	return apiError
}
