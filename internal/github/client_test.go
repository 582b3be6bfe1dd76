package github

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewTLSServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{
		BaseURL:    server.URL,
		Token:      "test-token",
		HTTPClient: server.Client(),
	})
	require.NoError(t, err)

	// Tests never sleep on backoff.
	client.rateLimit.after = func(time.Duration) <-chan time.Time {
		ch := make(chan time.Time, 1)
		ch <- time.Now()
		return ch
	}
	return client
}

func TestNewClient_HTTPSEnforcement(t *testing.T) {
	_, err := NewClient(Config{BaseURL: "http://api.github.com", Token: "x"})
	require.Error(t, err)
	assert.Equal(t, `github: API client requires HTTPS (got "http://api.github.com")`, err.Error())

	_, err = NewClient(Config{BaseURL: "https://api.github.com"})
	assert.Error(t, err, "token is required")
}

func TestClient_StandardHeaders(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/vnd.github+json", r.Header.Get("Accept"))
		assert.Equal(t, githubAPIVersion, r.Header.Get("X-GitHub-Api-Version"))
		assert.Equal(t, "SecureSECOPullRequestMerger", r.Header.Get("User-Agent"))
		w.Write([]byte(`{"number":1}`))
	})

	_, err := client.GetPullRequest(context.Background(), "acme", "widgets", "1")
	require.NoError(t, err)
}

func TestGetPullRequest(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/repos/acme/widgets/pulls/42", r.URL.Path)
		w.Write([]byte(`{
			"number": 42,
			"mergeable": true,
			"mergeable_state": "clean",
			"head": {"ref": "feature", "sha": "abc123", "repo": {"full_name": "acme/widgets"}}
		}`))
	})

	pr, err := client.GetPullRequest(context.Background(), "acme", "widgets", "42")
	require.NoError(t, err)
	require.NotNil(t, pr.Mergeable)
	assert.True(t, *pr.Mergeable)
	assert.Equal(t, "clean", pr.MergeableState)
	assert.Equal(t, "abc123", pr.Head.SHA)
	assert.Equal(t, "acme/widgets", pr.Head.Repo.FullName)
}

func TestGetPullRequest_MergeableUnknown(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"number": 7, "mergeable": null, "mergeable_state": "unknown"}`))
	})

	pr, err := client.GetPullRequest(context.Background(), "acme", "widgets", "7")
	require.NoError(t, err)
	assert.Nil(t, pr.Mergeable)
}

func TestMergePullRequest_SendsPinnedSHA(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/repos/acme/widgets/pulls/42/merge", r.URL.Path)

		var body MergePullRequestRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "abc123", body.SHA)
		assert.Equal(t, MergeMethodSquash, body.MergeMethod)

		w.Write([]byte(`{"sha":"def456","merged":true,"message":"Pull Request successfully merged"}`))
	})

	result, err := client.MergePullRequest(context.Background(), "acme", "widgets", "42",
		MergePullRequestRequest{SHA: "abc123", MergeMethod: MergeMethodSquash})
	require.NoError(t, err)
	assert.True(t, result.Merged)
}

func TestMergePullRequest_HeadMoved(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"message":"Head branch was modified. Review and try the merge again."}`))
	})

	_, err := client.MergePullRequest(context.Background(), "acme", "widgets", "42", MergePullRequestRequest{SHA: "abc"})
	require.Error(t, err)
	assert.True(t, IsConflict(err))
	assert.Contains(t, err.Error(), "merging PR acme/widgets#42")
	assert.Contains(t, err.Error(), "Head branch was modified")
}

func TestCreateReview(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/repos/acme/widgets/pulls/42/reviews", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"event":"APPROVE"}`, string(body))
		w.Write([]byte(`{"id": 1, "state": "APPROVED"}`))
	})

	review, err := client.CreateReview(context.Background(), "acme", "widgets", "42",
		CreateReviewRequest{Event: ReviewEventApprove})
	require.NoError(t, err)
	assert.Equal(t, ReviewStateApproved, review.State)
}

func TestCreateIssueComment(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/acme/widgets/issues/42/comments", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "hello", body["body"])
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id": 9, "body": "hello"}`))
	})

	comment, err := client.CreateIssueComment(context.Background(), "acme", "widgets", "42", "hello")
	require.NoError(t, err)
	assert.Equal(t, int64(9), comment.ID)
}

func TestGetBranch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/acme/widgets/branches/main", r.URL.Path)
		w.Write([]byte(`{"name":"main","commit":{"sha":"abc123"}}`))
	})

	branch, err := client.GetBranch(context.Background(), "acme", "widgets", "main")
	require.NoError(t, err)
	assert.Equal(t, "abc123", branch.Commit.SHA)
}

func TestGetBranch_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"Branch not found","documentation_url":"https://docs.github.com"}`))
	})

	_, err := client.GetBranch(context.Background(), "acme", "widgets", "nope")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Branch not found", apiErr.Message)
}

func TestClient_RetriesOnceWhenRateLimited(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"message":"You have exceeded a secondary rate limit"}`))
			return
		}
		w.Write([]byte(`{"number": 42}`))
	})

	pr, err := client.GetPullRequest(context.Background(), "acme", "widgets", "42")
	require.NoError(t, err)
	assert.Equal(t, 42, pr.Number)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_PersistentRateLimitGivesUp(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Retry-After", "1")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message":"API rate limit exceeded"}`))
	})

	_, err := client.GetPullRequest(context.Background(), "acme", "widgets", "42")
	require.Error(t, err)
	assert.True(t, IsRateLimited(err))
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_PlainForbiddenIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Retry-After", "1")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message":"Resource not accessible by integration"}`))
	})

	_, err := client.CreateReview(context.Background(), "acme", "widgets", "42", CreateReviewRequest{Event: ReviewEventApprove})
	require.Error(t, err)
	assert.False(t, IsRateLimited(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestAPIError_ValidationDetails(t *testing.T) {
	err := parseAPIErrorFromBody(422, []byte(`{"message":"Validation Failed","errors":[{"resource":"PullRequestReview","field":"event","code":"invalid"}]}`))
	assert.Equal(t, "github: HTTP 422: Validation Failed; PullRequestReview.event: invalid", err.Error())

	raw := parseAPIErrorFromBody(502, []byte("bad gateway"))
	assert.Equal(t, "github: HTTP 502: bad gateway", raw.Error())
}

func TestRateLimitTracker(t *testing.T) {
	tracker := newRateLimitTracker()
	now := time.Unix(1_700_000_000, 0)
	tracker.now = func() time.Time { return now }

	header := http.Header{}
	header.Set("X-RateLimit-Remaining", "0")
	header.Set("X-RateLimit-Reset", "1700000030")
	tracker.update(header)

	assert.Equal(t, 30*time.Second, tracker.retryAfter(header))

	header.Set("Retry-After", "5")
	assert.Equal(t, 5*time.Second, tracker.retryAfter(header))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	tracker.after = func(time.Duration) <-chan time.Time { return nil }
	assert.ErrorIs(t, tracker.wait(ctx), context.Canceled)
}
