package models

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rickchristie/sqlagent"
	"github.com/tmc/langchaingo/llms/openai"
)

// GitHubModelsBaseURL is the OpenAI-compatible GitHub Models endpoint.
const GitHubModelsBaseURL = "https://models.github.ai/inference"

const githubAPIVersion = "2022-11-28"

// ErrMissingGitHubToken is returned when no token is configured for the
// GitHub Models provider.
var ErrMissingGitHubToken = errors.New(
	"github token is required: " +
		"create a fine-grained PAT with models:read " +
		"at https://github.com/settings/personal-access-tokens/new",
)

// githubClient is the HTTP client behind the GitHub Models provider. Besides
// the API version header it remembers whether the last response was a 429
// and what its Retry-After said, so the wrapper's error hook can hand the
// rate limiter a typed delay instead of scraping error text.
type githubClient struct {
	base http.RoundTripper
	now  func() time.Time

	mu         sync.Mutex
	throttled  bool
	retryAfter time.Duration
}

func newGitHubClient() *githubClient {
	return &githubClient{base: http.DefaultTransport, now: time.Now}
}

// Do implements the openai client's Doer.
func (c *githubClient) Do(req *http.Request) (*http.Response, error) {
	req.Header.Set("X-GitHub-Api-Version", githubAPIVersion)
	resp, err := c.base.RoundTrip(req)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.throttled, c.retryAfter = false, 0
	if err == nil && resp.StatusCode == http.StatusTooManyRequests {
		c.throttled = true
		c.retryAfter = parseRetryAfter(resp.Header.Get("Retry-After"), c.now())
	}
	return resp, err
}

// classify is the LCGWrapper error hook. A failure that followed a 429
// is always a rate limit, with the header's delay when it had one.
func (c *githubClient) classify(err error) error {
	c.mu.Lock()
	throttled, retryAfter := c.throttled, c.retryAfter
	c.mu.Unlock()

	if !throttled {
		return ClassifyError(err)
	}
	var rl *sqlagent.RateLimitError
	if errors.As(err, &rl) {
		return err
	}
	if retryAfter == 0 {
		retryAfter, _ = SuggestedDelay(err.Error())
	}
	return &sqlagent.RateLimitError{Err: err, RetryAfter: retryAfter}
}

// parseRetryAfter reads a Retry-After value: delay-seconds or an HTTP date.
// Anything else, or a date in the past, yields zero.
func parseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

// NewGitHubModel creates a Model backed by the GitHub Models API. The free
// tier is heavily rate limited; its 429 responses surface as
// *sqlagent.RateLimitError carrying the Retry-After delay, which
// RateLimited uses before falling back to backoff.
//
// The token must be a fine-grained GitHub Personal Access Token with the
// models:read permission. opts are applied last, so openai.WithBaseURL can
// point the client elsewhere.
//
//	model, err := models.NewGitHubModel(
//	    models.ModelGitHubGPT4oMini,
//	    os.Getenv("GITHUB_TOKEN"),
//	)
func NewGitHubModel(
	model string,
	token string,
	opts ...openai.Option,
) (*LCGWrapper, error) {
	if token == "" {
		return nil, ErrMissingGitHubToken
	}

	client := newGitHubClient()
	llm, err := openai.New(append([]openai.Option{
		openai.WithBaseURL(GitHubModelsBaseURL),
		openai.WithToken(token),
		openai.WithModel(model),
		openai.WithHTTPClient(client),
	}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", ProviderGitHub, err)
	}

	return NewLCGWrapper(llm).
		WithModelName(model).
		WithErrorClassifier(client.classify), nil
}
