// Package collector fetches current repository metadata from the GitHub
// API to refresh the catalog dataset.
package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/foldscape/foldscape/internal/errors"
	"github.com/foldscape/foldscape/internal/resilience"
	"github.com/foldscape/foldscape/internal/types"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://api.github.com"

// githubRepo is the subset of the GitHub repository payload we read.
type githubRepo struct {
	Name            string   `json:"name"`
	FullName        string   `json:"full_name"`
	Description     *string  `json:"description"`
	HTMLURL         string   `json:"html_url"`
	StargazersCount int      `json:"stargazers_count"`
	ForksCount      int      `json:"forks_count"`
	Language        *string  `json:"language"`
	Topics          []string `json:"topics"`
	PushedAt        *string  `json:"pushed_at"`
	CreatedAt       *string  `json:"created_at"`
	License         *struct {
		Name string `json:"name"`
	} `json:"license"`
}

// Metrics is the subset of monitoring the collector reports to.
type Metrics interface {
	IncrementGitHubCalls()
	RecordExternalAPIRequest(apiName string, success bool)
}

// Collector fetches repository metadata with rate limiting, retries, and
// a circuit breaker around the GitHub API.
type Collector struct {
	baseURL string
	token   string
	client  *http.Client
	limiter *rate.Limiter
	breaker *resilience.CircuitBreaker
	metrics Metrics
}

// Option configures a Collector.
type Option func(*Collector)

// WithBaseURL overrides the GitHub API base URL, used in tests.
func WithBaseURL(url string) Option {
	return func(c *Collector) { c.baseURL = strings.TrimSuffix(url, "/") }
}

// WithMetrics attaches a metrics sink.
func WithMetrics(metrics Metrics) Option {
	return func(c *Collector) { c.metrics = metrics }
}

// WithRequestsPerSecond overrides the API request rate.
func WithRequestsPerSecond(rps float64) Option {
	return func(c *Collector) { c.limiter = rate.NewLimiter(rate.Limit(rps), 1) }
}

// New creates a collector. An empty token works against the public API
// with much lower rate limits.
func New(token string, opts ...Option) *Collector {
	c := &Collector{
		baseURL: defaultBaseURL,
		token:   token,
		client:  &http.Client{Timeout: 15 * time.Second},
		// GitHub allows 5000 authenticated requests per hour; one per
		// second keeps a full refresh well under that.
		limiter: rate.NewLimiter(rate.Limit(1), 2),
		breaker: resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			FailureThreshold: 5,
			RecoveryTimeout:  30 * time.Second,
			SuccessThreshold: 3,
		}),
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchRepo fetches current metadata for one repository.
func (c *Collector) FetchRepo(ctx context.Context, owner, repo string) (*types.Metadata, error) {
	url := fmt.Sprintf("%s/repos/%s/%s", c.baseURL, owner, repo)

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var data githubRepo
	call := func() error {
		resp, err := resilience.RetryHTTP(ctx, resilience.DefaultRetryConfig(), func() (*http.Response, error) {
			if c.metrics != nil {
				c.metrics.IncrementGitHubCalls()
			}
			return c.doRequest(ctx, url)
		})
		if err != nil {
			if resp != nil {
				resp.Body.Close()
			}
			return errors.NewExternalAPIError("GitHub", err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return errors.NewNotFoundError("repo", owner+"/"+repo)
		case resp.StatusCode != http.StatusOK:
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return errors.NewExternalAPIError("GitHub",
				fmt.Errorf("status %d: %s", resp.StatusCode, string(body)))
		}

		if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
			return errors.NewExternalAPIError("GitHub", fmt.Errorf("decode repo payload: %w", err))
		}
		return nil
	}

	err := c.breaker.Call(call)
	if c.metrics != nil {
		c.metrics.RecordExternalAPIRequest("github", err == nil)
	}
	if err != nil {
		return nil, err
	}

	meta := &types.Metadata{
		Name:        data.Name,
		Description: data.Description,
		URL:         data.HTMLURL,
		Stars:       data.StargazersCount,
		Forks:       data.ForksCount,
		Language:    data.Language,
		Topics:      data.Topics,
		CreatedAt:   data.CreatedAt,
		LastUpdated: data.PushedAt,
	}
	if data.License != nil {
		meta.License = &data.License.Name
	}
	return meta, nil
}

// Refresh fetches current metadata for every record and returns an
// updated copy. Records whose fetch fails keep their previous metadata;
// the refresh only errors when the whole run is hopeless (context done or
// circuit open on the first call).
func (c *Collector) Refresh(ctx context.Context, records []types.Record) ([]types.Record, error) {
	out := make([]types.Record, len(records))
	var failed int

	for i, r := range records {
		out[i] = r

		owner, repo, ok := splitRepoID(r.RepoID)
		if !ok {
			slog.Warn("Skipping record with malformed repo id", "repo_id", r.RepoID)
			continue
		}

		meta, err := c.FetchRepo(ctx, owner, repo)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			failed++
			slog.Warn("Failed to refresh repo, keeping stale metadata",
				"repo_id", r.RepoID, "error", err)
			continue
		}

		out[i].Metadata = meta
	}

	slog.Info("Dataset refresh complete",
		"total", len(records),
		"failed", failed)

	if failed == len(records) && len(records) > 0 {
		return nil, errors.NewExternalAPIError("GitHub",
			fmt.Errorf("all %d repo fetches failed", failed))
	}
	return out, nil
}

func (c *Collector) doRequest(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", "FoldScape/1.0")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	return c.client.Do(req)
}

func splitRepoID(id string) (owner, repo string, ok bool) {
	parts := strings.Split(id, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
