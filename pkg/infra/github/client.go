package github

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v75/github"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/time/rate"

	"github.com/m-mizutani/dorameter/pkg/domain/interfaces"
	"github.com/m-mizutani/dorameter/pkg/domain/model"
)

const (
	perPage             = 100
	defaultMaxPages     = 10
	defaultMaxRetries   = 3
	defaultBackoff      = time.Second
	defaultRequestRate  = 5
	maxRateLimitWaiting = time.Minute
)

type client struct {
	gh         *github.Client
	limiter    *rate.Limiter
	maxRetries int
	backoff    time.Duration
	maxPages   int
}

type config struct {
	token          string
	appID          int64
	installationID int64
	privateKey     []byte
	baseURL        string
	transport      http.RoundTripper
	rps            float64
	maxRetries     int
	backoff        time.Duration
	maxPages       int
}

// Option configures the GitHub client
type Option func(*config)

// WithToken authenticates with a personal access token
func WithToken(token string) Option {
	return func(c *config) {
		c.token = token
	}
}

// WithAppAuth authenticates as a GitHub App installation
func WithAppAuth(appID, installationID int64, privateKey []byte) Option {
	return func(c *config) {
		c.appID = appID
		c.installationID = installationID
		c.privateKey = privateKey
	}
}

// WithBaseURL points the client to a GitHub Enterprise or test server
func WithBaseURL(baseURL string) Option {
	return func(c *config) {
		c.baseURL = baseURL
	}
}

// WithTransport replaces http.DefaultTransport
func WithTransport(rt http.RoundTripper) Option {
	return func(c *config) {
		c.transport = rt
	}
}

// WithRequestRate limits API calls to rps requests per second
func WithRequestRate(rps float64) Option {
	return func(c *config) {
		c.rps = rps
	}
}

// WithRetry sets how often transient failures are retried and the initial backoff
func WithRetry(maxRetries int, backoff time.Duration) Option {
	return func(c *config) {
		c.maxRetries = maxRetries
		c.backoff = backoff
	}
}

// WithMaxPages caps pagination per listing call
func WithMaxPages(n int) Option {
	return func(c *config) {
		c.maxPages = n
	}
}

// NewClient creates a GitHub client. App authentication is used when an app ID is set,
// otherwise the token (if any) is sent as a bearer token.
func NewClient(opts ...Option) (interfaces.GitHubClient, error) {
	cfg := config{
		transport:  http.DefaultTransport,
		rps:        defaultRequestRate,
		maxRetries: defaultMaxRetries,
		backoff:    defaultBackoff,
		maxPages:   defaultMaxPages,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	httpClient := &http.Client{Transport: cfg.transport}
	if cfg.appID != 0 {
		itr, err := ghinstallation.New(cfg.transport, cfg.appID, cfg.installationID, cfg.privateKey)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create GitHub App transport",
				goerr.V("app_id", cfg.appID),
				goerr.V("installation_id", cfg.installationID))
		}
		if cfg.baseURL != "" {
			itr.BaseURL = strings.TrimSuffix(cfg.baseURL, "/")
		}
		httpClient.Transport = itr
	}

	gh := github.NewClient(httpClient)
	if cfg.token != "" && cfg.appID == 0 {
		gh = gh.WithAuthToken(cfg.token)
	}
	if cfg.baseURL != "" {
		u, err := url.Parse(strings.TrimSuffix(cfg.baseURL, "/") + "/")
		if err != nil {
			return nil, goerr.Wrap(err, "invalid GitHub base URL", goerr.V("base_url", cfg.baseURL))
		}
		gh.BaseURL = u
	}

	limit := rate.Inf
	if cfg.rps > 0 {
		limit = rate.Limit(cfg.rps)
	}

	return &client{
		gh:         gh,
		limiter:    rate.NewLimiter(limit, max(1, int(cfg.rps))),
		maxRetries: max(0, cfg.maxRetries),
		backoff:    cfg.backoff,
		maxPages:   max(1, cfg.maxPages),
	}, nil
}

// ListReleases returns non-draft releases with their environment classified from the tag
func (c *client) ListReleases(ctx context.Context, owner, repo string) ([]*model.Release, error) {
	fullName := owner + "/" + repo
	var releases []*model.Release

	opt := &github.ListOptions{PerPage: perPage}
	for page := 0; page < c.maxPages; page++ {
		var items []*github.RepositoryRelease
		var resp *github.Response
		err := c.call(ctx, "ListReleases", func() (*github.Response, error) {
			var err error
			items, resp, err = c.gh.Repositories.ListReleases(ctx, owner, repo, opt)
			return resp, err
		})
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list releases", goerr.V("repository", fullName), goerr.V("page", opt.Page))
		}

		for _, item := range items {
			if item.GetDraft() {
				continue
			}
			releases = append(releases, toRelease(fullName, item))
		}

		if resp.NextPage == 0 {
			break
		}
		opt.Page = resp.NextPage
	}

	return releases, nil
}

// ListMergedPullRequests walks closed pull requests by last update, newest first, and stops
// once it reaches ones not updated since the given time.
func (c *client) ListMergedPullRequests(ctx context.Context, owner, repo string, since time.Time) ([]*model.MergedChange, error) {
	fullName := owner + "/" + repo
	var changes []*model.MergedChange

	opt := &github.PullRequestListOptions{
		State:       "closed",
		Sort:        "updated",
		Direction:   "desc",
		ListOptions: github.ListOptions{PerPage: perPage},
	}

	for page := 0; page < c.maxPages; page++ {
		var items []*github.PullRequest
		var resp *github.Response
		err := c.call(ctx, "ListPullRequests", func() (*github.Response, error) {
			var err error
			items, resp, err = c.gh.PullRequests.List(ctx, owner, repo, opt)
			return resp, err
		})
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list pull requests", goerr.V("repository", fullName), goerr.V("page", opt.ListOptions.Page))
		}

		reachedEnd := false
		for _, pr := range items {
			if pr.UpdatedAt != nil && pr.GetUpdatedAt().Before(since) {
				reachedEnd = true
				break
			}
			if pr.MergedAt == nil || pr.GetMergedAt().Before(since) {
				continue
			}
			changes = append(changes, toMergedChange(fullName, pr))
		}

		if reachedEnd || resp.NextPage == 0 {
			break
		}
		opt.ListOptions.Page = resp.NextPage
	}

	return changes, nil
}

func toRelease(fullName string, r *github.RepositoryRelease) *model.Release {
	release := &model.Release{
		TagName:      r.GetTagName(),
		Repository:   fullName,
		CommitSHA:    r.GetTargetCommitish(),
		IsPrerelease: r.GetPrerelease(),
	}
	release.Environment = model.ClassifyEnvironment(release.TagName, release.IsPrerelease)

	if r.PublishedAt != nil {
		t := r.GetPublishedAt().UTC()
		release.PublishedAt = &t
	}
	if r.CreatedAt != nil {
		t := r.GetCreatedAt().UTC()
		release.CreatedAt = &t
	}
	return release
}

func toMergedChange(fullName string, pr *github.PullRequest) *model.MergedChange {
	mergedAt := pr.GetMergedAt().UTC()
	return &model.MergedChange{
		ID:         fullName + "#" + strconv.Itoa(pr.GetNumber()),
		Repository: fullName,
		Title:      pr.GetTitle(),
		Branch:     pr.GetHead().GetRef(),
		Merged:     true,
		MergedAt:   &mergedAt,
	}
}

// call paces fn with the rate limiter and retries it on rate limiting and server errors
func (c *client) call(ctx context.Context, op string, fn func() (*github.Response, error)) error {
	logger := ctxlog.From(ctx)

	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return goerr.Wrap(err, "interrupted while waiting for rate limiter", goerr.V("op", op))
		}

		resp, err := fn()
		if err == nil {
			return nil
		}

		wait, ok := c.retryDelay(err, resp, attempt)
		if !ok || attempt >= c.maxRetries {
			return goerr.Wrap(err, "GitHub API call failed", goerr.V("op", op), goerr.V("attempts", attempt+1))
		}

		logger.Warn("retrying GitHub API call",
			"op", op,
			"attempt", attempt+1,
			"wait", wait.String(),
			"error", err.Error(),
		)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return goerr.Wrap(ctx.Err(), "interrupted while waiting for retry", goerr.V("op", op))
		case <-timer.C:
		}
	}
}

func (c *client) retryDelay(err error, resp *github.Response, attempt int) (time.Duration, bool) {
	backoff := c.backoff << attempt

	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		wait := time.Until(rateErr.Rate.Reset.Time)
		if wait > maxRateLimitWaiting {
			return 0, false
		}
		return max(wait, backoff), true
	}

	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		if d := abuseErr.GetRetryAfter(); d > 0 {
			if d > maxRateLimitWaiting {
				return 0, false
			}
			return d, true
		}
		return backoff, true
	}

	if resp != nil && resp.StatusCode >= http.StatusInternalServerError {
		return backoff, true
	}

	return 0, false
}
