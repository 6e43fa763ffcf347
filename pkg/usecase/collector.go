package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/dorameter/pkg/domain/interfaces"
	"github.com/m-mizutani/dorameter/pkg/domain/model"
	"github.com/m-mizutani/dorameter/pkg/utils/async"
)

type collector struct {
	client      interfaces.GitHubClient
	concurrency int
	now         func() time.Time
}

// CollectorOption configures the collector use case
type CollectorOption func(*collector)

// WithConcurrency sets how many repositories are fetched in parallel
func WithConcurrency(n int) CollectorOption {
	return func(c *collector) {
		c.concurrency = n
	}
}

// WithCollectorClock replaces time.Now for the snapshot timestamp
func WithCollectorClock(now func() time.Time) CollectorOption {
	return func(c *collector) {
		c.now = now
	}
}

// NewCollector creates a use case that snapshots releases and merged pull requests from GitHub
func NewCollector(client interfaces.GitHubClient, opts ...CollectorOption) interfaces.CollectorUseCase {
	c := &collector{
		client:      client,
		concurrency: async.DefaultConcurrency,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type repoRecords struct {
	releases []*model.Release
	changes  []*model.MergedChange
	failed   bool
}

// Collect fetches every repository in parallel. A repository that fails is logged and left out
// of the snapshot, the rest are still returned.
func (c *collector) Collect(ctx context.Context, repos []string, since time.Time) (*model.Snapshot, error) {
	type target struct {
		idx         int
		owner, name string
	}

	targets := make([]target, 0, len(repos))
	for i, repo := range repos {
		owner, name, ok := strings.Cut(repo, "/")
		if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
			return nil, goerr.Wrap(ErrInvalidConfig, "repository must be owner/name", goerr.V("repository", repo))
		}
		targets = append(targets, target{idx: i, owner: owner, name: name})
	}

	results := make([]repoRecords, len(repos))
	err := async.ForEach(ctx, targets, c.concurrency, func(ctx context.Context, t target) error {
		records, err := c.collectRepo(ctx, t.owner, t.name, since)
		if err != nil {
			ctxlog.From(ctx).Warn("skip repository",
				"repository", repos[t.idx],
				"error", err,
			)
			results[t.idx] = repoRecords{failed: true}
			return nil
		}
		results[t.idx] = *records
		return nil
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to collect repositories")
	}

	now := c.now().UTC()
	start := since.UTC()
	snapshot := &model.Snapshot{
		ID:           uuid.NewString(),
		CollectedAt:  &now,
		Repositories: repos,
		Releases:     []*model.Release{},
		PullRequests: []*model.MergedChange{},
		StartDate:    &start,
		EndDate:      &now,
	}

	for _, r := range results {
		if r.failed {
			if snapshot.Skipped == nil {
				snapshot.Skipped = map[string]int{}
			}
			snapshot.Skipped["repository_failed"]++
			continue
		}
		snapshot.Releases = append(snapshot.Releases, r.releases...)
		snapshot.PullRequests = append(snapshot.PullRequests, r.changes...)
	}

	ctxlog.From(ctx).Info("Collected snapshot",
		"id", snapshot.ID,
		"repositories", len(repos),
		"releases", len(snapshot.Releases),
		"pull_requests", len(snapshot.PullRequests),
		"failed", snapshot.Skipped["repository_failed"],
	)

	return snapshot, nil
}

func (c *collector) collectRepo(ctx context.Context, owner, name string, since time.Time) (*repoRecords, error) {
	releases, err := c.client.ListReleases(ctx, owner, name)
	if err != nil {
		return nil, err
	}
	changes, err := c.client.ListMergedPullRequests(ctx, owner, name, since)
	if err != nil {
		return nil, err
	}

	records := &repoRecords{changes: changes}
	for _, r := range releases {
		if at, ok := r.DeployedAt(); ok && !at.Before(since) {
			records.releases = append(records.releases, r)
		}
	}
	return records, nil
}
