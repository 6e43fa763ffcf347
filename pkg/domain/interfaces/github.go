package interfaces

import (
	"context"
	"time"

	"github.com/m-mizutani/dorameter/pkg/domain/model"
)

// GitHubClient defines operations for collecting delivery records from GitHub API
type GitHubClient interface {
	// ListReleases returns published (non-draft) releases of owner/repo, newest first
	ListReleases(ctx context.Context, owner, repo string) ([]*model.Release, error)

	// ListMergedPullRequests returns pull requests of owner/repo merged at or after since
	ListMergedPullRequests(ctx context.Context, owner, repo string, since time.Time) ([]*model.MergedChange, error)
}
