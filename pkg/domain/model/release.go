package model

import (
	"regexp"
	"time"
)

// Environment is the deployment target a release is counted against
type Environment string

const (
	EnvProduction Environment = "production"
	EnvStaging    Environment = "staging"
)

var bareSemVerPattern = regexp.MustCompile(`^v?\d+\.\d+\.\d+$`)

// Release is a published (non-draft) release or deployment record
type Release struct {
	TagName      string      `json:"tag_name"`
	Repository   string      `json:"repository,omitempty"`
	Environment  Environment `json:"environment,omitempty"`
	PublishedAt  *time.Time  `json:"published_at,omitempty"`
	CreatedAt    *time.Time  `json:"created_at,omitempty"`
	CommitSHA    string      `json:"commit_sha,omitempty"`
	IsPrerelease bool        `json:"is_prerelease"`
}

// DeployedAt returns the deployment timestamp, preferring PublishedAt over CreatedAt.
func (r *Release) DeployedAt() (time.Time, bool) {
	if r.PublishedAt != nil && !r.PublishedAt.IsZero() {
		return *r.PublishedAt, true
	}
	if r.CreatedAt != nil && !r.CreatedAt.IsZero() {
		return *r.CreatedAt, true
	}
	return time.Time{}, false
}

// ResolveEnvironment returns the stored environment when it is production or staging, and derives
// it from the tag otherwise. The release itself is not modified.
func (r *Release) ResolveEnvironment() Environment {
	switch r.Environment {
	case EnvProduction, EnvStaging:
		return r.Environment
	}
	return DeriveEnvironment(r.TagName, r.IsPrerelease)
}

// IsProduction reports whether the release counts as a production deployment
func (r *Release) IsProduction() bool {
	return r.ResolveEnvironment() == EnvProduction
}

// ClassifyEnvironment maps a release tag to an environment.
//
// A prerelease flag always wins. Only bare semantic versions (v1.2.3 / 1.2.3) are production;
// suffixed or unrecognized tags are staging.
func ClassifyEnvironment(tag string, isPrerelease bool) Environment {
	if isPrerelease {
		return EnvStaging
	}
	if bareSemVerPattern.MatchString(tag) {
		return EnvProduction
	}
	return EnvStaging
}

// DeriveEnvironment classifies a record that arrived without a trusted environment. Fix-version
// names carry their own environment, every other tag goes through ClassifyEnvironment.
func DeriveEnvironment(tag string, isPrerelease bool) Environment {
	if isPrerelease {
		return EnvStaging
	}
	if r, ok := ParseFixVersion(tag); ok {
		return r.Environment
	}
	return ClassifyEnvironment(tag, false)
}
