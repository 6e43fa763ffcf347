// Package snapshot reads and writes delivery record snapshots as JSON or YAML documents.
package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"

	"github.com/m-mizutani/dorameter/pkg/domain/model"
)

// Format is a document encoding
type Format string

const (
	FormatAuto Format = ""
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Skip reasons reported in Snapshot.Skipped
const (
	SkipReleaseTimestamp  = "release_bad_timestamp"
	SkipReleaseTag        = "release_without_tag"
	SkipChangeTimestamp   = "change_bad_timestamp"
	SkipIncidentTimestamp = "incident_bad_timestamp"
	SkipIncidentKey       = "incident_without_key"
	SkipFixVersion        = "fix_version_not_deployment"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	time.DateTime,
	time.DateOnly,
}

// FormatFromName picks the format from a file extension. Unknown extensions return FormatAuto.
func FormatFromName(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".json":
		return FormatJSON
	}
	return FormatAuto
}

// FormatFromContentType maps an HTTP Content-Type to a format
func FormatFromContentType(contentType string) Format {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "yaml"):
		return FormatYAML
	case strings.Contains(ct, "json"):
		return FormatJSON
	}
	return FormatAuto
}

type snapshotDoc struct {
	ID              string             `json:"id" yaml:"id"`
	CollectedAt     string             `json:"collected_at" yaml:"collected_at"`
	Repositories    []string           `json:"repositories" yaml:"repositories"`
	Releases        []releaseDoc       `json:"releases" yaml:"releases"`
	FixVersions     []model.FixVersion `json:"fix_versions" yaml:"fix_versions"`
	PullRequests    []changeDoc        `json:"pull_requests" yaml:"pull_requests"`
	Incidents       []incidentDoc      `json:"incidents" yaml:"incidents"`
	IssueVersionMap map[string]string  `json:"issue_version_map" yaml:"issue_version_map"`
	StartDate       string             `json:"start_date" yaml:"start_date"`
	EndDate         string             `json:"end_date" yaml:"end_date"`
}

// releaseDoc has no environment field. The environment is always derived from the tag.
type releaseDoc struct {
	TagName      string `json:"tag_name" yaml:"tag_name"`
	Repository   string `json:"repository" yaml:"repository"`
	PublishedAt  string `json:"published_at" yaml:"published_at"`
	CreatedAt    string `json:"created_at" yaml:"created_at"`
	CommitSHA    string `json:"commit_sha" yaml:"commit_sha"`
	IsPrerelease bool   `json:"is_prerelease" yaml:"is_prerelease"`
}

type changeDoc struct {
	ID         any    `json:"id" yaml:"id"`
	Repository string `json:"repository" yaml:"repository"`
	Title      string `json:"title" yaml:"title"`
	Branch     string `json:"branch" yaml:"branch"`
	Merged     *bool  `json:"merged" yaml:"merged"`
	MergedAt   string `json:"merged_at" yaml:"merged_at"`
}

type incidentDoc struct {
	Key                  string   `json:"key" yaml:"key"`
	Created              string   `json:"created" yaml:"created"`
	Resolved             string   `json:"resolved" yaml:"resolved"`
	ResolutionTimeHours  *float64 `json:"resolution_time_hours" yaml:"resolution_time_hours"`
	RelatedDeploymentTag string   `json:"related_deployment_tag" yaml:"related_deployment_tag"`
}

// Decode reads a snapshot document. Records that cannot be converted are dropped and counted in
// Snapshot.Skipped; only an undecodable document is an error. now bounds fix versions that are
// scheduled but not yet deployed.
func Decode(r io.Reader, format Format, now time.Time) (*model.Snapshot, error) {
	var doc snapshotDoc
	if err := unmarshal(r, format, &doc); err != nil {
		return nil, err
	}

	s := &model.Snapshot{
		ID:              doc.ID,
		Repositories:    doc.Repositories,
		Releases:        []*model.Release{},
		PullRequests:    []*model.MergedChange{},
		IssueVersionMap: doc.IssueVersionMap,
		Skipped:         map[string]int{},
	}

	var err error
	if s.CollectedAt, err = parseTime(doc.CollectedAt); err != nil {
		return nil, goerr.Wrap(err, "invalid collected_at")
	}
	if s.StartDate, err = parseTime(doc.StartDate); err != nil {
		return nil, goerr.Wrap(err, "invalid start_date")
	}
	if s.EndDate, err = parseTime(doc.EndDate); err != nil {
		return nil, goerr.Wrap(err, "invalid end_date")
	}

	for _, d := range doc.Releases {
		if r, reason := d.toModel(); reason != "" {
			s.Skipped[reason]++
		} else {
			s.Releases = append(s.Releases, r)
		}
	}
	for _, v := range doc.FixVersions {
		r, ok := v.ToRelease(now)
		if !ok {
			s.Skipped[SkipFixVersion]++
			continue
		}
		s.Releases = append(s.Releases, r)
	}
	for _, d := range doc.PullRequests {
		if c, ok := d.toModel(); ok {
			s.PullRequests = append(s.PullRequests, c)
		} else {
			s.Skipped[SkipChangeTimestamp]++
		}
	}

	incidents, skipped := convertIncidents(doc.Incidents)
	if doc.Incidents != nil {
		s.Incidents = incidents
	}
	for k, v := range skipped {
		s.Skipped[k] += v
	}

	if len(s.Skipped) == 0 {
		s.Skipped = nil
	}
	return s, nil
}

// DecodeIncidents reads a bare list of incidents, as exported from an issue tracker
func DecodeIncidents(r io.Reader, format Format) ([]*model.Incident, map[string]int, error) {
	var docs []incidentDoc
	if err := unmarshal(r, format, &docs); err != nil {
		return nil, nil, err
	}
	incidents, skipped := convertIncidents(docs)
	return incidents, skipped, nil
}

// DecodeIssueMap reads an issue key to release tag mapping
func DecodeIssueMap(r io.Reader, format Format) (model.IssueVersionMap, error) {
	var m map[string]string
	if err := unmarshal(r, format, &m); err != nil {
		return nil, err
	}
	return model.IssueVersionMap(m), nil
}

// Encode writes the snapshot as indented JSON
func Encode(w io.Writer, s *model.Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return goerr.Wrap(err, "failed to encode snapshot")
	}
	return nil
}

func unmarshal(r io.Reader, format Format, v any) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		return goerr.Wrap(err, "failed to read document")
	}

	if format == FormatAuto {
		format = sniff(raw)
	}

	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(v); err != nil {
			return goerr.Wrap(err, "failed to decode JSON document")
		}
	case FormatYAML:
		if err := yaml.Unmarshal(raw, v); err != nil {
			return goerr.Wrap(err, "failed to decode YAML document")
		}
	default:
		return goerr.New("unsupported document format", goerr.V("format", format))
	}
	return nil
}

func sniff(raw []byte) Format {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		return FormatJSON
	}
	return FormatYAML
}

func convertIncidents(docs []incidentDoc) ([]*model.Incident, map[string]int) {
	skipped := map[string]int{}
	incidents := make([]*model.Incident, 0, len(docs))
	for _, d := range docs {
		inc, reason := d.toModel()
		if reason != "" {
			skipped[reason]++
			continue
		}
		incidents = append(incidents, inc)
	}
	return incidents, skipped
}

func (d releaseDoc) toModel() (*model.Release, string) {
	if d.TagName == "" {
		return nil, SkipReleaseTag
	}
	published, err := parseTime(d.PublishedAt)
	if err != nil {
		return nil, SkipReleaseTimestamp
	}
	created, err := parseTime(d.CreatedAt)
	if err != nil {
		return nil, SkipReleaseTimestamp
	}

	return &model.Release{
		TagName:      d.TagName,
		Repository:   d.Repository,
		Environment:  model.DeriveEnvironment(d.TagName, d.IsPrerelease),
		PublishedAt:  published,
		CreatedAt:    created,
		CommitSHA:    d.CommitSHA,
		IsPrerelease: d.IsPrerelease,
	}, ""
}

// toModel treats a change without an explicit merged flag as merged when it has a merge time
func (d changeDoc) toModel() (*model.MergedChange, bool) {
	mergedAt, err := parseTime(d.MergedAt)
	if err != nil {
		return nil, false
	}

	merged := mergedAt != nil
	if d.Merged != nil {
		merged = *d.Merged
	}

	var id string
	if d.ID != nil {
		id = fmt.Sprint(d.ID)
	}

	return &model.MergedChange{
		ID:         id,
		Repository: d.Repository,
		Title:      d.Title,
		Branch:     d.Branch,
		Merged:     merged,
		MergedAt:   mergedAt,
	}, true
}

func (d incidentDoc) toModel() (*model.Incident, string) {
	if d.Key == "" {
		return nil, SkipIncidentKey
	}
	created, err := parseTime(d.Created)
	if err != nil {
		return nil, SkipIncidentTimestamp
	}
	resolved, err := parseTime(d.Resolved)
	if err != nil {
		return nil, SkipIncidentTimestamp
	}

	inc := &model.Incident{
		Key:                  d.Key,
		Resolved:             resolved,
		ResolutionTimeHours:  d.ResolutionTimeHours,
		RelatedDeploymentTag: d.RelatedDeploymentTag,
	}
	if created != nil {
		inc.Created = *created
	}
	return inc, ""
}

// parseTime returns nil for an empty string. Timestamps without a zone are taken as UTC.
func parseTime(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, goerr.New("unsupported timestamp", goerr.V("value", s))
}
