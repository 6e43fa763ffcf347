package model

import "time"

// Snapshot is a collected set of delivery telemetry, the unit exchanged between
// the collector, the CLI and the HTTP API.
type Snapshot struct {
	ID              string          `json:"id,omitempty"`
	CollectedAt     *time.Time      `json:"collected_at,omitempty"`
	Repositories    []string        `json:"repositories,omitempty"`
	Releases        []*Release      `json:"releases"`
	PullRequests    []*MergedChange `json:"pull_requests"`
	Incidents       []*Incident     `json:"incidents,omitempty"`
	IssueVersionMap IssueVersionMap `json:"issue_version_map,omitempty"`
	StartDate       *time.Time      `json:"start_date,omitempty"`
	EndDate         *time.Time      `json:"end_date,omitempty"`

	// Skipped counts records dropped while decoding, keyed by reason
	Skipped map[string]int `json:"-"`
}

// Input converts the snapshot into an engine input
func (s *Snapshot) Input() *DORAInput {
	return &DORAInput{
		Releases:        s.Releases,
		Changes:         s.PullRequests,
		Incidents:       s.Incidents,
		IssueVersionMap: s.IssueVersionMap,
		StartDate:       s.StartDate,
		EndDate:         s.EndDate,
	}
}
