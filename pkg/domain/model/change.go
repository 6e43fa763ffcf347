package model

import (
	"regexp"
	"time"
)

var issueKeyPattern = regexp.MustCompile(`[A-Z]+-\d+`)

// MergedChange is a pull request as reported by the code host
type MergedChange struct {
	ID         string     `json:"id"`
	Repository string     `json:"repository,omitempty"`
	Title      string     `json:"title,omitempty"`
	Branch     string     `json:"branch,omitempty"`
	Merged     bool       `json:"merged"`
	MergedAt   *time.Time `json:"merged_at,omitempty"`
}

// MergeTime returns the merge timestamp if the change was actually merged
func (c *MergedChange) MergeTime() (time.Time, bool) {
	if !c.Merged || c.MergedAt == nil || c.MergedAt.IsZero() {
		return time.Time{}, false
	}
	return *c.MergedAt, true
}

// IssueKey extracts the tracker key referenced by the change
func (c *MergedChange) IssueKey() (string, bool) {
	return ExtractIssueKey(c.Title, c.Branch)
}

// ExtractIssueKey finds the first PROJ-123 style key in title, then in branch.
func ExtractIssueKey(title, branch string) (string, bool) {
	for _, s := range []string{title, branch} {
		if s == "" {
			continue
		}
		if key := issueKeyPattern.FindString(s); key != "" {
			return key, true
		}
	}
	return "", false
}
