package model

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	// Live - 6/Oct/2025, Beta WebTC - 28/Aug/2023, Website - 26/Jan/2012
	namedFixVersionPattern = regexp.MustCompile(`(?i)^(Live|Beta|Website|Preview)(?:\s+\w+)?\s+-\s+(\d{1,2})/([A-Za-z]{3})/(\d{4})$`)
	// RA_Web_2025_12_25
	datedFixVersionPattern = regexp.MustCompile(`(?i)^RA_Web_(\d{4})_(\d{2})_(\d{2})$`)
)

// FixVersion is an issue-tracker version that may represent a deployment
type FixVersion struct {
	Name        string `json:"name" yaml:"name"`
	Released    bool   `json:"released" yaml:"released"`
	ReleaseDate string `json:"release_date,omitempty" yaml:"release_date,omitempty"`
}

// ToRelease converts a released fix version into a Release. Versions that are unreleased,
// scheduled after now, or whose name does not follow a known deployment pattern are rejected.
func (v FixVersion) ToRelease(now time.Time) (*Release, bool) {
	if !v.Released {
		return nil, false
	}
	if v.ReleaseDate != "" {
		if d, err := time.Parse(time.DateOnly, v.ReleaseDate); err == nil && d.After(now) {
			return nil, false
		}
	}
	return ParseFixVersion(v.Name)
}

// ParseFixVersion parses a fix-version name into a Release with its environment already set.
func ParseFixVersion(name string) (*Release, bool) {
	name = strings.TrimSpace(name)

	var (
		published  time.Time
		production bool
	)

	if m := namedFixVersionPattern.FindStringSubmatch(name); m != nil {
		d, err := time.Parse("2/Jan/2006", m[2]+"/"+m[3]+"/"+m[4])
		if err != nil {
			return nil, false
		}
		published = d.UTC()

		switch strings.ToLower(m[1]) {
		case "live", "website":
			production = true
		}
	} else if m := datedFixVersionPattern.FindStringSubmatch(name); m != nil {
		d, ok := dateFromParts(m[1], m[2], m[3])
		if !ok {
			return nil, false
		}
		published = d
		production = true
	} else {
		return nil, false
	}

	env := EnvStaging
	if production {
		env = EnvProduction
	}

	return &Release{
		TagName:      name,
		Environment:  env,
		PublishedAt:  &published,
		CreatedAt:    &published,
		IsPrerelease: !production,
	}, true
}

func dateFromParts(year, month, day string) (time.Time, bool) {
	y, err := strconv.Atoi(year)
	if err != nil {
		return time.Time{}, false
	}
	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return time.Time{}, false
	}
	d, err := strconv.Atoi(day)
	if err != nil || d < 1 {
		return time.Time{}, false
	}

	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (Feb 30 -> Mar 2)
	if t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}
