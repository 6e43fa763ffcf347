package model_test

import (
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/dorameter/pkg/domain/model"
)

func TestParseFixVersion(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		ok         bool
		env        model.Environment
		prerelease bool
		published  time.Time
	}{
		{
			name:      "live",
			input:     "Live - 6/Oct/2025",
			ok:        true,
			env:       model.EnvProduction,
			published: time.Date(2025, 10, 6, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "website",
			input:     "Website - 26/Jan/2012",
			ok:        true,
			env:       model.EnvProduction,
			published: time.Date(2012, 1, 26, 0, 0, 0, 0, time.UTC),
		},
		{
			name:       "beta with qualifier",
			input:      "Beta WebTC - 28/Aug/2023",
			ok:         true,
			env:        model.EnvStaging,
			prerelease: true,
			published:  time.Date(2023, 8, 28, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "dated web release",
			input:     "RA_Web_2025_12_25",
			ok:        true,
			env:       model.EnvProduction,
			published: time.Date(2025, 12, 25, 0, 0, 0, 0, time.UTC),
		},
		{name: "invalid calendar date", input: "RA_Web_2025_02_30"},
		{name: "invalid month name", input: "Live - 6/Foo/2025"},
		{name: "unrelated name", input: "Sprint 42"},
		{name: "empty", input: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, ok := model.ParseFixVersion(tt.input)
			gt.Equal(t, ok, tt.ok)
			if !tt.ok {
				gt.Value(t, r).Nil()
				return
			}
			gt.Equal(t, r.Environment, tt.env)
			gt.Equal(t, r.IsPrerelease, tt.prerelease)
			gt.Equal(t, *r.PublishedAt, tt.published)
			gt.Equal(t, r.TagName, tt.input)
		})
	}
}

func TestFixVersion_ToRelease(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	t.Run("released", func(t *testing.T) {
		r, ok := model.FixVersion{Name: "RA_Web_2025_05_01", Released: true, ReleaseDate: "2025-05-01"}.ToRelease(now)
		gt.True(t, ok)
		gt.True(t, r.IsProduction())
	})

	t.Run("not released", func(t *testing.T) {
		_, ok := model.FixVersion{Name: "RA_Web_2025_05_01"}.ToRelease(now)
		gt.False(t, ok)
	})

	t.Run("scheduled in the future", func(t *testing.T) {
		_, ok := model.FixVersion{Name: "RA_Web_2025_07_01", Released: true, ReleaseDate: "2025-07-01"}.ToRelease(now)
		gt.False(t, ok)
	})
}
