package model_test

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/dorameter/pkg/domain/model"
)

func TestClassifyEnvironment(t *testing.T) {
	tests := []struct {
		name         string
		tag          string
		isPrerelease bool
		want         model.Environment
	}{
		{name: "bare semver with v", tag: "v1.2.3", want: model.EnvProduction},
		{name: "bare semver without v", tag: "1.2.3", want: model.EnvProduction},
		{name: "release candidate", tag: "v1.2.3-rc1", want: model.EnvStaging},
		{name: "beta", tag: "v1.2.3-beta", want: model.EnvStaging},
		{name: "upper case suffix", tag: "v1.2.3-ALPHA", want: model.EnvStaging},
		{name: "snapshot", tag: "2.0.0-snapshot", want: model.EnvStaging},
		{name: "four components", tag: "v1.2.3.4", want: model.EnvStaging},
		{name: "unknown shape", tag: "release-2025-01-01", want: model.EnvStaging},
		{name: "empty", tag: "", want: model.EnvStaging},
		{name: "prerelease flag wins over semver", tag: "v1.2.3", isPrerelease: true, want: model.EnvStaging},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gt.Equal(t, model.ClassifyEnvironment(tt.tag, tt.isPrerelease), tt.want)
		})
	}
}

func TestClassifyEnvironment_PrereleaseAlwaysStaging(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	alphabet := []rune("v0123456789.-abcdefrstABCRC_/ ")

	for range 2000 {
		n := rng.IntN(16)
		tag := make([]rune, n)
		for i := range tag {
			tag[i] = alphabet[rng.IntN(len(alphabet))]
		}
		gt.Equal(t, model.ClassifyEnvironment(string(tag), true), model.EnvStaging)
	}

	// semver shapes are the interesting ones
	for range 200 {
		tag := "v" + randDigits(rng) + "." + randDigits(rng) + "." + randDigits(rng)
		gt.Equal(t, model.ClassifyEnvironment(tag, true), model.EnvStaging)
		gt.Equal(t, model.ClassifyEnvironment(tag, false), model.EnvProduction)
	}
}

func randDigits(rng *rand.Rand) string {
	n := 1 + rng.IntN(3)
	b := make([]byte, n)
	for i := range b {
		b[i] = byte('0' + rng.IntN(10))
	}
	return string(b)
}

func TestRelease_DeployedAt(t *testing.T) {
	published := time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)
	created := time.Date(2025, 1, 4, 0, 0, 0, 0, time.UTC)

	t.Run("prefers published", func(t *testing.T) {
		r := &model.Release{PublishedAt: &published, CreatedAt: &created}
		at, ok := r.DeployedAt()
		gt.True(t, ok)
		gt.Equal(t, at, published)
	})

	t.Run("falls back to created", func(t *testing.T) {
		r := &model.Release{CreatedAt: &created}
		at, ok := r.DeployedAt()
		gt.True(t, ok)
		gt.Equal(t, at, created)
	})

	t.Run("zero timestamps are missing", func(t *testing.T) {
		zero := time.Time{}
		r := &model.Release{PublishedAt: &zero}
		_, ok := r.DeployedAt()
		gt.False(t, ok)
	})
}

func TestRelease_ResolveEnvironment(t *testing.T) {
	t.Run("stored environment is kept", func(t *testing.T) {
		r := &model.Release{TagName: "Live - 6/Oct/2025", Environment: model.EnvProduction}
		gt.True(t, r.IsProduction())
	})

	t.Run("classified when empty", func(t *testing.T) {
		r := &model.Release{TagName: "v1.0.0"}
		gt.Equal(t, r.ResolveEnvironment(), model.EnvProduction)
		gt.Equal(t, r.Environment, model.Environment(""))
	})

	t.Run("unknown value is reclassified", func(t *testing.T) {
		r := &model.Release{TagName: "v1.0.0-rc1", Environment: "prod"}
		gt.Equal(t, r.ResolveEnvironment(), model.EnvStaging)
		gt.False(t, r.IsProduction())

		r = &model.Release{TagName: "Live - 6/Oct/2025", Environment: "PRODUCTION"}
		gt.Equal(t, r.ResolveEnvironment(), model.EnvProduction)
	})
}

func TestDeriveEnvironment(t *testing.T) {
	tests := []struct {
		tag          string
		isPrerelease bool
		want         model.Environment
	}{
		{tag: "v1.2.3", want: model.EnvProduction},
		{tag: "v1.2.3-rc1", want: model.EnvStaging},
		{tag: "v1.2.3", isPrerelease: true, want: model.EnvStaging},
		{tag: "RA_Web_2025_01_20", want: model.EnvProduction},
		{tag: "Live - 6/Oct/2025", want: model.EnvProduction},
		{tag: "Preview - 6/Oct/2025", want: model.EnvStaging},
		{tag: "nightly", want: model.EnvStaging},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			gt.Equal(t, model.DeriveEnvironment(tt.tag, tt.isPrerelease), tt.want)
		})
	}
}
