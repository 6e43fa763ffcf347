package snapshot_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/dorameter/pkg/infra/snapshot"
)

func TestOpenCreate_LocalFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "snapshot.yaml")

	w, err := snapshot.Create(ctx, path)
	gt.NoError(t, err)
	_, err = io.WriteString(w, "releases: []\n")
	gt.NoError(t, err)
	gt.NoError(t, w.Close())

	r, format, err := snapshot.Open(ctx, path)
	gt.NoError(t, err)
	defer r.Close()
	gt.Equal(t, format, snapshot.FormatYAML)

	s, err := snapshot.Decode(r, format, now)
	gt.NoError(t, err)
	gt.Equal(t, len(s.Releases), 0)
}

func TestOpen_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("missing file", func(t *testing.T) {
		_, _, err := snapshot.Open(ctx, filepath.Join(t.TempDir(), "missing.json"))
		gt.Error(t, err)
		gt.True(t, errors.Is(err, os.ErrNotExist))
	})

	t.Run("malformed GCS location", func(t *testing.T) {
		_, _, err := snapshot.Open(ctx, "gs://bucket-only")
		gt.Error(t, err)

		_, err = snapshot.Create(ctx, "gs:///object")
		gt.Error(t, err)
	})
}
