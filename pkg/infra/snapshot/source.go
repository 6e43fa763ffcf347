package snapshot

import (
	"context"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
)

const gcsScheme = "gs://"

// Stdio is the location that stands for stdin or stdout
const Stdio = "-"

// Open returns a reader for a local path, Stdio, or a gs://bucket/object URL.
// The returned format is guessed from the file name and may be FormatAuto.
func Open(ctx context.Context, location string) (io.ReadCloser, Format, error) {
	switch {
	case location == Stdio:
		return io.NopCloser(os.Stdin), FormatAuto, nil

	case strings.HasPrefix(location, gcsScheme):
		bucket, object, err := parseGCSURL(location)
		if err != nil {
			return nil, "", err
		}
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, "", goerr.Wrap(err, "failed to create GCS client")
		}
		r, err := client.Bucket(bucket).Object(object).NewReader(ctx)
		if err != nil {
			_ = client.Close()
			return nil, "", goerr.Wrap(err, "failed to open GCS object", goerr.V("location", location))
		}
		return &gcsReader{Reader: r, client: client}, FormatFromName(object), nil

	default:
		f, err := os.Open(location)
		if err != nil {
			return nil, "", goerr.Wrap(err, "failed to open snapshot file", goerr.V("path", location))
		}
		return f, FormatFromName(location), nil
	}
}

// Create returns a writer for a local path, Stdio, or a gs://bucket/object URL.
// For GCS the object is committed on Close.
func Create(ctx context.Context, location string) (io.WriteCloser, error) {
	switch {
	case location == Stdio || location == "":
		return nopWriteCloser{os.Stdout}, nil

	case strings.HasPrefix(location, gcsScheme):
		bucket, object, err := parseGCSURL(location)
		if err != nil {
			return nil, err
		}
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create GCS client")
		}
		w := client.Bucket(bucket).Object(object).NewWriter(ctx)
		w.ContentType = "application/json"
		return &gcsWriter{Writer: w, client: client, location: location}, nil

	default:
		f, err := os.Create(location)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create snapshot file", goerr.V("path", location))
		}
		return f, nil
	}
}

func parseGCSURL(location string) (string, string, error) {
	bucket, object, ok := strings.Cut(strings.TrimPrefix(location, gcsScheme), "/")
	if !ok || bucket == "" || object == "" {
		return "", "", goerr.New("GCS location must be gs://bucket/object", goerr.V("location", location))
	}
	return bucket, object, nil
}

type gcsReader struct {
	*storage.Reader
	client *storage.Client
}

func (r *gcsReader) Close() error {
	err := r.Reader.Close()
	if cerr := r.client.Close(); err == nil {
		err = cerr
	}
	return err
}

type gcsWriter struct {
	*storage.Writer
	client   *storage.Client
	location string
}

func (w *gcsWriter) Close() error {
	defer func() { _ = w.client.Close() }()
	if err := w.Writer.Close(); err != nil {
		return goerr.Wrap(err, "failed to write GCS object", goerr.V("location", w.location))
	}
	return nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
