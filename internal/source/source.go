// Package source opens workbook inputs and export outputs that live either
// on the local filesystem or in Google Cloud Storage.
package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/matsen/pubdash/internal/reference"
)

// GCSScheme prefixes Cloud Storage locations.
const GCSScheme = "gs://"

// EnvGCSEndpoint points the storage client at an emulator such as
// fake-gcs-server. Requests to it are unauthenticated.
const EnvGCSEndpoint = "PUBDASH_GCS_ENDPOINT"

// IsGCS reports whether location is a gs:// URL.
func IsGCS(location string) bool {
	return strings.HasPrefix(location, GCSScheme)
}

// ParseGCS splits gs://bucket/path/to/object into bucket and object.
func ParseGCS(location string) (bucket, object string, err error) {
	if !IsGCS(location) {
		return "", "", fmt.Errorf("%w: %q is not a gs:// URL", reference.ErrInvalidArgument, location)
	}
	rest := strings.TrimPrefix(location, GCSScheme)
	bucket, object, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || object == "" || strings.HasSuffix(object, "/") {
		return "", "", fmt.Errorf("%w: %q must name a bucket and an object", reference.ErrInvalidArgument, location)
	}
	return bucket, object, nil
}

// Open returns a reader for a local path or a gs:// object. Closing the
// reader also closes the storage client it was read through.
func Open(ctx context.Context, location string) (io.ReadCloser, error) {
	if !IsGCS(location) {
		f, err := os.Open(location)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", location, err)
		}
		return f, nil
	}

	bucket, object, err := ParseGCS(location)
	if err != nil {
		return nil, err
	}
	client, err := newClient(ctx)
	if err != nil {
		return nil, err
	}
	r, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to open GCS object %s: %w", location, err)
	}
	return &clientCloser{ReadCloser: r, client: client}, nil
}

// Create returns a writer for a local path or a gs:// object. For GCS the
// object becomes visible only when Close returns nil.
func Create(ctx context.Context, location string, contentType string) (io.WriteCloser, error) {
	if !IsGCS(location) {
		f, err := os.Create(location)
		if err != nil {
			return nil, fmt.Errorf("creating %s: %w", location, err)
		}
		return f, nil
	}

	bucket, object, err := ParseGCS(location)
	if err != nil {
		return nil, err
	}
	client, err := newClient(ctx)
	if err != nil {
		return nil, err
	}
	w := client.Bucket(bucket).Object(object).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}
	return &writeCloser{w: w, client: client, location: location}, nil
}

func newClient(ctx context.Context) (*storage.Client, error) {
	var opts []option.ClientOption
	if endpoint := os.Getenv(EnvGCSEndpoint); endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint), option.WithoutAuthentication())
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return client, nil
}

type clientCloser struct {
	io.ReadCloser
	client *storage.Client
}

func (c *clientCloser) Close() error {
	err := c.ReadCloser.Close()
	if cerr := c.client.Close(); err == nil {
		err = cerr
	}
	return err
}

type writeCloser struct {
	w        *storage.Writer
	client   *storage.Client
	location string
}

func (c *writeCloser) Write(p []byte) (int, error) {
	return c.w.Write(p)
}

func (c *writeCloser) Close() error {
	defer c.client.Close()
	if err := c.w.Close(); err != nil {
		return fmt.Errorf("failed to finalize GCS object %s: %w", c.location, err)
	}
	return nil
}
