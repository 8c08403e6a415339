package backup

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

const uploadTimeout = 2 * time.Minute

// UploadFile copies a local file to gs://bucket/object using Application
// Default Credentials unless opts say otherwise.
func UploadFile(ctx context.Context, bucket, object, path string, opts ...option.ClientOption) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open file %q: %w", path, err)
	}
	defer f.Close()

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return fmt.Errorf("create storage client: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	w := client.Bucket(bucket).Object(object).NewWriter(ctx)
	w.ContentType = "application/vnd.sqlite3"
	if _, err := io.Copy(w, f); err != nil {
		_ = w.Close()
		return fmt.Errorf("copy file to GCS writer: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize upload to gs://%s/%s: %w", bucket, object, err)
	}
	return nil
}
