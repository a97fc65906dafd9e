package ledger

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Archiver persists each raw extraction-model output to GCS for audit, one
// object per parse. Archiving is best-effort; a failed archive never fails
// the parse.
type Archiver struct {
	bucket string
	log    zerolog.Logger
}

// NewArchiver creates an archiver for the given bucket. An empty bucket name
// disables archiving.
func NewArchiver(bucket string, log zerolog.Logger) *Archiver {
	return &Archiver{bucket: bucket, log: log}
}

// Archive writes the raw model output and returns the object URI.
// It assumes Application Default Credentials are configured.
func (a *Archiver) Archive(ctx context.Context, trackerID string, raw []byte) (string, error) {
	if a.bucket == "" {
		return "", nil
	}

	objectName := fmt.Sprintf("model-outputs/%s/%s/%s.json",
		trackerID, time.Now().Format("2006/01/02"), uuid.NewString())

	client, err := storage.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("Archive: create storage client: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	w := client.Bucket(a.bucket).Object(objectName).NewWriter(ctx)
	w.ContentType = "application/json"

	if _, err := w.Write(raw); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("Archive: writing object: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("Archive: finalize upload: %w", err)
	}

	uri := fmt.Sprintf("gs://%s/%s", a.bucket, objectName)
	a.log.Debug().Str("uri", uri).Msg("Archived model output")
	return uri, nil
}
