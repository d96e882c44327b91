// Package archive records raw OpenWeather payloads in an object store for
// replay and debugging. Each payload is written together with a
// '.meta.json' sidecar describing the lookup that produced it.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/thanos-io/objstore"
	"golang.org/x/sync/errgroup"
)

// Archiver writes raw payloads to an objstore.Bucket. Any bucket provider
// objstore supports (filesystem, S3, GCS, Azure, in-memory) works.
type Archiver struct {
	bucket objstore.Bucket
	logger log.Logger
}

// New creates an Archiver over the given bucket.
func New(bucket objstore.Bucket, logger log.Logger) *Archiver {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Archiver{bucket: bucket, logger: logger}
}

// meta is the sidecar payload stored next to each archived body.
type meta struct {
	Location   string    `json:"location"`
	Unit       string    `json:"unit"`
	ArchivedAt time.Time `json:"archived_at"`
}

// Put archives one raw payload and returns the object name it was stored
// under. The body and its sidecar are uploaded concurrently; a failure of
// either fails the archive as a whole.
func (a *Archiver) Put(ctx context.Context, location, unit string, raw []byte) (string, error) {
	name := fmt.Sprintf("raw/%d-%s.json", time.Now().Unix(), uuid.NewString())

	metaBytes, err := json.Marshal(meta{
		Location:   location,
		Unit:       unit,
		ArchivedAt: time.Now().UTC(),
	})
	if err != nil {
		return "", fmt.Errorf("archive: failed to marshal sidecar: %w", err)
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.bucket.Upload(gCtx, name, bytes.NewReader(raw))
	})
	g.Go(func() error {
		return a.bucket.Upload(gCtx, toMetaName(name), bytes.NewReader(metaBytes))
	})
	if err := g.Wait(); err != nil {
		level.Error(a.logger).Log("msg", "failed to archive payload", "name", name, "err", err)
		return "", err
	}

	level.Debug(a.logger).Log("msg", "payload archived", "name", name)
	return name, nil
}

func toMetaName(name string) string {
	return strings.TrimSuffix(name, ".json") + ".meta.json"
}
