package ingest

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"imaged/internal/platform/logging"
	"imaged/internal/platform/observability"
	"imaged/internal/platform/storage"
)

// Coordinator drives a batch of entries through resolution and storage,
// isolating per-item failures. Once a request is classified and parsed it
// always completes with a per-item result list, even when every item fails.
type Coordinator struct {
	resolver       *Resolver
	store          *storage.Writer
	logger         *logging.Logger
	maxConcurrency int
}

// NewCoordinator wires the resolver and storage writer together.
// maxConcurrency bounds how many items of one batch resolve in parallel.
func NewCoordinator(resolver *Resolver, store *storage.Writer, maxConcurrency int, logger *logging.Logger) *Coordinator {
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}
	return &Coordinator{
		resolver:       resolver,
		store:          store,
		logger:         logger,
		maxConcurrency: maxConcurrency,
	}
}

// IngestBatch resolves and stores every entry concurrently and returns one
// result per entry, in input order. The returned error is non-nil only when
// the upload directory is unusable before any item is attempted; item-level
// failures are recorded in their result and never abort siblings.
func (c *Coordinator) IngestBatch(ctx context.Context, entries []Entry) ([]Result, error) {
	if err := c.store.Ensure(); err != nil {
		return nil, newError(ReasonStorageUnavailable, "upload directory unavailable", err)
	}

	observability.RecordMetric(ctx, "ingest_batch_size", float64(len(entries)), nil)

	results := make([]Result, len(entries))

	group := &errgroup.Group{}
	group.SetLimit(c.maxConcurrency)
	for i := range entries {
		i := i
		group.Go(func() error {
			results[i] = c.ingestOne(ctx, entries[i])
			return nil
		})
	}
	// Workers never return errors; failures live in the result slots.
	_ = group.Wait()

	return results, nil
}

func (c *Coordinator) ingestOne(ctx context.Context, entry Entry) Result {
	if entry.Err != nil {
		return FailedResult(entry.Err)
	}

	ctx, endSpan := observability.StartSpan(ctx, "ingest", entry.Descriptor.Source.String())

	image, err := c.resolver.Resolve(ctx, entry.Descriptor)
	if err != nil {
		endSpan(err)
		c.logger.WarnTag("INGEST", "resolution failed (%s): %v", entry.Descriptor.Source, err)
		return FailedResult(err)
	}

	path, err := c.store.Save(image.Bytes, image.ContentType, image.SuggestedFilename)
	if err != nil {
		endSpan(err)
		c.logger.WarnTag("INGEST", "storage failed for %q: %v", image.SuggestedFilename, err)
		if errors.Is(err, storage.ErrUnavailable) {
			return FailedResult(newError(ReasonStorageUnavailable, "upload directory unavailable", err))
		}
		return FailedResult(newError(ReasonWriteFailed, "write image file", err))
	}

	endSpan(nil)
	c.logger.InfoTag("INGEST", "stored %s (%d bytes, %s)", path, len(image.Bytes), image.ContentType)
	return StoredResult(path)
}
