package hefty

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vinujohn/hefty-blob/blobstore"
	"github.com/vinujohn/hefty-blob/internal/keys"
	"golang.org/x/time/rate"
)

const defaultDeleteBatchSize = 1000

// Cleaner deletes every blob written for a topic or a topic partition. It is the only way blobs are
// removed; run it when the consumers of a topic have been reset.
type Cleaner struct {
	store     BlobStore
	keys      KeyGenerator
	logger    *slog.Logger
	metrics   MetricsCollector
	limiter   *rate.Limiter
	batchSize int
}

// NewCleaner deletes from store, or from the store cfg selects when store is nil. Keys are matched with
// the same base path the serializer used.
func NewCleaner(ctx context.Context, cfg Config, store BlobStore, opts ...Option) (*Cleaner, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	if err := cfg.validateCommon(); err != nil {
		return nil, err
	}

	if store == nil {
		if store, err = NewBlobStore(ctx, cfg); err != nil {
			return nil, err
		}
	}

	g := o.keys
	if g == nil {
		g = keys.New(cfg.BasePath)
	}

	batchSize := defaultDeleteBatchSize
	if o.limiter != nil {
		// WaitN rejects requests larger than the burst
		batchSize = min(batchSize, o.limiter.Burst())
	}

	return &Cleaner{
		store:     store,
		keys:      g,
		logger:    o.logger,
		metrics:   o.metrics,
		limiter:   o.limiter,
		batchSize: batchSize,
	}, nil
}

// DeleteTopic deletes all blobs of topic across partitions and returns how many were deleted.
func (c *Cleaner) DeleteTopic(ctx context.Context, topic string) (int, error) {
	if topic == "" {
		return 0, fmt.Errorf("unable to delete blobs. topic is required")
	}
	return c.deletePrefix(ctx, c.keys.TopicPrefix(topic))
}

func (c *Cleaner) DeletePartition(ctx context.Context, topic string, partition int32) (int, error) {
	if topic == "" {
		return 0, fmt.Errorf("unable to delete blobs. topic is required")
	}
	return c.deletePrefix(ctx, c.keys.PartitionPrefix(topic, partition))
}

// DeleteKeys deletes exactly keys, typically CleanupError.FailedKeys of an earlier run.
func (c *Cleaner) DeleteKeys(ctx context.Context, keys []string) (int, error) {
	return c.delete(ctx, "", keys)
}

func (c *Cleaner) deletePrefix(ctx context.Context, prefix string) (int, error) {
	keys, err := c.store.List(ctx, prefix)
	if err != nil {
		return 0, err
	}
	return c.delete(ctx, prefix, keys)
}

func (c *Cleaner) delete(ctx context.Context, prefix string, keys []string) (int, error) {
	start := time.Now()
	c.logger.Info("cleanup started", "prefix", prefix, "keys", len(keys))

	deleted := 0
	failed := make(map[string]error)

	for _, batch := range blobstore.Chunk(keys, c.batchSize) {
		if c.limiter != nil {
			if err := c.limiter.WaitN(ctx, len(batch)); err != nil {
				for _, key := range batch {
					failed[key] = err
				}
				continue
			}
		}

		n, err := c.store.Delete(ctx, batch)
		deleted += n
		if err == nil {
			continue
		}

		var deleteErr *blobstore.DeleteError
		if errors.As(err, &deleteErr) {
			for key, keyErr := range deleteErr.Failed {
				failed[key] = keyErr
			}
			continue
		}
		for _, key := range batch {
			failed[key] = err
		}
	}

	c.metrics.RecordCleanup(deleted, len(failed), time.Since(start))

	if len(failed) > 0 {
		c.logger.Warn("cleanup incomplete", "prefix", prefix, "deleted", deleted, "failed", len(failed))
		return deleted, &CleanupError{Prefix: prefix, Failed: failed}
	}

	c.logger.Info("cleanup finished", "prefix", prefix, "deleted", deleted)
	return deleted, nil
}
