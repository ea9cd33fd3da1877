package hefty

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vinujohn/hefty-blob/blobstore"
	"golang.org/x/time/rate"
)

// BlobStore is implemented by every storage backend.
type BlobStore = blobstore.BlobStore

// KeyGenerator builds blob keys and the prefixes cleanup deletes by.
type KeyGenerator interface {
	Key(topic string, partition int32) string
	TopicPrefix(topic string) string
	PartitionPrefix(topic string, partition int32) string
}

// Partitioner picks the partition segment of a key for callers that only know the topic.
type Partitioner func(topic string, data []byte) int32

type options struct {
	logger      *slog.Logger
	metrics     MetricsCollector
	keys        KeyGenerator
	stores      []BlobStore
	partitioner Partitioner
	ctx         context.Context
	limiter     *rate.Limiter
}

type Option func(opts *options) error

func newOptions(opts []Option) (*options, error) {
	o := &options{
		logger:  slog.New(slog.DiscardHandler),
		metrics: NoopMetricsCollector{},
		partitioner: func(string, []byte) int32 {
			return UnassignedPartition
		},
		ctx: context.Background(),
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// Log through logger instead of discarding.
func WithLogger(logger *slog.Logger) Option {
	return func(opts *options) error {
		if logger == nil {
			return &ConfigurationError{Field: "logger", Reason: "must not be nil"}
		}
		opts.logger = logger
		return nil
	}
}

func WithMetrics(metrics MetricsCollector) Option {
	return func(opts *options) error {
		if metrics == nil {
			return &ConfigurationError{Field: "metrics", Reason: "must not be nil"}
		}
		opts.metrics = metrics
		return nil
	}
}

// Build keys with g instead of the default basePath/topic/partition/uuid layout.
func WithKeyGenerator(g KeyGenerator) Option {
	return func(opts *options) error {
		if g == nil {
			return &ConfigurationError{Field: "key_generator", Reason: "must not be nil"}
		}
		opts.keys = g
		return nil
	}
}

// WithStore supplies an already constructed store. A serializer writes to the first store given; a
// deserializer reads every scheme it is given a store for and builds the others on demand.
func WithStore(store BlobStore) Option {
	return func(opts *options) error {
		if store == nil {
			return &ConfigurationError{Field: "store", Reason: "must not be nil"}
		}
		opts.stores = append(opts.stores, store)
		return nil
	}
}

func WithPartitioner(p Partitioner) Option {
	return func(opts *options) error {
		if p == nil {
			return &ConfigurationError{Field: "partitioner", Reason: "must not be nil"}
		}
		opts.partitioner = p
		return nil
	}
}

// WithContext sets the context used by Serde and Converter, whose signatures carry none.
func WithContext(ctx context.Context) Option {
	return func(opts *options) error {
		if ctx == nil {
			return &ConfigurationError{Field: "context", Reason: "must not be nil"}
		}
		opts.ctx = ctx
		return nil
	}
}

// WithDeleteRateLimit caps the number of keys a Cleaner deletes per second.
func WithDeleteRateLimit(perSecond float64, burst int) Option {
	return func(opts *options) error {
		if perSecond <= 0 || burst <= 0 {
			return &ConfigurationError{Field: "delete_rate_limit", Reason: fmt.Sprintf("rate %v and burst %d must be positive", perSecond, burst)}
		}
		opts.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		return nil
	}
}
