package hefty

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vinujohn/hefty-blob/internal/keys"
	"github.com/vinujohn/hefty-blob/internal/messages"
)

// Serializer turns payloads into wire bytes, writing payloads above the threshold to a blob store and
// sending a reference in their place.
type Serializer struct {
	cfg     Config
	store   BlobStore
	keys    KeyGenerator
	logger  *slog.Logger
	metrics MetricsCollector
}

// NewSerializer validates cfg and builds the store it selects, unless one is passed with WithStore.
func NewSerializer(ctx context.Context, cfg Config, opts ...Option) (*Serializer, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	if err := cfg.validateCommon(); err != nil {
		return nil, err
	}

	if len(o.stores) == 0 {
		store, err := NewBlobStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
		o.stores = append(o.stores, store)
	}

	return newSerializer(cfg, o), nil
}

// NewSerializerWithStore writes to store regardless of cfg.Backend.
func NewSerializerWithStore(cfg Config, store BlobStore, opts ...Option) (*Serializer, error) {
	if store == nil {
		return nil, &ConfigurationError{Field: "store", Reason: "must not be nil"}
	}
	return NewSerializer(context.Background(), cfg, append([]Option{WithStore(store)}, opts...)...)
}

func newSerializer(cfg Config, o *options) *Serializer {
	cfg = cfg.withDefaults()
	g := o.keys
	if g == nil {
		g = keys.New(cfg.BasePath)
	}
	return &Serializer{
		cfg:     cfg,
		store:   o.stores[0],
		keys:    g,
		logger:  o.logger,
		metrics: o.metrics,
	}
}

// Serialize returns nil for a nil payload, the flagged payload when it fits the threshold, and
// otherwise a flagged reference to a freshly written blob. No bytes are returned unless the blob
// write succeeded.
func (s *Serializer) Serialize(ctx context.Context, topic string, partition int32, payload []byte) ([]byte, error) {
	if payload == nil {
		return nil, nil
	}

	if !messages.ShouldBack(payload, s.cfg.MaxByteSize) {
		s.metrics.RecordInline(len(payload))
		return messages.Encode(messages.Inline(payload)), nil
	}

	if topic == "" {
		return nil, fmt.Errorf("unable to back payload. topic is required")
	}

	key := s.keys.Key(topic, partition)

	start := time.Now()
	uri, err := s.store.Store(ctx, key, payload)
	s.metrics.RecordStore(len(payload), time.Since(start), err)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("payload backed", "topic", topic, "partition", partition, "uri", uri, "bytes", len(payload))

	return messages.Encode(messages.Reference(uri)), nil
}

// Store returns the store backed payloads are written to.
func (s *Serializer) Store() BlobStore {
	return s.store
}
