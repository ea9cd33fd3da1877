package hefty

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vinujohn/hefty-blob/blobstore"
	"github.com/vinujohn/hefty-blob/internal/messages"
)

// Deserializer reverses Serializer. References are resolved with the store matching their scheme,
// so records written to any supported backend can be read.
type Deserializer struct {
	cfg     Config
	logger  *slog.Logger
	metrics MetricsCollector

	mu     sync.Mutex
	stores map[string]BlobStore // by scheme, built on first use
}

// NewDeserializer validates cfg. Stores are only connected when the first reference with their
// scheme is read.
func NewDeserializer(cfg Config, opts ...Option) (*Deserializer, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	if err := cfg.validateCommon(); err != nil {
		return nil, err
	}
	if len(o.stores) == 0 {
		if err := cfg.validateRead(); err != nil {
			return nil, err
		}
	}

	d := &Deserializer{
		cfg:     cfg.withDefaults(),
		logger:  o.logger,
		metrics: o.metrics,
		stores:  make(map[string]BlobStore),
	}
	for _, store := range o.stores {
		d.stores[store.Scheme()] = store
	}

	return d, nil
}

// Deserialize returns nil for nil data, the body of an inline record, and the blob contents of a
// backed one. Failures are returned unchanged: *CodecError, *StorageError or *NotFoundError.
func (d *Deserializer) Deserialize(ctx context.Context, topic string, data []byte) ([]byte, error) {
	p, err := messages.Decode(data)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, nil
	}
	if !p.Backed {
		return p.Data, nil
	}

	uri, err := p.URI()
	if err != nil {
		return nil, err
	}
	u, err := blobstore.ParseURI(uri)
	if err != nil {
		return nil, &CodecError{Reason: err.Error()}
	}

	store, err := d.storeFor(ctx, u.Scheme)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	payload, err := store.Retrieve(ctx, uri)
	d.metrics.RecordRetrieve(len(payload), time.Since(start), err)
	if err != nil {
		return nil, err
	}

	d.logger.Debug("payload retrieved", "topic", topic, "uri", uri, "bytes", len(payload))

	return payload, nil
}

func (d *Deserializer) storeFor(ctx context.Context, scheme string) (BlobStore, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if store, ok := d.stores[scheme]; ok {
		return store, nil
	}

	backend, ok := backendForScheme(scheme)
	if !ok || backend == BackendMemory {
		return nil, &ConfigurationError{Field: "backend", Reason: fmt.Sprintf("no store can read scheme %q", scheme)}
	}

	store, err := newBackendStore(ctx, d.cfg, backend, false)
	if err != nil {
		return nil, err
	}
	d.stores[scheme] = store
	d.logger.Info("blob store opened", "scheme", scheme, "backend", backend)

	return store, nil
}
