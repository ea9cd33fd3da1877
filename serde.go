package hefty

import (
	"context"
)

// Serde implements the two-function serializer contract of message-queue clients:
// Serialize(topic, data) and Deserialize(topic, data).
type Serde struct {
	serializer   *Serializer
	deserializer *Deserializer
	ctx          context.Context
	partitioner  Partitioner
}

// NewSerde builds a serializer and deserializer sharing cfg and opts. A store passed with WithStore
// is used for both directions.
func NewSerde(ctx context.Context, cfg Config, opts ...Option) (*Serde, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}

	serializer, err := NewSerializer(ctx, cfg, opts...)
	if err != nil {
		return nil, err
	}

	// the deserializer reads with the serializer's store instead of opening a second client
	deserializer, err := NewDeserializer(cfg, append(opts, WithStore(serializer.Store()))...)
	if err != nil {
		return nil, err
	}

	return &Serde{
		serializer:   serializer,
		deserializer: deserializer,
		ctx:          o.ctx,
		partitioner:  o.partitioner,
	}, nil
}

func (s *Serde) Serialize(topic string, data []byte) ([]byte, error) {
	return s.serializer.Serialize(s.ctx, topic, s.partitioner(topic, data), data)
}

func (s *Serde) Deserialize(topic string, data []byte) ([]byte, error) {
	return s.deserializer.Deserialize(s.ctx, topic, data)
}
