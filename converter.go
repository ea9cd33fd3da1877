package hefty

import (
	"fmt"
)

// DataConverter is a connector framework's conversion between its values and bytes.
type DataConverter interface {
	FromConnectData(topic string, value any) ([]byte, error)
	ToConnectData(topic string, data []byte) (any, error)
}

// Converter backs the bytes an inner converter produces and resolves them before the inner converter
// reads them.
type Converter struct {
	inner DataConverter
	serde *Serde
}

func NewConverter(inner DataConverter, serde *Serde) *Converter {
	return &Converter{inner: inner, serde: serde}
}

func (c *Converter) FromConnectData(topic string, value any) ([]byte, error) {
	data, err := c.inner.FromConnectData(topic, value)
	if err != nil {
		return nil, err
	}
	return c.serde.Serialize(topic, data)
}

func (c *Converter) ToConnectData(topic string, data []byte) (any, error) {
	payload, err := c.serde.Deserialize(topic, data)
	if err != nil {
		return nil, err
	}
	return c.inner.ToConnectData(topic, payload)
}

// ByteArrayConverter passes []byte and string values through unchanged.
type ByteArrayConverter struct{}

func (ByteArrayConverter) FromConnectData(_ string, value any) ([]byte, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unable to convert value of type %T to bytes", value)
	}
}

func (ByteArrayConverter) ToConnectData(_ string, data []byte) (any, error) {
	if data == nil {
		return nil, nil
	}
	return data, nil
}
