package messages

import (
	"fmt"
	"unicode/utf8"
)

const (
	FlagInline byte = 0 // body is the original payload
	FlagBacked byte = 1 // body is a UTF-8 reference URI

	flagSize = 1
)

// Payload is a decoded record body. It is either the original bytes (inline) or a reference to a
// blob holding them (backed).
type Payload struct {
	Backed bool
	Data   []byte
}

func Inline(data []byte) *Payload {
	return &Payload{Data: data}
}

func Reference(uri string) *Payload {
	return &Payload{Backed: true, Data: []byte(uri)}
}

// URI returns the reference held by a backed payload.
func (p *Payload) URI() (string, error) {
	if !p.Backed {
		return "", &CodecError{Reason: "payload is not backed"}
	}
	if len(p.Data) == 0 {
		return "", &CodecError{Reason: "backed payload has an empty reference"}
	}
	if !utf8.Valid(p.Data) {
		return "", &CodecError{Reason: "reference is not valid UTF-8"}
	}
	return string(p.Data), nil
}

func (p *Payload) flag() byte {
	if p.Backed {
		return FlagBacked
	}
	return FlagInline
}

/*
|flag |body                                   |
|1Byte|original bytes or UTF-8 reference URI  |
a nil payload has no flag and no body (tombstone)
*/
func Encode(p *Payload) []byte {
	if p == nil || (!p.Backed && p.Data == nil) {
		return nil
	}

	encoded := make([]byte, flagSize+len(p.Data))
	encoded[0] = p.flag()
	copy(encoded[flagSize:], p.Data)

	return encoded
}

// Decode reverses Encode. The returned payload shares no memory with `in`.
func Decode(in []byte) (*Payload, error) {
	if in == nil {
		return nil, nil
	}
	if len(in) < flagSize {
		return nil, &CodecError{Reason: "record is truncated, flag byte missing"}
	}

	body := make([]byte, len(in)-flagSize)
	copy(body, in[flagSize:])

	switch in[0] {
	case FlagInline:
		return Inline(body), nil
	case FlagBacked:
		p := &Payload{Backed: true, Data: body}
		if _, err := p.URI(); err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, &CodecError{Reason: fmt.Sprintf("unknown flag 0x%02x, record can only be marked as backed or inline", in[0])}
	}
}

// IsBacked reports whether an encoded record carries a reference. It does not validate the body.
func IsBacked(in []byte) bool {
	return len(in) >= flagSize && in[0] == FlagBacked
}
