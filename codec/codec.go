package codec

import (
	"errors"
	"fmt"
)

// Sentinel errors for codec operations.
var (
	ErrUnknownCodec    = errors.New("codec: unknown codec")
	ErrPayloadTooLarge = errors.New("codec: payload too large")
)

// Codec encodes and decodes values of type V.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Determinism: Decode(Encode(v)) must yield a value equal to v for the
// fields the codec supports.
type Codec[V any] interface {
	// Name returns the codec identifier ("json", "msgpack", "cbor").
	Name() string

	Encode(v V) ([]byte, error)
	Decode(b []byte) (V, error)
}

// Names lists the codec identifiers accepted by ByName.
var Names = []string{"json", "msgpack", "cbor"}

// ByName returns the codec registered under name. An empty name selects JSON.
func ByName[V any](name string) (Codec[V], error) {
	switch name {
	case "", "json":
		return JSON[V]{}, nil
	case "msgpack":
		return Msgpack[V]{}, nil
	case "cbor":
		c, err := NewCBOR[V]()
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
	}
}

// Limit wraps a codec and rejects payloads larger than Max bytes on Decode.
// Max <= 0 disables the limit.
type Limit[V any] struct {
	Inner Codec[V]
	Max   int
}

func (l Limit[V]) Name() string { return l.Inner.Name() }

func (l Limit[V]) Encode(v V) ([]byte, error) { return l.Inner.Encode(v) }

func (l Limit[V]) Decode(b []byte) (V, error) {
	if l.Max > 0 && len(b) > l.Max {
		var zero V
		return zero, fmt.Errorf("%w: %d > %d", ErrPayloadTooLarge, len(b), l.Max)
	}
	return l.Inner.Decode(b)
}

var _ Codec[struct{}] = Limit[struct{}]{}
