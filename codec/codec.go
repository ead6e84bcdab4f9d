// Package codec centralizes the encoding used outside the fixed binary
// warp/feature column formats, for values that round-trip a Go value to
// bytes rather than a declared on-disk array (spincache's cursor tokens).
// meta.json is read with encoding/json directly and does not go through
// this package.
//
// Context-Fabric treats codec selection as a breaking-change boundary:
// if you change codecs, bytes produced by an older codec may no longer
// decode, so self-describing formats that use this package record the
// codec's Name() alongside the payload.
package codec

import "fmt"

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// ByName returns a built-in codec by its stable name, for formats that
// record the codec name alongside the payload (e.g. an exported cursor
// token).
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	case "go-json":
		return GoJSON{}, true
	default:
		return nil, false
	}
}

// MustMarshal is a helper for internal tests/benchmarks.
func MustMarshal(c Codec, v any) []byte {
	if c == nil {
		c = Default
	}
	b, err := c.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("codec %s marshal failed: %w", c.Name(), err))
	}
	return b
}
