package codec

import (
	"encoding/json"
)

// JSON is the standard-library JSON codec. Used where stdlib
// compatibility matters more than throughput — meta.json in particular
// stays on this codec regardless of Default, since it's a
// spec-mandated, human-diffable file, not an internal handle format.
type JSON struct{}

// Marshal encodes the value to JSON.
func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal decodes the JSON data into v.
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Name returns the unique name of the codec ("json").
func (JSON) Name() string { return "json" }

// Default is the codec used for internal, self-describing byte formats
// (e.g. exported spincache cursor tokens) that aren't meta.json itself.
var Default Codec = GoJSON{}
