package cfm

import (
	"encoding/json"
	"fmt"
	"io"
)

// TypeDescriptor is one row of the type table: id, name, level order, and
// whether the type is the slot type.
type TypeDescriptor struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	LevelOrder int    `json:"level_order"` // lower sorts first in canonical order ties
	SlotType   bool   `json:"slot_type"`
}

// FeatureKind distinguishes a node feature from an edge feature.
type FeatureKind string

const (
	FeatureNode FeatureKind = "node"
	FeatureEdge FeatureKind = "edge"
)

// FeatureValueType distinguishes an int-valued feature from a string-valued one.
type FeatureValueType string

const (
	ValueInt FeatureValueType = "int"
	ValueStr FeatureValueType = "str"
)

// FeatureDescriptor is one row of the feature catalog.
type FeatureDescriptor struct {
	Name      string           `json:"name"`
	Kind      FeatureKind      `json:"kind"`
	ValueType FeatureValueType `json:"value_type"`
	Path      string           `json:"path"` // relative to the store directory
	HasValues bool             `json:"has_values,omitempty"` // edge features only
	Compress  string           `json:"compress,omitempty"`   // "", "zstd", "lz4"
}

// TextFormatDescriptor declares one named rendering template.
type TextFormatDescriptor struct {
	Name     string `json:"name"`
	Template string `json:"template"`
}

// StringPoolDescriptor records the name of an interned string table and
// where it is stored.
type StringPoolDescriptor struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// Meta is the root meta.json descriptor for a compiled store version
// directory (spec §4.1).
type Meta struct {
	FormatVersion   uint32                  `json:"format_version"`
	NodeCount       uint32                  `json:"node_count"`       // N
	SlotCount       uint32                  `json:"slot_count"`       // S
	Types           []TypeDescriptor        `json:"types"`
	Features        []FeatureDescriptor     `json:"features"`
	TextFormats     []TextFormatDescriptor  `json:"text_formats"`
	DefaultFormat   string                  `json:"default_format"`
	SectionTypes    []string                `json:"section_types"`    // e.g. ["book","chapter","verse"]
	StringPools     []StringPoolDescriptor  `json:"string_pools"`
	// WarpCompress maps a warp file's base name (e.g. "levUp.csr") to the
	// compressstore algorithm it was written with ("", "zstd", "lz4").
	// Absent entries mean uncompressed.
	WarpCompress map[string]string `json:"warp_compress,omitempty"`
}

// WarpCompressionOf returns the compressstore algorithm declared for a
// warp file, defaulting to uncompressed when unspecified.
func (m *Meta) WarpCompressionOf(name string) string {
	if m.WarpCompress == nil {
		return ""
	}
	return m.WarpCompress[name]
}

// WriteMeta serializes m as indented JSON. meta.json stays on the
// stdlib codec regardless of codec.Default: it's a spec-mandated,
// human-diffable file meant to be read by hand and by other language
// implementations, not an internal byte format this repo alone owns.
func WriteMeta(w io.Writer, m *Meta) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(m)
}

// ReadMeta deserializes meta.json and performs the cheap structural checks
// the loader needs before it can trust node/slot counts.
func ReadMeta(r io.Reader) (*Meta, error) {
	var m Meta
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("decode meta.json: %w", err)
	}
	if m.SlotCount > m.NodeCount {
		return nil, fmt.Errorf("meta.json: slot_count %d exceeds node_count %d", m.SlotCount, m.NodeCount)
	}
	return &m, nil
}

// TypeByName returns the descriptor for name, or ok=false.
func (m *Meta) TypeByName(name string) (TypeDescriptor, bool) {
	for _, t := range m.Types {
		if t.Name == name {
			return t, true
		}
	}
	return TypeDescriptor{}, false
}

// FeatureByName returns the descriptor for name, or ok=false.
func (m *Meta) FeatureByName(name string) (FeatureDescriptor, bool) {
	for _, f := range m.Features {
		if f.Name == name {
			return f, true
		}
	}
	return FeatureDescriptor{}, false
}

// TextFormatByName returns the declared template for name, or ok=false.
func (m *Meta) TextFormatByName(name string) (TextFormatDescriptor, bool) {
	for _, f := range m.TextFormats {
		if f.Name == name {
			return f, true
		}
	}
	return TextFormatDescriptor{}, false
}
