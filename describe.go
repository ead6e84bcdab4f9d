package fabric

import "github.com/context-fabric/fabric/cfm"

// Summary is a JSON-friendly snapshot of a corpus's meta.json, returned by
// Describe for inspection tooling (cmd/cf-inspect) that has no business
// reaching into cfm.Store directly.
type Summary struct {
	Dir           string                     `json:"dir"`
	Version       uint32                     `json:"version"`
	FormatVersion uint32                     `json:"format_version"`
	NodeCount     uint32                     `json:"node_count"`
	SlotCount     uint32                     `json:"slot_count"`
	Types         []cfm.TypeDescriptor       `json:"types"`
	Features      []cfm.FeatureDescriptor    `json:"features"`
	TextFormats   []cfm.TextFormatDescriptor `json:"text_formats"`
	DefaultFormat string                     `json:"default_format"`
	SectionTypes  []string                   `json:"section_types"`
}

// Describe returns a snapshot of the opened corpus's type table, feature
// catalog, and text formats, without materializing any feature data.
func (f *Fabric) Describe() Summary {
	m := f.store.Meta
	return Summary{
		Dir:           f.store.Dir,
		Version:       f.store.Version,
		FormatVersion: m.FormatVersion,
		NodeCount:     m.NodeCount,
		SlotCount:     m.SlotCount,
		Types:         m.Types,
		Features:      m.Features,
		TextFormats:   m.TextFormats,
		DefaultFormat: m.DefaultFormat,
		SectionTypes:  m.SectionTypes,
	}
}
