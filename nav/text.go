package nav

import (
	"strconv"
	"strings"

	"github.com/context-fabric/fabric/cfm"
	"github.com/context-fabric/fabric/core"
	"github.com/context-fabric/fabric/feature"
	"github.com/context-fabric/fabric/ferr"
	"github.com/context-fabric/fabric/model"
)

// T renders text and resolves section references.
type T struct {
	Store     *cfm.Store
	Features  *feature.Registry
	slotCount int

	// formats caches parsed templates by name; meta.json's templates are
	// immutable for the Fabric's lifetime, so this is populated once.
	formats map[string]model.TextFormat
}

// NewT constructs a T over store, parsing every declared text format.
func NewT(store *cfm.Store, features *feature.Registry) *T {
	t := &T{Store: store, Features: features, slotCount: int(store.Meta.SlotCount), formats: make(map[string]model.TextFormat)}
	for _, tf := range store.Meta.TextFormats {
		t.formats[tf.Name] = model.ParseTextFormat(tf.Name, tf.Template)
	}
	return t
}

// Text renders the declared format over slots(n), in ascending slot
// order, preserving literal whitespace byte-exactly (spec §3, §4.4,
// invariant 6). An empty fmtName uses meta.json's default_format.
func (t *T) Text(n core.NodeID, fmtName string) (string, error) {
	if fmtName == "" {
		fmtName = t.Store.Meta.DefaultFormat
	}
	tf, ok := t.formats[fmtName]
	if !ok {
		return "", &ferr.UnknownFormat{Name: fmtName}
	}

	var b strings.Builder
	for _, slot := range slotsOf(t.Store, t.slotCount, n) {
		for _, part := range tf.Parts {
			if part.Literal != "" {
				b.WriteString(part.Literal)
				continue
			}
			b.WriteString(t.renderFeatureRef(part.Features, slot))
		}
	}
	return b.String(), nil
}

// renderFeatureRef tries each alternative feature name in order, using
// the first one present on slot.
func (t *T) renderFeatureRef(names []string, slot core.NodeID) string {
	for _, name := range names {
		h, err := t.Features.Load(name)
		if err != nil {
			continue
		}
		v := model.Absent
		switch {
		case h.Int != nil:
			v = h.Int.Get(slot)
		case h.String != nil:
			v = h.String.Get(slot)
		}
		if !v.IsAbsent() {
			return v.String()
		}
	}
	return ""
}

// SectionRef resolves n to a human-readable triple via meta.json's
// declared section types (e.g. "Genesis 1:1"), walking up levUp to find
// the embedding node of each section type and rendering it with its
// section-label feature (the section type's name feature, by convention
// named after the type).
func (t *T) SectionRef(n core.NodeID) (string, error) {
	sections := t.Store.Meta.SectionTypes
	if len(sections) == 0 {
		return "", &ferr.UnknownType{Name: "<no section types declared>"}
	}
	l := L{Store: t.Store}
	parts := make([]string, 0, len(sections))
	for _, typeName := range sections {
		if _, ok := t.Store.Meta.TypeByName(typeName); !ok {
			return "", &ferr.UnknownType{Name: typeName}
		}
		node := n
		if int(t.Store.OType.Values[n-1]) != mustTypeID(t.Store.Meta, typeName) {
			ups, err := l.U(n, typeName)
			if err != nil {
				return "", err
			}
			if len(ups) == 0 {
				parts = append(parts, "?")
				continue
			}
			node = ups[0]
		}
		parts = append(parts, sectionLabel(t, node, typeName))
	}
	return strings.Join(parts, " "), nil
}

func mustTypeID(m *cfm.Meta, name string) int {
	td, _ := m.TypeByName(name)
	return td.ID
}

// sectionLabel renders the label for a section node: its "name" or
// "number" feature if one exists under the type's own name, falling back
// to the bare node id.
func sectionLabel(t *T, node core.NodeID, typeName string) string {
	if h, err := t.Features.Load(typeName); err == nil {
		v := model.Absent
		switch {
		case h.Int != nil:
			v = h.Int.Get(node)
		case h.String != nil:
			v = h.String.Get(node)
		}
		if !v.IsAbsent() {
			return v.String()
		}
	}
	return strconv.Itoa(int(node))
}

func slotsOf(store *cfm.Store, slotCount int, n core.NodeID) []core.NodeID {
	if int(n) <= slotCount {
		return []core.NodeID{n}
	}
	i := int(n) - slotCount - 1
	row := store.OSlots.Row(i)
	out := make([]core.NodeID, len(row))
	for j, v := range row {
		out[j] = core.NodeID(v)
	}
	return out
}
