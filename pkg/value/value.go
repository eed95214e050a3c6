// Package value models device values reported by Z-Wave nodes and the
// request/confirm protocol used to change them.
package value

import (
	"github.com/urmzd/homai-zwave/pkg/xmldoc"
)

// Type names used in the "type" attribute of cached values.
const (
	TypeList = "list"
)

// Value is implemented by every concrete value type.
type Value interface {
	ID() ID
	Label() string
	ReadOnly() bool
	Type() string
	WriteXML(el *xmldoc.Element)
}

// Link connects a value to whatever owns it. RequestSet asks the device layer
// to apply the value's pending state and reports whether the request was
// accepted. ValueChanged tells subscribers that the confirmed state changed.
type Link interface {
	RequestSet(v Value) bool
	ValueChanged(v Value)
}

// Base holds the identity and metadata shared by all value types.
type Base struct {
	id       ID
	label    string
	units    string
	help     string
	readOnly bool
	link     Link
}

// NewBase creates the common part of a value.
func NewBase(id ID, label string, readOnly bool, link Link) Base {
	return Base{
		id:       id,
		label:    label,
		readOnly: readOnly,
		link:     link,
	}
}

// readBase populates identity and metadata from a cached Value element.
// Node and command class come from the enclosing elements.
func readBase(nodeID, ccID uint8, el *xmldoc.Element, link Link) Base {
	b := Base{
		id: ID{
			NodeID:         nodeID,
			CommandClassID: ccID,
			Instance:       1,
			Genre:          GenreUser,
		},
		link: link,
	}

	if s, ok := el.Attr("genre"); ok {
		if g, err := ParseGenre(s); err == nil {
			b.id.Genre = g
		}
	}
	if n, ok := el.Uint8Attr("instance"); ok {
		b.id.Instance = n
	}
	if n, ok := el.Uint8Attr("index"); ok {
		b.id.Index = n
	}
	b.label, _ = el.Attr("label")
	b.units, _ = el.Attr("units")
	if ro, ok := el.BoolAttr("read_only"); ok {
		b.readOnly = ro
	}
	if help := el.Find("Help"); help != nil {
		b.help, _ = help.Attr("text")
	}

	return b
}

// writeBase writes identity and metadata to a Value element.
func (b *Base) writeBase(el *xmldoc.Element, typ string) {
	el.SetAttr("type", typ)
	el.SetAttr("genre", b.id.Genre.String())
	el.SetIntAttr("instance", int64(b.id.Instance))
	el.SetIntAttr("index", int64(b.id.Index))
	el.SetAttr("label", b.label)
	el.SetAttr("units", b.units)
	el.SetBoolAttr("read_only", b.readOnly)
	if b.help != "" {
		el.AddChild("Help").SetAttr("text", b.help)
	}
}

// ID returns the value identifier.
func (b *Base) ID() ID { return b.id }

// Label returns the human-readable value name.
func (b *Base) Label() string { return b.label }

// Units returns the measurement units, if any.
func (b *Base) Units() string { return b.units }

// Help returns the help text, if any.
func (b *Base) Help() string { return b.help }

// ReadOnly reports whether the application may change the value.
func (b *Base) ReadOnly() bool { return b.readOnly }

// SetUnits sets the units shown alongside the value.
func (b *Base) SetUnits(units string) { b.units = units }

// SetHelp sets the help text.
func (b *Base) SetHelp(help string) { b.help = help }

// Attach replaces the owner link.
func (b *Base) Attach(link Link) { b.link = link }

// set issues the generic commit request for v.
func (b *Base) set(v Value) bool {
	if b.readOnly || b.link == nil {
		return false
	}
	return b.link.RequestSet(v)
}

// changed fires the generic change notification for v.
func (b *Base) changed(v Value) {
	if b.link != nil {
		b.link.ValueChanged(v)
	}
}
