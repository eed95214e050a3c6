package value

import (
	"iter"

	"github.com/urmzd/homai-zwave/pkg/xmldoc"
)

// NoIndex is returned by lookups that find nothing and by Pending before any
// request has been made.
const NoIndex int32 = -1

const itemTag = "Item"

// Item is one legal choice of a list value.
type Item struct {
	Label string `json:"label" yaml:"label"`
	Code  int32  `json:"value" yaml:"value"`
}

// List is a value whose contents are one of a fixed, ordered set of items.
//
// The confirmed index only moves when the device reports it through
// OnConfirmedChange. SetByLabel and SetByCode record a pending index and ask the
// link to commit it. List does no locking of its own; the owner serializes
// access.
type List struct {
	Base
	items   []Item
	index   int32
	pending int32
}

// NewList creates a list value. The items are copied and never change.
func NewList(id ID, label string, readOnly bool, items []Item, index int32, link Link) *List {
	return &List{
		Base:    NewBase(id, label, readOnly, link),
		items:   append([]Item(nil), items...),
		index:   index,
		pending: NoIndex,
	}
}

// ReadList builds a list value from a cached Value element. Missing or
// malformed attributes fall back to defaults; it never fails.
func ReadList(nodeID, ccID uint8, el *xmldoc.Element, link Link) *List {
	l := &List{
		Base:    readBase(nodeID, ccID, el, link),
		pending: NoIndex,
	}

	for item := range ItemsOf(el) {
		l.items = append(l.items, item)
	}

	if idx, ok := el.IntAttr("value"); ok {
		l.index = idx
	}

	return l
}

// ItemsOf yields the items described by the Item children of el, in
// document order. Other children are skipped.
func ItemsOf(el *xmldoc.Element) iter.Seq[Item] {
	return func(yield func(Item) bool) {
		for child := range el.Elements() {
			if child.Name != itemTag {
				continue
			}
			label, _ := child.Attr("label")
			code, _ := child.IntAttr("value")
			if !yield(Item{Label: label, Code: code}) {
				return
			}
		}
	}
}

// Type returns TypeList.
func (l *List) Type() string { return TypeList }

// WriteXML writes the definition and confirmed index to el.
// The pending index is not persisted.
func (l *List) WriteXML(el *xmldoc.Element) {
	l.writeBase(el, TypeList)
	el.SetIntAttr("value", int64(l.index))

	for _, item := range l.items {
		child := el.AddChild(itemTag)
		child.SetAttr("label", item.Label)
		child.SetIntAttr("value", int64(item.Code))
	}
}

// Items returns a copy of the items.
func (l *List) Items() []Item {
	return append([]Item(nil), l.items...)
}

// Len returns the number of items.
func (l *List) Len() int { return len(l.items) }

// Index returns the confirmed index.
func (l *List) Index() int32 { return l.index }

// Pending returns the last requested index, or NoIndex.
func (l *List) Pending() int32 { return l.pending }

// Selected returns the confirmed item. ok is false when the confirmed index
// is outside the item list.
func (l *List) Selected() (Item, bool) {
	return l.itemAt(l.index)
}

// PendingItem returns the item of the last request.
func (l *List) PendingItem() (Item, bool) {
	return l.itemAt(l.pending)
}

func (l *List) itemAt(i int32) (Item, bool) {
	if i < 0 || int(i) >= len(l.items) {
		return Item{}, false
	}
	return l.items[i], true
}

// IndexOfLabel returns the index of the first item with the given label, or
// NoIndex.
func (l *List) IndexOfLabel(label string) int32 {
	for i, item := range l.items {
		if item.Label == label {
			return int32(i)
		}
	}
	return NoIndex
}

// IndexOfCode returns the index of the first item with the given code, or
// NoIndex.
func (l *List) IndexOfCode(code int32) int32 {
	for i, item := range l.items {
		if item.Code == code {
			return int32(i)
		}
	}
	return NoIndex
}

// SetByLabel requests the item with the given label. It returns false if no
// item matches, true without contacting the device if the item is already
// confirmed, and otherwise the result of the commit request.
func (l *List) SetByLabel(label string) bool {
	return l.request(l.IndexOfLabel(label))
}

// SetByCode requests the item with the given code. See SetByLabel.
func (l *List) SetByCode(code int32) bool {
	return l.request(l.IndexOfCode(code))
}

func (l *List) request(index int32) bool {
	if index < 0 {
		return false
	}
	if index == l.index {
		return true
	}

	// pending is left in place if the commit fails
	l.pending = index
	return l.set(l)
}

// OnConfirmedChange records the index reported by the device and notifies
// subscribers if it differs from the confirmed one.
func (l *List) OnConfirmedChange(index int32) {
	if index == l.index {
		return
	}
	l.index = index
	l.changed(l)
}

// ListState is a point-in-time copy of a list value.
type ListState struct {
	ID       ID     `json:"-"`
	Label    string `json:"label"`
	Genre    string `json:"genre"`
	Units    string `json:"units,omitempty"`
	Help     string `json:"help,omitempty"`
	ReadOnly bool   `json:"read_only"`
	Items    []Item `json:"items"`
	Index    int32  `json:"index"`
	Pending  int32  `json:"pending"`
	Selected *Item  `json:"selected,omitempty"`
}

// State returns a snapshot of l.
func (l *List) State() ListState {
	s := ListState{
		ID:       l.id,
		Label:    l.label,
		Genre:    l.id.Genre.String(),
		Units:    l.units,
		Help:     l.help,
		ReadOnly: l.readOnly,
		Items:    l.Items(),
		Index:    l.index,
		Pending:  l.pending,
	}
	if item, ok := l.Selected(); ok {
		s.Selected = &item
	}
	return s
}
