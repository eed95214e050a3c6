// Package xmldoc provides a small, order-preserving XML element tree used for
// the device-state cache documents.
package xmldoc

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"iter"
	"strconv"
)

// ErrNoRoot is returned by Parse when the input holds no element.
var ErrNoRoot = errors.New("document has no root element")

// Element is a single XML element with its attributes and child elements.
// Character data and comments are not kept.
type Element struct {
	Name     string
	Attrs    []xml.Attr
	Children []*Element
}

// NewElement creates an empty element with the given tag name.
func NewElement(name string) *Element {
	return &Element{Name: name}
}

// Attr returns the value of the named attribute.
func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// IntAttr parses the named attribute as a signed 32-bit decimal integer.
// ok is false when the attribute is absent or malformed.
func (e *Element) IntAttr(name string) (int32, bool) {
	s, ok := e.Attr(name)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, false
	}
	return int32(n), true
}

// Uint8Attr parses the named attribute as an unsigned byte.
func (e *Element) Uint8Attr(name string) (uint8, bool) {
	s, ok := e.Attr(name)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, false
	}
	return uint8(n), true
}

// BoolAttr parses the named attribute as "true" or "false".
func (e *Element) BoolAttr(name string) (bool, bool) {
	s, ok := e.Attr(name)
	if !ok {
		return false, false
	}
	switch s {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

// SetAttr sets an attribute, replacing an existing one with the same name.
func (e *Element) SetAttr(name, value string) {
	for i := range e.Attrs {
		if e.Attrs[i].Name.Local == name {
			e.Attrs[i].Value = value
			return
		}
	}
	e.Attrs = append(e.Attrs, xml.Attr{Name: xml.Name{Local: name}, Value: value})
}

// SetIntAttr sets an attribute to the decimal form of n.
func (e *Element) SetIntAttr(name string, n int64) {
	e.SetAttr(name, strconv.FormatInt(n, 10))
}

// SetBoolAttr sets an attribute to "true" or "false".
func (e *Element) SetBoolAttr(name string, b bool) {
	e.SetAttr(name, strconv.FormatBool(b))
}

// AddChild appends a new child element and returns it.
func (e *Element) AddChild(name string) *Element {
	child := NewElement(name)
	e.Children = append(e.Children, child)
	return child
}

// Elements yields the direct children in document order.
func (e *Element) Elements() iter.Seq[*Element] {
	return func(yield func(*Element) bool) {
		for _, c := range e.Children {
			if !yield(c) {
				return
			}
		}
	}
}

// Find returns the first direct child with the given tag name, or nil.
func (e *Element) Find(name string) *Element {
	for c := range e.Elements() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Parse reads a document and returns its root element.
func Parse(r io.Reader) (*Element, error) {
	dec := xml.NewDecoder(r)

	var stack []*Element
	var root *Element
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := &Element{Name: t.Name.Local}
			for _, a := range t.Attr {
				el.Attrs = append(el.Attrs, xml.Attr{Name: xml.Name{Local: a.Name.Local}, Value: a.Value})
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("decode xml: multiple root elements")
				}
				root = el
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, el)
			}
			stack = append(stack, el)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		}
	}

	if root == nil {
		return nil, ErrNoRoot
	}
	return root, nil
}

// Encode writes el and its subtree as an indented document with an XML header.
func Encode(w io.Writer, el *Element) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := encodeElement(enc, el); err != nil {
		return fmt.Errorf("encode xml: %w", err)
	}
	if err := enc.Flush(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func encodeElement(enc *xml.Encoder, el *Element) error {
	start := xml.StartElement{Name: xml.Name{Local: el.Name}, Attr: el.Attrs}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	for _, c := range el.Children {
		if err := encodeElement(enc, c); err != nil {
			return err
		}
	}
	return enc.EncodeToken(start.End())
}
