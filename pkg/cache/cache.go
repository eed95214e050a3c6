// Package cache reads and writes the device-state cache document: the XML
// snapshot of every node's values that lets a restarted controller skip a full
// interview.
package cache

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/urmzd/homai-zwave/pkg/value"
	"github.com/urmzd/homai-zwave/pkg/xmldoc"
)

const (
	networkTag      = "Network"
	nodeTag         = "Node"
	commandClassTag = "CommandClass"
	valueTag        = "Value"

	// Version is the document format version written by Build.
	Version = 1
)

// ErrNotCache indicates the document root is not a cache element.
var ErrNotCache = errors.New("not a cache document")

// Build writes every value in the registry to a Network document.
func Build(reg *value.Registry, homeID uint32) *xmldoc.Element {
	root := xmldoc.NewElement(networkTag)
	root.SetAttr("home_id", fmt.Sprintf("0x%08x", homeID))
	root.SetIntAttr("version", Version)

	var node, cc *xmldoc.Element
	reg.Each(func(v value.Value) {
		id := v.ID()
		if node == nil || !hasID(node, id.NodeID) {
			node = root.AddChild(nodeTag)
			node.SetIntAttr("id", int64(id.NodeID))
			cc = nil
		}
		if cc == nil || !hasID(cc, id.CommandClassID) {
			cc = node.AddChild(commandClassTag)
			cc.SetIntAttr("id", int64(id.CommandClassID))
		}
		v.WriteXML(cc.AddChild(valueTag))
	})

	return root
}

// BuildNode writes the values of one node to a Node element. It returns nil
// if the node has no values.
func BuildNode(reg *value.Registry, nodeID uint8) *xmldoc.Element {
	var node, cc *xmldoc.Element
	reg.Each(func(v value.Value) {
		id := v.ID()
		if id.NodeID != nodeID {
			return
		}
		if node == nil {
			node = xmldoc.NewElement(nodeTag)
			node.SetIntAttr("id", int64(nodeID))
		}
		if cc == nil || !hasID(cc, id.CommandClassID) {
			cc = node.AddChild(commandClassTag)
			cc.SetIntAttr("id", int64(id.CommandClassID))
		}
		v.WriteXML(cc.AddChild(valueTag))
	})
	return node
}

// HomeID returns the network home ID recorded in a Network document.
func HomeID(root *xmldoc.Element) (uint32, bool) {
	s, ok := root.Attr("home_id")
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, false
	}
	return uint32(n), true
}

// Load registers the values described by a Network document and returns how
// many were added. Values the registry already holds are kept.
func Load(reg *value.Registry, root *xmldoc.Element) (int, error) {
	if root.Name != networkTag {
		return 0, fmt.Errorf("%w: root element %q", ErrNotCache, root.Name)
	}
	if v, ok := root.IntAttr("version"); ok && v > Version {
		log.Warn().Int32("version", v).Msg("Cache written by a newer version, loading what is understood")
	}

	var total int
	for el := range root.Elements() {
		if el.Name != nodeTag {
			continue
		}
		n, err := LoadNode(reg, el)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// LoadNode registers the values described by a Node element.
func LoadNode(reg *value.Registry, el *xmldoc.Element) (int, error) {
	if el.Name != nodeTag {
		return 0, fmt.Errorf("%w: expected %s, got %q", ErrNotCache, nodeTag, el.Name)
	}
	nodeID, ok := el.Uint8Attr("id")
	if !ok {
		log.Warn().Msg("Skipping cached node without a valid id")
		return 0, nil
	}

	var added int
	for ccEl := range el.Elements() {
		if ccEl.Name != commandClassTag {
			continue
		}
		ccID, ok := ccEl.Uint8Attr("id")
		if !ok {
			log.Warn().Uint8("node", nodeID).Msg("Skipping cached command class without a valid id")
			continue
		}

		for valEl := range ccEl.Elements() {
			if valEl.Name != valueTag {
				continue
			}
			v := readValue(nodeID, ccID, valEl)
			if v == nil {
				continue
			}
			if err := reg.Add(v); err != nil {
				if errors.Is(err, value.ErrDuplicateValue) {
					log.Debug().Str("value", v.ID().String()).Msg("Value already registered, cached copy ignored")
					continue
				}
				return added, err
			}
			added++
		}
	}
	return added, nil
}

func readValue(nodeID, ccID uint8, el *xmldoc.Element) value.Value {
	typ, _ := el.Attr("type")
	switch typ {
	case value.TypeList:
		return value.ReadList(nodeID, ccID, el, nil)
	default:
		log.Warn().
			Uint8("node", nodeID).
			Uint8("command_class", ccID).
			Str("type", typ).
			Msg("Skipping cached value of unsupported type")
		return nil
	}
}

// SaveFile writes a document to path.
func SaveFile(path string, root *xmldoc.Element) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	if err := xmldoc.Encode(f, root); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	return f.Close()
}

// LoadFile reads a document from path.
func LoadFile(path string) (*xmldoc.Element, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache file: %w", err)
	}
	defer func() { _ = f.Close() }()

	root, err := xmldoc.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse cache file %s: %w", path, err)
	}
	return root, nil
}

func hasID(el *xmldoc.Element, id uint8) bool {
	n, ok := el.Uint8Attr("id")
	return ok && n == id
}
