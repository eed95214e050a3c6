// Package definitions loads per-product descriptions of the list values a
// device exposes and registers them for a node.
package definitions

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/urmzd/homai-zwave/pkg/value"
)

// ErrInvalid indicates a definition file is structurally valid YAML but does
// not describe usable values.
var ErrInvalid = errors.New("invalid definition")

// configurationClass is the only command class whose values carry a size.
const configurationClass uint8 = 0x70

// Definition describes the list values of one device model.
type Definition struct {
	Manufacturer string            `yaml:"manufacturer"`
	Product      string            `yaml:"product"`
	Values       []ValueDefinition `yaml:"values"`
}

// ValueDefinition describes a single list value.
type ValueDefinition struct {
	CommandClass uint8        `yaml:"command_class"`
	Instance     uint8        `yaml:"instance,omitempty"`
	Index        uint8        `yaml:"index"`
	Genre        string       `yaml:"genre,omitempty"`
	Label        string       `yaml:"label"`
	Units        string       `yaml:"units,omitempty"`
	Help         string       `yaml:"help,omitempty"`
	ReadOnly     bool         `yaml:"read_only,omitempty"`
	Size         uint8        `yaml:"size,omitempty"`
	Default      *int32       `yaml:"default,omitempty"`
	Items        []value.Item `yaml:"items"`
}

// ID returns the value ID this definition produces on a node.
func (v *ValueDefinition) ID(nodeID uint8) (value.ID, error) {
	genre := value.GenreUser
	if v.Genre != "" {
		g, err := value.ParseGenre(v.Genre)
		if err != nil {
			return value.ID{}, err
		}
		genre = g
	}

	instance := v.Instance
	if instance == 0 {
		instance = 1
	}

	return value.ID{
		NodeID:         nodeID,
		CommandClassID: v.CommandClass,
		Instance:       instance,
		Index:          v.Index,
		Genre:          genre,
	}, nil
}

// initialIndex returns the position of the default code, or 0.
func (v *ValueDefinition) initialIndex() int32 {
	if v.Default == nil {
		return 0
	}
	for i, item := range v.Items {
		if item.Code == *v.Default {
			return int32(i)
		}
	}
	return 0
}

// Parse decodes and validates a definition. Unknown keys are rejected.
func Parse(r io.Reader) (*Definition, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var def Definition
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("failed to parse definition: %w", err)
	}
	if err := def.validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// LoadFile reads a definition from path.
func LoadFile(path string) (*Definition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open definition: %w", err)
	}
	defer func() { _ = f.Close() }()

	def, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

func (d *Definition) validate() error {
	seen := make(map[value.ID]bool)
	for i := range d.Values {
		v := &d.Values[i]
		if v.CommandClass == 0 {
			return fmt.Errorf("%w: value %d has no command_class", ErrInvalid, i)
		}
		if v.Label == "" {
			return fmt.Errorf("%w: value %d has no label", ErrInvalid, i)
		}
		if len(v.Items) == 0 {
			return fmt.Errorf("%w: value %q has no items", ErrInvalid, v.Label)
		}

		if err := v.validateSize(); err != nil {
			return fmt.Errorf("%w: value %q: %v", ErrInvalid, v.Label, err)
		}

		id, err := v.ID(0)
		if err != nil {
			return fmt.Errorf("%w: value %q: %v", ErrInvalid, v.Label, err)
		}
		if seen[id.Key()] {
			return fmt.Errorf("%w: value %q duplicates %s", ErrInvalid, v.Label, id)
		}
		seen[id.Key()] = true
	}
	return nil
}

// validateSize checks the parameter width of a configuration value and that
// every item code fits in it.
func (v *ValueDefinition) validateSize() error {
	if v.Size == 0 {
		return nil
	}
	if v.CommandClass != configurationClass {
		return fmt.Errorf("size is only valid for command class %d", configurationClass)
	}

	var lo, hi int32
	switch v.Size {
	case 1:
		lo, hi = math.MinInt8, math.MaxInt8
	case 2:
		lo, hi = math.MinInt16, math.MaxInt16
	case 4:
		lo, hi = math.MinInt32, math.MaxInt32
	default:
		return fmt.Errorf("size %d is not 1, 2 or 4", v.Size)
	}
	for _, item := range v.Items {
		if item.Code < lo || item.Code > hi {
			return fmt.Errorf("item %q value %d does not fit %d bytes", item.Label, item.Code, v.Size)
		}
	}
	return nil
}

// ParameterSizes returns the configuration parameter widths the definition
// declares, keyed by their value IDs on nodeID.
func (d *Definition) ParameterSizes(nodeID uint8) map[value.ID]uint8 {
	sizes := make(map[value.ID]uint8)
	for i := range d.Values {
		v := &d.Values[i]
		if v.Size == 0 {
			continue
		}
		id, err := v.ID(nodeID)
		if err != nil {
			continue
		}
		sizes[id] = v.Size
	}
	return sizes
}

// Apply registers the defined values on a node and returns how many were
// added. Values the registry already holds are left untouched.
func (d *Definition) Apply(reg *value.Registry, nodeID uint8) (int, error) {
	var added int
	for i := range d.Values {
		v := &d.Values[i]
		id, err := v.ID(nodeID)
		if err != nil {
			return added, err
		}
		if reg.Has(id) {
			continue
		}

		l := value.NewList(id, v.Label, v.ReadOnly, v.Items, v.initialIndex(), nil)
		l.SetUnits(v.Units)
		l.SetHelp(v.Help)
		if err := reg.Add(l); err != nil {
			return added, fmt.Errorf("failed to add %s: %w", id, err)
		}
		added++
	}

	log.Info().
		Str("manufacturer", d.Manufacturer).
		Str("product", d.Product).
		Uint8("node", nodeID).
		Int("added", added).
		Msg("Applied device definition")
	return added, nil
}
