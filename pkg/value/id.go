package value

import (
	"fmt"
	"strconv"
	"strings"
)

// Genre classifies a value by who is expected to care about it.
type Genre uint8

const (
	GenreBasic Genre = iota
	GenreUser
	GenreConfig
	GenreSystem
)

var genreNames = []string{"basic", "user", "config", "system"}

// String returns the genre name used in cache documents.
func (g Genre) String() string {
	if int(g) < len(genreNames) {
		return genreNames[g]
	}
	return "unknown"
}

// ParseGenre converts a genre name back to a Genre.
func ParseGenre(s string) (Genre, error) {
	for i, name := range genreNames {
		if name == s {
			return Genre(i), nil
		}
	}
	return GenreUser, fmt.Errorf("unknown genre %q", s)
}

// ID identifies a value on the network.
type ID struct {
	NodeID         uint8
	CommandClassID uint8
	Instance       uint8
	Index          uint8
	Genre          Genre
}

// String formats the ID as node-class-instance-index, e.g. "5-112-1-3".
// The genre is descriptive and not part of the key.
func (id ID) String() string {
	return fmt.Sprintf("%d-%d-%d-%d", id.NodeID, id.CommandClassID, id.Instance, id.Index)
}

// Key returns the ID with the genre cleared, for use as a map key.
func (id ID) Key() ID {
	id.Genre = 0
	return id
}

// ParseID parses the form produced by ID.String.
func ParseID(s string) (ID, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 4 {
		return ID{}, fmt.Errorf("invalid value id %q: expected node-class-instance-index", s)
	}

	var fields [4]uint8
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 8)
		if err != nil {
			return ID{}, fmt.Errorf("invalid value id %q: %w", s, err)
		}
		fields[i] = uint8(n)
	}

	return ID{
		NodeID:         fields[0],
		CommandClassID: fields[1],
		Instance:       fields[2],
		Index:          fields[3],
	}, nil
}
