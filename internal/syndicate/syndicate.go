package syndicate

import (
	"errors"
	"fmt"
	"strings"
)

// ID identifies one of the six trading syndicates an order's visibility is grouped by.
type ID int

const (
	NewLoka ID = iota
	PerrinSequence
	RedVeil
	SteelMeridian
	CephalonSuda
	ArbitersOfHexis
)

var ErrUnknownKey = errors.New("unknown syndicate key")

type info struct {
	Name        string // drop source / display name
	Key         string // command key
	PropertyKey string // settings file key
}

// table order is also the match order for drop sources
var table = [...]info{
	NewLoka:         {Name: "New Loka", Key: "loka", PropertyKey: "visibleNewLoka"},
	PerrinSequence:  {Name: "The Perrin Sequence", Key: "perrin", PropertyKey: "visibleThePerrinSequence"},
	RedVeil:         {Name: "Red Veil", Key: "veil", PropertyKey: "visibleRedVeil"},
	SteelMeridian:   {Name: "Steel Meridian", Key: "meridian", PropertyKey: "visibleSteelMeridian"},
	CephalonSuda:    {Name: "Cephalon Suda", Key: "suda", PropertyKey: "visibleCephalonSuda"},
	ArbitersOfHexis: {Name: "Arbiters of Hexis", Key: "arbiters", PropertyKey: "visibleArbitersOfHexis"},
}

// All returns every syndicate in table order.
func All() []ID {
	ids := make([]ID, len(table))
	for i := range table {
		ids[i] = ID(i)
	}
	return ids
}

func (id ID) valid() bool {
	return id >= 0 && int(id) < len(table)
}

func (id ID) String() string {
	if !id.valid() {
		return fmt.Sprintf("syndicate(%d)", int(id))
	}
	return table[id].Name
}

// Key returns the short name used by the syndicate command.
func (id ID) Key() string {
	if !id.valid() {
		return ""
	}
	return table[id].Key
}

// PropertyKey returns the settings file key holding the syndicate's visibility.
func (id ID) PropertyKey() string {
	if !id.valid() {
		return ""
	}
	return table[id].PropertyKey
}

// Keys lists the command keys in table order.
func Keys() []string {
	keys := make([]string, len(table))
	for i, s := range table {
		keys[i] = s.Key
	}
	return keys
}

// ParseKey resolves a command key such as "loka" or "suda".
func ParseKey(key string) (ID, error) {
	for i, s := range table {
		if s.Key == key {
			return ID(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKey, key)
}

// Match reports the first syndicate whose name is contained in dropSource.
// The check is a plain substring test, so "Red Veil Offerings" matches RedVeil.
func Match(dropSource string) (ID, bool) {
	for i, s := range table {
		if strings.Contains(dropSource, s.Name) {
			return ID(i), true
		}
	}
	return 0, false
}
