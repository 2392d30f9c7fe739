package pulsarschema

import "strings"

// Presence is the bit flag recorded per field when a Record is constructed
// or updated.
type Presence uint8

const (
	PresenceSeen           Presence = 1 << iota // Field appeared in the input.
	PresenceWasNull                             // Field value was null.
	PresenceDefaultApplied                      // Default value was applied.
)

// Has reports whether all bits of flag are set.
func (p Presence) Has(flag Presence) bool { return p&flag == flag }

func (p Presence) String() string {
	if p == 0 {
		return "absent"
	}
	var parts []string
	if p.Has(PresenceSeen) {
		parts = append(parts, "seen")
	}
	if p.Has(PresenceWasNull) {
		parts = append(parts, "null")
	}
	if p.Has(PresenceDefaultApplied) {
		parts = append(parts, "default")
	}
	return strings.Join(parts, "|")
}

// presenceOf computes the flags for one field of a construction input.
func presenceOf(present bool, v, stored any) Presence {
	var p Presence
	if present {
		p |= PresenceSeen
		if v == nil {
			p |= PresenceWasNull
		}
	}
	if (!present || v == nil) && stored != nil {
		p |= PresenceDefaultApplied
	}
	return p
}
