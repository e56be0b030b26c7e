package packetc

// Presence is the bit flag collected by WithMeta APIs.
type Presence uint8

const (
	PresenceSeen           Presence = 1 << iota // Field value was present on the wire.
	PresenceDefaultApplied                      // Default value was substituted for an unset field.
)

// PresenceMap maps slash paths (for example /owner or /pictures/0) to
// Presence flags.
type PresenceMap map[string]Presence

// Decoded carries a decoded value along with presence metadata. Plain Decode
// cannot distinguish an explicitly written value from a substituted default;
// DecodeWithMeta marks the latter with PresenceDefaultApplied.
type Decoded struct {
	Value    any
	Presence PresenceMap
}
