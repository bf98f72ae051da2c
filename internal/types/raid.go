// File: internal/types/raid.go
package types

import "fmt"

// RaidMode selects the aggregation policy of a raid device or, in auto
// mode, of a single logical zone.
type RaidMode uint32

// Mode tag values are part of the on-disk mode map format and must not
// be reordered.
const (
	RaidModeNone   RaidMode = 0 // passthrough to a single sub-zone
	RaidModeConcat RaidMode = 1 // concatenation of backend address spaces
	RaidModeStripe RaidMode = 2 // block-granular striping
	RaidModeMirror RaidMode = 3 // replication to all backends
	RaidModeAuto   RaidMode = 4 // per-zone policy
)

// MetaZones is the number of logical zones reserved at the start of the
// device for upper-layer metadata. Meta zones are pinned to RaidModeNone
// with an identity mapping and never participate in auto-mode layout.
const MetaZones = 3

// String returns the mode letter used in device URIs and filenames.
func (m RaidMode) String() string {
	switch m {
	case RaidModeNone:
		return "none"
	case RaidModeConcat:
		return "c"
	case RaidModeStripe:
		return "0"
	case RaidModeMirror:
		return "1"
	case RaidModeAuto:
		return "a"
	}
	return fmt.Sprintf("unknown(%d)", uint32(m))
}

// ParseRaidMode parses a mode letter from a device URI.
func ParseRaidMode(s string) (RaidMode, error) {
	switch s {
	case "c":
		return RaidModeConcat, nil
	case "0":
		return RaidModeStripe, nil
	case "1":
		return RaidModeMirror, nil
	case "a":
		return RaidModeAuto, nil
	}
	return 0, fmt.Errorf("unknown raid mode %q", s)
}

// RaidMapItem maps one sub-slot of a logical zone to a backend zone.
// Encoded on stable storage as a 10-byte little-endian record.
type RaidMapItem struct {
	// Index of the backend device holding the sub-zone
	DeviceIdx uint32

	// Zone index on that backend
	ZoneIdx uint32

	// Non-zero when the mapping target went offline
	Invalid uint16
}

// RaidModeItem is the per-logical-zone policy entry of the mode map.
// Encoded on stable storage as an 8-byte little-endian record.
type RaidModeItem struct {
	Mode   RaidMode
	Option uint32
}

const (
	// RaidMapItemSize is the encoded size of a zone map record
	RaidMapItemSize = 10

	// RaidModeItemSize is the encoded size of a mode map record
	RaidModeItemSize = 8
)
