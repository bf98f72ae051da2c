// File: internal/interfaces/zoned_backend.go
package interfaces

import (
	"github.com/deploymenttheory/go-zraid/internal/types"
)

// ZonedBackend is the contract every zoned block device backend must
// satisfy. A raid device implements the same interface and composes
// backends, so raid sets can nest.
type ZonedBackend interface {
	// Open prepares the device for I/O and reports its open/active zone
	// limits. It must be called before any other operation.
	Open(readonly bool, exclusive bool) (maxActiveZones uint32, maxOpenZones uint32, err error)

	// Read reads up to len(p) bytes at the byte offset pos. Short reads
	// are permitted. direct requests bypassing the page cache.
	Read(p []byte, pos uint64, direct bool) (int, error)

	// Write writes len(p) bytes at the byte offset pos, which must equal
	// the write pointer of the containing zone. The write pointer
	// advances by exactly the returned count. Short writes are permitted.
	Write(p []byte, pos uint64) (int, error)

	// Reset rewinds the zone containing pos to its start. It reports
	// whether the zone went offline and the zone's max capacity.
	Reset(pos uint64) (offline bool, maxCapacity uint64, err error)

	// Finish transitions the zone containing pos to FULL.
	Finish(pos uint64) error

	// Close transitions the zone containing pos to CLOSED.
	Close(pos uint64) error

	// InvalidateCache drops cached pages for the byte range. size must
	// be block-aligned.
	InvalidateCache(pos uint64, size uint64) error

	// ListZones returns a snapshot of all zone descriptors in order.
	ListZones() (*types.ZoneList, error)

	// Per-zone predicates against a snapshot previously returned by
	// ListZones.
	ZoneIsSwr(zones *types.ZoneList, idx uint32) bool
	ZoneIsOffline(zones *types.ZoneList, idx uint32) bool
	ZoneIsWritable(zones *types.ZoneList, idx uint32) bool
	ZoneIsActive(zones *types.ZoneList, idx uint32) bool
	ZoneIsOpen(zones *types.ZoneList, idx uint32) bool

	// Per-zone accessors against a snapshot.
	ZoneStart(zones *types.ZoneList, idx uint32) uint64
	ZoneMaxCapacity(zones *types.ZoneList, idx uint32) uint64
	ZoneWp(zones *types.ZoneList, idx uint32) uint64

	// BlockSize returns the device block size in bytes.
	BlockSize() uint32

	// ZoneSize returns the zone size in bytes.
	ZoneSize() uint64

	// NrZones returns the number of zones on the device.
	NrZones() uint32

	// Filename returns the device's reported name.
	Filename() string

	// Shutdown releases all device resources.
	Shutdown() error
}
