// File: internal/raid/geometry.go
package raid

import (
	"fmt"

	"github.com/deploymenttheory/go-zraid/internal/interfaces"
	"github.com/deploymenttheory/go-zraid/internal/types"
)

// checkGeometry verifies that a backend matches the first backend's
// geometry. Backends in one raid set must agree on block size, zone
// size, and zone count.
func (r *RaidDevice) checkGeometry(b interfaces.ZonedBackend) error {
	def := r.defDev()
	if b.BlockSize() != def.BlockSize() {
		return fmt.Errorf("%s: block size %d != %d: %w",
			b.Filename(), b.BlockSize(), def.BlockSize(), ErrGeometryMismatch)
	}
	if b.ZoneSize() != def.ZoneSize() {
		return fmt.Errorf("%s: zone size %d != %d: %w",
			b.Filename(), b.ZoneSize(), def.ZoneSize(), ErrGeometryMismatch)
	}
	if b.NrZones() != def.NrZones() {
		return fmt.Errorf("%s: zone count %d != %d: %w",
			b.Filename(), b.NrZones(), def.NrZones(), ErrGeometryMismatch)
	}
	return nil
}

// syncBackendInfo derives the logical geometry from the backends for
// the configured mode. Logical zone size is the backend zone size
// multiplied by the device count for stripe and auto; the logical zone
// count is the total backend zone count for concat.
func (r *RaidDevice) syncBackendInfo() {
	def := r.defDev()

	r.totalZones = 0
	for _, b := range r.backends {
		r.totalZones += b.NrZones()
	}

	r.blockSize = def.BlockSize()
	r.bzSize = def.ZoneSize()
	r.zoneSize = def.ZoneSize()
	r.nrZones = def.NrZones()

	switch r.mainMode {
	case types.RaidModeConcat:
		r.nrZones = r.totalZones
	case types.RaidModeStripe, types.RaidModeAuto:
		r.zoneSize = r.bzSize * uint64(r.nrDev())
	case types.RaidModeMirror:
	default:
		r.nrZones = 0
	}
}

// totalBytes returns the logical address space size in bytes.
func (r *RaidDevice) totalBytes() uint64 {
	return uint64(r.nrZones) * r.zoneSize
}

// backendBytes returns one backend's address space size in bytes.
func (r *RaidDevice) backendBytes(idx int) uint64 {
	b := r.backends[idx]
	return uint64(b.NrZones()) * b.ZoneSize()
}
