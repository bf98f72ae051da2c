// File: internal/raid/errors.go
package raid

import "errors"

var (
	// ErrUnsupported is returned for operations a mode cannot service.
	ErrUnsupported = errors.New("operation not supported")

	// ErrGeometryMismatch is returned at open time when backends
	// disagree on block size, zone size, or zone count.
	ErrGeometryMismatch = errors.New("backend geometry mismatch")

	// ErrCrossesBackend is returned for concat requests that would span
	// two backends. Callers must respect zone boundaries, and zones
	// never straddle backends in concat.
	ErrCrossesBackend = errors.New("request crosses backend boundary")

	// ErrAlignment is returned when a zone operation's position or size
	// violates its alignment precondition.
	ErrAlignment = errors.New("misaligned position or size")

	// ErrExhaustedLayout is returned when the auto-mode default layout
	// runs out of backend zones before every logical zone is mapped.
	ErrExhaustedLayout = errors.New("auto layout exhausted backend zones")

	// ErrOutOfRange is returned when a position falls outside the
	// logical address space.
	ErrOutOfRange = errors.New("position out of device range")

	// ErrLayoutInvalid is returned when a loaded zone map or mode map
	// does not fit the device geometry or breaks the distinct-device
	// invariant.
	ErrLayoutInvalid = errors.New("invalid raid layout")
)
