// File: internal/raid/stripe.go
package raid

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/deploymenttheory/go-zraid/internal/types"
)

// The stripe unit is one block. Logical blocks rotate round-robin
// across the backends, and logical zone z is the combination of
// sub-zone z on every backend.

// stripeDevIdx returns the backend serving the block containing pos.
func (r *RaidDevice) stripeDevIdx(pos uint64) int {
	return int((pos / uint64(r.blockSize)) % uint64(r.nrDev()))
}

// stripePos maps a logical position onto the serving backend's address
// space.
func (r *RaidDevice) stripePos(pos uint64) uint64 {
	bs := uint64(r.blockSize)
	return (pos / bs / uint64(r.nrDev()))*bs + pos%bs
}

// StripeTarget exposes the stripe mapping pos -> (device, backend pos).
// The mapping is a bijection from a logical zone onto the disjoint
// union of its sub-zones.
func (r *RaidDevice) StripeTarget(pos uint64) (int, uint64) {
	return r.stripeDevIdx(pos), r.stripePos(pos)
}

// stripeSegment is one block-bounded slice of a striped request.
type stripeSegment struct {
	dev int
	pos uint64
	buf []byte
}

// stripeSegments splits a request into per-block segments in address
// order.
func (r *RaidDevice) stripeSegments(p []byte, pos uint64) []stripeSegment {
	bs := uint64(r.blockSize)
	segs := make([]stripeSegment, 0, uint64(len(p))/bs+2)
	for off := 0; off < len(p); {
		req := len(p) - off
		if limit := int(bs - pos%bs); req > limit {
			req = limit
		}
		segs = append(segs, stripeSegment{
			dev: r.stripeDevIdx(pos),
			pos: r.stripePos(pos),
			buf: p[off : off+req],
		})
		off += req
		pos += uint64(req)
	}
	return segs
}

// stripeRead submits all segments of the request to their backends
// concurrently and awaits them all. Completion order is unconstrained;
// the failure reported is the lowest-index segment's.
func (r *RaidDevice) stripeRead(p []byte, pos uint64, direct bool) (int, error) {
	segs := r.stripeSegments(p, pos)
	counts := make([]int, len(segs))
	errs := make([]error, len(segs))

	var g errgroup.Group
	for i := range segs {
		i := i
		s := segs[i]
		g.Go(func() error {
			counts[i], errs[i] = r.backends[s.dev].Read(s.buf, s.pos, direct)
			return nil
		})
	}
	_ = g.Wait() // the closures report through errs

	read := 0
	for i := range segs {
		if errs[i] != nil {
			return read, fmt.Errorf("stripe read on %s: %w",
				r.backends[segs[i].dev].Filename(), errs[i])
		}
		read += counts[i]
		if counts[i] < len(segs[i].buf) {
			break
		}
	}
	return read, nil
}

// stripeWrite issues per-block segments sequentially in address order:
// sequential-write-required semantics forbid reordering writes within a
// sub-zone.
func (r *RaidDevice) stripeWrite(p []byte, pos uint64) (int, error) {
	written := 0
	for written < len(p) {
		req := len(p) - written
		if limit := int(uint64(r.blockSize) - pos%uint64(r.blockSize)); req > limit {
			req = limit
		}
		dev := r.stripeDevIdx(pos)
		n, err := r.backends[dev].Write(p[written:written+req], r.stripePos(pos))
		if err != nil {
			return written, fmt.Errorf("stripe write on %s: %w", r.backends[dev].Filename(), err)
		}
		written += n
		pos += uint64(n)
		if n < req {
			break
		}
	}
	return written, nil
}

// stripeReset resets sub-zone z on every backend. The returned max
// capacity is the per-backend capacity scaled by the device count,
// applied once after all backends report.
func (r *RaidDevice) stripeReset(pos uint64) (bool, uint64, error) {
	if pos%uint64(r.blockSize) != 0 {
		return false, 0, fmt.Errorf("stripe reset pos %x: %w", pos, ErrAlignment)
	}
	sub := pos / uint64(r.nrDev())
	var offline bool
	var maxCap uint64
	for _, b := range r.backends {
		off, mc, err := b.Reset(sub)
		if err != nil {
			return false, 0, fmt.Errorf("stripe reset on %s: %w", b.Filename(), err)
		}
		if off {
			offline = true
		}
		maxCap = mc
	}
	return offline, maxCap * uint64(r.nrDev()), nil
}

func (r *RaidDevice) stripeFinish(pos uint64) error {
	if pos%uint64(r.blockSize) != 0 {
		return fmt.Errorf("stripe finish pos %x: %w", pos, ErrAlignment)
	}
	sub := pos / uint64(r.nrDev())
	for _, b := range r.backends {
		if err := b.Finish(sub); err != nil {
			return fmt.Errorf("stripe finish on %s: %w", b.Filename(), err)
		}
	}
	return nil
}

func (r *RaidDevice) stripeClose(pos uint64) error {
	if pos%uint64(r.blockSize) != 0 {
		return fmt.Errorf("stripe close pos %x: %w", pos, ErrAlignment)
	}
	sub := pos / uint64(r.nrDev())
	for _, b := range r.backends {
		if err := b.Close(sub); err != nil {
			return fmt.Errorf("stripe close on %s: %w", b.Filename(), err)
		}
	}
	return nil
}

func (r *RaidDevice) stripeInvalidate(pos uint64, size uint64) error {
	per := size / uint64(r.nrDev())
	for _, b := range r.backends {
		if err := b.InvalidateCache(r.stripePos(pos), per); err != nil {
			return fmt.Errorf("stripe invalidate on %s: %w", b.Filename(), err)
		}
	}
	return nil
}

// stripeListZones scales backend 0's zone list to logical geometry.
// Start, capacity, and length scale by the device count; the aggregated
// write pointer is served by ZoneWp, not the list.
func (r *RaidDevice) stripeListZones() (*types.ZoneList, error) {
	zones, err := r.defDev().ListZones()
	if err != nil {
		return nil, err
	}
	n := uint64(r.nrDev())
	scaled := &types.ZoneList{Zones: make([]types.ZoneInfo, len(zones.Zones))}
	for i, z := range zones.Zones {
		z.Start *= n
		z.Capacity *= n
		z.Len *= n
		scaled.Zones[i] = z
	}
	return scaled, nil
}
