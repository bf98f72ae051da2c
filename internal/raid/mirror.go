// File: internal/raid/mirror.go
package raid

import "fmt"

// Mirror reads are served by backend 0 only. The remaining backends are
// replicas for writes; read fallback to a replica is unimplemented.
func (r *RaidDevice) mirrorRead(p []byte, pos uint64, direct bool) (int, error) {
	return r.defDev().Read(p, pos, direct)
}

// mirrorWrite replicates the write to every backend at the same
// position. The reported count is the smallest count any backend
// accepted, so callers re-issue the tail and the replicas converge.
func (r *RaidDevice) mirrorWrite(p []byte, pos uint64) (int, error) {
	written := len(p)
	for _, b := range r.backends {
		n, err := b.Write(p, pos)
		if err != nil {
			return 0, fmt.Errorf("mirror write on %s: %w", b.Filename(), err)
		}
		if n < written {
			written = n
		}
	}
	return written, nil
}

func (r *RaidDevice) mirrorReset(pos uint64) (bool, uint64, error) {
	var offline bool
	var maxCap uint64
	for _, b := range r.backends {
		off, cap, err := b.Reset(pos)
		if err != nil {
			return false, 0, fmt.Errorf("mirror reset on %s: %w", b.Filename(), err)
		}
		if off {
			offline = true
		}
		maxCap = cap
	}
	return offline, maxCap, nil
}

func (r *RaidDevice) mirrorFinish(pos uint64) error {
	for _, b := range r.backends {
		if err := b.Finish(pos); err != nil {
			return fmt.Errorf("mirror finish on %s: %w", b.Filename(), err)
		}
	}
	return nil
}

func (r *RaidDevice) mirrorClose(pos uint64) error {
	for _, b := range r.backends {
		if err := b.Close(pos); err != nil {
			return fmt.Errorf("mirror close on %s: %w", b.Filename(), err)
		}
	}
	return nil
}

func (r *RaidDevice) mirrorInvalidate(pos uint64, size uint64) error {
	for _, b := range r.backends {
		if err := b.InvalidateCache(pos, size); err != nil {
			return fmt.Errorf("mirror invalidate on %s: %w", b.Filename(), err)
		}
	}
	return nil
}
