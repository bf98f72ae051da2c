// File: internal/device/uri.go
package device

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/deploymenttheory/go-zraid/internal/interfaces"
	"github.com/deploymenttheory/go-zraid/internal/raid"
	"github.com/deploymenttheory/go-zraid/internal/types"
)

// Device URIs name a raid set and its backends:
//
//	raid<mode>:<backend>[,<backend>]*
//	backend := dev:<name> | zonefs:<path> | mem:<name>
//	mode    := c | 0 | 1 | a
//
// dev: backends resolve under the configured device path; zonefs:
// backends name an image file directly; mem: backends are simulated.

// BackendSpec is one parsed backend reference.
type BackendSpec struct {
	Scheme string
	Target string
}

// String returns the backend in URI form.
func (s BackendSpec) String() string {
	return s.Scheme + ":" + s.Target
}

// ParseRaidURI splits a raid device URI into its mode and backend
// specs.
func ParseRaidURI(uri string) (types.RaidMode, []BackendSpec, error) {
	if !strings.HasPrefix(uri, "raid") {
		return 0, nil, fmt.Errorf("uri %q: missing raid prefix", uri)
	}
	rest := uri[len("raid"):]
	sep := strings.Index(rest, ":")
	if sep < 0 {
		return 0, nil, fmt.Errorf("uri %q: missing backend list", uri)
	}

	mode, err := types.ParseRaidMode(rest[:sep])
	if err != nil {
		return 0, nil, fmt.Errorf("uri %q: %w", uri, err)
	}

	var specs []BackendSpec
	for _, part := range strings.Split(rest[sep+1:], ",") {
		scheme, target, ok := strings.Cut(part, ":")
		if !ok || target == "" {
			return 0, nil, fmt.Errorf("uri %q: malformed backend %q", uri, part)
		}
		switch scheme {
		case "dev", "zonefs", "mem":
		default:
			return 0, nil, fmt.Errorf("uri %q: unknown backend scheme %q", uri, scheme)
		}
		specs = append(specs, BackendSpec{Scheme: scheme, Target: target})
	}
	if len(specs) == 0 {
		return 0, nil, fmt.Errorf("uri %q: no backends", uri)
	}
	return mode, specs, nil
}

// OpenBackend builds a backend from its spec. The device is not yet
// opened; the raid layer opens its backends itself.
func OpenBackend(spec BackendSpec, cfg *ZonedConfig) (interfaces.ZonedBackend, error) {
	switch spec.Scheme {
	case "mem":
		return NewMemZoned(spec.String(), cfg)
	case "dev":
		return NewFileZoned(spec.String(), filepath.Join(cfg.DevicePath, spec.Target), cfg)
	case "zonefs":
		return NewFileZoned(spec.String(), spec.Target, cfg)
	}
	return nil, fmt.Errorf("unknown backend scheme %q", spec.Scheme)
}

// OpenURI parses a raid URI and assembles the raid device over its
// backends. The returned device is not yet opened.
func OpenURI(uri string, cfg *ZonedConfig, logger interfaces.Logger) (*raid.RaidDevice, error) {
	mode, specs, err := ParseRaidURI(uri)
	if err != nil {
		return nil, err
	}
	backends := make([]interfaces.ZonedBackend, 0, len(specs))
	for _, spec := range specs {
		b, err := OpenBackend(spec, cfg)
		if err != nil {
			return nil, fmt.Errorf("backend %s: %w", spec, err)
		}
		backends = append(backends, b)
	}
	return raid.NewRaidDevice(mode, backends, logger)
}
