//go:build !manifold

// Package manifold binds the bird kernel contract to the Manifold C
// library. Without the "manifold" build tag only this stub is compiled and
// callers fall back to another kernel.
package manifold

import (
	"errors"

	"github.com/chazu/birdomatic/pkg/kernel"
)

// ErrUnavailable reports a binary built without the manifold tag.
var ErrUnavailable = errors.New("manifold kernel not compiled in (rebuild with -tags=manifold)")

// Available reports whether the cgo binding is compiled in.
const Available = false

// New always fails with ErrUnavailable.
func New() (kernel.Kernel, error) {
	return nil, ErrUnavailable
}
