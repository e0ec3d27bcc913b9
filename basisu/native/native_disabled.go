//go:build !basisu_native

package native

import (
	"errors"

	"github.com/basis-universal/basisu-go/basisu"
)

var errDisabled = errors.New("basisu/native: disabled (build with -tags basisu_native and CGO_ENABLED=1)")

// Enabled reports whether the cgo native backend is available in this build.
func Enabled() bool { return false }

func New() (basisu.Backend, error) {
	return nil, errDisabled
}
