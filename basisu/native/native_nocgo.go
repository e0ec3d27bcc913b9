//go:build basisu_native && !cgo

package native

import (
	"errors"

	"github.com/basis-universal/basisu-go/basisu"
)

var errNoCGO = errors.New("basisu/native: basisu_native set but CGO is disabled (set CGO_ENABLED=1)")

func Enabled() bool { return false }

func New() (basisu.Backend, error) {
	return nil, errNoCGO
}
