// Package native provides an optional cgo-backed basisu.Backend over the
// native transcoder wrapper library (basis_init, bf_new, bf_transcodeImage
// and friends).
//
// By default this package builds in "disabled" mode (pure Go, no cgo) and
// New returns an error. To enable it, build with:
//
//	-tags basisu_native
//
// with cgo enabled (CGO_ENABLED=1) and the wrapper library on the linker
// path (libbasisulib, or set CGO_LDFLAGS).
package native
