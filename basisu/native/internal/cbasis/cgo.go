//go:build basisu_native && cgo

// Package cbasis is the raw cgo surface of the transcoder wrapper.
package cbasis

/*
#cgo LDFLAGS: -lbasisulib
#cgo linux LDFLAGS: -lstdc++ -lm -pthread
#cgo darwin LDFLAGS: -lc++ -lm

#include <stdlib.h>
#include "bridge.h"
*/
import "C"

import "unsafe"

// maxOutput bounds a single transcoded level.
const maxOutput = 1 << 30

func Init() { C.basis_init() }

// CopyIn returns a C-allocated copy of data. Release it with Free.
func CopyIn(data []byte) unsafe.Pointer { return C.CBytes(data) }

func Free(p unsafe.Pointer) {
	if p != nil {
		C.free(p)
	}
}

func New(data unsafe.Pointer, size int) unsafe.Pointer {
	return C.bf_new((*C.uint8_t)(data), C.int(size))
}

func Close(f unsafe.Pointer) { C.bf_close(f) }

func HasAlpha(f unsafe.Pointer) bool { return bool(C.bf_getHasAlpha(f)) }

func NumImages(f unsafe.Pointer) int { return int(C.bf_getNumImages(f)) }

func NumLevels(f unsafe.Pointer, image int) int {
	return int(C.bf_getNumLevels(f, C.int(image)))
}

func ImageWidth(f unsafe.Pointer, image, level int) int {
	return int(C.bf_getImageWidth(f, C.int(image), C.int(level)))
}

func ImageHeight(f unsafe.Pointer, image, level int) int {
	return int(C.bf_getImageHeight(f, C.int(image), C.int(level)))
}

func TranscodedSize(f unsafe.Pointer, image, level, format int) int {
	return int(C.bf_getImageTranscodedSizeInBytes(f, C.int(image), C.int(level), C.int(format)))
}

func StartTranscoding(f unsafe.Pointer) bool { return bool(C.bf_startTranscoding(f)) }

// TranscodeImage copies the native output into Go memory and frees the
// native buffer on every path.
func TranscodeImage(f unsafe.Pointer, image, level, format int, pvrtcWrap, alphaForOpaque bool) ([]byte, bool) {
	var dst unsafe.Pointer
	var size C.size_t
	ok := bool(C.bf_transcodeImage(f, &dst, &size, C.int(image), C.int(level), C.int(format), C.bool(pvrtcWrap), C.bool(alphaForOpaque)))
	if dst == nil {
		return nil, ok
	}
	defer C.free(dst)
	if !ok || size == 0 || size > C.size_t(maxOutput) {
		return nil, false
	}
	return C.GoBytes(dst, C.int(size)), true
}
