//go:build !cgo

package main

import (
	"go.uber.org/zap"

	"github.com/basis-universal/basisu-go/texture"
)

// The WebGPU bindings need cgo; without it textures go straight to r.
func withWebGPU(r texture.Renderer, log *zap.Logger) texture.Renderer {
	log.Debug("webgpu descriptors unavailable without cgo")
	return r
}
