//go:build cgo

package main

import (
	"go.uber.org/zap"

	"github.com/basis-universal/basisu-go/texture"
	"github.com/basis-universal/basisu-go/texture/webgpu"
)

func withWebGPU(r texture.Renderer, log *zap.Logger) texture.Renderer {
	return &webgpu.Renderer{Next: r, Log: log}
}
