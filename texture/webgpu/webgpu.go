// Package webgpu maps host texture formats onto WebGPU and builds the
// descriptors needed to upload transcoded block data verbatim.
package webgpu

import (
	"github.com/cockroachdb/errors"
	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"

	"github.com/basis-universal/basisu-go/basisu"
	"github.com/basis-universal/basisu-go/texture"
)

// TextureFormat returns the WebGPU format holding f. PVRTC has no WebGPU
// equivalent.
func TextureFormat(f texture.Format) (wgpu.TextureFormat, error) {
	switch f {
	case texture.FormatETCRGB4:
		// ETC1 blocks are valid ETC2 RGB8 blocks.
		return wgpu.TextureFormatETC2RGB8Unorm, nil
	case texture.FormatDXT1:
		return wgpu.TextureFormatBC1RGBAUnorm, nil
	case texture.FormatBC4:
		return wgpu.TextureFormatBC4RUnorm, nil
	case texture.FormatBC7:
		return wgpu.TextureFormatBC7RGBAUnorm, nil
	case texture.FormatETC2RGBA8:
		return wgpu.TextureFormatETC2RGBA8Unorm, nil
	case texture.FormatDXT5:
		return wgpu.TextureFormatBC3RGBAUnorm, nil
	case texture.FormatBC5:
		return wgpu.TextureFormatBC5RGUnorm, nil
	default:
		return wgpu.TextureFormatUndefined, &basisu.Error{Kind: basisu.KindUnsupportedFormat, Op: "webgpu format", Msg: f.String()}
	}
}

// FeatureName returns the WebGPU device feature for f.
func FeatureName(f texture.Feature) (wgpu.FeatureName, error) {
	switch f {
	case texture.FeatureBC:
		return wgpu.FeatureNameTextureCompressionBC, nil
	case texture.FeatureETC2:
		return wgpu.FeatureNameTextureCompressionETC2, nil
	default:
		return 0, errors.Newf("webgpu: no device feature for %v", f)
	}
}

// Features converts device features into the compression families they
// enable. Features unrelated to block compression are dropped.
func Features(names []wgpu.FeatureName) []texture.Feature {
	var out []texture.Feature
	for _, n := range names {
		switch n {
		case wgpu.FeatureNameTextureCompressionBC:
			out = append(out, texture.FeatureBC)
		case wgpu.FeatureNameTextureCompressionETC2:
			out = append(out, texture.FeatureETC2)
		}
	}
	return out
}

// RequiredFeature returns the device feature needed to sample f.
func RequiredFeature(f texture.Format) (wgpu.FeatureName, error) {
	tf, err := texture.RequiredFeature(f)
	if err != nil {
		return 0, err
	}
	return FeatureName(tf)
}

// SelectFormat picks the transcoder target for a device with the given
// features.
func SelectFormat(features []wgpu.FeatureName, hasAlpha bool) (basisu.Format, error) {
	return texture.SelectFormat(Features(features), hasAlpha)
}

// Descriptor returns the texture descriptor for uploading t.
func Descriptor(t *texture.Texture2D) (wgpu.TextureDescriptor, error) {
	tf, err := TextureFormat(t.Format())
	if err != nil {
		return wgpu.TextureDescriptor{}, err
	}
	return wgpu.TextureDescriptor{
		Label: t.Name,
		Size: wgpu.Extent3D{
			Width:              uint32(t.Width()),
			Height:             uint32(t.Height()),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        tf,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
	}, nil
}

// DataLayout returns the layout of t's block data: one row is one row of
// 4x4 blocks.
func DataLayout(t *texture.Texture2D) wgpu.TextureDataLayout {
	bx, by := basisu.BlockCount(t.Width(), t.Height())
	return wgpu.TextureDataLayout{
		Offset:       0,
		BytesPerRow:  uint32(bx * t.Format().BlockBytes()),
		RowsPerImage: uint32(by),
	}
}

// Renderer checks that every texture fits a WebGPU upload and logs the
// descriptor before passing the texture on to Next.
type Renderer struct {
	Next texture.Renderer
	Log  *zap.Logger
}

func (r *Renderer) Upload(t *texture.Texture2D) error {
	d, err := Descriptor(t)
	if err != nil {
		return err
	}
	l := DataLayout(t)
	if n := int(l.BytesPerRow * l.RowsPerImage); n != len(t.Data()) {
		return errors.Newf("webgpu: %s: layout covers %d bytes, texture has %d", t.Name, n, len(t.Data()))
	}
	r.Log.Debug("webgpu texture",
		zap.String("label", d.Label),
		zap.Stringer("format", d.Format),
		zap.Uint32("width", d.Size.Width),
		zap.Uint32("height", d.Size.Height),
		zap.Uint32("bytes_per_row", l.BytesPerRow),
		zap.Uint32("rows_per_image", l.RowsPerImage))
	return r.Next.Upload(t)
}
