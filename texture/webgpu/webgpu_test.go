package webgpu_test

import (
	"errors"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"

	"github.com/basis-universal/basisu-go/basisu"
	"github.com/basis-universal/basisu-go/texture"
	"github.com/basis-universal/basisu-go/texture/webgpu"
)

func TestTextureFormat(t *testing.T) {
	want := map[texture.Format]wgpu.TextureFormat{
		texture.FormatETCRGB4:   wgpu.TextureFormatETC2RGB8Unorm,
		texture.FormatDXT1:      wgpu.TextureFormatBC1RGBAUnorm,
		texture.FormatBC4:       wgpu.TextureFormatBC4RUnorm,
		texture.FormatBC7:       wgpu.TextureFormatBC7RGBAUnorm,
		texture.FormatETC2RGBA8: wgpu.TextureFormatETC2RGBA8Unorm,
		texture.FormatDXT5:      wgpu.TextureFormatBC3RGBAUnorm,
		texture.FormatBC5:       wgpu.TextureFormatBC5RGUnorm,
	}
	for f, w := range want {
		got, err := webgpu.TextureFormat(f)
		if err != nil || got != w {
			t.Fatalf("TextureFormat(%v): got %v, %v", f, got, err)
		}
		if _, err := webgpu.RequiredFeature(f); err != nil {
			t.Fatalf("RequiredFeature(%v): %v", f, err)
		}
	}
	if _, err := webgpu.TextureFormat(texture.FormatPVRTCRGB4); !errors.Is(err, basisu.ErrUnsupportedFormat) {
		t.Fatalf("TextureFormat(PVRTC): got %v, want ErrUnsupportedFormat", err)
	}
}

func TestSelectFormat(t *testing.T) {
	bc := wgpu.FeatureNameTextureCompressionBC
	etc := wgpu.FeatureNameTextureCompressionETC2
	cases := []struct {
		features []wgpu.FeatureName
		alpha    bool
		want     basisu.Format
	}{
		{[]wgpu.FeatureName{bc}, false, basisu.FormatBC1},
		{[]wgpu.FeatureName{bc}, true, basisu.FormatBC3},
		{[]wgpu.FeatureName{etc}, false, basisu.FormatETC1},
		{[]wgpu.FeatureName{etc}, true, basisu.FormatETC2},
		{[]wgpu.FeatureName{etc, bc}, false, basisu.FormatBC1},
	}
	for _, c := range cases {
		got, err := webgpu.SelectFormat(c.features, c.alpha)
		if err != nil || got != c.want {
			t.Fatalf("SelectFormat(%v, %v): got %v, %v want %v", c.features, c.alpha, got, err, c.want)
		}
		hf, err := texture.FromTranscoder(got)
		if err != nil {
			t.Fatalf("FromTranscoder(%v): %v", got, err)
		}
		if _, err := webgpu.TextureFormat(hf); err != nil {
			t.Fatalf("selected %v has no WebGPU format: %v", got, err)
		}
	}
	if _, err := webgpu.SelectFormat(nil, false); !errors.Is(err, basisu.ErrUnsupportedFormat) {
		t.Fatalf("SelectFormat(nil): got %v", err)
	}
}

func TestFeatures(t *testing.T) {
	names := []wgpu.FeatureName{wgpu.FeatureNameDepthClipControl, wgpu.FeatureNameTextureCompressionETC2, wgpu.FeatureNameTextureCompressionBC}
	got := webgpu.Features(names)
	if len(got) != 2 || got[0] != texture.FeatureETC2 || got[1] != texture.FeatureBC {
		t.Fatalf("Features: got %v", got)
	}
	for _, f := range got {
		n, err := webgpu.FeatureName(f)
		if err != nil || webgpu.Features([]wgpu.FeatureName{n})[0] != f {
			t.Fatalf("FeatureName(%v): got %v, %v", f, n, err)
		}
	}
	if _, err := webgpu.FeatureName(texture.FeatureNone); err == nil {
		t.Fatalf("FeatureName(none): want error")
	}
}

func TestDescriptorAndLayout(t *testing.T) {
	tex, err := texture.NewTexture2D(20, 12, texture.FormatBC7)
	if err != nil {
		t.Fatalf("NewTexture2D: %v", err)
	}
	tex.Name = "kodim20"

	d, err := webgpu.Descriptor(tex)
	if err != nil {
		t.Fatalf("Descriptor: %v", err)
	}
	if d.Label != "kodim20" || d.Size.Width != 20 || d.Size.Height != 12 || d.Size.DepthOrArrayLayers != 1 {
		t.Fatalf("descriptor: %+v", d)
	}
	if d.Format != wgpu.TextureFormatBC7RGBAUnorm || d.MipLevelCount != 1 || d.SampleCount != 1 {
		t.Fatalf("descriptor format/levels: %+v", d)
	}
	if d.Usage&wgpu.TextureUsageCopyDst == 0 {
		t.Fatalf("descriptor lacks CopyDst usage")
	}

	l := webgpu.DataLayout(tex)
	if l.BytesPerRow != 5*16 || l.RowsPerImage != 3 {
		t.Fatalf("layout: %+v", l)
	}
	if int(l.BytesPerRow*l.RowsPerImage) != tex.DataSize() {
		t.Fatalf("layout covers %d bytes, texture has %d", l.BytesPerRow*l.RowsPerImage, tex.DataSize())
	}

	pv, _ := texture.NewTexture2D(8, 8, texture.FormatPVRTCRGB4)
	if _, err := webgpu.Descriptor(pv); !errors.Is(err, basisu.ErrUnsupportedFormat) {
		t.Fatalf("Descriptor(PVRTC): got %v", err)
	}
}

func TestRenderer(t *testing.T) {
	var rec texture.Recorder
	r := &webgpu.Renderer{Next: &rec, Log: zap.NewNop()}

	tex, _ := texture.NewTexture2D(8, 8, texture.FormatDXT5)
	if err := tex.LoadRawTextureData(make([]byte, tex.DataSize())); err != nil {
		t.Fatalf("LoadRawTextureData: %v", err)
	}
	if err := tex.Apply(r); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if n := len(rec.Uploads()); n != 1 {
		t.Fatalf("uploads: got %d want 1", n)
	}

	pv, _ := texture.NewTexture2D(8, 8, texture.FormatPVRTCRGB4)
	if err := pv.LoadRawTextureData(make([]byte, pv.DataSize())); err != nil {
		t.Fatalf("LoadRawTextureData: %v", err)
	}
	if err := pv.Apply(r); !errors.Is(err, basisu.ErrUnsupportedFormat) {
		t.Fatalf("Apply(PVRTC): got %v", err)
	}
	if n := len(rec.Uploads()); n != 1 {
		t.Fatalf("PVRTC reached the next renderer")
	}
}
