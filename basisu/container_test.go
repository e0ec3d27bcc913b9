package basisu_test

import (
	"errors"
	"testing"

	"github.com/basis-universal/basisu-go/basisu"
	"github.com/basis-universal/basisu-go/basisu/basisutest"
)

func TestInspect_MipChain(t *testing.T) {
	c := basisutest.Container{Images: [][]basisutest.Level{basisutest.MipChain(8, 6)}}
	data := c.Bytes()

	info, err := basisu.Inspect(data)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if len(info.Images) != 1 {
		t.Fatalf("images: got %d want 1", len(info.Images))
	}
	want := []basisu.LevelInfo{
		{Width: 8, Height: 6, BlocksX: 2, BlocksY: 2},
		{Width: 4, Height: 3, BlocksX: 1, BlocksY: 1},
		{Width: 2, Height: 1, BlocksX: 1, BlocksY: 1},
		{Width: 1, Height: 1, BlocksX: 1, BlocksY: 1},
	}
	got := info.Images[0].Levels
	if len(got) != len(want) {
		t.Fatalf("levels: got %d want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("level %d: got %+v want %+v", i, got[i], want[i])
		}
	}
	if info.HasAlpha {
		t.Fatalf("HasAlpha = true for an opaque container")
	}
	if info.Header.Version != basisu.SupportedVersion {
		t.Fatalf("version: got %#x", info.Header.Version)
	}
}

func TestInspect_AlphaSlicesFolded(t *testing.T) {
	c := basisutest.Container{
		Images: [][]basisutest.Level{
			{{Width: 16, Height: 16}, {Width: 8, Height: 8}},
			{{Width: 4, Height: 4}},
		},
		HasAlpha: true,
		TexType:  basisu.TexType2DArray,
	}
	info, err := basisu.Inspect(c.Bytes())
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if !info.HasAlpha {
		t.Fatalf("HasAlpha = false")
	}
	if info.Header.TotalSlices != 6 {
		t.Fatalf("TotalSlices: got %d want 6", info.Header.TotalSlices)
	}
	if info.Header.TexType != basisu.TexType2DArray {
		t.Fatalf("TexType: got %v", info.Header.TexType)
	}
	if len(info.Images) != 2 || len(info.Images[0].Levels) != 2 || len(info.Images[1].Levels) != 1 {
		t.Fatalf("unexpected layout: %+v", info.Images)
	}
}

func TestVerifyChecksums(t *testing.T) {
	data := basisutest.Single(32, 32).Bytes()
	if err := basisu.VerifyChecksums(data); err != nil {
		t.Fatalf("VerifyChecksums: %v", err)
	}

	body := append([]byte(nil), data...)
	body[len(body)-1] ^= 0xFF
	if err := basisu.VerifyChecksums(body); !errors.Is(err, basisu.ErrInvalidContainer) {
		t.Fatalf("corrupt body: got %v, want ErrInvalidContainer", err)
	}

	hdr := append([]byte(nil), data...)
	hdr[40] ^= 0x01
	if err := basisu.VerifyChecksums(hdr); !errors.Is(err, basisu.ErrInvalidContainer) {
		t.Fatalf("corrupt header: got %v, want ErrInvalidContainer", err)
	}
}

func TestParseHeader_Rejects(t *testing.T) {
	good := basisutest.Single(8, 8).Bytes()

	badSig := append([]byte(nil), good...)
	badSig[0] = 'x'

	badSize := append([]byte(nil), good...)
	badSize[4] = 76

	noImages := append([]byte(nil), good...)
	noImages[17], noImages[18], noImages[19] = 0, 0, 0

	cases := map[string][]byte{
		"empty":      nil,
		"short":      good[:basisu.HeaderSize-1],
		"truncated":  good[:len(good)-1],
		"signature":  badSig,
		"headersize": badSize,
		"noimages":   noImages,
	}
	for name, data := range cases {
		if _, err := basisu.ParseHeader(data); !errors.Is(err, basisu.ErrInvalidContainer) {
			t.Fatalf("%s: got %v, want ErrInvalidContainer", name, err)
		}
	}
}

func TestHeader_MarshalRoundTrip(t *testing.T) {
	data := basisutest.Single(64, 32).Bytes()
	h, err := basisu.ParseHeader(data)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	enc := basisu.MarshalHeader(h)
	if string(enc[:]) != string(data[:basisu.HeaderSize]) {
		t.Fatalf("MarshalHeader does not reproduce the parsed header")
	}

	slices, err := basisu.ParseSliceDescs(h, data)
	if err != nil {
		t.Fatalf("ParseSliceDescs: %v", err)
	}
	if len(slices) != 1 || slices[0].OrigWidth != 64 || slices[0].OrigHeight != 32 {
		t.Fatalf("unexpected slices: %+v", slices)
	}
	d := basisu.MarshalSliceDesc(slices[0])
	if string(d[:]) != string(data[basisu.HeaderSize:basisu.HeaderSize+basisu.SliceDescSize]) {
		t.Fatalf("MarshalSliceDesc does not reproduce the parsed descriptor")
	}
}
