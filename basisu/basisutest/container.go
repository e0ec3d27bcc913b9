package basisutest

import (
	"github.com/basis-universal/basisu-go/basisu"
)

// Level is the size of one synthetic mip level.
type Level struct {
	Width  int
	Height int
}

// Container describes a synthetic .basis file. Slice payloads are filler
// bytes; only the header and slice table are meaningful.
type Container struct {
	Images   [][]Level
	HasAlpha bool
	YFlipped bool
	TexType  basisu.TextureType
}

// Single returns a container with one image of one width x height level.
func Single(width, height int) Container {
	return Container{Images: [][]Level{{{Width: width, Height: height}}}}
}

// MipChain returns the full mip chain of a width x height image, halving
// down to 1x1.
func MipChain(width, height int) []Level {
	var out []Level
	for {
		out = append(out, Level{Width: width, Height: height})
		if width == 1 && height == 1 {
			return out
		}
		width = max(width/2, 1)
		height = max(height/2, 1)
	}
}

// Bytes encodes c with valid header and data checksums.
func (c Container) Bytes() []byte {
	var slices []basisu.SliceDesc
	for img, levels := range c.Images {
		for lvl, l := range levels {
			bx, by := basisu.BlockCount(l.Width, l.Height)
			s := basisu.SliceDesc{
				ImageIndex: uint32(img),
				LevelIndex: uint8(lvl),
				OrigWidth:  uint16(l.Width),
				OrigHeight: uint16(l.Height),
				BlocksX:    uint16(bx),
				BlocksY:    uint16(by),
			}
			slices = append(slices, s)
			if c.HasAlpha {
				s.Flags = basisu.SliceFlagAlphaData
				slices = append(slices, s)
			}
		}
	}

	descEnd := basisu.HeaderSize + len(slices)*basisu.SliceDescSize
	var payload []byte
	for i := range slices {
		n := max(int(slices[i].BlocksX)*int(slices[i].BlocksY), 1)
		chunk := make([]byte, n)
		for j := range chunk {
			chunk[j] = byte(i*31 + j)
		}
		slices[i].FileOfs = uint32(descEnd + len(payload))
		slices[i].FileSize = uint32(n)
		slices[i].DataCRC16 = basisu.CRC16(chunk, 0)
		payload = append(payload, chunk...)
	}

	body := make([]byte, 0, descEnd-basisu.HeaderSize+len(payload))
	for _, s := range slices {
		d := basisu.MarshalSliceDesc(s)
		body = append(body, d[:]...)
	}
	body = append(body, payload...)

	flags := basisu.HeaderFlagETC1S
	if c.HasAlpha {
		flags |= basisu.HeaderFlagHasAlphaSlices
	}
	if c.YFlipped {
		flags |= basisu.HeaderFlagYFlipped
	}
	h := basisu.Header{
		Signature:        basisu.Signature,
		Version:          basisu.SupportedVersion,
		HeaderSize:       basisu.HeaderSize,
		DataSize:         uint32(len(body)),
		DataCRC16:        basisu.CRC16(body, 0),
		TotalSlices:      uint32(len(slices)),
		TotalImages:      uint32(len(c.Images)),
		Flags:            flags,
		TexType:          c.TexType,
		SliceDescFileOfs: basisu.HeaderSize,
	}
	hdr := basisu.MarshalHeader(h)
	h.HeaderCRC16 = basisu.CRC16(hdr[8:], 0)
	hdr = basisu.MarshalHeader(h)

	out := make([]byte, 0, basisu.HeaderSize+len(body))
	out = append(out, hdr[:]...)
	return append(out, body...)
}
