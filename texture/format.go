package texture

import (
	"fmt"

	"github.com/basis-universal/basisu-go/basisu"
)

// Format is a host texture format.
type Format int

const (
	FormatUnknown Format = iota
	FormatETCRGB4
	FormatDXT1
	FormatBC4
	FormatPVRTCRGB4
	FormatBC7
	FormatETC2RGBA8
	FormatDXT5
	FormatBC5
)

// Formats returns every known host format.
func Formats() []Format {
	return []Format{
		FormatETCRGB4,
		FormatDXT1,
		FormatBC4,
		FormatPVRTCRGB4,
		FormatBC7,
		FormatETC2RGBA8,
		FormatDXT5,
		FormatBC5,
	}
}

func (f Format) String() string {
	switch f {
	case FormatETCRGB4:
		return "ETC_RGB4"
	case FormatDXT1:
		return "DXT1"
	case FormatBC4:
		return "BC4"
	case FormatPVRTCRGB4:
		return "PVRTC_RGB4"
	case FormatBC7:
		return "BC7"
	case FormatETC2RGBA8:
		return "ETC2_RGBA8"
	case FormatDXT5:
		return "DXT5"
	case FormatBC5:
		return "BC5"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// BlockBytes returns the bytes per 4x4 block, or 0 for unknown formats.
func (f Format) BlockBytes() int {
	switch f {
	case FormatETCRGB4, FormatDXT1, FormatBC4, FormatPVRTCRGB4:
		return 8
	case FormatBC7, FormatETC2RGBA8, FormatDXT5, FormatBC5:
		return 16
	default:
		return 0
	}
}

// DataSize returns the size in bytes of a width x height image in f.
// PVRTC data covers at least 8x8 pixels.
func (f Format) DataSize(width, height int) int {
	if width <= 0 || height <= 0 {
		return 0
	}
	bx, by := (width+3)/4, (height+3)/4
	if f == FormatPVRTCRGB4 {
		bx, by = max(bx, 2), max(by, 2)
	}
	return bx * by * f.BlockBytes()
}

// GL enums used by KTX headers.
const (
	glRed  = 0x1903
	glRGB  = 0x1907
	glRGBA = 0x1908
	glRG   = 0x8227
)

// GLInternalFormat returns the OpenGL compressed internal format.
func (f Format) GLInternalFormat() uint32 {
	switch f {
	case FormatETCRGB4:
		return 0x8D64 // GL_ETC1_RGB8_OES
	case FormatDXT1:
		return 0x83F0 // GL_COMPRESSED_RGB_S3TC_DXT1_EXT
	case FormatBC4:
		return 0x8DBB // GL_COMPRESSED_RED_RGTC1
	case FormatPVRTCRGB4:
		return 0x8C00 // GL_COMPRESSED_RGB_PVRTC_4BPPV1_IMG
	case FormatBC7:
		return 0x8E8C // GL_COMPRESSED_RGBA_BPTC_UNORM
	case FormatETC2RGBA8:
		return 0x9278 // GL_COMPRESSED_RGBA8_ETC2_EAC
	case FormatDXT5:
		return 0x83F3 // GL_COMPRESSED_RGBA_S3TC_DXT5_EXT
	case FormatBC5:
		return 0x8DBD // GL_COMPRESSED_RG_RGTC2
	default:
		return 0
	}
}

// GLBaseInternalFormat returns the base (uncompressed) format of f.
func (f Format) GLBaseInternalFormat() uint32 {
	switch f {
	case FormatETCRGB4, FormatDXT1, FormatPVRTCRGB4:
		return glRGB
	case FormatBC4:
		return glRed
	case FormatBC5:
		return glRG
	case FormatBC7, FormatETC2RGBA8, FormatDXT5:
		return glRGBA
	default:
		return 0
	}
}

// FromTranscoder maps a transcoder target format to the host format that
// can hold its output verbatim. The sentinel and placeholder codes, and any
// other undeclared code, fail with basisu.ErrUnsupportedFormat.
func FromTranscoder(f basisu.Format) (Format, error) {
	switch f {
	case basisu.FormatETC1:
		return FormatETCRGB4, nil
	case basisu.FormatBC1:
		return FormatDXT1, nil
	case basisu.FormatBC4:
		return FormatBC4, nil
	case basisu.FormatPVRTC1_4:
		return FormatPVRTCRGB4, nil
	case basisu.FormatBC7M6:
		return FormatBC7, nil
	case basisu.FormatETC2:
		return FormatETC2RGBA8, nil
	case basisu.FormatBC3:
		return FormatDXT5, nil
	case basisu.FormatBC5:
		return FormatBC5, nil
	case basisu.FormatTotal, basisu.FormatInvalid:
		return FormatUnknown, &basisu.Error{Kind: basisu.KindUnsupportedFormat, Op: "map format", Msg: f.String() + " is a placeholder"}
	default:
		return FormatUnknown, &basisu.Error{Kind: basisu.KindUnsupportedFormat, Op: "map format", Msg: f.String()}
	}
}
