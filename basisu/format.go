package basisu

import "fmt"

// Format is a transcoder target format, with the same numeric codes as the
// native transcoder_texture_format enum.
type Format int32

const (
	// FormatETC1 is ETC1 RGB, 8 bytes per 4x4 block.
	FormatETC1 Format = iota
	// FormatBC1 is BC1 (DXT1) RGB, 8 bytes per block.
	FormatBC1
	// FormatBC4 is BC4 single channel, 8 bytes per block.
	FormatBC4
	// FormatPVRTC1_4 is PVRTC1 4bpp RGB. Opaque only.
	FormatPVRTC1_4
	// FormatBC7M6 is BC7 mode 6. Opaque only.
	FormatBC7M6
	// FormatETC2 is an ETC2_EAC_A8 block followed by an ETC1 block.
	FormatETC2
	// FormatBC3 is a BC4 block followed by a BC1 block.
	FormatBC3
	// FormatBC5 is two BC4 blocks.
	FormatBC5

	// FormatTotal is the native enum's count sentinel. It is not a format.
	FormatTotal
)

// FormatInvalid is the placeholder the wrapper uses for "no format".
const FormatInvalid Format = -1

// Formats returns the eight supported target formats in native code order.
func Formats() []Format {
	return []Format{
		FormatETC1,
		FormatBC1,
		FormatBC4,
		FormatPVRTC1_4,
		FormatBC7M6,
		FormatETC2,
		FormatBC3,
		FormatBC5,
	}
}

// Supported reports whether f is one of the eight target formats.
func (f Format) Supported() bool {
	return f >= FormatETC1 && f < FormatTotal
}

// BlockBytes returns the size in bytes of one 4x4 block of f, or 0 for
// placeholder and unknown codes.
func (f Format) BlockBytes() int {
	switch f {
	case FormatETC1, FormatBC1, FormatBC4, FormatPVRTC1_4:
		return 8
	case FormatBC7M6, FormatETC2, FormatBC3, FormatBC5:
		return 16
	case FormatTotal, FormatInvalid:
		return 0
	default:
		return 0
	}
}

// OpaqueOnly reports whether the native transcoder drops alpha for f.
func (f Format) OpaqueOnly() bool {
	return f == FormatPVRTC1_4 || f == FormatBC7M6
}

// BlockCount returns the number of 4x4 blocks covering a width x height image.
func BlockCount(width, height int) (blocksX, blocksY int) {
	return (width + 3) / 4, (height + 3) / 4
}

// DataSize returns the size in bytes of a width x height image transcoded to
// f, or 0 for placeholder and unknown codes. PVRTC1 output always covers at
// least 2x2 blocks.
func (f Format) DataSize(width, height int) int {
	if width <= 0 || height <= 0 {
		return 0
	}
	bx, by := BlockCount(width, height)
	if f == FormatPVRTC1_4 {
		bx, by = max(bx, 2), max(by, 2)
	}
	return bx * by * f.BlockBytes()
}

func (f Format) String() string {
	switch f {
	case FormatETC1:
		return "ETC1"
	case FormatBC1:
		return "BC1"
	case FormatBC4:
		return "BC4"
	case FormatPVRTC1_4:
		return "PVRTC1_4_OPAQUE_ONLY"
	case FormatBC7M6:
		return "BC7_M6_OPAQUE_ONLY"
	case FormatETC2:
		return "ETC2"
	case FormatBC3:
		return "BC3"
	case FormatBC5:
		return "BC5"
	case FormatTotal:
		return "TOTAL_TEXTURE_FORMATS"
	case FormatInvalid:
		return "INVALID"
	default:
		return fmt.Sprintf("Format(%d)", int32(f))
	}
}

// ParseFormat parses a case-insensitive format name such as "etc1" or "bc7".
func ParseFormat(s string) (Format, error) {
	switch normalizeName(s) {
	case "etc1":
		return FormatETC1, nil
	case "bc1", "dxt1":
		return FormatBC1, nil
	case "bc4":
		return FormatBC4, nil
	case "pvrtc1", "pvrtc14", "pvrtc":
		return FormatPVRTC1_4, nil
	case "bc7", "bc7m6":
		return FormatBC7M6, nil
	case "etc2":
		return FormatETC2, nil
	case "bc3", "dxt5":
		return FormatBC3, nil
	case "bc5":
		return FormatBC5, nil
	default:
		return FormatInvalid, newError(KindUnsupportedFormat, "parse format", fmt.Sprintf("unknown format %q", s))
	}
}

func normalizeName(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z':
			out = append(out, c+('a'-'A'))
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			out = append(out, c)
		}
	}
	return string(out)
}
