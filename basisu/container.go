package basisu

import (
	"encoding/binary"
	"fmt"
)

// HeaderSize is the size in bytes of a .basis file header.
const HeaderSize = 77

// SliceDescSize is the size in bytes of one .basis slice descriptor.
const SliceDescSize = 23

// Signature is the little-endian header signature ("sB").
const Signature uint16 = 'B'<<8 | 's'

// SupportedVersion is the container version written by the encoder this
// wrapper targets. Other versions are reported but not rejected here; the
// native side has the final word.
const SupportedVersion uint16 = 0x13

// Header flags.
const (
	HeaderFlagETC1S          uint16 = 1 << 0
	HeaderFlagYFlipped       uint16 = 1 << 1
	HeaderFlagHasAlphaSlices uint16 = 1 << 2
)

// SliceFlagAlphaData marks a slice carrying the alpha plane of its image.
const SliceFlagAlphaData uint8 = 1 << 0

// TextureType is the container's texture type field.
type TextureType uint8

const (
	TexType2D TextureType = iota
	TexType2DArray
	TexTypeCubemapArray
	TexTypeVideoFrames
	TexTypeVolume
)

func (t TextureType) String() string {
	switch t {
	case TexType2D:
		return "2D"
	case TexType2DArray:
		return "2D array"
	case TexTypeCubemapArray:
		return "cubemap array"
	case TexTypeVideoFrames:
		return "video frames"
	case TexTypeVolume:
		return "volume"
	default:
		return fmt.Sprintf("TextureType(%d)", uint8(t))
	}
}

// Header is the fixed-size .basis file header.
type Header struct {
	Signature   uint16
	Version     uint16
	HeaderSize  uint16
	HeaderCRC16 uint16

	DataSize  uint32
	DataCRC16 uint16

	TotalSlices uint32 // 24 bits
	TotalImages uint32 // 24 bits

	TexFormat  uint8
	Flags      uint16
	TexType    TextureType
	USPerFrame uint32 // 24 bits

	Reserved  uint32
	UserData0 uint32
	UserData1 uint32

	TotalEndpoints     uint16
	EndpointCBFileOfs  uint32
	EndpointCBFileSize uint32 // 24 bits

	TotalSelectors     uint16
	SelectorCBFileOfs  uint32
	SelectorCBFileSize uint32 // 24 bits

	TablesFileOfs  uint32
	TablesFileSize uint32

	SliceDescFileOfs uint32

	ExtendedFileOfs  uint32
	ExtendedFileSize uint32
}

func (h Header) String() string {
	return fmt.Sprintf("basis v%#x, %d images, %d slices, %s, alpha=%v",
		h.Version, h.TotalImages, h.TotalSlices, h.TexType, h.HasAlpha())
}

// HasAlpha reports whether the container carries alpha slices.
func (h Header) HasAlpha() bool { return h.Flags&HeaderFlagHasAlphaSlices != 0 }

// SliceDesc describes one compressed slice (an image/level plane).
type SliceDesc struct {
	ImageIndex uint32 // 24 bits
	LevelIndex uint8
	Flags      uint8

	OrigWidth  uint16
	OrigHeight uint16
	BlocksX    uint16
	BlocksY    uint16

	FileOfs  uint32
	FileSize uint32

	DataCRC16 uint16
}

// AlphaData reports whether the slice holds alpha data.
func (s SliceDesc) AlphaData() bool { return s.Flags&SliceFlagAlphaData != 0 }

// ParseHeader parses and quick-validates a .basis header against the full
// file contents in data. It does not verify checksums; see VerifyChecksums.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, invalidContainer("header: unexpected EOF: want %d bytes, got %d", HeaderSize, len(data))
	}

	h := Header{
		Signature:   le16(data[0:]),
		Version:     le16(data[2:]),
		HeaderSize:  le16(data[4:]),
		HeaderCRC16: le16(data[6:]),

		DataSize:  le32(data[8:]),
		DataCRC16: le16(data[12:]),

		TotalSlices: le24(data[14:]),
		TotalImages: le24(data[17:]),

		TexFormat:  data[20],
		Flags:      le16(data[21:]),
		TexType:    TextureType(data[23]),
		USPerFrame: le24(data[24:]),

		Reserved:  le32(data[27:]),
		UserData0: le32(data[31:]),
		UserData1: le32(data[35:]),

		TotalEndpoints:     le16(data[39:]),
		EndpointCBFileOfs:  le32(data[41:]),
		EndpointCBFileSize: le24(data[45:]),

		TotalSelectors:     le16(data[48:]),
		SelectorCBFileOfs:  le32(data[50:]),
		SelectorCBFileSize: le24(data[54:]),

		TablesFileOfs:  le32(data[57:]),
		TablesFileSize: le32(data[61:]),

		SliceDescFileOfs: le32(data[65:]),

		ExtendedFileOfs:  le32(data[69:]),
		ExtendedFileSize: le32(data[73:]),
	}
	if err := h.validate(len(data)); err != nil {
		return Header{}, err
	}
	return h, nil
}

func (h Header) validate(fileSize int) error {
	if h.Signature != Signature {
		return invalidContainer("invalid signature %#04x", h.Signature)
	}
	if h.HeaderSize != HeaderSize {
		return invalidContainer("invalid header size %d", h.HeaderSize)
	}
	if want := uint64(HeaderSize) + uint64(h.DataSize); uint64(fileSize) < want {
		return invalidContainer("file: unexpected EOF: want %d bytes, got %d", want, fileSize)
	}
	if h.TotalSlices == 0 || h.TotalImages == 0 {
		return invalidContainer("no slices or images")
	}
	if h.TotalImages > h.TotalSlices {
		return invalidContainer("%d images but only %d slices", h.TotalImages, h.TotalSlices)
	}
	ofs := uint64(h.SliceDescFileOfs)
	if ofs >= uint64(fileSize) || uint64(fileSize)-ofs < uint64(h.TotalSlices)*SliceDescSize {
		return invalidContainer("slice descriptors out of bounds")
	}
	return nil
}

// ParseSliceDescs parses the slice descriptor table described by h.
func ParseSliceDescs(h Header, data []byte) ([]SliceDesc, error) {
	if err := h.validate(len(data)); err != nil {
		return nil, err
	}
	out := make([]SliceDesc, h.TotalSlices)
	base := int(h.SliceDescFileOfs)
	for i := range out {
		b := data[base+i*SliceDescSize : base+(i+1)*SliceDescSize]
		s := SliceDesc{
			ImageIndex: le24(b[0:]),
			LevelIndex: b[3],
			Flags:      b[4],
			OrigWidth:  le16(b[5:]),
			OrigHeight: le16(b[7:]),
			BlocksX:    le16(b[9:]),
			BlocksY:    le16(b[11:]),
			FileOfs:    le32(b[13:]),
			FileSize:   le32(b[17:]),
			DataCRC16:  le16(b[21:]),
		}
		if s.ImageIndex >= h.TotalImages {
			return nil, invalidContainer("slice %d: image index %d out of range", i, s.ImageIndex)
		}
		if end := uint64(s.FileOfs) + uint64(s.FileSize); end > uint64(len(data)) {
			return nil, invalidContainer("slice %d: data out of bounds", i)
		}
		out[i] = s
	}
	return out, nil
}

// LevelInfo is the geometry of one image level.
type LevelInfo struct {
	Width   int
	Height  int
	BlocksX int
	BlocksY int
}

// ImageInfo lists the levels of one image.
type ImageInfo struct {
	Levels []LevelInfo
}

// Info is the metadata of a container, as derived from its slice table.
type Info struct {
	Header   Header
	HasAlpha bool
	Images   []ImageInfo
}

// Inspect parses the header and slice table of data and returns the image
// and level layout. Alpha slices are folded into their color slice.
func Inspect(data []byte) (Info, error) {
	h, err := ParseHeader(data)
	if err != nil {
		return Info{}, err
	}
	slices, err := ParseSliceDescs(h, data)
	if err != nil {
		return Info{}, err
	}

	info := Info{
		Header:   h,
		HasAlpha: h.HasAlpha(),
		Images:   make([]ImageInfo, h.TotalImages),
	}
	for i, s := range slices {
		if s.AlphaData() {
			continue
		}
		img := &info.Images[s.ImageIndex]
		lvl := int(s.LevelIndex)
		for len(img.Levels) <= lvl {
			img.Levels = append(img.Levels, LevelInfo{})
		}
		if img.Levels[lvl].Width != 0 {
			return Info{}, invalidContainer("slice %d: duplicate image %d level %d", i, s.ImageIndex, lvl)
		}
		img.Levels[lvl] = LevelInfo{
			Width:   int(s.OrigWidth),
			Height:  int(s.OrigHeight),
			BlocksX: int(s.BlocksX),
			BlocksY: int(s.BlocksY),
		}
	}
	for i, img := range info.Images {
		if len(img.Levels) == 0 {
			return Info{}, invalidContainer("image %d has no levels", i)
		}
		for j, l := range img.Levels {
			if l.Width == 0 || l.Height == 0 {
				return Info{}, invalidContainer("image %d level %d missing or empty", i, j)
			}
		}
	}
	return info, nil
}

// VerifyChecksums checks the header and data CRC16 fields of a container.
func VerifyChecksums(data []byte) error {
	h, err := ParseHeader(data)
	if err != nil {
		return err
	}
	if got := CRC16(data[8:HeaderSize], 0); got != h.HeaderCRC16 {
		return invalidContainer("header crc mismatch: got %#04x want %#04x", got, h.HeaderCRC16)
	}
	body := data[HeaderSize : HeaderSize+int(h.DataSize)]
	if got := CRC16(body, 0); got != h.DataCRC16 {
		return invalidContainer("data crc mismatch: got %#04x want %#04x", got, h.DataCRC16)
	}
	return nil
}

// CRC16 is the checksum used by .basis headers and slices.
func CRC16(p []byte, crc uint16) uint16 {
	crc = ^crc
	for _, b := range p {
		q := uint16(b) ^ (crc >> 8)
		k := (q >> 4) ^ q
		crc = (((crc << 8) ^ k) ^ (k << 5)) ^ (k << 12)
	}
	return ^crc
}

// MarshalHeader returns the on-disk encoding of h. CRC fields are written as
// given; callers compute them with CRC16.
func MarshalHeader(h Header) [HeaderSize]byte {
	var out [HeaderSize]byte
	put16(out[0:], h.Signature)
	put16(out[2:], h.Version)
	put16(out[4:], h.HeaderSize)
	put16(out[6:], h.HeaderCRC16)
	put32(out[8:], h.DataSize)
	put16(out[12:], h.DataCRC16)
	put24(out[14:], h.TotalSlices)
	put24(out[17:], h.TotalImages)
	out[20] = h.TexFormat
	put16(out[21:], h.Flags)
	out[23] = uint8(h.TexType)
	put24(out[24:], h.USPerFrame)
	put32(out[27:], h.Reserved)
	put32(out[31:], h.UserData0)
	put32(out[35:], h.UserData1)
	put16(out[39:], h.TotalEndpoints)
	put32(out[41:], h.EndpointCBFileOfs)
	put24(out[45:], h.EndpointCBFileSize)
	put16(out[48:], h.TotalSelectors)
	put32(out[50:], h.SelectorCBFileOfs)
	put24(out[54:], h.SelectorCBFileSize)
	put32(out[57:], h.TablesFileOfs)
	put32(out[61:], h.TablesFileSize)
	put32(out[65:], h.SliceDescFileOfs)
	put32(out[69:], h.ExtendedFileOfs)
	put32(out[73:], h.ExtendedFileSize)
	return out
}

// MarshalSliceDesc returns the on-disk encoding of s.
func MarshalSliceDesc(s SliceDesc) [SliceDescSize]byte {
	var out [SliceDescSize]byte
	put24(out[0:], s.ImageIndex)
	out[3] = s.LevelIndex
	out[4] = s.Flags
	put16(out[5:], s.OrigWidth)
	put16(out[7:], s.OrigHeight)
	put16(out[9:], s.BlocksX)
	put16(out[11:], s.BlocksY)
	put32(out[13:], s.FileOfs)
	put32(out[17:], s.FileSize)
	put16(out[21:], s.DataCRC16)
	return out
}

func invalidContainer(format string, args ...any) error {
	return newError(KindInvalidContainer, "parse", fmt.Sprintf(format, args...))
}

func le16(b []byte) uint16 { return binary.LittleEndian.Uint16(b) }
func le32(b []byte) uint32 { return binary.LittleEndian.Uint32(b) }

func le24(b []byte) uint32 {
	_ = b[2]
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16
}

func put16(b []byte, v uint16) { binary.LittleEndian.PutUint16(b, v) }
func put32(b []byte, v uint32) { binary.LittleEndian.PutUint32(b, v) }

func put24(b []byte, v uint32) {
	_ = b[2]
	if v > 0xFFFFFF {
		v = 0xFFFFFF
	}
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
}
