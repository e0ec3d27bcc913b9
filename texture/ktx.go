package texture

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
)

var ktxIdentifier = [12]byte{0xAB, 'K', 'T', 'X', ' ', '1', '1', 0xBB, '\r', '\n', 0x1A, '\n'}

const (
	ktxHeaderSize = 64
	ktxEndianness = 0x04030201
)

// KTXHeader is the fixed part of a KTX 1.1 file.
type KTXHeader struct {
	GLType               uint32
	GLTypeSize           uint32
	GLFormat             uint32
	GLInternalFormat     uint32
	GLBaseInternalFormat uint32
	PixelWidth           uint32
	PixelHeight          uint32
	PixelDepth           uint32
	ArrayElements        uint32
	Faces                uint32
	MipmapLevels         uint32
	KeyValueBytes        uint32
}

func ktxKeyValue(key, value string) []byte {
	kv := key + "\x00" + value + "\x00"
	var b bytes.Buffer
	binary.Write(&b, binary.LittleEndian, uint32(len(kv)))
	b.WriteString(kv)
	for b.Len()%4 != 0 {
		b.WriteByte(0)
	}
	return b.Bytes()
}

// EncodeKTX writes t as a single-level KTX 1.1 file.
func EncodeKTX(w io.Writer, t *Texture2D) error {
	if t.data == nil {
		return errors.Wrapf(ErrNoData, "texture %q", t.Name)
	}
	kv := ktxKeyValue("KTXwriter", "basisu-go")
	h := KTXHeader{
		GLTypeSize:           1,
		GLInternalFormat:     t.format.GLInternalFormat(),
		GLBaseInternalFormat: t.format.GLBaseInternalFormat(),
		PixelWidth:           uint32(t.width),
		PixelHeight:          uint32(t.height),
		Faces:                1,
		MipmapLevels:         1,
		KeyValueBytes:        uint32(len(kv)),
	}

	var b bytes.Buffer
	b.Grow(ktxHeaderSize + len(kv) + 4 + len(t.data))
	b.Write(ktxIdentifier[:])
	binary.Write(&b, binary.LittleEndian, uint32(ktxEndianness))
	binary.Write(&b, binary.LittleEndian, h)
	b.Write(kv)
	binary.Write(&b, binary.LittleEndian, uint32(len(t.data)))
	b.Write(t.data)
	for b.Len()%4 != 0 {
		b.WriteByte(0)
	}
	_, err := w.Write(b.Bytes())
	return err
}

// ParseKTX parses a KTX 1.1 file written by EncodeKTX and returns its header
// and the data of its first level.
func ParseKTX(data []byte) (KTXHeader, []byte, error) {
	if len(data) < ktxHeaderSize || !bytes.Equal(data[:12], ktxIdentifier[:]) {
		return KTXHeader{}, nil, errors.New("texture: not a KTX 1.1 file")
	}
	if e := binary.LittleEndian.Uint32(data[12:]); e != ktxEndianness {
		return KTXHeader{}, nil, errors.Newf("texture: unsupported KTX endianness %#x", e)
	}
	var h KTXHeader
	if err := binary.Read(bytes.NewReader(data[16:ktxHeaderSize]), binary.LittleEndian, &h); err != nil {
		return KTXHeader{}, nil, errors.Wrap(err, "texture: KTX header")
	}
	off := uint64(ktxHeaderSize) + uint64(h.KeyValueBytes)
	if off+4 > uint64(len(data)) {
		return KTXHeader{}, nil, errors.New("texture: KTX truncated before image size")
	}
	n := uint64(binary.LittleEndian.Uint32(data[off:]))
	off += 4
	if off+n > uint64(len(data)) {
		return KTXHeader{}, nil, errors.Newf("texture: KTX level of %d bytes truncated", n)
	}
	return h, data[off : off+n], nil
}

// KTXWriter is a Renderer writing each uploaded texture to its own .ktx
// file in a directory. It is safe for concurrent use.
type KTXWriter struct {
	dir string

	mu    sync.Mutex
	n     int
	paths []string
}

// NewKTXWriter creates dir if needed and returns a writer into it.
func NewKTXWriter(dir string) (*KTXWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "texture: create %s", dir)
	}
	return &KTXWriter{dir: dir}, nil
}

func (k *KTXWriter) Upload(t *Texture2D) error {
	k.mu.Lock()
	k.n++
	name := fileName(t.Name, k.n)
	k.mu.Unlock()

	var b bytes.Buffer
	if err := EncodeKTX(&b, t); err != nil {
		return err
	}
	path := filepath.Join(k.dir, name)
	if err := os.WriteFile(path, b.Bytes(), 0o644); err != nil {
		return errors.Wrapf(err, "texture: write %s", path)
	}

	k.mu.Lock()
	k.paths = append(k.paths, path)
	k.mu.Unlock()
	return nil
}

// Paths returns the files written so far, in upload order.
func (k *KTXWriter) Paths() []string {
	k.mu.Lock()
	defer k.mu.Unlock()
	return append([]string(nil), k.paths...)
}

func fileName(name string, n int) string {
	if name == "" {
		return fmt.Sprintf("texture_%03d.ktx", n)
	}
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, name)
	return clean + ".ktx"
}
