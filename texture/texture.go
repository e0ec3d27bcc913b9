// Package texture is the host side of the transcoder binding: host texture
// formats, 2D textures holding compressed block data, and renderers that
// consume them.
package texture

import (
	"github.com/cockroachdb/errors"
)

var (
	// ErrSizeMismatch is returned by LoadRawTextureData when the data does
	// not have exactly the texture's size.
	ErrSizeMismatch = errors.New("texture: raw data size mismatch")
	// ErrNoData is returned by Apply before any data was loaded.
	ErrNoData = errors.New("texture: no data loaded")
)

// Texture2D is a single-level 2D texture of compressed blocks. Data is
// uploaded verbatim; nothing is decoded on the host.
type Texture2D struct {
	// Name labels the texture in renderers and file names.
	Name string

	width  int
	height int
	format Format
	data   []byte
}

// NewTexture2D returns an empty texture of the given size and format.
func NewTexture2D(width, height int, format Format) (*Texture2D, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Newf("texture: invalid size %dx%d", width, height)
	}
	if format.BlockBytes() == 0 {
		return nil, errors.Newf("texture: unknown format %v", format)
	}
	return &Texture2D{width: width, height: height, format: format}, nil
}

func (t *Texture2D) Width() int     { return t.width }
func (t *Texture2D) Height() int    { return t.height }
func (t *Texture2D) Format() Format { return t.format }

// DataSize is the exact number of bytes LoadRawTextureData accepts.
func (t *Texture2D) DataSize() int { return t.format.DataSize(t.width, t.height) }

// Data returns the loaded block data. The slice must not be modified.
func (t *Texture2D) Data() []byte { return t.data }

// LoadRawTextureData copies data into the texture.
func (t *Texture2D) LoadRawTextureData(data []byte) error {
	if want := t.DataSize(); len(data) != want {
		return errors.Wrapf(ErrSizeMismatch, "%s %dx%d: got %d bytes, want %d", t.format, t.width, t.height, len(data), want)
	}
	t.data = append(t.data[:0], data...)
	return nil
}

// Apply uploads the texture to r.
func (t *Texture2D) Apply(r Renderer) error {
	if t.data == nil {
		return errors.Wrapf(ErrNoData, "texture %q", t.Name)
	}
	return r.Upload(t)
}
