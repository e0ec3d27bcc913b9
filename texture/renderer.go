package texture

import (
	"sync"
)

// Renderer consumes applied textures.
type Renderer interface {
	Upload(t *Texture2D) error
}

// Upload is one texture seen by a Recorder.
type Upload struct {
	Name   string
	Width  int
	Height int
	Format Format
	Size   int
}

// Recorder is an in-memory Renderer. It is safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	uploads []Upload
	bytes   int
}

func (r *Recorder) Upload(t *Texture2D) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.uploads = append(r.uploads, Upload{
		Name:   t.Name,
		Width:  t.Width(),
		Height: t.Height(),
		Format: t.Format(),
		Size:   len(t.Data()),
	})
	r.bytes += len(t.Data())
	return nil
}

// Uploads returns a copy of everything uploaded so far.
func (r *Recorder) Uploads() []Upload {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Upload(nil), r.uploads...)
}

// Bytes returns the total block data uploaded.
func (r *Recorder) Bytes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bytes
}
