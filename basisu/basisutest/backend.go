// Package basisutest provides an in-memory basisu.Backend and a synthetic
// container builder for tests.
//
// The reference backend answers metadata from basisu.Inspect and produces
// filler output of the exact size the native transcoder would. It counts
// every call that matters for resource accounting.
package basisutest

import (
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/basis-universal/basisu-go/basisu"
)

// Faults are failures the reference backend injects on demand.
type Faults struct {
	InitErr      error
	OpenErr      error
	RejectOpen   bool // Open reports an invalid container, like bf_new returning NULL
	StartFails   bool // StartTranscoding returns false
	TranscodeErr error
	RejectImage  bool // TranscodeImage returns ok == false
	ShortOutput  bool // TranscodeImage returns one byte less than TranscodedSize
	CloseErr     error
}

// Stats are the reference backend's counters.
type Stats struct {
	InitCalls      int
	Opens          int
	Closes         int
	LiveFiles      int
	StartCalls     int
	TranscodeCalls int

	// OutstandingBuffers counts simulated native output buffers that were
	// allocated and not yet freed.
	OutstandingBuffers int

	LastFormat basisu.Format
	LastFlags  basisu.TranscodeFlags
}

type refFile struct {
	info    basisu.Info
	data    []byte
	started bool
}

// Backend is the reference basisu.Backend. The zero value is not usable;
// use NewBackend.
type Backend struct {
	mu     sync.Mutex
	next   basisu.NativeFile
	files  map[basisu.NativeFile]*refFile
	stats  Stats
	faults Faults
}

var _ basisu.Backend = (*Backend)(nil)

// NewBackend returns an empty reference backend.
func NewBackend() *Backend {
	return &Backend{files: make(map[basisu.NativeFile]*refFile)}
}

// SetFaults replaces the injected failures.
func (b *Backend) SetFaults(f Faults) {
	b.mu.Lock()
	b.faults = f
	b.mu.Unlock()
}

// Stats returns a snapshot of the counters.
func (b *Backend) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := b.stats
	s.LiveFiles = len(b.files)
	return s
}

func (b *Backend) Name() string { return "reference" }

func (b *Backend) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stats.InitCalls++
	return b.faults.InitErr
}

func (b *Backend) Open(data []byte) (basisu.NativeFile, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.faults.OpenErr != nil {
		return 0, b.faults.OpenErr
	}
	if b.faults.RejectOpen {
		return 0, &basisu.Error{Kind: basisu.KindInvalidContainer, Op: "open", Msg: "bf_new returned null"}
	}
	info, err := basisu.Inspect(data)
	if err != nil {
		return 0, err
	}
	b.next++
	b.files[b.next] = &refFile{info: info, data: append([]byte(nil), data...)}
	b.stats.Opens++
	return b.next, nil
}

func (b *Backend) Close(f basisu.NativeFile) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.files[f]; !ok {
		return errors.Newf("basisutest: close of unknown file %d", f)
	}
	delete(b.files, f)
	b.stats.Closes++
	return b.faults.CloseErr
}

func (b *Backend) file(f basisu.NativeFile) (*refFile, error) {
	rf, ok := b.files[f]
	if !ok {
		return nil, errors.Newf("basisutest: unknown file %d", f)
	}
	return rf, nil
}

func (b *Backend) level(f basisu.NativeFile, image, level int) (basisu.LevelInfo, error) {
	rf, err := b.file(f)
	if err != nil {
		return basisu.LevelInfo{}, err
	}
	if image < 0 || image >= len(rf.info.Images) {
		return basisu.LevelInfo{}, errors.Newf("basisutest: image %d out of range", image)
	}
	levels := rf.info.Images[image].Levels
	if level < 0 || level >= len(levels) {
		return basisu.LevelInfo{}, errors.Newf("basisutest: level %d out of range", level)
	}
	return levels[level], nil
}

func (b *Backend) HasAlpha(f basisu.NativeFile) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	rf, err := b.file(f)
	if err != nil {
		return false, err
	}
	return rf.info.HasAlpha, nil
}

func (b *Backend) NumImages(f basisu.NativeFile) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	rf, err := b.file(f)
	if err != nil {
		return 0, err
	}
	return len(rf.info.Images), nil
}

func (b *Backend) NumLevels(f basisu.NativeFile, image int) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	rf, err := b.file(f)
	if err != nil {
		return 0, err
	}
	if image < 0 || image >= len(rf.info.Images) {
		return 0, nil
	}
	return len(rf.info.Images[image].Levels), nil
}

func (b *Backend) ImageWidth(f basisu.NativeFile, image, level int) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	l, err := b.level(f, image, level)
	return l.Width, err
}

func (b *Backend) ImageHeight(f basisu.NativeFile, image, level int) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	l, err := b.level(f, image, level)
	return l.Height, err
}

func (b *Backend) TranscodedSize(f basisu.NativeFile, image, level int, format basisu.Format) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	l, err := b.level(f, image, level)
	if err != nil {
		return 0, err
	}
	return format.DataSize(l.Width, l.Height), nil
}

func (b *Backend) StartTranscoding(f basisu.NativeFile) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	rf, err := b.file(f)
	if err != nil {
		return false, err
	}
	b.stats.StartCalls++
	if b.faults.StartFails {
		return false, nil
	}
	rf.started = true
	return true, nil
}

func (b *Backend) TranscodeImage(f basisu.NativeFile, image, level int, format basisu.Format, flags basisu.TranscodeFlags) ([]byte, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.stats.TranscodeCalls++
	b.stats.LastFormat = format
	b.stats.LastFlags = flags
	if b.faults.TranscodeErr != nil {
		return nil, false, b.faults.TranscodeErr
	}
	rf, err := b.file(f)
	if err != nil {
		return nil, false, err
	}
	if !rf.started || b.faults.RejectImage {
		return nil, false, nil
	}
	l, err := b.level(f, image, level)
	if err != nil {
		return nil, false, err
	}
	n := format.DataSize(l.Width, l.Height)
	if n == 0 {
		return nil, false, nil
	}
	if b.faults.ShortOutput {
		n--
	}

	// Simulated native allocation, copied out and freed before returning.
	native := b.alloc(n)
	for i := range native {
		native[i] = byte(int(format)*17 + image*5 + level*3 + i)
	}
	out := append([]byte(nil), native...)
	b.free()
	return out, true, nil
}

func (b *Backend) alloc(n int) []byte {
	b.stats.OutstandingBuffers++
	return make([]byte, n)
}

func (b *Backend) free() { b.stats.OutstandingBuffers-- }
