//go:build basisu_native && cgo

package native

import (
	"sync"
	"unsafe"

	"github.com/cockroachdb/errors"

	"github.com/basis-universal/basisu-go/basisu"
	"github.com/basis-universal/basisu-go/basisu/native/internal/cbasis"
)

func Enabled() bool { return true }

// basis_init has no matching teardown and is process-wide.
var initOnce sync.Once

type nativeFile struct {
	file unsafe.Pointer // basis_file*
	data unsafe.Pointer // C copy of the encoded file, alive until bf_close
}

// Backend calls the native wrapper through cgo.
//
// Native file pointers never leave this package: callers hold registry IDs.
type Backend struct {
	mu    sync.Mutex
	next  basisu.NativeFile
	files map[basisu.NativeFile]nativeFile
}

// New returns the cgo backend.
func New() (basisu.Backend, error) {
	return &Backend{files: make(map[basisu.NativeFile]nativeFile)}, nil
}

func (b *Backend) Name() string { return "native" }

func (b *Backend) Init() error {
	initOnce.Do(cbasis.Init)
	return nil
}

func (b *Backend) Open(data []byte) (basisu.NativeFile, error) {
	if len(data) == 0 {
		return 0, &basisu.Error{Kind: basisu.KindInvalidContainer, Op: "open", Msg: "empty file"}
	}
	cdata := cbasis.CopyIn(data)
	f := cbasis.New(cdata, len(data))
	if f == nil {
		cbasis.Free(cdata)
		return 0, &basisu.Error{Kind: basisu.KindInvalidContainer, Op: "open", Msg: "bf_new returned null"}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.next++
	b.files[b.next] = nativeFile{file: f, data: cdata}
	return b.next, nil
}

func (b *Backend) lookup(f basisu.NativeFile) (unsafe.Pointer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	nf, ok := b.files[f]
	if !ok {
		return nil, errors.Newf("basisu/native: unknown file %d", f)
	}
	return nf.file, nil
}

func (b *Backend) Close(f basisu.NativeFile) error {
	b.mu.Lock()
	nf, ok := b.files[f]
	delete(b.files, f)
	b.mu.Unlock()
	if !ok {
		return errors.Newf("basisu/native: close of unknown file %d", f)
	}
	cbasis.Close(nf.file)
	cbasis.Free(nf.data)
	return nil
}

func (b *Backend) HasAlpha(f basisu.NativeFile) (bool, error) {
	p, err := b.lookup(f)
	if err != nil {
		return false, err
	}
	return cbasis.HasAlpha(p), nil
}

func (b *Backend) NumImages(f basisu.NativeFile) (int, error) {
	p, err := b.lookup(f)
	if err != nil {
		return 0, err
	}
	return cbasis.NumImages(p), nil
}

func (b *Backend) NumLevels(f basisu.NativeFile, image int) (int, error) {
	p, err := b.lookup(f)
	if err != nil {
		return 0, err
	}
	return cbasis.NumLevels(p, image), nil
}

func (b *Backend) ImageWidth(f basisu.NativeFile, image, level int) (int, error) {
	p, err := b.lookup(f)
	if err != nil {
		return 0, err
	}
	return cbasis.ImageWidth(p, image, level), nil
}

func (b *Backend) ImageHeight(f basisu.NativeFile, image, level int) (int, error) {
	p, err := b.lookup(f)
	if err != nil {
		return 0, err
	}
	return cbasis.ImageHeight(p, image, level), nil
}

func (b *Backend) TranscodedSize(f basisu.NativeFile, image, level int, format basisu.Format) (int, error) {
	p, err := b.lookup(f)
	if err != nil {
		return 0, err
	}
	return cbasis.TranscodedSize(p, image, level, int(format)), nil
}

func (b *Backend) StartTranscoding(f basisu.NativeFile) (bool, error) {
	p, err := b.lookup(f)
	if err != nil {
		return false, err
	}
	return cbasis.StartTranscoding(p), nil
}

func (b *Backend) TranscodeImage(f basisu.NativeFile, image, level int, format basisu.Format, flags basisu.TranscodeFlags) ([]byte, bool, error) {
	p, err := b.lookup(f)
	if err != nil {
		return nil, false, err
	}
	data, ok := cbasis.TranscodeImage(p, image, level, int(format), flags.PVRTCWrapAddressing(), flags.AlphaForOpaque())
	return data, ok, nil
}
