package basisu

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

type fileState uint8

const (
	stateCreated fileState = iota
	stateStarted
	stateClosed
)

// File is an open container handle.
//
// A File owns one native file. The handle lock serializes every call on it;
// separate Files may be used from separate goroutines. Close must be called
// exactly once, usually with defer right after Library.Open succeeds.
type File struct {
	lib    *Library
	native NativeFile

	mu     sync.Mutex
	state  fileState
	levels []int // per image, cached at open
}

func (f *File) loadCounts() error {
	b := f.lib.backend
	n, err := b.NumImages(f.native)
	if err != nil {
		return BackendError(err, "num images")
	}
	if n < 0 {
		return newError(KindInvalidContainer, "num images", fmt.Sprintf("negative image count %d", n))
	}
	f.levels = make([]int, n)
	for i := range f.levels {
		l, err := b.NumLevels(f.native, i)
		if err != nil {
			return BackendError(err, "num levels")
		}
		if l < 0 {
			return newError(KindInvalidContainer, "num levels", fmt.Sprintf("image %d: negative level count %d", i, l))
		}
		f.levels[i] = l
	}
	return nil
}

// lock acquires the handle lock and fails if the file is closed. On success
// the caller must call f.mu.Unlock.
func (f *File) lock(op string) error {
	f.mu.Lock()
	if f.state == stateClosed {
		f.mu.Unlock()
		return newError(KindClosed, op, "")
	}
	return nil
}

func (f *File) checkImage(op string, image int) error {
	if image < 0 || image >= len(f.levels) {
		return newError(KindOutOfRange, op, fmt.Sprintf("image %d not in [0, %d)", image, len(f.levels)))
	}
	return nil
}

func (f *File) checkLevel(op string, image, level int) error {
	if err := f.checkImage(op, image); err != nil {
		return err
	}
	if n := f.levels[image]; level < 0 || level >= n {
		return newError(KindOutOfRange, op, fmt.Sprintf("image %d: level %d not in [0, %d)", image, level, n))
	}
	return nil
}

// HasAlpha reports whether the container has alpha data.
func (f *File) HasAlpha() (bool, error) {
	if err := f.lock("has alpha"); err != nil {
		return false, err
	}
	defer f.mu.Unlock()

	v, err := f.lib.backend.HasAlpha(f.native)
	return v, BackendError(err, "has alpha")
}

// NumImages returns the number of images in the container.
func (f *File) NumImages() (int, error) {
	if err := f.lock("num images"); err != nil {
		return 0, err
	}
	defer f.mu.Unlock()
	return len(f.levels), nil
}

// NumLevels returns the number of mip levels of image.
func (f *File) NumLevels(image int) (int, error) {
	if err := f.lock("num levels"); err != nil {
		return 0, err
	}
	defer f.mu.Unlock()

	if err := f.checkImage("num levels", image); err != nil {
		return 0, err
	}
	return f.levels[image], nil
}

// ImageWidth returns the original width in pixels of image/level.
func (f *File) ImageWidth(image, level int) (int, error) {
	if err := f.lock("image width"); err != nil {
		return 0, err
	}
	defer f.mu.Unlock()

	if err := f.checkLevel("image width", image, level); err != nil {
		return 0, err
	}
	w, err := f.lib.backend.ImageWidth(f.native, image, level)
	return w, BackendError(err, "image width")
}

// ImageHeight returns the original height in pixels of image/level.
func (f *File) ImageHeight(image, level int) (int, error) {
	if err := f.lock("image height"); err != nil {
		return 0, err
	}
	defer f.mu.Unlock()

	if err := f.checkLevel("image height", image, level); err != nil {
		return 0, err
	}
	h, err := f.lib.backend.ImageHeight(f.native, image, level)
	return h, BackendError(err, "image height")
}

// LevelInfo returns the dimensions and block counts of image/level.
func (f *File) LevelInfo(image, level int) (LevelInfo, error) {
	if err := f.lock("level info"); err != nil {
		return LevelInfo{}, err
	}
	defer f.mu.Unlock()

	if err := f.checkLevel("level info", image, level); err != nil {
		return LevelInfo{}, err
	}
	w, err := f.lib.backend.ImageWidth(f.native, image, level)
	if err != nil {
		return LevelInfo{}, BackendError(err, "level info")
	}
	h, err := f.lib.backend.ImageHeight(f.native, image, level)
	if err != nil {
		return LevelInfo{}, BackendError(err, "level info")
	}
	bx, by := BlockCount(w, h)
	return LevelInfo{Width: w, Height: h, BlocksX: bx, BlocksY: by}, nil
}

// TranscodedSize returns the size in bytes TranscodeImage produces for
// image/level in format.
func (f *File) TranscodedSize(image, level int, format Format) (int, error) {
	if err := f.lock("transcoded size"); err != nil {
		return 0, err
	}
	defer f.mu.Unlock()

	if err := f.checkLevel("transcoded size", image, level); err != nil {
		return 0, err
	}
	if !format.Supported() {
		return 0, newError(KindUnsupportedFormat, "transcoded size", format.String())
	}
	n, err := f.lib.backend.TranscodedSize(f.native, image, level, format)
	return n, BackendError(err, "transcoded size")
}

// StartTranscoding prepares the file for TranscodeImage. Calling it again
// after a successful start does nothing.
func (f *File) StartTranscoding() error {
	if err := f.lock("start transcoding"); err != nil {
		return err
	}
	defer f.mu.Unlock()

	if f.state == stateStarted {
		return nil
	}
	ok, err := f.lib.backend.StartTranscoding(f.native)
	if err != nil {
		return BackendError(err, "start transcoding")
	}
	if !ok {
		return newError(KindStartFailed, "start transcoding", "")
	}
	f.state = stateStarted
	return nil
}

// Started reports whether StartTranscoding has succeeded on f.
func (f *File) Started() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state == stateStarted
}

// TranscodeImage transcodes image/level into format and returns the block
// data. The returned slice belongs to the caller.
func (f *File) TranscodeImage(image, level int, format Format, flags TranscodeFlags) ([]byte, error) {
	const op = "transcode image"
	if err := f.lock(op); err != nil {
		return nil, err
	}
	defer f.mu.Unlock()

	if f.state != stateStarted {
		return nil, newError(KindNotStarted, op, "")
	}
	if err := f.checkLevel(op, image, level); err != nil {
		return nil, err
	}
	if !format.Supported() {
		return nil, newError(KindUnsupportedFormat, op, format.String())
	}

	b := f.lib.backend
	data, ok, err := b.TranscodeImage(f.native, image, level, format, flags)
	if err != nil {
		return nil, BackendError(err, op)
	}
	if !ok {
		return nil, newError(KindTranscodeFailed, op, fmt.Sprintf("image %d level %d to %s", image, level, format))
	}
	if len(data) == 0 {
		return nil, newError(KindTranscodeFailed, op, fmt.Sprintf("image %d level %d to %s: empty output", image, level, format))
	}

	want, err := b.TranscodedSize(f.native, image, level, format)
	if err != nil {
		return nil, BackendError(err, op)
	}
	if want > 0 && len(data) != want {
		return nil, newError(KindTranscodeFailed, op, fmt.Sprintf("image %d level %d: got %d bytes, want %d", image, level, len(data), want))
	}
	return data, nil
}

// Close releases the native file. The handle is unusable afterwards even
// when the backend fails to release it; such a file stays counted by
// Library.OpenFiles. A second Close fails with ErrClosed.
func (f *File) Close() error {
	if err := f.lock("close"); err != nil {
		return err
	}
	defer f.mu.Unlock()

	f.state = stateClosed
	f.levels = nil
	if err := f.lib.backend.Close(f.native); err != nil {
		Logger().Warn("native close failed",
			zap.String("backend", f.lib.backend.Name()),
			zap.Error(err))
		return BackendError(err, "close")
	}
	f.lib.open.Add(-1)
	return nil
}
