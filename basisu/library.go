package basisu

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Library binds a Backend and owns its one-time initialization.
//
// The zero value is not usable; create one with NewLibrary. A Library is safe
// for concurrent use.
type Library struct {
	backend Backend

	initOnce sync.Once
	initErr  error

	open atomic.Int64
}

// NewLibrary returns a Library over b. Initialization is deferred to the
// first Init or Open call.
func NewLibrary(b Backend) *Library {
	return &Library{backend: b}
}

// Backend returns the backend this library calls into.
func (l *Library) Backend() Backend { return l.backend }

// Init runs the backend's process-wide setup exactly once. Later calls, from
// any goroutine, return the result of the first.
func (l *Library) Init() error {
	l.initOnce.Do(func() {
		if l.backend == nil {
			l.initErr = newError(KindBackend, "init", "nil backend")
			return
		}
		if err := l.backend.Init(); err != nil {
			l.initErr = BackendError(err, "init")
			return
		}
		Logger().Debug("transcoder initialized", zap.String("backend", l.backend.Name()))
	})
	return l.initErr
}

// Open validates data as a container and creates a native file from it.
//
// The backend copies data; the caller may reuse or discard it as soon as
// Open returns. Close must be called on the returned File.
func (l *Library) Open(data []byte) (*File, error) {
	if err := l.Init(); err != nil {
		return nil, err
	}
	if _, err := ParseHeader(data); err != nil {
		return nil, err
	}

	nf, err := l.backend.Open(data)
	if err != nil {
		return nil, BackendError(err, "open")
	}

	f := &File{lib: l, native: nf}
	if err := f.loadCounts(); err != nil {
		if cerr := l.backend.Close(nf); cerr != nil {
			Logger().Warn("close after failed open",
				zap.String("backend", l.backend.Name()),
				zap.Error(cerr))
		}
		return nil, err
	}
	l.open.Add(1)
	return f, nil
}

// OpenFiles returns the number of files opened and not yet released by a
// successful Close.
func (l *Library) OpenFiles() int { return int(l.open.Load()) }
