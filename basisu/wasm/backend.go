// Package wasm runs a WebAssembly build of the transcoder wrapper under
// wazero and exposes it as a basisu.Backend. No cgo is involved.
//
// The guest must export its linear memory as "memory", an allocator pair
// "malloc"/"free", "basis_init", and the bf_* functions with 32-bit
// arguments. Byte buffers cross the boundary as (ptr, len) pairs in guest
// memory; out-parameters go through a small scratch allocation. Every guest
// allocation made by this package is freed before the call that made it
// returns, except the copy of each open file, which is freed with the file.
package wasm

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/zap"

	"github.com/basis-universal/basisu-go/basisu"
)

var requiredExports = []string{
	"malloc",
	"free",
	"basis_init",
	"bf_new",
	"bf_close",
	"bf_getHasAlpha",
	"bf_getNumImages",
	"bf_getNumLevels",
	"bf_getImageWidth",
	"bf_getImageHeight",
	"bf_getImageTranscodedSizeInBytes",
	"bf_startTranscoding",
	"bf_transcodeImage",
}

// Backend is a basisu.Backend over one guest instance. All guest calls are
// serialized: the instance has a single linear memory.
type Backend struct {
	runtime wazero.Runtime
	mod     api.Module
	fns     map[string]api.Function

	mu       sync.Mutex
	initOnce sync.Once
	initErr  error
	files    map[basisu.NativeFile]uint32 // guest handle -> guest copy of the file
}

var _ basisu.Backend = (*Backend)(nil)

// New compiles and instantiates module. WASI preview1 is provided when the
// module imports it.
func New(ctx context.Context, module []byte, opts ...Option) (*Backend, error) {
	cfg := config{name: "basisu"}
	for _, o := range opts {
		o(&cfg)
	}

	rc := wazero.NewRuntimeConfig()
	if cfg.memoryLimitPages > 0 {
		rc = rc.WithMemoryLimitPages(cfg.memoryLimitPages)
	}
	r := wazero.NewRuntimeWithConfig(ctx, rc)

	b, err := instantiate(ctx, r, module, cfg)
	if err != nil {
		r.Close(ctx)
		return nil, err
	}
	return b, nil
}

func instantiate(ctx context.Context, r wazero.Runtime, module []byte, cfg config) (*Backend, error) {
	compiled, err := r.CompileModule(ctx, module)
	if err != nil {
		return nil, errors.Wrap(err, "basisu/wasm: compile")
	}

	needWASI := false
	for _, fn := range compiled.ImportedFunctions() {
		if modName, _, _ := fn.Import(); modName == wasi_snapshot_preview1.ModuleName {
			needWASI = true
			break
		}
	}
	if needWASI {
		if _, err := wasi_snapshot_preview1.Instantiate(ctx, r); err != nil {
			return nil, errors.Wrap(err, "basisu/wasm: instantiate WASI")
		}
	}
	for _, hm := range cfg.hostModules {
		if err := hm(ctx, r); err != nil {
			return nil, errors.Wrap(err, "basisu/wasm: host modules")
		}
	}

	mc := wazero.NewModuleConfig().WithName(cfg.name).WithStartFunctions()
	if _, ok := compiled.ExportedFunctions()["_initialize"]; ok {
		mc = mc.WithStartFunctions("_initialize")
	}
	mod, err := r.InstantiateModule(ctx, compiled, mc)
	if err != nil {
		return nil, errors.Wrap(err, "basisu/wasm: instantiate")
	}
	if mod.Memory() == nil {
		return nil, errors.New("basisu/wasm: module exports no memory")
	}

	fns := make(map[string]api.Function, len(requiredExports))
	for _, name := range requiredExports {
		fn := mod.ExportedFunction(name)
		if fn == nil {
			return nil, errors.Newf("basisu/wasm: missing export %q", name)
		}
		fns[name] = fn
	}

	basisu.Logger().Debug("wasm transcoder instantiated",
		zap.String("module", cfg.name),
		zap.Bool("wasi", needWASI),
		zap.Uint32("memory_pages", mod.Memory().Size()/65536))

	return &Backend{
		runtime: r,
		mod:     mod,
		fns:     fns,
		files:   make(map[basisu.NativeFile]uint32),
	}, nil
}

// Module returns the guest instance.
func (b *Backend) Module() api.Module { return b.mod }

// Shutdown tears down the runtime and every guest allocation with it. The
// backend is unusable afterwards.
func (b *Backend) Shutdown(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.files = map[basisu.NativeFile]uint32{}
	return b.runtime.Close(ctx)
}

// Files returns the number of guest files opened and not yet closed.
func (b *Backend) Files() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.files)
}

func (b *Backend) Name() string { return "wasm" }

// call invokes an export. Callers hold b.mu.
func (b *Backend) call(name string, args ...uint64) ([]uint64, error) {
	res, err := b.fns[name].Call(context.Background(), args...)
	if err != nil {
		return nil, errors.Wrapf(err, "basisu/wasm: %s", name)
	}
	return res, nil
}

func (b *Backend) callI32(name string, args ...uint64) (int32, error) {
	res, err := b.call(name, args...)
	if err != nil {
		return 0, err
	}
	if len(res) != 1 {
		return 0, errors.Newf("basisu/wasm: %s returned %d results", name, len(res))
	}
	return api.DecodeI32(res[0]), nil
}

func (b *Backend) malloc(n int) (uint32, error) {
	p, err := b.callI32("malloc", api.EncodeI32(int32(n)))
	if err != nil {
		return 0, err
	}
	if p == 0 {
		return 0, errors.Newf("basisu/wasm: malloc(%d) returned null", n)
	}
	return uint32(p), nil
}

func (b *Backend) free(p uint32) error {
	if p == 0 {
		return nil
	}
	_, err := b.call("free", api.EncodeU32(p))
	return err
}

func (b *Backend) freeLogged(p uint32, what string) {
	if err := b.free(p); err != nil {
		basisu.Logger().Warn("guest free failed", zap.String("buffer", what), zap.Error(err))
	}
}

func (b *Backend) Init() error {
	b.initOnce.Do(func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		_, b.initErr = b.call("basis_init")
	})
	return b.initErr
}

func (b *Backend) Open(data []byte) (basisu.NativeFile, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, err := b.malloc(len(data))
	if err != nil {
		return 0, err
	}
	if !b.mod.Memory().Write(p, data) {
		b.freeLogged(p, "file")
		return 0, errors.Newf("basisu/wasm: memory write out of range at ptr=%d size=%d", p, len(data))
	}
	h, err := b.callI32("bf_new", api.EncodeU32(p), api.EncodeI32(int32(len(data))))
	if err != nil {
		b.freeLogged(p, "file")
		return 0, err
	}
	if h == 0 {
		b.freeLogged(p, "file")
		return 0, &basisu.Error{Kind: basisu.KindInvalidContainer, Op: "open", Msg: "bf_new returned null"}
	}

	nf := basisu.NativeFile(uint32(h))
	b.files[nf] = p
	return nf, nil
}

func (b *Backend) handle(f basisu.NativeFile) (uint64, error) {
	if _, ok := b.files[f]; !ok {
		return 0, errors.Newf("basisu/wasm: unknown file %d", f)
	}
	return api.EncodeU32(uint32(f)), nil
}

func (b *Backend) Close(f basisu.NativeFile) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	h, err := b.handle(f)
	if err != nil {
		return err
	}
	p := b.files[f]
	delete(b.files, f)
	if _, err := b.call("bf_close", h); err != nil {
		b.freeLogged(p, "file")
		return err
	}
	return b.free(p)
}

func (b *Backend) query(name string, f basisu.NativeFile, args ...int) (int32, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	h, err := b.handle(f)
	if err != nil {
		return 0, err
	}
	params := make([]uint64, 0, 1+len(args))
	params = append(params, h)
	for _, a := range args {
		params = append(params, api.EncodeI32(int32(a)))
	}
	return b.callI32(name, params...)
}

func (b *Backend) HasAlpha(f basisu.NativeFile) (bool, error) {
	v, err := b.query("bf_getHasAlpha", f)
	return v != 0, err
}

func (b *Backend) NumImages(f basisu.NativeFile) (int, error) {
	v, err := b.query("bf_getNumImages", f)
	return int(v), err
}

func (b *Backend) NumLevels(f basisu.NativeFile, image int) (int, error) {
	v, err := b.query("bf_getNumLevels", f, image)
	return int(v), err
}

func (b *Backend) ImageWidth(f basisu.NativeFile, image, level int) (int, error) {
	v, err := b.query("bf_getImageWidth", f, image, level)
	return int(v), err
}

func (b *Backend) ImageHeight(f basisu.NativeFile, image, level int) (int, error) {
	v, err := b.query("bf_getImageHeight", f, image, level)
	return int(v), err
}

func (b *Backend) TranscodedSize(f basisu.NativeFile, image, level int, format basisu.Format) (int, error) {
	v, err := b.query("bf_getImageTranscodedSizeInBytes", f, image, level, int(format))
	return int(v), err
}

func (b *Backend) StartTranscoding(f basisu.NativeFile) (bool, error) {
	v, err := b.query("bf_startTranscoding", f)
	return v != 0, err
}

func boolArg(v bool) uint64 {
	if v {
		return api.EncodeI32(1)
	}
	return api.EncodeI32(0)
}

func (b *Backend) TranscodeImage(f basisu.NativeFile, image, level int, format basisu.Format, flags basisu.TranscodeFlags) ([]byte, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	h, err := b.handle(f)
	if err != nil {
		return nil, false, err
	}

	// dst pointer at scratch, size at scratch+4.
	scratch, err := b.malloc(8)
	if err != nil {
		return nil, false, err
	}
	defer b.freeLogged(scratch, "scratch")

	mem := b.mod.Memory()
	if !mem.WriteUint64Le(scratch, 0) {
		return nil, false, errors.Newf("basisu/wasm: scratch out of range at ptr=%d", scratch)
	}

	ok, err := b.callI32("bf_transcodeImage",
		h,
		api.EncodeU32(scratch),
		api.EncodeU32(scratch+4),
		api.EncodeI32(int32(image)),
		api.EncodeI32(int32(level)),
		api.EncodeI32(int32(format)),
		boolArg(flags.PVRTCWrapAddressing()),
		boolArg(flags.AlphaForOpaque()),
	)
	if err != nil {
		return nil, false, err
	}

	dst, _ := mem.ReadUint32Le(scratch)
	size, _ := mem.ReadUint32Le(scratch + 4)
	if dst == 0 {
		return nil, ok != 0, nil
	}
	defer b.freeLogged(dst, "output")

	if ok == 0 || size == 0 {
		return nil, false, nil
	}
	view, inRange := mem.Read(dst, size)
	if !inRange {
		return nil, false, errors.Newf("basisu/wasm: output out of range at ptr=%d size=%d", dst, size)
	}
	out := make([]byte, len(view))
	copy(out, view)
	return out, true, nil
}
