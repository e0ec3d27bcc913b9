package wasm_test

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/basis-universal/basisu-go/basisu"
)

type guestFunc struct {
	name   string
	params int
	result bool
}

var wrapperABI = []guestFunc{
	{"malloc", 1, true},
	{"free", 1, false},
	{"basis_init", 0, false},
	{"bf_new", 2, true},
	{"bf_close", 1, false},
	{"bf_getHasAlpha", 1, true},
	{"bf_getNumImages", 1, true},
	{"bf_getNumLevels", 2, true},
	{"bf_getImageWidth", 3, true},
	{"bf_getImageHeight", 3, true},
	{"bf_getImageTranscodedSizeInBytes", 4, true},
	{"bf_startTranscoding", 1, true},
	{"bf_transcodeImage", 8, true},
}

func uleb(v uint32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		out = append(out, b)
		if v == 0 {
			return out
		}
	}
}

func name(s string) []byte { return append(uleb(uint32(len(s))), s...) }

func section(id byte, body []byte) []byte {
	return append(append([]byte{id}, uleb(uint32(len(body)))...), body...)
}

// buildGuest encodes a module that owns its memory and exports one thin
// function per entry of funcs, each forwarding its arguments to the same
// name imported from "env".
func buildGuest(funcs []guestFunc) []byte {
	n := uint32(len(funcs))

	types := uleb(n)
	for _, f := range funcs {
		types = append(types, 0x60)
		types = append(types, uleb(uint32(f.params))...)
		for i := 0; i < f.params; i++ {
			types = append(types, api.ValueTypeI32)
		}
		if f.result {
			types = append(types, 0x01, api.ValueTypeI32)
		} else {
			types = append(types, 0x00)
		}
	}

	imports := uleb(n)
	for i, f := range funcs {
		imports = append(imports, name("env")...)
		imports = append(imports, name(f.name)...)
		imports = append(imports, 0x00)
		imports = append(imports, uleb(uint32(i))...)
	}

	fsec := uleb(n)
	for i := range funcs {
		fsec = append(fsec, uleb(uint32(i))...)
	}

	// One memory, two pages minimum, no maximum.
	mem := []byte{0x01, 0x00, 0x02}

	exports := uleb(n + 1)
	exports = append(exports, name("memory")...)
	exports = append(exports, 0x02, 0x00)
	for i, f := range funcs {
		exports = append(exports, name(f.name)...)
		exports = append(exports, 0x00)
		exports = append(exports, uleb(n+uint32(i))...)
	}

	code := uleb(n)
	for i, f := range funcs {
		body := []byte{0x00}
		for p := 0; p < f.params; p++ {
			body = append(body, 0x20)
			body = append(body, uleb(uint32(p))...)
		}
		body = append(body, 0x10)
		body = append(body, uleb(uint32(i))...)
		body = append(body, 0x0b)
		code = append(code, uleb(uint32(len(body)))...)
		code = append(code, body...)
	}

	out := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
	out = append(out, section(1, types)...)
	out = append(out, section(2, imports)...)
	out = append(out, section(3, fsec)...)
	out = append(out, section(5, mem)...)
	out = append(out, section(7, exports)...)
	out = append(out, section(10, code)...)
	return out
}

type fakeFile struct {
	info    basisu.Info
	started bool
}

// fakeTranscoder implements the wrapper ABI on the host side. It answers
// metadata from basisu.Inspect and allocates guest memory with a bump
// allocator that tracks live blocks.
type fakeTranscoder struct {
	next  uint32
	live  map[uint32]uint32
	files map[uint32]*fakeFile
	total uint32

	initCalls int
	rejectNew bool
	lastWrap  uint32
	lastAlpha uint32
}

func newFakeTranscoder() *fakeTranscoder {
	return &fakeTranscoder{
		next:  1024,
		live:  make(map[uint32]uint32),
		files: make(map[uint32]*fakeFile),
	}
}

func (ft *fakeTranscoder) instantiate(ctx context.Context, r wazero.Runtime) error {
	_, err := r.NewHostModuleBuilder("env").
		NewFunctionBuilder().WithFunc(ft.malloc).Export("malloc").
		NewFunctionBuilder().WithFunc(ft.free).Export("free").
		NewFunctionBuilder().WithFunc(ft.basisInit).Export("basis_init").
		NewFunctionBuilder().WithFunc(ft.bfNew).Export("bf_new").
		NewFunctionBuilder().WithFunc(ft.bfClose).Export("bf_close").
		NewFunctionBuilder().WithFunc(ft.hasAlpha).Export("bf_getHasAlpha").
		NewFunctionBuilder().WithFunc(ft.numImages).Export("bf_getNumImages").
		NewFunctionBuilder().WithFunc(ft.numLevels).Export("bf_getNumLevels").
		NewFunctionBuilder().WithFunc(ft.width).Export("bf_getImageWidth").
		NewFunctionBuilder().WithFunc(ft.height).Export("bf_getImageHeight").
		NewFunctionBuilder().WithFunc(ft.transcodedSize).Export("bf_getImageTranscodedSizeInBytes").
		NewFunctionBuilder().WithFunc(ft.start).Export("bf_startTranscoding").
		NewFunctionBuilder().WithFunc(ft.transcode).Export("bf_transcodeImage").
		Instantiate(ctx)
	return err
}

func (ft *fakeTranscoder) alloc(m api.Module, size uint32) uint32 {
	p := (ft.next + 7) &^ 7
	end := p + max(size, 1)
	if have := m.Memory().Size(); end > have {
		if _, ok := m.Memory().Grow((end - have + 65535) / 65536); !ok {
			return 0
		}
	}
	ft.next = end
	ft.live[p] = size
	ft.total++
	return p
}

func (ft *fakeTranscoder) malloc(_ context.Context, m api.Module, size uint32) uint32 {
	return ft.alloc(m, size)
}

func (ft *fakeTranscoder) free(_ context.Context, p uint32) { delete(ft.live, p) }

func (ft *fakeTranscoder) basisInit(context.Context) { ft.initCalls++ }

func (ft *fakeTranscoder) bfNew(_ context.Context, m api.Module, p, size uint32) uint32 {
	if ft.rejectNew {
		return 0
	}
	view, ok := m.Memory().Read(p, size)
	if !ok {
		return 0
	}
	info, err := basisu.Inspect(append([]byte(nil), view...))
	if err != nil {
		return 0
	}
	h := uint32(len(ft.files)) + 1
	for ft.files[h] != nil {
		h++
	}
	ft.files[h] = &fakeFile{info: info}
	return h
}

func (ft *fakeTranscoder) bfClose(_ context.Context, h uint32) { delete(ft.files, h) }

func (ft *fakeTranscoder) level(h, image, level uint32) (basisu.LevelInfo, bool) {
	f := ft.files[h]
	if f == nil || int(image) >= len(f.info.Images) || int(level) >= len(f.info.Images[image].Levels) {
		return basisu.LevelInfo{}, false
	}
	return f.info.Images[image].Levels[level], true
}

func (ft *fakeTranscoder) hasAlpha(_ context.Context, h uint32) uint32 {
	if f := ft.files[h]; f != nil && f.info.HasAlpha {
		return 1
	}
	return 0
}

func (ft *fakeTranscoder) numImages(_ context.Context, h uint32) uint32 {
	if f := ft.files[h]; f != nil {
		return uint32(len(f.info.Images))
	}
	return 0
}

func (ft *fakeTranscoder) numLevels(_ context.Context, h, image uint32) uint32 {
	f := ft.files[h]
	if f == nil || int(image) >= len(f.info.Images) {
		return 0
	}
	return uint32(len(f.info.Images[image].Levels))
}

func (ft *fakeTranscoder) width(_ context.Context, h, image, level uint32) uint32 {
	l, _ := ft.level(h, image, level)
	return uint32(l.Width)
}

func (ft *fakeTranscoder) height(_ context.Context, h, image, level uint32) uint32 {
	l, _ := ft.level(h, image, level)
	return uint32(l.Height)
}

func (ft *fakeTranscoder) transcodedSize(_ context.Context, h, image, level, format uint32) uint32 {
	l, _ := ft.level(h, image, level)
	return uint32(basisu.Format(int32(format)).DataSize(l.Width, l.Height))
}

func (ft *fakeTranscoder) start(_ context.Context, h uint32) uint32 {
	f := ft.files[h]
	if f == nil {
		return 0
	}
	f.started = true
	return 1
}

func (ft *fakeTranscoder) transcode(_ context.Context, m api.Module, h, dstPtr, sizePtr, image, level, format, wrap, alpha uint32) uint32 {
	ft.lastWrap, ft.lastAlpha = wrap, alpha
	f := ft.files[h]
	if f == nil || !f.started {
		return 0
	}
	l, ok := ft.level(h, image, level)
	if !ok {
		return 0
	}
	n := uint32(basisu.Format(int32(format)).DataSize(l.Width, l.Height))
	if n == 0 {
		return 0
	}
	p := ft.alloc(m, n)
	if p == 0 {
		return 0
	}
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = byte(i)
	}
	mem := m.Memory()
	if !mem.Write(p, buf) || !mem.WriteUint32Le(dstPtr, p) || !mem.WriteUint32Le(sizePtr, n) {
		return 0
	}
	return 1
}
