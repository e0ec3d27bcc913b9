package scene

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/basis-universal/basisu-go/basisu"
	"github.com/basis-universal/basisu-go/basisu/basisutest"
	"github.com/basis-universal/basisu-go/basisu/native"
	"github.com/basis-universal/basisu-go/basisu/wasm"
	"github.com/basis-universal/basisu-go/internal/asset"
)

// OpenBackend creates the backend named by c.Backend. The returned release
// function must be called once the backend is no longer used.
func OpenBackend(ctx context.Context, c Config) (basisu.Backend, func() error, error) {
	noop := func() error { return nil }
	switch c.Backend {
	case BackendNative:
		b, err := native.New()
		if err != nil {
			return nil, nil, err
		}
		return b, noop, nil
	case BackendWASM:
		module, err := asset.Load(c.WASMModule)
		if err != nil {
			return nil, nil, errors.Wrap(err, "scene: wasm module")
		}
		var opts []wasm.Option
		if c.WASMMemoryPages > 0 {
			opts = append(opts, wasm.WithMemoryLimitPages(c.WASMMemoryPages))
		}
		b, err := wasm.New(ctx, module, opts...)
		if err != nil {
			return nil, nil, err
		}
		return b, func() error { return b.Shutdown(context.WithoutCancel(ctx)) }, nil
	case BackendReference:
		return basisutest.NewBackend(), noop, nil
	default:
		return nil, nil, errors.Newf("scene: unknown backend %q", c.Backend)
	}
}
