package wasm

import (
	"context"

	"github.com/tetratelabs/wazero"
)

// HostModules instantiates extra host modules the guest imports, before the
// guest itself is instantiated.
type HostModules func(ctx context.Context, r wazero.Runtime) error

type config struct {
	memoryLimitPages uint32
	hostModules      []HostModules
	name             string
}

// Option configures New.
type Option func(*config)

// WithMemoryLimitPages caps guest linear memory at n 64 KiB pages.
func WithMemoryLimitPages(n uint32) Option {
	return func(c *config) { c.memoryLimitPages = n }
}

// WithHostModules registers fn to provide imports beyond WASI.
func WithHostModules(fn HostModules) Option {
	return func(c *config) { c.hostModules = append(c.hostModules, fn) }
}

// WithModuleName sets the guest module instance name. The default is "basisu".
func WithModuleName(name string) Option {
	return func(c *config) { c.name = name }
}
