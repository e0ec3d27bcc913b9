// Package scene implements the two sample scenes: View transcodes every
// image and level of a container into host textures, Stress opens and
// closes a container repeatedly while accounting for handles.
package scene

import (
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"

	"github.com/basis-universal/basisu-go/basisu"
	"github.com/basis-universal/basisu-go/texture"
)

// Backend names.
const (
	BackendNative    = "native"
	BackendWASM      = "wasm"
	BackendReference = "reference"
)

// Config is the scene configuration, usually read from a TOML file.
type Config struct {
	Asset           string   `toml:"asset"`
	Format          string   `toml:"format"`
	Backend         string   `toml:"backend"`
	WASMModule      string   `toml:"wasm_module"`
	WASMMemoryPages uint32   `toml:"wasm_memory_pages"`
	OutputDir       string   `toml:"output_dir"`
	Iterations      int      `toml:"iterations"`
	Workers         int      `toml:"workers"`
	PVRTCWrap       bool     `toml:"pvrtc_wrap"`
	AlphaForOpaque  bool     `toml:"alpha_for_opaque"`
	WebGPUFeatures  []string `toml:"webgpu_features"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Asset:      "kodim20.basis",
		Format:     "etc1",
		Backend:    BackendNative,
		Iterations: 500,
		Workers:    1,
	}
}

// LoadConfig reads path over the defaults. Unknown keys are an error.
func LoadConfig(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "scene: read config")
	}
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return Config{}, errors.Wrapf(err, "scene: parse %s", path)
	}
	if und := md.Undecoded(); len(und) > 0 {
		keys := make([]string, len(und))
		for i, k := range und {
			keys[i] = k.String()
		}
		return Config{}, errors.Newf("scene: %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Asset == "" {
		return errors.New("scene: no asset")
	}
	switch c.Backend {
	case BackendNative, BackendReference:
	case BackendWASM:
		if c.WASMModule == "" {
			return errors.New("scene: wasm backend needs wasm_module")
		}
	default:
		return errors.Newf("scene: unknown backend %q", c.Backend)
	}
	if len(c.WebGPUFeatures) == 0 {
		if _, err := basisu.ParseFormat(c.Format); err != nil {
			return err
		}
	}
	if _, err := c.features(); err != nil {
		return err
	}
	if c.Iterations <= 0 {
		return errors.Newf("scene: iterations must be positive, got %d", c.Iterations)
	}
	if c.Workers <= 0 {
		return errors.Newf("scene: workers must be positive, got %d", c.Workers)
	}
	return nil
}

func (c Config) features() ([]texture.Feature, error) {
	out := make([]texture.Feature, 0, len(c.WebGPUFeatures))
	for _, s := range c.WebGPUFeatures {
		f, err := texture.ParseFeature(s)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// TargetFormat returns the transcoder format to produce. When WebGPU
// features are configured they decide; otherwise Format does.
func (c Config) TargetFormat(hasAlpha bool) (basisu.Format, error) {
	if len(c.WebGPUFeatures) > 0 {
		fs, err := c.features()
		if err != nil {
			return basisu.FormatInvalid, err
		}
		return texture.SelectFormat(fs, hasAlpha)
	}
	return basisu.ParseFormat(c.Format)
}

// Flags returns the transcode flags selected by the configuration.
func (c Config) Flags() basisu.TranscodeFlags {
	var f basisu.TranscodeFlags
	if c.PVRTCWrap {
		f |= basisu.FlagPVRTCWrapAddressing
	}
	if c.AlphaForOpaque {
		f |= basisu.FlagAlphaForOpaque
	}
	return f
}
