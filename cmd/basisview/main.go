package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"go.uber.org/zap"

	"github.com/basis-universal/basisu-go/basisu"
	"github.com/basis-universal/basisu-go/internal/asset"
	"github.com/basis-universal/basisu-go/internal/scene"
	"github.com/basis-universal/basisu-go/texture"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func usage(fs *flag.FlagSet) {
	fmt.Fprintln(os.Stderr, "usage:")
	fmt.Fprintln(os.Stderr, "  basisview [-config scene.toml] [-in file.basis] [-format etc1|bc1|bc4|pvrtc1|bc7|etc2|bc3|bc5] [-backend native|wasm|reference] [-wasm module.wasm] [-out dir] [-info]")
	fs.PrintDefaults()
}

type options struct {
	infoOnly bool
	verbose  bool
}

// parseArgs merges defaults, the optional config file and explicit flags,
// in that order of precedence, and validates the result.
func parseArgs(args []string) (scene.Config, options, error) {
	fs := flag.NewFlagSet("basisview", flag.ContinueOnError)
	fs.Usage = func() { usage(fs) }
	var (
		configPath string
		inPath     string
		format     string
		backend    string
		wasmPath   string
		outDir     string
		features   string
		pvrtcWrap  bool
		alphaOpq   bool
		opts       options
	)
	fs.StringVar(&configPath, "config", "", "optional TOML scene configuration")
	fs.StringVar(&inPath, "in", "", "input .basis file (raw or zstd-compressed)")
	fs.StringVar(&format, "format", "", "transcoder target format")
	fs.StringVar(&backend, "backend", "", "backend: native|wasm|reference (native requires -tags basisu_native)")
	fs.StringVar(&wasmPath, "wasm", "", "WebAssembly build of the transcoder wrapper")
	fs.StringVar(&outDir, "out", "", "write every level as a KTX file into this directory")
	fs.StringVar(&features, "webgpu-features", "", "comma separated device features (bc,etc2); selects the format")
	fs.BoolVar(&pvrtcWrap, "pvrtc-wrap", false, "use wrap addressing for PVRTC1 output")
	fs.BoolVar(&alphaOpq, "alpha-for-opaque", false, "decode alpha into opaque formats")
	fs.BoolVar(&opts.infoOnly, "info", false, "print container metadata and exit")
	fs.BoolVar(&opts.verbose, "v", false, "debug logging")
	if err := fs.Parse(args); err != nil {
		return scene.Config{}, options{}, err
	}

	cfg := scene.Default()
	if configPath != "" {
		c, err := scene.LoadConfig(configPath)
		if err != nil {
			return scene.Config{}, options{}, err
		}
		cfg = c
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "in":
			cfg.Asset = inPath
		case "format":
			cfg.Format = format
		case "backend":
			cfg.Backend = strings.ToLower(strings.TrimSpace(backend))
		case "wasm":
			cfg.WASMModule = wasmPath
			if !flagSet(fs, "backend") {
				cfg.Backend = scene.BackendWASM
			}
		case "out":
			cfg.OutputDir = outDir
		case "webgpu-features":
			cfg.WebGPUFeatures = splitList(features)
		case "pvrtc-wrap":
			cfg.PVRTCWrap = pvrtcWrap
		case "alpha-for-opaque":
			cfg.AlphaForOpaque = alphaOpq
		}
	})
	if err := cfg.Validate(); err != nil {
		return scene.Config{}, options{}, err
	}
	return cfg, opts, nil
}

func run(args []string) int {
	cfg, opts, err := parseArgs(args)
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, err)
		}
		return 2
	}

	data, err := asset.Load(cfg.Asset)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if opts.infoOnly {
		return printInfo(cfg.Asset, data)
	}

	log, err := scene.NewLogger(opts.verbose)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer func() { _ = log.Sync() }()
	basisu.SetLogger(log.Named("basisu"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	b, release, err := scene.OpenBackend(ctx, cfg)
	if err != nil {
		log.Error("open backend", zap.String("backend", cfg.Backend), zap.Error(err))
		return 1
	}
	defer func() {
		if err := release(); err != nil {
			log.Warn("release backend", zap.Error(err))
		}
	}()

	var (
		r  texture.Renderer = &texture.Recorder{}
		kw *texture.KTXWriter
	)
	if cfg.OutputDir != "" {
		if kw, err = texture.NewKTXWriter(cfg.OutputDir); err != nil {
			log.Error("output directory", zap.Error(err))
			return 1
		}
		r = kw
	}
	if len(cfg.WebGPUFeatures) > 0 {
		r = withWebGPU(r, log.Named("webgpu"))
	}

	lib := basisu.NewLibrary(b)
	res, err := scene.View(ctx, lib, data, cfg, r, log.Named("view"))
	if err != nil {
		log.Error("view failed", zap.String("asset", cfg.Asset), zap.Error(err))
		return 1
	}

	total := 0
	for _, l := range res.Levels {
		total += l.Bytes
	}
	fmt.Printf("%s: %d textures, %s (%s), %d bytes, %.3f ms\n",
		cfg.Asset, len(res.Levels), res.Format, res.HostFormat, total,
		float64(res.Elapsed.Microseconds())/1000)
	if kw != nil {
		for _, p := range kw.Paths() {
			fmt.Println(p)
		}
	}
	return 0
}

func printInfo(name string, data []byte) int {
	info, err := basisu.Inspect(data)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("%s: %s\n", name, info.Header)
	fmt.Printf("alpha: %v, images: %d\n", info.HasAlpha, len(info.Images))
	for i, img := range info.Images {
		for j, l := range img.Levels {
			fmt.Printf("  image %d, level %d: %dx%d (%dx%d blocks)\n", i, j, l.Width, l.Height, l.BlocksX, l.BlocksY)
		}
	}
	if err := basisu.VerifyChecksums(data); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println("checksums: ok")
	return 0
}

func flagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
