package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime/pprof"
	"strings"

	"go.uber.org/zap"

	"github.com/basis-universal/basisu-go/basisu"
	"github.com/basis-universal/basisu-go/internal/asset"
	"github.com/basis-universal/basisu-go/internal/scene"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

type options struct {
	cpuprofile string
	verbose    bool
}

// parseArgs merges defaults, the optional config file and explicit flags,
// in that order of precedence, and validates the result.
func parseArgs(args []string) (scene.Config, options, error) {
	fs := flag.NewFlagSet("basisstress", flag.ContinueOnError)
	var (
		opts       options
		configPath string
		inPath     string
		format     string
		backend    string
		wasmPath   string
		iters      int
		workers    int
	)
	fs.StringVar(&configPath, "config", "", "optional TOML scene configuration")
	fs.StringVar(&inPath, "in", "", "input .basis file (raw or zstd-compressed)")
	fs.StringVar(&format, "format", "", "transcoder target format")
	fs.StringVar(&backend, "backend", "", "backend: native|wasm|reference (native requires -tags basisu_native)")
	fs.StringVar(&wasmPath, "wasm", "", "WebAssembly build of the transcoder wrapper")
	fs.IntVar(&iters, "iters", 0, "iterations (default from config, 500)")
	fs.IntVar(&workers, "workers", 0, "concurrent workers (default from config, 1)")
	fs.StringVar(&opts.cpuprofile, "cpuprofile", "", "optional CPU profile output path")
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
		case "iters":
			cfg.Iterations = iters
		case "workers":
			cfg.Workers = workers
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

	log, err := scene.NewLogger(opts.verbose)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer func() { _ = log.Sync() }()
	basisu.SetLogger(log.Named("basisu"))

	if opts.cpuprofile != "" {
		f, err := os.Create(opts.cpuprofile)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		defer func() {
			pprof.StopCPUProfile()
			_ = f.Close()
		}()
	}

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

	lib := basisu.NewLibrary(b)
	res, err := scene.Stress(ctx, lib, data, cfg, log.Named("stress"))
	if err != nil {
		log.Error("stress failed", zap.String("asset", cfg.Asset), zap.Int("open_files", lib.OpenFiles()), zap.Error(err))
		return 1
	}

	perIter := float64(res.Elapsed.Microseconds()) / float64(res.Iterations)
	fmt.Printf("%s: %d iterations, %d workers, %d bytes, %.3f ms (%.1f us/iter), open files %d\n",
		cfg.Asset, res.Iterations, cfg.Workers, res.Transcoded,
		float64(res.Elapsed.Microseconds())/1000, perIter, lib.OpenFiles())
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
