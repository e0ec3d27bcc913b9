package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/basis-universal/basisu-go/internal/scene"
)

func TestParseArgs_WASMBackend(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "scene.toml")
	if err := os.WriteFile(cfgPath, []byte("backend = \"reference\"\niterations = 50\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cases := []struct {
		name    string
		args    []string
		backend string
		iters   int
	}{
		{"wasm alone", []string{"-wasm", "basisu.wasm"}, scene.BackendWASM, 500},
		{"explicit backend wins", []string{"-backend", "reference", "-wasm", "basisu.wasm"}, scene.BackendReference, 500},
		{"explicit native wins", []string{"-wasm", "basisu.wasm", "-backend", "native"}, scene.BackendNative, 500},
		{"wasm over config file", []string{"-config", cfgPath, "-wasm", "basisu.wasm"}, scene.BackendWASM, 50},
		{"flags over config file", []string{"-config", cfgPath, "-iters", "7"}, scene.BackendReference, 7},
	}
	for _, c := range cases {
		cfg, _, err := parseArgs(c.args)
		if err != nil {
			t.Fatalf("%s: parseArgs: %v", c.name, err)
		}
		if cfg.Backend != c.backend || cfg.Iterations != c.iters {
			t.Fatalf("%s: got backend %q iterations %d, want %q %d", c.name, cfg.Backend, cfg.Iterations, c.backend, c.iters)
		}
	}
}

func TestParseArgs_Rejects(t *testing.T) {
	for _, args := range [][]string{
		{"-iters", "0"},
		{"-backend", "gpu"},
		{"-backend", "wasm"},
		{"-nope"},
	} {
		if _, _, err := parseArgs(args); err == nil {
			t.Fatalf("parseArgs(%v): want error", args)
		}
	}
}
