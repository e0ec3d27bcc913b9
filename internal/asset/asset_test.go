package asset_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/basis-universal/basisu-go/basisu"
	"github.com/basis-universal/basisu-go/basisu/basisutest"
	"github.com/basis-universal/basisu-go/internal/asset"
)

func TestLoad_RawAndCompressed(t *testing.T) {
	data := basisutest.Single(64, 64).Bytes()
	dir := t.TempDir()

	raw := filepath.Join(dir, "sample.basis")
	if err := os.WriteFile(raw, data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	packed := asset.Encode(data)
	if !asset.Compressed(packed) || asset.Compressed(data) {
		t.Fatalf("Compressed misdetects frames")
	}
	zst := filepath.Join(dir, "sample.basis.zst")
	if err := os.WriteFile(zst, packed, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	for _, p := range []string{raw, zst} {
		got, err := asset.Load(p)
		if err != nil {
			t.Fatalf("Load(%s): %v", p, err)
		}
		if !bytes.Equal(got, data) {
			t.Fatalf("Load(%s): content mismatch", p)
		}
		if err := basisu.VerifyChecksums(got); err != nil {
			t.Fatalf("VerifyChecksums(%s): %v", p, err)
		}
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := asset.Load(filepath.Join(t.TempDir(), "missing.basis")); err == nil {
		t.Fatalf("Load(missing): want error")
	}

	bad := append([]byte{0x28, 0xB5, 0x2F, 0xFD}, []byte("garbage frame")...)
	if _, err := asset.Decode(bad); err == nil {
		t.Fatalf("Decode(corrupt frame): want error")
	}
}
