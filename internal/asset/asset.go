// Package asset loads sample containers for the scenes. Files may be stored
// raw or zstd-compressed; compression is detected from the frame magic.
package asset

import (
	"bytes"
	"os"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/zstd"
)

// MaxSize bounds the decompressed size of an asset.
const MaxSize = 256 << 20

var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

var decoderPool = sync.Pool{
	New: func() any {
		dec, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(MaxSize), zstd.WithDecoderConcurrency(1))
		if err != nil {
			return err
		}
		return dec
	},
}

var encoderPool = sync.Pool{
	New: func() any {
		enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
		return enc
	},
}

// Compressed reports whether data starts with a zstd frame.
func Compressed(data []byte) bool { return bytes.HasPrefix(data, zstdMagic) }

// Decode returns data, decompressed if it is a zstd frame.
func Decode(data []byte) ([]byte, error) {
	if !Compressed(data) {
		return data, nil
	}
	v := decoderPool.Get()
	dec, ok := v.(*zstd.Decoder)
	if !ok {
		return nil, errors.Wrap(v.(error), "asset: zstd decoder")
	}
	defer decoderPool.Put(dec)

	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, errors.Wrap(err, "asset: zstd decode")
	}
	return out, nil
}

// Encode compresses data into a single zstd frame.
func Encode(data []byte) []byte {
	enc := encoderPool.Get().(*zstd.Encoder)
	defer encoderPool.Put(enc)
	return enc.EncodeAll(data, make([]byte, 0, len(data)/2))
}

// Load reads path and decompresses it if needed.
func Load(path string) ([]byte, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrap(err, "asset")
	}
	if fi.Size() > MaxSize {
		return nil, errors.Newf("asset: %s is %d bytes, limit %d", path, fi.Size(), MaxSize)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "asset")
	}
	data, err := Decode(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "asset: %s", path)
	}
	return data, nil
}
