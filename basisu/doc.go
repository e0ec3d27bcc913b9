// Package basisu binds a native Basis Universal transcoder wrapper.
//
// The native side is reached through a Backend: the cgo binding in
// basisu/native, the WebAssembly build run by basisu/wasm, or the in-memory
// reference in basisu/basisutest. Library owns the one-time initialization
// and hands out File handles, which follow a fixed protocol:
//
//	lib := basisu.NewLibrary(backend)
//	f, err := lib.Open(data)
//	if err != nil {
//		return err
//	}
//	defer f.Close()
//	if err := f.StartTranscoding(); err != nil {
//		return err
//	}
//	blocks, err := f.TranscodeImage(0, 0, basisu.FormatETC1, 0)
//
// Buffers returned by TranscodeImage are owned by the caller; no native
// allocation outlives the call that produced it.
//
// The package also parses .basis headers and slice tables in pure Go
// (ParseHeader, Inspect, VerifyChecksums) so that malformed data is rejected
// before it reaches the native side.
package basisu
