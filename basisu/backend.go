package basisu

// NativeFile is an opaque reference to backend-owned file state. Its meaning
// is private to the Backend that returned it.
type NativeFile uint64

// TranscodeFlags are the boolean options of a transcode call.
type TranscodeFlags uint8

const (
	// FlagPVRTCWrapAddressing selects wrap addressing for PVRTC1 output.
	FlagPVRTCWrapAddressing TranscodeFlags = 1 << 0
	// FlagAlphaForOpaque asks for the alpha channel to be decoded into
	// formats that are otherwise opaque.
	FlagAlphaForOpaque TranscodeFlags = 1 << 1
)

// PVRTCWrapAddressing reports whether FlagPVRTCWrapAddressing is set.
func (f TranscodeFlags) PVRTCWrapAddressing() bool { return f&FlagPVRTCWrapAddressing != 0 }

// AlphaForOpaque reports whether FlagAlphaForOpaque is set.
func (f TranscodeFlags) AlphaForOpaque() bool { return f&FlagAlphaForOpaque != 0 }

// Backend is the foreign call surface of the native transcoder wrapper.
//
// Implementations perform no argument validation beyond what is needed to
// marshal safely; Library and File guard sequencing, ranges and formats
// before calling in. A Backend must be safe for concurrent use across
// different NativeFile values.
type Backend interface {
	// Name identifies the backend in logs.
	Name() string

	// Init performs the process-wide native setup. Library calls it once.
	Init() error

	// Open copies data into a new native file. The caller keeps ownership of data.
	Open(data []byte) (NativeFile, error)

	// Close releases everything Open allocated for f.
	Close(f NativeFile) error

	HasAlpha(f NativeFile) (bool, error)
	NumImages(f NativeFile) (int, error)
	NumLevels(f NativeFile, image int) (int, error)
	ImageWidth(f NativeFile, image, level int) (int, error)
	ImageHeight(f NativeFile, image, level int) (int, error)
	TranscodedSize(f NativeFile, image, level int, format Format) (int, error)

	// StartTranscoding prepares f for TranscodeImage and reports success.
	StartTranscoding(f NativeFile) (bool, error)

	// TranscodeImage transcodes one image/level. The returned slice is owned
	// by the caller: implementations copy native output out and release the
	// native buffer before returning. ok is false when the native call
	// reported failure.
	TranscodeImage(f NativeFile, image, level int, format Format, flags TranscodeFlags) (data []byte, ok bool, err error)
}
