package texture

import (
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/basis-universal/basisu-go/basisu"
)

// Feature is a block-compression family a GPU device can sample.
type Feature uint8

const (
	FeatureNone Feature = iota
	FeatureBC
	FeatureETC2
)

func (f Feature) String() string {
	switch f {
	case FeatureBC:
		return "bc"
	case FeatureETC2:
		return "etc2"
	default:
		return "none"
	}
}

// ParseFeature parses "bc" or "etc2", ignoring case and surrounding space.
func ParseFeature(s string) (Feature, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bc":
		return FeatureBC, nil
	case "etc2":
		return FeatureETC2, nil
	default:
		return FeatureNone, errors.Newf("texture: unknown feature %q", s)
	}
}

// RequiredFeature returns the device feature needed to sample f.
func RequiredFeature(f Format) (Feature, error) {
	switch f {
	case FormatDXT1, FormatBC4, FormatBC7, FormatDXT5, FormatBC5:
		return FeatureBC, nil
	case FormatETCRGB4, FormatETC2RGBA8:
		return FeatureETC2, nil
	default:
		return FeatureNone, &basisu.Error{Kind: basisu.KindUnsupportedFormat, Op: "required feature", Msg: f.String()}
	}
}

// SelectFormat picks the transcoder target for a device with the given
// features. BC is preferred over ETC2.
func SelectFormat(features []Feature, hasAlpha bool) (basisu.Format, error) {
	has := func(want Feature) bool {
		for _, f := range features {
			if f == want {
				return true
			}
		}
		return false
	}
	switch {
	case has(FeatureBC):
		if hasAlpha {
			return basisu.FormatBC3, nil
		}
		return basisu.FormatBC1, nil
	case has(FeatureETC2):
		if hasAlpha {
			return basisu.FormatETC2, nil
		}
		return basisu.FormatETC1, nil
	default:
		return basisu.FormatInvalid, &basisu.Error{Kind: basisu.KindUnsupportedFormat, Op: "select format", Msg: "device supports neither BC nor ETC2 compression"}
	}
}
