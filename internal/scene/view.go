package scene

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/basis-universal/basisu-go/basisu"
	"github.com/basis-universal/basisu-go/texture"
)

// LevelResult describes one texture produced by View.
type LevelResult struct {
	Image   int
	Level   int
	Width   int
	Height  int
	Bytes   int
	Elapsed time.Duration
}

// ViewResult summarizes a View run.
type ViewResult struct {
	Format     basisu.Format
	HostFormat texture.Format
	HasAlpha   bool
	Levels     []LevelResult
	Elapsed    time.Duration
}

// View opens data, transcodes every image and level into the configured
// format and applies one host texture per level to r.
func View(ctx context.Context, lib *basisu.Library, data []byte, c Config, r texture.Renderer, log *zap.Logger) (res ViewResult, err error) {
	start := time.Now()

	f, err := lib.Open(data)
	if err != nil {
		return ViewResult{}, err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			log.Warn("close failed", zap.Error(cerr))
			if err == nil {
				err = cerr
			}
		}
	}()

	if res.HasAlpha, err = f.HasAlpha(); err != nil {
		return ViewResult{}, err
	}
	if res.Format, err = c.TargetFormat(res.HasAlpha); err != nil {
		return ViewResult{}, err
	}
	if res.HostFormat, err = texture.FromTranscoder(res.Format); err != nil {
		return ViewResult{}, err
	}
	if err := f.StartTranscoding(); err != nil {
		return ViewResult{}, err
	}

	images, err := f.NumImages()
	if err != nil {
		return ViewResult{}, err
	}
	for i := 0; i < images; i++ {
		levels, err := f.NumLevels(i)
		if err != nil {
			return ViewResult{}, err
		}
		for j := 0; j < levels; j++ {
			if err := ctx.Err(); err != nil {
				return ViewResult{}, err
			}
			lr, err := viewLevel(f, i, j, res.Format, res.HostFormat, c.Flags(), r)
			if err != nil {
				return ViewResult{}, err
			}
			log.Info(fmt.Sprintf("image %d, level %d: %dx%d", i, j, lr.Width, lr.Height),
				zap.Int("image", i),
				zap.Int("level", j),
				zap.Int("width", lr.Width),
				zap.Int("height", lr.Height),
				zap.Int("bytes", lr.Bytes),
				zap.Duration("elapsed", lr.Elapsed))
			res.Levels = append(res.Levels, lr)
		}
	}

	res.Elapsed = time.Since(start)
	log.Info("view done",
		zap.Stringer("format", res.Format),
		zap.Stringer("host_format", res.HostFormat),
		zap.Int("textures", len(res.Levels)),
		zap.Float64("elapsed_ms", float64(res.Elapsed.Microseconds())/1000))
	return res, nil
}

func viewLevel(f *basisu.File, image, level int, format basisu.Format, host texture.Format, flags basisu.TranscodeFlags, r texture.Renderer) (LevelResult, error) {
	start := time.Now()
	li, err := f.LevelInfo(image, level)
	if err != nil {
		return LevelResult{}, err
	}
	blocks, err := f.TranscodeImage(image, level, format, flags)
	if err != nil {
		return LevelResult{}, err
	}
	tex, err := texture.NewTexture2D(li.Width, li.Height, host)
	if err != nil {
		return LevelResult{}, err
	}
	tex.Name = fmt.Sprintf("image%d_level%d", image, level)
	if err := tex.LoadRawTextureData(blocks); err != nil {
		return LevelResult{}, err
	}
	if err := tex.Apply(r); err != nil {
		return LevelResult{}, err
	}
	return LevelResult{
		Image:   image,
		Level:   level,
		Width:   li.Width,
		Height:  li.Height,
		Bytes:   len(blocks),
		Elapsed: time.Since(start),
	}, nil
}
