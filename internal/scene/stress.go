package scene

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/basis-universal/basisu-go/basisu"
)

// StressResult summarizes a Stress run.
type StressResult struct {
	Iterations int
	Transcoded int64
	Elapsed    time.Duration
}

// ErrLeak is returned by Stress when handles are still open after the run.
var ErrLeak = errors.New("scene: open files left after stress run")

// Stress opens, transcodes the first level of and closes data c.Iterations
// times, split across c.Workers goroutines. Each worker owns its handles.
func Stress(ctx context.Context, lib *basisu.Library, data []byte, c Config, log *zap.Logger) (StressResult, error) {
	start := time.Now()
	baseline := lib.OpenFiles()

	var transcoded atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < c.Workers; w++ {
		g.Go(func() error {
			for i := w; i < c.Iterations; i += c.Workers {
				if err := ctx.Err(); err != nil {
					return err
				}
				n, err := stressOnce(lib, data, c)
				if err != nil {
					return errors.Wrapf(err, "worker %d iteration %d", w, i)
				}
				transcoded.Add(int64(n))
			}
			return nil
		})
	}
	err := g.Wait()

	res := StressResult{
		Iterations: c.Iterations,
		Transcoded: transcoded.Load(),
		Elapsed:    time.Since(start),
	}
	if err != nil {
		return res, err
	}
	if open := lib.OpenFiles() - baseline; open != 0 {
		return res, errors.Wrapf(ErrLeak, "%d files", open)
	}
	log.Info("stress done",
		zap.Int("iterations", res.Iterations),
		zap.Int("workers", c.Workers),
		zap.Int64("bytes", res.Transcoded),
		zap.Duration("elapsed", res.Elapsed))
	return res, nil
}

func stressOnce(lib *basisu.Library, data []byte, c Config) (n int, err error) {
	f, err := lib.Open(data)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			n, err = 0, cerr
		}
	}()

	hasAlpha, err := f.HasAlpha()
	if err != nil {
		return 0, err
	}
	format, err := c.TargetFormat(hasAlpha)
	if err != nil {
		return 0, err
	}
	if err := f.StartTranscoding(); err != nil {
		return 0, err
	}
	out, err := f.TranscodeImage(0, 0, format, c.Flags())
	if err != nil {
		return 0, err
	}
	return len(out), nil
}
