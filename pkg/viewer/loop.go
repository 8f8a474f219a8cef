package viewer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-cvtemplate/pkg/pipeline"
)

// Source delivers frames. camera.Device satisfies it.
type Source interface {
	Read(m *gocv.Mat) bool
}

// Processor turns a frame into window images. *pipeline.Pipeline satisfies it.
type Processor interface {
	Process(frame *gocv.Mat) (*pipeline.Result, error)
}

// Stats counts what happened during a Run.
type Stats struct {
	Frames  int // Frames processed and shown
	Skipped int // Failed or empty reads
	Errors  int // Frames dropped by a processing error

	RenderErrors int // Windows that failed to show a frame
}

// Loop defaults.
const (
	DefaultQuitKey   = 'q'
	DefaultPollDelay = 20 * time.Millisecond
)

// Loop reads, processes and shows frames until the quit key is pressed or
// the context is cancelled. It runs on the calling goroutine.
type Loop struct {
	Source    Source
	Processor Processor
	Display   *Display

	QuitKey    int
	PollDelay  time.Duration // Key poll, also the window refresh tick
	RetryDelay time.Duration // Pause after a failed read

	PrintFPS bool
	Out      io.Writer // FPS output, default stdout
	Logger   *slog.Logger

	sleep func(time.Duration)
	meter *FPSMeter
}

// NewLoop creates a loop with the default quit key and poll delay.
func NewLoop(src Source, proc Processor, display *Display, logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		Source:    src,
		Processor: proc,
		Display:   display,
		QuitKey:   DefaultQuitKey,
		PollDelay: DefaultPollDelay,
		Out:       os.Stdout,
		Logger:    logger,
	}
}

// Run executes the loop. It returns ctx.Err() when cancelled and nil when
// the quit key ends it. Per-frame failures are logged and never end the loop.
func (l *Loop) Run(ctx context.Context) (Stats, error) {
	var stats Stats

	if l.Source == nil || l.Processor == nil || l.Display == nil {
		return stats, errors.New("viewer: loop needs a source, processor and display")
	}
	if l.Logger == nil {
		l.Logger = slog.Default()
	}
	if l.Out == nil {
		l.Out = os.Stdout
	}
	if l.sleep == nil {
		l.sleep = time.Sleep
	}
	if l.meter == nil {
		l.meter = NewFPSMeter()
	}

	frame := gocv.NewMat()
	defer frame.Close()

	for {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		l.step(&frame, &stats)

		// Polled on every iteration so the windows keep pumping events and
		// the quit key works even while reads fail.
		key := l.Display.WaitKey(int(l.PollDelay / time.Millisecond))
		if key >= 0 && key&0xFF == l.QuitKey {
			l.Logger.Debug("quit key pressed", "frames", stats.Frames)
			return stats, nil
		}
	}
}

// step reads, processes and shows one frame. Failures are counted and logged.
func (l *Loop) step(frame *gocv.Mat, stats *Stats) {
	l.meter.Start()

	if ok := l.Source.Read(frame); !ok || frame.Empty() {
		stats.Skipped++
		l.Logger.Warn("empty frame captured, retrying", "read_ok", ok)
		if l.RetryDelay > 0 {
			l.sleep(l.RetryDelay)
		}
		return
	}

	res, err := l.Processor.Process(frame)
	if err != nil {
		stats.Errors++
		l.Logger.Warn("frame processing failed", "error", err)
		return
	}

	stats.RenderErrors += l.Display.Show(res, *frame)
	res.Close()
	stats.Frames++

	if l.PrintFPS {
		fmt.Fprintln(l.Out, FormatFPS(l.meter.Stop()))
	}
}
