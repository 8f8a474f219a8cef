package viewer

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-cvtemplate/pkg/pipeline"
)

// step is one scripted read: ok=false is a failed read, empty=true yields an empty Mat.
type step struct {
	ok    bool
	empty bool
}

type scriptedSource struct {
	steps  []step
	reads  int
	onDone func()
}

func (s *scriptedSource) Read(m *gocv.Mat) bool {
	s.reads++
	if len(s.steps) == 0 {
		if s.onDone != nil {
			s.onDone()
		}
		return false
	}
	st := s.steps[0]
	s.steps = s.steps[1:]
	if !st.ok {
		return false
	}
	if st.empty {
		m.Close()
		*m = gocv.NewMat()
		return true
	}
	f := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(10, 20, 30, 0), 48, 64, gocv.MatTypeCV8UC3)
	f.CopyTo(m)
	f.Close()
	return true
}

type fakeProcessor struct {
	calls  int
	failAt map[int]bool
}

func (p *fakeProcessor) Process(frame *gocv.Mat) (*pipeline.Result, error) {
	p.calls++
	if frame.Empty() {
		return nil, errors.New("processor saw an empty frame")
	}
	if p.failAt[p.calls] {
		return nil, pipeline.ErrColorConversion
	}
	return &pipeline.Result{Gray: frame.Clone()}, nil
}

type fakeWindow struct {
	pane    Pane
	shown   int
	showErr error
	keys    []int
	waits   []int
	closed  bool
}

func (w *fakeWindow) IMShow(gocv.Mat) error {
	if w.showErr != nil {
		return w.showErr
	}
	w.shown++
	return nil
}

func (w *fakeWindow) WaitKey(delay int) int {
	w.waits = append(w.waits, delay)
	if len(w.keys) == 0 {
		return -1
	}
	k := w.keys[0]
	w.keys = w.keys[1:]
	return k
}

func (w *fakeWindow) Close() error {
	w.closed = true
	return nil
}

func fakeDisplay(layout []Pane, keys ...int) (*Display, []*fakeWindow) {
	var created []*fakeWindow
	d := OpenDisplay(layout, func(p Pane) Window {
		w := &fakeWindow{pane: p}
		if len(created) == 0 {
			w.keys = keys
		}
		created = append(created, w)
		return w
	}, nil)
	return d, created
}

func testLoop(t *testing.T, src *scriptedSource, proc Processor, d *Display) (*Loop, context.Context, *[]time.Duration) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	src.onDone = cancel

	var slept []time.Duration
	l := NewLoop(src, proc, d, nil)
	l.Out = &bytes.Buffer{}
	l.sleep = func(d time.Duration) { slept = append(slept, d) }
	return l, ctx, &slept
}

func TestRun_SkipsFailedAndEmptyReads(t *testing.T) {
	src := &scriptedSource{steps: []step{
		{ok: false},
		{ok: true, empty: true},
		{ok: true},
		{ok: true},
	}}
	proc := &fakeProcessor{}
	d, wins := fakeDisplay(GrayLayout, -1, -1, -1, 'q')

	l, ctx, slept := testLoop(t, src, proc, d)
	l.RetryDelay = 50 * time.Millisecond

	stats, err := l.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := Stats{Frames: 2, Skipped: 2}
	if stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}
	if proc.calls != 2 {
		t.Errorf("processor calls = %d, want 2", proc.calls)
	}
	if src.reads != 4 {
		t.Errorf("reads = %d, want 4", src.reads)
	}
	if len(*slept) != 2 || (*slept)[0] != 50*time.Millisecond {
		t.Errorf("retry sleeps = %v", *slept)
	}
	// frame and gray shown for each good frame
	for _, w := range wins {
		if w.shown != 2 {
			t.Errorf("%s shown %d times, want 2", w.pane.Name, w.shown)
		}
	}
	// the key is polled after skipped reads too
	if got := wins[0].waits; len(got) != 4 || got[0] != 20 {
		t.Errorf("key polls = %v, want four 20ms polls", got)
	}
}

func TestRun_ProcessingErrorContinues(t *testing.T) {
	src := &scriptedSource{steps: []step{{ok: true}, {ok: true}}}
	proc := &fakeProcessor{failAt: map[int]bool{1: true}}
	d, _ := fakeDisplay(GrayLayout, -1, 'q')

	l, ctx, _ := testLoop(t, src, proc, d)

	stats, err := l.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Errors != 1 || stats.Frames != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestRun_QuitKeyMasked(t *testing.T) {
	src := &scriptedSource{steps: []step{{ok: true}, {ok: true}, {ok: true}}}
	d, _ := fakeDisplay(GrayLayout, 'x', 0x100000|'q')

	l, ctx, _ := testLoop(t, src, &fakeProcessor{}, d)

	stats, err := l.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Frames != 2 {
		t.Errorf("frames = %d, want 2", stats.Frames)
	}
}

func TestRun_ContextCancelled(t *testing.T) {
	src := &scriptedSource{steps: []step{{ok: true}}}
	d, _ := fakeDisplay(GrayLayout)

	l, _, _ := testLoop(t, src, &fakeProcessor{}, d)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if src.reads != 0 {
		t.Errorf("reads = %d after cancellation", src.reads)
	}
}

func TestRun_CancelAfterExhaustedSource(t *testing.T) {
	// Reads fail forever; only cancellation stops the loop.
	src := &scriptedSource{}
	d, _ := fakeDisplay(GrayLayout)

	l, ctx, _ := testLoop(t, src, &fakeProcessor{}, d)

	stats, err := l.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if stats.Skipped != 1 {
		t.Errorf("skipped = %d", stats.Skipped)
	}
}

func TestRun_QuitKeyWhileReadsFail(t *testing.T) {
	src := &scriptedSource{steps: []step{{ok: false}, {ok: false}, {ok: false}}}
	d, wins := fakeDisplay(GrayLayout, -1, -1, 'q')

	l, ctx, slept := testLoop(t, src, &fakeProcessor{}, d)
	src.onDone = func() { t.Error("source read after quit key") }

	stats, err := l.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Skipped != 3 || stats.Frames != 0 {
		t.Errorf("stats = %+v", stats)
	}
	if len(wins[0].waits) != 3 {
		t.Errorf("key polls = %v, want 3", wins[0].waits)
	}
	// live viewer setting: no retry pause, the key poll paces the loop
	if len(*slept) != 0 {
		t.Errorf("retry sleeps = %v, want none", *slept)
	}
}

func TestRun_RenderErrorContinues(t *testing.T) {
	src := &scriptedSource{steps: []step{{ok: true}, {ok: true}}}
	d, wins := fakeDisplay(GrayLayout, -1, 'q')
	wins[0].showErr = errors.New("window gone")

	l, ctx, _ := testLoop(t, src, &fakeProcessor{}, d)

	stats, err := l.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := Stats{Frames: 2, RenderErrors: 2}
	if stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}
	if wins[1].shown != 2 {
		t.Errorf("gray-image shown %d times, want 2", wins[1].shown)
	}
}

func TestRun_PrintsFPS(t *testing.T) {
	src := &scriptedSource{steps: []step{{ok: true}}}
	d, _ := fakeDisplay(GrayLayout, 'q')

	l, ctx, _ := testLoop(t, src, &fakeProcessor{}, d)
	l.PrintFPS = true

	var out bytes.Buffer
	l.Out = &out

	now := time.Unix(0, 0)
	l.meter = &FPSMeter{now: func() time.Time {
		now = now.Add(25 * time.Millisecond)
		return now
	}}

	if _, err := l.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := out.String(); got != "40.0\n" {
		t.Errorf("fps output = %q, want %q", got, "40.0\n")
	}
}

func TestRun_RequiresDependencies(t *testing.T) {
	l := &Loop{}
	if _, err := l.Run(context.Background()); err == nil {
		t.Error("expected error for unconfigured loop")
	}
}
