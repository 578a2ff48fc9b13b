package main

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

var errClosed = errors.New("connection closed")

// recordingWriter keeps every frame and fails once limit frames were written.
type recordingWriter struct {
	mu     sync.Mutex
	limit  int
	frames []Frame
	times  []time.Time
}

func (w *recordingWriter) WriteMessage(messageType int, data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.limit > 0 && len(w.frames) >= w.limit {
		return errClosed
	}
	w.frames = append(w.frames, Frame{Type: messageType, Data: data})
	w.times = append(w.times, time.Now())
	return nil
}

func (w *recordingWriter) commands(t *testing.T) []string {
	t.Helper()
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.frames))
	for _, f := range w.frames {
		var msg [3]string
		if err := json.Unmarshal(f.Data, &msg); err != nil {
			t.Fatalf("frame %s: %v", f.Data, err)
		}
		out = append(out, msg[1])
	}
	return out
}

func testSession(t *testing.T, script Script, interval time.Duration) (*session, *feedMetrics) {
	t.Helper()
	m, err := newFeedMetrics(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("newFeedMetrics: %v", err)
	}
	return &session{
		id:       "test",
		script:   script,
		source:   NewRandomTrackSource(NewTrackSampler(defaultBounds, 50, 5000, 10, 1)),
		encoder:  commandEncoder{},
		batch:    4,
		interval: interval,
		metrics:  m,
	}, m
}

func TestSessionSendsScriptBeforeTracks(t *testing.T) {
	script := Script{Steps: []Step{
		{Command: "setCenter", Argument: defaultCenter, Delay: 5 * time.Millisecond},
		{Command: "setZoom", Argument: 14, Delay: 5 * time.Millisecond},
		{Command: "setPitch", Argument: 70},
	}}
	s, m := testSession(t, script, 10*time.Millisecond)
	w := &recordingWriter{limit: 7}

	err := s.run(context.Background(), w)
	if !errors.Is(err, errClosed) {
		t.Fatalf("run() error = %v, want %v", err, errClosed)
	}

	got := w.commands(t)
	want := []string{"setCenter", "setZoom", "setPitch", "updateTracks", "updateTracks", "updateTracks", "updateTracks"}
	if len(got) != len(want) {
		t.Fatalf("commands = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("commands = %v, want %v", got, want)
		}
	}

	if v := testutil.ToFloat64(m.FramesSent.WithLabelValues("step")); v != 3 {
		t.Errorf("step frames = %v, want 3", v)
	}
	if v := testutil.ToFloat64(m.FramesSent.WithLabelValues("tracks")); v != 4 {
		t.Errorf("track frames = %v, want 4", v)
	}
	if v := testutil.ToFloat64(m.TracksSent); v != 16 {
		t.Errorf("tracks sent = %v, want 16", v)
	}
	if v := testutil.ToFloat64(m.SendErrors); v != 1 {
		t.Errorf("send errors = %v, want 1", v)
	}
}

func TestSessionHonoursDelays(t *testing.T) {
	const (
		stepDelay = 30 * time.Millisecond
		interval  = 40 * time.Millisecond
	)
	script := Script{Steps: []Step{{Command: "setZoom", Argument: 14, Delay: stepDelay}}}
	s, _ := testSession(t, script, interval)
	w := &recordingWriter{limit: 5}

	start := time.Now()
	_ = s.run(context.Background(), w)

	if d := w.times[1].Sub(w.times[0]); d < stepDelay {
		t.Errorf("first batch after %s, want at least %s", d, stepDelay)
	}
	for i := 2; i < len(w.times); i++ {
		d := w.times[i].Sub(w.times[i-1])
		if d < interval || d > interval+200*time.Millisecond {
			t.Errorf("gap %d = %s, want about %s", i, d, interval)
		}
	}
	if total := time.Since(start); total < stepDelay+3*interval {
		t.Errorf("session ran %s, want at least %s", total, stepDelay+3*interval)
	}
}

func TestSessionStopsOnCancel(t *testing.T) {
	s, _ := testSession(t, Script{}, 5*time.Millisecond)
	w := &recordingWriter{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.run(ctx, w) }()
	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("run() error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("session did not stop after cancel")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.frames) == 0 {
		t.Error("no track batches sent before cancel")
	}
}

func TestSessionCancelDuringScript(t *testing.T) {
	script := Script{Steps: []Step{{Command: "setZoom", Argument: 14, Delay: time.Hour}}}
	s, _ := testSession(t, script, time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := s.run(ctx, &recordingWriter{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("run() error = %v, want deadline exceeded", err)
	}
}

func TestSessionSkipsUnrenderableStep(t *testing.T) {
	script := Script{Steps: []Step{
		{Command: "broken", Argument: struct{}{}},
		{Command: "setZoom", Argument: 14},
	}}
	s, _ := testSession(t, script, time.Millisecond)
	w := &recordingWriter{limit: 2}
	_ = s.run(context.Background(), w)

	got := w.commands(t)
	if len(got) != 2 || got[0] != "setZoom" || got[1] != "updateTracks" {
		t.Errorf("commands = %v, want [setZoom updateTracks]", got)
	}
}

type failingSource struct{}

func (failingSource) Tracks(context.Context, int) ([]Track, error) {
	return nil, errors.New("feed unavailable")
}

func TestSessionSendsEmptyBatchOnSourceError(t *testing.T) {
	s, m := testSession(t, Script{}, time.Millisecond)
	s.source = failingSource{}
	w := &recordingWriter{limit: 2}
	_ = s.run(context.Background(), w)

	for _, f := range w.frames {
		if got, want := string(f.Data), `["map","updateTracks","parameters = []"]`; got != want {
			t.Errorf("frame = %s, want %s", got, want)
		}
	}
	if v := testutil.ToFloat64(m.SourceErrors); v < 2 {
		t.Errorf("source errors = %v, want at least 2", v)
	}
}
