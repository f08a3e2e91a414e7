package app

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/five82/webtail/internal/hub"
	"github.com/five82/webtail/internal/logtail"
	"github.com/five82/webtail/internal/markup"
	"github.com/five82/webtail/internal/state"
)

const testPath = "/logs/app.log"

type recordingViewer struct {
	mu   sync.Mutex
	msgs []hub.Message
}

func (v *recordingViewer) ID() string { return "recorder" }

func (v *recordingViewer) Deliver(msg hub.Message) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.msgs = append(v.msgs, msg)
	return nil
}

func (v *recordingViewer) messages() []hub.Message {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]hub.Message(nil), v.msgs...)
}

type pollerFixture struct {
	fs     afero.Fs
	store  *state.Store
	viewer *recordingViewer
	poller *Poller
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newPollerFixture(t *testing.T, initial string) *pollerFixture {
	t.Helper()
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, testPath, []byte(initial), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	detector, err := logtail.NewDetector(fs, testPath)
	if err != nil {
		t.Fatalf("NewDetector: %v", err)
	}
	h := hub.New(nil)
	v := &recordingViewer{}
	h.Register(v)
	store := &state.Store{}
	store.Start(testPath, "test")

	return &pollerFixture{
		fs:     fs,
		store:  store,
		viewer: v,
		poller: &Poller{
			Detector:   detector,
			Translator: markup.New(markup.Options{}),
			Hub:        h,
			Store:      store,
			Log:        quietLogger(),
			Interval:   5 * time.Millisecond,
		},
	}
}

func (f *pollerFixture) append(t *testing.T, text string) {
	t.Helper()
	file, err := f.fs.OpenFile(testPath, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer file.Close()
	if _, err := file.WriteString(text); err != nil {
		t.Fatalf("WriteString: %v", err)
	}
}

func TestTick_PublishesRenderedChunk(t *testing.T) {
	tests := []struct {
		name   string
		append string
		want   string
	}{
		{"plain line", "hello\n", "hello<br>"},
		{"coloured line", "\x1b[1;31merror\x1b[1;39m\n", `<span style="color: red">error</span><br>`},
		{"two lines one chunk", "a\nb\n", "a<br>b<br>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPollerFixture(t, "old\n")
			f.append(t, tt.append)

			if err := f.poller.Tick(); err != nil {
				t.Fatalf("Tick: %v", err)
			}
			msgs := f.viewer.messages()
			if len(msgs) != 1 {
				t.Fatalf("got %d messages, want 1", len(msgs))
			}
			if msgs[0].Type != hub.TypeAppend || msgs[0].HTML != tt.want {
				t.Fatalf("message = %+v, want append %q", msgs[0], tt.want)
			}

			snap := f.store.Snapshot()
			if snap.Chunks != 1 || snap.Bytes != uint64(len(tt.append)) {
				t.Fatalf("store chunks=%d bytes=%d, want 1 and %d", snap.Chunks, snap.Bytes, len(tt.append))
			}
			if snap.Cursor != int64(len("old\n")+len(tt.append)) {
				t.Fatalf("store cursor = %d", snap.Cursor)
			}
		})
	}
}

func TestTick_NothingNewPublishesNothing(t *testing.T) {
	f := newPollerFixture(t, "old\n")
	f.append(t, "partial")

	for i := 0; i < 3; i++ {
		if err := f.poller.Tick(); err != nil {
			t.Fatalf("Tick: %v", err)
		}
	}
	if msgs := f.viewer.messages(); len(msgs) != 0 {
		t.Fatalf("published %v for an unchanged file", msgs)
	}
}

func TestTick_TruncationResyncs(t *testing.T) {
	f := newPollerFixture(t, "aaaa\nbbbb\n")
	if err := afero.WriteFile(f.fs, testPath, []byte("c\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if err := f.poller.Tick(); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	msgs := f.viewer.messages()
	if len(msgs) != 1 || msgs[0].HTML != "c<br>" {
		t.Fatalf("messages = %v, want c<br>", msgs)
	}
	if got := f.store.Snapshot().Truncations; got != 1 {
		t.Fatalf("Truncations = %d, want 1", got)
	}
}

func TestTick_RemovedFileIsFatal(t *testing.T) {
	f := newPollerFixture(t, "old\n")
	if err := f.fs.Remove(testPath); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	err := f.poller.Tick()
	if !errors.Is(err, logtail.ErrSourceUnavailable) {
		t.Fatalf("Tick error = %v, want ErrSourceUnavailable", err)
	}
	msgs := f.viewer.messages()
	if len(msgs) != 1 || msgs[0].Type != hub.TypeError || !strings.HasPrefix(msgs[0].HTML, "webtail: ") {
		t.Fatalf("messages = %v, want one error message", msgs)
	}
	if snap := f.store.Snapshot(); !snap.Degraded || !errors.Is(snap.LastError, logtail.ErrSourceUnavailable) {
		t.Fatalf("store not degraded: %+v", snap)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	f := newPollerFixture(t, "")
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.poller.Run(ctx) }()

	f.append(t, "tick\n")
	waitUntil(t, "chunk", func() bool { return len(f.viewer.messages()) == 1 })

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v after cancel, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRun_ReturnsFatalError(t *testing.T) {
	f := newPollerFixture(t, "")
	if err := f.fs.Remove(testPath); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	select {
	case err := <-runAsync(f.poller):
		if !errors.Is(err, logtail.ErrSourceUnavailable) {
			t.Fatalf("Run error = %v, want ErrSourceUnavailable", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on a removed file")
	}
}

func TestRun_WakeTriggersTick(t *testing.T) {
	f := newPollerFixture(t, "")
	wake := make(chan struct{}, 1)
	f.poller.Interval = time.Hour
	f.poller.Wake = wake

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = f.poller.Run(ctx) }()

	f.append(t, "woken\n")
	wake <- struct{}{}
	waitUntil(t, "woken chunk", func() bool { return len(f.viewer.messages()) == 1 })
}

func runAsync(p *Poller) <-chan error {
	done := make(chan error, 1)
	go func() { done <- p.Run(context.Background()) }()
	return done
}

func waitUntil(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
