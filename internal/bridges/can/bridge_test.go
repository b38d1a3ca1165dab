package can

import (
	"errors"
	"sync"
	"testing"

	"github.com/nerrad567/doortwin/internal/infrastructure/mqtt"
)

type fakeSubscriber struct {
	topic   string
	qos     byte
	handler mqtt.MessageHandler
	err     error
}

func (f *fakeSubscriber) Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error {
	if f.err != nil {
		return f.err
	}
	f.topic, f.qos, f.handler = topic, qos, handler
	return nil
}

type fakeWriter struct {
	mu     sync.Mutex
	frames []Frame
	err    error
}

func (w *fakeWriter) WriteFrame(f Frame) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.frames = append(w.frames, f)
	return nil
}

type recordingLogger struct {
	mu    sync.Mutex
	warns []string
}

func (l *recordingLogger) Info(string, ...any) {}
func (l *recordingLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	l.warns = append(l.warns, msg)
	l.mu.Unlock()
}
func (l *recordingLogger) Error(string, ...any) {}

func newTestBridge(t *testing.T) (*Bridge, *fakeSubscriber, *fakeWriter) {
	t.Helper()
	sub := &fakeSubscriber{}
	w := &fakeWriter{}
	b, err := NewBridge(BridgeOptions{Topic: "status/door", QoS: 1, Subscriber: sub, Writer: w})
	if err != nil {
		t.Fatalf("NewBridge() error = %v", err)
	}
	return b, sub, w
}

func TestNewBridgeValidation(t *testing.T) {
	sub, w := &fakeSubscriber{}, &fakeWriter{}

	tests := []struct {
		name string
		opts BridgeOptions
	}{
		{"no subscriber", BridgeOptions{Topic: "status/door", Writer: w}},
		{"no writer", BridgeOptions{Topic: "status/door", Subscriber: sub}},
		{"empty topic", BridgeOptions{Subscriber: sub, Writer: w}},
		{"wildcard topic", BridgeOptions{Topic: "status/#", Subscriber: sub, Writer: w}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewBridge(tt.opts); err == nil {
				t.Error("NewBridge() expected error")
			}
		})
	}
}

func TestBridgeStartSubscribes(t *testing.T) {
	b, sub, _ := newTestBridge(t)

	if err := b.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if sub.topic != "status/door" || sub.qos != 1 || sub.handler == nil {
		t.Errorf("subscribed %q qos %d handler %v", sub.topic, sub.qos, sub.handler != nil)
	}
}

func TestBridgeStartSubscribeError(t *testing.T) {
	b, sub, _ := newTestBridge(t)
	sub.err = mqtt.ErrSubscribeFailed

	if err := b.Start(); !errors.Is(err, mqtt.ErrSubscribeFailed) {
		t.Errorf("Start() error = %v, want ErrSubscribeFailed", err)
	}
}

func TestBridgeForwardsCommands(t *testing.T) {
	b, sub, w := newTestBridge(t)
	if err := b.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	for _, payload := range []string{"lock", " Unlock\n", "LOCK"} {
		if err := sub.handler("status/door", []byte(payload)); err != nil {
			t.Errorf("handler(%q) error = %v", payload, err)
		}
	}

	want := []byte{CmdLock, CmdUnlock, CmdLock}
	if len(w.frames) != len(want) {
		t.Fatalf("frames = %d, want %d", len(w.frames), len(want))
	}
	for i, f := range w.frames {
		if f.ID != CommandID || len(f.Data) != 1 || f.Data[0] != want[i] {
			t.Errorf("frame %d = %v, want 200#%X", i, f, want[i])
		}
	}
	if s := b.Stats(); s.Sent != 3 || s.Failed != 0 || s.Unknown != 0 {
		t.Errorf("Stats() = %+v", s)
	}
}

func TestBridgeUnknownPayloadWarns(t *testing.T) {
	b, _, w := newTestBridge(t)
	logger := &recordingLogger{}
	b.SetLogger(logger)

	if err := b.HandleMessage("status/door", []byte("open sesame")); err != nil {
		t.Errorf("HandleMessage() error = %v, want nil", err)
	}
	if len(w.frames) != 0 {
		t.Errorf("frames = %v, want none", w.frames)
	}
	if len(logger.warns) != 1 {
		t.Errorf("warnings = %v, want 1", logger.warns)
	}
	if s := b.Stats(); s.Unknown != 1 {
		t.Errorf("Stats().Unknown = %d, want 1", s.Unknown)
	}
}

func TestBridgeWriteError(t *testing.T) {
	b, _, w := newTestBridge(t)
	w.err = ErrWriteFailed

	if err := b.HandleMessage("status/door", []byte("unlock")); !errors.Is(err, ErrWriteFailed) {
		t.Errorf("HandleMessage() error = %v, want ErrWriteFailed", err)
	}
	if s := b.Stats(); s.Failed != 1 || s.Sent != 0 {
		t.Errorf("Stats() = %+v", s)
	}
}
