package main

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/doortwin/internal/api"
	"github.com/nerrad567/doortwin/internal/infrastructure/config"
	"github.com/nerrad567/doortwin/internal/infrastructure/logging"
	"github.com/nerrad567/doortwin/internal/infrastructure/mqtt"
	"github.com/nerrad567/doortwin/internal/twin"
)

// TestRun_InvalidConfig verifies run fails with an unreadable config path.
func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv(envConfigPath, "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

// TestRun_MissingCredentials verifies missing TLS files are fatal before any
// broker activity.
func TestRun_MissingCredentials(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(envConfigPath, "")
	t.Setenv(config.EnvMQTTCACert, filepath.Join(dir, "ca.crt"))
	t.Setenv(config.EnvMQTTClientCert, filepath.Join(dir, "client.crt"))
	t.Setenv(config.EnvMQTTClientKey, filepath.Join(dir, "client.key"))
	t.Setenv(config.EnvLogOutput, "stderr")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx)
	if !errors.Is(err, mqtt.ErrMissingCredentials) {
		t.Fatalf("run() error = %v, want ErrMissingCredentials", err)
	}
}

// TestRun_InvalidPort verifies config validation errors surface from run.
func TestRun_InvalidPort(t *testing.T) {
	t.Setenv(envConfigPath, "")
	t.Setenv(config.EnvHTTPPort, "70000")

	if err := run(context.Background()); err == nil {
		t.Fatal("run() should fail with out-of-range HTTP port")
	}
}

type fakeConnectionWriter struct {
	mu     sync.Mutex
	points []string
}

func (f *fakeConnectionWriter) WriteConnection(connected bool, code mqtt.ResultCode, _ time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	state := "down"
	if connected {
		state = "up"
	}
	f.points = append(f.points, state+":"+code.Label())
}

func TestConnectionRecorder(t *testing.T) {
	w := &fakeConnectionWriter{}
	state := twin.NewState()
	state.Watch(connectionRecorder(w))

	state.RecordValue(twin.ValueLock, time.Now()) // no connection outcome yet
	state.RecordConnection(false, mqtt.CodeConnectionRefused)
	state.RecordConnection(false, mqtt.CodeConnectionRefused) // unchanged
	state.RecordConnection(true, mqtt.CodeSuccess)
	state.RecordValue(twin.ValueUnlock, time.Now()) // value only
	state.RecordConnection(false, mqtt.CodeConnectionLost)

	want := []string{"down:code_5", "up:success", "down:connection_lost"}
	if len(w.points) != len(want) {
		t.Fatalf("points = %v, want %v", w.points, want)
	}
	for i := range want {
		if w.points[i] != want[i] {
			t.Errorf("point %d = %q, want %q", i, w.points[i], want[i])
		}
	}
}

func TestShutdownFuncIdempotent(t *testing.T) {
	state := twin.NewState()
	manager := mqtt.NewManager(mqtt.Options{Topic: "status/door"}, mqtt.NewPahoSession(mqtt.SessionConfig{}), state)
	server, err := api.New(api.Deps{
		Config:  config.HTTPConfig{Host: "127.0.0.1", Port: 0},
		Logger:  logging.Nop(),
		Service: twin.NewService(state, manager),
	})
	if err != nil {
		t.Fatalf("api.New() error = %v", err)
	}
	if err := server.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	shutdown := shutdownFunc(logging.Nop(), server, manager, nil)
	shutdown()
	shutdown()

	if state.Connected() {
		t.Error("state connected after shutdown")
	}
	if snap := state.Snapshot(); snap.LastResultCode != nil {
		t.Errorf("last result code = %d after shutdown without a connect, want nil", *snap.LastResultCode)
	}
	if err := manager.HealthCheck(context.Background()); !errors.Is(err, mqtt.ErrNotConnected) {
		t.Errorf("HealthCheck() after shutdown = %v, want ErrNotConnected", err)
	}
}
