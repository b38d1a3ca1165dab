package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/doortwin/internal/infrastructure/mqtt"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func TestRequiredFlags(t *testing.T) {
	_, err := execute(t, "--host", "broker.local")
	if err == nil {
		t.Fatal("Execute() without TLS flags: expected error")
	}
	for _, flag := range []string{"cafile", "cert", "key"} {
		if !strings.Contains(err.Error(), flag) {
			t.Errorf("error %q does not name %s", err, flag)
		}
	}
}

func TestUnknownFlag(t *testing.T) {
	if _, err := execute(t, "--bogus"); err == nil {
		t.Error("Execute() with unknown flag: expected error")
	}
}

func TestMissingCredentialFiles(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t,
		"--host", "127.0.0.1",
		"--cafile", filepath.Join(dir, "ca.crt"),
		"--cert", filepath.Join(dir, "client.crt"),
		"--key", filepath.Join(dir, "client.key"),
		"--canif", "doortwin-nope0",
		"--log-level", "error",
	)
	if !errors.Is(err, mqtt.ErrMissingCredentials) {
		t.Errorf("Execute() error = %v, want ErrMissingCredentials", err)
	}
}

func TestOptionsValidate(t *testing.T) {
	base := func() options {
		return options{host: "h", port: 8883, topic: "status/door", qos: 1}
	}

	tests := []struct {
		name   string
		modify func(*options)
	}{
		{"port zero", func(o *options) { o.port = 0 }},
		{"port too high", func(o *options) { o.port = 70000 }},
		{"qos 3", func(o *options) { o.qos = 3 }},
		{"wildcard topic", func(o *options) { o.topic = "status/+" }},
		{"empty topic", func(o *options) { o.topic = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := base()
			tt.modify(&o)
			if err := o.validate(); err == nil {
				t.Error("validate() expected error")
			}
		})
	}

	o := base()
	if err := o.validate(); err != nil {
		t.Errorf("validate() on defaults error = %v", err)
	}
}

func TestMQTTConfigFromFlags(t *testing.T) {
	o := options{
		host: "broker.local", port: 8884, caFile: "ca", certFile: "crt", keyFile: "key",
		topic: "vehicle/door", clientID: "tcu-1", qos: 2, insecure: true,
	}

	cfg := o.mqttConfig()
	if cfg.Broker.Address() != "broker.local:8884" || cfg.Broker.ClientID != "tcu-1" {
		t.Errorf("broker = %+v", cfg.Broker)
	}
	if cfg.TLS.CACert != "ca" || cfg.TLS.ClientCert != "crt" || cfg.TLS.ClientKey != "key" || !cfg.TLS.Insecure {
		t.Errorf("tls = %+v", cfg.TLS)
	}
	if cfg.Topic != "vehicle/door" || cfg.QoS != 2 {
		t.Errorf("topic = %q qos = %d", cfg.Topic, cfg.QoS)
	}
	if cfg.Reconnect.InitialDelay != 1 || cfg.Reconnect.MaxDelay != 30 {
		t.Errorf("reconnect = %+v", cfg.Reconnect)
	}
}
