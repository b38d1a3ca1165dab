package mqtt

import (
	"crypto/tls"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nerrad567/doortwin/internal/infrastructure/config"
)

func TestCredentialsCheck(t *testing.T) {
	pki := newTestPKI(t)

	if err := pki.Credentials().Check(); err != nil {
		t.Fatalf("Check() error = %v, want nil", err)
	}

	missing := filepath.Join(pki.Dir, "missing.pem")
	tests := []struct {
		name    string
		creds   Credentials
		wantKey string
	}{
		{"missing CA", Credentials{CAFile: missing, CertFile: pki.ClientCert, KeyFile: pki.ClientKey}, config.EnvMQTTCACert},
		{"missing cert", Credentials{CAFile: pki.CAFile, CertFile: missing, KeyFile: pki.ClientKey}, config.EnvMQTTClientCert},
		{"missing key", Credentials{CAFile: pki.CAFile, CertFile: pki.ClientCert, KeyFile: missing}, config.EnvMQTTClientKey},
		{"empty path", Credentials{CAFile: "", CertFile: pki.ClientCert, KeyFile: pki.ClientKey}, config.EnvMQTTCACert},
		{"directory", Credentials{CAFile: pki.Dir, CertFile: pki.ClientCert, KeyFile: pki.ClientKey}, config.EnvMQTTCACert},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.creds.Check()
			if !errors.Is(err, ErrMissingCredentials) {
				t.Fatalf("Check() error = %v, want ErrMissingCredentials", err)
			}
			if !strings.Contains(err.Error(), tt.wantKey) {
				t.Errorf("Check() error = %q, want mention of %s", err, tt.wantKey)
			}
		})
	}
}

func TestCredentialsTLSConfig(t *testing.T) {
	pki := newTestPKI(t)

	cfg, err := pki.Credentials().TLSConfig()
	if err != nil {
		t.Fatalf("TLSConfig() error = %v", err)
	}

	if cfg.MinVersion != tls.VersionTLS12 {
		t.Errorf("MinVersion = %x, want TLS 1.2", cfg.MinVersion)
	}
	if len(cfg.Certificates) != 1 {
		t.Errorf("len(Certificates) = %d, want 1", len(cfg.Certificates))
	}
	if cfg.RootCAs == nil {
		t.Error("RootCAs = nil, want CA pool")
	}
	if cfg.InsecureSkipVerify {
		t.Error("InsecureSkipVerify = true, want false by default")
	}
	if cfg.VerifyConnection != nil {
		t.Error("VerifyConnection set without Insecure")
	}
}

func TestCredentialsTLSConfigInsecure(t *testing.T) {
	pki := newTestPKI(t)
	creds := pki.Credentials()
	creds.Insecure = true

	cfg, err := creds.TLSConfig()
	if err != nil {
		t.Fatalf("TLSConfig() error = %v", err)
	}
	if !cfg.InsecureSkipVerify {
		t.Error("InsecureSkipVerify = false, want true")
	}
	if cfg.VerifyConnection == nil {
		t.Fatal("VerifyConnection = nil, want chain verification")
	}

	if err := cfg.VerifyConnection(tls.ConnectionState{}); err == nil {
		t.Error("VerifyConnection() with no peer certificates = nil, want error")
	}
}

func TestCredentialsTLSConfigInvalid(t *testing.T) {
	pki := newTestPKI(t)

	garbage := filepath.Join(pki.Dir, "garbage.pem")
	if err := os.WriteFile(garbage, []byte("not a certificate"), 0o600); err != nil {
		t.Fatalf("writing garbage: %v", err)
	}

	tests := []struct {
		name  string
		creds Credentials
	}{
		{"CA without PEM", Credentials{CAFile: garbage, CertFile: pki.ClientCert, KeyFile: pki.ClientKey}},
		{"unparseable cert", Credentials{CAFile: pki.CAFile, CertFile: garbage, KeyFile: pki.ClientKey}},
		{"mismatched key", Credentials{CAFile: pki.CAFile, CertFile: pki.ClientCert, KeyFile: pki.ServerKey}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.creds.TLSConfig()
			if !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("TLSConfig() error = %v, want ErrInvalidCredentials", err)
			}
		})
	}
}

func TestCredentialsFromConfig(t *testing.T) {
	got := CredentialsFromConfig(config.MQTTTLSConfig{
		CACert:     "/etc/ca.crt",
		ClientCert: "/etc/twin.crt",
		ClientKey:  "/etc/twin.key",
		Insecure:   true,
	})
	want := Credentials{CAFile: "/etc/ca.crt", CertFile: "/etc/twin.crt", KeyFile: "/etc/twin.key", Insecure: true}
	if got != want {
		t.Errorf("CredentialsFromConfig() = %+v, want %+v", got, want)
	}
}
