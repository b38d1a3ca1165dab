package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/nerrad567/doortwin/internal/infrastructure/config"
)

// tlsMinVersion is the minimum TLS version for broker connections.
const tlsMinVersion = tls.VersionTLS12

// Credentials is the mutual TLS bundle presented to the broker.
// It is immutable after load.
type Credentials struct {
	CAFile   string
	CertFile string
	KeyFile  string

	// Insecure skips broker hostname verification. The chain is still
	// verified against CAFile. Unsafe outside a lab.
	Insecure bool
}

// CredentialsFromConfig builds the credential bundle from configuration.
func CredentialsFromConfig(cfg config.MQTTTLSConfig) Credentials {
	return Credentials{
		CAFile:   cfg.CACert,
		CertFile: cfg.ClientCert,
		KeyFile:  cfg.ClientKey,
		Insecure: cfg.Insecure,
	}
}

// Check verifies that all three credential files exist.
//
// Returns:
//   - error: ErrMissingCredentials naming the configuration keys of every
//     missing file, or nil
func (c Credentials) Check() error {
	files := []struct {
		key  string
		path string
	}{
		{config.EnvMQTTCACert, c.CAFile},
		{config.EnvMQTTClientCert, c.CertFile},
		{config.EnvMQTTClientKey, c.KeyFile},
	}

	var missing []string
	for _, f := range files {
		info, err := os.Stat(f.path)
		if f.path == "" || err != nil || !info.Mode().IsRegular() {
			missing = append(missing, f.key)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w; check %s", ErrMissingCredentials, strings.Join(missing, ", "))
	}
	return nil
}

// TLSConfig checks the bundle and builds a client-authenticated TLS configuration.
//
// The returned configuration:
//   - verifies the broker certificate chain against the CA file
//   - presents the client certificate and key
//   - verifies the broker hostname unless Insecure is set
//
// Returns:
//   - *tls.Config: Ready for the broker session
//   - error: ErrMissingCredentials or ErrInvalidCredentials
func (c Credentials) TLSConfig() (*tls.Config, error) {
	if err := c.Check(); err != nil {
		return nil, err
	}

	caPEM, err := os.ReadFile(c.CAFile)
	if err != nil {
		return nil, fmt.Errorf("%w: reading CA certificate: %w", ErrInvalidCredentials, err)
	}
	roots := x509.NewCertPool()
	if !roots.AppendCertsFromPEM(caPEM) {
		return nil, fmt.Errorf("%w: no PEM certificates in %s", ErrInvalidCredentials, c.CAFile)
	}

	cert, err := tls.LoadX509KeyPair(c.CertFile, c.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("%w: loading client key pair: %w", ErrInvalidCredentials, err)
	}

	tlsConfig := &tls.Config{
		MinVersion:   tlsMinVersion,
		RootCAs:      roots,
		Certificates: []tls.Certificate{cert},
	}

	if c.Insecure {
		// Hostname check off, chain check kept.
		tlsConfig.InsecureSkipVerify = true //nolint:gosec // chain verified in VerifyConnection
		tlsConfig.VerifyConnection = verifyChainOnly(roots)
	}

	return tlsConfig, nil
}

// verifyChainOnly verifies the peer chain against roots without matching
// the server name.
func verifyChainOnly(roots *x509.CertPool) func(tls.ConnectionState) error {
	return func(cs tls.ConnectionState) error {
		if len(cs.PeerCertificates) == 0 {
			return errors.New("tls: broker presented no certificate")
		}

		intermediates := x509.NewCertPool()
		for _, cert := range cs.PeerCertificates[1:] {
			intermediates.AddCert(cert)
		}

		_, err := cs.PeerCertificates[0].Verify(x509.VerifyOptions{
			Roots:         roots,
			Intermediates: intermediates,
			KeyUsages:     []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		})
		return err
	}
}
