package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"strconv"
	"strings"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// ResultCode is the outcome of a connect, disconnect or publish.
//
// Values 0-13 follow the libmosquitto error numbering, so codes logged by
// the twin line up with the ones the TCU prints.
type ResultCode int

// Result codes.
const (
	CodeSuccess           ResultCode = 0
	CodeProtocol          ResultCode = 2
	CodeInvalid           ResultCode = 3
	CodeNoConnection      ResultCode = 4
	CodeConnectionRefused ResultCode = 5
	CodeConnectionLost    ResultCode = 7
	CodeTLS               ResultCode = 8
	CodePayloadSize       ResultCode = 9
	CodeNotAuthorized     ResultCode = 11
	CodeUnknown           ResultCode = 13

	// CodeTimeout has no libmosquitto counterpart. It is reported when the
	// client library did not complete an operation within its deadline.
	CodeTimeout ResultCode = 100
)

// CONNACK return codes (MQTT 3.1.1 plus paho's local failure codes).
const (
	connackBadProtocolVersion = 0x01
	connackIDRejected         = 0x02
	connackServerUnavailable  = 0x03
	connackBadCredentials     = 0x04
	connackNotAuthorised      = 0x05
	connackNetworkError       = 0xFE
	connackProtocolViolation  = 0xFF
)

var codeMeanings = map[ResultCode]string{
	CodeSuccess:           "No error.",
	CodeProtocol:          "A network protocol error occurred when communicating with the broker.",
	CodeInvalid:           "Invalid function arguments provided.",
	CodeNoConnection:      "The client is not currently connected.",
	CodeConnectionRefused: "The connection was refused.",
	CodeConnectionLost:    "The connection was lost.",
	CodeTLS:               "A TLS error occurred.",
	CodePayloadSize:       "Payload too large.",
	CodeNotAuthorized:     "Authorisation failed.",
	CodeUnknown:           "Unknown error.",
	CodeTimeout:           "The operation timed out.",
}

// String returns the human-readable meaning of the code.
func (c ResultCode) String() string {
	if s, ok := codeMeanings[c]; ok {
		return s
	}
	return "Unknown error."
}

// Label returns a short stable token for metrics labels.
func (c ResultCode) Label() string {
	switch c {
	case CodeSuccess:
		return "success"
	case CodeNoConnection:
		return "no_connection"
	case CodeConnectionLost:
		return "connection_lost"
	case CodeTimeout:
		return "timeout"
	case CodeTLS:
		return "tls"
	default:
		return "code_" + strconv.Itoa(int(c))
	}
}

// OK reports whether the code denotes success.
func (c ResultCode) OK() bool {
	return c == CodeSuccess
}

// classifyError maps an error returned by the client library to a ResultCode.
func classifyError(err error) ResultCode {
	if err == nil {
		return CodeSuccess
	}
	if errors.Is(err, pahomqtt.ErrNotConnected) || errors.Is(err, ErrNotConnected) {
		return CodeNoConnection
	}
	if errors.Is(err, ErrTimeout) {
		return CodeTimeout
	}
	if isTLSError(err) {
		return CodeTLS
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return CodeTimeout
		}
		return CodeNoConnection
	}

	return CodeUnknown
}

// classifyConnect maps a failed connect (CONNACK return code plus error) to a ResultCode.
func classifyConnect(returnCode byte, err error) ResultCode {
	switch returnCode {
	case connackBadProtocolVersion, connackIDRejected, connackServerUnavailable:
		return CodeConnectionRefused
	case connackBadCredentials, connackNotAuthorised:
		return CodeNotAuthorized
	case connackProtocolViolation:
		return CodeProtocol
	case connackNetworkError:
		if isTLSError(err) {
			return CodeTLS
		}
		return CodeNoConnection
	}

	if code := classifyError(err); code != CodeSuccess {
		return code
	}
	return CodeUnknown
}

// isTLSError reports whether err originates from the TLS handshake or
// certificate verification.
func isTLSError(err error) bool {
	var (
		verifyErr    *tls.CertificateVerificationError
		hostErr      x509.HostnameError
		authorityErr x509.UnknownAuthorityError
		invalidErr   x509.CertificateInvalidError
		recordErr    tls.RecordHeaderError
		alertErr     tls.AlertError
	)
	switch {
	case errors.As(err, &verifyErr),
		errors.As(err, &hostErr),
		errors.As(err, &authorityErr),
		errors.As(err, &invalidErr),
		errors.As(err, &recordErr),
		errors.As(err, &alertErr):
		return true
	}

	// paho flattens some handshake errors into plain strings.
	msg := err.Error()
	return strings.Contains(msg, "tls:") || strings.Contains(msg, "x509:")
}
