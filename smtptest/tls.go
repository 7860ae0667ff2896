package smtptest

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/flashmob/go-guerrilla/tests/testcert"
)

// Host is the loopback address test certificates are issued for
const Host = "127.0.0.1"

// GenerateTLSFiles writes a TLS key and certificate to a temporary test
// directory that is removed after the test suite runs. It returns the file
// paths of the key and certificate. The certificate is a root cert.
func GenerateTLSFiles(t *testing.T) (keyPath string, certPath string, err error) {
	d := t.TempDir() + string(filepath.Separator)
	err = testcert.GenerateCert(
		Host,
		"",                         // defaults to now
		time.Duration(1)*time.Hour, // the test suite won't run for this long
		true,                       // is a CA cert
		2048,                       // usually seen in online tutorials
		"",                         // using the default ecdsa curve,
		d,
	)

	if err != nil {
		return
	}

	// These path names are hardcoded into testcert.GenerateCert
	keyPath = d + Host + ".key.pem"
	certPath = d + Host + ".cert.pem"

	return
}

// ClientTLSConfig returns a client config that trusts only the certificate
// at certPath, so tests can verify the server instead of skipping
// verification.
func ClientTLSConfig(certPath string) (*tls.Config, error) {
	pem, err := os.ReadFile(certPath)
	if err != nil {
		return nil, err
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, errors.New("no certificates found in " + certPath)
	}
	return &tls.Config{
		RootCAs:    pool,
		ServerName: Host,
	}, nil
}
