package tlsroots

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

// ErrNoCertsFound is returned when a PEM bundle holds no certificate.
var ErrNoCertsFound = errors.New("tlsroots: no certificates found in PEM data")

// NewPool returns the system root pool, or an empty pool where the system
// roots are unavailable.
func NewPool() *x509.CertPool {
	pool, err := x509.SystemCertPool()
	if err != nil {
		return x509.NewCertPool()
	}
	return pool
}

// AddPEMFile adds every certificate in the PEM file at path to pool.
func AddPEMFile(pool *x509.CertPool, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("tlsroots: read ca file %s: %w", path, err)
	}
	return AddPEM(pool, data)
}

// AddPEM adds every CERTIFICATE block of pemData to pool. Other block types
// are skipped.
func AddPEM(pool *x509.CertPool, pemData []byte) error {
	added := 0
	for len(pemData) > 0 {
		var block *pem.Block
		block, pemData = pem.Decode(pemData)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}

		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return fmt.Errorf("tlsroots: parse certificate: %w", err)
		}
		pool.AddCert(cert)
		added++
	}

	if added == 0 {
		return ErrNoCertsFound
	}
	return nil
}

// ClientConfig returns a TLS 1.2+ client configuration trusting the system
// roots and, when caFile is set, the certificates it contains. insecure
// disables server verification.
func ClientConfig(caFile string, insecure bool) (*tls.Config, error) {
	pool := NewPool()
	if caFile != "" {
		if err := AddPEMFile(pool, caFile); err != nil {
			return nil, err
		}
	}

	return &tls.Config{
		RootCAs:            pool,
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: insecure,
	}, nil
}
