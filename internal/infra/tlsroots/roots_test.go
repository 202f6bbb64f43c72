package tlsroots

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestAddPEM(t *testing.T) {
	dir := t.TempDir()
	certFile := filepath.Join(dir, "ca.crt")
	writeTestCert(t, certFile, filepath.Join(dir, "ca.key"))

	data, err := os.ReadFile(certFile)
	if err != nil {
		t.Fatal(err)
	}

	pool := x509.NewCertPool()
	if err := AddPEM(pool, data); err != nil {
		t.Fatalf("AddPEM() error = %v", err)
	}
}

func TestAddPEM_Errors(t *testing.T) {
	dir := t.TempDir()
	keyFile := filepath.Join(dir, "ca.key")
	writeTestCert(t, filepath.Join(dir, "ca.crt"), keyFile)
	keyOnly, err := os.ReadFile(keyFile)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"not pem", []byte("hello")},
		{"key only", keyOnly},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := AddPEM(x509.NewCertPool(), tt.data); !errors.Is(err, ErrNoCertsFound) {
				t.Errorf("AddPEM() error = %v, want ErrNoCertsFound", err)
			}
		})
	}

	bad := []byte("-----BEGIN CERTIFICATE-----\nAAAA\n-----END CERTIFICATE-----\n")
	if err := AddPEM(x509.NewCertPool(), bad); err == nil || errors.Is(err, ErrNoCertsFound) {
		t.Errorf("AddPEM(corrupt) error = %v, want parse error", err)
	}
}

func TestAddPEMFile_Missing(t *testing.T) {
	if err := AddPEMFile(x509.NewCertPool(), filepath.Join(t.TempDir(), "missing.pem")); err == nil {
		t.Error("AddPEMFile() should fail for a missing file")
	}
}

func TestClientConfig(t *testing.T) {
	dir := t.TempDir()
	certFile := filepath.Join(dir, "ca.crt")
	writeTestCert(t, certFile, filepath.Join(dir, "ca.key"))

	cfg, err := ClientConfig(certFile, false)
	if err != nil {
		t.Fatalf("ClientConfig() error = %v", err)
	}
	if cfg.RootCAs == nil {
		t.Error("RootCAs should be set")
	}
	if cfg.MinVersion != tls.VersionTLS12 {
		t.Errorf("MinVersion = %x, want TLS 1.2", cfg.MinVersion)
	}
	if cfg.InsecureSkipVerify {
		t.Error("InsecureSkipVerify should follow the argument")
	}

	cfg, err = ClientConfig("", true)
	if err != nil {
		t.Fatalf("ClientConfig(no ca) error = %v", err)
	}
	if !cfg.InsecureSkipVerify {
		t.Error("InsecureSkipVerify should be set")
	}

	if _, err := ClientConfig(filepath.Join(dir, "missing.crt"), false); err == nil {
		t.Error("ClientConfig() should fail for a missing CA file")
	}
}
