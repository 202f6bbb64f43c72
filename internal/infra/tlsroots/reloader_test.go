package tlsroots

import (
	"crypto/x509"
	"io"
	"log/slog"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestReloader(t *testing.T) (*CertReloader, string, string, *big.Int) {
	t.Helper()
	dir := t.TempDir()
	certFile := filepath.Join(dir, "server.crt")
	keyFile := filepath.Join(dir, "server.key")
	serial := writeTestCert(t, certFile, keyFile)

	r, err := NewCertReloader(certFile, keyFile, WithLogger(testLogger()))
	if err != nil {
		t.Fatalf("NewCertReloader() error = %v", err)
	}
	t.Cleanup(func() { r.Stop() })
	return r, certFile, keyFile, serial
}

func currentSerial(t *testing.T, r *CertReloader) *big.Int {
	t.Helper()
	cert, err := r.GetCertificate(nil)
	if err != nil || cert == nil {
		t.Fatalf("GetCertificate() = %v, %v", cert, err)
	}
	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		t.Fatalf("parse leaf: %v", err)
	}
	return leaf.SerialNumber
}

func TestNewCertReloader(t *testing.T) {
	r, _, _, serial := newTestReloader(t)
	if got := currentSerial(t, r); got.Cmp(serial) != 0 {
		t.Errorf("serial = %s, want %s", got, serial)
	}
}

func TestNewCertReloader_Errors(t *testing.T) {
	dir := t.TempDir()
	certFile := filepath.Join(dir, "server.crt")
	keyFile := filepath.Join(dir, "server.key")

	if _, err := NewCertReloader(certFile, keyFile); err == nil {
		t.Error("missing files should fail")
	}

	os.WriteFile(certFile, []byte("invalid"), 0o644)
	os.WriteFile(keyFile, []byte("invalid"), 0o600)
	if _, err := NewCertReloader(certFile, keyFile); err == nil {
		t.Error("invalid key pair should fail")
	}
}

func TestCertReloader_ReloadOnChange(t *testing.T) {
	r, certFile, keyFile, initial := newTestReloader(t)
	r.StartAsync()

	next := writeTestCert(t, certFile, keyFile)

	deadline := time.Now().Add(5 * time.Second)
	for currentSerial(t, r).Cmp(next) != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("certificate not reloaded: serial still %s (initial %s)", currentSerial(t, r), initial)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestCertReloader_KeepsPreviousOnBadWrite(t *testing.T) {
	r, certFile, _, serial := newTestReloader(t)
	r.StartAsync()

	if err := os.WriteFile(certFile, []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)

	if got := currentSerial(t, r); got.Cmp(serial) != 0 {
		t.Errorf("serial = %s, want previous %s", got, serial)
	}
}

func TestCertReloader_StopTwice(t *testing.T) {
	r, _, _, _ := newTestReloader(t)
	r.StartAsync()

	if err := r.Stop(); err != nil {
		t.Errorf("first Stop() error = %v", err)
	}
	if err := r.Stop(); err != nil {
		t.Errorf("second Stop() error = %v", err)
	}
}
