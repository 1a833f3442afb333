package certs

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// selfSigned returns PEM encoded certificate and key for cn.
func selfSigned(t *testing.T, cn string) (certPEM, keyPEM []byte) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		Subject:      pkix.Name{CommonName: cn},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		DNSNames:     []string{cn},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	keyDER, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}),
		pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})
}

func writePair(t *testing.T, dir, cn string) (certFile, keyFile string) {
	t.Helper()
	certPEM, keyPEM := selfSigned(t, cn)
	certFile = filepath.Join(dir, "tls.crt")
	keyFile = filepath.Join(dir, "tls.key")
	require.NoError(t, os.WriteFile(certFile, certPEM, 0o600))
	require.NoError(t, os.WriteFile(keyFile, keyPEM, 0o600))
	return certFile, keyFile
}

func commonName(t *testing.T, c *tls.Certificate) string {
	t.Helper()
	require.NotNil(t, c)
	leaf, err := x509.ParseCertificate(c.Certificate[0])
	require.NoError(t, err)
	return leaf.Subject.CommonName
}

func TestNewProviderDisabled(t *testing.T) {
	_, err := NewProvider(Source{CertFile: "only-cert.pem"})
	assert.ErrorIs(t, err, ErrNoCertificate)
}

func TestProviderKeyPair(t *testing.T) {
	certFile, keyFile := writePair(t, t.TempDir(), "psm.local")
	p, err := NewProvider(Source{CertFile: certFile, KeyFile: keyFile})
	require.NoError(t, err)
	assert.Equal(t, "psm.local", commonName(t, p.Certificate()))

	cfg, err := p.TLSConfig()
	require.NoError(t, err)
	served, err := cfg.GetCertificate(&tls.ClientHelloInfo{})
	require.NoError(t, err)
	assert.Equal(t, "psm.local", commonName(t, served))
	assert.Nil(t, cfg.ClientCAs)
}

func TestProviderTraefik(t *testing.T) {
	dir := t.TempDir()
	certPEM, keyPEM := selfSigned(t, "race.example.com")
	content := fmt.Sprintf(
		`{"le":{"Certificates":[{"domain":{"main":"race.example.com"},"certificate":%q,"key":%q}]}}`,
		base64.StdEncoding.EncodeToString(certPEM),
		base64.StdEncoding.EncodeToString(keyPEM))
	file := filepath.Join(dir, "acme.json")
	require.NoError(t, os.WriteFile(file, []byte(content), 0o600))

	p, err := NewProvider(Source{TraefikFile: file, TraefikDomain: "race.example.com"})
	require.NoError(t, err)
	assert.Equal(t, "race.example.com", commonName(t, p.Certificate()))

	_, err = NewProvider(Source{TraefikFile: file, TraefikDomain: "other.example.com"})
	assert.ErrorIs(t, err, ErrDomainNotFound)
}

func TestProviderCA(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := writePair(t, dir, "psm.local")
	p, err := NewProvider(Source{CertFile: certFile, KeyFile: keyFile, CAFile: certFile})
	require.NoError(t, err)
	cfg, err := p.TLSConfig()
	require.NoError(t, err)
	assert.NotNil(t, cfg.ClientCAs)
	assert.Equal(t, tls.VerifyClientCertIfGiven, cfg.ClientAuth)

	p.src.CAFile = filepath.Join(dir, "missing.pem")
	_, err = p.TLSConfig()
	assert.Error(t, err)
}

func TestProviderWatch(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := writePair(t, dir, "first.local")
	p, err := NewProvider(Source{CertFile: certFile, KeyFile: keyFile})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Watch(ctx) }()

	assert.Eventually(t, func() bool {
		writePair(t, dir, "second.local")
		return commonName(t, p.Certificate()) == "second.local"
	}, 5*time.Second, 100*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}
