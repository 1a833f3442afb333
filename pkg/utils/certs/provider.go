// Package certs provides the server certificate and reloads it when the
// underlying files change.
package certs

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/samber/lo"

	"github.com/mpapenbr/pitstop-strategy-manager/log"
)

var ErrNoCertificate = errors.New("no certificate configured")

type (
	// Source names the files a certificate is read from. A traefik file takes
	// precedence over the cert/key pair.
	Source struct {
		CertFile      string
		KeyFile       string
		CAFile        string
		TraefikFile   string
		TraefikDomain string
	}
	Provider struct {
		src  Source
		log  *log.Logger
		mu   sync.RWMutex
		cert *tls.Certificate
	}
)

func (s Source) Enabled() bool {
	return (s.TraefikFile != "" && s.TraefikDomain != "") ||
		(s.CertFile != "" && s.KeyFile != "")
}

func (s Source) files() []string {
	if s.TraefikFile != "" && s.TraefikDomain != "" {
		return []string{s.TraefikFile}
	}
	return lo.Compact([]string{s.CertFile, s.KeyFile})
}

// NewProvider loads the initial certificate.
func NewProvider(src Source) (*Provider, error) {
	if !src.Enabled() {
		return nil, ErrNoCertificate
	}
	p := &Provider{src: src, log: log.Default().Named("certs")}
	if err := p.Reload(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Provider) Reload() error {
	var cert tls.Certificate
	var err error
	if p.src.TraefikFile != "" && p.src.TraefikDomain != "" {
		p.log.Info("Looking up traefik certs",
			log.String("file", p.src.TraefikFile),
			log.String("domain", p.src.TraefikDomain))
		cert, err = LoadTraefikCertificate(p.src.TraefikFile, p.src.TraefikDomain)
	} else {
		p.log.Info("Loading cert",
			log.String("key", p.src.KeyFile),
			log.String("cert", p.src.CertFile))
		cert, err = tls.LoadX509KeyPair(p.src.CertFile, p.src.KeyFile)
	}
	if err != nil {
		return fmt.Errorf("load certificate: %w", err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cert = &cert
	return nil
}

func (p *Provider) Certificate() *tls.Certificate {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cert
}

// TLSConfig always serves the most recently loaded certificate.
func (p *Provider) TLSConfig() (*tls.Config, error) {
	cfg := &tls.Config{
		GetCertificate: func(*tls.ClientHelloInfo) (*tls.Certificate, error) {
			return p.Certificate(), nil
		},
		MinVersion: tls.VersionTLS13,
	}
	if p.src.CAFile != "" {
		caCert, err := os.ReadFile(p.src.CAFile)
		if err != nil {
			return nil, fmt.Errorf("read ca file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("no certificates in %s", p.src.CAFile)
		}
		cfg.ClientCAs = pool
		cfg.ClientAuth = tls.VerifyClientCertIfGiven
	}
	return cfg, nil
}

// Watch reloads the certificate on file changes until ctx is done.
// A failed reload keeps the previous certificate.
func (p *Provider) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	for _, f := range p.src.files() {
		if err := watcher.Add(f); err != nil {
			return fmt.Errorf("watch %s: %w", f, err)
		}
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Chmod) {
				p.log.Info("cert file changed, reloading cert", log.String("file", event.Name))
				if err := p.Reload(); err != nil {
					p.log.Error("could not reload cert", log.ErrorField(err))
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			p.log.Error("watcher error", log.ErrorField(err))
		}
	}
}
