package certs

import (
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"os"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
)

var ErrDomainNotFound = errors.New("domain not found")

type acmeEntry struct {
	Certificate string `json:"certificate"`
	Key         string `json:"key"`
}

// LoadTraefikCertificate reads the key pair of domain from a traefik
// acme.json file. Certificate and key are stored base64 encoded there.
func LoadTraefikCertificate(file, domain string) (tls.Certificate, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return tls.Certificate{}, err
	}
	certData, keyData, err := traefikEntry(string(data), domain)
	if err != nil {
		return tls.Certificate{}, err
	}
	certPEM, err := base64.StdEncoding.DecodeString(certData)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("decode certificate: %w", err)
	}
	keyPEM, err := base64.StdEncoding.DecodeString(keyData)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("decode key: %w", err)
	}
	return tls.X509KeyPair(certPEM, keyPEM)
}

// traefikEntry looks up the entry of any resolver whose main domain matches.
func traefikEntry(jsonData, domain string) (cert, key string, err error) {
	obj, err := oj.ParseString(jsonData)
	if err != nil {
		return "", "", err
	}
	path, err := jp.ParseString(fmt.Sprintf(`$..Certificates[?(@.domain.main == %q)]`, domain))
	if err != nil {
		return "", "", err
	}
	res := path.Get(obj)
	if len(res) == 0 {
		return "", "", fmt.Errorf("%w: %s", ErrDomainNotFound, domain)
	}
	entry := acmeEntry{}
	if err := oj.Unmarshal([]byte(oj.JSON(res[0])), &entry); err != nil {
		return "", "", err
	}
	return entry.Certificate, entry.Key, nil
}
