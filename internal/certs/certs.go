// Package certs generates the key pair and self-signed certificate used to
// sign update manifests.
package certs

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	CertificateFile = "certificate.pem"
	PublicKeyFile   = "public-key.pem"
	PrivateKeyFile  = "private-key.pem"

	keyBits = 2048
)

// Options configures certificate generation. Now defaults to time.Now.
type Options struct {
	CertificateDir string
	KeyDir         string
	CommonName     string
	ValidityYears  int
	Now            func() time.Time
}

// Result holds the paths of the written files.
type Result struct {
	CertificatePath string `json:"certificatePath"`
	PublicKeyPath   string `json:"publicKeyPath"`
	PrivateKeyPath  string `json:"privateKeyPath"`
}

func validateOptions(opts Options) error {
	if opts.CommonName == "" {
		return errors.New("organization name is required")
	}
	if opts.ValidityYears <= 0 {
		return fmt.Errorf("validity must be a positive number of years, got %d", opts.ValidityYears)
	}
	if opts.CertificateDir == "" || opts.KeyDir == "" {
		return errors.New("certificate and key directories are required")
	}
	return nil
}

// Generate creates an RSA key pair and a code signing certificate valid for
// opts.ValidityYears.
func Generate(opts Options) (*Result, error) {
	if err := validateOptions(opts); err != nil {
		return nil, err
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	for _, dir := range []string{opts.CertificateDir, opts.KeyDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	key, err := rsa.GenerateKey(rand.Reader, keyBits)
	if err != nil {
		return nil, fmt.Errorf("generating key pair: %w", err)
	}

	certDER, err := selfSign(key, opts.CommonName, now().UTC(), opts.ValidityYears)
	if err != nil {
		return nil, err
	}
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("encoding public key: %w", err)
	}

	res := &Result{
		CertificatePath: filepath.Join(opts.CertificateDir, CertificateFile),
		PublicKeyPath:   filepath.Join(opts.KeyDir, PublicKeyFile),
		PrivateKeyPath:  filepath.Join(opts.KeyDir, PrivateKeyFile),
	}
	files := []struct {
		path  string
		block *pem.Block
		perm  os.FileMode
	}{
		{res.PublicKeyPath, &pem.Block{Type: "PUBLIC KEY", Bytes: pubDER}, 0o644},
		{res.PrivateKeyPath, &pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}, 0o600},
		{res.CertificatePath, &pem.Block{Type: "CERTIFICATE", Bytes: certDER}, 0o644},
	}
	for _, f := range files {
		if err := os.WriteFile(f.path, pem.EncodeToMemory(f.block), f.perm); err != nil {
			return nil, fmt.Errorf("writing %s: %w", f.path, err)
		}
		log.Debugf("wrote %s", f.path)
	}
	return res, nil
}

func selfSign(key *rsa.PrivateKey, commonName string, now time.Time, years int) ([]byte, error) {
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, fmt.Errorf("generating serial number: %w", err)
	}

	name := pkix.Name{CommonName: commonName}
	tmpl := &x509.Certificate{
		SerialNumber:          serial,
		Subject:               name,
		Issuer:                name,
		NotBefore:             now,
		NotAfter:              now.AddDate(years, 0, 0),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageCodeSigning},
		BasicConstraintsValid: true,
		IsCA:                  false,
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		return nil, fmt.Errorf("creating certificate: %w", err)
	}
	return der, nil
}
