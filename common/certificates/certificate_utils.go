package certificates

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"fmt"
	"io/ioutil"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/buildbeaver/connections/common/gerror"
)

const certificateExpiryDuration = 5 * 365 * 24 * time.Hour // 5 years

// CertificateFile is a filename for a pem file containing an X.509 certificate
type CertificateFile string

func (f CertificateFile) String() string {
	return string(f)
}

// PrivateKeyFile is a filename for a file containing a private key corresponding to the public key in a certificate.
type PrivateKeyFile string

func (f PrivateKeyFile) String() string {
	return string(f)
}

// CertificateData contains the binary data for an ASN.1 DER-encoded X.509 certificate.
// This is the canonical format for a certificate.
type CertificateData []byte

// AsPEM converts the certificate data to a PEM-encoded certificate.
func (c CertificateData) AsPEM() string {
	return string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: c}))
}

// GenerateServerSelfSignedCertificate checks whether a certificate and corresponding private key exist, and if not
// then a new ecdsa P256 key pair and self-signed certificate are created, in two separate .pem files.
// The entire path to the directory the certificate file is in will be created if it doesn't exist.
// hosts is a mandatory comma-separated list of hostnames and/or IP addresses to put in the certificate.
// Returns true if a new key pair and certificate were created.
func GenerateServerSelfSignedCertificate(
	certFilename CertificateFile,
	privateKeyFilename PrivateKeyFile,
	hosts string,
	organization string,
) (bool, error) {
	if len(hosts) == 0 {
		return false, fmt.Errorf("error creating self-signed server certificate: host name required")
	}
	if certFilename == "" || privateKeyFilename == "" {
		return false, fmt.Errorf("error checking certificate: filenames must not be empty")
	}

	certDir := filepath.Dir(certFilename.String())
	certDirInfo, err := os.Stat(certDir)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return false, fmt.Errorf("error checking for existence of directory %s: %w", certDir, err)
		}
		err = os.MkdirAll(certDir, 0755)
		if err != nil {
			return false, fmt.Errorf("error making certificate directory %s: %w", certDir, err)
		}
	} else if !certDirInfo.IsDir() {
		return false, fmt.Errorf("error making certificate directory %s: file is present with same name", certDir)
	}

	certFileExists, err := fileExists(certFilename.String())
	if err != nil {
		return false, fmt.Errorf("error checking for certificate file: %w", err)
	}
	privateKeyFileExists, err := fileExists(privateKeyFilename.String())
	if err != nil {
		return false, fmt.Errorf("error checking for private key file: %w", err)
	}

	// Check we don't have one file without the other
	if certFileExists && !privateKeyFileExists {
		return false, fmt.Errorf("error: certificate file exists at %s but private key file is missing at %s",
			certFilename, privateKeyFilename)
	}
	if !certFileExists && privateKeyFileExists {
		return false, fmt.Errorf("error: private key file exists at %s but certificate file is missing at %s",
			privateKeyFilename, certFilename)
	}
	if certFileExists {
		return false, nil
	}

	err = generateSelfSignedCertificate(certFilename, privateKeyFilename, hosts, organization, certificateExpiryDuration)
	if err != nil {
		return false, fmt.Errorf("error creating private key and certificate: %w", err)
	}
	return true, nil
}

func fileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// generateSelfSignedCertificate creates a self-signed certificate using an ecdsa P256 key, which is
// compatible with most browsers.
func generateSelfSignedCertificate(
	certFilename CertificateFile,
	privateKeyFilename PrivateKeyFile,
	hosts string,
	organization string,
	validFor time.Duration,
) error {
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return fmt.Errorf("error generating private key: %w", err)
	}

	notBefore := time.Now()
	notAfter := notBefore.Add(validFor)

	serialNumberLimit := new(big.Int).Lsh(big.NewInt(1), 128)
	serialNumber, err := rand.Int(rand.Reader, serialNumberLimit)
	if err != nil {
		return fmt.Errorf("error generating serial number: %w", err)
	}

	template := x509.Certificate{
		SerialNumber: serialNumber,
		Subject: pkix.Name{
			Organization: []string{organization},
		},
		NotBefore:             notBefore,
		NotAfter:              notAfter,
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
	}
	for _, h := range strings.Split(hosts, ",") {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		if ip := net.ParseIP(h); ip != nil {
			template.IPAddresses = append(template.IPAddresses, ip)
		} else {
			template.DNSNames = append(template.DNSNames, h)
		}
	}

	// Self-signed certs are their own CA
	template.IsCA = true
	template.KeyUsage |= x509.KeyUsageCertSign

	derBytes, err := x509.CreateCertificate(rand.Reader, &template, &template, &privateKey.PublicKey, privateKey)
	if err != nil {
		return fmt.Errorf("error creating certificate: %w", err)
	}

	certOut, err := os.Create(certFilename.String())
	if err != nil {
		return fmt.Errorf("error opening certificate file for writing: %w", err)
	}
	if err := pem.Encode(certOut, &pem.Block{Type: "CERTIFICATE", Bytes: derBytes}); err != nil {
		certOut.Close()
		return fmt.Errorf("error writing data to certificate file: %w", err)
	}
	if err := certOut.Close(); err != nil {
		return fmt.Errorf("error closing certificate file: %w", err)
	}

	keyOut, err := os.OpenFile(privateKeyFilename.String(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("error opening private key file for writing: %w", err)
	}
	privateKeyBytes, err := x509.MarshalPKCS8PrivateKey(privateKey)
	if err != nil {
		keyOut.Close()
		return fmt.Errorf("error marshalling private key: %w", err)
	}
	if err := pem.Encode(keyOut, &pem.Block{Type: "PRIVATE KEY", Bytes: privateKeyBytes}); err != nil {
		keyOut.Close()
		return fmt.Errorf("error writing data to private key file: %w", err)
	}
	if err := keyOut.Close(); err != nil {
		return fmt.Errorf("error closing private key file: %w", err)
	}
	return nil
}

// GetEncodedCertificateFromPEMData parses the supplied PEM data, extracting the first PEM-encoded block
// and checking that it contains an ASN.1 DER-encoded X.509 certificate.
// Returns a Validation Failed error if no X.509 certificate is found.
func GetEncodedCertificateFromPEMData(pemData string) (CertificateData, error) {
	const certificatePEMBlockType = "CERTIFICATE"
	certBlock, _ := pem.Decode([]byte(pemData))
	if certBlock == nil {
		return nil, gerror.NewErrValidationFailed("certificate PEM data does not contain a valid PEM block")
	}
	if certBlock.Type != certificatePEMBlockType {
		return nil, gerror.NewErrValidationFailed(fmt.Sprintf("certificate PEM data contains unknown block type: %s (should be %s)",
			certBlock.Type, certificatePEMBlockType))
	}
	_, err := x509.ParseCertificate(certBlock.Bytes)
	if err != nil {
		return nil, gerror.NewErrValidationFailed("certificate PEM data does not contain an X.509 certificate")
	}
	return certBlock.Bytes, nil
}

// LoadCertificateFromPemFile reads a certificate from a PEM file, and returns the certificate
// as ASN.1 DER encoded binary.
func LoadCertificateFromPemFile(file CertificateFile) (CertificateData, error) {
	pemCert, err := ioutil.ReadFile(file.String())
	if err != nil {
		return nil, fmt.Errorf("error loading certificate from PEM file: %w", err)
	}
	return GetEncodedCertificateFromPEMData(string(pemCert))
}
