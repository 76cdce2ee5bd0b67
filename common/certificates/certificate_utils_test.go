package certificates

import (
	"crypto/x509"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/buildbeaver/connections/common/gerror"
)

func TestGenerateServerSelfSignedCertificate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "tls")
	certFile := CertificateFile(filepath.Join(dir, "server.crt"))
	keyFile := PrivateKeyFile(filepath.Join(dir, "server.key"))

	created, err := GenerateServerSelfSignedCertificate(certFile, keyFile, "localhost, 127.0.0.1", "Test")
	require.NoError(t, err)
	require.True(t, created)

	data, err := LoadCertificateFromPemFile(certFile)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(data)
	require.NoError(t, err)
	require.Equal(t, []string{"localhost"}, cert.DNSNames)
	require.Len(t, cert.IPAddresses, 1)
	require.Equal(t, "127.0.0.1", cert.IPAddresses[0].String())

	info, err := os.Stat(keyFile.String())
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0600), info.Mode().Perm())

	// Existing files are left alone
	created, err = GenerateServerSelfSignedCertificate(certFile, keyFile, "localhost", "Test")
	require.NoError(t, err)
	require.False(t, created)
	again, err := LoadCertificateFromPemFile(certFile)
	require.NoError(t, err)
	require.Equal(t, data.AsPEM(), again.AsPEM())

	// A certificate without its key is an error
	require.NoError(t, os.Remove(keyFile.String()))
	_, err = GenerateServerSelfSignedCertificate(certFile, keyFile, "localhost", "Test")
	require.Error(t, err)
}

func TestGenerateRequiresHost(t *testing.T) {
	dir := t.TempDir()
	_, err := GenerateServerSelfSignedCertificate(
		CertificateFile(filepath.Join(dir, "server.crt")),
		PrivateKeyFile(filepath.Join(dir, "server.key")),
		"",
		"Test")
	require.Error(t, err)
}

func TestGetEncodedCertificateFromPEMData(t *testing.T) {
	_, err := GetEncodedCertificateFromPEMData("not pem")
	require.True(t, gerror.IsValidationFailed(err))

	_, err = GetEncodedCertificateFromPEMData("-----BEGIN PUBLIC KEY-----\nAAAA\n-----END PUBLIC KEY-----\n")
	require.True(t, gerror.IsValidationFailed(err))
}
