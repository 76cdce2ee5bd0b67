package app

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/buildbeaver/connections/server/services/encryption"
)

func parseTestConfig(args ...string) (*ServerConfig, error) {
	return ConfigFromFlagSet(pflag.NewFlagSet("test", pflag.ContinueOnError), args)
}

func TestConfigKeyManager(t *testing.T) {
	config, err := parseTestConfig("--key_manager_local_master_key", "0123456789abcdef0123456789abcdef")
	require.NoError(t, err)
	require.Equal(t, "0123456789abcdef0123456789abcdef", string(config.EncryptionConfig.LocalKeyManagerMasterKey[:]))

	config, err = parseTestConfig("--key_manager_type", "local", "--key_manager_local_master_key", "a passphrase")
	require.NoError(t, err)
	require.NotNil(t, config.EncryptionConfig.LocalKeyManagerMasterKey)

	_, err = parseTestConfig()
	require.Error(t, err)

	config, err = parseTestConfig("--key_manager_type", "aws_kms", "--key_manager_aws_kms_region", "eu-west-1")
	require.NoError(t, err)
	require.Nil(t, config.EncryptionConfig.LocalKeyManagerMasterKey)
	require.Equal(t, "eu-west-1", config.EncryptionConfig.AWSKeyManagerConfig.Region)

	_, err = parseTestConfig("--key_manager_type", "vault")
	require.Error(t, err)
}

func TestParseKeyManagerType(t *testing.T) {
	keyManagerType, err := encryption.ParseKeyManagerType("")
	require.NoError(t, err)
	require.Equal(t, encryption.LocalKeyManagerType, keyManagerType)

	keyManagerType, err = encryption.ParseKeyManagerType("Aws_Kms")
	require.NoError(t, err)
	require.Equal(t, encryption.AWSKeyManagerType, keyManagerType)

	_, err = encryption.ParseKeyManagerType("vault")
	require.Error(t, err)
}

func TestConfigTLS(t *testing.T) {
	const masterKey = "0123456789abcdef0123456789abcdef"

	config, err := parseTestConfig("--key_manager_local_master_key", masterKey)
	require.NoError(t, err)
	require.Nil(t, config.CoreAPIConfig.TLSConfig)

	config, err = parseTestConfig("--key_manager_local_master_key", masterKey,
		"--api_server_tls_certificate_file", "/tmp/cert.pem",
		"--api_server_tls_private_key_file", "/tmp/key.pem",
		"--api_server_tls_autogenerate_hosts", "localhost")
	require.NoError(t, err)
	require.Equal(t, "localhost", config.CoreAPIConfig.TLSConfig.AutogenerateHosts)

	_, err = parseTestConfig("--key_manager_local_master_key", masterKey,
		"--api_server_tls_certificate_file", "/tmp/cert.pem")
	require.Error(t, err)

	_, err = parseTestConfig("--key_manager_local_master_key", masterKey,
		"--api_server_tls_autogenerate_hosts", "localhost")
	require.Error(t, err)
}
