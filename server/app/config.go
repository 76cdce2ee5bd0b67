package app

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/buildbeaver/connections/common/logger"
	"github.com/buildbeaver/connections/common/models"
	"github.com/buildbeaver/connections/server/api/rest/server"
	"github.com/buildbeaver/connections/server/services/authentication"
	"github.com/buildbeaver/connections/server/services/credential"
	"github.com/buildbeaver/connections/server/services/encryption"
	"github.com/buildbeaver/connections/server/store"
)

// localMasterKeySalt salts the derivation of a local master key from a passphrase.
const localMasterKeySalt = "connections"

// LogSafeFlags is a list of flags by name whose values are safe to log.
var LogSafeFlags = []string{
	"key_manager_type",
	"key_manager_aws_kms_region",
	"key_manager_aws_kms_master_key_id",
	"key_manager_aws_kms_access_key_id",
	"api_server_address",
	"api_server_tls_certificate_file",
	"api_server_cors_allowed_origins",
	"api_token_issuer",
	"api_token_expiry",
	"shared_secret_platform_id",
	"naming_conventions_file",
	"database_driver",
	"database_max_idle_connections",
	"database_max_open_connections",
	"log_levels",
}

type EncryptionConfig struct {
	// KeyManagerType specifies which key manager should be used.
	KeyManagerType string
	// LocalKeyManagerMasterKey is the static encryption key to use with the local key manager, if enabled.
	LocalKeyManagerMasterKey *[32]byte
	// AWSKeyManagerConfig contains configuration for the AWS Key Manager, if enabled.
	AWSKeyManagerConfig encryption.AWSKeyManagerConfig
}

func KeyManagerFactory(config EncryptionConfig, logFactory logger.LogFactory) (encryption.KeyManager, error) {
	keyManagerType, err := encryption.ParseKeyManagerType(config.KeyManagerType)
	if err != nil {
		return nil, err
	}
	switch keyManagerType {
	case encryption.AWSKeyManagerType:
		return encryption.NewAWSKeyManager(config.AWSKeyManagerConfig, logFactory)
	case encryption.LocalKeyManagerType:
		if config.LocalKeyManagerMasterKey == nil {
			return nil, errors.New("error local key manager requires a master key")
		}
		return encryption.NewLocalKeyManager(config.LocalKeyManagerMasterKey), nil
	default:
		return nil, fmt.Errorf("error unsupported key manager type: %v", keyManagerType)
	}
}

// NamingConventionsConfig locates the conventions shared by provisioning and resolution.
type NamingConventionsConfig struct {
	// File is the path to a YAML conventions file. Empty for no conventions.
	File string
}

func NamingConventionsFactory(config NamingConventionsConfig) (*models.NamingConventions, error) {
	return models.LoadNamingConventions(config.File)
}

type ServerConfig struct {
	CoreAPIConfig           server.AppAPIServerConfig
	AuthenticationConfig    authentication.AuthenticationConfig
	DatabaseConfig          store.DatabaseConfig
	LogLevels               logger.LogLevelConfig
	EncryptionConfig        EncryptionConfig
	JWTConfig               credential.JWTConfig
	NamingConventionsConfig NamingConventionsConfig
}

func ConfigFromFlags() (*ServerConfig, error) {
	return ConfigFromFlagSet(pflag.CommandLine, os.Args[1:])
}

// ConfigFromFlagSet registers the server flags on flags, parses args and builds the server config.
func ConfigFromFlagSet(flags *pflag.FlagSet, args []string) (*ServerConfig, error) {
	var (
		localKeyManagerMasterKey string
		databaseDriverStr        string
		databaseConnectionString string
		logLevels                string
		tlsCertificateFile       string
		tlsPrivateKeyFile        string
		tlsAutogenerateHosts     string
		apiTokenSigningKey       string
		sharedSecretPlatformID   string
	)
	config := &ServerConfig{}

	// Encryption
	flags.StringVar(&config.EncryptionConfig.KeyManagerType, "key_manager_type",
		encryption.LocalKeyManagerType.String(), fmt.Sprintf("The type of key manager to use. Options: %s", strings.Join(encryption.KeyManagerTypes(), ", ")))
	flags.StringVar(&localKeyManagerMasterKey, "key_manager_local_master_key",
		"", "The key used to encrypt all connection values, if using the local key manager. Exactly 32 bytes are used as-is; anything else is treated as a passphrase.")
	flags.StringVar(&config.EncryptionConfig.AWSKeyManagerConfig.Region, "key_manager_aws_kms_region",
		"", "The AWS region hosting the KMS master key, if using the AWS KMS key manager.")
	flags.StringVar(&config.EncryptionConfig.AWSKeyManagerConfig.MasterKeyID, "key_manager_aws_kms_master_key_id",
		"", "The KMS Master Key ID to encrypt data with, if using the AWS KMS key manager.")
	flags.StringVar(&config.EncryptionConfig.AWSKeyManagerConfig.AccessKeyID, "key_manager_aws_kms_access_key_id",
		"", "The AWS Access Key ID to use to authenticate to KMS, if using the AWS KMS key manager.")
	flags.StringVar(&config.EncryptionConfig.AWSKeyManagerConfig.SecretAccessKey, "key_manager_aws_kms_secret_key",
		"", "The AWS Secret Key to use to authenticate to KMS, if using the AWS KMS key manager.")

	// API tokens
	flags.StringVar(&apiTokenSigningKey, "api_token_signing_key",
		"", fmt.Sprintf("The key used to sign API tokens; at least %d bytes. A random key is used if not set.", credential.MinSigningKeyLength))
	flags.StringVar(&config.JWTConfig.Issuer, "api_token_issuer",
		credential.DefaultJWTIssuer, "The issuer named in and required of API tokens.")
	flags.DurationVar(&config.JWTConfig.ExpiryDuration, "api_token_expiry",
		credential.DefaultJWTExpiryDuration, "How long issued API tokens remain valid.")

	// Shared secret
	flags.StringVar(&config.AuthenticationConfig.SharedSecret, "shared_secret",
		"", fmt.Sprintf("A secret of at least %d characters that callers may present in the %q header instead of an API token. Disabled if not set.", authentication.MinSharedSecretLength, "connections-token"))
	flags.StringVar(&sharedSecretPlatformID, "shared_secret_platform_id",
		models.DefaultPlatformID.String(), "The platform that shared secret callers act within.")

	// App API
	flags.StringVar(&config.CoreAPIConfig.Address, "api_server_address",
		"0.0.0.0:8080", "The interface and port to bind the API server to.")
	flags.StringVar(&tlsCertificateFile, "api_server_tls_certificate_file",
		"", "A PEM certificate file to serve HTTPS with. HTTP is served if not set.")
	flags.StringVar(&tlsPrivateKeyFile, "api_server_tls_private_key_file",
		"", "The PEM private key file matching --api_server_tls_certificate_file.")
	flags.StringVar(&tlsAutogenerateHosts, "api_server_tls_autogenerate_hosts",
		"", "A comma-separated list of hosts to generate a self-signed certificate for if the TLS certificate and key files do not exist.")
	flags.StringSliceVar(&config.CoreAPIConfig.CORSAllowedOrigins, "api_server_cors_allowed_origins",
		nil, "Browser origins allowed to call the API. CORS is disabled if not set.")

	// Naming conventions
	flags.StringVar(&config.NamingConventionsConfig.File, "naming_conventions_file",
		defaultNamingConventionsFile, "The YAML file mapping pieces to the prefixes their connections are named with. No conventions are used if set to empty.")

	// Database
	flags.StringVar(&databaseConnectionString, "database_connection_string",
		defaultSQLiteConnectionString, "The connection string for the database")
	flags.StringVar(&databaseDriverStr, "database_driver",
		string(store.Sqlite), "The Database Driver to use (i.e sqlite3|postgres)")
	flags.IntVar(&config.DatabaseConfig.MaxIdleConnections, "database_max_idle_connections",
		store.DefaultDatabaseMaxIdleConnections, "The maximum number of idle database connections to use")
	flags.IntVar(&config.DatabaseConfig.MaxOpenConnections, "database_max_open_connections",
		store.DefaultDatabaseMaxOpenConnections, "The maximum number of open database connections to use")

	// Misc
	flags.StringVar(&logLevels, "log_levels",
		"", fmt.Sprintf("A comma separated list of name=level pairs where name is the name of the logger and level is one of: %s", logger.ListLogLevels()))

	err := flags.Parse(args)
	if err != nil {
		return nil, err
	}

	// Encryption
	keyManagerType, err := encryption.ParseKeyManagerType(config.EncryptionConfig.KeyManagerType)
	if err != nil {
		return nil, err
	}
	if keyManagerType == encryption.LocalKeyManagerType {
		if localKeyManagerMasterKey == "" {
			return nil, errors.New("--key_manager_local_master_key must be set")
		}
		if len(localKeyManagerMasterKey) == 32 {
			var key [32]byte
			copy(key[:], localKeyManagerMasterKey)
			config.EncryptionConfig.LocalKeyManagerMasterKey = &key
		} else {
			key, err := encryption.DeriveLocalMasterKey([]byte(localKeyManagerMasterKey), []byte(localMasterKeySalt))
			if err != nil {
				return nil, fmt.Errorf("error deriving local master key: %w", err)
			}
			config.EncryptionConfig.LocalKeyManagerMasterKey = key
		}
	}

	// API tokens
	if apiTokenSigningKey != "" {
		config.JWTConfig.SigningKey = []byte(apiTokenSigningKey)
	}
	config.AuthenticationConfig.SharedSecretPlatformID = models.PlatformID(sharedSecretPlatformID)

	// App API
	if tlsCertificateFile != "" || tlsPrivateKeyFile != "" {
		if tlsCertificateFile == "" || tlsPrivateKeyFile == "" {
			return nil, errors.New("--api_server_tls_certificate_file and --api_server_tls_private_key_file must be set together")
		}
		config.CoreAPIConfig.TLSConfig = &server.TLSConfig{
			CertificateFile:   tlsCertificateFile,
			PrivateKeyFile:    tlsPrivateKeyFile,
			AutogenerateHosts: tlsAutogenerateHosts,
		}
	}

	if tlsAutogenerateHosts != "" && config.CoreAPIConfig.TLSConfig == nil {
		return nil, errors.New("--api_server_tls_autogenerate_hosts requires the TLS certificate and private key files to be set")
	}

	// Database
	config.DatabaseConfig.Driver = store.DBDriver(databaseDriverStr)
	config.DatabaseConfig.ConnectionString = store.DatabaseConnectionString(databaseConnectionString)

	// Misc
	config.LogLevels = logger.LogLevelConfig(logLevels)

	return config, nil
}
