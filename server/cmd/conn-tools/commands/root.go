package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/buildbeaver/connections/common/logger"
	"github.com/buildbeaver/connections/common/version"
	"github.com/buildbeaver/connections/server/api/rest/client"
	"github.com/buildbeaver/connections/server/cmd/conn-tools/cli"
)

// EnvPrefix prefixes the environment variables that may be used in place of flags,
// e.g. CONN_TOOLS_SERVER_URL for --server-url.
const EnvPrefix = "CONN_TOOLS"

const (
	ServerURLKey    = "server-url"
	SharedSecretKey = "shared-secret"
	APITokenKey     = "api-token"
	TimeoutKey      = "timeout"
	DebugKey        = "debug"
	CACertKey       = "ca-cert"
	InsecureKey     = "insecure-skip-verify"
)

var configFile string

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().StringVar(
		&configFile,
		"config",
		"",
		"Config file (YAML, JSON or TOML) supplying values for any of the flags")
	RootCmd.PersistentFlags().BoolP(
		DebugKey,
		"d",
		false,
		"Enable debug-level log output.")
	RootCmd.PersistentFlags().String(
		ServerURLKey,
		"http://localhost:8080",
		"The URL of the connections server")
	RootCmd.PersistentFlags().String(
		SharedSecretKey,
		"",
		"The shared secret to authenticate to the connections server with")
	RootCmd.PersistentFlags().String(
		APITokenKey,
		"",
		"An API token to authenticate to the connections server with, in place of the shared secret")
	RootCmd.PersistentFlags().Duration(
		TimeoutKey,
		30*time.Second,
		"Time limit for each request to the connections server")
	RootCmd.PersistentFlags().String(
		CACertKey,
		"",
		"A PEM file of CA certificates to verify an HTTPS server against, e.g. a self-signed server certificate")
	RootCmd.PersistentFlags().Bool(
		InsecureKey,
		false,
		"Do not verify the server's HTTPS certificate. For development only.")

	for _, key := range []string{DebugKey, ServerURLKey, SharedSecretKey, APITokenKey, TimeoutKey, CACertKey, InsecureKey} {
		err := viper.BindPFlag(key, RootCmd.PersistentFlags().Lookup(key))
		if err != nil {
			panic(err)
		}
	}
}

// Execute adds all child commands to the root command sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cli.Exit(RootCmd.Execute())
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	if configFile != "" {
		viper.SetConfigFile(configFile)
		err := viper.ReadInConfig()
		if err != nil {
			cli.Exit(fmt.Errorf("error reading config file %q: %w", configFile, err))
		}
	}
}

var RootCmd = &cobra.Command{
	Use:     "conn-tools command",
	Short:   "Connections tools",
	Long:    `Tools for provisioning and resolving predefined connections`,
	Version: version.VersionToString(),
}

// MakeLogFactory makes a plain log factory for command output, at debug level if requested.
func MakeLogFactory() (logger.LogFactory, error) {
	var levels logger.LogLevelConfig
	if viper.GetBool(DebugKey) {
		levels = logger.AllSubsystems + "=debug"
	}
	logRegistry, err := logger.NewLogRegistry(levels)
	if err != nil {
		return nil, err
	}
	return logger.MakeLogrusLogFactoryStdOutPlain(logRegistry), nil
}

// MakeAPIClient makes a client for the configured server, authenticating with the configured
// API token or shared secret.
func MakeAPIClient(opts ...client.Option) (*client.APIClient, error) {
	logFactory, err := MakeLogFactory()
	if err != nil {
		return nil, err
	}
	var authenticator client.Authenticator
	switch {
	case viper.GetString(APITokenKey) != "":
		authenticator = client.NewAPITokenAuthenticator(client.APIToken(viper.GetString(APITokenKey)), logFactory)
	case viper.GetString(SharedSecretKey) != "":
		authenticator = client.NewSharedSecretAuthenticator(client.SharedSecretToken(viper.GetString(SharedSecretKey)), logFactory)
	default:
		return nil, fmt.Errorf("error one of --%s or --%s must be set", APITokenKey, SharedSecretKey)
	}
	if viper.GetString(CACertKey) != "" || viper.GetBool(InsecureKey) {
		authenticator, err = client.NewTLSAuthenticator(
			authenticator,
			viper.GetString(CACertKey),
			client.InsecureSkipVerify(viper.GetBool(InsecureKey)),
			logFactory)
		if err != nil {
			return nil, err
		}
	}
	opts = append([]client.Option{client.WithTimeout(viper.GetDuration(TimeoutKey))}, opts...)
	return client.NewAPIClient([]string{viper.GetString(ServerURLKey)}, authenticator, logFactory, opts...)
}
