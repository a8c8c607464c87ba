// Package config resolves settings from flags, environment variables, a .env file
// and an optional followqueue config file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/f-sync/followqueue/internal/actionqueue"
	"github.com/f-sync/followqueue/internal/navigator"
	"github.com/f-sync/followqueue/internal/profiles"
	"github.com/f-sync/followqueue/internal/store"
)

const (
	// EnvPrefix prefixes every environment variable, e.g. FOLLOWQUEUE_STORE_PATH.
	EnvPrefix = "FOLLOWQUEUE"

	KeyHost               = "host"
	KeyPort               = "port"
	KeyStoreDriver        = "store-driver"
	KeyStorePath          = "store-path"
	KeyNetworkHost        = "network-host"
	KeyNetworkMarker      = "network-marker"
	KeyBatchSize          = "batch-size"
	KeyNavigationInterval = "navigation-interval"
	KeyChromeBinary       = "chrome-binary"
	KeyConfigFile         = "config"

	DefaultHost        = "127.0.0.1"
	DefaultPort        = 8080
	DefaultStoreDriver = store.DriverSQLite

	configFileName          = "followqueue"
	applicationDirectory    = "followqueue"
	defaultDatabaseFileName = "state.db"
	defaultEnvFileName      = ".env"
	envKeySeparator         = "_"
	keySeparator            = "-"

	errMessageReadConfigFile = "read config file"
	errMessageLoadEnvFile    = "load env file"
	errMessageBindFlag       = "bind flag"
	errMessageInvalidPort    = "port must be between 1 and 65535"
	errMessageInvalidBatch   = "batch size must be positive"
)

var (
	// ErrInvalidPort indicates a port outside the TCP range.
	ErrInvalidPort = errors.New(errMessageInvalidPort)
	// ErrInvalidBatchSize indicates a non-positive batch size.
	ErrInvalidBatchSize = errors.New(errMessageInvalidBatch)
)

// Config is the resolved application configuration.
type Config struct {
	Host               string
	Port               int
	Store              store.Config
	Network            profiles.Network
	BatchSize          int
	NavigationInterval time.Duration
	ChromeBinary       string
}

// Address returns the host:port pair the HTTP server listens on.
func (configuration Config) Address() string {
	return fmt.Sprintf("%s:%d", configuration.Host, configuration.Port)
}

// NewViper returns a viper instance reading FOLLOWQUEUE_* environment variables with
// every default registered.
func NewViper() *viper.Viper {
	configurationViper := viper.New()
	configurationViper.SetEnvPrefix(EnvPrefix)
	configurationViper.SetEnvKeyReplacer(strings.NewReplacer(keySeparator, envKeySeparator))
	configurationViper.AutomaticEnv()

	defaultNetwork := profiles.DefaultNetwork()
	configurationViper.SetDefault(KeyHost, DefaultHost)
	configurationViper.SetDefault(KeyPort, DefaultPort)
	configurationViper.SetDefault(KeyStoreDriver, DefaultStoreDriver)
	configurationViper.SetDefault(KeyStorePath, DefaultStorePath())
	configurationViper.SetDefault(KeyNetworkHost, defaultNetwork.Host)
	configurationViper.SetDefault(KeyNetworkMarker, defaultNetwork.Marker)
	configurationViper.SetDefault(KeyBatchSize, actionqueue.DefaultBatchSize)
	configurationViper.SetDefault(KeyNavigationInterval, navigator.DefaultNavigationInterval)
	return configurationViper
}

// DefaultStorePath places the database under the user configuration directory,
// falling back to the working directory.
func DefaultStorePath() string {
	configDirectory, err := os.UserConfigDir()
	if err != nil || configDirectory == "" {
		return defaultDatabaseFileName
	}
	return filepath.Join(configDirectory, applicationDirectory, defaultDatabaseFileName)
}

// BindFlag binds a command flag to the viper key of the same name.
func BindFlag(configurationViper *viper.Viper, command *cobra.Command, flagName string) error {
	flag := command.Flags().Lookup(flagName)
	if flag == nil {
		flag = command.PersistentFlags().Lookup(flagName)
	}
	if err := configurationViper.BindPFlag(flagName, flag); err != nil {
		return fmt.Errorf("%s %s: %w", errMessageBindFlag, flagName, err)
	}
	return nil
}

// LoadEnvFile loads variables from a .env file without overriding the process
// environment. An empty path selects ./.env; a missing file is ignored.
func LoadEnvFile(path string) error {
	envPath := strings.TrimSpace(path)
	if envPath == "" {
		envPath = defaultEnvFileName
	}
	if err := godotenv.Load(envPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("%s: %w", errMessageLoadEnvFile, err)
	}
	return nil
}

// ReadConfigFile merges a config file into the viper instance. An explicit path must
// exist; otherwise followqueue.{yaml,toml,json} is looked up in the working directory
// and the user configuration directory, and its absence is not an error.
func ReadConfigFile(configurationViper *viper.Viper, explicitPath string) error {
	if trimmedPath := strings.TrimSpace(explicitPath); trimmedPath != "" {
		configurationViper.SetConfigFile(trimmedPath)
		if err := configurationViper.ReadInConfig(); err != nil {
			return fmt.Errorf("%s: %w", errMessageReadConfigFile, err)
		}
		return nil
	}

	configurationViper.SetConfigName(configFileName)
	configurationViper.AddConfigPath(".")
	if configDirectory, err := os.UserConfigDir(); err == nil && configDirectory != "" {
		configurationViper.AddConfigPath(filepath.Join(configDirectory, applicationDirectory))
	}
	if err := configurationViper.ReadInConfig(); err != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if errors.As(err, &notFoundErr) {
			return nil
		}
		return fmt.Errorf("%s: %w", errMessageReadConfigFile, err)
	}
	return nil
}

// FromViper resolves and validates the configuration.
func FromViper(configurationViper *viper.Viper) (Config, error) {
	configuration := Config{
		Host: strings.TrimSpace(configurationViper.GetString(KeyHost)),
		Port: configurationViper.GetInt(KeyPort),
		Store: store.Config{
			Driver: configurationViper.GetString(KeyStoreDriver),
			Path:   configurationViper.GetString(KeyStorePath),
		},
		Network: profiles.Network{
			Host:   configurationViper.GetString(KeyNetworkHost),
			Marker: configurationViper.GetString(KeyNetworkMarker),
		}.WithDefaults(),
		BatchSize:          configurationViper.GetInt(KeyBatchSize),
		NavigationInterval: configurationViper.GetDuration(KeyNavigationInterval),
		ChromeBinary:       configurationViper.GetString(KeyChromeBinary),
	}
	if configuration.Port <= 0 || configuration.Port > 65535 {
		return Config{}, fmt.Errorf("%w: %d", ErrInvalidPort, configuration.Port)
	}
	if configuration.BatchSize <= 0 {
		return Config{}, fmt.Errorf("%w: %d", ErrInvalidBatchSize, configuration.BatchSize)
	}
	return configuration, nil
}
