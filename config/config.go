// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/rs/zerolog/log"

	_ "codeberg.org/pixivfe/transmgr/core/audit" // setup better logging format
	"codeberg.org/pixivfe/transmgr/core/idgen"
	"codeberg.org/pixivfe/transmgr/core/storage"
)

// Global exposes the server configuration.
var Global ServerConfig

// ConfigFileEnv names the environment variable holding the configuration file path.
const ConfigFileEnv = "TRANSMGR_CONFIGFILE"

// ServerConfig holds the application configuration.
type ServerConfig struct {
	Build buildInfo `toml:"-" yaml:"-"`

	Basic struct {
		Host                     string      `env:"TRANSMGR_HOST,overwrite"         toml:"host"                  yaml:"host"`
		Port                     string      `env:"TRANSMGR_PORT,overwrite"         toml:"port"                  yaml:"port"`
		UnixSocket               string      `env:"TRANSMGR_UNIXSOCKET"             toml:"unixSocket"            yaml:"unixSocket"`
		RawUnixSocketPermissions string      `env:"TRANSMGR_UNIXSOCKET_PERMISSIONS" toml:"unixSocketPermissions" yaml:"unixSocketPermissions"`
		UnixSocketPermissions    os.FileMode `toml:"-"                              yaml:"-"`
		UnixSocketUser           string      `env:"TRANSMGR_UNIXSOCKET_USER"        toml:"unixSocketUser"        yaml:"unixSocketUser"`
		UnixSocketGroup          string      `env:"TRANSMGR_UNIXSOCKET_GROUP"       toml:"unixSocketGroup"       yaml:"unixSocketGroup"`
	} `toml:"basic" yaml:"basic"`

	Translation struct {
		// Driver is "file" or "database".
		RawDriver string             `env:"TRANSMGR_DRIVER,overwrite" toml:"driver" yaml:"driver"`
		Driver    storage.DriverType `toml:"-"                        yaml:"-"`

		SourceLocale string `env:"TRANSMGR_SOURCE_LOCALE,overwrite" toml:"sourceLocale" yaml:"sourceLocale"`
		LangPath     string `env:"TRANSMGR_LANG_PATH,overwrite"     toml:"langPath"     yaml:"langPath"`

		ScanPaths          []string `env:"TRANSMGR_SCAN_PATHS,overwrite"          toml:"scanPaths"          yaml:"scanPaths"`
		ScanExcludes       []string `env:"TRANSMGR_SCAN_EXCLUDES,overwrite"       toml:"scanExcludes"       yaml:"scanExcludes"`
		TranslationMethods []string `env:"TRANSMGR_TRANSLATION_METHODS,overwrite" toml:"translationMethods" yaml:"translationMethods"`
		ScanConcurrency    int      `env:"TRANSMGR_SCAN_CONCURRENCY,overwrite"    toml:"scanConcurrency"    yaml:"scanConcurrency"`

		CopyKeyToValue bool `env:"TRANSMGR_COPY_KEY_TO_VALUE,overwrite" toml:"copyKeyToValue" yaml:"copyKeyToValue"`
	} `toml:"translation" yaml:"translation"`

	Database struct {
		Driver            string `env:"TRANSMGR_DB_DRIVER,overwrite"             toml:"driver"            yaml:"driver"`
		DSN               string `env:"TRANSMGR_DB_DSN,overwrite"                toml:"dsn"               yaml:"dsn"`
		LanguagesTable    string `env:"TRANSMGR_DB_LANGUAGES_TABLE,overwrite"    toml:"languagesTable"    yaml:"languagesTable"`
		TranslationsTable string `env:"TRANSMGR_DB_TRANSLATIONS_TABLE,overwrite" toml:"translationsTable" yaml:"translationsTable"`
	} `toml:"database" yaml:"database"`

	AutoTranslate struct {
		Enabled     bool          `env:"TRANSMGR_AUTO_TRANSLATE,overwrite"              toml:"enabled"     yaml:"enabled"`
		Endpoint    string        `env:"TRANSMGR_AUTO_TRANSLATE_ENDPOINT,overwrite"     toml:"endpoint"    yaml:"endpoint"`
		APIKey      string        `env:"TRANSMGR_AUTO_TRANSLATE_API_KEY"                toml:"apiKey"      yaml:"apiKey"`
		Interval    time.Duration `env:"TRANSMGR_AUTO_TRANSLATE_INTERVAL,overwrite"     toml:"interval"    yaml:"interval"`
		Burst       int           `env:"TRANSMGR_AUTO_TRANSLATE_BURST,overwrite"        toml:"burst"       yaml:"burst"`
		Timeout     time.Duration `env:"TRANSMGR_AUTO_TRANSLATE_TIMEOUT,overwrite"      toml:"timeout"     yaml:"timeout"`
		PrefixNew   string        `env:"TRANSMGR_AUTO_TRANSLATE_PREFIX_NEW,overwrite"   toml:"prefixNew"   yaml:"prefixNew"`
		PrefixError string        `env:"TRANSMGR_AUTO_TRANSLATE_PREFIX_ERROR,overwrite" toml:"prefixError" yaml:"prefixError"`

		// CacheSize is the number of translations remembered. Zero disables the cache.
		CacheSize     int  `env:"TRANSMGR_AUTO_TRANSLATE_CACHE_SIZE,overwrite"     toml:"cacheSize"     yaml:"cacheSize"`
		CompressCache bool `env:"TRANSMGR_AUTO_TRANSLATE_COMPRESS_CACHE,overwrite" toml:"compressCache" yaml:"compressCache"`
	} `toml:"autoTranslate" yaml:"autoTranslate"`

	Instance struct {
		StartingTime string `toml:"-" yaml:"-"`
		InstanceID   string `toml:"-" yaml:"-"`
	} `toml:"-" yaml:"-"`

	Development struct {
		InDevelopment        bool   `env:"TRANSMGR_DEV"                             toml:"inDevelopment"        yaml:"inDevelopment"`
		SaveResponses        bool   `env:"TRANSMGR_SAVE_RESPONSES,overwrite"        toml:"saveResponses"        yaml:"saveResponses"`
		ResponseSaveLocation string `env:"TRANSMGR_RESPONSE_SAVE_LOCATION,overwrite" toml:"responseSaveLocation" yaml:"responseSaveLocation"`
	} `toml:"development" yaml:"development"`

	Log struct {
		Level   string   `env:"TRANSMGR_LOG_LEVEL,overwrite"   toml:"logLevel"   yaml:"logLevel"`
		Outputs []string `env:"TRANSMGR_LOG_OUTPUTS,overwrite" toml:"logOutputs" yaml:"logOutputs"`
		Format  string   `env:"TRANSMGR_LOG_FORMAT,overwrite"  toml:"logFormat"  yaml:"logFormat"`
	} `toml:"log" yaml:"log"`

	Internationalization struct {
		// Strict mode for missing keys.
		//
		// When enabled, missing keys are logged (deduplicated per locale+key) and
		// visibly wrapped using markers.
		StrictMissingKeys bool `env:"TRANSMGR_STRICT_MISSING_KEYS" toml:"strictMissingKeys" yaml:"strictMissingKeys"`
	} `toml:"internationalization" yaml:"internationalization"`
}

// LoadConfig loads the configuration from various sources, taking the
// configuration file from the -config flag.
func (cfg *ServerConfig) LoadConfig() error {
	parsedConfigFlagValue := parseCommandLineArgs()

	// Check if the -config flag was explicitly set by the user.
	configFlagUserSet := false

	flag.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			configFlagUserSet = true
		}
	})

	if configFlagUserSet {
		return cfg.Load(parsedConfigFlagValue)
	}

	return cfg.Load("")
}

// Load loads the configuration with configFilePath as the configuration
// file. An empty path falls back to TRANSMGR_CONFIGFILE, then to
// ./config.yaml, ./config.yml and ./config.toml.
func (cfg *ServerConfig) Load(configFilePath string) error {
	if configFilePath == "" {
		configFilePath = defaultConfigFilePath()
	}

	cfg.SetDefaults()

	cfg.Build.load()

	cfg.Instance.InstanceID = idgen.Make()
	cfg.Instance.StartingTime = time.Now().UTC().Format("2006-01-02 15:04")

	if err := cfg.readFile(configFilePath); err != nil {
		return fmt.Errorf("error loading config file: %w", err)
	}

	if err := useDotEnv(); err != nil {
		return fmt.Errorf("error using .env file: %w", err)
	}

	if err := readEnv(cfg); err != nil {
		return fmt.Errorf("error loading environment variables: %w", err)
	}

	if err := cfg.validateAndSet(); err != nil {
		return fmt.Errorf("configuration invalid: %w", err)
	}

	cfg.setupAudit()

	return nil
}

// defaultConfigFilePath resolves the configuration file when none was given.
func defaultConfigFilePath() string {
	if envVar := os.Getenv(ConfigFileEnv); envVar != "" {
		return envVar
	}

	for _, candidate := range []string{defaultConfigFile, "./config.yml", "./config.toml"} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return defaultConfigFile
}

// WarnIfContainerized warns when the server binds to a loopback host inside
// a container.
func (cfg *ServerConfig) WarnIfContainerized() {
	if cfg.Basic.UnixSocket == "" && isContainerized() && cfg.Basic.Host != "0.0.0.0" && cfg.Basic.Host != "::" {
		log.Warn().
			Str("host", cfg.Basic.Host).
			Msg("Running in a containerized environment but host is not a wildcard address (e.g., '0.0.0.0' or '::'). This may prevent the service from being accessible outside the container.")
	}
}

var skippedLoggingPaths = []string{"/healthz"}

// ShouldSkipServerLogging determines if a request should bypass the logging middleware.
func (cfg *ServerConfig) ShouldSkipServerLogging(path string) bool {
	for _, prefix := range skippedLoggingPaths {
		if strings.HasPrefix(path, prefix) {
			return !cfg.Development.InDevelopment
		}
	}

	return false
}

// isContainerized checks for common indicators of a containerized environment.
//
// This is a heuristic and may not be 100% accurate.
func isContainerized() bool {
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true
	}

	for _, marker := range []string{"/.dockerenv", "/.containerenv"} {
		if _, err := os.Stat(marker); err == nil {
			return true
		}
	}

	// #nosec G304 -- We are checking the content of a well-known system file for heuristics.
	cgroup, err := os.ReadFile("/proc/self/cgroup")
	if err != nil {
		return false
	}

	content := string(cgroup)

	for _, keyword := range []string{"docker", "kubepods", "containerd", "lxc", "crio", ".machine"} {
		if strings.Contains(content, keyword) {
			return true
		}
	}

	return false
}

// GetDurationEncoderOption returns a YAML encoder option that marshals
// time.Duration into a human-readable string format (e.g., "30m", "1h").
func GetDurationEncoderOption() yaml.EncodeOption {
	return yaml.CustomMarshaler[time.Duration](
		func(d time.Duration) ([]byte, error) {
			return yaml.Marshal(d.String())
		},
	)
}
