// Package config assembles the run configuration from flags, an optional
// config file and ATM_ environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/yuya-takeyama/atm-sync/pkg/exclude"
	"github.com/yuya-takeyama/atm-sync/pkg/session"
	"github.com/yuya-takeyama/atm-sync/pkg/syncer"
)

const EnvPrefix = "ATM"

var DefaultExclusions = []string{"**/.DS_Store", "**/Thumbs.db"}

// Auth carries transport credentials. Only the fields relevant to the
// selected transport are used.
type Auth struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	Username   string `mapstructure:"username"`
	Password   string `mapstructure:"password"`
	PrivateKey string `mapstructure:"private_key"`
	Passphrase string `mapstructure:"passphrase"`
	KnownHosts string `mapstructure:"known_hosts"`

	Profile   string `mapstructure:"profile"`
	Region    string `mapstructure:"region"`
	Endpoint  string `mapstructure:"endpoint"`
	PathStyle bool   `mapstructure:"path_style"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

type Config struct {
	Src            string          `mapstructure:"src"`
	Dest           string          `mapstructure:"dest"`
	Exclusions     []string        `mapstructure:"exclusions"`
	ExcludeOptions exclude.Options `mapstructure:"exclude_options"`
	Folder         string          `mapstructure:"folder"`
	Force          bool            `mapstructure:"force"`
	Auth           Auth            `mapstructure:"auth"`
	Interval       time.Duration   `mapstructure:"interval"`
	WorkDir        string          `mapstructure:"workdir"`
	Concurrency    int             `mapstructure:"concurrency"`
	DryRun         bool            `mapstructure:"dryrun"`

	Quiet          bool   `mapstructure:"quiet"`
	Verbose        bool   `mapstructure:"verbose"`
	LogFile        string `mapstructure:"log_file"`
	PlanJSONFile   string `mapstructure:"plan_json_file"`
	ResultJSONFile string `mapstructure:"result_json_file"`
}

// envOnlyKeys have neither a default nor a flag, so they are bound to the
// environment explicitly.
var envOnlyKeys = []string{
	"src",
	"dest",
	"exclude_options.cwd",
	"exclude_options.files_only",
	"exclude_options.no_follow",
	"exclude_options.fail_on_io_errors",
}

// DefaultWorkDir returns <user cache dir>/atm-sync/runtime, falling back to
// the temp directory when no cache directory is available.
func DefaultWorkDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, "atm-sync", "runtime")
}

// New returns a viper instance carrying the defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("exclusions", DefaultExclusions)
	v.SetDefault("folder", syncer.DefaultFolder)
	v.SetDefault("interval", session.DefaultInterval)
	v.SetDefault("workdir", DefaultWorkDir())
	v.SetDefault("concurrency", 1)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range envOnlyKeys {
		_ = v.BindEnv(key)
	}
	return v
}

// ReadFile merges the config file at path. An empty path is a no-op.
func ReadFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("config read '%s': %w", path, err)
	}
	return nil
}

// Load builds the configuration for cmd. Positional args, when present, are
// the source and destination.
func Load(v *viper.Viper, cmd *cobra.Command, args []string) (*Config, error) {
	if err := BindFlags(v, cmd); err != nil {
		return nil, err
	}

	path, _ := cmd.Flags().GetString("config")
	if err := ReadFile(v, path); err != nil {
		return nil, err
	}

	if len(args) > 0 {
		v.Set("src", args[0])
	}
	if len(args) > 1 {
		v.Set("dest", args[1])
	}

	return Decode(v)
}

// Decode unmarshals the settings held by v.
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(decodeHook())); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the settings a sync run needs.
func (c *Config) Validate() error {
	var errs []error
	if c.Src == "" {
		errs = append(errs, errors.New("src is required"))
	}
	if c.Dest == "" {
		errs = append(errs, errors.New("dest is required"))
	}
	if c.WorkDir == "" {
		errs = append(errs, errors.New("workdir is required"))
	}
	if c.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency))
	}
	if c.Interval <= 0 {
		errs = append(errs, fmt.Errorf("interval must be positive, got %s", c.Interval))
	}
	return errors.Join(errs...)
}

// SyncerConfig maps the settings onto a run against remoteDest, the
// destination as addressed by the selected transport.
func (c *Config) SyncerConfig(remoteDest string) syncer.Config {
	return syncer.Config{
		Src:            c.Src,
		Dest:           remoteDest,
		Folder:         c.Folder,
		Exclusions:     c.Exclusions,
		ExcludeOptions: c.ExcludeOptions,
		Force:          c.Force,
		DryRun:         c.DryRun,
		Concurrency:    c.Concurrency,
		WorkDir:        c.WorkDir,
		Interval:       c.Interval,
	}
}
