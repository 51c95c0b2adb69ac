// Package config loads musicchain settings from flags, environment, .env and
// an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/params"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	contract "github.com/rius2g/musicchain/backend/pkg/ContractInteractionInterface"
	"github.com/rius2g/musicchain/backend/pkg/tracing"
)

const (
	EnvPrefix        = "MUSICCHAIN"
	NetworkSimulated = "simulated"
)

type Config struct {
	Network         string        `mapstructure:"network"`
	RPCURL          string        `mapstructure:"rpc_url"`
	PrivateKey      string        `mapstructure:"private_key"`
	ArtifactsDir    string        `mapstructure:"artifacts_dir"`
	ManifestPath    string        `mapstructure:"manifest_path"`
	ReportURL       string        `mapstructure:"report_url"`
	ConfirmTimeout  time.Duration `mapstructure:"confirm_timeout"`
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	GasPriceCapGwei int64         `mapstructure:"gas_price_cap_gwei"`

	Log     LogConfig      `mapstructure:"log"`
	Tracing tracing.Config `mapstructure:"tracing"`
	Serve   ServeConfig    `mapstructure:"serve"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "console"
}

type ServeConfig struct {
	Addr string `mapstructure:"addr"`
}

func Defaults() Config {
	return Config{
		Network:         NetworkSimulated,
		ArtifactsDir:    "artifacts/contracts",
		ConfirmTimeout:  contract.DefaultConfirmTimeout,
		PollInterval:    contract.DefaultPollInterval,
		GasPriceCapGwei: 100,
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Tracing: tracing.DefaultConfig(),
		Serve: ServeConfig{
			Addr: ":8080",
		},
	}
}

// SetDefaults registers every key on v so env overrides apply even when no
// config file mentions the key.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("network", d.Network)
	v.SetDefault("rpc_url", d.RPCURL)
	v.SetDefault("private_key", d.PrivateKey)
	v.SetDefault("artifacts_dir", d.ArtifactsDir)
	v.SetDefault("manifest_path", d.ManifestPath)
	v.SetDefault("report_url", d.ReportURL)
	v.SetDefault("confirm_timeout", d.ConfirmTimeout)
	v.SetDefault("poll_interval", d.PollInterval)
	v.SetDefault("gas_price_cap_gwei", d.GasPriceCapGwei)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.exporter", d.Tracing.Exporter)
	v.SetDefault("tracing.service_name", d.Tracing.ServiceName)
	v.SetDefault("serve.addr", d.Serve.Addr)
}

// Load reads envFile (missing is fine), then cfgFile if set, then the
// environment, into a Config. Flags bound to v take precedence over all.
func Load(v *viper.Viper, cfgFile, envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	SetDefaults(v)
	// PORT only replaces the built-in listen address; flags, env and file win.
	if port := os.Getenv("PORT"); port != "" {
		v.SetDefault("serve.addr", ":"+port)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Names the deploy scripts have always used.
	_ = v.BindEnv("private_key", EnvPrefix+"_PRIVATE_KEY", "PRIVATE_KEY")
	_ = v.BindEnv("rpc_url", EnvPrefix+"_RPC_URL", "RPC_URL")
	_ = v.BindEnv("report_url", EnvPrefix+"_REPORT_URL", "COLLECTOR_URL")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// Simulated reports whether deployments go to the in-process chain.
func (c Config) Simulated() bool {
	return c.Network == "" || c.Network == NetworkSimulated
}

// Endpoint is the node URL for non-simulated networks. A URL given as the
// network name wins over rpc_url.
func (c Config) Endpoint() string {
	if strings.Contains(c.Network, "://") {
		return c.Network
	}
	return c.RPCURL
}

// GasPriceCap converts gas_price_cap_gwei to wei.
func (c Config) GasPriceCap() *big.Int {
	return new(big.Int).Mul(big.NewInt(c.GasPriceCapGwei), big.NewInt(params.GWei))
}

// Validate checks the settings a deploy run needs.
func (c Config) Validate() error {
	var errs []error
	if !c.Simulated() {
		if c.Endpoint() == "" {
			errs = append(errs, fmt.Errorf("network %q needs rpc_url", c.Network))
		}
		if c.PrivateKey == "" {
			errs = append(errs, errors.New("private_key is required outside the simulated network"))
		}
	}
	if c.ConfirmTimeout <= 0 {
		errs = append(errs, errors.New("confirm_timeout must be positive"))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, errors.New("poll_interval must be positive"))
	}
	if c.GasPriceCapGwei <= 0 {
		errs = append(errs, errors.New("gas_price_cap_gwei must be positive"))
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format must be json or console, got %q", c.Log.Format))
	}
	switch c.Tracing.Exporter {
	case "stdout", "none", "":
	default:
		errs = append(errs, fmt.Errorf("tracing.exporter must be stdout or none, got %q", c.Tracing.Exporter))
	}
	return errors.Join(errs...)
}

// NewLogger builds the process logger. JSON lines carry an event field and
// a timestamp; console output is for humans.
func (c Config) NewLogger(w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(c.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	if c.Log.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
