package config

import (
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/witsoft001/esp8266-smart-home/internal/errors"
)

const (
	DefaultEnvPrefix    = "SHMNODE"
	DefaultConfigName   = "shm-node"
	DefaultConfigDir    = "/etc"
	DefaultBroker       = "tcp://127.0.0.1:1883"
	DefaultSNTPServer   = "pool.ntp.org"
	DefaultStorePath    = "/var/lib/shm-node/rtc.db"
	DefaultSleepSeconds = 600
	DefaultAwakeSeconds = 30
	DefaultLogLevel     = "info"
)

type Config struct {
	NodeID         string  `mapstructure:"node_id"`
	Description    string  `mapstructure:"description"`
	Broker         string  `mapstructure:"broker"`
	SNTPServer     string  `mapstructure:"sntp_server"`
	StorePath      string  `mapstructure:"store_path"`
	SleepSeconds   uint32  `mapstructure:"sleep_seconds"`
	AwakeSeconds   int     `mapstructure:"awake_seconds"`
	BatteryPath    string  `mapstructure:"battery_path"`
	BatteryVoltage float64 `mapstructure:"battery_voltage"`
	LogLevel       string  `mapstructure:"log_level"`
	Once           bool    `mapstructure:"once"`
}

// Load reads the configuration from defaults, the TOML config file,
// SHMNODE_* environment variables and command line flags, in increasing
// order of precedence.
func Load(args []string, opts ...Option) (*Config, error) {
	errFactory := errors.New()

	o := options{
		configPath: os.Getenv(DefaultEnvPrefix + "_CONFIG"),
		envPrefix:  DefaultEnvPrefix,
	}
	for _, opt := range opts {
		opt(&o)
	}

	v := viper.New()
	setDefaults(v)

	fs := pflag.NewFlagSet("shm-node", pflag.ContinueOnError)
	defineFlags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}
	if err := bindFlags(v, fs); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	v.SetEnvPrefix(o.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if o.configPath != "" {
		v.SetConfigFile(o.configPath)
		v.SetConfigType("toml")
	} else {
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("toml")
		v.AddConfigPath(DefaultConfigDir)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errFactory.Wrap(errors.ErrReadConfig, err)
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("broker", DefaultBroker)
	v.SetDefault("sntp_server", DefaultSNTPServer)
	v.SetDefault("store_path", DefaultStorePath)
	v.SetDefault("sleep_seconds", DefaultSleepSeconds)
	v.SetDefault("awake_seconds", DefaultAwakeSeconds)
	v.SetDefault("log_level", DefaultLogLevel)
}

func defineFlags(fs *pflag.FlagSet) {
	fs.String("node-id", "", "Node identifier (generated and retained when empty)")
	fs.String("description", "", "Human readable node description")
	fs.String("broker", DefaultBroker, "MQTT broker URL")
	fs.String("sntp-server", DefaultSNTPServer, "SNTP server address")
	fs.String("store-path", DefaultStorePath, "Retained state database path")
	fs.Uint32("sleep-seconds", DefaultSleepSeconds, "Deep sleep duration between wake cycles")
	fs.Int("awake-seconds", DefaultAwakeSeconds, "Time to stay awake handling commands")
	fs.String("battery-path", "", "Power supply sysfs directory holding voltage_now")
	fs.Float64("battery-voltage", 0, "Fixed battery reading, overrides battery-path")
	fs.String("log-level", DefaultLogLevel, "Log level (debug, info, warning, error)")
	fs.Bool("once", false, "Exit after one awake window instead of sleeping")
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	var bindErr error
	fs.VisitAll(func(f *pflag.Flag) {
		if bindErr != nil {
			return
		}
		bindErr = v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f)
	})
	return bindErr
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	errFactory := errors.New()

	if !LogLevel(c.LogLevel).IsValid() {
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}
	if c.SleepSeconds == 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, "sleep_seconds must be positive")
	}
	if c.AwakeSeconds < 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, "awake_seconds must not be negative")
	}
	if c.Broker == "" {
		return errFactory.WithData(errors.ErrMissingConfig, "broker")
	}
	if c.StorePath == "" {
		return errFactory.WithData(errors.ErrMissingConfig, "store_path")
	}

	return nil
}
