package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"codeberg.org/mutker/runcat/internal/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultEnvPrefix = "RUNCAT"
	DefaultLogLevel  = LogLevelInfo
	DefaultCharacter = "cat"
	DefaultInterval  = time.Second
	DefaultThemePoll = 2 * time.Second

	defaultMetricsBatchSize    = 30
	defaultMetricsBatchTimeout = 30 * time.Second

	configName = "runcat"
	configType = "toml"
)

type Config struct {
	Interval            time.Duration
	Character           string
	Resource            string
	Theme               ThemeMode
	AutoTheme           bool
	ThemePoll           time.Duration
	LogLevel            LogLevel
	Metrics             bool
	MetricsDB           string
	MetricsBatchSize    int
	MetricsBatchTimeout time.Duration
	MQTTBroker          string
	MQTTTopic           string
	PIDFile             string
}

// Load reads the configuration from defaults, the config file, RUNCAT_*
// environment variables and args, in increasing order of precedence.
// args excludes the program name.
func Load(args []string, opts ...Option) (*Config, error) {
	errFactory := errors.New()

	o := &options{
		configPath: os.Getenv(DefaultEnvPrefix + "_CONFIG"),
		envPrefix:  DefaultEnvPrefix,
	}
	for _, opt := range opts {
		opt(o)
	}

	v := viper.New()
	setDefaults(v)

	fs := pflag.NewFlagSet(configName, pflag.ContinueOnError)
	configFlag := fs.String("config", "", "Path to configuration file")
	defineFlags(fs)

	if err := fs.Parse(args); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}
	if *configFlag != "" {
		o.configPath = *configFlag
	}

	for _, key := range keys {
		if err := v.BindPFlag(key, fs.Lookup(flagName(key))); err != nil {
			return nil, errFactory.Wrap(errors.ErrBindFlags, err)
		}
	}

	v.SetEnvPrefix(o.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := readConfigFile(v, o.configPath); err != nil {
		return nil, err
	}

	cfg := &Config{
		Interval:            v.GetDuration("interval"),
		Character:           v.GetString("character"),
		Resource:            v.GetString("resource"),
		Theme:               ThemeMode(strings.ToLower(v.GetString("theme"))),
		AutoTheme:           v.GetBool("auto_theme"),
		ThemePoll:           v.GetDuration("theme_poll"),
		LogLevel:            LogLevel(strings.ToLower(v.GetString("log_level"))),
		Metrics:             v.GetBool("metrics"),
		MetricsDB:           v.GetString("metrics_db"),
		MetricsBatchSize:    v.GetInt("metrics_batch_size"),
		MetricsBatchTimeout: v.GetDuration("metrics_batch_timeout"),
		MQTTBroker:          v.GetString("mqtt_broker"),
		MQTTTopic:           v.GetString("mqtt_topic"),
		PIDFile:             v.GetString("pid_file"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks values that cannot be corrected later.
func (c *Config) Validate() error {
	errFactory := errors.New()

	if !c.LogLevel.IsValid() {
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel.String())
	}
	if !c.Theme.IsValid() {
		return errFactory.WithData(errors.ErrInvalidTheme, c.Theme.String())
	}
	if c.Interval <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, c.Interval.String())
	}
	if c.ThemePoll <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, c.ThemePoll.String())
	}
	if c.Character == "" {
		return errFactory.WithMessage(errors.ErrInvalidConfig, "character must not be empty")
	}
	if c.MetricsBatchSize < 0 || c.MetricsBatchTimeout < 0 {
		return errFactory.WithMessage(errors.ErrInvalidConfig, "metrics batch settings must not be negative")
	}

	return nil
}

var keys = []string{
	"interval", "character", "resource", "theme", "auto_theme", "theme_poll",
	"log_level", "metrics", "metrics_db", "metrics_batch_size",
	"metrics_batch_timeout", "mqtt_broker", "mqtt_topic", "pid_file",
}

func flagName(key string) string {
	return strings.ReplaceAll(key, "_", "-")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("interval", DefaultInterval)
	v.SetDefault("character", DefaultCharacter)
	v.SetDefault("resource", "")
	v.SetDefault("theme", string(ThemeAuto))
	v.SetDefault("auto_theme", true)
	v.SetDefault("theme_poll", DefaultThemePoll)
	v.SetDefault("log_level", string(DefaultLogLevel))
	v.SetDefault("metrics", false)
	v.SetDefault("metrics_db", "")
	v.SetDefault("metrics_batch_size", defaultMetricsBatchSize)
	v.SetDefault("metrics_batch_timeout", defaultMetricsBatchTimeout)
	v.SetDefault("mqtt_broker", "")
	v.SetDefault("mqtt_topic", "")
	v.SetDefault("pid_file", "")
}

func defineFlags(fs *pflag.FlagSet) {
	fs.Duration("interval", DefaultInterval, "CPU sampling interval")
	fs.String("character", DefaultCharacter, "Icon set to animate")
	fs.String("resource", "", "Path to the icon catalog (resource.toml)")
	fs.String("theme", string(ThemeAuto), "Theme source: auto, dark or light")
	fs.Bool("auto-theme", true, "Follow the system theme")
	fs.Duration("theme-poll", DefaultThemePoll, "How often the system theme is checked")
	fs.String("log-level", string(DefaultLogLevel), "Log level: debug, info, warning or error")
	fs.Bool("metrics", false, "Record CPU samples to a SQLite database")
	fs.String("metrics-db", "", "Path to the metrics database")
	fs.Int("metrics-batch-size", defaultMetricsBatchSize, "Samples written per transaction")
	fs.Duration("metrics-batch-timeout", defaultMetricsBatchTimeout, "Maximum time a sample stays buffered")
	fs.String("mqtt-broker", "", "MQTT broker URL, empty to disable")
	fs.String("mqtt-topic", "", "MQTT topic for CPU samples")
	fs.String("pid-file", "", "Path to the PID file")
}

func readConfigFile(v *viper.Viper, path string) error {
	errFactory := errors.New()

	v.SetConfigType(configType)
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, configName))
		}
		v.AddConfigPath(filepath.Join("/etc", configName))
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return errFactory.Wrap(errors.ErrReadConfig, err)
		}
	}

	return nil
}
