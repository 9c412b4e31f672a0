package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable override,
// e.g. LABELME2COCO_CATEGORY_ID_START.
const EnvPrefix = "LABELME2COCO"

// Config holds the settings for a conversion run.
// Values are populated from .labelme2coco.yaml, LABELME2COCO_* env vars, and CLI flags.
type Config struct {
	ExportDir       string   `mapstructure:"export_dir"`
	TrainSplitRate  float64  `mapstructure:"train_split_rate"`
	SplitSeed       uint64   `mapstructure:"split_seed"`
	SkipLabels      []string `mapstructure:"skip_labels"`
	CategoryIDStart int      `mapstructure:"category_id_start"`
	Categories      string   `mapstructure:"categories"`
	Parquet         bool     `mapstructure:"parquet"`
	Report          bool     `mapstructure:"report"`
	Verbose         bool     `mapstructure:"verbose"`
}

// Init points viper at the config file (or the default search path when
// cfgFile is empty) and enables env overrides. A missing default config file
// is not an error.
func Init(cfgFile string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".labelme2coco")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
	}

	viper.SetEnvPrefix(EnvPrefix)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && cfgFile == "" {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags.
func Load() (Config, error) {
	viper.SetDefault("export_dir", "runs/labelme2coco")
	viper.SetDefault("train_split_rate", 1.0)
	viper.SetDefault("split_seed", 0)
	viper.SetDefault("skip_labels", []string{})
	viper.SetDefault("category_id_start", 0)
	viper.SetDefault("categories", "")
	viper.SetDefault("parquet", false)
	viper.SetDefault("report", true)
	viper.SetDefault("verbose", false)

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}

	if cfg.TrainSplitRate <= 0 || cfg.TrainSplitRate > 1 {
		return Config{}, fmt.Errorf("train_split_rate must be in (0, 1], got %v", cfg.TrainSplitRate)
	}

	return cfg, nil
}
