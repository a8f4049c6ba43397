// Package config loads the converter configuration from defaults, an optional YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables read by ApplyEnv.
const (
	EnvDatabase = "TXT2VOC_DATABASE"
	EnvOwner    = "TXT2VOC_OWNER"
	EnvWorkers  = "TXT2VOC_WORKERS"
	EnvLogLevel = "TXT2VOC_LOG_LEVEL"
	EnvLogFile  = "TXT2VOC_LOG_FILE"
)

type Config struct {
	OutputDir    string   `yaml:"output_dir" validate:"required"`
	Force        bool     `yaml:"force"`
	Interactive  bool     `yaml:"interactive"`
	LabelExt     string   `yaml:"label_ext"`
	ImageExt     string   `yaml:"image_ext" validate:"required,startswith=."`
	Database     string   `yaml:"database" validate:"required"`
	Owner        string   `yaml:"owner" validate:"required"`
	MapLabels    []string `yaml:"map_labels" validate:"dive,contains=="`
	FilterLabels []string `yaml:"filter_labels" validate:"dive,required"`
	Workers      int      `yaml:"workers" validate:"min=1,max=256"`
	Report       string   `yaml:"report"`

	Images   Images   `yaml:"images"`
	TFRecord TFRecord `yaml:"tfrecord"`
	Log      Log      `yaml:"log"`
}

// Images configures the optional image output.
type Images struct {
	OutDir           string `yaml:"out_dir"`
	ResizeLonger     int    `yaml:"resize_longer" validate:"min=0"`
	ResizeShorter    int    `yaml:"resize_shorter" validate:"min=0"`
	DownsampleFilter string `yaml:"downsample_filter" validate:"oneof=nearest box linear gaussian lanczos"`
	UpsampleFilter   string `yaml:"upsample_filter" validate:"oneof=nearest box linear gaussian lanczos"`
	Encoding         string `yaml:"encoding" validate:"oneof=jpg jpeg png"`
	JPEGQuality      int    `yaml:"jpeg_quality" validate:"min=1,max=100"`
}

// TFRecord configures the optional TFRecord output.
type TFRecord struct {
	Path     string `yaml:"path"`
	LabelMap string `yaml:"label_map"`
	Shards   int    `yaml:"shards" validate:"min=1"`
}

type Log struct {
	Level string `yaml:"level" validate:"oneof=trace debug info warn warning error fatal panic"`
	File  string `yaml:"file"`
}

// Default returns the configuration used when nothing else is specified.
func Default() Config {
	return Config{
		OutputDir: "Annotations_XML",
		ImageExt:  ".png",
		Database:  "Foodinc",
		Owner:     "FiNC",
		Workers:   1,
		Images: Images{
			DownsampleFilter: "box",
			UpsampleFilter:   "linear",
			Encoding:         "jpg",
			JPEGQuality:      90,
		},
		TFRecord: TFRecord{Shards: 1},
		Log:      Log{Level: "info"},
	}
}

// Load returns the default configuration, overlaid with the YAML file at path if path is not
// empty. Keys missing from the file keep their defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %q: %w", path, err)
	}

	return cfg, nil
}

// ApplyEnv loads the given .env files (".env" if none are given; missing files are skipped) into
// the environment and overrides the configuration with the TXT2VOC_* variables that are set.
// Variables already present in the environment take precedence over .env files.
func (c *Config) ApplyEnv(envFiles ...string) error {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %q: %w", f, err)
		}
	}

	if v, ok := os.LookupEnv(EnvDatabase); ok {
		c.Database = v
	}
	if v, ok := os.LookupEnv(EnvOwner); ok {
		c.Owner = v
	}
	if v, ok := os.LookupEnv(EnvWorkers); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvWorkers, v, err)
		}
		c.Workers = n
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok {
		c.Log.Level = v
	}
	if v, ok := os.LookupEnv(EnvLogFile); ok {
		c.Log.File = v
	}

	return nil
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}
