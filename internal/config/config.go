package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	DataPath         string `mapstructure:"data_path" yaml:"data_path"`
	Delimiter        string `mapstructure:"delimiter" yaml:"delimiter"`
	DecimalSeparator string `mapstructure:"decimal_separator" yaml:"decimal_separator"`
	SheetName        string `mapstructure:"sheet_name" yaml:"sheet_name"`
	SheetIndex       int    `mapstructure:"sheet_index" yaml:"sheet_index"`
	SQLiteTable      string `mapstructure:"sqlite_table" yaml:"sqlite_table"`
	CatalogFile      string `mapstructure:"catalog_file" yaml:"catalog_file"`

	// Report defaults
	TopN         int    `mapstructure:"top_n" yaml:"top_n"`
	OutputFormat string `mapstructure:"output_format" yaml:"output_format"`
	Color        bool   `mapstructure:"color" yaml:"color"`
}

// Defaults returns the configuration used when no file or env is present.
func Defaults() *Global {
	return &Global{
		DataPath:     "data.csv",
		SheetIndex:   1,
		SQLiteTable:  "students",
		TopN:         10,
		OutputFormat: "markdown",
		Color:        true,
	}
}

// Dir returns ~/.studash.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".studash"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.studash/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults; command flags are applied by the caller.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("STUDASH")
	v.AutomaticEnv()

	d := Defaults()
	v.SetDefault("data_path", d.DataPath)
	v.SetDefault("delimiter", d.Delimiter)
	v.SetDefault("decimal_separator", d.DecimalSeparator)
	v.SetDefault("sheet_name", d.SheetName)
	v.SetDefault("sheet_index", d.SheetIndex)
	v.SetDefault("sqlite_table", d.SQLiteTable)
	v.SetDefault("catalog_file", d.CatalogFile)
	v.SetDefault("top_n", d.TopN)
	v.SetDefault("output_format", d.OutputFormat)
	v.SetDefault("color", d.Color)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}
