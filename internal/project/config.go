// Package project loads the pm.toml project file and the model documents it
// names.
package project

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

const DefaultConfigName = "pm.toml"

type Config struct {
	Models  ModelsConfig  `toml:"models"`
	C       CConfig       `toml:"c"`
	Sym     SymConfig     `toml:"sym"`
	Catalog CatalogConfig `toml:"catalog"`

	// dir is the directory relative paths resolve against.
	dir string
}

type ModelsConfig struct {
	Parameters   string `toml:"parameters" validate:"required"`
	Symbols      string `toml:"symbols"`
	StaticModbus string `toml:"staticmodbus"`
}

type CConfig struct {
	DefaultType    string `toml:"default_type" validate:"required,ctype"`
	StrictTypedefs bool   `toml:"strict_typedefs"`
}

type SymConfig struct {
	Title string `toml:"title" validate:"required,excludesall=\"\\"`
}

type CatalogConfig struct {
	Path string `toml:"path" validate:"required"`
}

var (
	configValidate *validator.Validate
	cTypePattern   = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*( [A-Za-z_][A-Za-z0-9_]*)*$`)
)

func init() {
	configValidate = validator.New()
	_ = configValidate.RegisterValidation("ctype", func(fl validator.FieldLevel) bool {
		return cTypePattern.MatchString(fl.Field().String())
	})
}

// DefaultConfig returns the settings used for anything pm.toml leaves out.
func DefaultConfig() *Config {
	return &Config{
		C:       CConfig{DefaultType: "int16_t"},
		Sym:     SymConfig{Title: "canmatrix-Export"},
		Catalog: CatalogConfig{Path: "catalog.db"},
		dir:     ".",
	}
}

// LoadConfig reads and validates a project file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read project file: %w", err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.dir = filepath.Dir(path)
	return cfg, nil
}

// ParseConfig decodes and validates project file content. Relative paths
// resolve against the working directory.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse project file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if err := configValidate.Struct(c); err != nil {
		return fmt.Errorf("invalid project file: %w", err)
	}
	return nil
}

// Resolve returns path relative to the project file directory. Empty stays
// empty.
func (c *Config) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.dir, path)
}
