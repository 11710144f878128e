// Package config loads mmixdbg settings from defaults, a YAML file, the
// environment and command line flags, in increasing order of precedence.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const (
	// EnvPrefix starts every environment variable read, as in
	// MMIXDBG_TIMEOUT=30s.
	EnvPrefix = "MMIXDBG_"

	// DefaultFile is read from the working directory when no file is named.
	DefaultFile = "mmixdbg.yaml"

	DefaultInterpreter = "mmix"
	DefaultAssembler   = "mmixal"
	DefaultTimeout     = 10 * time.Second
)

// Config holds every setting.
type Config struct {
	Interpreter     string        `koanf:"interpreter"`
	InterpreterArgs []string      `koanf:"interpreter_args"`
	Assembler       string        `koanf:"assembler"`
	Timeout         time.Duration `koanf:"timeout"`
	Verbose         bool          `koanf:"verbose"`
	RegisterFormat  string        `koanf:"register_format"`
	MemoryBytes     int           `koanf:"memory_bytes"`
	MemoryFormat    string        `koanf:"memory_format"`
	History         string        `koanf:"history"`

	// File is the configuration file read, if any.
	File string `koanf:"-"`
}

func defaults() map[string]any {
	return map[string]any{
		"interpreter":      DefaultInterpreter,
		"interpreter_args": []string{},
		"assembler":        DefaultAssembler,
		"timeout":          DefaultTimeout.String(),
		"verbose":          false,
		"register_format":  "!",
		"memory_bytes":     8,
		"memory_format":    "#",
		"history":          "",
	}
}

// Load reads the configuration. cfgFile names the YAML file; when empty,
// DefaultFile is used if present. Only flags the user set override other
// sources.
func Load(cfgFile string, flags *pflag.FlagSet) (cfg *Config, err error) {
	k := koanf.New(".")

	err = k.Load(confmap.Provider(defaults(), "."), nil)
	if err != nil {
		err = &ErrLoad{Source: "defaults", Err: err}
		return
	}

	if cfgFile == "" {
		if _, serr := os.Stat(DefaultFile); serr == nil {
			cfgFile = DefaultFile
		}
	}
	if cfgFile != "" {
		err = k.Load(file.Provider(cfgFile), yaml.Parser())
		if err != nil {
			err = &ErrLoad{Source: cfgFile, Err: err}
			return
		}
	}

	err = k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil)
	if err != nil {
		err = &ErrLoad{Source: "environment", Err: err}
		return
	}

	if flags != nil {
		err = k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil)
		if err != nil {
			err = &ErrLoad{Source: "flags", Err: err}
			return
		}
	}

	cfg = &Config{}
	err = k.Unmarshal("", cfg)
	if err != nil {
		cfg = nil
		err = &ErrLoad{Source: "decode", Err: err}
		return
	}
	cfg.File = cfgFile

	err = cfg.Validate()
	if err != nil {
		cfg = nil
	}

	return
}

// Validate checks the settings for consistency.
func (cfg *Config) Validate() (err error) {
	switch {
	case cfg.Interpreter == "":
		err = &ErrInvalid{Key: "interpreter", Value: cfg.Interpreter}
	case cfg.Assembler == "":
		err = &ErrInvalid{Key: "assembler", Value: cfg.Assembler}
	case cfg.Timeout < 0:
		err = &ErrInvalid{Key: "timeout", Value: cfg.Timeout}
	case !validFormat(cfg.RegisterFormat):
		err = &ErrInvalid{Key: "register_format", Value: cfg.RegisterFormat}
	case !validFormat(cfg.MemoryFormat):
		err = &ErrInvalid{Key: "memory_format", Value: cfg.MemoryFormat}
	case cfg.MemoryBytes != 1 && cfg.MemoryBytes != 2 && cfg.MemoryBytes != 4 && cfg.MemoryBytes != 8:
		err = &ErrInvalid{Key: "memory_bytes", Value: cfg.MemoryBytes}
	}
	return
}

func validFormat(text string) bool {
	return text == "!" || text == "#"
}
