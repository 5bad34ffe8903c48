// Package config resolves the host configuration from defaults, an optional
// YAML file, COSMAC8_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kapitanov/cosmac8/internal/vm"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	KeyConfig     = "config"
	KeyVerbose    = "verbose"
	KeyIPS        = "ips"
	KeyMode       = "mode"
	KeyScale      = "scale"
	KeyForeground = "foreground"
	KeyBackground = "background"
	KeyTone       = "tone"
	KeyVolume     = "volume"
	KeyMute       = "mute"
	KeySeed       = "seed"

	envPrefix = "COSMAC8"
	// fileName is looked up in the home directory, without extension.
	fileName = ".cosmac8"
)

// Config is resolved once at startup and never changes afterwards.
type Config struct {
	ROMPath string
	Verbose bool

	InstructionsPerSecond int
	Mode                  vm.Mode
	Seed                  uint64

	Scale      int
	Foreground uint32
	Background uint32

	ToneFrequency float64
	Volume        float64
	Mute          bool
}

var defaults = map[string]any{
	KeyVerbose:    false,
	KeyIPS:        vm.DefaultInstructionsPerSecond,
	KeyMode:       vm.ModeModern.String(),
	KeyScale:      16,
	KeyForeground: "#bea700",
	KeyBackground: "#000000",
	KeyTone:       440.0,
	KeyVolume:     0.2,
	KeyMute:       false,
	KeySeed:       uint64(0),
}

// RegisterFlags defines the command-line flags Load understands.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String(KeyConfig, "", "config file (default $HOME/"+fileName+".yaml)")
	flags.BoolP(KeyVerbose, "v", false, "enable verbose logging")
	flags.IntP(KeyIPS, "c", vm.DefaultInstructionsPerSecond, "instructions executed per second")
	flags.StringP(KeyMode, "m", vm.ModeModern.String(), "compatibility mode: modern or legacy")
	flags.IntP(KeyScale, "s", 16, "window upscale factor")
	flags.String(KeyForeground, "#bea700", "pixel color")
	flags.String(KeyBackground, "#000000", "background color")
	flags.Float64(KeyTone, 440, "tone frequency in Hz")
	flags.Float64(KeyVolume, 0.2, "tone volume between 0 and 1")
	flags.Bool(KeyMute, false, "disable sound")
	flags.Uint64(KeySeed, 0, "random seed, 0 picks one from the clock")
}

// New builds a viper instance layering defaults, the config file, the
// environment and flags, in increasing precedence.
func New(flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("unable to bind flags: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if cfgFile := v.GetString(KeyConfig); cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			return nil, fmt.Errorf("unable to find home directory: %w", err)
		}
		v.AddConfigPath(home)
		v.SetConfigName(fileName)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("unable to read config: %w", err)
		}
	}

	return v, nil
}

// Decode reads and validates the configuration held by v.
func Decode(v *viper.Viper) (Config, error) {
	mode, err := vm.ParseMode(v.GetString(KeyMode))
	if err != nil {
		return Config{}, err
	}

	fg, err := parseColor(v.GetString(KeyForeground))
	if err != nil {
		return Config{}, fmt.Errorf("invalid %s: %w", KeyForeground, err)
	}

	bg, err := parseColor(v.GetString(KeyBackground))
	if err != nil {
		return Config{}, fmt.Errorf("invalid %s: %w", KeyBackground, err)
	}

	cfg := Config{
		Verbose:               v.GetBool(KeyVerbose),
		InstructionsPerSecond: v.GetInt(KeyIPS),
		Mode:                  mode,
		Seed:                  v.GetUint64(KeySeed),
		Scale:                 v.GetInt(KeyScale),
		Foreground:            fg,
		Background:            bg,
		ToneFrequency:         v.GetFloat64(KeyTone),
		Volume:                v.GetFloat64(KeyVolume),
		Mute:                  v.GetBool(KeyMute),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Load is New followed by Decode.
func Load(flags *pflag.FlagSet) (Config, error) {
	v, err := New(flags)
	if err != nil {
		return Config{}, err
	}

	return Decode(v)
}

func (c Config) Validate() error {
	var errs []error

	if c.InstructionsPerSecond <= 0 || c.InstructionsPerSecond > vm.MaxInstructionsPerSecond {
		errs = append(errs, fmt.Errorf("%s must be between 1 and %d, got %d",
			KeyIPS, vm.MaxInstructionsPerSecond, c.InstructionsPerSecond))
	}
	if c.Scale <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %d", KeyScale, c.Scale))
	}
	if c.ToneFrequency <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %g", KeyTone, c.ToneFrequency))
	}
	if c.Volume < 0 || c.Volume > 1 {
		errs = append(errs, fmt.Errorf("%s must be between 0 and 1, got %g", KeyVolume, c.Volume))
	}

	return errors.Join(errs...)
}

// parseColor accepts RGB hex as "#rrggbb", "rrggbb" or "0xrrggbb".
func parseColor(s string) (uint32, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "#")
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s) != 6 {
		return 0, fmt.Errorf("color %q is not in #rrggbb form", s)
	}

	rgb, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("color %q: %w", s, err)
	}
	return uint32(rgb), nil
}
