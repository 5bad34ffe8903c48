package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kapitanov/cosmac8/internal/vm"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/retroenv/retrogolib/assert"
	"github.com/spf13/pflag"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(flags)
	assert.NoError(t, flags.Parse(args))
	return flags
}

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func useHome(t *testing.T, dir string) {
	t.Helper()

	homedir.DisableCache = true
	t.Cleanup(func() { homedir.DisableCache = false })
	t.Setenv("HOME", dir)
}

func TestLoad_Defaults(t *testing.T) {
	useHome(t, t.TempDir())

	cfg, err := Load(newFlags(t))
	assert.NoError(t, err)

	assert.Equal(t, vm.DefaultInstructionsPerSecond, cfg.InstructionsPerSecond)
	assert.Equal(t, vm.ModeModern, cfg.Mode)
	assert.Equal(t, 16, cfg.Scale)
	assert.Equal(t, uint32(0xbea700), cfg.Foreground)
	assert.Equal(t, uint32(0x000000), cfg.Background)
	assert.Equal(t, 440.0, cfg.ToneFrequency)
	assert.Equal(t, 0.2, cfg.Volume)
	assert.False(t, cfg.Mute)
	assert.False(t, cfg.Verbose)
	assert.Equal(t, uint64(0), cfg.Seed)
}

func TestLoad_HomeConfigFile(t *testing.T) {
	home := t.TempDir()
	useHome(t, home)
	writeConfig(t, home, fileName+".yaml", "ips: 500\nmode: legacy\nforeground: \"#ffffff\"\n")

	cfg, err := Load(newFlags(t))
	assert.NoError(t, err)

	assert.Equal(t, 500, cfg.InstructionsPerSecond)
	assert.Equal(t, vm.ModeLegacy, cfg.Mode)
	assert.Equal(t, uint32(0xffffff), cfg.Foreground)
}

func TestLoad_Precedence(t *testing.T) {
	useHome(t, t.TempDir())
	path := writeConfig(t, t.TempDir(), "custom.yaml", "ips: 500\nscale: 8\nvolume: 0.5\n")

	t.Setenv("COSMAC8_IPS", "900")
	t.Setenv("COSMAC8_SCALE", "10")

	cfg, err := Load(newFlags(t, "--config", path, "--ips", "1200"))
	assert.NoError(t, err)

	assert.Equal(t, 1200, cfg.InstructionsPerSecond)
	assert.Equal(t, 10, cfg.Scale)
	assert.Equal(t, 0.5, cfg.Volume)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	useHome(t, t.TempDir())

	_, err := Load(newFlags(t, "--config", filepath.Join(t.TempDir(), "missing.yaml")))
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"zero ips", []string{"--ips", "0"}},
		{"ips too high", []string{"--ips", "2000000000"}},
		{"negative scale", []string{"--scale", "-1"}},
		{"unknown mode", []string{"--mode", "superchip"}},
		{"loud", []string{"--volume", "1.5"}},
		{"bad color", []string{"--foreground", "#12345"}},
		{"not hex", []string{"--background", "zzzzzz"}},
		{"no tone", []string{"--tone", "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			useHome(t, t.TempDir())

			_, err := Load(newFlags(t, tt.args...))
			assert.Error(t, err)
		})
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		input    string
		expected uint32
	}{
		{"#bea700", 0xbea700},
		{"bea700", 0xbea700},
		{"0xFFDFC2", 0xffdfc2},
		{" #000000 ", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			rgb, err := parseColor(tt.input)
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, rgb)
		})
	}
}
