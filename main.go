package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/kapitanov/cosmac8/internal/audio"
	"github.com/kapitanov/cosmac8/internal/config"
	"github.com/kapitanov/cosmac8/internal/hal"
	"github.com/kapitanov/cosmac8/internal/vm"
	"github.com/spf13/cobra"
)

func main() {
	cmd := &cobra.Command{
		Use:           fmt.Sprintf("%s PATH_TO_ROM_FILE", filepath.Base(os.Args[0])),
		Short:         "Run a COSMAC VIP CHIP-8 program",
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	config.RegisterFlags(cmd.Flags())

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cmd.Flags())
		if err != nil {
			return fmt.Errorf("unable to load config: %w", err)
		}
		cfg.ROMPath = args[0]

		loggerOpts := &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}
		if cfg.Verbose {
			loggerOpts.Level = slog.LevelDebug
		}

		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, loggerOpts)))

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return run(ctx, cfg)
	}

	cmd.SetArgs(os.Args[1:])
	if err := cmd.Execute(); err != nil {
		slog.Error("fatal error", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	bs, err := os.ReadFile(cfg.ROMPath)
	if err != nil {
		return fmt.Errorf("unable to load file %q: %w", cfg.ROMPath, err)
	}

	machine, err := vm.New(bs, vm.Options{Mode: cfg.Mode, Seed: cfg.Seed})
	if err != nil {
		return err
	}
	slog.Info("machine ready", "rom", cfg.ROMPath, "mode", cfg.Mode, "ips", cfg.InstructionsPerSecond)

	runner, err := vm.NewRunner(machine, cfg.InstructionsPerSecond)
	if err != nil {
		return err
	}

	var tone hal.Tone
	if !cfg.Mute {
		t, err := audio.New(cfg.ToneFrequency, cfg.Volume)
		if err != nil {
			return fmt.Errorf("unable to initialize audio: %w", err)
		}
		defer func() {
			if err := t.Close(); err != nil {
				slog.Error("failed to close audio", "err", err)
			}
		}()
		tone = t
	}

	h, err := hal.New(hal.Options{
		Title:      filepath.Base(cfg.ROMPath),
		Scale:      cfg.Scale,
		Foreground: cfg.Foreground,
		Background: cfg.Background,
		Tone:       tone,
	})
	if err != nil {
		return fmt.Errorf("unable to initialize hal: %w", err)
	}
	defer h.Shutdown()

	for {
		err = runner.Run(ctx, h)

		if errors.Is(err, hal.ErrQuit) || errors.Is(err, context.Canceled) {
			return nil
		}

		if errors.Is(err, hal.ErrReboot) {
			slog.Info("reboot")
			if err := machine.Reset(); err != nil {
				return err
			}
			continue
		}

		var fault *vm.Fault
		if !errors.As(err, &fault) {
			return err
		}

		slog.Info("press backspace to reboot or close the window to quit", "pc", fmt.Sprintf("0x%04x", fault.PC))
		switch waitErr := h.WaitForQuit(ctx); {
		case errors.Is(waitErr, hal.ErrReboot):
			if err := machine.Reset(); err != nil {
				return err
			}
		case errors.Is(waitErr, hal.ErrQuit), errors.Is(waitErr, context.Canceled):
			return err
		default:
			return errors.Join(err, waitErr)
		}
	}
}
