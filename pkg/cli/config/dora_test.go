package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/dorameter/pkg/cli/config"
)

func runDORA(t *testing.T, args ...string) (*config.DORA, error) {
	t.Helper()
	var cfg config.DORA
	cmd := &cli.Command{
		Name:  "test",
		Flags: cfg.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			return cfg.Load(c)
		},
	}
	err := cmd.Run(context.Background(), append([]string{"test"}, args...))
	return &cfg, err
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dorameter.toml")
	gt.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDORA_Load(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := runDORA(t)
		gt.NoError(t, err)
		gt.Equal(t, cfg.CorrelationWindow, 24*time.Hour)
		gt.Equal(t, cfg.MaxLeadTimeDays, 0.0)
	})

	t.Run("config file overrides defaults", func(t *testing.T) {
		path := writeConfig(t, "[dora]\nmax_lead_time_days = 90\ncfr_correlation_window_hours = 12.5\n")
		cfg, err := runDORA(t, "--config", path)
		gt.NoError(t, err)
		gt.Equal(t, cfg.CorrelationWindow, 12*time.Hour+30*time.Minute)
		gt.Equal(t, cfg.MaxLeadTimeDays, 90.0)
	})

	t.Run("flags override config file", func(t *testing.T) {
		path := writeConfig(t, "[dora]\nmax_lead_time_days = 90\ncfr_correlation_window_hours = 12\n")
		cfg, err := runDORA(t, "--config", path, "--cfr-correlation-window", "48h")
		gt.NoError(t, err)
		gt.Equal(t, cfg.CorrelationWindow, 48*time.Hour)
		gt.Equal(t, cfg.MaxLeadTimeDays, 90.0)
	})

	t.Run("broken config file", func(t *testing.T) {
		path := writeConfig(t, "[dora\nmax_lead_time_days = ")
		_, err := runDORA(t, "--config", path)
		gt.Error(t, err)
	})

	t.Run("missing config file", func(t *testing.T) {
		_, err := runDORA(t, "--config", filepath.Join(t.TempDir(), "none.toml"))
		gt.Error(t, err)
	})
}

func TestDORA_UseCase(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		uc, err := (&config.DORA{CorrelationWindow: time.Hour, MaxLeadTimeDays: 30}).UseCase()
		gt.NoError(t, err)
		gt.Value(t, uc).NotNil()
	})

	t.Run("negative window", func(t *testing.T) {
		_, err := (&config.DORA{CorrelationWindow: -time.Hour}).UseCase()
		gt.Error(t, err)
	})
}
