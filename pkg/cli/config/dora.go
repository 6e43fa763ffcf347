package config

import (
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/dorameter/pkg/domain/interfaces"
	"github.com/m-mizutani/dorameter/pkg/usecase"
)

const (
	flagCorrelationWindow = "cfr-correlation-window"
	flagMaxLeadTimeDays   = "max-lead-time-days"
)

// DORA holds engine settings. Values come from flags, then the [dora] section of
// the config file, then defaults.
type DORA struct {
	ConfigFile        string
	CorrelationWindow time.Duration
	MaxLeadTimeDays   float64
}

type doraFile struct {
	DORA struct {
		MaxLeadTimeDays           *float64 `toml:"max_lead_time_days"`
		CFRCorrelationWindowHours *float64 `toml:"cfr_correlation_window_hours"`
	} `toml:"dora"`
}

// Flags returns CLI flags for DORA engine configuration
func (c *DORA) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "TOML config file with a [dora] section",
			Destination: &c.ConfigFile,
			Sources:     cli.EnvVars("DORAMETER_CONFIG"),
		},
		&cli.DurationFlag{
			Name:        flagCorrelationWindow,
			Usage:       "How long after a deployment an incident counts as its failure",
			Value:       usecase.DefaultCorrelationWindow,
			Destination: &c.CorrelationWindow,
			Sources:     cli.EnvVars("DORAMETER_CFR_CORRELATION_WINDOW"),
		},
		&cli.FloatFlag{
			Name:        flagMaxLeadTimeDays,
			Usage:       "Drop lead times longer than this many days (0 disables)",
			Value:       usecase.DefaultMaxLeadTimeDays,
			Destination: &c.MaxLeadTimeDays,
			Sources:     cli.EnvVars("DORAMETER_MAX_LEAD_TIME_DAYS"),
		},
	}
}

// Load applies the config file to settings that were not set on the command line
func (c *DORA) Load(cmd *cli.Command) error {
	if c.ConfigFile == "" {
		return nil
	}

	raw, err := os.ReadFile(c.ConfigFile)
	if err != nil {
		return goerr.Wrap(err, "failed to read config file", goerr.V("path", c.ConfigFile))
	}

	var file doraFile
	if err := toml.Unmarshal(raw, &file); err != nil {
		return goerr.Wrap(err, "failed to parse config file", goerr.V("path", c.ConfigFile))
	}

	if v := file.DORA.CFRCorrelationWindowHours; v != nil && !cmd.IsSet(flagCorrelationWindow) {
		c.CorrelationWindow = time.Duration(*v * float64(time.Hour))
	}
	if v := file.DORA.MaxLeadTimeDays; v != nil && !cmd.IsSet(flagMaxLeadTimeDays) {
		c.MaxLeadTimeDays = *v
	}
	return nil
}

// UseCase builds the DORA use case. Invalid values are rejected here.
func (c *DORA) UseCase() (interfaces.DORAUseCase, error) {
	return usecase.NewDORA(
		usecase.WithCorrelationWindow(c.CorrelationWindow),
		usecase.WithMaxLeadTimeDays(c.MaxLeadTimeDays),
	)
}
