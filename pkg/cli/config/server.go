package config

import (
	"time"

	"github.com/urfave/cli/v3"
)

// Server holds server configuration
type Server struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// Flags returns CLI flags for server configuration
func (c *Server) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "Server address",
			Value:       "localhost:8080",
			Destination: &c.Addr,
			Sources:     cli.EnvVars("DORAMETER_ADDR"),
		},
		&cli.DurationFlag{
			Name:        "shutdown-timeout",
			Usage:       "Graceful shutdown timeout",
			Value:       10 * time.Second,
			Destination: &c.ShutdownTimeout,
			Sources:     cli.EnvVars("DORAMETER_SHUTDOWN_TIMEOUT"),
		},
	}
}
