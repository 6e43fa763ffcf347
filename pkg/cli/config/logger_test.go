package config_test

import (
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/dorameter/pkg/cli/config"
)

func TestLogger_Configure(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Logger
		wantErr bool
	}{
		{name: "debug", cfg: config.Logger{Level: "debug"}},
		{name: "upper case level", cfg: config.Logger{Level: "WARN"}},
		{name: "json to stdout", cfg: config.Logger{Level: "info", Format: "json", Output: "stdout"}},
		{name: "console to stderr", cfg: config.Logger{Level: "error", Format: "console", Output: "stderr"}},
		{name: "invalid level", cfg: config.Logger{Level: "verbose"}, wantErr: true},
		{name: "empty level", cfg: config.Logger{Level: ""}, wantErr: true},
		{name: "invalid format", cfg: config.Logger{Level: "info", Format: "xml"}, wantErr: true},
		{name: "invalid output", cfg: config.Logger{Level: "info", Output: "/dev/null"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := tt.cfg.Configure()
			if tt.wantErr {
				gt.Error(t, err)
				return
			}
			gt.NoError(t, err)
			gt.Value(t, logger).NotNil()
		})
	}
}
