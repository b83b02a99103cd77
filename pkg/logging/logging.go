// Package logging builds the process logger.
package logging

import (
	"io"

	"github.com/hashicorp/go-hclog"

	"github.com/askiada/go-octopus/pkg/config"
)

// New returns a logger writing to w as configured. The configuration is expected to be valid.
func New(cfg config.LogConfig, w io.Writer) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:            cfg.Name,
		Level:           hclog.LevelFromString(cfg.Level),
		Output:          w,
		JSONFormat:      cfg.JSON,
		IncludeLocation: cfg.Level == "trace",
		Color:           hclog.ColorOff,
	})
}
