// Package common provides shared dependencies for command implementations.
package common

import (
	"github.com/jonesrussell/harvest/internal/config"
	"github.com/jonesrussell/harvest/internal/logger"
)

// CommandDeps holds the dependencies every command starts from.
type CommandDeps struct {
	Logger logger.Interface
	Config *config.Config
}

// Validate ensures all required dependencies are present.
func (d CommandDeps) Validate() error {
	if d.Logger == nil {
		return ErrLoggerRequired
	}
	if d.Config == nil {
		return ErrConfigRequired
	}
	return nil
}
