package common

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/harvest/internal/config"
	"github.com/jonesrussell/harvest/internal/logger"
)

// NewCommandDeps loads the configuration and builds the logger from the
// root command's persistent flags. The --debug flag wins over both the
// config file and the environment.
func NewCommandDeps(cmd *cobra.Command) (CommandDeps, error) {
	cfgPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return CommandDeps{}, fmt.Errorf("read config flag: %w", err)
	}
	debug, err := cmd.Flags().GetBool("debug")
	if err != nil {
		return CommandDeps{}, fmt.Errorf("read debug flag: %w", err)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return CommandDeps{}, fmt.Errorf("load config: %w", err)
	}
	if debug {
		cfg.App.Debug = true
		cfg.Log.Level = string(logger.DebugLevel)
	}

	log, err := logger.New(&logger.Config{
		Level:       logger.Level(cfg.Log.Level),
		Development: cfg.Log.Development,
		Encoding:    cfg.Log.Encoding,
	})
	if err != nil {
		return CommandDeps{}, fmt.Errorf("create logger: %w", err)
	}

	deps := CommandDeps{
		Logger: log,
		Config: cfg,
	}
	if validateErr := deps.Validate(); validateErr != nil {
		return CommandDeps{}, fmt.Errorf("validate deps: %w", validateErr)
	}

	return deps, nil
}
