package commands

import (
	"github.com/mosaicnetworks/lattice/src/config"
)

//CLIConfig contains configuration for the Run command
type CLIConfig struct {
	Lattice config.Config `mapstructure:",squash"`
}

//NewDefaultCLIConfig creates a CLIConfig with default values
func NewDefaultCLIConfig() *CLIConfig {
	return &CLIConfig{
		Lattice: *config.NewDefaultConfig(),
	}
}
