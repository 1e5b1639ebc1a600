package commands

import (
	"github.com/spf13/cobra"
)

var (
	_config = NewDefaultCLIConfig()
)

//RootCmd is the root command for lattice
var RootCmd = &cobra.Command{
	Use:              "lattice",
	Short:            "block-lattice ledger node",
	TraverseChildren: true,
}
