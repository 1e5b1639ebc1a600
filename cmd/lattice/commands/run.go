package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/mosaicnetworks/lattice/src/config"
	"github.com/mosaicnetworks/lattice/src/lattice"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

//NewRunCmd returns the command that starts a lattice node
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "run",
		Short:   "Run node",
		PreRunE: loadConfig,
		RunE:    runLattice,
	}
	AddRunFlags(cmd)
	return cmd
}

/*******************************************************************************
* RUN
*******************************************************************************/

func runLattice(cmd *cobra.Command, args []string) error {
	engine := lattice.NewLattice(&_config.Lattice)

	if err := engine.Init(); err != nil {
		_config.Lattice.Logger().Error("Cannot initialize engine:", err)
		return err
	}

	//Prepare sigCh to relay SIGINT and SIGTERM system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigCh
		engine.Shutdown()
	}()

	engine.Run()

	return nil
}

/*******************************************************************************
* CONFIG
*******************************************************************************/

//AddRunFlags adds flags to the Run command
func AddRunFlags(cmd *cobra.Command) {

	cmd.Flags().String("datadir", _config.Lattice.DataDir, "Top-level directory for configuration and data")
	cmd.Flags().String("log", _config.Lattice.LogLevel, "debug, info, warn, error, fatal, panic")
	cmd.Flags().String("log-dir", _config.Lattice.LogDir, "Directory for per-level log files")
	cmd.Flags().String("moniker", _config.Lattice.Moniker, "Optional name")

	// Network
	cmd.Flags().StringP("listen", "l", _config.Lattice.BindAddr, "Listen IP:Port for the UDP socket")
	cmd.Flags().Duration("keepalive", _config.Lattice.KeepaliveInterval, "Time between keepalive rounds (0 disables them)")

	// Service
	cmd.Flags().StringP("service-listen", "s", _config.Lattice.ServiceAddr, "Listen IP:Port for HTTP service")
	cmd.Flags().Bool("no-service", _config.Lattice.NoService, "Disable HTTP service")

	// Store
	cmd.Flags().Bool("store", _config.Lattice.Store, "Use badgerDB instead of in-mem DB")
	cmd.Flags().String("db", _config.Lattice.DatabaseDir, "Dabatabase directory")
	cmd.Flags().Bool("sync-writes", _config.Lattice.SyncWrites, "Wait for the disk on every database write")
}

func loadConfig(cmd *cobra.Command, args []string) error {

	err := bindFlagsLoadViper(cmd)
	if err != nil {
		return err
	}

	// If --datadir was explicitely set, but not --db, this will update the
	// default database dir to be inside the new datadir
	_config.Lattice.SetDataDir(_config.Lattice.DataDir)

	logFields := logrus.Fields{
		"lattice.DataDir":           _config.Lattice.DataDir,
		"lattice.BindAddr":          _config.Lattice.BindAddr,
		"lattice.ServiceAddr":       _config.Lattice.ServiceAddr,
		"lattice.NoService":         _config.Lattice.NoService,
		"lattice.Store":             _config.Lattice.Store,
		"lattice.LogLevel":          _config.Lattice.LogLevel,
		"lattice.LogDir":            _config.Lattice.LogDir,
		"lattice.Moniker":           _config.Lattice.Moniker,
		"lattice.KeepaliveInterval": _config.Lattice.KeepaliveInterval,
	}

	if _config.Lattice.Store {
		logFields["lattice.DatabaseDir"] = _config.Lattice.DatabaseDir
		logFields["lattice.SyncWrites"] = _config.Lattice.SyncWrites
	}

	_config.Lattice.Logger().WithFields(logFields).Debug("RUN")

	return nil
}

// Bind all flags and read the config into viper
func bindFlagsLoadViper(cmd *cobra.Command) error {
	// Register flags with viper. Include flags from this command and all other
	// persistent flags from the parent
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// first unmarshal to read from CLI flags
	if err := viper.Unmarshal(_config); err != nil {
		return err
	}

	// look for config file in [datadir]/lattice.toml (.json, .yaml also work)
	viper.SetConfigName(config.DefaultConfigName) // name of config file (without extension)
	viper.AddConfigPath(_config.Lattice.DataDir)  // search root directory

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		_config.Lattice.Logger().Debugf("Using config file: %s", viper.ConfigFileUsed())
	} else if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		_config.Lattice.Logger().Debugf("No config file found in: %s", _config.Lattice.DataDir)
	} else {
		return err
	}

	// second unmarshal to read from config file
	return viper.Unmarshal(_config)
}
