// Package config defines the configuration for a lattice node.
//
// Regardless of how a node is started, directly from Go code or as a
// standalone process from the command line, it uses the Config object defined
// in this package to store and forward configuration options. On top of these
// configuration options, a node relies on a data directory, defined by
// Config.DataDir, where it expects to find a few additional files:
//
//  priv_key // a plain text file containing the raw private key (cf. lattice keygen).
//  peers.json // (optional) a JSON file listing the peers to keep alive.
//  genesis.json // (optional) a JSON file listing the accounts and balances that exist from the start.
//  lattice.toml // (optional) configuration values, overridden by command line flags.
package config
