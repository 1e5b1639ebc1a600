package commands

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/mosaicnetworks/lattice/src/config"
	"github.com/mosaicnetworks/lattice/src/crypto/keys"
	"github.com/mosaicnetworks/lattice/src/lattice"
	"github.com/spf13/cobra"
)

var (
	privKeyFile = filepath.Join(_config.Lattice.DataDir, config.DefaultKeyfile)
	pubKeyFile  = filepath.Join(_config.Lattice.DataDir, "key.pub")
)

// NewKeygenCmd produces a KeygenCmd which create a key pair
func NewKeygenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Create new key pair",
		RunE:  keygen,
	}

	AddKeygenFlags(cmd)

	return cmd
}

//AddKeygenFlags adds flags to the keygen command
func AddKeygenFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&privKeyFile, "priv", privKeyFile, "File where the private key will be written")
	cmd.Flags().StringVar(&pubKeyFile, "pub", pubKeyFile, "File where the public key will be written")
}

func keygen(cmd *cobra.Command, args []string) error {
	key, err := lattice.Keygen(privKeyFile)
	if err != nil {
		return fmt.Errorf("Writing private key: %s", err)
	}

	fmt.Printf("Your private key has been saved to: %s\n", privKeyFile)

	if err := os.MkdirAll(filepath.Dir(pubKeyFile), 0700); err != nil {
		return fmt.Errorf("Writing public key: %s", err)
	}

	// The public key doubles as the account identifier.
	pub := keys.FromPublicKey(&key.PublicKey).Hex()

	if err := ioutil.WriteFile(pubKeyFile, []byte(pub), 0600); err != nil {
		return fmt.Errorf("Writing public key: %s", err)
	}

	fmt.Printf("Your public key has been saved to: %s\n", pubKeyFile)

	return nil
}
