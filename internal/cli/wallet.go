package cli

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	addresscodec "github.com/dicehouse/diced/internal/codec/address-codec"
	"github.com/dicehouse/diced/internal/crypto/ed25519"
)

var walletSeed string

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Generate a keypair and its address",
	Long: `Generate an ed25519 keypair and print its address. With --seed the
keypair is derived deterministically, which is how development chains
and tests create their accounts. Without it, random key material is
used.`,
	RunE: runWallet,
}

func init() {
	rootCmd.AddCommand(walletCmd)
	walletCmd.Flags().StringVar(&walletSeed, "seed", "", "deterministic seed (omit for random)")
}

func runWallet(cmd *cobra.Command, args []string) error {
	seed := []byte(walletSeed)
	if len(seed) == 0 {
		seed = make([]byte, 32)
		if _, err := rand.Read(seed); err != nil {
			return err
		}
	}

	kp, err := ed25519.GenerateKeypair(seed)
	if err != nil {
		return err
	}

	fmt.Printf("address:    %s\n", addresscodec.Encode(kp.Public))
	fmt.Printf("public_key: %s\n", strings.ToUpper(hex.EncodeToString(kp.Public[:])))
	if walletSeed != "" {
		fmt.Printf("seed:       %s\n", walletSeed)
	}
	return nil
}
