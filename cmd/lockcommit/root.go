package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btclog/v2"
	"github.com/lightninglabs/lockcommit/lockscript"
	"github.com/spf13/cobra"
)

const (
	// version is the current version of the tool. It is set during
	// build.
	version = "0.2.1"

	Commit = ""
)

var (
	Verbose bool

	log = btclog.NewSLogger(btclog.NewDefaultHandler(os.Stderr)).
		SubSystem("LOCK")
)

var rootCmd = &cobra.Command{
	Use:   "lockcommit",
	Short: "Lockcommit embeds deterministic commitments into bitcoin " +
		"lock scripts",
	Long: `This tool tweaks one of the public keys referenced by an
output-locking script so the script carries a verifiable commitment to a
message without changing how it spends.`,
	Version: fmt.Sprintf("v%s, commit %s", version, Commit),
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if Verbose {
			log.SetLevel(btclog.LevelDebug)
		} else {
			log.SetLevel(btclog.LevelInfo)
		}

		log.Debugf("lockcommit version v%s commit %s", version,
			Commit)
	},
	DisableAutoGenTag: true,
}

func main() {
	rootCmd.PersistentFlags().BoolVarP(
		&Verbose, "verbose", "v", false, "Indicates if debug output "+
			"should be printed",
	)

	rootCmd.AddCommand(
		newCommitCommand(),
		newVerifyCommand(),
		newInspectCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// containerFlags are the flags shared by the commit and verify commands,
// covering everything a lockscript container is built from.
type containerFlags struct {
	Script  string
	Pubkey  string
	Tag     string
	Message string
}

func newContainerFlags(cmd *cobra.Command) *containerFlags {
	f := &containerFlags{}
	cmd.Flags().StringVar(
		&f.Script, "script", "", "lock script in policy syntax, "+
			"for example 'thresh(2,pk(<hex>),pk(<hex>))'",
	)
	cmd.Flags().StringVar(
		&f.Pubkey, "pubkey", "", "hex encoded public key to target "+
			"with the tweak; must appear in the script",
	)
	cmd.Flags().StringVar(
		&f.Tag, "tag", "", "protocol-specific domain tag the "+
			"commitment is scoped to",
	)
	cmd.Flags().StringVar(
		&f.Message, "message", "", "message to embed into the script",
	)

	return f
}

func (f *containerFlags) parse() (lockscript.Node, *btcec.PublicKey,
	chainhash.Hash, error) {

	var tag chainhash.Hash

	if f.Script == "" {
		return nil, nil, tag, fmt.Errorf("script is required")
	}
	if f.Pubkey == "" {
		return nil, nil, tag, fmt.Errorf("pubkey is required")
	}
	if f.Tag == "" {
		return nil, nil, tag, fmt.Errorf("tag is required")
	}

	script, err := lockscript.Parse(f.Script)
	if err != nil {
		return nil, nil, tag, fmt.Errorf("error parsing script: %w",
			err)
	}

	keyBytes, err := hex.DecodeString(f.Pubkey)
	if err != nil {
		return nil, nil, tag, fmt.Errorf("error decoding pubkey: %w",
			err)
	}
	pubKey, err := btcec.ParsePubKey(keyBytes)
	if err != nil {
		return nil, nil, tag, fmt.Errorf("error parsing pubkey: %w",
			err)
	}

	tag = chainhash.HashH([]byte(f.Tag))

	return script, pubKey, tag, nil
}
