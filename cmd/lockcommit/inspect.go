package main

import (
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/lightninglabs/lockcommit/lockscript"
	"github.com/spf13/cobra"
)

type inspectCommand struct {
	Script string

	cmd *cobra.Command
}

func newInspectCommand() *cobra.Command {
	cc := &inspectCommand{}
	cc.cmd = &cobra.Command{
		Use: "inspect",
		Short: "Parse a lock script and dump its tree and key " +
			"surface",
		Example: `lockcommit inspect \
	--script "thresh(2,pk(02...),pkh(14ab...))"`,
		RunE: cc.Execute,
	}
	cc.cmd.Flags().StringVar(
		&cc.Script, "script", "", "lock script in policy syntax",
	)

	return cc.cmd
}

func (c *inspectCommand) Execute(_ *cobra.Command, _ []string) error {
	if c.Script == "" {
		return fmt.Errorf("script is required")
	}

	script, err := lockscript.Parse(c.Script)
	if err != nil {
		return fmt.Errorf("error parsing script: %w", err)
	}

	keys, hashes, err := lockscript.ExtractKeyHashSet(script)
	if err != nil {
		return fmt.Errorf("error extracting key surface: %w", err)
	}

	spew.Dump(script)

	fmt.Printf("Keys (%d):\n", keys.Len())
	for _, key := range keys.Keys() {
		fmt.Printf("  %x\n", key.SerializeCompressed())
	}
	fmt.Printf("Key hashes (%d):\n", len(hashes))
	for _, hash := range hashes {
		fmt.Printf("  %x\n", hash[:])
	}

	scriptBytes, err := lockscript.Compile(script)
	if err != nil {
		return fmt.Errorf("error compiling script: %w", err)
	}
	fmt.Printf("Script: %x\n", scriptBytes)

	return nil
}
