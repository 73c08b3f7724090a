package main

import (
	"fmt"

	"github.com/lightninglabs/lockcommit/dbc"
	"github.com/lightninglabs/lockcommit/lockscript"
	"github.com/spf13/cobra"
)

type commitCommand struct {
	flags *containerFlags

	cmd *cobra.Command
}

func newCommitCommand() *cobra.Command {
	cc := &commitCommand{}
	cc.cmd = &cobra.Command{
		Use: "commit",
		Short: "Embed a message commitment into a lock script by " +
			"tweaking the target key",
		Example: `lockcommit commit \
	--script "pk(02...)" \
	--pubkey 02... \
	--tag MY_PROTOCOL \
	--message "hello world"`,
		RunE: cc.Execute,
	}
	cc.flags = newContainerFlags(cc.cmd)

	return cc.cmd
}

func (c *commitCommand) Execute(_ *cobra.Command, _ []string) error {
	script, pubKey, tag, err := c.flags.parse()
	if err != nil {
		return err
	}

	container := &dbc.LockscriptContainer{
		Script: script,
		Pubkey: pubKey,
		Tag:    tag,
	}
	commitment, err := container.EmbedCommit([]byte(c.flags.Message))
	if err != nil {
		return fmt.Errorf("error embedding commitment: %w", err)
	}

	scriptBytes, err := lockscript.Compile(commitment.Script)
	if err != nil {
		return fmt.Errorf("error compiling committed script: %w", err)
	}

	log.Infof("Replaced %d leaves with the tweaked key.",
		commitment.NumReplaced)

	fmt.Printf("Tweaked key:      %x\n",
		commitment.TweakedKey.SerializeCompressed())
	fmt.Printf("Committed policy: %s\n", commitment.Script)
	fmt.Printf("Committed script: %x\n", scriptBytes)

	return nil
}
