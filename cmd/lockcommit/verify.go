package main

import (
	"fmt"

	"github.com/lightninglabs/lockcommit/dbc"
	"github.com/lightninglabs/lockcommit/lockscript"
	"github.com/spf13/cobra"
)

type verifyCommand struct {
	Commitment string

	flags *containerFlags
	cmd   *cobra.Command
}

func newVerifyCommand() *cobra.Command {
	cc := &verifyCommand{}
	cc.cmd = &cobra.Command{
		Use: "verify",
		Short: "Verify a committed script against its container " +
			"and message by replaying the commitment",
		Example: `lockcommit verify \
	--script "pk(02...)" \
	--pubkey 02... \
	--tag MY_PROTOCOL \
	--message "hello world" \
	--commitment "pk(03...)"`,
		RunE: cc.Execute,
	}
	cc.flags = newContainerFlags(cc.cmd)
	cc.cmd.Flags().StringVar(
		&cc.Commitment, "commitment", "", "the committed script in "+
			"policy syntax, as produced by the commit command",
	)

	return cc.cmd
}

func (c *verifyCommand) Execute(_ *cobra.Command, _ []string) error {
	script, pubKey, tag, err := c.flags.parse()
	if err != nil {
		return err
	}

	if c.Commitment == "" {
		return fmt.Errorf("commitment is required")
	}
	committed, err := lockscript.Parse(c.Commitment)
	if err != nil {
		return fmt.Errorf("error parsing commitment: %w", err)
	}

	container := &dbc.LockscriptContainer{
		Script: script,
		Pubkey: pubKey,
		Tag:    tag,
	}
	commitment := &dbc.LockscriptCommitment{Script: committed}

	ok, err := commitment.Verify(container, []byte(c.flags.Message))
	if err != nil {
		return fmt.Errorf("error verifying commitment: %w", err)
	}
	if !ok {
		return fmt.Errorf("commitment does not match container and " +
			"message")
	}

	log.Infof("Commitment verified OK.")

	return nil
}
