package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newWantCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "want TARGET",
		Short: "Build one target on demand, resolving rules as paths are needed",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				usage(cmd)
				return cobra.ExactArgs(1)(cmd, args)
			}
			opts, err := runOptions(cmd)
			if err != nil {
				return err
			}
			return c.app.Want(cmd.Context(), args[0], opts)
		},
	}
	addRuleFlags(cmd)
	return cmd
}
