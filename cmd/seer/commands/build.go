package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.trai.ch/seer/internal/app"
	"go.trai.ch/seer/internal/core/domain"
	"go.trai.ch/seer/internal/core/ports"
)

func (c *CLI) newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [targets...]",
		Short: "Build targets, resolving their rules ahead of time",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				usage(cmd)
				return domain.ErrNoTargetsSpecified
			}
			opts, err := runOptions(cmd)
			if err != nil {
				return err
			}
			return c.app.Build(cmd.Context(), args, opts)
		},
	}
	addRuleFlags(cmd)
	return cmd
}

func addRuleFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("query", "q", "", "Shell command answering rule queries on stdin")
	cmd.Flags().StringP("rules", "r", "", "YAML rules file, e.g. "+domain.RulesFileName)
	cmd.Flags().IntP("jobs", "j", 0, "Maximum number of commands running at once (default: configured)")
}

// runOptions reads the rule source and tuning flags. Exactly one rule
// source must be given.
func runOptions(cmd *cobra.Command) (app.RunOptions, error) {
	query, _ := cmd.Flags().GetString("query")
	rules, _ := cmd.Flags().GetString("rules")
	jobs, _ := cmd.Flags().GetInt("jobs")
	verbose, _ := cmd.Flags().GetBool("verbose")

	switch {
	case query == "" && rules == "":
		usage(cmd)
		return app.RunOptions{}, domain.ErrNoRuleSource
	case query != "" && rules != "":
		usage(cmd)
		return app.RunOptions{}, domain.ErrAmbiguousRuleSource
	}

	return app.RunOptions{
		Source:  ports.RuleSource{QueryProgram: query, RulesFile: rules},
		Jobs:    jobs,
		Verbose: verbose,
	}, nil
}

// usage writes the command usage to stderr.
func usage(cmd *cobra.Command) {
	_, _ = fmt.Fprint(cmd.ErrOrStderr(), cmd.UsageString())
}
