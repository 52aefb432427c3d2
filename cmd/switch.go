package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/daveschumaker/gbm/internal/transition"
)

var switchFlags struct {
	yes bool
}

var switchCmd = &cobra.Command{
	Use:     "switch <branch>",
	Aliases: []string{"checkout", "co"},
	Short:   "Switch to a branch, offering to stash uncommitted changes",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer env.close()

		ctx := cmd.Context()
		if err := env.refresh(ctx); err != nil {
			return err
		}

		target, ok := findBranch(env.session.Snapshot(), args[0])
		if !ok && !env.cfg.ShowRemotes {
			// fall back to remote-tracking branches
			if _, err := env.session.Refresh(ctx, true); err != nil {
				return err
			}
			target, ok = findBranch(env.session.Snapshot(), args[0])
		}
		if !ok {
			return fmt.Errorf("branch %q not found", args[0])
		}

		_, err = runWorkflow(ctx, env.session, transition.StartCheckout{Target: target}, newAnswerer(switchFlags.yes, false), cmd.OutOrStdout())
		return err
	},
}

func init() {
	switchCmd.Flags().BoolVarP(&switchFlags.yes, "yes", "y", false, "answer yes to every question")
	rootCmd.AddCommand(switchCmd)
}
