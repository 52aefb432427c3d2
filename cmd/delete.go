package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/daveschumaker/gbm/internal/transition"
)

var deleteFlags struct {
	yes            bool
	forceProtected bool
}

var deleteCmd = &cobra.Command{
	Use:     "delete <branch>",
	Aliases: []string{"rm"},
	Short:   "Delete a local branch",
	Long: `Delete a local branch. Unmerged branches are force-deleted after confirmation.
Protected branches need --force-protected in addition to --yes when run without prompts.`,
	Args: cobra.ExactArgs(1),
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

		target, ok := env.session.Snapshot().Find(args[0], false)
		if !ok {
			return fmt.Errorf("local branch %q not found", args[0])
		}

		ans := newAnswerer(deleteFlags.yes, deleteFlags.forceProtected)
		_, err = runWorkflow(ctx, env.session, transition.StartDelete{Target: target}, ans, cmd.OutOrStdout())
		return err
	},
}

func init() {
	deleteCmd.Flags().BoolVarP(&deleteFlags.yes, "yes", "y", false, "do not ask for confirmation")
	deleteCmd.Flags().BoolVar(&deleteFlags.forceProtected, "force-protected", false, "allow deleting a protected branch")
	rootCmd.AddCommand(deleteCmd)
}
