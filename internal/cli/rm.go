package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRmCommand creates the rm command.
func NewRmCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <run-id>...",
		Short: "Delete stored runs",
		Args:  minArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			for _, id := range args {
				if err := s.DeleteRun(id); err != nil {
					return storeError("failed to delete run "+id, err)
				}
				opts.Logger.Info("run deleted", "run_id", id)
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted run %s\n", id)
			}
			return nil
		},
	}
}
