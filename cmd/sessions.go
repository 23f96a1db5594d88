package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/palimpsest/internal/ui"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List and delete stored journeys",
	Args:  cobra.NoArgs,
	RunE:  runSessionsList,
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>...",
	Short: "Delete stored journeys",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSessionsDelete,
}

func init() {
	sessionsCmd.AddCommand(sessionsDeleteCmd)
	rootCmd.AddCommand(sessionsCmd)
}

func runSessionsList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	rt, err := newRuntime(ctx, cmd.ErrOrStderr(), true)
	if err != nil {
		return err
	}
	defer rt.Close()

	list, err := rt.store.List(ctx)
	if err != nil {
		return err
	}
	ui.New(cmd.OutOrStdout()).Sessions(list)
	return nil
}

func runSessionsDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	rt, err := newRuntime(ctx, cmd.ErrOrStderr(), true)
	if err != nil {
		return err
	}
	defer rt.Close()

	printer := ui.New(cmd.OutOrStdout())
	for _, id := range args {
		if err := rt.store.Delete(ctx, id); err != nil {
			return fmt.Errorf("sessions: delete %s: %w", id, err)
		}
		printer.Success("deleted " + id)
	}
	return nil
}
