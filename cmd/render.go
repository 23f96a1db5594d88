package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/palimpsest/internal/reader"
	"github.com/papapumpkin/palimpsest/internal/ui"
)

var renderCmd = &cobra.Command{
	Use:   "render <story-dir>",
	Short: "Walk a path through a story and print the last node as transformed",
	Long: `Visits each node of --path in order, engaging the --engage attractors
after the walk, and prints the final node as the reader would see it.

With --session the walk extends a stored journey.`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringSlice("path", nil, "node IDs to visit in order (default: the start node)")
	renderCmd.Flags().StringSlice("engage", nil, "attractors to engage after the walk")
	renderCmd.Flags().String("session", "", "stored journey to extend")
	renderCmd.Flags().Bool("raw", false, "print markup instead of styled text")
	renderCmd.Flags().Bool("explain", false, "list the transformations that were applied")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetStringSlice("path")
	engage, _ := cmd.Flags().GetStringSlice("engage")
	sessionID, _ := cmd.Flags().GetString("session")
	raw, _ := cmd.Flags().GetBool("raw")
	explain, _ := cmd.Flags().GetBool("explain")

	ctx := cmd.Context()
	printer := ui.New(cmd.OutOrStdout())

	st, err := loadStory(args[0])
	if err != nil {
		return err
	}
	rt, err := newRuntime(ctx, cmd.ErrOrStderr(), sessionID != "")
	if err != nil {
		return err
	}
	defer rt.Close()

	sess, err := rt.session(ctx, st, sessionID)
	if err != nil {
		return err
	}
	if len(path) == 0 {
		path = []string{st.Start()}
	}

	var ns reader.NodeState
	for _, id := range path {
		if ns, err = sess.Navigate(ctx, id); err != nil {
			return fmt.Errorf("render: %w", err)
		}
	}
	for _, a := range engage {
		if ns, err = sess.Engage(ctx, a); err != nil {
			return fmt.Errorf("render: %w", err)
		}
	}

	printer.Node(ns, raw)
	if explain {
		fmt.Fprintln(cmd.OutOrStdout())
		printer.Transformations(ns.Transformations)
	}
	return nil
}
