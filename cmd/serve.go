package cmd

import (
	"github.com/spf13/cobra"

	"github.com/papapumpkin/palimpsest/internal/mcpserver"
)

var serveCmd = &cobra.Command{
	Use:   "serve <story-dir>",
	Short: "Serve a reading session as MCP tools over stdio",
	Long: `Starts an MCP server on stdin/stdout exposing visit_node, current_node,
engage_attractor and journey_summary. Logs go to stderr.

With --persist the journey is stored and can be resumed with --session.`,
	Args: cobra.ExactArgs(1),
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("session", "", "journey to resume")
	serveCmd.Flags().Bool("persist", false, "store the journey in the journey database")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	sessionID, _ := cmd.Flags().GetString("session")
	persist, _ := cmd.Flags().GetBool("persist")

	ctx := cmd.Context()
	st, err := loadStory(args[0])
	if err != nil {
		return err
	}
	rt, err := newRuntime(ctx, cmd.ErrOrStderr(), persist || sessionID != "")
	if err != nil {
		return err
	}
	defer rt.Close()

	sess, err := rt.session(ctx, st, sessionID)
	if err != nil {
		return err
	}
	return mcpserver.NewServer(sess, rt.log).Run(ctx)
}
