package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/palimpsest/internal/ui"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <story-dir>",
	Short: "Analyze a reading journey: loops, focus, temporal jumps and attractors",
	Long: `Replays --path (or loads a stored --session) and prints the journey
fingerprint, recursive loops and reading patterns.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringSlice("path", nil, "node IDs visited in order")
	analyzeCmd.Flags().StringSlice("engage", nil, "attractors engaged after the walk")
	analyzeCmd.Flags().String("session", "", "stored journey to analyze")
	analyzeCmd.Flags().Bool("json", false, "print the summary as JSON")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetStringSlice("path")
	engage, _ := cmd.Flags().GetStringSlice("engage")
	sessionID, _ := cmd.Flags().GetString("session")
	asJSON, _ := cmd.Flags().GetBool("json")

	if len(path) == 0 && sessionID == "" {
		return fmt.Errorf("analyze: one of --path or --session is required")
	}

	ctx := cmd.Context()
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
	for _, id := range path {
		if _, err := sess.Begin(ctx, id); err != nil {
			return fmt.Errorf("analyze: %w", err)
		}
	}
	for _, a := range engage {
		if _, err := sess.Engage(ctx, a); err != nil {
			return fmt.Errorf("analyze: %w", err)
		}
	}

	sum := sess.Summary()
	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(sum)
	}
	ui.New(cmd.OutOrStdout()).Summary(sum)
	return nil
}
