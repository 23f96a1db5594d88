package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/palimpsest/internal/story"
	"github.com/papapumpkin/palimpsest/internal/tui"
)

var readCmd = &cobra.Command{
	Use:   "read <story-dir>",
	Short: "Read a story interactively in the terminal",
	Long: `Opens the story in a full-screen reader. The journey is stored in the
journey database so it can be resumed with --session.

With --watch, edits to the story directory are picked up while reading.`,
	Args: cobra.ExactArgs(1),
	RunE: runRead,
}

func init() {
	readCmd.Flags().String("session", "", "journey to resume (default: start a new one)")
	readCmd.Flags().String("start", "", "node to open (default: the story's start node)")
	readCmd.Flags().Bool("watch", false, "reload the story when its files change")
	rootCmd.AddCommand(readCmd)
}

func runRead(cmd *cobra.Command, args []string) error {
	sessionID, _ := cmd.Flags().GetString("session")
	start, _ := cmd.Flags().GetString("start")
	watch, _ := cmd.Flags().GetBool("watch")
	dir := args[0]

	ctx := cmd.Context()
	st, err := loadStory(dir)
	if err != nil {
		return err
	}

	// The alternate screen owns the terminal; use --telemetry to observe a
	// reading session.
	rt, err := newRuntime(ctx, io.Discard, true)
	if err != nil {
		return err
	}
	defer rt.Close()

	sess, err := rt.session(ctx, st, sessionID)
	if err != nil {
		return err
	}

	opts := tui.Options{Start: start, StoryDir: dir}
	if watch {
		w, err := story.NewWatcher(dir)
		if err != nil {
			return fmt.Errorf("read: watch %s: %w", dir, err)
		}
		if err := w.Start(); err != nil {
			return fmt.Errorf("read: watch %s: %w", dir, err)
		}
		defer w.Stop()
		opts.Changes = w.Changes
	}

	if err := tui.Run(ctx, sess, opts); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "journey saved as %s\n", sess.ID())
	return nil
}
