package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/palimpsest/internal/story"
	"github.com/papapumpkin/palimpsest/internal/ui"
)

var validateCmd = &cobra.Command{
	Use:   "validate <story-dir>",
	Short: "Validate a story directory: nodes, links, variants and rules",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	printer := ui.New(cmd.OutOrStdout())
	dir := args[0]

	st, err := story.Load(dir)
	if err != nil {
		printer.Error(err.Error())
		return err
	}

	name := st.Manifest.Story.Name
	if name == "" {
		name = dir
	}
	errs := story.Validate(st)
	printer.ValidateResult(name, len(st.Nodes), errs)
	if len(errs) > 0 {
		return fmt.Errorf("validation failed with %d error(s)", len(errs))
	}
	return nil
}
