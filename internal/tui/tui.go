// Package tui is the interactive terminal reader.
package tui

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/papapumpkin/palimpsest/internal/reader"
	"github.com/papapumpkin/palimpsest/internal/story"
)

// Program is an alias for tea.Program, exposed so callers don't need
// to import bubbletea directly.
type Program = tea.Program

// Options configures a reader program.
type Options struct {
	Start    string              // node to open; empty uses the story's start
	StoryDir string              // directory reloaded on change
	Changes  <-chan story.Change // nil disables hot reload
}

// NewProgram creates a BubbleTea reader over sess using the alternate
// screen buffer.
func NewProgram(ctx context.Context, sess *reader.Session, o Options, opts ...tea.ProgramOption) *Program {
	model := NewAppModel(ctx, sess, o.Start)
	model.StoryDir = o.StoryDir
	model.Changes = o.Changes

	allOpts := []tea.ProgramOption{
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	}
	allOpts = append(allOpts, opts...)
	return tea.NewProgram(model, allOpts...)
}

// Run creates and runs a reader program, blocking until it exits.
func Run(ctx context.Context, sess *reader.Session, o Options) error {
	if _, err := NewProgram(ctx, sess, o).Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// WithOutput returns a program option that directs TUI output to the given writer.
func WithOutput(w io.Writer) tea.ProgramOption {
	return tea.WithOutput(w)
}
