// Package commands implements CLI command handlers for removestar.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Exit statuses of the fix command.
const (
	// ExitClean means no file needed changes.
	ExitClean = 0
	// ExitChanged means at least one file was (or would be) rewritten.
	ExitChanged = 1
	// ExitFailure means at least one file could not be processed, or the
	// command line itself was invalid.
	ExitFailure = 2
)

// ExitError carries a non-zero exit status. Everything worth reporting has
// already been printed when it is returned.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// NewRootCommand creates the removestar command with all subcommands.
func NewRootCommand() *cobra.Command {
	cmd := newFixCommand()

	cmd.AddCommand(NewVersionCommand())
	cmd.AddCommand(NewLSPCommand())
	cmd.AddCommand(NewMCPCommand())
	cmd.AddCommand(NewConfigCommand())

	return cmd
}
