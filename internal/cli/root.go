// Package cli implements the cobra-based CLI commands for treetab.
//
// Each subcommand (create, list, switch, open, close) is defined in its
// own file within this package. This file defines the root command that
// serves as the parent for all subcommands and handles global flags.
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/treetab/internal/config"
	"github.com/mmr-tortoise/treetab/internal/model"
)

// Global flag variables shared across all subcommands.
// These are bound to cobra persistent flags on the root command,
// which makes them available to every subcommand automatically.
var (
	// jsonOutput controls whether command output is formatted as JSON.
	jsonOutput bool

	// verbose enables detailed logging output to stderr.
	verbose bool
)

// Version, Commit, and Date are injected from the main package to
// display version information. They are set at build time via ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// NewRootCommand creates and configures the root cobra command.
// This is the entry point for the entire CLI application.
//
// The root command itself does not perform any action — it only provides
// help text and global flags. Actual functionality is provided by
// subcommands.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "treetab",
		Short: "Git worktree manager with iTerm2 tab integration",
		Long: `treetab manages git worktrees and presents each one as an iTerm2
tab, window, or pane.

Creating a worktree opens it in the terminal; listing joins worktrees
with the tabs currently open in them; switching focuses the right tab
(or opens one); closing removes the worktree after safety checks for
uncommitted changes and unpushed commits. Optionally an AI coding
assistant is launched in the fresh session with a task prompt.`,

		// SilenceUsage prevents cobra from printing usage on every error.
		SilenceUsage: true,

		// SilenceErrors prevents cobra from printing errors automatically;
		// Execute formats them (text or JSON based on --json).
		SilenceErrors: true,

		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(NewCreateCommand())
	rootCmd.AddCommand(NewListCommand())
	rootCmd.AddCommand(NewSwitchCommand())
	rootCmd.AddCommand(NewOpenCommand())
	rootCmd.AddCommand(NewCloseCommand())

	return rootCmd
}

// Execute runs the root command and handles exit codes.
// This is the main entry point called from main.go.
//
// It inspects errors returned by cobra commands and translates them
// into OS exit codes. CLIError values carry their own exit codes; other
// errors default to exit code 1.
func Execute(rootCmd *cobra.Command) {
	if err := rootCmd.Execute(); err != nil {
		if cliErr, ok := err.(*model.CLIError); ok {
			printError(cliErr.Message, cliErr.Err)
			os.Exit(int(cliErr.Code))
		}

		printError(err.Error(), nil)
		os.Exit(int(model.ExitGeneralError))
	}
}

// printError outputs an error message in the appropriate format
// (JSON or text) based on the --json global flag. Errors always go to
// stderr; stdout is reserved for successful command output.
func printError(message string, underlying error) {
	if jsonOutput {
		errObj := map[string]interface{}{
			"error": map[string]interface{}{
				"message": message,
			},
		}
		if underlying != nil {
			if errMap, ok := errObj["error"].(map[string]interface{}); ok {
				errMap["detail"] = underlying.Error()
			}
		}
		data, _ := json.MarshalIndent(errObj, "", "  ")
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		if underlying != nil {
			fmt.Fprintf(os.Stderr, "Error: %s: %v\n", message, underlying)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %s\n", message)
		}
	}
}

// VerboseLog prints a message to stderr only when verbose mode is
// enabled. Used throughout the CLI for trace output that helps users
// understand which git and osascript operations run.
func VerboseLog(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, "[verbose] "+format+"\n", args...)
	}
}

// IsJSONOutput returns whether the --json flag is set.
// Subcommands use this to decide their output format.
func IsJSONOutput() bool {
	return jsonOutput
}

// loadConfig loads the layered configuration for the given repository
// root. A missing home directory only disables the global layer.
func loadConfig(repoRoot string) (*config.Config, error) {
	globalPath, err := config.GlobalPath()
	if err != nil {
		VerboseLog("No home directory, skipping global config: %v", err)
		globalPath = ""
	}
	return config.Load(globalPath, repoRoot)
}

// resolveMode returns the open mode to use: the --mode flag when set,
// otherwise the configured default.
func resolveMode(flagValue string, cfg *config.Config) (model.OpenMode, error) {
	if flagValue == "" {
		return cfg.Mode(), nil
	}
	mode, err := model.ParseOpenMode(flagValue)
	if err != nil {
		return "", model.WrapCLIError(model.ExitConfigError, "invalid --mode flag", err)
	}
	return mode, nil
}
