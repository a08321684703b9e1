// Package cli implements the cobra-based CLI commands for edgeswitch-install.
//
// The root command performs the installation itself; the layout subcommand
// prints the staging table. This file defines the root command, global
// flags, logging setup and exit code handling.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/shinji-kodama/edgeswitch-install/internal/model"
)

// Global flag variables shared across all subcommands.
// These are bound to cobra persistent flags on the root command.
var (
	// jsonOutput switches error output and command results to JSON.
	jsonOutput bool

	// verbose enables debug logging of every phase, directory and copy.
	verbose bool

	// layoutPath is an optional YAML/JSONC file replacing the default layout.
	layoutPath string
)

// logger is configured by the root command before any subcommand runs.
var logger = log.New(io.Discard)

// version, commit, and date are set at build time via ldflags.
// They are injected from the main package to display version information.
var (
	// Version is the semantic version of the binary (e.g., "1.0.0").
	Version = "dev"

	// Commit is the Git commit hash the binary was built from.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// NewRootCommand creates and configures the root cobra command.
//
// Running the root command without a subcommand stages the EdgeSwitch
// files into the Ansible checkout named by --ansible-home or ANSIBLE_HOME.
func NewRootCommand() *cobra.Command {
	// Each command tree gets its own viper instance so that repeated
	// construction (tests) never shares resolved values.
	v := viper.New()
	opts := &installOptions{config: v}

	rootCmd := &cobra.Command{
		Use:   "edgeswitch-install",
		Short: "Stage the EdgeSwitch modules and plugins into an Ansible checkout",
		Long: `edgeswitch-install copies the Ubiquiti EdgeSwitch Ansible modules, module
utils, unit tests with their fixtures, and the cliconf/terminal plugins from
the current directory into an Ansible source checkout.

The checkout is taken from --ansible-home, or from ANSIBLE_HOME as set by
running 'source hacking/env-setup' in the ansible directory.

Examples:
  edgeswitch-install
  edgeswitch-install --ansible-home ~/src/ansible
  edgeswitch-install --source-dir ~/src/edgeswitch --layout layout.yaml
  edgeswitch-install layout --json`,

		Args: cobra.NoArgs,

		// SilenceUsage prevents cobra from printing usage on every error.
		SilenceUsage: true,

		// SilenceErrors leaves error output to Execute (text or JSON).
		SilenceErrors: true,

		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),

		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = newLogger(cmd.ErrOrStderr(), verbose)
		},

		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstall(cmd, opts)
		},
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&layoutPath, "layout", "", "Layout file (.yaml, .yml, .json, .jsonc) replacing the built-in EdgeSwitch layout")

	rootCmd.Flags().String(flagAnsibleHome, "", "Ansible checkout to install into (default: $"+RootEnvVar+")")
	rootCmd.Flags().StringVar(&opts.sourceDir, "source-dir", "", "Directory containing the EdgeSwitch sources (default: current directory)")

	// Flag wins over the environment when given explicitly.
	mustBind(v.BindPFlag(configKeyRoot, rootCmd.Flags().Lookup(flagAnsibleHome)))
	mustBind(v.BindEnv(configKeyRoot, RootEnvVar))

	rootCmd.AddCommand(NewLayoutCommand())

	return rootCmd
}

// mustBind panics on a viper binding error. Bindings are fixed at
// construction, so an error here is a programming mistake.
func mustBind(err error) {
	if err != nil {
		panic(fmt.Sprintf("binding %s: %v", configKeyRoot, err))
	}
}

// newLogger builds the stderr logger. Warnings are always shown; debug
// output only with --verbose.
func newLogger(w io.Writer, verbose bool) *log.Logger {
	l := log.NewWithOptions(w, log.Options{Prefix: "edgeswitch-install"})
	if verbose {
		l.SetLevel(log.DebugLevel)
	}
	return l
}

// Execute runs the root command and exits the process with the exit code
// derived from the returned error.
func Execute(rootCmd *cobra.Command) {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(int(reportError(rootCmd.OutOrStdout(), rootCmd.ErrOrStderr(), err)))
	}
}

// reportError prints err and returns the matching exit code.
//
// A missing installation root prints its fixed instruction to stdout.
// Every other error goes to stderr, as text or JSON depending on --json.
func reportError(stdout, stderr io.Writer, err error) model.ExitCode {
	var cliErr *model.CLIError
	if !errors.As(err, &cliErr) {
		printError(stderr, err.Error(), nil)
		return model.ExitGeneralError
	}

	if cliErr.Code == model.ExitConfigurationMissing {
		fmt.Fprintln(stdout, cliErr.Message)
		return cliErr.Code
	}

	printError(stderr, cliErr.Message, cliErr.Err)
	return cliErr.Code
}

// printError outputs an error message in the appropriate format
// (JSON or text) based on the --json global flag.
func printError(w io.Writer, message string, underlying error) {
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
		fmt.Fprintln(w, string(data))
		return
	}

	if underlying != nil {
		fmt.Fprintf(w, "Error: %s: %v\n", message, underlying)
	} else {
		fmt.Fprintf(w, "Error: %s\n", message)
	}
}

// VerboseLog writes a debug line, shown only when verbose mode is enabled.
func VerboseLog(format string, args ...interface{}) {
	logger.Debugf(format, args...)
}

// IsJSONOutput returns whether the --json flag is set.
func IsJSONOutput() bool {
	return jsonOutput
}
