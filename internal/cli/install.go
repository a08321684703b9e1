// Package cli — install.go implements the installation run of the root
// command.
//
// Orchestration steps:
//  1. Resolve the installation root (flag, then ANSIBLE_HOME)
//  2. Fail with the setup instruction if it is empty, before touching anything
//  3. Resolve the source directory and the layout table
//  4. Run the installer phases and map failures to exit codes
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/shinji-kodama/edgeswitch-install/internal/installer"
	"github.com/shinji-kodama/edgeswitch-install/internal/model"
)

const (
	// RootEnvVar names the environment variable holding the Ansible checkout.
	RootEnvVar = "ANSIBLE_HOME"

	// RootNotSetMessage is printed to stdout when no root is configured.
	RootNotSetMessage = "ANSIBLE_HOME is not set. Please run 'source hacking/env-setup' from your ansible directory, then retry."

	flagAnsibleHome = "ansible-home"
	configKeyRoot   = "ansible_home"
)

// installOptions holds the install-specific settings of the root command.
type installOptions struct {
	config    *viper.Viper
	sourceDir string
}

// runInstall is the main orchestration function of the root command.
func runInstall(cmd *cobra.Command, opts *installOptions) error {
	root := opts.config.GetString(configKeyRoot)
	if root == "" {
		return model.WrapCLIError(model.ExitConfigurationMissing, RootNotSetMessage, installer.ErrRootNotSet)
	}
	VerboseLog("Installation root: %s", root)

	sourceDir := opts.sourceDir
	if sourceDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return model.WrapCLIError(model.ExitGeneralError, "failed to get current directory", err)
		}
		sourceDir = cwd
	}
	VerboseLog("Source directory: %s", sourceDir)

	layout, err := resolveLayout()
	if err != nil {
		return err
	}

	inst := installer.New(installer.Config{
		Root:      root,
		SourceDir: sourceDir,
		Layout:    layout,
		Logger:    logger,
	})

	result, err := inst.Run()
	if err != nil {
		return installError(err)
	}

	VerboseLog("Installed %d file(s) into %s", len(result.Copied), root)
	if IsJSONOutput() {
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
	}
	return nil
}

// resolveLayout returns the layout named by --layout, or the built-in
// EdgeSwitch layout when the flag is unset.
func resolveLayout() (*model.Layout, error) {
	if layoutPath == "" {
		layout := installer.DefaultLayout()
		return &layout, nil
	}

	VerboseLog("Loading layout: %s", layoutPath)
	layout, err := installer.LoadLayout(layoutPath)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitInvalidLayout, "invalid layout", err)
	}
	return layout, nil
}

// installError maps an installer error to a CLIError.
func installError(err error) error {
	if errors.Is(err, installer.ErrRootNotSet) {
		return model.WrapCLIError(model.ExitConfigurationMissing, RootNotSetMessage, err)
	}

	var stepErr *installer.StepError
	if errors.As(err, &stepErr) {
		return model.WrapCLIError(model.ExitFilesystemFailure, "installation failed while "+stepErr.Phase.String(), err)
	}
	return model.WrapCLIError(model.ExitGeneralError, "installation failed", err)
}
