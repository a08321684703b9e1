// Package cli — install_test.go runs the root and layout commands end to
// end against temporary source trees and installation roots.
package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/edgeswitch-install/internal/installer"
	"github.com/shinji-kodama/edgeswitch-install/internal/model"
)

// edgeswitchSources lists one file per bulk copy plus the two plugins,
// mapped to where they must appear under the root.
var edgeswitchSources = map[string]string{
	"test/units/modules/network/edgeswitch/test_edgeswitch_vlan.py":   "test/units/modules/network/edgeswitch/test_edgeswitch_vlan.py",
	"test/units/modules/network/edgeswitch/fixtures/show_vlan_brief": "test/units/modules/network/edgeswitch/fixtures/show_vlan_brief",
	"module_utils/network/edgeswitch/edgeswitch.py":                   "lib/ansible/module_utils/network/edgeswitch/edgeswitch.py",
	"library/edgeswitch_vlan.py":                                      "lib/ansible/modules/network/edgeswitch/edgeswitch_vlan.py",
	"plugins/cliconf/edgeswitch.py":                                   "lib/ansible/plugins/cliconf/edgeswitch.py",
	"plugins/terminal/edgeswitch.py":                                  "lib/ansible/plugins/terminal/edgeswitch.py",
}

func setupSources(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	for rel := range edgeswitchSources {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte("content of "+rel), 0644))
	}
	return dir
}

func setupRoot(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "lib", "ansible", "plugins", "cliconf"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "lib", "ansible", "plugins", "terminal"), 0755))
	return root
}

// runCommand executes a fresh root command with args and returns the exit
// code Execute would use along with captured stdout and stderr.
func runCommand(t *testing.T, args ...string) (model.ExitCode, string, string) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	err := cmd.Execute()
	if err == nil {
		return model.ExitSuccess, stdout.String(), stderr.String()
	}
	code := reportError(&stdout, &stderr, err)
	return code, stdout.String(), stderr.String()
}

// TestInstall_FromEnvironment installs into the root named by ANSIBLE_HOME.
func TestInstall_FromEnvironment(t *testing.T) {
	src := setupSources(t)
	root := setupRoot(t)
	t.Setenv(RootEnvVar, root)

	code, stdout, _ := runCommand(t, "--source-dir", src)

	require.Equal(t, model.ExitSuccess, code)
	assert.Empty(t, stdout, "a successful run prints nothing without --json or --verbose")
	for srcRel, dstRel := range edgeswitchSources {
		want, err := os.ReadFile(filepath.Join(src, filepath.FromSlash(srcRel)))
		require.NoError(t, err)
		got, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(dstRel)))
		require.NoError(t, err, "%s should exist", dstRel)
		assert.Equal(t, want, got)
	}
}

// TestInstall_RootNotSet verifies the precondition failure: fixed message
// on stdout, exit code 2, nothing written.
func TestInstall_RootNotSet(t *testing.T) {
	src := setupSources(t)
	t.Setenv(RootEnvVar, "")
	cwd := t.TempDir()
	chdir(t, cwd)

	code, stdout, stderr := runCommand(t, "--source-dir", src)

	assert.Equal(t, model.ExitConfigurationMissing, code)
	assert.Equal(t, RootNotSetMessage+"\n", stdout)
	assert.Empty(t, stderr)

	entries, err := os.ReadDir(cwd)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

// TestInstall_RootNotSetWinsOverBadLayout checks that the precondition is
// reported before the layout file is even read.
func TestInstall_RootNotSetWinsOverBadLayout(t *testing.T) {
	t.Setenv(RootEnvVar, "")

	code, stdout, _ := runCommand(t, "--layout", filepath.Join(t.TempDir(), "missing.yaml"))

	assert.Equal(t, model.ExitConfigurationMissing, code)
	assert.Contains(t, stdout, "ANSIBLE_HOME is not set")
}

// TestInstall_FlagOverridesEnvironment verifies --ansible-home takes
// precedence over ANSIBLE_HOME.
func TestInstall_FlagOverridesEnvironment(t *testing.T) {
	src := setupSources(t)
	envRoot := setupRoot(t)
	flagRoot := setupRoot(t)
	t.Setenv(RootEnvVar, envRoot)

	code, _, _ := runCommand(t, "--source-dir", src, "--ansible-home", flagRoot)

	require.Equal(t, model.ExitSuccess, code)
	assert.FileExists(t, filepath.Join(flagRoot, "lib/ansible/modules/network/edgeswitch/edgeswitch_vlan.py"))
	assert.NoDirExists(t, filepath.Join(envRoot, "lib/ansible/modules"))
}

// TestInstall_FilesystemFailure maps a missing plugin directory to exit
// code 3 with a text error on stderr.
func TestInstall_FilesystemFailure(t *testing.T) {
	src := setupSources(t)
	root := t.TempDir() // plugin directories absent

	code, stdout, stderr := runCommand(t, "--source-dir", src, "--ansible-home", root)

	assert.Equal(t, model.ExitFilesystemFailure, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "Error: installation failed while copying-plugin-files")
}

// TestInstall_SourceIsRoot maps an install of a tree into itself to exit
// code 3 without truncating the sources.
func TestInstall_SourceIsRoot(t *testing.T) {
	src := setupSources(t)
	module := filepath.Join(src, "library", "edgeswitch_vlan.py")
	before, err := os.ReadFile(module)
	require.NoError(t, err)

	code, _, stderr := runCommand(t, "--source-dir", src, "--ansible-home", src)

	assert.Equal(t, model.ExitFilesystemFailure, code)
	assert.Contains(t, stderr, "Error: installation failed while copying-bulk-files")
	after, err := os.ReadFile(module)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

// TestInstall_BlankRootIsSet verifies that only an empty ANSIBLE_HOME is
// treated as unset; a whitespace value is used as a path.
func TestInstall_BlankRootIsSet(t *testing.T) {
	src := setupSources(t)
	t.Setenv(RootEnvVar, " ")
	chdir(t, t.TempDir())

	code, stdout, _ := runCommand(t, "--source-dir", src)

	assert.NotEqual(t, model.ExitConfigurationMissing, code)
	assert.NotContains(t, stdout, RootNotSetMessage)
}

// TestNewRootCommand_BindsAnsibleHome checks that the root flag exists so
// the viper binding resolves it.
func TestNewRootCommand_BindsAnsibleHome(t *testing.T) {
	var cmd *cobra.Command
	require.NotPanics(t, func() { cmd = NewRootCommand() })
	assert.NotNil(t, cmd.Flags().Lookup(flagAnsibleHome))
}

// TestInstall_JSONError verifies the JSON error format.
func TestInstall_JSONError(t *testing.T) {
	src := setupSources(t)
	root := t.TempDir()

	code, _, stderr := runCommand(t, "--json", "--source-dir", src, "--ansible-home", root)

	require.Equal(t, model.ExitFilesystemFailure, code)
	var payload map[string]map[string]string
	require.NoError(t, json.Unmarshal([]byte(stderr), &payload))
	assert.Contains(t, payload["error"]["message"], "copying-plugin-files")
	assert.NotEmpty(t, payload["error"]["detail"])
}

// TestInstall_JSONResult prints the run summary with --json.
func TestInstall_JSONResult(t *testing.T) {
	src := setupSources(t)
	root := setupRoot(t)

	code, stdout, _ := runCommand(t, "--json", "--source-dir", src, "--ansible-home", root)

	require.Equal(t, model.ExitSuccess, code)
	var result installer.Result
	require.NoError(t, json.Unmarshal([]byte(stdout), &result))
	assert.Equal(t, model.PhaseDone, result.Phase)
	assert.Len(t, result.Copied, len(edgeswitchSources))
}

// TestInstall_Verbose logs each copy to stderr.
func TestInstall_Verbose(t *testing.T) {
	src := setupSources(t)
	root := setupRoot(t)

	code, _, stderr := runCommand(t, "-v", "--source-dir", src, "--ansible-home", root)

	require.Equal(t, model.ExitSuccess, code)
	assert.Contains(t, stderr, "copied")
	assert.Contains(t, stderr, "Installation root: "+root)
}

// TestInstall_InvalidLayout maps a broken layout file to exit code 4.
func TestInstall_InvalidLayout(t *testing.T) {
	layoutFile := filepath.Join(t.TempDir(), "layout.yaml")
	require.NoError(t, os.WriteFile(layoutFile, []byte("directories:\n  - /abs\n"), 0644))

	code, _, stderr := runCommand(t, "--ansible-home", t.TempDir(), "--layout", layoutFile)

	assert.Equal(t, model.ExitInvalidLayout, code)
	assert.Contains(t, stderr, "invalid layout")
}

// TestInstall_CustomLayout drives the install from a JSONC layout file.
func TestInstall_CustomLayout(t *testing.T) {
	src := setupSources(t)
	root := t.TempDir()
	layoutFile := filepath.Join(t.TempDir(), "layout.jsonc")
	require.NoError(t, os.WriteFile(layoutFile, []byte(`{
		// only the modules
		"directories": ["lib/ansible/modules/network/edgeswitch"],
		"fileSets": [{"source": "library", "pattern": "*.py", "dest": "lib/ansible/modules/network/edgeswitch"}],
	}`), 0644))

	code, _, _ := runCommand(t, "--source-dir", src, "--ansible-home", root, "--layout", layoutFile)

	require.Equal(t, model.ExitSuccess, code)
	assert.FileExists(t, filepath.Join(root, "lib/ansible/modules/network/edgeswitch/edgeswitch_vlan.py"))
	assert.NoDirExists(t, filepath.Join(root, "test"))
}

// TestInstall_UnexpectedArgument is a general usage error.
func TestInstall_UnexpectedArgument(t *testing.T) {
	code, _, stderr := runCommand(t, "--ansible-home", t.TempDir(), "extra")

	assert.Equal(t, model.ExitGeneralError, code)
	assert.Contains(t, stderr, "Error:")
}

// TestLayoutCommand prints the default layout as YAML and JSON.
func TestLayoutCommand(t *testing.T) {
	t.Setenv(RootEnvVar, "")

	code, stdout, _ := runCommand(t, "layout")
	require.Equal(t, model.ExitSuccess, code)
	assert.Contains(t, stdout, "fileSets:")
	assert.Contains(t, stdout, "plugins/terminal/edgeswitch.py")

	code, stdout, _ = runCommand(t, "layout", "--json")
	require.Equal(t, model.ExitSuccess, code)
	var layout model.Layout
	require.NoError(t, json.Unmarshal([]byte(stdout), &layout))
	assert.Equal(t, installer.DefaultLayout(), layout)
}

// TestReportError_PlainError maps a non-CLIError to exit code 1.
func TestReportError_PlainError(t *testing.T) {
	var stdout, stderr bytes.Buffer
	jsonOutput = false

	code := reportError(&stdout, &stderr, errors.New("boom"))

	assert.Equal(t, model.ExitGeneralError, code)
	assert.Equal(t, "Error: boom\n", stderr.String())
	assert.Empty(t, stdout.String())
}
