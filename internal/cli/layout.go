package cli

import (
	"github.com/spf13/cobra"

	"github.com/shinji-kodama/edgeswitch-install/internal/installer"
	"github.com/shinji-kodama/edgeswitch-install/internal/model"
)

// NewLayoutCommand creates the "layout" cobra command, which prints the
// effective staging table without touching the filesystem.
func NewLayoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "layout",
		Short: "Print the directories and files that would be staged",
		Long: `Print the layout table used by the installer: the directories created under
the Ansible checkout, the bulk copies, and the individually copied plugin files.

The output is YAML, or JSON with --json, and can be edited and passed back
with --layout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			layout, err := resolveLayout()
			if err != nil {
				return err
			}

			data, err := installer.MarshalLayout(layout, IsJSONOutput())
			if err != nil {
				return model.WrapCLIError(model.ExitGeneralError, "failed to print layout", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
