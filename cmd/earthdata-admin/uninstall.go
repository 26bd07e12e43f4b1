package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opengeos/earthdata-desktop/internal/installer"
)

var uninstallCmd = &cobra.Command{
	Use:   "uninstall <dest-dir>",
	Short: "Remove an installed application",
	Long: `Uninstall removes exactly the files listed in the install manifest,
then cleans up directories left empty. Downloads, settings, and any other
user data are never removed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		inst := installer.New(buildLogger())
		if err := inst.Uninstall(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Uninstalled from %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(uninstallCmd)
}
