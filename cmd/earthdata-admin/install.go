package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opengeos/earthdata-desktop/internal/installer"
)

var installVersion string

var installCmd = &cobra.Command{
	Use:   "install <source-dir> <dest-dir>",
	Short: "Install a built application bundle",
	Long: `Install copies every file from the source directory into the destination
and records them in a manifest. A previous installation at the destination
is replaced; files the user added there are left alone.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		inst := installer.New(buildLogger())
		manifest, err := inst.Install(args[0], args[1], installVersion)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Installed %d files (version %s) to %s\n",
			len(manifest.Files), manifest.Version, args[1])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(installCmd)
	installCmd.Flags().StringVar(&installVersion, "release", Version, "Version recorded in the install manifest")
}
