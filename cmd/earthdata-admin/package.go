package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opengeos/earthdata-desktop/internal/installer"
)

var (
	packageVersion string
	packageName    string
	packageOut     string
)

var packageCmd = &cobra.Command{
	Use:   "package <source-dir>",
	Short: "Build a versioned release archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		inst := installer.New(buildLogger())
		archive, err := inst.Package(args[0], packageOut, packageName, packageVersion)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", archive)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(packageCmd)
	packageCmd.Flags().StringVar(&packageVersion, "release", Version, "Version embedded in the archive name")
	packageCmd.Flags().StringVar(&packageName, "name", "earthdata-desktop", "Archive base name")
	packageCmd.Flags().StringVarP(&packageOut, "out", "o", "dist", "Output directory")
}
