// earthdata-admin installs, removes, and packages the Earthdata Desktop
// application without touching any user data.
package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/opengeos/earthdata-desktop/internal/logger"
)

// Version is stamped at build time with -ldflags.
var Version = "1.0.0"

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "earthdata-admin",
	Short: "Administration tool for Earthdata Desktop",
	Long: `earthdata-admin manages Earthdata Desktop installations.

It installs a built application bundle into a target directory, removes
exactly the files it installed, and packages release archives. User files
placed next to the installation are never touched.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func buildLogger() zerolog.Logger {
	level := "info"
	if verbose {
		level = "debug"
	}
	return logger.Build(logger.Config{Level: level, Console: true, Component: "admin"}, os.Stderr)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}
