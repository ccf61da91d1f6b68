// Package cli provides the command-line interface for Chromatag.
package cli

import (
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/chromatag/internal/version"
)

var (
	// Global flags
	globalConfig  string
	globalVerbose bool
	globalQuiet   bool

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "chromatag",
		Short: "Classify product photos into colour categories",
		Long: `Chromatag determines a product's colour category from its photograph.

It extracts the dominant colour of an image by clustering its pixels and
matches it against a configurable palette of named colour categories,
then writes the winning category identifier back to a product catalog.`,
		Version:      version.Short(),
		SilenceUsage: true,
	}
)

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&globalConfig, "config", "C", "config/settings.yaml", "path to the settings file")
	rootCmd.PersistentFlags().BoolVarP(&globalVerbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&globalQuiet, "quiet", "q", false, "suppress non-error output")

	rootCmd.SetVersionTemplate(version.String() + "\n")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(runCmd)
}

// newLogger builds the application logger from the global verbosity flags.
func newLogger() hclog.Logger {
	level := hclog.Info
	if globalQuiet {
		level = hclog.Error
	}
	if globalVerbose {
		level = hclog.Debug
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   "chromatag",
		Level:  level,
		Output: os.Stderr,
	})
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print detailed version information including build date, commit hash, and Go version.`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println(version.String())
	},
}
