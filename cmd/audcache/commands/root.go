// SPDX-License-Identifier: EPL-2.0

// Package commands implements the audcache CLI.
package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "audcache",
	Short: "audcache - non-blocking decoded audio chunk cache",
	Long: `audcache decodes audio files into a fixed pool of stereo chunks on a
background worker, so a real-time reader never waits on a decoder.

Configuration is read from audcache.yaml (current directory or the user
config directory) and can be overridden with AUDCACHE_* environment
variables, e.g. AUDCACHE_CACHE_MEMORY_LIMIT=64MiB.

Use "audcache [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command for testing purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./audcache.yaml or $XDG_CONFIG_HOME/audcache/audcache.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(configCmd)
}
