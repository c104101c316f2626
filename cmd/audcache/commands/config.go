// SPDX-License-Identifier: EPL-2.0

package commands

import (
	"fmt"
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/ik5/audcache/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Show the configuration after the config file, AUDCACHE_* environment
variables and defaults have been applied.`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

func runConfig(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	rc := cfg.Cache.ReaderConfig()

	metrics := "disabled"
	if cfg.Metrics.Enabled {
		metrics = fmt.Sprintf(":%d/metrics", cfg.Metrics.Port)
	}

	printPairs(cmd.OutOrStdout(), [][2]string{
		{"log level", cfg.Logging.Level},
		{"log format", cfg.Logging.Format},
		{"log output", cfg.Logging.Output},
		{"cache", fmt.Sprintf("%d chunks x %d frames (%s)", rc.PoolChunks, rc.FramesPerChunk, humanize.IBytes(rc.MemoryBytes()))},
		{"hint window", humanize.Comma(rc.DefaultHintFrames) + " frames"},
		{"chunks per hint", strconv.Itoa(rc.MaxChunksPerHint)},
		{"buffer", fmt.Sprintf("%d frames", cfg.Playback.BufferFrames)},
		{"reverse", strconv.FormatBool(cfg.Playback.Reverse)},
		{"realtime", strconv.FormatBool(cfg.Playback.Realtime)},
		{"load timeout", cfg.Playback.LoadTimeout.String()},
		{"metrics", metrics},
	})
	return nil
}

// printPairs writes an aligned key/value table.
func printPairs(w io.Writer, pairs [][2]string) {
	table := tablewriter.NewWriter(w)

	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator(":")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)

	for _, pair := range pairs {
		table.Append([]string{pair[0], pair[1]})
	}

	table.Render()
}
