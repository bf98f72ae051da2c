package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-zraid/internal/interfaces"
	"github.com/deploymenttheory/go-zraid/internal/logging"
)

var (
	// Global output flags only
	verbose      bool
	quiet        bool
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "zraid",
	Short: "RAID aggregation tool for zoned block devices",
	Long: `zraid aggregates zoned block devices of identical geometry into a
single logical zoned device using concatenation, mirroring, block
striping, or a per-zone auto policy.

Devices are named by URI:

  raid<mode>:<backend>[,<backend>]*
  backend := dev:<name> | zonefs:<path> | mem:<name>
  mode    := c | 0 | 1 | a

Commands:
  info     Print the aggregated device geometry
  report   List the logical zones of a raid set
  mkzoned  Create a file-backed zoned device image
  config   Print the resolved device configuration`,
	Version: "0.1.0-dev",
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress output except errors")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format (table, json)")
}

// newLogger builds the log sink selected by the global flags.
func newLogger() interfaces.Logger {
	return logging.NewDefaultSink(verbose, quiet)
}

// printOutput renders a result in the selected output format. table
// rendering is per-command; everything structured goes through JSON.
func printOutput(table func() error, v any) error {
	switch outputFormat {
	case "table":
		return table()
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	return fmt.Errorf("unknown output format %q (want table or json)", outputFormat)
}
