package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-zraid/internal/device"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the resolved device configuration",
	Long: `Resolve and validate the device configuration.

Settings come from zraid-config.yaml (searched in ., ./config,
$HOME/.zraid, /etc/zraid), overridable through ZRAID_* environment
variables; unset values fall back to built-in defaults. The printed
geometry is what mkzoned and the mem:/dev:/zonefs: backends will use.

Examples:
  zraid config
  ZRAID_ZONE_SIZE=0x200000 zraid config -o json`,

	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runConfig(); err != nil {
			cobra.CheckErr(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig() error {
	cfg, err := device.LoadZonedConfig()
	if err != nil {
		return err
	}

	return printOutput(func() error {
		fmt.Printf("block size:       %d\n", cfg.BlockSize)
		fmt.Printf("zone size:        %#x\n", cfg.ZoneSize)
		fmt.Printf("zones:            %d\n", cfg.NrZones)
		fmt.Printf("max active zones: %d\n", cfg.MaxActiveZones)
		fmt.Printf("max open zones:   %d\n", cfg.MaxOpenZones)
		fmt.Printf("device path:      %s\n", cfg.DevicePath)
		return nil
	}, cfg)
}
