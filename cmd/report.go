package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-zraid/internal/device"
	"github.com/deploymenttheory/go-zraid/internal/types"
)

var reportLimit int

var reportCmd = &cobra.Command{
	Use:   "report <raid-uri>",
	Short: "List the logical zones of a raid set",
	Long: `Open a raid set and print its synthesized zone table.

Examples:
  zraid report "raid1:mem:a,mem:b"
  zraid report "raida:mem:a,mem:b,mem:c,mem:d" --limit 16`,

	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runReport(args[0]); err != nil {
			cobra.CheckErr(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().IntVar(&reportLimit, "limit", 0, "print at most this many zones (0 = all)")
}

func condName(cond uint8) string {
	switch cond {
	case types.ZoneCondNotWP:
		return "not-wp"
	case types.ZoneCondEmpty:
		return "empty"
	case types.ZoneCondImpOpen:
		return "imp-open"
	case types.ZoneCondExpOpen:
		return "exp-open"
	case types.ZoneCondClosed:
		return "closed"
	case types.ZoneCondReadOnly:
		return "read-only"
	case types.ZoneCondFull:
		return "full"
	case types.ZoneCondOffline:
		return "offline"
	}
	return fmt.Sprintf("unknown(%#x)", cond)
}

func runReport(uri string) error {
	cfg, err := device.LoadZonedConfig()
	if err != nil {
		return err
	}

	dev, err := device.OpenURI(uri, cfg, newLogger())
	if err != nil {
		return err
	}
	defer dev.Shutdown()

	if _, _, err := dev.Open(true, false); err != nil {
		return err
	}

	zones, err := dev.ListZones()
	if err != nil {
		return err
	}

	count := zones.ZoneCount()
	if reportLimit > 0 && reportLimit < count {
		count = reportLimit
	}

	type zoneRow struct {
		Zone     int    `json:"zone"`
		Start    uint64 `json:"start"`
		Capacity uint64 `json:"capacity"`
		WP       uint64 `json:"wp"`
		Cond     string `json:"cond"`
	}
	rows := make([]zoneRow, count)
	for i := 0; i < count; i++ {
		z := zones.At(uint32(i))
		rows[i] = zoneRow{
			Zone:     i,
			Start:    z.Start,
			Capacity: z.Capacity,
			WP:       z.WP,
			Cond:     condName(z.Cond),
		}
	}

	return printOutput(func() error {
		w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ZONE\tSTART\tCAPACITY\tWP\tCOND")
		for _, row := range rows {
			fmt.Fprintf(w, "%d\t%#x\t%#x\t%#x\t%s\n", row.Zone, row.Start, row.Capacity, row.WP, row.Cond)
		}
		if count < zones.ZoneCount() {
			fmt.Fprintf(w, "... %d more zones\n", zones.ZoneCount()-count)
		}
		return w.Flush()
	}, rows)
}
