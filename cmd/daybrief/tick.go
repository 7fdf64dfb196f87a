package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

var tickCmd = &cobra.Command{
	Use:   "tick",
	Short: "Run every schedule that is due now, then exit",
	Long: `Run every schedule that is due now, then exit. Intended for an external
cron that fires at least once a minute. Outcomes are printed as JSON.`,
	RunE: runTick,
}

func init() {
	rootCmd.AddCommand(tickCmd)
}

func runTick(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	outcomes, err := a.engine.RunDue(ctx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{"executed": outcomes})
}
