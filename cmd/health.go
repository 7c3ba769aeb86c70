package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"batch-engine/feature/query"

	"github.com/spf13/cobra"
)

// healthCmd runs one health check and prints the report.
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Print a one-shot health report",
	Long:  `Probes the entity store, memory and cache once and prints the report as JSON. Exits non-zero when unhealthy.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		report := a.System.Health(cmd.Context())

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
		if report.Status == query.StatusUnhealthy {
			return fmt.Errorf("service is %s", report.Status)
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(healthCmd)
}
