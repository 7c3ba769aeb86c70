package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"batch-engine/core/entity"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var skipInvalid bool

// seedCmd loads entities from a JSON file into the store.
var seedCmd = &cobra.Command{
	Use:   "seed <entity-type> <file.json>",
	Short: "Load entities from a JSON array into the store",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		entityType, path := args[0], args[1]

		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		var records []map[string]any
		if err := json.Unmarshal(raw, &records); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}

		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		created, skipped := 0, 0
		for _, rec := range records {
			if _, err := a.Store.Create(cmd.Context(), entityType, rec); err != nil {
				if skipInvalid && entity.IsValidation(err) {
					skipped++
					a.Logger.Warn("Skipping entity", zap.Error(err))
					continue
				}
				return err
			}
			created++
		}

		a.Logger.Info("Seed completed",
			zap.String("entity_type", entityType),
			zap.Int("created", created),
			zap.Int("skipped", skipped))
		return nil
	},
}

func init() {
	seedCmd.Flags().BoolVar(&skipInvalid, "skip-invalid", false, "Skip records the store rejects instead of aborting")
	RootCmd.AddCommand(seedCmd)
}
