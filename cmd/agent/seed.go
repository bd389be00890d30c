package main

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/iliyamo/provider-sync/internal/provider"
)

var seedForce bool

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Write the demo fixture as the agent's snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		storage, err := openStorage(cfg)
		if err != nil {
			return err
		}
		defer storage.Close()

		key := storeKey(cfg)
		existing, err := storage.Load(cmd.Context(), key)
		if err != nil {
			return err
		}
		if existing != nil && !seedForce {
			return fmt.Errorf("snapshot %q already exists; use --force to replace it", key)
		}

		data, err := json.Marshal(provider.State{
			Reservations: provider.DemoReservations(),
			Slots:        provider.DemoSlots(),
			Online:       true,
		})
		if err != nil {
			return err
		}
		if err := storage.Save(cmd.Context(), key, data); err != nil {
			return err
		}
		log.Printf("agent: seeded %q in %s storage", key, cfg.Storage)
		return nil
	},
}

func init() {
	seedCmd.Flags().BoolVar(&seedForce, "force", false, "replace an existing snapshot")
}
