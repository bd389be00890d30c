package main

import (
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/iliyamo/provider-sync/internal/config"
	"github.com/iliyamo/provider-sync/internal/persist"
	"github.com/iliyamo/provider-sync/internal/provider"
)

var (
	storageFlag string
	keyFlag     string
)

var rootCmd = &cobra.Command{
	Use:   "agent",
	Short: "Offline-capable sync agent for the provider console",
	Long: `agent keeps a local copy of a provider's reservations and slots.

Edits made while the backend is unreachable are applied locally, queued
and replayed in order once the agent is back online.

Examples:
  agent serve                     # serve the local API on AGENT_PORT
  agent status                    # print connectivity and queue length
  agent seed --storage memory     # write the demo fixture`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.Printf("agent: %s start (run_id=%s)", cmd.CommandPath(), uuid.NewString())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&storageFlag, "storage", "", "snapshot storage: sqlite, redis or memory (default AGENT_STORAGE)")
	rootCmd.PersistentFlags().StringVar(&keyFlag, "key", "", "snapshot key (default AGENT_STORE_KEY)")
	rootCmd.AddCommand(serveCmd, statusCmd, seedCmd)
}

// loadConfig applies the persistent flags over the environment.
func loadConfig() config.AgentConfig {
	cfg := config.LoadAgent()
	if storageFlag != "" {
		cfg.Storage = storageFlag
	}
	if keyFlag != "" {
		cfg.StoreKey = keyFlag
	}
	return cfg
}

func storeKey(cfg config.AgentConfig) string {
	if cfg.StoreKey != "" {
		return cfg.StoreKey
	}
	return provider.DefaultStorageKey
}

// snapshotStore is a provider.Storage that owns a connection.
type snapshotStore interface {
	provider.Storage
	Close() error
}

func openStorage(cfg config.AgentConfig) (snapshotStore, error) {
	switch cfg.Storage {
	case config.StorageMemory:
		return persist.NewMemory(), nil
	case config.StorageRedis:
		rdb := config.NewRedisClient()
		if rdb == nil {
			return nil, fmt.Errorf("redis storage selected but redis is unreachable")
		}
		return persist.NewRedis(rdb), nil
	case config.StorageSQLite:
		return persist.OpenSQLite(cfg.SQLitePath)
	}
	return nil, fmt.Errorf("unknown storage %q", cfg.Storage)
}
