package config

import (
    "strings"
    "time"
)

// Storage backends accepted by AGENT_STORAGE.
const (
    StorageSQLite = "sqlite"
    StorageRedis  = "redis"
    StorageMemory = "memory"
)

// AgentConfig configures the offline sync agent.  Nothing is required: an
// agent with no backend token simply fails every call and queues.
type AgentConfig struct {
    Port            string
    BackendURL      string
    BackendToken    string
    Storage         string
    SQLitePath      string
    StoreKey        string
    StartOnline     bool
    BreakerFailures int
    BreakerTimeout  time.Duration
    RequestTimeout  time.Duration
    Retries         int
}

// LoadAgent reads AGENT_* variables, after .env.
func LoadAgent() AgentConfig {
    LoadDotEnv()
    cfg := AgentConfig{
        Port:            envStr("AGENT_PORT", "8090"),
        BackendURL:      envStr("AGENT_BACKEND_URL", "http://127.0.0.1:8080"),
        BackendToken:    envStr("AGENT_BACKEND_TOKEN", ""),
        Storage:         strings.ToLower(envStr("AGENT_STORAGE", StorageSQLite)),
        SQLitePath:      envStr("AGENT_SQLITE_PATH", "data/agent.db"),
        StoreKey:        envStr("AGENT_STORE_KEY", ""),
        StartOnline:     envBool("AGENT_START_ONLINE", true),
        BreakerFailures: envInt("AGENT_BREAKER_FAILURES", 5),
        BreakerTimeout:  envDur("AGENT_BREAKER_TIMEOUT", 30*time.Second),
        RequestTimeout:  envDur("AGENT_REQUEST_TIMEOUT", 10*time.Second),
        Retries:         envInt("AGENT_RETRIES", 2),
    }
    switch cfg.Storage {
    case StorageSQLite, StorageRedis, StorageMemory:
    default:
        cfg.Storage = StorageSQLite
    }
    if cfg.BreakerFailures < 1 { cfg.BreakerFailures = 1 }
    if cfg.Retries < 0 { cfg.Retries = 0 }
    return cfg
}
