package config

import (
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
)

func TestLoadAgentDefaults(t *testing.T) {
    for _, k := range []string{"AGENT_PORT", "AGENT_STORAGE", "AGENT_START_ONLINE", "AGENT_BREAKER_FAILURES", "AGENT_BREAKER_TIMEOUT"} {
        t.Setenv(k, "")
    }
    cfg := LoadAgent()
    assert.Equal(t, "8090", cfg.Port)
    assert.Equal(t, StorageSQLite, cfg.Storage)
    assert.True(t, cfg.StartOnline)
    assert.Equal(t, 5, cfg.BreakerFailures)
    assert.Equal(t, 30*time.Second, cfg.BreakerTimeout)
}

func TestLoadAgentOverrides(t *testing.T) {
    t.Setenv("AGENT_STORAGE", "REDIS")
    t.Setenv("AGENT_START_ONLINE", "off")
    t.Setenv("AGENT_BREAKER_FAILURES", "0")
    t.Setenv("AGENT_BREAKER_TIMEOUT", "5s")
    cfg := LoadAgent()
    assert.Equal(t, StorageRedis, cfg.Storage)
    assert.False(t, cfg.StartOnline)
    assert.Equal(t, 1, cfg.BreakerFailures)
    assert.Equal(t, 5*time.Second, cfg.BreakerTimeout)
}

func TestLoadAgentUnknownStorageFallsBack(t *testing.T) {
    t.Setenv("AGENT_STORAGE", "etcd")
    assert.Equal(t, StorageSQLite, LoadAgent().Storage)
}

func TestLoadRateLimitConfigClamps(t *testing.T) {
    t.Setenv("RATE_LIMIT_CAPACITY", "0")
    t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
    t.Setenv("RATE_LIMIT_TTL", "1s")
    cfg := LoadRateLimitConfig()
    assert.Equal(t, 1, cfg.Capacity)
    assert.Equal(t, 10*time.Second, cfg.TTL)
}
