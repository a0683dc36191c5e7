package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{
		"store": {"backend": "etcd", "endpoints": ["localhost:2379"]},
		"governance": {"enabled": true, "voting_period_hours": 24, "quorum_threshold": 50, "approval_threshold": 75},
		"rate_limit_per_minute": 120,
		"bootstrap_uploader": "admin"
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, BackendEtcd, cfg.Store.Backend)
	assert.Equal(t, []string{"localhost:2379"}, cfg.Store.Endpoints)
	assert.Equal(t, uint32(50), cfg.Governance.QuorumThreshold)
	assert.Equal(t, uint32(120), cfg.RateLimitPerMinute)
	assert.Equal(t, "admin", cfg.BootstrapUploader)
}

func TestLoadConfigValidation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	t.Run("Etcd backend needs endpoints", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, []byte(`{"store": {"backend": "etcd"}}`), 0644))
		_, err := LoadConfig(path)
		assert.Error(t, err)
	})

	t.Run("Unknown backend", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, []byte(`{"store": {"backend": "cassette"}}`), 0644))
		_, err := LoadConfig(path)
		assert.Error(t, err)
	})

	t.Run("Threshold over 100", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, []byte(`{"governance": {"quorum_threshold": 101}}`), 0644))
		_, err := LoadConfig(path)
		assert.Error(t, err)
	})
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("MODELVAULT_STORE_BACKEND", "etcd")
	t.Setenv("MODELVAULT_ETCD_ENDPOINTS", "one:2379,two:2379")
	t.Setenv("MODELVAULT_RATE_LIMIT", "30")

	cfg := LoadFromEnv()
	assert.Equal(t, BackendEtcd, cfg.Store.Backend)
	assert.Equal(t, []string{"one:2379", "two:2379"}, cfg.Store.Endpoints)
	assert.Equal(t, uint32(30), cfg.RateLimitPerMinute)
}

func TestLoadFromEnvGovernance(t *testing.T) {
	t.Setenv("MODELVAULT_GOVERNANCE_ENABLED", "false")
	t.Setenv("MODELVAULT_GOVERNANCE_VOTING_PERIOD_HOURS", "48")
	t.Setenv("MODELVAULT_GOVERNANCE_QUORUM", "50")
	t.Setenv("MODELVAULT_GOVERNANCE_APPROVAL", "75")

	cfg := LoadFromEnv()
	assert.False(t, cfg.Governance.Enabled)
	assert.Equal(t, uint32(48), cfg.Governance.VotingPeriodHours)
	assert.Equal(t, uint32(50), cfg.Governance.QuorumThreshold)
	assert.Equal(t, uint32(75), cfg.Governance.ApprovalThreshold)
}

func TestDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, BackendMemory, cfg.Store.Backend)
	assert.True(t, cfg.Governance.Enabled)
	assert.Equal(t, uint32(33), cfg.Governance.QuorumThreshold)
	assert.Equal(t, uint32(66), cfg.Governance.ApprovalThreshold)
	assert.NoError(t, cfg.Validate())
}
