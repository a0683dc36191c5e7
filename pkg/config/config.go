package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

type StoreBackend string

const (
	BackendMemory StoreBackend = "memory"
	BackendEtcd   StoreBackend = "etcd"
)

type Config struct {
	Store      StoreConfig      `json:"store"`
	Governance GovernanceConfig `json:"governance"`

	// RateLimitPerMinute of 0 disables the admission guard.
	RateLimitPerMinute uint32 `json:"rate_limit_per_minute,omitempty"`

	// BootstrapUploader is seeded as the first authorized uploader when the
	// allow-list is empty.
	BootstrapUploader string `json:"bootstrap_uploader,omitempty"`
}

type StoreConfig struct {
	Backend            StoreBackend `json:"backend"`
	Endpoints          []string     `json:"endpoints,omitempty"`
	Prefix             string       `json:"prefix,omitempty"`
	DialTimeoutSeconds int          `json:"dial_timeout_seconds,omitempty"`
}

type GovernanceConfig struct {
	Enabled           bool   `json:"enabled"`
	VotingPeriodHours uint32 `json:"voting_period_hours"`
	QuorumThreshold   uint32 `json:"quorum_threshold"`
	ApprovalThreshold uint32 `json:"approval_threshold"`
}

func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Backend: BackendMemory,
			Prefix:  "/modelvault/",
		},
		Governance: GovernanceConfig{
			Enabled:           true,
			VotingPeriodHours: 7 * 24,
			QuorumThreshold:   33,
			ApprovalThreshold: 66,
		},
	}
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func LoadFromEnv() *Config {
	cfg := Default()

	cfg.Store.Backend = StoreBackend(getEnv("MODELVAULT_STORE_BACKEND", string(cfg.Store.Backend)))
	if endpoints := os.Getenv("MODELVAULT_ETCD_ENDPOINTS"); endpoints != "" {
		cfg.Store.Endpoints = strings.Split(endpoints, ",")
	}
	cfg.Store.Prefix = getEnv("MODELVAULT_STORE_PREFIX", cfg.Store.Prefix)
	cfg.BootstrapUploader = getEnv("MODELVAULT_BOOTSTRAP_UPLOADER", "")

	if limit := os.Getenv("MODELVAULT_RATE_LIMIT"); limit != "" {
		if parsed, err := strconv.ParseUint(limit, 10, 32); err == nil {
			cfg.RateLimitPerMinute = uint32(parsed)
		}
	}

	if enabled := os.Getenv("MODELVAULT_GOVERNANCE_ENABLED"); enabled != "" {
		if parsed, err := strconv.ParseBool(enabled); err == nil {
			cfg.Governance.Enabled = parsed
		}
	}
	setUint32Env("MODELVAULT_GOVERNANCE_VOTING_PERIOD_HOURS", &cfg.Governance.VotingPeriodHours)
	setUint32Env("MODELVAULT_GOVERNANCE_QUORUM", &cfg.Governance.QuorumThreshold)
	setUint32Env("MODELVAULT_GOVERNANCE_APPROVAL", &cfg.Governance.ApprovalThreshold)

	return cfg
}

func setUint32Env(key string, target *uint32) {
	value := os.Getenv(key)
	if value == "" {
		return
	}
	if parsed, err := strconv.ParseUint(value, 10, 32); err == nil {
		*target = uint32(parsed)
	}
}

func (c *Config) Validate() error {
	if c.Store.Backend != BackendMemory && c.Store.Backend != BackendEtcd {
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.Store.Backend == BackendEtcd && len(c.Store.Endpoints) == 0 {
		return fmt.Errorf("etcd backend requires at least one endpoint")
	}
	if c.Governance.QuorumThreshold > 100 || c.Governance.ApprovalThreshold > 100 {
		return fmt.Errorf("governance thresholds are percentages, must be <= 100")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
