package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"modelvault/pkg/audit"
	"modelvault/pkg/chunkstore"
	"modelvault/pkg/config"
	"modelvault/pkg/governance"
	"modelvault/pkg/guard"
	"modelvault/pkg/metrics"
	"modelvault/pkg/registry"
	"modelvault/pkg/store"
	"modelvault/pkg/types"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	configFile string
	verbose    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "modelvault",
		Short: "Versioned chunked model-weight registry",
		Long: `Registry for versioned, chunked model-weight artifacts with integrity
verification, a controlled publication lifecycle, an immutable audit trail
and quorum-based governance.`,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	rootCmd.AddCommand(
		statsCmd(),
		auditCmd(),
		cleanupCmd(),
		uploaderCmd(),
		governanceCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("modelvault v0.1.0")
		},
	}
}

func setupLogger(verbose bool) *zap.Logger {
	config := zap.NewProductionConfig()
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		config.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, _ := config.Build()
	return logger
}

func loadConfig() (*config.Config, error) {
	if configFile != "" {
		return config.LoadConfig(configFile)
	}
	return config.LoadFromEnv(), nil
}

// vault is the assembled stack a CLI command operates on.
type vault struct {
	registry   *registry.Registry
	governance *governance.Engine
	close      func()
}

func openVault(logger *zap.Logger) (*vault, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	var (
		backing store.Store
		closeFn = func() {}
	)
	switch cfg.Store.Backend {
	case config.BackendEtcd:
		etcdStore, err := store.NewEtcdStore(store.EtcdConfig{
			Endpoints:   cfg.Store.Endpoints,
			DialTimeout: time.Duration(cfg.Store.DialTimeoutSeconds) * time.Second,
			Prefix:      cfg.Store.Prefix,
		}, logger)
		if err != nil {
			return nil, err
		}
		backing = etcdStore
		closeFn = func() { etcdStore.Close() }
	default:
		backing = store.NewMemoryStore()
	}

	m := metrics.NewRegistryMetrics(nil)
	reg := registry.New(backing, chunkstore.New(backing, logger), audit.NewLog(backing, logger), logger).
		WithMetrics(m)
	if !cfg.Governance.Enabled {
		reg.WithGovernanceDisabled()
	}
	if cfg.RateLimitPerMinute > 0 {
		limiter := guard.NewRateLimiter()
		limiter.SetDefaultLimit(cfg.RateLimitPerMinute)
		reg.WithRateLimiter(limiter)
	}

	if cfg.BootstrapUploader != "" {
		err := reg.SeedUploader(context.Background(), cfg.BootstrapUploader)
		if err != nil && !errors.Is(err, types.ErrUnauthorized) {
			closeFn()
			return nil, err
		}
	}

	engine := governance.NewEngine(backing, governance.Config{
		VotingPeriod:      time.Duration(cfg.Governance.VotingPeriodHours) * time.Hour,
		QuorumThreshold:   cfg.Governance.QuorumThreshold,
		ApprovalThreshold: cfg.Governance.ApprovalThreshold,
	}, logger).WithMetrics(m)

	return &vault{registry: reg, governance: engine, close: closeFn}, nil
}
