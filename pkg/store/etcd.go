package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/containerd/errdefs"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap"
)

// EtcdConfig configures the etcd-backed store.
type EtcdConfig struct {
	Endpoints   []string
	DialTimeout time.Duration
	Prefix      string
}

// EtcdStore implements Store on an etcd cluster. All keys are scoped under a
// configurable prefix so several registries can share a cluster.
type EtcdStore struct {
	client *clientv3.Client
	prefix string
	logger *zap.Logger
}

// NewEtcdStore connects to etcd and probes the first endpoint before
// returning, so a misconfigured cluster fails at startup rather than on the
// first registry call.
func NewEtcdStore(cfg EtcdConfig, logger *zap.Logger) (*EtcdStore, error) {
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = 5 * time.Second
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "/modelvault/"
	}
	if !strings.HasSuffix(cfg.Prefix, "/") {
		cfg.Prefix += "/"
	}

	client, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: cfg.DialTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to etcd: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if _, err := client.Status(ctx, cfg.Endpoints[0]); err != nil {
		client.Close()
		return nil, fmt.Errorf("etcd health check failed: %w", err)
	}

	logger.Info("Connected to etcd",
		zap.Strings("endpoints", cfg.Endpoints),
		zap.String("prefix", cfg.Prefix))

	return &EtcdStore{client: client, prefix: cfg.Prefix, logger: logger}, nil
}

func (s *EtcdStore) Close() error {
	return s.client.Close()
}

func (s *EtcdStore) Put(ctx context.Context, key string, value []byte) error {
	if _, err := s.client.Put(ctx, s.prefix+key, string(value)); err != nil {
		return fmt.Errorf("etcd put %s: %w", key, err)
	}
	return nil
}

func (s *EtcdStore) Get(ctx context.Context, key string) ([]byte, error) {
	resp, err := s.client.Get(ctx, s.prefix+key)
	if err != nil {
		return nil, fmt.Errorf("etcd get %s: %w", key, err)
	}
	if len(resp.Kvs) == 0 {
		return nil, fmt.Errorf("key %s: %w", key, errdefs.ErrNotFound)
	}
	return resp.Kvs[0].Value, nil
}

func (s *EtcdStore) Delete(ctx context.Context, key string) error {
	if _, err := s.client.Delete(ctx, s.prefix+key); err != nil {
		return fmt.Errorf("etcd delete %s: %w", key, err)
	}
	return nil
}

func (s *EtcdStore) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	resp, err := s.client.Get(ctx, s.prefix+prefix,
		clientv3.WithPrefix(),
		clientv3.WithKeysOnly(),
		clientv3.WithSort(clientv3.SortByKey, clientv3.SortAscend))
	if err != nil {
		return nil, fmt.Errorf("etcd list %s: %w", prefix, err)
	}

	keys := make([]string, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		keys = append(keys, strings.TrimPrefix(string(kv.Key), s.prefix))
	}
	return keys, nil
}
