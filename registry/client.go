package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// Client implements Registry against an etcd cluster.
//
// Lease management is automatic: every announced instance gets a lease with
// the configured TTL, renewed every TTL/3 by a background goroutine.
type Client struct {
	client    *clientv3.Client
	namespace string
	ttl       int

	mu         sync.RWMutex
	leases     map[string]clientv3.LeaseID
	versions   map[string]string // instance ID -> announced version, for key cleanup
	cancelFns  map[string]context.CancelFunc
	wg         sync.WaitGroup
	closed     bool
	closedChan chan struct{}
}

// NewClient connects to etcd and verifies connectivity before handing out
// the client. Close must be called to stop background keepalives.
func NewClient(cfg Config) (*Client, error) {
	if len(cfg.Endpoints) == 0 {
		return nil, fmt.Errorf("registry endpoints cannot be empty")
	}

	namespace := cfg.Namespace
	if namespace == "" {
		namespace = "attackkb"
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30
	}

	clientCfg := clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: 5 * time.Second,
	}
	if cfg.TLS != nil && cfg.TLS.Enabled {
		tlsInfo, err := newTLSInfo(cfg.TLS)
		if err != nil {
			return nil, fmt.Errorf("failed to configure TLS: %w", err)
		}
		tlsConfig, err := tlsInfo.ClientConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to create TLS config: %w", err)
		}
		clientCfg.TLS = tlsConfig
	}

	cli, err := clientv3.New(clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create etcd client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if _, err := cli.Get(ctx, "health-check"); err != nil && err != context.DeadlineExceeded {
		cli.Close()
		return nil, fmt.Errorf("etcd health check failed: %w", err)
	}

	return &Client{
		client:     cli,
		namespace:  namespace,
		ttl:        ttl,
		leases:     make(map[string]clientv3.LeaseID),
		versions:   make(map[string]string),
		cancelFns:  make(map[string]context.CancelFunc),
		closedChan: make(chan struct{}),
	}, nil
}

// Announce publishes the instance's snapshot info under a fresh lease and
// starts its keepalive. Re-announcing replaces the previous entry; when the
// dataset version changed, the old version's key is removed so the instance
// never appears under two versions at once.
func (c *Client) Announce(ctx context.Context, info SnapshotInfo) error {
	if info.InstanceID == "" {
		return fmt.Errorf("instance ID cannot be empty")
	}
	if info.DatasetVersion == "" {
		return fmt.Errorf("dataset version cannot be empty")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return fmt.Errorf("registry client is closed")
	}

	// Stop the previous keepalive and clean up a stale version key if this
	// instance moved to a new dataset version.
	if cancelFn, exists := c.cancelFns[info.InstanceID]; exists {
		cancelFn()
		delete(c.cancelFns, info.InstanceID)
	}
	if prev, exists := c.versions[info.InstanceID]; exists && prev != info.DatasetVersion {
		if _, err := c.client.Delete(ctx, c.buildKey(prev, info.InstanceID)); err != nil {
			return fmt.Errorf("failed to remove stale entry: %w", err)
		}
	}

	leaseResp, err := c.client.Grant(ctx, int64(c.ttl))
	if err != nil {
		return fmt.Errorf("failed to create lease: %w", err)
	}

	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot info: %w", err)
	}

	key := c.buildKey(info.DatasetVersion, info.InstanceID)
	if _, err := c.client.Put(ctx, key, string(data), clientv3.WithLease(leaseResp.ID)); err != nil {
		return fmt.Errorf("failed to announce instance: %w", err)
	}

	c.leases[info.InstanceID] = leaseResp.ID
	c.versions[info.InstanceID] = info.DatasetVersion

	keepaliveCtx, cancel := context.WithCancel(context.Background())
	c.cancelFns[info.InstanceID] = cancel

	c.wg.Add(1)
	go c.keepalive(keepaliveCtx, leaseResp.ID, info.InstanceID)

	return nil
}

// Withdraw revokes the instance's lease, which deletes its entry. Unknown
// instances are a no-op.
func (c *Client) Withdraw(ctx context.Context, info SnapshotInfo) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return fmt.Errorf("registry client is closed")
	}

	if cancelFn, exists := c.cancelFns[info.InstanceID]; exists {
		cancelFn()
		delete(c.cancelFns, info.InstanceID)
	}

	leaseID, exists := c.leases[info.InstanceID]
	if !exists {
		return nil
	}
	if _, err := c.client.Revoke(ctx, leaseID); err != nil {
		return fmt.Errorf("failed to revoke lease: %w", err)
	}

	delete(c.leases, info.InstanceID)
	delete(c.versions, info.InstanceID)
	return nil
}

// Instances lists the announced instances for a dataset version, or every
// instance when version is empty. Order is arbitrary.
//
// The lock is only held for the closed check, never across the etcd query,
// so writers are not blocked behind slow or unreachable endpoints.
func (c *Client) Instances(ctx context.Context, version string) ([]SnapshotInfo, error) {
	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		return nil, fmt.Errorf("registry client is closed")
	}

	resp, err := c.client.Get(ctx, c.buildPrefix(version), clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("failed to list instances: %w", err)
	}

	instances := make([]SnapshotInfo, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		var info SnapshotInfo
		if err := json.Unmarshal(kv.Value, &info); err != nil {
			// Skip invalid entries
			continue
		}
		instances = append(instances, info)
	}
	return instances, nil
}

// Watch emits the instance list for a version whenever the set changes. The
// initial state is sent immediately; the channel closes with the context or
// the client.
func (c *Client) Watch(ctx context.Context, version string) (<-chan []SnapshotInfo, error) {
	// Instances checks the closed flag itself; taking the lock here and
	// calling it would nest read locks, which deadlocks against a queued
	// writer.
	instances, err := c.Instances(ctx, version)
	if err != nil {
		return nil, err
	}

	ch := make(chan []SnapshotInfo, 1)
	ch <- instances

	watchChan := c.client.Watch(ctx, c.buildPrefix(version), clientv3.WithPrefix())

	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return nil, fmt.Errorf("registry client is closed")
	}
	c.wg.Add(1)
	c.mu.RUnlock()

	go func() {
		defer c.wg.Done()
		defer close(ch)

		for {
			select {
			case <-ctx.Done():
				return
			case <-c.closedChan:
				return
			case watchResp, ok := <-watchChan:
				if !ok {
					return
				}
				if watchResp.Err() != nil {
					return
				}

				// Re-query after any change rather than applying deltas.
				instances, err := c.Instances(context.Background(), version)
				if err != nil {
					continue
				}

				select {
				case ch <- instances:
				case <-ctx.Done():
					return
				case <-c.closedChan:
					return
				}
			}
		}
	}()

	return ch, nil
}

// Close stops all keepalives and watches and closes the etcd connection.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true

	for _, cancel := range c.cancelFns {
		cancel()
	}
	c.cancelFns = make(map[string]context.CancelFunc)

	close(c.closedChan)
	c.mu.Unlock()

	c.wg.Wait()
	return c.client.Close()
}

// keepalive renews the lease every TTL/3 until canceled or the lease dies.
func (c *Client) keepalive(ctx context.Context, leaseID clientv3.LeaseID, instanceID string) {
	defer c.wg.Done()

	interval := time.Duration(c.ttl) * time.Second / 3
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.closedChan:
			return
		case <-ticker.C:
			if _, err := c.client.KeepAliveOnce(context.Background(), leaseID); err != nil {
				c.mu.Lock()
				delete(c.leases, instanceID)
				delete(c.versions, instanceID)
				delete(c.cancelFns, instanceID)
				c.mu.Unlock()
				return
			}
		}
	}
}

// buildKey constructs the etcd key for one instance:
// /namespace/snapshots/version/instance-id
func (c *Client) buildKey(version, instanceID string) string {
	return fmt.Sprintf("/%s/snapshots/%s/%s", c.namespace, version, instanceID)
}

// buildPrefix constructs the query prefix for a version, or for every
// version when version is empty.
func (c *Client) buildPrefix(version string) string {
	if version == "" {
		return fmt.Sprintf("/%s/snapshots/", c.namespace)
	}
	return fmt.Sprintf("/%s/snapshots/%s/", c.namespace, version)
}
