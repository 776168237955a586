// Package registry advertises knowledge-base instances in etcd so
// consumers can discover who serves which dataset version.
//
// Each running instance announces a SnapshotInfo entry under a lease and
// keeps it alive for as long as the process is healthy. When a snapshot
// refresh swaps in a new dataset version, the instance re-announces with the
// new version; when the process dies, the lease expires and the entry
// disappears on its own.
package registry

import (
	"context"
	"time"
)

// SnapshotInfo describes one knowledge-base instance and the snapshot it
// currently serves.
type SnapshotInfo struct {
	// InstanceID uniquely identifies this process, typically a UUID. Several
	// instances may serve the same dataset version concurrently.
	InstanceID string `json:"instance_id"`

	// Endpoint is the network address where this instance can be reached,
	// "host:port" for TCP or "unix:///path" for Unix domain sockets.
	Endpoint string `json:"endpoint"`

	// DatasetVersion is the ATT&CK release the active snapshot was loaded
	// from (e.g., "17.1").
	DatasetVersion string `json:"dataset_version"`

	// SnapshotID names the in-memory snapshot instance. It changes on every
	// refresh, even when the dataset version does not.
	SnapshotID string `json:"snapshot_id"`

	// Domains lists the domains loaded into the active snapshot.
	Domains []string `json:"domains"`

	// LoadedAt is when the active snapshot was constructed.
	LoadedAt time.Time `json:"loaded_at"`

	// Metadata carries custom key-value attributes.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Registry is the advertisement and discovery interface.
//
// Implementations must be safe for concurrent use. Entries are held under
// leases with a TTL so stale instances fall out automatically.
type Registry interface {
	// Announce publishes this instance's snapshot info. The entry stays
	// visible while the lease is renewed in the background. Announcing the
	// same instance again replaces its entry, which is how a snapshot
	// refresh propagates.
	Announce(ctx context.Context, info SnapshotInfo) error

	// Withdraw removes this instance's entry immediately. Withdrawing an
	// instance that never announced is a no-op.
	Withdraw(ctx context.Context, info SnapshotInfo) error

	// Instances lists the announced instances serving a dataset version.
	// An empty version lists every instance.
	Instances(ctx context.Context, version string) ([]SnapshotInfo, error)

	// Watch emits the instance list for a version whenever it changes,
	// starting with the current state. The channel closes when the context
	// is canceled or the registry is closed.
	Watch(ctx context.Context, version string) (<-chan []SnapshotInfo, error)

	// Close stops keepalives and watches and releases the connection.
	Close() error
}

// Config holds the etcd connection settings.
type Config struct {
	// Endpoints lists the etcd cluster members, e.g. ["host1:2379"].
	Endpoints []string `json:"endpoints" yaml:"endpoints"`

	// Namespace is the key prefix for all entries. Instances live under
	// /{namespace}/snapshots/{version}/{instance-id}. Default: "attackkb".
	Namespace string `json:"namespace" yaml:"namespace"`

	// TTL is the lease time-to-live in seconds. An instance that fails to
	// renew within this window drops out of discovery. Default: 30.
	TTL int `json:"ttl" yaml:"ttl"`

	// TLS enables mutual TLS toward etcd. Nil disables TLS.
	TLS *TLSConfig `json:"tls" yaml:"tls"`
}

// TLSConfig holds certificate paths for mutual TLS toward etcd.
type TLSConfig struct {
	Enabled  bool   `json:"enabled" yaml:"enabled"`
	CertFile string `json:"cert_file" yaml:"cert_file"`
	KeyFile  string `json:"key_file" yaml:"key_file"`
	CAFile   string `json:"ca_file" yaml:"ca_file"`
}
