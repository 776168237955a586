package registry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clientv3 "go.etcd.io/etcd/client/v3"
)

func TestNewClientRequiresEndpoints(t *testing.T) {
	_, err := NewClient(Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "endpoints cannot be empty")
}

func TestKeyLayout(t *testing.T) {
	c := &Client{namespace: "attackkb"}

	assert.Equal(t, "/attackkb/snapshots/17.1/abc", c.buildKey("17.1", "abc"))
	assert.Equal(t, "/attackkb/snapshots/17.1/", c.buildPrefix("17.1"))
	assert.Equal(t, "/attackkb/snapshots/", c.buildPrefix(""))
}

// newUnconnectedClient builds a Client against an unreachable endpoint. The
// etcd client dials lazily, so construction succeeds and every query fails
// or times out, which is enough to exercise locking behavior.
func newUnconnectedClient(t *testing.T) *Client {
	t.Helper()

	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   []string{"127.0.0.1:1"},
		DialTimeout: 100 * time.Millisecond,
	})
	require.NoError(t, err)

	c := &Client{
		client:     cli,
		namespace:  "attackkb",
		ttl:        30,
		leases:     make(map[string]clientv3.LeaseID),
		versions:   make(map[string]string),
		cancelFns:  make(map[string]context.CancelFunc),
		closedChan: make(chan struct{}),
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestWatchDoesNotHoldLockDuringQuery(t *testing.T) {
	c := newUnconnectedClient(t)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = c.Watch(ctx, "17.1")
	}()

	// Let Watch get into its etcd query, then verify a writer can take the
	// lock while that query is still in flight. Holding a read lock across
	// the query would stall the writer here and, with the nested read lock
	// Watch used to take, deadlock both goroutines.
	time.Sleep(50 * time.Millisecond)

	locked := make(chan struct{})
	go func() {
		c.mu.Lock()
		delete(c.versions, "absent")
		c.mu.Unlock()
		close(locked)
	}()

	select {
	case <-locked:
	case <-time.After(200 * time.Millisecond):
		t.Fatal("write lock unavailable while a registry query was in flight")
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after its context deadline")
	}
}

func TestNewTLSInfo(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *TLSConfig
		wantNil bool
		wantErr string
	}{
		{name: "nil config", cfg: nil, wantNil: true},
		{name: "disabled", cfg: &TLSConfig{Enabled: false}, wantNil: true},
		{
			name:    "missing cert",
			cfg:     &TLSConfig{Enabled: true, KeyFile: "k.pem", CAFile: "ca.pem"},
			wantErr: "cert file",
		},
		{
			name:    "missing key",
			cfg:     &TLSConfig{Enabled: true, CertFile: "c.pem", CAFile: "ca.pem"},
			wantErr: "key file",
		},
		{
			name:    "missing ca",
			cfg:     &TLSConfig{Enabled: true, CertFile: "c.pem", KeyFile: "k.pem"},
			wantErr: "CA file",
		},
		{
			name: "complete",
			cfg:  &TLSConfig{Enabled: true, CertFile: "c.pem", KeyFile: "k.pem", CAFile: "ca.pem"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := newTLSInfo(tt.cfg)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, info)
			} else {
				assert.NotNil(t, info)
			}
		})
	}
}
