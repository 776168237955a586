package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const fullConfig = `
dataset:
  dir: /var/lib/attackkb/data
  version: "17.1"
  domains: [enterprise, ics]
  refresh_interval: 6h
layer_store:
  url: redis://cache:6379
  ttl: 12h
registry:
  endpoints: ["etcd-1:2379", "etcd-2:2379"]
  namespace: attackkb
  ttl: 15
telemetry:
  enabled: true
logging:
  level: debug
  format: json
`

func TestLoad(t *testing.T) {
	path := writeConfig(t, "attackkb.yaml", fullConfig)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/attackkb/data", cfg.Dataset.Dir)
	assert.Equal(t, "17.1", cfg.Dataset.Version)
	assert.Equal(t, []string{"enterprise", "ics"}, cfg.Dataset.Domains)
	assert.Equal(t, 6*time.Hour, cfg.Dataset.GetRefreshInterval())

	assert.Equal(t, "redis://cache:6379", cfg.LayerStore.GetURL())
	assert.Equal(t, 12*time.Hour, cfg.LayerStore.GetTTL())

	require.NotNil(t, cfg.Registry)
	assert.Equal(t, []string{"etcd-1:2379", "etcd-2:2379"}, cfg.Registry.Endpoints)
	assert.Equal(t, 15, cfg.Registry.TTL)

	assert.True(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "debug", cfg.Logging.GetLevel())
	assert.Equal(t, "json", cfg.Logging.GetFormat())
}

func TestLoadFromDirectory(t *testing.T) {
	path := writeConfig(t, "attackkb.yml", `
dataset:
  dir: ./data
  version: "16.1"
`)

	cfg, err := Load(filepath.Dir(path))
	require.NoError(t, err)
	assert.Equal(t, "16.1", cfg.Dataset.Version)
}

func TestDefaults(t *testing.T) {
	var cfg Config

	assert.Equal(t, time.Duration(0), cfg.Dataset.GetRefreshInterval())
	assert.Equal(t, "redis://localhost:6379", cfg.LayerStore.GetURL())
	assert.Equal(t, 24*time.Hour, cfg.LayerStore.GetTTL())
	assert.Equal(t, "info", cfg.Logging.GetLevel())
	assert.Equal(t, "text", cfg.Logging.GetFormat())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing dir",
			content: "dataset:\n  version: \"17.1\"\n",
			wantErr: "dataset.dir is required",
		},
		{
			name:    "missing version",
			content: "dataset:\n  dir: /data\n",
			wantErr: "dataset.version is required",
		},
		{
			name:    "unknown domain",
			content: "dataset:\n  dir: /data\n  version: \"17.1\"\n  domains: [cloud]\n",
			wantErr: `unknown domain "cloud"`,
		},
		{
			name:    "bad refresh interval",
			content: "dataset:\n  dir: /data\n  version: \"17.1\"\n  refresh_interval: often\n",
			wantErr: "dataset.refresh_interval",
		},
		{
			name:    "bad layer ttl",
			content: "dataset:\n  dir: /data\n  version: \"17.1\"\nlayer_store:\n  ttl: forever\n",
			wantErr: "layer_store.ttl",
		},
		{
			name:    "registry without endpoints",
			content: "dataset:\n  dir: /data\n  version: \"17.1\"\nregistry:\n  namespace: attackkb\n",
			wantErr: "registry.endpoints is required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, "attackkb.yaml", tt.content)
			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromDirWalksUp(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "attackkb.yaml"), []byte(`
dataset:
  dir: /data
  version: "17.1"
`), 0o644))

	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	cfg, err := LoadFromDir(nested)
	require.NoError(t, err)
	assert.Equal(t, "17.1", cfg.Dataset.Version)
}
