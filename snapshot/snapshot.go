// Package snapshot bundles a Dataset Store and Relationship Index per domain
// into one immutable value, and manages atomic replacement of the active
// snapshot on version refresh.
//
// Queries always receive a snapshot explicitly; there is no package-global
// dataset state. A refresh builds the new snapshot off to the side and swaps
// a single pointer, so in-flight reads keep the snapshot they started with.
package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/zero-day-ai/attackkb"
	"github.com/zero-day-ai/attackkb/dataset"
	"github.com/zero-day-ai/attackkb/relindex"
	"github.com/zero-day-ai/attackkb/stix"
)

// DomainData pairs the store and index of one loaded domain.
type DomainData struct {
	Store *dataset.Store
	Index *relindex.Index
}

// Snapshot is an immutable view of every loaded domain at one dataset
// version. All fields are fixed at construction.
type Snapshot struct {
	id       string
	version  string
	loadedAt time.Time
	domains  map[stix.Domain]*DomainData
}

// New seals the given stores into a snapshot, building the relationship
// index for each.
func New(version string, stores []*dataset.Store) *Snapshot {
	domains := make(map[stix.Domain]*DomainData, len(stores))
	for _, store := range stores {
		domains[store.Domain()] = &DomainData{
			Store: store,
			Index: relindex.Build(store),
		}
	}
	return &Snapshot{
		id:       uuid.NewString(),
		version:  version,
		loadedAt: time.Now().UTC(),
		domains:  domains,
	}
}

// ID returns the unique identity of this snapshot instance. Two loads of the
// same version get distinct IDs; the ID names the in-memory snapshot, not
// the dataset release.
func (s *Snapshot) ID() string { return s.id }

// Version returns the dataset release version this snapshot was loaded from.
func (s *Snapshot) Version() string { return s.version }

// LoadedAt returns when the snapshot was constructed.
func (s *Snapshot) LoadedAt() time.Time { return s.loadedAt }

// Domains returns the loaded domains in canonical order.
func (s *Snapshot) Domains() []stix.Domain {
	var out []stix.Domain
	for _, d := range stix.Domains {
		if _, ok := s.domains[d]; ok {
			out = append(out, d)
		}
	}
	return out
}

// Domain resolves a domain by name. Unsupported names and domains absent
// from this snapshot both yield a KindUnknownDomain error; the context
// distinguishes the two by listing what is loaded.
func (s *Snapshot) Domain(name string) (*DomainData, error) {
	const op = "snapshot.Domain"

	d, ok := stix.ParseDomain(name)
	if !ok {
		return nil, attackkb.E(op, attackkb.KindUnknownDomain, map[string]any{
			"domain": name,
		})
	}
	data, ok := s.domains[d]
	if !ok {
		loaded := make([]string, 0, len(s.domains))
		for _, ld := range s.Domains() {
			loaded = append(loaded, string(ld))
		}
		return nil, attackkb.E(op, attackkb.KindUnknownDomain, map[string]any{
			"domain":         string(d),
			"loaded_domains": loaded,
			"version":        s.version,
		})
	}
	return data, nil
}

// LoadDir loads every available domain bundle from a data directory laid out
// as <dir>/v<version>/<domain>-attack.json, the layout the data acquisition
// collaborator produces.
//
// A missing or malformed bundle skips that domain and loads the rest;
// partial availability beats an all-or-nothing failure. Only when no domain
// at all could be loaded does LoadDir return an error.
func LoadDir(ctx context.Context, dir, version string, logger *slog.Logger) (*Snapshot, error) {
	const op = "snapshot.LoadDir"

	if logger == nil {
		logger = slog.Default()
	}

	var stores []*dataset.Store
	for _, domain := range stix.Domains {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		path := filepath.Join(dir, "v"+version, domain.Collection()+".json")
		raw, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("domain bundle not readable, skipping",
				"domain", domain, "path", path, "error", err)
			continue
		}

		store, err := dataset.Load(string(domain), version, raw)
		if err != nil {
			logger.Error("domain bundle malformed, skipping",
				"domain", domain, "path", path, "error", err)
			continue
		}

		logger.Info("domain loaded",
			"domain", domain, "version", version,
			"objects", len(store.ObjectsByType(stix.TypeTechnique, true)))
		stores = append(stores, store)
	}

	if len(stores) == 0 {
		e := attackkb.E(op, attackkb.KindDataFormat, map[string]any{
			"dir":     dir,
			"version": version,
		})
		e.Err = fmt.Errorf("no domain could be loaded from %s", dir)
		return nil, e
	}

	return New(version, stores), nil
}
