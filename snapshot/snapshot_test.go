package snapshot_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/zero-day-ai/attackkb"
	"github.com/zero-day-ai/attackkb/kbtest"
	"github.com/zero-day-ai/attackkb/snapshot"
	"github.com/zero-day-ai/attackkb/stix"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSnapshotDomains(t *testing.T) {
	snap := kbtest.NewSnapshot(t)

	if snap.ID() == "" {
		t.Error("snapshot has no ID")
	}
	if snap.Version() != kbtest.Version {
		t.Errorf("Version() = %q, want %q", snap.Version(), kbtest.Version)
	}
	want := []stix.Domain{stix.DomainEnterprise, stix.DomainICS}
	if got := snap.Domains(); !slices.Equal(got, want) {
		t.Errorf("Domains() = %v, want %v", got, want)
	}
}

func TestSnapshotDomainLookup(t *testing.T) {
	snap := kbtest.NewSnapshot(t)

	tests := []struct {
		name    string
		domain  string
		wantErr bool
	}{
		{name: "short name", domain: "enterprise"},
		{name: "collection name", domain: "enterprise-attack"},
		{name: "ics", domain: "ics"},
		{name: "unsupported name", domain: "cloud", wantErr: true},
		{name: "supported but not loaded", domain: "mobile", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := snap.Domain(tt.domain)
			if tt.wantErr {
				if !errors.Is(err, attackkb.ErrUnknownDomain) {
					t.Fatalf("error = %v, want ErrUnknownDomain", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("error = %v", err)
			}
			if data.Store == nil || data.Index == nil {
				t.Error("domain data missing store or index")
			}
		})
	}
}

func TestLoadDir(t *testing.T) {
	dir := kbtest.WriteDataDir(t)

	snap, err := snapshot.LoadDir(context.Background(), dir, kbtest.Version, discard())
	if err != nil {
		t.Fatalf("LoadDir() error = %v", err)
	}
	want := []stix.Domain{stix.DomainEnterprise, stix.DomainICS}
	if got := snap.Domains(); !slices.Equal(got, want) {
		t.Errorf("Domains() = %v, want %v", got, want)
	}
}

func TestLoadDirPartialAvailability(t *testing.T) {
	dir := kbtest.WriteDataDir(t)

	// Corrupt one domain; the other must still load.
	icsPath := filepath.Join(dir, "v"+kbtest.Version, "ics-attack.json")
	if err := os.WriteFile(icsPath, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("corrupt ics bundle: %v", err)
	}

	snap, err := snapshot.LoadDir(context.Background(), dir, kbtest.Version, discard())
	if err != nil {
		t.Fatalf("LoadDir() error = %v", err)
	}
	if got := snap.Domains(); !slices.Equal(got, []stix.Domain{stix.DomainEnterprise}) {
		t.Errorf("Domains() = %v, want [enterprise]", got)
	}
	if _, err := snap.Domain("ics"); !errors.Is(err, attackkb.ErrUnknownDomain) {
		t.Errorf("Domain(ics) error = %v, want ErrUnknownDomain", err)
	}
}

func TestLoadDirNothingLoaded(t *testing.T) {
	_, err := snapshot.LoadDir(context.Background(), t.TempDir(), kbtest.Version, discard())
	if !errors.Is(err, attackkb.ErrDataFormat) {
		t.Fatalf("LoadDir() error = %v, want ErrDataFormat", err)
	}
}

func TestManagerSwapLeavesReadersUndisturbed(t *testing.T) {
	first := kbtest.NewSnapshot(t)
	second := kbtest.NewSnapshot(t)
	mgr := snapshot.NewManager(first, discard())

	// A reader takes the snapshot once, then a swap happens mid-operation.
	held := mgr.Active()
	data, err := held.Domain("enterprise")
	if err != nil {
		t.Fatalf("Domain() error = %v", err)
	}
	before, err := data.Index.TechniquesUsedBy(kbtest.APT28)
	if err != nil {
		t.Fatalf("TechniquesUsedBy() error = %v", err)
	}

	prev := mgr.Swap(second)
	if prev != first {
		t.Errorf("Swap() returned %v, want first snapshot", prev)
	}
	if mgr.Active() != second {
		t.Error("Active() did not change after swap")
	}

	// The held snapshot answers identically after the swap.
	after, err := data.Index.TechniquesUsedBy(kbtest.APT28)
	if err != nil {
		t.Fatalf("TechniquesUsedBy() after swap error = %v", err)
	}
	if len(before) != len(after) {
		t.Errorf("results changed across swap: %d vs %d", len(before), len(after))
	}
	if held.ID() != first.ID() {
		t.Error("held snapshot identity changed")
	}
}

func TestManagerSwapNilClearsActive(t *testing.T) {
	first := kbtest.NewSnapshot(t)
	mgr := snapshot.NewManager(first, discard())

	prev := mgr.Swap(nil)
	if prev != first {
		t.Errorf("Swap(nil) returned %v, want first snapshot", prev)
	}
	if mgr.Active() != nil {
		t.Error("Active() != nil after clearing")
	}

	// Clearing an already-empty manager is a no-op.
	if prev := mgr.Swap(nil); prev != nil {
		t.Errorf("Swap(nil) on empty manager returned %v, want nil", prev)
	}
}

func TestManagerRefresh(t *testing.T) {
	mgr := snapshot.NewManager(nil, discard())
	if mgr.Active() != nil {
		t.Fatal("Active() != nil before first load")
	}

	dir := kbtest.WriteDataDir(t)
	if err := mgr.Refresh(context.Background(), dir, kbtest.Version); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	loaded := mgr.Active()
	if loaded == nil {
		t.Fatal("Active() == nil after refresh")
	}

	// A failed refresh leaves the active snapshot in place.
	if err := mgr.Refresh(context.Background(), t.TempDir(), kbtest.Version); err == nil {
		t.Fatal("Refresh() from empty dir succeeded, want error")
	}
	if mgr.Active() != loaded {
		t.Error("failed refresh replaced the active snapshot")
	}
}
