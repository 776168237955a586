// Package kbtest provides fixture STIX bundles and snapshot builders shared
// by the knowledge-base test suites. The fixtures are miniature but shaped
// like the real ATT&CK datasets: real ID formats, revoked objects, shared
// aliases, a software-mediated technique chain, and a dangling edge.
package kbtest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/zero-day-ai/attackkb/dataset"
	"github.com/zero-day-ai/attackkb/snapshot"
)

// Fixture dataset version used by all helpers.
const Version = "17.1"

// STIX IDs of fixture objects, for use in relationship queries.
const (
	T1055        = "attack-pattern--t1055"
	T1055001     = "attack-pattern--t1055-001"
	T1059        = "attack-pattern--t1059"
	T1078        = "attack-pattern--t1078"
	T1086        = "attack-pattern--t1086"
	APT28        = "intrusion-set--apt28"
	WizardSpider = "intrusion-set--wizard"
	IronBear     = "intrusion-set--oldbear"
	MuddyWater   = "intrusion-set--muddy"
	EarthVetala  = "intrusion-set--vetala"
	XAgent       = "malware--xagent"
	CobaltStrike = "tool--cobalt"
	SolarStorm   = "campaign--solarstorm"
	M1040        = "course-of-action--behavior-prevention"
	DSProcess    = "x-mitre-data-source--process"
	DCProcCreate = "x-mitre-data-component--process-creation"
	T0886        = "attack-pattern--t0886"
	AssetSafety  = "x-mitre-asset--safety"
)

// EnterpriseBundle returns the enterprise fixture bundle.
func EnterpriseBundle() []byte {
	return []byte(enterpriseJSON)
}

// ICSBundle returns the ICS fixture bundle.
func ICSBundle() []byte {
	return []byte(icsJSON)
}

// NewEnterpriseStore loads the enterprise fixture into a Store.
func NewEnterpriseStore(t *testing.T) *dataset.Store {
	t.Helper()
	store, err := dataset.Load("enterprise", Version, EnterpriseBundle())
	if err != nil {
		t.Fatalf("load enterprise fixture: %v", err)
	}
	return store
}

// NewICSStore loads the ICS fixture into a Store.
func NewICSStore(t *testing.T) *dataset.Store {
	t.Helper()
	store, err := dataset.Load("ics", Version, ICSBundle())
	if err != nil {
		t.Fatalf("load ics fixture: %v", err)
	}
	return store
}

// NewSnapshot builds a snapshot holding both fixture domains.
func NewSnapshot(t *testing.T) *snapshot.Snapshot {
	t.Helper()
	return snapshot.New(Version, []*dataset.Store{
		NewEnterpriseStore(t),
		NewICSStore(t),
	})
}

// WriteDataDir writes both fixture bundles into a temporary data directory
// with the on-disk layout snapshot.LoadDir expects, and returns the root.
func WriteDataDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	versionDir := filepath.Join(dir, "v"+Version)
	if err := os.MkdirAll(versionDir, 0o755); err != nil {
		t.Fatalf("create version dir: %v", err)
	}
	files := map[string][]byte{
		"enterprise-attack.json": EnterpriseBundle(),
		"ics-attack.json":        ICSBundle(),
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(versionDir, name), data, 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}
