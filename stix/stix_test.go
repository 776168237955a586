package stix

import (
	"testing"
)

const sampleBundle = `{
  "type": "bundle",
  "id": "bundle--0001",
  "objects": [
    {
      "type": "attack-pattern",
      "id": "attack-pattern--p1",
      "name": "Process Injection",
      "description": "Adversaries may inject code into processes.",
      "created": "2017-05-31T21:30:47.843Z",
      "modified": "2023-03-30T21:01:36.000Z",
      "x_mitre_platforms": ["Windows", "Linux", "macOS"],
      "kill_chain_phases": [
        {"kill_chain_name": "mitre-attack", "phase_name": "defense-evasion"},
        {"kill_chain_name": "mitre-attack", "phase_name": "privilege-escalation"}
      ],
      "external_references": [
        {"source_name": "mitre-attack", "external_id": "T1055", "url": "https://attack.mitre.org/techniques/T1055"}
      ]
    },
    {
      "type": "intrusion-set",
      "id": "intrusion-set--g1",
      "name": "APT28",
      "aliases": ["APT28", "Fancy Bear", "Sofacy"],
      "external_references": [
        {"source_name": "mitre-attack", "external_id": "G0007"}
      ]
    },
    {
      "type": "malware",
      "id": "malware--s1",
      "name": "X-Agent",
      "x_mitre_aliases": ["X-Agent", "CHOPSTICK"],
      "external_references": [
        {"source_name": "mitre-attack", "external_id": "S0023"}
      ]
    },
    {
      "type": "relationship",
      "id": "relationship--r1",
      "relationship_type": "uses",
      "source_ref": "intrusion-set--g1",
      "target_ref": "attack-pattern--p1",
      "description": "APT28 has injected code into processes."
    }
  ]
}`

func TestParseBundle(t *testing.T) {
	bundle, err := ParseBundle([]byte(sampleBundle))
	if err != nil {
		t.Fatalf("ParseBundle() error = %v", err)
	}

	if got, want := len(bundle.Objects), 3; got != want {
		t.Fatalf("len(Objects) = %d, want %d", got, want)
	}
	if got, want := len(bundle.Relationships), 1; got != want {
		t.Fatalf("len(Relationships) = %d, want %d", got, want)
	}

	technique := bundle.Objects[0]
	if technique.Type != TypeTechnique {
		t.Errorf("Type = %q, want %q", technique.Type, TypeTechnique)
	}
	if got := technique.AttackID(); got != "T1055" {
		t.Errorf("AttackID() = %q, want T1055", got)
	}
	if len(technique.Platforms) != 3 {
		t.Errorf("Platforms = %v, want 3 entries", technique.Platforms)
	}
	if len(technique.KillChainPhases) != 2 {
		t.Errorf("KillChainPhases = %v, want 2 entries", technique.KillChainPhases)
	}
	if technique.Created.IsZero() || technique.Modified.IsZero() {
		t.Error("timestamps not decoded")
	}

	rel := bundle.Relationships[0]
	if rel.RelationshipType != RelUses {
		t.Errorf("RelationshipType = %q, want uses", rel.RelationshipType)
	}
	if rel.SourceRef != "intrusion-set--g1" || rel.TargetRef != "attack-pattern--p1" {
		t.Errorf("edge = %s -> %s, wrong endpoints", rel.SourceRef, rel.TargetRef)
	}
}

func TestParseBundleAliasSpellings(t *testing.T) {
	bundle, err := ParseBundle([]byte(sampleBundle))
	if err != nil {
		t.Fatalf("ParseBundle() error = %v", err)
	}

	group := bundle.Objects[1]
	if len(group.Aliases) != 3 || group.Aliases[1] != "Fancy Bear" {
		t.Errorf("group aliases = %v, want [APT28 Fancy Bear Sofacy]", group.Aliases)
	}

	// Software aliases arrive under x_mitre_aliases and must land in the
	// same field.
	software := bundle.Objects[2]
	if len(software.Aliases) != 2 || software.Aliases[1] != "CHOPSTICK" {
		t.Errorf("software aliases = %v, want [X-Agent CHOPSTICK]", software.Aliases)
	}
}

func TestParseBundleMalformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{
			name: "not a bundle",
			data: `{"type": "report", "id": "report--1", "objects": []}`,
		},
		{
			name: "object missing id",
			data: `{"type": "bundle", "id": "bundle--1", "objects": [{"type": "attack-pattern"}]}`,
		},
		{
			name: "object missing type",
			data: `{"type": "bundle", "id": "bundle--1", "objects": [{"id": "attack-pattern--x"}]}`,
		},
		{
			name: "invalid json",
			data: `{"type": "bundle"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseBundle([]byte(tt.data)); err == nil {
				t.Error("ParseBundle() error = nil, want error")
			}
		})
	}
}

func TestInactive(t *testing.T) {
	tests := []struct {
		name string
		obj  Object
		want bool
	}{
		{name: "active", obj: Object{}, want: false},
		{name: "revoked", obj: Object{Revoked: true}, want: true},
		{name: "deprecated", obj: Object{Deprecated: true}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.obj.Inactive(); got != tt.want {
				t.Errorf("Inactive() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseDomain(t *testing.T) {
	tests := []struct {
		in     string
		want   Domain
		wantOK bool
	}{
		{"enterprise", DomainEnterprise, true},
		{"Enterprise", DomainEnterprise, true},
		{"enterprise-attack", DomainEnterprise, true},
		{"MOBILE", DomainMobile, true},
		{"ics-attack", DomainICS, true},
		{" ics ", DomainICS, true},
		{"cloud", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseDomain(tt.in)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ParseDomain(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestNormalizeType(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"attack-pattern", TypeTechnique, true},
		{"Technique", TypeTechnique, true},
		{"group", TypeGroup, true},
		{"intrusion-set", TypeGroup, true},
		{"DataComponent", TypeDataComponent, true},
		{"x-mitre-asset", TypeAsset, true},
		{"software", "", false},
		{"bogus", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := NormalizeType(tt.in)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("NormalizeType(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestIsLayerMatchID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"G0007", true},
		{"S0023", true},
		{"M1040", true},
		{"D0017", true},
		{"T1055", false},
		{"T1055.001", false},
		{"g0007", false},
		{"G0007,S0023", false},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			if got := IsLayerMatchID(tt.id); got != tt.want {
				t.Errorf("IsLayerMatchID(%q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

func TestIsSubtechniqueID(t *testing.T) {
	if !IsSubtechniqueID("T1055.001") {
		t.Error("T1055.001 should be a sub-technique ID")
	}
	if IsSubtechniqueID("T1055") {
		t.Error("T1055 should not be a sub-technique ID")
	}
}
