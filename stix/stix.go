package stix

import (
	"encoding/json"
	"fmt"
	"time"
)

// STIX object types carried by ATT&CK bundles.
const (
	TypeTechnique     = "attack-pattern"
	TypeGroup         = "intrusion-set"
	TypeMalware       = "malware"
	TypeTool          = "tool"
	TypeCampaign      = "campaign"
	TypeMitigation    = "course-of-action"
	TypeTactic        = "x-mitre-tactic"
	TypeMatrix        = "x-mitre-matrix"
	TypeDataSource    = "x-mitre-data-source"
	TypeDataComponent = "x-mitre-data-component"
	TypeAsset         = "x-mitre-asset"
	TypeIdentity      = "identity"
	TypeRelationship  = "relationship"
)

// Relationship types the index recognizes. Anything else in a bundle is
// ignored during index construction.
const (
	RelUses           = "uses"
	RelMitigates      = "mitigates"
	RelDetects        = "detects"
	RelSubtechniqueOf = "subtechnique-of"
	RelAttributedTo   = "attributed-to"
	RelTargets        = "targets"
	RelRevokedBy      = "revoked-by"
)

// ExternalReference is a STIX external_references entry. ATT&CK IDs live in
// the entry whose source name is one of the mitre-attack collections.
type ExternalReference struct {
	SourceName  string `json:"source_name"`
	ExternalID  string `json:"external_id,omitempty"`
	URL         string `json:"url,omitempty"`
	Description string `json:"description,omitempty"`
}

// KillChainPhase links a technique to a tactic by the tactic's shortname.
type KillChainPhase struct {
	KillChainName string `json:"kill_chain_name"`
	PhaseName     string `json:"phase_name"`
}

// Object is an ATT&CK STIX domain object (technique, tactic, group, software,
// campaign, data source/component, mitigation, matrix, or asset).
type Object struct {
	// ID is the stable STIX identifier, e.g. "attack-pattern--43e7dc91-...".
	ID string `json:"id"`

	// Type is the STIX object type, e.g. "attack-pattern".
	Type string `json:"type"`

	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`

	Created  time.Time `json:"created,omitzero"`
	Modified time.Time `json:"modified,omitzero"`

	// Aliases holds group/campaign aliases or software x_mitre_aliases,
	// whichever the object carries. The primary name is usually repeated as
	// the first entry, mirroring the upstream dataset.
	Aliases []string `json:"aliases,omitempty"`

	Revoked    bool `json:"revoked,omitempty"`
	Deprecated bool `json:"x_mitre_deprecated,omitempty"`

	// IsSubtechnique is set on attack-pattern objects that refine a parent
	// technique; the parent edge itself lives in a relationship object.
	IsSubtechnique bool `json:"x_mitre_is_subtechnique,omitempty"`

	// Platforms lists the platforms a technique applies to (Windows, Linux,
	// Android, ...).
	Platforms []string `json:"x_mitre_platforms,omitempty"`

	// Shortname is set on tactics ("defense-evasion") and matched against
	// technique kill chain phase names.
	Shortname string `json:"x_mitre_shortname,omitempty"`

	// DataSourceRef is set on data components and points at the parent
	// x-mitre-data-source object.
	DataSourceRef string `json:"x_mitre_data_source_ref,omitempty"`

	// TacticRefs is set on matrices and lists tactic STIX IDs in matrix order.
	TacticRefs []string `json:"tactic_refs,omitempty"`

	KillChainPhases    []KillChainPhase    `json:"kill_chain_phases,omitempty"`
	ExternalReferences []ExternalReference `json:"external_references,omitempty"`
}

// mitreSources are the external_references source names that carry ATT&CK IDs.
var mitreSources = map[string]bool{
	"mitre-attack":        true,
	"mitre-mobile-attack": true,
	"mitre-ics-attack":    true,
}

// AttackID returns the human-facing ATT&CK ID (T1055, G0016, ...) or the
// empty string for objects that have none (identities, relationships).
func (o *Object) AttackID() string {
	for _, ref := range o.ExternalReferences {
		if mitreSources[ref.SourceName] && ref.ExternalID != "" {
			return ref.ExternalID
		}
	}
	return ""
}

// Inactive reports whether the object is revoked or deprecated. Inactive
// objects are excluded from default query results.
func (o *Object) Inactive() bool {
	return o.Revoked || o.Deprecated
}

// UnmarshalJSON merges the two alias field spellings: groups and campaigns
// use "aliases", software uses "x_mitre_aliases".
func (o *Object) UnmarshalJSON(data []byte) error {
	type object Object
	aux := struct {
		*object
		SoftwareAliases []string `json:"x_mitre_aliases"`
	}{object: (*object)(o)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if len(o.Aliases) == 0 {
		o.Aliases = aux.SoftwareAliases
	}
	return nil
}

// Relationship is a directed typed edge between two STIX object IDs.
type Relationship struct {
	ID               string `json:"id"`
	RelationshipType string `json:"relationship_type"`
	SourceRef        string `json:"source_ref"`
	TargetRef        string `json:"target_ref"`
	Description      string `json:"description,omitempty"`
	Revoked          bool   `json:"revoked,omitempty"`
	Deprecated       bool   `json:"x_mitre_deprecated,omitempty"`
}

// Bundle is a decoded ATT&CK STIX bundle, split into domain objects and
// relationship objects.
type Bundle struct {
	ID            string
	Objects       []*Object
	Relationships []*Relationship
}

// envelope is the minimal shape every bundle member must carry.
type envelope struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// ParseBundle decodes a raw STIX bundle document. A member missing its "id"
// or "type" field makes the whole bundle malformed: the caller treats that as
// a DataFormatError for the domain being loaded.
func ParseBundle(data []byte) (*Bundle, error) {
	var raw struct {
		ID      string            `json:"id"`
		Type    string            `json:"type"`
		Objects []json.RawMessage `json:"objects"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode bundle: %w", err)
	}
	if raw.Type != "bundle" {
		return nil, fmt.Errorf("document type %q is not a STIX bundle", raw.Type)
	}

	bundle := &Bundle{ID: raw.ID}
	for i, member := range raw.Objects {
		var env envelope
		if err := json.Unmarshal(member, &env); err != nil {
			return nil, fmt.Errorf("decode object %d: %w", i, err)
		}
		if env.ID == "" || env.Type == "" {
			return nil, fmt.Errorf("object %d is missing required id/type fields", i)
		}

		switch env.Type {
		case TypeRelationship:
			var rel Relationship
			if err := json.Unmarshal(member, &rel); err != nil {
				return nil, fmt.Errorf("decode relationship %s: %w", env.ID, err)
			}
			bundle.Relationships = append(bundle.Relationships, &rel)
		default:
			var obj Object
			if err := json.Unmarshal(member, &obj); err != nil {
				return nil, fmt.Errorf("decode object %s: %w", env.ID, err)
			}
			bundle.Objects = append(bundle.Objects, &obj)
		}
	}

	return bundle, nil
}
