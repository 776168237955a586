// Package relindex derives typed adjacency lists from STIX relationship
// objects, answering relationship queries in time proportional to result
// size.
//
// The index is built by a single pass over the dataset's relationship
// objects. Dangling edges (either endpoint unresolvable in the store) and
// edges touching revoked or deprecated objects are dropped silently during
// construction; they are a property of the upstream dataset, not an error.
// Every multi-result query returns objects ordered by ATT&CK ID ascending.
package relindex

import (
	"github.com/zero-day-ai/attackkb"
	"github.com/zero-day-ai/attackkb/dataset"
	"github.com/zero-day-ai/attackkb/stix"
)

// edge is one direction of an indexed relationship.
type edge struct {
	relType     string
	other       *stix.Object
	description string
}

// Index answers typed adjacency queries against one domain+version store.
// It is read-only after Build and safe for concurrent use.
type Index struct {
	store   *dataset.Store
	forward map[string][]edge
	reverse map[string][]edge
}

// recognized lists the relationship types the index keeps.
var recognized = map[string]bool{
	stix.RelUses:           true,
	stix.RelMitigates:      true,
	stix.RelDetects:        true,
	stix.RelSubtechniqueOf: true,
	stix.RelAttributedTo:   true,
	stix.RelTargets:        true,
	stix.RelRevokedBy:      true,
}

// Build constructs the index in one pass over the store's relationships.
func Build(store *dataset.Store) *Index {
	idx := &Index{
		store:   store,
		forward: make(map[string][]edge),
		reverse: make(map[string][]edge),
	}

	for _, rel := range store.Relationships() {
		if !recognized[rel.RelationshipType] || rel.Revoked || rel.Deprecated {
			continue
		}

		src, err := store.GetByStixID(rel.SourceRef)
		if err != nil {
			continue
		}
		dst, err := store.GetByStixID(rel.TargetRef)
		if err != nil {
			continue
		}

		// Revoked endpoints are excluded, except for revoked-by edges whose
		// source is a revoked object by definition.
		if rel.RelationshipType != stix.RelRevokedBy && (src.Inactive() || dst.Inactive()) {
			continue
		}

		idx.forward[rel.SourceRef] = append(idx.forward[rel.SourceRef], edge{
			relType:     rel.RelationshipType,
			other:       dst,
			description: rel.Description,
		})
		idx.reverse[rel.TargetRef] = append(idx.reverse[rel.TargetRef], edge{
			relType:     rel.RelationshipType,
			other:       src,
			description: rel.Description,
		})
	}

	return idx
}

// neighbors collects the far endpoints of edges of one relationship type,
// optionally restricted to a set of STIX types, deduplicated by STIX ID and
// ordered by ATT&CK ID.
func neighbors(edges []edge, relType string, types ...string) []*stix.Object {
	var (
		out  []*stix.Object
		seen = make(map[string]bool)
	)
	for _, e := range edges {
		if e.relType != relType {
			continue
		}
		if len(types) > 0 && !typeIn(e.other.Type, types) {
			continue
		}
		if seen[e.other.ID] {
			continue
		}
		seen[e.other.ID] = true
		out = append(out, e.other)
	}
	dataset.SortByAttackID(out)
	return out
}

func typeIn(t string, types []string) bool {
	for _, candidate := range types {
		if t == candidate {
			return true
		}
	}
	return false
}

// TechniquesUsedBy returns the techniques reachable from a group, software,
// or campaign through "uses" edges. For groups this includes techniques used
// indirectly through the group's software (the two-hop chain), deduplicated
// by ATT&CK ID.
func (idx *Index) TechniquesUsedBy(id string) ([]*stix.Object, error) {
	obj, err := idx.store.GetByStixID(id)
	if err != nil {
		return nil, err
	}

	direct := neighbors(idx.forward[id], stix.RelUses, stix.TypeTechnique)

	if obj.Type != stix.TypeGroup {
		return direct, nil
	}

	seen := make(map[string]bool, len(direct))
	for _, t := range direct {
		seen[t.AttackID()] = true
	}
	merged := direct
	for _, software := range neighbors(idx.forward[id], stix.RelUses, stix.TypeMalware, stix.TypeTool) {
		for _, t := range neighbors(idx.forward[software.ID], stix.RelUses, stix.TypeTechnique) {
			if seen[t.AttackID()] {
				continue
			}
			seen[t.AttackID()] = true
			merged = append(merged, t)
		}
	}
	dataset.SortByAttackID(merged)
	return merged, nil
}

// TechniquesUsedBySoftwareOf returns only the techniques reached through the
// group's software, excluding the group's own direct techniques from
// deduplication (the original catalog exposes this chain on its own).
func (idx *Index) TechniquesUsedBySoftwareOf(groupID string) ([]*stix.Object, error) {
	if _, err := idx.store.GetByStixID(groupID); err != nil {
		return nil, err
	}

	var (
		out  []*stix.Object
		seen = make(map[string]bool)
	)
	for _, software := range neighbors(idx.forward[groupID], stix.RelUses, stix.TypeMalware, stix.TypeTool) {
		for _, t := range neighbors(idx.forward[software.ID], stix.RelUses, stix.TypeTechnique) {
			if seen[t.AttackID()] {
				continue
			}
			seen[t.AttackID()] = true
			out = append(out, t)
		}
	}
	dataset.SortByAttackID(out)
	return out, nil
}

// SoftwareUsedBy returns the software a group or campaign uses.
func (idx *Index) SoftwareUsedBy(id string) ([]*stix.Object, error) {
	if _, err := idx.store.GetByStixID(id); err != nil {
		return nil, err
	}
	return neighbors(idx.forward[id], stix.RelUses, stix.TypeMalware, stix.TypeTool), nil
}

// GroupsUsing returns the groups with a "uses" edge to a technique or
// software object.
func (idx *Index) GroupsUsing(id string) ([]*stix.Object, error) {
	if _, err := idx.store.GetByStixID(id); err != nil {
		return nil, err
	}
	return neighbors(idx.reverse[id], stix.RelUses, stix.TypeGroup), nil
}

// SoftwareUsing returns the malware and tools with a "uses" edge to a
// technique.
func (idx *Index) SoftwareUsing(techniqueID string) ([]*stix.Object, error) {
	if _, err := idx.store.GetByStixID(techniqueID); err != nil {
		return nil, err
	}
	return neighbors(idx.reverse[techniqueID], stix.RelUses, stix.TypeMalware, stix.TypeTool), nil
}

// CampaignsUsing returns the campaigns with a "uses" edge to a technique or
// software object.
func (idx *Index) CampaignsUsing(id string) ([]*stix.Object, error) {
	if _, err := idx.store.GetByStixID(id); err != nil {
		return nil, err
	}
	return neighbors(idx.reverse[id], stix.RelUses, stix.TypeCampaign), nil
}

// CampaignsAttributedTo returns the campaigns attributed to a group.
func (idx *Index) CampaignsAttributedTo(groupID string) ([]*stix.Object, error) {
	if _, err := idx.store.GetByStixID(groupID); err != nil {
		return nil, err
	}
	return neighbors(idx.reverse[groupID], stix.RelAttributedTo, stix.TypeCampaign), nil
}

// GroupsAttributedToCampaign returns the groups a campaign is attributed to.
func (idx *Index) GroupsAttributedToCampaign(campaignID string) ([]*stix.Object, error) {
	if _, err := idx.store.GetByStixID(campaignID); err != nil {
		return nil, err
	}
	return neighbors(idx.forward[campaignID], stix.RelAttributedTo, stix.TypeGroup), nil
}

// SubtechniquesOf returns the direct sub-techniques of a technique. The
// parent/child relation is at most one level deep, so no recursion happens
// here.
func (idx *Index) SubtechniquesOf(techniqueID string) ([]*stix.Object, error) {
	if _, err := idx.store.GetByStixID(techniqueID); err != nil {
		return nil, err
	}
	return neighbors(idx.reverse[techniqueID], stix.RelSubtechniqueOf, stix.TypeTechnique), nil
}

// ParentOf returns the parent technique of a sub-technique, or a
// KindNotFound error when the technique has no parent edge.
func (idx *Index) ParentOf(subtechniqueID string) (*stix.Object, error) {
	if _, err := idx.store.GetByStixID(subtechniqueID); err != nil {
		return nil, err
	}
	parents := neighbors(idx.forward[subtechniqueID], stix.RelSubtechniqueOf, stix.TypeTechnique)
	if len(parents) == 0 {
		return nil, attackkb.E("relindex.ParentOf", attackkb.KindNotFound, map[string]any{
			"stix_id": subtechniqueID,
			"domain":  string(idx.store.Domain()),
		})
	}
	return parents[0], nil
}

// MitigationsOf returns the mitigations with a "mitigates" edge to the
// technique.
func (idx *Index) MitigationsOf(techniqueID string) ([]*stix.Object, error) {
	if _, err := idx.store.GetByStixID(techniqueID); err != nil {
		return nil, err
	}
	return neighbors(idx.reverse[techniqueID], stix.RelMitigates, stix.TypeMitigation), nil
}

// TechniquesMitigatedBy returns the techniques a mitigation mitigates.
func (idx *Index) TechniquesMitigatedBy(mitigationID string) ([]*stix.Object, error) {
	if _, err := idx.store.GetByStixID(mitigationID); err != nil {
		return nil, err
	}
	return neighbors(idx.forward[mitigationID], stix.RelMitigates, stix.TypeTechnique), nil
}

// DetectorsOf returns the data components with a "detects" edge to the
// technique.
func (idx *Index) DetectorsOf(techniqueID string) ([]*stix.Object, error) {
	if _, err := idx.store.GetByStixID(techniqueID); err != nil {
		return nil, err
	}
	return neighbors(idx.reverse[techniqueID], stix.RelDetects, stix.TypeDataComponent), nil
}

// TechniquesDetectedBy returns the techniques a data component detects.
func (idx *Index) TechniquesDetectedBy(dataComponentID string) ([]*stix.Object, error) {
	if _, err := idx.store.GetByStixID(dataComponentID); err != nil {
		return nil, err
	}
	return neighbors(idx.forward[dataComponentID], stix.RelDetects, stix.TypeTechnique), nil
}

// AssetsTargetedBy returns the assets a technique targets (ICS domain).
func (idx *Index) AssetsTargetedBy(techniqueID string) ([]*stix.Object, error) {
	if _, err := idx.store.GetByStixID(techniqueID); err != nil {
		return nil, err
	}
	return neighbors(idx.forward[techniqueID], stix.RelTargets, stix.TypeAsset), nil
}

// TechniquesTargeting returns the techniques targeting an asset (ICS domain).
func (idx *Index) TechniquesTargeting(assetID string) ([]*stix.Object, error) {
	if _, err := idx.store.GetByStixID(assetID); err != nil {
		return nil, err
	}
	return neighbors(idx.reverse[assetID], stix.RelTargets, stix.TypeTechnique), nil
}

// RevokedBy returns the replacement object for a revoked one, or nil when
// the object carries no revoked-by edge.
func (idx *Index) RevokedBy(id string) (*stix.Object, error) {
	if _, err := idx.store.GetByStixID(id); err != nil {
		return nil, err
	}
	replacements := neighbors(idx.forward[id], stix.RelRevokedBy)
	if len(replacements) == 0 {
		return nil, nil
	}
	return replacements[0], nil
}

// Procedure is one documented use of a technique: the using object plus the
// relationship's procedure description.
type Procedure struct {
	Actor       *stix.Object
	Description string
}

// ProcedureExamples returns the documented uses of a technique (groups,
// software, and campaigns with a described "uses" edge), ordered by the
// actor's ATT&CK ID.
func (idx *Index) ProcedureExamples(techniqueID string) ([]Procedure, error) {
	if _, err := idx.store.GetByStixID(techniqueID); err != nil {
		return nil, err
	}

	var actors []*stix.Object
	descriptions := make(map[string]string)
	for _, e := range idx.reverse[techniqueID] {
		if e.relType != stix.RelUses || e.description == "" {
			continue
		}
		if _, ok := descriptions[e.other.ID]; ok {
			continue
		}
		descriptions[e.other.ID] = e.description
		actors = append(actors, e.other)
	}
	dataset.SortByAttackID(actors)

	procedures := make([]Procedure, len(actors))
	for i, actor := range actors {
		procedures[i] = Procedure{Actor: actor, Description: descriptions[actor.ID]}
	}
	return procedures, nil
}
