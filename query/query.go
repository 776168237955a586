package query

import (
	"slices"
	"strings"

	"github.com/zero-day-ai/attackkb"
	"github.com/zero-day-ai/attackkb/dataset"
	"github.com/zero-day-ai/attackkb/relindex"
	"github.com/zero-day-ai/attackkb/snapshot"
	"github.com/zero-day-ai/attackkb/stix"
)

// normalizeType resolves a type name or shorthand, reporting unknown names as
// a data format error so catalog callers see a recoverable argument problem.
func normalizeType(op, name string) (string, error) {
	t, ok := stix.NormalizeType(name)
	if !ok {
		return "", attackkb.E(op, attackkb.KindDataFormat, map[string]any{
			"object_type": name,
		})
	}
	return t, nil
}

// ObjectByStixID resolves a STIX identifier in one domain.
func ObjectByStixID(snap *snapshot.Snapshot, domain, stixID string) (*stix.Object, error) {
	data, err := snap.Domain(domain)
	if err != nil {
		return nil, err
	}
	return data.Store.GetByStixID(stixID)
}

// ObjectByAttackID resolves an ATT&CK ID to an object of the given type. The
// type accepts the same shorthand spellings as ObjectsByType.
func ObjectByAttackID(snap *snapshot.Snapshot, domain, attackID, typeName string) (*stix.Object, error) {
	data, err := snap.Domain(domain)
	if err != nil {
		return nil, err
	}
	t, err := normalizeType("query.ObjectByAttackID", typeName)
	if err != nil {
		return nil, err
	}
	return data.Store.GetByAttackID(attackID, t)
}

// ObjectsByType lists the objects of one type. "software" is accepted as a
// pseudo-type spanning malware and tools.
func ObjectsByType(snap *snapshot.Snapshot, domain, typeName string, includeRevoked bool) ([]*stix.Object, error) {
	data, err := snap.Domain(domain)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(strings.TrimSpace(typeName), "software") {
		out := append(data.Store.ObjectsByType(stix.TypeMalware, includeRevoked),
			data.Store.ObjectsByType(stix.TypeTool, includeRevoked)...)
		dataset.SortByAttackID(out)
		return out, nil
	}
	t, err := normalizeType("query.ObjectsByType", typeName)
	if err != nil {
		return nil, err
	}
	return data.Store.ObjectsByType(t, includeRevoked), nil
}

// ObjectsByName finds active objects by name. Exact mode requires full
// case-insensitive equality; fuzzy mode matches substrings.
func ObjectsByName(snap *snapshot.Snapshot, domain, name string, exact bool) ([]*stix.Object, error) {
	data, err := snap.Domain(domain)
	if err != nil {
		return nil, err
	}
	var out []*stix.Object
	for obj := range data.Store.FindByName(name, exact) {
		out = append(out, obj)
	}
	return out, nil
}

// ObjectsByContent finds active objects whose description contains the text.
func ObjectsByContent(snap *snapshot.Snapshot, domain, text string) ([]*stix.Object, error) {
	data, err := snap.Domain(domain)
	if err != nil {
		return nil, err
	}
	var out []*stix.Object
	for obj := range data.Store.FindByContent(text) {
		out = append(out, obj)
	}
	return out, nil
}

// preferActive picks the non-revoked object among duplicates sharing an
// ATT&CK ID, falling back to the first.
func preferActive(objs []*stix.Object) *stix.Object {
	for _, obj := range objs {
		if !obj.Inactive() {
			return obj
		}
	}
	return objs[0]
}

// StixTypeOf reports the STIX type behind an ATT&CK ID.
func StixTypeOf(snap *snapshot.Snapshot, domain, attackID string) (string, error) {
	data, err := snap.Domain(domain)
	if err != nil {
		return "", err
	}
	matches := data.Store.ByAttackID(attackID)
	if len(matches) == 0 {
		return "", attackkb.E("query.StixTypeOf", attackkb.KindNotFound, map[string]any{
			"attack_id": attackID,
			"domain":    domain,
		})
	}
	return preferActive(matches).Type, nil
}

// NameOf reports the name behind an ATT&CK ID.
func NameOf(snap *snapshot.Snapshot, domain, attackID string) (string, error) {
	data, err := snap.Domain(domain)
	if err != nil {
		return "", err
	}
	matches := data.Store.ByAttackID(attackID)
	if len(matches) == 0 {
		return "", attackkb.E("query.NameOf", attackkb.KindNotFound, map[string]any{
			"attack_id": attackID,
			"domain":    domain,
		})
	}
	return preferActive(matches).Name, nil
}

// AttackIDOf reports the ATT&CK ID behind a STIX identifier. Objects without
// one (identities, data components) yield a not-found error naming the object.
func AttackIDOf(snap *snapshot.Snapshot, domain, stixID string) (string, error) {
	data, err := snap.Domain(domain)
	if err != nil {
		return "", err
	}
	obj, err := data.Store.GetByStixID(stixID)
	if err != nil {
		return "", err
	}
	id := obj.AttackID()
	if id == "" {
		return "", attackkb.E("query.AttackIDOf", attackkb.KindNotFound, map[string]any{
			"stix_id": stixID,
			"name":    obj.Name,
			"domain":  domain,
		})
	}
	return id, nil
}

// AllTechniques lists the active techniques of a domain, sub-techniques
// included.
func AllTechniques(snap *snapshot.Snapshot, domain string) ([]*stix.Object, error) {
	data, err := snap.Domain(domain)
	if err != nil {
		return nil, err
	}
	return data.Store.ObjectsByType(stix.TypeTechnique, false), nil
}

// AllSubtechniques lists the active sub-techniques of a domain.
func AllSubtechniques(snap *snapshot.Snapshot, domain string) ([]*stix.Object, error) {
	return techniquesWhere(snap, domain, func(t *stix.Object) bool { return t.IsSubtechnique })
}

// AllParentTechniques lists the active techniques that are not sub-techniques.
func AllParentTechniques(snap *snapshot.Snapshot, domain string) ([]*stix.Object, error) {
	return techniquesWhere(snap, domain, func(t *stix.Object) bool { return !t.IsSubtechnique })
}

// RevokedTechniques lists the techniques revoked in this dataset version,
// mainly useful for migrating stale references.
func RevokedTechniques(snap *snapshot.Snapshot, domain string) ([]*stix.Object, error) {
	data, err := snap.Domain(domain)
	if err != nil {
		return nil, err
	}
	var out []*stix.Object
	for _, t := range data.Store.ObjectsByType(stix.TypeTechnique, true) {
		if t.Revoked {
			out = append(out, t)
		}
	}
	return out, nil
}

func techniquesWhere(snap *snapshot.Snapshot, domain string, keep func(*stix.Object) bool) ([]*stix.Object, error) {
	data, err := snap.Domain(domain)
	if err != nil {
		return nil, err
	}
	var out []*stix.Object
	for _, t := range data.Store.ObjectsByType(stix.TypeTechnique, false) {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out, nil
}

// TechniquesByPlatform lists the active techniques applying to a platform,
// matched case-insensitively ("windows" finds "Windows").
func TechniquesByPlatform(snap *snapshot.Snapshot, domain, platform string) ([]*stix.Object, error) {
	needle := strings.ToLower(strings.TrimSpace(platform))
	return techniquesWhere(snap, domain, func(t *stix.Object) bool {
		for _, p := range t.Platforms {
			if strings.ToLower(p) == needle {
				return true
			}
		}
		return false
	})
}

// TechniquesByTactic lists the active techniques in one tactic, resolved by
// the tactic's shortname in any accepted spelling ("Defense Evasion",
// "defense-evasion").
func TechniquesByTactic(snap *snapshot.Snapshot, domain, tactic string) ([]*stix.Object, error) {
	data, err := snap.Domain(domain)
	if err != nil {
		return nil, err
	}
	tacticObj, err := data.Store.TacticByShortname(tactic)
	if err != nil {
		return nil, err
	}
	return techniquesWhere(snap, domain, func(t *stix.Object) bool {
		for _, phase := range t.KillChainPhases {
			if phase.PhaseName == tacticObj.Shortname {
				return true
			}
		}
		return false
	})
}

// SubtechniquesOfTechnique lists the sub-techniques of a technique given its
// ATT&CK ID.
func SubtechniquesOfTechnique(snap *snapshot.Snapshot, domain, attackID string) ([]*stix.Object, error) {
	data, technique, err := techniqueByAttackID(snap, domain, attackID)
	if err != nil {
		return nil, err
	}
	return data.Index.SubtechniquesOf(technique.ID)
}

// ParentTechniqueOf resolves the parent of a sub-technique given its ATT&CK
// ID.
func ParentTechniqueOf(snap *snapshot.Snapshot, domain, attackID string) (*stix.Object, error) {
	data, technique, err := techniqueByAttackID(snap, domain, attackID)
	if err != nil {
		return nil, err
	}
	return data.Index.ParentOf(technique.ID)
}

func techniqueByAttackID(snap *snapshot.Snapshot, domain, attackID string) (*snapshot.DomainData, *stix.Object, error) {
	data, err := snap.Domain(domain)
	if err != nil {
		return nil, nil, err
	}
	technique, err := data.Store.GetByAttackID(attackID, stix.TypeTechnique)
	if err != nil {
		return nil, nil, err
	}
	return data, technique, nil
}

// TacticsOfTechnique resolves the tactics a technique belongs to through its
// kill chain phases, ordered by ATT&CK ID. Phases that name no known tactic
// are skipped.
func TacticsOfTechnique(snap *snapshot.Snapshot, domain, attackID string) ([]*stix.Object, error) {
	data, technique, err := techniqueByAttackID(snap, domain, attackID)
	if err != nil {
		return nil, err
	}
	var out []*stix.Object
	for _, phase := range technique.KillChainPhases {
		tactic, err := data.Store.TacticByShortname(phase.PhaseName)
		if err != nil {
			continue
		}
		out = append(out, tactic)
	}
	dataset.SortByAttackID(out)
	return out, nil
}

// AllTactics lists the tactics of a domain.
func AllTactics(snap *snapshot.Snapshot, domain string) ([]*stix.Object, error) {
	data, err := snap.Domain(domain)
	if err != nil {
		return nil, err
	}
	return data.Store.ObjectsByType(stix.TypeTactic, false), nil
}

// AllMatrices lists the matrices of a domain.
func AllMatrices(snap *snapshot.Snapshot, domain string) ([]*stix.Object, error) {
	data, err := snap.Domain(domain)
	if err != nil {
		return nil, err
	}
	return data.Store.ObjectsByType(stix.TypeMatrix, false), nil
}

// MatrixTactics groups a matrix with its tactics in matrix presentation
// order.
type MatrixTactics struct {
	Matrix  *stix.Object
	Tactics []*stix.Object
}

// TacticsByMatrix lists every matrix of a domain with its tactics resolved
// from the matrix's tactic refs, preserving the matrix ordering rather than
// the ATT&CK ID ordering.
func TacticsByMatrix(snap *snapshot.Snapshot, domain string) ([]MatrixTactics, error) {
	data, err := snap.Domain(domain)
	if err != nil {
		return nil, err
	}
	var out []MatrixTactics
	for _, matrix := range data.Store.ObjectsByType(stix.TypeMatrix, false) {
		mt := MatrixTactics{Matrix: matrix}
		for _, ref := range matrix.TacticRefs {
			tactic, err := data.Store.GetByStixID(ref)
			if err != nil {
				continue
			}
			mt.Tactics = append(mt.Tactics, tactic)
		}
		out = append(out, mt)
	}
	return out, nil
}

// AllMitigations lists the active mitigations of a domain.
func AllMitigations(snap *snapshot.Snapshot, domain string) ([]*stix.Object, error) {
	data, err := snap.Domain(domain)
	if err != nil {
		return nil, err
	}
	return data.Store.ObjectsByType(stix.TypeMitigation, false), nil
}

// MitigationsOfTechnique lists the mitigations addressing a technique.
func MitigationsOfTechnique(snap *snapshot.Snapshot, domain, attackID string) ([]*stix.Object, error) {
	data, technique, err := techniqueByAttackID(snap, domain, attackID)
	if err != nil {
		return nil, err
	}
	return data.Index.MitigationsOf(technique.ID)
}

// TechniquesMitigatedBy lists the techniques a mitigation addresses, given
// the mitigation's ATT&CK ID.
func TechniquesMitigatedBy(snap *snapshot.Snapshot, domain, mitigationID string) ([]*stix.Object, error) {
	data, err := snap.Domain(domain)
	if err != nil {
		return nil, err
	}
	mitigation, err := data.Store.GetByAttackID(mitigationID, stix.TypeMitigation)
	if err != nil {
		return nil, err
	}
	return data.Index.TechniquesMitigatedBy(mitigation.ID)
}

// Detector pairs a data component with its parent data source.
type Detector struct {
	Component  *stix.Object
	DataSource *stix.Object
}

// DetectorsOfTechnique lists the data components detecting a technique, each
// with its parent data source resolved.
func DetectorsOfTechnique(snap *snapshot.Snapshot, domain, attackID string) ([]Detector, error) {
	data, technique, err := techniqueByAttackID(snap, domain, attackID)
	if err != nil {
		return nil, err
	}
	components, err := data.Index.DetectorsOf(technique.ID)
	if err != nil {
		return nil, err
	}
	out := make([]Detector, 0, len(components))
	for _, component := range components {
		d := Detector{Component: component}
		if component.DataSourceRef != "" {
			if source, err := data.Store.GetByStixID(component.DataSourceRef); err == nil {
				d.DataSource = source
			}
		}
		out = append(out, d)
	}
	return out, nil
}

// TechniquesDetectedBy lists the techniques a data component detects. Data
// components carry no ATT&CK ID, so the component is named ("Process
// Creation"), matched exactly and case-insensitively.
func TechniquesDetectedBy(snap *snapshot.Snapshot, domain, componentName string) ([]*stix.Object, error) {
	data, err := snap.Domain(domain)
	if err != nil {
		return nil, err
	}
	for obj := range data.Store.FindByName(componentName, true) {
		if obj.Type == stix.TypeDataComponent {
			return data.Index.TechniquesDetectedBy(obj.ID)
		}
	}
	return nil, attackkb.E("query.TechniquesDetectedBy", attackkb.KindNotFound, map[string]any{
		"data_component": componentName,
		"domain":         domain,
	})
}

// AllDataSources lists the data sources of a domain.
func AllDataSources(snap *snapshot.Snapshot, domain string) ([]*stix.Object, error) {
	data, err := snap.Domain(domain)
	if err != nil {
		return nil, err
	}
	return data.Store.ObjectsByType(stix.TypeDataSource, false), nil
}

// AllDataComponents lists the data components of a domain.
func AllDataComponents(snap *snapshot.Snapshot, domain string) ([]*stix.Object, error) {
	data, err := snap.Domain(domain)
	if err != nil {
		return nil, err
	}
	return data.Store.ObjectsByType(stix.TypeDataComponent, false), nil
}

// AllAssets lists the assets of a domain. Assets only exist in the ICS
// dataset; other domains return an empty list, not an error.
func AllAssets(snap *snapshot.Snapshot, domain string) ([]*stix.Object, error) {
	data, err := snap.Domain(domain)
	if err != nil {
		return nil, err
	}
	return data.Store.ObjectsByType(stix.TypeAsset, false), nil
}

// AssetsTargetedByTechnique lists the assets a technique targets.
func AssetsTargetedByTechnique(snap *snapshot.Snapshot, domain, attackID string) ([]*stix.Object, error) {
	data, technique, err := techniqueByAttackID(snap, domain, attackID)
	if err != nil {
		return nil, err
	}
	return data.Index.AssetsTargetedBy(technique.ID)
}

// TechniquesTargetingAsset lists the techniques targeting an asset, given the
// asset's ATT&CK ID.
func TechniquesTargetingAsset(snap *snapshot.Snapshot, domain, assetID string) ([]*stix.Object, error) {
	data, err := snap.Domain(domain)
	if err != nil {
		return nil, err
	}
	asset, err := data.Store.GetByAttackID(assetID, stix.TypeAsset)
	if err != nil {
		return nil, err
	}
	return data.Index.TechniquesTargeting(asset.ID)
}

// ProceduresForTechnique lists the documented uses of a technique.
func ProceduresForTechnique(snap *snapshot.Snapshot, domain, attackID string) ([]relindex.Procedure, error) {
	data, technique, err := techniqueByAttackID(snap, domain, attackID)
	if err != nil {
		return nil, err
	}
	return data.Index.ProcedureExamples(technique.ID)
}

// TechniqueProcedures groups a technique with its documented uses.
type TechniqueProcedures struct {
	Technique  *stix.Object
	Procedures []relindex.Procedure
}

// ProceduresForTactic collects procedure examples for every technique in a
// tactic. Techniques without documented uses are omitted.
func ProceduresForTactic(snap *snapshot.Snapshot, domain, tactic string) ([]TechniqueProcedures, error) {
	data, err := snap.Domain(domain)
	if err != nil {
		return nil, err
	}
	techniques, err := TechniquesByTactic(snap, domain, tactic)
	if err != nil {
		return nil, err
	}
	var out []TechniqueProcedures
	for _, technique := range techniques {
		procedures, err := data.Index.ProcedureExamples(technique.ID)
		if err != nil || len(procedures) == 0 {
			continue
		}
		out = append(out, TechniqueProcedures{Technique: technique, Procedures: procedures})
	}
	return out, nil
}

// TechniquesUsedByAllGroups intersects the technique sets of several groups,
// two-hop software chains included, returning the techniques every named
// group uses.
func TechniquesUsedByAllGroups(snap *snapshot.Snapshot, domain string, groupIDs ...string) ([]*stix.Object, error) {
	data, err := snap.Domain(domain)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	byID := make(map[string]*stix.Object)
	for _, groupID := range groupIDs {
		group, err := data.Store.GetByAttackID(groupID, stix.TypeGroup)
		if err != nil {
			return nil, err
		}
		techniques, err := data.Index.TechniquesUsedBy(group.ID)
		if err != nil {
			return nil, err
		}
		for _, t := range techniques {
			counts[t.AttackID()]++
			byID[t.AttackID()] = t
		}
	}

	var shared []*stix.Object
	for id, n := range counts {
		if n == len(groupIDs) {
			shared = append(shared, byID[id])
		}
	}
	slices.SortFunc(shared, func(a, b *stix.Object) int {
		return strings.Compare(a.AttackID(), b.AttackID())
	})
	return shared, nil
}
