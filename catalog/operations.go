package catalog

import (
	"sort"
	"time"

	"github.com/zero-day-ai/attackkb"
	"github.com/zero-day-ai/attackkb/navlayer"
	"github.com/zero-day-ai/attackkb/query"
	"github.com/zero-day-ai/attackkb/schema"
	"github.com/zero-day-ai/attackkb/snapshot"
)

// Handler executes one catalog operation against a snapshot. Arguments have
// already passed schema validation when a handler runs.
type Handler func(snap *snapshot.Snapshot, args Args) (any, error)

// Operation is one entry of the static operation table.
type Operation struct {
	Name        string
	Description string
	Params      schema.JSON
	handler     Handler
}

// Shared parameter schemas. Domain is optional everywhere and defaults to
// enterprise.
var (
	domainParam    = schema.StringWithDesc("ATT&CK domain: enterprise, mobile, or ics (default enterprise)")
	attackIDParam  = schema.StringWithDesc("ATT&CK ID, e.g. T1055, G0007, S0154")
	aliasParam     = schema.StringWithDesc("Alias to resolve, matched case-insensitively")
	timestampParam = schema.StringWithDesc("RFC 3339 timestamp, e.g. 2024-01-01T00:00:00Z")
)

func params(properties map[string]schema.JSON, required ...string) schema.JSON {
	if properties == nil {
		properties = map[string]schema.JSON{}
	}
	properties["domain"] = domainParam
	return schema.Object(properties, required...)
}

// operations is the full static table, keyed by operation name.
var operations = buildTable()

// Operations returns every operation in the table, ordered by name.
func Operations() []Operation {
	out := make([]Operation, 0, len(operations))
	for _, op := range operations {
		out = append(out, op)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Lookup resolves an operation by name.
func Lookup(name string) (Operation, bool) {
	op, ok := operations[name]
	return op, ok
}

func parseTimestamp(op, value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		e := attackkb.E(op, attackkb.KindDataFormat, map[string]any{
			"timestamp": value,
		})
		e.Err = err
		return time.Time{}, e
	}
	return t, nil
}

func buildTable() map[string]Operation {
	table := []Operation{
		// Object lookups.
		{
			Name:        "get_object_by_attack_id",
			Description: "Resolve an ATT&CK ID to its object, requiring a STIX type",
			Params: params(map[string]schema.JSON{
				"attack_id": attackIDParam,
				"stix_type": schema.StringWithDesc("Expected STIX type or shorthand, e.g. technique, group"),
			}, "attack_id", "stix_type"),
			handler: func(snap *snapshot.Snapshot, args Args) (any, error) {
				return query.ObjectByAttackID(snap, args.domain(), args.String("attack_id"), args.String("stix_type"))
			},
		},
		{
			Name:        "get_object_by_stix_id",
			Description: "Resolve a STIX identifier to its object",
			Params: params(map[string]schema.JSON{
				"stix_id": schema.StringWithDesc("STIX identifier, e.g. attack-pattern--..."),
			}, "stix_id"),
			handler: func(snap *snapshot.Snapshot, args Args) (any, error) {
				return query.ObjectByStixID(snap, args.domain(), args.String("stix_id"))
			},
		},
		{
			Name:        "get_objects_by_name",
			Description: "Find active objects by name, exactly or by substring",
			Params: params(map[string]schema.JSON{
				"name":  schema.String(),
				"exact": schema.BoolWithDefault(false),
			}, "name"),
			handler: func(snap *snapshot.Snapshot, args Args) (any, error) {
				return query.ObjectsByName(snap, args.domain(), args.String("name"), args.Bool("exact", false))
			},
		},
		{
			Name:        "get_objects_by_content",
			Description: "Find active objects whose description contains the text",
			Params: params(map[string]schema.JSON{
				"text": schema.String(),
			}, "text"),
			handler: func(snap *snapshot.Snapshot, args Args) (any, error) {
				return query.ObjectsByContent(snap, args.domain(), args.String("text"))
			},
		},
		{
			Name:        "get_objects_by_type",
			Description: "List all objects of a STIX type; software spans malware and tools",
			Params: params(map[string]schema.JSON{
				"stix_type":       schema.String(),
				"include_revoked": schema.BoolWithDefault(false),
			}, "stix_type"),
			handler: func(snap *snapshot.Snapshot, args Args) (any, error) {
				return query.ObjectsByType(snap, args.domain(), args.String("stix_type"), args.Bool("include_revoked", false))
			},
		},
		{
			Name:        "get_stix_type_of",
			Description: "Report the STIX type behind an ATT&CK ID",
			Params:      params(map[string]schema.JSON{"attack_id": attackIDParam}, "attack_id"),
			handler: func(snap *snapshot.Snapshot, args Args) (any, error) {
				return query.StixTypeOf(snap, args.domain(), args.String("attack_id"))
			},
		},
		{
			Name:        "get_name_of",
			Description: "Report the name behind an ATT&CK ID",
			Params:      params(map[string]schema.JSON{"attack_id": attackIDParam}, "attack_id"),
			handler: func(snap *snapshot.Snapshot, args Args) (any, error) {
				return query.NameOf(snap, args.domain(), args.String("attack_id"))
			},
		},
		{
			Name:        "get_attack_id_of",
			Description: "Report the ATT&CK ID behind a STIX identifier",
			Params: params(map[string]schema.JSON{
				"stix_id": schema.String(),
			}, "stix_id"),
			handler: func(snap *snapshot.Snapshot, args Args) (any, error) {
				return query.AttackIDOf(snap, args.domain(), args.String("stix_id"))
			},
		},
		{
			Name:        "filter_objects",
			Description: "Filter objects of a type with a CEL expression over envelope fields",
			Params: params(map[string]schema.JSON{
				"stix_type":  schema.String(),
				"expression": schema.StringWithDesc("CEL boolean expression, e.g. !revoked && \"Windows\" in platforms"),
			}, "stix_type", "expression"),
			handler: func(snap *snapshot.Snapshot, args Args) (any, error) {
				filter, err := query.CompileFilter(args.String("expression"))
				if err != nil {
					return nil, err
				}
				return query.FilterObjects(snap, args.domain(), args.String("stix_type"), filter)
			},
		},
		{
			Name:        "get_objects_created_after",
			Description: "List active objects of a type created after a timestamp",
			Params: params(map[string]schema.JSON{
				"stix_type": schema.String(),
				"timestamp": timestampParam,
			}, "stix_type", "timestamp"),
			handler: func(snap *snapshot.Snapshot, args Args) (any, error) {
				after, err := parseTimestamp("catalog.get_objects_created_after", args.String("timestamp"))
				if err != nil {
					return nil, err
				}
				return query.ObjectsCreatedAfter(snap, args.domain(), args.String("stix_type"), after)
			},
		},
		{
			Name:        "get_objects_modified_after",
			Description: "List active objects of a type modified after a timestamp",
			Params: params(map[string]schema.JSON{
				"stix_type": schema.String(),
				"timestamp": timestampParam,
			}, "stix_type", "timestamp"),
			handler: func(snap *snapshot.Snapshot, args Args) (any, error) {
				after, err := parseTimestamp("catalog.get_objects_modified_after", args.String("timestamp"))
				if err != nil {
					return nil, err
				}
				return query.ObjectsModifiedAfter(snap, args.domain(), args.String("stix_type"), after)
			},
		},

		// Groups.
		{
			Name:        "get_group_by_alias",
			Description: "Resolve a group by alias; ambiguity returns the candidate list",
			Params:      params(map[string]schema.JSON{"alias": aliasParam}, "alias"),
			handler: func(snap *snapshot.Snapshot, args Args) (any, error) {
				return query.GroupByAlias(snap, args.domain(), args.String("alias"))
			},
		},
		{
			Name:        "get_techniques_used_by_group",
			Description: "Techniques a group uses, directly or through its software",
			Params:      params(map[string]schema.JSON{"group_id": attackIDParam}, "group_id"),
			handler: func(snap *snapshot.Snapshot, args Args) (any, error) {
				return query.TechniquesUsedByGroup(snap, args.domain(), args.String("group_id"))
			},
		},
		{
			Name:        "get_techniques_used_by_group_alias",
			Description: "Techniques a group uses, resolving the group by alias first",
			Params:      params(map[string]schema.JSON{"alias": aliasParam}, "alias"),
			handler: func(snap *snapshot.Snapshot, args Args) (any, error) {
				return query.TechniquesUsedByGroupAlias(snap, args.domain(), args.String("alias"))
			},
		},
		{
			Name:        "get_software_used_by_group",
			Description: "Software a group uses",
			Params:      params(map[string]schema.JSON{"group_id": attackIDParam}, "group_id"),
			handler: func(snap *snapshot.Snapshot, args Args) (any, error) {
				return query.SoftwareUsedByGroup(snap, args.domain(), args.String("group_id"))
			},
		},
		{
			Name:        "get_techniques_used_by_group_software",
			Description: "Techniques a group reaches only through its software",
			Params:      params(map[string]schema.JSON{"group_id": attackIDParam}, "group_id"),
			handler: func(snap *snapshot.Snapshot, args Args) (any, error) {
				return query.TechniquesUsedByGroupSoftware(snap, args.domain(), args.String("group_id"))
			},
		},
		{
			Name:        "get_groups_using_technique",
			Description: "Groups with a direct uses relationship to a technique",
			Params:      params(map[string]schema.JSON{"technique_id": attackIDParam}, "technique_id"),
			handler: func(snap *snapshot.Snapshot, args Args) (any, error) {
				return query.GroupsUsingTechnique(snap, args.domain(), args.String("technique_id"))
			},
		},
		{
			Name:        "get_groups_using_software",
			Description: "Groups using a piece of software",
			Params:      params(map[string]schema.JSON{"software_id": attackIDParam}, "software_id"),
			handler: func(snap *snapshot.Snapshot, args Args) (any, error) {
				return query.GroupsUsingSoftware(snap, args.domain(), args.String("software_id"))
			},
		},
		{
			Name:        "get_campaigns_attributed_to_group",
			Description: "Campaigns attributed to a group",
			Params:      params(map[string]schema.JSON{"group_id": attackIDParam}, "group_id"),
			handler: func(snap *snapshot.Snapshot, args Args) (any, error) {
				return query.CampaignsAttributedToGroup(snap, args.domain(), args.String("group_id"))
			},
		},
		{
			Name:        "get_techniques_used_by_all_groups",
			Description: "Techniques shared by every listed group",
			Params: params(map[string]schema.JSON{
				"group_ids": schema.Array(schema.String()),
			}, "group_ids"),
			handler: func(snap *snapshot.Snapshot, args Args) (any, error) {
				return query.TechniquesUsedByAllGroups(snap, args.domain(), args.Strings("group_ids")...)
			},
		},

		// Software.
		{
			Name:        "get_software_by_alias",
			Description: "Resolve a malware or tool by alias",
			Params:      params(map[string]schema.JSON{"alias": aliasParam}, "alias"),
			handler: func(snap *snapshot.Snapshot, args Args) (any, error) {
				return query.SoftwareByAlias(snap, args.domain(), args.String("alias"))
			},
		},
		{
			Name:        "get_software_using_technique",
			Description: "Malware and tools with a uses relationship to a technique",
			Params:      params(map[string]schema.JSON{"technique_id": attackIDParam}, "technique_id"),
			handler: func(snap *snapshot.Snapshot, args Args) (any, error) {
				return query.SoftwareUsingTechnique(snap, args.domain(), args.String("technique_id"))
			},
		},
		{
			Name:        "get_techniques_used_by_software",
			Description: "Techniques a piece of software uses",
			Params:      params(map[string]schema.JSON{"software_id": attackIDParam}, "software_id"),
			handler: func(snap *snapshot.Snapshot, args Args) (any, error) {
				return query.TechniquesUsedBySoftware(snap, args.domain(), args.String("software_id"))
			},
		},

		// Campaigns.
		{
			Name:        "get_campaign_by_alias",
			Description: "Resolve a campaign by alias",
			Params:      params(map[string]schema.JSON{"alias": aliasParam}, "alias"),
			handler: func(snap *snapshot.Snapshot, args Args) (any, error) {
				return query.CampaignByAlias(snap, args.domain(), args.String("alias"))
			},
		},
		{
			Name:        "get_campaigns_using_technique",
			Description: "Campaigns with a uses relationship to a technique",
			Params:      params(map[string]schema.JSON{"technique_id": attackIDParam}, "technique_id"),
			handler: func(snap *snapshot.Snapshot, args Args) (any, error) {
				return query.CampaignsUsingTechnique(snap, args.domain(), args.String("technique_id"))
			},
		},
		{
			Name:        "get_campaigns_using_software",
			Description: "Campaigns using a piece of software",
			Params:      params(map[string]schema.JSON{"software_id": attackIDParam}, "software_id"),
			handler: func(snap *snapshot.Snapshot, args Args) (any, error) {
				return query.CampaignsUsingSoftware(snap, args.domain(), args.String("software_id"))
			},
		},
		{
			Name:        "get_groups_attributed_to_campaign",
			Description: "Groups a campaign is attributed to",
			Params:      params(map[string]schema.JSON{"campaign_id": attackIDParam}, "campaign_id"),
			handler: func(snap *snapshot.Snapshot, args Args) (any, error) {
				return query.GroupsAttributedToCampaign(snap, args.domain(), args.String("campaign_id"))
			},
		},
		{
			Name:        "get_techniques_used_by_campaign",
			Description: "Techniques a campaign uses directly",
			Params:      params(map[string]schema.JSON{"campaign_id": attackIDParam}, "campaign_id"),
			handler: func(snap *snapshot.Snapshot, args Args) (any, error) {
				return query.TechniquesUsedByCampaign(snap, args.domain(), args.String("campaign_id"))
			},
		},
		{
			Name:        "get_software_used_by_campaign",
			Description: "Software a campaign uses",
			Params:      params(map[string]schema.JSON{"campaign_id": attackIDParam}, "campaign_id"),
			handler: func(snap *snapshot.Snapshot, args Args) (any, error) {
				return query.SoftwareUsedByCampaign(snap, args.domain(), args.String("campaign_id"))
			},
		},

		// Techniques.
		{
			Name:        "get_all_techniques",
			Description: "All active techniques, sub-techniques included",
			Params:      params(nil),
			handler: func(snap *snapshot.Snapshot, args Args) (any, error) {
				return query.AllTechniques(snap, args.domain())
			},
		},
		{
			Name:        "get_all_subtechniques",
			Description: "All active sub-techniques",
			Params:      params(nil),
			handler: func(snap *snapshot.Snapshot, args Args) (any, error) {
				return query.AllSubtechniques(snap, args.domain())
			},
		},
		{
			Name:        "get_all_parent_techniques",
			Description: "All active techniques that are not sub-techniques",
			Params:      params(nil),
			handler: func(snap *snapshot.Snapshot, args Args) (any, error) {
				return query.AllParentTechniques(snap, args.domain())
			},
		},
		{
			Name:        "get_revoked_techniques",
			Description: "Techniques revoked in this dataset version",
			Params:      params(nil),
			handler: func(snap *snapshot.Snapshot, args Args) (any, error) {
				return query.RevokedTechniques(snap, args.domain())
			},
		},
		{
			Name:        "get_techniques_by_platform",
			Description: "Active techniques applying to a platform",
			Params: params(map[string]schema.JSON{
				"platform": schema.StringWithDesc("Platform name, e.g. Windows, Linux, Android"),
			}, "platform"),
			handler: func(snap *snapshot.Snapshot, args Args) (any, error) {
				return query.TechniquesByPlatform(snap, args.domain(), args.String("platform"))
			},
		},
		{
			Name:        "get_techniques_by_tactic",
			Description: "Active techniques in one tactic",
			Params: params(map[string]schema.JSON{
				"tactic": schema.StringWithDesc("Tactic shortname, e.g. defense-evasion"),
			}, "tactic"),
			handler: func(snap *snapshot.Snapshot, args Args) (any, error) {
				return query.TechniquesByTactic(snap, args.domain(), args.String("tactic"))
			},
		},
		{
			Name:        "get_subtechniques_of_technique",
			Description: "Sub-techniques of a technique",
			Params:      params(map[string]schema.JSON{"technique_id": attackIDParam}, "technique_id"),
			handler: func(snap *snapshot.Snapshot, args Args) (any, error) {
				return query.SubtechniquesOfTechnique(snap, args.domain(), args.String("technique_id"))
			},
		},
		{
			Name:        "get_parent_technique_of_subtechnique",
			Description: "Parent technique of a sub-technique",
			Params:      params(map[string]schema.JSON{"technique_id": attackIDParam}, "technique_id"),
			handler: func(snap *snapshot.Snapshot, args Args) (any, error) {
				return query.ParentTechniqueOf(snap, args.domain(), args.String("technique_id"))
			},
		},
		{
			Name:        "get_procedure_examples_by_technique",
			Description: "Documented uses of a technique with procedure descriptions",
			Params:      params(map[string]schema.JSON{"technique_id": attackIDParam}, "technique_id"),
			handler: func(snap *snapshot.Snapshot, args Args) (any, error) {
				return query.ProceduresForTechnique(snap, args.domain(), args.String("technique_id"))
			},
		},
		{
			Name:        "get_procedure_examples_by_tactic",
			Description: "Procedure examples for every technique in a tactic",
			Params: params(map[string]schema.JSON{
				"tactic": schema.String(),
			}, "tactic"),
			handler: func(snap *snapshot.Snapshot, args Args) (any, error) {
				return query.ProceduresForTactic(snap, args.domain(), args.String("tactic"))
			},
		},

		// Tactics and matrices.
		{
			Name:        "get_all_tactics",
			Description: "All tactics of a domain",
			Params:      params(nil),
			handler: func(snap *snapshot.Snapshot, args Args) (any, error) {
				return query.AllTactics(snap, args.domain())
			},
		},
		{
			Name:        "get_all_matrices",
			Description: "All matrices of a domain",
			Params:      params(nil),
			handler: func(snap *snapshot.Snapshot, args Args) (any, error) {
				return query.AllMatrices(snap, args.domain())
			},
		},
		{
			Name:        "get_tactics_by_matrix",
			Description: "Every matrix with its tactics in matrix order",
			Params:      params(nil),
			handler: func(snap *snapshot.Snapshot, args Args) (any, error) {
				return query.TacticsByMatrix(snap, args.domain())
			},
		},
		{
			Name:        "get_tactics_of_technique",
			Description: "Tactics a technique belongs to",
			Params:      params(map[string]schema.JSON{"technique_id": attackIDParam}, "technique_id"),
			handler: func(snap *snapshot.Snapshot, args Args) (any, error) {
				return query.TacticsOfTechnique(snap, args.domain(), args.String("technique_id"))
			},
		},

		// Mitigations.
		{
			Name:        "get_all_mitigations",
			Description: "All active mitigations of a domain",
			Params:      params(nil),
			handler: func(snap *snapshot.Snapshot, args Args) (any, error) {
				return query.AllMitigations(snap, args.domain())
			},
		},
		{
			Name:        "get_mitigations_of_technique",
			Description: "Mitigations addressing a technique",
			Params:      params(map[string]schema.JSON{"technique_id": attackIDParam}, "technique_id"),
			handler: func(snap *snapshot.Snapshot, args Args) (any, error) {
				return query.MitigationsOfTechnique(snap, args.domain(), args.String("technique_id"))
			},
		},
		{
			Name:        "get_techniques_mitigated_by_mitigation",
			Description: "Techniques a mitigation addresses",
			Params:      params(map[string]schema.JSON{"mitigation_id": attackIDParam}, "mitigation_id"),
			handler: func(snap *snapshot.Snapshot, args Args) (any, error) {
				return query.TechniquesMitigatedBy(snap, args.domain(), args.String("mitigation_id"))
			},
		},

		// Detection.
		{
			Name:        "get_all_datasources",
			Description: "All data sources of a domain",
			Params:      params(nil),
			handler: func(snap *snapshot.Snapshot, args Args) (any, error) {
				return query.AllDataSources(snap, args.domain())
			},
		},
		{
			Name:        "get_all_datacomponents",
			Description: "All data components of a domain",
			Params:      params(nil),
			handler: func(snap *snapshot.Snapshot, args Args) (any, error) {
				return query.AllDataComponents(snap, args.domain())
			},
		},
		{
			Name:        "get_datacomponents_detecting_technique",
			Description: "Data components detecting a technique, with parent data sources",
			Params:      params(map[string]schema.JSON{"technique_id": attackIDParam}, "technique_id"),
			handler: func(snap *snapshot.Snapshot, args Args) (any, error) {
				return query.DetectorsOfTechnique(snap, args.domain(), args.String("technique_id"))
			},
		},
		{
			Name:        "get_techniques_detected_by_datacomponent",
			Description: "Techniques a named data component detects",
			Params: params(map[string]schema.JSON{
				"datacomponent_name": schema.StringWithDesc("Data component name, e.g. Process Creation"),
			}, "datacomponent_name"),
			handler: func(snap *snapshot.Snapshot, args Args) (any, error) {
				return query.TechniquesDetectedBy(snap, args.domain(), args.String("datacomponent_name"))
			},
		},

		// ICS assets.
		{
			Name:        "get_all_assets",
			Description: "All assets of a domain (ICS only carries assets)",
			Params:      params(nil),
			handler: func(snap *snapshot.Snapshot, args Args) (any, error) {
				return query.AllAssets(snap, args.domain())
			},
		},
		{
			Name:        "get_assets_targeted_by_technique",
			Description: "Assets a technique targets",
			Params:      params(map[string]schema.JSON{"technique_id": attackIDParam}, "technique_id"),
			handler: func(snap *snapshot.Snapshot, args Args) (any, error) {
				return query.AssetsTargetedByTechnique(snap, args.domain(), args.String("technique_id"))
			},
		},
		{
			Name:        "get_techniques_targeting_asset",
			Description: "Techniques targeting an asset",
			Params:      params(map[string]schema.JSON{"asset_id": attackIDParam}, "asset_id"),
			handler: func(snap *snapshot.Snapshot, args Args) (any, error) {
				return query.TechniquesTargetingAsset(snap, args.domain(), args.String("asset_id"))
			},
		},

		// Layers.
		{
			Name:        "generate_layer",
			Description: "Generate a Navigator usage layer for a group, software, mitigation, or data component match",
			Params: params(map[string]schema.JSON{
				"attack_id": schema.JSON{
					Type:        "string",
					Description: "Single match ATT&CK ID: GXXX, SXXX, MXXX, or DXXX (never a technique)",
					Pattern:     `^[GSMD]\d+$`,
				},
				"score": schema.NumberWithDesc("Score to assign to each matched technique"),
			}, "attack_id", "score"),
			handler: func(snap *snapshot.Snapshot, args Args) (any, error) {
				return navlayer.UsageLayer(snap, args.domain(), args.String("attack_id"), args.Number("score"))
			},
		},
		{
			Name:        "get_layer_metadata",
			Description: "Empty layer document carrying the version block, layout, gradient, and platform filter for a domain",
			Params:      params(nil),
			handler: func(snap *snapshot.Snapshot, args Args) (any, error) {
				return navlayer.LayerTemplate(args.domain())
			},
		},

		// Snapshot.
		{
			Name:        "get_snapshot_info",
			Description: "Identity, version, and loaded domains of the active snapshot",
			Params:      schema.Object(map[string]schema.JSON{}),
			handler: func(snap *snapshot.Snapshot, args Args) (any, error) {
				return map[string]any{
					"id":        snap.ID(),
					"version":   snap.Version(),
					"loaded_at": snap.LoadedAt(),
					"domains":   snap.Domains(),
				}, nil
			},
		},
	}

	m := make(map[string]Operation, len(table))
	for _, op := range table {
		m[op.Name] = op
	}
	return m
}
