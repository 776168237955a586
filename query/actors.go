package query

import (
	"github.com/zero-day-ai/attackkb"
	"github.com/zero-day-ai/attackkb/snapshot"
	"github.com/zero-day-ai/attackkb/stix"
)

// resolveAlias resolves an alias to exactly one active object of the given
// types. Revoked and deprecated carriers are filtered first; if more than one
// active object still carries the alias the caller gets the candidate list
// and must disambiguate.
func resolveAlias(op string, data *snapshot.DomainData, domain, alias string, types ...string) (*stix.Object, error) {
	var active []*stix.Object
	for _, obj := range data.Store.AliasMatches(alias) {
		if obj.Inactive() {
			continue
		}
		if len(types) > 0 && !containsType(types, obj.Type) {
			continue
		}
		active = append(active, obj)
	}

	switch len(active) {
	case 0:
		return nil, attackkb.E(op, attackkb.KindNotFound, map[string]any{
			"alias":  alias,
			"domain": domain,
		})
	case 1:
		return active[0], nil
	}

	candidates := make([]attackkb.Candidate, len(active))
	for i, obj := range active {
		candidates[i] = attackkb.Candidate{
			StixID:   obj.ID,
			AttackID: obj.AttackID(),
			Name:     obj.Name,
			Type:     obj.Type,
		}
	}
	return nil, &attackkb.MultipleMatchesError{
		Alias:      alias,
		Domain:     domain,
		Candidates: candidates,
	}
}

func containsType(types []string, t string) bool {
	for _, candidate := range types {
		if candidate == t {
			return true
		}
	}
	return false
}

// GroupByAlias resolves a group by any of its aliases ("Fancy Bear" finds
// APT28).
func GroupByAlias(snap *snapshot.Snapshot, domain, alias string) (*stix.Object, error) {
	data, err := snap.Domain(domain)
	if err != nil {
		return nil, err
	}
	return resolveAlias("query.GroupByAlias", data, domain, alias, stix.TypeGroup)
}

// SoftwareByAlias resolves a malware or tool by any of its aliases.
func SoftwareByAlias(snap *snapshot.Snapshot, domain, alias string) (*stix.Object, error) {
	data, err := snap.Domain(domain)
	if err != nil {
		return nil, err
	}
	return resolveAlias("query.SoftwareByAlias", data, domain, alias, stix.TypeMalware, stix.TypeTool)
}

// CampaignByAlias resolves a campaign by any of its aliases.
func CampaignByAlias(snap *snapshot.Snapshot, domain, alias string) (*stix.Object, error) {
	data, err := snap.Domain(domain)
	if err != nil {
		return nil, err
	}
	return resolveAlias("query.CampaignByAlias", data, domain, alias, stix.TypeCampaign)
}

func groupByAttackID(snap *snapshot.Snapshot, domain, groupID string) (*snapshot.DomainData, *stix.Object, error) {
	data, err := snap.Domain(domain)
	if err != nil {
		return nil, nil, err
	}
	group, err := data.Store.GetByAttackID(groupID, stix.TypeGroup)
	if err != nil {
		return nil, nil, err
	}
	return data, group, nil
}

func campaignByAttackID(snap *snapshot.Snapshot, domain, campaignID string) (*snapshot.DomainData, *stix.Object, error) {
	data, err := snap.Domain(domain)
	if err != nil {
		return nil, nil, err
	}
	campaign, err := data.Store.GetByAttackID(campaignID, stix.TypeCampaign)
	if err != nil {
		return nil, nil, err
	}
	return data, campaign, nil
}

// softwareByAttackID resolves a software ATT&CK ID against both software
// types; malware and tools share the SXXXX ID space.
func softwareByAttackID(snap *snapshot.Snapshot, domain, softwareID string) (*snapshot.DomainData, *stix.Object, error) {
	data, err := snap.Domain(domain)
	if err != nil {
		return nil, nil, err
	}
	software, err := data.Store.GetByAttackID(softwareID, stix.TypeMalware)
	if err != nil {
		software, err = data.Store.GetByAttackID(softwareID, stix.TypeTool)
	}
	if err != nil {
		return nil, nil, err
	}
	return data, software, nil
}

// TechniquesUsedByGroup lists the techniques a group uses, directly or
// through its software, given the group's ATT&CK ID.
func TechniquesUsedByGroup(snap *snapshot.Snapshot, domain, groupID string) ([]*stix.Object, error) {
	data, group, err := groupByAttackID(snap, domain, groupID)
	if err != nil {
		return nil, err
	}
	return data.Index.TechniquesUsedBy(group.ID)
}

// TechniquesUsedByGroupAlias lists the techniques a group uses, resolving the
// group by alias first.
func TechniquesUsedByGroupAlias(snap *snapshot.Snapshot, domain, alias string) ([]*stix.Object, error) {
	data, err := snap.Domain(domain)
	if err != nil {
		return nil, err
	}
	group, err := resolveAlias("query.TechniquesUsedByGroupAlias", data, domain, alias, stix.TypeGroup)
	if err != nil {
		return nil, err
	}
	return data.Index.TechniquesUsedBy(group.ID)
}

// TechniquesUsedByGroupSoftware lists only the techniques a group reaches
// through its software, excluding its direct techniques.
func TechniquesUsedByGroupSoftware(snap *snapshot.Snapshot, domain, groupID string) ([]*stix.Object, error) {
	data, group, err := groupByAttackID(snap, domain, groupID)
	if err != nil {
		return nil, err
	}
	return data.Index.TechniquesUsedBySoftwareOf(group.ID)
}

// SoftwareUsedByGroup lists the software a group uses.
func SoftwareUsedByGroup(snap *snapshot.Snapshot, domain, groupID string) ([]*stix.Object, error) {
	data, group, err := groupByAttackID(snap, domain, groupID)
	if err != nil {
		return nil, err
	}
	return data.Index.SoftwareUsedBy(group.ID)
}

// GroupsUsingTechnique lists the groups with a direct uses edge to a
// technique.
func GroupsUsingTechnique(snap *snapshot.Snapshot, domain, techniqueID string) ([]*stix.Object, error) {
	data, technique, err := techniqueByAttackID(snap, domain, techniqueID)
	if err != nil {
		return nil, err
	}
	return data.Index.GroupsUsing(technique.ID)
}

// GroupsUsingSoftware lists the groups using a piece of software.
func GroupsUsingSoftware(snap *snapshot.Snapshot, domain, softwareID string) ([]*stix.Object, error) {
	data, software, err := softwareByAttackID(snap, domain, softwareID)
	if err != nil {
		return nil, err
	}
	return data.Index.GroupsUsing(software.ID)
}

// SoftwareUsingTechnique lists the malware and tools with a uses edge to a
// technique.
func SoftwareUsingTechnique(snap *snapshot.Snapshot, domain, techniqueID string) ([]*stix.Object, error) {
	data, technique, err := techniqueByAttackID(snap, domain, techniqueID)
	if err != nil {
		return nil, err
	}
	return data.Index.SoftwareUsing(technique.ID)
}

// TechniquesUsedBySoftware lists the techniques a piece of software uses.
func TechniquesUsedBySoftware(snap *snapshot.Snapshot, domain, softwareID string) ([]*stix.Object, error) {
	data, software, err := softwareByAttackID(snap, domain, softwareID)
	if err != nil {
		return nil, err
	}
	return data.Index.TechniquesUsedBy(software.ID)
}

// CampaignsAttributedToGroup lists the campaigns attributed to a group.
func CampaignsAttributedToGroup(snap *snapshot.Snapshot, domain, groupID string) ([]*stix.Object, error) {
	data, group, err := groupByAttackID(snap, domain, groupID)
	if err != nil {
		return nil, err
	}
	return data.Index.CampaignsAttributedTo(group.ID)
}

// GroupsAttributedToCampaign lists the groups a campaign is attributed to.
func GroupsAttributedToCampaign(snap *snapshot.Snapshot, domain, campaignID string) ([]*stix.Object, error) {
	data, campaign, err := campaignByAttackID(snap, domain, campaignID)
	if err != nil {
		return nil, err
	}
	return data.Index.GroupsAttributedToCampaign(campaign.ID)
}

// CampaignsUsingTechnique lists the campaigns with a uses edge to a
// technique.
func CampaignsUsingTechnique(snap *snapshot.Snapshot, domain, techniqueID string) ([]*stix.Object, error) {
	data, technique, err := techniqueByAttackID(snap, domain, techniqueID)
	if err != nil {
		return nil, err
	}
	return data.Index.CampaignsUsing(technique.ID)
}

// CampaignsUsingSoftware lists the campaigns using a piece of software.
func CampaignsUsingSoftware(snap *snapshot.Snapshot, domain, softwareID string) ([]*stix.Object, error) {
	data, software, err := softwareByAttackID(snap, domain, softwareID)
	if err != nil {
		return nil, err
	}
	return data.Index.CampaignsUsing(software.ID)
}

// TechniquesUsedByCampaign lists the techniques a campaign uses directly.
func TechniquesUsedByCampaign(snap *snapshot.Snapshot, domain, campaignID string) ([]*stix.Object, error) {
	data, campaign, err := campaignByAttackID(snap, domain, campaignID)
	if err != nil {
		return nil, err
	}
	return data.Index.TechniquesUsedBy(campaign.ID)
}

// SoftwareUsedByCampaign lists the software a campaign uses.
func SoftwareUsedByCampaign(snap *snapshot.Snapshot, domain, campaignID string) ([]*stix.Object, error) {
	data, campaign, err := campaignByAttackID(snap, domain, campaignID)
	if err != nil {
		return nil, err
	}
	return data.Index.SoftwareUsedBy(campaign.ID)
}
