package stix

import (
	"regexp"
	"strings"
)

// Domain is one of the three ATT&CK knowledge-base partitions.
type Domain string

const (
	DomainEnterprise Domain = "enterprise"
	DomainMobile     Domain = "mobile"
	DomainICS        Domain = "ics"
)

// Domains lists all supported domains in canonical order.
var Domains = []Domain{DomainEnterprise, DomainMobile, DomainICS}

// Collection returns the collection key used in file names and kill chain
// names, e.g. "enterprise-attack".
func (d Domain) Collection() string {
	return string(d) + "-attack"
}

// domainNames maps accepted domain spellings (lowercased) to the canonical
// domain. The table is static: the accepted vocabulary is part of the API,
// not something callers extend at runtime.
var domainNames = map[string]Domain{
	"enterprise":        DomainEnterprise,
	"enterprise-attack": DomainEnterprise,
	"mobile":            DomainMobile,
	"mobile-attack":     DomainMobile,
	"ics":               DomainICS,
	"ics-attack":        DomainICS,
}

// ParseDomain resolves a domain name case-insensitively, accepting both the
// short form ("enterprise") and the collection form ("enterprise-attack").
func ParseDomain(name string) (Domain, bool) {
	d, ok := domainNames[strings.ToLower(strings.TrimSpace(name))]
	return d, ok
}

// typeNames maps accepted object type spellings (lowercased) to canonical
// STIX types. Shorthands cover the vocabulary the original tool surface used
// alongside the raw STIX type names.
var typeNames = map[string]string{
	"attack-pattern":         TypeTechnique,
	"technique":              TypeTechnique,
	"techniques":             TypeTechnique,
	"intrusion-set":          TypeGroup,
	"group":                  TypeGroup,
	"groups":                 TypeGroup,
	"malware":                TypeMalware,
	"tool":                   TypeTool,
	"campaign":               TypeCampaign,
	"campaigns":              TypeCampaign,
	"course-of-action":       TypeMitigation,
	"mitigation":             TypeMitigation,
	"mitigations":            TypeMitigation,
	"x-mitre-tactic":         TypeTactic,
	"tactic":                 TypeTactic,
	"tactics":                TypeTactic,
	"x-mitre-matrix":         TypeMatrix,
	"matrix":                 TypeMatrix,
	"x-mitre-data-source":    TypeDataSource,
	"data-source":            TypeDataSource,
	"datasource":             TypeDataSource,
	"x-mitre-data-component": TypeDataComponent,
	"data-component":         TypeDataComponent,
	"datacomponent":          TypeDataComponent,
	"x-mitre-asset":          TypeAsset,
	"asset":                  TypeAsset,
	"assets":                 TypeAsset,
}

// NormalizeType resolves an object type name or shorthand, case-insensitively,
// to its canonical STIX type. "software" is not resolvable here: it spans the
// malware and tool STIX types and is handled by IsSoftwareType.
func NormalizeType(name string) (string, bool) {
	t, ok := typeNames[strings.ToLower(strings.TrimSpace(name))]
	return t, ok
}

// IsSoftwareType reports whether a STIX type is one of the two software types.
func IsSoftwareType(stixType string) bool {
	return stixType == TypeMalware || stixType == TypeTool
}

// attackIDPattern matches the ATT&CK ID shapes the layer generator accepts as
// a match target: groups, software, mitigations, and data components.
var attackIDPattern = regexp.MustCompile(`^[GSMD]\d+$`)

// IsLayerMatchID reports whether an ATT&CK ID names an object a usage layer
// can be generated for. Technique IDs (TXXXX) are deliberately excluded; the
// layer is derived from the techniques the matched object uses.
func IsLayerMatchID(attackID string) bool {
	return attackIDPattern.MatchString(attackID)
}

// IsSubtechniqueID reports whether an ATT&CK technique ID names a
// sub-technique (T1055.001 as opposed to T1055).
func IsSubtechniqueID(attackID string) bool {
	return strings.Contains(attackID, ".")
}
