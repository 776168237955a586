// Package schema provides JSON Schema types and validation for the operation
// catalog's parameter declarations.
//
// Every catalog operation declares its parameters as a schema.JSON object;
// Dispatch validates incoming arguments against it before the handler runs,
// so handlers never see structurally invalid input.
//
// # Basic Usage
//
// Building a parameter schema:
//
//	params := schema.Object(map[string]schema.JSON{
//		"domain":    schema.StringWithDesc("ATT&CK domain (enterprise, mobile, or ics)"),
//		"attack_id": schema.StringWithDesc("ATT&CK ID, e.g. T1055"),
//		"score":     schema.Number(),
//	}, "domain", "attack_id")
//
// Validating arguments:
//
//	err := params.Validate(map[string]any{
//		"domain":    "enterprise",
//		"attack_id": "T1055",
//	})
//
// # Constraints
//
// Constraints attach through the struct fields directly:
//
//	min := 0.0
//	scoreSchema := schema.JSON{Type: "number", Minimum: &min}
//
//	idSchema := schema.JSON{Type: "string", Pattern: `^[GSMD]\d+$`}
//
// Enumerations restrict a value to a fixed vocabulary:
//
//	domainSchema := schema.Enum("enterprise", "mobile", "ics")
package schema
