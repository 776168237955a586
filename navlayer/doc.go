// Package navlayer synthesizes ATT&CK Navigator layer documents (layer
// format 4.5) from scored technique sets.
//
// GenerateLayer turns a list of technique scores into a complete layer:
// duplicate technique IDs are aggregated (sum by default), every entry gets a
// color interpolated from the layer gradient, and the document carries the
// Navigator version block, layout, and per-domain platform filters the
// upstream Navigator expects. UsageLayer builds the common "what does this
// group/software/mitigation/data component touch" layer from a single ATT&CK
// ID match.
package navlayer
