// Package stix decodes MITRE ATT&CK STIX 2.x bundles into the object and
// relationship values the rest of the knowledge base is built from.
//
// Decoding is deliberately lossy: only the fields the Dataset Store and
// Relationship Index consume are kept. The raw documents stay the property of
// the external data source and are never mutated or written back.
package stix
