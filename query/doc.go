// Package query implements the read operations of the knowledge base as pure
// functions over an explicit snapshot.
//
// Every function takes the snapshot and a domain name as its first arguments;
// there is no package-level dataset state. Alias resolution is
// case-insensitive, filters revoked and deprecated objects, and surfaces any
// residual ambiguity as a MultipleMatchesError carrying the full candidate
// list. All multi-result operations return objects ordered by ATT&CK ID
// ascending.
//
// Ad-hoc predicates over object envelope fields compile to CEL programs via
// CompileFilter; the temporal lookups (ObjectsCreatedAfter and friends) are
// built on the same machinery.
package query
