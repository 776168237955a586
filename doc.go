// Package attackkb provides the core of a MITRE ATT&CK knowledge-base query
// service: parsed STIX datasets, a typed relationship index, a catalog of
// lookup operations, and ATT&CK Navigator layer synthesis.
//
// The package tree is consumed by an external tool-calling transport (MCP or
// similar) that maps named operations onto the catalog; the core itself never
// touches transport framing.
//
// # Core Concepts
//
//   - Dataset Store: parsed STIX objects per domain and version, indexed by
//     STIX ID, ATT&CK ID, and alias (package dataset)
//   - Relationship Index: typed adjacency lists derived from STIX
//     relationship objects in a single pass (package relindex)
//   - Snapshot: an immutable Dataset Store + Relationship Index bundle that
//     every query receives explicitly; refreshes swap the whole snapshot
//     atomically (package snapshot)
//   - Query Layer: the lookup catalog as pure functions over a snapshot
//     (package query)
//   - Layer Synthesizer: Navigator layer documents built from technique
//     scores (package navlayer)
//   - Catalog: the static operation table, one entry per tool-callable
//     operation with its parameter schema (package catalog)
//
// # Architecture
//
// The load path runs once per version: raw STIX bundles are parsed into a
// Dataset Store, the Relationship Index is built by one pass over all
// relationship objects, and both are sealed into a Snapshot. After that every
// operation is a read against immutable data, safe for any number of
// concurrent callers.
//
// # Getting Started
//
// Load a snapshot from a data directory and query it:
//
//	import (
//		"github.com/zero-day-ai/attackkb/query"
//		"github.com/zero-day-ai/attackkb/snapshot"
//	)
//
//	snap, err := snapshot.LoadDir(ctx, "mitre-attack-data", "17.1", nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	techniques, err := query.TechniquesUsedByGroupAlias(snap, "enterprise", "APT28")
//
// # Errors
//
// All failures surface as *Error values carrying the failed operation, an
// error kind from the taxonomy in this package, and the offending
// identifier/domain as context. They are recoverable conditions for the
// caller, never process-fatal.
package attackkb
