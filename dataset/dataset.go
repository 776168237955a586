// Package dataset implements the Dataset Store: parsed STIX objects for one
// domain and version, indexed by STIX ID, ATT&CK ID, type, and alias.
//
// A Store is built once by Load and never mutated afterwards, so any number
// of concurrent readers may share it. Ordering of multi-result lookups is by
// ATT&CK ID ascending; that ordering is a contract for reproducible output.
package dataset

import (
	"iter"
	"sort"
	"strings"

	"github.com/zero-day-ai/attackkb"
	"github.com/zero-day-ai/attackkb/stix"
)

// Store holds the parsed objects of a single domain+version dataset.
type Store struct {
	domain  stix.Domain
	version string

	byStixID          map[string]*stix.Object
	byAttackID        map[string][]*stix.Object
	byType            map[string][]*stix.Object
	byAlias           map[string][]*stix.Object
	tacticByShortname map[string]*stix.Object

	// ordered is every object sorted by ATT&CK ID, the iteration backbone
	// for the name/content searches.
	ordered []*stix.Object

	relationships []*stix.Relationship
}

// Load parses a raw STIX bundle into a Store for the given domain and
// version. The domain name accepts the same spellings as stix.ParseDomain.
//
// A malformed bundle yields a KindDataFormat error; an unsupported domain
// name yields KindUnknownDomain. Per the partial-availability contract, the
// caller loads each domain independently and keeps the ones that succeed.
func Load(domain, version string, raw []byte) (*Store, error) {
	const op = "dataset.Load"

	d, ok := stix.ParseDomain(domain)
	if !ok {
		return nil, attackkb.E(op, attackkb.KindUnknownDomain, map[string]any{
			"domain": domain,
		})
	}

	bundle, err := stix.ParseBundle(raw)
	if err != nil {
		e := attackkb.E(op, attackkb.KindDataFormat, map[string]any{
			"domain":  string(d),
			"version": version,
		})
		e.Err = err
		return nil, e
	}

	s := &Store{
		domain:            d,
		version:           version,
		byStixID:          make(map[string]*stix.Object, len(bundle.Objects)),
		byAttackID:        make(map[string][]*stix.Object),
		byType:            make(map[string][]*stix.Object),
		byAlias:           make(map[string][]*stix.Object),
		tacticByShortname: make(map[string]*stix.Object),
		relationships:     bundle.Relationships,
	}

	for _, obj := range bundle.Objects {
		s.byStixID[obj.ID] = obj
		s.byType[obj.Type] = append(s.byType[obj.Type], obj)
		s.ordered = append(s.ordered, obj)

		if id := obj.AttackID(); id != "" {
			s.byAttackID[id] = append(s.byAttackID[id], obj)
		}
		for _, alias := range obj.Aliases {
			key := strings.ToLower(alias)
			s.byAlias[key] = append(s.byAlias[key], obj)
		}
		if obj.Type == stix.TypeTactic && obj.Shortname != "" {
			s.tacticByShortname[obj.Shortname] = obj
		}
	}

	SortByAttackID(s.ordered)
	for _, objs := range s.byType {
		SortByAttackID(objs)
	}
	for _, objs := range s.byAlias {
		SortByAttackID(objs)
	}
	for _, objs := range s.byAttackID {
		SortByAttackID(objs)
	}

	return s, nil
}

// SortByAttackID orders objects by ATT&CK ID ascending, falling back to
// STIX ID for objects without one (identities and the like). This ordering
// is the determinism contract for every multi-result lookup.
func SortByAttackID(objs []*stix.Object) {
	sort.SliceStable(objs, func(i, j int) bool {
		a, b := objs[i].AttackID(), objs[j].AttackID()
		if a != b {
			// Objects without an ATT&CK ID sort last.
			if a == "" {
				return false
			}
			if b == "" {
				return true
			}
			return a < b
		}
		return objs[i].ID < objs[j].ID
	})
}

// Domain returns the domain this store was loaded for.
func (s *Store) Domain() stix.Domain { return s.domain }

// Version returns the dataset version this store was loaded from.
func (s *Store) Version() string { return s.version }

// Relationships returns all relationship objects from the bundle, including
// dangling ones; the Relationship Index decides what to keep.
func (s *Store) Relationships() []*stix.Relationship { return s.relationships }

// GetByStixID resolves a STIX identifier.
func (s *Store) GetByStixID(id string) (*stix.Object, error) {
	obj, ok := s.byStixID[id]
	if !ok {
		return nil, attackkb.E("dataset.GetByStixID", attackkb.KindNotFound, map[string]any{
			"stix_id": id,
			"domain":  string(s.domain),
			"version": s.version,
		})
	}
	return obj, nil
}

// GetByAttackID resolves an ATT&CK ID, requiring the object to have the
// expected STIX type. When the ID exists only under other types the error is
// KindTypeMismatch rather than KindNotFound, and its context names the type
// actually found.
//
// Among historical duplicates sharing an ATT&CK ID, the non-revoked,
// non-deprecated object wins.
func (s *Store) GetByAttackID(attackID, expectedType string) (*stix.Object, error) {
	const op = "dataset.GetByAttackID"

	matches := s.byAttackID[attackID]
	if len(matches) == 0 {
		return nil, attackkb.E(op, attackkb.KindNotFound, map[string]any{
			"attack_id": attackID,
			"domain":    string(s.domain),
			"version":   s.version,
		})
	}

	var typed *stix.Object
	for _, obj := range matches {
		if obj.Type != expectedType {
			continue
		}
		if typed == nil || (typed.Inactive() && !obj.Inactive()) {
			typed = obj
		}
	}
	if typed == nil {
		return nil, attackkb.E(op, attackkb.KindTypeMismatch, map[string]any{
			"attack_id":     attackID,
			"expected_type": expectedType,
			"actual_type":   matches[0].Type,
			"domain":        string(s.domain),
		})
	}
	return typed, nil
}

// ByAttackID returns every object carrying the ATT&CK ID regardless of STIX
// type. Most IDs map to exactly one object; historical duplicates keep a
// revoked predecessor alongside the active one.
func (s *Store) ByAttackID(attackID string) []*stix.Object {
	return s.byAttackID[attackID]
}

// ObjectsByType returns all objects of a STIX type ordered by ATT&CK ID.
// Revoked and deprecated objects are excluded unless includeInactive is set.
func (s *Store) ObjectsByType(stixType string, includeInactive bool) []*stix.Object {
	objs := s.byType[stixType]
	if includeInactive {
		return objs
	}
	active := make([]*stix.Object, 0, len(objs))
	for _, obj := range objs {
		if !obj.Inactive() {
			active = append(active, obj)
		}
	}
	return active
}

// TacticByShortname resolves a tactic by its kill chain phase name
// (e.g. "defense-evasion").
func (s *Store) TacticByShortname(shortname string) (*stix.Object, error) {
	key := strings.ToLower(strings.TrimSpace(shortname))
	key = strings.ReplaceAll(key, " ", "-")
	obj, ok := s.tacticByShortname[key]
	if !ok {
		return nil, attackkb.E("dataset.TacticByShortname", attackkb.KindNotFound, map[string]any{
			"tactic": shortname,
			"domain": string(s.domain),
		})
	}
	return obj, nil
}

// AliasMatches returns every object carrying the alias, case-insensitively,
// ordered by ATT&CK ID. Revoked and deprecated carriers are included; the
// query layer applies the revocation filter and the ambiguity policy.
func (s *Store) AliasMatches(alias string) []*stix.Object {
	return s.byAlias[strings.ToLower(strings.TrimSpace(alias))]
}

// FindByName returns a restartable sequence of active objects whose name
// matches, case-insensitively. Exact mode requires equality; fuzzy mode
// matches substrings. The sequence is recomputed on every range, holds no
// cursor state, and yields in ATT&CK ID order.
func (s *Store) FindByName(name string, exact bool) iter.Seq[*stix.Object] {
	needle := strings.ToLower(name)
	return func(yield func(*stix.Object) bool) {
		for _, obj := range s.ordered {
			if obj.Inactive() || obj.Name == "" {
				continue
			}
			candidate := strings.ToLower(obj.Name)
			if exact {
				if candidate != needle {
					continue
				}
			} else if !strings.Contains(candidate, needle) {
				continue
			}
			if !yield(obj) {
				return
			}
		}
	}
}

// FindByContent returns a restartable sequence of active objects whose
// description contains the text, case-insensitively, in ATT&CK ID order.
func (s *Store) FindByContent(text string) iter.Seq[*stix.Object] {
	needle := strings.ToLower(text)
	return func(yield func(*stix.Object) bool) {
		for _, obj := range s.ordered {
			if obj.Inactive() || obj.Description == "" {
				continue
			}
			if !strings.Contains(strings.ToLower(obj.Description), needle) {
				continue
			}
			if !yield(obj) {
				return
			}
		}
	}
}
