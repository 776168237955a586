package navlayer

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/zero-day-ai/attackkb"
	"github.com/zero-day-ai/attackkb/snapshot"
	"github.com/zero-day-ai/attackkb/stix"
)

// Aggregation decides how multiple scores for the same technique collapse
// into one.
type Aggregation string

const (
	// AggregationSum adds the scores, the default.
	AggregationSum Aggregation = "sum"

	// AggregationMax keeps the highest score.
	AggregationMax Aggregation = "max"

	// AggregationCount ignores score values and counts occurrences.
	AggregationCount Aggregation = "count"
)

// TechniqueScore is one scored technique going into layer generation. The
// same ATT&CK ID may appear multiple times; the aggregation mode decides how
// the scores combine.
type TechniqueScore struct {
	AttackID string
	Score    float64
	Comment  string
}

// Option customizes layer generation.
type Option func(*options)

type options struct {
	description string
	aggregation Aggregation
	gradient    []string
}

// WithDescription sets the layer description.
func WithDescription(description string) Option {
	return func(o *options) { o.description = description }
}

// WithAggregation selects how duplicate technique scores combine.
func WithAggregation(agg Aggregation) Option {
	return func(o *options) { o.aggregation = agg }
}

// WithGradientColors replaces the default color ramp. Colors are #rrggbbaa
// strings, low score first.
func WithGradientColors(colors ...string) Option {
	return func(o *options) { o.gradient = colors }
}

// GenerateLayer builds a Navigator layer from scored techniques in one
// domain. Every technique ID must resolve in the domain and version the
// snapshot holds; an empty input set or an unresolvable ID yields an
// invalid-layer error naming the offender. Entries come out ordered by
// technique ID, then tactic.
func GenerateLayer(snap *snapshot.Snapshot, domain, name string, scores []TechniqueScore, opts ...Option) (*Layer, error) {
	const op = "navlayer.GenerateLayer"

	data, err := snap.Domain(domain)
	if err != nil {
		return nil, err
	}
	d, _ := stix.ParseDomain(domain)

	if len(scores) == 0 {
		return nil, attackkb.E(op, attackkb.KindInvalidLayer, map[string]any{
			"domain": domain,
			"reason": "no technique scores provided",
		})
	}

	o := options{aggregation: AggregationSum, gradient: defaultGradientColors}
	for _, opt := range opts {
		opt(&o)
	}

	// Aggregate duplicate technique IDs.
	aggregated := make(map[string]float64)
	comments := make(map[string]string)
	var order []string
	for _, ts := range scores {
		// The first score for an ID seeds the aggregate; comparing against
		// the missing-key zero would misreport all-negative inputs.
		if _, ok := aggregated[ts.AttackID]; !ok {
			order = append(order, ts.AttackID)
			if o.aggregation == AggregationCount {
				aggregated[ts.AttackID] = 1
			} else {
				aggregated[ts.AttackID] = ts.Score
			}
		} else {
			switch o.aggregation {
			case AggregationMax:
				if ts.Score > aggregated[ts.AttackID] {
					aggregated[ts.AttackID] = ts.Score
				}
			case AggregationCount:
				aggregated[ts.AttackID]++
			default:
				aggregated[ts.AttackID] += ts.Score
			}
		}
		if ts.Comment != "" && comments[ts.AttackID] == "" {
			comments[ts.AttackID] = ts.Comment
		}
	}
	sort.Strings(order)

	min, max := 0.0, 0.0
	for i, id := range order {
		if i == 0 {
			min, max = aggregated[id], aggregated[id]
			continue
		}
		if aggregated[id] < min {
			min = aggregated[id]
		}
		if aggregated[id] > max {
			max = aggregated[id]
		}
	}

	layer := &Layer{
		ID:          uuid.NewString(),
		Name:        name,
		Versions:    Versions{Attack: attackVersion, Navigator: navigatorVersion, Layer: layerFormat},
		Domain:      d.Collection(),
		Description: o.description,
		Filters:     Filters{Platforms: domainPlatforms[d]},
		Layout: Layout{
			Layout:                "side",
			AggregateFunction:     "average",
			ExpandedSubtechniques: "none",
		},
		Gradient: Gradient{
			Colors:   o.gradient,
			MinValue: min,
			MaxValue: max,
		},
		LegendItems:         []LegendItem{},
		Metadata:            []any{},
		Links:               []any{},
		TacticRowBackground: "#dddddd",
	}

	for _, id := range order {
		technique, err := data.Store.GetByAttackID(id, stix.TypeTechnique)
		if err != nil {
			e := attackkb.E(op, attackkb.KindInvalidLayer, map[string]any{
				"attack_id": id,
				"domain":    domain,
				"version":   snap.Version(),
			})
			e.Err = fmt.Errorf("technique %s does not resolve: %w", id, attackkb.ErrInvalidLayer)
			return nil, e
		}

		score := aggregated[id]
		color := gradientColor(score, min, max, o.gradient)
		if len(technique.KillChainPhases) == 0 {
			layer.Techniques = append(layer.Techniques, TechniqueEntry{
				TechniqueID: id,
				Score:       score,
				Color:       color,
				Comment:     comments[id],
				Enabled:     true,
			})
			continue
		}
		// One cell per tactic the technique appears under.
		for _, phase := range technique.KillChainPhases {
			layer.Techniques = append(layer.Techniques, TechniqueEntry{
				TechniqueID: id,
				Tactic:      phase.PhaseName,
				Score:       score,
				Color:       color,
				Comment:     comments[id],
				Enabled:     true,
			})
		}
	}

	sort.Slice(layer.Techniques, func(i, j int) bool {
		a, b := layer.Techniques[i], layer.Techniques[j]
		if a.TechniqueID != b.TechniqueID {
			return a.TechniqueID < b.TechniqueID
		}
		return a.Tactic < b.Tactic
	})

	return layer, nil
}

// UsageLayer builds the layer of every technique a matched object touches.
// The match is a single group, software, mitigation, or data component
// ATT&CK ID (GXXX, SXXX, MXXX, DXXX); technique IDs are rejected, the layer
// is derived from the match's technique relationships. Every matched
// technique receives the given score.
func UsageLayer(snap *snapshot.Snapshot, domain, matchID string, score float64) (*Layer, error) {
	const op = "navlayer.UsageLayer"

	if !stix.IsLayerMatchID(matchID) {
		return nil, attackkb.E(op, attackkb.KindInvalidLayer, map[string]any{
			"match":  matchID,
			"reason": "match must be a single group, software, mitigation, or data component ATT&CK ID",
		})
	}

	data, err := snap.Domain(domain)
	if err != nil {
		return nil, err
	}

	var match *stix.Object
	for _, obj := range data.Store.ByAttackID(matchID) {
		if !obj.Inactive() {
			match = obj
			break
		}
	}
	if match == nil {
		return nil, attackkb.E(op, attackkb.KindInvalidLayer, map[string]any{
			"match":   matchID,
			"domain":  domain,
			"version": snap.Version(),
		})
	}

	var techniques []*stix.Object
	switch {
	case match.Type == stix.TypeGroup, stix.IsSoftwareType(match.Type):
		techniques, err = data.Index.TechniquesUsedBy(match.ID)
	case match.Type == stix.TypeMitigation:
		techniques, err = data.Index.TechniquesMitigatedBy(match.ID)
	case match.Type == stix.TypeDataComponent:
		techniques, err = data.Index.TechniquesDetectedBy(match.ID)
	default:
		return nil, attackkb.E(op, attackkb.KindInvalidLayer, map[string]any{
			"match": matchID,
			"type":  match.Type,
		})
	}
	if err != nil {
		return nil, err
	}
	if len(techniques) == 0 {
		return nil, attackkb.E(op, attackkb.KindInvalidLayer, map[string]any{
			"match":  matchID,
			"domain": domain,
			"reason": "no techniques associated with match",
		})
	}

	scores := make([]TechniqueScore, len(techniques))
	for i, technique := range techniques {
		scores[i] = TechniqueScore{AttackID: technique.AttackID(), Score: score}
	}
	name := fmt.Sprintf("%s (%s)", match.Name, matchID)
	return GenerateLayer(snap, domain, name, scores,
		WithDescription(fmt.Sprintf("Techniques associated with %s", match.Name)))
}
