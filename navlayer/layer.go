package navlayer

import (
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/zero-day-ai/attackkb"
	"github.com/zero-day-ai/attackkb/stix"
)

// Navigator compatibility pins. These track the layer format the current
// Navigator release consumes.
const (
	attackVersion    = "16"
	navigatorVersion = "5.1.0"
	layerFormat      = "4.5"
)

// defaultGradientColors is the red-yellow-green ramp the Navigator ships
// with.
var defaultGradientColors = []string{"#ff6666ff", "#ffe766ff", "#8ec843ff"}

// domainPlatforms lists the platform filter the Navigator applies per domain.
var domainPlatforms = map[stix.Domain][]string{
	stix.DomainEnterprise: {
		"Windows", "Linux", "macOS", "Network", "PRE", "Containers",
		"IaaS", "SaaS", "Office Suite", "Identity Provider",
	},
	stix.DomainMobile: {"Android", "iOS"},
	stix.DomainICS:    {"None"},
}

// Versions is the layer format version block.
type Versions struct {
	Attack    string `json:"attack"`
	Navigator string `json:"navigator"`
	Layer     string `json:"layer"`
}

// Layout controls how the Navigator renders the matrix.
type Layout struct {
	Layout                string `json:"layout"`
	AggregateFunction     string `json:"aggregateFunction"`
	ExpandedSubtechniques string `json:"expandedSubtechniques"`
}

// Filters restricts the matrix view, currently by platform only.
type Filters struct {
	Platforms []string `json:"platforms"`
}

// Gradient maps scores onto a color ramp.
type Gradient struct {
	Colors   []string `json:"colors"`
	MinValue float64  `json:"minValue"`
	MaxValue float64  `json:"maxValue"`
}

// LegendItem is one legend row.
type LegendItem struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

// TechniqueEntry is one scored cell of the layer, keyed by technique ID and
// tactic shortname.
type TechniqueEntry struct {
	TechniqueID string  `json:"techniqueID"`
	Tactic      string  `json:"tactic,omitempty"`
	Score       float64 `json:"score"`
	Color       string  `json:"color,omitempty"`
	Comment     string  `json:"comment,omitempty"`
	Enabled     bool    `json:"enabled"`
}

// Layer is a complete Navigator layer document. The JSON shape follows layer
// format 4.5; ID identifies the generated document for storage and is not
// part of the wire format.
type Layer struct {
	ID string `json:"-"`

	Name                string           `json:"name"`
	Versions            Versions         `json:"versions"`
	Domain              string           `json:"domain"`
	Description         string           `json:"description"`
	Filters             Filters          `json:"filters"`
	Sorting             int              `json:"sorting"`
	Layout              Layout           `json:"layout"`
	Techniques          []TechniqueEntry `json:"techniques"`
	Gradient            Gradient         `json:"gradient"`
	LegendItems         []LegendItem     `json:"legendItems"`
	Metadata            []any            `json:"metadata"`
	Links               []any            `json:"links"`
	TacticRowBackground string           `json:"tacticRowBackground"`

	summaryOnce sync.Once
	summary     Summary
}

// LayerTemplate returns an empty layer document for a domain: the version
// block, layout, default gradient, and platform filter, with no techniques.
// Callers merging their own technique entries into a layer start from this.
func LayerTemplate(domain string) (*Layer, error) {
	d, ok := stix.ParseDomain(domain)
	if !ok {
		return nil, attackkb.E("navlayer.LayerTemplate", attackkb.KindUnknownDomain, map[string]any{
			"domain": domain,
		})
	}
	return &Layer{
		Name:     "layer",
		Versions: Versions{Attack: attackVersion, Navigator: navigatorVersion, Layer: layerFormat},
		Domain:   d.Collection(),
		Filters:  Filters{Platforms: domainPlatforms[d]},
		Layout: Layout{
			Layout:                "side",
			AggregateFunction:     "average",
			ExpandedSubtechniques: "none",
		},
		Techniques: []TechniqueEntry{},
		Gradient: Gradient{
			Colors:   defaultGradientColors,
			MinValue: 0,
			MaxValue: 100,
		},
		LegendItems:         []LegendItem{},
		Metadata:            []any{},
		Links:               []any{},
		TacticRowBackground: "#dddddd",
	}, nil
}

// Summary is the cached derived view of a layer: how many techniques it
// scores, which tactics it touches, and the score range driving the gradient.
type Summary struct {
	LayerID        string
	Domain         string
	TechniqueCount int
	Tactics        []string
	Platforms      []string
	ScoreMin       float64
	ScoreMax       float64
}

// Summary returns the derived layer summary, computed once per layer.
func (l *Layer) Summary() Summary {
	l.summaryOnce.Do(func() {
		s := Summary{
			LayerID:   l.ID,
			Domain:    l.Domain,
			Platforms: l.Filters.Platforms,
		}
		techniques := make(map[string]bool)
		tactics := make(map[string]bool)
		for i, entry := range l.Techniques {
			techniques[entry.TechniqueID] = true
			if entry.Tactic != "" {
				tactics[entry.Tactic] = true
			}
			if i == 0 || entry.Score < s.ScoreMin {
				s.ScoreMin = entry.Score
			}
			if i == 0 || entry.Score > s.ScoreMax {
				s.ScoreMax = entry.Score
			}
		}
		s.TechniqueCount = len(techniques)
		for tactic := range tactics {
			s.Tactics = append(s.Tactics, tactic)
		}
		sort.Strings(s.Tactics)
		l.summary = s
	})
	return l.summary
}

// gradientColor interpolates a score's color along the gradient ramp. A
// degenerate range (all scores equal) maps to the top color.
func gradientColor(score, min, max float64, colors []string) string {
	if len(colors) == 0 {
		return ""
	}
	if max <= min {
		return colors[len(colors)-1]
	}

	t := (score - min) / (max - min)
	if t <= 0 {
		return colors[0]
	}
	if t >= 1 {
		return colors[len(colors)-1]
	}

	// Position within the ramp's segments.
	segments := float64(len(colors) - 1)
	pos := t * segments
	i := int(pos)
	frac := pos - float64(i)

	lo, err := parseColor(colors[i])
	if err != nil {
		return colors[i]
	}
	hi, err := parseColor(colors[i+1])
	if err != nil {
		return colors[i]
	}
	return lo.lerp(hi, frac).String()
}

type rgba struct {
	r, g, b, a uint8
}

func parseColor(s string) (rgba, error) {
	if len(s) != 9 || s[0] != '#' {
		return rgba{}, fmt.Errorf("color %q is not #rrggbbaa", s)
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return rgba{}, err
	}
	return rgba{
		r: uint8(v >> 24),
		g: uint8(v >> 16),
		b: uint8(v >> 8),
		a: uint8(v),
	}, nil
}

func (c rgba) lerp(other rgba, t float64) rgba {
	mix := func(a, b uint8) uint8 {
		return uint8(float64(a) + (float64(b)-float64(a))*t)
	}
	return rgba{
		r: mix(c.r, other.r),
		g: mix(c.g, other.g),
		b: mix(c.b, other.b),
		a: mix(c.a, other.a),
	}
}

func (c rgba) String() string {
	return fmt.Sprintf("#%02x%02x%02x%02x", c.r, c.g, c.b, c.a)
}
