package navlayer_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zero-day-ai/attackkb"
	"github.com/zero-day-ai/attackkb/kbtest"
	"github.com/zero-day-ai/attackkb/navlayer"
)

func TestGenerateLayerEmpty(t *testing.T) {
	snap := kbtest.NewSnapshot(t)

	_, err := navlayer.GenerateLayer(snap, "enterprise", "empty", nil)
	assert.ErrorIs(t, err, attackkb.ErrInvalidLayer)
}

func TestGenerateLayerUnresolvableTechnique(t *testing.T) {
	snap := kbtest.NewSnapshot(t)

	_, err := navlayer.GenerateLayer(snap, "enterprise", "bad", []navlayer.TechniqueScore{
		{AttackID: "T9999", Score: 1},
	})
	assert.ErrorIs(t, err, attackkb.ErrInvalidLayer)
}

func TestGenerateLayerSingleTechnique(t *testing.T) {
	snap := kbtest.NewSnapshot(t)

	layer, err := navlayer.GenerateLayer(snap, "enterprise", "single", []navlayer.TechniqueScore{
		{AttackID: "T1059", Score: 5},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, layer.ID)
	assert.Equal(t, "enterprise-attack", layer.Domain)
	assert.Equal(t, "4.5", layer.Versions.Layer)
	assert.Equal(t, "5.1.0", layer.Versions.Navigator)

	// T1059 sits in one tactic, so one cell.
	require.Len(t, layer.Techniques, 1)
	entry := layer.Techniques[0]
	assert.Equal(t, "T1059", entry.TechniqueID)
	assert.Equal(t, "execution", entry.Tactic)
	assert.Equal(t, 5.0, entry.Score)
	// A degenerate score range maps to the top gradient color.
	assert.Equal(t, "#8ec843ff", entry.Color)
	assert.True(t, entry.Enabled)

	assert.Equal(t, 5.0, layer.Gradient.MinValue)
	assert.Equal(t, 5.0, layer.Gradient.MaxValue)
}

func TestGenerateLayerEntryPerTactic(t *testing.T) {
	snap := kbtest.NewSnapshot(t)

	layer, err := navlayer.GenerateLayer(snap, "enterprise", "multi-tactic", []navlayer.TechniqueScore{
		{AttackID: "T1055", Score: 3},
	})
	require.NoError(t, err)

	// T1055 appears under defense-evasion and privilege-escalation.
	require.Len(t, layer.Techniques, 2)
	assert.Equal(t, "defense-evasion", layer.Techniques[0].Tactic)
	assert.Equal(t, "privilege-escalation", layer.Techniques[1].Tactic)
}

func TestGenerateLayerAggregation(t *testing.T) {
	snap := kbtest.NewSnapshot(t)

	scores := []navlayer.TechniqueScore{
		{AttackID: "T1059", Score: 2},
		{AttackID: "T1059", Score: 3},
		{AttackID: "T1078", Score: 10},
	}

	tests := []struct {
		name string
		opts []navlayer.Option
		want map[string]float64
	}{
		{
			name: "sum is the default",
			want: map[string]float64{"T1059": 5, "T1078": 10},
		},
		{
			name: "max",
			opts: []navlayer.Option{navlayer.WithAggregation(navlayer.AggregationMax)},
			want: map[string]float64{"T1059": 3, "T1078": 10},
		},
		{
			name: "count",
			opts: []navlayer.Option{navlayer.WithAggregation(navlayer.AggregationCount)},
			want: map[string]float64{"T1059": 2, "T1078": 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			layer, err := navlayer.GenerateLayer(snap, "enterprise", "agg", scores, tt.opts...)
			require.NoError(t, err)
			got := make(map[string]float64)
			for _, entry := range layer.Techniques {
				got[entry.TechniqueID] = entry.Score
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGenerateLayerMaxWithNegativeScores(t *testing.T) {
	snap := kbtest.NewSnapshot(t)

	scores := []navlayer.TechniqueScore{
		{AttackID: "T1059", Score: -5},
		{AttackID: "T1059", Score: -7},
	}
	layer, err := navlayer.GenerateLayer(snap, "enterprise", "neg", scores,
		navlayer.WithAggregation(navlayer.AggregationMax))
	require.NoError(t, err)

	require.NotEmpty(t, layer.Techniques)
	for _, entry := range layer.Techniques {
		assert.Equal(t, -5.0, entry.Score, "max of {-5, -7} is -5")
	}
	assert.Equal(t, -5.0, layer.Gradient.MinValue)
	assert.Equal(t, -5.0, layer.Gradient.MaxValue)
}

func TestGenerateLayerGradient(t *testing.T) {
	snap := kbtest.NewSnapshot(t)

	layer, err := navlayer.GenerateLayer(snap, "enterprise", "gradient", []navlayer.TechniqueScore{
		{AttackID: "T1059", Score: 0},
		{AttackID: "T1078", Score: 10},
	})
	require.NoError(t, err)

	assert.Equal(t, 0.0, layer.Gradient.MinValue)
	assert.Equal(t, 10.0, layer.Gradient.MaxValue)

	colors := make(map[string]string)
	for _, entry := range layer.Techniques {
		colors[entry.TechniqueID] = entry.Color
	}
	// Lowest score gets the bottom ramp color, highest the top.
	assert.Equal(t, "#ff6666ff", colors["T1059"])
	assert.Equal(t, "#8ec843ff", colors["T1078"])
}

func TestGenerateLayerDocumentShape(t *testing.T) {
	snap := kbtest.NewSnapshot(t)

	layer, err := navlayer.GenerateLayer(snap, "enterprise", "shape", []navlayer.TechniqueScore{
		{AttackID: "T1059", Score: 1},
	}, navlayer.WithDescription("fixture layer"))
	require.NoError(t, err)

	raw, err := json.Marshal(layer)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))

	assert.Equal(t, "shape", doc["name"])
	assert.Equal(t, "fixture layer", doc["description"])
	assert.Equal(t, "#dddddd", doc["tacticRowBackground"])
	assert.NotContains(t, doc, "id")

	versions := doc["versions"].(map[string]any)
	assert.Equal(t, "16", versions["attack"])

	layout := doc["layout"].(map[string]any)
	assert.Equal(t, "side", layout["layout"])
	assert.Equal(t, "average", layout["aggregateFunction"])

	filters := doc["filters"].(map[string]any)
	platforms := filters["platforms"].([]any)
	assert.Contains(t, platforms, "Identity Provider")
}

func TestLayerSummary(t *testing.T) {
	snap := kbtest.NewSnapshot(t)

	layer, err := navlayer.GenerateLayer(snap, "enterprise", "summary", []navlayer.TechniqueScore{
		{AttackID: "T1055", Score: 2},
		{AttackID: "T1059", Score: 8},
	})
	require.NoError(t, err)

	summary := layer.Summary()
	assert.Equal(t, layer.ID, summary.LayerID)
	assert.Equal(t, 2, summary.TechniqueCount)
	assert.Equal(t, []string{"defense-evasion", "execution", "privilege-escalation"}, summary.Tactics)
	assert.Equal(t, 2.0, summary.ScoreMin)
	assert.Equal(t, 8.0, summary.ScoreMax)

	// Cached: identical on repeat calls.
	assert.Equal(t, summary, layer.Summary())
}

func TestUsageLayer(t *testing.T) {
	snap := kbtest.NewSnapshot(t)

	t.Run("group match", func(t *testing.T) {
		layer, err := navlayer.UsageLayer(snap, "enterprise", "G0007", 1)
		require.NoError(t, err)
		assert.Contains(t, layer.Name, "APT28")

		ids := make(map[string]bool)
		for _, entry := range layer.Techniques {
			ids[entry.TechniqueID] = true
		}
		// Two-hop techniques through X-Agent are included.
		assert.True(t, ids["T1055"])
		assert.True(t, ids["T1059"])
	})

	t.Run("mitigation match", func(t *testing.T) {
		layer, err := navlayer.UsageLayer(snap, "enterprise", "M1040", 1)
		require.NoError(t, err)
		require.NotEmpty(t, layer.Techniques)
		assert.Equal(t, "T1055", layer.Techniques[0].TechniqueID)
	})

	t.Run("technique match rejected", func(t *testing.T) {
		_, err := navlayer.UsageLayer(snap, "enterprise", "T1055", 1)
		assert.ErrorIs(t, err, attackkb.ErrInvalidLayer)
	})

	t.Run("campaign match rejected", func(t *testing.T) {
		_, err := navlayer.UsageLayer(snap, "enterprise", "C0024", 1)
		assert.ErrorIs(t, err, attackkb.ErrInvalidLayer)
	})

	t.Run("garbage match rejected", func(t *testing.T) {
		_, err := navlayer.UsageLayer(snap, "enterprise", "G0007 G0102", 1)
		assert.ErrorIs(t, err, attackkb.ErrInvalidLayer)
	})

	t.Run("unknown match", func(t *testing.T) {
		_, err := navlayer.UsageLayer(snap, "enterprise", "G9999", 1)
		assert.ErrorIs(t, err, attackkb.ErrInvalidLayer)
	})
}
