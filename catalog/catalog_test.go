package catalog_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/zero-day-ai/attackkb"
	"github.com/zero-day-ai/attackkb/catalog"
	"github.com/zero-day-ai/attackkb/kbtest"
	"github.com/zero-day-ai/attackkb/navlayer"
	"github.com/zero-day-ai/attackkb/snapshot"
	"github.com/zero-day-ai/attackkb/stix"
	"github.com/zero-day-ai/attackkb/telemetry"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newDispatcher(t *testing.T) *catalog.Dispatcher {
	t.Helper()
	mgr := snapshot.NewManager(kbtest.NewSnapshot(t), discard())
	return catalog.NewDispatcher(mgr, nil, discard())
}

// The operation vocabulary is API: integrations enumerate it and bind to the
// names, so the full list is pinned here.
var wantOperations = []string{
	"filter_objects",
	"generate_layer",
	"get_all_assets",
	"get_all_datacomponents",
	"get_all_datasources",
	"get_all_matrices",
	"get_all_mitigations",
	"get_all_parent_techniques",
	"get_all_subtechniques",
	"get_all_tactics",
	"get_all_techniques",
	"get_assets_targeted_by_technique",
	"get_attack_id_of",
	"get_campaign_by_alias",
	"get_campaigns_attributed_to_group",
	"get_campaigns_using_software",
	"get_campaigns_using_technique",
	"get_datacomponents_detecting_technique",
	"get_group_by_alias",
	"get_groups_attributed_to_campaign",
	"get_groups_using_software",
	"get_groups_using_technique",
	"get_layer_metadata",
	"get_mitigations_of_technique",
	"get_name_of",
	"get_object_by_attack_id",
	"get_object_by_stix_id",
	"get_objects_by_content",
	"get_objects_by_name",
	"get_objects_by_type",
	"get_objects_created_after",
	"get_objects_modified_after",
	"get_parent_technique_of_subtechnique",
	"get_procedure_examples_by_tactic",
	"get_procedure_examples_by_technique",
	"get_revoked_techniques",
	"get_snapshot_info",
	"get_software_by_alias",
	"get_software_used_by_campaign",
	"get_software_used_by_group",
	"get_software_using_technique",
	"get_stix_type_of",
	"get_subtechniques_of_technique",
	"get_tactics_by_matrix",
	"get_tactics_of_technique",
	"get_techniques_by_platform",
	"get_techniques_by_tactic",
	"get_techniques_detected_by_datacomponent",
	"get_techniques_mitigated_by_mitigation",
	"get_techniques_targeting_asset",
	"get_techniques_used_by_all_groups",
	"get_techniques_used_by_campaign",
	"get_techniques_used_by_group",
	"get_techniques_used_by_group_alias",
	"get_techniques_used_by_group_software",
	"get_techniques_used_by_software",
}

func TestOperationsTable(t *testing.T) {
	ops := catalog.Operations()

	names := make([]string, len(ops))
	for i, op := range ops {
		names[i] = op.Name
		assert.NotEmpty(t, op.Description, "operation %s has no description", op.Name)
		assert.Equal(t, "object", op.Params.Type, "operation %s parameters are not an object schema", op.Name)
	}

	assert.IsIncreasing(t, names, "Operations() is not sorted by name")
	for _, want := range wantOperations {
		assert.Contains(t, names, want)
	}
}

func TestLookup(t *testing.T) {
	op, ok := catalog.Lookup("get_group_by_alias")
	require.True(t, ok)
	assert.Equal(t, "get_group_by_alias", op.Name)
	assert.Contains(t, op.Params.Required, "alias")

	_, ok = catalog.Lookup("summon_demons")
	assert.False(t, ok)
}

func TestDispatchUnknownOperation(t *testing.T) {
	d := newDispatcher(t)

	_, err := d.Dispatch(context.Background(), "summon_demons", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, attackkb.ErrNotFound)
}

func TestDispatchInvalidArgs(t *testing.T) {
	d := newDispatcher(t)
	ctx := context.Background()

	tests := []struct {
		name string
		op   string
		args catalog.Args
	}{
		{"missing required", "get_object_by_attack_id", catalog.Args{"attack_id": "T1055"}},
		{"wrong type", "get_objects_by_name", catalog.Args{"name": 42}},
		{"technique as layer match", "generate_layer", catalog.Args{"attack_id": "T1055", "score": 5}},
		{"bad timestamp", "get_objects_modified_after", catalog.Args{"stix_type": "technique", "timestamp": "yesterday"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.Dispatch(ctx, tt.op, tt.args)
			require.Error(t, err)
			assert.ErrorIs(t, err, attackkb.ErrDataFormat)
		})
	}
}

func TestDispatchNoSnapshot(t *testing.T) {
	mgr := snapshot.NewManager(nil, discard())
	d := catalog.NewDispatcher(mgr, nil, discard())

	_, err := d.Dispatch(context.Background(), "get_all_tactics", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no snapshot loaded")
}

func TestDispatchQueries(t *testing.T) {
	d := newDispatcher(t)
	ctx := context.Background()

	t.Run("techniques used by group", func(t *testing.T) {
		result, err := d.Dispatch(ctx, "get_techniques_used_by_group", catalog.Args{"group_id": "G0007"})
		require.NoError(t, err)
		techniques, ok := result.([]*stix.Object)
		require.True(t, ok)
		ids := make([]string, len(techniques))
		for i, obj := range techniques {
			ids[i] = obj.AttackID()
		}
		assert.Equal(t, []string{"T1055", "T1059"}, ids)
	})

	t.Run("domain defaults to enterprise", func(t *testing.T) {
		result, err := d.Dispatch(ctx, "get_all_assets", nil)
		require.NoError(t, err)
		assert.Empty(t, result)
	})

	t.Run("explicit ics domain", func(t *testing.T) {
		result, err := d.Dispatch(ctx, "get_all_assets", catalog.Args{"domain": "ics"})
		require.NoError(t, err)
		assets, ok := result.([]*stix.Object)
		require.True(t, ok)
		require.Len(t, assets, 1)
		assert.Equal(t, "A0010", assets[0].AttackID())
	})

	t.Run("unloaded domain propagates", func(t *testing.T) {
		_, err := d.Dispatch(ctx, "get_all_tactics", catalog.Args{"domain": "mobile"})
		assert.ErrorIs(t, err, attackkb.ErrUnknownDomain)
	})

	t.Run("filter expression", func(t *testing.T) {
		result, err := d.Dispatch(ctx, "filter_objects", catalog.Args{
			"stix_type":  "technique",
			"expression": `"Linux" in platforms && !revoked`,
		})
		require.NoError(t, err)
		techniques := result.([]*stix.Object)
		require.Len(t, techniques, 2)
	})

	t.Run("intersection from json array", func(t *testing.T) {
		result, err := d.Dispatch(ctx, "get_techniques_used_by_all_groups", catalog.Args{
			"group_ids": []any{"G0007", "G0102"},
		})
		require.NoError(t, err)
		techniques := result.([]*stix.Object)
		require.Len(t, techniques, 1)
		assert.Equal(t, "T1059", techniques[0].AttackID())
	})
}

func TestDispatchLayers(t *testing.T) {
	d := newDispatcher(t)
	ctx := context.Background()

	t.Run("generate", func(t *testing.T) {
		result, err := d.Dispatch(ctx, "generate_layer", catalog.Args{"attack_id": "G0007", "score": 5})
		require.NoError(t, err)
		layer, ok := result.(*navlayer.Layer)
		require.True(t, ok)
		assert.Contains(t, layer.Name, "G0007")
		assert.NotEmpty(t, layer.Techniques)
	})

	t.Run("metadata", func(t *testing.T) {
		result, err := d.Dispatch(ctx, "get_layer_metadata", catalog.Args{"domain": "ics"})
		require.NoError(t, err)
		layer := result.(*navlayer.Layer)
		assert.Equal(t, "ics-attack", layer.Domain)
		assert.Empty(t, layer.Techniques)
	})
}

func TestDispatchSnapshotInfo(t *testing.T) {
	d := newDispatcher(t)

	result, err := d.Dispatch(context.Background(), "get_snapshot_info", nil)
	require.NoError(t, err)

	info, ok := result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, kbtest.Version, info["version"])
	assert.NotEmpty(t, info["id"])
	assert.Equal(t, []stix.Domain{stix.DomainEnterprise, stix.DomainICS}, info["domains"])
}

func TestDispatchTracing(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := telemetry.NewTracerProvider(exporter, kbtest.Version, discard())
	defer telemetry.Shutdown(context.Background(), tp, discard())

	mgr := snapshot.NewManager(kbtest.NewSnapshot(t), discard())
	d := catalog.NewDispatcher(mgr, telemetry.Tracer(tp), discard())

	_, err := d.Dispatch(context.Background(), "get_all_tactics", nil)
	require.NoError(t, err)

	_, err = d.Dispatch(context.Background(), "get_name_of", catalog.Args{"attack_id": "T9999"})
	require.Error(t, err)

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, "catalog.get_all_tactics", spans[0].Name)
	assert.Equal(t, "catalog.get_name_of", spans[1].Name)
	assert.NotEmpty(t, spans[1].Events, "failed call recorded no error event")
}
