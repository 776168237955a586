package query

import (
	"sync"
	"time"

	"github.com/google/cel-go/cel"
	"github.com/zero-day-ai/attackkb"
	"github.com/zero-day-ai/attackkb/snapshot"
	"github.com/zero-day-ai/attackkb/stix"
)

// filterEnv builds the shared CEL environment declaring the object envelope
// fields a filter expression may reference.
var filterEnv = sync.OnceValues(func() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("type", cel.StringType),
		cel.Variable("name", cel.StringType),
		cel.Variable("attack_id", cel.StringType),
		cel.Variable("created", cel.TimestampType),
		cel.Variable("modified", cel.TimestampType),
		cel.Variable("revoked", cel.BoolType),
		cel.Variable("deprecated", cel.BoolType),
		cel.Variable("platforms", cel.ListType(cel.StringType)),
	)
})

// Filter is a compiled boolean predicate over object envelope fields. A
// Filter is immutable and safe for concurrent use.
type Filter struct {
	expr string
	prg  cel.Program
}

// CompileFilter compiles a CEL expression into a reusable object predicate.
// The expression sees the fields type, name, attack_id, created, modified,
// revoked, deprecated, and platforms, and must evaluate to a boolean:
//
//	modified > timestamp("2024-01-01T00:00:00Z") && "Windows" in platforms
//
// Compilation problems are reported as data format errors carrying the
// offending expression.
func CompileFilter(expr string) (*Filter, error) {
	const op = "query.CompileFilter"

	env, err := filterEnv()
	if err != nil {
		return nil, err
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		e := attackkb.E(op, attackkb.KindDataFormat, map[string]any{
			"expression": expr,
		})
		e.Err = issues.Err()
		return nil, e
	}
	if ast.OutputType() != cel.BoolType {
		return nil, attackkb.E(op, attackkb.KindDataFormat, map[string]any{
			"expression":  expr,
			"output_type": ast.OutputType().String(),
		})
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, err
	}
	return &Filter{expr: expr, prg: prg}, nil
}

// Expr returns the source expression the filter was compiled from.
func (f *Filter) Expr() string { return f.expr }

// Match evaluates the filter against one object.
func (f *Filter) Match(obj *stix.Object) (bool, error) {
	platforms := obj.Platforms
	if platforms == nil {
		platforms = []string{}
	}
	out, _, err := f.prg.Eval(map[string]any{
		"type":       obj.Type,
		"name":       obj.Name,
		"attack_id":  obj.AttackID(),
		"created":    obj.Created,
		"modified":   obj.Modified,
		"revoked":    obj.Revoked,
		"deprecated": obj.Deprecated,
		"platforms":  platforms,
	})
	if err != nil {
		e := attackkb.E("query.Filter.Match", attackkb.KindDataFormat, map[string]any{
			"expression": f.expr,
			"stix_id":    obj.ID,
		})
		e.Err = err
		return false, e
	}
	matched, ok := out.Value().(bool)
	if !ok {
		return false, attackkb.E("query.Filter.Match", attackkb.KindDataFormat, map[string]any{
			"expression": f.expr,
		})
	}
	return matched, nil
}

// FilterObjects applies a compiled filter to every object of one type,
// returning the matches in ATT&CK ID order. Revoked objects are included so
// expressions over the revoked field work; filter them with "!revoked" when
// unwanted.
func FilterObjects(snap *snapshot.Snapshot, domain, typeName string, filter *Filter) ([]*stix.Object, error) {
	objs, err := ObjectsByType(snap, domain, typeName, true)
	if err != nil {
		return nil, err
	}
	var out []*stix.Object
	for _, obj := range objs {
		matched, err := filter.Match(obj)
		if err != nil {
			return nil, err
		}
		if matched {
			out = append(out, obj)
		}
	}
	return out, nil
}

// ObjectsCreatedAfter lists the active objects of one type created after the
// given time.
func ObjectsCreatedAfter(snap *snapshot.Snapshot, domain, typeName string, after time.Time) ([]*stix.Object, error) {
	return objectsAfter(snap, domain, typeName, "created", after)
}

// ObjectsModifiedAfter lists the active objects of one type modified after
// the given time.
func ObjectsModifiedAfter(snap *snapshot.Snapshot, domain, typeName string, after time.Time) ([]*stix.Object, error) {
	return objectsAfter(snap, domain, typeName, "modified", after)
}

func objectsAfter(snap *snapshot.Snapshot, domain, typeName, field string, after time.Time) ([]*stix.Object, error) {
	filter, err := CompileFilter(
		`!revoked && !deprecated && ` + field +
			` > timestamp("` + after.UTC().Format(time.RFC3339) + `")`)
	if err != nil {
		return nil, err
	}
	return FilterObjects(snap, domain, typeName, filter)
}
