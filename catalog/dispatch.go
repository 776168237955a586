package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zero-day-ai/attackkb"
	"github.com/zero-day-ai/attackkb/snapshot"
)

// Dispatcher binds the operation table to a snapshot manager and executes
// calls by name.
type Dispatcher struct {
	snapshots *snapshot.Manager
	tracer    trace.Tracer
	logger    *slog.Logger

	calls    metric.Int64Counter
	failures metric.Int64Counter
}

// NewDispatcher creates a dispatcher over the given snapshot manager. A nil
// tracer disables span recording; a nil logger falls back to slog.Default.
func NewDispatcher(snapshots *snapshot.Manager, tracer trace.Tracer, logger *slog.Logger) *Dispatcher {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("attackkb/catalog")
	}
	if logger == nil {
		logger = slog.Default()
	}

	meter := otel.Meter("attackkb/catalog")
	calls, err := meter.Int64Counter("catalog.calls",
		metric.WithDescription("Catalog operations dispatched"))
	if err != nil {
		logger.Warn("call counter unavailable", "error", err)
	}
	failures, err := meter.Int64Counter("catalog.failures",
		metric.WithDescription("Catalog operations that returned an error"))
	if err != nil {
		logger.Warn("failure counter unavailable", "error", err)
	}

	return &Dispatcher{
		snapshots: snapshots,
		tracer:    tracer,
		logger:    logger,
		calls:     calls,
		failures:  failures,
	}
}

// Dispatch runs one named operation. Arguments are validated against the
// operation's schema before the handler runs, so handlers can assume required
// keys are present and typed.
//
// Every call takes the active snapshot once up front and uses it throughout;
// a concurrent refresh never changes the dataset mid-call.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, args Args) (any, error) {
	op, ok := Lookup(name)
	if !ok {
		return nil, attackkb.E("catalog.Dispatch", attackkb.KindNotFound, map[string]any{
			"operation": name,
		})
	}

	ctx, span := d.tracer.Start(ctx, "catalog."+name,
		trace.WithAttributes(attribute.String("catalog.operation", name)))
	defer span.End()

	if d.calls != nil {
		d.calls.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", name)))
	}

	result, err := d.dispatch(op, args)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if d.failures != nil {
			d.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", name)))
		}
		d.logger.Debug("operation failed", "operation", name, "error", err)
		return nil, err
	}
	return result, nil
}

func (d *Dispatcher) dispatch(op Operation, args Args) (any, error) {
	if args == nil {
		args = Args{}
	}
	if err := op.Params.Validate(map[string]any(args)); err != nil {
		e := attackkb.E("catalog."+op.Name, attackkb.KindDataFormat, map[string]any{
			"operation": op.Name,
		})
		e.Err = fmt.Errorf("invalid arguments: %w", err)
		return nil, e
	}

	snap := d.snapshots.Active()
	if snap == nil {
		return nil, fmt.Errorf("catalog.%s: no snapshot loaded", op.Name)
	}
	return op.handler(snap, args)
}
