// Package otel holds the span helpers shared by the backup and restore paths.
package otel

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SyncTracerName is the instrumentation scope of orchestrator spans
const SyncTracerName = "github.com/kurum-rebirth/kurum-sync/sync"

// Span attribute keys
const (
	AttrConfigKey  = attribute.Key("config.key")
	AttrConfigName = attribute.Key("config.name")
	AttrOperation  = attribute.Key("sync.operation")
	AttrRunID      = attribute.Key("sync.run_id")
	AttrTaskCount  = attribute.Key("task.count")
)

// failedDescription is the status description of failed spans. Errors carry
// object paths and endpoints, so they only go into the exception event.
const failedDescription = "operation failed"

// SyncRun identifies one backup or restore of a config
type SyncRun struct {
	// Operation is "Backup" or "Restore"; the span is named sync.<Operation>
	Operation  string
	ConfigKey  string
	ConfigName string
	RunID      string
	Tasks      int
}

// StartSyncSpan starts the span of run. A nil tracer yields the span already
// in ctx, which is a no-op unless the caller is traced.
func StartSyncSpan(ctx context.Context, tracer trace.Tracer, run SyncRun) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, "sync."+run.Operation, trace.WithAttributes(
		AttrOperation.String(strings.ToLower(run.Operation)),
		AttrConfigKey.String(run.ConfigKey),
		AttrConfigName.String(run.ConfigName),
		AttrRunID.String(run.RunID),
		AttrTaskCount.Int(run.Tasks),
	))
}

// RecordError marks span as failed with err. A nil span or error is ignored.
func RecordError(span trace.Span, err error) {
	if err == nil || span == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, failedDescription)
}
