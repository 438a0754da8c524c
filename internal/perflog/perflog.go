// Package perflog is the scheduler's performance log (spec.md §6): it
// records when each JobChunk ran and on which worker, and can dump
// the result as Chrome Trace Event JSON for visualization in
// chrome://tracing or Perfetto.
//
// It is built on the OpenTelemetry SDK's span model (the same
// TracerProvider/Tracer pattern junjiewwang-perf-analysis's
// pkg/telemetry uses) but, unlike that package, never talks to an
// OTLP collector: no environment variables, no network exporters, no
// sockets, per the external-interfaces constraint on this component.
// Spans are buffered in-process by a custom exporter and only ever
// leave the process through Dump.
package perflog

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

type opRecord struct {
	linkName   string
	kernelName string
}

// Logger is a performance logger. A disabled Logger costs nothing
// beyond a few no-op calls; LogOpStart/LogChunk are safe to call on a
// nil *Logger.
type Logger struct {
	enabled bool
	start   time.Time

	tp       *sdktrace.TracerProvider
	tracer   oteltrace.Tracer
	exporter *memoryExporter

	mu       sync.Mutex
	ops      map[int]opRecord
	nextOpID int
}

// New creates a Logger. When enabled is false, LogOpStart and LogChunk
// are no-ops and Dump writes an empty trace. start is captured now so
// Dump can report ts as microseconds since logger construction,
// matching original_source/src/network_perf_logger.cpp's steady_clock
// baseline rather than an absolute wall-clock epoch.
func New(enabled bool) *Logger {
	l := &Logger{enabled: enabled, ops: make(map[int]opRecord), start: time.Now()}
	if !enabled {
		return l
	}
	l.exporter = newMemoryExporter()
	l.tp = sdktrace.NewTracerProvider(sdktrace.WithSyncer(l.exporter))
	l.tracer = l.tp.Tracer("llrt/scheduler")
	return l
}

// LogOpStart records that a new operation (a ProcessOp call) has
// begun, identified by the Link's name and the kernel's name, and
// returns an opaque ID to pass to LogChunk for every JobChunk that
// operation produces.
func (l *Logger) LogOpStart(linkName, kernelName string, maxProgress int64) int {
	if l == nil || !l.enabled {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	id := l.nextOpID
	l.nextOpID++
	l.ops[id] = opRecord{linkName: linkName, kernelName: kernelName}
	return id
}

// LogChunk records one JobChunk's execution window as a completed
// span, named after the operation's link and kernel.
func (l *Logger) LogChunk(opID int, start, end int64, startTime, endTime time.Time, worker int) {
	if l == nil || !l.enabled {
		return
	}
	l.mu.Lock()
	rec := l.ops[opID]
	l.mu.Unlock()

	name := rec.kernelName
	if name == "" {
		name = "op"
	}

	_, span := l.tracer.Start(context.Background(), name,
		oteltrace.WithTimestamp(startTime),
		oteltrace.WithAttributes(
			attribute.String("link", rec.linkName),
			attribute.Int64("start", start),
			attribute.Int64("end", end),
			attribute.Int("worker", worker),
		),
	)
	span.End(oteltrace.WithTimestamp(endTime))
}

// Merge copies other's buffered spans into l, so several Loggers (for
// example one per Scheduler in a test harness) can be combined into a
// single trace before dumping.
func (l *Logger) Merge(other *Logger) {
	if l == nil || other == nil || !l.enabled || !other.enabled {
		return
	}
	l.exporter.absorb(other.exporter.snapshot())
}

// traceEvent is one Chrome Trace Event Format entry.
type traceEvent struct {
	Name string  `json:"name"`
	Ph   string  `json:"ph"`
	Ts   float64 `json:"ts"`
	Pid  int     `json:"pid"`
	Tid  int     `json:"tid"`
	Cat  string  `json:"cat,omitempty"`
}

// Dump writes the buffered spans to w as Chrome Trace Event Format
// JSON (a flat array of begin/end events), suitable for loading into
// chrome://tracing or Perfetto.
func (l *Logger) Dump(w io.Writer) error {
	events := []traceEvent{}
	if l != nil && l.enabled {
		for _, span := range l.exporter.snapshot() {
			worker := 0
			var link string
			for _, attr := range span.Attributes() {
				switch attr.Key {
				case "worker":
					worker = int(attr.Value.AsInt64())
				case "link":
					link = attr.Value.AsString()
				}
			}
			events = append(events,
				traceEvent{Name: span.Name(), Ph: "B", Ts: l.microsecondsSinceStart(span.StartTime()), Pid: 0, Tid: worker, Cat: link},
				traceEvent{Name: span.Name(), Ph: "E", Ts: l.microsecondsSinceStart(span.EndTime()), Pid: 0, Tid: worker, Cat: link},
			)
		}
	}
	return json.NewEncoder(w).Encode(events)
}

// microsecondsSinceStart reports t as elapsed microseconds since this
// Logger was constructed, the Go reading of
// network_perf_logger.cpp's `chunkTime - startTime` against a
// steady_clock baseline captured at construction.
func (l *Logger) microsecondsSinceStart(t time.Time) float64 {
	return float64(t.Sub(l.start)) / float64(time.Microsecond)
}
