package multibind

import (
	"cmp"
	"context"
	"reflect"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of materialization spans.
const TracerName = "github.com/km-arc/go-laravel/framework/multibind"

// Recorder receives the outcome of every materialization.
type Recorder interface {
	ObserveMaterialize(element string, size int, elapsed time.Duration, err error)
}

// Entry describes one contributor's slot in the resolution order.
type Entry struct {
	Position int
	Source   string
	Type     reflect.Type
	Priority int
	Index    int
}

type resolutionOrder[T any] struct {
	contributors []Contributor[T]
	entries      []Entry
}

// Engine materializes the ordered list of a ContributorSet. The order is
// computed once, on first use after the set is finalized; every
// Materialize call then re-runs each resolver in that order.
//
// Engine is safe for concurrent use.
type Engine[T any] struct {
	set        *ContributorSet[T]
	priorities *PriorityResolver
	name       string
	log        zerolog.Logger
	tracer     trace.Tracer
	recorder   Recorder

	mu    sync.Mutex
	order atomic.Pointer[resolutionOrder[T]]
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	name     string
	log      zerolog.Logger
	tracer   trace.Tracer
	recorder Recorder
}

// WithName overrides the element label used in logs, spans and metrics.
func WithName(name string) EngineOption {
	return func(o *engineOptions) { o.name = name }
}

// WithLogger sets the engine logger.
func WithLogger(l zerolog.Logger) EngineOption {
	return func(o *engineOptions) { o.log = l }
}

// WithTracer sets the tracer used for materialization spans.
func WithTracer(t trace.Tracer) EngineOption {
	return func(o *engineOptions) { o.tracer = t }
}

// WithRecorder sets the metrics sink.
func WithRecorder(r Recorder) EngineOption {
	return func(o *engineOptions) { o.recorder = r }
}

// NewEngine returns an engine over set. A nil priorities resolver gets a
// fresh one with no declarations.
func NewEngine[T any](set *ContributorSet[T], priorities *PriorityResolver, opts ...EngineOption) *Engine[T] {
	if priorities == nil {
		priorities = NewPriorityResolver()
	}
	o := engineOptions{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.name == "" {
		o.name = typeName(set.ElementType())
	}
	if o.tracer == nil {
		o.tracer = otel.Tracer(TracerName)
	}
	return &Engine[T]{
		set:        set,
		priorities: priorities,
		name:       o.name,
		log:        o.log.With().Str("element", o.name).Logger(),
		tracer:     o.tracer,
		recorder:   o.recorder,
	}
}

// Name returns the element label.
func (e *Engine[T]) Name() string { return e.name }

// ElementType returns the reflect.Type of T.
func (e *Engine[T]) ElementType() reflect.Type { return e.set.ElementType() }

// Order returns a snapshot of the resolution order, computing it if needed.
func (e *Engine[T]) Order() ([]Entry, error) {
	o, err := e.resolutionOrder()
	if err != nil {
		return nil, err
	}
	return slices.Clone(o.entries), nil
}

// Materialize resolves every contributor in order and returns a new list
// owned by the caller. Inside a request scope the first materialization
// is shared by every later call in that scope.
func (e *Engine[T]) Materialize(ctx context.Context) ([]T, error) {
	if s := scopeFrom(ctx); s != nil {
		v, err := s.load(e, func() (any, error) { return e.materialize(ctx) })
		if err != nil {
			return nil, err
		}
		return slices.Clone(v.([]T)), nil
	}
	return e.materialize(ctx)
}

func (e *Engine[T]) materialize(ctx context.Context) (values []T, err error) {
	start := time.Now()
	ctx, span := e.tracer.Start(ctx, "multibind.materialize",
		trace.WithAttributes(attribute.String("multibind.element", e.name)))
	defer func() {
		span.SetAttributes(attribute.Int("multibind.size", len(values)))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			e.log.Error().Err(err).Msg("list materialization failed")
		}
		span.End()
		if e.recorder != nil {
			e.recorder.ObserveMaterialize(e.name, len(values), time.Since(start), err)
		}
	}()

	o, err := e.resolutionOrder()
	if err != nil {
		return nil, err
	}
	if len(o.contributors) == 0 {
		return []T{}, nil
	}

	// Values land in a fixed slot per position so a failure can name the
	// exact contributor that produced it.
	buf := make([]T, len(o.contributors))
	for i, c := range o.contributors {
		v, rerr := c.Resolve(ctx)
		if rerr != nil {
			return nil, &ResolverFailure{Element: e.set.ElementType(), Source: c.Source, Position: i, Err: rerr}
		}
		if isNil(v) {
			return nil, &NullElementError{Element: e.set.ElementType(), Source: c.Source, Position: i}
		}
		buf[i] = v
	}
	return buf, nil
}

// resolutionOrder returns the frozen order, computing it exactly once. A
// set that is not yet finalized leaves the order unfrozen.
func (e *Engine[T]) resolutionOrder() (*resolutionOrder[T], error) {
	if o := e.order.Load(); o != nil {
		return o, nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if o := e.order.Load(); o != nil {
		return o, nil
	}

	contributors, err := e.set.Contributors()
	if err != nil {
		return nil, err
	}
	keys := make(map[int]int, len(contributors))
	for _, c := range contributors {
		keys[c.Index] = e.priorities.Resolve(c.Type)
	}
	slices.SortStableFunc(contributors, func(a, b Contributor[T]) int {
		return cmp.Or(cmp.Compare(keys[a.Index], keys[b.Index]), cmp.Compare(a.Index, b.Index))
	})

	o := &resolutionOrder[T]{
		contributors: contributors,
		entries:      make([]Entry, len(contributors)),
	}
	for i, c := range contributors {
		o.entries[i] = Entry{Position: i, Source: c.Source, Type: c.Type, Priority: keys[c.Index], Index: c.Index}
		e.log.Debug().
			Int("position", i).
			Str("source", c.Source).
			Int("priority", keys[c.Index]).
			Msg("resolution order")
	}
	e.order.Store(o)
	return o, nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface, reflect.UnsafePointer:
		return rv.IsNil()
	}
	return false
}
