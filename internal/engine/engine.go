// Package engine filters the normalized day and hour tables by a Selection
// and aggregates them into the fixed set of dashboard views.
//
// Computation is synchronous and pure: source tables are read, filtered into
// copies and released, and each view is either populated or carries a
// missing-column or empty-result error. One view failing never affects the
// others.
package engine

import (
	"time"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/bikeshare/internal/errors"
	"github.com/paveg/bikeshare/internal/labels"
	"github.com/paveg/bikeshare/internal/logging"
	"github.com/paveg/bikeshare/internal/schema"
)

// Observer is notified after each view is computed. reason is empty for a
// populated view.
type Observer interface {
	ObserveView(name string, elapsed time.Duration, reason string)
}

// Engine computes views. The zero value is not usable; call New.
type Engine struct {
	logger   logging.Logger
	observer Observer
	mem      memory.Allocator
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger for per-view diagnostics.
func WithLogger(l logging.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithObserver registers an observer for view timings.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// WithAllocator sets the allocator for filtered copies.
func WithAllocator(mem memory.Allocator) Option {
	return func(e *Engine) {
		if mem != nil {
			e.mem = mem
		}
	}
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		logger: logging.Discard(),
		mem:    memory.NewGoAllocator(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var defaultEngine = New()

// ComputeViews computes every view with a default Engine.
func ComputeViews(day, hour *schema.Table, sel Selection) Views {
	return defaultEngine.ComputeViews(day, hour, sel)
}

// ComputeViews filters day and hour by sel and computes every view. Either
// table may be nil; views drawn from a nil table report a missing column.
func (e *Engine) ComputeViews(day, hour *schema.Table, sel Selection) Views {
	log := e.logger.WithField("selection", sel.String())

	filtered := make(map[schema.Kind]*schema.Table, 2)
	failed := make(map[schema.Kind]error, 2)
	for kind, t := range map[schema.Kind]*schema.Table{schema.KindDay: day, schema.KindHour: hour} {
		f, err := Filter(t, sel, e.mem)
		if err != nil {
			failed[kind] = err
			continue
		}
		filtered[kind] = f
	}
	defer func() {
		for _, t := range filtered {
			t.Release()
		}
	}()

	views := make(Views, len(viewDefs))
	for _, def := range viewDefs {
		start := time.Now()

		var v View
		if err, ok := failed[def.source]; ok {
			v = View{Name: def.name, Dimensions: def.dimensions, Mode: sel.mode,
				Err: errors.NewInternalError(opComputeViews, err).WithView(def.name)}
		} else {
			v = def.compute(filtered[def.source], sel.mode)
		}

		if !v.Available() && logging.IsDebugEnabled(e.logger) {
			log.WithFields(map[string]interface{}{
				"view":   v.Name,
				"reason": v.Reason(),
			}).Debugf("view unavailable: %v", v.Err)
		}
		if e.observer != nil {
			e.observer.ObserveView(v.Name, time.Since(start), v.Reason())
		}
		views[v.Name] = v
	}
	return views
}

// FilterOptions lists the categorical values present in a table, in
// canonical order, for building selection controls.
type FilterOptions struct {
	Seasons  []string `json:"seasons"`
	Weathers []string `json:"weathers"`
	Weekdays []string `json:"weekdays"`
}

// Options collects the distinct non-null season, weather and weekday labels of t.
func Options(t *schema.Table) FilterOptions {
	return FilterOptions{
		Seasons:  distinct(t, schema.ColSeason, labels.Season),
		Weathers: distinct(t, schema.ColWeather, labels.Weather),
		Weekdays: distinct(t, schema.ColWeekday, labels.Weekday),
	}
}

func distinct(t *schema.Table, column string, dim labels.Dimension) []string {
	out := []string{}
	if t == nil || !t.Caps.HasColumn(column) {
		return out
	}
	col, ok := t.Frame.Strings(column)
	if !ok {
		return out
	}
	seen := make(map[string]struct{})
	for i := range col.Len() {
		v, valid := col.Value(i)
		if !valid {
			continue
		}
		if _, dup := seen[v]; !dup {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	labels.Sort(dim, out)
	return out
}
