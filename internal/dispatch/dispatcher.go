// Package dispatch routes named commands from a front-end to their handlers.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/tanq16/dltime/internal/estimate"
	"github.com/tanq16/dltime/internal/probe"
)

var ErrUnknownCommand = errors.New("unknown command")

// Handler executes one command. args is the raw JSON argument object and may
// be empty for commands without arguments.
type Handler func(ctx context.Context, args json.RawMessage) (any, error)

type Invocation struct {
	ID      string
	Command string
	Result  any
	Elapsed time.Duration
}

type Dispatcher struct {
	handlers map[string]Handler
	metrics  *Metrics
}

func NewDispatcher(metrics *Metrics) *Dispatcher {
	return &Dispatcher{
		handlers: make(map[string]Handler),
		metrics:  metrics,
	}
}

func (d *Dispatcher) Register(name string, handler Handler) {
	if _, exists := d.handlers[name]; exists {
		log.Warn().Str("op", "dispatch/register").Msgf("Replacing handler for %s", name)
	}
	d.handlers[name] = handler
}

func (d *Dispatcher) Commands() []string {
	names := make([]string, 0, len(d.handlers))
	for name := range d.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Invoke runs the named command. The returned Invocation always carries the
// ID and command name, also when err is non-nil.
func (d *Dispatcher) Invoke(ctx context.Context, name string, args json.RawMessage) (Invocation, error) {
	inv := Invocation{ID: uuid.NewString(), Command: name}
	handler, exists := d.handlers[name]
	if !exists {
		// unknown names share one label to bound cardinality
		d.metrics.observe("unknown", KindUnknownCommand, 0)
		return inv, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}

	log.Debug().Str("op", "dispatch/invoke").Str("id", inv.ID).Msgf("Invoking %s", name)
	start := time.Now()
	result, err := handler(ctx, args)
	inv.Elapsed = time.Since(start)
	if err != nil {
		kind := ErrorKind(err)
		d.metrics.observe(name, kind, inv.Elapsed)
		event := log.Debug()
		if kind == KindProbeFailed || kind == KindInternal {
			event = log.Error()
		}
		event.Str("op", "dispatch/invoke").Str("id", inv.ID).Str("kind", kind).Err(err).Msgf("%s failed", name)
		return inv, err
	}
	inv.Result = result
	d.metrics.observe(name, "success", inv.Elapsed)
	log.Debug().Str("op", "dispatch/invoke").Str("id", inv.ID).Msgf("%s completed in %s", name, inv.Elapsed)
	return inv, nil
}

const (
	KindInvalidInput   = "invalid_input"
	KindOverflow       = "overflow"
	KindProbeFailed    = "probe_failed"
	KindUnknownCommand = "unknown_command"
	KindCanceled       = "canceled"
	KindInternal       = "internal"
)

// ErrorKind classifies err into one of the Kind constants.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, estimate.ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, estimate.ErrOverflow):
		return KindOverflow
	case errors.Is(err, probe.ErrProbeFailed):
		return KindProbeFailed
	case errors.Is(err, ErrUnknownCommand):
		return KindUnknownCommand
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	default:
		return KindInternal
	}
}
