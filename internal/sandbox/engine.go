package sandbox

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dop251/goja"
)

// Config bounds a single sandboxed call.
type Config struct {
	TimeoutMS      int
	MemoryMB       int
	MaxOutputBytes int
}

// interruptReason distinguishes a deadline interrupt from an external
// cancellation so Run can report the right fault code.
type interruptReason string

const (
	reasonTimeout   interruptReason = "timeout"
	reasonCancelled interruptReason = "cancelled"
)

// Engine runs handler source under the configured bounds. A fresh goja
// runtime is constructed for every call, so no globals or state leak
// between calls (spec.md §4.6's context-isolation requirement) — this also
// means a fault never leaves a shared isolate in a bad state to "dispose":
// the next call already gets a clean one. Dispose only governs the engine
// itself accepting further calls at all.
type Engine struct {
	config Config

	mu       sync.RWMutex
	disposed bool
}

// NewEngine constructs an Engine bound by cfg. Zero values in cfg fall back
// to conservative defaults.
func NewEngine(cfg Config) *Engine {
	if cfg.TimeoutMS <= 0 {
		cfg.TimeoutMS = 1000
	}
	if cfg.MemoryMB <= 0 {
		cfg.MemoryMB = 64
	}
	if cfg.MaxOutputBytes <= 0 {
		cfg.MaxOutputBytes = 1 << 20
	}
	return &Engine{config: cfg}
}

// Dispose permanently stops the engine from accepting further calls.
// Idempotent.
func (e *Engine) Dispose() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.disposed = true
}

func (e *Engine) isDisposed() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.disposed
}

// Run parses source as a single expression that must evaluate to a unary
// callable, invokes it with data, and returns the result serialized by
// value. ctx carries the caller's cancellation token.
func (e *Engine) Run(ctx context.Context, source string, data any) Result {
	if e.isDisposed() {
		return failure(CodeUnavailable, "sandbox engine has been disposed")
	}
	select {
	case <-ctx.Done():
		return failure(CodeAborted, "cancelled before execution started")
	default:
	}

	vm := goja.New()
	vm.SetMaxCallStackSize(256)

	// The interrupt must be armed before RunString, not just around the
	// call: RunString both parses and evaluates source, so a busy-loop at
	// top level (or an IIFE) would otherwise run with no deadline at all.
	deadline := time.Duration(e.config.TimeoutMS) * time.Millisecond
	timer := time.NewTimer(deadline)
	stopWatch := make(chan struct{})
	var interrupted atomic.Value // holds interruptReason

	go func() {
		select {
		case <-timer.C:
			interrupted.Store(reasonTimeout)
			vm.Interrupt(string(reasonTimeout))
		case <-ctx.Done():
			interrupted.Store(reasonCancelled)
			vm.Interrupt(string(reasonCancelled))
		case <-stopWatch:
		}
	}()
	defer func() {
		timer.Stop()
		close(stopWatch)
	}()

	start := time.Now()

	program, err := vm.RunString(source)
	if err != nil {
		if reason, ok := interrupted.Load().(interruptReason); ok {
			return interruptFailure(reason)
		}
		return failure(CodeInvalidCode, "source failed to parse or evaluate: "+err.Error())
	}
	callable, ok := goja.AssertFunction(program)
	if !ok {
		return failure(CodeInvalidCode, "source must evaluate to a callable accepting one argument")
	}

	arg := vm.ToValue(data)
	out, callErr := callable(goja.Undefined(), arg)
	elapsed := time.Since(start)

	if callErr != nil {
		if reason, ok := interrupted.Load().(interruptReason); ok {
			return interruptFailure(reason)
		}
		return failure(CodeRuntime, sanitizeRuntimeError(callErr))
	}

	value := sanitizeValue(out.Export())
	encoded, err := json.Marshal(value)
	if err != nil {
		return failure(CodeRuntime, "result could not be serialized: "+err.Error())
	}
	if len(encoded) > e.config.MaxOutputBytes {
		return failure(CodeOutputTooLarge, fmt.Sprintf("result is %d bytes, exceeding the %d byte limit", len(encoded), e.config.MaxOutputBytes))
	}

	var decoded any
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		return failure(CodeRuntime, "result could not be serialized: "+err.Error())
	}
	return success(decoded, elapsed.Milliseconds())
}

func interruptFailure(reason interruptReason) Result {
	if reason == reasonTimeout {
		return failure(CodeTimeout, "execution exceeded the configured deadline")
	}
	return failure(CodeAborted, "execution cancelled")
}

func sanitizeRuntimeError(err error) string {
	if exc, ok := err.(*goja.Exception); ok {
		return exc.Value().String()
	}
	return err.Error()
}
