package sandbox

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunSuccessReturnsSerializedValue(t *testing.T) {
	e := NewEngine(Config{})
	defer e.Dispose()

	res := e.Run(context.Background(), `(function(x){ return x + 1; })`, 41)

	require.True(t, res.Ok)
	assert.Equal(t, float64(42), res.Value)
	assert.GreaterOrEqual(t, res.ExecutionMs, int64(0))
}

func TestRunNoGlobalStateLeaksBetweenCalls(t *testing.T) {
	e := NewEngine(Config{})
	defer e.Dispose()

	first := e.Run(context.Background(), `(function(x){ globalThis.leaked = 42; return 1; })`, nil)
	require.True(t, first.Ok)

	second := e.Run(context.Background(), `(function(x){ return typeof globalThis.leaked; })`, nil)
	require.True(t, second.Ok)
	assert.Equal(t, "undefined", second.Value)
}

func TestRunTimeoutOnInfiniteLoop(t *testing.T) {
	e := NewEngine(Config{TimeoutMS: 50})
	defer e.Dispose()

	res := e.Run(context.Background(), `(function(x){ while (true) {} })`, nil)

	assert.False(t, res.Ok)
	assert.Equal(t, CodeTimeout, res.Code)
}

func TestRunTimeoutOnBusyLoopAtEvaluationTime(t *testing.T) {
	e := NewEngine(Config{TimeoutMS: 50})
	defer e.Dispose()

	// RunString both parses and evaluates source, so a busy loop that
	// never reaches a callable (an immediately-invoked function, or a
	// bare top-level loop) must still be caught by the deadline.
	res := e.Run(context.Background(), `(function(){ while (true) {} })()`, nil)

	assert.False(t, res.Ok)
	assert.Equal(t, CodeTimeout, res.Code)
}

func TestRunTimeoutOnBareTopLevelBusyLoop(t *testing.T) {
	e := NewEngine(Config{TimeoutMS: 50})
	defer e.Dispose()

	res := e.Run(context.Background(), `while (true) {}`, nil)

	assert.False(t, res.Ok)
	assert.Equal(t, CodeTimeout, res.Code)
}

func TestRunAbortedWhenContextAlreadyCancelled(t *testing.T) {
	e := NewEngine(Config{})
	defer e.Dispose()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := e.Run(ctx, `(function(x){ return 1; })`, nil)

	assert.False(t, res.Ok)
	assert.Equal(t, CodeAborted, res.Code)
}

func TestRunAbortedWhenContextCancelledMidExecution(t *testing.T) {
	e := NewEngine(Config{TimeoutMS: 5000})
	defer e.Dispose()

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(30*time.Millisecond, cancel)

	res := e.Run(ctx, `(function(x){ while (true) {} })`, nil)

	assert.False(t, res.Ok)
	assert.Equal(t, CodeAborted, res.Code)
}

func TestRunInvalidCodeOnParseFailure(t *testing.T) {
	e := NewEngine(Config{})
	defer e.Dispose()

	res := e.Run(context.Background(), `(((`, nil)

	assert.False(t, res.Ok)
	assert.Equal(t, CodeInvalidCode, res.Code)
}

func TestRunInvalidCodeWhenNotCallable(t *testing.T) {
	e := NewEngine(Config{})
	defer e.Dispose()

	res := e.Run(context.Background(), `42`, nil)

	assert.False(t, res.Ok)
	assert.Equal(t, CodeInvalidCode, res.Code)
}

func TestRunRuntimeFaultOnThrownException(t *testing.T) {
	e := NewEngine(Config{})
	defer e.Dispose()

	res := e.Run(context.Background(), `(function(x){ throw new Error("boom"); })`, nil)

	assert.False(t, res.Ok)
	assert.Equal(t, CodeRuntime, res.Code)
	assert.Contains(t, res.Error, "boom")
}

func TestRunOutputTooLargeWhenResultExceedsLimit(t *testing.T) {
	e := NewEngine(Config{MaxOutputBytes: 8})
	defer e.Dispose()

	res := e.Run(context.Background(), `(function(x){ return "`+strings.Repeat("a", 100)+`"; })`, nil)

	assert.False(t, res.Ok)
	assert.Equal(t, CodeOutputTooLarge, res.Code)
}

func TestRunUnavailableAfterDispose(t *testing.T) {
	e := NewEngine(Config{})
	e.Dispose()

	res := e.Run(context.Background(), `(function(x){ return 1; })`, nil)

	assert.False(t, res.Ok)
	assert.Equal(t, CodeUnavailable, res.Code)
}

func TestRunNaNAndInfinityCoercedToNull(t *testing.T) {
	e := NewEngine(Config{})
	defer e.Dispose()

	res := e.Run(context.Background(), `(function(x){ return [NaN, Infinity, -Infinity]; })`, nil)

	require.True(t, res.Ok)
	values, ok := res.Value.([]any)
	require.True(t, ok)
	for _, v := range values {
		assert.Nil(t, v)
	}
}
