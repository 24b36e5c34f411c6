// Package sandbox executes untrusted handler source — single JS expressions
// evaluating to a unary function — under timeout, output-size, and
// cooperative-cancellation bounds, using github.com/dop251/goja as the
// isolated evaluator.
package sandbox

// Fault codes a failed Run can report (spec.md §4.6).
const (
	CodeTimeout        = "TIMEOUT"
	CodeRuntime        = "RUNTIME"
	CodeAborted        = "ABORTED"
	CodeInvalidCode    = "INVALID_CODE"
	CodeOutputTooLarge = "OUTPUT_TOO_LARGE"
	CodeUnavailable    = "UNAVAILABLE"
)

// Result is the outcome of one Engine.Run call.
type Result struct {
	Ok          bool   `json:"ok"`
	Value       any    `json:"value,omitempty"`
	ExecutionMs int64  `json:"executionMs,omitempty"`
	Code        string `json:"code,omitempty"`
	Error       string `json:"error,omitempty"`
}

func success(value any, executionMs int64) Result {
	return Result{Ok: true, Value: value, ExecutionMs: executionMs}
}

func failure(code, message string) Result {
	return Result{Ok: false, Code: code, Error: message}
}
