package fusion

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vinkius-labs/mcp-fusion/internal/fusionschema"
)

// discriminator is the minimal shape dispatch needs to read the action key
// out of otherwise-unvalidated call arguments.
type discriminator struct {
	Action string `json:"action"`
}

// Dispatch runs the full per-call state machine described in spec.md §4.1:
// ParseDiscriminator -> Validate -> Middleware(1..n) -> Handler -> Return.
// State-sync decoration happens outside this function, in the response
// decorators mcp.Server runs on the result (see Server.AddDecorator), since
// it needs the tool/action key alongside the result.
func Dispatch(ctx context.Context, tool *CompiledTool, rawArgs json.RawMessage) Response {
	action, err := parseAction(rawArgs)
	if err != nil {
		return ErrorResponse(NewError(CodeUnknownAction, err.Error()).
			WithAvailableActions(tool.Actions()))
	}

	entry, ok := tool.Dispatch[action]
	if !ok {
		return ErrorResponse(NewError(CodeUnknownAction, fmt.Sprintf("unknown action %q", action)).
			WithAvailableActions(tool.Actions()))
	}

	if entry.Validator != nil {
		var instance any
		if err := json.Unmarshal(rawArgs, &instance); err != nil {
			return ErrorResponse(NewError(CodeValidationError, "arguments must be a JSON object"))
		}
		if fieldErrs := entry.Validator.Validate(instance); len(fieldErrs) > 0 {
			return ErrorResponse(NewError(CodeValidationError, "validation failed for action "+action).
				WithFields(toFieldPaths(fieldErrs)))
		}
	}

	final := Next(func(ctx context.Context, args json.RawMessage) (result any, err error) {
		return invokeHandler(ctx, entry.Handler, args)
	})
	chain := compose(entry.Middleware, final)

	result, err := invokeChain(ctx, chain, rawArgs)
	if err != nil {
		return ErrorResponse(NewError(CodeHandlerError, sanitizeError(err)))
	}
	return toResponse(result)
}

// compose folds the middleware list so that the first-registered middleware
// is outermost and the handler (final) is the innermost Next.
func compose(mws []Middleware, final Next) Next {
	next := final
	for i := len(mws) - 1; i >= 0; i-- {
		mw := mws[i]
		inner := next
		next = func(ctx context.Context, args json.RawMessage) (any, error) {
			return mw(ctx, args, inner)
		}
	}
	return next
}

// invokeChain runs the composed chain with a panic barrier, so a misbehaving
// middleware or handler cannot corrupt later calls — spec.md §4.1's "throws
// are captured... and isolated."
func invokeChain(ctx context.Context, chain Next, args json.RawMessage) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return chain(ctx, args)
}

func invokeHandler(ctx context.Context, h HandlerFunc, args json.RawMessage) (result any, err error) {
	if h == nil {
		return nil, fmt.Errorf("action has no handler")
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return h(ctx, args)
}

// toResponse implements "implicit success wrapping": a handler result that
// is already a Response passes through; anything else becomes a single text
// block.
func toResponse(result any) Response {
	if resp, ok := result.(Response); ok {
		return resp
	}
	if result == nil {
		return TextBlock("")
	}
	return TextBlock(result)
}

func parseAction(raw json.RawMessage) (string, error) {
	var d discriminator
	if err := json.Unmarshal(raw, &d); err != nil {
		return "", fmt.Errorf("arguments must be a JSON object with an \"action\" field")
	}
	if d.Action == "" {
		return "", fmt.Errorf("missing required \"action\" field")
	}
	return d.Action, nil
}

func toFieldPaths(errs []fusionschema.FieldError) []FieldPath {
	out := make([]FieldPath, 0, len(errs))
	for _, e := range errs {
		out = append(out, FieldPath{Path: e.Path, Message: e.Message})
	}
	return out
}

// sanitizeError replaces anything resembling an absolute host filesystem
// path in a handler error message with a placeholder before it reaches the
// caller, per spec.md §7's "message preserved, stack trace and host paths
// scrubbed." The rest of the message, Go type names included, is passed
// through unchanged.
func sanitizeError(err error) string {
	msg := err.Error()
	return scrubPaths(msg)
}
