package demo

import (
	"context"
	"encoding/json"

	"github.com/vinkius-labs/mcp-fusion/internal/fusion"
	"github.com/vinkius-labs/mcp-fusion/internal/fusionschema"
	"github.com/vinkius-labs/mcp-fusion/internal/sandbox"
)

// NewSandboxTool builds the "sandbox" tool, which exposes a single "eval"
// action running a caller-supplied JavaScript snippet through engine.
// Grounds spec.md §8 scenario 4: a busy-loop source times out or is
// aborted by the caller's cancellation, while a well-behaved source
// returns a serialized value.
func NewSandboxTool(engine *sandbox.Engine) *fusion.Builder {
	b := fusion.NewBuilder("sandbox").
		Description("Evaluate a short JavaScript expression of shape (data) => ... under sandboxed resource limits.").
		Tags("sandbox")

	b.Action("eval", fusion.ActionSpec{
		Schema: fusionschema.Shape{
			"source": {Type: "string", Description: "A single expression evaluating to a unary function", Required: true},
			"input":  {Type: "number", Description: "Value passed as the function's sole argument", Required: true},
		},
		Handler: func(ctx context.Context, args json.RawMessage) (any, error) {
			var in struct {
				Source string  `json:"source"`
				Input  float64 `json:"input"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return nil, err
			}
			return engine.Run(ctx, in.Source, in.Input), nil
		},
	})

	return b
}
