package demo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vinkius-labs/mcp-fusion/internal/fusion"
	"github.com/vinkius-labs/mcp-fusion/internal/fusionschema"
)

// NewBillingTool builds the "billing" tool: a common "workspace_id" field
// required by every action except "me", and a destructive "pay" action
// that invalidates the "invoices" group's cached listings. Grounds spec.md
// §8 scenario 2 (common-schema omission) and scenario 3 (state-sync
// invalidation + notification).
func NewBillingTool() *fusion.Builder {
	b := fusion.NewBuilder("billing").
		Description("Invoice and payment operations scoped to a workspace.").
		Tags("billing").
		CommonSchema(fusionschema.Shape{
			"workspace_id": {Type: "string", Description: "Workspace to operate within", Required: true},
		})

	b.Action("me", fusion.ActionSpec{
		ReadOnly:   ptr(true),
		OmitCommon: []string{"workspace_id"},
		Handler: func(ctx context.Context, args json.RawMessage) (any, error) {
			return map[string]string{"account": "current-user"}, nil
		},
	})

	b.Action("list", fusion.ActionSpec{
		ReadOnly: ptr(true),
		Handler: func(ctx context.Context, args json.RawMessage) (any, error) {
			var in struct {
				WorkspaceID string `json:"workspace_id"`
			}
			_ = json.Unmarshal(args, &in)
			return map[string]any{"workspace_id": in.WorkspaceID, "invoices": []string{}}, nil
		},
	})

	b.Action("pay", fusion.ActionSpec{
		Schema: fusionschema.Shape{
			"amount": {Type: "number", Description: "Amount to charge, in cents", Required: true},
		},
		Destructive: ptr(true),
		Handler: func(ctx context.Context, args json.RawMessage) (any, error) {
			var in struct {
				WorkspaceID string  `json:"workspace_id"`
				Amount      float64 `json:"amount"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return nil, err
			}
			return fmt.Sprintf("charged %.2f to workspace %s", in.Amount, in.WorkspaceID), nil
		},
	})

	b.Group("invoices", func(g *fusion.GroupBuilder) {
		g.Action("list", fusion.ActionSpec{
			ReadOnly: ptr(true),
			Handler: func(ctx context.Context, args json.RawMessage) (any, error) {
				return []string{}, nil
			},
		})
	})

	// Matches spec.md §8 scenario 3's literal policy: a successful "pay"
	// invalidates the "invoices" group's cached listings on this tool.
	b.Invalidates("pay", "billing.invoices.*")
	return b
}
