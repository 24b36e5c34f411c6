package content

import (
	"encoding/json"
	"fmt"

	"github.com/vinkius-labs/mcp-fusion/internal/fusion"
	"github.com/vinkius-labs/mcp-fusion/internal/introspect"
	"github.com/vinkius-labs/mcp-fusion/internal/mcp"
)

// --- fusion://framework-guide resource ---

// FrameworkGuideResource exposes a reference card for the builder/compiler
// conventions every tool in this server follows.
type FrameworkGuideResource struct{}

func (r *FrameworkGuideResource) Definition() mcp.ResourceDefinition {
	return mcp.ResourceDefinition{
		URI:         "fusion://framework-guide",
		Name:        "Fusion Framework Guide",
		Description: "Reference for the builder/compiler conventions (actions, common schema, state-sync, flags) every tool on this server follows",
		MimeType:    "text/markdown",
	}
}

func (r *FrameworkGuideResource) Read() (*mcp.ResourcesReadResult, error) {
	return &mcp.ResourcesReadResult{
		Contents: []mcp.ResourceContent{
			{URI: "fusion://framework-guide", MimeType: "text/markdown", Text: frameworkGuideContent},
		},
	}, nil
}

const frameworkGuideContent = `# Fusion framework reference

## Builder

A tool is declared once, at startup, via fusion.NewBuilder(name):

  b := fusion.NewBuilder("billing").
      Description("Invoice and payment operations").
      CommonSchema(fusionschema.Shape{"accountId": {Type: "string", Required: true}})

  b.Action("pay", fusion.ActionSpec{
      Schema:      fusionschema.Shape{"amount": {Type: "number", Required: true}},
      Destructive: ptr(true),
      Handler:     handlePay,
  })

Grouped actions share a middleware chain and an OmitCommon default:

  b.Group("invoices", func(g *fusion.GroupBuilder) {
      g.OmitCommon("accountId")
      g.Action("list", fusion.ActionSpec{ReadOnly: ptr(true), Handler: handleList})
  })

Calling b.Compile() runs the five-step algorithm once (idempotent after the
first call) and returns the dispatch table the registry routes calls
through.

## Flags

readOnly, destructive, and idempotent are independent *bool values — nil
means "unspecified," not false. At most two may be simultaneously true;
compiling a third asserted flag fails with SCHEMA_CONFLICT.

## State sync

b.Invalidates("pay", "billing.invoices.*", "billing.balance") declares that
a successful "pay" call invalidates the listed patterns. Only the "pay"
match is prefixed with the tool name; the invalidated patterns are used as
written. statesync.BuildPolicies flattens every tool's rules into one policy
list, and the state-sync decorator appends a <cache_invalidation> block to
matching responses.

## Introspection

Every compiled tool has a deterministic Fingerprint and can be turned into
an introspect.Contract: a structural surface, a behavioral fingerprint, a
token-economics estimate, and a rolled-up entitlements summary for any
sandboxed actions with known source. Diff two contracts to see what an
upgrade changed; generate a lockfile to gate CI on unreviewed drift.
`

// --- fusion://manifest.json resource ---

// ManifestResource derives and serializes a live introspect.Contract for
// every tool currently registered, the default introspection URI spec.md
// §6 names.
type ManifestResource struct {
	registry *fusion.Registry
}

// NewManifestResource builds a manifest resource backed by registry. Each
// Read call re-derives contracts from the registry's current tool set, so
// the manifest always reflects whatever is registered at read time.
func NewManifestResource(registry *fusion.Registry) *ManifestResource {
	return &ManifestResource{registry: registry}
}

func (r *ManifestResource) Definition() mcp.ResourceDefinition {
	return mcp.ResourceDefinition{
		URI:         "fusion://manifest.json",
		Name:        "Fusion Capability Manifest",
		Description: "Live structural contract for every registered tool: surface, behavior, token economics, and entitlements",
		MimeType:    "application/json",
	}
}

func (r *ManifestResource) Read() (*mcp.ResourcesReadResult, error) {
	tools := r.registry.Tools()
	contracts := make(map[string]introspect.Contract, len(tools))
	for _, t := range tools {
		contracts[t.Definition.Name] = introspect.Derive(t, nil)
	}

	body, err := json.MarshalIndent(map[string]any{
		"tools": contracts,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling manifest: %w", err)
	}

	return &mcp.ResourcesReadResult{
		Contents: []mcp.ResourceContent{
			{URI: "fusion://manifest.json", MimeType: "application/json", Text: string(body)},
		},
	}, nil
}
