// Package content provides the MCP prompts and resources served alongside
// the fusion tool registry: a usage guide prompt, a static framework
// reference resource, and a dynamic manifest resource backed by the
// capability introspector.
package content

import "github.com/vinkius-labs/mcp-fusion/internal/mcp"

// GuidePrompt walks a model caller through the discriminated-action,
// state-sync, and introspection conventions every fusion tool shares.
type GuidePrompt struct{}

func (p *GuidePrompt) Definition() mcp.PromptDefinition {
	return mcp.PromptDefinition{
		Name:        "fusion-guide",
		Description: "Explains how to call fusion tools: the action discriminator, common-field omissions, and how to read an error's availableActions and fields.",
		Arguments:   []mcp.PromptArgument{},
	}
}

func (p *GuidePrompt) Get(arguments map[string]string) (*mcp.PromptsGetResult, error) {
	return &mcp.PromptsGetResult{
		Description: "Guide to calling fusion tools",
		Messages: []mcp.PromptMessage{
			{
				Role:    "user",
				Content: mcp.TextContent(fusionGuideContent),
			},
		},
	}, nil
}

const fusionGuideContent = `# Calling fusion tools

Every tool registered by this server accepts one JSON object with a
required "action" string naming which branch of the tool's discriminated
union to run, plus whichever fields that action needs.

## Discovering actions

Read the tool's inputSchema: it is a "oneOf" list of one object schema per
action, each pinning "action" to a literal value via "const". Fields shared
by several actions are described once and annotated with which actions
require them ("(always required)" or "Required for: [...]").

## Errors

A failed call returns isError=true with a single JSON text block shaped
like:

  { "code": "VALIDATION_ERROR", "message": "...",
    "fields": [{ "path": "/amount", "message": "..." }] }

"availableActions" appears on UNKNOWN_TOOL and UNKNOWN_ACTION so a caller
that guessed wrong can self-correct without a second round trip. "fields"
appears on VALIDATION_ERROR and names every offending field by JSON
pointer.

## Cache invalidation

A successful response may carry an extra text block:

  <cache_invalidation cause="billing.pay">billing.invoices, billing.balance</cache_invalidation>

This means the call just invalidated the listed patterns; drop any cached
reads matching them before trusting stale data.

## Introspection

Read the "fusion://manifest.json" resource for a machine-readable snapshot
of every registered tool's contract: structural surface, entitlements, and
token-economics estimate. Compare two snapshots over time (or against
"mcp-fusion.lock") to see what changed.
`
