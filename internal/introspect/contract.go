// Package introspect derives deterministic structural contracts from
// compiled tools, diffs them across commits, and generates/checks the
// on-disk lockfile that gates CI against unreviewed capability drift.
package introspect

import (
	"github.com/vinkius-labs/mcp-fusion/internal/digest"
	"github.com/vinkius-labs/mcp-fusion/internal/entitlement"
	"github.com/vinkius-labs/mcp-fusion/internal/fusion"
)

// ActionSurface is one action's entry in Surface.Actions.
type ActionSurface struct {
	Destructive       *bool  `json:"destructive,omitempty"`
	ReadOnly          *bool  `json:"readOnly,omitempty"`
	Idempotent        *bool  `json:"idempotent,omitempty"`
	InputSchemaDigest string `json:"inputSchemaDigest"`
	HasMiddleware     bool   `json:"hasMiddleware"`
	PresenterName     string `json:"presenterName,omitempty"`
}

// Surface is the structural, caller-visible half of a contract.
type Surface struct {
	Name              string                   `json:"name"`
	Description       string                   `json:"description,omitempty"`
	Tags              []string                 `json:"tags,omitempty"`
	InputSchemaDigest string                   `json:"inputSchemaDigest"`
	Actions           map[string]ActionSurface `json:"actions"`
}

// Behavior is the dynamic/topological half of a contract: what runs, and in
// what shape, when an action is invoked.
type Behavior struct {
	SystemRulesFingerprint string   `json:"systemRulesFingerprint"`
	EgressSchemaDigest     string   `json:"egressSchemaDigest"`
	CognitiveGuardrails    []string `json:"cognitiveGuardrails,omitempty"`
	MiddlewareChain        []string `json:"middlewareChain,omitempty"`
	StateSyncFingerprint   string   `json:"stateSyncFingerprint"`
	AffordanceTopology     []string `json:"affordanceTopology,omitempty"`
}

// InflationRisk buckets spec.md §4.4's token-economics heuristic.
const (
	RiskLow      = "low"
	RiskMedium   = "medium"
	RiskHigh     = "high"
	RiskCritical = "critical"
)

// TokenEconomics estimates the per-call context-window cost of a tool.
type TokenEconomics struct {
	SchemaFieldCount    int    `json:"schemaFieldCount"`
	UnboundedCollection bool   `json:"unboundedCollection"`
	BaseOverheadTokens  int    `json:"baseOverheadTokens"`
	InflationRisk       string `json:"inflationRisk"`
}

// Entitlements is the contract-level rollup of every action's scanned
// capabilities.
type Entitlements struct {
	Filesystem     bool     `json:"filesystem"`
	Network        bool     `json:"network"`
	Subprocess     bool     `json:"subprocess"`
	Crypto         bool     `json:"crypto"`
	CodeEvaluation bool     `json:"codeEvaluation"`
	Raw            []string `json:"raw,omitempty"`
}

// Contract is the full structural fingerprint of one compiled tool.
type Contract struct {
	Surface        Surface        `json:"surface"`
	Behavior       Behavior       `json:"behavior"`
	TokenEconomics TokenEconomics `json:"tokenEconomics"`
	Entitlements   Entitlements   `json:"entitlements"`
}

// SourceLookup supplies a handler's textual source for entitlement
// scanning, keyed by action. Go handlers are compiled closures with no
// runtime-retrievable source text (unlike the JS environment this design
// originates from), so Derive treats source as optional, out-of-band input:
// callers that register sandboxed (JS-backed) actions can supply it here,
// and statically-compiled Go handlers simply contribute no entitlements.
type SourceLookup func(action string) (source string, ok bool)

// Derive computes a Contract from a compiled tool. sources may be nil.
func Derive(tool *fusion.CompiledTool, sources SourceLookup) Contract {
	actions := make(map[string]ActionSurface, len(tool.Dispatch))
	var ent Entitlements
	seenRaw := make(map[string]bool)
	var middlewareNames []string
	seenMW := make(map[string]bool)

	for _, key := range tool.Actions() {
		entry := tool.Dispatch[key]
		presenter := ""
		if entry.Presenter != nil {
			presenter = entry.Presenter.Name
		}
		actions[key] = ActionSurface{
			Destructive:       entry.Flags.Destructive,
			ReadOnly:          entry.Flags.ReadOnly,
			Idempotent:        entry.Flags.Idempotent,
			InputSchemaDigest: digest.MustSum(entry.Schema),
			HasMiddleware:     len(entry.Middleware) > 0,
			PresenterName:     presenter,
		}

		for _, mw := range entry.Middleware {
			name := fusion.MiddlewareName(mw)
			if !seenMW[name] {
				seenMW[name] = true
				middlewareNames = append(middlewareNames, name)
			}
		}

		if sources == nil {
			continue
		}
		src, ok := sources(key)
		if !ok {
			continue
		}
		report := entitlement.ScanAndValidate(src, entitlement.Claims{
			ReadOnly:    entry.Flags.ReadOnly != nil && *entry.Flags.ReadOnly,
			Destructive: entry.Flags.Destructive != nil && *entry.Flags.Destructive,
		})
		ent.Filesystem = ent.Filesystem || report.Entitlements.Filesystem
		ent.Network = ent.Network || report.Entitlements.Network
		ent.Subprocess = ent.Subprocess || report.Entitlements.Subprocess
		ent.Crypto = ent.Crypto || report.Entitlements.Crypto
		ent.CodeEvaluation = ent.CodeEvaluation || report.Entitlements.CodeEvaluation
		for _, r := range report.Entitlements.Raw {
			if !seenRaw[r] {
				seenRaw[r] = true
				ent.Raw = append(ent.Raw, r)
			}
		}
	}

	schemaFieldCount, unbounded := schemaStats(tool.Definition.InputSchema)
	overhead := estimateOverheadTokens(tool.Definition.InputSchema)

	guardrails := extractGuardrails(tool.Definition.Tags)

	return Contract{
		Surface: Surface{
			Name:              tool.Definition.Name,
			Description:       tool.Definition.Description,
			Tags:              tool.Definition.Tags,
			InputSchemaDigest: digest.MustSum(tool.Definition.InputSchema),
			Actions:           actions,
		},
		Behavior: Behavior{
			SystemRulesFingerprint: digest.MustSum(map[string]any{
				"description": tool.Definition.Description,
				"annotations": tool.Definition.Annotations,
			}),
			EgressSchemaDigest:   digest.MustSum(presenterNames(tool)),
			CognitiveGuardrails:  guardrails,
			MiddlewareChain:      middlewareNames,
			StateSyncFingerprint: digest.MustSum(tool.StateSyncHints),
			AffordanceTopology:   tool.Actions(),
		},
		TokenEconomics: TokenEconomics{
			SchemaFieldCount:    schemaFieldCount,
			UnboundedCollection: unbounded,
			BaseOverheadTokens:  overhead,
			InflationRisk:       inflationRisk(schemaFieldCount, unbounded),
		},
		Entitlements: ent,
	}
}

func presenterNames(tool *fusion.CompiledTool) map[string]string {
	out := make(map[string]string, len(tool.Dispatch))
	for key, entry := range tool.Dispatch {
		if entry.Presenter != nil {
			out[key] = entry.Presenter.Name
		}
	}
	return out
}

func extractGuardrails(tags []string) []string {
	var out []string
	const prefix = "guardrail:"
	for _, t := range tags {
		if len(t) > len(prefix) && t[:len(prefix)] == prefix {
			out = append(out, t[len(prefix):])
		}
	}
	return out
}

func schemaStats(schema map[string]any) (fieldCount int, unbounded bool) {
	branches, _ := schema["oneOf"].([]any)
	seen := make(map[string]bool)
	for _, b := range branches {
		branch, ok := b.(map[string]any)
		if !ok {
			continue
		}
		props, _ := branch["properties"].(map[string]any)
		for name, raw := range props {
			if !seen[name] {
				seen[name] = true
				fieldCount++
			}
			field, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			if field["type"] == "array" {
				unbounded = true
			}
		}
	}
	return fieldCount, unbounded
}

// estimateOverheadTokens approximates the fixed per-call token cost of
// presenting this tool's schema to a model, at a rough 4 bytes/token.
func estimateOverheadTokens(schema map[string]any) int {
	canon, err := digest.Canonicalize(schema)
	if err != nil {
		return 0
	}
	return len(canon) / 4
}

func inflationRisk(fieldCount int, unbounded bool) string {
	switch {
	case unbounded && fieldCount > 20:
		return RiskCritical
	case unbounded || fieldCount > 15:
		return RiskHigh
	case fieldCount > 8:
		return RiskMedium
	default:
		return RiskLow
	}
}
