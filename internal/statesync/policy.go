package statesync

import "github.com/vinkius-labs/mcp-fusion/internal/fusion"

// Policy is the registry-wide, flattened form of a tool's state-sync hints:
// a compiled tool's StateSyncHint pattern "p" becomes the policy match
// "<toolName>.p" (or "<toolName>.*" for the bare "*" hint), so a single
// policy list can be matched against any call in the registry.
type Policy struct {
	Match        string
	Invalidates  []string
	CacheControl string
}

// BuildPolicies flattens every registered tool's compiled state-sync hints
// into one policy list, in tool-registration then hint-declaration order.
func BuildPolicies(tools []*fusion.CompiledTool) []Policy {
	var out []Policy
	for _, t := range tools {
		name := t.Definition.Name
		for _, h := range t.StateSyncHints {
			match := name + "." + h.Pattern
			out = append(out, Policy{
				Match:        match,
				Invalidates:  h.Invalidates,
				CacheControl: h.CacheControl,
			})
		}
	}
	return out
}

// OverlapPair flags policies[I] as strictly subsuming policies[J].
type OverlapPair struct {
	I, J int
}

// DetectOverlaps is a pure function over a policy list: for every ordered
// pair (i, j) where pattern i strictly subsumes pattern j, it reports the
// pair (spec.md §4.3).
func DetectOverlaps(policies []Policy) []OverlapPair {
	var out []OverlapPair
	for i := range policies {
		for j := range policies {
			if i == j {
				continue
			}
			if PatternSubsumes(policies[i].Match, policies[j].Match) {
				out = append(out, OverlapPair{I: i, J: j})
			}
		}
	}
	return out
}
