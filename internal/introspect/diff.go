package introspect

import "fmt"

// Delta kinds.
const (
	KindAdd    = "ADD"
	KindRemove = "REMOVE"
	KindChange = "CHANGE"
)

// Delta severities.
const (
	SeverityBreaking = "BREAKING"
	SeverityRisky    = "RISKY"
	SeverityBenign   = "BENIGN"
)

// Delta is one structural difference between two contracts for the same
// tool.
type Delta struct {
	Field    string `json:"field"`
	Kind     string `json:"kind"`
	Severity string `json:"severity"`
	Prev     any    `json:"prev,omitempty"`
	Next     any    `json:"next,omitempty"`
}

// Diff compares two contracts for the same tool and returns every
// structural delta, classified per spec.md §4.4's severity rules. A tool
// diffed against itself always returns an empty slice (spec.md §8).
func Diff(prev, cur Contract) []Delta {
	var out []Delta

	if prev.Surface.Description != cur.Surface.Description {
		out = append(out, Delta{
			Field: "surface.description", Kind: KindChange, Severity: SeverityRisky,
			Prev: prev.Surface.Description, Next: cur.Surface.Description,
		})
	}

	out = append(out, diffTags(prev.Surface.Tags, cur.Surface.Tags)...)
	out = append(out, diffActions(prev.Surface.Actions, cur.Surface.Actions)...)
	out = append(out, diffEntitlements(prev.Entitlements, cur.Entitlements)...)

	if prev.Surface.InputSchemaDigest != cur.Surface.InputSchemaDigest {
		out = append(out, Delta{
			Field: "surface.inputSchemaDigest", Kind: KindChange, Severity: SeverityRisky,
			Prev: prev.Surface.InputSchemaDigest, Next: cur.Surface.InputSchemaDigest,
		})
	}

	if prev.TokenEconomics.InflationRisk != cur.TokenEconomics.InflationRisk {
		sev := SeverityBenign
		if riskRank(cur.TokenEconomics.InflationRisk) > riskRank(prev.TokenEconomics.InflationRisk) {
			sev = SeverityRisky
		}
		out = append(out, Delta{
			Field: "tokenEconomics.inflationRisk", Kind: KindChange, Severity: sev,
			Prev: prev.TokenEconomics.InflationRisk, Next: cur.TokenEconomics.InflationRisk,
		})
	}

	return out
}

func riskRank(r string) int {
	switch r {
	case RiskLow:
		return 0
	case RiskMedium:
		return 1
	case RiskHigh:
		return 2
	case RiskCritical:
		return 3
	default:
		return -1
	}
}

func diffTags(prev, cur []string) []Delta {
	prevSet := toSet(prev)
	curSet := toSet(cur)
	var out []Delta
	for _, t := range prev {
		if !curSet[t] {
			out = append(out, Delta{Field: "surface.tags." + t, Kind: KindRemove, Severity: SeverityBenign, Prev: t})
		}
	}
	for _, t := range cur {
		if !prevSet[t] {
			out = append(out, Delta{Field: "surface.tags." + t, Kind: KindAdd, Severity: SeverityBenign, Next: t})
		}
	}
	return out
}

func toSet(vs []string) map[string]bool {
	m := make(map[string]bool, len(vs))
	for _, v := range vs {
		m[v] = true
	}
	return m
}

func diffActions(prev, cur map[string]ActionSurface) []Delta {
	var out []Delta
	for key, p := range prev {
		c, ok := cur[key]
		if !ok {
			out = append(out, Delta{
				Field: fmt.Sprintf("surface.actions.%s", key), Kind: KindRemove, Severity: SeverityBreaking, Prev: p,
			})
			continue
		}
		out = append(out, diffAction(key, p, c)...)
	}
	for key, c := range cur {
		if _, ok := prev[key]; !ok {
			out = append(out, Delta{
				Field: fmt.Sprintf("surface.actions.%s", key), Kind: KindAdd, Severity: SeverityBenign, Next: c,
			})
		}
	}
	return out
}

func diffAction(key string, p, c ActionSurface) []Delta {
	var out []Delta
	if becameTrue(p.Destructive, c.Destructive) {
		out = append(out, Delta{
			Field: fmt.Sprintf("surface.actions.%s.destructive", key), Kind: KindChange, Severity: SeverityBreaking,
			Prev: p.Destructive, Next: c.Destructive,
		})
	}
	if becameTrue(p.ReadOnly, c.ReadOnly) {
		out = append(out, Delta{
			Field: fmt.Sprintf("surface.actions.%s.readOnly", key), Kind: KindChange, Severity: SeverityBreaking,
			Prev: p.ReadOnly, Next: c.ReadOnly,
		})
	}
	if p.InputSchemaDigest != c.InputSchemaDigest {
		out = append(out, Delta{
			Field: fmt.Sprintf("surface.actions.%s.inputSchemaDigest", key), Kind: KindChange, Severity: SeverityRisky,
			Prev: p.InputSchemaDigest, Next: c.InputSchemaDigest,
		})
	}
	if p.PresenterName != c.PresenterName {
		out = append(out, Delta{
			Field: fmt.Sprintf("surface.actions.%s.presenterName", key), Kind: KindChange, Severity: SeverityBenign,
			Prev: p.PresenterName, Next: c.PresenterName,
		})
	}
	if p.HasMiddleware != c.HasMiddleware {
		out = append(out, Delta{
			Field: fmt.Sprintf("surface.actions.%s.hasMiddleware", key), Kind: KindChange, Severity: SeverityBenign,
			Prev: p.HasMiddleware, Next: c.HasMiddleware,
		})
	}
	return out
}

func becameTrue(prev, cur *bool) bool {
	wasTrue := prev != nil && *prev
	isTrue := cur != nil && *cur
	return !wasTrue && isTrue
}

func diffEntitlements(prev, cur Entitlements) []Delta {
	var out []Delta
	categories := []struct {
		name       string
		prev, cur  bool
	}{
		{"filesystem", prev.Filesystem, cur.Filesystem},
		{"network", prev.Network, cur.Network},
		{"subprocess", prev.Subprocess, cur.Subprocess},
		{"crypto", prev.Crypto, cur.Crypto},
		{"codeEvaluation", prev.CodeEvaluation, cur.CodeEvaluation},
	}
	for _, c := range categories {
		if !c.prev && c.cur {
			out = append(out, Delta{
				Field: "entitlements." + c.name, Kind: KindChange, Severity: SeverityBreaking,
				Prev: false, Next: true,
			})
		} else if c.prev && !c.cur {
			out = append(out, Delta{
				Field: "entitlements." + c.name, Kind: KindChange, Severity: SeverityBenign,
				Prev: true, Next: false,
			})
		}
	}
	return out
}
