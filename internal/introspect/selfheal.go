package introspect

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vinkius-labs/mcp-fusion/internal/fusion"
)

const defaultSelfHealTopN = 5

// SelfHeal implements spec.md §4.4's self-healing hook: given an active set
// of contract deltas for the tool a validation-error response came from, it
// appends a <contract_awareness> block naming the action and the top-N
// (default 5) deltas filtered to BREAKING and RISKY, so a model caller that
// just failed validation can see what changed about the tool's shape.
// Non-error responses and errors other than VALIDATION_ERROR pass through
// untouched.
func SelfHeal(resp fusion.Response, action string, deltas []Delta, topN int) fusion.Response {
	if !resp.IsError {
		return resp
	}
	var ferr fusion.Error
	if len(resp.Content) == 0 || json.Unmarshal([]byte(resp.Content[0].Text), &ferr) != nil ||
		ferr.Code != fusion.CodeValidationError {
		return resp
	}
	relevant := filterSeverity(deltas, SeverityBreaking, SeverityRisky)
	if len(relevant) == 0 {
		return resp
	}
	if topN <= 0 {
		topN = defaultSelfHealTopN
	}
	if len(relevant) > topN {
		relevant = relevant[:topN]
	}

	out := resp
	out.Content = append(append([]fusion.ContentBlock(nil), resp.Content...),
		fusion.ContentBlock{Type: "text", Text: contractAwarenessBlock(action, relevant)})
	return out
}

func filterSeverity(deltas []Delta, severities ...string) []Delta {
	want := make(map[string]bool, len(severities))
	for _, s := range severities {
		want[s] = true
	}
	var out []Delta
	for _, d := range deltas {
		if want[d.Severity] {
			out = append(out, d)
		}
	}
	return out
}

func contractAwarenessBlock(action string, deltas []Delta) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<contract_awareness action=%q>", escapeXMLAttr(action))
	for i, d := range deltas {
		if i > 0 {
			sb.WriteString("; ")
		}
		fmt.Fprintf(&sb, "%s %s (%s)", d.Kind, d.Field, d.Severity)
	}
	sb.WriteString("</contract_awareness>")
	return sb.String()
}

func escapeXMLAttr(s string) string {
	r := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
	)
	return r.Replace(s)
}
