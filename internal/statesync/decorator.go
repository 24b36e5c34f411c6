package statesync

import (
	"fmt"
	"strings"

	"github.com/vinkius-labs/mcp-fusion/internal/fusion"
)

// Decorator attaches cache-invalidation metadata to successful responses
// and emits resources/updated notifications for each invalidated pattern.
// Constructed with a fixed policy snapshot; callers rebuild it whenever the
// registry's tool set changes (on notifyChanged, typically).
type Decorator struct {
	policies []Policy
	sink     fusion.NotificationSink
}

// NewDecorator builds a Decorator from a flattened policy list and an
// optional notification sink (nil disables the resources/updated side
// effect but decoration still happens).
func NewDecorator(policies []Policy, sink fusion.NotificationSink) *Decorator {
	return &Decorator{policies: policies, sink: sink}
}

// Decorate is the identity on error responses and on calls matched by no
// policy (spec.md §4.3, §8 boundary behavior). Otherwise it appends one
// <cache_invalidation> text block listing every distinct invalidated
// pattern and fires one resources/updated notification per pattern.
func (d *Decorator) Decorate(toolName, action string, resp fusion.Response) fusion.Response {
	if resp.IsError {
		return resp
	}

	var patterns []string
	seen := make(map[string]bool)
	for _, p := range d.policies {
		if len(p.Invalidates) == 0 {
			continue
		}
		if !MatchCall(p.Match, toolName, action) {
			continue
		}
		for _, inv := range p.Invalidates {
			if seen[inv] {
				continue
			}
			seen[inv] = true
			patterns = append(patterns, inv)
		}
	}

	if len(patterns) == 0 {
		return resp
	}

	block := fmt.Sprintf("<cache_invalidation cause=%q>%s</cache_invalidation>",
		escapeAttr(toolName+"."+action), strings.Join(patterns, ", "))
	decorated := resp
	decorated.Content = append(append([]fusion.ContentBlock(nil), resp.Content...),
		fusion.ContentBlock{Type: "text", Text: block})

	d.notify(patterns)
	return decorated
}

// notify fires one resources/updated per pattern. Sink panics and (by
// construction, since ResourceUpdated is synchronous here) errors are
// recovered so a misbehaving observer never taints the call result
// (spec.md §4.3, §7).
func (d *Decorator) notify(patterns []string) {
	if d.sink == nil {
		return
	}
	for _, p := range patterns {
		func(pattern string) {
			defer func() { _ = recover() }()
			d.sink.ResourceUpdated("fusion://stale/" + pattern)
		}(p)
	}
}

func escapeAttr(s string) string {
	r := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
	)
	return r.Replace(s)
}
