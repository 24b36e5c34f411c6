// Package statesync matches cache-invalidation policies against executed
// tool calls, decorates successful responses with invalidation metadata,
// and emits resources/updated notifications.
package statesync

import "strings"

// Match reports whether key satisfies pattern under the glob dialect
// spec.md §6 defines: "." separates segments, "*" matches exactly one
// segment, "**" matches zero or more segments, anything else is literal.
func Match(pattern, key string) bool {
	return matchSegments(strings.Split(pattern, "."), strings.Split(key, "."))
}

func matchSegments(pat, seg []string) bool {
	if len(pat) == 0 {
		return len(seg) == 0
	}
	switch pat[0] {
	case "**":
		if matchSegments(pat[1:], seg) {
			return true
		}
		if len(seg) == 0 {
			return false
		}
		return matchSegments(pat, seg[1:])
	case "*":
		if len(seg) == 0 {
			return false
		}
		return matchSegments(pat[1:], seg[1:])
	default:
		if len(seg) == 0 || seg[0] != pat[0] {
			return false
		}
		return matchSegments(pat[1:], seg[1:])
	}
}

// MatchCall reports whether a policy pattern matches a call's canonical key,
// which may be expressed either as the bare tool name or as "tool.action"
// (spec.md §4.3).
func MatchCall(pattern, toolName, action string) bool {
	if Match(pattern, toolName) {
		return true
	}
	return Match(pattern, toolName+"."+action)
}

// subsumes reports whether every key matched by narrow is also matched by
// broad — used by DetectOverlaps to flag redundant/shadowing policies.
func subsumes(broad, narrow []string) bool {
	if len(broad) == 0 {
		return len(narrow) == 0
	}
	switch broad[0] {
	case "**":
		if subsumes(broad[1:], narrow) {
			return true
		}
		if len(narrow) == 0 {
			return false
		}
		return subsumes(broad, narrow[1:])
	case "*":
		if len(narrow) == 0 || narrow[0] == "**" {
			return false
		}
		return subsumes(broad[1:], narrow[1:])
	default:
		if len(narrow) == 0 || narrow[0] != broad[0] {
			return false
		}
		return subsumes(broad[1:], narrow[1:])
	}
}

// PatternSubsumes reports whether broad strictly subsumes narrow: every
// string narrow matches, broad also matches, and the two patterns differ.
func PatternSubsumes(broad, narrow string) bool {
	if broad == narrow {
		return false
	}
	return subsumes(strings.Split(broad, "."), strings.Split(narrow, "."))
}
