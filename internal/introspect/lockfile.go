package introspect

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/vinkius-labs/mcp-fusion/internal/digest"
)

// LockfileVersion is the only version this package accepts.
const LockfileVersion = 1

// ToolSummary is one tool's entry in a lockfile's capability table.
type ToolSummary struct {
	Contract        Contract `json:"contract"`
	IntegrityDigest string   `json:"integrityDigest"`
}

// Capabilities wraps the tool table so the lockfile's JSON shape matches
// spec.md §3: `capabilities.tools{ [name] -> ... }`.
type Capabilities struct {
	Tools map[string]ToolSummary `json:"tools"`
}

// Lockfile is the persisted, deterministic snapshot of every tool's
// contract for a server build.
type Lockfile struct {
	LockfileVersion  int          `json:"lockfileVersion"`
	ServerName       string       `json:"serverName"`
	FrameworkVersion string       `json:"frameworkVersion"`
	GeneratedAt      string       `json:"generatedAt"`
	IntegrityDigest  string       `json:"integrityDigest"`
	Capabilities     Capabilities `json:"capabilities"`
}

// Generate builds a Lockfile from a complete set of current contracts.
// encoding/json always serializes map keys in sorted order, which is what
// gives the output its "tools listed alphabetically" determinism.
func Generate(serverName, frameworkVersion, generatedAt string, contracts map[string]Contract) Lockfile {
	tools := make(map[string]ToolSummary, len(contracts))
	for name, c := range contracts {
		tools[name] = ToolSummary{Contract: c, IntegrityDigest: digest.MustSum(c)}
	}
	return Lockfile{
		LockfileVersion:  LockfileVersion,
		ServerName:       serverName,
		FrameworkVersion: frameworkVersion,
		GeneratedAt:      generatedAt,
		IntegrityDigest:  digest.MustSum(tools),
		Capabilities:     Capabilities{Tools: tools},
	}
}

// Serialize renders lock as 2-space-indented JSON with a trailing newline,
// matching the on-disk format spec.md §6 mandates.
func Serialize(lock Lockfile) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(lock); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Parse decodes a lockfile, rejecting unsupported versions and missing
// required fields.
func Parse(data []byte) (Lockfile, error) {
	var lock Lockfile
	if err := json.Unmarshal(data, &lock); err != nil {
		return Lockfile{}, fmt.Errorf("parsing lockfile: %w", err)
	}
	if lock.LockfileVersion != LockfileVersion {
		return Lockfile{}, fmt.Errorf("unsupported lockfileVersion %d", lock.LockfileVersion)
	}
	if lock.ServerName == "" {
		return Lockfile{}, fmt.Errorf("lockfile missing serverName")
	}
	if lock.Capabilities.Tools == nil {
		return Lockfile{}, fmt.Errorf("lockfile missing capabilities.tools")
	}
	return lock, nil
}

// CheckResult is the outcome of comparing a lockfile against the current
// set of contracts, suitable as a CI gate.
type CheckResult struct {
	OK        bool
	Added     []string
	Removed   []string
	Changed   []string
	Unchanged []string
	Message   string
}

// Check compares lock against the current contracts and classifies every
// tool as added, removed, changed, or unchanged by integrity digest.
func Check(lock Lockfile, current map[string]Contract) CheckResult {
	var added, removed, changed, unchanged []string

	for name := range lock.Capabilities.Tools {
		if _, ok := current[name]; !ok {
			removed = append(removed, name)
		}
	}
	for name, c := range current {
		prior, ok := lock.Capabilities.Tools[name]
		if !ok {
			added = append(added, name)
			continue
		}
		if digest.MustSum(c) == prior.IntegrityDigest {
			unchanged = append(unchanged, name)
		} else {
			changed = append(changed, name)
		}
	}

	sort.Strings(added)
	sort.Strings(removed)
	sort.Strings(changed)
	sort.Strings(unchanged)

	ok := len(added) == 0 && len(removed) == 0 && len(changed) == 0
	msg := "fusion lock is in sync"
	if !ok {
		msg = fmt.Sprintf("fusion lock is out of date: %d added, %d removed, %d changed",
			len(added), len(removed), len(changed))
	}

	return CheckResult{OK: ok, Added: added, Removed: removed, Changed: changed, Unchanged: unchanged, Message: msg}
}
