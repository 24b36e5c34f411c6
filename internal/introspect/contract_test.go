package introspect

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinkius-labs/mcp-fusion/internal/fusion"
)

func buildUsersTool(t *testing.T) *fusion.CompiledTool {
	t.Helper()
	b := fusion.NewBuilder("users").Description("user directory").Tags("core")
	trueVal := true
	b.Group("users", func(g *fusion.GroupBuilder) {
		g.Action("list", fusion.ActionSpec{
			ReadOnly: &trueVal,
			Handler:  func(ctx context.Context, args json.RawMessage) (any, error) { return []any{}, nil },
		})
		g.Action("delete", fusion.ActionSpec{
			Destructive: &trueVal,
			Handler:     func(ctx context.Context, args json.RawMessage) (any, error) { return nil, nil },
		})
	})
	compiled, err := b.Compile()
	require.NoError(t, err)
	return compiled
}

func TestDeriveContractSurfaceIncludesEveryAction(t *testing.T) {
	tool := buildUsersTool(t)
	c := Derive(tool, nil)
	assert.Equal(t, "users", c.Surface.Name)
	assert.Contains(t, c.Surface.Actions, "users.list")
	assert.Contains(t, c.Surface.Actions, "users.delete")
	assert.True(t, *c.Surface.Actions["users.list"].ReadOnly)
	assert.True(t, *c.Surface.Actions["users.delete"].Destructive)
}

func TestDeriveIsDeterministic(t *testing.T) {
	tool := buildUsersTool(t)
	a := Derive(tool, nil)
	c := Derive(tool, nil)
	assert.Equal(t, a.Surface.InputSchemaDigest, c.Surface.InputSchemaDigest)
	assert.Equal(t, a.Behavior.StateSyncFingerprint, c.Behavior.StateSyncFingerprint)
}

func TestDiffOfContractAgainstItselfIsEmpty(t *testing.T) {
	tool := buildUsersTool(t)
	c := Derive(tool, nil)
	assert.Empty(t, Diff(c, c))
}

func TestDiffFlagsNewlyDestructiveActionAsBreaking(t *testing.T) {
	prevTool := buildUsersTool(t)
	prev := Derive(prevTool, nil)

	b := fusion.NewBuilder("users").Description("user directory").Tags("core")
	falseVal := false
	trueVal := true
	b.Group("users", func(g *fusion.GroupBuilder) {
		g.Action("list", fusion.ActionSpec{
			ReadOnly:    &falseVal,
			Destructive: &trueVal,
			Handler:     func(ctx context.Context, args json.RawMessage) (any, error) { return []any{}, nil },
		})
		g.Action("delete", fusion.ActionSpec{
			Destructive: &trueVal,
			Handler:     func(ctx context.Context, args json.RawMessage) (any, error) { return nil, nil },
		})
	})
	curTool, err := b.Compile()
	require.NoError(t, err)
	cur := Derive(curTool, nil)

	deltas := Diff(prev, cur)
	require.NotEmpty(t, deltas)
	found := false
	for _, d := range deltas {
		if d.Field == "surface.actions.users.list.destructive" {
			found = true
			assert.Equal(t, SeverityBreaking, d.Severity)
		}
	}
	assert.True(t, found)
}

func TestDiffRemovedActionIsBreaking(t *testing.T) {
	prevTool := buildUsersTool(t)
	prev := Derive(prevTool, nil)

	b := fusion.NewBuilder("users").Description("user directory").Tags("core")
	trueVal := true
	b.Group("users", func(g *fusion.GroupBuilder) {
		g.Action("list", fusion.ActionSpec{
			ReadOnly: &trueVal,
			Handler:  func(ctx context.Context, args json.RawMessage) (any, error) { return []any{}, nil },
		})
	})
	curTool, err := b.Compile()
	require.NoError(t, err)
	cur := Derive(curTool, nil)

	deltas := Diff(prev, cur)
	var removedDelta *Delta
	for i := range deltas {
		if deltas[i].Field == "surface.actions.users.delete" {
			removedDelta = &deltas[i]
		}
	}
	require.NotNil(t, removedDelta)
	assert.Equal(t, SeverityBreaking, removedDelta.Severity)
	assert.Equal(t, KindRemove, removedDelta.Kind)
}
