package fusion

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSink struct {
	mu             sync.Mutex
	toolsChanged   int
	updatedURIs    []string
}

func (m *mockSink) ToolsListChanged() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.toolsChanged++
}

func (m *mockSink) ResourceUpdated(uri string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updatedURIs = append(m.updatedURIs, uri)
}

func (m *mockSink) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.toolsChanged
}

func TestRegistryRouteCallUnknownToolListsNames(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register(NewBuilder("widgets").Action("list", ActionSpec{Handler: echoHandler})))
	require.NoError(t, r.Register(NewBuilder("gadgets").Action("list", ActionSpec{Handler: echoHandler})))

	resp := r.RouteCall(context.Background(), "sprockets", json.RawMessage(`{"action":"list"}`))
	require.True(t, resp.IsError)
	var errBody Error
	require.NoError(t, json.Unmarshal([]byte(resp.Content[0].Text), &errBody))
	assert.Equal(t, CodeUnknownTool, errBody.Code)
	assert.ElementsMatch(t, []string{"widgets", "gadgets"}, errBody.AvailableActions)
}

func TestRegistryRouteCallSuccess(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register(NewBuilder("widgets").Action("list", ActionSpec{Handler: echoHandler})))

	resp := r.RouteCall(context.Background(), "widgets", json.RawMessage(`{"action":"list"}`))
	assert.False(t, resp.IsError)
}

func TestRegistryDuplicateToolRejected(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register(NewBuilder("widgets").Action("list", ActionSpec{Handler: echoHandler})))

	err := r.Register(NewBuilder("widgets").Action("list", ActionSpec{Handler: echoHandler}))
	require.Error(t, err)
	var ferr *Error
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, CodeDuplicateTool, ferr.Code)
}

func TestRegistryNotifiesSinkDebounced(t *testing.T) {
	sink := &mockSink{}
	r := NewRegistry(sink)
	require.NoError(t, r.Register(NewBuilder("widgets").Action("list", ActionSpec{Handler: echoHandler})))
	require.NoError(t, r.Register(NewBuilder("gadgets").Action("list", ActionSpec{Handler: echoHandler})))

	// Two registrations in quick succession should coalesce into one
	// notification once the debounce window elapses.
	require.Eventually(t, func() bool {
		return sink.count() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestRegistrySetSinkBindsAfterConstruction(t *testing.T) {
	r := NewRegistry(nil)
	sink := &mockSink{}
	r.SetSink(sink)
	require.NoError(t, r.Register(NewBuilder("widgets").Action("list", ActionSpec{Handler: echoHandler})))

	require.Eventually(t, func() bool {
		return sink.count() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestRegistryFilterTags(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register(NewBuilder("widgets").Tags("core", "billing").Action("list", ActionSpec{Handler: echoHandler})))
	require.NoError(t, r.Register(NewBuilder("gadgets").Tags("core").Action("list", ActionSpec{Handler: echoHandler})))

	tools := r.GetTools(Filter{Tags: []string{"billing"}})
	require.Len(t, tools, 1)
	assert.Equal(t, "widgets", tools[0].Name)

	excluded := r.GetTools(Filter{Exclude: []string{"billing"}})
	require.Len(t, excluded, 1)
	assert.Equal(t, "gadgets", excluded[0].Name)
}

func TestRegistryClearRemovesAllTools(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register(NewBuilder("widgets").Action("list", ActionSpec{Handler: echoHandler})))
	assert.Equal(t, 1, r.Size())
	r.Clear()
	assert.Equal(t, 0, r.Size())
	assert.False(t, r.Has("widgets"))
}
