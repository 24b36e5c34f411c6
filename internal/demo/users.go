// Package demo ships a handful of worked example tools that exercise the
// full builder/compiler/registry/state-sync/sandbox chain end to end. They
// are registered by cmd/fusiond alongside whatever real tools a deployment
// adds, and ground spec.md §8's concrete end-to-end scenarios.
package demo

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/vinkius-labs/mcp-fusion/internal/fusion"
	"github.com/vinkius-labs/mcp-fusion/internal/fusionschema"
)

// user is the record the in-memory store keeps for the users demo tool.
type user struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// userStore is a trivial in-memory backing store. A handler closure, not
// the store itself, is what the builder ultimately sees — the store exists
// only so "users.list" and "users.delete" have something real to do.
type userStore struct {
	mu    sync.Mutex
	users map[string]user
}

func newUserStore() *userStore {
	return &userStore{users: make(map[string]user)}
}

func (s *userStore) list() []user {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]user, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	return out
}

func (s *userStore) put(u user) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *userStore) delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return false
	}
	delete(s.users, id)
	return true
}

func ptr(b bool) *bool { return &b }

// NewUsersTool builds the "users" tool: a grouped tool with a read-only
// "list" action and a destructive "delete" action, grounding spec.md §8
// scenario 1 verbatim (`{action: "users.list"}` returns an empty array,
// `{action: "users.delete", id: "u-1"}` describes the deletion).
func NewUsersTool() *fusion.Builder {
	store := newUserStore()

	b := fusion.NewBuilder("users").
		Description("Manage the directory of provisioned users.").
		Tags("directory")

	b.Group("users", func(g *fusion.GroupBuilder) {
		g.Action("list", fusion.ActionSpec{
			ReadOnly: ptr(true),
			Handler: func(ctx context.Context, args json.RawMessage) (any, error) {
				return store.list(), nil
			},
		})

		g.Action("delete", fusion.ActionSpec{
			Schema: fusionschema.Shape{
				"id": {Type: "string", Description: "User id to remove", Required: true},
			},
			Destructive: ptr(true),
			Handler: func(ctx context.Context, args json.RawMessage) (any, error) {
				var in struct {
					ID string `json:"id"`
				}
				if err := json.Unmarshal(args, &in); err != nil {
					return nil, err
				}
				removed := store.delete(in.ID)
				return map[string]any{"id": in.ID, "deleted": removed}, nil
			},
		})
	})

	b.Invalidates("users.delete", "users.list")
	return b
}
