package mcpserver

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papapumpkin/palimpsest/internal/reader"
	"github.com/papapumpkin/palimpsest/internal/story"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	nodes := []*story.Node{
		{
			ID:            "index",
			Title:         "Index",
			Character:     story.CharacterAlgorithm,
			TemporalValue: 3,
			Links:         []string{"trench"},
			Source:        "The index is complete.",
		},
		{
			ID:            "trench",
			Title:         "Trench",
			Character:     story.CharacterArchaeologist,
			TemporalValue: 1,
			Attractors:    []string{"memory"},
			Links:         []string{"index"},
			Source:        "Dust settles over the strata.",
		},
	}
	st := story.New("", story.Manifest{Story: story.Info{Name: "strata", Start: "index"}}, nodes)
	return NewServer(reader.New(st, reader.DefaultConfig()), nil)
}

// mcpClientSession connects an in-memory client to srv and closes both
// ends when the test finishes.
func mcpClientSession(t *testing.T, srv *Server) *mcp.ClientSession {
	t.Helper()

	ctx := context.Background()
	ct, st := mcp.NewInMemoryTransports()

	ss, err := srv.mcp.Connect(ctx, st, nil)
	if err != nil {
		t.Fatalf("server connect: %v", err)
	}
	t.Cleanup(func() { ss.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	cs, err := client.Connect(ctx, ct, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { cs.Close() })
	return cs
}

func callTool(t *testing.T, cs *mcp.ClientSession, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	result, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool %s: %v", name, err)
	}
	return result
}

func decode[T any](t *testing.T, r *mcp.CallToolResult) T {
	t.Helper()
	var out T
	raw, err := json.Marshal(r.StructuredContent)
	if err != nil {
		t.Fatalf("marshal StructuredContent: %v", err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal %T: %v", out, err)
	}
	return out
}

func TestTools_Listed(t *testing.T) {
	t.Parallel()
	cs := mcpClientSession(t, testServer(t))

	res, err := cs.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	got := make(map[string]bool)
	for _, tool := range res.Tools {
		got[tool.Name] = true
	}
	for _, want := range []string{"visit_node", "current_node", "engage_attractor", "journey_summary"} {
		if !got[want] {
			t.Errorf("tool %q not registered", want)
		}
	}
}

func TestVisitNode(t *testing.T) {
	t.Parallel()
	cs := mcpClientSession(t, testServer(t))

	res := callTool(t, cs, "visit_node", map[string]any{"node_id": "trench"})
	if res.IsError {
		t.Fatalf("visit_node returned error: %v", res.Content)
	}
	out := decode[nodeOutput](t, res)
	if out.NodeID != "trench" || out.VisitCount != 1 {
		t.Errorf("output = %+v", out)
	}
	if out.Phase != string(reader.PhaseApplied) {
		t.Errorf("phase = %q, want %q", out.Phase, reader.PhaseApplied)
	}
	if out.Content == "" {
		t.Error("empty content")
	}

	cur := decode[nodeOutput](t, callTool(t, cs, "current_node", nil))
	if cur.NodeID != "trench" {
		t.Errorf("current_node = %q, want trench", cur.NodeID)
	}
}

func TestVisitNode_Errors(t *testing.T) {
	t.Parallel()
	cs := mcpClientSession(t, testServer(t))

	tests := []struct {
		name string
		args map[string]any
	}{
		{"missing id", map[string]any{}},
		{"unknown node", map[string]any{"node_id": "cellar"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if res := callTool(t, cs, "visit_node", tt.args); !res.IsError {
				t.Error("expected tool error")
			}
		})
	}
}

func TestCurrentNode_BeforeAnyVisit(t *testing.T) {
	t.Parallel()
	cs := mcpClientSession(t, testServer(t))
	if res := callTool(t, cs, "current_node", nil); !res.IsError {
		t.Error("current_node succeeded with no node open")
	}
}

func TestEngageAndSummary(t *testing.T) {
	t.Parallel()
	cs := mcpClientSession(t, testServer(t))

	callTool(t, cs, "visit_node", map[string]any{"node_id": "index"})
	callTool(t, cs, "visit_node", map[string]any{"node_id": "trench"})
	if res := callTool(t, cs, "engage_attractor", map[string]any{"attractor": "memory"}); res.IsError {
		t.Fatalf("engage_attractor returned error: %v", res.Content)
	}

	res := callTool(t, cs, "journey_summary", nil)
	if res.IsError {
		t.Fatalf("journey_summary returned error: %v", res.Content)
	}
	sum := decode[reader.Summary](t, res)
	if len(sum.Path) != 2 || sum.Path[1] != "trench" {
		t.Errorf("path = %v", sum.Path)
	}
	if sum.Engagements["memory"] != 2 {
		t.Errorf("memory engagements = %d, want 2", sum.Engagements["memory"])
	}
}
