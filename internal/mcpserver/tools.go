package mcpserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papapumpkin/palimpsest/internal/reader"
)

// visitNodeInput is the input schema for the visit_node tool.
type visitNodeInput struct {
	NodeID string `json:"node_id" jsonschema:"ID of the node to visit"`
}

// engageInput is the input schema for the engage_attractor tool.
type engageInput struct {
	Attractor string `json:"attractor" jsonschema:"Thematic attractor to engage with"`
}

type emptyInput struct{}

// nodeOutput is the rendered view of the current node.
type nodeOutput struct {
	NodeID     string   `json:"node_id"`
	Title      string   `json:"title,omitempty"`
	Character  string   `json:"character"`
	Temporal   int      `json:"temporal"`
	VisitCount int      `json:"visit_count"`
	Phase      string   `json:"phase"`
	Variant    string   `json:"variant,omitempty"`
	Content    string   `json:"content"`
	Applied    []string `json:"applied,omitempty"`
	Notice     string   `json:"notice,omitempty"`
	Attractors []string `json:"attractors,omitempty"`
	Links      []string `json:"links,omitempty"`
}

func toNodeOutput(ns reader.NodeState) nodeOutput {
	out := nodeOutput{
		VisitCount: ns.VisitCount,
		Phase:      string(ns.Phase),
		Variant:    ns.SelectedVariant,
		Content:    ns.CurrentContent,
		Applied:    ns.AppliedTransformationIDs,
		Notice:     ns.Notice,
	}
	if n := ns.Node; n != nil {
		out.NodeID = n.ID
		out.Title = n.Title
		out.Character = string(n.Character)
		out.Temporal = n.TemporalValue
		out.Attractors = n.Attractors
		out.Links = n.Links
	}
	return out
}

func (s *Server) registerNodeTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "visit_node",
		Description: "Visit a node and return its text as transformed by the journey so far",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input visitNodeInput) (*mcp.CallToolResult, nodeOutput, error) {
		if input.NodeID == "" {
			return nil, nodeOutput{}, fmt.Errorf("node_id is required")
		}
		ns, err := s.session.Navigate(ctx, input.NodeID)
		if err != nil {
			return nil, nodeOutput{}, fmt.Errorf("visiting %s: %w", input.NodeID, err)
		}
		return nil, toNodeOutput(ns), nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "current_node",
		Description: "Return the node currently being read",
	}, func(_ context.Context, _ *mcp.CallToolRequest, _ emptyInput) (*mcp.CallToolResult, nodeOutput, error) {
		ns := s.session.Current()
		if ns.Node == nil {
			return nil, nodeOutput{}, reader.ErrNoCurrentNode
		}
		return nil, toNodeOutput(ns), nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "engage_attractor",
		Description: "Record engagement with a thematic attractor and re-render the current node",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input engageInput) (*mcp.CallToolResult, nodeOutput, error) {
		if input.Attractor == "" {
			return nil, nodeOutput{}, fmt.Errorf("attractor is required")
		}
		ns, err := s.session.Engage(ctx, input.Attractor)
		if err != nil {
			return nil, nodeOutput{}, fmt.Errorf("engaging %s: %w", input.Attractor, err)
		}
		return nil, toNodeOutput(ns), nil
	})
}

func (s *Server) registerJourneyTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "journey_summary",
		Description: "Summarize the reading journey: path, attractor engagements, fingerprint and patterns",
	}, func(_ context.Context, _ *mcp.CallToolRequest, _ emptyInput) (*mcp.CallToolResult, reader.Summary, error) {
		return nil, s.session.Summary(), nil
	})
}
