package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for engine resources.
	uriScheme = "leadscout://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "stats",
		Name:        "stats",
		Description: "Daily admission, cache and ledger statistics",
		MIMEType:    "application/json",
	}, s.handleStatsResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "rotation",
		Name:        "rotation",
		Description: "Recent queries, industry cursors and source exhaustion",
		MIMEType:    "application/json",
	}, s.handleRotationResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "sources/{source}",
		Name:        "source-health",
		Description: "Exhaustion and run totals for a single source",
		MIMEType:    "application/json",
	}, s.handleSourceResource)
}

// rotationView is the rotation summary with JSON-friendly source health.
type rotationView struct {
	TotalQueries    int                  `json:"total_queries_used"`
	RecentQueries   []string             `json:"recent_queries"`
	Sources         []SourceHealthOutput `json:"sources"`
	IndustryCursors map[string]int       `json:"industry_rotation"`
}

func (s *Server) handleStatsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	stats, err := s.ports.Discovery.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading stats: %w", err)
	}
	return jsonResource(req.Params.URI, stats)
}

func (s *Server) handleRotationResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	stats, err := s.ports.Discovery.RotationStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading rotation stats: %w", err)
	}

	view := rotationView{
		TotalQueries:    stats.TotalQueries,
		RecentQueries:   nonNil(stats.RecentQueries),
		Sources:         make([]SourceHealthOutput, 0, len(stats.Sources)),
		IndustryCursors: stats.IndustryCursors,
	}
	for _, h := range stats.Sources {
		view.Sources = append(view.Sources, toHealthOutput(h))
	}
	sort.Slice(view.Sources, func(i, j int) bool {
		return view.Sources[i].Source < view.Sources[j].Source
	})

	return jsonResource(req.Params.URI, view)
}

func (s *Server) handleSourceResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	// leadscout://sources/{source}
	name := extractSourceName(req.Params.URI)
	if name == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	stats, err := s.ports.Discovery.RotationStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading rotation stats: %w", err)
	}
	health, ok := stats.Sources[name]
	if !ok {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	return jsonResource(req.Params.URI, toHealthOutput(health))
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractSourceName extracts the source from a URI like leadscout://sources/{source}.
func extractSourceName(uri string) string {
	const prefix = uriScheme + "sources/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	name := strings.TrimPrefix(uri, prefix)
	if strings.Contains(name, "/") {
		return ""
	}
	return name
}
