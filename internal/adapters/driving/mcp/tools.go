package mcp

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/leadscout/internal/core/domain"
)

// PlanInput is the input schema for the plan_queries tool.
type PlanInput struct {
	Industry   string `json:"industry,omitempty" jsonschema:"restrict the plan to one industry"`
	Location   string `json:"location,omitempty" jsonschema:"restrict the plan to locations matching this text"`
	MaxQueries int    `json:"max_queries,omitempty" jsonschema:"maximum number of queries to return (default 5)"`
}

// PlanOutput is the output schema for the plan_queries tool.
type PlanOutput struct {
	Queries            []string `json:"queries"`
	Industries         []string `json:"industries"`
	Locations          []string `json:"locations"`
	RecommendedSources []string `json:"recommended_sources"`
}

// PrioritizeInput is the input schema for the prioritize_candidates tool.
type PrioritizeInput struct {
	Candidates    []domain.Candidate `json:"candidates" jsonschema:"raw candidates discovered by this run"`
	Existing      []domain.Candidate `json:"existing,omitempty" jsonschema:"previously stored records to compare against"`
	MaxCandidates int                `json:"max_candidates,omitempty" jsonschema:"cap on admitted candidates below remaining capacity"`
}

// PrioritizeOutput is the output schema for the prioritize_candidates tool.
type PrioritizeOutput struct {
	RunID             string                   `json:"run_id"`
	Status            string                   `json:"status"`
	Admitted          []domain.ScoredCandidate `json:"admitted"`
	Discovered        int                      `json:"discovered"`
	Duplicates        int                      `json:"duplicates"`
	Filtered          int                      `json:"filtered"`
	Malformed         int                      `json:"malformed"`
	Truncated         int                      `json:"truncated"`
	Remaining         int                      `json:"remaining"`
	DailyLimitReached bool                     `json:"daily_limit_reached"`
}

// RecordInput is the input schema for the record_admitted tool.
type RecordInput struct {
	RunID     string `json:"run_id" jsonschema:"run ID returned by prioritize_candidates"`
	Persisted int    `json:"persisted" jsonschema:"number of admitted candidates actually stored"`
}

// RunInput identifies a prioritisation run.
type RunInput struct {
	RunID string `json:"run_id" jsonschema:"run ID returned by prioritize_candidates"`
}

// ReleaseOutput is the output schema for the release_run tool.
type ReleaseOutput struct {
	RunID    string `json:"run_id"`
	Released bool   `json:"released"`
}

// SourceResultsOutput is the output schema for the mark_source_results tool.
type SourceResultsOutput struct {
	Health    SourceHealthOutput `json:"health"`
	ShouldUse bool               `json:"should_use"`
}

// SourceHealthOutput is a source's health with timestamps as RFC 3339 text.
type SourceHealthOutput struct {
	Source        string  `json:"source"`
	Exhaustion    float64 `json:"exhaustion"`
	LastCheckedAt string  `json:"last_checked_at,omitempty"`
	Runs          int     `json:"runs"`
	TotalFound    int     `json:"total_found"`
	Duplicates    int     `json:"duplicates"`
	Admitted      int     `json:"admitted"`
}

// SourceInput names a source, optionally with a query.
type SourceInput struct {
	Source      string `json:"source" jsonschema:"source name, e.g. google_maps"`
	Query       string `json:"query,omitempty" jsonschema:"query text executed against the source"`
	WindowHours int    `json:"window_hours,omitempty" jsonschema:"freshness window in hours (default 24)"`
}

// SourceStatusOutput is the output schema for the source_status tool.
type SourceStatusOutput struct {
	Source    string `json:"source"`
	ShouldUse bool   `json:"should_use"`
	Due       bool   `json:"due"`
}

// MarkCheckedOutput is the output schema for the mark_source_checked tool.
type MarkCheckedOutput struct {
	Source string `json:"source"`
	Query  string `json:"query"`
}

// EmptyInput is used by tools that take no arguments.
type EmptyInput struct{}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "plan_queries",
		Description: "Plan the next diversified search queries, industries, locations and sources",
	}, s.handlePlanQueries)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "prioritize_candidates",
		Description: "Deduplicate, score and rank a candidate batch against today's admission quota. " +
			"Capacity is reserved until record_admitted or release_run is called with the run ID",
	}, s.handlePrioritize)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "record_admitted",
		Description: "Commit how many admitted candidates were stored for a run",
	}, s.handleRecordAdmitted)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "release_run",
		Description: "Drop a run's capacity reservation without admitting anything",
	}, s.handleReleaseRun)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "mark_source_results",
		Description: "Report a scraping run's totals so exhausted sources are deprioritised",
	}, s.handleMarkSourceResults)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "source_status",
		Description: "Report whether a source is usable and whether a query against it is due",
	}, s.handleSourceStatus)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "mark_source_checked",
		Description: "Record that a query was executed against a source",
	}, s.handleMarkSourceChecked)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "discovery_stats",
		Description: "Daily admission, cache and ledger statistics",
	}, s.handleStats)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "explain_score",
		Description: "Itemise a candidate's fit score without recording anything",
	}, s.handleExplain)
}

func (s *Server) handlePlanQueries(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input PlanInput,
) (*mcp.CallToolResult, PlanOutput, error) {
	plan, err := s.ports.Discovery.PlanQueries(ctx, domain.PlanRequest{
		Industry:   input.Industry,
		Location:   input.Location,
		MaxQueries: input.MaxQueries,
	})
	if err != nil {
		return nil, PlanOutput{}, err
	}

	return nil, PlanOutput{
		Queries:            nonNil(plan.Queries),
		Industries:         nonNil(plan.Industries),
		Locations:          nonNil(plan.Locations),
		RecommendedSources: nonNil(plan.RecommendedSources),
	}, nil
}

func (s *Server) handlePrioritize(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input PrioritizeInput,
) (*mcp.CallToolResult, PrioritizeOutput, error) {
	result, err := s.ports.Discovery.Prioritize(ctx, input.Candidates, input.Existing,
		domain.PrioritizeOptions{MaxCandidates: input.MaxCandidates})
	if err != nil {
		return nil, PrioritizeOutput{}, err
	}

	admitted := result.Admitted
	if admitted == nil {
		admitted = []domain.ScoredCandidate{}
	}

	return nil, PrioritizeOutput{
		RunID:             result.RunID,
		Status:            result.Status(),
		Admitted:          admitted,
		Discovered:        result.Discovered,
		Duplicates:        result.Duplicates,
		Filtered:          result.Filtered,
		Malformed:         result.Malformed,
		Truncated:         result.Truncated,
		Remaining:         result.Remaining,
		DailyLimitReached: result.DailyLimitReached,
	}, nil
}

func (s *Server) handleRecordAdmitted(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RecordInput,
) (*mcp.CallToolResult, domain.TodayStats, error) {
	today, err := s.ports.Discovery.RecordAdmitted(ctx, input.RunID, input.Persisted)
	if err != nil {
		return nil, domain.TodayStats{}, err
	}
	return nil, today, nil
}

func (s *Server) handleReleaseRun(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input RunInput,
) (*mcp.CallToolResult, ReleaseOutput, error) {
	if err := s.ports.Discovery.Release(input.RunID); err != nil {
		return nil, ReleaseOutput{}, err
	}
	return nil, ReleaseOutput{RunID: input.RunID, Released: true}, nil
}

func (s *Server) handleMarkSourceResults(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input domain.SourceReport,
) (*mcp.CallToolResult, SourceResultsOutput, error) {
	health, err := s.ports.Discovery.MarkSourceResults(ctx, input)
	if err != nil {
		return nil, SourceResultsOutput{}, err
	}

	use, err := s.ports.Discovery.ShouldUseSource(ctx, input.Source)
	if err != nil {
		return nil, SourceResultsOutput{}, err
	}

	return nil, SourceResultsOutput{Health: toHealthOutput(health), ShouldUse: use}, nil
}

func (s *Server) handleSourceStatus(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SourceInput,
) (*mcp.CallToolResult, SourceStatusOutput, error) {
	use, err := s.ports.Discovery.ShouldUseSource(ctx, input.Source)
	if err != nil {
		return nil, SourceStatusOutput{}, err
	}

	window := 24 * time.Hour
	if input.WindowHours > 0 {
		window = time.Duration(input.WindowHours) * time.Hour
	}

	return nil, SourceStatusOutput{
		Source:    input.Source,
		ShouldUse: use,
		Due:       s.ports.Discovery.ShouldCheckSource(input.Source, input.Query, window),
	}, nil
}

func (s *Server) handleMarkSourceChecked(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SourceInput,
) (*mcp.CallToolResult, MarkCheckedOutput, error) {
	if err := s.ports.Discovery.MarkSourceChecked(ctx, input.Source, input.Query); err != nil {
		return nil, MarkCheckedOutput{}, err
	}
	return nil, MarkCheckedOutput{Source: input.Source, Query: input.Query}, nil
}

func (s *Server) handleStats(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ EmptyInput,
) (*mcp.CallToolResult, domain.DiscoveryStats, error) {
	stats, err := s.ports.Discovery.Stats(ctx)
	if err != nil {
		return nil, domain.DiscoveryStats{}, err
	}
	return nil, stats, nil
}

func (s *Server) handleExplain(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input domain.Candidate,
) (*mcp.CallToolResult, domain.ScoreBreakdown, error) {
	return nil, s.ports.Discovery.Explain(input), nil
}

func toHealthOutput(h domain.SourceHealth) SourceHealthOutput {
	out := SourceHealthOutput{
		Source:     h.Source,
		Exhaustion: h.Exhaustion,
		Runs:       h.Runs,
		TotalFound: h.TotalFound,
		Duplicates: h.Duplicates,
		Admitted:   h.Admitted,
	}
	if !h.LastCheckedAt.IsZero() {
		out.LastCheckedAt = h.LastCheckedAt.UTC().Format(time.RFC3339)
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
