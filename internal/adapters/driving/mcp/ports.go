package mcp

import (
	"github.com/custodia-labs/leadscout/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces required by the MCP server.
type Ports struct {
	// Discovery is the prioritisation engine.
	Discovery driving.DiscoveryService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Discovery == nil {
		return ErrMissingDiscoveryService
	}
	return nil
}
