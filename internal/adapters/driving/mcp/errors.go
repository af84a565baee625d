// Package mcp provides an MCP (Model Context Protocol) server adapter for the
// lead discovery engine. Scraping agents use it to plan queries, prioritise
// candidate batches and report source results.
package mcp

import "errors"

// ErrMissingDiscoveryService is returned when the discovery service is not provided.
var ErrMissingDiscoveryService = errors.New("mcp: discovery service is required")
