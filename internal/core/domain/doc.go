// Package domain defines the core business entities for leadscout.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Candidate: A raw business record produced by a scraping collaborator
//   - FitProfile: The weighted ideal-customer profile used for scoring
//   - LedgerState: Durable memory of seen/filtered companies and daily counters
//   - RotationState: Query history and per-source exhaustion
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
