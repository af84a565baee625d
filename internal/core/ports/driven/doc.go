// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - LedgerStore: Durable ledger document (companies, source checks, daily counters)
//   - RotationStore: Durable rotation document (query history, exhaustion, cursors)
//   - ConfigStore: Application configuration
//   - ProfileStore: Fit profile loading
//
// # Optional Interfaces
//
//   - SchedulerStore: Housekeeping task state. Without it the scheduler is disabled.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
