// Package services implements the driving port interfaces.
// Services contain the discovery engine's business logic and orchestrate
// calls to driven ports (adapters).
package services
