// Package memory provides in-memory driven adapters.
//
// The stores honour the same contracts as the SQLite adapters (first status
// wins, capped admission increments, bounded history) so services can be
// tested against them. Each store can be told to fail the next writes
// with FailWrites to exercise storage error paths.
package memory
