// Package reader defines the core types shared across the conversion
// subsystems: strategy identifiers, strategy results, orchestrator outcomes,
// conversion options, and the error taxonomy surfaced to callers.
package reader
