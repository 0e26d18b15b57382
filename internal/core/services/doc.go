// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The recogniser, validator and dedup engine in this package are pure
// and deterministic: identical input always produces identical output.
package services
