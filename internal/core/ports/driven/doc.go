// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - Connector: Fetches documents from a scan root
//   - Extractor: Turns raw documents into text blocks
//   - ExtractorRegistry: Selects the appropriate extractor
//   - TLDProvider: Public-suffix knowledge for the validator
//   - ExclusionStore: Excluded-address membership
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - ReportStore: Run catalog persistence. Without it, history and the
//     review screen are disabled but scans still produce CSV artifacts.
//   - Reporter: Output artifact writers, skipped entirely in test runs.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or extractor package
package driven
