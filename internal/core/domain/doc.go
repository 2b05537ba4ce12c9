// Package domain defines the core entities for chunklink.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Communication: An annotated document of sections, sentences and tokenizations
//   - Parse: A constituency tree stored as a flat list of constituents
//   - TokenTagging: A per-token annotation layer (e.g. CHUNK)
//   - DocumentResult / BatchResult: Counters for a processed document or run
//   - Run: A persisted record of one batch invocation
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
