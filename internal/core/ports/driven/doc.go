// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - DocumentStore: Loads and saves Communications
//   - DocumentCodec: One serialization format for Communications
//   - ChunkTool: Runs the external chunking program
//   - Annotator: Adds an annotation layer to a tokenization
//   - DirectoryLister: Enumerates input documents (non-recursive)
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - RunStore: Run history. Without it, runs are not recorded.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or annotator package
package driven
