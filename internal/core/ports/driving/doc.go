// Package driving defines the ports the CLI and the directory watcher use to
// run chunking batches, read run history and manage settings.
//
// Implementations live in internal/core/services.
package driving
