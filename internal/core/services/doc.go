// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
//   - BatchService: chunk annotation of one document or a directory
//   - SettingsService: configuration resolution and persistence
//   - HistoryService: access to recorded runs
package services
