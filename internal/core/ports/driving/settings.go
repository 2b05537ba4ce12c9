package driving

import "github.com/custodia-labs/chunklink-cli/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get resolves current settings: environment over config file over defaults.
	Get() (*domain.AppSettings, error)

	// Set validates and persists one configuration key.
	Set(key, value string) error

	// Unset removes one configuration key, restoring its default.
	Unset(key string) error

	// Keys returns the supported configuration keys.
	Keys() []string

	// Path returns the configuration file path.
	Path() string

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// Describe returns every supported key with its effective value and origin.
	Describe() ([]SettingEntry, error)
}

// Setting origins reported by Describe.
const (
	SourceDefault = "default"
	SourceFile    = "file"
	SourceEnv     = "env"
)

// SettingEntry is one configuration key with its effective value.
type SettingEntry struct {
	Key    string
	Value  string
	Source string

	// Env is the environment variable overriding the key, if any.
	Env string
}
