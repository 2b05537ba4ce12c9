package services

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/chunklink-cli/internal/core/domain"
	"github.com/custodia-labs/chunklink-cli/internal/core/ports/driven"
	"github.com/custodia-labs/chunklink-cli/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	keyToolPath           = "tool.path"
	keyToolInterpreter    = "tool.interpreter"
	keyToolArgs           = "tool.args"
	keyToolTransport      = "tool.transport"
	keyToolTimeout        = "tool.timeout"
	keyToolRate           = "tool.rate"
	keyFailFast           = "batch.fail_fast"
	keyDocFormat          = "document.format"
	keyDocForceFormat     = "document.force_format"
	keyHistoryEnabled     = "history.enabled"
	keyHistoryDataDir     = "history.data_dir"
	keyWatchDebounce      = "watch.debounce"
	keyPipelineAnnotators = "pipeline.annotators"

	pipelinePrefix = "pipeline."
)

type valueKind int

const (
	kindString valueKind = iota
	kindList
	kindBool
	kindFloat
	kindDuration
	kindTransport
	kindFormat
)

// settingKinds lists every supported key and how its value is parsed.
var settingKinds = map[string]valueKind{
	keyToolPath:           kindString,
	keyToolInterpreter:    kindString,
	keyToolArgs:           kindList,
	keyToolTransport:      kindTransport,
	keyToolTimeout:        kindDuration,
	keyToolRate:           kindFloat,
	keyFailFast:           kindBool,
	keyDocFormat:          kindFormat,
	keyDocForceFormat:     kindBool,
	keyHistoryEnabled:     kindBool,
	keyHistoryDataDir:     kindString,
	keyWatchDebounce:      kindDuration,
	keyPipelineAnnotators: kindList,
}

// envOverrides maps config keys to the environment variables overriding them.
var envOverrides = map[string]string{
	keyToolPath:        "CHUNKLINK_TOOL",
	keyToolInterpreter: "CHUNKLINK_INTERPRETER",
	keyToolTransport:   "CHUNKLINK_TRANSPORT",
	keyToolTimeout:     "CHUNKLINK_TIMEOUT",
	keyToolRate:        "CHUNKLINK_RATE",
	keyFailFast:        "CHUNKLINK_FAIL_FAST",
	keyDocFormat:       "CHUNKLINK_FORMAT",
	keyHistoryEnabled:  "CHUNKLINK_HISTORY",
}

// EnvLookup returns a lookup that consults the process environment first and
// then the given dotenv files in order. Missing files are ignored.
func EnvLookup(files ...string) (func(string) (string, bool), error) {
	dotenv := make(map[string]string)
	for _, f := range files {
		values, err := godotenv.Read(f)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("%w: reading %s: %w", domain.ErrConfiguration, f, err)
		}
		for k, v := range values {
			if _, seen := dotenv[k]; !seen {
				dotenv[k] = v
			}
		}
	}

	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}, nil
}

// SettingsService resolves application settings from environment variables,
// the config store and defaults, in that order. Command-line flags are
// applied on top by the caller.
type SettingsService struct {
	configStore driven.ConfigStore
	lookupEnv   func(string) (string, bool)
}

// SettingsOption configures a SettingsService.
type SettingsOption func(*SettingsService)

// WithEnvLookup sets the environment lookup. Defaults to os.LookupEnv.
func WithEnvLookup(lookup func(string) (string, bool)) SettingsOption {
	return func(s *SettingsService) {
		if lookup != nil {
			s.lookupEnv = lookup
		}
	}
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, opts ...SettingsOption) *SettingsService {
	s := &SettingsService{
		configStore: configStore,
		lookupEnv:   os.LookupEnv,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get resolves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	settings := domain.DefaultAppSettings()

	for _, key := range s.Keys() {
		raw, _, ok := s.lookup(key)
		if !ok {
			continue
		}
		if err := applySetting(&settings, key, raw); err != nil {
			return nil, err
		}
	}

	for _, name := range settings.Pipeline.Annotators {
		if cfg := s.annotatorConfig(name); len(cfg) > 0 {
			if settings.Pipeline.AnnotatorConfigs == nil {
				settings.Pipeline.AnnotatorConfigs = make(map[string]map[string]any)
			}
			merged := make(map[string]any)
			for k, v := range settings.Pipeline.AnnotatorConfigs[name] {
				merged[k] = v
			}
			for k, v := range cfg {
				merged[k] = v
			}
			settings.Pipeline.AnnotatorConfigs[name] = merged
		}
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return &settings, nil
}

// Set validates value for key and persists it.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := keyKind(key)
	if !ok {
		return fmt.Errorf("%w: unknown config key %q (supported: %s)",
			domain.ErrConfiguration, key, strings.Join(s.Keys(), ", "))
	}

	typed, err := parseValue(kind, value)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrConfiguration, key, err)
	}

	if err := s.configStore.Set(key, typed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Unset removes key from the config store.
func (s *SettingsService) Unset(key string) error {
	if _, ok := keyKind(key); !ok {
		return fmt.Errorf("%w: unknown config key %q", domain.ErrConfiguration, key)
	}
	if err := s.configStore.Unset(key); err != nil {
		return fmt.Errorf("unset %s: %w", key, err)
	}
	return nil
}

// Keys returns the fixed configuration keys in sorted order.
// Per-annotator keys of the form pipeline.<annotator>.<option> are also accepted.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settingKinds))
	for k := range settingKinds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Path returns the configuration file path.
func (s *SettingsService) Path() string {
	return s.configStore.Path()
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// Describe returns every supported key with its effective value and origin.
func (s *SettingsService) Describe() ([]driving.SettingEntry, error) {
	settings, err := s.Get()
	if err != nil {
		return nil, err
	}

	entries := make([]driving.SettingEntry, 0, len(settingKinds))
	for _, key := range s.Keys() {
		_, source, _ := s.lookup(key)
		entries = append(entries, driving.SettingEntry{
			Key:    key,
			Value:  formatSetting(settings, key),
			Source: source,
			Env:    envOverrides[key],
		})
	}
	return entries, nil
}

// lookup returns the raw value for key with its origin.
func (s *SettingsService) lookup(key string) (any, string, bool) {
	if env, ok := envOverrides[key]; ok {
		if v, ok := s.lookupEnv(env); ok {
			return v, driving.SourceEnv, true
		}
	}
	if v, ok := s.configStore.Get(key); ok {
		return v, driving.SourceFile, true
	}
	return nil, driving.SourceDefault, false
}

// annotatorConfig collects pipeline.<name>.<option> keys from the store.
func (s *SettingsService) annotatorConfig(name string) map[string]any {
	prefix := pipelinePrefix + name + "."
	cfg := make(map[string]any)
	for _, key := range s.configStore.Keys() {
		if opt, ok := strings.CutPrefix(key, prefix); ok && opt != "" {
			v, _ := s.configStore.Get(key)
			cfg[opt] = v
		}
	}
	return cfg
}

func keyKind(key string) (valueKind, bool) {
	if kind, ok := settingKinds[key]; ok {
		return kind, true
	}
	// pipeline.<annotator>.<option>
	if rest, ok := strings.CutPrefix(key, pipelinePrefix); ok {
		parts := strings.Split(rest, ".")
		if len(parts) == 2 && parts[0] != "" && parts[1] != "" {
			return kindString, true
		}
	}
	return 0, false
}

// parseValue converts a command-line value to the type stored in config.
func parseValue(kind valueKind, value string) (any, error) {
	switch kind {
	case kindBool:
		return strconv.ParseBool(value)
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, err
		}
		if f < 0 {
			return nil, fmt.Errorf("must not be negative")
		}
		return f, nil
	case kindDuration:
		d, err := time.ParseDuration(value)
		if err != nil {
			return nil, err
		}
		if d < 0 {
			return nil, fmt.Errorf("must not be negative")
		}
		return d.String(), nil
	case kindTransport:
		t, err := domain.ParseTransport(value)
		return string(t), err
	case kindFormat:
		f, err := domain.ParseDocumentFormat(value)
		return string(f), err
	case kindList:
		return strings.Fields(strings.ReplaceAll(value, ",", " ")), nil
	default:
		// Numeric annotator options are stored as integers.
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n, nil
		}
		return value, nil
	}
}

// applySetting writes one raw config or environment value into settings.
//
//nolint:gocyclo // one case per key
func applySetting(settings *domain.AppSettings, key string, raw any) error {
	wrap := func(err error) error {
		return fmt.Errorf("%w: %s: %w", domain.ErrConfiguration, key, err)
	}

	switch key {
	case keyToolPath:
		settings.Tool.Path = toString(raw)
	case keyToolInterpreter:
		settings.Tool.Interpreter = toString(raw)
	case keyToolArgs:
		settings.Tool.Args = toList(raw)
	case keyToolTransport:
		t, err := domain.ParseTransport(toString(raw))
		if err != nil {
			return wrap(err)
		}
		settings.Tool.Transport = t
	case keyToolTimeout:
		d, err := toDuration(raw)
		if err != nil {
			return wrap(err)
		}
		settings.Tool.Timeout = d
	case keyToolRate:
		f, err := toFloat(raw)
		if err != nil {
			return wrap(err)
		}
		settings.Tool.Rate = f
	case keyFailFast:
		b, err := toBool(raw)
		if err != nil {
			return wrap(err)
		}
		if b {
			settings.Batch.Policy = domain.PolicyFailFast
		} else {
			settings.Batch.Policy = domain.PolicyContinue
		}
	case keyDocFormat:
		f, err := domain.ParseDocumentFormat(toString(raw))
		if err != nil {
			return wrap(err)
		}
		settings.Document.Format = f
	case keyDocForceFormat:
		b, err := toBool(raw)
		if err != nil {
			return wrap(err)
		}
		settings.Document.ForceFormat = b
	case keyHistoryEnabled:
		b, err := toBool(raw)
		if err != nil {
			return wrap(err)
		}
		settings.History.Enabled = b
	case keyHistoryDataDir:
		settings.History.DataDir = toString(raw)
	case keyWatchDebounce:
		d, err := toDuration(raw)
		if err != nil {
			return wrap(err)
		}
		settings.Watch.Debounce = d
	case keyPipelineAnnotators:
		settings.Pipeline.Annotators = toList(raw)
	}
	return nil
}

// formatSetting renders the effective value of key.
func formatSetting(settings *domain.AppSettings, key string) string {
	switch key {
	case keyToolPath:
		return settings.Tool.Path
	case keyToolInterpreter:
		return settings.Tool.Interpreter
	case keyToolArgs:
		return strings.Join(settings.Tool.Args, " ")
	case keyToolTransport:
		return string(settings.Tool.Transport)
	case keyToolTimeout:
		return settings.Tool.Timeout.String()
	case keyToolRate:
		return strconv.FormatFloat(settings.Tool.Rate, 'g', -1, 64)
	case keyFailFast:
		return strconv.FormatBool(settings.Batch.Policy == domain.PolicyFailFast)
	case keyDocFormat:
		return string(settings.Document.Format)
	case keyDocForceFormat:
		return strconv.FormatBool(settings.Document.ForceFormat)
	case keyHistoryEnabled:
		return strconv.FormatBool(settings.History.Enabled)
	case keyHistoryDataDir:
		return settings.History.DataDir
	case keyWatchDebounce:
		return settings.Watch.Debounce.String()
	case keyPipelineAnnotators:
		return strings.Join(settings.Pipeline.Annotators, " ")
	default:
		return ""
	}
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

func toList(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			out = append(out, toString(item))
		}
		return out
	default:
		return strings.Fields(strings.ReplaceAll(toString(v), ",", " "))
	}
}

func toBool(v any) (bool, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	default:
		return strconv.ParseBool(strings.TrimSpace(toString(v)))
	}
}

func toFloat(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case int64:
		return float64(t), nil
	case int:
		return float64(t), nil
	default:
		return strconv.ParseFloat(strings.TrimSpace(toString(v)), 64)
	}
}

// toDuration accepts Go duration strings or a number of seconds.
func toDuration(v any) (time.Duration, error) {
	switch t := v.(type) {
	case int64:
		return time.Duration(t) * time.Second, nil
	case int:
		return time.Duration(t) * time.Second, nil
	case float64:
		return time.Duration(t * float64(time.Second)), nil
	}
	s := strings.TrimSpace(toString(v))
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(n * float64(time.Second)), nil
	}
	return time.ParseDuration(s)
}
