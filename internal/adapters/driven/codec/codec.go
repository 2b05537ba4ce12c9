package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/chunklink-cli/internal/core/domain"
	"github.com/custodia-labs/chunklink-cli/internal/core/ports/driven"
)

// Ensure codecs implement the interface.
var (
	_ driven.DocumentCodec = JSON{}
	_ driven.DocumentCodec = YAML{}
	_ driven.DocumentCodec = Msgpack{}
)

// JSON encodes documents as indented JSON.
type JSON struct{}

// Format returns FormatJSON.
func (JSON) Format() domain.DocumentFormat { return domain.FormatJSON }

// Decode reads one JSON document.
func (JSON) Decode(r io.Reader) (*domain.Communication, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	var comm domain.Communication
	if err := json.Unmarshal(data, &comm); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	var tree map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&tree); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	if tree != nil {
		comm.SetSource(normalize(tree).(map[string]any))
	}
	return &comm, nil
}

// Encode writes comm as JSON.
func (JSON) Encode(w io.Writer, comm *domain.Communication) error {
	doc, err := encodable(comm)
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// YAML encodes documents as YAML.
type YAML struct{}

// Format returns FormatYAML.
func (YAML) Format() domain.DocumentFormat { return domain.FormatYAML }

// Decode reads one YAML document.
func (YAML) Decode(r io.Reader) (*domain.Communication, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	var comm domain.Communication
	if err := yaml.Unmarshal(data, &comm); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if tree != nil {
		comm.SetSource(normalize(tree).(map[string]any))
	}
	return &comm, nil
}

// Encode writes comm as YAML.
func (YAML) Encode(w io.Writer, comm *domain.Communication) error {
	doc, err := encodable(comm)
	if err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return nil
}

// Msgpack encodes documents as MessagePack maps keyed by json field names.
type Msgpack struct{}

// Format returns FormatMsgpack.
func (Msgpack) Format() domain.DocumentFormat { return domain.FormatMsgpack }

// Decode reads one MessagePack document.
func (Msgpack) Decode(r io.Reader) (*domain.Communication, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("decode msgpack: %w", err)
	}
	var comm domain.Communication
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	if err := dec.Decode(&comm); err != nil {
		return nil, fmt.Errorf("decode msgpack: %w", err)
	}
	var tree map[string]any
	if err := msgpack.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("decode msgpack: %w", err)
	}
	if tree != nil {
		comm.SetSource(normalize(tree).(map[string]any))
	}
	return &comm, nil
}

// Encode writes comm as MessagePack.
func (Msgpack) Encode(w io.Writer, comm *domain.Communication) error {
	doc, err := encodable(comm)
	if err != nil {
		return fmt.Errorf("encode msgpack: %w", err)
	}
	enc := msgpack.NewEncoder(w)
	enc.SetCustomStructTag("json")
	enc.SetSortMapKeys(true)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode msgpack: %w", err)
	}
	return nil
}

// ForFormat returns the codec for format.
func ForFormat(format domain.DocumentFormat) (driven.DocumentCodec, error) {
	f, err := domain.ParseDocumentFormat(string(format))
	if err != nil {
		return nil, err
	}
	switch f {
	case domain.FormatYAML:
		return YAML{}, nil
	case domain.FormatMsgpack:
		return Msgpack{}, nil
	default:
		return JSON{}, nil
	}
}

// FormatForPath returns the format named by the extension of path.
// ok is false when the extension names no known format.
func FormatForPath(path string) (domain.DocumentFormat, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return domain.FormatJSON, true
	case ".yaml", ".yml":
		return domain.FormatYAML, true
	case ".msgpack", ".mp":
		return domain.FormatMsgpack, true
	default:
		return "", false
	}
}
