package codec

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/custodia-labs/chunklink-cli/internal/core/domain"
)

// encodable returns the value a codec should write for comm. Decoded
// documents are written from their source tree with the tagging layers added
// since decoding appended, so fields the model does not cover are kept.
func encodable(comm *domain.Communication) (any, error) {
	src := comm.Source()
	if src == nil {
		return comm, nil
	}
	tree, _ := clone(src).(map[string]any)

	sections, _ := tree["sectionList"].([]any)
	for i, section := range comm.SectionList {
		if i >= len(sections) {
			break
		}
		rawSection, ok := sections[i].(map[string]any)
		if !ok {
			continue
		}
		sentences, _ := rawSection["sentenceList"].([]any)
		for j, sent := range section.SentenceList {
			if j >= len(sentences) || sent.Tokenization == nil {
				continue
			}
			rawSent, ok := sentences[j].(map[string]any)
			if !ok {
				continue
			}
			rawTok, ok := rawSent["tokenization"].(map[string]any)
			if !ok {
				continue
			}
			if err := appendTaggings(rawTok, sent.Tokenization.TokenTaggingList); err != nil {
				return nil, err
			}
		}
	}
	return tree, nil
}

// appendTaggings adds the layers of list beyond those already in rawTok.
func appendTaggings(rawTok map[string]any, list []domain.TokenTagging) error {
	existing, _ := rawTok["tokenTaggingList"].([]any)
	if len(list) <= len(existing) {
		return nil
	}
	for _, tagging := range list[len(existing):] {
		v, err := toTree(tagging)
		if err != nil {
			return fmt.Errorf("tagging %s: %w", tagging.UUID, err)
		}
		existing = append(existing, v)
	}
	rawTok["tokenTaggingList"] = existing
	return nil
}

// toTree converts v into the generic form produced by decoding.
func toTree(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return normalize(out), nil
}

// normalize rewrites decoded values in place to string-keyed maps, slices,
// and int64 or float64 numbers so every codec can write the tree.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			t[k] = normalize(e)
		}
		return t
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[fmt.Sprint(k)] = normalize(e)
		}
		return m
	case []any:
		for i, e := range t {
			t[i] = normalize(e)
		}
		return t
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		f, _ := t.Float64()
		return f
	default:
		return v
	}
}

func clone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = clone(e)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, e := range t {
			s[i] = clone(e)
		}
		return s
	default:
		return v
	}
}
