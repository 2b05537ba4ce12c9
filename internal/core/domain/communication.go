package domain

// Communication is an annotated document: sections of sentences, each sentence
// carrying at most one tokenization. Only the fields read or written by the
// chunking pipeline are modelled. Codecs keep the full decoded tree in the
// document source so unmodelled fields survive a load and save.
type Communication struct {
	// ID is the document identifier assigned by the producer.
	ID string `json:"id" yaml:"id"`

	// UUID uniquely identifies this document instance.
	UUID string `json:"uuid,omitempty" yaml:"uuid,omitempty"`

	// Type is a free-form document type label (e.g. "news").
	Type string `json:"type,omitempty" yaml:"type,omitempty"`

	// Text is the original document text, if retained.
	Text string `json:"text,omitempty" yaml:"text,omitempty"`

	// Metadata records the tool that produced the document.
	Metadata *AnnotationMetadata `json:"metadata,omitempty" yaml:"metadata,omitempty"`

	// SectionList holds the document sections in order.
	SectionList []Section `json:"sectionList,omitempty" yaml:"sectionList,omitempty"`

	source map[string]any
}

// Source returns the generic tree the document was decoded from, or nil for
// documents built in memory.
func (c *Communication) Source() map[string]any { return c.source }

// SetSource records the generic tree the document was decoded from.
func (c *Communication) SetSource(tree map[string]any) { c.source = tree }

// Section is a contiguous region of a document.
type Section struct {
	UUID         string     `json:"uuid,omitempty" yaml:"uuid,omitempty"`
	Kind         string     `json:"kind,omitempty" yaml:"kind,omitempty"`
	SentenceList []Sentence `json:"sentenceList,omitempty" yaml:"sentenceList,omitempty"`
}

// Sentence holds the tokenization of a single sentence.
type Sentence struct {
	UUID         string        `json:"uuid,omitempty" yaml:"uuid,omitempty"`
	Tokenization *Tokenization `json:"tokenization,omitempty" yaml:"tokenization,omitempty"`
}

// Tokenization is a sentence's token sequence together with its candidate
// parses and derived per-token tagging layers.
type Tokenization struct {
	UUID string `json:"uuid,omitempty" yaml:"uuid,omitempty"`

	Metadata *AnnotationMetadata `json:"metadata,omitempty" yaml:"metadata,omitempty"`

	TokenList *TokenList `json:"tokenList,omitempty" yaml:"tokenList,omitempty"`

	// ParseList holds candidate constituency parses, best first.
	ParseList []Parse `json:"parseList,omitempty" yaml:"parseList,omitempty"`

	// TokenTaggingList holds the tagging layers attached so far.
	TokenTaggingList []TokenTagging `json:"tokenTaggingList,omitempty" yaml:"tokenTaggingList,omitempty"`
}

// TokenCount returns the number of tokens, treating a missing list as empty.
func (t *Tokenization) TokenCount() int {
	if t == nil || t.TokenList == nil {
		return 0
	}
	return len(t.TokenList.TokenList)
}

// HasParse reports whether at least one candidate parse is present.
func (t *Tokenization) HasParse() bool {
	return t != nil && len(t.ParseList) > 0
}

// TaggingsOfType returns the attached layers whose type equals taggingType.
func (t *Tokenization) TaggingsOfType(taggingType string) []TokenTagging {
	if t == nil {
		return nil
	}
	var out []TokenTagging
	for i := range t.TokenTaggingList {
		if t.TokenTaggingList[i].TaggingType == taggingType {
			out = append(out, t.TokenTaggingList[i])
		}
	}
	return out
}

// TokenList is the ordered token sequence of a tokenization.
type TokenList struct {
	TokenList []Token `json:"tokenList" yaml:"tokenList"`
}

// Token is a single token.
type Token struct {
	TokenIndex int    `json:"tokenIndex" yaml:"tokenIndex"`
	Text       string `json:"text" yaml:"text"`
}

// Parse is a constituency tree stored as a flat list of constituents that
// reference their children by constituent ID.
type Parse struct {
	UUID            string              `json:"uuid,omitempty" yaml:"uuid,omitempty"`
	Metadata        *AnnotationMetadata `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	ConstituentList []Constituent       `json:"constituentList" yaml:"constituentList"`
}

// Constituent is one labelled node of a Parse.
type Constituent struct {
	ID int `json:"id" yaml:"id"`

	// Tag is the node label: a phrase category, a POS tag, or a word.
	Tag string `json:"tag" yaml:"tag"`

	// ChildList holds child constituent IDs in surface order.
	ChildList []int `json:"childList,omitempty" yaml:"childList,omitempty"`

	// HeadChildIndex is the position in ChildList of the head child, or -1.
	HeadChildIndex *int `json:"headChildIndex,omitempty" yaml:"headChildIndex,omitempty"`
}

// TokenTagging is a per-token annotation layer.
type TokenTagging struct {
	UUID            string              `json:"uuid" yaml:"uuid"`
	Metadata        *AnnotationMetadata `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	TaggingType     string              `json:"taggingType" yaml:"taggingType"`
	TaggedTokenList []TaggedToken       `json:"taggedTokenList" yaml:"taggedTokenList"`
}

// Tags returns the tag strings of the layer in token order.
func (t TokenTagging) Tags() []string {
	tags := make([]string, len(t.TaggedTokenList))
	for i, tt := range t.TaggedTokenList {
		tags[i] = tt.Tag
	}
	return tags
}

// TaggedToken maps a token index to a tag.
type TaggedToken struct {
	TokenIndex int    `json:"tokenIndex" yaml:"tokenIndex"`
	Tag        string `json:"tag" yaml:"tag"`
}

// AnnotationMetadata records which tool produced an annotation and when.
type AnnotationMetadata struct {
	Tool string `json:"tool" yaml:"tool"`

	// Timestamp is seconds since the Unix epoch.
	Timestamp int64 `json:"timestamp" yaml:"timestamp"`
}

// TokenizationRef locates a tokenization inside a Communication.
type TokenizationRef struct {
	Section      int
	Sentence     int
	Tokenization *Tokenization
}

// Tokenizations returns every tokenization of the document in section then
// sentence order. Sentences without a tokenization are skipped. The returned
// pointers alias the document, so layers appended through them are kept.
func (c *Communication) Tokenizations() []TokenizationRef {
	if c == nil {
		return nil
	}
	var refs []TokenizationRef
	for si := range c.SectionList {
		section := &c.SectionList[si]
		for ji := range section.SentenceList {
			tok := section.SentenceList[ji].Tokenization
			if tok == nil {
				continue
			}
			refs = append(refs, TokenizationRef{Section: si, Sentence: ji, Tokenization: tok})
		}
	}
	return refs
}
