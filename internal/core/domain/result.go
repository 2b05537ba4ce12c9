package domain

import (
	"fmt"
	"time"
)

// FailureKind classifies a per-sentence failure.
type FailureKind string

// Failure kinds recorded for skipped sentences.
const (
	FailureTree      FailureKind = "tree"
	FailureTool      FailureKind = "tool"
	FailureAlignment FailureKind = "alignment"
	FailureOther     FailureKind = "other"
)

// SentenceFailure records why a tokenization was not chunked.
type SentenceFailure struct {
	Section        int
	Sentence       int
	TokenizationID string
	Kind           FailureKind
	Err            error
}

// Location returns a human-readable position for log lines.
func (f SentenceFailure) Location() string {
	if f.TokenizationID != "" {
		return fmt.Sprintf("section %d sentence %d (tokenization %s)", f.Section, f.Sentence, f.TokenizationID)
	}
	return fmt.Sprintf("section %d sentence %d", f.Section, f.Sentence)
}

// DocumentResult holds the counters for processing one document.
type DocumentResult struct {
	// InputPath is the document that was read.
	InputPath string

	// OutputPath is where the document was (or would have been) written.
	OutputPath string

	// DocumentID is the Communication ID, when the document loaded.
	DocumentID string

	// Seen counts every tokenization in the document.
	Seen int

	// Attempted counts tokenizations that had at least one parse.
	Attempted int

	// Chunked counts tokenizations that received a CHUNK layer.
	Chunked int

	// Failures lists the attempted tokenizations that were not chunked.
	Failures []SentenceFailure

	// Written is true once the output document has been saved.
	Written bool

	// Err is a document-level failure (load, save, or an abort).
	Err error
}

// Ratio returns Chunked / Attempted, or 0 when nothing was attempted.
func (r DocumentResult) Ratio() float64 {
	if r.Attempted == 0 {
		return 0
	}
	return float64(r.Chunked) / float64(r.Attempted)
}

// Failed reports whether the document itself failed.
func (r DocumentResult) Failed() bool {
	return r.Err != nil
}

// BatchResult aggregates the documents processed in one run.
type BatchResult struct {
	Documents []DocumentResult
}

// Totals sums the sentence counters of every document.
func (b BatchResult) Totals() DocumentResult {
	var t DocumentResult
	for _, d := range b.Documents {
		t.Seen += d.Seen
		t.Attempted += d.Attempted
		t.Chunked += d.Chunked
	}
	return t
}

// FailedDocuments returns the number of documents with a document-level error.
func (b BatchResult) FailedDocuments() int {
	n := 0
	for _, d := range b.Documents {
		if d.Failed() {
			n++
		}
	}
	return n
}

// RunStatus is the final state of a run.
type RunStatus string

// Run statuses.
const (
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
	RunAborted   RunStatus = "aborted"
)

// Run is a recorded invocation of the batch processor.
type Run struct {
	ID         string
	Input      string
	Output     string
	Policy     ErrorPolicy
	Status     RunStatus
	StartedAt  time.Time
	FinishedAt time.Time
	Error      string
	Documents  []RunDocument
}

// RunDocument is the persisted form of a DocumentResult.
type RunDocument struct {
	InputPath  string
	OutputPath string
	DocumentID string
	Seen       int
	Attempted  int
	Chunked    int
	Failed     int
	Written    bool
	Error      string
}

// NewRunDocument converts a DocumentResult for persistence.
func NewRunDocument(r DocumentResult) RunDocument {
	doc := RunDocument{
		InputPath:  r.InputPath,
		OutputPath: r.OutputPath,
		DocumentID: r.DocumentID,
		Seen:       r.Seen,
		Attempted:  r.Attempted,
		Chunked:    r.Chunked,
		Failed:     len(r.Failures),
		Written:    r.Written,
	}
	if r.Err != nil {
		doc.Error = r.Err.Error()
	}
	return doc
}
