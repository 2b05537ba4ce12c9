package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/chunklink-cli/internal/core/domain"
	"github.com/custodia-labs/chunklink-cli/internal/core/ports/driven"
	"github.com/custodia-labs/chunklink-cli/internal/core/ports/driving"
	"github.com/custodia-labs/chunklink-cli/internal/logger"
)

// Ensure BatchService implements the interface.
var _ driving.BatchProcessor = (*BatchService)(nil)

// DocumentReporter receives the result of every processed document.
type DocumentReporter func(domain.DocumentResult)

// BatchService annotates documents with chunk layers.
//
// Tree integrity and alignment failures always skip only the affected
// sentence. Tool failures and document load/save failures are logged and
// skipped under PolicyContinue, and abort the run under PolicyFailFast.
type BatchService struct {
	annotator driven.Annotator
	documents driven.DocumentStore
	lister    driven.DirectoryLister
	runs      driven.RunStore
	policy    domain.ErrorPolicy
	reporter  DocumentReporter
	now       func() time.Time
	newID     func() string
}

// BatchOption configures a BatchService.
type BatchOption func(*BatchService)

// WithRunStore records every run in store. Nil disables history.
func WithRunStore(store driven.RunStore) BatchOption {
	return func(s *BatchService) {
		s.runs = store
	}
}

// WithDocumentReporter sets the callback invoked after each document.
func WithDocumentReporter(r DocumentReporter) BatchOption {
	return func(s *BatchService) {
		s.reporter = r
	}
}

// WithBatchClock sets the clock used for run timestamps.
func WithBatchClock(now func() time.Time) BatchOption {
	return func(s *BatchService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewBatchService creates a batch service.
// An invalid policy falls back to PolicyContinue.
func NewBatchService(
	annotator driven.Annotator,
	documents driven.DocumentStore,
	lister driven.DirectoryLister,
	policy domain.ErrorPolicy,
	opts ...BatchOption,
) *BatchService {
	if !policy.IsValid() {
		policy = domain.PolicyContinue
	}
	s := &BatchService{
		annotator: annotator,
		documents: documents,
		lister:    lister,
		policy:    policy,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.reporter == nil {
		s.reporter = logReport
	}
	return s
}

// Policy returns the error policy in effect.
func (s *BatchService) Policy() domain.ErrorPolicy {
	return s.policy
}

// ProcessPath annotates inPath into outPath. A directory input is processed
// with ProcessDir. A file input written to an existing directory keeps its
// base name; otherwise the parent of outPath must be an existing directory.
func (s *BatchService) ProcessPath(ctx context.Context, inPath, outPath string) (domain.BatchResult, error) {
	info, err := os.Stat(inPath)
	if err != nil {
		return domain.BatchResult{}, fmt.Errorf("%w: input %s: %w", domain.ErrConfiguration, inPath, err)
	}
	if info.IsDir() {
		return s.ProcessDir(ctx, inPath, outPath)
	}

	if out, err := os.Stat(outPath); err == nil && out.IsDir() {
		outPath = filepath.Join(outPath, filepath.Base(inPath))
	} else if err := requireDir("output", filepath.Dir(outPath)); err != nil {
		return domain.BatchResult{}, err
	}
	res, err := s.ProcessFile(ctx, inPath, outPath)
	return domain.BatchResult{Documents: []domain.DocumentResult{res}}, err
}

// ProcessFile annotates one document and writes it to outPath.
func (s *BatchService) ProcessFile(ctx context.Context, inPath, outPath string) (domain.DocumentResult, error) {
	var res domain.DocumentResult
	batch, err := s.record(ctx, inPath, outPath, func(b *domain.BatchResult) error {
		r, err := s.processDocument(ctx, inPath, outPath)
		b.Documents = append(b.Documents, r)
		return err
	})
	if len(batch.Documents) > 0 {
		res = batch.Documents[0]
	}
	return res, err
}

// ProcessDir annotates every top-level regular file of inDir into outDir,
// keeping file names. Subdirectories are not descended into.
func (s *BatchService) ProcessDir(ctx context.Context, inDir, outDir string) (domain.BatchResult, error) {
	if err := requireDir("input", inDir); err != nil {
		return domain.BatchResult{}, err
	}
	if err := requireDir("output", outDir); err != nil {
		return domain.BatchResult{}, err
	}

	paths, err := s.lister.List(inDir)
	if err != nil {
		return domain.BatchResult{}, fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}
	logger.Info("found %d documents in %s", len(paths), inDir)

	return s.record(ctx, inDir, outDir, func(b *domain.BatchResult) error {
		for _, in := range paths {
			if err := ctx.Err(); err != nil {
				return err
			}
			out := filepath.Join(outDir, filepath.Base(in))
			r, err := s.processDocument(ctx, in, out)
			b.Documents = append(b.Documents, r)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// processDocument loads, annotates and saves one document.
// A non-nil error means the run must stop.
func (s *BatchService) processDocument(ctx context.Context, inPath, outPath string) (domain.DocumentResult, error) {
	res := domain.DocumentResult{InputPath: inPath, OutputPath: outPath}
	logger.Section(inPath)

	comm, err := s.documents.Load(ctx, inPath)
	if err != nil {
		res.Err = err
		return res, s.documentFailure(&res)
	}
	res.DocumentID = comm.ID

	for _, ref := range comm.Tokenizations() {
		if err := ctx.Err(); err != nil {
			res.Err = err
			return res, err
		}

		res.Seen++
		tok := ref.Tokenization
		if !tok.HasParse() {
			logger.Debug("%s: section %d sentence %d has no parse", inPath, ref.Section, ref.Sentence)
			continue
		}
		res.Attempted++

		err := s.annotator.Annotate(ctx, tok)
		if err == nil {
			res.Chunked++
			continue
		}

		failure := domain.SentenceFailure{
			Section:        ref.Section,
			Sentence:       ref.Sentence,
			TokenizationID: tok.UUID,
			Kind:           classify(err),
			Err:            err,
		}
		res.Failures = append(res.Failures, failure)

		if ctxErr := ctx.Err(); ctxErr != nil {
			res.Err = ctxErr
			return res, ctxErr
		}
		if s.policy == domain.PolicyFailFast && !domain.IsSentenceSkip(err) {
			res.Err = fmt.Errorf("%s: %w", failure.Location(), err)
			logger.Error("%s: %v", inPath, res.Err)
			s.reporter(res)
			return res, fmt.Errorf("%s: %w", inPath, res.Err)
		}
		logger.Warn("%s: skipping %s: %v", inPath, failure.Location(), err)
	}

	if err := s.documents.Save(ctx, outPath, comm); err != nil {
		res.Err = err
		return res, s.documentFailure(&res)
	}
	res.Written = true

	s.reporter(res)
	return res, nil
}

// documentFailure logs a document-level failure and returns the error to
// stop the run with, which is nil under PolicyContinue.
func (s *BatchService) documentFailure(res *domain.DocumentResult) error {
	s.reporter(*res)
	if s.policy == domain.PolicyFailFast || errors.Is(res.Err, context.Canceled) {
		logger.Error("%s: %v", res.InputPath, res.Err)
		return fmt.Errorf("%s: %w", res.InputPath, res.Err)
	}
	logger.Warn("%s: skipping document: %v", res.InputPath, res.Err)
	return nil
}

// record runs fn and stores the resulting run when history is enabled.
func (s *BatchService) record(
	ctx context.Context,
	input, output string,
	fn func(*domain.BatchResult) error,
) (domain.BatchResult, error) {
	run := &domain.Run{
		ID:        s.newID(),
		Input:     input,
		Output:    output,
		Policy:    s.policy,
		Status:    domain.RunRunning,
		StartedAt: s.now(),
	}
	s.saveRun(ctx, run)

	var result domain.BatchResult
	err := fn(&result)

	run.FinishedAt = s.now()
	run.Documents = make([]domain.RunDocument, len(result.Documents))
	for i, d := range result.Documents {
		run.Documents[i] = domain.NewRunDocument(d)
	}
	switch {
	case err != nil:
		run.Status = domain.RunAborted
		run.Error = err.Error()
	case result.FailedDocuments() > 0:
		run.Status = domain.RunFailed
	default:
		run.Status = domain.RunSucceeded
	}
	s.saveRun(context.WithoutCancel(ctx), run)

	return result, err
}

func (s *BatchService) saveRun(ctx context.Context, run *domain.Run) {
	if s.runs == nil {
		return
	}
	if err := s.runs.SaveRun(ctx, run); err != nil {
		logger.Warn("failed to record run %s: %v", run.ID, err)
	}
}

func requireDir(role, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %s directory %s: %w", domain.ErrConfiguration, role, path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s %s is not a directory", domain.ErrConfiguration, role, path)
	}
	return nil
}

func classify(err error) domain.FailureKind {
	switch {
	case errors.Is(err, domain.ErrTreeIntegrity):
		return domain.FailureTree
	case errors.Is(err, domain.ErrToolInvocation):
		return domain.FailureTool
	case errors.Is(err, domain.ErrAlignment), errors.Is(err, domain.ErrMalformedOutput):
		return domain.FailureAlignment
	default:
		return domain.FailureOther
	}
}

// logReport is the default DocumentReporter.
func logReport(r domain.DocumentResult) {
	if r.Err != nil && !r.Written {
		return
	}
	logger.Print("Chunked %d / %d = %f", r.Chunked, r.Attempted, r.Ratio())
}
