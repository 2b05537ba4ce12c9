package services

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/chunklink-cli/internal/adapters/driven/codec"
	"github.com/custodia-labs/chunklink-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/chunklink-cli/internal/annotators/chunklink"
	"github.com/custodia-labs/chunklink-cli/internal/connectors/filesystem"
	"github.com/custodia-labs/chunklink-cli/internal/core/domain"
	"github.com/custodia-labs/chunklink-cli/internal/core/ports/driven"
)

// --- Test doubles ---

var preterminal = regexp.MustCompile(`\(([^()\s]+) ([^()\s]+)\)`)

// scriptedTool imitates chunklink: one output line per word.
// A word "FAIL" makes the tool exit non-zero; "EXTRA" adds a surplus line.
type scriptedTool struct {
	calls int
}

func (s *scriptedTool) Run(_ context.Context, input string) (driven.ToolOutput, error) {
	s.calls++
	if strings.Contains(input, "FAIL") {
		return driven.ToolOutput{Stderr: "boom"}, &domain.ToolError{
			Command: []string{"perl", "chunklink.pl"}, ExitCode: 1, Stderr: "boom",
		}
	}

	var b strings.Builder
	b.WriteString("#arguments: test\n")
	for i, m := range preterminal.FindAllStringSubmatch(input, -1) {
		tag := "O"
		switch m[2] {
		case "The":
			tag = "B-NP"
		case "dog":
			tag = "I-NP"
		}
		b.WriteString(strings.Join([]string{strconv.Itoa(i + 1), m[2], m[1], tag}, " "))
		b.WriteString("\n")
	}
	if strings.Contains(input, "EXTRA") {
		b.WriteString("99 extra NN O\n")
	}
	return driven.ToolOutput{Stdout: b.String()}, nil
}

// sentence builds a sentence whose parse is (S (NN w1) (NN w2) ...).
func sentence(id string, words ...string) domain.Sentence {
	tokens := make([]domain.Token, len(words))
	constituents := []domain.Constituent{{ID: 0, Tag: "S"}}
	for i, w := range words {
		tokens[i] = domain.Token{TokenIndex: i, Text: w}
		pre := 1 + 2*i
		constituents[0].ChildList = append(constituents[0].ChildList, pre)
		constituents = append(constituents,
			domain.Constituent{ID: pre, Tag: "NN", ChildList: []int{pre + 1}},
			domain.Constituent{ID: pre + 1, Tag: w},
		)
	}
	return domain.Sentence{
		UUID: id,
		Tokenization: &domain.Tokenization{
			UUID:      id + "-tok",
			TokenList: &domain.TokenList{TokenList: tokens},
			ParseList: []domain.Parse{{ConstituentList: constituents}},
		},
	}
}

func unparsed(id string, words ...string) domain.Sentence {
	s := sentence(id, words...)
	s.Tokenization.ParseList = nil
	return s
}

func broken(id string, words ...string) domain.Sentence {
	s := sentence(id, words...)
	s.Tokenization.ParseList[0].ConstituentList[0].ChildList = append(
		s.Tokenization.ParseList[0].ConstituentList[0].ChildList, 99)
	return s
}

func document(id string, sentences ...domain.Sentence) *domain.Communication {
	return &domain.Communication{
		ID:          id,
		SectionList: []domain.Section{{UUID: id + "-sec", SentenceList: sentences}},
	}
}

type batchFixture struct {
	tool    *scriptedTool
	store   *codec.FileStore
	runs    *memory.RunStore
	reports []domain.DocumentResult
}

func newBatchFixture(t *testing.T) *batchFixture {
	t.Helper()
	store, err := codec.NewFileStore(domain.DocumentSettings{Format: domain.FormatJSON})
	require.NoError(t, err)
	return &batchFixture{
		tool:  &scriptedTool{},
		store: store,
		runs:  memory.NewRunStore(),
	}
}

func (f *batchFixture) service(policy domain.ErrorPolicy) *BatchService {
	annotator := chunklink.New(f.tool, chunklink.WithClock(func() time.Time { return time.Unix(1700000000, 0) }))
	return NewBatchService(annotator, f.store, filesystem.NewLister(), policy,
		WithRunStore(f.runs),
		WithDocumentReporter(func(r domain.DocumentResult) { f.reports = append(f.reports, r) }),
	)
}

func (f *batchFixture) write(t *testing.T, path string, comm *domain.Communication) {
	t.Helper()
	require.NoError(t, f.store.Save(context.Background(), path, comm))
}

func (f *batchFixture) read(t *testing.T, path string) *domain.Communication {
	t.Helper()
	comm, err := f.store.Load(context.Background(), path)
	require.NoError(t, err)
	return comm
}

func chunkTags(t *testing.T, comm *domain.Communication, section, sent int) []string {
	t.Helper()
	tok := comm.SectionList[section].SentenceList[sent].Tokenization
	layers := tok.TaggingsOfType("CHUNK")
	if len(layers) == 0 {
		return nil
	}
	require.Len(t, layers, 1)
	return layers[0].Tags()
}

// --- Tests ---

func TestNewBatchService_InvalidPolicyFallsBack(t *testing.T) {
	f := newBatchFixture(t)

	s := f.service("sometimes")

	assert.Equal(t, domain.PolicyContinue, s.Policy())
}

func TestProcessFile_AddsChunkLayer(t *testing.T) {
	f := newBatchFixture(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "in.json")
	out := filepath.Join(dir, "out.json")
	f.write(t, in, document("doc-1", sentence("s1", "The", "dog", "barks")))

	res, err := f.service(domain.PolicyContinue).ProcessFile(context.Background(), in, out)

	require.NoError(t, err)
	assert.Equal(t, "doc-1", res.DocumentID)
	assert.Equal(t, 1, res.Seen)
	assert.Equal(t, 1, res.Attempted)
	assert.Equal(t, 1, res.Chunked)
	assert.Equal(t, 1.0, res.Ratio())
	assert.True(t, res.Written)
	assert.Empty(t, res.Failures)

	comm := f.read(t, out)
	assert.Equal(t, []string{"B-NP", "I-NP", "O"}, chunkTags(t, comm, 0, 0))
	layer := comm.SectionList[0].SentenceList[0].Tokenization.TokenTaggingList[0]
	assert.Equal(t, chunklink.DefaultToolName, layer.Metadata.Tool)
	assert.Equal(t, int64(1700000000), layer.Metadata.Timestamp)

	// The input document is not modified.
	assert.Nil(t, chunkTags(t, f.read(t, in), 0, 0))

	require.Len(t, f.reports, 1)
	assert.Equal(t, 1, f.reports[0].Chunked)
}

func TestProcessFile_TagCountMismatchSkipsSentence(t *testing.T) {
	for _, policy := range []domain.ErrorPolicy{domain.PolicyContinue, domain.PolicyFailFast} {
		t.Run(string(policy), func(t *testing.T) {
			f := newBatchFixture(t)
			dir := t.TempDir()
			in := filepath.Join(dir, "in.json")
			out := filepath.Join(dir, "out.json")
			f.write(t, in, document("doc", sentence("s1", "a", "b", "c", "EXTRA")))

			res, err := f.service(policy).ProcessFile(context.Background(), in, out)

			require.NoError(t, err)
			assert.Equal(t, 1, res.Attempted)
			assert.Equal(t, 0, res.Chunked)
			require.Len(t, res.Failures, 1)
			assert.Equal(t, domain.FailureAlignment, res.Failures[0].Kind)
			assert.ErrorIs(t, res.Failures[0].Err, domain.ErrAlignment)
			assert.True(t, res.Written)
			assert.Nil(t, chunkTags(t, f.read(t, out), 0, 0))
		})
	}
}

func TestProcessFile_ContinueSkipsFailedSentences(t *testing.T) {
	f := newBatchFixture(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "in.json")
	out := filepath.Join(dir, "out.json")
	f.write(t, in, document("doc",
		unparsed("s0", "no", "parse"),
		sentence("s1", "The", "dog"),
		sentence("s2", "FAIL", "here"),
		broken("s3", "bad", "tree"),
		sentence("s4", "dog"),
	))

	res, err := f.service(domain.PolicyContinue).ProcessFile(context.Background(), in, out)

	require.NoError(t, err)
	assert.Equal(t, 5, res.Seen)
	assert.Equal(t, 4, res.Attempted)
	assert.Equal(t, 2, res.Chunked)
	assert.Equal(t, 0.5, res.Ratio())
	require.Len(t, res.Failures, 2)
	assert.Equal(t, domain.FailureTool, res.Failures[0].Kind)
	assert.Equal(t, 2, res.Failures[0].Sentence)
	assert.Equal(t, "s2-tok", res.Failures[0].TokenizationID)
	assert.Equal(t, domain.FailureTree, res.Failures[1].Kind)
	assert.Equal(t, 3, f.tool.calls, "broken tree never reaches the tool")

	comm := f.read(t, out)
	assert.Nil(t, chunkTags(t, comm, 0, 0))
	assert.Equal(t, []string{"B-NP", "I-NP"}, chunkTags(t, comm, 0, 1))
	assert.Nil(t, chunkTags(t, comm, 0, 2))
	assert.Nil(t, chunkTags(t, comm, 0, 3))
	assert.Equal(t, []string{"I-NP"}, chunkTags(t, comm, 0, 4))
}

func TestProcessFile_FailFastAbortsOnToolError(t *testing.T) {
	f := newBatchFixture(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "in.json")
	out := filepath.Join(dir, "out.json")
	f.write(t, in, document("doc", sentence("s1", "FAIL"), sentence("s2", "dog")))

	res, err := f.service(domain.PolicyFailFast).ProcessFile(context.Background(), in, out)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrToolInvocation)
	assert.False(t, res.Written)
	assert.Equal(t, 1, f.tool.calls)
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))

	runs, listErr := f.runs.ListRuns(context.Background(), 0)
	require.NoError(t, listErr)
	require.Len(t, runs, 1)
	assert.Equal(t, domain.RunAborted, runs[0].Status)
	assert.Equal(t, domain.PolicyFailFast, runs[0].Policy)
}

func TestProcessFile_FailFastSkipsBrokenTree(t *testing.T) {
	f := newBatchFixture(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "in.json")
	out := filepath.Join(dir, "out.json")
	f.write(t, in, document("doc", broken("s1", "x"), sentence("s2", "dog")))

	res, err := f.service(domain.PolicyFailFast).ProcessFile(context.Background(), in, out)

	require.NoError(t, err)
	assert.Equal(t, 1, res.Chunked)
	assert.True(t, res.Written)
}

func TestProcessFile_LoadFailure(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(in, []byte("not json"), 0644))

	t.Run("continue", func(t *testing.T) {
		f := newBatchFixture(t)
		res, err := f.service(domain.PolicyContinue).ProcessFile(context.Background(), in, filepath.Join(dir, "o1.json"))

		require.NoError(t, err)
		assert.ErrorIs(t, res.Err, domain.ErrDocumentIO)
		assert.False(t, res.Written)
	})

	t.Run("fail-fast", func(t *testing.T) {
		f := newBatchFixture(t)
		_, err := f.service(domain.PolicyFailFast).ProcessFile(context.Background(), in, filepath.Join(dir, "o2.json"))

		assert.ErrorIs(t, err, domain.ErrDocumentIO)
	})
}

func TestProcessFile_RecordsRun(t *testing.T) {
	f := newBatchFixture(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "in.json")
	out := filepath.Join(dir, "out.json")
	f.write(t, in, document("doc", sentence("s1", "dog"), sentence("s2", "FAIL")))

	_, err := f.service(domain.PolicyContinue).ProcessFile(context.Background(), in, out)
	require.NoError(t, err)

	runs, err := f.runs.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	run, err := f.runs.GetRun(context.Background(), runs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunSucceeded, run.Status)
	assert.Equal(t, in, run.Input)
	assert.Equal(t, out, run.Output)
	assert.False(t, run.FinishedAt.Before(run.StartedAt))
	require.Len(t, run.Documents, 1)
	assert.Equal(t, 2, run.Documents[0].Attempted)
	assert.Equal(t, 1, run.Documents[0].Chunked)
	assert.Equal(t, 1, run.Documents[0].Failed)
	assert.True(t, run.Documents[0].Written)
}

func TestProcessFile_Cancelled(t *testing.T) {
	f := newBatchFixture(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "in.json")
	f.write(t, in, document("doc", sentence("s1", "dog")))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.service(domain.PolicyContinue).ProcessFile(ctx, in, filepath.Join(dir, "out.json"))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, f.tool.calls)
}

func TestProcessDir(t *testing.T) {
	setup := func(t *testing.T, f *batchFixture) (string, string) {
		t.Helper()
		inDir := t.TempDir()
		outDir := t.TempDir()
		f.write(t, filepath.Join(inDir, "a.json"), document("a", sentence("s1", "FAIL"), sentence("s2", "dog")))
		f.write(t, filepath.Join(inDir, "b.json"), document("b", sentence("s1", "The", "dog")))
		nested := filepath.Join(inDir, "nested")
		require.NoError(t, os.Mkdir(nested, 0755))
		f.write(t, filepath.Join(nested, "c.json"), document("c", sentence("s1", "dog")))
		return inDir, outDir
	}

	t.Run("continue processes every top-level file", func(t *testing.T) {
		f := newBatchFixture(t)
		inDir, outDir := setup(t, f)

		result, err := f.service(domain.PolicyContinue).ProcessDir(context.Background(), inDir, outDir)

		require.NoError(t, err)
		require.Len(t, result.Documents, 2)
		assert.Equal(t, filepath.Join(outDir, "a.json"), result.Documents[0].OutputPath)
		assert.Equal(t, 1, result.Documents[0].Chunked)
		assert.Equal(t, 1, result.Documents[1].Chunked)

		totals := result.Totals()
		assert.Equal(t, 3, totals.Seen)
		assert.Equal(t, 3, totals.Attempted)
		assert.Equal(t, 2, totals.Chunked)

		assert.Nil(t, chunkTags(t, f.read(t, filepath.Join(outDir, "a.json")), 0, 0))
		assert.Equal(t, []string{"I-NP"}, chunkTags(t, f.read(t, filepath.Join(outDir, "a.json")), 0, 1))
		assert.Equal(t, []string{"B-NP", "I-NP"}, chunkTags(t, f.read(t, filepath.Join(outDir, "b.json")), 0, 0))

		_, err = os.Stat(filepath.Join(outDir, "nested"))
		assert.True(t, os.IsNotExist(err), "subdirectories are not processed")
		_, err = os.Stat(filepath.Join(outDir, "c.json"))
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("fail-fast stops at the first tool failure", func(t *testing.T) {
		f := newBatchFixture(t)
		inDir, outDir := setup(t, f)

		result, err := f.service(domain.PolicyFailFast).ProcessDir(context.Background(), inDir, outDir)

		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrToolInvocation)
		assert.Len(t, result.Documents, 1)

		entries, readErr := os.ReadDir(outDir)
		require.NoError(t, readErr)
		assert.Empty(t, entries)
	})

	t.Run("continue skips unreadable documents", func(t *testing.T) {
		f := newBatchFixture(t)
		inDir, outDir := setup(t, f)
		require.NoError(t, os.WriteFile(filepath.Join(inDir, "0-bad.json"), []byte("{"), 0644))

		result, err := f.service(domain.PolicyContinue).ProcessDir(context.Background(), inDir, outDir)

		require.NoError(t, err)
		require.Len(t, result.Documents, 3)
		assert.Equal(t, 1, result.FailedDocuments())

		runs, _ := f.runs.ListRuns(context.Background(), 0)
		require.Len(t, runs, 1)
		assert.Equal(t, domain.RunFailed, runs[0].Status)
	})
}

func TestProcessDir_InvalidArguments(t *testing.T) {
	f := newBatchFixture(t)
	s := f.service(domain.PolicyContinue)
	dir := t.TempDir()
	file := filepath.Join(dir, "file.json")
	require.NoError(t, os.WriteFile(file, []byte("{}"), 0644))

	_, err := s.ProcessDir(context.Background(), dir, filepath.Join(dir, "missing"))
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	_, err = s.ProcessDir(context.Background(), filepath.Join(dir, "missing"), dir)
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	_, err = s.ProcessDir(context.Background(), dir, file)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestProcessPath(t *testing.T) {
	t.Run("missing input", func(t *testing.T) {
		f := newBatchFixture(t)

		_, err := f.service(domain.PolicyContinue).ProcessPath(context.Background(), filepath.Join(t.TempDir(), "nope"), "out")

		assert.ErrorIs(t, err, domain.ErrConfiguration)
	})

	t.Run("file into existing directory keeps base name", func(t *testing.T) {
		f := newBatchFixture(t)
		in := filepath.Join(t.TempDir(), "doc.json")
		outDir := t.TempDir()
		f.write(t, in, document("doc", sentence("s1", "dog")))

		result, err := f.service(domain.PolicyContinue).ProcessPath(context.Background(), in, outDir)

		require.NoError(t, err)
		require.Len(t, result.Documents, 1)
		assert.Equal(t, filepath.Join(outDir, "doc.json"), result.Documents[0].OutputPath)
		assert.FileExists(t, filepath.Join(outDir, "doc.json"))
	})

	t.Run("missing output parent directory", func(t *testing.T) {
		f := newBatchFixture(t)
		in := filepath.Join(t.TempDir(), "doc.json")
		f.write(t, in, document("doc", sentence("s1", "dog")))
		out := filepath.Join(t.TempDir(), "missing", "doc.json")

		result, err := f.service(domain.PolicyContinue).ProcessPath(context.Background(), in, out)

		assert.ErrorIs(t, err, domain.ErrConfiguration)
		assert.Empty(t, result.Documents)
		assert.Zero(t, f.tool.calls)
		assert.NoFileExists(t, out)
	})

	t.Run("output parent is a file", func(t *testing.T) {
		f := newBatchFixture(t)
		dir := t.TempDir()
		in := filepath.Join(dir, "doc.json")
		f.write(t, in, document("doc", sentence("s1", "dog")))

		_, err := f.service(domain.PolicyContinue).ProcessPath(context.Background(), in, filepath.Join(in, "out.json"))

		assert.ErrorIs(t, err, domain.ErrConfiguration)
		assert.Zero(t, f.tool.calls)
	})

	t.Run("directory input", func(t *testing.T) {
		f := newBatchFixture(t)
		inDir := t.TempDir()
		outDir := t.TempDir()
		f.write(t, filepath.Join(inDir, "x.yaml"), document("x", sentence("s1", "dog")))

		result, err := f.service(domain.PolicyContinue).ProcessPath(context.Background(), inDir, outDir)

		require.NoError(t, err)
		require.Len(t, result.Documents, 1)
		assert.Equal(t, []string{"I-NP"}, chunkTags(t, f.read(t, filepath.Join(outDir, "x.yaml")), 0, 0))
	})
}

func TestClassify(t *testing.T) {
	assert.Equal(t, domain.FailureTree, classify(domain.ErrTreeIntegrity))
	assert.Equal(t, domain.FailureTool, classify(&domain.ToolError{ExitCode: 2}))
	assert.Equal(t, domain.FailureAlignment, classify(&domain.AlignmentError{Expected: 4, Actual: 5}))
	assert.Equal(t, domain.FailureAlignment, classify(domain.ErrMalformedOutput))
	assert.Equal(t, domain.FailureOther, classify(context.DeadlineExceeded))
}
