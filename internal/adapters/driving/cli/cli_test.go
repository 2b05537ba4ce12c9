package cli

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/chunklink-cli/internal/adapters/driven/codec"
	"github.com/custodia-labs/chunklink-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/chunklink-cli/internal/core/domain"
	"github.com/custodia-labs/chunklink-cli/internal/core/services"
)

// chunkOutput is what the stub tool prints for "The dog barks".
const chunkOutput = "#arguments: stub\n1 The DT B-NP\n2 dog NN I-NP\n3 barks VBZ O\n"

// executeCommand runs the root command with args and returns its output.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return executeCommandContext(context.Background(), t, args...)
}

func executeCommandContext(ctx context.Context, t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetCommand(ctx, rootCmd)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.ExecuteContext(ctx)
	return buf.String(), err
}

// resetCommand restores flag defaults left over from earlier executions.
func resetCommand(ctx context.Context, c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	c.SetContext(ctx)
	for _, sub := range c.Commands() {
		resetCommand(ctx, sub)
	}
}

// setupTestSettings installs an in-memory settings service with history
// stored under a temporary directory.
func setupTestSettings(t *testing.T, env map[string]string) *memory.ConfigStore {
	t.Helper()
	store := memory.NewConfigStore()
	require.NoError(t, store.Set("history.data_dir", t.TempDir()))

	old := settingsService
	settingsService = services.NewSettingsService(store, services.WithEnvLookup(func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}))
	t.Cleanup(func() { settingsService = old })
	return store
}

// writeStubTool writes a shell script standing in for chunklink.
func writeStubTool(t *testing.T, dir, name, body string) string {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o755))
	return path
}

func chunkingTool(t *testing.T) string {
	t.Helper()
	return writeStubTool(t, t.TempDir(), "chunklink.sh",
		"#!/bin/sh\ncat >/dev/null\nprintf '"+escapeNewlines(chunkOutput)+"'\n")
}

func failingTool(t *testing.T) string {
	t.Helper()
	return writeStubTool(t, t.TempDir(), "chunklink.sh",
		"#!/bin/sh\ncat >/dev/null\necho 'parse error' >&2\nexit 2\n")
}

func escapeNewlines(s string) string {
	var b bytes.Buffer
	for _, r := range s {
		if r == '\n' {
			b.WriteString(`\n`)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// dogBarks returns a document with one parsed three-token sentence.
func dogBarks(id string) *domain.Communication {
	return &domain.Communication{
		ID: id,
		SectionList: []domain.Section{{
			SentenceList: []domain.Sentence{{
				Tokenization: &domain.Tokenization{
					UUID: id + "-tok",
					TokenList: &domain.TokenList{TokenList: []domain.Token{
						{TokenIndex: 0, Text: "The"},
						{TokenIndex: 1, Text: "dog"},
						{TokenIndex: 2, Text: "barks"},
					}},
					ParseList: []domain.Parse{{ConstituentList: []domain.Constituent{
						{ID: 0, Tag: "S", ChildList: []int{1, 6}},
						{ID: 1, Tag: "NP", ChildList: []int{2, 4}},
						{ID: 2, Tag: "DT", ChildList: []int{3}},
						{ID: 3, Tag: "The"},
						{ID: 4, Tag: "NN", ChildList: []int{5}},
						{ID: 5, Tag: "dog"},
						{ID: 6, Tag: "VP", ChildList: []int{7}},
						{ID: 7, Tag: "VBZ", ChildList: []int{8}},
						{ID: 8, Tag: "barks"},
					}}},
				},
			}},
		}},
	}
}

func jsonStore(t *testing.T) *codec.FileStore {
	t.Helper()
	store, err := codec.NewFileStore(domain.DocumentSettings{Format: domain.FormatJSON})
	require.NoError(t, err)
	return store
}

func writeDocument(t *testing.T, path string, comm *domain.Communication) {
	t.Helper()
	require.NoError(t, jsonStore(t).Save(context.Background(), path, comm))
}

func readChunkTags(t *testing.T, path string) []string {
	t.Helper()
	comm, err := jsonStore(t).Load(context.Background(), path)
	require.NoError(t, err)
	layers := comm.SectionList[0].SentenceList[0].Tokenization.TaggingsOfType("CHUNK")
	if len(layers) == 0 {
		return nil
	}
	return layers[0].Tags()
}
