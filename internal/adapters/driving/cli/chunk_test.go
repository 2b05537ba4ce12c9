package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/chunklink-cli/internal/core/domain"
)

func TestChunkCmd_Use(t *testing.T) {
	assert.Equal(t, "chunk <input> <output>", chunkCmd.Use)
}

func TestChunkCmd_RequiresTwoArgs(t *testing.T) {
	_, err := executeCommand(t, "chunk", "only-one")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 2 arg(s)")
}

func TestChunkCmd_Flags(t *testing.T) {
	tests := []struct {
		name      string
		shorthand string
		def       string
	}{
		{name: "chunklink", shorthand: "c", def: ""},
		{name: "interpreter", def: "perl"},
		{name: "transport", def: "stdin"},
		{name: "timeout", def: "1m0s"},
		{name: "rate", def: "0"},
		{name: "fail-fast", def: "false"},
		{name: "format", def: ""},
		{name: "no-history", def: "false"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag := chunkCmd.Flags().Lookup(tt.name)
			require.NotNil(t, flag)
			assert.Equal(t, tt.shorthand, flag.Shorthand)
			assert.Equal(t, tt.def, flag.DefValue)
		})
	}
}

func TestChunkCmd_File(t *testing.T) {
	setupTestSettings(t, nil)
	tool := chunkingTool(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "in.json")
	out := filepath.Join(dir, "out.json")
	writeDocument(t, in, dogBarks("doc"))

	output, err := executeCommand(t, "chunk", in, out, "-c", tool, "--interpreter", "sh")

	require.NoError(t, err)
	assert.Contains(t, output, "Chunked 1 / 1 = 1.000000")
	assert.NotContains(t, output, "Summary")
	assert.Equal(t, []string{"B-NP", "I-NP", "O"}, readChunkTags(t, out))
}

func TestChunkCmd_FileTransport(t *testing.T) {
	setupTestSettings(t, nil)
	tool := writeStubTool(t, t.TempDir(), "chunklink.sh",
		"#!/bin/sh\ntest -f \"$1\" || exit 9\nprintf '"+escapeNewlines(chunkOutput)+"'\n")
	dir := t.TempDir()
	in := filepath.Join(dir, "in.json")
	out := filepath.Join(dir, "out.json")
	writeDocument(t, in, dogBarks("doc"))

	_, err := executeCommand(t, "chunk", in, out, "-c", tool, "--interpreter", "sh", "--transport", "file")

	require.NoError(t, err)
	assert.Equal(t, []string{"B-NP", "I-NP", "O"}, readChunkTags(t, out))
}

func TestChunkCmd_DirectoryRecordsHistory(t *testing.T) {
	setupTestSettings(t, nil)
	tool := chunkingTool(t)
	inDir := t.TempDir()
	outDir := t.TempDir()
	writeDocument(t, filepath.Join(inDir, "a.json"), dogBarks("a"))
	writeDocument(t, filepath.Join(inDir, "b.json"), dogBarks("b"))

	output, err := executeCommand(t, "chunk", inDir, outDir, "-c", tool, "--interpreter", "sh")

	require.NoError(t, err)
	assert.Contains(t, output, "Summary")
	assert.Contains(t, output, "Documents: 2 (0 failed)")
	assert.Contains(t, output, "Chunked 2 / 2 = 1.000000")
	assert.Equal(t, []string{"B-NP", "I-NP", "O"}, readChunkTags(t, filepath.Join(outDir, "a.json")))
	assert.Equal(t, []string{"B-NP", "I-NP", "O"}, readChunkTags(t, filepath.Join(outDir, "b.json")))

	output, err = executeCommand(t, "history", "list")
	require.NoError(t, err)
	assert.Contains(t, output, "succeeded")
	assert.Contains(t, output, inDir)
}

func TestChunkCmd_NoHistory(t *testing.T) {
	setupTestSettings(t, nil)
	tool := chunkingTool(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "in.json")
	writeDocument(t, in, dogBarks("doc"))

	_, err := executeCommand(t, "chunk", in, filepath.Join(dir, "out.json"), "-c", tool, "--interpreter", "sh", "--no-history")
	require.NoError(t, err)

	output, err := executeCommand(t, "history")
	require.NoError(t, err)
	assert.Contains(t, output, "No runs recorded.")
}

func TestChunkCmd_ToolFailure(t *testing.T) {
	t.Run("continue writes the document without the layer", func(t *testing.T) {
		setupTestSettings(t, nil)
		tool := failingTool(t)
		dir := t.TempDir()
		in := filepath.Join(dir, "in.json")
		out := filepath.Join(dir, "out.json")
		writeDocument(t, in, dogBarks("doc"))

		output, err := executeCommand(t, "chunk", in, out, "-c", tool, "--interpreter", "sh")

		require.NoError(t, err)
		assert.Contains(t, output, "Chunked 0 / 1 = 0.000000")
		assert.Nil(t, readChunkTags(t, out))
	})

	t.Run("fail-fast aborts without writing", func(t *testing.T) {
		setupTestSettings(t, nil)
		tool := failingTool(t)
		dir := t.TempDir()
		in := filepath.Join(dir, "in.json")
		out := filepath.Join(dir, "out.json")
		writeDocument(t, in, dogBarks("doc"))

		_, err := executeCommand(t, "chunk", in, out, "-c", tool, "--interpreter", "sh", "--fail-fast")

		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrToolInvocation)
		_, statErr := os.Stat(out)
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("fail-fast from the environment", func(t *testing.T) {
		setupTestSettings(t, map[string]string{"CHUNKLINK_FAIL_FAST": "true"})
		tool := failingTool(t)
		dir := t.TempDir()
		in := filepath.Join(dir, "in.json")
		writeDocument(t, in, dogBarks("doc"))

		_, err := executeCommand(t, "chunk", in, filepath.Join(dir, "out.json"), "-c", tool, "--interpreter", "sh")

		assert.ErrorIs(t, err, domain.ErrToolInvocation)
	})
}

func TestChunkCmd_ConfigurationErrors(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.json")
	writeDocument(t, in, dogBarks("doc"))

	t.Run("missing tool", func(t *testing.T) {
		setupTestSettings(t, nil)
		_, err := executeCommand(t, "chunk", in, filepath.Join(dir, "out.json"),
			"-c", filepath.Join(dir, "missing.pl"))
		assert.ErrorIs(t, err, domain.ErrConfiguration)
	})

	t.Run("missing interpreter", func(t *testing.T) {
		setupTestSettings(t, nil)
		tool := chunkingTool(t)
		_, err := executeCommand(t, "chunk", in, filepath.Join(dir, "out.json"),
			"-c", tool, "--interpreter", "no-such-interpreter-xyz")
		assert.ErrorIs(t, err, domain.ErrConfiguration)
	})

	t.Run("missing input", func(t *testing.T) {
		setupTestSettings(t, nil)
		tool := chunkingTool(t)
		_, err := executeCommand(t, "chunk", filepath.Join(dir, "nope.json"), filepath.Join(dir, "out.json"),
			"-c", tool, "--interpreter", "sh")
		assert.ErrorIs(t, err, domain.ErrConfiguration)
	})

	t.Run("missing output parent directory", func(t *testing.T) {
		setupTestSettings(t, nil)
		tool := chunkingTool(t)
		out := filepath.Join(dir, "absent", "out.json")
		_, err := executeCommand(t, "chunk", in, out, "-c", tool, "--interpreter", "sh")
		assert.ErrorIs(t, err, domain.ErrConfiguration)
		assert.NoFileExists(t, out)
	})

	t.Run("directory input with missing output directory", func(t *testing.T) {
		setupTestSettings(t, nil)
		tool := chunkingTool(t)
		_, err := executeCommand(t, "chunk", dir, filepath.Join(dir, "absent"),
			"-c", tool, "--interpreter", "sh")
		assert.ErrorIs(t, err, domain.ErrConfiguration)
	})

	t.Run("invalid transport", func(t *testing.T) {
		setupTestSettings(t, nil)
		_, err := executeCommand(t, "chunk", in, filepath.Join(dir, "out.json"), "--transport", "carrier-pigeon")
		assert.ErrorIs(t, err, domain.ErrConfiguration)
	})

	t.Run("invalid format", func(t *testing.T) {
		setupTestSettings(t, nil)
		_, err := executeCommand(t, "chunk", in, filepath.Join(dir, "out.json"), "--format", "xml")
		assert.ErrorIs(t, err, domain.ErrConfiguration)
	})
}

func TestChunkCmd_FormatFlagIgnoresExtension(t *testing.T) {
	setupTestSettings(t, nil)
	tool := chunkingTool(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "in.json")
	writeDocument(t, in, dogBarks("doc"))
	yamlIn := filepath.Join(dir, "in.data")
	out := filepath.Join(dir, "out.data")

	// Convert the input to YAML under an extension that names no format.
	_, err := executeCommand(t, "chunk", in, filepath.Join(dir, "plain.yaml"), "-c", tool, "--interpreter", "sh")
	require.NoError(t, err)
	require.NoError(t, os.Rename(filepath.Join(dir, "plain.yaml"), yamlIn))

	_, err = executeCommand(t, "chunk", yamlIn, out, "-c", tool, "--interpreter", "sh", "--format", "yaml")
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "taggingType: CHUNK")
}

func TestChunkCmd_DiscoversTool(t *testing.T) {
	setupTestSettings(t, nil)
	work := t.TempDir()
	writeStubTool(t, work, filepath.Join("scripts", domain.ChunklinkScript),
		"#!/bin/sh\ncat >/dev/null\nprintf '"+escapeNewlines(chunkOutput)+"'\n")
	in := filepath.Join(work, "in.json")
	out := filepath.Join(work, "out.json")
	writeDocument(t, in, dogBarks("doc"))
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(work))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	_, err = executeCommand(t, "chunk", in, out, "--interpreter", "sh")

	require.NoError(t, err)
	assert.Equal(t, []string{"B-NP", "I-NP", "O"}, readChunkTags(t, out))
}
