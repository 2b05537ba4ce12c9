package driven

import "context"

// ToolOutput is the captured output of one external tool invocation.
type ToolOutput struct {
	Stdout string
	Stderr string
}

// ChunkTool runs the external chunking program on one treebank entry.
type ChunkTool interface {
	// Run feeds input to the tool and returns its captured output.
	// A launch failure, non-zero exit, or timeout returns a *domain.ToolError.
	Run(ctx context.Context, input string) (ToolOutput, error)
}
