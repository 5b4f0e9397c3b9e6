package rag

import "strings"

// blockSeparator joins context blocks fed to the LLM prompt.
const blockSeparator = "\n\n---\n\n"

// Context is the prompt-ready output of a retrieval: the concatenated
// context text plus the ranked citations it was built from.
type Context struct {
	Context   string         `json:"context"`
	Citations []SearchResult `json:"citations"`
}

// Assemble builds the context block for the given results, preserving
// their order. Empty results yield an empty context and an empty (non-nil)
// citation list; the consumer is expected to tell the user no relevant
// sources were found rather than invent one.
func Assemble(results []SearchResult) Context {
	if len(results) == 0 {
		return Context{Context: "", Citations: []SearchResult{}}
	}

	blocks := make([]string, 0, len(results))
	for _, r := range results {
		blocks = append(blocks, "["+r.Citation+"]\n"+r.Chunk.ChunkText)
	}

	return Context{
		Context:   strings.Join(blocks, blockSeparator),
		Citations: results,
	}
}
