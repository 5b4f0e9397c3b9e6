package rag

import "strings"

// Chunk splits text into overlapping windows of up to chunkSize words.
//
// Words are the chunking unit throughout the system; the embedder receives
// word-joined chunks and citation granularity follows word boundaries.
// Each window starts chunkSize-overlap words after the previous one. Blank
// windows are dropped and a non-empty trailing partial window is kept.
// Empty text yields an empty slice, not an error.
func Chunk(text string, chunkSize, overlap int) ([]string, error) {
	if chunkSize <= 0 {
		return nil, &ValidationError{Reason: "chunkSize must be positive"}
	}
	if overlap < 0 || chunkSize <= overlap {
		return nil, &ValidationError{Reason: "overlap must satisfy 0 <= overlap < chunkSize"}
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{}, nil
	}

	step := chunkSize - overlap
	var chunks []string
	for start := 0; start < len(words); start += step {
		end := start + chunkSize
		if end > len(words) {
			end = len(words)
		}
		chunk := strings.Join(words[start:end], " ")
		if strings.TrimSpace(chunk) != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(words) {
			break
		}
	}
	return chunks, nil
}
