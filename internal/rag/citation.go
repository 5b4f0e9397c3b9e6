package rag

import (
	"fmt"

	"codexai-go/internal/model"
)

// FormatCitation renders a human-readable legal citation from a chunk's
// source type and metadata. It never fails: missing fields fall back to
// generic literals and an unknown source type yields "Source inconnue",
// so citation formatting can never abort a search response.
func FormatCitation(sourceType string, metadata model.ChunkMetadata) string {
	get := func(key, fallback string) string {
		if v, ok := metadata[key]; ok && v != "" {
			return v
		}
		return fallback
	}

	switch sourceType {
	case model.SourceTypePublicStatute:
		return fmt.Sprintf("%s du %s", get("article", "Article"), get("code", "Code"))
	case model.SourceTypePublicCaselaw:
		return fmt.Sprintf("%s, %s, %s",
			get("jurisdiction", "Cour"),
			get("date", "Date inconnue"),
			get("caseNumber", "N° pourvoi"))
	case model.SourceTypePrivateVault:
		return fmt.Sprintf("%s (Document privé)", get("fileName", "Document"))
	default:
		return "Source inconnue"
	}
}
