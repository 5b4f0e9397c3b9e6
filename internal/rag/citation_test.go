package rag

import (
	"testing"

	"codexai-go/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestFormatCitationStatute(t *testing.T) {
	citation := FormatCitation(model.SourceTypePublicStatute, model.ChunkMetadata{
		"article": "1134",
		"code":    "Code Civil",
	})
	assert.Equal(t, "1134 du Code Civil", citation)
}

func TestFormatCitationStatuteFallbacks(t *testing.T) {
	assert.Equal(t, "Article du Code", FormatCitation(model.SourceTypePublicStatute, nil))
	assert.Equal(t, "1382 du Code",
		FormatCitation(model.SourceTypePublicStatute, model.ChunkMetadata{"article": "1382"}))
}

func TestFormatCitationCaselaw(t *testing.T) {
	citation := FormatCitation(model.SourceTypePublicCaselaw, model.ChunkMetadata{
		"jurisdiction": "Cour de Cassation",
		"date":         "10 juillet 2007",
		"caseNumber":   "n° 06-14.768",
	})
	assert.Equal(t, "Cour de Cassation, 10 juillet 2007, n° 06-14.768", citation)
}

func TestFormatCitationCaselawFallbacks(t *testing.T) {
	assert.Equal(t, "Cour, Date inconnue, N° pourvoi",
		FormatCitation(model.SourceTypePublicCaselaw, model.ChunkMetadata{}))
}

func TestFormatCitationVault(t *testing.T) {
	citation := FormatCitation(model.SourceTypePrivateVault, model.ChunkMetadata{
		"fileName": "contrat-bail.pdf",
	})
	assert.Equal(t, "contrat-bail.pdf (Document privé)", citation)
}

func TestFormatCitationVaultFallback(t *testing.T) {
	assert.Equal(t, "Document (Document privé)",
		FormatCitation(model.SourceTypePrivateVault, nil))
}

func TestFormatCitationUnknownSourceType(t *testing.T) {
	assert.Equal(t, "Source inconnue", FormatCitation("mystery", model.ChunkMetadata{"a": "b"}))
	assert.Equal(t, "Source inconnue", FormatCitation("", nil))
}
