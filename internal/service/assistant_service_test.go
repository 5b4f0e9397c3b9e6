package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractCitationsArticles(t *testing.T) {
	text := "En vertu de l'Article 1134 du Code Civil, les conventions légalement formées tiennent lieu de loi."
	citations := ExtractCitations(text)
	assert.Equal(t, []string{"Article 1134 du Code Civil"}, citations)
}

func TestExtractCitationsCaseLaw(t *testing.T) {
	text := "Voir Cass. civ. 1, 10 juillet 2007, n° 06-14.768, qui a posé le principe."
	citations := ExtractCitations(text)
	assert.Equal(t, []string{"Cass. civ. 1, 10 juillet 2007, n° 06-14.768"}, citations)
}

func TestExtractCitationsLaws(t *testing.T) {
	text := "La Loi n° 2016-1547 de modernisation de la justice a réformé cette procédure."
	citations := ExtractCitations(text)
	assert.Equal(t, []string{"Loi n° 2016-1547"}, citations)
}

func TestExtractCitationsMixedAndDeduplicated(t *testing.T) {
	text := "L'Article 1240 du Code Civil fonde la responsabilité délictuelle. " +
		"L'Article 1240 du Code Civil est d'ordre public. " +
		"Voir aussi Loi n° 2016-1547."
	citations := ExtractCitations(text)
	assert.Len(t, citations, 2)
	assert.Contains(t, citations, "Article 1240 du Code Civil")
	assert.Contains(t, citations, "Loi n° 2016-1547")
}

func TestExtractCitationsNone(t *testing.T) {
	citations := ExtractCitations("Je vous recommande de consulter un avocat.")
	assert.NotNil(t, citations)
	assert.Empty(t, citations)
}

func TestExtractCitationsBareArticle(t *testing.T) {
	citations := ExtractCitations("L'Article 9, sans précision de code.")
	assert.Equal(t, []string{"Article 9"}, citations)
}
