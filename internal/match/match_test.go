package match_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/citebridge/citebridge/internal/match"
)

func TestFold(t *testing.T) {
	assert.Equal(t, match.Fold("  Attention Is All You Need "), match.Fold("attention is all you need"))
	assert.Equal(t, "", match.Fold("   "))

	// NFD and NFC forms of the same accented title fold identically.
	nfd := "Résumé" // "Résumé" decomposed
	nfc := "Résumé"
	assert.Equal(t, match.Fold(nfc), match.Fold(nfd))
}

func TestEqual(t *testing.T) {
	assert.True(t, match.Equal("Deep Learning", "  deep learning"))
	assert.False(t, match.Equal("Deep Learning", "Deep Learning 2"))
}

func TestOverlaps(t *testing.T) {
	t.Run("substring either direction", func(t *testing.T) {
		assert.True(t, match.Overlaps("Summary of Transformers", "Transformers"))
		assert.True(t, match.Overlaps("Transformers", "Summary of Transformers"))
	})

	t.Run("case and whitespace insensitive", func(t *testing.T) {
		assert.True(t, match.Overlaps("  NOTES ON BERT ", "notes on bert"))
	})

	t.Run("no match", func(t *testing.T) {
		assert.False(t, match.Overlaps("GPT", "BERT"))
	})

	t.Run("empty never matches", func(t *testing.T) {
		assert.False(t, match.Overlaps("", "anything"))
		assert.False(t, match.Overlaps("anything", "  "))
	})

	// Known over-match of the heuristic, preserved deliberately.
	t.Run("short titles over-match", func(t *testing.T) {
		assert.True(t, match.Overlaps("AI", "AI Safety Reading List"))
	})
}

func TestTitleSet(t *testing.T) {
	s := match.NewTitleSet("Attention Is All You Need", "BERT")

	assert.True(t, s.Contains("attention is all you need"))
	assert.True(t, s.Contains(" BERT "))
	assert.False(t, s.Contains("GPT-4"))

	s.Add("GPT-4")
	assert.True(t, s.Contains("gpt-4"))
}
