package phrases

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLanguage(t *testing.T) {
	cases := map[string]Language{
		"en":    English,
		"EN":    English,
		"en-US": English,
		"pt_BR": Portuguese,
		"zh":    Chinese,
		"tr":    Turkish,
		"xx":    English,
		"":      English,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLanguage(in), "input %q", in)
	}
}

func TestEveryLanguageHasATable(t *testing.T) {
	for _, lang := range SupportedLanguages() {
		table := For(lang)
		assert.Equal(t, lang, table.Language)
		assert.NotEmpty(t, table.Backchannels, lang)
		assert.NotEmpty(t, table.SoftBarges, lang)
		assert.NotEmpty(t, table.HardBarges, lang)
		assert.NotEmpty(t, table.Commands, lang)
		assert.NotEmpty(t, table.Corrections, lang)
		assert.NotEmpty(t, table.Clarifications, lang)
		assert.NotEmpty(t, table.Acknowledgments, lang)

		for _, p := range table.Backchannels {
			assert.Positive(t, p.MaxDuration, lang)
		}
		for _, p := range table.Commands {
			assert.NotEmpty(t, p.CommandType, lang)
			assert.NotZero(t, p.Priority.Rank(), lang)
		}
	}
}

func TestForFallsBackToEnglish(t *testing.T) {
	table := For(Language("xx"))
	assert.Equal(t, English, table.Language)
}

func TestForReturnsIndependentCopies(t *testing.T) {
	first := For(English)
	first.Backchannels[0].Phrases[0] = "mutated"
	first.Corrections = nil

	second := For(English)
	assert.NotEqual(t, "mutated", second.Backchannels[0].Phrases[0])
	assert.NotEmpty(t, second.Corrections)
}

func TestTablePhrasesAreNormalized(t *testing.T) {
	table := For(English)
	for _, p := range table.Backchannels {
		for _, phrase := range p.Phrases {
			assert.Equal(t, NormalizeText(phrase), phrase)
		}
	}
	assert.Contains(t, table.Backchannels[0].Phrases, "uh huh")
}

func TestNormalizeText(t *testing.T) {
	cases := []struct{ in, want string }{
		{"  Uh-huh!  ", "uh huh"},
		{"STOP talking.", "stop talking"},
		{"don't   do that", "dont do that"},
		{"that’s wrong", "thats wrong"},
		{"mm... hmm", "mm hmm"},
		{"", ""},
		{"¿Qué quieres decir?", "qué quieres decir"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, NormalizeText(c.in), "input %q", c.in)
	}
}

func TestMatchers(t *testing.T) {
	assert.True(t, MatchesPhrase("stop talking", "stop talking"))
	assert.True(t, MatchesPhrase("stop talking please", "stop talking"))
	assert.True(t, MatchesPhrase("please stop talking", "stop talking"))
	assert.False(t, MatchesPhrase("stop talkings", "stop talking"))

	assert.True(t, StartsWithPhrase("uh huh", "uh huh"))
	assert.True(t, StartsWithPhrase("uh huh yeah", "uh huh"))
	assert.False(t, StartsWithPhrase("yeah uh huh", "uh huh"))
	assert.False(t, StartsWithPhrase("", "uh huh"))

	assert.True(t, ContainsPhrase("sorry what do you mean by that", "what do you mean"))
	assert.True(t, ContainsPhrase("huh", "huh"))
	assert.False(t, ContainsPhrase("i said huh", "huh"))
	assert.False(t, ContainsPhrase("somewhat do you mean", "what do you mean"))
}

func TestPriority(t *testing.T) {
	assert.Equal(t, "critical", PriorityCritical.String())
	assert.Equal(t, 1, PriorityLow.Rank())
	assert.Equal(t, 4, PriorityCritical.Rank())
	assert.Equal(t, 0, Priority(9).Rank())

	text, err := PriorityHigh.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "high", string(text))
}
