package bargein

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"duplex-server/pkg/phrases"
)

func newTestDetector(cfg Config) (*BackchannelDetector, *fakeClock) {
	clock := newFakeClock()
	d := NewBackchannelDetector(cfg, nil)
	d.now = clock.Now
	return d, clock
}

func TestDetectRejectsLongUtterances(t *testing.T) {
	d, _ := newTestDetector(Config{})

	for _, text := range []string{"uh huh", "yeah", "okay", "mm hmm"} {
		r := d.Detect(text, 801, 1.0)
		assert.False(t, r.IsBackchannel, text)
		assert.Empty(t, r.MatchedPhrase, text)
	}
	assert.Zero(t, d.RecentCount())
}

func TestDetectExactMatchAllowsTrailingFiller(t *testing.T) {
	d, _ := newTestDetector(Config{})

	r := d.Detect("Yeah, right", 500, 0.9)
	assert.True(t, r.IsBackchannel)
	assert.Equal(t, "yeah", r.MatchedPhrase)
	assert.Equal(t, 1.0, r.Similarity)
}

func TestDetectPerPatternMaxDuration(t *testing.T) {
	d, _ := newTestDetector(Config{})

	// "uh huh" is only accepted up to 600ms
	r := d.Detect("uh huh", 700, 1.0)
	assert.NotEqual(t, "uh huh", r.MatchedPhrase)
}

func TestDetectFuzzy(t *testing.T) {
	d, _ := newTestDetector(Config{})

	r := d.Detect("uh hu", 300, 0.9)
	assert.True(t, r.IsBackchannel)
	assert.Equal(t, "uh huh", r.MatchedPhrase)
	assert.InDelta(t, 5.0/6.0, r.Similarity, 1e-9)

	off, _ := newTestDetector(Config{FuzzyMatching: Bool(false)})
	assert.False(t, off.Detect("uh hu", 300, 0.9).IsBackchannel)
}

func TestDetectLowConfidence(t *testing.T) {
	d, _ := newTestDetector(Config{})

	r := d.Detect("yeah", 400, 0.3)
	assert.False(t, r.IsBackchannel)
	assert.Equal(t, "yeah", r.MatchedPhrase)
	assert.False(t, r.ShouldEscalate)
}

func TestEscalationForcesNegative(t *testing.T) {
	d, clock := newTestDetector(Config{EscalationThreshold: 2, EscalationWindow: time.Second})

	assert.True(t, d.Detect("okay", 300, 0.9).IsBackchannel)
	clock.Advance(200 * time.Millisecond)

	second := d.Detect("okay", 300, 0.9)
	assert.True(t, second.ShouldEscalate)
	assert.False(t, second.IsBackchannel)
	assert.Equal(t, 2, second.RecentCount)

	clock.Advance(2 * time.Second)
	assert.Zero(t, d.RecentCount())
	assert.True(t, d.Detect("okay", 300, 0.9).IsBackchannel)
}

func TestEscalationIsPerPhrase(t *testing.T) {
	d, _ := newTestDetector(Config{})

	d.Detect("okay", 300, 0.9)
	d.Detect("yeah", 300, 0.9)
	r := d.Detect("uh huh", 300, 0.9)

	assert.True(t, r.IsBackchannel)
	assert.Equal(t, 3, r.RecentCount)
}

func TestDetectorReset(t *testing.T) {
	d, _ := newTestDetector(Config{})

	first := d.Detect("uh huh", 300, 0.9)
	d.Detect("uh huh", 300, 0.9)
	d.Reset()

	assert.Zero(t, d.RecentCount())
	assert.Equal(t, first, d.Detect("uh huh", 300, 0.9))
}

func TestDetectSoftBarge(t *testing.T) {
	d, _ := newTestDetector(Config{})

	r := d.DetectSoftBarge("Hold on, I have a question")
	assert.True(t, r.IsSoftBarge)
	assert.Equal(t, "hold on", r.MatchedPhrase)
	assert.False(t, r.RequiresFollowUp)

	r = d.DetectSoftBarge("actually")
	assert.True(t, r.IsSoftBarge)
	assert.True(t, r.RequiresFollowUp)

	assert.False(t, d.DetectSoftBarge("I was waiting").IsSoftBarge)
}

func TestDetectorLanguageFallback(t *testing.T) {
	d, _ := newTestDetector(Config{Language: phrases.Language("klingon")})
	assert.Equal(t, phrases.English, d.Config().Language)

	d.SetLanguage(phrases.German)
	assert.True(t, d.Detect("genau", 300, 0.9).IsBackchannel)
}

func TestMergeClamps(t *testing.T) {
	cfg := Merge(DefaultConfig(), Config{
		MinConfidence:       1.7,
		FuzzyThreshold:      -0.5,
		EscalationThreshold: -4,
		HistorySize:         -1,
	})
	assert.Equal(t, 1.0, cfg.MinConfidence)
	assert.Equal(t, 0.0, cfg.FuzzyThreshold)
	assert.Equal(t, 1, cfg.EscalationThreshold)
	assert.Equal(t, 1, cfg.HistorySize)
	assert.Equal(t, 800*time.Millisecond, cfg.MaxBackchannelDuration)

	base := DefaultConfig()
	_ = Merge(base, Config{FuzzyMatching: Bool(false)})
	assert.True(t, *base.FuzzyMatching)
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, similarity("okay", "okay"))
	assert.Equal(t, 0.0, similarity("", "okay"))
	assert.InDelta(t, 0.75, similarity("okey", "okay"), 1e-9)
	assert.Equal(t, 3, levenshtein([]rune("kitten"), []rune("sitting")))
}
