package discourse

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhaseProgression(t *testing.T) {
	tr := NewTracker(Config{}, nil)
	assert.Equal(t, PhaseOpening, tr.Phase())

	s := tr.Update("hello", SpeakerUser)
	assert.Equal(t, PhaseOpening, s.Phase)
	assert.Equal(t, "greeting", s.Topic)

	s = tr.Update("I need help with my order", SpeakerUser)
	assert.Equal(t, PhaseInformationGathering, s.Phase)
	assert.Equal(t, "help", s.Topic)

	s = tr.Update("what do you mean by that", SpeakerUser)
	assert.Equal(t, PhaseClarification, s.Phase)
	assert.GreaterOrEqual(t, s.TopicShiftCount, 1)
	assert.Equal(t, []string{"greeting", "help"}, tr.TopicHistory())
}

func TestPhaseRulesRespectAllowedPhases(t *testing.T) {
	tr := NewTracker(Config{}, nil)

	// explanation is not reachable from the opening
	tr.Update("because the sky is blue", SpeakerAI)
	assert.Equal(t, PhaseOpening, tr.Phase())

	tr.Update("can you tell me about pricing", SpeakerUser)
	assert.Equal(t, PhaseInformationGathering, tr.Phase())

	tr.Update("the reason is that plans are billed monthly", SpeakerAI)
	assert.Equal(t, PhaseExplanation, tr.Phase())

	tr.Update("I think the annual plan is better", SpeakerUser)
	assert.Equal(t, PhaseDiscussion, tr.Phase())

	tr.Update("to summarize, the annual plan suits you", SpeakerAI)
	assert.Equal(t, PhaseSummary, tr.Phase())

	tr.Update("great, goodbye", SpeakerUser)
	assert.Equal(t, PhaseClosing, tr.Phase())
}

func TestContentTypes(t *testing.T) {
	cases := []struct {
		text string
		want ContentType
	}{
		{"Is it raining", ContentQuestion},
		{"it is raining?", ContentQuestion},
		{"Show me the forecast", ContentCommand},
		{"okay sounds good", ContentAcknowledgment},
		{"the forecast looks fine", ContentStatement},
		{"", ContentStatement},
	}
	for _, c := range cases {
		tr := NewTracker(Config{}, nil)
		s := tr.Update(c.text, SpeakerUser)
		require.Len(t, s.RecentUnits, 1)
		assert.Equal(t, c.want, s.RecentUnits[0].ContentType, c.text)
	}
}

func TestKeywordExtraction(t *testing.T) {
	tr := NewTracker(Config{}, nil)
	s := tr.Update("Please book a flight to Paris and a hotel near the Louvre, flight first", SpeakerUser)

	unit := s.RecentUnits[0]
	assert.Equal(t, []string{"book", "flight", "paris", "hotel", "near"}, unit.TopicKeywords)
	assert.NotEmpty(t, unit.ID)
	assert.Equal(t, 0, unit.TurnIndex)
}

func TestKeywordTopicFallback(t *testing.T) {
	tr := NewTracker(Config{}, nil)

	tr.Update("tell me about the weather forecast", SpeakerUser)
	assert.Empty(t, tr.Topic())

	tr.Update("the forecast shows rain tomorrow", SpeakerAI)
	assert.Equal(t, "forecast", tr.Topic())
	assert.True(t, tr.HasRecentTopicChange())
	assert.Zero(t, tr.State().TopicShiftCount)
}

func TestHasRecentTopicChange(t *testing.T) {
	tr := NewTracker(Config{}, nil)
	assert.False(t, tr.HasRecentTopicChange())

	tr.Update("hello", SpeakerUser)
	assert.True(t, tr.HasRecentTopicChange())

	tr.Update("it is sunny", SpeakerUser)
	assert.True(t, tr.HasRecentTopicChange())

	tr.Update("we went outside", SpeakerUser)
	assert.False(t, tr.HasRecentTopicChange())
}

func TestCoherence(t *testing.T) {
	tr := NewTracker(Config{}, nil)

	s := tr.Update("tell me about hotels in paris", SpeakerUser)
	assert.Equal(t, 1.0, s.Coherence)

	// no overlap: 0.7*1.0 + 0.3*0
	s = tr.Update("bananas contain potassium", SpeakerAI)
	assert.InDelta(t, 0.7, s.Coherence, 1e-9)

	// full overlap through substring containment: 0.7*0.7 + 0.3*1
	s = tr.Update("paris hotel", SpeakerUser)
	assert.InDelta(t, 0.79, s.Coherence, 1e-9)

	// no keywords counts as coherent
	s = tr.Update("yes", SpeakerUser)
	assert.InDelta(t, 0.7*0.79+0.3, s.Coherence, 1e-9)
}

func TestIntentPatterns(t *testing.T) {
	tr := NewTracker(Config{}, nil)

	s := tr.Update("could you tell me what time it is", SpeakerUser)
	assert.Equal(t, []string{PatternSeekingInformation, PatternTaskRequest}, s.IntentPatterns)

	s = tr.Update("what would you like", SpeakerAI)
	assert.Len(t, s.IntentPatterns, 2)

	for i := 0; i < 5; i++ {
		s = tr.Update("no, I prefer the other one", SpeakerUser)
	}
	assert.Len(t, s.IntentPatterns, 5)
	assert.Equal(t, PatternDisagreement, s.IntentPatterns[4])
}

func TestUnitsAreBounded(t *testing.T) {
	tr := NewTracker(Config{Capacity: 4}, nil)

	for i := 0; i < 25; i++ {
		s := tr.Update(fmt.Sprintf("message number %d", i), SpeakerUser)
		assert.LessOrEqual(t, len(s.RecentUnits), 4)
	}
	s := tr.State()
	require.Len(t, s.RecentUnits, 4)
	assert.Equal(t, 24, s.RecentUnits[3].TurnIndex)
	assert.Equal(t, 25, s.TurnCount)
}

func TestResetReproducesState(t *testing.T) {
	tr := NewTracker(Config{}, nil)
	inputs := []string{"hello", "I need help with my order", "what do you mean by that", "order 1234 never arrived"}

	run := func() []State {
		var out []State
		for _, in := range inputs {
			out = append(out, tr.Update(in, SpeakerUser))
		}
		return out
	}

	first := run()
	tr.Reset()
	assert.Equal(t, PhaseOpening, tr.Phase())
	assert.Empty(t, tr.Topic())
	second := run()

	for i := range first {
		assert.Equal(t, first[i].Topic, second[i].Topic)
		assert.Equal(t, first[i].Phase, second[i].Phase)
		assert.Equal(t, first[i].Coherence, second[i].Coherence)
		assert.Equal(t, first[i].TopicShiftCount, second[i].TopicShiftCount)
		assert.Equal(t, first[i].IntentPatterns, second[i].IntentPatterns)
		assert.Equal(t, len(first[i].RecentUnits), len(second[i].RecentUnits))
	}
}

func TestStateIsACopy(t *testing.T) {
	tr := NewTracker(Config{}, nil)
	s := tr.Update("hello there", SpeakerUser)
	s.RecentUnits[0].Text = "mutated"

	assert.Equal(t, "hello there", tr.State().RecentUnits[0].Text)
}

func TestMerge(t *testing.T) {
	cfg := Merge(DefaultConfig(), Config{Capacity: -3, CoherenceDecay: 2})
	assert.Equal(t, 1, cfg.Capacity)
	assert.Equal(t, 1.0, cfg.CoherenceDecay)
	assert.Equal(t, 5, cfg.MaxKeywords)
}
