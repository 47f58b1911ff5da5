package discourse

// Config tunes the discourse tracker
type Config struct {
	// Capacity is the number of discourse units kept
	Capacity         int `json:"capacity" yaml:"capacity"`
	MaxKeywords      int `json:"max_keywords" yaml:"max_keywords"`
	MinKeywordLength int `json:"min_keyword_length" yaml:"min_keyword_length"`
	TopicHistorySize int `json:"topic_history_size" yaml:"topic_history_size"`
	IntentPatterns   int `json:"intent_patterns" yaml:"intent_patterns"`
	// CoherenceDecay is the weight of the previous coherence score; the
	// new observation gets 1-CoherenceDecay.
	CoherenceDecay float64 `json:"coherence_decay" yaml:"coherence_decay"`
	// RecentTopicChangeTurns is how many turns a topic change stays recent
	RecentTopicChangeTurns int `json:"recent_topic_change_turns" yaml:"recent_topic_change_turns"`
}

// DefaultConfig returns the stock tuning
func DefaultConfig() Config {
	return Config{
		Capacity:               10,
		MaxKeywords:            5,
		MinKeywordLength:       4,
		TopicHistorySize:       10,
		IntentPatterns:         5,
		CoherenceDecay:         0.7,
		RecentTopicChangeTurns: 2,
	}
}

// Merge overlays the non-zero fields of override onto base. Sizes floor at 1
// and the decay is clamped to [0,1].
func Merge(base, override Config) Config {
	out := base
	if override.Capacity != 0 {
		out.Capacity = override.Capacity
	}
	if override.MaxKeywords != 0 {
		out.MaxKeywords = override.MaxKeywords
	}
	if override.MinKeywordLength != 0 {
		out.MinKeywordLength = override.MinKeywordLength
	}
	if override.TopicHistorySize != 0 {
		out.TopicHistorySize = override.TopicHistorySize
	}
	if override.IntentPatterns != 0 {
		out.IntentPatterns = override.IntentPatterns
	}
	if override.CoherenceDecay != 0 {
		out.CoherenceDecay = override.CoherenceDecay
	}
	if override.RecentTopicChangeTurns != 0 {
		out.RecentTopicChangeTurns = override.RecentTopicChangeTurns
	}

	for _, n := range []*int{&out.Capacity, &out.MaxKeywords, &out.MinKeywordLength, &out.TopicHistorySize, &out.IntentPatterns, &out.RecentTopicChangeTurns} {
		if *n < 1 {
			*n = 1
		}
	}
	if out.CoherenceDecay < 0 {
		out.CoherenceDecay = 0
	}
	if out.CoherenceDecay > 1 {
		out.CoherenceDecay = 1
	}
	return out
}
