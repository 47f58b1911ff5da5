package discourse

import "regexp"

var stopwords = toSet(
	"a", "about", "above", "after", "again", "against", "all", "also", "am", "an", "and", "any", "are", "as", "at",
	"be", "because", "been", "before", "being", "below", "between", "both", "but", "by",
	"can", "could", "did", "does", "doing", "dont", "down", "during", "each", "even", "ever",
	"few", "for", "from", "further", "going", "gonna", "had", "has", "have", "having", "he", "her", "here", "hers",
	"herself", "him", "himself", "his", "how", "i", "if", "im", "in", "into", "is", "it", "its", "itself", "just",
	"know", "like", "maybe", "me", "mean", "might", "more", "most", "much", "must", "my", "myself",
	"need", "no", "nor", "not", "now", "of", "off", "okay", "on", "once", "only", "or", "other", "our", "ours",
	"ourselves", "out", "over", "own", "please", "really", "right", "said", "same", "say", "she", "should", "so",
	"some", "still", "such", "than", "that", "thats", "the", "their", "theirs", "them", "themselves", "then",
	"there", "these", "they", "thing", "things", "think", "this", "those", "through", "to", "too", "under",
	"until", "up", "very", "want", "was", "we", "well", "were", "what", "when", "where", "which", "while", "who",
	"whom", "why", "will", "with", "would", "yeah", "yes", "you", "your", "yours", "yourself", "yourselves",
)

var interrogatives = toSet(
	"what", "why", "how", "when", "where", "who", "whom", "whose", "which",
	"can", "could", "would", "will", "is", "are", "am", "do", "does", "did", "should", "may", "shall", "isnt", "arent",
)

var imperatives = toSet(
	"stop", "tell", "show", "give", "send", "open", "close", "play", "call", "find", "book", "cancel",
	"go", "please", "set", "start", "turn", "make", "check", "let", "repeat", "continue", "wait",
)

var acknowledgments = toSet(
	"yes", "yeah", "yep", "yup", "ok", "okay", "sure", "right", "alright", "thanks", "thank",
	"great", "perfect", "agreed", "exactly", "uh", "mm", "mhm", "fine", "cool", "got",
)

// topicCategory maps a fixed topic label to the phrases that signal it
type topicCategory struct {
	name    string
	phrases []string
}

// topicCategories is scanned in order; the first category with a match wins
var topicCategories = []topicCategory{
	{"greeting", []string{"hello", "hi", "hey", "good morning", "good afternoon", "good evening", "greetings"}},
	{"help", []string{"help", "assist", "assistance", "support", "problem", "issue", "trouble"}},
	{"question", []string{"question", "wondering", "curious", "ask"}},
	{"command", []string{"i want you to", "go ahead and", "please do", "do it"}},
	{"farewell", []string{"bye", "goodbye", "see you", "farewell", "take care"}},
	{"clarification", []string{"what do you mean", "clarify", "explain", "confused", "understand"}},
	{"confirmation", []string{"yes", "correct", "exactly", "confirm", "confirmed"}},
	{"negation", []string{"no", "nope", "never", "wrong"}},
}

// phaseRule moves the conversation to phase `to` when pattern matches and the
// current phase is in from. A nil from allows any phase.
type phaseRule struct {
	from    map[Phase]bool
	pattern *regexp.Regexp
	to      Phase
}

// phaseRules is scanned in order; the first applicable rule wins
var phaseRules = []phaseRule{
	{
		from:    nil,
		pattern: regexp.MustCompile(`\b(goodbye|bye|that's all|that is all|see you|talk to you later|have a (good|nice|great) (day|one|evening))\b`),
		to:      PhaseClosing,
	},
	{
		from:    phaseSet(PhaseOpening, PhaseInformationGathering, PhaseExplanation, PhaseDiscussion, PhaseSummary, PhaseClarification),
		pattern: regexp.MustCompile(`what do you mean|clarify|(don't|do not) understand|could you explain|say that again|\bhuh\b|confused|not sure what you`),
		to:      PhaseClarification,
	},
	{
		from:    phaseSet(PhaseOpening, PhaseDiscussion, PhaseClarification, PhaseSummary),
		pattern: regexp.MustCompile(`\b(need|want|help|looking for|how (do|can) i|can you|i'd like|i would like)\b`),
		to:      PhaseInformationGathering,
	},
	{
		from:    phaseSet(PhaseInformationGathering, PhaseClarification, PhaseDiscussion),
		pattern: regexp.MustCompile(`\b(because|the reason|let me explain|this means|in other words|for example|basically)\b`),
		to:      PhaseExplanation,
	},
	{
		from:    phaseSet(PhaseInformationGathering, PhaseExplanation, PhaseClarification),
		pattern: regexp.MustCompile(`\b(i think|in my opinion|what about|what if|however|on the other hand|i agree|i disagree)\b`),
		to:      PhaseDiscussion,
	},
	{
		from:    phaseSet(PhaseExplanation, PhaseDiscussion, PhaseInformationGathering),
		pattern: regexp.MustCompile(`\b(to summarize|in summary|so basically|overall|in short|to recap|let me recap)\b`),
		to:      PhaseSummary,
	},
}

// Intent pattern tags, detected on user turns only
const (
	PatternSeekingInformation   = "seeking_information"
	PatternTaskRequest          = "task_request"
	PatternSeekingConfirmation  = "seeking_confirmation"
	PatternExpressingPreference = "expressing_preference"
	PatternDisagreement         = "disagreement"
)

var intentPatternRules = []struct {
	tag     string
	pattern *regexp.Regexp
}{
	{PatternSeekingInformation, regexp.MustCompile(`\b(what|how|why|when|where|who|which|tell me|explain)\b`)},
	{PatternTaskRequest, regexp.MustCompile(`\b(can you|could you|would you|please|i need|i want|help me)\b`)},
	{PatternSeekingConfirmation, regexp.MustCompile(`\b(is that right|right\?|correct\?|is that correct|are you sure|confirm)`)},
	{PatternExpressingPreference, regexp.MustCompile(`\b(i prefer|i'd rather|i would rather|i like|i love|i'd like|i would like)\b`)},
	{PatternDisagreement, regexp.MustCompile(`\b(no|not really|disagree|wrong|i don't think|that's not)\b`)},
}

func toSet(words ...string) map[string]bool {
	out := make(map[string]bool, len(words))
	for _, w := range words {
		out[w] = true
	}
	return out
}

func phaseSet(phases ...Phase) map[Phase]bool {
	out := make(map[Phase]bool, len(phases))
	for _, p := range phases {
		out[p] = true
	}
	return out
}
