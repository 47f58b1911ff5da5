package duplex

import (
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"duplex-server/pkg/bargein"
	"duplex-server/pkg/phrases"
)

// Classifier classifies user speech that overlaps the AI.
// *bargein.Classifier satisfies it.
type Classifier interface {
	Classify(u bargein.Utterance) bargein.Result
}

// Input is one tick of the speaking-state feed
type Input struct {
	UserSpeaking  bool
	AiSpeaking    bool
	VADConfidence float64
	Transcript    string
}

// OverlapHandler decides what to do with the AI channel while the user and
// the AI talk at the same time. It owns the overlap timer, the tool-call
// gate and a per-overlap cache of transcript classifications.
type OverlapHandler struct {
	logger     *logrus.Entry
	config     Config
	classifier Classifier
	now        func() time.Time

	overlapStart time.Time
	inOverlap    bool
	toolCall     bool
	cache        map[string]bargein.Result
}

// NewOverlapHandler creates a handler. A nil classifier limits resolution to
// timing and VAD confidence.
func NewOverlapHandler(cfg Config, classifier Classifier, logger *logrus.Logger) *OverlapHandler {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &OverlapHandler{
		logger:     logger.WithField("component", "overlap_handler"),
		config:     Merge(DefaultConfig(), cfg),
		classifier: classifier,
		now:        time.Now,
		cache:      make(map[string]bargein.Result),
	}
}

// SetClock replaces the time source
func (h *OverlapHandler) SetClock(now func() time.Time) {
	if now != nil {
		h.now = now
	}
}

// SetToolCallActive opens or closes the tool-call gate
func (h *OverlapHandler) SetToolCallActive(active bool) {
	h.toolCall = active
}

// ToolCallActive reports whether the tool-call gate is open
func (h *OverlapHandler) ToolCallActive() bool {
	return h.toolCall
}

// UpdateConfig merges cfg over the active configuration
func (h *OverlapHandler) UpdateConfig(cfg Config) {
	h.config = Merge(h.config, cfg)
}

// Reset forgets the current overlap, the tool-call gate and cached
// classifications
func (h *OverlapHandler) Reset() {
	h.overlapStart = time.Time{}
	h.inOverlap = false
	h.toolCall = false
	h.cache = make(map[string]bargein.Result)
}

// Resolve returns the decision for one tick
func (h *OverlapHandler) Resolve(in Input) Resolution {
	if !(in.UserSpeaking && in.AiSpeaking) {
		return h.resolveSingle(in)
	}

	now := h.now()
	if !h.inOverlap {
		h.inOverlap = true
		h.overlapStart = now
		h.cache = make(map[string]bargein.Result)
	}
	duration := now.Sub(h.overlapStart)
	if duration < 0 {
		duration = 0
	}
	res := Resolution{OverlapDuration: duration}

	if in.VADConfidence < h.config.MinVADConfidence {
		res.Action = ActionContinueAi
		res.Reason = ReasonLowConfidence
		return res
	}

	if in.Transcript != "" && h.classifier != nil {
		result, cached := h.classify(in, duration)
		res.Classification = &result
		res.Cached = cached
		if h.resolveClassified(&res, result) {
			return res
		}
	}

	h.resolveByTiming(&res, in.VADConfidence)
	return res
}

// resolveSingle handles ticks where at most one party is speaking
func (h *OverlapHandler) resolveSingle(in Input) Resolution {
	ended := h.inOverlap
	h.inOverlap = false
	h.overlapStart = time.Time{}

	switch {
	case ended && in.AiSpeaking:
		return Resolution{Action: ActionContinueAi, Reason: ReasonOverlapEnded}
	case in.AiSpeaking:
		return Resolution{Action: ActionContinueAi, Reason: ReasonNoOverlap}
	case in.UserSpeaking:
		return Resolution{Action: ActionWait, Reason: ReasonUserTurn}
	default:
		return Resolution{Action: ActionWait, Reason: ReasonIdle}
	}
}

// classify runs the classifier once per distinct transcript within an
// overlap so repeated ticks do not inflate escalation counters
func (h *OverlapHandler) classify(in Input, duration time.Duration) (bargein.Result, bool) {
	key := phrases.NormalizeText(in.Transcript)
	if r, ok := h.cache[key]; ok {
		return r, true
	}
	r := h.classifier.Classify(bargein.Utterance{
		Transcript:     in.Transcript,
		DurationMs:     int(duration.Milliseconds()),
		VADProbability: in.VADConfidence,
		DuringAISpeech: true,
	})
	h.cache[key] = r
	h.logger.WithFields(logrus.Fields{
		"transcript":     in.Transcript,
		"classification": r.Classification,
		"intent":         r.Intent,
	}).Debug("Classified overlapping speech")
	return r, false
}

// resolveClassified maps a classification onto an action. It returns false
// when timing should decide instead.
func (h *OverlapHandler) resolveClassified(res *Resolution, r bargein.Result) bool {
	switch r.Classification {
	case bargein.Backchannel:
		if res.OverlapDuration >= h.config.InterruptAfter {
			return false
		}
		res.Action = ActionContinueAi
		res.Reason = ReasonBackchannel
		return true

	case bargein.Command, bargein.HardBarge, bargein.Correction:
		res.Reason = string(r.Classification)
		// An explicit stop outranks the tool-call gate
		if h.toolCall && !(r.Classification == bargein.Command && r.Intent == phrases.IntentStop) {
			res.Action = ActionFadeAi
			res.Reason = ReasonToolCall
			res.TargetVolume = h.config.SoftBargeVolume
			return true
		}
		res.Action = ActionInterruptAi
		return true

	case bargein.SoftBarge, bargein.Clarification, bargein.TopicChange, bargein.Disagreement:
		res.Action = ActionFadeAi
		res.Reason = string(r.Classification)
		res.TargetVolume = h.config.SoftBargeVolume
		return true

	default:
		return false
	}
}

func (h *OverlapHandler) resolveByTiming(res *Resolution, vad float64) {
	switch {
	case res.OverlapDuration < h.config.MinOverlap:
		res.Action = ActionWait
		res.Reason = ReasonOverlapTooShort
	case res.OverlapDuration >= h.config.InterruptAfter && vad >= h.config.InterruptVADConfidence:
		if h.toolCall {
			res.Action = ActionFadeAi
			res.Reason = ReasonToolCall
			res.TargetVolume = h.config.SoftBargeVolume
			return
		}
		res.Action = ActionInterruptAi
		res.Reason = ReasonSustainedOverlap
	default:
		res.Action = ActionFadeAi
		res.Reason = ReasonOverlap
		res.TargetVolume = h.config.SoftBargeVolume
	}
}
