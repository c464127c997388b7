package translate

import "context"

// Segment is one bounded unit of transcribed speech, as delivered by the
// external transcription feed. SegmentIndex is strictly increasing per call
// and defines both storage and playback order.
type Segment struct {
	CallID              string  `json:"call_id"`
	OrganizationID      string  `json:"organization_id"`
	OriginalText        string  `json:"original_text"`
	SourceLanguage      string  `json:"source_language"`
	TargetLanguage      string  `json:"target_language"`
	SegmentIndex        int     `json:"segment_index"`
	Confidence          float32 `json:"confidence"`
	VoiceToVoice        bool    `json:"voice_to_voice"`
	TargetCallControlID string  `json:"target_call_control_id,omitempty"`
}

// Result is the orchestrator's report for one processed segment. Success
// reflects the translation stage only; synthesis and injection failures are
// absorbed downstream.
type Result struct {
	Success        bool   `json:"success"`
	TranslatedText string `json:"translated_text"`
	SegmentIndex   int    `json:"segment_index"`
	Err            string `json:"error,omitempty"`
}

// SynthesisRequest asks for translated text to be rendered as speech for one
// segment.
type SynthesisRequest struct {
	Text         string
	Language     string
	CallID       string
	SegmentIndex int
}

// SynthesisResult is a publicly playable audio reference plus its duration.
type SynthesisResult struct {
	AudioURL   string
	DurationMs int
}

// Synthesizer renders text to speech. Implemented by synth.Service.
type Synthesizer interface {
	Synthesize(ctx context.Context, req SynthesisRequest) (*SynthesisResult, error)
}

// InjectionRequest asks for synthesized audio to be played into a live call
// leg. TargetCallControlID names the physical leg that should hear it, which
// for bridged calls is usually not the transcript-owning leg.
type InjectionRequest struct {
	CallID              string
	OrganizationID      string
	SegmentIndex        int
	AudioURL            string
	DurationMs          int
	TargetCallControlID string
}

// InjectionResult carries the provider's playback identifier.
type InjectionResult struct {
	InjectionID string
}

// Injector delivers audio into live calls. Implemented by inject.Queue.
type Injector interface {
	Inject(ctx context.Context, req InjectionRequest) (*InjectionResult, error)
}
