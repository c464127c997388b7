package translate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/voxbridge/lt-engine/internal/database"
	"github.com/voxbridge/lt-engine/internal/metrics"
)

// RecordStore persists translation records. Implemented by *database.DB.
type RecordStore interface {
	InsertTranslation(ctx context.Context, row *database.TranslationRow) (int64, error)
	SetTranslationAudio(ctx context.Context, callID string, segmentIndex int, audioURL string, durationMs int) error
}

// EventPublishFunc is a callback for publishing translation events to
// downstream subscribers. Delivery retry belongs to the subscriber side.
type EventPublishFunc func(eventType, orgID, callID string, payload map[string]any)

// ProcessorOptions configures the segment orchestrator.
type ProcessorOptions struct {
	Store        RecordStore
	Calls        CallDirectory
	Translator   Translator
	Synthesizer  Synthesizer // nil disables voice-to-voice
	Injector     Injector    // nil disables voice-to-voice
	PublishEvent EventPublishFunc
	Log          zerolog.Logger
}

// Processor coordinates the translate → synthesize → inject pipeline for one
// segment at a time. Failure is isolated by stage: the persisted record and
// the reported success flag always reflect the translation stage, with audio
// fields populated only as far as the pipeline actually got.
type Processor struct {
	store      RecordStore
	router     *BridgeRouter
	translator Translator
	synth      Synthesizer
	injector   Injector
	publish    EventPublishFunc
	log        zerolog.Logger
}

func NewProcessor(opts ProcessorOptions) *Processor {
	return &Processor{
		store:      opts.Store,
		router:     NewBridgeRouter(opts.Calls, opts.Log),
		translator: opts.Translator,
		synth:      opts.Synthesizer,
		injector:   opts.Injector,
		publish:    opts.PublishEvent,
		log:        opts.Log,
	}
}

// TranslateAndStore processes one segment end to end. It always persists
// exactly one translation record (the duplicate-segment case is treated as
// already recorded), and never lets a synthesis or injection failure
// invalidate a successful translation.
func (p *Processor) TranslateAndStore(ctx context.Context, seg Segment) Result {
	metrics.SegmentsTotal.Inc()

	callID := p.router.ResolveCallID(ctx, seg.CallID)

	// Identical source and target language short-circuits the provider call
	// entirely; the transcript still gets a record for the segment.
	if seg.SourceLanguage == seg.TargetLanguage {
		metrics.TranslationsTotal.WithLabelValues("passthrough").Inc()
		outcome := Outcome{Kind: OutcomeOK, Text: seg.OriginalText}
		if res, done := p.persist(ctx, seg, callID, outcome); done {
			return res
		}
		p.publishTranslation(seg, callID, seg.OriginalText, true)
		return Result{Success: true, TranslatedText: seg.OriginalText, SegmentIndex: seg.SegmentIndex}
	}

	start := time.Now()
	outcome := p.translator.Translate(ctx, seg.OriginalText, seg.SourceLanguage, seg.TargetLanguage)
	metrics.TranslationDuration.Observe(time.Since(start).Seconds())

	switch outcome.Kind {
	case OutcomeOK:
		metrics.TranslationsTotal.WithLabelValues("ok").Inc()
	case OutcomeUpstream:
		metrics.TranslationsTotal.WithLabelValues("upstream_error").Inc()
		p.log.Error().
			Int("status", outcome.Status).
			Str("call_id", seg.CallID).
			Int("segment_index", seg.SegmentIndex).
			Msg("OpenAI translation failed")
	case OutcomeTransport:
		metrics.TranslationsTotal.WithLabelValues("transport_error").Inc()
		p.log.Error().
			Err(outcome.Err).
			Str("call_id", seg.CallID).
			Int("segment_index", seg.SegmentIndex).
			Msg("Translation processor error")
	}

	stored := outcome.StoredText(seg.OriginalText)

	if res, done := p.persist(ctx, seg, callID, outcome); done {
		return res
	}
	p.publishTranslation(seg, callID, stored, outcome.OK())

	if !outcome.OK() {
		return Result{
			Success:        false,
			TranslatedText: stored,
			SegmentIndex:   seg.SegmentIndex,
			Err:            outcome.errorMessage(),
		}
	}

	ok := Result{Success: true, TranslatedText: stored, SegmentIndex: seg.SegmentIndex}

	if !seg.VoiceToVoice {
		return ok
	}
	if p.synth == nil || p.injector == nil {
		p.log.Warn().
			Str("call_id", callID).
			Int("segment_index", seg.SegmentIndex).
			Msg("voice-to-voice requested but synthesis is not configured, text-only")
		return ok
	}

	synthRes, err := p.synth.Synthesize(ctx, SynthesisRequest{
		Text:         stored,
		Language:     seg.TargetLanguage,
		CallID:       callID,
		SegmentIndex: seg.SegmentIndex,
	})
	if err != nil {
		metrics.SynthesisTotal.WithLabelValues("error").Inc()
		p.log.Warn().
			Err(err).
			Str("call_id", callID).
			Int("segment_index", seg.SegmentIndex).
			Msg("TTS synthesis failed, falling back to text-only")
		return ok
	}
	metrics.SynthesisTotal.WithLabelValues("ok").Inc()

	if err := p.store.SetTranslationAudio(ctx, callID, seg.SegmentIndex, synthRes.AudioURL, synthRes.DurationMs); err != nil {
		p.log.Warn().
			Err(err).
			Str("call_id", callID).
			Int("segment_index", seg.SegmentIndex).
			Msg("failed to record audio fields on translation")
	}

	injRes, err := p.injector.Inject(ctx, InjectionRequest{
		CallID:              callID,
		OrganizationID:      seg.OrganizationID,
		SegmentIndex:        seg.SegmentIndex,
		AudioURL:            synthRes.AudioURL,
		DurationMs:          synthRes.DurationMs,
		TargetCallControlID: seg.TargetCallControlID,
	})
	if err != nil {
		p.log.Warn().
			Err(err).
			Str("call_id", callID).
			Int("segment_index", seg.SegmentIndex).
			Msg("Audio injection failed, text-only translation available")
		return ok
	}

	p.log.Info().
		Str("call_id", callID).
		Int("segment_index", seg.SegmentIndex).
		Str("injection_id", injRes.InjectionID).
		Msg("Voice-to-voice translation completed")

	return ok
}

// persist inserts the translation record. The returned Result is final when
// done is true: either the segment was already recorded (reported as success,
// downstream stages skipped) or the insert failed outright.
func (p *Processor) persist(ctx context.Context, seg Segment, callID string, outcome Outcome) (Result, bool) {
	stored := outcome.StoredText(seg.OriginalText)
	row := &database.TranslationRow{
		CallID:         callID,
		OrganizationID: seg.OrganizationID,
		SourceLanguage: seg.SourceLanguage,
		TargetLanguage: seg.TargetLanguage,
		OriginalText:   seg.OriginalText,
		TranslatedText: stored,
		SegmentIndex:   seg.SegmentIndex,
		Confidence:     seg.Confidence,
	}

	_, err := p.store.InsertTranslation(ctx, row)
	if err == nil {
		return Result{}, false
	}

	if errors.Is(err, database.ErrDuplicateSegment) {
		metrics.TranslationsTotal.WithLabelValues("duplicate").Inc()
		p.log.Debug().
			Str("call_id", callID).
			Int("segment_index", seg.SegmentIndex).
			Msg("segment already recorded, skipping")
		return Result{Success: true, TranslatedText: stored, SegmentIndex: seg.SegmentIndex}, true
	}

	p.log.Error().
		Err(err).
		Str("call_id", callID).
		Int("segment_index", seg.SegmentIndex).
		Msg("translation record insert failed")
	return Result{Success: false, TranslatedText: stored, SegmentIndex: seg.SegmentIndex, Err: err.Error()}, true
}

func (p *Processor) publishTranslation(seg Segment, callID, translated string, success bool) {
	if p.publish == nil {
		return
	}
	p.publish("translation", seg.OrganizationID, callID, map[string]any{
		"call_id":         callID,
		"organization_id": seg.OrganizationID,
		"segment_index":   seg.SegmentIndex,
		"original_text":   seg.OriginalText,
		"translated_text": translated,
		"source_language": seg.SourceLanguage,
		"target_language": seg.TargetLanguage,
		"success":         success,
	})
}

func (o Outcome) errorMessage() string {
	switch o.Kind {
	case OutcomeUpstream:
		return fmt.Sprintf("translation provider returned status %d", o.Status)
	case OutcomeTransport:
		if o.Err != nil {
			return o.Err.Error()
		}
		return "translation transport error"
	default:
		return ""
	}
}
