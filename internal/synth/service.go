// Package synth renders translated text to speech and stages the audio for
// playback. A synthesis failure is reported to the caller but never fails the
// segment: the text translation is already persisted by then.
package synth

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/voxbridge/lt-engine/internal/translate"
)

// mp3BitrateKbps is the fixed bitrate of the provider's MP3 output, used to
// derive playback duration from the byte count when the provider does not
// report one.
const mp3BitrateKbps = 128

// AudioStore persists synthesized audio and returns a public URL.
// Implemented by *storage.S3Store.
type AudioStore interface {
	Save(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// Speaker renders text with a specific voice. Implemented by *ElevenLabsClient.
type Speaker interface {
	Speak(ctx context.Context, text, voiceID string) ([]byte, error)
}

// Service implements translate.Synthesizer: voice lookup, TTS, upload.
type Service struct {
	tts    Speaker
	store  AudioStore
	voices *VoiceMap
	log    zerolog.Logger
}

func NewService(tts Speaker, store AudioStore, voices *VoiceMap, log zerolog.Logger) *Service {
	return &Service{
		tts:    tts,
		store:  store,
		voices: voices,
		log:    log.With().Str("component", "synth").Logger(),
	}
}

// Synthesize renders one segment's translated text and uploads the result.
func (s *Service) Synthesize(ctx context.Context, req translate.SynthesisRequest) (*translate.SynthesisResult, error) {
	voiceID, ok := s.voices.Voice(req.Language)
	if !ok {
		return nil, fmt.Errorf("no voice configured for language %q", req.Language)
	}

	audio, err := s.tts.Speak(ctx, req.Text, voiceID)
	if err != nil {
		return nil, fmt.Errorf("tts: %w", err)
	}

	key := fmt.Sprintf("%s/%d.mp3", req.CallID, req.SegmentIndex)
	url, err := s.store.Save(ctx, key, audio, "audio/mpeg")
	if err != nil {
		return nil, fmt.Errorf("store audio: %w", err)
	}

	durationMs := EstimateDurationMs(len(audio))

	s.log.Debug().
		Str("call_id", req.CallID).
		Int("segment_index", req.SegmentIndex).
		Str("voice_id", voiceID).
		Int("duration_ms", durationMs).
		Msg("segment synthesized")

	return &translate.SynthesisResult{AudioURL: url, DurationMs: durationMs}, nil
}

// EstimateDurationMs derives playback duration from MP3 byte length at the
// provider's fixed bitrate.
func EstimateDurationMs(byteLen int) int {
	return byteLen * 8 / mp3BitrateKbps
}
