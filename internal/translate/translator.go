package translate

import "context"

// Fallback prefixes stored in place of a translation when the provider fails.
// The tagged text keeps the transcript complete and makes the degradation
// visible to downstream consumers.
const (
	FallbackUnavailable = "[Translation unavailable] "
	FallbackError       = "[Translation error] "
)

// OutcomeKind classifies the result of one translation attempt.
type OutcomeKind int

const (
	OutcomeOK        OutcomeKind = iota // Text holds the translation
	OutcomeUpstream                     // provider returned non-200; Status holds the code
	OutcomeTransport                    // network/timeout/malformed body; Err holds the cause
)

// Outcome is the tagged result of a translation attempt. Control flow branches
// on Kind; the stored transcript string is derived only at the persistence
// boundary via StoredText.
type Outcome struct {
	Kind   OutcomeKind
	Text   string
	Status int
	Err    error
}

// OK reports whether the translation stage succeeded.
func (o Outcome) OK() bool { return o.Kind == OutcomeOK }

// StoredText derives the text persisted for this outcome. Failures keep the
// original text behind a recognizable prefix rather than dropping the segment.
func (o Outcome) StoredText(original string) string {
	switch o.Kind {
	case OutcomeOK:
		return o.Text
	case OutcomeUpstream:
		return FallbackUnavailable + original
	default:
		return FallbackError + original
	}
}

// Translator is the interface for translation backends.
type Translator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) Outcome
	Name() string // "openai"
}
