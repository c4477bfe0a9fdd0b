// Package learning records how commands were handled and what users thought
// of the answers. It is observational: nothing here changes how a command is
// classified or executed.
package learning

import (
	"context"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Confidence bounds for learned patterns.
const (
	InitialConfidence = 0.7
	MinConfidence     = 0.1
	MaxConfidence     = 1.0
	confidenceStep    = 0.1
)

// Interaction is one processed command.
type Interaction struct {
	Command string    `json:"command"`
	Intent  string    `json:"intent"`
	Success bool      `json:"success"`
	At      time.Time `json:"at"`
}

// Rating is a user's verdict on a response.
type Rating string

// Ratings.
const (
	Positive Rating = "positive"
	Negative Rating = "negative"
	Neutral  Rating = "neutral"
)

// Valid reports whether r is a known rating.
func (r Rating) Valid() bool {
	return r == Positive || r == Negative || r == Neutral
}

// Feedback is a rating on one exchange of a conversation.
type Feedback struct {
	ConversationID string    `json:"conversation_id"`
	Input          string    `json:"user_input"`
	Response       string    `json:"ai_response"`
	Rating         Rating    `json:"feedback"`
	Correction     string    `json:"correction,omitempty"`
	At             time.Time `json:"at"`
}

// Pattern is a learned input and the response given to it.
type Pattern struct {
	Input        string   `json:"input_text"`
	Topic        string   `json:"intent"`
	Response     string   `json:"response"`
	Keywords     []string `json:"keywords"`
	Confidence   float64  `json:"confidence"`
	SuccessCount int      `json:"success_count"`
	FailCount    int      `json:"fail_count"`
}

// WordCount is a vocabulary entry.
type WordCount struct {
	Word      string   `json:"word"`
	Frequency int      `json:"frequency"`
	Topics    []string `json:"related_intents,omitempty"`
}

// Stats summarizes what has been learned.
type Stats struct {
	Interactions   int         `json:"total_interactions"`
	SuccessRate    float64     `json:"success_rate"`
	Patterns       int         `json:"total_patterns"`
	VocabularySize int         `json:"vocabulary_size"`
	TopWords       []WordCount `json:"top_words"`
	Feedback       int         `json:"total_feedback"`
}

// Recorder receives processed commands.
type Recorder interface {
	Record(ctx context.Context, in Interaction) error
}

// Store persists everything the learning loop needs.
type Store interface {
	Recorder
	// SavePattern stores p and counts its keywords into the vocabulary.
	SavePattern(ctx context.Context, p Pattern) error
	// Patterns returns up to limit patterns, most confident first.
	Patterns(ctx context.Context, limit int) ([]Pattern, error)
	// MarkUsed counts a reuse of the pattern learned for input.
	MarkUsed(ctx context.Context, input string) error
	// AddFeedback stores f and adjusts the matching pattern's confidence.
	AddFeedback(ctx context.Context, f Feedback) error
	Stats(ctx context.Context) (Stats, error)
}

// Adjust moves confidence one step in the direction of r, within bounds.
// Neutral leaves it unchanged.
func Adjust(confidence float64, r Rating) float64 {
	switch r {
	case Positive:
		confidence += confidenceStep
	case Negative:
		confidence -= confidenceStep
	}
	if confidence > MaxConfidence {
		return MaxConfidence
	}
	if confidence < MinConfidence {
		return MinConfidence
	}
	// Round away float drift from repeated steps.
	return float64(int(confidence*100+0.5)) / 100
}

var stopwords = map[string]bool{
	"a": true, "o": true, "e": true, "é": true, "de": true, "da": true, "do": true,
	"em": true, "um": true, "uma": true, "os": true, "as": true, "para": true,
	"com": true, "por": true, "que": true, "não": true, "me": true, "se": true,
	"na": true, "no": true, "ao": true, "dos": true, "das": true, "mas": true,
	"como": true, "mais": true, "já": true, "eu": true, "você": true, "ele": true, "ela": true,
}

// Keywords lower-cases text, drops punctuation, Portuguese stopwords and
// words of two letters or fewer.
func Keywords(text string) []string {
	clean := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) || r == '_' {
			return r
		}
		return -1
	}, strings.ToLower(text))

	var out []string
	for _, w := range strings.Fields(clean) {
		if stopwords[w] || utf8.RuneCountInString(w) <= 2 {
			continue
		}
		out = append(out, w)
	}
	return out
}
