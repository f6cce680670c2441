package score

import (
	"fmt"
	"math"
	"strings"
	"unicode"
)

// Normalize strips punctuation and lowercases text so two renderings of the
// same utterance compare equal. Whitespace tokenization is left intact.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// EstimateDuration maps expected text to a recording length in seconds:
// word count divided by the speaking rate, rounded to two decimals and
// clamped to minDuration.
func EstimateDuration(text string, wordsPerSecond, minDuration float64) (float64, error) {
	if wordsPerSecond <= 0 {
		return 0, fmt.Errorf("words per second must be positive, got %v", wordsPerSecond)
	}
	words := len(strings.Fields(text))
	seconds := math.Round(float64(words)/wordsPerSecond*100) / 100
	if seconds < minDuration {
		seconds = minDuration
	}
	return seconds, nil
}
