package plagiarism

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// OffsetMode selects how token offsets in the original text are recovered.
type OffsetMode string

const (
	// OffsetExact records each token's span while splitting the original text.
	OffsetExact OffsetMode = "exact"
	// OffsetSearch finds normalized tokens in the lower-cased original with an
	// advancing cursor and falls back to an approximate position on a miss.
	OffsetSearch OffsetMode = "search"
)

// ParseOffsetMode returns the mode named by s, defaulting to OffsetExact.
func ParseOffsetMode(s string) OffsetMode {
	if OffsetMode(strings.ToLower(strings.TrimSpace(s))) == OffsetSearch {
		return OffsetSearch
	}
	return OffsetExact
}

// Token is a normalized word and the byte range [Start, End) it was read from.
type Token struct {
	Text  string
	Start int
	End   int
}

const strippedPunctuation = ".,/#!$%^&*;:{}=-_`~()"

func isStripped(r rune) bool {
	return r < utf8.RuneSelf && strings.IndexRune(strippedPunctuation, r) >= 0
}

// Normalize lower-cases text, drops the stripped punctuation set and splits the
// rest on whitespace. Empty fragments are discarded.
func Normalize(text string) []string {
	lowered := cases.Lower(language.Und).String(text)
	return strings.Fields(stripPunctuation(lowered))
}

// Tokenize splits text into tokens using OffsetExact.
func Tokenize(text string) []Token {
	return TokenizeWith(text, OffsetExact)
}

// TokenizeWith splits text into tokens, recovering offsets with mode.
func TokenizeWith(text string, mode OffsetMode) []Token {
	if mode == OffsetSearch {
		words := Normalize(text)
		spans := recoverSpans(text, words)
		tokens := make([]Token, len(words))
		for i, w := range words {
			tokens[i] = Token{
				Text:  w,
				Start: clamp(spans[i].Start, len(text)),
				End:   clamp(spans[i].End, len(text)),
			}
		}
		return tokens
	}
	return tokenizeExact(text)
}

func tokenizeExact(text string) []Token {
	lower := cases.Lower(language.Und)
	var tokens []Token

	fieldStart := -1
	flush := func(end int) {
		if fieldStart < 0 {
			return
		}
		if tok, ok := exactToken(text[fieldStart:end], fieldStart, lower); ok {
			tokens = append(tokens, tok)
		}
		fieldStart = -1
	}

	for i, r := range text {
		if unicode.IsSpace(r) {
			flush(i)
			continue
		}
		if fieldStart < 0 {
			fieldStart = i
		}
	}
	flush(len(text))

	return tokens
}

// exactToken builds a token from one whitespace-delimited field located at base.
// The field is lower-cased before punctuation is stripped, as in Normalize.
// Lower-casing never adds or removes stripped characters, so the span runs from
// the first to the last retained rune of the original field.
func exactToken(field string, base int, lower cases.Caser) (Token, bool) {
	first, last := -1, -1
	for i, r := range field {
		if isStripped(r) {
			continue
		}
		if first < 0 {
			first = i
		}
		_, size := utf8.DecodeRuneInString(field[i:])
		last = i + size
	}
	if first < 0 {
		return Token{}, false
	}
	return Token{
		Text:  stripPunctuation(lower.String(field)),
		Start: base + first,
		End:   base + last,
	}, true
}

func stripPunctuation(s string) string {
	return strings.Map(func(r rune) rune {
		if isStripped(r) {
			return -1
		}
		return r
	}, s)
}

// RecoverOffsets locates each word from a cursor that only moves forward and
// returns byte offsets into text. A word that cannot be found is placed at the
// cursor and the cursor advances by len(word)+1.
func RecoverOffsets(text string, words []string) []int {
	offsets := make([]int, len(words))
	for i, sp := range recoverSpans(text, words) {
		offsets[i] = sp.Start
	}
	return offsets
}

// recoverSpans searches a lower-cased copy of text that remembers where each of
// its bytes came from, so runes whose lower case has a different length do not
// shift later offsets. Final sigma is folded to sigma on both sides because the
// copy is lowered one rune at a time.
func recoverSpans(text string, words []string) []Interval {
	haystack, origin := foldWithOrigin(text)
	at := func(pos int) int {
		if pos < len(origin) {
			return origin[pos]
		}
		return len(text) + pos - (len(origin) - 1)
	}

	spans := make([]Interval, len(words))
	pos := 0

	for i, w := range words {
		needle := foldSigma(w)
		if pos <= len(haystack) {
			if idx := strings.Index(haystack[pos:], needle); idx >= 0 {
				spans[i] = Interval{Start: at(pos + idx), End: at(pos + idx + len(needle))}
				pos = pos + idx + len(needle)
				continue
			}
		}
		start := at(pos)
		spans[i] = Interval{Start: start, End: start + len(w)}
		pos += len(needle) + 1
	}

	return spans
}

// foldWithOrigin lower-cases text rune by rune. origin[b] is the offset in text
// of the rune that produced byte b; origin[len(folded)] is len(text).
func foldWithOrigin(text string) (string, []int) {
	lower := cases.Lower(language.Und)
	var b strings.Builder
	b.Grow(len(text))
	origin := make([]int, 0, len(text)+1)

	for i, r := range text {
		piece := foldSigma(lower.String(string(r)))
		b.WriteString(piece)
		for n := 0; n < len(piece); n++ {
			origin = append(origin, i)
		}
	}
	origin = append(origin, len(text))

	return b.String(), origin
}

func foldSigma(s string) string {
	return strings.ReplaceAll(s, "ς", "σ")
}

func clamp(off, n int) int {
	if off > n {
		return n
	}
	return off
}
