package statclassifier

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/kljensen/snowball/english"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	urlPattern      = regexp.MustCompile(`(?i)(https?://\S+|www\.\S+)`)
	nonAlphaPattern = regexp.MustCompile(`[^a-z\s]+`)
)

const minTokenLength = 3

// foldAccents decomposes text and drops combining marks so "café" tokenizes as "cafe"
func foldAccents(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Preprocess lowercases text, strips URLs and non-letters, removes stop words
// and stems what remains.
func Preprocess(text string) []string {
	cleaned := strings.ToLower(foldAccents(text))
	cleaned = urlPattern.ReplaceAllString(cleaned, " ")
	cleaned = nonAlphaPattern.ReplaceAllString(cleaned, " ")

	words := strings.Fields(cleaned)
	tokens := make([]string, 0, len(words))
	for _, w := range words {
		if len(w) < minTokenLength || english.IsStopWord(w) {
			continue
		}
		tokens = append(tokens, english.Stem(w, false))
	}
	return tokens
}

// ngrams expands tokens into unigrams followed by bigrams
func ngrams(tokens []string) []string {
	if len(tokens) == 0 {
		return nil
	}
	out := make([]string, 0, 2*len(tokens)-1)
	out = append(out, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		out = append(out, tokens[i]+" "+tokens[i+1])
	}
	return out
}
