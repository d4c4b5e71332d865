package heuristics

import (
	"regexp"
	"strings"

	"github.com/cloudflare/ahocorasick"
	"golang.org/x/text/unicode/norm"
)

// term is a lexicon entry; weight scales its contribution to a score
type term struct {
	phrase string
	weight float64
}

// lexicon matches whole-word phrases against normalized text.
// The underlying matcher is built once and is safe for concurrent use.
type lexicon struct {
	terms   []term
	matcher *ahocorasick.Matcher
}

func newLexicon(terms []term) *lexicon {
	patterns := make([]string, len(terms))
	for i, t := range terms {
		patterns[i] = " " + wordNormalize(t.phrase) + " "
	}
	return &lexicon{terms: terms, matcher: ahocorasick.NewStringMatcher(patterns)}
}

func newUniformLexicon(phrases ...string) *lexicon {
	terms := make([]term, len(phrases))
	for i, p := range phrases {
		terms[i] = term{phrase: p, weight: 1}
	}
	return newLexicon(terms)
}

// match returns the distinct terms found in padded (see padWords), in lexicon order
func (l *lexicon) match(padded string) []term {
	hits := l.matcher.MatchThreadSafe([]byte(padded))
	if len(hits) == 0 {
		return nil
	}
	seen := make([]bool, len(l.terms))
	for _, idx := range hits {
		seen[idx] = true
	}
	out := make([]term, 0, len(hits))
	for i, ok := range seen {
		if ok {
			out = append(out, l.terms[i])
		}
	}
	return out
}

func totalWeight(terms []term) float64 {
	var sum float64
	for _, t := range terms {
		sum += t.weight
	}
	return sum
}

func phrases(terms []term) []string {
	out := make([]string, len(terms))
	for i, t := range terms {
		out[i] = t.phrase
	}
	return out
}

var quoteReplacer = strings.NewReplacer(
	"‘", "'", "’", "'", "‛", "'", "′", "'",
	"“", `"`, "”", `"`,
)

// foldText applies compatibility normalization and straightens typographic quotes
func foldText(s string) string {
	return quoteReplacer.Replace(norm.NFKC.String(s))
}

var nonWord = regexp.MustCompile(`[^a-z0-9]+`)

// wordNormalize lowercases s and reduces every run of non-alphanumerics to one space
func wordNormalize(s string) string {
	return strings.TrimSpace(nonWord.ReplaceAllString(strings.ToLower(foldText(s)), " "))
}

// padWords prepares text for whole-word lexicon matching
func padWords(s string) string {
	return " " + wordNormalize(s) + " "
}

// fabricationLexicon holds phrases typical of fabricated or sensational news
var fabricationLexicon = newLexicon([]term{
	{"you won't believe", 1}, {"shocking", 1}, {"unbelievable", 1}, {"incredible", 1},
	{"mind-blowing", 1}, {"unthinkable", 1}, {"jaw-dropping", 1}, {"cannot be unseen", 1},
	{"nobody talks about", 1}, {"breaking news", 1}, {"urgent", 1}, {"act now", 1},
	{"immediate action required", 1}, {"limited time", 1}, {"don't miss", 1}, {"must see", 1},
	{"everyone is talking about", 1}, {"best ever", 1}, {"worst ever", 1}, {"only way", 1},
	{"never seen before", 1}, {"final warning", 1}, {"last chance", 1}, {"only option", 1},
	{"game changer", 1}, {"revolutionary", 1}, {"secret", 1},
	{"conspiracy", 1.5}, {"cover-up", 1.5}, {"hidden truth", 1.5}, {"they don't want you to know", 1.5},
	{"miracle cure", 1.5}, {"doctors hate", 1.5}, {"share before it's deleted", 1.5},
})

// credibilityLexicon holds phrases typical of sourced reporting
var credibilityLexicon = newLexicon([]term{
	{"according to", 1}, {"study shows", 1}, {"research indicates", 1}, {"reported by", 1},
	{"confirmed by", 1}, {"verified by", 1}, {"documented by", 1}, {"data shows", 1},
	{"statistics show", 1}, {"investigation", 1}, {"interview", 1}, {"quote", 0.5},
	{"statement", 1}, {"official", 1}, {"spokesperson", 1}, {"press release", 1},
	{"report", 0.5}, {"analysis", 0.5}, {"findings", 1}, {"peer-reviewed", 1.5},
	{"scientific", 1}, {"medical journal", 1.5}, {"university", 1}, {"expert", 1},
	{"doctor", 0.5}, {"professor", 1}, {"researcher", 1}, {"scientist", 1},
	{"evidence", 1}, {"proof", 0.5}, {"yesterday", 0.5}, {"today", 0.5},
	{"recently", 0.5}, {"located", 0.5}, {"based in", 0.5}, {"city", 0.5}, {"country", 0.5},
})

// manipulationLexicon holds filename tokens that directly indicate synthetic media
var manipulationLexicon = newUniformLexicon(
	"deepfake", "deep fake", "fake", "ai generated", "generated", "synthetic",
	"manipulated", "photoshop", "photoshopped", "faceswap", "face swap", "morphed",
	"altered", "doctored", "gan", "stable diffusion", "midjourney", "dalle", "dall e",
	"sora", "cgi", "lipsync", "voice clone",
)

// suspiciousLexicon holds weaker filename tokens common in recirculated media
var suspiciousLexicon = newUniformLexicon(
	"suspected", "suspicious", "viral", "leaked", "leak", "unverified", "exclusive",
	"shocking", "edit", "edited", "render", "copy", "final", "v2", "untitled",
	"download", "whatsapp", "telegram", "tiktok", "reupload", "clip",
)
