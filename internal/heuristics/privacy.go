package heuristics

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cloudflare/ahocorasick"
	"github.com/vaibhav1874/TrueVail/internal/analysis"
)

const (
	privacyHighThreshold   = 3
	privacyMediumThreshold = 1
	privacyConfidence      = 0.8
	explainedIndicators    = 3
)

// privacyIndicator is one kind of personal data; kinds are counted once each
type privacyIndicator struct {
	label   string
	symbols []string       // raw substrings, matched case-insensitively
	words   []string       // whole-word phrases
	pattern *regexp.Regexp // structural detector
}

var privacyIndicators = []privacyIndicator{
	{label: "email address", symbols: []string{"@"}, words: []string{"email", "e-mail"},
		pattern: regexp.MustCompile(`(?i)[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}`)},
	{label: "web domain", symbols: []string{".com"}},
	{label: "phone number", words: []string{"phone", "mobile number", "cell number", "telephone"},
		pattern: regexp.MustCompile(`(?:\+?\d{1,2}[\s.\-]?)?(?:\(?\d{3}\)?[\s.\-]?)?\d{3}[\s.\-]\d{4}\b`)},
	{label: "address", words: []string{"address", "street", "avenue"},
		pattern: regexp.MustCompile(`(?i)\b\d{1,5}\s+[a-z]+(?:\s+[a-z]+)?\s+(?:st|street|ave|avenue|rd|road|blvd|lane|ln|dr|drive)\b`)},
	{label: "location", words: []string{"location", "gps", "coordinates", "home town"}},
	{label: "city", words: []string{"city"}},
	{label: "zip code", words: []string{"zip", "zip code", "postcode", "postal code"}},
	{label: "name", words: []string{"name", "full name", "maiden name"}},
	{label: "social security number", words: []string{"ssn", "social security"},
		pattern: regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)},
	{label: "credit card", words: []string{"credit card", "card number", "cvv"},
		pattern: regexp.MustCompile(`\b(?:\d{4}[ \-]?){3}\d{4}\b`)},
	{label: "password", words: []string{"password", "passcode", "pin code"}},
	{label: "account number", words: []string{"account number", "iban", "routing number", "bank account"}},
	{label: "driver license", words: []string{"driver license", "drivers license", "driver's license", "driving licence"}},
	{label: "birth date", words: []string{"birth date", "date of birth", "dob", "birthday"}},
	{label: "passport", words: []string{"passport"}},
	{label: "national id", words: []string{"national id", "aadhaar", "id number"}},
	{label: "tax id", words: []string{"tax id", "tin", "pan card"}},
}

// owners map each matcher pattern back to its indicator
var (
	symbolOwners, wordOwners []int
	symbolMatcher            *ahocorasick.Matcher
	wordMatcher              *ahocorasick.Matcher
)

func init() {
	var symbols, words []string
	for i, ind := range privacyIndicators {
		for _, s := range ind.symbols {
			symbols = append(symbols, strings.ToLower(s))
			symbolOwners = append(symbolOwners, i)
		}
		for _, w := range ind.words {
			words = append(words, " "+wordNormalize(w)+" ")
			wordOwners = append(wordOwners, i)
		}
	}
	symbolMatcher = ahocorasick.NewStringMatcher(symbols)
	wordMatcher = ahocorasick.NewStringMatcher(words)
}

// ScanPrivacy returns the labels of personal-data indicators present in text, in table order
func ScanPrivacy(text string) []string {
	folded := foldText(text)
	found := make([]bool, len(privacyIndicators))

	for _, idx := range symbolMatcher.MatchThreadSafe([]byte(strings.ToLower(folded))) {
		found[symbolOwners[idx]] = true
	}
	for _, idx := range wordMatcher.MatchThreadSafe([]byte(padWords(folded))) {
		found[wordOwners[idx]] = true
	}
	for i, ind := range privacyIndicators {
		if !found[i] && ind.pattern != nil && ind.pattern.MatchString(folded) {
			found[i] = true
		}
	}

	var labels []string
	for i, ok := range found {
		if ok {
			labels = append(labels, privacyIndicators[i].label)
		}
	}
	return labels
}

// PrivacyLevel maps an indicator count onto a risk level
func PrivacyLevel(count int) string {
	switch {
	case count >= privacyHighThreshold:
		return analysis.RiskHigh
	case count >= privacyMediumThreshold:
		return analysis.RiskMedium
	default:
		return analysis.RiskLow
	}
}

// PrivacyExplanation lists the first few matched indicators
func PrivacyExplanation(labels []string) string {
	if len(labels) == 0 {
		return "No personal data indicators were detected."
	}
	shown := labels
	if len(shown) > explainedIndicators {
		shown = shown[:explainedIndicators]
	}
	msg := "Potential personal data detected: " + strings.Join(shown, ", ")
	if extra := len(labels) - len(shown); extra > 0 {
		msg += fmt.Sprintf(" (and %d more)", extra)
	}
	return msg + "."
}

// ScorePrivacy rates personal-data exposure risk in text
func (e *Engine) ScorePrivacy(text string) analysis.Result {
	labels := ScanPrivacy(text)
	level := PrivacyLevel(len(labels))

	result := analysis.Result{
		Status:             level + " Risk",
		Confidence:         privacyConfidence,
		Reason:             fmt.Sprintf("Found %d personal data indicator(s).", len(labels)),
		PrivacyRisk:        level,
		PrivacyExplanation: PrivacyExplanation(labels),
		Source:             analysis.SourceHeuristic,
		Details: map[string]interface{}{
			"indicator_count": len(labels),
			"indicators":      labels,
		},
	}
	result.Analysis = result.Summary()
	return result
}
