package heuristics

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/vaibhav1874/TrueVail/internal/analysis"
)

const (
	dominanceThreshold = 0.55
	minConfidence      = 0.4
	maxConfidence      = 0.95
	uncertainNewsConf  = 0.4
)

var (
	repeatedExclamation = regexp.MustCompile(`!{2,}`)
	capsRun             = regexp.MustCompile(`\b[A-Z]{4,}\b`)
	clickbaitPhrase     = regexp.MustCompile(`(?i)(you won.t believe|shocking|unbelievable)`)
)

// newsSignal is the raw evidence the news scorer decides on
type newsSignal struct {
	fabrication   float64
	credibility   float64
	fakeTerms     []string
	realTerms     []string
	exclamations  int
	words         int
	letters       int
	upperLetters  int
	patternWeight float64
}

func measureNews(text string) newsSignal {
	folded := foldText(text)
	padded := padWords(folded)

	fabricated := fabricationLexicon.match(padded)
	credible := credibilityLexicon.match(padded)

	s := newsSignal{
		fabrication:  totalWeight(fabricated),
		credibility:  totalWeight(credible),
		fakeTerms:    phrases(fabricated),
		realTerms:    phrases(credible),
		exclamations: strings.Count(folded, "!"),
		words:        len(strings.Fields(folded)),
	}

	s.patternWeight += 0.5 * float64(len(repeatedExclamation.FindAllStringIndex(folded, -1)))
	s.patternWeight += 0.3 * float64(len(capsRun.FindAllStringIndex(folded, -1)))
	s.patternWeight += 0.7 * float64(len(clickbaitPhrase.FindAllStringIndex(folded, -1)))
	s.fabrication += s.patternWeight

	for _, r := range folded {
		if unicode.IsLetter(r) {
			s.letters++
			if unicode.IsUpper(r) {
				s.upperLetters++
			}
		}
	}
	return s
}

func clampBand(v float64) float64 {
	if v < minConfidence {
		return minConfidence
	}
	if v > maxConfidence {
		return maxConfidence
	}
	return v
}

// ScoreNews classifies text as likely real, likely fake or uncertain from lexical indicators
func (e *Engine) ScoreNews(text string) analysis.Result {
	s := measureNews(text)
	total := s.fabrication + s.credibility

	var fakeP, realP float64
	if total > 0 {
		fakeP = s.fabrication / total
		realP = s.credibility / total
	}

	result := analysis.Result{
		PrivacyRisk: analysis.RiskNotApplicable,
		Source:      analysis.SourceHeuristic,
		Details: map[string]interface{}{
			"fabrication_score":    round2(s.fabrication),
			"credibility_score":    round2(s.credibility),
			"fabrication_terms":    s.fakeTerms,
			"credibility_terms":    s.realTerms,
			"pattern_adjustment":   round2(s.patternWeight),
			"fabrication_fraction": round2(fakeP),
		},
	}

	switch {
	case fakeP > dominanceThreshold:
		result.Status = analysis.StatusLikelyFake
		result.Confidence = clampBand(0.45 + 0.1*s.fabrication*fakeP)
		result.Reason = fmt.Sprintf("Sensational or manipulative language dominates (%s).", describeTerms(s.fakeTerms, "exaggerated punctuation or capitalization"))
	case realP > dominanceThreshold:
		result.Status = analysis.StatusLikelyReal
		result.Confidence = clampBand(0.45 + 0.08*s.credibility*realP)
		result.Reason = fmt.Sprintf("Attribution and sourcing language dominates (%s).", describeTerms(s.realTerms, "neutral reporting style"))
	default:
		e.tieBreak(&result, s)
	}

	if result.Status == analysis.StatusLikelyFake {
		result.Correction = SuggestCorrection(text)
	}
	result.Confidence = analysis.ClampConfidence(result.Confidence)
	result.Analysis = result.Summary()
	return result
}

// tieBreak decides when neither lexicon dominates
func (e *Engine) tieBreak(result *analysis.Result, s newsSignal) {
	exclDensity := 0.0
	if s.words > 0 {
		exclDensity = float64(s.exclamations) / float64(s.words)
	}
	capsRatio := 0.0
	if s.letters > 0 {
		capsRatio = float64(s.upperLetters) / float64(s.letters)
	}
	result.Details["exclamation_density"] = round2(exclDensity)
	result.Details["caps_ratio"] = round2(capsRatio)

	fakeLean := clampBand(0.42 + 0.04*s.fabrication)
	switch {
	case s.exclamations >= 2 && exclDensity >= 0.1:
		result.Status = analysis.StatusLikelyFake
		result.Confidence = fakeLean
		result.Reason = "Mixed indicators, but heavy use of exclamation marks suggests sensational content."
	case s.letters >= 20 && capsRatio > 0.3:
		result.Status = analysis.StatusLikelyFake
		result.Confidence = fakeLean
		result.Reason = "Mixed indicators, but excessive capitalization suggests sensational content."
	case s.fabrication-s.credibility >= 1:
		result.Status = analysis.StatusLikelyFake
		result.Confidence = fakeLean
		result.Reason = "Mixed indicators leaning toward sensational language."
	case s.credibility-s.fabrication >= 1:
		result.Status = analysis.StatusLikelyReal
		result.Confidence = clampBand(0.42 + 0.03*s.credibility)
		result.Reason = "Mixed indicators leaning toward sourced reporting."
	default:
		result.Status = analysis.StatusUncertain
		result.Confidence = uncertainNewsConf
		result.Reason = "No clear indicators of fabricated or credible reporting were found."
	}
}

func describeTerms(terms []string, fallback string) string {
	if len(terms) == 0 {
		return fallback
	}
	if len(terms) > 3 {
		terms = terms[:3]
	}
	return "indicators: " + strings.Join(terms, ", ")
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
