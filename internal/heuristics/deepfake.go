package heuristics

import (
	"fmt"
	"path"
	"strings"

	"github.com/vaibhav1874/TrueVail/internal/analysis"
)

const (
	deepfakeBase          = 0.2
	manipulationWeight    = 0.2
	suspiciousWeight      = 0.05
	videoExtensionBonus   = 0.1
	imageExtensionBonus   = 0.05
	jitterAmplitude       = 0.05
	likelyDeepfakeCutoff  = 0.7
	uncertainCutoff       = 0.4
	uncertainDeepfakeConf = 0.5
	localHeuristicConf    = 0.3
)

var (
	videoExtensions = map[string]bool{
		".mp4": true, ".mov": true, ".avi": true, ".mkv": true, ".webm": true, ".m4v": true, ".wmv": true, ".flv": true,
	}
	imageExtensions = map[string]bool{
		".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true, ".bmp": true, ".heic": true, ".tiff": true,
	}
)

// ScoreDeepfakeByName estimates manipulation likelihood from a filename or identifier.
// Absence of indicators never yields an authenticity verdict.
func (e *Engine) ScoreDeepfakeByName(identifier string) analysis.Result {
	name := strings.ToLower(strings.TrimSpace(identifier))
	ext := path.Ext(name)
	padded := padWords(strings.TrimSuffix(name, ext))

	manipulation := phrases(manipulationLexicon.match(padded))
	suspicious := phrases(suspiciousLexicon.match(padded))

	prob := deepfakeBase +
		manipulationWeight*float64(len(manipulation)) +
		suspiciousWeight*float64(len(suspicious))
	mediaKind := "unknown"
	switch {
	case videoExtensions[ext]:
		prob += videoExtensionBonus
		mediaKind = "video"
	case imageExtensions[ext]:
		prob += imageExtensionBonus
		mediaKind = "image"
	}
	prob += jitterAmplitude * clampUnit(e.jitter())
	prob = clampProbability(prob)

	result := analysis.Result{
		PrivacyRisk:        analysis.RiskLow,
		PrivacyExplanation: "Media analysis does not inspect personal data.",
		Source:             analysis.SourceHeuristic,
		Details: map[string]interface{}{
			"manipulation_indicators": len(manipulation),
			"suspicious_indicators":   len(suspicious),
			"matched_terms":           append(manipulation, suspicious...),
			"media_kind":              mediaKind,
			"fake_probability":        round2(prob),
		},
	}

	switch {
	case prob > likelyDeepfakeCutoff:
		result.Status = analysis.StatusLikelyDeepfake
		result.Confidence = prob
		result.Reason = fmt.Sprintf("The file name carries %d manipulation indicator(s): %s.",
			len(manipulation), strings.Join(manipulation, ", "))
	case prob > uncertainCutoff:
		result.Status = analysis.StatusUncertain
		result.Confidence = uncertainDeepfakeConf
		result.Reason = "Some naming indicators suggest possible manipulation, but the evidence is weak."
	default:
		result.Status = analysis.StatusUncertainLocal
		result.Confidence = localHeuristicConf
		result.Reason = "No manipulation indicators found in the file name. Local heuristics cannot confirm authenticity."
	}
	result.Analysis = result.Summary()
	return result
}

func clampUnit(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampProbability(p float64) float64 {
	if p < 0.01 {
		return 0.01
	}
	if p > 0.99 {
		return 0.99
	}
	return p
}
