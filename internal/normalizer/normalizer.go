// Package normalizer turns free-text classifier output into the result contract.
// Parsing is best-effort: every input, including garbage, yields a result.
package normalizer

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/vaibhav1874/TrueVail/internal/analysis"
)

// Documented defaults for fields that could not be extracted
const (
	DefaultStatus     = analysis.StatusUncertain
	DefaultConfidence = 0.5
	DefaultReason     = "could not parse"
)

// Field names reported in Outcome.Missing
const (
	FieldStatus     = "status"
	FieldConfidence = "confidence"
	FieldReason     = "reason"
)

// Outcome is a parsed result plus the fields that fell back to defaults
type Outcome struct {
	Result  analysis.Result
	Missing []string
}

// Parsed reports whether a field was extracted rather than defaulted
func (o Outcome) Parsed(field string) bool {
	for _, m := range o.Missing {
		if m == field {
			return false
		}
	}
	return true
}

// fields holds raw extracted values keyed by canonical field
type fields struct {
	status             string
	confidence         string
	reason             string
	correction         string
	privacyRisk        string
	privacyExplanation string
	highlights         []string
}

// Parse extracts a result from model output for the given mode
func Parse(text string, mode analysis.Mode) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = defaultOutcome(mode)
		}
	}()

	f, ok := parseJSON(text)
	if !ok {
		f = parseLines(text)
	}
	return build(f, mode)
}

func defaultOutcome(mode analysis.Mode) Outcome {
	return build(fields{}, mode)
}

func build(f fields, mode analysis.Mode) Outcome {
	var out Outcome
	r := analysis.Result{
		Status:      DefaultStatus,
		Confidence:  DefaultConfidence,
		Reason:      DefaultReason,
		PrivacyRisk: analysis.DefaultPrivacyRisk(mode),
	}

	if status, ok := matchStatus(f.status, mode); ok {
		r.Status = status
	} else if mode == analysis.ModePrivacy {
		if status, ok := matchStatus(f.privacyRisk, mode); ok {
			r.Status = status
		} else {
			out.Missing = append(out.Missing, FieldStatus)
		}
	} else {
		out.Missing = append(out.Missing, FieldStatus)
	}

	if c, ok := parseConfidence(f.confidence); ok {
		r.Confidence = c
	} else {
		out.Missing = append(out.Missing, FieldConfidence)
	}

	if reason := strings.TrimSpace(f.reason); reason != "" {
		r.Reason = reason
	} else {
		out.Missing = append(out.Missing, FieldReason)
	}

	if r.Status == analysis.StatusLikelyFake {
		r.Correction = strings.TrimSpace(f.correction)
	}

	if mode == analysis.ModePrivacy {
		applyPrivacy(&r, f)
	} else {
		applySideSignal(&r, f)
	}

	if len(f.highlights) > 0 {
		r.Details = map[string]interface{}{"highlights": f.highlights}
	}

	r.Confidence = analysis.ClampConfidence(r.Confidence)
	out.Result = r
	return out
}

// applyPrivacy remaps a sensitivity level to a risk status and folds highlights in
func applyPrivacy(r *analysis.Result, f fields) {
	if level := riskLevel(r.Status); level != "" {
		r.Status = level + " Risk"
		r.PrivacyRisk = level
	} else if len(f.highlights) > 0 {
		r.PrivacyRisk = levelForCount(len(f.highlights))
	}

	explanation := strings.TrimSpace(f.privacyExplanation)
	if explanation == "" && r.Reason != DefaultReason {
		explanation = r.Reason
	}
	if len(f.highlights) > 0 {
		explanation = strings.TrimSpace(explanation + " Highlights: " + strings.Join(f.highlights, "; ") + ".")
	}
	r.PrivacyExplanation = explanation
}

// applySideSignal lets non-privacy output escalate privacy risk when it flags personal data
func applySideSignal(r *analysis.Result, f fields) {
	if level := riskLevel(f.privacyRisk); level != "" {
		r.PrivacyRisk = escalate(r.PrivacyRisk, level)
	}
	if len(f.highlights) > 0 {
		r.PrivacyRisk = escalate(r.PrivacyRisk, levelForCount(len(f.highlights)))
		r.PrivacyExplanation = "Content highlights personal data: " + strings.Join(f.highlights, "; ") + "."
	}
	if r.PrivacyExplanation == "" {
		r.PrivacyExplanation = strings.TrimSpace(f.privacyExplanation)
	}
}

func levelForCount(n int) string {
	switch {
	case n >= 3:
		return analysis.RiskHigh
	case n >= 1:
		return analysis.RiskMedium
	default:
		return analysis.RiskLow
	}
}

var riskRank = map[string]int{
	analysis.RiskNotApplicable: 0,
	analysis.RiskLow:           1,
	analysis.RiskMedium:        2,
	analysis.RiskHigh:          3,
}

func escalate(current, candidate string) string {
	if riskRank[candidate] > riskRank[current] {
		return candidate
	}
	return current
}

// riskLevel extracts Low/Medium/High from a status or level string
func riskLevel(s string) string {
	lower := strings.ToLower(s)
	switch {
	case strings.Contains(lower, "high"):
		return analysis.RiskHigh
	case strings.Contains(lower, "medium"), strings.Contains(lower, "moderate"):
		return analysis.RiskMedium
	case strings.Contains(lower, "low"):
		return analysis.RiskLow
	}
	return ""
}

// vocabMatchers caches one longest-first alternation per mode
var vocabMatchers = map[analysis.Mode]*regexp.Regexp{}

var synonyms = map[analysis.Mode][]struct {
	pattern *regexp.Regexp
	status  string
}{
	analysis.ModeNews: {
		{regexp.MustCompile(`(?i)\b(fake|false|fabricated|misleading)\b`), analysis.StatusLikelyFake},
		{regexp.MustCompile(`(?i)\b(real|true|credible|authentic|legitimate)\b`), analysis.StatusLikelyReal},
	},
	analysis.ModeDeepfake: {
		{regexp.MustCompile(`(?i)\b(deepfake|manipulated|synthetic|ai.generated)\b`), analysis.StatusLikelyDeepfake},
		{regexp.MustCompile(`(?i)\b(authentic|genuine|real)\b`), analysis.StatusLikelyAuthentic},
	},
	analysis.ModePrivacy: {
		{regexp.MustCompile(`(?i)\bmoderate\b`), analysis.RiskMedium},
	},
}

func init() {
	for _, mode := range []analysis.Mode{analysis.ModeNews, analysis.ModePrivacy, analysis.ModeDeepfake} {
		vocab := append([]string(nil), analysis.StatusVocabulary(mode)...)
		sort.SliceStable(vocab, func(i, j int) bool { return len(vocab[i]) > len(vocab[j]) })
		quoted := make([]string, len(vocab))
		for i, v := range vocab {
			quoted[i] = regexp.QuoteMeta(v)
		}
		vocabMatchers[mode] = regexp.MustCompile(`(?i)\b(` + strings.Join(quoted, "|") + `)(?:[^a-z]|$)`)
	}
}

// matchStatus finds the longest permitted vocabulary token in raw
func matchStatus(raw string, mode analysis.Mode) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	re, ok := vocabMatchers[mode]
	if !ok {
		return "", false
	}
	if m := re.FindStringSubmatch(raw); m != nil {
		for _, v := range analysis.StatusVocabulary(mode) {
			if strings.EqualFold(v, m[1]) {
				return v, true
			}
		}
	}
	for _, syn := range synonyms[mode] {
		if syn.pattern.MatchString(raw) {
			return syn.status, true
		}
	}
	return "", false
}

var confidenceValue = regexp.MustCompile(`(\d{1,3}(?:\.\d+)?)\s*(%?)`)

// parseConfidence reads "85", "85%", "0.85" or "85.5%" into [0,1]
func parseConfidence(raw string) (float64, bool) {
	m := confidenceValue.FindStringSubmatch(raw)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	isFraction := m[2] == "" && strings.Contains(m[1], ".") && v <= 1
	if !isFraction {
		v /= 100
	}
	return analysis.ClampConfidence(v), true
}

// canonicalLabel maps a field label onto a fields member name
func canonicalLabel(label string) string {
	label = strings.ToLower(strings.Join(strings.Fields(label), " "))
	switch label {
	case "status", "verdict", "classification", "result", "assessment", "prediction",
		"sensitivity", "sensitivity level", "data sensitivity", "risk level", "overall risk":
		return FieldStatus
	case "confidence", "confidence score", "confidence level":
		return FieldConfidence
	case "explanation", "reasoning", "reason", "justification", "rationale", "analysis":
		return FieldReason
	case "correction", "suggested correction", "correction suggestion", "recommendation":
		return "correction"
	case "privacy risk", "privacy risk level", "privacy":
		return "privacy_risk"
	case "privacy explanation", "privacy note", "privacy notes":
		return "privacy_explanation"
	case "highlights", "key highlights", "sensitive items", "sensitive data", "detected items", "flagged items":
		return "highlights"
	}
	return ""
}

func (f *fields) set(field, value string) {
	switch field {
	case FieldStatus:
		if f.status == "" {
			f.status = value
		}
	case FieldConfidence:
		if f.confidence == "" {
			f.confidence = value
		}
	case FieldReason:
		if f.reason == "" {
			f.reason = value
		}
	case "correction":
		f.correction = value
	case "privacy_risk":
		f.privacyRisk = value
	case "privacy_explanation":
		f.privacyExplanation = value
	case "highlights":
		f.highlights = append(f.highlights, splitInline(value)...)
	}
}

var (
	labeledLine = regexp.MustCompile(`^[\s>#*\-]*(?:\d+[.)]\s*)?\**\s*([A-Za-z][A-Za-z ]{1,30}?)\s*\**\s*:\s*\**(.*?)\**\s*$`)
	bulletLine  = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s+(.+?)\s*$`)
)

// parseLines scans "Label: value" lines; reason and highlights may continue on following lines
func parseLines(text string) fields {
	var f fields
	current := ""
	var block []string

	flush := func() {
		if current == FieldReason && len(block) > 0 {
			f.set(FieldReason, strings.Join(block, " "))
		}
		current, block = "", nil
	}

	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		trimmed := strings.TrimSpace(line)

		if current == "highlights" {
			if m := bulletLine.FindStringSubmatch(line); m != nil {
				if item := cleanItem(m[1]); item != "" {
					f.highlights = append(f.highlights, item)
				}
				continue
			}
		}

		if m := labeledLine.FindStringSubmatch(line); m != nil {
			if field := canonicalLabel(m[1]); field != "" {
				flush()
				value := strings.TrimSpace(m[2])
				switch field {
				case FieldReason:
					current = FieldReason
					if value != "" {
						block = append(block, value)
					}
				case "highlights":
					current = "highlights"
					f.set(field, value)
				default:
					f.set(field, value)
				}
				continue
			}
		}

		if trimmed == "" {
			if current == FieldReason && len(block) == 0 {
				continue
			}
			flush()
			continue
		}
		if current == FieldReason {
			block = append(block, trimmed)
		}
	}
	flush()
	return f
}

func splitInline(value string) []string {
	if cleanItem(value) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.FieldsFunc(value, func(r rune) bool { return r == ';' || r == ',' }) {
		if item := cleanItem(part); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// noneMarker matches the ways a model says a list is empty
var noneMarker = regexp.MustCompile(`(?i)^(?:none|nothing|nil|n/?a|not applicable|no\b.*|not (?:found|detected|present|identified)\b.*)$`)

// cleanItem strips markup and trailing punctuation; placeholders such as "None found" become ""
func cleanItem(s string) string {
	item := strings.Trim(strings.TrimSpace(s), "*`\"'")
	item = strings.TrimSpace(strings.TrimRight(item, ".!;: "))
	if noneMarker.MatchString(item) {
		return ""
	}
	return item
}

var codeFence = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// parseJSON accepts a bare or fenced JSON object using the same labels
func parseJSON(text string) (fields, bool) {
	body := text
	if m := codeFence.FindStringSubmatch(text); m != nil {
		body = m[1]
	}
	start, end := strings.Index(body, "{"), strings.LastIndex(body, "}")
	if start < 0 || end <= start {
		return fields{}, false
	}

	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(body[start:end+1]), &raw); err != nil {
		return fields{}, false
	}

	var f fields
	found := false
	for key, value := range raw {
		field := canonicalLabel(strings.NewReplacer("_", " ", "-", " ").Replace(key))
		if field == "" {
			continue
		}
		found = true
		if field == "highlights" {
			f.highlights = append(f.highlights, jsonItems(value)...)
			continue
		}
		f.set(field, jsonString(value))
	}
	return f, found
}

func jsonString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

func jsonItems(v interface{}) []string {
	switch t := v.(type) {
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s := cleanItem(jsonString(item)); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		return splitInline(t)
	}
	return nil
}
