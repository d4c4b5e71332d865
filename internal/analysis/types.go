// Package analysis holds the request and result contract shared by every
// stage of the classification pipeline.
package analysis

import (
	"fmt"
	"net/url"
	"strings"
)

// Mode selects the analysis pipeline and its status vocabulary
type Mode string

const (
	ModeNews     Mode = "news"
	ModePrivacy  Mode = "privacy"
	ModeDeepfake Mode = "deepfake"
)

// ParseMode maps user input onto a Mode; empty input defaults to news
func ParseMode(raw string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ModeNews:
		return ModeNews, nil
	case ModePrivacy:
		return ModePrivacy, nil
	case ModeDeepfake:
		return ModeDeepfake, nil
	}
	return "", fmt.Errorf("unsupported analysis type %q", raw)
}

// Status values. The permitted set depends on the mode.
const (
	StatusLikelyReal      = "Likely Real"
	StatusLikelyFake      = "Likely Fake"
	StatusUncertain       = "Uncertain"
	StatusQuotaExceeded   = "Quota Exceeded"
	StatusLowRisk         = "Low Risk"
	StatusMediumRisk      = "Medium Risk"
	StatusHighRisk        = "High Risk"
	StatusLikelyAuthentic = "Likely Authentic"
	StatusLikelyDeepfake  = "Likely Deepfake"
	StatusUncertainLocal  = "Uncertain (Local Heuristics)"
	StatusError           = "Error"
)

// Privacy risk levels
const (
	RiskLow           = "Low"
	RiskMedium        = "Medium"
	RiskHigh          = "High"
	RiskNotApplicable = "Not Applicable"
)

// Result sources, reported so callers can tell which tier answered
const (
	SourceStatistical = "statistical"
	SourceHeuristic   = "heuristic"
	SourceError       = "error"
	sourceRemote      = "remote:"
)

// RemoteSource names a remote backend as a result source
func RemoteSource(backend string) string {
	return sourceRemote + backend
}

// StatusVocabulary lists the statuses a mode may report, longest first so
// prefix-sharing tokens ("Uncertain (Local Heuristics)" vs "Uncertain") match greedily.
func StatusVocabulary(mode Mode) []string {
	switch mode {
	case ModePrivacy:
		return []string{StatusMediumRisk, StatusHighRisk, StatusLowRisk, RiskMedium, RiskHigh, RiskLow}
	case ModeDeepfake:
		return []string{StatusUncertainLocal, StatusLikelyAuthentic, StatusLikelyDeepfake, StatusQuotaExceeded, StatusUncertain}
	default:
		return []string{StatusQuotaExceeded, StatusLikelyReal, StatusLikelyFake, StatusUncertain}
	}
}

// DefaultPrivacyRisk is the privacyRisk a mode reports when nothing escalates it
func DefaultPrivacyRisk(mode Mode) string {
	switch mode {
	case ModePrivacy:
		return RiskLow
	case ModeDeepfake:
		return RiskLow
	default:
		return RiskNotApplicable
	}
}

// MediaPayload is an uploaded image or video
type MediaPayload struct {
	Data     []byte
	MimeType string
	Filename string
}

// Request is one unit of work for the orchestrator
type Request struct {
	RawInput string
	Mode     Mode
	Media    *MediaPayload
}

// Validate enforces the request shape invariants
func (r Request) Validate() error {
	switch r.Mode {
	case ModeNews, ModePrivacy, ModeDeepfake:
	default:
		return fmt.Errorf("unsupported analysis type %q", r.Mode)
	}
	if strings.TrimSpace(r.RawInput) != "" {
		return nil
	}
	if r.Mode != ModeDeepfake {
		return fmt.Errorf("no text provided for %s analysis", r.Mode)
	}
	if r.Media == nil || len(r.Media.Data) == 0 {
		return fmt.Errorf("no input provided for analysis")
	}
	return nil
}

// HasMedia reports whether a media payload worth sending to a vision backend is attached
func (r Request) HasMedia() bool {
	return r.Mode == ModeDeepfake && r.Media != nil && len(r.Media.Data) > 0
}

// IsURL reports whether raw is an absolute http(s) URL and nothing else
func IsURL(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.ContainsAny(raw, " \t\n") {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// ExtractedContent is a bounded plain-text excerpt of a page
type ExtractedContent struct {
	SourceURL string `json:"source_url,omitempty"`
	Title     string `json:"title,omitempty"`
	Text      string `json:"text"`
	Truncated bool   `json:"truncated"`
}

// EvidenceLink is a candidate corroborating source
type EvidenceLink struct {
	URL     string            `json:"url"`
	Title   string            `json:"title,omitempty"`
	Snippet string            `json:"snippet,omitempty"`
	Content *ExtractedContent `json:"content,omitempty"`
}

// Result is the universal output contract
type Result struct {
	Status             string                 `json:"status"`
	Confidence         float64                `json:"confidence"`
	Reason             string                 `json:"reason"`
	Correction         string                 `json:"correction"`
	PrivacyRisk        string                 `json:"privacy_risk"`
	PrivacyExplanation string                 `json:"privacy_explanation"`
	Analysis           string                 `json:"analysis"`
	Source             string                 `json:"source"`
	Details            map[string]interface{} `json:"analysis_details,omitempty"`
}

// ClampConfidence pins c into [0,1]; NaN becomes 0
func ClampConfidence(c float64) float64 {
	if c != c || c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// Finalize enforces the contract on a result before it leaves the pipeline
func (r *Result) Finalize(mode Mode) {
	r.Confidence = ClampConfidence(r.Confidence)
	if r.Status == "" {
		r.Status = StatusUncertain
	}
	if r.PrivacyRisk == "" {
		r.PrivacyRisk = DefaultPrivacyRisk(mode)
	}
	if r.Status != StatusLikelyFake {
		r.Correction = ""
	}
	if r.Analysis == "" {
		r.Analysis = r.Summary()
	}
}

// Summary renders the human-readable analysis block
func (r Result) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Status: %s\nConfidence: %d%%\nReason: %s", r.Status, int(r.Confidence*100+0.5), r.Reason)
	if r.Correction != "" {
		fmt.Fprintf(&b, "\nCorrection: %s", r.Correction)
	}
	if r.PrivacyRisk != "" && r.PrivacyRisk != RiskNotApplicable {
		fmt.Fprintf(&b, "\nPrivacy Risk: %s", r.PrivacyRisk)
	}
	return b.String()
}

// ErrorResult is returned for unexpected faults and malformed requests
func ErrorResult(reason string) Result {
	r := Result{
		Status:             StatusError,
		Confidence:         0,
		Reason:             reason,
		PrivacyRisk:        RiskNotApplicable,
		PrivacyExplanation: "Analysis could not be completed.",
		Source:             SourceError,
	}
	r.Analysis = r.Summary()
	return r
}

// QuotaResult reports an exhausted but otherwise healthy backend
func QuotaResult(mode Mode, backend string) Result {
	r := Result{
		Status:      StatusQuotaExceeded,
		Confidence:  0,
		Reason:      fmt.Sprintf("The %s backend quota is exhausted. Please try again later.", backend),
		PrivacyRisk: DefaultPrivacyRisk(mode),
		Source:      RemoteSource(backend),
	}
	r.Analysis = r.Summary()
	return r
}
