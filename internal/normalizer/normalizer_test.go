package normalizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vaibhav1874/TrueVail/internal/analysis"
)

func TestParse_DefaultsOnUnparseableInput(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"I am not sure what you mean.",
		"{not json at all",
		"```json\n{\"unrelated\": true}\n```",
		strings.Repeat("\x00\xff", 50),
	}

	for _, input := range inputs {
		for _, mode := range []analysis.Mode{analysis.ModeNews, analysis.ModeDeepfake} {
			out := Parse(input, mode)
			assert.Equal(t, DefaultStatus, out.Result.Status)
			assert.Equal(t, DefaultConfidence, out.Result.Confidence)
			assert.Equal(t, DefaultReason, out.Result.Reason)
			assert.ElementsMatch(t, []string{FieldStatus, FieldConfidence, FieldReason}, out.Missing)
		}
	}
}

func TestParse_NewsFreeText(t *testing.T) {
	text := `**Status:** Likely Fake
**Confidence:** 87%
**Explanation:** The article cites no sources and uses sensational language.
Correction: Official figures show no such event occurred.`

	out := Parse(text, analysis.ModeNews)

	assert.Empty(t, out.Missing)
	assert.Equal(t, analysis.StatusLikelyFake, out.Result.Status)
	assert.InDelta(t, 0.87, out.Result.Confidence, 1e-9)
	assert.Equal(t, "The article cites no sources and uses sensational language.", out.Result.Reason)
	assert.Equal(t, "Official figures show no such event occurred.", out.Result.Correction)
	assert.Equal(t, analysis.RiskNotApplicable, out.Result.PrivacyRisk)
}

func TestParse_CorrectionOnlyForFabricated(t *testing.T) {
	out := Parse("Status: Likely Real\nConfidence: 90\nReasoning: Well sourced.\nCorrection: n/a", analysis.ModeNews)

	assert.Equal(t, analysis.StatusLikelyReal, out.Result.Status)
	assert.Empty(t, out.Result.Correction)
}

func TestParse_ReasonBlockOnFollowingLines(t *testing.T) {
	text := "Verdict: Uncertain\nConfidence: 55\nReasoning:\nThe claim is plausible.\nNo corroboration was found.\n\nOther: ignored"

	out := Parse(text, analysis.ModeNews)

	assert.Equal(t, analysis.StatusUncertain, out.Result.Status)
	assert.Equal(t, "The claim is plausible. No corroboration was found.", out.Result.Reason)
}

func TestParse_Confidence(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{"Confidence: 85", 0.85},
		{"Confidence: 85%", 0.85},
		{"Confidence: 0.72", 0.72},
		{"Confidence: 100", 1.0},
		{"Confidence: 250", 1.0},
		{"Confidence score: 40.5%", 0.405},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			out := Parse("Status: Likely Real\n"+tt.raw, analysis.ModeNews)
			assert.InDelta(t, tt.want, out.Result.Confidence, 1e-9)
			assert.True(t, out.Parsed(FieldConfidence))
		})
	}
}

func TestParse_StatusVocabularyPerMode(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		mode   analysis.Mode
		status string
	}{
		{"deepfake longest token wins", "Status: Uncertain (Local Heuristics)", analysis.ModeDeepfake, analysis.StatusUncertainLocal},
		{"deepfake authentic", "Status: Likely Authentic", analysis.ModeDeepfake, analysis.StatusLikelyAuthentic},
		{"deepfake synonym", "Classification: manipulated", analysis.ModeDeepfake, analysis.StatusLikelyDeepfake},
		{"news synonym", "Verdict: FAKE", analysis.ModeNews, analysis.StatusLikelyFake},
		{"news case-insensitive", "status: likely real", analysis.ModeNews, analysis.StatusLikelyReal},
		{"news rejects deepfake vocabulary", "Status: Likely Deepfake", analysis.ModeNews, analysis.StatusUncertain},
		{"quota", "Status: Quota Exceeded", analysis.ModeNews, analysis.StatusQuotaExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, Parse(tt.text, tt.mode).Result.Status)
		})
	}
}

func TestParse_PrivacyRemap(t *testing.T) {
	tests := []struct {
		text   string
		status string
		risk   string
	}{
		{"Sensitivity: High\nConfidence: 90\nExplanation: Contains a home address.", analysis.StatusHighRisk, analysis.RiskHigh},
		{"Risk Level: Medium Risk", analysis.StatusMediumRisk, analysis.RiskMedium},
		{"Status: low", analysis.StatusLowRisk, analysis.RiskLow},
		{"Privacy Risk: High", analysis.StatusHighRisk, analysis.RiskHigh},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			out := Parse(tt.text, analysis.ModePrivacy)
			assert.Equal(t, tt.status, out.Result.Status)
			assert.Equal(t, tt.risk, out.Result.PrivacyRisk)
		})
	}
}

func TestParse_PrivacyHighlightsFoldIntoExplanation(t *testing.T) {
	text := `Sensitivity: Medium
Confidence: 70
Explanation: The text shares contact details.
Highlights:
- email address
- phone number`

	out := Parse(text, analysis.ModePrivacy)

	assert.Equal(t, analysis.StatusMediumRisk, out.Result.Status)
	assert.Contains(t, out.Result.PrivacyExplanation, "The text shares contact details.")
	assert.Contains(t, out.Result.PrivacyExplanation, "email address; phone number")
	assert.Equal(t, []string{"email address", "phone number"}, out.Result.Details["highlights"])
}

func TestParse_HighlightsEscalateNewsPrivacyRisk(t *testing.T) {
	base := "Status: Likely Real\nConfidence: 80\nReason: Sourced.\n"

	medium := Parse(base+"Highlights: victim's full name", analysis.ModeNews)
	assert.Equal(t, analysis.RiskMedium, medium.Result.PrivacyRisk)
	assert.Contains(t, medium.Result.PrivacyExplanation, "victim's full name")

	high := Parse(base+"Highlights:\n* home address\n* phone number\n* license plate", analysis.ModeNews)
	assert.Equal(t, analysis.RiskHigh, high.Result.PrivacyRisk)

	none := Parse(base+"Highlights: none", analysis.ModeNews)
	assert.Equal(t, analysis.RiskNotApplicable, none.Result.PrivacyRisk)
}

func TestParse_EmptyHighlightPhrasings(t *testing.T) {
	base := "Status: Likely Real\nConfidence: 80\nReason: Sourced.\n"

	tests := []struct {
		name       string
		highlights string
	}{
		{"bare", "Highlights: none"},
		{"trailing period", "Highlights: None."},
		{"none found", "Highlights: None found"},
		{"no personal data", "Highlights: No personal data."},
		{"not applicable", "Highlights: N/A"},
		{"not detected", "Highlights: not detected in the content"},
		{"bulleted none", "Highlights:\n- None"},
		{"bold none", "Highlights: **None**"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Parse(base+tt.highlights, analysis.ModeNews)
			assert.Equal(t, analysis.RiskNotApplicable, out.Result.PrivacyRisk)
			assert.Empty(t, out.Result.PrivacyExplanation)
			assert.Nil(t, out.Result.Details["highlights"])
		})
	}
}

func TestParse_HighlightItemsDropTrailingPunctuation(t *testing.T) {
	out := Parse("Status: Likely Real\nConfidence: 80\nReason: Sourced.\nHighlights: home address.", analysis.ModeNews)
	assert.Equal(t, analysis.RiskMedium, out.Result.PrivacyRisk)
	assert.Equal(t, "Content highlights personal data: home address.", out.Result.PrivacyExplanation)
}

func TestParse_JSON(t *testing.T) {
	text := "Here is my answer:\n```json\n" +
		`{"status": "Likely Fake", "confidence": 0.91, "explanation": "Fabricated quote.", "correction": "The quote is misattributed.", "highlights": ["a phone number"]}` +
		"\n```"

	out := Parse(text, analysis.ModeNews)

	assert.Empty(t, out.Missing)
	assert.Equal(t, analysis.StatusLikelyFake, out.Result.Status)
	assert.InDelta(t, 0.91, out.Result.Confidence, 1e-9)
	assert.Equal(t, "Fabricated quote.", out.Result.Reason)
	assert.Equal(t, "The quote is misattributed.", out.Result.Correction)
	assert.Equal(t, analysis.RiskMedium, out.Result.PrivacyRisk)
}

func TestParse_JSONIntegerConfidence(t *testing.T) {
	out := Parse(`{"verdict":"Likely Deepfake","confidence_score":82,"reasoning":"Blending artifacts"}`, analysis.ModeDeepfake)

	assert.Equal(t, analysis.StatusLikelyDeepfake, out.Result.Status)
	assert.InDelta(t, 0.82, out.Result.Confidence, 1e-9)
	assert.Equal(t, analysis.RiskLow, out.Result.PrivacyRisk)
}

func TestParse_PartialFieldsKeepDefaults(t *testing.T) {
	out := Parse("Status: Likely Fake", analysis.ModeNews)

	assert.Equal(t, analysis.StatusLikelyFake, out.Result.Status)
	assert.Equal(t, DefaultConfidence, out.Result.Confidence)
	assert.Equal(t, DefaultReason, out.Result.Reason)
	assert.False(t, out.Parsed(FieldConfidence))
	assert.True(t, out.Parsed(FieldStatus))
}
