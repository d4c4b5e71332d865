package services

import (
	"fmt"
	"strings"

	"github.com/vaibhav1874/TrueVail/internal/analysis"
	"github.com/vaibhav1874/TrueVail/internal/backends"
	"github.com/vaibhav1874/TrueVail/internal/evidence"
)

const newsSystemPrompt = `You are a careful fact-checking assistant. Decide whether the news content is real or fabricated.
Use the evidence excerpts when they are provided and say so when they contradict the content.
Answer in exactly this format and nothing else:
Status: Likely Real | Likely Fake | Uncertain
Confidence: <integer 0-100>
Reason: <one to three sentences>
Correction: <what is actually true, only when the status is Likely Fake>
Highlights: <comma-separated personal data that appears in the content, or none>`

const privacySystemPrompt = `You are a data protection reviewer. Rate how sensitive the personal data in the text is.
Consider contact details, government identifiers, financial and health data, credentials and locations.
Answer in exactly this format and nothing else:
Sensitivity: Low | Medium | High
Confidence: <integer 0-100>
Explanation: <one to three sentences naming the kinds of data found>
Highlights:
- <one sensitive item per line>`

const deepfakeSystemPrompt = `You are a media forensics analyst. Judge whether the attached image or video frame was manipulated or generated by AI.
Look for inconsistent lighting and shadows, warped backgrounds, irregular skin texture, mismatched reflections and malformed hands or text.
Answer in exactly this format and nothing else:
Status: Likely Authentic | Likely Deepfake | Uncertain
Confidence: <integer 0-100>
Reason: <one to three sentences naming the artifacts you saw>`

// newsPrompt asks for a verdict on content, grounded on evidence when any was found
func newsPrompt(content string, links []analysis.EvidenceLink) backends.Prompt {
	var b strings.Builder
	b.WriteString("News content:\n")
	b.WriteString(content)
	if grounding := evidence.FormatForPrompt(links); grounding != "" {
		b.WriteString("\n\nEvidence from other sources:\n")
		b.WriteString(grounding)
	}
	return backends.Prompt{System: newsSystemPrompt, User: b.String()}
}

func privacyPrompt(text string) backends.Prompt {
	return backends.Prompt{
		System: privacySystemPrompt,
		User:   "Text to review:\n" + text,
	}
}

func deepfakePrompt(media *analysis.MediaPayload) backends.Prompt {
	user := "Analyze the attached media."
	if media != nil && media.Filename != "" {
		user = fmt.Sprintf("Analyze the attached media (file name %q, type %s).", media.Filename, media.MimeType)
	}
	return backends.Prompt{System: deepfakeSystemPrompt, User: user}
}
