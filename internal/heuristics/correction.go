package heuristics

import (
	"regexp"
)

type correctionRule struct {
	category string
	pattern  *regexp.Regexp
	text     string
}

// correctionRules are evaluated in order; the first match wins
var correctionRules = []correctionRule{
	{
		category: "clickbait",
		pattern:  regexp.MustCompile(`(?i)(you won.t believe|shocking|unbelievable|jaw.dropping|mind.blowing|clickbait)`),
		text:     "This appears to be clickbait. Look for the same story from established outlets such as Reuters, AP News or BBC before sharing it.",
	},
	{
		category: "health_miracle",
		pattern:  regexp.MustCompile(`(?i)(miracle cure|cures? all diseases|cure for everything|doctors hate|virus (is a )?hoax|all a lie)`),
		text:     "Medical claims should be verified with the WHO, the CDC or peer-reviewed medical journals. No single treatment cures all diseases.",
	},
	{
		category: "election_fraud",
		pattern:  regexp.MustCompile(`(?is)election fraud.*(millions of votes|rigged)|(rigged|stolen) election`),
		text:     "Election claims should be checked against official election authorities and independent fact-checkers such as PolitiFact or FactCheck.org.",
	},
	{
		category: "celebrity_death",
		pattern:  regexp.MustCompile(`(?is)(celebrity|star|actor|actress|singer).{0,40}(dead|died|death|passed away)|death hoax`),
		text:     "Celebrity death reports are frequent hoaxes. Confirm with the person's official channels or major news outlets.",
	},
	{
		category: "lottery_scam",
		pattern:  regexp.MustCompile(`(?i)(won (the )?lottery|you.ve won|you have won|claim your prize)`),
		text:     "Unsolicited prize or lottery notices are typical scams. Never share personal or payment details to claim a prize.",
	},
	{
		category: "urgency",
		pattern:  regexp.MustCompile(`(?is)breaking.*urgent|urgent.*breaking|act now|final warning`),
		text:     "Urgent 'breaking' framing is a common pressure tactic. Check whether major news organizations are reporting the same event.",
	},
}

var (
	covidTopic    = regexp.MustCompile(`(?i)\b(covid|coronavirus|vaccine|pandemic)`)
	healthTopic   = regexp.MustCompile(`(?i)\b(health|medical|medicine|doctor|disease|cure|cancer|diet)`)
	politicsTopic = regexp.MustCompile(`(?i)\b(politic|election|government|president|senate|congress|vote|minister|parliament)`)
)

// SuggestCorrection returns a corrective suggestion for text judged fabricated
func SuggestCorrection(text string) string {
	folded := foldText(text)
	for _, rule := range correctionRules {
		if rule.pattern.MatchString(folded) {
			return rule.text
		}
	}

	switch {
	case covidTopic.MatchString(folded):
		return "For COVID-19 information, consult the World Health Organization (WHO) or the Centers for Disease Control and Prevention (CDC)."
	case healthTopic.MatchString(folded):
		return "Health information should be verified through peer-reviewed medical journals or qualified healthcare providers."
	case politicsTopic.MatchString(folded):
		return "Political claims should be cross-checked across multiple reputable news sources and official records."
	default:
		return "Verify this information with reputable outlets such as Reuters, AP News or BBC, or fact-checking sites like Snopes or PolitiFact."
	}
}

// CorrectionCategory reports which rule, if any, matched text
func CorrectionCategory(text string) string {
	folded := foldText(text)
	for _, rule := range correctionRules {
		if rule.pattern.MatchString(folded) {
			return rule.category
		}
	}
	return ""
}
