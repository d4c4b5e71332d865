package statclassifier

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// corpusFile is the on-disk training corpus layout
type corpusFile struct {
	Examples []Example `yaml:"examples"`
}

// LoadCorpus reads a YAML corpus of labeled examples
func LoadCorpus(path string) ([]Example, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus %s: %w", path, err)
	}
	return ParseCorpus(data)
}

// ParseCorpus decodes YAML corpus bytes
func ParseCorpus(data []byte) ([]Example, error) {
	var f corpusFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse corpus: %w", err)
	}
	if len(f.Examples) == 0 {
		return nil, fmt.Errorf("corpus contains no examples")
	}
	return f.Examples, nil
}

// FileCorpus returns a CorpusSource reading path, or the bundled corpus when path is empty
func FileCorpus(path string) CorpusSource {
	if path == "" {
		return BundledCorpus
	}
	return func() ([]Example, error) {
		return LoadCorpus(path)
	}
}

// BundledCorpus returns the built-in synthesized training set
func BundledCorpus() ([]Example, error) {
	out := make([]Example, len(bundledExamples))
	copy(out, bundledExamples)
	return out, nil
}

var bundledExamples = []Example{
	{LabelReal, "According to the health ministry, the vaccination campaign reached two million people by Friday, officials said in a statement."},
	{LabelReal, "The central bank raised interest rates by a quarter point on Wednesday, citing persistent inflation, according to a press release."},
	{LabelReal, "Researchers at the university published a peer-reviewed study showing a modest decline in regional air pollution."},
	{LabelReal, "The city council approved the new budget after a public hearing, a spokesperson for the mayor confirmed."},
	{LabelReal, "Data from the national statistics office shows unemployment fell slightly last quarter, according to the official report."},
	{LabelReal, "The company reported quarterly earnings in line with analyst expectations and confirmed plans to expand its factory."},
	{LabelReal, "Scientists confirmed the discovery in a statement, noting that further research is needed to verify the findings."},
	{LabelReal, "Officials said the storm caused flooding in several districts and emergency services evacuated residents overnight."},
	{LabelReal, "The court ruled on Tuesday that the contract was valid, according to documents reviewed by reporters."},
	{LabelReal, "A spokesperson for the hospital said the patient was in stable condition after surgery on Monday."},
	{LabelReal, "The minister announced the policy at a press conference, and the full statement was published on the government website."},
	{LabelReal, "According to the annual report, the charity distributed food to thousands of families across the country."},
	{LabelReal, "Police confirmed that two people were arrested in connection with the robbery, according to an official statement."},
	{LabelReal, "The study, published in a medical journal, found that regular exercise was associated with lower blood pressure."},
	{LabelReal, "Election officials said turnout was higher than in the previous vote and results would be certified next week."},
	{LabelReal, "The airline said flights resumed after the technical issue was resolved, a company spokesperson confirmed to reporters."},
	{LabelReal, "Experts interviewed for the investigation said the data showed a steady increase in renewable energy use."},
	{LabelReal, "The school district confirmed in a statement that classes will resume on Monday after repairs are completed."},
	{LabelReal, "According to court documents, the company agreed to pay a settlement without admitting wrongdoing."},
	{LabelReal, "The weather service reported record temperatures in the region and issued an official heat advisory."},
	{LabelFake, "SHOCKING! Doctors hate this miracle cure that cures all diseases overnight, and they don't want you to know!"},
	{LabelFake, "You won't believe what this celebrity said, the shocking secret the media is hiding from you!"},
	{LabelFake, "BREAKING URGENT: the government is secretly putting microchips in vaccines, share before it's deleted!"},
	{LabelFake, "Unbelievable! Scientists admit the moon landing was faked in a shocking secret confession."},
	{LabelFake, "Act now! This one weird trick will make you rich overnight, banks are furious and want it banned!"},
	{LabelFake, "The shocking truth they don't want you to know: the virus is a hoax and it was all a lie."},
	{LabelFake, "Massive election fraud exposed! Millions of votes secretly switched in a rigged election cover-up!"},
	{LabelFake, "Famous actor found dead in a shocking conspiracy the media refuses to report, share this now!"},
	{LabelFake, "Congratulations! You've won the lottery, claim your prize now before this secret offer expires!"},
	{LabelFake, "Miracle cure discovered! This secret herb cures cancer overnight and doctors hate it!"},
	{LabelFake, "URGENT WARNING: drinking water with lemon will destroy your phone signal, experts are hiding the truth!"},
	{LabelFake, "This shocking video proves the conspiracy is real, the hidden truth they tried to cover up!"},
	{LabelFake, "Breaking: secret documents reveal aliens control the government, share before it's deleted!"},
	{LabelFake, "You won't believe this unbelievable trick that reverses aging overnight, doctors hate it!"},
	{LabelFake, "Last chance! The banks are collapsing tomorrow, withdraw everything now, they don't want you to know!"},
	{LabelFake, "Shocking cover-up exposed: the media is hiding the secret cure that big pharma banned!"},
	{LabelFake, "Final warning: the government will ban cash next week in a secret plan nobody talks about!"},
	{LabelFake, "Jaw-dropping secret revealed! This conspiracy will change everything you believed, share now!"},
	{LabelFake, "Urgent: a miracle pill melts fat overnight with no exercise, the shocking secret of celebrities!"},
	{LabelFake, "They don't want you to know this revolutionary secret that cures every disease, act now!"},
}
