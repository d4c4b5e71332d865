// Package statclassifier is the local first-pass news classifier: a TF-IDF
// bag of unigrams and bigrams feeding a logistic regression.
package statclassifier

import (
	"errors"
	"fmt"
	"strings"
)

// Label is the binary class
type Label string

const (
	LabelReal Label = "Real"
	LabelFake Label = "Fake"
)

var (
	// ErrEmptyInput means preprocessing left no tokens to classify
	ErrEmptyInput = errors.New("statclassifier: no classifiable tokens in input")
	// ErrNoFeatures means none of the input's n-grams are in the trained vocabulary
	ErrNoFeatures = errors.New("statclassifier: input shares no features with the training vocabulary")
	// ErrNotTrained means the model could not be built
	ErrNotTrained = errors.New("statclassifier: model is not trained")
)

// Example is one labeled training document
type Example struct {
	Label Label  `yaml:"label"`
	Text  string `yaml:"text"`
}

// Prediction is a label with the probability of that label
type Prediction struct {
	Label      Label   `json:"label"`
	Confidence float64 `json:"confidence"`
	Features   int     `json:"features"`
}

// Model is an immutable trained classifier, safe for concurrent Predict calls
type Model struct {
	vec       *vectorizer
	clf       *logisticRegression
	trainedOn int
}

// Train fits a new model; it never mutates previously trained models
func Train(examples []Example, opts VectorizerOptions) (*Model, error) {
	var docs [][]string
	var ys []float64
	classes := map[Label]int{}

	for i, ex := range examples {
		label, err := normalizeLabel(ex.Label)
		if err != nil {
			return nil, fmt.Errorf("example %d: %w", i, err)
		}
		tokens := ngrams(Preprocess(ex.Text))
		if len(tokens) == 0 {
			continue
		}
		docs = append(docs, tokens)
		if label == LabelFake {
			ys = append(ys, 1)
		} else {
			ys = append(ys, 0)
		}
		classes[label]++
	}
	if classes[LabelFake] == 0 || classes[LabelReal] == 0 {
		return nil, fmt.Errorf("training corpus needs both classes (real=%d, fake=%d)", classes[LabelReal], classes[LabelFake])
	}

	vec := fitVectorizer(docs, opts)
	if vec.size() == 0 {
		return nil, fmt.Errorf("training corpus produced an empty vocabulary")
	}
	xs := make([]sparseVector, len(docs))
	for i, doc := range docs {
		xs[i] = vec.transform(doc)
	}

	return &Model{
		vec:       vec,
		clf:       fitLogistic(xs, ys, vec.size(), defaultTrainOptions()),
		trainedOn: len(docs),
	}, nil
}

// Predict classifies text
func (m *Model) Predict(text string) (Prediction, error) {
	tokens := Preprocess(text)
	if len(tokens) == 0 {
		return Prediction{}, ErrEmptyInput
	}
	x := m.vec.transform(ngrams(tokens))
	if len(x) == 0 {
		return Prediction{}, ErrNoFeatures
	}

	pFake := m.clf.probability(x)
	p := Prediction{Label: LabelFake, Confidence: pFake, Features: len(x)}
	if pFake < 0.5 {
		p.Label = LabelReal
		p.Confidence = 1 - pFake
	}
	return p, nil
}

// VocabularySize reports the number of features
func (m *Model) VocabularySize() int {
	return m.vec.size()
}

func normalizeLabel(l Label) (Label, error) {
	switch strings.ToLower(strings.TrimSpace(string(l))) {
	case "real", "true", "0":
		return LabelReal, nil
	case "fake", "false", "1":
		return LabelFake, nil
	}
	return "", fmt.Errorf("unknown label %q", l)
}
