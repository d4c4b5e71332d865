package statclassifier

import (
	"math"
	"sort"
)

// VectorizerOptions bounds the vocabulary
type VectorizerOptions struct {
	MinDF       int     // minimum number of documents a term must appear in
	MaxDF       float64 // maximum fraction of documents a term may appear in
	MaxFeatures int
}

// DefaultVectorizerOptions mirrors the classic news-classifier settings
func DefaultVectorizerOptions() VectorizerOptions {
	return VectorizerOptions{MinDF: 2, MaxDF: 0.7, MaxFeatures: 5000}
}

// sparseVector maps feature index to weight
type sparseVector map[int]float64

// vectorizer is an immutable TF-IDF model over unigrams and bigrams
type vectorizer struct {
	vocabulary map[string]int
	idf        []float64
}

func fitVectorizer(docs [][]string, opts VectorizerOptions) *vectorizer {
	n := len(docs)
	df := make(map[string]int)
	tf := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]bool)
		for _, g := range doc {
			tf[g]++
			if !seen[g] {
				seen[g] = true
				df[g]++
			}
		}
	}

	maxDocs := int(math.Floor(opts.MaxDF * float64(n)))
	if opts.MaxDF <= 0 || opts.MaxDF >= 1 {
		maxDocs = n
	}
	var kept []string
	for term, count := range df {
		if count >= opts.MinDF && count <= maxDocs {
			kept = append(kept, term)
		}
	}

	// highest corpus frequency first, ties alphabetical for determinism
	sort.Slice(kept, func(i, j int) bool {
		if tf[kept[i]] != tf[kept[j]] {
			return tf[kept[i]] > tf[kept[j]]
		}
		return kept[i] < kept[j]
	})
	if opts.MaxFeatures > 0 && len(kept) > opts.MaxFeatures {
		kept = kept[:opts.MaxFeatures]
	}
	sort.Strings(kept)

	v := &vectorizer{vocabulary: make(map[string]int, len(kept)), idf: make([]float64, len(kept))}
	for i, term := range kept {
		v.vocabulary[term] = i
		v.idf[i] = math.Log(float64(1+n)/float64(1+df[term])) + 1
	}
	return v
}

// transform returns the L2-normalized TF-IDF vector of doc
func (v *vectorizer) transform(doc []string) sparseVector {
	vec := make(sparseVector)
	for _, g := range doc {
		if idx, ok := v.vocabulary[g]; ok {
			vec[idx]++
		}
	}
	var norm float64
	for idx, count := range vec {
		w := count * v.idf[idx]
		vec[idx] = w
		norm += w * w
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for idx := range vec {
			vec[idx] /= norm
		}
	}
	return vec
}

func (v *vectorizer) size() int {
	return len(v.idf)
}
