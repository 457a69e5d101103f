// Package sentiment applies a pre-fitted text classification bundle. The
// bundle is ground truth: it is loaded once at process start, immutable
// afterward, and safe to share across runs.
package sentiment

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"market-mood/internal/domain"
)

const (
	manifestFile   = "manifest.json"
	vectorizerFile = "vectorizer.json"
	modelFile      = "model.json"
	labelsFile     = "labels.json"
)

var ErrEmptyBundle = errors.New("sentiment: bundle has no artifacts")

// Manifest identifies the bundle version. Preprocessing and artifacts are
// version-locked together: a bundle fitted against a different feature spec
// must not be loaded silently.
type Manifest struct {
	ModelKey           string `json:"model_key"`
	Version            int    `json:"version"`
	FeatureSpecVersion string `json:"feature_spec_version"`
}

type vectorizerArtifact struct {
	Vocabulary map[string]int `json:"vocabulary"`
	IDF        []float64      `json:"idf"`
}

type classifierArtifact struct {
	Weights [][]float64 `json:"weights"`
	Biases  []float64   `json:"biases"`
}

type labelArtifact struct {
	Classes []string `json:"classes"`
}

// Bundle holds the three fitted artifacts: tf-idf vectorizer, multinomial
// logistic classifier and label decoder. Immutable after LoadBundle.
type Bundle struct {
	manifest Manifest
	vocab    map[string]int
	idf      []float64
	weights  [][]float64
	biases   []float64
	labels   []domain.SentimentLabel
}

// LoadBundle reads and validates the artifacts under dir.
func LoadBundle(dir string) (*Bundle, error) {
	var manifest Manifest
	if err := readJSON(filepath.Join(dir, manifestFile), &manifest); err != nil {
		return nil, err
	}

	var vec vectorizerArtifact
	if err := readJSON(filepath.Join(dir, vectorizerFile), &vec); err != nil {
		return nil, err
	}
	var clf classifierArtifact
	if err := readJSON(filepath.Join(dir, modelFile), &clf); err != nil {
		return nil, err
	}
	var lab labelArtifact
	if err := readJSON(filepath.Join(dir, labelsFile), &lab); err != nil {
		return nil, err
	}

	b := &Bundle{
		manifest: manifest,
		vocab:    vec.Vocabulary,
		idf:      vec.IDF,
		weights:  clf.Weights,
		biases:   clf.Biases,
	}
	if len(b.vocab) == 0 || len(b.weights) == 0 {
		return nil, ErrEmptyBundle
	}
	if len(b.idf) != len(b.vocab) {
		return nil, fmt.Errorf("sentiment: idf has %d entries for %d vocabulary terms", len(b.idf), len(b.vocab))
	}
	for i, idx := range sortedIndexes(b.vocab) {
		if idx != i {
			return nil, fmt.Errorf("sentiment: vocabulary indexes are not dense 0..%d", len(b.vocab)-1)
		}
	}
	if len(b.weights) != len(lab.Classes) || len(b.biases) != len(lab.Classes) {
		return nil, fmt.Errorf("sentiment: %d weight rows and %d biases for %d classes",
			len(b.weights), len(b.biases), len(lab.Classes))
	}
	for k, row := range b.weights {
		if len(row) != len(b.vocab) {
			return nil, fmt.Errorf("sentiment: weight row %d has %d entries for %d terms", k, len(row), len(b.vocab))
		}
	}

	b.labels = make([]domain.SentimentLabel, len(lab.Classes))
	for i, c := range lab.Classes {
		label := domain.SentimentLabel(c)
		if !label.IsValid() {
			return nil, fmt.Errorf("sentiment: unknown class label %q", c)
		}
		b.labels[i] = label
	}

	return b, nil
}

// Version reports the bundle identity, e.g. "news-sentiment/v3".
func (b *Bundle) Version() string {
	return b.manifest.ModelKey + "/v" + strconv.Itoa(b.manifest.Version)
}

// FeatureSpecVersion reports the preprocessing contract the bundle was
// fitted against.
func (b *Bundle) FeatureSpecVersion() string {
	return b.manifest.FeatureSpecVersion
}

func readJSON(path string, dst any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("sentiment: read artifact: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("sentiment: decode %s: %w", filepath.Base(path), err)
	}
	return nil
}

func sortedIndexes(vocab map[string]int) []int {
	out := make([]int, 0, len(vocab))
	for _, idx := range vocab {
		out = append(out, idx)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}
