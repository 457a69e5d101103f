package sentiment

import (
	"context"
	"math"
	"strings"

	"market-mood/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

// Prediction is one classifier output row.
type Prediction struct {
	Label      domain.SentimentLabel
	Confidence float64
}

// Classifier runs inference against a loaded bundle. The bundle is treated
// as an opaque black box; callers only see labels and confidences.
type Classifier struct {
	bundle *Bundle
	tracer trace.Tracer
}

func NewClassifier(bundle *Bundle, tracer trace.Tracer) *Classifier {
	return &Classifier{bundle: bundle, tracer: tracer}
}

// ClassifyBatch classifies normalized texts, one prediction per input in
// input order.
func (c *Classifier) ClassifyBatch(ctx context.Context, texts []string) []Prediction {
	_, span := c.tracer.Start(ctx, "sentiment.classify-batch")
	defer span.End()

	out := make([]Prediction, len(texts))
	for i, text := range texts {
		out[i] = c.Classify(text)
	}
	return out
}

// Classify vectorizes one normalized text and returns the argmax class with
// its probability. Confidence is the maximum class probability, always in
// [0,1]. Empty text degrades to the bias-only prior, never an error.
func (c *Classifier) Classify(text string) Prediction {
	x := c.vectorize(text)

	scores := make([]float64, len(c.bundle.weights))
	for k, row := range c.bundle.weights {
		scores[k] = dot(row, x) + c.bundle.biases[k]
	}
	probs := softmax(scores)

	best := 0
	for k := 1; k < len(probs); k++ {
		if probs[k] > probs[best] {
			best = k
		}
	}
	return Prediction{Label: c.bundle.labels[best], Confidence: probs[best]}
}

// vectorize builds the L2-normalized tf-idf vector for text. Terms outside
// the fitted vocabulary are ignored.
func (c *Classifier) vectorize(text string) []float64 {
	x := make([]float64, len(c.bundle.idf))
	for _, term := range strings.Fields(text) {
		idx, ok := c.bundle.vocab[term]
		if !ok {
			continue
		}
		x[idx] += c.bundle.idf[idx]
	}

	norm := 0.0
	for _, v := range x {
		norm += v * v
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range x {
			x[i] /= norm
		}
	}
	return x
}

func softmax(scores []float64) []float64 {
	maxScore := scores[0]
	for _, s := range scores[1:] {
		if s > maxScore {
			maxScore = s
		}
	}
	sum := 0.0
	out := make([]float64, len(scores))
	for i, s := range scores {
		out[i] = math.Exp(s - maxScore)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

func dot(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	s := 0.0
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}
