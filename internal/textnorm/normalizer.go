// Package textnorm turns raw article text into the normalized form the
// sentiment model was fitted on. The output contract is version-locked to
// the model bundle: any change here invalidates trained artifacts.
package textnorm

import (
	"strings"

	"market-mood/internal/domain"

	golem "github.com/aaaton/golem/v4"
	"github.com/aaaton/golem/v4/dicts/en"
	prose "github.com/jdkato/prose/v2"
)

// allowedTagPrefixes are the Penn Treebank prefixes kept by the normalizer:
// adjectives (JJ*), nouns and proper nouns (NN*), adverbs (RB*), verbs (VB*).
var allowedTagPrefixes = []string{"JJ", "NN", "RB", "VB"}

// Normalizer lowercases, strips non-letters, lemmatizes and removes
// stopwords. It is pure: no I/O and deterministic output for equal input.
type Normalizer struct {
	lemmatizer *golem.Lemmatizer
	stop       map[string]struct{}
}

func New() (*Normalizer, error) {
	lemmatizer, err := golem.New(en.New())
	if err != nil {
		return nil, err
	}
	return &Normalizer{
		lemmatizer: lemmatizer,
		stop:       buildStopSet(),
	}, nil
}

// NormalizeAll produces one normalized string per article, same order and
// cardinality as the input. Title and content are folded into one text.
func (n *Normalizer) NormalizeAll(articles []domain.NewsArticle) []string {
	out := make([]string, len(articles))
	for i, a := range articles {
		out[i] = n.Normalize(strings.TrimSpace(a.Title + " " + a.Content))
	}
	return out
}

// Normalize applies the full chain to one text.
func (n *Normalizer) Normalize(text string) string {
	cleaned := collapse(stripNonLetters(strings.ToLower(text)))
	if cleaned == "" {
		return ""
	}

	kept := make([]string, 0, 32)
	for _, word := range n.tokenize(cleaned) {
		lemma := strings.ToLower(n.lemmatizer.Lemma(word))
		if lemma == "" {
			continue
		}
		if _, isStop := n.stop[lemma]; isStop {
			continue
		}
		kept = append(kept, lemma)
	}
	return strings.Join(kept, " ")
}

// tokenize POS-tags the text and keeps only the open-class words the model
// was trained on. If tagging fails the raw tokens are used unfiltered, which
// keeps the stage total and deterministic.
func (n *Normalizer) tokenize(cleaned string) []string {
	doc, err := prose.NewDocument(cleaned, prose.WithExtraction(false))
	if err != nil {
		return strings.Fields(cleaned)
	}

	tokens := doc.Tokens()
	words := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if !tagAllowed(tok.Tag) {
			continue
		}
		words = append(words, tok.Text)
	}
	return words
}

func tagAllowed(tag string) bool {
	for _, prefix := range allowedTagPrefixes {
		if strings.HasPrefix(tag, prefix) {
			return true
		}
	}
	return false
}

func stripNonLetters(in string) string {
	var b strings.Builder
	b.Grow(len(in))
	for _, r := range in {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func collapse(in string) string {
	return strings.Join(strings.Fields(in), " ")
}
