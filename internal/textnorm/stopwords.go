package textnorm

import (
	_ "embed"
	"strings"
)

//go:embed stopwords.txt
var stopwordData string

// keepList exempts negations and intensifiers from stopword removal:
// sentiment polarity hinges on them ("not good" vs "good"). Entries are
// matched after punctuation stripping, so contracted forms appear without
// apostrophes.
var keepList = []string{
	"not", "no", "nor", "neither", "never", "nt", "very", "too", "so", "really",
	"just", "only", "even", "still", "always", "ever", "more", "most", "own",
	"ain", "aren", "arent", "couldn", "couldnt", "didn", "didnt", "doesn",
	"doesnt", "don", "dont", "hadn", "hadnt", "hasn", "hasnt", "haven",
	"havent", "isn", "isnt", "mightn", "mightnt", "mustn", "mustnt", "needn",
	"neednt", "shan", "shant", "shouldn", "shouldnt", "wasn", "wasnt", "weren",
	"werent", "won", "wont", "wouldn", "wouldnt",
}

// buildStopSet returns the embedded stopword list minus the keep-list,
// with every entry reduced to its letters-only form.
func buildStopSet() map[string]struct{} {
	keep := make(map[string]struct{}, len(keepList))
	for _, w := range keepList {
		keep[w] = struct{}{}
	}

	stop := make(map[string]struct{}, 256)
	for _, line := range strings.Split(stopwordData, "\n") {
		w := stripNonLetters(strings.ToLower(strings.TrimSpace(line)))
		if w == "" {
			continue
		}
		if _, exempt := keep[w]; exempt {
			continue
		}
		stop[w] = struct{}{}
	}
	return stop
}
