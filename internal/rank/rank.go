// Package rank scores catalog candidates against a free-text
// title/author query and produces a stable top-N ordering.
package rank

import (
	"sort"
	"strings"

	"github.com/pedroespecial101/mam-downloader/internal/catalog"
)

// DefaultTopN is how many ranked results are returned when the caller
// doesn't say otherwise.
const DefaultTopN = 10

const (
	titleWeight  = 0.7
	authorWeight = 0.3
)

// Scored pairs a candidate with its relevance score in [0,1]. Scores are
// derived per call, never persisted.
type Scored struct {
	Score     float64
	Candidate catalog.Candidate
}

// FuzzyScore scores field against query. Both are trimmed and lowercased;
// an empty side scores 0, a substring match scores exactly 1, anything
// else gets the gestalt similarity ratio.
func FuzzyScore(query, field string) float64 {
	q := strings.ToLower(strings.TrimSpace(query))
	f := strings.ToLower(strings.TrimSpace(field))

	if q == "" || f == "" {
		return 0
	}

	if strings.Contains(f, q) {
		return 1
	}

	return Ratio(q, f)
}

// Rank scores every candidate against the title and/or author query and
// returns at most topN results, best first. Candidates scoring zero are
// dropped; equal scores keep their arrival order. An empty result means
// no close match, which is a normal outcome.
func Rank(candidates []catalog.Candidate, title, author string, topN int) []Scored {
	if topN <= 0 {
		topN = DefaultTopN
	}

	scored := make([]Scored, 0, len(candidates))

	for _, c := range candidates {
		var titleScore, authorScore float64

		if title != "" {
			titleScore = FuzzyScore(title, c.Title)
		}

		if author != "" {
			authorScore = FuzzyScore(author, c.AuthorString())
		}

		var score float64

		switch {
		case title != "" && author != "":
			score = titleWeight*titleScore + authorWeight*authorScore
		case title != "":
			score = titleScore
		case author != "":
			score = authorScore
		}

		scored = append(scored, Scored{Score: score, Candidate: c})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	top := make([]Scored, 0, topN)

	for _, s := range scored {
		if s.Score <= 0 {
			break
		}

		top = append(top, s)
		if len(top) >= topN {
			break
		}
	}

	return top
}
