package spark

import (
	"strings"
	"time"
)

// Scoring weights. These are fixed design constants tuned against real
// campaign data, not inferred at runtime.
const (
	weightExactKeyword  = 30
	weightPartialMatch  = 20
	weightOfferWord     = 20
	weightOfferBonus    = 10
	weightEngagedThread = 10
	weightUpvoted       = 5
	weightFresh         = 10

	minScore      = 20
	maxScore      = 100
	minWordLength = 3

	freshWindow = 30 * 24 * time.Hour
)

// scoreRule awards its weight when the text contains any of its phrases.
type scoreRule struct {
	weight  int
	phrases []string
}

// vocabRules are phrase-to-weight signals for buying intent and expressed
// pain. All matching is case-insensitive substring matching.
var vocabRules = []scoreRule{
	{weight: 20, phrases: []string{
		"help", "advice", "struggling", "problem", "question",
		"recommend", "stuck", "difficult", "challenge", "issue",
	}},
	{weight: 25, phrases: []string{
		"looking for", "need", "want", "seeking", "searching for",
		"trying to find", "best", "recommendations", "suggestions",
		"alternatives", "budget", "price", "cost", "worth it",
		"worth the money", "investment",
	}},
	{weight: 15, phrases: []string{
		"motivation", "motivated", "life", "personal", "improve",
		"better", "goal", "success",
	}},
}

var variationSuffixes = []string{"help", "advice", "tips", "guide", "recommendations"}

// keywordVariations expands each keyword into itself plus suffixed variants
// ("X help", "X advice", ...) to widen query coverage.
func keywordVariations(keywords []string) []string {
	variations := make([]string, 0, len(keywords)*(len(variationSuffixes)+1))
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		variations = append(variations, kw)
		for _, suffix := range variationSuffixes {
			variations = append(variations, kw+" "+suffix)
		}
	}
	return variations
}

// isScorablePost filters out posts that can never be leads regardless of
// score: pinned or promoted posts, link posts, crossposts, and posts whose
// content was removed or deleted.
func isScorablePost(p RedditPost) bool {
	if p.IsStickied || p.IsPromoted || p.IsCrosspost || !p.IsSelf {
		return false
	}
	switch p.Title {
	case "[removed]", "[deleted]":
		return false
	}
	switch p.Selftext {
	case "[removed]", "[deleted]":
		return false
	}
	return true
}

// ScorePost computes a relevance score for a post against a campaign's
// keywords and offer description. The second return value is false when the
// post should be excluded: no keyword matched at all, or the total fell
// below the acceptance threshold.
func ScorePost(p RedditPost, keywords []string, offer string, now time.Time) (int, bool) {
	text := strings.ToLower(p.Title + " " + p.Selftext)

	score := 0
	keywordMatched := false
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if strings.Contains(text, kw) {
			score += weightExactKeyword
			keywordMatched = true
			continue
		}
		// One scoring path per keyword: partial credit only when no
		// exact match, and only for sub-words long enough to carry
		// meaning.
		for _, word := range strings.Fields(kw) {
			if len(word) > minWordLength && strings.Contains(text, word) {
				score += weightPartialMatch
				keywordMatched = true
				break
			}
		}
	}
	if !keywordMatched {
		return 0, false
	}

	if offer != "" {
		offerMatches := 0
		for _, word := range strings.Fields(strings.ToLower(offer)) {
			if len(word) > minWordLength && strings.Contains(text, word) {
				offerMatches++
			}
		}
		if offerMatches > 0 {
			score += offerMatches*weightOfferWord + weightOfferBonus
		}
	}

	for _, rule := range vocabRules {
		for _, phrase := range rule.phrases {
			if strings.Contains(text, phrase) {
				score += rule.weight
				break
			}
		}
	}

	if p.NumComments > 5 {
		score += weightEngagedThread
	}
	if p.Ups > 10 {
		score += weightUpvoted
	}
	if !p.Created.IsZero() && now.Sub(p.Created) < freshWindow {
		score += weightFresh
	}

	if score > maxScore {
		score = maxScore
	}
	if score < minScore {
		return score, false
	}
	return score, true
}
