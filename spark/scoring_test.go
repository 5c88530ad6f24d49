package spark

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScorePost(t *testing.T) {
	now := time.Now()

	t.Run("WorkedExample", func(t *testing.T) {
		// Exact keyword (+30), intent vocab (+25), help vocab (+20).
		post := RedditPost{
			Title:    "Looking for running shoes recommendations",
			Selftext: "currently struggling to find a good pair",
			IsSelf:   true,
		}
		score, ok := ScorePost(post, []string{"running shoes"}, "", now)
		require.True(t, ok)
		assert.Equal(t, 75, score)
	})

	t.Run("ZeroKeywordMatchesExcluded", func(t *testing.T) {
		// Strong intent and help signals must not rescue a post that
		// never mentions the keywords.
		post := RedditPost{
			Title:    "I love my cat",
			Selftext: "looking for help and recommendations, struggling with a problem",
			IsSelf:   true,
		}
		_, ok := ScorePost(post, []string{"CRM"}, "", now)
		assert.False(t, ok)
	})

	t.Run("PartialKeywordMatch", func(t *testing.T) {
		// "shoes" is a >3 char sub-word of "running shoes".
		post := RedditPost{
			Title:    "Best shoes for marathon training?",
			Selftext: "",
			IsSelf:   true,
		}
		score, ok := ScorePost(post, []string{"running shoes"}, "", now)
		require.True(t, ok)
		// partial +20, intent "best" +25
		assert.Equal(t, 45, score)
	})

	t.Run("OnePathPerKeyword", func(t *testing.T) {
		// An exact match must not also collect partial credit.
		post := RedditPost{
			Title:  "running shoes running shoes",
			IsSelf: true,
		}
		score, ok := ScorePost(post, []string{"running shoes"}, "", now)
		require.True(t, ok)
		assert.Equal(t, 30, score)
	})

	t.Run("EngagementAndFreshnessBonuses", func(t *testing.T) {
		post := RedditPost{
			Title:       "crm",
			IsSelf:      true,
			Ups:         11,
			NumComments: 6,
			Created:     now.Add(-24 * time.Hour),
		}
		score, ok := ScorePost(post, []string{"crm"}, "", now)
		require.True(t, ok)
		// keyword +30, comments +10, upvotes +5, freshness +10
		assert.Equal(t, 55, score)

		stale := post
		stale.Created = now.Add(-45 * 24 * time.Hour)
		score, ok = ScorePost(stale, []string{"crm"}, "", now)
		require.True(t, ok)
		assert.Equal(t, 45, score)
	})

	t.Run("ClampAt100", func(t *testing.T) {
		post := RedditPost{
			Title:       "Looking for the best CRM recommendations, struggling with my sales pipeline",
			Selftext:    "I want to improve my personal workflow, need advice on price and budget, worth it?",
			IsSelf:      true,
			Ups:         50,
			NumComments: 40,
			Created:     now.Add(-24 * time.Hour),
		}
		score, ok := ScorePost(post, []string{"crm", "sales pipeline"}, "sales pipeline tooling for small teams", now)
		require.True(t, ok)
		assert.Equal(t, 100, score)
	})

	t.Run("OfferBonus", func(t *testing.T) {
		post := RedditPost{
			Title:  "crm question about invoicing",
			IsSelf: true,
		}
		// keyword +30, help "question" +20, offer word "invoicing" +20
		// plus flat bonus +10.
		score, ok := ScorePost(post, []string{"crm"}, "automated invoicing", now)
		require.True(t, ok)
		assert.Equal(t, 80, score)
	})
}

func TestIsScorablePost(t *testing.T) {
	base := RedditPost{Title: "t", Selftext: "b", IsSelf: true}
	assert.True(t, isScorablePost(base))

	stickied := base
	stickied.IsStickied = true
	assert.False(t, isScorablePost(stickied))

	promoted := base
	promoted.IsPromoted = true
	assert.False(t, isScorablePost(promoted))

	crosspost := base
	crosspost.IsCrosspost = true
	assert.False(t, isScorablePost(crosspost))

	link := base
	link.IsSelf = false
	assert.False(t, isScorablePost(link))

	removed := base
	removed.Selftext = "[removed]"
	assert.False(t, isScorablePost(removed))

	deleted := base
	deleted.Title = "[deleted]"
	assert.False(t, isScorablePost(deleted))
}

func TestKeywordVariations(t *testing.T) {
	vars := keywordVariations([]string{"crm", " "})
	assert.Equal(t, []string{
		"crm", "crm help", "crm advice", "crm tips", "crm guide", "crm recommendations",
	}, vars)
}
