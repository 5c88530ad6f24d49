package spark

import (
	"context"
	"log/slog"
	"math/rand"
	"net/http"
	"sort"
	"strings"
	"time"
)

const (
	maxAcceptedPosts  = 100
	searchResultLimit = 50
	maxQueryTerms     = 3
)

var (
	searchWindows    = []string{"all", "year", "month", "week", "day"}
	searchSortOrders = []string{"relevance", "hot", "new", "top"}
)

// ScanInput describes one lead scan over Reddit.
type ScanInput struct {
	Keywords       []string `json:"keywords"`
	Offer          string   `json:"offer"`
	SubredditHints []string `json:"subreddit_hints"`
}

// ScoredPost is a post that passed the relevance filter.
type ScoredPost struct {
	Post  RedditPost `json:"post"`
	Score int        `json:"score"`
}

// ScanResult carries the accepted posts plus a flag indicating that at least
// one subreddit was skipped due to upstream rate limiting.
type ScanResult struct {
	Posts       []ScoredPost `json:"posts"`
	RateLimited bool         `json:"rate_limited"`
}

// Scanner searches Reddit for posts relevant to a campaign. The random
// source is injected so tests can pin permutations and query sampling.
type Scanner struct {
	client *http.Client
	rng    *rand.Rand
	logger *slog.Logger
}

func NewScanner(client *http.Client, rng *rand.Rand, logger *slog.Logger) *Scanner {
	if client == nil {
		client = http.DefaultClient
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Scanner{client: client, rng: rng, logger: logger}
}

// Scan walks subreddits (campaign hints first, then the shuffled curated
// pool), issuing one randomized search per subreddit and scoring the
// results. A rate-limited subreddit is skipped, not fatal. Scanning stops
// once enough posts have been accepted.
func (s *Scanner) Scan(ctx context.Context, deps *RedditDependencies, input ScanInput) (ScanResult, error) {
	var result ScanResult

	variations := keywordVariations(input.Keywords)
	if len(variations) == 0 {
		return result, nil
	}

	if err := deps.ensureValidToken(s.client, 5*time.Minute); err != nil {
		return result, err
	}

	pool := CuratedSubreddits()
	s.rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	subreddits := append(dedupeSubreddits(input.SubredditHints), pool...)

	seen := make(map[string]bool)
	now := time.Now()

	for _, subreddit := range subreddits {
		if len(result.Posts) >= maxAcceptedPosts {
			break
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		query := s.sampleQuery(variations)
		window := searchWindows[s.rng.Intn(len(searchWindows))]
		sortOrder := searchSortOrders[s.rng.Intn(len(searchSortOrders))]

		posts, err := searchSubreddit(ctx, s.client, deps.AuthToken, deps.UserAgent, subreddit, query, sortOrder, window, searchResultLimit)
		if err != nil {
			if IsRateLimited(err) {
				result.RateLimited = true
				s.logger.Warn("rate limited, skipping subreddit", "subreddit", subreddit)
				continue
			}
			s.logger.Error("subreddit search failed", "subreddit", subreddit, "error", err)
			continue
		}

		for _, post := range posts {
			if len(result.Posts) >= maxAcceptedPosts {
				break
			}
			if post.ID == "" || seen[post.ID] {
				continue
			}
			if !isScorablePost(post) {
				continue
			}
			score, ok := ScorePost(post, input.Keywords, input.Offer, now)
			if !ok {
				continue
			}
			seen[post.ID] = true
			result.Posts = append(result.Posts, ScoredPost{Post: post, Score: score})
		}
	}

	sort.SliceStable(result.Posts, func(i, j int) bool {
		return result.Posts[i].Score > result.Posts[j].Score
	})
	return result, nil
}

// sampleQuery picks up to maxQueryTerms variations at random and joins them
// with OR.
func (s *Scanner) sampleQuery(variations []string) string {
	n := maxQueryTerms
	if len(variations) < n {
		n = len(variations)
	}
	picked := make([]string, 0, n)
	for _, idx := range s.rng.Perm(len(variations))[:n] {
		picked = append(picked, variations[idx])
	}
	return strings.Join(picked, " OR ")
}

func dedupeSubreddits(hints []string) []string {
	out := make([]string, 0, len(hints))
	seen := make(map[string]bool)
	for _, h := range hints {
		h = strings.TrimPrefix(strings.TrimSpace(h), "r/")
		if h == "" || seen[strings.ToLower(h)] {
			continue
		}
		seen[strings.ToLower(h)] = true
		out = append(out, h)
	}
	return out
}
