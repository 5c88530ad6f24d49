package http

import (
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"time"

	"github.com/postspark/postspark/http/api"
	"github.com/postspark/postspark/internal/stools"
	"github.com/postspark/postspark/spark"
)

// handleSearch runs one synchronous Reddit scan with the caller's keywords.
// Campaign refreshes go through Temporal; this endpoint backs the ad-hoc
// "preview results" flow.
func handleSearch(l *slog.Logger) http.HandlerFunc {
	httpClient := &http.Client{Timeout: 30 * time.Second}
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.SearchRequest
		if err := stools.DecodeJSONBody(r, &req); err != nil {
			writeBadRequestError(w, fmt.Errorf("invalid request body: %w", err))
			return
		}
		if len(req.Keywords) == 0 {
			writeBadRequestError(w, fmt.Errorf("at least one keyword is required"))
			return
		}

		deps := redditDepsFromEnv()
		scanner := spark.NewScanner(httpClient, rand.New(rand.NewSource(time.Now().UnixNano())), l)
		result, err := scanner.Scan(r.Context(), &deps, spark.ScanInput{
			Keywords:       req.Keywords,
			Offer:          req.Offer,
			SubredditHints: req.SubredditHints,
		})
		if err != nil {
			writeInternalError(l, w, fmt.Errorf("scan failed: %w", err))
			return
		}

		resp := api.SearchResponse{RateLimited: result.RateLimited}
		for _, sp := range result.Posts {
			item := api.SearchResultItem{
				ExternalID:  sp.Post.ID,
				Title:       sp.Post.Title,
				Body:        sp.Post.Selftext,
				Subreddit:   sp.Post.Subreddit,
				Author:      sp.Post.Author,
				Score:       int32(sp.Score),
				Upvotes:     int32(sp.Post.Ups),
				NumComments: int32(sp.Post.NumComments),
			}
			if !sp.Post.Created.IsZero() {
				item.PostedAt = sp.Post.Created
			}
			resp.Posts = append(resp.Posts, item)
		}
		writeJSONResponse(w, resp, http.StatusOK)
	}
}
