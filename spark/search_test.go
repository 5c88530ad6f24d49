package spark

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// routingRoundTripper returns a canned response per subreddit and a default
// empty listing for everything else.
type routingRoundTripper struct {
	responses map[string]*http.Response
}

func (rt *routingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	for sub, resp := range rt.responses {
		if strings.Contains(req.URL.Path, "/r/"+sub+"/") {
			return resp, nil
		}
	}
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(bytes.NewBufferString(`{"data":{"children":[]}}`)),
		Header:     make(http.Header),
	}, nil
}

func listingResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     make(http.Header),
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestScannerRateLimitIsNonFatal(t *testing.T) {
	goodListing := fmt.Sprintf(`{"data":{"children":[{"data":{
		"id":"abc123",
		"title":"Looking for running shoes recommendations",
		"selftext":"currently struggling to find a good pair",
		"subreddit":"bbb",
		"author":"runner42",
		"ups":3,
		"num_comments":1,
		"created_utc":%d,
		"is_self":true
	}}]}}`, time.Now().Add(-24*time.Hour).Unix())

	client := &http.Client{Transport: &routingRoundTripper{
		responses: map[string]*http.Response{
			"aaa": listingResponse(http.StatusTooManyRequests, `{"error":429}`),
			"bbb": listingResponse(http.StatusOK, goodListing),
		},
	}}

	scanner := NewScanner(client, rand.New(rand.NewSource(1)), testLogger())
	deps := &RedditDependencies{
		UserAgent:    "postspark-test",
		AuthToken:    "token",
		AuthTokenExp: time.Now().Add(time.Hour),
	}

	result, err := scanner.Scan(context.Background(), deps, ScanInput{
		Keywords:       []string{"running shoes"},
		SubredditHints: []string{"aaa", "bbb"},
	})
	require.NoError(t, err)

	assert.True(t, result.RateLimited, "429 on one subreddit should set the flag")
	require.Len(t, result.Posts, 1, "the healthy subreddit's posts should survive")
	assert.Equal(t, "abc123", result.Posts[0].Post.ID)
	assert.Equal(t, 85, result.Posts[0].Score, "75 from keyword and vocab hits plus the freshness bump")
}

func TestScannerSortsByScoreDescending(t *testing.T) {
	listing := `{"data":{"children":[
		{"data":{"id":"low","title":"crm","selftext":"","subreddit":"ccc","is_self":true}},
		{"data":{"id":"high","title":"Looking for crm recommendations","selftext":"struggling with sales","subreddit":"ccc","is_self":true}}
	]}}`
	client := &http.Client{Transport: &routingRoundTripper{
		responses: map[string]*http.Response{
			"ccc": listingResponse(http.StatusOK, listing),
		},
	}}

	scanner := NewScanner(client, rand.New(rand.NewSource(1)), testLogger())
	deps := &RedditDependencies{
		UserAgent:    "postspark-test",
		AuthToken:    "token",
		AuthTokenExp: time.Now().Add(time.Hour),
	}

	result, err := scanner.Scan(context.Background(), deps, ScanInput{
		Keywords:       []string{"crm"},
		SubredditHints: []string{"ccc"},
	})
	require.NoError(t, err)
	require.Len(t, result.Posts, 2)
	assert.Equal(t, "high", result.Posts[0].Post.ID)
	assert.Equal(t, "low", result.Posts[1].Post.ID)
	assert.False(t, result.RateLimited)
}

func TestScannerSkipsUnscorablePosts(t *testing.T) {
	listing := `{"data":{"children":[
		{"data":{"id":"pinned","title":"crm help","stickied":true,"is_self":true}},
		{"data":{"id":"link","title":"crm help","is_self":false}},
		{"data":{"id":"xpost","title":"crm help","is_self":true,"crosspost_parent":"t3_zzz"}},
		{"data":{"id":"gone","title":"[removed]","is_self":true}},
		{"data":{"id":"ok","title":"crm help","is_self":true}}
	]}}`
	client := &http.Client{Transport: &routingRoundTripper{
		responses: map[string]*http.Response{
			"ddd": listingResponse(http.StatusOK, listing),
		},
	}}

	scanner := NewScanner(client, rand.New(rand.NewSource(1)), testLogger())
	deps := &RedditDependencies{
		UserAgent:    "postspark-test",
		AuthToken:    "token",
		AuthTokenExp: time.Now().Add(time.Hour),
	}

	result, err := scanner.Scan(context.Background(), deps, ScanInput{
		Keywords:       []string{"crm"},
		SubredditHints: []string{"ddd"},
	})
	require.NoError(t, err)
	require.Len(t, result.Posts, 1)
	assert.Equal(t, "ok", result.Posts[0].Post.ID)
}

func TestRedditPostUnmarshalTimestampForms(t *testing.T) {
	var p RedditPost
	require.NoError(t, p.UnmarshalJSON([]byte(`{"id":"a","created_utc":1700000000.0}`)))
	assert.Equal(t, int64(1700000000), p.Created.Unix())

	require.NoError(t, p.UnmarshalJSON([]byte(`{"id":"b","created_utc":"1700000000"}`)))
	assert.Equal(t, int64(1700000000), p.Created.Unix())

	require.NoError(t, p.UnmarshalJSON([]byte(`{"id":"c","created_utc":"2023-11-14T22:13:20Z"}`)))
	assert.Equal(t, int64(1700000000), p.Created.Unix())

	require.NoError(t, p.UnmarshalJSON([]byte(`{"id":"d"}`)))
	assert.True(t, p.Created.IsZero())
}

// Posts are handed between activities through JSON, so a marshaled post must
// decode back without loss, including the zero time.
func TestRedditPostMarshalRoundTrip(t *testing.T) {
	orig := RedditPost{
		ID:        "rt1",
		Title:     "need help automating reports",
		Subreddit: "smallbusiness",
		Created:   time.Unix(1700000000, 0).UTC(),
	}
	data, err := json.Marshal(orig)
	require.NoError(t, err)

	var got RedditPost
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, orig.ID, got.ID)
	assert.Equal(t, orig.Created.Unix(), got.Created.Unix())

	data, err = json.Marshal(RedditPost{ID: "rt2"})
	require.NoError(t, err)
	var zero RedditPost
	require.NoError(t, json.Unmarshal(data, &zero))
	assert.True(t, zero.Created.IsZero())
}

func TestPostFullname(t *testing.T) {
	assert.Equal(t, "t3_abc", PostFullname("abc"))
	assert.Equal(t, "t3_abc", PostFullname("t3_abc"))
}
