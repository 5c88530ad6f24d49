package spark

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	redditTokenURL = "https://www.reddit.com/api/v1/access_token"
	redditAPIBase  = "https://oauth.reddit.com"
)

// RedditDependencies holds the script-app credentials used for read-side
// Reddit access (search). The per-user write-side flow lives in oauth.go.
type RedditDependencies struct {
	UserAgent    string    `json:"user_agent"`
	Username     string    `json:"username"`
	Password     string    `json:"password"`
	ClientID     string    `json:"client_id"`
	ClientSecret string    `json:"client_secret"`
	AuthToken    string    `json:"auth_token"`
	AuthTokenExp time.Time `json:"auth_token_exp"`
}

// ensureValidToken ensures the cached app token is valid for at least the
// specified duration, fetching a fresh one if not.
func (deps *RedditDependencies) ensureValidToken(client *http.Client, minRemaining time.Duration) error {
	if deps.AuthToken != "" && time.Now().Add(minRemaining).Before(deps.AuthTokenExp) {
		return nil
	}
	token, err := getRedditAppToken(client, *deps)
	if err != nil {
		return fmt.Errorf("failed to get Reddit token: %w", err)
	}
	deps.AuthToken = token
	deps.AuthTokenExp = time.Now().Add(1 * time.Hour)
	return nil
}

// getRedditAppToken obtains a script-app token via the password grant.
func getRedditAppToken(client *http.Client, deps RedditDependencies) (string, error) {
	form := url.Values{}
	form.Add("grant_type", "password")
	form.Add("username", deps.Username)
	form.Add("password", deps.Password)
	encodedForm := form.Encode()

	req, err := http.NewRequest(http.MethodPost, redditTokenURL, strings.NewReader(encodedForm))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}

	req.Header.Set("User-Agent", deps.UserAgent)
	auth := base64.StdEncoding.EncodeToString([]byte(deps.ClientID + ":" + deps.ClientSecret))
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make token request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read token response body (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &UpstreamError{StatusCode: resp.StatusCode, Body: string(bodyBytes)}
	}

	var result struct {
		AccessToken string `json:"access_token"`
		Error       string `json:"error,omitempty"`
	}
	if err := json.Unmarshal(bodyBytes, &result); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w (body: %s)", err, string(bodyBytes))
	}
	if result.AccessToken == "" {
		return "", fmt.Errorf("reddit token response contained no access token (error field: %q)", result.Error)
	}
	return result.AccessToken, nil
}

// RedditPost represents a candidate post pulled from the Reddit search API.
type RedditPost struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Selftext    string    `json:"selftext"`
	Subreddit   string    `json:"subreddit"`
	Author      string    `json:"author"`
	Permalink   string    `json:"permalink"`
	Ups         int       `json:"ups"`
	NumComments int       `json:"num_comments"`
	Created     time.Time `json:"created_utc"`
	IsSelf      bool      `json:"is_self"`
	IsStickied  bool      `json:"stickied"`
	IsPromoted  bool      `json:"promoted"`
	IsCrosspost bool      `json:"is_crosspost"`
}

// UnmarshalJSON handles Reddit's loose typing of created_utc (float, string,
// or number) and derives the crosspost flag from crosspost_parent.
func (p *RedditPost) UnmarshalJSON(data []byte) error {
	var rawData map[string]interface{}
	if err := json.Unmarshal(data, &rawData); err != nil {
		return err
	}

	var createdTime time.Time
	switch v := rawData["created_utc"].(type) {
	case float64:
		createdTime = time.Unix(int64(v), 0)
	case string:
		// Try RFC3339 first: posts that have already been through the JSON
		// data converter carry the time.Time encoding, not an epoch float.
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			ts, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("failed to parse created_utc timestamp: %w", err)
			}
			t = time.Unix(int64(ts), 0)
		}
		createdTime = t
	case json.Number:
		ts, err := v.Float64()
		if err != nil {
			return fmt.Errorf("failed to parse created_utc timestamp: %w", err)
		}
		createdTime = time.Unix(int64(ts), 0)
	default:
		createdTime = time.Time{}
	}

	type Aux struct {
		ID          string `json:"id"`
		Title       string `json:"title"`
		Selftext    string `json:"selftext"`
		Subreddit   string `json:"subreddit"`
		Author      string `json:"author"`
		Permalink   string `json:"permalink"`
		Ups         int    `json:"ups"`
		NumComments int    `json:"num_comments"`
		IsSelf      bool   `json:"is_self"`
		IsStickied  bool   `json:"stickied"`
		IsPromoted  bool   `json:"promoted"`
	}
	var aux Aux
	if err := json.Unmarshal(data, &aux); err != nil {
		return fmt.Errorf("failed to unmarshal reddit post: %w", err)
	}

	p.ID = aux.ID
	p.Title = aux.Title
	p.Selftext = aux.Selftext
	p.Subreddit = aux.Subreddit
	p.Author = aux.Author
	p.Permalink = aux.Permalink
	p.Ups = aux.Ups
	p.NumComments = aux.NumComments
	p.Created = createdTime
	p.IsSelf = aux.IsSelf
	p.IsStickied = aux.IsStickied
	p.IsPromoted = aux.IsPromoted

	_, hasParent := rawData["crosspost_parent"]
	_, hasParentList := rawData["crosspost_parent_list"]
	p.IsCrosspost = hasParent || hasParentList

	return nil
}

// PostFullname normalizes a bare post id to Reddit's "thing" id format.
func PostFullname(postID string) string {
	if strings.HasPrefix(postID, "t3_") {
		return postID
	}
	return "t3_" + postID
}

// searchSubreddit issues one restricted search request against a subreddit.
func searchSubreddit(ctx context.Context, client *http.Client, token, userAgent, subreddit, query, sort, timeWindow string, limit int) ([]RedditPost, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("restrict_sr", "true")
	q.Set("sort", sort)
	q.Set("t", timeWindow)
	q.Set("limit", strconv.Itoa(limit))
	searchURL := fmt.Sprintf("%s/r/%s/search?%s", redditAPIBase, subreddit, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read search response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var listing struct {
		Data struct {
			Children []struct {
				Data RedditPost `json:"data"`
			} `json:"children"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("failed to decode search listing: %w", err)
	}

	posts := make([]RedditPost, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		posts = append(posts, child.Data)
	}
	return posts, nil
}

// RedditIdentity is the subset of /api/v1/me used for token liveness checks.
type RedditIdentity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// GetRedditIdentity validates a user access token against the identity
// endpoint and returns the account it belongs to.
func GetRedditIdentity(ctx context.Context, client *http.Client, token, userAgent string) (*RedditIdentity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, redditAPIBase+"/api/v1/me", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create identity request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read identity response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var identity RedditIdentity
	if err := json.Unmarshal(body, &identity); err != nil {
		return nil, fmt.Errorf("failed to decode identity response: %w", err)
	}
	return &identity, nil
}

// SubmitRedditComment posts a comment on the given post with the user's
// access token and returns the created comment's id.
func SubmitRedditComment(ctx context.Context, client *http.Client, token, userAgent, postID, text string) (string, error) {
	form := url.Values{}
	form.Add("api_type", "json")
	form.Add("thing_id", PostFullname(postID))
	form.Add("text", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, redditAPIBase+"/api/comment", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create comment request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("comment request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", &UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var result struct {
		JSON struct {
			Errors [][]interface{} `json:"errors"`
			Data   struct {
				Things []struct {
					Data struct {
						ID string `json:"id"`
					} `json:"data"`
				} `json:"things"`
			} `json:"data"`
		} `json:"json"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to decode comment response: %w (body: %s)", err, string(body))
	}
	if len(result.JSON.Errors) > 0 {
		var errorMessages []string
		for _, errGroup := range result.JSON.Errors {
			var currentError []string
			for _, e := range errGroup {
				currentError = append(currentError, fmt.Sprintf("%v", e))
			}
			errorMessages = append(errorMessages, strings.Join(currentError, ", "))
		}
		return "", fmt.Errorf("reddit API returned errors: [%s]", strings.Join(errorMessages, "; "))
	}
	if len(result.JSON.Data.Things) == 0 {
		return "", fmt.Errorf("comment response contained no created thing (body: %s)", string(body))
	}
	return result.JSON.Data.Things[0].Data.ID, nil
}
