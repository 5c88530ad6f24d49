package api

import (
	"time"

	"github.com/google/uuid"
)

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type DefaultJSONResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// PaywallResponse is returned with a 402 when a plan limit blocks an action.
type PaywallResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
	Plan   string `json:"plan"`
	Used   int32  `json:"used"`
	Limit  int32  `json:"limit"`
}

type CreateCampaignRequest struct {
	Name       string   `json:"name"`
	Offer      string   `json:"offer"`
	WebsiteURL string   `json:"website_url"`
	Keywords   []string `json:"keywords"`
	Subreddits []string `json:"subreddits"`
}

type UpdateCampaignRequest struct {
	Name       string   `json:"name"`
	Offer      string   `json:"offer"`
	WebsiteURL string   `json:"website_url"`
	Keywords   []string `json:"keywords"`
	Subreddits []string `json:"subreddits"`
	Status     string   `json:"status"`
}

type CampaignResponse struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Offer      string    `json:"offer"`
	WebsiteURL string    `json:"website_url"`
	Keywords   []string  `json:"keywords"`
	Subreddits []string  `json:"subreddits"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type LeadResponse struct {
	ID           uuid.UUID `json:"id"`
	CampaignID   uuid.UUID `json:"campaign_id"`
	ExternalID   string    `json:"external_id"`
	Title        string    `json:"title"`
	Body         string    `json:"body"`
	Subreddit    string    `json:"subreddit"`
	Author       string    `json:"author"`
	Score        int32     `json:"score"`
	Upvotes      int32     `json:"upvotes"`
	NumComments  int32     `json:"num_comments"`
	PostedAt     time.Time `json:"posted_at,omitempty"`
	Contacted    bool      `json:"contacted"`
	DraftedReply string    `json:"drafted_reply,omitempty"`
	PermalinkURL string    `json:"permalink_url"`
}

type SearchRequest struct {
	Keywords       []string `json:"keywords"`
	Offer          string   `json:"offer"`
	SubredditHints []string `json:"subreddit_hints"`
}

type SearchResultItem struct {
	ExternalID  string    `json:"external_id"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	Subreddit   string    `json:"subreddit"`
	Author      string    `json:"author"`
	Score       int32     `json:"score"`
	Upvotes     int32     `json:"upvotes"`
	NumComments int32     `json:"num_comments"`
	PostedAt    time.Time `json:"posted_at,omitempty"`
}

type SearchResponse struct {
	Posts       []SearchResultItem `json:"posts"`
	RateLimited bool               `json:"rate_limited"`
}

type RefreshCampaignResponse struct {
	Message    string `json:"message"`
	WorkflowID string `json:"workflow_id"`
}

type DraftReplyRequest struct {
	LeadID         uuid.UUID `json:"lead_id"`
	Tone           string    `json:"tone"`
	SalesIntensity string    `json:"sales_intensity"`
}

type DraftReplyResponse struct {
	Reply string `json:"reply"`
}

type PostCommentRequest struct {
	LeadID uuid.UUID `json:"lead_id"`
	Text   string    `json:"text"`
}

type PostCommentResponse struct {
	CommentID string `json:"comment_id"`
}

type RedditConnectResponse struct {
	AuthorizationURL string `json:"authorization_url"`
}

type RedditStatusResponse struct {
	Connected bool   `json:"connected"`
	Username  string `json:"username,omitempty"`
}

// WebhookResponse mirrors the body returned for every payment IPN.
type WebhookResponse struct {
	Success   bool   `json:"success"`
	EventType string `json:"event_type"`
	Result    string `json:"result,omitempty"`
	Error     string `json:"error,omitempty"`
}
