package spark

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt"
	"golang.org/x/oauth2"
)

// RedditOAuthConfig holds the web-app credentials for the per-user
// authorization code flow used to post comments on a user's behalf.
type RedditOAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	UserAgent    string
}

func (c RedditOAuthConfig) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  c.RedirectURL,
		Scopes:       []string{"identity", "submit", "read"},
		Endpoint: oauth2.Endpoint{
			AuthURL:   "https://www.reddit.com/api/v1/authorize",
			TokenURL:  redditTokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}
}

// AuthorizationURL builds the consent URL for connecting a Reddit account.
// duration=permanent asks Reddit for a refresh token alongside the access
// token.
func (c RedditOAuthConfig) AuthorizationURL(state string) string {
	return c.oauth2Config().AuthCodeURL(state, oauth2.SetAuthURLParam("duration", "permanent"))
}

// Exchange swaps an authorization code for an access/refresh token pair.
func (c RedditOAuthConfig) Exchange(ctx context.Context, client *http.Client, code string) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, client)
	tok, err := c.oauth2Config().Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	return tok, nil
}

// Refresh obtains a fresh access token from a stored refresh token.
func (c RedditOAuthConfig) Refresh(ctx context.Context, client *http.Client, refreshToken string) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, client)
	src := c.oauth2Config().TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}
	// Reddit does not rotate refresh tokens; keep the original if the
	// response omitted one.
	if tok.RefreshToken == "" {
		tok.RefreshToken = refreshToken
	}
	return tok, nil
}

// OAuthStateClaims carries the authenticated user through the OAuth redirect
// round trip as a signed token passed in the state parameter.
type OAuthStateClaims struct {
	UserID    string `json:"user_id"`
	ReturnURL string `json:"return_url,omitempty"`
	jwt.StandardClaims
}

// SignStateToken mints a short-lived state token for the OAuth redirect.
func SignStateToken(secretKey, userID, returnURL string) (string, error) {
	claims := OAuthStateClaims{
		UserID:    userID,
		ReturnURL: returnURL,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  time.Now().Unix(),
			ExpiresAt: time.Now().Add(15 * time.Minute).Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secretKey))
}

// ParseStateToken validates the state token returned by the OAuth callback.
func ParseStateToken(secretKey, tokenString string) (*OAuthStateClaims, error) {
	var claims OAuthStateClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secretKey), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse state token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid state token")
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("state token missing user id")
	}
	return &claims, nil
}
