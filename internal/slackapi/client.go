// Package slackapi implements contract.SlackClient on top of slack-go.
package slackapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/diegoclair/slack-auto-away/internal/domain/entity"
	"github.com/slack-go/slack"
)

const defaultTimeout = 10 * time.Second

type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	// APIURL overrides https://slack.com/api/, mostly for tests.
	APIURL string
}

type Client struct {
	cfg        Config
	httpClient *http.Client
}

func New(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	if cfg.APIURL != "" && !strings.HasSuffix(cfg.APIURL, "/") {
		cfg.APIURL += "/"
	}
	return &Client{cfg: cfg, httpClient: httpClient}
}

// userClient builds a slack-go client that acts with the given user token.
func (c *Client) userClient(token string) *slack.Client {
	opts := []slack.Option{slack.OptionHTTPClient(c.httpClient)}
	if c.cfg.APIURL != "" {
		opts = append(opts, slack.OptionAPIURL(c.cfg.APIURL))
	}
	return slack.New(token, opts...)
}

func (c *Client) SetPresence(ctx context.Context, token string, presence entity.Presence) error {
	if err := c.userClient(token).SetUserPresenceContext(ctx, string(presence)); err != nil {
		return fmt.Errorf("users.setPresence: %w", err)
	}
	return nil
}

// GetPresence maps a manual away to away and everything else to auto,
// since an auto user that is merely inactive also reports "away".
func (c *Client) GetPresence(ctx context.Context, token, userID string) (entity.Presence, error) {
	presence, err := c.userClient(token).GetUserPresenceContext(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("users.getPresence: %w", err)
	}
	if presence.ManualAway {
		return entity.PresenceAway, nil
	}
	return entity.PresenceAuto, nil
}

func (c *Client) GetUserTimezone(ctx context.Context, token, userID string) (string, error) {
	user, err := c.userClient(token).GetUserInfoContext(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("users.info: %w", err)
	}
	if user.TZ == "" {
		return "", fmt.Errorf("users.info: no timezone on profile of %s", userID)
	}
	return user.TZ, nil
}

func (c *Client) ExchangeOAuthCode(ctx context.Context, code string) (*entity.OAuthGrant, error) {
	resp, err := slack.GetOAuthV2ResponseContext(ctx, c.oauthHTTPClient(), c.cfg.ClientID, c.cfg.ClientSecret, code, c.cfg.RedirectURL)
	if err != nil {
		return nil, fmt.Errorf("oauth.v2.access: %w", err)
	}

	grant := &entity.OAuthGrant{
		UserID:      resp.AuthedUser.ID,
		TeamID:      resp.Team.ID,
		AccessToken: resp.AuthedUser.AccessToken,
	}
	for _, scope := range strings.Split(resp.AuthedUser.Scope, ",") {
		if scope = strings.TrimSpace(scope); scope != "" {
			grant.Scopes = append(grant.Scopes, scope)
		}
	}

	if grant.UserID == "" || grant.AccessToken == "" {
		return nil, fmt.Errorf("oauth.v2.access: response has no user token")
	}

	return grant, nil
}

func (c *Client) Respond(ctx context.Context, responseURL, text string) error {
	err := slack.PostWebhookCustomHTTPContext(ctx, responseURL, c.httpClient, &slack.WebhookMessage{
		Text: text,
	})
	if err != nil {
		return fmt.Errorf("response_url: %w", err)
	}
	return nil
}

// oauthHTTPClient sends oauth.v2.access to APIURL when it is overridden.
func (c *Client) oauthHTTPClient() *http.Client {
	if c.cfg.APIURL == "" {
		return c.httpClient
	}

	client := *c.httpClient
	client.Transport = rewriteTransport{base: c.cfg.APIURL, next: c.httpClient.Transport}
	return &client
}

type rewriteTransport struct {
	base string
	next http.RoundTripper
}

func (t rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if strings.HasPrefix(req.URL.String(), slack.APIURL) {
		rewritten, err := http.NewRequestWithContext(req.Context(), req.Method,
			t.base+strings.TrimPrefix(req.URL.String(), slack.APIURL), req.Body)
		if err != nil {
			return nil, err
		}
		rewritten.Header = req.Header
		rewritten.ContentLength = req.ContentLength
		req = rewritten
	}

	next := t.next
	if next == nil {
		next = http.DefaultTransport
	}
	return next.RoundTrip(req)
}
