package contract

import (
	"context"

	"github.com/diegoclair/slack-auto-away/internal/domain/entity"
)

//go:generate go run go.uber.org/mock/mockgen -source=slack.go -destination=../../../mocks/slack.go -package=mocks

// SlackClient defines the Slack Web API calls the app makes.
// Every call that acts on behalf of a user takes that user's token.
type SlackClient interface {
	SetPresence(ctx context.Context, token string, presence entity.Presence) error

	// GetPresence reports the presence mode the user has chosen, not their activity.
	GetPresence(ctx context.Context, token, userID string) (entity.Presence, error)

	// GetUserTimezone returns the IANA zone from the user's Slack profile.
	GetUserTimezone(ctx context.Context, token, userID string) (string, error)

	ExchangeOAuthCode(ctx context.Context, code string) (*entity.OAuthGrant, error)

	// Respond posts an ephemeral message to a slash command response_url.
	Respond(ctx context.Context, responseURL, text string) error
}
