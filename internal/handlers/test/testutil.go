package test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/diegoclair/slack-auto-away/internal/handlers"
	"github.com/diegoclair/slack-auto-away/mocks"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const (
	SigningSecret = "test-signing-secret"
	ClientID      = "123.456"
	RedirectURL   = "https://away.example.com/slack/oauth/callback"
	ResponseURL   = "https://hooks.slack.com/commands/test"
)

type ServiceMocks struct {
	AccountServiceMock *mocks.MockAccountService
}

func GetHandlerTest(t *testing.T) (m ServiceMocks, handler *handlers.SlackHandler, ctrl *gomock.Controller) {
	t.Helper()

	ctrl = gomock.NewController(t)
	m = ServiceMocks{
		AccountServiceMock: mocks.NewMockAccountService(ctrl),
	}

	log := logrus.New()
	log.SetOutput(io.Discard)

	handler = handlers.New(m.AccountServiceMock, logrus.NewEntry(log), handlers.Config{
		SigningSecret: SigningSecret,
		ClientID:      ClientID,
		RedirectURL:   RedirectURL,
	})

	return
}

// CreateSlackRequest creates a properly signed Slack slash command request
func CreateSlackRequest(t *testing.T, text, userID, signingSecret string) *http.Request {
	t.Helper()

	form := url.Values{
		"token":        {"test-token"},
		"team_id":      {"T123456789"},
		"team_domain":  {"test-team"},
		"channel_id":   {"D123456789"},
		"channel_name": {"directmessage"},
		"user_id":      {userID},
		"user_name":    {"test-user"},
		"command":      {"/away"},
		"text":         {text},
		"response_url": {ResponseURL},
		"trigger_id":   {"test-trigger-id"},
	}

	return CreateSignedRequest(t, "/slack/commands", "application/x-www-form-urlencoded", form.Encode(), signingSecret)
}

// CreateEventsRequest creates a signed Events API request with a JSON body
func CreateEventsRequest(t *testing.T, body, signingSecret string) *http.Request {
	t.Helper()
	return CreateSignedRequest(t, "/slack/events", "application/json", body, signingSecret)
}

func CreateSignedRequest(t *testing.T, path, contentType, body, signingSecret string) *http.Request {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, path, strings.NewReader(body))
	require.NoError(t, err)

	req.Header.Set("Content-Type", contentType)

	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	req.Header.Set("X-Slack-Request-Timestamp", timestamp)
	req.Header.Set("X-Slack-Signature", generateSlackSignature(signingSecret, timestamp, body))

	return req
}

func generateSlackSignature(signingSecret, timestamp, body string) string {
	baseString := fmt.Sprintf("v0:%s:%s", timestamp, body)
	h := hmac.New(sha256.New, []byte(signingSecret))
	h.Write([]byte(baseString))
	signature := hex.EncodeToString(h.Sum(nil))
	return fmt.Sprintf("v0=%s", signature)
}

func CreateTestRecorder() *httptest.ResponseRecorder {
	return httptest.NewRecorder()
}
