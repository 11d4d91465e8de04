package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/diegoclair/slack-auto-away/internal/domain"
	"github.com/diegoclair/slack-auto-away/internal/domain/contract"
	"github.com/diegoclair/slack-auto-away/internal/domain/entity"
	slackcmd "github.com/diegoclair/slack-auto-away/internal/domain/slack"
	"github.com/sirupsen/logrus"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
)

const (
	authorizeURL = "https://slack.com/oauth/v2/authorize"

	eventUserChange = "user_change"
)

type Config struct {
	SigningSecret string
	ClientID      string
	RedirectURL   string
}

type SlackHandler struct {
	account contract.AccountService
	log     *logrus.Entry
	cfg     Config
	now     func() time.Time
}

func New(account contract.AccountService, log *logrus.Entry, cfg Config) *SlackHandler {
	return &SlackHandler{
		account: account,
		log:     log,
		cfg:     cfg,
		now:     time.Now,
	}
}

// verify checks the Slack signature and returns the request body.
func (h *SlackHandler) verify(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return nil, false
	}
	r.Body = io.NopCloser(bytes.NewBuffer(body))

	verifier, err := slack.NewSecretsVerifier(r.Header, h.cfg.SigningSecret)
	if err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		return nil, false
	}

	if _, err := verifier.Write(body); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return nil, false
	}

	if err := verifier.Ensure(); err != nil {
		h.log.WithError(err).Warn("rejected unsigned slack request")
		w.WriteHeader(http.StatusUnauthorized)
		return nil, false
	}

	return body, true
}

func (h *SlackHandler) HandleSlashCommand(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.verify(w, r); !ok {
		return
	}

	s, err := slack.SlashCommandParse(r)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	cmd, err := slackcmd.ParseCommand(s.Text)
	if err != nil {
		h.respondJSON(w, h.createErrorResponse(err.Error()))
		return
	}

	h.respondJSON(w, h.handleCommand(r.Context(), cmd, &s))
}

func (h *SlackHandler) handleCommand(ctx context.Context, cmd *slackcmd.Command, slashCmd *slack.SlashCommand) *slack.Msg {
	switch cmd.Type {
	case slackcmd.CmdHelp:
		return h.ephemeral(slackcmd.GetHelpText())
	case slackcmd.CmdAuth:
		return h.handleAuth()
	case slackcmd.CmdStatus:
		return h.handleStatus(ctx, slashCmd)
	case slackcmd.CmdDebug:
		return h.handleDebug(ctx, slashCmd)
	case slackcmd.CmdLogout:
		return h.enqueue(ctx, slashCmd, entity.Job{Type: entity.JobLogout}, "⏳ Signing you out...")
	case slackcmd.CmdOff:
		return h.enqueue(ctx, slashCmd, entity.Job{Type: entity.JobClearSchedule}, "⏳ Removing your schedule...")
	case slackcmd.CmdTimezone:
		return h.enqueue(ctx, slashCmd, entity.Job{
			Type:         entity.JobStoreTimezone,
			TimezoneName: cmd.TimezoneName,
		}, "⏳ Updating your timezone...")
	case slackcmd.CmdSchedule, slackcmd.CmdWeekend, slackcmd.CmdExcept, slackcmd.CmdPause, slackcmd.CmdResume:
		return h.enqueue(ctx, slashCmd, entity.Job{
			Type:     entity.JobUpdateSchedule,
			Mutation: cmd.Mutation,
		}, "⏳ Updating your schedule...")
	default:
		return h.createErrorResponse("Unknown command. Try `/away help`.")
	}
}

func (h *SlackHandler) handleAuth() *slack.Msg {
	query := url.Values{
		"client_id":  {h.cfg.ClientID},
		"user_scope": {domain.ScopeUsersWrite + "," + domain.ScopeUsersRead},
	}
	if h.cfg.RedirectURL != "" {
		query.Set("redirect_uri", h.cfg.RedirectURL)
	}

	return h.ephemeral(fmt.Sprintf(
		"🔐 <%s?%s|Click here to authorize Auto Away> to change your presence on your behalf.",
		authorizeURL, query.Encode()))
}

func (h *SlackHandler) handleStatus(ctx context.Context, slashCmd *slack.SlashCommand) *slack.Msg {
	status, err := h.account.Status(ctx, slashCmd.UserID)
	if err != nil {
		h.log.WithError(err).WithField("userId", slashCmd.UserID).Error("failed to load status")
		return h.createErrorResponse("Failed to load your status")
	}
	return h.ephemeral(slackcmd.FormatStatus(status))
}

func (h *SlackHandler) handleDebug(ctx context.Context, slashCmd *slack.SlashCommand) *slack.Msg {
	d, err := h.account.Diagnose(ctx, slashCmd.UserID, h.now())
	if err != nil {
		h.log.WithError(err).WithField("userId", slashCmd.UserID).Error("failed to diagnose user")
		return h.createErrorResponse("Failed to load your diagnostics")
	}
	return h.ephemeral(slackcmd.FormatDiagnosis(d))
}

func (h *SlackHandler) enqueue(ctx context.Context, slashCmd *slack.SlashCommand, job entity.Job, ack string) *slack.Msg {
	job.UserID = slashCmd.UserID
	job.ResponseURL = slashCmd.ResponseURL

	if _, err := h.account.Enqueue(ctx, job); err != nil {
		h.log.WithError(err).WithFields(logrus.Fields{
			"userId":  slashCmd.UserID,
			"jobType": job.Type,
		}).Error("failed to enqueue job")
		return h.createErrorResponse("Failed to queue your request, please try again")
	}
	return h.ephemeral(ack)
}

// HandleEvents answers the url_verification handshake and syncs timezones on user_change.
func (h *SlackHandler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	body, ok := h.verify(w, r)
	if !ok {
		return
	}

	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	switch envelope.Type {
	case slackevents.URLVerification:
		var challenge slackevents.EventsAPIURLVerificationEvent
		if err := json.Unmarshal(body, &challenge); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(challenge.Challenge))

	case slackevents.CallbackEvent:
		var callback slackevents.EventsAPICallbackEvent
		if err := json.Unmarshal(body, &callback); err != nil || callback.InnerEvent == nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		h.handleInnerEvent(r.Context(), *callback.InnerEvent)
		w.WriteHeader(http.StatusOK)

	default:
		w.WriteHeader(http.StatusOK)
	}
}

// handleInnerEvent never fails the request; Slack would only retry the same payload.
func (h *SlackHandler) handleInnerEvent(ctx context.Context, raw json.RawMessage) {
	var event struct {
		Type string     `json:"type"`
		User slack.User `json:"user"`
	}
	if err := json.Unmarshal(raw, &event); err != nil {
		h.log.WithError(err).Warn("failed to decode slack event")
		return
	}

	if event.Type != eventUserChange || event.User.ID == "" || event.User.TZ == "" {
		return
	}

	if err := h.account.SyncTimezone(ctx, event.User.ID, event.User.TZ); err != nil {
		h.log.WithError(err).WithField("userId", event.User.ID).Error("failed to sync timezone")
	}
}

// HandleOAuthCallback finishes the OAuth flow started by `/away auth`.
func (h *SlackHandler) HandleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if reason := query.Get("error"); reason != "" {
		h.respondText(w, http.StatusBadRequest, "Authorization was cancelled ("+reason+"). Run `/away auth` to try again.")
		return
	}

	code := query.Get("code")
	if code == "" {
		h.respondText(w, http.StatusBadRequest, "Missing authorization code.")
		return
	}

	grant, err := h.account.CompleteOAuth(r.Context(), code)
	if err != nil {
		h.log.WithError(err).Error("oauth callback failed")
		if errors.Is(err, domain.ErrMissingScope) {
			h.respondText(w, http.StatusBadRequest, "Auto Away needs permission to change your presence. Run `/away auth` and approve every scope.")
			return
		}
		h.respondText(w, http.StatusInternalServerError, "Something went wrong while connecting your account. Please try again.")
		return
	}

	h.log.WithField("userId", grant.UserID).Info("user authorized")
	h.respondText(w, http.StatusOK, "✅ Auto Away is connected. You can close this window and run `/away schedule HH:MM HH:MM` in Slack.")
}

func (h *SlackHandler) ephemeral(text string) *slack.Msg {
	return &slack.Msg{
		ResponseType: slack.ResponseTypeEphemeral,
		Text:         text,
	}
}

func (h *SlackHandler) createErrorResponse(message string) *slack.Msg {
	return h.ephemeral(fmt.Sprintf("❌ %s", message))
}

func (h *SlackHandler) respondJSON(w http.ResponseWriter, msg *slack.Msg) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(msg); err != nil {
		h.log.WithError(err).Error("failed to write slack response")
	}
}

func (h *SlackHandler) respondText(w http.ResponseWriter, status int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(text))
}
