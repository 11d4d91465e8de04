package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/diegoclair/slack-auto-away/internal/handlers"
	"github.com/diegoclair/slack-auto-away/internal/handlers/test"
	"github.com/stretchr/testify/assert"
)

func TestNewRouter(t *testing.T) {
	_, handler, ctrl := test.GetHandlerTest(t)
	defer ctrl.Finish()

	router := handlers.NewRouter(handler)

	tests := []struct {
		name     string
		req      *http.Request
		wantCode int
		wantBody string
	}{
		{
			name:     "Should answer health check",
			req:      httptest.NewRequest(http.MethodGet, "/health", nil),
			wantCode: http.StatusOK,
			wantBody: "OK",
		},
		{
			name:     "Should route slash commands",
			req:      test.CreateSlackRequest(t, "help", "U1", test.SigningSecret),
			wantCode: http.StatusOK,
			wantBody: "Auto Away",
		},
		{
			name:     "Should route events",
			req:      test.CreateEventsRequest(t, `{"type":"url_verification","challenge":"abc"}`, test.SigningSecret),
			wantCode: http.StatusOK,
			wantBody: "abc",
		},
		{
			name:     "Should route oauth callback",
			req:      httptest.NewRequest(http.MethodGet, "/slack/oauth/callback?error=access_denied", nil),
			wantCode: http.StatusBadRequest,
			wantBody: "access_denied",
		},
		{
			name:     "Should reject wrong method",
			req:      httptest.NewRequest(http.MethodGet, "/slack/commands", nil),
			wantCode: http.StatusMethodNotAllowed,
		},
		{
			name:     "Should reject wrong method on oauth callback",
			req:      httptest.NewRequest(http.MethodPost, "/slack/oauth/callback", nil),
			wantCode: http.StatusMethodNotAllowed,
		},
		{
			name:     "Should return not found for unknown path",
			req:      httptest.NewRequest(http.MethodGet, "/nope", nil),
			wantCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := test.CreateTestRecorder()
			router.ServeHTTP(recorder, tt.req)

			assert.Equal(t, tt.wantCode, recorder.Code)
			if tt.wantBody != "" {
				assert.Contains(t, recorder.Body.String(), tt.wantBody)
			}
		})
	}
}
