package slack

import (
	"errors"
	"testing"
	"time"

	"github.com/diegoclair/slack-auto-away/internal/domain"
	"github.com/diegoclair/slack-auto-away/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	saturday, sunday := time.Saturday, time.Sunday

	tests := []struct {
		name         string
		text         string
		wantType     CommandType
		wantMutation *entity.ScheduleMutation
		wantTimezone string
		wantErr      string
	}{
		{name: "Should default to help", text: "  ", wantType: CmdHelp},
		{name: "Should parse status", text: "status", wantType: CmdStatus},
		{name: "Should accept login alias", text: "login", wantType: CmdAuth},
		{name: "Should parse logout", text: "logout", wantType: CmdLogout},
		{name: "Should parse debug", text: "DEBUG", wantType: CmdDebug},
		{name: "Should parse off", text: "off", wantType: CmdOff},
		{
			name:         "Should parse default times",
			text:         "schedule 08:30 17:45",
			wantType:     CmdSchedule,
			wantMutation: &entity.ScheduleMutation{Kind: entity.MutationSetTimes, TimeAuto: "08:30", TimeAway: "17:45"},
		},
		{
			name:    "Should reject a single digit hour",
			text:    "schedule 8:30 17:45",
			wantErr: `invalid auto time "8:30"`,
		},
		{
			name:    "Should reject a single time",
			text:    "schedule 08:30",
			wantErr: "expected an auto time and an away time",
		},
		{
			name:    "Should reject an invalid time",
			text:    "schedule 08:30 25:00",
			wantErr: `invalid away time "25:00"`,
		},
		{
			name:         "Should turn saturday off",
			text:         "saturday off",
			wantType:     CmdWeekend,
			wantMutation: &entity.ScheduleMutation{Kind: entity.MutationDisableDay, Weekday: &saturday},
		},
		{
			name:         "Should turn sunday back on",
			text:         "sun on",
			wantType:     CmdWeekend,
			wantMutation: &entity.ScheduleMutation{Kind: entity.MutationEnableDay, Weekday: &sunday},
		},
		{
			name:         "Should reset sunday to the default times",
			text:         "sunday same",
			wantType:     CmdWeekend,
			wantMutation: &entity.ScheduleMutation{Kind: entity.MutationSameAsDefault, Weekday: &sunday},
		},
		{
			name:         "Should set saturday times",
			text:         "sat 10:00 16:00",
			wantType:     CmdWeekend,
			wantMutation: &entity.ScheduleMutation{Kind: entity.MutationSetTimes, Weekday: &saturday, TimeAuto: "10:00", TimeAway: "16:00"},
		},
		{
			name:    "Should require a weekend option",
			text:    "saturday",
			wantErr: "missing option",
		},
		{
			name:         "Should add an exception date",
			text:         "except add 2024-12-25",
			wantType:     CmdExcept,
			wantMutation: &entity.ScheduleMutation{Kind: entity.MutationAddException, Date: "2024-12-25"},
		},
		{
			name:         "Should remove an exception date",
			text:         "except remove 2024-12-25",
			wantType:     CmdExcept,
			wantMutation: &entity.ScheduleMutation{Kind: entity.MutationRemoveException, Date: "2024-12-25"},
		},
		{
			name:    "Should reject a malformed date",
			text:    "except add 12/25/2024",
			wantErr: "invalid date",
		},
		{
			name:         "Should parse pause",
			text:         "pause",
			wantType:     CmdPause,
			wantMutation: &entity.ScheduleMutation{Kind: entity.MutationPause},
		},
		{
			name:         "Should parse resume",
			text:         "resume",
			wantType:     CmdResume,
			wantMutation: &entity.ScheduleMutation{Kind: entity.MutationResume},
		},
		{
			name:         "Should keep timezone case",
			text:         "timezone America/Regina",
			wantType:     CmdTimezone,
			wantTimezone: "America/Regina",
		},
		{
			name:     "Should read timezone from profile when none is given",
			text:     "tz",
			wantType: CmdTimezone,
		},
		{
			name:    "Should reject unknown timezones",
			text:    "timezone Moon/Base",
			wantErr: "unknown timezone",
		},
		{
			name:    "Should reject unknown commands",
			text:    "dance",
			wantErr: "unknown command: dance",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := ParseCommand(tt.text)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantType, cmd.Type)
			assert.Equal(t, tt.wantMutation, cmd.Mutation)
			assert.Equal(t, tt.wantTimezone, cmd.TimezoneName)
		})
	}
}

func TestParseCommand_MutationsApply(t *testing.T) {
	s := entity.DefaultSchedule()
	for _, text := range []string{"schedule 07:00 15:30", "sunday off", "saturday 12:00 13:00", "except add 2024-07-04"} {
		cmd, err := ParseCommand(text)
		require.NoError(t, err)
		require.NoError(t, cmd.Mutation.Apply(&s))
	}

	assert.Equal(t, "07:00", s.TimeAuto)
	assert.True(t, s.DisableSundaySchedule)
	assert.True(t, s.DifferentSaturdaySchedule)
	assert.Equal(t, []string{"2024-07-04"}, s.ExceptionDates)
}

func TestFormatStatus(t *testing.T) {
	s := entity.DefaultSchedule()
	s.DisableSundaySchedule = true
	s.PauseUpdates = true
	s.ExceptionDates = []string{"2024-12-25"}

	text := FormatStatus(&entity.UserStatus{
		UserID:        "U1",
		Authenticated: true,
		TimezoneName:  "America/Regina",
		Schedule:      &s,
	})

	assert.Contains(t, text, "Slack account connected")
	assert.Contains(t, text, "Timezone: America/Regina")
	assert.Contains(t, text, "Every day: auto at 09:00, away at 17:00")
	assert.Contains(t, text, "Saturday: same as every day")
	assert.Contains(t, text, "Sunday: off")
	assert.Contains(t, text, "Skipped dates: 2024-12-25")
	assert.Contains(t, text, "Paused")

	text = FormatStatus(&entity.UserStatus{UserID: "U2"})
	assert.Contains(t, text, "/away auth")
	assert.Contains(t, text, "No schedule")
}

func TestFormatDiagnosis(t *testing.T) {
	text := FormatDiagnosis(&entity.Diagnosis{
		Status:    &entity.UserStatus{UserID: "U1"},
		Indices:   []string{"HAS_AUTH"},
		LocalTime: "Mon 2024-02-12 18:00 CST",
		Decision:  entity.SetAway,
		Reason:    "away-window",
	})
	assert.Contains(t, text, "Indices: HAS_AUTH")
	assert.Contains(t, text, "Decision now: SetAway (away-window)")

	text = FormatDiagnosis(&entity.Diagnosis{Status: &entity.UserStatus{UserID: "U1"}, Err: errors.New("bad zone")})
	assert.Contains(t, text, "Indices: none")
	assert.Contains(t, text, "Evaluation error: bad zone")
}

func TestErrorText(t *testing.T) {
	assert.Contains(t, ErrorText(domain.ErrNotAuthenticated), "/away auth")
	assert.Contains(t, ErrorText(entity.ErrInvalidMutation), "invalid schedule change")
	assert.Equal(t, "❌ Something went wrong, please try again", ErrorText(errors.New("db is down")))
}
