package slack

import (
	"errors"
	"fmt"
	"strings"

	"github.com/diegoclair/slack-auto-away/internal/domain"
	"github.com/diegoclair/slack-auto-away/internal/domain/entity"
	"github.com/diegoclair/slack-auto-away/internal/domain/timeutil"
)

func FormatSchedule(s *entity.UserSchedule) string {
	if s == nil {
		return "No schedule. Use `/away schedule HH:MM HH:MM` to create one."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "• Every day: auto at %s, away at %s\n", s.TimeAuto, s.TimeAway)
	b.WriteString("• Saturday: " + weekendLine(s.DisableSaturdaySchedule, s.DifferentSaturdaySchedule, s.SaturdayTimeAuto, s.SaturdayTimeAway) + "\n")
	b.WriteString("• Sunday: " + weekendLine(s.DisableSundaySchedule, s.DifferentSundaySchedule, s.SundayTimeAuto, s.SundayTimeAway) + "\n")

	if len(s.ExceptionDates) > 0 {
		b.WriteString("• Skipped dates: " + strings.Join(s.ExceptionDates, ", ") + "\n")
	}
	if s.PauseUpdates {
		b.WriteString("• ⏸️ Paused, nothing will change until you `/away resume`\n")
	}

	return strings.TrimSuffix(b.String(), "\n")
}

func weekendLine(disabled, different bool, timeAuto, timeAway string) string {
	switch {
	case disabled:
		return "off"
	case different:
		return fmt.Sprintf("auto at %s, away at %s", timeAuto, timeAway)
	default:
		return "same as every day"
	}
}

func FormatStatus(status *entity.UserStatus) string {
	var b strings.Builder
	b.WriteString("*Your Auto Away settings:*\n")

	if status.Authenticated {
		b.WriteString("✅ Slack account connected\n")
	} else {
		b.WriteString("❌ Slack account not connected. Use `/away auth`\n")
	}

	if status.TimezoneName != "" {
		fmt.Fprintf(&b, "🌍 Timezone: %s\n", status.TimezoneName)
	} else {
		b.WriteString("🌍 Timezone not set. Use `/away timezone`\n")
	}

	b.WriteString("\n*Schedule:*\n")
	b.WriteString(FormatSchedule(status.Schedule))
	return b.String()
}

func FormatDiagnosis(d *entity.Diagnosis) string {
	var b strings.Builder
	b.WriteString(FormatStatus(d.Status))
	b.WriteString("\n\n*Debug:*\n")

	indices := "none"
	if len(d.Indices) > 0 {
		indices = strings.Join(d.Indices, ", ")
	}
	fmt.Fprintf(&b, "• Indices: %s\n", indices)

	if d.LocalTime != "" {
		fmt.Fprintf(&b, "• Local time: %s\n", d.LocalTime)
	}
	if d.Err != nil {
		fmt.Fprintf(&b, "• Evaluation error: %v", d.Err)
		return b.String()
	}

	fmt.Fprintf(&b, "• Decision now: %s", d.Decision)
	if d.Reason != "" {
		fmt.Fprintf(&b, " (%s)", d.Reason)
	}
	return b.String()
}

// ErrorText turns a job or command error into something safe to show the user.
func ErrorText(err error) string {
	switch {
	case errors.Is(err, entity.ErrInvalidMutation),
		errors.Is(err, timeutil.ErrUnknownTimezone),
		errors.Is(err, timeutil.ErrInvalidClock):
		return fmt.Sprintf("❌ %v", err)
	case errors.Is(err, domain.ErrNotAuthenticated):
		return "❌ Connect your Slack account first with `/away auth`"
	case errors.Is(err, domain.ErrMissingScope):
		return "❌ Auto Away needs permission to change your presence. Please try `/away auth` again and allow it."
	default:
		return "❌ Something went wrong, please try again"
	}
}
