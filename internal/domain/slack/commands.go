package slack

import (
	"fmt"
	"strings"
	"time"

	"github.com/diegoclair/slack-auto-away/internal/domain"
	"github.com/diegoclair/slack-auto-away/internal/domain/entity"
	"github.com/diegoclair/slack-auto-away/internal/domain/timeutil"
)

type CommandType string

const (
	CmdHelp     CommandType = "help"
	CmdStatus   CommandType = "status"
	CmdAuth     CommandType = "auth"
	CmdLogout   CommandType = "logout"
	CmdDebug    CommandType = "debug"
	CmdSchedule CommandType = "schedule"
	CmdWeekend  CommandType = "weekend"
	CmdExcept   CommandType = "except"
	CmdPause    CommandType = "pause"
	CmdResume   CommandType = "resume"
	CmdOff      CommandType = "off"
	CmdTimezone CommandType = "timezone"
)

type Command struct {
	Type CommandType
	Args []string
	Raw  string

	// Mutation is set for every command that changes the stored schedule.
	Mutation *entity.ScheduleMutation
	// TimezoneName is empty when the zone should be read from the Slack profile.
	TimezoneName string
}

func ParseCommand(text string) (*Command, error) {
	parts := strings.Fields(strings.ToLower(strings.TrimSpace(text)))
	if len(parts) == 0 {
		return &Command{Type: CmdHelp}, nil
	}

	cmd := &Command{
		Raw:  text,
		Args: parts[1:],
	}

	switch parts[0] {
	case "help":
		cmd.Type = CmdHelp
	case "status":
		cmd.Type = CmdStatus
	case "auth", "login":
		cmd.Type = CmdAuth
	case "logout":
		cmd.Type = CmdLogout
	case "debug":
		cmd.Type = CmdDebug
	case "off":
		cmd.Type = CmdOff
	case "pause":
		cmd.Type = CmdPause
		cmd.Mutation = &entity.ScheduleMutation{Kind: entity.MutationPause}
	case "resume":
		cmd.Type = CmdResume
		cmd.Mutation = &entity.ScheduleMutation{Kind: entity.MutationResume}
	case "schedule":
		cmd.Type = CmdSchedule
		m, err := parseTimes(cmd.Args, nil)
		if err != nil {
			return nil, fmt.Errorf("%w. Usage: `/away schedule HH:MM HH:MM`", err)
		}
		cmd.Mutation = m
	case "sat", "saturday", "sun", "sunday":
		cmd.Type = CmdWeekend
		m, err := parseWeekend(domain.WeekdayNames[parts[0]], cmd.Args)
		if err != nil {
			return nil, fmt.Errorf("%w. Usage: `/away %s off|on|same|HH:MM HH:MM`", err, parts[0])
		}
		cmd.Mutation = m
	case "except", "exception":
		cmd.Type = CmdExcept
		m, err := parseException(cmd.Args)
		if err != nil {
			return nil, fmt.Errorf("%w. Usage: `/away except add|remove YYYY-MM-DD`", err)
		}
		cmd.Mutation = m
	case "timezone", "tz":
		cmd.Type = CmdTimezone
		if len(cmd.Args) > 0 {
			// zone names are case sensitive, so take them from the original text
			name := strings.Fields(strings.TrimSpace(text))[1]
			canonical, err := timeutil.ValidateTimezone(name)
			if err != nil {
				return nil, fmt.Errorf("unknown timezone %q. Use an IANA name such as America/Regina", name)
			}
			cmd.TimezoneName = canonical
		}
	default:
		return nil, fmt.Errorf("unknown command: %s", parts[0])
	}

	return cmd, nil
}

func parseTimes(args []string, weekday *time.Weekday) (*entity.ScheduleMutation, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("expected an auto time and an away time")
	}

	auto, err := timeutil.ParseClock(args[0])
	if err != nil {
		return nil, fmt.Errorf("invalid auto time %q", args[0])
	}
	away, err := timeutil.ParseClock(args[1])
	if err != nil {
		return nil, fmt.Errorf("invalid away time %q", args[1])
	}

	return &entity.ScheduleMutation{
		Kind:     entity.MutationSetTimes,
		Weekday:  weekday,
		TimeAuto: auto.String(),
		TimeAway: away.String(),
	}, nil
}

func parseWeekend(weekday time.Weekday, args []string) (*entity.ScheduleMutation, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("missing option")
	}

	switch args[0] {
	case "off":
		return &entity.ScheduleMutation{Kind: entity.MutationDisableDay, Weekday: &weekday}, nil
	case "on":
		return &entity.ScheduleMutation{Kind: entity.MutationEnableDay, Weekday: &weekday}, nil
	case "same":
		return &entity.ScheduleMutation{Kind: entity.MutationSameAsDefault, Weekday: &weekday}, nil
	default:
		return parseTimes(args, &weekday)
	}
}

func parseException(args []string) (*entity.ScheduleMutation, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("expected add or remove and a date")
	}
	if _, err := time.Parse(time.DateOnly, args[1]); err != nil {
		return nil, fmt.Errorf("invalid date %q", args[1])
	}

	switch args[0] {
	case "add":
		return &entity.ScheduleMutation{Kind: entity.MutationAddException, Date: args[1]}, nil
	case "remove", "rm":
		return &entity.ScheduleMutation{Kind: entity.MutationRemoveException, Date: args[1]}, nil
	default:
		return nil, fmt.Errorf("unknown option %q", args[0])
	}
}

func GetHelpText() string {
	return `*Auto Away* switches your Slack presence between auto and away on a daily schedule.

*Getting started:*
• ` + "`/away auth`" + ` - Connect your Slack account
• ` + "`/away schedule 09:00 17:00`" + ` - Go auto at 09:00 and away at 17:00

*Weekends:*
• ` + "`/away saturday off`" + ` - No changes on Saturday (same for ` + "`sunday`" + `)
• ` + "`/away saturday 10:00 16:00`" + ` - Different times on Saturday
• ` + "`/away saturday same`" + ` - Use the weekday times on Saturday
• ` + "`/away saturday on`" + ` - Turn Saturday back on

*Exceptions:*
• ` + "`/away except add 2024-12-25`" + ` - Skip a date
• ` + "`/away except remove 2024-12-25`" + ` - Stop skipping a date

*Control:*
• ` + "`/away pause`" + ` / ` + "`/away resume`" + ` - Stop or restart all changes
• ` + "`/away timezone [Area/City]`" + ` - Set your timezone, or read it from your profile
• ` + "`/away off`" + ` - Remove your schedule
• ` + "`/away status`" + ` - Show your settings
• ` + "`/away logout`" + ` - Disconnect and delete your data`
}
