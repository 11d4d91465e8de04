package service

import (
	"github.com/diegoclair/slack-auto-away/internal/domain"
	"github.com/diegoclair/slack-auto-away/internal/domain/contract"
	"github.com/sirupsen/logrus"
)

// Options tunes the scheduling services. Zero values fall back to the domain defaults.
type Options struct {
	ToleranceMinutes int
	PageSize         int
}

func (o Options) withDefaults() Options {
	if o.ToleranceMinutes <= 0 {
		o.ToleranceMinutes = domain.DefaultToleranceMinutes
	}
	if o.PageSize <= 0 {
		o.PageSize = domain.DefaultPageSize
	}
	return o
}

type Instance struct {
	Presence  *presenceService
	Scheduler *schedulerService
	Account   *accountService
}

func NewInstance(dm contract.DataManager, slackClient contract.SlackClient, dispatcher contract.JobDispatcher, log *logrus.Entry, opts Options) *Instance {
	opts = opts.withDefaults()
	presence := newPresence(slackClient, log, opts.ToleranceMinutes)

	return &Instance{
		Presence:  presence,
		Scheduler: newScheduler(dm, presence, log, opts.PageSize),
		Account:   newAccount(dm, slackClient, dispatcher, log, opts.ToleranceMinutes),
	}
}
