// Package cronsvc runs the periodic jobs of the application.
package cronsvc

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/CSMathematics/student-management-sub000/core"
)

// Evaluator re-evaluates the achievements of every student.
type Evaluator interface {
	EvaluateAll(ctx context.Context) (int, error)
}

type Scheduler struct {
	cron    *cron.Cron
	eval    Evaluator
	logger  core.Logger
	timeout time.Duration
}

// NewScheduler registers the nightly re-evaluation at spec. Time based badges
// (attendance streaks) become due without any user action.
func NewScheduler(conf *core.Config, eval Evaluator, logger core.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		eval:    eval,
		logger:  logger,
		timeout: 30 * time.Minute,
	}
	if _, err := s.cron.AddFunc(conf.CronSpec, s.evaluateAll); err != nil {
		return nil, errors.Wrapf(err, "scheduling achievements evaluation %q", conf.CronSpec)
	}
	return s, nil
}

func (s *Scheduler) evaluateAll() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	awarded, err := s.eval.EvaluateAll(ctx)
	if err != nil {
		s.logger.Error(fmt.Sprintf("cron: evaluating achievements: %v", err), err)
	}
	s.logger.Info(fmt.Sprintf("cron: %d badge(s) awarded in %s", awarded, time.Since(start).Round(time.Millisecond)))
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop prevents new runs and waits for a running one to finish, or for ctx to be done.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}
