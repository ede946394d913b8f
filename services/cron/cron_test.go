package cronsvc

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CSMathematics/student-management-sub000/core"
)

type evaluatorMock struct {
	calls   int
	awarded int
	err     error
	hasCtx  bool
}

func (e *evaluatorMock) EvaluateAll(ctx context.Context) (int, error) {
	e.calls++
	_, e.hasCtx = ctx.Deadline()
	return e.awarded, e.err
}

type loggerMock struct {
	mu     sync.Mutex
	infos  []string
	errors []string
}

func (l *loggerMock) Debug(string, ...interface{}) {}
func (l *loggerMock) Warn(string, ...interface{})  {}
func (l *loggerMock) Fatal(string, ...interface{}) {}

func (l *loggerMock) Info(msg string, _ ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infos = append(l.infos, msg)
}

func (l *loggerMock) Error(msg string, _ ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, msg)
}

func TestNewScheduler(t *testing.T) {
	tests := []struct {
		name    string
		spec    string
		wantErr bool
	}{
		{name: "descriptor", spec: "@daily"},
		{name: "five fields", spec: "30 2 * * *"},
		{name: "invalid", spec: "every night", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewScheduler(&core.Config{CronSpec: tc.spec}, new(evaluatorMock), new(loggerMock))
			assert.Equal(t, tc.wantErr, err != nil, err)
		})
	}
}

func TestScheduler_evaluateAll(t *testing.T) {
	tests := []struct {
		name       string
		eval       *evaluatorMock
		wantErrors int
		wantInfo   string
	}{
		{name: "awarded", eval: &evaluatorMock{awarded: 3}, wantInfo: "cron: 3 badge(s) awarded"},
		{name: "failures are logged", eval: &evaluatorMock{awarded: 1, err: errors.New("1 of 2 evaluations failed")}, wantErrors: 1, wantInfo: "cron: 1 badge(s) awarded"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			logger := new(loggerMock)
			s, err := NewScheduler(&core.Config{CronSpec: "@daily"}, tc.eval, logger)
			require.NoError(t, err)

			s.evaluateAll()

			assert.Equal(t, 1, tc.eval.calls)
			assert.True(t, tc.eval.hasCtx, "runs are bounded by a timeout")
			assert.Len(t, logger.errors, tc.wantErrors)
			require.Len(t, logger.infos, 1)
			assert.Contains(t, logger.infos[0], tc.wantInfo)
		})
	}
}

func TestScheduler_StartStop(t *testing.T) {
	eval := new(evaluatorMock)
	s, err := NewScheduler(&core.Config{CronSpec: "@daily"}, eval, new(loggerMock))
	require.NoError(t, err)

	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)

	assert.NoError(t, ctx.Err(), "stop took longer than the deadline")
	assert.Zero(t, eval.calls)
}
