package sync

import (
	"context"
	"fmt"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/nhle/inventory-desk/internal/api"
	"github.com/nhle/inventory-desk/internal/notify"
)

// RefreshState represents the current state of the background refresh.
type RefreshState int

const (
	RefreshIdle RefreshState = iota
	RefreshRunning
	RefreshError
)

func (s RefreshState) String() string {
	switch s {
	case RefreshRunning:
		return "refreshing"
	case RefreshError:
		return "error"
	default:
		return "idle"
	}
}

// RefreshStatus holds the refresher's last known state.
type RefreshStatus struct {
	State    RefreshState
	LastRun  time.Time
	NextRun  time.Time
	Error    error
	Interval time.Duration
}

// RefreshResultMsg is a tea.Msg sent when a refresh completes.
type RefreshResultMsg struct {
	Result    notify.FetchResult
	Error     error
	AuthError *AuthErrorMsg
	At        time.Time
}

// AuthErrorMsg is a tea.Msg sent when the API rejects the session.
type AuthErrorMsg struct {
	Message string
}

// Target is what the refresher keeps fresh.
type Target interface {
	Refresh(ctx context.Context) (notify.FetchResult, error)
}

// fetchTimeout is the maximum time allowed for a single refresh.
const fetchTimeout = 30 * time.Second

// DefaultInterval is used when New is given a non-positive interval.
const DefaultInterval = 5 * time.Minute

// Refresher periodically refreshes a Target on a cron schedule and
// forwards the outcomes to the Bubble Tea runtime.
type Refresher struct {
	target   Target
	interval time.Duration
	logger   *zap.Logger

	job      cron.Job
	resultCh chan RefreshResultMsg

	mu        gosync.Mutex
	scheduler *cron.Cron
	entry     cron.EntryID
	cancel    context.CancelFunc
	baseCtx   context.Context
	running   bool
	status    RefreshStatus
}

// New creates a Refresher for target. It does nothing until Start.
func New(target Target, interval time.Duration, logger *zap.Logger) *Refresher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Refresher{
		target:   target,
		interval: interval,
		logger:   logger.Named("refresher"),
		resultCh: make(chan RefreshResultMsg, 16),
		baseCtx:  context.Background(),
		status:   RefreshStatus{Interval: interval},
	}

	cl := cronLogger{r.logger.Sugar()}
	r.job = cron.NewChain(
		cron.Recover(cl),
		cron.SkipIfStillRunning(cl),
	).Then(cron.FuncJob(r.refresh))

	return r
}

// Start schedules the periodic refresh, runs one immediately, and
// returns a tea.Cmd that delivers the next RefreshResultMsg.
func (r *Refresher) Start() tea.Cmd {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil
	}

	scheduler := cron.New()
	entry, err := scheduler.AddJob(fmt.Sprintf("@every %s", r.interval), r.job)
	if err != nil {
		r.mu.Unlock()
		r.logger.Error("scheduling refresh", zap.Error(err))
		return nil
	}

	r.baseCtx, r.cancel = context.WithCancel(context.Background())
	r.scheduler = scheduler
	r.entry = entry
	r.running = true
	r.mu.Unlock()

	scheduler.Start()
	r.logger.Info("refresher started", zap.Duration("interval", r.interval))

	go r.job.Run()

	return r.waitForResult()
}

// Stop halts the schedule and cancels an in-flight refresh.
func (r *Refresher) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	scheduler := r.scheduler
	r.cancel()
	r.running = false
	r.scheduler = nil
	r.mu.Unlock()

	<-scheduler.Stop().Done()
	r.logger.Info("refresher stopped")
}

// Running reports whether the schedule is active.
func (r *Refresher) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Trigger runs a refresh now, outside the schedule. It does nothing
// when the refresher is stopped or a refresh is already running.
func (r *Refresher) Trigger() tea.Cmd {
	r.mu.Lock()
	running := r.running
	r.mu.Unlock()
	if !running {
		return nil
	}

	go r.job.Run()
	return nil
}

// Status returns the refresher's current status.
func (r *Refresher) Status() RefreshStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := r.status
	if r.running && r.scheduler != nil {
		st.NextRun = r.scheduler.Entry(r.entry).Next
	}
	return st
}

// refresh performs a single refresh and sends the result.
func (r *Refresher) refresh() {
	r.mu.Lock()
	base := r.baseCtx
	r.mu.Unlock()

	r.setStatus(RefreshRunning, nil)

	ctx, cancel := context.WithTimeout(base, fetchTimeout)
	defer cancel()

	result, err := r.target.Refresh(ctx)
	now := time.Now()
	if err != nil {
		r.setStatus(RefreshError, err)
		r.logger.Warn("refresh failed", zap.Error(err))

		msg := RefreshResultMsg{Error: err, At: now}
		if api.IsAuthError(err) {
			msg.AuthError = &AuthErrorMsg{
				Message: "Session expired. Use :token to sign in again.",
			}
		}
		r.sendResult(msg)
		return
	}

	r.setStatus(RefreshIdle, nil)
	r.sendResult(RefreshResultMsg{Result: result, At: now})
}

func (r *Refresher) setStatus(state RefreshState, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.status.State = state
	r.status.Error = err
	if state != RefreshRunning {
		r.status.LastRun = time.Now()
	}
}

// sendResult sends a RefreshResultMsg on the result channel without blocking.
func (r *Refresher) sendResult(msg RefreshResultMsg) {
	select {
	case r.resultCh <- msg:
	default:
		r.logger.Debug("refresh result dropped")
	}
}

// waitForResult returns a tea.Cmd that waits for the next result from
// the result channel.
func (r *Refresher) waitForResult() tea.Cmd {
	return func() tea.Msg {
		result, ok := <-r.resultCh
		if !ok {
			return nil
		}
		return result
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next refresh
// result. Call it after handling a RefreshResultMsg to keep listening.
func (r *Refresher) WaitForNextResult() tea.Cmd {
	return r.waitForResult()
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
