package notification

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"ppm-tracker-backend/internal/store"
)

// ErrAlreadyRunning is returned by Run when another Run is active.
var ErrAlreadyRunning = errors.New("reminder scheduler already running")

// DefaultInterval is used when the stored interval cannot be read.
const DefaultInterval = 60 * time.Minute

// Dispatcher queues push jobs.
type Dispatcher interface {
	Dispatch(ctx context.Context, job Job) error
}

// Scheduler periodically sends a reminder summary to every subscription.
type Scheduler struct {
	store        store.Store
	pool         Dispatcher
	log          zerolog.Logger
	initialDelay time.Duration
	now          func() time.Time
	running      atomic.Bool
}

// NewScheduler creates a Scheduler. pool may be nil when push is not
// configured, in which case cycles only log what they would have sent.
func NewScheduler(s store.Store, pool Dispatcher, initialDelay time.Duration, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		store:        s,
		pool:         pool,
		log:          log.With().Str("component", "reminder").Logger(),
		initialDelay: initialDelay,
		now:          time.Now,
	}
}

// Run waits for the initial delay, then runs a cycle after every interval
// until ctx is cancelled. The interval is re-read from the settings after
// every cycle.
func (s *Scheduler) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer s.running.Store(false)

	s.log.Info().Dur("initial_delay", s.initialDelay).Msg("starting reminder scheduler")
	timer := time.NewTimer(s.initialDelay)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("reminder scheduler shutting down")
			return nil
		case <-timer.C:
			if _, err := s.RunOnce(ctx); err != nil {
				s.log.Error().Err(err).Msg("reminder cycle failed")
			}
			timer.Reset(s.interval(ctx))
		}
	}
}

func (s *Scheduler) interval(ctx context.Context) time.Duration {
	settings, err := s.store.GetSettings(ctx)
	if err != nil || settings.PushNotificationIntervalMinutes < 1 {
		return DefaultInterval
	}
	return time.Duration(settings.PushNotificationIntervalMinutes) * time.Minute
}

// RunOnce performs one reminder cycle and returns the number of jobs queued.
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		return 0, err
	}
	if !settings.PushNotificationsEnabled {
		s.log.Debug().Msg("push notifications disabled, skipping cycle")
		return 0, nil
	}

	equipment, err := s.store.ListEquipment(ctx)
	if err != nil {
		return 0, err
	}
	tasks := UpcomingTasks(s.log, equipment, s.now(), settings.ReminderDays)
	if len(tasks) == 0 {
		s.log.Info().Int("days_ahead", settings.ReminderDays).Msg("no upcoming maintenance, nothing to send")
		return 0, nil
	}

	summary := Summarize(tasks)
	if s.pool == nil {
		s.log.Warn().Str("summary", summary).Msg("push is not configured, reminder not sent")
		return 0, nil
	}

	subs, err := s.store.ListSubscriptions(ctx)
	if err != nil {
		return 0, err
	}
	payload := NewPayload(summary)
	for i, sub := range subs {
		if err := s.pool.Dispatch(ctx, Job{Subscription: sub, Payload: payload}); err != nil {
			return i, fmt.Errorf("dispatch reminder: %w", err)
		}
	}
	s.log.Info().Int("tasks", len(tasks)).Int("subscriptions", len(subs)).Str("summary", summary).Msg("reminders queued")
	return len(subs), nil
}
