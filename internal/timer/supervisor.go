// Package timer implements the background supervisor that watches active
// sessions and fires notifications when their cooking timers expire.
package timer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/satwikgarg2022461/BTP-Voice-Assistant/internal/domain"
	"github.com/satwikgarg2022461/BTP-Voice-Assistant/internal/logger"
)

// Option configures the supervisor.
type Option func(*Supervisor)

// WithTickInterval sets how often the supervisor checks timers.
func WithTickInterval(d time.Duration) Option {
	return func(s *Supervisor) {
		s.tickInterval = d
	}
}

// WithNotifyCooldown sets the minimum time between repeated notifications
// for a fired timer.
func WithNotifyCooldown(d time.Duration) Option {
	return func(s *Supervisor) {
		s.notifyCooldown = d
	}
}

// WithMaxEscalation sets the escalation level after which the supervisor
// stops nagging about a fired timer.
func WithMaxEscalation(level int) Option {
	return func(s *Supervisor) {
		s.maxEscalation = level
	}
}

// WithReminderInterval sets how often a running timer sends a periodic
// "X remaining" reminder. Zero disables reminders.
func WithReminderInterval(d time.Duration) Option {
	return func(s *Supervisor) {
		s.reminderInterval = d
	}
}

// WithAlmostDoneThreshold sets how close to expiry a timer must be to
// trigger the "almost done" warning.
func WithAlmostDoneThreshold(d time.Duration) Option {
	return func(s *Supervisor) {
		s.almostDoneThreshold = d
	}
}

// WithWatcher enables the session watcher with the given options.
func WithWatcher(opts ...WatcherOption) Option {
	return func(s *Supervisor) {
		s.watcherEnabled = true
		s.watcherOpts = opts
	}
}

// Supervisor runs in the background and turns timer expiries into
// notifications. A session's timer is a wall-clock deadline, so the
// supervisor never mutates remaining time; it only observes End,
// announces the expiry once, and then nags on a cooldown until the
// user dismisses the alarm or the escalation cap is reached.
//
// Timers deliberately keep running while a session is paused. Pausing
// stops the narration, not the food.
type Supervisor struct {
	store               domain.SessionStore
	notifier            domain.Notifier
	log                 *logger.Logger
	tickInterval        time.Duration
	notifyCooldown      time.Duration
	maxEscalation       int
	reminderInterval    time.Duration // periodic "X remaining" reminders
	almostDoneThreshold time.Duration // "almost done" warning threshold

	watcherEnabled bool
	watcherOpts    []WatcherOption
	watcher        *Watcher

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
}

// New creates a timer supervisor with the given dependencies and options.
func New(store domain.SessionStore, notifier domain.Notifier, log *logger.Logger, opts ...Option) *Supervisor {
	s := &Supervisor{
		store:               store,
		notifier:            notifier,
		log:                 log,
		tickInterval:        1 * time.Second,
		notifyCooldown:      15 * time.Second,
		maxEscalation:       3,
		reminderInterval:    2 * time.Minute,
		almostDoneThreshold: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins the background supervisor loop. Non-blocking.
func (s *Supervisor) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		s.log.Warn("timer supervisor already running")
		return
	}

	childCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true

	go s.loop(childCtx)

	if s.watcherEnabled {
		s.watcher = NewWatcher(s.store, s.notifier, s.log, s.watcherOpts...)
		go s.watcher.Run(childCtx)
	}

	s.log.Info("timer supervisor started (tick=%s, cooldown=%s)", s.tickInterval, s.notifyCooldown)
}

// Stop gracefully shuts down the supervisor.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	s.cancel()
	s.running = false
	s.log.Info("timer supervisor stopped")
}

// loop is the main tick loop.
func (s *Supervisor) loop(ctx context.Context) {
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick runs one cycle over every supervised session.
func (s *Supervisor) tick(ctx context.Context) {
	sessions, err := s.store.ListActive(ctx)
	if err != nil {
		s.log.Error("supervisor: listing active sessions: %v", err)
		return
	}

	for _, session := range sessions {
		s.processSession(ctx, session)
	}
}

// processSession handles the timer of a single session.
func (s *Supervisor) processSession(ctx context.Context, session *domain.Session) {
	t := session.Timer
	if t == nil {
		return
	}

	now := time.Now()

	if t.Active {
		s.processRunning(ctx, session, now)
		return
	}
	s.processRinging(ctx, session, now)
}

// processRunning watches a live countdown: warns once near the end,
// reminds on long timers, and announces the expiry the moment the
// deadline passes.
func (s *Supervisor) processRunning(ctx context.Context, session *domain.Session, now time.Time) {
	t := session.Timer

	fired, remaining := session.CheckTimer(now)
	if fired {
		s.log.Debug("timer %q fired for session %s", t.Label, session.ID)
		if err := s.notifier.NotifyUrgent(ctx, s.escalationMessage(t)); err != nil {
			s.log.Error("supervisor: notifying timer fire: %v", err)
		}
		t.LastNotified = now
		t.Escalation = 1
		s.save(ctx, session)
		return
	}

	// "Almost done" warning. Fires once, and only for timers long enough
	// that the warning isn't half the countdown.
	if !t.WarnedAlmost && remaining <= s.almostDoneThreshold && t.Duration > s.almostDoneThreshold*2 {
		t.WarnedAlmost = true
		msg := fmt.Sprintf("[Timer] Your %s is almost done, %s left.", t.Label, formatRemaining(remaining))
		if err := s.notifier.Notify(ctx, msg); err != nil {
			s.log.Error("supervisor: almost-done notify: %v", err)
		}
		t.LastNotified = now
		s.save(ctx, session)
		return
	}

	// Periodic reminder on long timers. LastNotified doubles as the
	// reminder clock while the timer is running; the fired phase resets
	// it anyway.
	if s.reminderInterval <= 0 || t.Duration <= s.reminderInterval {
		return
	}
	elapsed := t.Duration - remaining
	due := false
	if t.LastNotified.IsZero() {
		due = elapsed >= s.reminderInterval
	} else {
		due = now.Sub(t.LastNotified) >= s.reminderInterval
	}
	if due {
		msg := fmt.Sprintf("[Timer] Your %s has %s remaining.", t.Label, formatRemaining(remaining))
		if err := s.notifier.Notify(ctx, msg); err != nil {
			s.log.Error("supervisor: reminder notify: %v", err)
		}
		t.LastNotified = now
		s.save(ctx, session)
	}
}

// processRinging nags about an expired timer the user hasn't dismissed
// yet. Escalation zero means the expiry itself was never announced
// (someone else disarmed the timer, or the process restarted), so the
// first message goes out urgent.
func (s *Supervisor) processRinging(ctx context.Context, session *domain.Session, now time.Time) {
	t := session.Timer

	if t.Escalation == 0 {
		if err := s.notifier.NotifyUrgent(ctx, s.escalationMessage(t)); err != nil {
			s.log.Error("supervisor: notifying timer fire: %v", err)
		}
		t.LastNotified = now
		t.Escalation = 1
		s.save(ctx, session)
		return
	}

	if t.Escalation > s.maxEscalation {
		return // stop nagging
	}
	if !t.LastNotified.IsZero() && now.Sub(t.LastNotified) < s.notifyCooldown {
		return // cooldown active
	}

	if err := s.notifier.Notify(ctx, s.escalationMessage(t)); err != nil {
		s.log.Error("supervisor: escalation notify: %v", err)
	}
	t.LastNotified = now
	t.Escalation++
	s.save(ctx, session)
}

func (s *Supervisor) save(ctx context.Context, session *domain.Session) {
	if err := s.store.Save(ctx, session); err != nil {
		s.log.Error("supervisor: saving session %s: %v", session.ID, err)
	}
}

// escalationMessage gets terser the longer the alarm goes unanswered.
func (s *Supervisor) escalationMessage(t *domain.TimerState) string {
	label := t.Label
	if label == "" {
		label = "timer"
	}
	switch t.Escalation {
	case 0:
		return fmt.Sprintf("[Timer] Your %s is up.", label)
	case 1:
		return fmt.Sprintf("[Timer] Your %s went off. Check it now.", label)
	case 2:
		return fmt.Sprintf("[Timer] %s. Now.", label)
	default:
		return fmt.Sprintf("[Timer] %s.", label)
	}
}

// formatRemaining returns a spoken-friendly duration for reminders.
// Rounds to the nearest minute once there's at least one minute left.
func formatRemaining(d time.Duration) string {
	d = d.Round(time.Second)
	totalSec := int(d.Seconds())
	if totalSec < 60 {
		if totalSec == 1 {
			return "1 second"
		}
		return fmt.Sprintf("%d seconds", totalSec)
	}
	m := (totalSec + 30) / 60
	if m <= 0 {
		m = 1
	}
	if m == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", m)
}
