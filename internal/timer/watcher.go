package timer

import (
	"context"
	"fmt"
	"time"

	"github.com/satwikgarg2022461/BTP-Voice-Assistant/internal/domain"
	"github.com/satwikgarg2022461/BTP-Voice-Assistant/internal/logger"
)

// WatcherOption configures the watcher.
type WatcherOption func(*Watcher)

// WithWatchInterval sets how often the watcher checks session state.
func WithWatchInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.interval = d
	}
}

// WithIdleThreshold sets how long a session may sit on one step before
// the watcher checks in.
func WithIdleThreshold(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.idleThreshold = d
	}
}

// Watcher periodically inspects session state and provides contextual
// commentary: nudges about paused sessions, alarms nobody dismissed,
// and steps the user seems to have wandered away from. Runs on a
// slower cycle than the timer supervisor (default: 1 minute).
type Watcher struct {
	store         domain.SessionStore
	notifier      domain.Notifier
	log           *logger.Logger
	interval      time.Duration
	idleThreshold time.Duration
}

// NewWatcher creates a watcher with the given dependencies.
func NewWatcher(store domain.SessionStore, notifier domain.Notifier, log *logger.Logger, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		store:         store,
		notifier:      notifier,
		log:           log,
		interval:      1 * time.Minute,
		idleThreshold: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run starts the watcher loop. Blocks until ctx is cancelled.
// Intended to be called as a goroutine.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.log.Info("watcher started (interval=%s)", w.interval)

	for {
		select {
		case <-ctx.Done():
			w.log.Info("watcher stopped")
			return
		case <-ticker.C:
			w.check(ctx)
		}
	}
}

// check runs one watcher cycle across all supervised sessions.
func (w *Watcher) check(ctx context.Context) {
	sessions, err := w.store.ListActive(ctx)
	if err != nil {
		w.log.Error("watcher: listing active sessions: %v", err)
		return
	}

	for _, session := range sessions {
		w.inspect(ctx, session)
	}
}

// inspect examines a single session and decides what to say.
func (w *Watcher) inspect(ctx context.Context, session *domain.Session) {
	w.log.Debug("watcher: checked status, session=%s recipe=%q state=%s section=%s step=%d/%d",
		shortID(session.ID), session.RecipeTitle, session.State, session.Section,
		session.StepIndex+1, session.TotalSteps)

	if t := session.Timer; t != nil {
		w.log.Debug("watcher: timer %q active=%v remaining=%s escalation=%d",
			t.Label, t.Active, t.Remaining(time.Now()).Round(time.Second), t.Escalation)
	}

	msg := w.buildMessage(session)
	if msg == "" {
		return
	}

	if err := w.notifier.Notify(ctx, msg); err != nil {
		w.log.Error("watcher: notify: %v", err)
	}
}

// buildMessage decides what to tell the user based on current state.
// Returns "" when there is nothing worth interrupting for.
func (w *Watcher) buildMessage(session *domain.Session) string {
	idle := time.Since(session.UpdatedAt).Round(time.Second)

	// Paused mid-recipe for a while. Gentle nudge.
	if session.Paused() && idle >= w.interval {
		return fmt.Sprintf("[Watcher] We've been paused for %s. Your food isn't cooking itself.", idle)
	}

	// An alarm nobody dismissed takes priority over everything else.
	if t := session.Timer; t != nil && !t.Active {
		label := t.Label
		if label == "" {
			label = "timer"
		}
		return fmt.Sprintf("[Watcher] Heads up, your %s went off and is still waiting on you.", label)
	}

	// Mid-recipe but silent for a long stretch.
	if session.State == domain.StateCooking && session.Section == domain.SectionSteps && idle > w.idleThreshold {
		return fmt.Sprintf("[Watcher] Still on step %d of %d after %s. Take your time, but don't forget about it.",
			session.StepIndex+1, session.TotalSteps, idle)
	}

	if t := session.Timer; t != nil && t.Active {
		w.log.Debug("watcher: session %s timer %q has %s left",
			shortID(session.ID), t.Label, t.Remaining(time.Now()).Round(time.Second))
	}

	w.log.Debug("watcher: session %s, idle for %s, nothing to report", shortID(session.ID), idle)
	return ""
}

// shortID trims a session ID for log lines.
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
