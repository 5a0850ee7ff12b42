package timer

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/satwikgarg2022461/BTP-Voice-Assistant/internal/domain"
	"github.com/satwikgarg2022461/BTP-Voice-Assistant/internal/logger"
	"github.com/satwikgarg2022461/BTP-Voice-Assistant/internal/storage"
)

// mockNotifier collects notifications for testing.
type mockNotifier struct {
	mu       sync.Mutex
	messages []string
	urgent   []string
}

func (m *mockNotifier) Notify(_ context.Context, msg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return nil
}

func (m *mockNotifier) NotifyUrgent(_ context.Context, msg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.urgent = append(m.urgent, msg)
	return nil
}

func (m *mockNotifier) urgentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.urgent)
}

func (m *mockNotifier) total() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages) + len(m.urgent)
}

func (m *mockNotifier) anyContains(substr string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range append(append([]string{}, m.messages...), m.urgent...) {
		if strings.Contains(msg, substr) {
			return true
		}
	}
	return false
}

// waitFor polls cond until it returns true or the deadline passes.
func waitFor(t *testing.T, d time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.After(d)
	for {
		if cond() {
			return true
		}
		select {
		case <-deadline:
			return false
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func cookingSession(id string) *domain.Session {
	s := domain.NewSession(id)
	s.RecipeID = "r1"
	s.RecipeTitle = "Lemon Rice"
	s.State = domain.StateCooking
	s.Section = domain.SectionSteps
	s.TotalSteps = 3
	return s
}

func TestSupervisorFiresTimerOnce(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	store := storage.NewMemoryStore(log)
	notifier := &mockNotifier{}
	ctx := context.Background()

	session := cookingSession("timer-fire")
	session.SetTimer(100*time.Millisecond, "pasta timer", time.Now())
	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("save: %v", err)
	}

	sup := New(store, notifier, log,
		WithTickInterval(20*time.Millisecond),
		WithNotifyCooldown(10*time.Second), // no escalation during the test
	)
	sup.Start(ctx)
	defer sup.Stop()

	if !waitFor(t, 2*time.Second, func() bool { return notifier.urgentCount() > 0 }) {
		t.Fatal("expected an urgent notification for the fired timer")
	}
	// Give a few more ticks a chance to mis-fire.
	time.Sleep(150 * time.Millisecond)
	if got := notifier.urgentCount(); got != 1 {
		t.Fatalf("expiry must be announced exactly once, got %d", got)
	}

	sup.Stop()
	time.Sleep(50 * time.Millisecond) // let an in-flight tick drain

	s, err := store.Load(ctx, "timer-fire")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Timer == nil || s.Timer.Active {
		t.Fatalf("fired timer must stay on the session disarmed, got %+v", s.Timer)
	}
	if s.Timer.Escalation != 1 {
		t.Fatalf("escalation after fire = %d, want 1", s.Timer.Escalation)
	}
}

func TestSupervisorCancelPreventsFire(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	store := storage.NewMemoryStore(log)
	notifier := &mockNotifier{}
	ctx := context.Background()

	session := cookingSession("timer-cancel")
	session.SetTimer(250*time.Millisecond, "egg timer", time.Now())
	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("save: %v", err)
	}

	sup := New(store, notifier, log, WithTickInterval(20*time.Millisecond))
	sup.Start(ctx)
	defer sup.Stop()

	// Dismiss before expiry, the way the engine does it.
	time.Sleep(50 * time.Millisecond)
	session.ClearTimer()
	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("save: %v", err)
	}

	time.Sleep(400 * time.Millisecond)
	if got := notifier.total(); got != 0 {
		t.Fatalf("cancelled timer must stay silent, got %d notifications", got)
	}
}

func TestSupervisorEscalatesUntilCap(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	store := storage.NewMemoryStore(log)
	notifier := &mockNotifier{}
	ctx := context.Background()

	// Already ringing, announced once, cooldown long past.
	session := cookingSession("timer-escalate")
	session.Timer = &domain.TimerState{
		Active:       false,
		Label:        "oven timer",
		Duration:     time.Minute,
		End:          time.Now().Add(-time.Hour),
		LastNotified: time.Now().Add(-time.Hour),
		Escalation:   1,
	}
	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("save: %v", err)
	}

	sup := New(store, notifier, log,
		WithTickInterval(20*time.Millisecond),
		WithNotifyCooldown(30*time.Millisecond),
		WithMaxEscalation(3),
	)
	sup.Start(ctx)
	defer sup.Stop()

	// Levels 1..3 each produce one nag, then the cap silences it.
	if !waitFor(t, 2*time.Second, func() bool { return notifier.total() >= 3 }) {
		t.Fatal("escalation never reached the cap")
	}
	time.Sleep(150 * time.Millisecond) // several cooldown windows past the cap
	if got := notifier.total(); got != 3 {
		t.Fatalf("want exactly 3 escalation nags, got %d", got)
	}

	sup.Stop()
	time.Sleep(50 * time.Millisecond)

	s, err := store.Load(ctx, "timer-escalate")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Timer == nil || s.Timer.Escalation != 4 {
		t.Fatalf("escalation should stop one past the cap, got %+v", s.Timer)
	}
}

func TestSupervisorAnnouncesRingingTimerAfterRestart(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	store := storage.NewMemoryStore(log)
	notifier := &mockNotifier{}
	ctx := context.Background()

	// Expired while no supervisor was running: disarmed but never announced.
	session := cookingSession("timer-restart")
	session.Timer = &domain.TimerState{
		Active:   false,
		Label:    "soup timer",
		Duration: time.Minute,
		End:      time.Now().Add(-time.Minute),
	}
	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("save: %v", err)
	}

	sup := New(store, notifier, log, WithTickInterval(20*time.Millisecond))
	sup.Start(ctx)
	defer sup.Stop()

	if !waitFor(t, 2*time.Second, func() bool { return notifier.urgentCount() > 0 }) {
		t.Fatal("expected the unannounced expiry to be picked up urgently")
	}
	if !notifier.anyContains("soup timer") {
		t.Fatal("announcement must carry the timer label")
	}
}

func TestSupervisorAlmostDoneWarning(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	store := storage.NewMemoryStore(log)
	notifier := &mockNotifier{}
	ctx := context.Background()

	session := cookingSession("timer-almost")
	session.SetTimer(700*time.Millisecond, "rice timer", time.Now())
	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("save: %v", err)
	}

	sup := New(store, notifier, log,
		WithTickInterval(20*time.Millisecond),
		WithAlmostDoneThreshold(300*time.Millisecond), // duration > 2x threshold
	)
	sup.Start(ctx)
	defer sup.Stop()

	if !waitFor(t, 2*time.Second, func() bool { return notifier.anyContains("almost done") }) {
		t.Fatal("expected an almost-done warning before expiry")
	}
}

func TestFormatRemaining(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{1 * time.Second, "1 second"},
		{45 * time.Second, "45 seconds"},
		{60 * time.Second, "1 minute"},
		{89 * time.Second, "1 minute"},
		{91 * time.Second, "2 minutes"},
		{10 * time.Minute, "10 minutes"},
	}
	for _, tt := range tests {
		if got := formatRemaining(tt.d); got != tt.want {
			t.Errorf("formatRemaining(%s) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
