package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"focuslock/internal/modules/focus/domain"
	focusout "focuslock/internal/modules/focus/port/out"
	"focuslock/internal/platform/clock"
	"focuslock/internal/platform/effects"
	"focuslock/internal/platform/id"
)

const defaultReminderInterval = 10 * time.Minute

type ManagerDeps struct {
	Clock     clock.Clock
	Scheduler clock.Scheduler
	IDs       id.Generator
	Rules     *RuleSet
	Notifier  focusout.Notifier
	Sound     focusout.SoundPlayer
	Sites     focusout.SiteStore
	History   focusout.HistoryRecorder
	Effects   effects.Runner
	Logger    hclog.Logger
}

type StartResult struct {
	Session   domain.FocusSession
	Restarted bool
	RuleErr   error
}

type StopResult struct {
	Session domain.FocusSession
	RuleErr error
}

type Snapshot struct {
	Session      domain.FocusSession
	Remaining    time.Duration
	EndsAt       time.Time
	Reminders    int
	Notification string
}

// SessionManager owns the focus-session lifecycle. Every transition runs
// under mu; notifications, sound, storage writes and history appends are
// queued on the effects runner in transition order.
type SessionManager struct {
	clock            clock.Clock
	sched            clock.Scheduler
	ids              id.Generator
	rules            *RuleSet
	notifier         focusout.Notifier
	sound            focusout.SoundPlayer
	sites            focusout.SiteStore
	history          focusout.HistoryRecorder
	effects          effects.Runner
	logger           hclog.Logger
	reminderInterval time.Duration

	mu            sync.Mutex
	session       domain.FocusSession
	generation    uint64
	sessionTimer  clock.Timer
	reminderTimer clock.Timer
	reminders     int
	subs          map[int]chan domain.Event
	nextSub       int

	handleMu sync.Mutex
	handle   string
}

func NewSessionManager(deps ManagerDeps, reminderInterval time.Duration) *SessionManager {
	if reminderInterval <= 0 {
		reminderInterval = defaultReminderInterval
	}
	logger := deps.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &SessionManager{
		clock:            deps.Clock,
		sched:            deps.Scheduler,
		ids:              deps.IDs,
		rules:            deps.Rules,
		notifier:         deps.Notifier,
		sound:            deps.Sound,
		sites:            deps.Sites,
		history:          deps.History,
		effects:          deps.Effects,
		logger:           logger.Named("session"),
		reminderInterval: reminderInterval,
		session:          domain.FocusSession{Status: domain.StatusIdle},
		subs:             map[int]chan domain.Event{},
	}
}

// Start validates the request and begins a session. Starting while a
// session is active replaces it: the old timers are cancelled and its
// rules are swapped for the new ones in the same engine update.
func (m *SessionManager) Start(ctx context.Context, blockTime string, websites []string) (StartResult, error) {
	sites, err := domain.ValidateSites(websites)
	if err != nil {
		m.reject(err)
		return StartResult{}, err
	}
	minutes, err := domain.ParseBlockTime(blockTime)
	if err != nil {
		m.reject(err)
		return StartResult{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	next, err := domain.Transition(m.session.Status, domain.TriggerStart)
	if err != nil {
		return StartResult{}, err
	}
	result := StartResult{Restarted: m.session.Active()}
	if result.Restarted {
		m.logger.Info("replacing active focus session", "session", m.session.ID)
		m.cancelTimersLocked()
		m.effects.Go(m.dismissActive)
	}

	m.generation++
	gen := m.generation
	session := domain.FocusSession{
		ID:              m.ids.New(),
		BlockedSites:    sites,
		DurationMinutes: minutes,
		StartedAt:       m.clock.Now(),
		Status:          next,
	}

	if err := m.rules.Install(ctx, sites); err != nil {
		result.RuleErr = err
		m.logger.Error("install blocking rules", "session", session.ID, "error", err)
		m.notifyLocked(domain.TitleError, "Could not apply blocking rules: "+errorCause(err))
	}
	m.effects.Go(func() {
		if err := m.sites.Save(context.Background(), sites); err != nil {
			m.logger.Warn("persist blocked sites", "error", &domain.CollaboratorError{Collaborator: domain.CollaboratorStorage, Op: "save sites", Err: err})
		}
	})

	m.sessionTimer = m.sched.AfterFunc(session.Duration(), func() { m.expire(gen) })
	m.reminderTimer = m.sched.Every(m.reminderInterval, func() { m.remind(gen) })
	m.session = session
	m.reminders = 0

	m.notifyLocked(domain.TitleStarted, domain.StartedMessage(minutes))
	kind := domain.EventStarted
	if result.Restarted {
		kind = domain.EventRestarted
	}
	m.publishLocked(kind, session, domain.StatusStarted)
	m.logger.Info("focus session started", "session", session.ID, "minutes", minutes, "sites", len(sites), "restarted", result.Restarted)

	result.Session = cloneSession(session)
	return result, nil
}

// Stop ends the active session without recording history.
func (m *SessionManager) Stop(ctx context.Context) (StopResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	next, err := domain.Transition(m.session.Status, domain.TriggerStop)
	if err != nil {
		return StopResult{}, err
	}
	ended := m.session
	m.cancelTimersLocked()
	m.generation++
	m.effects.Go(m.dismissActive)
	ruleErr := m.clearRulesLocked(ctx)
	m.session = domain.FocusSession{Status: next}
	m.reminders = 0
	m.publishLocked(domain.EventStopped, ended, domain.StatusStopped)
	m.logger.Info("focus session stopped", "session", ended.ID)
	return StopResult{Session: cloneSession(ended), RuleErr: ruleErr}, nil
}

func (m *SessionManager) expire(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.generation {
		m.logger.Debug("ignoring stale session timer", "generation", gen)
		return
	}
	next, err := domain.Transition(m.session.Status, domain.TriggerExpire)
	if err != nil {
		return
	}
	ended := m.session
	if m.reminderTimer != nil {
		m.reminderTimer.Stop()
		m.reminderTimer = nil
	}
	m.sessionTimer = nil
	m.generation++

	m.notifyLocked(domain.TitleCompleted, domain.MessageCompleted)
	minutes := ended.DurationMinutes
	m.effects.Go(func() {
		if err := m.history.Record(context.Background(), minutes); err != nil {
			m.logger.Error("append focus history", "error", &domain.CollaboratorError{Collaborator: domain.CollaboratorHistory, Op: "append", Err: err})
		}
	})
	_ = m.clearRulesLocked(context.Background())
	m.session = domain.FocusSession{Status: next}
	m.reminders = 0
	m.publishLocked(domain.EventCompleted, ended, domain.MessageCompleted)
	m.logger.Info("focus session completed", "session", ended.ID, "minutes", minutes)
}

func (m *SessionManager) remind(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.generation {
		m.logger.Debug("ignoring stale reminder timer", "generation", gen)
		return
	}
	if _, err := domain.Transition(m.session.Status, domain.TriggerRemind); err != nil {
		return
	}
	m.reminders++
	m.notifyLocked(domain.TitleReminder, domain.MessageReminder)
	m.effects.Go(func() {
		if err := m.sound.Play(context.Background(), domain.AlertSound); err != nil {
			m.logger.Warn("play alert sound", "error", &domain.CollaboratorError{Collaborator: domain.CollaboratorSound, Op: "play", Err: err})
		}
	})
	m.publishLocked(domain.EventReminded, m.session, domain.MessageReminder)
}

// Snapshot returns a copy of the current session state.
func (m *SessionManager) Snapshot() Snapshot {
	m.mu.Lock()
	session := cloneSession(m.session)
	reminders := m.reminders
	m.mu.Unlock()

	now := m.clock.Now()
	return Snapshot{
		Session:      session,
		Remaining:    session.Remaining(now),
		EndsAt:       session.EndsAt(),
		Reminders:    reminders,
		Notification: m.activeHandle(),
	}
}

// SaveSites persists the blocked-site list without touching the session.
func (m *SessionManager) SaveSites(ctx context.Context, websites []string) ([]string, error) {
	sites := domain.NormalizeSites(websites)
	if err := m.sites.Save(ctx, sites); err != nil {
		return nil, &domain.CollaboratorError{Collaborator: domain.CollaboratorStorage, Op: "save sites", Err: err}
	}
	m.logger.Info("blocked sites saved", "sites", len(sites))
	return sites, nil
}

// ReconcileRules removes rules a previous daemon left installed.
func (m *SessionManager) ReconcileRules(ctx context.Context, stale int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if stale <= 0 || m.session.Active() {
		return nil
	}
	m.rules.Adopt(stale)
	m.logger.Info("removing stale blocking rules", "count", stale)
	return m.clearRulesLocked(ctx)
}

// Subscribe returns a channel of lifecycle events. Slow subscribers miss
// events rather than stall transitions.
func (m *SessionManager) Subscribe(buffer int) (<-chan domain.Event, func()) {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan domain.Event, buffer)
	m.mu.Lock()
	key := m.nextSub
	m.nextSub++
	m.subs[key] = ch
	m.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, key)
			m.mu.Unlock()
			close(ch)
		})
	}
}

// Shutdown ends an active session as a manual stop would and drains
// queued effects.
func (m *SessionManager) Shutdown(ctx context.Context) {
	if _, err := m.Stop(ctx); err == nil {
		m.logger.Info("active focus session stopped for shutdown")
	}
	m.effects.Close()
}

func (m *SessionManager) reject(err error) {
	m.logger.Warn("focus session rejected", "reason", err.Error())
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifyLocked(domain.TitleError, err.Error())
	m.publishLocked(domain.EventRejected, m.session, err.Error())
}

func (m *SessionManager) cancelTimersLocked() {
	if m.sessionTimer != nil {
		m.sessionTimer.Stop()
		m.sessionTimer = nil
	}
	if m.reminderTimer != nil {
		m.reminderTimer.Stop()
		m.reminderTimer = nil
	}
}

func (m *SessionManager) clearRulesLocked(ctx context.Context) error {
	if err := m.rules.Clear(ctx); err != nil {
		m.logger.Error("clear blocking rules", "error", err)
		m.notifyLocked(domain.TitleError, "Could not remove blocking rules: "+errorCause(err))
		return err
	}
	return nil
}

// notifyLocked queues a notification; the returned handle becomes the
// active notification once the notifier answers.
func (m *SessionManager) notifyLocked(title, message string) {
	m.effects.Go(func() {
		handle, err := m.notifier.Show(context.Background(), title, message, domain.NotificationPriority)
		if err != nil {
			m.logger.Warn("show notification", "title", title, "error", &domain.CollaboratorError{Collaborator: domain.CollaboratorNotification, Op: "show", Err: err})
			return
		}
		m.handleMu.Lock()
		m.handle = handle
		m.handleMu.Unlock()
	})
}

// dismissActive runs on the effects runner and reads the handle at
// execution time, after every earlier Show has completed.
func (m *SessionManager) dismissActive() {
	m.handleMu.Lock()
	handle := m.handle
	m.handle = ""
	m.handleMu.Unlock()
	if handle == "" {
		return
	}
	if err := m.notifier.Dismiss(context.Background(), handle); err != nil {
		m.logger.Warn("dismiss notification", "handle", handle, "error", &domain.CollaboratorError{Collaborator: domain.CollaboratorNotification, Op: "dismiss", Err: err})
	}
}

func (m *SessionManager) activeHandle() string {
	m.handleMu.Lock()
	defer m.handleMu.Unlock()
	return m.handle
}

func (m *SessionManager) publishLocked(kind domain.EventKind, session domain.FocusSession, message string) {
	event := domain.Event{Kind: kind, Session: cloneSession(session), At: m.clock.Now(), Message: message}
	for _, ch := range m.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

func cloneSession(s domain.FocusSession) domain.FocusSession {
	s.BlockedSites = append([]string(nil), s.BlockedSites...)
	return s
}

func errorCause(err error) string {
	var cerr *domain.CollaboratorError
	if errors.As(err, &cerr) && cerr.Err != nil {
		return cerr.Err.Error()
	}
	return fmt.Sprint(err)
}
