/*
Package chat contains the in-memory state behind the local chat API server.

This file defines the Manager struct, which owns every account, the message log,
the mute list and the auto-clear period. It also runs the background loop that
clears the message log once the configured period has elapsed.
*/
package chat

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"monetchat/internal/app/user"
	"monetchat/internal/configs"
	"monetchat/internal/pkg/logx"
)

// MaxContentBytes is the largest message body the server accepts.
const MaxContentBytes = 5000

// account is a registered user together with its password hash.
type account struct {
	profile      user.User
	passwordHash []byte
}

// Manager struct is responsible for all chat state of the local server.
type Manager struct {
	// adminUsername is the identity that can never be muted or removed.
	adminUsername string

	// tick is the period of the auto-clear check.
	tick time.Duration

	// now returns the current time; replaced in tests.
	now func() time.Time

	// mu protects every field below.
	mu sync.RWMutex

	// accounts maps username to account; order keeps registration order for the roster.
	accounts map[string]*account
	order    []string

	messages []user.Message
	muted    map[string]struct{}

	// clearMinutes is the auto-clear period in minutes; 0 disables it.
	clearMinutes int

	// lastClear is when the message log was last cleared or the period last changed.
	lastClear time.Time

	// stop ends the auto-clear loop.
	stop     chan struct{}
	stopOnce sync.Once

	// wg is used to wait for the runAutoClearLoop goroutine to finish during shutdown.
	wg sync.WaitGroup

	// structured logger with Manager context.
	logger zerolog.Logger
}

// Option customizes a Manager.
type Option func(*Manager)

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager constructs a Manager and starts its auto-clear loop.
func NewManager(cfg *configs.AppConfig, opts ...Option) *Manager {
	m := &Manager{
		adminUsername: cfg.AdminUsername,
		tick:          cfg.AutoClearTick,
		now:           time.Now,
		accounts:      make(map[string]*account),
		muted:         make(map[string]struct{}),
		stop:          make(chan struct{}),
		logger:        logx.Component("Manager"),
	}

	for _, opt := range opts {
		opt(m)
	}
	m.lastClear = m.now()

	if m.tick <= 0 {
		m.tick = configs.DefaultAutoClearTick
	}

	m.wg.Add(1)

	go m.runAutoClearLoop()

	return m
}

// AdminUsername returns the protected admin identity.
func (m *Manager) AdminUsername() string {
	return m.adminUsername
}

// runAutoClearLoop checks the auto-clear period on every tick until Shutdown.
func (m *Manager) runAutoClearLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.tick)
	defer ticker.Stop()

	m.logger.Info().Dur("tick", m.tick).Msg("Auto-clear loop started.")

	for {
		select {
		case <-m.stop:
			m.logger.Info().Msg("Auto-clear loop stopped.")
			return
		case <-ticker.C:
			m.autoClear()
		}
	}
}

// autoClear empties the message log when the configured period has elapsed.
// It reports whether the log was cleared.
func (m *Manager) autoClear() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.clearMinutes <= 0 {
		return false
	}

	now := m.now()
	if now.Sub(m.lastClear) < time.Duration(m.clearMinutes)*time.Minute {
		return false
	}

	cleared := len(m.messages)
	m.messages = nil
	m.lastClear = now

	m.logger.Info().Int("cleared", cleared).Int("period_minutes", m.clearMinutes).Msg("Messages auto-cleared.")
	return true
}

// Messages returns a copy of the message log in posting order.
func (m *Manager) Messages() []user.Message {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]user.Message, len(m.messages))
	copy(out, m.messages)
	return out
}

// ClearMessages empties the message log.
func (m *Manager) ClearMessages() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.messages = nil
	m.lastClear = m.now()
	m.logger.Info().Msg("Messages cleared by admin.")
}

// ClearTime returns the auto-clear period in minutes.
func (m *Manager) ClearTime() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.clearMinutes
}

// SetClearTime changes the auto-clear period and restarts its window.
func (m *Manager) SetClearTime(minutes int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.clearMinutes = minutes
	m.lastClear = m.now()
	m.logger.Info().Int("period_minutes", minutes).Msg("Auto-clear period updated.")
}

// Shutdown stops the auto-clear loop and waits for it to exit.
func (m *Manager) Shutdown() {
	m.logger.Info().Msg("Shutting down Manager auto-clear loop...")

	m.stopOnce.Do(func() { close(m.stop) })
	m.wg.Wait()

	m.logger.Info().Msg("Manager shutdown complete.")
}
