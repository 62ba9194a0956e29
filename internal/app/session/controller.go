/*
Package session owns the client-side chat session.

The Controller is the only component that moves the session between its states
(Anonymous, Authenticating, Authenticated), writes or clears the persisted user,
and drives the View. Message fetches are tagged with the session epoch at the time
they started; a result arriving after the session changed is dropped instead of
being rendered.
*/
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"monetchat/internal/app/apiclient"
	"monetchat/internal/app/storage"
	"monetchat/internal/app/user"
	"monetchat/internal/configs"
	"monetchat/internal/pkg/logx"
)

// SessionKey is the store key holding the serialized current user.
const SessionKey = "chatUser"

// State is the lifecycle state of the session.
type State int

const (
	StateAnonymous State = iota
	StateAuthenticating
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// API is the set of chat endpoints the controller calls. *apiclient.Client implements it.
type API interface {
	Login(ctx context.Context, creds apiclient.Credentials) (user.User, error)
	Register(ctx context.Context, reg apiclient.Registration) error
	Messages(ctx context.Context) ([]user.Message, error)
	Send(ctx context.Context, msg apiclient.OutgoingMessage) error
	GetClearTime(ctx context.Context) (int, error)
	SetClearTime(ctx context.Context, period int) error
	UserList(ctx context.Context) ([]user.User, error)
	Mute(ctx context.Context, username string) error
	Remove(ctx context.Context, username string) error
	ClearMessages(ctx context.Context) error
	MuteList(ctx context.Context) ([]string, error)
}

// Config holds the session settings.
type Config struct {
	// AdminUsername is the identity that gets the admin surface.
	AdminUsername string

	// PollInterval is the message refresh period while authenticated.
	// Non-positive values use configs.DefaultPollInterval.
	PollInterval time.Duration
}

// Controller coordinates the session lifecycle, the polling loop and the view.
type Controller struct {
	api   API
	store storage.StorageService
	view  View
	cfg   Config

	// lifecycle serializes Start, Login, Register and Logout.
	lifecycle sync.Mutex

	// mu protects every field below and is held while rendering session state.
	mu      sync.Mutex
	state   State
	current *user.User
	muted   bool

	// epoch changes on every entry into or exit from Authenticated.
	epoch uint64

	// poller is the single polling loop; nil when not polling.
	// It outlives the context of the call that started it and ends only in Logout or Close.
	poller *Poller

	logger zerolog.Logger
}

// NewController constructs a Controller in the Anonymous state.
func NewController(api API, store storage.StorageService, view View, cfg Config) *Controller {
	if view == nil {
		view = BaseView{}
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = configs.DefaultPollInterval
	}

	return &Controller{
		api:    api,
		store:  store,
		view:   view,
		cfg:    cfg,
		state:  StateAnonymous,
		logger: logx.Component("session"),
	}
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// CurrentUser returns the authenticated user.
func (c *Controller) CurrentUser() (user.User, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return user.User{}, false
	}
	return *c.current, true
}

// Muted reports whether the current session may not send.
func (c *Controller) Muted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.muted
}

// IsAdmin reports whether the authenticated user is the admin identity.
func (c *Controller) IsAdmin() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isAdminLocked()
}

// Polling reports whether the polling loop is running.
func (c *Controller) Polling() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.poller != nil
}

func (c *Controller) isAdminLocked() bool {
	return c.current != nil && c.current.Username == c.cfg.AdminUsername
}

// activeLocked reports whether results tagged with epoch may still be applied.
func (c *Controller) activeLocked(epoch uint64) bool {
	return c.state == StateAuthenticated && c.epoch == epoch && c.current != nil
}

// Start restores a persisted session, if any. A malformed stored value is
// deleted and the controller stays Anonymous; this is never reported as an error.
func (c *Controller) Start(ctx context.Context) error {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	if c.State() != StateAnonymous {
		return nil
	}

	raw, err := c.store.Get(ctx, SessionKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			c.logger.Error().Err(err).Msg("Failed to read persisted session; starting anonymous.")
		}
		c.showAuth()
		return nil
	}

	u, err := user.Decode(raw)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Persisted session is malformed; clearing it.")
		if delErr := c.store.Delete(ctx, SessionKey); delErr != nil {
			c.logger.Error().Err(delErr).Msg("Failed to clear malformed session.")
		}
		c.showAuth()
		return nil
	}

	c.logger.Info().Str("username", u.Username).Msg("Restored persisted session.")
	c.enterAuthenticated(ctx, u)
	return nil
}

func (c *Controller) showAuth() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view.ShowAuth()
}

// Login validates the credentials locally, authenticates, persists the returned
// user and enters Authenticated. Logging in while authenticated replaces the user
// and keeps the running poller.
func (c *Controller) Login(ctx context.Context, username, password string) error {
	if !c.lifecycle.TryLock() {
		return ErrBusy
	}
	defer c.lifecycle.Unlock()

	c.view.ClearErrors()

	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return c.rejectInput(FormLogin, "请输入用户名和密码")
	}

	c.mu.Lock()
	if c.state == StateAnonymous {
		c.state = StateAuthenticating
	}
	c.mu.Unlock()

	u, err := c.api.Login(ctx, apiclient.Credentials{Username: username, Password: password})
	if err != nil {
		c.mu.Lock()
		if c.state == StateAuthenticating {
			c.state = StateAnonymous
		}
		c.mu.Unlock()

		c.logger.Warn().Err(err).Str("username", username).Msg("Login failed.")
		c.view.ShowError(FormLogin, Describe(err))
		return err
	}

	if err := c.persist(ctx, u); err != nil {
		// the session still works for this process; only restore-on-start is lost
		c.logger.Error().Err(err).Str("username", u.Username).Msg("Failed to persist session.")
	}

	c.logger.Info().Str("username", u.Username).Msg("Logged in.")
	c.enterAuthenticated(ctx, u)
	return nil
}

// Register validates the fields locally and creates an account. On success the
// view is switched to the login form pre-filled with the new credentials.
func (c *Controller) Register(ctx context.Context, username, password, nickname, avatar string) error {
	if !c.lifecycle.TryLock() {
		return ErrBusy
	}
	defer c.lifecycle.Unlock()

	c.view.ClearErrors()

	username = strings.TrimSpace(username)
	nickname = strings.TrimSpace(nickname)
	avatar = strings.TrimSpace(avatar)
	if username == "" || password == "" || nickname == "" || avatar == "" {
		return c.rejectInput(FormRegister, "请填写所有字段")
	}

	err := c.api.Register(ctx, apiclient.Registration{
		Username: username,
		Password: password,
		Nickname: nickname,
		Avatar:   avatar,
	})
	if err != nil {
		c.logger.Warn().Err(err).Str("username", username).Msg("Registration failed.")
		c.view.ShowError(FormRegister, Describe(err))
		return err
	}

	c.view.Alert("注册成功！请登录。")
	c.view.SwitchToLogin(username, password)
	return nil
}

func (c *Controller) rejectInput(form Form, msg string) error {
	err := &ValidationError{Form: form, Message: msg}
	c.view.ShowError(form, msg)
	return err
}

func (c *Controller) persist(ctx context.Context, u user.User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	return c.store.Set(ctx, SessionKey, data)
}

// enterAuthenticated is the common path for login and restore.
func (c *Controller) enterAuthenticated(ctx context.Context, u user.User) {
	c.mu.Lock()
	c.state = StateAuthenticated
	c.current = &u
	c.muted = false
	c.epoch++
	epoch := c.epoch
	isAdmin := c.isAdminLocked()

	c.view.ShowChat(u)
	c.view.SetMuted(false)
	c.view.ShowAdminPanel(isAdmin)

	if c.poller == nil {
		c.poller = StartPoller(context.WithoutCancel(ctx), c.cfg.PollInterval, c.pollTick)
	}
	c.mu.Unlock()

	_ = c.refresh(ctx, epoch)
	c.syncMuteState(ctx, epoch)

	if isAdmin {
		_ = c.loadAdminPanel(ctx, epoch)
	}
}

// Logout stops polling, clears the persisted session and returns to the auth view.
// When it returns the polling goroutine has exited and no result of the old session can be rendered.
func (c *Controller) Logout(ctx context.Context) error {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	c.mu.Lock()
	p := c.poller
	c.poller = nil
	c.epoch++
	c.state = StateAnonymous
	c.current = nil
	c.muted = false
	c.mu.Unlock()

	if p != nil {
		p.Stop()
	}

	err := c.store.Delete(ctx, SessionKey)
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to clear persisted session.")
	}

	c.mu.Lock()
	c.view.ShowAuth()
	c.view.ClearLoginForm()
	c.mu.Unlock()

	c.logger.Info().Msg("Logged out.")
	return err
}

// Close stops the polling loop and keeps the persisted session for the next start.
func (c *Controller) Close() {
	c.mu.Lock()
	p := c.poller
	c.poller = nil
	c.mu.Unlock()

	if p != nil {
		p.Stop()
	}
}

func (c *Controller) currentEpoch() (uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch, c.state == StateAuthenticated
}

// pollTick is the poller's tick function.
func (c *Controller) pollTick(ctx context.Context) {
	epoch, ok := c.currentEpoch()
	if !ok {
		return
	}

	if err := c.refresh(ctx, epoch); err != nil && ctx.Err() == nil {
		c.logger.Warn().Err(err).Msg("Message poll failed; will retry on next tick.")
	}
}

// RefreshMessages fetches and renders the message list now.
func (c *Controller) RefreshMessages(ctx context.Context) error {
	epoch, ok := c.currentEpoch()
	if !ok {
		return ErrNotAuthenticated
	}
	return c.refresh(ctx, epoch)
}

func (c *Controller) refresh(ctx context.Context, epoch uint64) error {
	msgs, err := c.api.Messages(ctx)
	if err != nil {
		if ctx.Err() == nil {
			c.logger.Error().Err(err).Msg("Failed to load messages.")
		}
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.activeLocked(epoch) {
		c.logger.Debug().Uint64("epoch", epoch).Msg("Dropping messages fetched for a superseded session.")
		return nil
	}

	c.view.RenderMessages(msgs, c.current.Username)
	return nil
}

// syncMuteState derives the mute flag from the server's mute list.
func (c *Controller) syncMuteState(ctx context.Context, epoch uint64) {
	names, err := c.api.MuteList(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Failed to load mute list; assuming unmuted.")
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.activeLocked(epoch) {
		return
	}

	c.muted = slices.Contains(names, c.current.Username)
	c.view.SetMuted(c.muted)
}

// Send posts text for the current user. Blank text is ignored without a network call.
func (c *Controller) Send(ctx context.Context, text string) error {
	msg := strings.TrimSpace(text)

	c.mu.Lock()
	if c.state != StateAuthenticated || c.current == nil {
		c.mu.Unlock()
		return ErrNotAuthenticated
	}
	if msg == "" {
		c.mu.Unlock()
		return nil
	}
	if c.muted {
		c.mu.Unlock()
		c.view.Alert("发送消息失败: " + ErrMuted.Error())
		return ErrMuted
	}
	username := c.current.Username
	epoch := c.epoch
	c.mu.Unlock()

	err := c.api.Send(ctx, apiclient.OutgoingMessage{Username: username, Message: msg})
	if err != nil {
		if apiclient.IsMuted(err) {
			c.mu.Lock()
			if c.activeLocked(epoch) {
				c.muted = true
				c.view.SetMuted(true)
			}
			c.mu.Unlock()
		}

		c.view.Alert("发送消息失败: " + Describe(err))
		return err
	}

	c.mu.Lock()
	if c.activeLocked(epoch) {
		c.view.ClearInput()
	}
	c.mu.Unlock()

	_ = c.refresh(ctx, epoch)
	return nil
}
