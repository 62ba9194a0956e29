package chat

import (
	"slices"
	"strings"

	"monetchat/internal/app/user"
	"monetchat/internal/pkg/errs"
)

// Register stores a new account. The caller hashes the password.
func (m *Manager) Register(profile user.User, passwordHash []byte) *errs.CustomError {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.accounts[profile.Username]; exists {
		m.logger.Warn().Str("username", profile.Username).Msg("Registration conflict: username already exists.")
		return errs.NewError(errs.ErrUserAlreadyExists)
	}

	m.accounts[profile.Username] = &account{profile: profile, passwordHash: passwordHash}
	m.order = append(m.order, profile.Username)

	m.logger.Info().Str("username", profile.Username).Msg("Account registered.")
	return nil
}

// Credentials returns the profile and password hash of username.
func (m *Manager) Credentials(username string) (user.User, []byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	acc, ok := m.accounts[username]
	if !ok {
		return user.User{}, nil, false
	}
	return acc.profile, acc.passwordHash, true
}

// Users returns every registered profile in registration order.
func (m *Manager) Users() []user.User {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]user.User, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, m.accounts[name].profile)
	}
	return out
}

// Post appends a message from username. Muted senders are rejected.
func (m *Manager) Post(username, text string) *errs.CustomError {
	text = strings.TrimSpace(text)
	if text == "" {
		return errs.NewError(errs.ErrMessageEmpty)
	}
	if len(text) > MaxContentBytes {
		return errs.NewError(errs.ErrMessageContentTooLong)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	acc, ok := m.accounts[username]
	if !ok {
		return errs.NewError(errs.ErrUserNotFound)
	}
	if _, muted := m.muted[username]; muted {
		m.logger.Debug().Str("username", username).Msg("Rejected message from muted user.")
		return errs.NewError(errs.ErrUserMuted)
	}

	m.messages = append(m.messages, user.Message{
		Username:  acc.profile.Username,
		Nickname:  acc.profile.Nickname,
		Avatar:    acc.profile.Avatar,
		Message:   text,
		Timestamp: m.now().UnixMilli(),
	})
	return nil
}

// Mute adds username to the mute list. Muting twice is not an error.
func (m *Manager) Mute(username string) *errs.CustomError {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkTargetLocked(username); err != nil {
		return err
	}

	m.muted[username] = struct{}{}
	m.logger.Info().Str("username", username).Msg("User muted.")
	return nil
}

// Remove deletes the account of username and drops it from the mute list.
// Messages already posted by the account are kept.
func (m *Manager) Remove(username string) *errs.CustomError {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkTargetLocked(username); err != nil {
		return err
	}

	delete(m.accounts, username)
	delete(m.muted, username)
	m.order = slices.DeleteFunc(m.order, func(name string) bool { return name == username })

	m.logger.Info().Str("username", username).Msg("Account removed.")
	return nil
}

func (m *Manager) checkTargetLocked(username string) *errs.CustomError {
	if username == m.adminUsername {
		return errs.NewError(errs.ErrAdminProtected)
	}
	if _, ok := m.accounts[username]; !ok {
		return errs.NewError(errs.ErrUserNotFound)
	}
	return nil
}

// MuteList returns the muted usernames in sorted order.
func (m *Manager) MuteList() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, 0, len(m.muted))
	for name := range m.muted {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}
