package session

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"monetchat/internal/app/user"
)

// LoadAdminPanel fetches and renders the auto-clear period and the user roster.
func (c *Controller) LoadAdminPanel(ctx context.Context) error {
	epoch, ok := c.currentEpoch()
	if !ok {
		return ErrNotAuthenticated
	}
	return c.loadAdminPanel(ctx, epoch)
}

func (c *Controller) loadAdminPanel(ctx context.Context, epoch uint64) error {
	period, err := c.api.GetClearTime(ctx)
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to load admin panel.")
		return err
	}

	c.mu.Lock()
	if c.activeLocked(epoch) {
		c.view.RenderClearTime(period)
	}
	c.mu.Unlock()

	users, err := c.api.UserList(ctx)
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to load admin panel.")
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.activeLocked(epoch) {
		c.view.RenderUserList(c.rosterLocked(users))
	}
	return nil
}

// rosterLocked drops the admin identity from users.
func (c *Controller) rosterLocked(users []user.User) []user.User {
	out := make([]user.User, 0, len(users))
	for _, u := range users {
		if u.Username == c.cfg.AdminUsername {
			continue
		}
		out = append(out, u)
	}
	return out
}

// checkTarget rejects blank targets and the admin identity before any network call.
func (c *Controller) checkTarget(action, target string) (string, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		err := &ValidationError{Form: FormAdmin, Message: "请输入用户名"}
		c.view.Alert(action + "失败: " + err.Message)
		return "", err
	}
	if target == c.cfg.AdminUsername {
		c.view.Alert(action + "失败: " + ErrAdminProtected.Error())
		return "", ErrAdminProtected
	}
	return target, nil
}

// Mute stops target from posting. Muting the current session's own identity
// also disables sending locally.
func (c *Controller) Mute(ctx context.Context, target string) error {
	target, err := c.checkTarget("禁言", target)
	if err != nil {
		return err
	}

	if err := c.api.Mute(ctx, target); err != nil {
		c.view.Alert("禁言失败: " + Describe(err))
		return err
	}

	c.mu.Lock()
	if c.state == StateAuthenticated && c.current != nil && c.current.Username == target {
		c.muted = true
		c.view.SetMuted(true)
	}
	c.mu.Unlock()

	c.logger.Info().Str("target", target).Msg("User muted.")
	c.view.Alert(fmt.Sprintf("用户 @%s 已被禁言", target))
	c.reloadRoster(ctx)
	return nil
}

// Remove deletes the account of target after the operator confirms.
func (c *Controller) Remove(ctx context.Context, target string) error {
	target, err := c.checkTarget("移除", target)
	if err != nil {
		return err
	}

	if !c.view.Confirm(fmt.Sprintf("确定要移除用户 @%s 吗？此操作不可逆。", target)) {
		return ErrCancelled
	}

	if err := c.api.Remove(ctx, target); err != nil {
		c.view.Alert("移除失败: " + Describe(err))
		return err
	}

	c.logger.Info().Str("target", target).Msg("User removed.")
	c.view.Alert(fmt.Sprintf("用户 @%s 已被移除", target))
	c.reloadRoster(ctx)
	return nil
}

// SetClearTime parses raw as an integer period and sends it to the server.
func (c *Controller) SetClearTime(ctx context.Context, raw string) error {
	period, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		vErr := &ValidationError{Form: FormAdmin, Message: "请输入有效的数字"}
		c.view.Alert("设置失败: " + vErr.Message)
		return vErr
	}

	if err := c.api.SetClearTime(ctx, period); err != nil {
		c.view.Alert("设置失败: " + Describe(err))
		return err
	}

	c.logger.Info().Int("period", period).Msg("Auto-clear period updated.")
	c.view.Alert("自动清除时间设置成功")
	return nil
}

// ClearMessages deletes every message after the operator confirms, then refreshes immediately.
func (c *Controller) ClearMessages(ctx context.Context) error {
	if !c.view.Confirm("确定要清除所有聊天记录吗？") {
		return ErrCancelled
	}

	if err := c.api.ClearMessages(ctx); err != nil {
		c.view.Alert("清除失败: " + Describe(err))
		return err
	}

	if epoch, ok := c.currentEpoch(); ok {
		_ = c.refresh(ctx, epoch)
	}

	c.logger.Info().Msg("All messages cleared.")
	c.view.Alert("所有消息已清除")
	return nil
}

// reloadRoster refreshes the admin panel after a roster change when it is visible.
func (c *Controller) reloadRoster(ctx context.Context) {
	epoch, ok := c.currentEpoch()
	if !ok || !c.IsAdmin() {
		return
	}
	_ = c.loadAdminPanel(ctx, epoch)
}
