package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"monetchat/internal/app/session"
)

func newLoginCommand(flags *globalFlags) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and print the current messages",
		Args:  cobra.NoArgs,
		RunE: withClientEnv(flags, func(ctx context.Context, rt *clientEnv, _ []string) error {
			if err := rt.ctrl.Login(ctx, username, password); err != nil {
				return reported(err)
			}
			u, _ := rt.ctrl.CurrentUser()
			rt.view.Alert(fmt.Sprintf("已登录为 %s (@%s)", u.Nickname, u.Username))
			return nil
		}),
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password")
	return cmd
}

func newRegisterCommand(flags *globalFlags) *cobra.Command {
	var username, password, nickname, avatar string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: withClientEnv(flags, func(ctx context.Context, rt *clientEnv, _ []string) error {
			return reported(rt.ctrl.Register(ctx, username, password, nickname, avatar))
		}),
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password")
	cmd.Flags().StringVarP(&nickname, "nickname", "n", "", "Display name")
	cmd.Flags().StringVarP(&avatar, "avatar", "a", "", "Avatar image URL")
	return cmd
}

func newLogoutCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: withClientEnv(flags, func(ctx context.Context, rt *clientEnv, _ []string) error {
			if err := rt.ctrl.Logout(ctx); err != nil {
				return err
			}
			rt.view.Alert("已退出登录")
			return nil
		}),
	}
}

func newWhoamiCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the stored session user",
		Args:  cobra.NoArgs,
		RunE: withClientEnv(flags, func(ctx context.Context, rt *clientEnv, _ []string) error {
			rt.view.setShowMessages(false)
			if err := rt.restore(ctx); err != nil {
				return err
			}

			u, _ := rt.ctrl.CurrentUser()
			status := "正常"
			if rt.ctrl.Muted() {
				status = "已禁言"
			}
			out := rt.view
			out.printf("%s (@%s)\n", nicknameStyle.Render(u.Nickname), u.Username)
			out.printf("  头像: %s\n", u.DisplayAvatar())
			out.printf("  状态: %s\n", status)
			if rt.ctrl.IsAdmin() {
				out.printf("  %s\n", headerStyle.Render("管理员"))
			}
			return nil
		}),
	}
}

func newMessagesCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "messages",
		Short: "Print the message list once",
		Args:  cobra.NoArgs,
		RunE: withClientEnv(flags, func(ctx context.Context, rt *clientEnv, _ []string) error {
			return rt.restore(ctx)
		}),
	}
}

func newSendCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "send <text...>",
		Short: "Send one message",
		Args:  cobra.MinimumNArgs(1),
		RunE: withClientEnv(flags, func(ctx context.Context, rt *clientEnv, args []string) error {
			rt.view.setShowMessages(false)
			if err := rt.restore(ctx); err != nil {
				return err
			}
			rt.view.setShowMessages(true)

			err := rt.ctrl.Send(ctx, strings.Join(args, " "))
			if errors.Is(err, session.ErrNotAuthenticated) {
				return err
			}
			return reported(err)
		}),
	}
}
