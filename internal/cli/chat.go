package cli

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"monetchat/internal/app/session"
	"monetchat/internal/pkg/logx"
)

const chatHelp = `命令:
  /users            查看用户列表 (管理员)
  /mute <用户名>     禁言用户
  /remove <用户名>   移除用户
  /clear            清除所有消息
  /clear-time <n>   设置自动清除时间 (分钟)
  /logout           退出登录
  /quit             退出
其他输入将作为消息发送。`

func newChatCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Open the interactive chat room",
		Args:  cobra.NoArgs,
		RunE: withClientEnv(flags, func(ctx context.Context, rt *clientEnv, _ []string) error {
			rt.view.setIncremental(true)
			if err := rt.restore(ctx); err != nil {
				return err
			}

			rt.view.printf("%s\n", dimStyle.Render(chatHelp))
			return runChatLoop(ctx, rt)
		}),
	}
}

// runChatLoop reads operator lines until /quit, /logout, EOF or cancellation.
// The polling loop keeps rendering in the background.
func runChatLoop(ctx context.Context, rt *clientEnv) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	stop := make(chan struct{})
	defer close(stop)

	go func() {
		defer close(lines)
		for {
			line, err := rt.view.readLine()
			if err != nil {
				readErr <- err
				return
			}
			select {
			case lines <- line:
			case <-stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	// confirmations are answered by the next input line
	rt.view.setAnswers(lines)
	defer rt.view.setAnswers(nil)

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					if !errors.Is(err, io.EOF) {
						return err
					}
				default:
				}
				return nil
			}

			done, err := handleChatLine(ctx, rt, line)
			if err != nil {
				logx.Debug("Chat command failed", "line", line, "error", err.Error())
			}
			if done {
				return nil
			}
		}
	}
}

// handleChatLine runs one line of input. It reports whether the loop should end.
// Failures are already shown by the view, so they never end the loop.
func handleChatLine(ctx context.Context, rt *clientEnv, line string) (bool, error) {
	text := strings.TrimSpace(line)
	if !strings.HasPrefix(text, "/") {
		return false, rt.ctrl.Send(ctx, line)
	}

	command, arg, _ := strings.Cut(text, " ")
	arg = strings.TrimSpace(arg)

	switch command {
	case "/quit", "/exit":
		return true, nil
	case "/logout":
		if err := rt.ctrl.Logout(ctx); err != nil {
			return true, err
		}
		rt.view.Alert("已退出登录")
		return true, nil
	case "/users":
		return false, rt.ctrl.LoadAdminPanel(ctx)
	case "/mute":
		return false, rt.ctrl.Mute(ctx, arg)
	case "/remove":
		return false, cancelled(rt, rt.ctrl.Remove(ctx, arg))
	case "/clear":
		return false, cancelled(rt, rt.ctrl.ClearMessages(ctx))
	case "/clear-time":
		return false, rt.ctrl.SetClearTime(ctx, arg)
	case "/help":
		rt.view.printf("%s\n", dimStyle.Render(chatHelp))
		return false, nil
	default:
		rt.view.Alert("未知命令: " + command)
		return false, nil
	}
}

// cancelled turns a declined confirmation into a notice.
func cancelled(rt *clientEnv, err error) error {
	if errors.Is(err, session.ErrCancelled) {
		rt.view.Alert("操作已取消")
		return nil
	}
	return err
}
