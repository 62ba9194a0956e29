package cli

import (
	"bufio"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"monetchat/internal/app/session"
	"monetchat/internal/app/user"
)

var (
	headerStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	nicknameStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("255"))
	ownNicknameStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	timeStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	alertStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	dimStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// FormatMessages renders msgs one entry per message, oldest first. Entries posted
// by currentUsername are marked. Times are shown in loc.
func FormatMessages(msgs []user.Message, currentUsername string, loc *time.Location) string {
	if len(msgs) == 0 {
		return dimStyle.Render("(暂无消息)") + "\n"
	}

	var b strings.Builder
	for _, m := range msgs {
		style := nicknameStyle
		name := m.Nickname
		if name == "" {
			name = m.Username
		}
		if m.IsOwn(currentUsername) {
			style = ownNicknameStyle
			name += " (我)"
		}

		b.WriteString(style.Render(name))
		b.WriteString(" - ")
		b.WriteString(timeStyle.Render(m.Time().In(loc).Format("2006-01-02 15:04:05")))
		b.WriteString("\n")
		for _, line := range strings.Split(m.Message, "\n") {
			b.WriteString("  ")
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// terminalView renders session state as lines of text.
type terminalView struct {
	mu sync.Mutex

	// outMu serializes writes from the polling goroutine and the command goroutine.
	outMu  sync.Mutex
	out    io.Writer
	errOut io.Writer
	in     *bufio.Reader
	loc    *time.Location

	// assumeYes answers every confirmation with yes.
	assumeYes bool

	// answers, when set, supplies confirmation replies instead of in.
	answers <-chan string

	// showMessages controls whether message renders are printed at all.
	showMessages bool

	// incremental prints only messages appended since the previous render.
	incremental bool
	previous    []user.Message

	current user.User
	muted   bool
}

func newTerminalView(in io.Reader, out, errOut io.Writer) *terminalView {
	return &terminalView{
		out:          out,
		errOut:       errOut,
		in:           bufio.NewReader(in),
		loc:          time.Local,
		showMessages: true,
	}
}

var _ session.View = (*terminalView)(nil)

func (v *terminalView) printf(format string, args ...any) {
	v.outMu.Lock()
	defer v.outMu.Unlock()
	_, _ = fmt.Fprintf(v.out, format, args...)
}

func (v *terminalView) eprintln(msg string) {
	v.outMu.Lock()
	defer v.outMu.Unlock()
	_, _ = fmt.Fprintln(v.errOut, errorStyle.Render(msg))
}

func (v *terminalView) ShowAuth() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.current = user.User{}
	v.previous = nil
}

func (v *terminalView) ShowChat(u user.User) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.current = u
	v.previous = nil
}

func (v *terminalView) ShowError(form session.Form, msg string) {
	v.eprintln(fmt.Sprintf("[%s] %s", form, msg))
}

func (v *terminalView) ClearErrors() {}

func (v *terminalView) SwitchToLogin(username, _ string) {
	v.printf("%s\n", dimStyle.Render("现在可以登录: monetchat login -u "+username))
}

func (v *terminalView) ClearLoginForm() {}

func (v *terminalView) RenderMessages(msgs []user.Message, currentUsername string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.showMessages {
		return
	}

	if v.incremental && v.previous != nil {
		if len(msgs) >= len(v.previous) && slices.Equal(msgs[:len(v.previous)], v.previous) {
			if fresh := msgs[len(v.previous):]; len(fresh) > 0 {
				v.printf("%s", FormatMessages(fresh, currentUsername, v.loc))
			}
			v.previous = msgs
			return
		}
		v.printf("%s\n", dimStyle.Render("---- 消息列表已更新 ----"))
	}

	v.printf("%s", FormatMessages(msgs, currentUsername, v.loc))
	v.previous = msgs
}

func (v *terminalView) ClearInput() {}

func (v *terminalView) SetMuted(muted bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if muted && !v.muted && v.current.Username != "" {
		v.eprintln("您已被禁言，无法发送消息")
	}
	v.muted = muted
}

func (v *terminalView) ShowAdminPanel(bool) {}

func (v *terminalView) RenderClearTime(period int) {
	v.printf("%s %d 分钟\n", headerStyle.Render("自动清除时间:"), period)
}

func (v *terminalView) RenderUserList(users []user.User) {
	v.printf("%s\n", headerStyle.Render(fmt.Sprintf("用户列表 (%d)", len(users))))
	for _, u := range users {
		v.printf("  @%s  %s\n", u.Username, dimStyle.Render(u.Nickname))
	}
}

func (v *terminalView) Alert(msg string) {
	v.printf("%s\n", alertStyle.Render(msg))
}

// Confirm asks on out and reads one line from in. Anything but y/yes declines.
func (v *terminalView) Confirm(prompt string) bool {
	if v.assumeYes {
		return true
	}

	v.printf("%s [y/N] ", prompt)

	var line string
	if v.answers != nil {
		answer, ok := <-v.answers
		if !ok {
			v.printf("\n")
			return false
		}
		line = answer
	} else {
		read, err := v.in.ReadString('\n')
		if err != nil && read == "" {
			v.printf("\n")
			return false
		}
		line = read
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// readLine reads the next line of operator input.
func (v *terminalView) readLine() (string, error) {
	line, err := v.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// setAnswers is only called from the goroutine that also triggers confirmations.
func (v *terminalView) setAnswers(answers <-chan string) {
	v.answers = answers
}

func (v *terminalView) setShowMessages(show bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.showMessages = show
}

func (v *terminalView) setIncremental(incremental bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.incremental = incremental
}
