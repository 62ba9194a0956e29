package session

import "monetchat/internal/app/user"

// Form identifies where an inline error is shown.
type Form string

const (
	FormLogin    Form = "login"
	FormRegister Form = "register"
	FormAdmin    Form = "admin"
)

// View renders session state and collects operator decisions.
//
// Methods that render session state are invoked while the controller holds its
// state lock, so implementations must not call back into the Controller.
// Confirm is always invoked without the lock held.
type View interface {
	// ShowAuth switches to the login/registration surface.
	ShowAuth()
	// ShowChat switches to the chat surface for u.
	ShowChat(u user.User)

	ShowError(form Form, msg string)
	ClearErrors()

	// SwitchToLogin shows the login form pre-filled with the given credentials.
	SwitchToLogin(username, password string)
	ClearLoginForm()

	// RenderMessages replaces the message area with msgs, marking those posted by currentUsername.
	RenderMessages(msgs []user.Message, currentUsername string)
	ClearInput()
	SetMuted(muted bool)

	ShowAdminPanel(visible bool)
	RenderClearTime(period int)
	RenderUserList(users []user.User)

	Alert(msg string)
	Confirm(prompt string) bool
}

// BaseView implements View with no-ops. Confirm declines.
// Embed it to implement only the methods a front end cares about.
type BaseView struct{}

func (BaseView) ShowAuth() {}
func (BaseView) ShowChat(user.User) {}
func (BaseView) ShowError(Form, string) {}
func (BaseView) ClearErrors() {}
func (BaseView) SwitchToLogin(string, string) {}
func (BaseView) ClearLoginForm() {}
func (BaseView) RenderMessages([]user.Message, string) {}
func (BaseView) ClearInput() {}
func (BaseView) SetMuted(bool) {}
func (BaseView) ShowAdminPanel(bool) {}
func (BaseView) RenderClearTime(int) {}
func (BaseView) RenderUserList([]user.User) {}
func (BaseView) Alert(string) {}
func (BaseView) Confirm(string) bool { return false }
