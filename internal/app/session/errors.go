package session

import (
	"errors"
	"fmt"

	"monetchat/internal/app/apiclient"
)

var (
	// ErrNotAuthenticated is returned by operations that need an active session.
	ErrNotAuthenticated = errors.New("not logged in")

	// ErrMuted is returned when a muted session tries to send.
	ErrMuted = errors.New("您已被禁言")

	// ErrBusy is returned when a login or registration is already in flight.
	ErrBusy = errors.New("another authentication attempt is in progress")

	// ErrAdminProtected is returned when an admin operation targets the admin identity.
	ErrAdminProtected = errors.New("不能对管理员执行此操作")

	// ErrCancelled is returned when the operator declines a confirmation.
	ErrCancelled = errors.New("operation cancelled")
)

// networkMessage is shown when the server could not be reached.
const networkMessage = "无法连接到服务器，请检查网络"

// ValidationError is a local input error detected before any network call.
type ValidationError struct {
	Form    Form
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Form, e.Message)
}

// Describe turns err into the text shown to the operator.
// Unreachable-server failures get a connectivity message so they read differently from server rejections.
func Describe(err error) string {
	var validation *ValidationError
	var apiErr *apiclient.APIError

	switch {
	case err == nil:
		return ""
	case errors.As(err, &validation):
		return validation.Message
	case apiclient.IsNetwork(err):
		return networkMessage
	case errors.As(err, &apiErr):
		return apiErr.Message
	default:
		return err.Error()
	}
}
