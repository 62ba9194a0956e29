package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"monetchat/internal/app/user"
)

// Endpoint paths of the chat API.
const (
	PathLogin         = "/login"
	PathRegister      = "/register"
	PathMessages      = "/messages"
	PathSend          = "/send"
	PathGetClearTime  = "/get-clear-time"
	PathSetClearTime  = "/set-clear-time"
	PathUserList      = "/user-list"
	PathMute          = "/mute"
	PathRemove        = "/remove"
	PathClearMessages = "/clear-messages"
	PathGetMuteList   = "/get-mute-list"
)

// Credentials is the body of a login request.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Registration is the body of a register request.
type Registration struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
}

// LoginResult is the success payload of /login.
type LoginResult struct {
	User user.User `json:"user"`
}

// OutgoingMessage is the body of a send request.
type OutgoingMessage struct {
	Username string `json:"username"`
	Message  string `json:"message"`
}

// ClearTime is the payload of /get-clear-time and the body of /set-clear-time.
type ClearTime struct {
	Time int `json:"time"`
}

// MuteList is the success payload of /get-mute-list.
type MuteList struct {
	Users []string `json:"users"`
}

type usernameBody struct {
	Username string `json:"username"`
}

// decodeInto unmarshals a success body into out, wrapping failures with the endpoint.
func decodeInto(endpoint string, raw json.RawMessage, out any) error {
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}
	return nil
}

// Login authenticates and returns the user from the response.
func (c *Client) Login(ctx context.Context, creds Credentials) (user.User, error) {
	raw, err := c.Do(ctx, PathLogin, &RequestOptions{Method: http.MethodPost, Body: creds})
	if err != nil {
		return user.User{}, err
	}

	var res LoginResult
	if err := decodeInto(PathLogin, raw, &res); err != nil {
		return user.User{}, err
	}
	if !res.User.Valid() {
		return user.User{}, fmt.Errorf("%s response carried no usable user: %w", PathLogin, user.ErrMalformedUser)
	}
	return res.User, nil
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, reg Registration) error {
	_, err := c.Do(ctx, PathRegister, &RequestOptions{Method: http.MethodPost, Body: reg})
	return err
}

// Messages fetches the full message list in server order.
func (c *Client) Messages(ctx context.Context) ([]user.Message, error) {
	raw, err := c.Do(ctx, PathMessages, &RequestOptions{Method: http.MethodGet})
	if err != nil {
		return nil, err
	}

	var msgs []user.Message
	if err := decodeInto(PathMessages, raw, &msgs); err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []user.Message{}
	}
	return msgs, nil
}

// Send posts a message on behalf of username.
func (c *Client) Send(ctx context.Context, msg OutgoingMessage) error {
	_, err := c.Do(ctx, PathSend, &RequestOptions{Method: http.MethodPost, Body: msg})
	return err
}

// GetClearTime returns the auto-clear period. A missing value reads as 0.
func (c *Client) GetClearTime(ctx context.Context) (int, error) {
	raw, err := c.Do(ctx, PathGetClearTime, &RequestOptions{Method: http.MethodGet})
	if err != nil {
		return 0, err
	}

	var res ClearTime
	if err := decodeInto(PathGetClearTime, raw, &res); err != nil {
		return 0, err
	}
	return res.Time, nil
}

// SetClearTime sets the auto-clear period.
func (c *Client) SetClearTime(ctx context.Context, period int) error {
	_, err := c.Do(ctx, PathSetClearTime, &RequestOptions{Method: http.MethodPost, Body: ClearTime{Time: period}})
	return err
}

// UserList fetches the roster of registered users.
func (c *Client) UserList(ctx context.Context) ([]user.User, error) {
	raw, err := c.Do(ctx, PathUserList, &RequestOptions{Method: http.MethodGet})
	if err != nil {
		return nil, err
	}

	var users []user.User
	if err := decodeInto(PathUserList, raw, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Mute stops username from posting.
func (c *Client) Mute(ctx context.Context, username string) error {
	_, err := c.Do(ctx, PathMute, &RequestOptions{Method: http.MethodPost, Body: usernameBody{Username: username}})
	return err
}

// Remove deletes the account of username.
func (c *Client) Remove(ctx context.Context, username string) error {
	_, err := c.Do(ctx, PathRemove, &RequestOptions{Method: http.MethodPost, Body: usernameBody{Username: username}})
	return err
}

// ClearMessages deletes every message.
func (c *Client) ClearMessages(ctx context.Context) error {
	_, err := c.Do(ctx, PathClearMessages, &RequestOptions{Method: http.MethodPost})
	return err
}

// MuteList returns the usernames currently muted.
func (c *Client) MuteList(ctx context.Context) ([]string, error) {
	raw, err := c.Do(ctx, PathGetMuteList, &RequestOptions{Method: http.MethodGet})
	if err != nil {
		return nil, err
	}

	var res MuteList
	if err := decodeInto(PathGetMuteList, raw, &res); err != nil {
		return nil, err
	}
	return res.Users, nil
}
