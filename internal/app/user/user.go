/*
Package user contains the core data structures shared by the chat client and the local API server.

It defines the representation of a chat participant (User) and of a posted chat
message (Message), both in the exact JSON shape exchanged over the wire.
*/
package user

import (
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"time"
)

// ErrMalformedUser is returned when a serialized user cannot be used as a session identity.
var ErrMalformedUser = errors.New("malformed user")

// User represents the identity of a chat participant.
type User struct {

	// Username is the unique login handle.
	Username string `json:"username"`

	// Nickname is the display name shown next to messages.
	Nickname string `json:"nickname"`

	// Avatar is the URL of the user's avatar image.
	Avatar string `json:"avatar"`
}

// Valid reports whether u can identify a session.
func (u User) Valid() bool {
	return strings.TrimSpace(u.Username) != ""
}

// DisplayAvatar returns the avatar URL, falling back to a generated one derived from the nickname.
func (u User) DisplayAvatar() string {
	return avatarOrFallback(u.Avatar, u.Nickname)
}

// Decode parses a serialized user and checks it is well-formed.
func Decode(data []byte) (User, error) {
	var u User
	if err := json.Unmarshal(data, &u); err != nil {
		return User{}, errors.Join(ErrMalformedUser, err)
	}
	if !u.Valid() {
		return User{}, ErrMalformedUser
	}
	return u, nil
}

// Message is a single posted chat message. Messages are never mutated after they are received.
type Message struct {
	Username string `json:"username"`
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
	Message  string `json:"message"`

	// Timestamp is the posting time in milliseconds since the Unix epoch.
	Timestamp int64 `json:"timestamp"`
}

// Time converts the millisecond timestamp into a time.Time.
func (m Message) Time() time.Time {
	return time.UnixMilli(m.Timestamp)
}

// DisplayAvatar returns the avatar URL, falling back to a generated one derived from the nickname.
func (m Message) DisplayAvatar() string {
	return avatarOrFallback(m.Avatar, m.Nickname)
}

// IsOwn reports whether the message was posted by the given username.
func (m Message) IsOwn(username string) bool {
	return username != "" && m.Username == username
}

func avatarOrFallback(avatar, nickname string) string {
	if strings.TrimSpace(avatar) != "" {
		return avatar
	}
	return "https://ui-avatars.com/api/?name=" + url.QueryEscape(nickname) + "&background=random"
}
