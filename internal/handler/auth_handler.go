/*
Package handler provides HTTP handler functions for account registration and login.
*/
package handler

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"monetchat/internal/app/apiclient"
	"monetchat/internal/app/user"
	"monetchat/internal/pkg/errs"
	"monetchat/internal/pkg/logx"
	"monetchat/internal/pkg/req"
	"monetchat/internal/pkg/resp"
)

const (
	minUsernameLen = 1
	maxUsernameLen = 32
)

// HandleRegister creates an account from username, password, nickname and avatar.
func HandleRegister(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input apiclient.Registration
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		profile := user.User{
			Username: strings.TrimSpace(input.Username),
			Nickname: strings.TrimSpace(input.Nickname),
			Avatar:   strings.TrimSpace(input.Avatar),
		}
		if profile.Username == "" || input.Password == "" || profile.Nickname == "" || profile.Avatar == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrMissingFields))
			return
		}

		if n := utf8.RuneCountInString(profile.Username); n < minUsernameLen || n > maxUsernameLen {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidUsername, minUsernameLen, maxUsernameLen))
			return
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), deps.hashCost())
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown, err))
			return
		}

		if customErr := deps.Manager.Register(profile, hashedPassword); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		resp.RespondSuccess(w, r, nil)
	}
}

// HandleLogin verifies user credentials and returns the stored profile.
func HandleLogin(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input apiclient.Credentials
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		username := strings.TrimSpace(input.Username)
		profile, hash, ok := deps.Manager.Credentials(username)
		if !ok {
			logx.Warn("login: unknown username", "username", username)
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidCredentials))
			return
		}

		if err := bcrypt.CompareHashAndPassword(hash, []byte(input.Password)); err != nil {
			logx.Warn("login: password mismatch", "username", username)
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidCredentials))
			return
		}

		resp.RespondSuccess(w, r, apiclient.LoginResult{User: profile})
	}
}
