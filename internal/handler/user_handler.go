package handler

import (
	"net/http"
	"strings"

	"monetchat/internal/app/apiclient"
	"monetchat/internal/pkg/errs"
	"monetchat/internal/pkg/req"
	"monetchat/internal/pkg/resp"
)

type usernameInput struct {
	Username string `json:"username"`
}

// bindUsername decodes {"username": ...} and rejects a blank value.
func bindUsername(w http.ResponseWriter, r *http.Request) (string, *errs.CustomError) {
	var input usernameInput
	if customErr := req.BindJSON(w, r, &input); customErr != nil {
		return "", customErr
	}

	username := strings.TrimSpace(input.Username)
	if username == "" {
		return "", errs.NewError(errs.ErrMissingFields)
	}
	return username, nil
}

// HandleUserList returns every registered profile without password data.
func HandleUserList(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, deps.Manager.Users())
	}
}

// HandleMuteList returns the muted usernames.
func HandleMuteList(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, apiclient.MuteList{Users: deps.Manager.MuteList()})
	}
}

// HandleMute adds a user to the mute list.
func HandleMute(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username, customErr := bindUsername(w, r)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if customErr := deps.Manager.Mute(username); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		resp.RespondSuccess(w, r, nil)
	}
}

// HandleRemove deletes an account.
func HandleRemove(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username, customErr := bindUsername(w, r)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if customErr := deps.Manager.Remove(username); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		resp.RespondSuccess(w, r, nil)
	}
}
