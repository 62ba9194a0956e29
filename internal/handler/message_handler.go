package handler

import (
	"net/http"

	"monetchat/internal/app/apiclient"
	"monetchat/internal/pkg/errs"
	"monetchat/internal/pkg/req"
	"monetchat/internal/pkg/resp"
)

// HandleMessages returns the whole message log.
func HandleMessages(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, deps.Manager.Messages())
	}
}

// HandleSend appends a message. A muted sender gets 403 with the mute message.
func HandleSend(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input apiclient.OutgoingMessage
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if customErr := deps.Manager.Post(input.Username, input.Message); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		resp.RespondSuccess(w, r, nil)
	}
}

// HandleClearMessages empties the message log.
func HandleClearMessages(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deps.Manager.ClearMessages()
		resp.RespondSuccess(w, r, nil)
	}
}

// HandleGetClearTime returns the auto-clear period in minutes.
func HandleGetClearTime(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, apiclient.ClearTime{Time: deps.Manager.ClearTime()})
	}
}

// HandleSetClearTime changes the auto-clear period. 0 disables it.
func HandleSetClearTime(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input apiclient.ClearTime
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if input.Time < 0 {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidClearTime))
			return
		}

		deps.Manager.SetClearTime(input.Time)
		resp.RespondSuccess(w, r, nil)
	}
}
