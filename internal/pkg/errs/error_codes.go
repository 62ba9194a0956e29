/*
Package errs provides custom error types and application-level error code constants.

These error codes identify specific business or system errors inside the local
API server. Clients never see the code; they see the message and the HTTP status.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request header Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body JSON format is incorrect (e.g., syntax error).
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates that the request body contained extra content after valid JSON data.
	ErrExtraContentInBody = 1004

	// ErrRequestEntityTooLarge indicates that the request body size exceeded the server limit.
	ErrRequestEntityTooLarge = 1006

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1007

	// ErrMissingFields indicates that a required field was empty.
	ErrMissingFields = 1008
)

// 2xxx: Message Business Logic Errors
const (
	// ErrMessageContentTooLong indicates that the user's message content exceeded the maximum length limit.
	ErrMessageContentTooLong = 2201

	// ErrMessageEmpty indicates that the message was blank after trimming.
	ErrMessageEmpty = 2202

	// ErrInvalidClearTime indicates a negative auto-clear period.
	ErrInvalidClearTime = 2301
)

// 3xxx: User and Moderation Errors
const (
	// ErrInvalidUsername indicates a username outside the allowed length.
	ErrInvalidUsername = 3101

	// ErrUserAlreadyExists indicates that the username is taken.
	ErrUserAlreadyExists = 3102

	// ErrInvalidCredentials indicates a wrong username or password.
	ErrInvalidCredentials = 3103

	// ErrUserNotFound indicates that the target account does not exist.
	ErrUserNotFound = 3104

	// ErrUserMuted indicates that the sender is on the mute list.
	ErrUserMuted = 3201

	// ErrAdminProtected indicates a moderation action aimed at the admin identity.
	ErrAdminProtected = 3202
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000
)
