/*
Package errs provides custom error types and application-level error code constants.

This file defines the map from error codes to the CustomError struct, used to standardize
HTTP responses and internal error handling.
*/
package errs

import "net/http"

// errorMap stores the detailed CustomError struct corresponding to every application error code.
// The key is the error code (int), and the value contains the user message and HTTP status code.
// The mute message must keep the 禁言 indicator; clients detect a mute from it.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:         {Code: ErrInvalidParams, Message: "请求参数无效"},
	ErrUnsupportedMediaType:  {Code: ErrUnsupportedMediaType, Message: "不支持的请求格式", Status: http.StatusUnsupportedMediaType},
	ErrInvalidJSONFormat:     {Code: ErrInvalidJSONFormat, Message: "请求格式错误"},
	ErrExtraContentInBody:    {Code: ErrExtraContentInBody, Message: "请求包含多余数据"},
	ErrRequestEntityTooLarge: {Code: ErrRequestEntityTooLarge, Message: "请求内容过大", Status: http.StatusRequestEntityTooLarge},
	ErrRateLimitExceeded:     {Code: ErrRateLimitExceeded, Message: "请求过于频繁，请稍后再试", Status: http.StatusTooManyRequests},
	ErrMissingFields:         {Code: ErrMissingFields, Message: "请填写所有字段"},

	// 2xxx: Message Business Logic Errors
	ErrMessageContentTooLong: {Code: ErrMessageContentTooLong, Message: "消息过长"},
	ErrMessageEmpty:          {Code: ErrMessageEmpty, Message: "消息不能为空"},
	ErrInvalidClearTime:      {Code: ErrInvalidClearTime, Message: "清除时间不能为负数"},

	// 3xxx: User and Moderation Errors
	ErrInvalidUsername:    {Code: ErrInvalidUsername, Message: "用户名长度须为 %d-%d 个字符"},
	ErrUserAlreadyExists:  {Code: ErrUserAlreadyExists, Message: "用户名已存在", Status: http.StatusConflict},
	ErrInvalidCredentials: {Code: ErrInvalidCredentials, Message: "用户名或密码错误", Status: http.StatusUnauthorized},
	ErrUserNotFound:       {Code: ErrUserNotFound, Message: "用户不存在", Status: http.StatusNotFound},
	ErrUserMuted:          {Code: ErrUserMuted, Message: "您已被禁言", Status: http.StatusForbidden},
	ErrAdminProtected:     {Code: ErrAdminProtected, Message: "不能对管理员执行此操作", Status: http.StatusForbidden},

	// 5xxx: Internal System Errors
	ErrUnknown: {Code: ErrUnknown, Message: "服务器内部错误", Status: http.StatusInternalServerError},
}
