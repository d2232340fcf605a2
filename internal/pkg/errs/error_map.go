/*
Package errs provides custom error types and application-level error code constants.

This file defines the map from error codes to the CustomError struct, used to
standardize HTTP responses and internal error handling.
*/
package errs

import "net/http"

// errorMap stores the CustomError template corresponding to every application
// error code. A zero Status defaults to HTTP 200 with a non-zero business code.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:        {Code: ErrInvalidParams, Message: "Invalid request parameters.", Status: http.StatusBadRequest},
	ErrUnsupportedMediaType: {Code: ErrUnsupportedMediaType, Message: "Unsupported request format.", Status: http.StatusUnsupportedMediaType},
	ErrInvalidJSONFormat:    {Code: ErrInvalidJSONFormat, Message: "Request body is not valid JSON.", Status: http.StatusBadRequest},
	ErrExtraContentInBody:   {Code: ErrExtraContentInBody, Message: "Request contains unexpected data.", Status: http.StatusBadRequest},
	ErrRateLimitExceeded:    {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	// 2xxx: Messaging and Bilan Business Logic Errors
	ErrBilanNotFound:         {Code: ErrBilanNotFound, Message: "Bilan not found.", Status: http.StatusNotFound},
	ErrConversationForbidden: {Code: ErrConversationForbidden, Message: "You are not a participant of this conversation.", Status: http.StatusForbidden},
	ErrMessageContentMissing: {Code: ErrMessageContentMissing, Message: "Message content is required."},
	ErrMessageContentTooLong: {Code: ErrMessageContentTooLong, Message: "Message is too long."},
	ErrInvalidAddressing:     {Code: ErrInvalidAddressing, Message: "Message has no recipient. Only clients may send unaddressed first-contact messages."},
	ErrMessageNotSaved:       {Code: ErrMessageNotSaved, Message: "Message could not be saved. Please resend it."},

	// 3xxx: User, Session, and Security Errors
	ErrUnauthorized:       {Code: ErrUnauthorized, Message: "Please sign in to continue.", Status: http.StatusUnauthorized},
	ErrForbidden:          {Code: ErrForbidden, Message: "Your role does not allow this action.", Status: http.StatusForbidden},
	ErrInvalidCredentials: {Code: ErrInvalidCredentials, Message: "Incorrect email or password.", Status: http.StatusBadRequest},
	ErrEmailAlreadyUsed:   {Code: ErrEmailAlreadyUsed, Message: "This email is already in use.", Status: http.StatusBadRequest},
	ErrUserNotFound:       {Code: ErrUserNotFound, Message: "User not found.", Status: http.StatusNotFound},
	ErrInvalidEmail:       {Code: ErrInvalidEmail, Message: "Invalid email address.", Status: http.StatusBadRequest},
	ErrInvalidPassword:    {Code: ErrInvalidPassword, Message: "Password must be between %d and %d characters.", Status: http.StatusBadRequest},
	ErrInvalidRole:        {Code: ErrInvalidRole, Message: "Role must be client or consultant.", Status: http.StatusBadRequest},

	// 5xxx: Internal System Errors
	ErrUnknown: {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
}
