/*
Package errs provides custom error types and application-level error code constants.

These error codes identify specific business or system errors both internally
and in responses sent to clients.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body JSON is malformed.
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates that the request body contained trailing content after valid JSON.
	ErrExtraContentInBody = 1004

	// ErrRateLimitExceeded indicates that the request rate has exceeded the configured limit.
	ErrRateLimitExceeded = 1005
)

// 2xxx: Messaging and Bilan Business Logic Errors
const (
	// ErrBilanNotFound indicates that the referenced bilan does not exist.
	ErrBilanNotFound = 2101

	// ErrConversationForbidden indicates the caller is not a participant of the requested conversation.
	ErrConversationForbidden = 2102

	// ErrMessageContentMissing indicates that a submitted message had empty content.
	ErrMessageContentMissing = 2201

	// ErrMessageContentTooLong indicates that the message content exceeded the maximum length.
	ErrMessageContentTooLong = 2202

	// ErrInvalidAddressing indicates a submission with neither receiver nor bilan
	// from a sender whose role does not permit unscoped first-contact messages.
	ErrInvalidAddressing = 2301

	// ErrMessageNotSaved indicates that the message could not be durably stored.
	// No delivery is attempted for such a submission.
	ErrMessageNotSaved = 2302
)

// 3xxx: User, Session, and Security Errors
const (
	// ErrUnauthorized indicates a missing, invalid, or expired credential.
	ErrUnauthorized = 3001

	// ErrForbidden indicates the authenticated user's role does not permit the operation.
	ErrForbidden = 3002

	// ErrInvalidCredentials indicates an incorrect email or password at login.
	ErrInvalidCredentials = 3003

	// ErrEmailAlreadyUsed indicates the registration email is already taken.
	ErrEmailAlreadyUsed = 3004

	// ErrUserNotFound indicates the requested user account does not exist.
	ErrUserNotFound = 3005

	// ErrInvalidEmail indicates a malformed registration email.
	ErrInvalidEmail = 3006

	// ErrInvalidPassword indicates a password outside the accepted length bounds.
	ErrInvalidPassword = 3007

	// ErrInvalidRole indicates a registration role other than client or consultant.
	ErrInvalidRole = 3008
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified server internal error.
	ErrUnknown = 5000
)
