/*
Package errs provides custom error types and application-level error code constants.

These codes identify specific business or system errors both internally and in
responses from the HTTP front door.
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

	// ErrExtraContentInBody indicates trailing content after valid JSON in the body.
	ErrExtraContentInBody = 1004

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1005
)

// 3xxx: Session and Authentication Errors
const (
	// ErrNoSession indicates the request carried no session cookie.
	ErrNoSession = 3001

	// ErrSessionInvalid indicates the presented session token resolves to nothing.
	ErrSessionInvalid = 3002

	// ErrOAuthExchange indicates the identity provider rejected the authorization code
	// or the exchange failed for infrastructure reasons.
	ErrOAuthExchange = 3003
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified server internal error.
	ErrUnknown = 5000
)
