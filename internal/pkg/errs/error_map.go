/*
Package errs provides custom error types and application-level error code constants.

This file maps every error code to its CustomError template, standardizing the
message and HTTP status used when the error reaches a client.
*/
package errs

import "net/http"

// errorMap stores the CustomError template for every application error code.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:        {Code: ErrInvalidParams, Message: "Invalid request parameters.", Status: http.StatusBadRequest},
	ErrUnsupportedMediaType: {Code: ErrUnsupportedMediaType, Message: "Unsupported request format.", Status: http.StatusUnsupportedMediaType},
	ErrInvalidJSONFormat:    {Code: ErrInvalidJSONFormat, Message: "Unsupported request format.", Status: http.StatusBadRequest},
	ErrExtraContentInBody:   {Code: ErrExtraContentInBody, Message: "Request contains unexpected data.", Status: http.StatusBadRequest},
	ErrRateLimitExceeded:    {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	// 3xxx: Session and Authentication Errors
	ErrNoSession:      {Code: ErrNoSession, Message: "Please sign in to continue.", Status: http.StatusUnauthorized},
	ErrSessionInvalid: {Code: ErrSessionInvalid, Message: "Your session is no longer valid.", Status: http.StatusUnauthorized},
	ErrOAuthExchange:  {Code: ErrOAuthExchange, Message: "Sign-in with the identity provider failed. Please try again.", Status: http.StatusBadGateway},

	// 5xxx: Internal System Errors
	ErrUnknown: {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
}
