package identity

import (
	"strings"

	"github.com/dmitrijs2005/travelease/internal/client/failure"
)

// providerError is the error document returned by the identity REST API:
// {"error": {"code": 400, "message": "EMAIL_EXISTS"}}.
type providerError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// errorCode extracts the leading code from messages such as
// "WEAK_PASSWORD : Password should be at least 6 characters".
func errorCode(message string) string {
	code := strings.TrimSpace(message)
	if i := strings.IndexAny(code, " :"); i >= 0 {
		code = code[:i]
	}
	return code
}

// mapCode converts a provider error code into a typed failure.
func mapCode(code string) error {
	switch code {
	case "EMAIL_EXISTS":
		return failure.New(failure.ErrEmailInUse, "an account with this email already exists")
	case "EMAIL_NOT_FOUND", "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS", "INVALID_EMAIL",
		"MISSING_PASSWORD", "MISSING_EMAIL", "USER_DISABLED":
		return failure.New(failure.ErrInvalidCredential, "email or password is incorrect")
	case "TOKEN_EXPIRED", "INVALID_REFRESH_TOKEN", "INVALID_ID_TOKEN", "USER_NOT_FOUND",
		"CREDENTIAL_TOO_OLD_LOGIN_AGAIN":
		return failure.WithHint(
			failure.New(failure.ErrInvalidCredential, "your session has expired"),
			"Sign in again.")
	case "WEAK_PASSWORD":
		return failure.New(failure.ErrWeakCredential, "password is too weak")
	case "TOO_MANY_ATTEMPTS_TRY_LATER":
		return failure.WithHint(
			failure.New(failure.ErrProviderError, "too many attempts"),
			"Wait a little and try again.")
	case "OPERATION_NOT_ALLOWED", "INVALID_API_KEY", "API_KEY_INVALID", "PROJECT_NOT_FOUND", "CONFIGURATION_NOT_FOUND":
		return failure.Newf(failure.ErrProviderError, "identity provider refused the request (%s)", code)
	case "":
		return failure.New(failure.ErrUnknown, "identity provider returned an unknown error")
	default:
		return failure.Newf(failure.ErrUnknown, "identity provider error: %s", code)
	}
}

// IsIdentityKind reports whether err already belongs to the identity part
// of the taxonomy.
func IsIdentityKind(err error) bool {
	switch failure.KindOf(err) {
	case failure.KindInvalidCredential, failure.KindEmailInUse, failure.KindWeakCredential,
		failure.KindProviderError, failure.KindUnknown, failure.KindValidation:
		return true
	}
	return false
}
