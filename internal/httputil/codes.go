package httputil

// Machine-readable error codes returned alongside human-readable messages.
// The web client maps these to localized toast notifications.
const (
	CodeInvalidRequestBody = "invalid_request_body"
	CodeInternalError      = "internal_error"
	CodeTooManyRequests    = "too_many_requests"
	CodeCooldownActive     = "cooldown_active"

	CodeEmailRequired      = "email_required"
	CodeInvalidEmailFormat = "invalid_email_format"
	CodeEmailAlreadyExists = "email_already_exists"
	CodePasswordRequired   = "password_required"
	CodePasswordTooShort   = "password_too_short"
	CodeInvalidCredentials = "invalid_credentials"

	CodeMissingAuth          = "missing_auth"
	CodeInvalidAuthHeader    = "invalid_auth_header"
	CodeInvalidToken         = "invalid_token"
	CodeTokenExpired         = "token_expired"
	CodeInvalidTokenUserID   = "invalid_token_user_id"
	CodeRefreshTokenRequired = "refresh_token_required"
	CodeInvalidRefreshToken  = "invalid_refresh_token"
	CodeMagicLinkRequired    = "magic_link_token_required"
	CodeInvalidMagicLink     = "invalid_magic_link"

	CodeAuthRequired     = "authentication_required"
	CodeAdminRequired    = "admin_access_required"
	CodeNotFound         = "not_found"
	CodeValidationFailed = "validation_failed"
)
