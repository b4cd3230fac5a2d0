package apierror

import "net/http"

// General & user (10xx)
var (
	UserNotFound        = New(1001, KindNotFound, "User not found", "", http.StatusNotFound)
	ProfileNotFound     = New(1002, KindNotFound, "User profile not found", "", http.StatusNotFound)
	CollectionExists    = New(1003, KindConflict, "Collection with the same name already exists", "", http.StatusConflict)
	CollectionNotFound  = New(1004, KindNotFound, "Collection not found", "", http.StatusNotFound)
	AssetNotFound       = New(1005, KindNotFound, "Asset not found", "", http.StatusNotFound)
	AssetAlreadyDeleted = New(1010, KindConflict, "Asset has already been deleted", "", http.StatusConflict)
	AssetNotDeleted     = New(1011, KindConflict, "Asset is not in the trash", "", http.StatusConflict)

	SharedLinkNotFound          = New(1006, KindNotFound, "Shared link not found", "", http.StatusNotFound)
	SharedLinkAlreadyExists     = New(1007, KindConflict, "Shared link already exists for this collection", "", http.StatusConflict)
	SharedLinkPasswordRequired  = New(1008, KindUnauthenticated, "Password is required to access this shared link", "", http.StatusUnauthorized)
	SharedLinkPasswordIncorrect = New(1009, KindUnauthenticated, "Incorrect password for shared link", "", http.StatusUnauthorized)
)

// Input validation (11xx)
var (
	ValidationFailed = New(1100, KindInvalid, "Validation failed", "", http.StatusBadRequest)
	PasswordInvalid  = New(1101, KindInvalid, "Password must be 6 to 20 characters long and contain at least one digit, one lowercase, one uppercase letter, and one special character", "", http.StatusBadRequest)
	EmailInvalid     = New(1102, KindInvalid, "Invalid email format", "", http.StatusBadRequest)
	UsernameInvalid  = New(1103, KindInvalid, "Username must be between 3 and 50 characters", "", http.StatusBadRequest)
	BadRequest       = New(1104, KindInvalid, "Malformed request", "", http.StatusBadRequest)
	FileTypeInvalid  = New(1105, KindInvalid, "File type is not allowed", "", http.StatusBadRequest)
	FileTooLarge     = New(1106, KindInvalid, "File exceeds the maximum upload size", "", http.StatusRequestEntityTooLarge)
)

// Authentication (12xx)
var (
	Unauthenticated     = New(1201, KindUnauthenticated, "Authentication failed, please login", "", http.StatusUnauthorized)
	InvalidCredentials  = New(1202, KindUnauthenticated, "Incorrect username or password", "", http.StatusUnauthorized)
	RefreshTokenInvalid = New(1203, KindUnauthenticated, "Refresh token is invalid or expired", "", http.StatusUnauthorized)
	Unauthorized        = New(1204, KindForbidden, "You are not authorized to access this resource", "", http.StatusForbidden)
	TokenExpired        = New(1205, KindExpired, "Access token has expired", "", http.StatusUnauthorized)
)

// Registration (13xx)
var (
	UsernameExists = New(1301, KindConflict, "Username already exists", "", http.StatusConflict)
	EmailExists    = New(1302, KindConflict, "Email already exists", "", http.StatusConflict)
	ProfileExists  = New(1303, KindConflict, "User profile already exists", "", http.StatusConflict)
)

// Email verification (14xx)
var (
	AccountNotActivated      = New(1401, KindForbidden, "Account has not been activated. Please check your email.", "", http.StatusForbidden)
	AccountAlreadyActivated  = New(1402, KindConflict, "Account has already been activated", "", http.StatusConflict)
	VerificationTokenInvalid = New(1403, KindInvalid, "Verification token is invalid", "", http.StatusBadRequest)
	VerificationTokenExpired = New(1404, KindExpired, "Verification token has expired", "", http.StatusGone)
)

// Password reset (15xx)
var (
	ResetPasswordTokenInvalid = New(1501, KindInvalid, "Password reset token is invalid", "", http.StatusBadRequest)
	ResetPasswordTokenExpired = New(1502, KindExpired, "Password reset token has expired", "", http.StatusGone)
)

// Authorization (2xxx)
var (
	Forbidden = New(2001, KindForbidden, "You do not have permission to access this resource", "", http.StatusForbidden)
)

// System & external (9xxx)
var (
	EmailSendingFailed = New(9001, KindExternal, "Failed to send email due to an external service error", "", http.StatusServiceUnavailable)
	StorageFailed      = New(9002, KindExternal, "Object storage request failed", "", http.StatusServiceUnavailable)
	IdentityProvider   = New(9003, KindExternal, "Identity provider is unavailable", "", http.StatusServiceUnavailable)
	RateLimited        = New(9004, KindInvalid, "Too many requests", "", http.StatusTooManyRequests)
	RequestTimeout     = New(9005, KindInternal, "Request timed out", "", http.StatusServiceUnavailable)
	Internal           = New(9999, KindInternal, "An unexpected error occurred", "", http.StatusInternalServerError)
)
