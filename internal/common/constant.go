package common

// Cookie names carrying the opaque credentials. The client never reads them;
// they are only known to the dev server and to tests.
const (
	AccessTokenCookieName  = "access_token"
	RefreshTokenCookieName = "refresh_token"
)

// API paths shared by the client facade and the dev server.
const (
	PathHealth         = "/api/health"
	PathSignIn         = "/api/auth/signin"
	PathSignOut        = "/api/auth/signout"
	PathRefresh        = "/api/auth/refresh"
	PathCurrentUser    = "/api/auth/me"
	PathPasswordOTP    = "/api/auth/password/otp"
	PathPasswordCommit = "/api/auth/password"
)

// OTPLength is the server-mandated length of a password rotation code.
const OTPLength = 6
