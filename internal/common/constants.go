package common

// Cookie names under which the transport layer places issued tokens.
// Both cookies are set httpOnly+secure by the HTTP layer.
const (
	AccessTokenCookieName  = "accessToken"
	RefreshTokenCookieName = "refreshToken"
)
