package auth

import (
	"net/http"
)

// SessionCookie builds the cookie that carries token. It is readable from
// script. SameSite=None needs Secure, so it is only used over TLS.
func SessionCookie(token string, secure bool) *http.Cookie {
	cookie := &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(TokenTTL.Seconds()),
		HttpOnly: false,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	if secure {
		cookie.SameSite = http.SameSiteNoneMode
	}
	return cookie
}

// ClearedSessionCookie expires the session cookie.
func ClearedSessionCookie(secure bool) *http.Cookie {
	cookie := SessionCookie("", secure)
	cookie.MaxAge = -1
	return cookie
}
