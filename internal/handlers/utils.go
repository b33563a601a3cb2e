package handlers

import "strings"

// extractCookieToken pulls one named cookie's value out of a raw Cookie
// header, or returns "" when the cookie is absent.
func extractCookieToken(cookieHeader, cookieName string) string {
	for _, part := range strings.Split(cookieHeader, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if ok && name == cookieName {
			return value
		}
	}
	return ""
}
